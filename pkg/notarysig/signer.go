// Package notarysig provides the Ed25519 signing and verification
// primitives Notary Evidence (pkg/evidence) uses to sign and check
// confirm/reject attestations over a notarization's output payload.
package notarysig

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// VDXF keys bind a signature to its purpose, so the same identity key
// cannot be replayed across confirm/reject or across systems.
const (
	NotaryConfirmedKey = "vdxf:iCtcHDMSmPNFzMqjVjMs5nmvRHt3Tipbzc" // notary.confirmed
	NotaryRejectedKey  = "vdxf:iRtmuZpT4hibTiJ3c4a8MLxgkKCSAmJMV9" // notary.rejected
)

// SigningMessage builds the canonical signing message: a hash over
// the VDXF key, an empty statement list, system_id, height, an empty
// prefix, and finally the raw payload bytes of the target output,
// assembled without any length prefix on the payload.
func SigningMessage(vdxfKey, systemID string, height int64, payload []byte) []byte {
	h := sha256.New()
	h.Write([]byte(vdxfKey))
	// empty statement list: nothing written
	h.Write([]byte(systemID))
	var heightBuf [8]byte
	binary.BigEndian.PutUint64(heightBuf[:], uint64(height))
	h.Write(heightBuf[:])
	// empty prefix string: nothing written
	h.Write(payload)
	return h.Sum(nil)
}

// Signer holds one notary identity's Ed25519 keypair.
type Signer struct {
	identityID string
	priv       ed25519.PrivateKey
	pub        ed25519.PublicKey
}

// NewSigner constructs a Signer from a private key.
func NewSigner(identityID string, priv ed25519.PrivateKey) (*Signer, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("notarysig: invalid private key size: got %d want %d", len(priv), ed25519.PrivateKeySize)
	}
	return &Signer{
		identityID: identityID,
		priv:       priv,
		pub:        priv.Public().(ed25519.PublicKey),
	}, nil
}

// IdentityID returns the notary identity this signer speaks for.
func (s *Signer) IdentityID() string { return s.identityID }

// PublicKey returns the raw public key.
func (s *Signer) PublicKey() ed25519.PublicKey { return s.pub }

// PublicKeyHex renders the public key for config/log output.
func (s *Signer) PublicKeyHex() string { return hex.EncodeToString(s.pub) }

// Sign produces a signature over SigningMessage(vdxfKey, systemID, height, payload).
func (s *Signer) Sign(vdxfKey, systemID string, height int64, payload []byte) []byte {
	msg := SigningMessage(vdxfKey, systemID, height, payload)
	return ed25519.Sign(s.priv, msg)
}

// Verifier checks signatures against a set of known notary identities.
type Verifier struct {
	knownKeys map[string]ed25519.PublicKey
}

// NewVerifier constructs an empty Verifier.
func NewVerifier() *Verifier {
	return &Verifier{knownKeys: make(map[string]ed25519.PublicKey)}
}

// RegisterIdentity makes an identity's public key known to the verifier,
// required before Verify will accept any signature under that ID.
func (v *Verifier) RegisterIdentity(identityID string, pub ed25519.PublicKey) {
	v.knownKeys[identityID] = pub
}

// Verify checks a signature over SigningMessage for the given identity.
// Returns false for an unregistered identity: there is no such thing as an
// "unauthorized but valid" signature in this scheme.
func (v *Verifier) Verify(identityID, vdxfKey, systemID string, height int64, payload, signature []byte) bool {
	pub, ok := v.knownKeys[identityID]
	if !ok {
		return false
	}
	msg := SigningMessage(vdxfKey, systemID, height, payload)
	return ed25519.Verify(pub, msg, signature)
}

// IsKnown reports whether identityID has a registered public key.
func (v *Verifier) IsKnown(identityID string) bool {
	_, ok := v.knownKeys[identityID]
	return ok
}
