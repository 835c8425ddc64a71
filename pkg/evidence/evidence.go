// Package evidence collects the signatures and proof
// artifacts for one output.
//
// Polarity, whether an Evidence record is collecting confirming or
// rejecting signatures, is a property of the whole record, not of
// individual signatures: representing it as a sum type
// here, rather than a boolean plus a map, makes mixing polarities a type
// error instead of a runtime bug.
package evidence

import (
	"encoding/json"
	"fmt"

	"github.com/brindlechain/notarycore/pkg/merkle"
	"github.com/brindlechain/notarycore/pkg/notarysig"
)

// Result is the outcome of one SignConfirmed/SignRejected call.
type Result string

const (
	Invalid  Result = "INVALID"
	Partial  Result = "PARTIAL"
	Complete Result = "COMPLETE"
)

// Polarity is which direction an Evidence record's signatures point.
type Polarity int

const (
	Unset Polarity = iota
	Confirming
	Rejecting
)

// KeyStore answers whether an identity is controllable (and by which
// signer) at a given height; the concrete key storage lives outside
// this module.
type KeyStore interface {
	Signer(identityID string, height int64) (*notarysig.Signer, bool)
}

// OutputRef identifies the target output this evidence concerns.
type OutputRef struct {
	TxID string `json:"txid"`
	Vout int    `json:"voutnum"`
}

// Evidence is one version/type/system_id/output_ref evidence record.
type Evidence struct {
	Version   int                          `json:"version"`
	Type      string                       `json:"type"`
	SystemID  string                       `json:"systemid"`
	OutputRef OutputRef                    `json:"outputref"`
	Polarity  Polarity                     `json:"-"`
	Signatures map[string][]byte           `json:"signatures,omitempty"` // identity_id -> raw signature
	Proofs     []*merkle.InclusionProof    `json:"evidence,omitempty"`
}

// New constructs an empty, polarity-unset Evidence record.
func New(systemID string, out OutputRef) *Evidence {
	return &Evidence{
		Version:    1,
		Type:       "NOTARY_EVIDENCE",
		SystemID:   systemID,
		OutputRef:  out,
		Signatures: make(map[string][]byte),
	}
}

// SignConfirmed signs payload with identityID's key and adds it to the
// confirming set. Fails if the record already carries rejecting signatures
// (the polarity guard): `signatures.nonempty && !confirmed`.
func (e *Evidence) SignConfirmed(ks KeyStore, payload []byte, identityID string, height int64, requiredCount int) (Result, error) {
	return e.sign(ks, notarysig.NotaryConfirmedKey, Confirming, payload, identityID, height, requiredCount)
}

// SignRejected is the symmetric operation for the rejecting polarity.
func (e *Evidence) SignRejected(ks KeyStore, payload []byte, identityID string, height int64, requiredCount int) (Result, error) {
	return e.sign(ks, notarysig.NotaryRejectedKey, Rejecting, payload, identityID, height, requiredCount)
}

func (e *Evidence) sign(ks KeyStore, vdxfKey string, pol Polarity, payload []byte, identityID string, height int64, requiredCount int) (Result, error) {
	if len(payload) == 0 {
		return Invalid, fmt.Errorf("evidence: target output payload is empty")
	}
	if len(e.Signatures) > 0 && e.Polarity != pol {
		return Invalid, fmt.Errorf("evidence: polarity conflict: record is already %s", e.Polarity)
	}
	signer, ok := ks.Signer(identityID, height)
	if !ok {
		return Invalid, fmt.Errorf("evidence: identity %s not controllable at height %d", identityID, height)
	}

	sig := signer.Sign(vdxfKey, e.SystemID, height, payload)
	e.Polarity = pol
	e.Signatures[identityID] = sig

	if len(e.Signatures) >= requiredCount {
		return Complete, nil
	}
	return Partial, nil
}

// VerifyAll checks every collected signature against v, returning the
// number of valid, distinct-identity signatures.
func (e *Evidence) VerifyAll(v *notarysig.Verifier, payload []byte, height int64) int {
	vdxfKey := notarysig.NotaryConfirmedKey
	if e.Polarity == Rejecting {
		vdxfKey = notarysig.NotaryRejectedKey
	}
	valid := 0
	for id, sig := range e.Signatures {
		if v.Verify(id, vdxfKey, e.SystemID, height, payload, sig) {
			valid++
		}
	}
	return valid
}

func (p Polarity) String() string {
	switch p {
	case Confirming:
		return "CONFIRMING"
	case Rejecting:
		return "REJECTING"
	default:
		return "UNSET"
	}
}

// ToJSON renders the wire form; Polarity is encoded via Type-free separate
// Confirmed field for wire compatibility with external readers.
func (e *Evidence) ToJSON() ([]byte, error) {
	type wire struct {
		Evidence
		Confirmed bool `json:"confirmed"`
	}
	return json.Marshal(wire{Evidence: *e, Confirmed: e.Polarity == Confirming})
}

// FromJSON parses the wire form, reconstructing Polarity from the
// `confirmed` boolean (only meaningful once signatures are present).
func FromJSON(data []byte) (*Evidence, error) {
	var wire struct {
		Evidence
		Confirmed bool `json:"confirmed"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("evidence: decode json: %w", err)
	}
	e := wire.Evidence
	if len(e.Signatures) > 0 {
		if wire.Confirmed {
			e.Polarity = Confirming
		} else {
			e.Polarity = Rejecting
		}
	}
	return &e, nil
}
