// Package notarization models one proposed or confirmed
// attestation linking two chains.
package notarization

import (
	"encoding/json"
	"fmt"

	"github.com/brindlechain/notarycore/pkg/commitment"
	"github.com/brindlechain/notarycore/pkg/currencystate"
	"github.com/brindlechain/notarycore/pkg/notaryerr"
	"github.com/brindlechain/notarycore/pkg/proofroot"
)

// Version bounds accepted by IsValid.
const (
	MinVersion = 1
	MaxVersion = 1
)

// OutputRef identifies the transaction output a record points back to.
type OutputRef struct {
	TxID string `json:"txid"`
	Vout int    `json:"voutnum"`
}

// Flags is the bit set carried on a Record, one bit per lifecycle state.
type Flags struct {
	Definition      bool `json:"definition,omitempty"`
	BlockOne        bool `json:"blockone,omitempty"`
	Prelaunch       bool `json:"prelaunch,omitempty"`
	LaunchCleared   bool `json:"launchcleared,omitempty"`
	Refunding       bool `json:"refunding,omitempty"`
	LaunchConfirmed bool `json:"launchconfirmed,omitempty"`
	Mirror          bool `json:"mirror,omitempty"`
	SameChain       bool `json:"samechain,omitempty"`
}

// Record is one proposed/confirmed cross-chain attestation.
type Record struct {
	Version              int                              `json:"version"`
	Flags                Flags                            `json:"flags"`
	Proposer             string                            `json:"proposer"`
	CurrencyID           string                            `json:"currencyid"`
	NotarizationHeight   int64                             `json:"notarizationheight"`
	PrevHeight           int64                             `json:"prevheight"`
	PrevNotarizationRef  *OutputRef                        `json:"prevnotarizationref,omitempty"`
	HashPrevNotarization []byte                            `json:"hashprevnotarization,omitempty"`
	CurrencyState        *currencystate.State              `json:"currencystate"`
	CurrencyStates       map[string]*currencystate.State   `json:"currencystates,omitempty"`
	ProofRoots           map[string]proofroot.ProofRoot     `json:"proofroots,omitempty"`
	Nodes                []string                          `json:"nodes,omitempty"`
}

// IsValid checks version range, a non-empty currency id, and the internal
// count invariants.
func (r *Record) IsValid() error {
	if r.Version < MinVersion || r.Version > MaxVersion {
		return fmt.Errorf("%w: version %d out of range", notaryerr.ErrInvalidNotarization, r.Version)
	}
	if r.CurrencyID == "" {
		return fmt.Errorf("%w: empty currency id", notaryerr.ErrInvalidNotarization)
	}
	if r.CurrencyState == nil {
		return fmt.Errorf("%w: missing primary currency state", notaryerr.ErrInvalidNotarization)
	}
	if _, ok := r.CurrencyStates[r.CurrencyID]; ok {
		return fmt.Errorf("%w: currency_states contains currency_id", notaryerr.ErrInvalidNotarization)
	}
	if r.PrevHeight > r.NotarizationHeight {
		return fmt.Errorf("%w: prev_height > notarization_height", notaryerr.ErrInvalidNotarization)
	}
	if !r.Flags.Definition && !r.Flags.BlockOne && r.PrevNotarizationRef == nil {
		return fmt.Errorf("%w: non-definition record missing prev_notarization_ref", notaryerr.ErrInvalidNotarization)
	}
	return nil
}

// FromTransactionOutputs scans a transaction's outputs for exactly one
// notarization output and parses it, rejecting transactions where zero or
// more than one candidate output is present.
func FromTransactionOutputs(outputs [][]byte, decode func([]byte) (*Record, bool)) (*Record, error) {
	var found *Record
	count := 0
	for _, out := range outputs {
		rec, ok := decode(out)
		if !ok {
			continue
		}
		count++
		found = rec
	}
	switch count {
	case 0:
		return nil, fmt.Errorf("%w: no notarization output present", notaryerr.ErrInvalidNotarization)
	case 1:
		return found, nil
	default:
		return nil, fmt.Errorf("%w: multiple notarization outputs present", notaryerr.ErrInvalidNotarization)
	}
}

// FromJSON parses the JSON wire form (field names mirrored, lower-case).
func FromJSON(data []byte) (*Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("notarization: decode json: %w", err)
	}
	return &r, nil
}

// ToJSON renders the JSON wire form.
func (r *Record) ToJSON() ([]byte, error) { return json.Marshal(r) }

// Canonical returns the deterministic binary form hashed to produce
// hash_prev_notarization: canonical JSON of every field except
// HashPrevNotarization itself, with no length prefix applied to the result.
func (r *Record) Canonical() ([]byte, error) {
	clone := *r
	clone.HashPrevNotarization = nil
	raw, err := json.Marshal(&clone)
	if err != nil {
		return nil, err
	}
	return commitment.CanonicalizeJSON(raw)
}

// Hash computes the content hash hash_prev_notarization carries: SHA256
// over the canonical form, no length prefix.
func (r *Record) Hash() ([]byte, error) {
	canon, err := r.Canonical()
	if err != nil {
		return nil, err
	}
	return commitment.HashConcat(canon), nil
}

// SetMirror swaps the "from" and "to" perspective of an earned notarization
// so it can be accepted on the opposite chain. A record already in its
// mirrored orientation cannot be mirrored again.
func (r *Record) SetMirror(homeSystemID, peerSystemID string) error {
	if r.Flags.Mirror {
		return notaryerr.ErrMirrorAlreadyMirrored
	}

	// Snapshot every value being relocated before touching the maps:
	// CurrencyID may coincide with a system id (a currency whose id is its
	// own connected system's id), and mutating the live map in place would
	// alias those keys and silently drop a root.
	curRoot, hasCur := r.ProofRoots[r.CurrencyID]
	homeRoot, hasHome := r.ProofRoots[homeSystemID]

	mirrored := make(map[string]proofroot.ProofRoot, len(r.ProofRoots))
	for sys, root := range r.ProofRoots {
		if sys == r.CurrencyID || sys == homeSystemID {
			continue
		}
		mirrored[sys] = root
	}
	if hasCur {
		mirrored[peerSystemID] = curRoot
	}
	if hasHome {
		target := r.CurrencyID
		if target == peerSystemID && hasCur {
			// CurrencyID names the peer system itself; relocating the home
			// root onto that key would clobber the peer's attested root, so
			// the home root stays under its own system id.
			target = homeSystemID
		}
		mirrored[target] = homeRoot
	}
	r.ProofRoots = mirrored

	if state, ok := r.CurrencyStates[r.CurrencyID]; ok {
		delete(r.CurrencyStates, r.CurrencyID)
		r.CurrencyStates[peerSystemID] = state
	}
	r.Flags.Mirror = true
	return nil
}

// IsMirror reports whether SetMirror has already been applied.
func (r *Record) IsMirror() bool { return r.Flags.Mirror }
