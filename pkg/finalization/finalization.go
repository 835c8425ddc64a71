// Package finalization implements the state machine that
// carries a Notarization from pending to confirmed or rejected, gated by a
// minimum height and a notary-signature threshold.
package finalization

import (
	"encoding/json"
	"fmt"

	"github.com/brindlechain/notarycore/pkg/evidence"
	"github.com/brindlechain/notarycore/pkg/notaryerr"
)

// MinBlocksBeforeFinalized is how many blocks must pass after a
// notarization before it becomes eligible for finalization.
const MinBlocksBeforeFinalized = 10

// FinalizedHeightOffset is added to a notarization's height to produce the
// minimum_height a finalization for it may carry.
const FinalizedHeightOffset = 15

// Type distinguishes the two kinds of record this state machine governs.
type Type string

const (
	TypeNotarization Type = "NOTARIZATION"
	TypeExport       Type = "EXPORT"
)

// Protocol is the currency's configured finalization discipline.
type Protocol string

const (
	ProtocolNotaryConfirm Protocol = "NOTARY_CONFIRM"
	ProtocolAuto           Protocol = "AUTO"
)

// State is the three-state machine: PENDING, CONFIRMED, REJECTED. Terminal
// once CONFIRMED or REJECTED.
type State string

const (
	Pending   State = "PENDING"
	Confirmed State = "CONFIRMED"
	Rejected  State = "REJECTED"
)

// OutputRef identifies the notarization output this finalization refers to.
type OutputRef struct {
	TxID string `json:"txid"`
	Vout int    `json:"voutnum"`
}

// Finalization is one finalization record.
type Finalization struct {
	Version         int       `json:"version"`
	Type            Type      `json:"type"`
	State           State     `json:"-"` // encoded via Flags below for wire compat
	CurrencyID      string    `json:"currencyid"`
	OutputRef       OutputRef `json:"outputref"`
	MinimumHeight   int64     `json:"minimumheight"`
	EvidenceInputs  []int     `json:"evidenceinputs,omitempty"`
	EvidenceOutputs []int     `json:"evidenceoutputs,omitempty"`
}

// flagConfirmed/flagRejected mirror the wire bitset encoding: at most
// one of CONFIRMED, REJECTED may be set; neither set means PENDING.
const (
	flagConfirmed = 1 << 0
	flagRejected  = 1 << 1
)

// New constructs a PENDING finalization for a notarization at the given
// height. minimumHeight must be at least notarizationHeight +
// FinalizedHeightOffset.
func New(currencyID string, out OutputRef, notarizationHeight int64) *Finalization {
	return &Finalization{
		Version:       1,
		Type:          TypeNotarization,
		State:         Pending,
		CurrencyID:    currencyID,
		OutputRef:     out,
		MinimumHeight: notarizationHeight + FinalizedHeightOffset,
	}
}

// IsValid checks the minimum-height floor relative to the notarization it
// finalizes. The at-most-one-terminal-flag rule is enforced by FromJSON.
func (f *Finalization) IsValid(notarizationHeight int64) error {
	if f.MinimumHeight < notarizationHeight+FinalizedHeightOffset {
		return fmt.Errorf("%w: minimum_height %d below floor for notarization height %d",
			notaryerr.ErrInvalidFinalization, f.MinimumHeight, notarizationHeight)
	}
	return nil
}

// NotariesByPolarity tallies distinct authorized notary signatures across a
// set of Evidence records that all carry the same polarity, returning an
// error if they don't (a spending transaction must not mix polarities
// across the evidence it cites, same as within one Evidence record).
func NotariesByPolarity(records []*evidence.Evidence, authorized map[string]bool) (confirming map[string]bool, rejecting map[string]bool, err error) {
	confirming = make(map[string]bool)
	rejecting = make(map[string]bool)
	for _, e := range records {
		if e == nil {
			continue
		}
		for id := range e.Signatures {
			if !authorized[id] {
				continue
			}
			switch e.Polarity {
			case evidence.Confirming:
				confirming[id] = true
			case evidence.Rejecting:
				rejecting[id] = true
			}
		}
	}
	if len(confirming) > 0 && len(rejecting) > 0 {
		return nil, nil, fmt.Errorf("%w: cited evidence mixes confirm and reject polarity", notaryerr.ErrInvalidFinalization)
	}
	return confirming, rejecting, nil
}

// Advance applies the spending discipline for a PENDING finalization:
// the spender must cite exactly one new finalization output referencing
// the prior one (enforced by the caller constructing `next` from f), and,
// for ProtocolNotaryConfirm, must aggregate >= minNotariesConfirm distinct
// authorized notary signatures of one polarity across newEvidence plus
// spentInputEvidence.
//
// atHeight is the height this spend is happening at, checked against
// MinimumHeight. Returns the next Finalization (State advanced) or an
// error; f itself is never mutated (once CONFIRMED, no valid spender
// may move it elsewhere).
func (f *Finalization) Advance(
	atHeight int64,
	protocol Protocol,
	minNotariesConfirm int,
	authorized map[string]bool,
	newEvidence, spentInputEvidence []*evidence.Evidence,
) (*Finalization, error) {
	if f.State != Pending {
		return nil, fmt.Errorf("%w: finalization already %s", notaryerr.ErrAlreadyFinalized, f.State)
	}
	if atHeight < f.MinimumHeight {
		return nil, fmt.Errorf("%w: height %d below minimum_height %d", notaryerr.ErrInvalidFinalization, atHeight, f.MinimumHeight)
	}

	next := *f

	switch protocol {
	case ProtocolNotaryConfirm:
		all := append(append([]*evidence.Evidence(nil), newEvidence...), spentInputEvidence...)
		confirming, rejecting, err := NotariesByPolarity(all, authorized)
		if err != nil {
			return nil, err
		}
		switch {
		case len(confirming) >= minNotariesConfirm:
			next.State = Confirmed
		case len(rejecting) >= minNotariesConfirm:
			next.State = Rejected
		default:
			return nil, fmt.Errorf("%w: have %d confirming / %d rejecting, need %d",
				notaryerr.ErrInsufficientEvidence, len(confirming), len(rejecting), minNotariesConfirm)
		}
	case ProtocolAuto:
		// Unimplemented outside test mode; a production caller must
		// reject rather than guess a polarity.
		return nil, fmt.Errorf("%w: AUTO finalization protocol is not implemented for production use", notaryerr.ErrInvalidFinalization)
	default:
		return nil, fmt.Errorf("%w: unknown finalization protocol %q", notaryerr.ErrInvalidFinalization, protocol)
	}

	return &next, nil
}

// ToJSON renders the wire form, encoding State into the CONFIRMED/
// REJECTED bitset flags.
func (f *Finalization) ToJSON() ([]byte, error) {
	var flags int
	switch f.State {
	case Confirmed:
		flags = flagConfirmed
	case Rejected:
		flags = flagRejected
	}
	type wire struct {
		Finalization
		Flags int `json:"flags"`
	}
	return json.Marshal(wire{Finalization: *f, Flags: flags})
}

// FromJSON is the inverse of ToJSON, reconstructing State from Flags and
// rejecting a record that sets both CONFIRMED and REJECTED.
func FromJSON(data []byte) (*Finalization, error) {
	var wire struct {
		Finalization
		Flags int `json:"flags"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("finalization: decode json: %w", err)
	}
	confirmed := wire.Flags&flagConfirmed != 0
	rejected := wire.Flags&flagRejected != 0
	if confirmed && rejected {
		return nil, fmt.Errorf("%w: both CONFIRMED and REJECTED set", notaryerr.ErrInvalidFinalization)
	}
	f := wire.Finalization
	switch {
	case confirmed:
		f.State = Confirmed
	case rejected:
		f.State = Rejected
	default:
		f.State = Pending
	}
	return &f, nil
}

// FromTransactionOutputs scans a transaction's outputs for exactly one
// finalization output of the relevant kind, mirroring notarization.Record's
// constructor discipline: reject transactions containing more than one
// finalization output of the relevant kind.
func FromTransactionOutputs(outputs [][]byte, decode func([]byte) (*Finalization, bool)) (*Finalization, error) {
	var found *Finalization
	count := 0
	for _, out := range outputs {
		f, ok := decode(out)
		if !ok {
			continue
		}
		count++
		found = f
	}
	switch count {
	case 0:
		return nil, fmt.Errorf("%w: no finalization output present", notaryerr.ErrInvalidFinalization)
	case 1:
		return found, nil
	default:
		return nil, fmt.Errorf("%w: multiple finalization outputs of this kind present", notaryerr.ErrDuplicateFinalization)
	}
}

// GetUnspentNotaryEvidence returns the union of chain-indexed and
// mempool-unspent evidence outputs for a finalization's output ref, keyed
// by the confirmed-key index, so a spender can cite them as inputs.
func GetUnspentNotaryEvidence(chainIndexed, mempoolUnspent []*evidence.Evidence) []*evidence.Evidence {
	seen := make(map[string]bool, len(chainIndexed)+len(mempoolUnspent))
	out := make([]*evidence.Evidence, 0, len(chainIndexed)+len(mempoolUnspent))
	add := func(e *evidence.Evidence) {
		key := fmt.Sprintf("%s:%d", e.OutputRef.TxID, e.OutputRef.Vout)
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, e)
	}
	for _, e := range chainIndexed {
		add(e)
	}
	for _, e := range mempoolUnspent {
		add(e)
	}
	return out
}
