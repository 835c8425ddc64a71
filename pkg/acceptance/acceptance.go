// Package acceptance validates and wraps an
// earned notarization shipped by a peer system into an accepted
// notarization on this chain.
package acceptance

import (
	"context"
	"fmt"

	"github.com/brindlechain/notarycore/pkg/currencystate"
	"github.com/brindlechain/notarycore/pkg/evidence"
	"github.com/brindlechain/notarycore/pkg/finalization"
	"github.com/brindlechain/notarycore/pkg/notarization"
	"github.com/brindlechain/notarycore/pkg/notaryerr"
	"github.com/brindlechain/notarycore/pkg/proofroot"
)

// ExternalSystem describes the peer system an earned notarization claims
// to originate from: its notary set and its declared finalization
// protocol.
type ExternalSystem struct {
	SystemID              string
	Notaries              []string
	NotarizationProtocol  finalization.Protocol
	IsNotaryChainIDProtocol bool // true when notarization_protocol == NOTARY_CHAINID (no finalization output emitted)
}

// HomeChain is the read-only view of local state CreateAcceptedNotarization
// checks the earned notarization against.
type HomeChain interface {
	HomeSystemID() string
	LastConfirmedHomeProofRoot(ctx context.Context, peerSystem string) (proofroot.ProofRoot, bool, error)
	RecomputeProofRoot(ctx context.Context, height int64) (proofroot.ProofRoot, error)
	CurrencyStateAt(ctx context.Context, currencyID string, height int64) (*currencystate.State, error)
	IsHomeCurrency(currencyID string) bool
	IsTokenCurrency(currencyID string) bool
	CurrencyIsRegistered(currencyID string) bool
	LastUnspentAcceptedOutputRef() (notarization.OutputRef, bool)
}

// Result is the bundle CreateAcceptedNotarization emits for inclusion.
type Result struct {
	Accepted     *notarization.Record
	Evidence     *evidence.Evidence
	Finalization *finalization.Finalization // nil iff ext.IsNotaryChainIDProtocol
}

// CreateAcceptedNotarization validates earned (an earned notarization
// received from ext) and wraps it as an accepted notarization, in a
// fixed validation order.
func CreateAcceptedNotarization(
	ctx context.Context,
	home HomeChain,
	ext ExternalSystem,
	earned *notarization.Record,
	ev *evidence.Evidence,
) (*Result, error) {
	if len(ev.Signatures) == 0 {
		return nil, fmt.Errorf("%w: evidence carries no signatures", notaryerr.ErrInsufficientEvidence)
	}
	authorized := make(map[string]bool, len(ext.Notaries))
	for _, n := range ext.Notaries {
		authorized[n] = true
	}
	for id := range ev.Signatures {
		if !authorized[id] {
			return nil, fmt.Errorf("%w: signer %s not in external system's notary set", notaryerr.ErrUnauthorizedNotary, id)
		}
	}

	if earned.IsMirror() {
		return nil, fmt.Errorf("%w: earned notarization already mirrored", notaryerr.ErrInvalidEarnedNotarization)
	}
	if err := earned.SetMirror(home.HomeSystemID(), ext.SystemID); err != nil {
		return nil, fmt.Errorf("notary: mirror flip: %w", err)
	}

	// SetMirror relocates the home system's proof root to the key
	// CurrencyID once the record is flipped to its accepted
	// orientation, since the mirrored record's CurrencyID now names the
	// home-chain currency this acceptance concerns.
	homeRoot, ok := earned.ProofRoots[earned.CurrencyID]
	if !ok {
		return nil, fmt.Errorf("%w: earned notarization carries no home proof root", notaryerr.ErrInvalidEarnedNotarization)
	}
	lastRoot, lastOK, err := home.LastConfirmedHomeProofRoot(ctx, ext.SystemID)
	if err != nil {
		return nil, fmt.Errorf("acceptance: last confirmed home proof root: %w", err)
	}
	if lastOK && homeRoot.Height <= lastRoot.Height {
		return nil, fmt.Errorf("%w: attested home proof root does not advance past last confirmed", notaryerr.ErrProofRootMismatch)
	}

	recomputed, err := home.RecomputeProofRoot(ctx, homeRoot.Height)
	if err != nil {
		return nil, fmt.Errorf("acceptance: recompute home proof root: %w", err)
	}
	if recomputed.Type != proofroot.TypePBAAS && recomputed.Type != proofroot.TypeEthereum {
		return nil, fmt.Errorf("%w: unaccepted proof root type %s", notaryerr.ErrProofRootMismatch, recomputed.Type)
	}
	if !proofroot.Equals(homeRoot, recomputed) {
		return nil, fmt.Errorf("%w: attested home proof root does not match recomputed root", notaryerr.ErrProofRootMismatch)
	}

	seenHome := false
	for sysID, state := range earned.CurrencyStates {
		if !home.IsHomeCurrency(sysID) {
			continue // foreign currencies are left unverified locally
		}
		if seenHome {
			return nil, fmt.Errorf("%w: home currency listed twice in currency_states", notaryerr.ErrInvalidEarnedNotarization)
		}
		seenHome = true
		want, err := home.CurrencyStateAt(ctx, sysID, homeRoot.Height)
		if err != nil {
			return nil, fmt.Errorf("acceptance: currency state at height: %w", err)
		}
		if !currencyStateEqual(state, want) {
			return nil, fmt.Errorf("%w: currency state for %s does not match local view", notaryerr.ErrCurrencyStateMismatch, sysID)
		}
	}

	for sysID := range earned.ProofRoots {
		if sysID == ext.SystemID {
			continue
		}
		if !home.CurrencyIsRegistered(sysID) {
			return nil, fmt.Errorf("%w: proof root for unregistered currency %s", notaryerr.ErrProofRootMismatch, sysID)
		}
		if home.IsTokenCurrency(sysID) {
			return nil, fmt.Errorf("%w: proof roots not accepted for token currency %s", notaryerr.ErrProofRootMismatch, sysID)
		}
	}

	accepted := *earned
	if prevRef, ok := home.LastUnspentAcceptedOutputRef(); ok {
		accepted.PrevNotarizationRef = &prevRef
	}

	result := &Result{Accepted: &accepted, Evidence: ev}
	if !ext.IsNotaryChainIDProtocol {
		fin := finalization.New(accepted.CurrencyID, finalization.OutputRef{}, accepted.NotarizationHeight)
		if len(ev.Signatures) >= len(ext.Notaries) {
			fin.State = finalization.Confirmed
		}
		result.Finalization = fin
	}
	return result, nil
}

func currencyStateEqual(a, b *currencystate.State) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.CurrencyID != b.CurrencyID || a.Supply != b.Supply || a.InitialSupply != b.InitialSupply || a.Emitted != b.Emitted {
		return false
	}
	if len(a.Reserves) != len(b.Reserves) {
		return false
	}
	for i := range a.Reserves {
		if a.Reserves[i] != b.Reserves[i] {
			return false
		}
	}
	return true
}
