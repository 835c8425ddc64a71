// Package notary implements the protocol driver that runs at block
// production time, queries a peer system over RPC, selects an agreed proof
// root, signs, and finalizes.
//
// Process-wide chain state (active tip, mempool, connected chains) is
// passed in explicitly as collaborator handles, so tests stay hermetic.
package notary

import (
	"context"
	"fmt"
	"sort"

	"github.com/brindlechain/notarycore/pkg/chaindata"
	"github.com/brindlechain/notarycore/pkg/evidence"
	"github.com/brindlechain/notarycore/pkg/finalization"
	"github.com/brindlechain/notarycore/pkg/notarization"
	"github.com/brindlechain/notarycore/pkg/notaryerr"
	"github.com/brindlechain/notarycore/pkg/peerrpc"
	"github.com/brindlechain/notarycore/pkg/proofroot"
)

// BlockNotarizationModulo governs earned-notarization cadence: one
// earned notarization is allowed per notary block period.
const BlockNotarizationModulo = 10

// PeerClient is the peer RPC contract, narrowed to what the driver calls.
type PeerClient interface {
	GetBestProofRoot(ctx context.Context, req peerrpc.Request) (*peerrpc.Response, error)
}

// ChainState gives the driver read-only access to the chain it is running
// on: its own tip height/hash, and a snapshot of home-chain state it needs
// to populate a new notarization. All reads happen under the main chain lock;
// this interface doesn't model the lock itself, only what's read under it.
type ChainState interface {
	Height(ctx context.Context) (int64, error)
	HomeSystemID() string
	GetProofRoot(ctx context.Context, height int64) (proofroot.ProofRoot, bool, error)
}

// Deps bundles the driver's collaborators for EarnedNotarization.
type Deps struct {
	Peer       PeerClient
	Chain      ChainState
	PeerSystem string
}

// EarnedNotarization builds a proof_roots[] array from every record in
// chainData, RPC-calls the peer for its best agreed root, and on success
// returns a new earned Notarization plus a pending Finalization.
//
// Returns notaryerr.ErrIneligible if the period gate isn't satisfied,
// notaryerr.ErrNoMatchingProofRoots if the peer reports no agreement.
func EarnedNotarization(
	ctx context.Context,
	deps Deps,
	chainData *chaindata.ChainData,
	currencyID string,
	prior *notarization.Record,
) (*notarization.Record, *finalization.Finalization, error) {
	height, err := deps.Chain.Height(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("notary: chain height: %w", err)
	}
	if prior != nil && height/BlockNotarizationModulo <= prior.NotarizationHeight/BlockNotarizationModulo {
		return nil, nil, notaryerr.ErrIneligible
	}

	req := peerrpc.Request{}
	if chainData.LastConfirmed != chaindata.NoneIndex {
		req.LastConfirmed = uint32(chainData.LastConfirmed)
	}
	for _, vtx := range chainData.Vtx {
		if root, ok := vtx.Notarization.ProofRoots[deps.PeerSystem]; ok {
			req.ProofRoots = append(req.ProofRoots, root)
		}
	}

	// RPC is the sole suspension point, performed with the caller's
	// locks released. The caller re-checks the chain tip on return.
	resp, err := deps.Peer.GetBestProofRoot(ctx, req)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", notaryerr.ErrNoNotary, err)
	}
	if resp == nil || resp.BestProofRootIndex == peerrpc.NoAgreement {
		return nil, nil, notaryerr.ErrNoMatchingProofRoots
	}

	heightAfterRPC, err := deps.Chain.Height(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("notary: chain height recheck: %w", err)
	}
	if heightAfterRPC != height {
		return nil, nil, notaryerr.ErrStaleBlock
	}

	newRec := &notarization.Record{
		Version:            notarization.MinVersion,
		Proposer:           deps.Chain.HomeSystemID(),
		CurrencyID:         currencyID,
		NotarizationHeight: height,
		ProofRoots:         map[string]proofroot.ProofRoot{deps.PeerSystem: resp.LatestProofRoot},
	}
	if prior != nil {
		newRec.PrevHeight = prior.NotarizationHeight
		hash, err := prior.Hash()
		if err != nil {
			return nil, nil, fmt.Errorf("notary: hash prior notarization: %w", err)
		}
		newRec.HashPrevNotarization = hash
	}

	home, ok, err := deps.Chain.GetProofRoot(ctx, height)
	if err != nil {
		return nil, nil, fmt.Errorf("notary: get own proof root: %w", err)
	}
	if ok {
		newRec.ProofRoots[deps.Chain.HomeSystemID()] = home
	}

	fin := finalization.New(currencyID, finalization.OutputRef{}, height)
	return newRec, fin, nil
}

// Signer is an identity this wallet controls, able to sign evidence.
type Signer struct {
	IdentityID string
	Height     int64
}

// ConfirmOrRejectDeps bundles the collaborators ConfirmOrReject needs.
type ConfirmOrRejectDeps struct {
	Peer               PeerClient
	PeerSystem         string
	ControlledNotaries []Signer // identities this wallet controls, in the peer's notary set
	KeyStore           evidence.KeyStore
	MinNotariesConfirm int
	CurrentHeight      int64
}

// EligibleNotarization is one candidate record the driver may sign,
// resolved by the caller from its local NotarizationChainData.
type EligibleNotarization struct {
	Record          *notarization.Record
	OutputRef       evidence.OutputRef
	Payload         []byte // raw payload bytes of the target output, the message notaries sign
	ExistingEvidence []*evidence.Evidence
}

// ConfirmOrRejectResult is what one driver pass decided for one eligible
// notarization.
type ConfirmOrRejectResult struct {
	Evidence     *evidence.Evidence
	Finalization *finalization.Finalization // non-nil only once threshold is reached
}

// ConfirmOrReject implements the confirm/reject pass: submits each
// candidate's peer proof root, walks the peer's validProofRoots
// newest-first, and signs the first endorsed, height-eligible record this
// wallet hasn't already signed with each controlled identity. Only one
// record is signed per call: the newest one the peer endorses, when more
// than one qualifies. Candidates the peer did not endorse, or that carry
// no proof root for the peer system, are never signed.
func ConfirmOrReject(
	ctx context.Context,
	deps ConfirmOrRejectDeps,
	eligible []EligibleNotarization, // candidate records, resolved by the caller from its local chain data
	authorizedNotaries map[string]bool,
) (*ConfirmOrRejectResult, error) {
	req := peerrpc.Request{}
	candidateAt := make([]int, 0, len(eligible)) // request index -> eligible index
	for i := range eligible {
		root, ok := eligible[i].Record.ProofRoots[deps.PeerSystem]
		if !ok {
			continue
		}
		req.ProofRoots = append(req.ProofRoots, root)
		candidateAt = append(candidateAt, i)
	}
	if len(req.ProofRoots) == 0 {
		return nil, notaryerr.ErrNoValidUnconfirmed
	}

	resp, err := deps.Peer.GetBestProofRoot(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", notaryerr.ErrNoNotary, err)
	}
	if resp == nil || resp.BestProofRootIndex == peerrpc.NoAgreement {
		return nil, notaryerr.ErrNoMatchingProofRoots
	}

	var chosen *EligibleNotarization
	for _, vi := range sortValidProofRootsDesc(resp.ValidProofRoots, req.ProofRoots) {
		if int(vi) >= len(candidateAt) {
			continue
		}
		cand := &eligible[candidateAt[vi]]
		if cand.Record.NotarizationHeight > deps.CurrentHeight-finalization.MinBlocksBeforeFinalized {
			continue
		}
		chosen = cand
		break
	}
	if chosen == nil {
		return nil, notaryerr.ErrNoValidUnconfirmed
	}

	alreadySigned := make(map[string]bool)
	for _, e := range chosen.ExistingEvidence {
		for id := range e.Signatures {
			alreadySigned[id] = true
		}
	}

	ev := evidence.New(deps.PeerSystem, chosen.OutputRef)
	if len(chosen.ExistingEvidence) > 0 {
		ev.Polarity = chosen.ExistingEvidence[0].Polarity
	}

	for _, signer := range deps.ControlledNotaries {
		if alreadySigned[signer.IdentityID] {
			continue
		}
		result, err := ev.SignConfirmed(deps.KeyStore, chosen.Payload, signer.IdentityID, signer.Height, deps.MinNotariesConfirm)
		if err != nil {
			continue // polarity conflict or uncontrollable identity: skip this identity
		}
		if result == evidence.Invalid {
			continue
		}
	}

	all := append(append([]*evidence.Evidence(nil), chosen.ExistingEvidence...), ev)
	confirming, _, err := finalization.NotariesByPolarity(all, authorizedNotaries)
	if err != nil {
		return &ConfirmOrRejectResult{Evidence: ev}, nil
	}

	result := &ConfirmOrRejectResult{Evidence: ev}
	if len(confirming) >= deps.MinNotariesConfirm {
		fin := finalization.New(chosen.Record.CurrencyID, finalization.OutputRef(chosen.OutputRef), chosen.Record.NotarizationHeight)
		confirmed, err := fin.Advance(deps.CurrentHeight, finalization.ProtocolNotaryConfirm, deps.MinNotariesConfirm, authorizedNotaries, all, nil)
		if err == nil {
			result.Finalization = confirmed
		}
	}
	return result, nil
}

// sortValidProofRootsDesc orders a peer's endorsed request indices
// newest-first by the height of the submitted root each index refers to,
// the order the confirm/reject walk requires. Out-of-range indices sort
// last and are skipped by the walk.
func sortValidProofRootsDesc(indices []uint32, submitted []proofroot.ProofRoot) []uint32 {
	heightOf := func(idx uint32) int64 {
		if int(idx) >= len(submitted) {
			return -1
		}
		return submitted[idx].Height
	}
	out := append([]uint32(nil), indices...)
	sort.Slice(out, func(i, j int) bool { return heightOf(out[i]) > heightOf(out[j]) })
	return out
}
