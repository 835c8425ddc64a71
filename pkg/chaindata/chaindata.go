// Package chaindata tracks the DAG of competing
// notarizations for one system, its confirmed tip, and its forks.
package chaindata

import (
	"context"
	"fmt"

	"github.com/brindlechain/notarycore/pkg/indexer"
	"github.com/brindlechain/notarycore/pkg/notarization"
)

// TxRef identifies the transaction that carried one notarization output.
type TxRef struct {
	TxID string
	Vout int
}

// Vtx is one (tx_ref, Notarization) pair, addressed by its position in
// ChainData.Vtx. Records reference their parent by index, never by
// pointer, so the structure stays a plain value and tests stay hermetic.
type Vtx struct {
	TxRef        TxRef
	Notarization *notarization.Record
}

// ChainData is the reconstructed notarization DAG for one system.
type ChainData struct {
	Vtx           []Vtx
	Forks         [][]int // each a chain of indices into Vtx, by prev_notarization_ref
	LastConfirmed int     // index into Vtx, or NoneIndex
	BestChain     int     // index into Forks, or NoneIndex
}

// NoneIndex is the sentinel for both LastConfirmed and BestChain.
const NoneIndex = -1

// FinalizationLookup reports whether the notarization at the given Vtx
// index has already accumulated sufficient finalization evidence to be the
// confirmed tip. The caller owns that determination (main.go and pkg/server
// answer it from the ledger's finalization markers); chaindata only asks
// the question.
type FinalizationLookup interface {
	IsConfirmed(vtxIndex int) bool
	Power(vtxIndex int) uint64
}

// GetNotarizationData reads every indexed notarization output for systemID,
// rebuilds Vtx, and reconstructs Forks by walking each record's
// PrevNotarizationRef. Equal-power forks tie-break on the lower record
// index, so reconstruction is deterministic given the same indexer
// snapshot.
func GetNotarizationData(ctx context.Context, idx indexer.AddressIndex, fin FinalizationLookup, systemID string, decode func(indexer.OutputRef) (*notarization.Record, error)) (*ChainData, error) {
	key := indexer.ConditionID(systemID, indexer.NotaryNotarizationKey)
	outs, err := idx.GetAddressIndex(ctx, key, "notarization", 0, 0)
	if err != nil {
		return nil, fmt.Errorf("chaindata: get address index: %w", err)
	}

	cd := &ChainData{LastConfirmed: NoneIndex, BestChain: NoneIndex}
	byTx := make(map[TxRef]int, len(outs))
	for _, out := range outs {
		rec, err := decode(out)
		if err != nil {
			// An indexer inconsistency (referenced but missing) is logged
			// by the caller and skipped here, not fatal.
			continue
		}
		ref := TxRef{TxID: out.TxID, Vout: out.Vout}
		idxPos := len(cd.Vtx)
		cd.Vtx = append(cd.Vtx, Vtx{TxRef: ref, Notarization: rec})
		byTx[ref] = idxPos
	}

	parentOf := func(i int) (int, bool) {
		rec := cd.Vtx[i].Notarization
		if rec.PrevNotarizationRef == nil {
			return NoneIndex, false
		}
		p, ok := byTx[TxRef{TxID: rec.PrevNotarizationRef.TxID, Vout: rec.PrevNotarizationRef.Vout}]
		return p, ok
	}

	// A record is a fork root if it has no resolvable parent within Vtx
	// (it's a definition/block-one record, or its parent is the confirmed
	// tip established by an earlier run).
	childrenOf := make(map[int][]int)
	roots := []int{}
	for i := range cd.Vtx {
		p, ok := parentOf(i)
		if !ok {
			roots = append(roots, i)
			continue
		}
		childrenOf[p] = append(childrenOf[p], i)
	}

	for _, root := range roots {
		cd.extendFork([]int{root}, childrenOf)
	}

	cd.pickBestChain(fin)
	cd.pruneConflicting()
	return cd, nil
}

// extendFork walks a fork forward from its current tip, branching into one
// entry in cd.Forks per leaf path it reaches.
func (cd *ChainData) extendFork(path []int, children map[int][]int) {
	tip := path[len(path)-1]
	kids := children[tip]
	if len(kids) == 0 {
		cd.Forks = append(cd.Forks, append([]int(nil), path...))
		return
	}
	for _, k := range kids {
		cd.extendFork(append(path, k), children)
	}
}

// pickBestChain selects BestChain by cumulative power, tie-breaking on the
// lower starting record index for determinism, and sets LastConfirmed to
// the earliest record on that fork with sufficient finalization evidence.
func (cd *ChainData) pickBestChain(fin FinalizationLookup) {
	bestPower := uint64(0)
	best := NoneIndex
	for fi, fork := range cd.Forks {
		var power uint64
		for _, vi := range fork {
			power += fin.Power(vi)
		}
		switch {
		case best == NoneIndex:
			best, bestPower = fi, power
		case power > bestPower:
			best, bestPower = fi, power
		case power == bestPower && fork[0] < cd.Forks[best][0]:
			best, bestPower = fi, power
		}
	}
	cd.BestChain = best
	if best == NoneIndex {
		return
	}
	for _, vi := range cd.Forks[best] {
		if fin.IsConfirmed(vi) {
			cd.LastConfirmed = vi
			break
		}
	}
}

// pruneConflicting removes any fork that does not contain the confirmed
// tip: once a tip is confirmed, any fork that conflicts with it (branched
// off before reaching it) has lost and is dropped.
func (cd *ChainData) pruneConflicting() {
	if cd.LastConfirmed == NoneIndex {
		return
	}
	var kept [][]int
	for _, fork := range cd.Forks {
		for _, vi := range fork {
			if vi == cd.LastConfirmed {
				kept = append(kept, fork)
				break
			}
		}
	}
	cd.Forks = kept
}
