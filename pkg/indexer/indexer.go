// Package indexer declares the narrow, read-only contract the notarization
// core uses to reach into the underlying chain's block index. The concrete
// implementation (UTXO scan, account-based ledger, whatever) lives outside
// this module; the core only ever calls through this interface.
package indexer

import "context"

// LeafProvider answers the questions GetProofRoot (pkg/proofroot) needs to
// build a height-pinned commitment: the per-block leaf hash to fold into the
// binary Merkle root, the block hash itself, and the chain's compact
// power representation at that height.
type LeafProvider interface {
	// TipHeight returns the indexer's current chain tip. GetProofRoot
	// returns NONE for any height above this.
	TipHeight(ctx context.Context) (int64, error)

	// BlockLeaf returns the 32-byte leaf hash folded into the
	// binary Merkle root for the given height (typically the
	// block's own header hash or a commitment to its transactions).
	BlockLeaf(ctx context.Context, height int64) ([32]byte, error)

	// BlockHash returns the block hash at height.
	BlockHash(ctx context.Context, height int64) ([32]byte, error)

	// CompactPower returns the chain's compact cumulative-power encoding
	// at height (bitcoin-style nBits/chainwork compaction).
	CompactPower(ctx context.Context, height int64) (uint32, error)
}

// AddressIndex is the block-indexer contract used by notary evidence and the
// Notary Protocol Driver to enumerate notarization- and evidence-bearing
// outputs by their derived condition key.
type AddressIndex interface {
	// GetAddressIndex returns every output ever seen for key, in block
	// order, honoring [start, end] height bounds (0, 0 means unbounded).
	GetAddressIndex(ctx context.Context, key string, scriptType string, start, end int64) ([]OutputRef, error)

	// GetAddressUnspent returns only the currently unspent outputs for key.
	GetAddressUnspent(ctx context.Context, key string, scriptType string) ([]OutputRef, error)
}

// OutputRef identifies one on-chain output by its transaction id and index.
type OutputRef struct {
	TxID   string
	Vout   int
	Height int64
}

// Condition-key kinds used to derive indexer lookup keys.
const (
	NotaryNotarizationKey          = "notary-notarization"
	ObjectFinalizationConfirmedKey = "finalization-confirmed"
)

// ConditionID derives the indexer lookup key for a (currencyID, kind) pair.
func ConditionID(currencyID string, kind string) string {
	return kind + ":" + currencyID
}
