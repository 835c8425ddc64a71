// Package proofroot implements a height-pinned cryptographic
// commitment to a chain's state.
package proofroot

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/brindlechain/notarycore/pkg/indexer"
	"github.com/brindlechain/notarycore/pkg/merkle"
)

// Type names the chain family a ProofRoot was computed for.
type Type string

const (
	TypePBAAS    Type = "PBAAS"
	TypeEthereum Type = "ETHEREUM"
)

// ProofRoot identifies (system_id, height, state_root, block_hash,
// compact_power, type). It is immutable once constructed.
type ProofRoot struct {
	SystemID     string `json:"systemid"`
	Height       int64  `json:"height"`
	StateRoot    []byte `json:"stateroot"`
	BlockHash    []byte `json:"blockhash"`
	CompactPower uint32 `json:"compactpower"`
	Type         Type   `json:"type"`
}

// Equals reports byte-wise equality over every field. Two roots at the same
// (system_id, height) with different StateRoot indicate a fork.
func Equals(a, b ProofRoot) bool {
	return a.SystemID == b.SystemID &&
		a.Height == b.Height &&
		a.Type == b.Type &&
		a.CompactPower == b.CompactPower &&
		bytes.Equal(a.StateRoot, b.StateRoot) &&
		bytes.Equal(a.BlockHash, b.BlockHash)
}

// GetProofRoot computes a binary Merkle root (pkg/merkle, an odd node paired
// with itself) over the leaves of blocks [0, height]; it is not a
// Merkle-mountain-range root. It reads the block hash at height, and
// packages it with the chain's
// compact power representation at that height. It is pure over a snapshot
// of the indexer: two calls against an unchanged indexer return identical
// results.
//
// Returns (ProofRoot{}, false, nil), meaning no root, if height exceeds
// the indexer's current tip.
func GetProofRoot(ctx context.Context, idx indexer.LeafProvider, systemID string, height int64, typ Type) (ProofRoot, bool, error) {
	tip, err := idx.TipHeight(ctx)
	if err != nil {
		return ProofRoot{}, false, fmt.Errorf("proofroot: tip height: %w", err)
	}
	if height > tip {
		return ProofRoot{}, false, nil
	}

	leaves := make([][]byte, 0, height+1)
	for h := int64(0); h <= height; h++ {
		leaf, err := idx.BlockLeaf(ctx, h)
		if err != nil {
			return ProofRoot{}, false, fmt.Errorf("proofroot: block leaf %d: %w", h, err)
		}
		leaves = append(leaves, leaf[:])
	}
	tree, err := merkle.BuildTree(leaves)
	if err != nil {
		return ProofRoot{}, false, fmt.Errorf("proofroot: build mmr: %w", err)
	}

	blockHash, err := idx.BlockHash(ctx, height)
	if err != nil {
		return ProofRoot{}, false, fmt.Errorf("proofroot: block hash %d: %w", height, err)
	}
	power, err := idx.CompactPower(ctx, height)
	if err != nil {
		return ProofRoot{}, false, fmt.Errorf("proofroot: compact power %d: %w", height, err)
	}

	return ProofRoot{
		SystemID:     systemID,
		Height:       height,
		StateRoot:    tree.Root(),
		BlockHash:    blockHash[:],
		CompactPower: power,
		Type:         typ,
	}, true, nil
}

// Canonical returns the deterministic binary form used to compute
// hash_prev_notarization and similar content hashes: each field in a fixed
// order, without any length prefix on the variable-length fields (they are
// fixed 32-byte hashes) other than SystemID, which is length-prefixed since
// it alone is free-form text.
func (p ProofRoot) Canonical() []byte {
	var buf bytes.Buffer
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(p.SystemID)))
	buf.Write(lenBuf[:])
	buf.WriteString(p.SystemID)
	binary.Write(&buf, binary.BigEndian, p.Height)
	buf.Write(p.StateRoot)
	buf.Write(p.BlockHash)
	binary.Write(&buf, binary.BigEndian, p.CompactPower)
	buf.WriteString(string(p.Type))
	return buf.Bytes()
}

// StateRootHex and BlockHashHex render the two hash fields for logs and JSON
// debugging, matching the hex-everywhere convention pkg/merkle uses.
func (p ProofRoot) StateRootHex() string { return hex.EncodeToString(p.StateRoot) }
func (p ProofRoot) BlockHashHex() string { return hex.EncodeToString(p.BlockHash) }

// ToJSON mirrors fields by name with lower-case keys.
func (p ProofRoot) ToJSON() ([]byte, error) { return json.Marshal(p) }

// FromJSON is the inverse of ToJSON.
func FromJSON(data []byte) (ProofRoot, error) {
	var p ProofRoot
	err := json.Unmarshal(data, &p)
	return p, err
}
