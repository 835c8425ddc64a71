// Copyright 2025 Certen Protocol
//
// Receipt chains for notarization evidence
//
// A receipt walks one hash from a starting element up to an anchor root.
// Notary evidence carries layered receipts: output payload -> transaction,
// transaction -> block commitment, block commitment -> proof-root state
// root. Verifying the layers end-to-end ties an on-chain output to a
// height-pinned proof root without trusting the peer that shipped it.

package merkle

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// ReceiptEntry is one step in a receipt walk. Exactly one of Left/Right is
// set: the sibling hash on that side of the running hash.
type ReceiptEntry struct {
	Right string `json:"right,omitempty"`
	Left  string `json:"left,omitempty"`
}

// Receipt proves that Start is covered by Anchor via Entries.
type Receipt struct {
	Start   string         `json:"start"`  // hex, 32 bytes
	Anchor  string         `json:"anchor"` // hex, 32 bytes
	Entries []ReceiptEntry `json:"entries"`
}

// Validate checks field well-formedness: hex decoding and 32-byte lengths.
func (r *Receipt) Validate() error {
	if _, err := decode32(r.Start, "start"); err != nil {
		return err
	}
	if _, err := decode32(r.Anchor, "anchor"); err != nil {
		return err
	}
	for i, e := range r.Entries {
		hasLeft := e.Left != ""
		hasRight := e.Right != ""
		if hasLeft == hasRight {
			return fmt.Errorf("receipt entry %d: exactly one of left/right must be set", i)
		}
		side := e.Left
		name := "left"
		if hasRight {
			side = e.Right
			name = "right"
		}
		if _, err := decode32(side, fmt.Sprintf("entry %d %s", i, name)); err != nil {
			return err
		}
	}
	return nil
}

// ComputeRoot walks Entries from Start and returns the resulting root.
func (r *Receipt) ComputeRoot() ([32]byte, error) {
	var root [32]byte
	current, err := decode32(r.Start, "start")
	if err != nil {
		return root, err
	}
	for i, e := range r.Entries {
		var sibling []byte
		var leftFirst bool
		if e.Left != "" {
			sibling, err = decode32(e.Left, fmt.Sprintf("entry %d left", i))
			leftFirst = true
		} else {
			sibling, err = decode32(e.Right, fmt.Sprintf("entry %d right", i))
		}
		if err != nil {
			return root, err
		}
		if leftFirst {
			current = receiptHashPair(sibling, current)
		} else {
			current = receiptHashPair(current, sibling)
		}
	}
	copy(root[:], current)
	return root, nil
}

// Verify checks that the walked root equals Anchor.
func (r *Receipt) Verify() (bool, error) {
	if err := r.Validate(); err != nil {
		return false, err
	}
	root, err := r.ComputeRoot()
	if err != nil {
		return false, err
	}
	anchor, _ := decode32(r.Anchor, "anchor")
	return bytes.Equal(root[:], anchor), nil
}

// LayeredReceipt chains receipts so each layer's anchor is the next
// layer's start: output -> transaction -> block -> state root.
type LayeredReceipt struct {
	Layers []Receipt `json:"layers"`
}

// ValidateAll verifies every layer and the chaining between layers,
// returning the final anchor on success.
func (lr *LayeredReceipt) ValidateAll() (string, error) {
	if len(lr.Layers) == 0 {
		return "", fmt.Errorf("layered receipt has no layers")
	}
	for i := range lr.Layers {
		ok, err := lr.Layers[i].Verify()
		if err != nil {
			return "", fmt.Errorf("layer %d: %w", i, err)
		}
		if !ok {
			return "", fmt.Errorf("layer %d: computed root does not match anchor", i)
		}
		if i > 0 && lr.Layers[i].Start != lr.Layers[i-1].Anchor {
			return "", fmt.Errorf("layer %d start does not chain from layer %d anchor", i, i-1)
		}
	}
	return lr.Layers[len(lr.Layers)-1].Anchor, nil
}

// ToJSON serializes a receipt.
func (r *Receipt) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// ReceiptFromJSON deserializes a receipt.
func ReceiptFromJSON(data []byte) (*Receipt, error) {
	var r Receipt
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// receiptHashPair is the same SHA256(left || right) combination the tree
// uses; receipts and trees must agree on it or cross-verification fails.
func receiptHashPair(left, right []byte) []byte {
	combined := make([]byte, 0, 64)
	combined = append(combined, left...)
	combined = append(combined, right...)
	hash := sha256.Sum256(combined)
	return hash[:]
}

func decode32(s, label string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("receipt %s: invalid hex: %w", label, err)
	}
	if len(b) != 32 {
		return nil, fmt.Errorf("receipt %s: must be 32 bytes, got %d", label, len(b))
	}
	return b, nil
}
