package proofroot

import (
	"context"
	"crypto/sha256"
	"testing"
)

type fakeIndex struct {
	tip int64
}

func (f *fakeIndex) TipHeight(ctx context.Context) (int64, error) { return f.tip, nil }

func (f *fakeIndex) BlockLeaf(ctx context.Context, height int64) ([32]byte, error) {
	return sha256.Sum256([]byte{byte(height)}), nil
}

func (f *fakeIndex) BlockHash(ctx context.Context, height int64) ([32]byte, error) {
	return sha256.Sum256([]byte{0xff, byte(height)}), nil
}

func (f *fakeIndex) CompactPower(ctx context.Context, height int64) (uint32, error) {
	return uint32(height) + 1, nil
}

func TestGetProofRootAboveTipReturnsNone(t *testing.T) {
	idx := &fakeIndex{tip: 5}
	_, ok, err := GetProofRoot(context.Background(), idx, "sys1", 6, TypePBAAS)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected NONE for height above tip")
	}
}

func TestGetProofRootDeterministic(t *testing.T) {
	idx := &fakeIndex{tip: 10}
	a, ok, err := GetProofRoot(context.Background(), idx, "sys1", 4, TypePBAAS)
	if err != nil || !ok {
		t.Fatalf("unexpected: ok=%v err=%v", ok, err)
	}
	b, ok, err := GetProofRoot(context.Background(), idx, "sys1", 4, TypePBAAS)
	if err != nil || !ok {
		t.Fatalf("unexpected: ok=%v err=%v", ok, err)
	}
	if !Equals(a, b) {
		t.Fatalf("expected identical roots for identical snapshot")
	}
}

func TestEqualsDetectsFork(t *testing.T) {
	idx := &fakeIndex{tip: 10}
	a, _, _ := GetProofRoot(context.Background(), idx, "sys1", 3, TypePBAAS)
	b, _, _ := GetProofRoot(context.Background(), idx, "sys1", 4, TypePBAAS)
	if Equals(a, b) {
		t.Fatalf("expected roots at different heights to differ")
	}
}
