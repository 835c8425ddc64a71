// Copyright 2025 Certen Protocol
//
// Peer RPC Handler Tests

package server

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brindlechain/notarycore/pkg/currencystate"
	"github.com/brindlechain/notarycore/pkg/peerrpc"
	"github.com/brindlechain/notarycore/pkg/proofroot"
)

// fakeChain serves deterministic proof roots derived from the height, up
// to a fixed tip.
type fakeChain struct {
	tip int64
}

func (f *fakeChain) Height(ctx context.Context) (int64, error) {
	return f.tip, nil
}

func (f *fakeChain) GetProofRoot(ctx context.Context, height int64) (proofroot.ProofRoot, bool, error) {
	if height > f.tip {
		return proofroot.ProofRoot{}, false, nil
	}
	return fakeRoot(height), true, nil
}

func fakeRoot(height int64) proofroot.ProofRoot {
	state := sha256.Sum256([]byte{byte(height), 1})
	block := sha256.Sum256([]byte{byte(height), 2})
	return proofroot.ProofRoot{
		SystemID:     "home",
		Height:       height,
		StateRoot:    state[:],
		BlockHash:    block[:],
		CompactPower: uint32(height),
		Type:         proofroot.TypePBAAS,
	}
}

type fakeCurrencies struct{}

func (fakeCurrencies) CurrencyStates(ctx context.Context, height int64) ([]*currencystate.State, error) {
	s, err := currencystate.New("home", []string{"X"}, []int64{100}, []float64{1})
	if err != nil {
		return nil, err
	}
	return []*currencystate.State{s}, nil
}

func callGetBestProofRoot(t *testing.T, h *RPCHandlers, req peerrpc.Request) peerrpc.Response {
	t.Helper()
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	httpReq := httptest.NewRequest(http.MethodPost, "/rpc/getbestproofroot", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.HandleGetBestProofRoot(rec, httpReq)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	var resp peerrpc.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestGetBestProofRoot_AgreesOnMatchingRoots(t *testing.T) {
	h := NewRPCHandlers(&fakeChain{tip: 100}, fakeCurrencies{}, nil)

	req := peerrpc.Request{
		ProofRoots:    []proofroot.ProofRoot{fakeRoot(10), fakeRoot(50), fakeRoot(90)},
		LastConfirmed: 10,
	}
	resp := callGetBestProofRoot(t, h, req)

	if resp.BestProofRootIndex != 2 {
		t.Errorf("best index: got %d, want 2 (highest agreeing root)", resp.BestProofRootIndex)
	}
	if len(resp.ValidProofRoots) != 3 {
		t.Errorf("valid roots: got %d, want 3", len(resp.ValidProofRoots))
	}
	if resp.LatestProofRoot.Height != 100 {
		t.Errorf("latest root height: got %d, want 100", resp.LatestProofRoot.Height)
	}
	if len(resp.CurrencyStates) != 1 {
		t.Errorf("currency states: got %d, want 1", len(resp.CurrencyStates))
	}
}

func TestGetBestProofRoot_ForkedRootRejected(t *testing.T) {
	h := NewRPCHandlers(&fakeChain{tip: 100}, nil, nil)

	forked := fakeRoot(50)
	forked.StateRoot = bytes.Repeat([]byte{0xff}, 32) // same height, different state: a fork

	req := peerrpc.Request{ProofRoots: []proofroot.ProofRoot{fakeRoot(10), forked}}
	resp := callGetBestProofRoot(t, h, req)

	if resp.BestProofRootIndex != 0 {
		t.Errorf("best index: got %d, want 0", resp.BestProofRootIndex)
	}
	if len(resp.ValidProofRoots) != 1 || resp.ValidProofRoots[0] != 0 {
		t.Errorf("valid roots: got %v, want [0]", resp.ValidProofRoots)
	}
}

func TestGetBestProofRoot_NoAgreement(t *testing.T) {
	h := NewRPCHandlers(&fakeChain{tip: 100}, nil, nil)

	// Heights beyond our tip: nothing to agree with.
	req := peerrpc.Request{ProofRoots: []proofroot.ProofRoot{fakeRoot(500), fakeRoot(600)}}
	resp := callGetBestProofRoot(t, h, req)

	if resp.BestProofRootIndex != peerrpc.NoAgreement {
		t.Errorf("best index: got %d, want %d", resp.BestProofRootIndex, peerrpc.NoAgreement)
	}
	if len(resp.ValidProofRoots) != 0 {
		t.Errorf("valid roots: got %v, want none", resp.ValidProofRoots)
	}
}

func TestGetBestProofRoot_RejectsNonPost(t *testing.T) {
	h := NewRPCHandlers(&fakeChain{tip: 100}, nil, nil)

	httpReq := httptest.NewRequest(http.MethodGet, "/rpc/getbestproofroot", nil)
	rec := httptest.NewRecorder()
	h.HandleGetBestProofRoot(rec, httpReq)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}
