// Copyright 2025 Certen Protocol
//
// Peer RPC Handlers - serves the getbestproofroot endpoint to peer systems
//
// A peer preparing an earned notarization about this chain sends the proof
// roots it believes describe us; we answer with which of them we agree
// with, our latest root, and the currency states it should attest to.

package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/brindlechain/notarycore/pkg/currencystate"
	"github.com/brindlechain/notarycore/pkg/peerrpc"
	"github.com/brindlechain/notarycore/pkg/proofroot"
)

// ChainView is the local chain state the RPC handlers answer from.
type ChainView interface {
	Height(ctx context.Context) (int64, error)
	GetProofRoot(ctx context.Context, height int64) (proofroot.ProofRoot, bool, error)
}

// CurrencyStateProvider enumerates the currency states a peer should carry
// in its notarization about this chain.
type CurrencyStateProvider interface {
	CurrencyStates(ctx context.Context, height int64) ([]*currencystate.State, error)
}

// RPCHandlers serves the peer-facing JSON-RPC surface.
type RPCHandlers struct {
	chain      ChainView
	currencies CurrencyStateProvider
	logger     *log.Logger
}

// NewRPCHandlers creates the peer RPC handlers.
func NewRPCHandlers(chain ChainView, currencies CurrencyStateProvider, logger *log.Logger) *RPCHandlers {
	if logger == nil {
		logger = log.New(log.Writer(), "[PeerRPC] ", log.LstdFlags)
	}
	return &RPCHandlers{chain: chain, currencies: currencies, logger: logger}
}

// HandleGetBestProofRoot answers a peer's getbestproofroot request: for
// each submitted root, recompute ours at that height and report agreement.
// The best index is the highest agreeing root; -1 means no agreement.
func (h *RPCHandlers) HandleGetBestProofRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "POST required")
		return
	}

	var req peerrpc.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "bad_request", "invalid request body: "+err.Error())
		return
	}

	ctx := r.Context()
	tip, err := h.chain.Height(ctx)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	resp := peerrpc.Response{BestProofRootIndex: peerrpc.NoAgreement}
	bestHeight := int64(-1)
	for i, submitted := range req.ProofRoots {
		local, ok, err := h.chain.GetProofRoot(ctx, submitted.Height)
		if err != nil {
			h.logger.Printf("Proof root recompute at %d failed: %v", submitted.Height, err)
			continue
		}
		if !ok || !proofroot.Equals(local, submitted) {
			continue
		}
		resp.ValidProofRoots = append(resp.ValidProofRoots, uint32(i))
		if submitted.Height > bestHeight {
			bestHeight = submitted.Height
			resp.BestProofRootIndex = i
		}
	}

	latest, ok, err := h.chain.GetProofRoot(ctx, tip)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	if ok {
		resp.LatestProofRoot = latest
	}

	if h.currencies != nil {
		states, err := h.currencies.CurrencyStates(ctx, tip)
		if err != nil {
			h.logger.Printf("Currency state enumeration failed: %v", err)
		} else {
			for _, s := range states {
				raw, err := json.Marshal(s)
				if err != nil {
					continue
				}
				resp.CurrencyStates = append(resp.CurrencyStates, raw)
			}
		}
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *RPCHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Printf("Error encoding response: %v", err)
	}
}

func (h *RPCHandlers) writeError(w http.ResponseWriter, status int, code, message string) {
	h.writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
