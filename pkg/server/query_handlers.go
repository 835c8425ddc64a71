// Copyright 2025 Certen Protocol
//
// Query Handlers - REST surface over stored notarization state
//
// Serves the notarization chain data, individual records, finalization
// status, and notary evidence out of the repositories the consensus commit
// path writes.

package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/brindlechain/notarycore/pkg/chaindata"
	"github.com/brindlechain/notarycore/pkg/database"
	"github.com/brindlechain/notarycore/pkg/indexer"
	"github.com/brindlechain/notarycore/pkg/ledger"
	"github.com/brindlechain/notarycore/pkg/notarization"
)

// QueryHandlers serves read-only queries over persisted notarization state.
type QueryHandlers struct {
	repos       *database.Repositories
	ledgerStore *ledger.Store
	logger      *log.Logger
}

// NewQueryHandlers creates the query handlers.
func NewQueryHandlers(repos *database.Repositories, ledgerStore *ledger.Store, logger *log.Logger) *QueryHandlers {
	if logger == nil {
		logger = log.New(log.Writer(), "[QueryAPI] ", log.LstdFlags)
	}
	return &QueryHandlers{repos: repos, ledgerStore: ledgerStore, logger: logger}
}

// finalizationLookup adapts the ledger's finalization markers to the
// confirmed-tip question chain data reconstruction asks.
type finalizationLookup struct {
	store *ledger.Store
	vtx   []chaindata.Vtx
}

func (l *finalizationLookup) IsConfirmed(vtxIndex int) bool {
	if vtxIndex < 0 || vtxIndex >= len(l.vtx) {
		return false
	}
	ref := l.vtx[vtxIndex].TxRef
	m, ok, err := l.store.IsFinalized(ref.TxID, ref.Vout)
	if err != nil || !ok {
		return false
	}
	return m.Confirmed
}

func (l *finalizationLookup) Power(vtxIndex int) uint64 {
	if vtxIndex < 0 || vtxIndex >= len(l.vtx) {
		return 0
	}
	rec := l.vtx[vtxIndex].Notarization
	var power uint64 = 1
	for _, root := range rec.ProofRoots {
		power += uint64(root.CompactPower)
	}
	return power
}

// HandleGetNotarizationData serves the reconstructed chain data for one
// system: GET /v1/notarizations?system={system}.
func (h *QueryHandlers) HandleGetNotarizationData(w http.ResponseWriter, r *http.Request) {
	systemID := r.URL.Query().Get("system")
	if systemID == "" {
		h.writeError(w, http.StatusBadRequest, "bad_request", "system parameter required")
		return
	}
	ctx := r.Context()

	view := database.NewAddressIndexView(h.repos)
	decode := func(out indexer.OutputRef) (*notarization.Record, error) {
		row, err := h.repos.Notarizations.GetByOutput(ctx, out.TxID, int64(out.Vout))
		if err != nil {
			return nil, err
		}
		return notarization.FromJSON(row.Canonical)
	}

	// Two passes: the finalization lookup needs the rebuilt vtx to resolve
	// output refs, so reconstruct once without confirmation data to fill
	// it, then again with it.
	lookup := &finalizationLookup{store: h.ledgerStore}
	prelim, err := chaindata.GetNotarizationData(ctx, view, lookup, systemID, decode)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	lookup.vtx = prelim.Vtx
	cd, err := chaindata.GetNotarizationData(ctx, view, lookup, systemID, decode)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, cd)
}

// HandleGetNotarization serves one record by output reference:
// GET /v1/notarization?txid=...&vout=N
func (h *QueryHandlers) HandleGetNotarization(w http.ResponseWriter, r *http.Request) {
	txID, vout, ok := h.outputParams(w, r)
	if !ok {
		return
	}

	row, err := h.repos.Notarizations.GetByOutput(r.Context(), txID, vout)
	if errors.Is(err, database.ErrNotarizationNotFound) {
		h.writeError(w, http.StatusNotFound, "not_found", "notarization not found")
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, row)
}

// HandleGetFinalization serves one finalization's state:
// GET /v1/finalization?txid=...&vout=N
func (h *QueryHandlers) HandleGetFinalization(w http.ResponseWriter, r *http.Request) {
	txID, vout, ok := h.outputParams(w, r)
	if !ok {
		return
	}

	row, err := h.repos.Finalizations.GetByOutput(r.Context(), txID, vout)
	if errors.Is(err, database.ErrFinalizationNotFound) {
		h.writeError(w, http.StatusNotFound, "not_found", "finalization not found")
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, row)
}

// HandleGetEvidence serves the evidence bundle collected for one output:
// GET /v1/evidence?system=...&txid=...&vout=N
func (h *QueryHandlers) HandleGetEvidence(w http.ResponseWriter, r *http.Request) {
	systemID := r.URL.Query().Get("system")
	if systemID == "" {
		h.writeError(w, http.StatusBadRequest, "bad_request", "system parameter required")
		return
	}
	txID, vout, ok := h.outputParams(w, r)
	if !ok {
		return
	}

	row, err := h.repos.Evidence.GetByOutput(r.Context(), systemID, txID, vout)
	if errors.Is(err, database.ErrEvidenceNotFound) {
		h.writeError(w, http.StatusNotFound, "not_found", "evidence not found")
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, row)
}

// HandleLedgerStatus serves the confirmed tip per system plus global
// ledger metadata: GET /v1/status
func (h *QueryHandlers) HandleLedgerStatus(w http.ResponseWriter, r *http.Request) {
	meta, err := h.ledgerStore.GetMeta()
	if err != nil {
		if errors.Is(err, ledger.ErrMetaNotFound) {
			h.writeJSON(w, http.StatusOK, map[string]interface{}{"status": "empty"})
			return
		}
		h.writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	tips := make(map[string]*ledger.SystemTipState, len(meta.Systems))
	for _, sys := range meta.Systems {
		tip, err := h.ledgerStore.GetConfirmedTip(sys)
		if err != nil {
			continue
		}
		tips[sys] = tip
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":        "ok",
		"latest_height": meta.LatestHeight,
		"confirmed":     tips,
	})
}

// outputParams parses the txid/vout pair every output-addressed query
// carries.
func (h *QueryHandlers) outputParams(w http.ResponseWriter, r *http.Request) (string, int64, bool) {
	txID := r.URL.Query().Get("txid")
	if txID == "" {
		h.writeError(w, http.StatusBadRequest, "bad_request", "txid parameter required")
		return "", 0, false
	}
	voutStr := r.URL.Query().Get("vout")
	if voutStr == "" {
		voutStr = "0"
	}
	vout, err := strconv.ParseInt(voutStr, 10, 64)
	if err != nil || vout < 0 {
		h.writeError(w, http.StatusBadRequest, "bad_request", "invalid vout parameter")
		return "", 0, false
	}
	return txID, vout, true
}

func (h *QueryHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Printf("Error encoding response: %v", err)
	}
}

func (h *QueryHandlers) writeError(w http.ResponseWriter, status int, code, message string) {
	h.writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
