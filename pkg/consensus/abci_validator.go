// Copyright 2025 Certen Protocol
//
// Production ABCI Application for the Notary CometBFT Chain
// Carries notarization, evidence, and finalization transactions and
// advances each system's confirmed tip on commit.

package consensus

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	abcitypes "github.com/cometbft/cometbft/abci/types"

	"github.com/brindlechain/notarycore/pkg/database"
	"github.com/brindlechain/notarycore/pkg/evidence"
	"github.com/brindlechain/notarycore/pkg/finalization"
	"github.com/brindlechain/notarycore/pkg/ledger"
	"github.com/brindlechain/notarycore/pkg/notarization"
)

// NotaryApp implements the ABCI interface for the notary chain.
type NotaryApp struct {
	logger         *log.Logger
	latestHeight   int64
	lastCommitHash []byte
	mu             sync.RWMutex

	ledgerStore *ledger.Store
	chainID     string

	// Validator pubkeys double as notary identities: InitChain registers
	// each genesis validator's hex-encoded ed25519 public key as an
	// authorized signer ID.
	notarySet          map[string]bool
	minNotariesConfirm int

	// Current block tracking for ledger updates
	currentBlockHeight int64
	currentBlockHash   string
	currentBlockTime   time.Time
	currentRefs        []*ledger.NotarizationRef
	currentTipAdvances []*ledger.NotarizationRef
	currentMarkers     []*ledger.FinalizationMarker

	// Database repositories for persistence on commit
	repos     *database.Repositories
	pendingDB []*NotaryTx
}

// NewNotaryApp creates the ABCI application, restoring persisted state so
// CometBFT can sync properly after restart.
func NewNotaryApp(ledgerStore *ledger.Store, chainID string) *NotaryApp {
	app := &NotaryApp{
		logger:      log.New(log.Writer(), "[NotaryApp] ", log.LstdFlags),
		ledgerStore: ledgerStore,
		chainID:     chainID,
		notarySet:   make(map[string]bool),
	}

	if ledgerStore != nil {
		if state, err := ledgerStore.LoadABCIState(); err != nil {
			app.logger.Printf("Failed to load ABCI state: %v (starting fresh)", err)
		} else if state != nil {
			app.latestHeight = state.LastBlockHeight
			app.lastCommitHash = state.LastBlockAppHash
			app.logger.Printf("Restored ABCI state: height=%d", app.latestHeight)
		}
	}

	return app
}

// GetLedgerStore returns the ledger store backing this app.
func (app *NotaryApp) GetLedgerStore() *ledger.Store {
	return app.ledgerStore
}

// GetChainID returns the notary chain ID.
func (app *NotaryApp) GetChainID() string {
	return app.chainID
}

// SetRepositories sets the database repositories for commit persistence.
func (app *NotaryApp) SetRepositories(repos *database.Repositories) {
	app.repos = repos
}

// SetMinNotariesConfirm stores the signature threshold. validateNotaryTx
// does not read it: finalization transactions are not checked against a
// signature count here.
func (app *NotaryApp) SetMinNotariesConfirm(n int) {
	app.minNotariesConfirm = n
}

// NotarySet returns a copy of the authorized notary identity set.
func (app *NotaryApp) NotarySet() map[string]bool {
	app.mu.RLock()
	defer app.mu.RUnlock()
	out := make(map[string]bool, len(app.notarySet))
	for id := range app.notarySet {
		out[id] = true
	}
	return out
}

// Info returns application information for CometBFT handshake.
func (app *NotaryApp) Info(ctx context.Context, req *abcitypes.RequestInfo) (*abcitypes.ResponseInfo, error) {
	app.mu.RLock()
	defer app.mu.RUnlock()

	return &abcitypes.ResponseInfo{
		Data:             "Notary Consensus Application",
		Version:          "1.0.0",
		AppVersion:       1,
		LastBlockHeight:  app.latestHeight,
		LastBlockAppHash: app.lastCommitHash,
	}, nil
}

// CheckTx validates incoming NotaryTx envelopes before they enter the
// mempool. Payloads are decoded and structurally validated here;
// FinalizeBlock repeats the same validation and adds no chain-state checks.
func (app *NotaryApp) CheckTx(ctx context.Context, req *abcitypes.RequestCheckTx) (*abcitypes.ResponseCheckTx, error) {
	var tx NotaryTx
	if err := json.Unmarshal(req.Tx, &tx); err != nil {
		return &abcitypes.ResponseCheckTx{Code: 1, Log: "invalid NotaryTx JSON: " + err.Error()}, nil
	}
	app.mu.RLock()
	err := app.validateNotaryTx(&tx)
	app.mu.RUnlock()
	if err != nil {
		return &abcitypes.ResponseCheckTx{Code: 2, Log: "NotaryTx validation failed: " + err.Error()}, nil
	}

	return &abcitypes.ResponseCheckTx{
		Code:      0,
		GasWanted: 1,
		GasUsed:   1,
		Log:       "NotaryTx validation passed",
	}, nil
}

// validateNotaryTx decodes and validates the kind-specific payload.
func (app *NotaryApp) validateNotaryTx(tx *NotaryTx) error {
	if err := VerifyNotaryTxInvariants(tx); err != nil {
		return err
	}

	switch tx.Kind {
	case TxNotarization:
		rec, err := notarization.FromJSON(tx.Notarization)
		if err != nil {
			return fmt.Errorf("notarization payload: %w", err)
		}
		if err := rec.IsValid(); err != nil {
			return err
		}
	case TxEvidence:
		ev, err := evidence.FromJSON(tx.Evidence)
		if err != nil {
			return fmt.Errorf("evidence payload: %w", err)
		}
		for id := range ev.Signatures {
			if len(app.notarySet) > 0 && !app.notarySet[id] {
				return fmt.Errorf("evidence signer %s not in notary set", id)
			}
		}
	case TxFinalization:
		fin, err := finalization.FromJSON(tx.Finalization)
		if err != nil {
			return fmt.Errorf("finalization payload: %w", err)
		}
		if (fin.State == finalization.Confirmed) != tx.Confirmed {
			return fmt.Errorf("finalization state does not match envelope confirmed flag")
		}
		if (fin.State == finalization.Rejected) != tx.Rejected {
			return fmt.Errorf("finalization state does not match envelope rejected flag")
		}
	}
	return nil
}

// processNotaryTransaction applies one envelope during FinalizeBlock.
// Caller holds app.mu.
func (app *NotaryApp) processNotaryTransaction(txBytes []byte) abcitypes.ExecTxResult {
	var tx NotaryTx
	if err := json.Unmarshal(txBytes, &tx); err != nil {
		return abcitypes.ExecTxResult{Code: 1, Log: "invalid NotaryTx JSON: " + err.Error()}
	}
	if err := app.validateNotaryTx(&tx); err != nil {
		return abcitypes.ExecTxResult{Code: 2, Log: "NotaryTx validation failed: " + err.Error()}
	}

	tx.SubmittedAt = app.currentBlockTime.UTC()
	app.pendingDB = append(app.pendingDB, &tx)

	var events []abcitypes.Event

	switch tx.Kind {
	case TxNotarization:
		ref := &ledger.NotarizationRef{
			SystemID:   tx.SystemID,
			TxID:       tx.TxID,
			Vout:       tx.Vout,
			Height:     app.currentBlockHeight,
			RecordHash: tx.RecordHash,
			Earned:     tx.Earned,
		}
		app.currentRefs = append(app.currentRefs, ref)
		events = append(events, abcitypes.Event{
			Type: "notarization",
			Attributes: []abcitypes.EventAttribute{
				{Key: "system_id", Value: tx.SystemID},
				{Key: "txid", Value: tx.TxID},
				{Key: "record_hash", Value: tx.RecordHash},
				{Key: "earned", Value: fmt.Sprintf("%t", tx.Earned)},
			},
		})

	case TxEvidence:
		events = append(events, abcitypes.Event{
			Type: "notary_evidence",
			Attributes: []abcitypes.EventAttribute{
				{Key: "system_id", Value: tx.SystemID},
				{Key: "txid", Value: tx.TxID},
			},
		})

	case TxFinalization:
		// Markers and tip advances name the notarization output the
		// finalization refers to, the ref chain data lookups ask about.
		fin, err := finalization.FromJSON(tx.Finalization)
		if err != nil {
			return abcitypes.ExecTxResult{Code: 2, Log: "invalid finalization: " + err.Error()}
		}
		marker := &ledger.FinalizationMarker{
			SystemID:   tx.SystemID,
			TxID:       fin.OutputRef.TxID,
			Vout:       fin.OutputRef.Vout,
			Confirmed:  tx.Confirmed,
			AtHeight:   app.currentBlockHeight,
			MarkedTime: app.currentBlockTime,
		}
		if tx.Confirmed || tx.Rejected {
			app.currentMarkers = append(app.currentMarkers, marker)
		}
		if tx.Confirmed {
			app.currentTipAdvances = append(app.currentTipAdvances, &ledger.NotarizationRef{
				SystemID: tx.SystemID,
				TxID:     fin.OutputRef.TxID,
				Vout:     fin.OutputRef.Vout,
				Height:   app.currentBlockHeight,
			})
		}
		events = append(events, abcitypes.Event{
			Type: "finalization",
			Attributes: []abcitypes.EventAttribute{
				{Key: "system_id", Value: tx.SystemID},
				{Key: "txid", Value: tx.TxID},
				{Key: "confirmed", Value: fmt.Sprintf("%t", tx.Confirmed)},
				{Key: "rejected", Value: fmt.Sprintf("%t", tx.Rejected)},
			},
		})
	}

	return abcitypes.ExecTxResult{
		Code:   0,
		Log:    "NotaryTx processed",
		Events: events,
	}
}

// FinalizeBlock processes the entire block (CometBFT v0.38+).
func (app *NotaryApp) FinalizeBlock(ctx context.Context, req *abcitypes.RequestFinalizeBlock) (*abcitypes.ResponseFinalizeBlock, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	app.currentBlockHeight = req.Height
	app.currentBlockHash = fmt.Sprintf("%X", req.Hash)
	app.currentBlockTime = req.Time
	app.currentRefs = nil
	app.currentTipAdvances = nil
	app.currentMarkers = nil

	txResults := make([]*abcitypes.ExecTxResult, len(req.Txs))
	for i, tx := range req.Txs {
		result := app.processNotaryTransaction(tx)
		txResults[i] = &result
	}

	app.logger.Printf("Finalized block %d with %d transactions", req.Height, len(req.Txs))

	return &abcitypes.ResponseFinalizeBlock{TxResults: txResults}, nil
}

// Commit finalizes the block and updates application state.
func (app *NotaryApp) Commit(ctx context.Context, req *abcitypes.RequestCommit) (*abcitypes.ResponseCommit, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	app.latestHeight++

	// The block meta carries the first notarization ref; any further refs
	// in the same block are stored under their own system/height keys.
	var headRef *ledger.NotarizationRef
	if len(app.currentRefs) > 0 {
		headRef = app.currentRefs[0]
	}
	if err := app.ledgerStore.UpdateOnCommit(app.currentBlockHeight, app.currentBlockHash, app.currentBlockTime, headRef); err != nil {
		app.logger.Printf("Failed to update ledger on commit: %v", err)
	}
	for _, ref := range app.currentRefs[min(1, len(app.currentRefs)):] {
		if err := app.ledgerStore.SaveNotarizationRef(ref); err != nil {
			app.logger.Printf("Failed to save notarization ref %s:%d: %v", ref.TxID, ref.Vout, err)
		}
	}

	for _, m := range app.currentMarkers {
		if err := app.ledgerStore.MarkFinalized(m); err != nil {
			app.logger.Printf("Failed to mark finalization %s:%d: %v", m.TxID, m.Vout, err)
		}
	}
	for _, tip := range app.currentTipAdvances {
		if err := app.ledgerStore.AdvanceConfirmedTip(tip.SystemID, *tip, 0, app.currentBlockTime); err != nil {
			app.logger.Printf("Failed to advance confirmed tip for %s: %v", tip.SystemID, err)
		} else {
			app.logger.Printf("Confirmed tip for %s advanced to %s:%d", tip.SystemID, tip.TxID, tip.Vout)
		}
	}

	appHash := app.generateAppHash()
	app.lastCommitHash = appHash

	if err := app.ledgerStore.SaveABCIState(&ledger.ABCIState{
		LastBlockHeight:  app.latestHeight,
		LastBlockAppHash: appHash,
	}); err != nil {
		app.logger.Printf("Failed to persist ABCI state: %v", err)
	}

	if app.repos != nil {
		app.persistCommittedTxs(ctx)
	}
	app.pendingDB = nil

	retainHeight := app.latestHeight - 100
	if retainHeight < 0 {
		retainHeight = 0
	}
	return &abcitypes.ResponseCommit{RetainHeight: retainHeight}, nil
}

// persistCommittedTxs writes the block's transactions to Postgres. Errors
// are logged and skipped; a row that fails to persist is not retried or
// restored from the KV ledger.
func (app *NotaryApp) persistCommittedTxs(ctx context.Context) {
	for _, tx := range app.pendingDB {
		switch tx.Kind {
		case TxNotarization:
			rec, err := notarization.FromJSON(tx.Notarization)
			if err != nil {
				continue
			}
			_, err = app.repos.Notarizations.Create(ctx, &database.NewNotarizationRow{
				CurrencyID:           rec.CurrencyID,
				NotarizationHeight:   rec.NotarizationHeight,
				PrevHeight:           rec.PrevHeight,
				HashPrevNotarization: hex.EncodeToString(rec.HashPrevNotarization),
				Proposer:             rec.Proposer,
				IsMirror:             rec.IsMirror(),
				Canonical:            tx.Notarization,
				RecordHash:           tx.RecordHash,
				OutputTxID:           tx.TxID,
				OutputVout:           int64(tx.Vout),
			})
			if err != nil {
				app.logger.Printf("Failed to persist notarization %s: %v", tx.TxID, err)
			}
		case TxEvidence:
			ev, err := evidence.FromJSON(tx.Evidence)
			if err != nil {
				continue
			}
			sigs, err := json.Marshal(ev.Signatures)
			if err != nil {
				continue
			}
			pol := database.PolarityUnset
			switch ev.Polarity {
			case evidence.Confirming:
				pol = database.PolarityConfirm
			case evidence.Rejecting:
				pol = database.PolarityReject
			}
			_, err = app.repos.Evidence.Upsert(ctx, &database.NewEvidenceRow{
				SystemID:   tx.SystemID,
				OutputTxID: ev.OutputRef.TxID,
				OutputVout: int64(ev.OutputRef.Vout),
				Polarity:   pol,
				Signatures: sigs,
			})
			if err != nil {
				app.logger.Printf("Failed to persist evidence %s: %v", tx.TxID, err)
			}
		case TxFinalization:
			fin, err := finalization.FromJSON(tx.Finalization)
			if err != nil {
				continue
			}
			switch fin.State {
			case finalization.Pending:
				_, err = app.repos.Finalizations.Create(ctx, &database.NewFinalizationRow{
					CurrencyID:    fin.CurrencyID,
					OutputTxID:    fin.OutputRef.TxID,
					OutputVout:    int64(fin.OutputRef.Vout),
					MinimumHeight: fin.MinimumHeight,
					State:         database.FinalizationPending,
				})
			case finalization.Confirmed:
				err = app.repos.Finalizations.SetState(ctx, fin.OutputRef.TxID, int64(fin.OutputRef.Vout), database.FinalizationConfirmed)
			case finalization.Rejected:
				err = app.repos.Finalizations.SetState(ctx, fin.OutputRef.TxID, int64(fin.OutputRef.Vout), database.FinalizationRejected)
			}
			if err != nil {
				app.logger.Printf("Failed to persist finalization %s: %v", tx.TxID, err)
			}
		}
	}
}

// generateAppHash creates a deterministic hash of current application
// state from the refs and markers committed this block.
func (app *NotaryApp) generateAppHash() []byte {
	keys := make([]string, 0, len(app.currentRefs)+len(app.currentMarkers))
	for _, r := range app.currentRefs {
		keys = append(keys, fmt.Sprintf("n:%s:%s:%d", r.SystemID, r.TxID, r.Vout))
	}
	for _, m := range app.currentMarkers {
		keys = append(keys, fmt.Sprintf("f:%s:%s:%d:%t", m.SystemID, m.TxID, m.Vout, m.Confirmed))
	}
	if len(keys) == 0 {
		// Chain the prior hash forward so empty blocks still advance state
		// deterministically.
		h := [32]byte{}
		copy(h[:], app.lastCommitHash)
		h[0] ^= byte(app.latestHeight)
		return h[:]
	}
	sort.Strings(keys)
	hash := [32]byte{}
	for _, k := range keys {
		for i, b := range []byte(k) {
			hash[i%32] ^= b
		}
	}
	return hash[:]
}

// Query handles application state queries.
func (app *NotaryApp) Query(ctx context.Context, req *abcitypes.RequestQuery) (*abcitypes.ResponseQuery, error) {
	app.mu.RLock()
	defer app.mu.RUnlock()

	switch req.Path {
	case "/notary/tip":
		systemID := string(req.Data)
		tip, err := app.ledgerStore.GetConfirmedTip(systemID)
		if err != nil {
			return &abcitypes.ResponseQuery{Code: 1, Log: "tip not found: " + err.Error()}, nil
		}
		data, _ := json.Marshal(tip)
		return &abcitypes.ResponseQuery{Code: 0, Value: data, Log: "confirmed tip"}, nil

	case "/notary/meta":
		meta, err := app.ledgerStore.GetMeta()
		if err != nil {
			return &abcitypes.ResponseQuery{Code: 1, Log: "meta not found: " + err.Error()}, nil
		}
		data, _ := json.Marshal(meta)
		return &abcitypes.ResponseQuery{Code: 0, Value: data, Log: "ledger meta"}, nil

	case "/latest_height":
		return &abcitypes.ResponseQuery{
			Code:  0,
			Value: []byte(fmt.Sprintf("%d", app.latestHeight)),
			Log:   "Latest block height",
		}, nil

	default:
		return &abcitypes.ResponseQuery{Code: 2, Log: "unknown query path: " + req.Path}, nil
	}
}

// InitChain initializes the application and registers the genesis
// validator set as the notary identity set.
func (app *NotaryApp) InitChain(ctx context.Context, req *abcitypes.RequestInitChain) (*abcitypes.ResponseInitChain, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	for _, v := range req.Validators {
		id := hex.EncodeToString(v.PubKey.GetEd25519())
		if id == "" {
			continue
		}
		app.notarySet[id] = true
	}
	app.logger.Printf("Initialized notary chain %s with %d notary identities", req.ChainId, len(app.notarySet))
	return &abcitypes.ResponseInitChain{}, nil
}

// PrepareProposal passes transactions through unmodified.
func (app *NotaryApp) PrepareProposal(ctx context.Context, req *abcitypes.RequestPrepareProposal) (*abcitypes.ResponsePrepareProposal, error) {
	return &abcitypes.ResponsePrepareProposal{Txs: req.Txs}, nil
}

// ProcessProposal accepts all structurally valid proposals.
func (app *NotaryApp) ProcessProposal(ctx context.Context, req *abcitypes.RequestProcessProposal) (*abcitypes.ResponseProcessProposal, error) {
	return &abcitypes.ResponseProcessProposal{Status: abcitypes.ResponseProcessProposal_ACCEPT}, nil
}

// ExtendVote is unused by the notary chain.
func (app *NotaryApp) ExtendVote(ctx context.Context, req *abcitypes.RequestExtendVote) (*abcitypes.ResponseExtendVote, error) {
	return &abcitypes.ResponseExtendVote{}, nil
}

// VerifyVoteExtension is unused by the notary chain.
func (app *NotaryApp) VerifyVoteExtension(ctx context.Context, req *abcitypes.RequestVerifyVoteExtension) (*abcitypes.ResponseVerifyVoteExtension, error) {
	return &abcitypes.ResponseVerifyVoteExtension{Status: abcitypes.ResponseVerifyVoteExtension_ACCEPT}, nil
}

// ListSnapshots is unused; state sync is not offered.
func (app *NotaryApp) ListSnapshots(ctx context.Context, req *abcitypes.RequestListSnapshots) (*abcitypes.ResponseListSnapshots, error) {
	return &abcitypes.ResponseListSnapshots{}, nil
}

// OfferSnapshot is unused; state sync is not offered.
func (app *NotaryApp) OfferSnapshot(ctx context.Context, req *abcitypes.RequestOfferSnapshot) (*abcitypes.ResponseOfferSnapshot, error) {
	return &abcitypes.ResponseOfferSnapshot{Result: abcitypes.ResponseOfferSnapshot_REJECT}, nil
}

// LoadSnapshotChunk is unused; state sync is not offered.
func (app *NotaryApp) LoadSnapshotChunk(ctx context.Context, req *abcitypes.RequestLoadSnapshotChunk) (*abcitypes.ResponseLoadSnapshotChunk, error) {
	return &abcitypes.ResponseLoadSnapshotChunk{}, nil
}

// ApplySnapshotChunk is unused; state sync is not offered.
func (app *NotaryApp) ApplySnapshotChunk(ctx context.Context, req *abcitypes.RequestApplySnapshotChunk) (*abcitypes.ResponseApplySnapshotChunk, error) {
	return &abcitypes.ResponseApplySnapshotChunk{Result: abcitypes.ResponseApplySnapshotChunk_ABORT}, nil
}

// GetLatestHeight returns the last committed height.
func (app *NotaryApp) GetLatestHeight() int64 {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.latestHeight
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
