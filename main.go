// Copyright 2025 Certen Protocol
//
// notarycore - cross-chain notarization service
//
// Wires the notarization core together: configuration, Postgres
// persistence, the KV notarization ledger, the ABCI notary app, the
// peer-facing RPC/query HTTP surface, and the earned-notarization and
// confirmation loops.

package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	dbm "github.com/cometbft/cometbft-db"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/brindlechain/notarycore/pkg/chaindata"
	"github.com/brindlechain/notarycore/pkg/config"
	"github.com/brindlechain/notarycore/pkg/consensus"
	"github.com/brindlechain/notarycore/pkg/database"
	"github.com/brindlechain/notarycore/pkg/evidence"
	"github.com/brindlechain/notarycore/pkg/finalization"
	"github.com/brindlechain/notarycore/pkg/indexer"
	"github.com/brindlechain/notarycore/pkg/ledger"
	"github.com/brindlechain/notarycore/pkg/notarization"
	"github.com/brindlechain/notarycore/pkg/notary"
	"github.com/brindlechain/notarycore/pkg/notaryerr"
	"github.com/brindlechain/notarycore/pkg/notarysig"
	"github.com/brindlechain/notarycore/pkg/peerrpc"
	"github.com/brindlechain/notarycore/pkg/proofroot"
	"github.com/brindlechain/notarycore/pkg/runner"
	"github.com/brindlechain/notarycore/pkg/server"
)

// ledgerKV adapts a cometbft-db database to the ledger.KV contract.
type ledgerKV struct {
	db dbm.DB
}

func (k *ledgerKV) Get(key []byte) ([]byte, error) { return k.db.Get(key) }
func (k *ledgerKV) Set(key, value []byte) error    { return k.db.Set(key, value) }

// homeChain answers the core's questions about the chain this node runs
// on, backed by the notarization ledger the ABCI commit path writes.
type homeChain struct {
	systemID  string
	proofType proofroot.Type
	store     *ledger.Store
}

func (h *homeChain) HomeSystemID() string { return h.systemID }

func (h *homeChain) Height(ctx context.Context) (int64, error) {
	meta, err := h.store.GetMeta()
	if err == ledger.ErrMetaNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return meta.LatestHeight, nil
}

func (h *homeChain) GetProofRoot(ctx context.Context, height int64) (proofroot.ProofRoot, bool, error) {
	return proofroot.GetProofRoot(ctx, h, h.systemID, height, h.proofType)
}

// TipHeight, BlockLeaf, BlockHash, and CompactPower implement
// indexer.LeafProvider over the committed block metas.
func (h *homeChain) TipHeight(ctx context.Context) (int64, error) {
	return h.Height(ctx)
}

func (h *homeChain) BlockLeaf(ctx context.Context, height int64) ([32]byte, error) {
	var leaf [32]byte
	meta, err := h.store.GetBlock(height)
	if err != nil {
		return leaf, err
	}
	// The Ethereum proof-root family hashes block commitments with
	// Keccak256; the PBaaS family uses SHA256 of the header hash.
	if h.proofType == proofroot.TypeEthereum {
		copy(leaf[:], ethcrypto.Keccak256([]byte(meta.Hash)))
	} else {
		leaf = sha256.Sum256([]byte(meta.Hash))
	}
	return leaf, nil
}

func (h *homeChain) BlockHash(ctx context.Context, height int64) ([32]byte, error) {
	var out [32]byte
	meta, err := h.store.GetBlock(height)
	if err != nil {
		return out, err
	}
	out = common.HexToHash(meta.Hash)
	return out, nil
}

func (h *homeChain) CompactPower(ctx context.Context, height int64) (uint32, error) {
	// Until the host chain exposes cumulative work, height is the compact
	// power proxy: strictly increasing along the canonical chain.
	return uint32(height), nil
}

// keyStore maps the identities this process controls onto their signers.
type keyStore struct {
	signers map[string]*notarysig.Signer
}

func (k *keyStore) Signer(identityID string, height int64) (*notarysig.Signer, bool) {
	s, ok := k.signers[identityID]
	return s, ok
}

// HealthStatus summarizes component health for the /health endpoint.
type HealthStatus struct {
	mu         sync.RWMutex
	InstanceID string    `json:"instance_id"`
	Status     string    `json:"status"`
	Database   string    `json:"database"`
	Ledger     string    `json:"ledger"`
	StartedAt  time.Time `json:"started_at"`
}

func (h *HealthStatus) Set(component, status string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	switch component {
	case "database":
		h.Database = status
	case "ledger":
		h.Ledger = status
	}
	h.Status = "ok"
	if h.Database == "error" || h.Ledger == "error" {
		h.Status = "degraded"
	}
}

func (h *HealthStatus) ToJSON() []byte {
	h.mu.RLock()
	defer h.mu.RUnlock()
	b, _ := json.Marshal(struct {
		InstanceID string    `json:"instance_id"`
		Status     string    `json:"status"`
		Database   string    `json:"database"`
		Ledger     string    `json:"ledger"`
		StartedAt  time.Time `json:"started_at"`
	}{h.InstanceID, h.Status, h.Database, h.Ledger, h.StartedAt})
	return b
}

func main() {
	var (
		notaryConfigPath = flag.String("notary-config", "", "Path to the notary chain YAML config")
		validatorID      = flag.String("validator-id", "", "Validator ID (overrides VALIDATOR_ID env var)")
		showHelp         = flag.Bool("help", false, "Show help message")
	)
	flag.Parse()

	if *showHelp {
		printHelp()
		return
	}

	logger := log.New(log.Writer(), "[NotaryCore] ", log.LstdFlags)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}
	if *validatorID != "" {
		cfg.ValidatorID = *validatorID
	}
	if err := cfg.ValidateForDevelopment(); err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}

	var ncfg *config.NotaryConfig
	if *notaryConfigPath != "" {
		ncfg, err = config.LoadNotaryConfig(*notaryConfigPath)
		if err != nil {
			logger.Fatalf("Failed to load notary config: %v", err)
		}
		if err := ncfg.Validate(); err != nil {
			logger.Fatalf("Invalid notary config: %v", err)
		}
		// The YAML file declares the chain layout. Its first peer is used
		// only when no peer system is set; its protocol thresholds, which
		// applyDefaults always fills, replace the env values.
		if cfg.PeerSystemID == "" && len(ncfg.Peers) > 0 {
			cfg.PeerSystemID = ncfg.Peers[0].SystemID
			cfg.PeerRPCURL = ncfg.Peers[0].RPCURL
			cfg.PeerRPCTimeout = ncfg.Peers[0].RPCTimeout.Duration()
		}
		if ncfg.Protocol.MinNotariesConfirm > 0 {
			cfg.MinNotariesConfirm = ncfg.Protocol.MinNotariesConfirm
		}
		if ncfg.Protocol.BlockNotarizationModulo > 0 {
			cfg.BlockNotarizationModulo = ncfg.Protocol.BlockNotarizationModulo
		}
	}

	health := &HealthStatus{
		InstanceID: uuid.New().String(),
		Status:     "starting",
		StartedAt:  time.Now(),
	}

	// --- Persistence ---
	var dbClient *database.Client
	var repos *database.Repositories
	if cfg.DatabaseURL != "" {
		dbClient, err = database.NewClient(cfg)
		if err != nil {
			if cfg.DatabaseRequired {
				logger.Fatalf("Database connection failed: %v", err)
			}
			logger.Printf("Database unavailable, continuing without SQL persistence: %v", err)
			health.Set("database", "error")
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := dbClient.MigrateUp(ctx); err != nil {
				cancel()
				logger.Fatalf("Database migration failed: %v", err)
			}
			cancel()
			repos = database.NewRepositories(dbClient)
			health.Set("database", "ok")
		}
	} else if cfg.DatabaseRequired {
		logger.Fatal("DATABASE_URL is required but not set")
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Fatalf("Failed to create data dir: %v", err)
	}
	kvdb, err := dbm.NewDB("notaryledger", dbm.GoLevelDBBackend, cfg.DataDir)
	if err != nil {
		logger.Printf("GoLevelDB unavailable (%v), using in-memory ledger", err)
		kvdb = dbm.NewMemDB()
	}
	defer kvdb.Close()
	ledgerStore := ledger.NewStore(&ledgerKV{db: kvdb})
	health.Set("ledger", "ok")

	// --- Notary identity ---
	privateKey, err := loadOrGenerateEd25519Key(cfg)
	if err != nil {
		logger.Fatalf("Failed to load/generate Ed25519 key: %v", err)
	}
	signer, err := notarysig.NewSigner(cfg.ValidatorID, privateKey)
	if err != nil {
		logger.Fatalf("Failed to build signer: %v", err)
	}
	logger.Printf("Notary identity %s, public key %s...", cfg.ValidatorID, signer.PublicKeyHex()[:16])
	ks := &keyStore{signers: map[string]*notarysig.Signer{cfg.ValidatorID: signer}}

	// --- Consensus app ---
	app := consensus.NewNotaryApp(ledgerStore, cfg.ChainID)
	if repos != nil {
		app.SetRepositories(repos)
	}
	app.SetMinNotariesConfirm(cfg.MinNotariesConfirm)

	proofType := proofroot.TypePBAAS
	if ncfg != nil && ncfg.Home.ProofType == string(proofroot.TypeEthereum) {
		proofType = proofroot.TypeEthereum
	}
	chain := &homeChain{systemID: cfg.HomeSystemID, proofType: proofType, store: ledgerStore}

	var peerClient *peerrpc.Client
	if cfg.PeerRPCURL != "" {
		peerClient = peerrpc.New(cfg.PeerRPCURL, cfg.PeerRPCTimeout)
	}

	authorizedNotaries := make(map[string]bool, len(cfg.AuthorizedNotaries))
	for _, n := range cfg.AuthorizedNotaries {
		authorizedNotaries[n] = true
	}

	// --- Standalone block production ---
	// This process drives the ABCI app directly on a fixed cadence; it
	// does not start or attach to a CometBFT node.
	submitCh := make(chan []byte, 256)
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()
	go produceBlocks(rootCtx, app, submitCh, logger)

	submitTx := func(tx consensus.NotaryTx) error {
		raw, err := json.Marshal(tx)
		if err != nil {
			return err
		}
		select {
		case submitCh <- raw:
			return nil
		default:
			return fmt.Errorf("submit queue full")
		}
	}

	// --- Runner loops ---
	metrics := runner.NewMetrics(prometheus.DefaultRegisterer)

	notarizeOnce := func(ctx context.Context, height int64) error {
		if peerClient == nil {
			return notaryerr.ErrNoNotary
		}
		cd, prior, err := loadChainData(ctx, repos, ledgerStore, cfg.PeerSystemID)
		if err != nil {
			return err
		}
		deps := notary.Deps{Peer: peerClient, Chain: chain, PeerSystem: cfg.PeerSystemID}
		rec, fin, err := notary.EarnedNotarization(ctx, deps, cd, cfg.CurrencyID, prior)
		if err != nil {
			return err
		}
		raw, err := rec.ToJSON()
		if err != nil {
			return err
		}
		recHash, err := rec.Hash()
		if err != nil {
			return err
		}
		txid := consensus.GenerateTxID(consensus.TxNotarization, cfg.PeerSystemID, height)
		if err := submitTx(consensus.NotaryTx{
			Kind:         consensus.TxNotarization,
			TxID:         txid,
			SystemID:     cfg.PeerSystemID,
			Notarization: raw,
			RecordHash:   hex.EncodeToString(recHash),
			Earned:       true,
		}); err != nil {
			return err
		}
		fin.OutputRef = finalization.OutputRef{TxID: txid, Vout: 0}
		finRaw, err := fin.ToJSON()
		if err != nil {
			return err
		}
		return submitTx(consensus.NotaryTx{
			Kind:         consensus.TxFinalization,
			TxID:         consensus.GenerateTxID(consensus.TxFinalization, cfg.PeerSystemID, height),
			SystemID:     cfg.PeerSystemID,
			Finalization: finRaw,
		})
	}

	advanceOnce := func(ctx context.Context, row *database.FinalizationRow, height int64) (*runner.AdvanceResult, error) {
		if peerClient == nil || repos == nil {
			return nil, notaryerr.ErrNoValidUnconfirmed
		}
		eligible, err := loadEligible(ctx, repos, row)
		if err != nil {
			return nil, err
		}
		deps := notary.ConfirmOrRejectDeps{
			Peer:               peerClient,
			PeerSystem:         cfg.PeerSystemID,
			ControlledNotaries: []notary.Signer{{IdentityID: cfg.ValidatorID, Height: height}},
			KeyStore:           ks,
			MinNotariesConfirm: cfg.MinNotariesConfirm,
			CurrentHeight:      height,
		}
		result, err := notary.ConfirmOrReject(ctx, deps, eligible, authorizedNotaries)
		if err != nil {
			return nil, err
		}

		out := &runner.AdvanceResult{}
		if result.Evidence != nil && len(result.Evidence.Signatures) > 0 {
			out.SignaturesAdded = len(result.Evidence.Signatures)
			evRaw, err := result.Evidence.ToJSON()
			if err != nil {
				return nil, err
			}
			_ = submitTx(consensus.NotaryTx{
				Kind:     consensus.TxEvidence,
				TxID:     consensus.GenerateTxID(consensus.TxEvidence, cfg.PeerSystemID, height),
				SystemID: cfg.PeerSystemID,
				Evidence: evRaw,
			})
		}
		if result.Finalization != nil {
			finRaw, err := result.Finalization.ToJSON()
			if err != nil {
				return nil, err
			}
			_ = submitTx(consensus.NotaryTx{
				Kind:         consensus.TxFinalization,
				TxID:         consensus.GenerateTxID(consensus.TxFinalization, cfg.PeerSystemID, height),
				SystemID:     cfg.PeerSystemID,
				Finalization: finRaw,
				Confirmed:    result.Finalization.State == finalization.Confirmed,
				Rejected:     result.Finalization.State == finalization.Rejected,
			})
			out.Confirmed = result.Finalization.State == finalization.Confirmed
			out.Rejected = result.Finalization.State == finalization.Rejected
			out.TipHeight = height
		}
		return out, nil
	}

	scheduler, err := runner.NewScheduler(&runner.SchedulerConfig{
		Modulo:   cfg.BlockNotarizationModulo,
		Callback: notarizeOnce,
		Height:   chain.Height,
		Metrics:  metrics,
	})
	if err != nil {
		logger.Fatalf("Failed to build scheduler: %v", err)
	}
	if err := scheduler.Start(rootCtx); err != nil {
		logger.Fatalf("Failed to start scheduler: %v", err)
	}
	defer scheduler.Stop()

	var tracker *runner.ConfirmationTracker
	if repos != nil {
		tracker, err = runner.NewConfirmationTracker(repos, &runner.ConfirmationTrackerConfig{
			CurrencyID: cfg.CurrencyID,
			Callback:   advanceOnce,
			Height:     chain.Height,
			Metrics:    metrics,
		})
		if err != nil {
			logger.Fatalf("Failed to build confirmation tracker: %v", err)
		}
		if err := tracker.Start(rootCtx); err != nil {
			logger.Fatalf("Failed to start confirmation tracker: %v", err)
		}
		defer tracker.Stop()
	}

	// --- HTTP surface ---
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(health.ToJSON())
	})
	mux.Handle("/metrics", promhttp.Handler())

	rpcHandlers := server.NewRPCHandlers(chain, nil, nil)
	mux.HandleFunc("/rpc/getbestproofroot", rpcHandlers.HandleGetBestProofRoot)

	if repos != nil {
		queryHandlers := server.NewQueryHandlers(repos, ledgerStore, nil)
		mux.HandleFunc("/v1/notarizations", queryHandlers.HandleGetNotarizationData)
		mux.HandleFunc("/v1/notarization", queryHandlers.HandleGetNotarization)
		mux.HandleFunc("/v1/finalization", queryHandlers.HandleGetFinalization)
		mux.HandleFunc("/v1/evidence", queryHandlers.HandleGetEvidence)
		mux.HandleFunc("/v1/status", queryHandlers.HandleLedgerStatus)
	}

	httpServer := &http.Server{Addr: cfg.ListenAddr, Handler: mux}
	go func() {
		logger.Printf("HTTP server listening on %s", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// --- Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Println("Shutting down...")

	rootCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("HTTP shutdown: %v", err)
	}
	if dbClient != nil {
		dbClient.Close()
	}
	logger.Println("Shutdown complete")
}

// produceBlocks drives the ABCI app directly in standalone mode, folding
// queued transactions into a block every interval.
func produceBlocks(ctx context.Context, app *consensus.NotaryApp, submitCh <-chan []byte, logger *log.Logger) {
	const interval = 5 * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var txs [][]byte
		drain:
			for {
				select {
				case tx := <-submitCh:
					txs = append(txs, tx)
				default:
					break drain
				}
			}
			height := app.GetLatestHeight() + 1
			blockID := uuid.New()
			resp, err := app.FinalizeBlock(ctx, &abcitypes.RequestFinalizeBlock{
				Height: height,
				Hash:   blockID[:],
				Time:   time.Now().UTC(),
				Txs:    txs,
			})
			if err != nil {
				logger.Printf("FinalizeBlock failed at height %d: %v", height, err)
				continue
			}
			for i, r := range resp.TxResults {
				if r.Code != 0 {
					logger.Printf("Block %d tx %d rejected: %s", height, i, r.Log)
				}
			}
			if _, err := app.Commit(ctx, &abcitypes.RequestCommit{}); err != nil {
				logger.Printf("Commit failed at height %d: %v", height, err)
			}
		}
	}
}

// markerLookup answers confirmation questions from the ledger's
// finalization markers during chain data reconstruction.
type markerLookup struct {
	store *ledger.Store
	vtx   []chaindata.Vtx
}

func (l *markerLookup) IsConfirmed(vtxIndex int) bool {
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

func (l *markerLookup) Power(vtxIndex int) uint64 {
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

// loadChainData rebuilds the notarization chain data for a system and
// returns it with the record at its best tip, when one exists. Two passes:
// the marker lookup resolves output refs through the rebuilt vtx, so the
// first pass fills it and the second applies it.
func loadChainData(ctx context.Context, repos *database.Repositories, store *ledger.Store, systemID string) (*chaindata.ChainData, *notarization.Record, error) {
	if repos == nil {
		return &chaindata.ChainData{LastConfirmed: chaindata.NoneIndex, BestChain: chaindata.NoneIndex}, nil, nil
	}
	view := database.NewAddressIndexView(repos)
	decode := func(out indexer.OutputRef) (*notarization.Record, error) {
		row, err := repos.Notarizations.GetByOutput(ctx, out.TxID, int64(out.Vout))
		if err != nil {
			return nil, err
		}
		return notarization.FromJSON(row.Canonical)
	}

	lookup := &markerLookup{store: store}
	prelim, err := chaindata.GetNotarizationData(ctx, view, lookup, systemID, decode)
	if err != nil {
		return nil, nil, err
	}
	lookup.vtx = prelim.Vtx
	cd, err := chaindata.GetNotarizationData(ctx, view, lookup, systemID, decode)
	if err != nil {
		return nil, nil, err
	}

	var prior *notarization.Record
	if cd.BestChain != chaindata.NoneIndex {
		fork := cd.Forks[cd.BestChain]
		prior = cd.Vtx[fork[len(fork)-1]].Notarization
	}
	return cd, prior, nil
}

// loadEligible assembles the confirm/reject candidates for one pending
// finalization row.
func loadEligible(ctx context.Context, repos *database.Repositories, row *database.FinalizationRow) ([]notary.EligibleNotarization, error) {
	recRow, err := repos.Notarizations.GetByOutput(ctx, row.OutputTxID, row.OutputVout)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", notaryerr.ErrNoValidUnconfirmed, err)
	}
	rec, err := notarization.FromJSON(recRow.Canonical)
	if err != nil {
		return nil, err
	}

	var existing []*evidence.Evidence
	if evRow, err := repos.Evidence.GetByOutput(ctx, row.CurrencyID, row.OutputTxID, row.OutputVout); err == nil {
		var sigs map[string][]byte
		if json.Unmarshal(evRow.Signatures, &sigs) == nil {
			ev := evidence.New(evRow.SystemID, evidence.OutputRef{TxID: evRow.OutputTxID, Vout: int(evRow.OutputVout)})
			ev.Signatures = sigs
			switch evRow.Polarity {
			case database.PolarityConfirm:
				ev.Polarity = evidence.Confirming
			case database.PolarityReject:
				ev.Polarity = evidence.Rejecting
			}
			existing = append(existing, ev)
		}
	}

	return []notary.EligibleNotarization{{
		Record:           rec,
		OutputRef:        evidence.OutputRef{TxID: row.OutputTxID, Vout: int(row.OutputVout)},
		Payload:          recRow.Canonical,
		ExistingEvidence: existing,
	}}, nil
}

// loadOrGenerateEd25519Key loads the notary key from cfg.Ed25519KeyPath,
// or generates one under cfg.DataDir on first start. Keys are never
// derived from the validator ID.
func loadOrGenerateEd25519Key(cfg *config.Config) (ed25519.PrivateKey, error) {
	path := cfg.Ed25519KeyPath
	if path == "" {
		path = filepath.Join(cfg.DataDir, "notary_key.hex")
	}

	if data, err := os.ReadFile(path); err == nil {
		raw, err := hex.DecodeString(string(data))
		if err != nil {
			return nil, fmt.Errorf("invalid key file %s: %w", path, err)
		}
		if len(raw) != ed25519.PrivateKeySize {
			return nil, fmt.Errorf("key file %s: wrong key size %d", path, len(raw))
		}
		return ed25519.PrivateKey(raw), nil
	}

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, []byte(hex.EncodeToString(priv)), 0o600); err != nil {
		return nil, fmt.Errorf("failed to persist key: %w", err)
	}
	return priv, nil
}

func printHelp() {
	fmt.Println(`notarycore - cross-chain notarization service

Usage:
  notarycore [flags]

Flags:
  -notary-config string   Path to the notary chain YAML config
  -validator-id string    Notary identity ID (overrides VALIDATOR_ID)
  -help                   Show this message

Configuration is read from environment variables; see pkg/config.`)
}
