// Copyright 2025 Certen Protocol
//
// Confirmation Tracker - advances pending finalizations
//
// The confirmation tracker:
// - Periodically polls for pending finalizations past their minimum height
// - Invokes the confirm/reject pass for the newest eligible one
// - Updates finalization state and the confirmed-tip gauge when terminal

package runner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/brindlechain/notarycore/pkg/database"
	"github.com/brindlechain/notarycore/pkg/notaryerr"
)

// AdvanceResult is what one confirm/reject pass decided.
type AdvanceResult struct {
	SignaturesAdded int
	Confirmed       bool
	Rejected        bool
	TipHeight       int64 // confirmed tip height after the pass, if Confirmed
}

// AdvanceCallback runs the confirm/reject pass over one pending
// finalization output. notaryerr.ErrNoValidUnconfirmed means nothing was
// eligible and is not an error.
type AdvanceCallback func(ctx context.Context, row *database.FinalizationRow, height int64) (*AdvanceResult, error)

// ConfirmationTracker monitors pending finalizations.
type ConfirmationTracker struct {
	mu sync.RWMutex

	repos    *database.Repositories
	height   HeightProvider
	callback AdvanceCallback

	currencyID   string
	pollInterval time.Duration

	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	metrics *Metrics
	logger  *log.Logger
}

// ConfirmationTrackerConfig holds tracker configuration
type ConfirmationTrackerConfig struct {
	CurrencyID   string
	PollInterval time.Duration
	Callback     AdvanceCallback
	Height       HeightProvider
	Metrics      *Metrics
	Logger       *log.Logger
}

// DefaultConfirmationTrackerConfig returns default configuration
func DefaultConfirmationTrackerConfig() *ConfirmationTrackerConfig {
	return &ConfirmationTrackerConfig{
		PollInterval: 30 * time.Second,
		Logger:       log.New(log.Writer(), "[ConfirmationTracker] ", log.LstdFlags),
	}
}

// NewConfirmationTracker creates a new confirmation tracker
func NewConfirmationTracker(repos *database.Repositories, cfg *ConfirmationTrackerConfig) (*ConfirmationTracker, error) {
	if repos == nil {
		return nil, ErrNilRepositories
	}
	if cfg == nil {
		cfg = DefaultConfirmationTrackerConfig()
	}
	if cfg.Callback == nil {
		return nil, ErrNilCallback
	}
	if cfg.Height == nil {
		return nil, ErrNilChainState
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(log.Writer(), "[ConfirmationTracker] ", log.LstdFlags)
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 30 * time.Second
	}

	return &ConfirmationTracker{
		repos:        repos,
		height:       cfg.Height,
		callback:     cfg.Callback,
		currencyID:   cfg.CurrencyID,
		pollInterval: cfg.PollInterval,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
	}, nil
}

// Start begins the confirmation tracking loop
func (t *ConfirmationTracker) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return ErrTrackerRunning
	}
	t.running = true
	t.stopCh = make(chan struct{})
	t.doneCh = make(chan struct{})
	t.mu.Unlock()

	go t.run(ctx)

	t.logger.Printf("Confirmation tracker started (poll=%s)", t.pollInterval)
	return nil
}

// Stop stops the tracker and waits for the loop to exit.
func (t *ConfirmationTracker) Stop() error {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return nil
	}
	t.running = false
	close(t.stopCh)
	done := t.doneCh
	t.mu.Unlock()

	<-done
	t.logger.Println("Confirmation tracker stopped")
	return nil
}

func (t *ConfirmationTracker) run(ctx context.Context) {
	defer close(t.doneCh)

	ticker := time.NewTicker(t.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.checkPendingFinalizations(ctx)
		}
	}
}

// checkPendingFinalizations advances at most one pending finalization per
// poll: the confirm/reject pass signs only one eligible record per call,
// so driving more than one here would just burn peer RPCs.
func (t *ConfirmationTracker) checkPendingFinalizations(ctx context.Context) {
	height, err := t.height(ctx)
	if err != nil {
		t.logger.Printf("Height check failed: %v", err)
		return
	}

	pending, err := t.repos.Finalizations.ListPending(ctx, t.currencyID, height)
	if err != nil {
		t.logger.Printf("Failed to list pending finalizations: %v", err)
		return
	}
	if len(pending) == 0 {
		return
	}

	// Newest eligible first.
	row := pending[len(pending)-1]
	result, err := t.callback(ctx, row, height)
	switch {
	case err == nil:
	case errors.Is(err, notaryerr.ErrNoValidUnconfirmed):
		return
	case errors.Is(err, notaryerr.ErrStaleBlock):
		if t.metrics != nil {
			t.metrics.StaleBlockRetries.Inc()
		}
		return
	default:
		t.logger.Printf("Confirm/reject pass for %s:%d failed: %v", row.OutputTxID, row.OutputVout, err)
		return
	}
	if result == nil {
		return
	}

	if t.metrics != nil && result.SignaturesAdded > 0 {
		t.metrics.SignaturesCollected.Add(float64(result.SignaturesAdded))
	}

	switch {
	case result.Confirmed:
		if err := t.repos.Finalizations.SetState(ctx, row.OutputTxID, row.OutputVout, database.FinalizationConfirmed); err != nil {
			t.logger.Printf("Failed to mark %s:%d confirmed: %v", row.OutputTxID, row.OutputVout, err)
			return
		}
		if t.metrics != nil {
			t.metrics.FinalizationsConfirmed.Inc()
			t.metrics.ConfirmedTipHeight.WithLabelValues(t.currencyID).Set(float64(result.TipHeight))
		}
		t.logger.Printf("Finalization %s:%d confirmed", row.OutputTxID, row.OutputVout)
	case result.Rejected:
		if err := t.repos.Finalizations.SetState(ctx, row.OutputTxID, row.OutputVout, database.FinalizationRejected); err != nil {
			t.logger.Printf("Failed to mark %s:%d rejected: %v", row.OutputTxID, row.OutputVout, err)
			return
		}
		if t.metrics != nil {
			t.metrics.FinalizationsRejected.Inc()
		}
		t.logger.Printf("Finalization %s:%d rejected", row.OutputTxID, row.OutputVout)
	}
}

// ForceCheck triggers an immediate poll, outside the cadence.
func (t *ConfirmationTracker) ForceCheck(ctx context.Context) {
	t.checkPendingFinalizations(ctx)
}

// ConfirmationStats summarizes finalization progress for status endpoints.
type ConfirmationStats struct {
	Pending   int       `json:"pending"`
	Confirmed int       `json:"confirmed"`
	CheckedAt time.Time `json:"checked_at"`
}

// GetStats reports current pending/confirmed counts.
func (t *ConfirmationTracker) GetStats(ctx context.Context) (*ConfirmationStats, error) {
	height, err := t.height(ctx)
	if err != nil {
		return nil, fmt.Errorf("height check: %w", err)
	}
	pending, err := t.repos.Finalizations.ListPending(ctx, t.currencyID, height)
	if err != nil {
		return nil, err
	}
	confirmed, err := t.repos.Finalizations.ListConfirmedByCurrency(ctx, t.currencyID)
	if err != nil {
		return nil, err
	}
	return &ConfirmationStats{
		Pending:   len(pending),
		Confirmed: len(confirmed),
		CheckedAt: time.Now(),
	}, nil
}
