// Copyright 2025 Certen Protocol
//
// Notarization Scheduler - drives earned-notarization cadence
//
// The scheduler:
// - Watches the home chain height on a short check interval
// - Fires the notarize callback once per notary block period
// - Treats ineligible/stale-block results as normal and retries next block

package runner

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/brindlechain/notarycore/pkg/notaryerr"
)

// SchedulerState represents the current state of the scheduler
type SchedulerState string

const (
	SchedulerStateStopped SchedulerState = "stopped"
	SchedulerStateRunning SchedulerState = "running"
	SchedulerStatePaused  SchedulerState = "paused"
)

// NotarizeCallback attempts one earned notarization at the given height.
// It returns notaryerr.ErrIneligible when the period gate blocks the
// attempt and notaryerr.ErrStaleBlock when the tip moved during the peer
// RPC; both are retried on a later tick without logging noise.
type NotarizeCallback func(ctx context.Context, height int64) error

// HeightProvider reports the home chain's current tip height.
type HeightProvider func(ctx context.Context) (int64, error)

// Scheduler manages earned-notarization timing.
type Scheduler struct {
	mu sync.RWMutex

	callback NotarizeCallback
	height   HeightProvider

	// One earned notarization is allowed per notary block period of this
	// many blocks.
	modulo        int64
	checkInterval time.Duration

	state      SchedulerState
	lastPeriod int64
	stopCh     chan struct{}
	doneCh     chan struct{}

	metrics *Metrics
	logger  *log.Logger
}

// SchedulerConfig holds scheduler configuration
type SchedulerConfig struct {
	Modulo        int64 // notary block period length
	CheckInterval time.Duration
	Callback      NotarizeCallback
	Height        HeightProvider
	Metrics       *Metrics
	Logger        *log.Logger
}

// DefaultSchedulerConfig returns default configuration
func DefaultSchedulerConfig() *SchedulerConfig {
	return &SchedulerConfig{
		Modulo:        10,
		CheckInterval: 5 * time.Second,
		Logger:        log.New(log.Writer(), "[NotaryScheduler] ", log.LstdFlags),
	}
}

// NewScheduler creates a new notarization scheduler
func NewScheduler(cfg *SchedulerConfig) (*Scheduler, error) {
	if cfg == nil {
		cfg = DefaultSchedulerConfig()
	}
	if cfg.Callback == nil {
		return nil, ErrNilCallback
	}
	if cfg.Height == nil {
		return nil, ErrNilChainState
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(log.Writer(), "[NotaryScheduler] ", log.LstdFlags)
	}
	if cfg.Modulo <= 0 {
		cfg.Modulo = 10
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = 5 * time.Second
	}

	return &Scheduler{
		callback:      cfg.Callback,
		height:        cfg.Height,
		modulo:        cfg.Modulo,
		checkInterval: cfg.CheckInterval,
		state:         SchedulerStateStopped,
		lastPeriod:    -1,
		metrics:       cfg.Metrics,
		logger:        cfg.Logger,
	}, nil
}

// Start begins the scheduler
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == SchedulerStateRunning {
		return ErrSchedulerRunning
	}

	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.state = SchedulerStateRunning

	go s.run(ctx)

	s.logger.Printf("Scheduler started (modulo=%d, check=%s)", s.modulo, s.checkInterval)
	return nil
}

// Stop stops the scheduler and waits for the loop to exit.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if s.state != SchedulerStateRunning && s.state != SchedulerStatePaused {
		s.mu.Unlock()
		return nil
	}
	close(s.stopCh)
	s.state = SchedulerStateStopped
	done := s.doneCh
	s.mu.Unlock()

	<-done
	s.logger.Println("Scheduler stopped")
	return nil
}

// Pause suspends notarization attempts without stopping the loop.
func (s *Scheduler) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == SchedulerStateRunning {
		s.state = SchedulerStatePaused
	}
}

// Resume re-enables notarization attempts.
func (s *Scheduler) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == SchedulerStatePaused {
		s.state = SchedulerStateRunning
	}
}

// State returns the current scheduler state.
func (s *Scheduler) State() SchedulerState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.State() != SchedulerStateRunning {
				continue
			}
			s.tick(ctx)
		}
	}
}

// tick attempts one earned notarization when a new notary period began.
func (s *Scheduler) tick(ctx context.Context) {
	height, err := s.height(ctx)
	if err != nil {
		s.logger.Printf("Height check failed: %v", err)
		return
	}

	period := height / s.modulo
	s.mu.Lock()
	if period <= s.lastPeriod {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	err = s.callback(ctx, height)
	switch {
	case err == nil:
		s.mu.Lock()
		s.lastPeriod = period
		s.mu.Unlock()
		if s.metrics != nil {
			s.metrics.NotarizationsEmitted.Inc()
		}
		s.logger.Printf("Earned notarization emitted at height %d (period %d)", height, period)
	case errors.Is(err, notaryerr.ErrIneligible):
		// Another producer already notarized this period.
		s.mu.Lock()
		s.lastPeriod = period
		s.mu.Unlock()
	case errors.Is(err, notaryerr.ErrStaleBlock):
		if s.metrics != nil {
			s.metrics.StaleBlockRetries.Inc()
		}
		// Tip moved during the peer RPC; retried on the next tick.
	case errors.Is(err, notaryerr.ErrNoMatchingProofRoots), errors.Is(err, notaryerr.ErrNoNotary):
		s.logger.Printf("Notarization attempt at height %d: %v", height, err)
	default:
		s.logger.Printf("Notarization attempt at height %d failed: %v", height, err)
	}
}

// TriggerNotarize forces one immediate attempt, outside the cadence. Used
// by operators and tests.
func (s *Scheduler) TriggerNotarize(ctx context.Context) error {
	height, err := s.height(ctx)
	if err != nil {
		return err
	}
	return s.callback(ctx, height)
}
