// Copyright 2025 Certen Protocol
//
// Runner package errors

package runner

import "errors"

// Common errors for the runner package
var (
	ErrNilCallback      = errors.New("callback cannot be nil")
	ErrNilRepositories  = errors.New("repositories cannot be nil")
	ErrNilChainState    = errors.New("chain state provider cannot be nil")
	ErrSchedulerRunning = errors.New("scheduler is already running")
	ErrTrackerRunning   = errors.New("tracker is already running")
)
