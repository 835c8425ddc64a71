// Copyright 2025 Certen Protocol
//
// Package database provides sentinel errors for repository operations.

package database

import "errors"

// Sentinel errors for database operations
var (
	// ErrNotFound is returned when a requested entity is not found in the database
	ErrNotFound = errors.New("entity not found")

	// ErrNotarizationNotFound is returned when a notarization row is not found
	ErrNotarizationNotFound = errors.New("notarization not found")

	// ErrEvidenceNotFound is returned when a notary evidence row is not found
	ErrEvidenceNotFound = errors.New("notary evidence not found")

	// ErrFinalizationNotFound is returned when a finalization row is not found
	ErrFinalizationNotFound = errors.New("finalization not found")

	// ErrAlreadyTerminal is returned when a finalization state change is
	// attempted on a row already confirmed or rejected
	ErrAlreadyTerminal = errors.New("finalization already in a terminal state")
)
