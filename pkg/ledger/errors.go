// Package ledger provides sentinel errors for ledger operations.

package ledger

import "errors"

// Sentinel errors for ledger operations
var (
	// ErrMetaNotFound is returned when ledger metadata is not found
	ErrMetaNotFound = errors.New("ledger metadata not found")

	// ErrTipNotFound is returned when no tip state exists for a system
	ErrTipNotFound = errors.New("system tip state not found")

	// ErrRefNotFound is returned when no notarization ref exists at a height
	ErrRefNotFound = errors.New("notarization ref not found")
)
