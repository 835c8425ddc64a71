// Package notaryerr collects the sentinel error kinds surfaced at the
// boundary of the notarization core, so callers can branch with errors.Is
// instead of string-matching messages.
package notaryerr

import "errors"

var (
	ErrNoNotary                  = errors.New("no-notary")
	ErrStaleBlock                = errors.New("stale-block")
	ErrIneligible                = errors.New("ineligible")
	ErrNoMatchingProofRoots      = errors.New("no-matching-proof-roots-found")
	ErrNoValidUnconfirmed        = errors.New("no-valid-unconfirmed")
	ErrInvalidEarnedNotarization = errors.New("invalid-earned-notarization")
	ErrInvalidNotarization       = errors.New("invalid-notarization")
	ErrInvalidFinalization       = errors.New("invalid-finalization")
	ErrAlreadyFinalized          = errors.New("already-finalized")
	ErrDuplicateFinalization     = errors.New("duplicate-finalization")
	ErrInsufficientEvidence      = errors.New("insufficient-evidence")
	ErrUnauthorizedNotary        = errors.New("unauthorized-notary")
	ErrInvalidOrIncompleteSig    = errors.New("invalid-or-incomplete-signature")
	ErrInvalidExport             = errors.New("invalid-export")
	ErrCurrencyStateMismatch     = errors.New("currency-state-mismatch")
	ErrProofRootMismatch         = errors.New("proof-root-mismatch")
	ErrMirrorAlreadyMirrored     = errors.New("mirror-already-mirrored")
	ErrInternal                  = errors.New("internal-error")
)
