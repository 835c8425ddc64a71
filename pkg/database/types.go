// Copyright 2025 Certen Protocol
//
// Database Types for notarization core persistence
// These types map directly to the PostgreSQL schema defined in migrations/0001_init.sql

package database

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// NOTARIZATION RECORD TYPES
// ============================================================================

// NotarizationRow persists one entry of a currency's notarization chain.
// Maps to: notarizations table.
type NotarizationRow struct {
	ID                  uuid.UUID       `db:"id" json:"id"`
	CurrencyID          string          `db:"currency_id" json:"currency_id"`
	NotarizationHeight  int64           `db:"notarization_height" json:"notarization_height"`
	PrevHeight          int64           `db:"prev_height" json:"prev_height"`
	HashPrevNotarization string         `db:"hash_prev_notarization" json:"hash_prev_notarization"`
	Proposer            string          `db:"proposer" json:"proposer"`
	IsMirror            bool            `db:"is_mirror" json:"is_mirror"`
	Canonical           json.RawMessage `db:"canonical" json:"canonical"` // full Record, canonical JSON
	RecordHash          string          `db:"record_hash" json:"record_hash"`
	OutputTxID          sql.NullString  `db:"output_tx_id" json:"output_tx_id,omitempty"`
	OutputVout          sql.NullInt64   `db:"output_vout" json:"output_vout,omitempty"`
	CreatedAt           time.Time       `db:"created_at" json:"created_at"`
}

// ============================================================================
// EVIDENCE TYPES
// ============================================================================

// PolarityDB mirrors evidence.Polarity for storage.
type PolarityDB string

const (
	PolarityUnset     PolarityDB = "unset"
	PolarityConfirm   PolarityDB = "confirming"
	PolarityReject    PolarityDB = "rejecting"
)

// EvidenceRow persists one notary-signature set over one output reference.
// Maps to: notary_evidence table.
type EvidenceRow struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	SystemID      string          `db:"system_id" json:"system_id"`
	OutputTxID    string          `db:"output_tx_id" json:"output_tx_id"`
	OutputVout    int64           `db:"output_vout" json:"output_vout"`
	Polarity      PolarityDB      `db:"polarity" json:"polarity"`
	Signatures    json.RawMessage `db:"signatures" json:"signatures"` // map[string][]byte, base64-encoded values
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// ============================================================================
// FINALIZATION TYPES
// ============================================================================

// FinalizationStateDB mirrors finalization.State for storage.
type FinalizationStateDB string

const (
	FinalizationPending   FinalizationStateDB = "pending"
	FinalizationConfirmed FinalizationStateDB = "confirmed"
	FinalizationRejected  FinalizationStateDB = "rejected"
)

// FinalizationRow persists one finalization state machine instance.
// Maps to: finalizations table.
type FinalizationRow struct {
	ID             uuid.UUID           `db:"id" json:"id"`
	CurrencyID     string              `db:"currency_id" json:"currency_id"`
	OutputTxID     string              `db:"output_tx_id" json:"output_tx_id"`
	OutputVout     int64               `db:"output_vout" json:"output_vout"`
	MinimumHeight  int64               `db:"minimum_height" json:"minimum_height"`
	State          FinalizationStateDB `db:"state" json:"state"`
	ConfirmedAt    sql.NullTime        `db:"confirmed_at" json:"confirmed_at,omitempty"`
	CreatedAt      time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time           `db:"updated_at" json:"updated_at"`
}

// ============================================================================
// HELPER TYPES FOR INSERT/UPDATE OPERATIONS
// ============================================================================

// NewNotarizationRow is used to insert one notarization chain entry.
type NewNotarizationRow struct {
	CurrencyID           string
	NotarizationHeight   int64
	PrevHeight           int64
	HashPrevNotarization string
	Proposer             string
	IsMirror             bool
	Canonical            json.RawMessage
	RecordHash           string
	OutputTxID           string
	OutputVout           int64
}

// NewEvidenceRow is used to insert or update a notary evidence bundle.
type NewEvidenceRow struct {
	SystemID   string
	OutputTxID string
	OutputVout int64
	Polarity   PolarityDB
	Signatures json.RawMessage
}

// NewFinalizationRow is used to insert a finalization instance.
type NewFinalizationRow struct {
	CurrencyID    string
	OutputTxID    string
	OutputVout    int64
	MinimumHeight int64
	State         FinalizationStateDB
}

// ============================================================================
// UUID HELPERS
// ============================================================================

// NullUUID aliases uuid.NullUUID for nullable UUID columns.
type NullUUID = uuid.NullUUID

// ParseUUID parses a string into a UUID.
func ParseUUID(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}

// NewUUID generates a new random UUID.
func NewUUID() uuid.UUID {
	return uuid.New()
}
