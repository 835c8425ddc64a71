// Copyright 2025 Certen Protocol
//
// Evidence Repository - notary signature bundles

package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// EvidenceRepository provides access to the notary_evidence table.
type EvidenceRepository struct {
	client *Client
}

// NewEvidenceRepository creates a new evidence repository
func NewEvidenceRepository(client *Client) *EvidenceRepository {
	return &EvidenceRepository{client: client}
}

const evidenceColumns = `
	id, system_id, output_tx_id, output_vout, polarity, signatures, created_at, updated_at`

// Upsert inserts a notary evidence bundle, or replaces the signature set
// when a bundle for the same (system, output) already exists. The polarity
// of an existing bundle never flips here: mixing polarities is rejected at
// the evidence layer before a row reaches this repository.
func (r *EvidenceRepository) Upsert(ctx context.Context, input *NewEvidenceRow) (*EvidenceRow, error) {
	query := `
		INSERT INTO notary_evidence (system_id, output_tx_id, output_vout, polarity, signatures)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (system_id, output_tx_id, output_vout) DO UPDATE SET
			signatures = EXCLUDED.signatures,
			updated_at = NOW()
		RETURNING ` + evidenceColumns

	row, err := scanEvidence(r.client.QueryRowContext(ctx, query,
		input.SystemID, input.OutputTxID, input.OutputVout, input.Polarity, input.Signatures))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert evidence: %w", err)
	}
	return row, nil
}

// GetByOutput loads the evidence bundle collected for one output.
func (r *EvidenceRepository) GetByOutput(ctx context.Context, systemID, txID string, vout int64) (*EvidenceRow, error) {
	query := `SELECT ` + evidenceColumns + `
		FROM notary_evidence WHERE system_id = $1 AND output_tx_id = $2 AND output_vout = $3`
	row, err := scanEvidence(r.client.QueryRowContext(ctx, query, systemID, txID, vout))
	if err == sql.ErrNoRows {
		return nil, ErrEvidenceNotFound
	}
	return row, err
}

// ListUnspentBySystem returns unspent evidence bundles for a system, the
// set GetUnspentNotaryEvidence unions with mempool visibility.
func (r *EvidenceRepository) ListUnspentBySystem(ctx context.Context, systemID string) ([]*EvidenceRow, error) {
	query := `SELECT ` + evidenceColumns + `
		FROM notary_evidence WHERE system_id = $1 AND NOT spent
		ORDER BY created_at ASC`

	rows, err := r.client.QueryContext(ctx, query, systemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list unspent evidence: %w", err)
	}
	defer rows.Close()

	var out []*EvidenceRow
	for rows.Next() {
		e, err := scanEvidence(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// MarkSpent flags an evidence output as consumed by a finalization spend.
func (r *EvidenceRepository) MarkSpent(ctx context.Context, systemID, txID string, vout int64) error {
	res, err := r.client.ExecContext(ctx,
		`UPDATE notary_evidence SET spent = TRUE, updated_at = NOW()
		 WHERE system_id = $1 AND output_tx_id = $2 AND output_vout = $3`,
		systemID, txID, vout)
	if err != nil {
		return fmt.Errorf("failed to mark evidence spent: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrEvidenceNotFound
	}
	return nil
}

// SignatureCount returns how many distinct identities signed the stored
// bundle for one output.
func (r *EvidenceRepository) SignatureCount(ctx context.Context, systemID, txID string, vout int64) (int, error) {
	row, err := r.GetByOutput(ctx, systemID, txID, vout)
	if err != nil {
		return 0, err
	}
	var sigs map[string]json.RawMessage
	if err := json.Unmarshal(row.Signatures, &sigs); err != nil {
		return 0, fmt.Errorf("failed to decode stored signatures: %w", err)
	}
	return len(sigs), nil
}

func scanEvidence(s scanner) (*EvidenceRow, error) {
	var row EvidenceRow
	err := s.Scan(
		&row.ID, &row.SystemID, &row.OutputTxID, &row.OutputVout,
		&row.Polarity, &row.Signatures, &row.CreatedAt, &row.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan evidence: %w", err)
	}
	return &row, nil
}
