// Copyright 2025 Certen Protocol
//
// Notarization Repository - notarization chain entries

package database

import (
	"context"
	"database/sql"
	"fmt"
)

// NotarizationRepository provides access to the notarizations table.
type NotarizationRepository struct {
	client *Client
}

// NewNotarizationRepository creates a new notarization repository
func NewNotarizationRepository(client *Client) *NotarizationRepository {
	return &NotarizationRepository{client: client}
}

const notarizationColumns = `
	id, currency_id, notarization_height, prev_height, hash_prev_notarization,
	proposer, is_mirror, canonical, record_hash, output_tx_id, output_vout, created_at`

// Create inserts one notarization chain entry and returns the stored row.
func (r *NotarizationRepository) Create(ctx context.Context, input *NewNotarizationRow) (*NotarizationRow, error) {
	query := `
		INSERT INTO notarizations (
			currency_id, notarization_height, prev_height, hash_prev_notarization,
			proposer, is_mirror, canonical, record_hash, output_tx_id, output_vout
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`

	row := NotarizationRow{
		CurrencyID:           input.CurrencyID,
		NotarizationHeight:   input.NotarizationHeight,
		PrevHeight:           input.PrevHeight,
		HashPrevNotarization: input.HashPrevNotarization,
		Proposer:             input.Proposer,
		IsMirror:             input.IsMirror,
		Canonical:            input.Canonical,
		RecordHash:           input.RecordHash,
		OutputTxID:           sql.NullString{String: input.OutputTxID, Valid: input.OutputTxID != ""},
		OutputVout:           sql.NullInt64{Int64: input.OutputVout, Valid: input.OutputTxID != ""},
	}

	err := r.client.QueryRowContext(ctx, query,
		input.CurrencyID, input.NotarizationHeight, input.PrevHeight, input.HashPrevNotarization,
		input.Proposer, input.IsMirror, input.Canonical, input.RecordHash,
		row.OutputTxID, row.OutputVout,
	).Scan(&row.ID, &row.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create notarization: %w", err)
	}
	return &row, nil
}

// GetByOutput loads the notarization carried by a specific output.
func (r *NotarizationRepository) GetByOutput(ctx context.Context, txID string, vout int64) (*NotarizationRow, error) {
	query := `SELECT ` + notarizationColumns + ` FROM notarizations WHERE output_tx_id = $1 AND output_vout = $2`
	row, err := scanNotarization(r.client.QueryRowContext(ctx, query, txID, vout))
	if err == sql.ErrNoRows {
		return nil, ErrNotarizationNotFound
	}
	return row, err
}

// ListByCurrency returns every notarization for a currency in block order,
// honoring [start, end] height bounds; 0, 0 means unbounded.
func (r *NotarizationRepository) ListByCurrency(ctx context.Context, currencyID string, start, end int64) ([]*NotarizationRow, error) {
	query := `SELECT ` + notarizationColumns + `
		FROM notarizations
		WHERE currency_id = $1
		  AND ($2 = 0 OR notarization_height >= $2)
		  AND ($3 = 0 OR notarization_height <= $3)
		ORDER BY notarization_height ASC, created_at ASC`

	rows, err := r.client.QueryContext(ctx, query, currencyID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list notarizations: %w", err)
	}
	defer rows.Close()

	var out []*NotarizationRow
	for rows.Next() {
		n, err := scanNotarization(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// ListUnspentByCurrency returns only entries whose output is still unspent.
func (r *NotarizationRepository) ListUnspentByCurrency(ctx context.Context, currencyID string) ([]*NotarizationRow, error) {
	query := `SELECT ` + notarizationColumns + `
		FROM notarizations
		WHERE currency_id = $1 AND NOT spent AND output_tx_id IS NOT NULL
		ORDER BY notarization_height ASC, created_at ASC`

	rows, err := r.client.QueryContext(ctx, query, currencyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list unspent notarizations: %w", err)
	}
	defer rows.Close()

	var out []*NotarizationRow
	for rows.Next() {
		n, err := scanNotarization(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkSpent flags a notarization output as consumed by a spender.
func (r *NotarizationRepository) MarkSpent(ctx context.Context, txID string, vout int64) error {
	res, err := r.client.ExecContext(ctx,
		`UPDATE notarizations SET spent = TRUE WHERE output_tx_id = $1 AND output_vout = $2`,
		txID, vout)
	if err != nil {
		return fmt.Errorf("failed to mark notarization spent: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotarizationNotFound
	}
	return nil
}

// scanner abstracts *sql.Row / *sql.Rows for the shared scan path.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanNotarization(s scanner) (*NotarizationRow, error) {
	var row NotarizationRow
	err := s.Scan(
		&row.ID, &row.CurrencyID, &row.NotarizationHeight, &row.PrevHeight,
		&row.HashPrevNotarization, &row.Proposer, &row.IsMirror, &row.Canonical,
		&row.RecordHash, &row.OutputTxID, &row.OutputVout, &row.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan notarization: %w", err)
	}
	return &row, nil
}
