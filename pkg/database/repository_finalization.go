// Copyright 2025 Certen Protocol
//
// Finalization Repository - finalization state rows

package database

import (
	"context"
	"database/sql"
	"fmt"
)

// FinalizationRepository provides access to the finalizations table.
type FinalizationRepository struct {
	client *Client
}

// NewFinalizationRepository creates a new finalization repository
func NewFinalizationRepository(client *Client) *FinalizationRepository {
	return &FinalizationRepository{client: client}
}

const finalizationColumns = `
	id, currency_id, output_tx_id, output_vout, minimum_height, state,
	confirmed_at, created_at, updated_at`

// Create inserts a pending finalization instance.
func (r *FinalizationRepository) Create(ctx context.Context, input *NewFinalizationRow) (*FinalizationRow, error) {
	query := `
		INSERT INTO finalizations (currency_id, output_tx_id, output_vout, minimum_height, state)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + finalizationColumns

	row, err := scanFinalization(r.client.QueryRowContext(ctx, query,
		input.CurrencyID, input.OutputTxID, input.OutputVout, input.MinimumHeight, input.State))
	if err != nil {
		return nil, fmt.Errorf("failed to create finalization: %w", err)
	}
	return row, nil
}

// GetByOutput loads the finalization instance for one output.
func (r *FinalizationRepository) GetByOutput(ctx context.Context, txID string, vout int64) (*FinalizationRow, error) {
	query := `SELECT ` + finalizationColumns + `
		FROM finalizations WHERE output_tx_id = $1 AND output_vout = $2`
	row, err := scanFinalization(r.client.QueryRowContext(ctx, query, txID, vout))
	if err == sql.ErrNoRows {
		return nil, ErrFinalizationNotFound
	}
	return row, err
}

// ListPending returns pending finalizations for a currency whose
// minimum_height has been reached at the given chain height.
func (r *FinalizationRepository) ListPending(ctx context.Context, currencyID string, atHeight int64) ([]*FinalizationRow, error) {
	query := `SELECT ` + finalizationColumns + `
		FROM finalizations
		WHERE currency_id = $1 AND state = 'pending' AND minimum_height <= $2
		ORDER BY minimum_height ASC`

	rows, err := r.client.QueryContext(ctx, query, currencyID, atHeight)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending finalizations: %w", err)
	}
	defer rows.Close()

	var out []*FinalizationRow
	for rows.Next() {
		f, err := scanFinalization(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// ListConfirmedByCurrency returns confirmed finalizations, the rows the
// address-index view serves under the finalization-confirmed key.
func (r *FinalizationRepository) ListConfirmedByCurrency(ctx context.Context, currencyID string) ([]*FinalizationRow, error) {
	query := `SELECT ` + finalizationColumns + `
		FROM finalizations WHERE currency_id = $1 AND state = 'confirmed'
		ORDER BY minimum_height ASC`

	rows, err := r.client.QueryContext(ctx, query, currencyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list confirmed finalizations: %w", err)
	}
	defer rows.Close()

	var out []*FinalizationRow
	for rows.Next() {
		f, err := scanFinalization(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// SetState advances a pending finalization to confirmed or rejected. The
// state machine is terminal: a row already out of pending is never updated
// and ErrAlreadyTerminal is returned instead.
func (r *FinalizationRepository) SetState(ctx context.Context, txID string, vout int64, state FinalizationStateDB) error {
	query := `
		UPDATE finalizations SET
			state = $3,
			confirmed_at = CASE WHEN $3 = 'confirmed' THEN NOW() ELSE confirmed_at END,
			updated_at = NOW()
		WHERE output_tx_id = $1 AND output_vout = $2 AND state = 'pending'`

	res, err := r.client.ExecContext(ctx, query, txID, vout, state)
	if err != nil {
		return fmt.Errorf("failed to set finalization state: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		if _, err := r.GetByOutput(ctx, txID, vout); err != nil {
			return err
		}
		return ErrAlreadyTerminal
	}
	return nil
}

func scanFinalization(s scanner) (*FinalizationRow, error) {
	var row FinalizationRow
	err := s.Scan(
		&row.ID, &row.CurrencyID, &row.OutputTxID, &row.OutputVout,
		&row.MinimumHeight, &row.State, &row.ConfirmedAt, &row.CreatedAt, &row.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan finalization: %w", err)
	}
	return &row, nil
}
