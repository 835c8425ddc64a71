// Copyright 2025 Certen Protocol
//
// Address-index view over the notarization tables. Implements the narrow
// indexer contract the core reads chain data through, backed by Postgres
// instead of a raw UTXO address index.

package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/brindlechain/notarycore/pkg/indexer"
)

// AddressIndexView adapts the notarization/finalization repositories to
// the indexer.AddressIndex contract, so NotarizationChainData can be
// rebuilt from the same persistence the ABCI commit path writes.
type AddressIndexView struct {
	repos *Repositories
}

// NewAddressIndexView creates an AddressIndexView over repos.
func NewAddressIndexView(repos *Repositories) *AddressIndexView {
	return &AddressIndexView{repos: repos}
}

// splitConditionID undoes indexer.ConditionID's "kind:currency" derivation.
func splitConditionID(key string) (kind, currencyID string, err error) {
	i := strings.Index(key, ":")
	if i < 0 {
		return "", "", fmt.Errorf("database: malformed condition key %q", key)
	}
	return key[:i], key[i+1:], nil
}

// GetAddressIndex returns every output ever indexed under key in block
// order, honoring [start, end] height bounds (0, 0 means unbounded).
func (v *AddressIndexView) GetAddressIndex(ctx context.Context, key string, scriptType string, start, end int64) ([]indexer.OutputRef, error) {
	kind, currencyID, err := splitConditionID(key)
	if err != nil {
		return nil, err
	}

	switch kind {
	case indexer.NotaryNotarizationKey:
		rows, err := v.repos.Notarizations.ListByCurrency(ctx, currencyID, start, end)
		if err != nil {
			return nil, err
		}
		return notarizationRefs(rows), nil

	case indexer.ObjectFinalizationConfirmedKey:
		rows, err := v.repos.Finalizations.ListConfirmedByCurrency(ctx, currencyID)
		if err != nil {
			return nil, err
		}
		out := make([]indexer.OutputRef, 0, len(rows))
		for _, f := range rows {
			if start != 0 && f.MinimumHeight < start {
				continue
			}
			if end != 0 && f.MinimumHeight > end {
				continue
			}
			out = append(out, indexer.OutputRef{TxID: f.OutputTxID, Vout: int(f.OutputVout), Height: f.MinimumHeight})
		}
		return out, nil

	default:
		return nil, fmt.Errorf("database: unknown condition kind %q", kind)
	}
}

// GetAddressUnspent returns only the currently unspent outputs for key.
func (v *AddressIndexView) GetAddressUnspent(ctx context.Context, key string, scriptType string) ([]indexer.OutputRef, error) {
	kind, currencyID, err := splitConditionID(key)
	if err != nil {
		return nil, err
	}

	switch kind {
	case indexer.NotaryNotarizationKey:
		rows, err := v.repos.Notarizations.ListUnspentByCurrency(ctx, currencyID)
		if err != nil {
			return nil, err
		}
		return notarizationRefs(rows), nil

	case indexer.ObjectFinalizationConfirmedKey:
		evRows, err := v.repos.Evidence.ListUnspentBySystem(ctx, currencyID)
		if err != nil {
			return nil, err
		}
		out := make([]indexer.OutputRef, 0, len(evRows))
		for _, e := range evRows {
			out = append(out, indexer.OutputRef{TxID: e.OutputTxID, Vout: int(e.OutputVout)})
		}
		return out, nil

	default:
		return nil, fmt.Errorf("database: unknown condition kind %q", kind)
	}
}

func notarizationRefs(rows []*NotarizationRow) []indexer.OutputRef {
	out := make([]indexer.OutputRef, 0, len(rows))
	for _, n := range rows {
		if !n.OutputTxID.Valid {
			continue
		}
		out = append(out, indexer.OutputRef{
			TxID:   n.OutputTxID.String,
			Vout:   int(n.OutputVout.Int64),
			Height: n.NotarizationHeight,
		})
	}
	return out
}
