package chaindata

import (
	"context"
	"testing"

	"github.com/brindlechain/notarycore/pkg/currencystate"
	"github.com/brindlechain/notarycore/pkg/indexer"
	"github.com/brindlechain/notarycore/pkg/notarization"
)

type fakeAddressIndex struct {
	outs []indexer.OutputRef
}

func (f *fakeAddressIndex) GetAddressIndex(ctx context.Context, key, scriptType string, start, end int64) ([]indexer.OutputRef, error) {
	return f.outs, nil
}

func (f *fakeAddressIndex) GetAddressUnspent(ctx context.Context, key, scriptType string) ([]indexer.OutputRef, error) {
	return f.outs, nil
}

type fakeFinalization struct {
	confirmed map[int]bool
	power     map[int]uint64
}

func (f *fakeFinalization) IsConfirmed(i int) bool { return f.confirmed[i] }
func (f *fakeFinalization) Power(i int) uint64      { return f.power[i] }

func record(t *testing.T, height int64, prev *notarization.OutputRef) *notarization.Record {
	t.Helper()
	cs, err := currencystate.New("cur1", []string{"X"}, []int64{0}, []float64{1.0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return &notarization.Record{
		Version:             1,
		CurrencyID:          "cur1",
		NotarizationHeight:  height,
		PrevHeight:          height - 1,
		PrevNotarizationRef: prev,
		CurrencyState:       cs,
	}
}

func TestGetNotarizationDataLinearChain(t *testing.T) {
	r0 := record(t, 1, nil)
	r1 := record(t, 2, &notarization.OutputRef{TxID: "tx0", Vout: 0})

	outs := []indexer.OutputRef{
		{TxID: "tx0", Vout: 0},
		{TxID: "tx1", Vout: 0},
	}
	recs := map[string]*notarization.Record{"tx0:0": r0, "tx1:0": r1}

	idx := &fakeAddressIndex{outs: outs}
	fin := &fakeFinalization{
		confirmed: map[int]bool{0: true},
		power:     map[int]uint64{0: 1, 1: 1},
	}

	decode := func(o indexer.OutputRef) (*notarization.Record, error) {
		key := o.TxID + ":" + itoa(o.Vout)
		return recs[key], nil
	}

	cd, err := GetNotarizationData(context.Background(), idx, fin, "sys1", decode)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cd.Vtx) != 2 {
		t.Fatalf("expected 2 vtx entries, got %d", len(cd.Vtx))
	}
	if len(cd.Forks) != 1 || len(cd.Forks[0]) != 2 {
		t.Fatalf("expected one fork of length 2, got %v", cd.Forks)
	}
	if cd.LastConfirmed != 0 {
		t.Fatalf("expected LastConfirmed=0, got %d", cd.LastConfirmed)
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
