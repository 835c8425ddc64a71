package transition

import (
	"testing"

	"github.com/brindlechain/notarycore/pkg/currencystate"
	"github.com/brindlechain/notarycore/pkg/notarization"
)

func passthroughApply(importOutputs []ImportOutput, imported, gateway, spent []int64) ApplyReserveTransfers {
	return func(sourceSystem, destSystem string, dest DestCurrencyDef, state *currencystate.State, transfers []Transfer) ([]ImportOutput, []int64, []int64, []int64, bool, error) {
		return importOutputs, imported, gateway, spent, true, nil
	}
}

func baseRecord(t *testing.T, reserves int64) *notarization.Record {
	t.Helper()
	cs, err := currencystate.New("cur1", []string{"X"}, []int64{reserves}, []float64{1.0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cs.Supply = 1000
	cs.SetPrelaunch()
	cs.Snapshot()
	return &notarization.Record{
		Version:            1,
		CurrencyID:         "cur1",
		NotarizationHeight: 99,
		CurrencyState:      cs,
	}
}

// Pre-launch under minimum.
func TestPreLaunchUnderMinimumRefunds(t *testing.T) {
	self := baseRecord(t, 500)
	dest := DestCurrencyDef{
		SystemID:       "sys1",
		LaunchSystemID: "source1",
		StartBlock:     100,
		Currencies:     []string{"X"},
		MaxPreconvert:  []int64{10000},
		MinPreconvert:  []int64{1000},
	}
	res, _, err := NextNotarizationInfo("source1", "home", dest, self, 99, 99, nil, passthroughApply(nil, nil, nil, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.NewNotarization.CurrencyState.IsRefunding() {
		t.Fatalf("expected refunding=true")
	}
	if res.NewNotarization.CurrencyState.Supply != 0 {
		t.Fatalf("expected supply=0, got %d", res.NewNotarization.CurrencyState.Supply)
	}
	if res.NewNotarization.CurrencyState.IsLaunchConfirmed() {
		t.Fatalf("expected launch_confirmed=false")
	}
}

// Pre-launch meeting minimum.
func TestPreLaunchMeetingMinimumConfirms(t *testing.T) {
	self := baseRecord(t, 1500)
	dest := DestCurrencyDef{
		SystemID:       "sys1",
		LaunchSystemID: "source1",
		StartBlock:     100,
		Currencies:     []string{"X"},
		MaxPreconvert:  []int64{10000},
		MinPreconvert:  []int64{1000},
	}
	res, _, err := NextNotarizationInfo("source1", "home", dest, self, 99, 99, nil, passthroughApply(nil, nil, nil, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.NewNotarization.CurrencyState.IsLaunchConfirmed() {
		t.Fatalf("expected launch_confirmed=true")
	}
	if res.NewNotarization.CurrencyState.IsRefunding() {
		t.Fatalf("expected refunding=false")
	}
}

// Over-cap pre-conversion: one transfer replaced by its refund form;
// earlier transfers intact.
func TestOverCapPreConversionReplaced(t *testing.T) {
	self := baseRecord(t, 9900)
	self.NotarizationHeight = 50
	self.CurrencyState.ClearPrelaunch()
	dest := DestCurrencyDef{
		SystemID:       "sys1",
		LaunchSystemID: "other-system", // launch clearing path not taken
		StartBlock:     1000,
		Currencies:     []string{"X"},
		MaxPreconvert:  []int64{10000},
	}
	transfers := []Transfer{
		{FirstValue: 100, PreConversion: true}, // earlier transfer, should stay intact (within cap on its own)
		{FirstValue: 200, PreConversion: true}, // this one should be replaced once combined with prior exceeds cap
	}
	res, out, err := NextNotarizationInfo("source1", "home", dest, self, 10, 20, transfers, passthroughApply(nil, nil, nil, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = res
	if out[0].Refunded {
		t.Fatalf("expected first transfer to remain intact")
	}
	if !out[1].Refunded {
		t.Fatalf("expected second transfer to be replaced by its refund form")
	}
}

// A 200-value preconversion against reserves of 9900 pays a 1% fee: the
// effective reserve-in is 198, and the projected total of 10098 breaches a
// 10000 cap, so the transfer comes back in its refund form.
func TestPreConversionFeeAndCap(t *testing.T) {
	if got := ConversionFee(200); got != 2 {
		t.Fatalf("expected fee 2 on value 200, got %d", got)
	}

	self := baseRecord(t, 9900)
	self.NotarizationHeight = 50
	self.CurrencyState.ClearPrelaunch()
	dest := DestCurrencyDef{
		SystemID:       "sys1",
		LaunchSystemID: "other-system",
		StartBlock:     1000,
		Currencies:     []string{"X"},
		MaxPreconvert:  []int64{10000},
	}
	transfers := []Transfer{{FirstValue: 200, PreConversion: true}}
	_, out, err := NextNotarizationInfo("source1", "home", dest, self, 10, 20, transfers, passthroughApply(nil, nil, nil, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out[0].Refunded {
		t.Fatalf("expected the over-cap preconversion (9900+198=10098 > 10000) to be refunded")
	}
}

func TestRefundIdempotence(t *testing.T) {
	tr := Transfer{FirstValue: 100, PreConversion: true}
	once := tr.GetRefundTransfer()
	twice := once.GetRefundTransfer()
	if once != twice {
		t.Fatalf("expected refunding an already-refunded transfer to be a no-op")
	}
}

func TestNextNotarizationInfoDeterministic(t *testing.T) {
	dest := DestCurrencyDef{SystemID: "sys1", LaunchSystemID: "other", StartBlock: 1000, Currencies: []string{"X"}, MaxPreconvert: []int64{10000}}
	run := func() []byte {
		self := baseRecord(t, 500)
		self.NotarizationHeight = 50
		self.CurrencyState.ClearPrelaunch()
		res, _, err := NextNotarizationInfo("source1", "home", dest, self, 10, 20, nil, passthroughApply(nil, nil, nil, nil))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		b, err := res.NewNotarization.ToJSON()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return b
	}
	a, b := run(), run()
	if string(a) != string(b) {
		t.Fatalf("expected deterministic serialization across identical inputs")
	}
}
