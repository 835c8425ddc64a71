package finalization

import (
	"testing"

	"github.com/brindlechain/notarycore/pkg/evidence"
)

func confirmingEvidence(t *testing.T, ids ...string) *evidence.Evidence {
	t.Helper()
	e := evidence.New("sys1", evidence.OutputRef{TxID: "tx1", Vout: 0})
	e.Polarity = evidence.Confirming
	for _, id := range ids {
		e.Signatures[id] = []byte("sig-" + id)
	}
	return e
}

func TestAdvanceConfirmsAtThreshold(t *testing.T) {
	f := New("cur1", OutputRef{TxID: "tx2", Vout: 0}, 100)
	authorized := map[string]bool{"n1": true, "n2": true, "n3": true}

	if _, err := f.Advance(110, ProtocolNotaryConfirm, 3, authorized,
		[]*evidence.Evidence{confirmingEvidence(t, "n1")}, nil); err == nil {
		t.Fatalf("expected insufficient-evidence error with 1/3 signatures")
	}

	next, err := f.Advance(115, ProtocolNotaryConfirm, 3, authorized,
		[]*evidence.Evidence{confirmingEvidence(t, "n1", "n2", "n3")}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.State != Confirmed {
		t.Fatalf("expected Confirmed, got %s", next.State)
	}
	if f.State != Pending {
		t.Fatalf("Advance must not mutate receiver, got %s", f.State)
	}
}

func TestAdvanceRejectsBelowMinimumHeight(t *testing.T) {
	f := New("cur1", OutputRef{TxID: "tx2", Vout: 0}, 100)
	authorized := map[string]bool{"n1": true}
	if _, err := f.Advance(105, ProtocolNotaryConfirm, 1, authorized,
		[]*evidence.Evidence{confirmingEvidence(t, "n1")}, nil); err == nil {
		t.Fatalf("expected error: height below minimum_height")
	}
}

func TestAdvanceOnceConfirmedNeverMovesAgain(t *testing.T) {
	f := New("cur1", OutputRef{TxID: "tx2", Vout: 0}, 100)
	f.State = Confirmed
	if _, err := f.Advance(200, ProtocolNotaryConfirm, 1, map[string]bool{"n1": true}, nil, nil); err == nil {
		t.Fatalf("expected already-finalized error")
	}
}

func TestAdvanceMixedPolarityRejected(t *testing.T) {
	confirm := confirmingEvidence(t, "n1")
	reject := evidence.New("sys1", evidence.OutputRef{TxID: "tx3", Vout: 0})
	reject.Polarity = evidence.Rejecting
	reject.Signatures["n2"] = []byte("sig-n2")

	_, _, err := NotariesByPolarity([]*evidence.Evidence{confirm, reject}, map[string]bool{"n1": true, "n2": true})
	if err == nil {
		t.Fatalf("expected mixed-polarity error")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	f := New("cur1", OutputRef{TxID: "tx2", Vout: 0}, 100)
	f.State = Confirmed
	raw, err := f.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	back, err := FromJSON(raw)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if back.State != Confirmed || back.CurrencyID != "cur1" || back.MinimumHeight != 115 {
		t.Fatalf("round trip mismatch: %+v", back)
	}
}

func TestIsValidEnforcesHeightFloor(t *testing.T) {
	f := &Finalization{MinimumHeight: 105}
	if err := f.IsValid(100); err == nil {
		t.Fatalf("expected error: 105 < 100+%d", FinalizedHeightOffset)
	}
	f.MinimumHeight = 115
	if err := f.IsValid(100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
