package notarization

import (
	"testing"

	"github.com/brindlechain/notarycore/pkg/currencystate"
	"github.com/brindlechain/notarycore/pkg/proofroot"
)

func newTestRecord(t *testing.T) *Record {
	t.Helper()
	cs, err := currencystate.New("cur1", []string{"X"}, []int64{0}, []float64{1.0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return &Record{
		Version:            1,
		Flags:              Flags{Definition: true},
		CurrencyID:         "cur1",
		NotarizationHeight: 1,
		PrevHeight:         0,
		CurrencyState:      cs,
	}
}

func TestIsValidRejectsCurrencyStatesContainingSelf(t *testing.T) {
	r := newTestRecord(t)
	r.CurrencyStates = map[string]*currencystate.State{"cur1": r.CurrencyState}
	if err := r.IsValid(); err == nil {
		t.Fatalf("expected error when currency_states contains currency_id")
	}
}

func TestIsValidRejectsPrevHeightAboveHeight(t *testing.T) {
	r := newTestRecord(t)
	r.PrevHeight = 5
	r.NotarizationHeight = 1
	if err := r.IsValid(); err == nil {
		t.Fatalf("expected error when prev_height > notarization_height")
	}
}

func TestSetMirrorOnceOnly(t *testing.T) {
	r := newTestRecord(t)
	if err := r.SetMirror("home", "peer"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.SetMirror("home", "peer"); err == nil {
		t.Fatalf("expected error mirroring an already-mirrored record")
	}
}

// A currency whose id equals the peer system's own id must not lose the
// peer's attested root when the record is mirrored.
func TestSetMirrorCurrencyIDEqualsPeerSystem(t *testing.T) {
	r := newTestRecord(t)
	r.CurrencyID = "peer"
	peerRoot := proofroot.ProofRoot{SystemID: "peer", Height: 20, Type: proofroot.TypePBAAS}
	homeRoot := proofroot.ProofRoot{SystemID: "home", Height: 30, Type: proofroot.TypePBAAS}
	r.ProofRoots = map[string]proofroot.ProofRoot{
		"peer": peerRoot,
		"home": homeRoot,
	}

	if err := r.SetMirror("home", "peer"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := r.ProofRoots["peer"]
	if !ok || !proofroot.Equals(got, peerRoot) {
		t.Fatalf("expected the peer's attested root to survive mirroring, got %+v", got)
	}
	gotHome, ok := r.ProofRoots["home"]
	if !ok || !proofroot.Equals(gotHome, homeRoot) {
		t.Fatalf("expected the home root to stay addressable, got %+v", gotHome)
	}
}

func TestSetMirrorRelocatesRoots(t *testing.T) {
	r := newTestRecord(t)
	curRoot := proofroot.ProofRoot{SystemID: "cur1", Height: 20, Type: proofroot.TypePBAAS}
	homeRoot := proofroot.ProofRoot{SystemID: "home", Height: 30, Type: proofroot.TypePBAAS}
	otherRoot := proofroot.ProofRoot{SystemID: "other", Height: 10, Type: proofroot.TypePBAAS}
	r.ProofRoots = map[string]proofroot.ProofRoot{
		"cur1":  curRoot,
		"home":  homeRoot,
		"other": otherRoot,
	}

	if err := r.SetMirror("home", "peer"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := r.ProofRoots["peer"]; !proofroot.Equals(got, curRoot) {
		t.Fatalf("expected the currency root under the peer key, got %+v", got)
	}
	if got := r.ProofRoots["cur1"]; !proofroot.Equals(got, homeRoot) {
		t.Fatalf("expected the home root under the currency key, got %+v", got)
	}
	if got := r.ProofRoots["other"]; !proofroot.Equals(got, otherRoot) {
		t.Fatalf("expected unrelated roots untouched, got %+v", got)
	}
	if _, ok := r.ProofRoots["home"]; ok {
		t.Fatalf("expected the home key removed after relocation")
	}
}

func TestHashRoundTrip(t *testing.T) {
	r := newTestRecord(t)
	h1, err := r.Hash()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	encoded, err := r.ToJSON()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r2, err := FromJSON(encoded)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h2, err := r2.Hash()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(h1) != string(h2) {
		t.Fatalf("expected round-tripped record to hash identically")
	}
}
