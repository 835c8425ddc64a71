package acceptance

import (
	"context"
	"testing"

	"github.com/brindlechain/notarycore/pkg/currencystate"
	"github.com/brindlechain/notarycore/pkg/evidence"
	"github.com/brindlechain/notarycore/pkg/finalization"
	"github.com/brindlechain/notarycore/pkg/notarization"
	"github.com/brindlechain/notarycore/pkg/proofroot"
)

type fakeHome struct {
	home  string
	root  proofroot.ProofRoot
	state *currencystate.State
}

func (f *fakeHome) HomeSystemID() string { return f.home }
func (f *fakeHome) LastConfirmedHomeProofRoot(ctx context.Context, peerSystem string) (proofroot.ProofRoot, bool, error) {
	return proofroot.ProofRoot{SystemID: f.home, Height: 10}, true, nil
}
func (f *fakeHome) RecomputeProofRoot(ctx context.Context, height int64) (proofroot.ProofRoot, error) {
	return f.root, nil
}
func (f *fakeHome) CurrencyStateAt(ctx context.Context, currencyID string, height int64) (*currencystate.State, error) {
	return f.state, nil
}
func (f *fakeHome) IsHomeCurrency(currencyID string) bool          { return currencyID == f.home }
func (f *fakeHome) IsTokenCurrency(currencyID string) bool          { return false }
func (f *fakeHome) CurrencyIsRegistered(currencyID string) bool     { return true }
func (f *fakeHome) LastUnspentAcceptedOutputRef() (notarization.OutputRef, bool) {
	return notarization.OutputRef{}, false
}

func buildEarned(t *testing.T, home string, root proofroot.ProofRoot, state *currencystate.State) *notarization.Record {
	t.Helper()
	cs, err := currencystate.New("cur1", []string{"X"}, []int64{0}, []float64{1.0})
	if err != nil {
		t.Fatalf("currencystate.New: %v", err)
	}
	return &notarization.Record{
		Version:            notarization.MinVersion,
		CurrencyID:         "cur1",
		NotarizationHeight: 20,
		CurrencyState:      cs,
		ProofRoots:         map[string]proofroot.ProofRoot{home: root},
		CurrencyStates:     map[string]*currencystate.State{home: state},
	}
}

// Acceptance with insufficient signatures still succeeds, but the
// finalization is not confirmed; with all notaries it is confirmed.
func TestCreateAcceptedNotarizationSignatureThreshold(t *testing.T) {
	root := proofroot.ProofRoot{SystemID: "home", Height: 20, Type: proofroot.TypePBAAS}
	state, err := currencystate.New("home", []string{"X"}, []int64{5}, []float64{1.0})
	if err != nil {
		t.Fatalf("currencystate.New: %v", err)
	}
	home := &fakeHome{home: "home", root: root, state: state}
	ext := ExternalSystem{SystemID: "peer1", Notaries: []string{"N1", "N2", "N3"}, NotarizationProtocol: finalization.ProtocolNotaryConfirm}

	earned := buildEarned(t, "home", root, state)
	ev := evidence.New("peer1", evidence.OutputRef{TxID: "tx1", Vout: 0})
	ev.Polarity = evidence.Confirming
	ev.Signatures["N1"] = []byte("sig")

	result, err := CreateAcceptedNotarization(context.Background(), home, ext, earned, ev)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Finalization == nil || result.Finalization.State == finalization.Confirmed {
		t.Fatalf("expected finalization emitted but not confirmed with 1/3 signatures")
	}

	earned2 := buildEarned(t, "home", root, state)
	ev2 := evidence.New("peer1", evidence.OutputRef{TxID: "tx1", Vout: 0})
	ev2.Polarity = evidence.Confirming
	ev2.Signatures["N1"] = []byte("sig")
	ev2.Signatures["N2"] = []byte("sig")
	ev2.Signatures["N3"] = []byte("sig")

	result2, err := CreateAcceptedNotarization(context.Background(), home, ext, earned2, ev2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result2.Finalization == nil || result2.Finalization.State != finalization.Confirmed {
		t.Fatalf("expected finalization confirmed with 3/3 signatures")
	}
}

func TestCreateAcceptedNotarizationRejectsUnauthorizedSigner(t *testing.T) {
	root := proofroot.ProofRoot{SystemID: "home", Height: 20, Type: proofroot.TypePBAAS}
	state, _ := currencystate.New("home", []string{"X"}, []int64{5}, []float64{1.0})
	home := &fakeHome{home: "home", root: root, state: state}
	ext := ExternalSystem{SystemID: "peer1", Notaries: []string{"N1"}}

	earned := buildEarned(t, "home", root, state)
	ev := evidence.New("peer1", evidence.OutputRef{TxID: "tx1", Vout: 0})
	ev.Polarity = evidence.Confirming
	ev.Signatures["intruder"] = []byte("sig")

	if _, err := CreateAcceptedNotarization(context.Background(), home, ext, earned, ev); err == nil {
		t.Fatalf("expected unauthorized-notary error")
	}
}
