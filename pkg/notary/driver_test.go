package notary

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/brindlechain/notarycore/pkg/chaindata"
	"github.com/brindlechain/notarycore/pkg/currencystate"
	"github.com/brindlechain/notarycore/pkg/evidence"
	"github.com/brindlechain/notarycore/pkg/notarization"
	"github.com/brindlechain/notarycore/pkg/notarysig"
	"github.com/brindlechain/notarycore/pkg/peerrpc"
	"github.com/brindlechain/notarycore/pkg/proofroot"
)

type fakePeer struct {
	resp *peerrpc.Response
	err  error
}

func (f *fakePeer) GetBestProofRoot(ctx context.Context, req peerrpc.Request) (*peerrpc.Response, error) {
	return f.resp, f.err
}

type fakeChain struct {
	height int64
	home   string
}

func (f *fakeChain) Height(ctx context.Context) (int64, error) { return f.height, nil }
func (f *fakeChain) HomeSystemID() string                      { return f.home }
func (f *fakeChain) GetProofRoot(ctx context.Context, height int64) (proofroot.ProofRoot, bool, error) {
	return proofroot.ProofRoot{SystemID: f.home, Height: height, Type: proofroot.TypePBAAS}, true, nil
}

func priorNotarizationAtHeight(t *testing.T, height int64) *notarization.Record {
	t.Helper()
	cs, err := currencystate.New("cur1", []string{"X"}, []int64{0}, []float64{1.0})
	if err != nil {
		t.Fatalf("currencystate.New: %v", err)
	}
	return &notarization.Record{
		Version:            notarization.MinVersion,
		CurrencyID:         "cur1",
		NotarizationHeight: height,
		CurrencyState:      cs,
	}
}

// Period gate: prior at height 42, current height 47 with modulo 10
// is ineligible (42/10 == 47/10 == 4); at height 50 it succeeds.
func TestEarnedNotarizationPeriodGate(t *testing.T) {
	peer := &fakePeer{resp: &peerrpc.Response{BestProofRootIndex: 0}}
	chain := &fakeChain{height: 47, home: "home"}
	deps := Deps{Peer: peer, Chain: chain, PeerSystem: "peer1"}

	priorRecord := priorNotarizationAtHeight(t, 42)
	cd := &chaindata.ChainData{LastConfirmed: chaindata.NoneIndex}

	_, _, err := EarnedNotarization(context.Background(), deps, cd, "cur1", priorRecord)
	if err == nil {
		t.Fatalf("expected ineligible error at height 47 with prior at 42")
	}

	chain.height = 50
	newRec, fin, err := EarnedNotarization(context.Background(), deps, cd, "cur1", priorRecord)
	if err != nil {
		t.Fatalf("unexpected error at height 50: %v", err)
	}
	if newRec.NotarizationHeight != 50 {
		t.Fatalf("expected height 50, got %d", newRec.NotarizationHeight)
	}
	if fin.MinimumHeight != 65 {
		t.Fatalf("expected minimum_height 65, got %d", fin.MinimumHeight)
	}
}

func TestEarnedNotarizationNoAgreement(t *testing.T) {
	peer := &fakePeer{resp: &peerrpc.Response{BestProofRootIndex: peerrpc.NoAgreement}}
	chain := &fakeChain{height: 50, home: "home"}
	deps := Deps{Peer: peer, Chain: chain, PeerSystem: "peer1"}
	cd := &chaindata.ChainData{LastConfirmed: chaindata.NoneIndex}

	_, _, err := EarnedNotarization(context.Background(), deps, cd, "cur1", nil)
	if err == nil {
		t.Fatalf("expected no-matching-proof-roots-found error")
	}
}

type recordingPeer struct {
	resp    *peerrpc.Response
	lastReq peerrpc.Request
}

func (p *recordingPeer) GetBestProofRoot(ctx context.Context, req peerrpc.Request) (*peerrpc.Response, error) {
	p.lastReq = req
	return p.resp, nil
}

type testKeyStore struct {
	signers map[string]*notarysig.Signer
}

func (k *testKeyStore) Signer(identityID string, height int64) (*notarysig.Signer, bool) {
	s, ok := k.signers[identityID]
	return s, ok
}

func newTestKeyStore(t *testing.T, ids ...string) *testKeyStore {
	t.Helper()
	ks := &testKeyStore{signers: make(map[string]*notarysig.Signer)}
	for _, id := range ids {
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			t.Fatalf("keygen: %v", err)
		}
		s, err := notarysig.NewSigner(id, priv)
		if err != nil {
			t.Fatalf("signer: %v", err)
		}
		ks.signers[id] = s
	}
	return ks
}

func candidateAtHeight(t *testing.T, txid string, height int64) EligibleNotarization {
	t.Helper()
	rec := priorNotarizationAtHeight(t, height)
	rec.ProofRoots = map[string]proofroot.ProofRoot{
		"peer1": {SystemID: "peer1", Height: height, Type: proofroot.TypePBAAS},
	}
	return EligibleNotarization{
		Record:    rec,
		OutputRef: evidence.OutputRef{TxID: txid, Vout: 0},
		Payload:   []byte("payload-" + txid),
	}
}

// Only candidates whose submitted proof root the peer endorses may be
// signed; the newest endorsed one wins.
func TestConfirmOrRejectFollowsPeerEndorsement(t *testing.T) {
	newer := candidateAtHeight(t, "tx-new", 30)
	older := candidateAtHeight(t, "tx-old", 20)

	// The peer endorses only the older candidate (request index 1).
	peer := &recordingPeer{resp: &peerrpc.Response{
		BestProofRootIndex: 1,
		ValidProofRoots:    []uint32{1},
	}}
	deps := ConfirmOrRejectDeps{
		Peer:               peer,
		PeerSystem:         "peer1",
		ControlledNotaries: []Signer{{IdentityID: "n1", Height: 100}},
		KeyStore:           newTestKeyStore(t, "n1"),
		MinNotariesConfirm: 2,
		CurrentHeight:      100,
	}

	result, err := ConfirmOrReject(context.Background(), deps, []EligibleNotarization{newer, older}, map[string]bool{"n1": true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(peer.lastReq.ProofRoots) != 2 {
		t.Fatalf("expected both candidate roots submitted, got %d", len(peer.lastReq.ProofRoots))
	}
	if result.Evidence.OutputRef.TxID != "tx-old" {
		t.Fatalf("expected the peer-endorsed candidate signed, got %s", result.Evidence.OutputRef.TxID)
	}
	if len(result.Evidence.Signatures) != 1 {
		t.Fatalf("expected 1 signature, got %d", len(result.Evidence.Signatures))
	}
	if result.Finalization != nil {
		t.Fatalf("expected no finalization below the signature threshold")
	}
}

func TestConfirmOrRejectNewestEndorsedWins(t *testing.T) {
	newer := candidateAtHeight(t, "tx-new", 30)
	older := candidateAtHeight(t, "tx-old", 20)

	peer := &recordingPeer{resp: &peerrpc.Response{
		BestProofRootIndex: 0,
		ValidProofRoots:    []uint32{1, 0}, // both endorsed, out of order
	}}
	deps := ConfirmOrRejectDeps{
		Peer:               peer,
		PeerSystem:         "peer1",
		ControlledNotaries: []Signer{{IdentityID: "n1", Height: 100}},
		KeyStore:           newTestKeyStore(t, "n1"),
		MinNotariesConfirm: 2,
		CurrentHeight:      100,
	}

	result, err := ConfirmOrReject(context.Background(), deps, []EligibleNotarization{newer, older}, map[string]bool{"n1": true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Evidence.OutputRef.TxID != "tx-new" {
		t.Fatalf("expected the newest endorsed candidate signed, got %s", result.Evidence.OutputRef.TxID)
	}
}

func TestConfirmOrRejectNoEndorsedCandidates(t *testing.T) {
	newer := candidateAtHeight(t, "tx-new", 30)

	peer := &recordingPeer{resp: &peerrpc.Response{
		BestProofRootIndex: 0,
		ValidProofRoots:    nil, // peer endorses nothing we submitted
	}}
	deps := ConfirmOrRejectDeps{
		Peer:               peer,
		PeerSystem:         "peer1",
		ControlledNotaries: []Signer{{IdentityID: "n1", Height: 100}},
		KeyStore:           newTestKeyStore(t, "n1"),
		MinNotariesConfirm: 2,
		CurrentHeight:      100,
	}

	if _, err := ConfirmOrReject(context.Background(), deps, []EligibleNotarization{newer}, map[string]bool{"n1": true}); err == nil {
		t.Fatalf("expected no-valid-unconfirmed with nothing endorsed")
	}
}
