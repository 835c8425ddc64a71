package evidence

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/brindlechain/notarycore/pkg/notarysig"
)

type testKeyStore struct {
	signers map[string]*notarysig.Signer
}

func (k *testKeyStore) Signer(identityID string, height int64) (*notarysig.Signer, bool) {
	s, ok := k.signers[identityID]
	return s, ok
}

func newTestKeyStore(t *testing.T, ids ...string) (*testKeyStore, *notarysig.Verifier) {
	t.Helper()
	ks := &testKeyStore{signers: make(map[string]*notarysig.Signer)}
	v := notarysig.NewVerifier()
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
		v.RegisterIdentity(id, s.PublicKey())
	}
	return ks, v
}

func TestSignConfirmedCollectsAndVerifies(t *testing.T) {
	ks, v := newTestKeyStore(t, "n1", "n2")
	payload := []byte("notarization output payload")

	e := New("sys1", OutputRef{TxID: "tx1", Vout: 0})
	result, err := e.SignConfirmed(ks, payload, "n1", 100, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != Partial {
		t.Fatalf("expected PARTIAL with 1/2 signatures, got %s", result)
	}

	result, err = e.SignConfirmed(ks, payload, "n2", 100, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != Complete {
		t.Fatalf("expected COMPLETE with 2/2 signatures, got %s", result)
	}

	if got := e.VerifyAll(v, payload, 100); got != 2 {
		t.Fatalf("expected 2 valid signatures, got %d", got)
	}
	// A different payload must not verify.
	if got := e.VerifyAll(v, []byte("other payload"), 100); got != 0 {
		t.Fatalf("expected 0 valid signatures over the wrong payload, got %d", got)
	}
}

func TestPolarityGuardRejectsMixing(t *testing.T) {
	ks, _ := newTestKeyStore(t, "n1", "n2")
	payload := []byte("payload")

	e := New("sys1", OutputRef{TxID: "tx1", Vout: 0})
	if _, err := e.SignConfirmed(ks, payload, "n1", 100, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := e.SignRejected(ks, payload, "n2", 100, 3); err == nil {
		t.Fatalf("expected polarity conflict signing rejected over a confirming record")
	}
	if len(e.Signatures) != 1 {
		t.Fatalf("expected the failed signing attempt to leave signatures untouched")
	}
	if e.Polarity != Confirming {
		t.Fatalf("expected polarity to stay CONFIRMING")
	}
}

func TestSignRejectsUncontrollableIdentity(t *testing.T) {
	ks, _ := newTestKeyStore(t, "n1")
	e := New("sys1", OutputRef{TxID: "tx1", Vout: 0})
	if result, err := e.SignConfirmed(ks, []byte("payload"), "stranger", 100, 1); err == nil || result != Invalid {
		t.Fatalf("expected INVALID for an identity the key store does not control")
	}
}

func TestSignRejectsEmptyPayload(t *testing.T) {
	ks, _ := newTestKeyStore(t, "n1")
	e := New("sys1", OutputRef{TxID: "tx1", Vout: 0})
	if result, err := e.SignConfirmed(ks, nil, "n1", 100, 1); err == nil || result != Invalid {
		t.Fatalf("expected INVALID for an empty target payload")
	}
}

func TestJSONRoundTripPreservesPolarity(t *testing.T) {
	ks, _ := newTestKeyStore(t, "n1")
	e := New("sys1", OutputRef{TxID: "tx1", Vout: 0})
	if _, err := e.SignConfirmed(ks, []byte("payload"), "n1", 100, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := e.ToJSON()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	back, err := FromJSON(data)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if back.Polarity != Confirming {
		t.Fatalf("expected polarity to survive the round trip, got %s", back.Polarity)
	}
	if len(back.Signatures) != 1 {
		t.Fatalf("expected 1 signature after round trip, got %d", len(back.Signatures))
	}
}
