package currencystate

import "testing"

func TestNewValidatesLengths(t *testing.T) {
	_, err := New("cur1", []string{"X"}, []int64{1, 2}, []float64{1.0})
	if err == nil {
		t.Fatalf("expected length mismatch error")
	}
}

func TestLaunchConfirmedAndRefundingMutuallyExclusive(t *testing.T) {
	s, err := New("cur1", []string{"X"}, []int64{0}, []float64{1.0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.SetLaunchConfirmed(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.SetRefunding(); err == nil {
		t.Fatalf("expected error setting refunding after launch_confirmed")
	}
}

func TestRevertReservesAndSupplyRestoresSnapshot(t *testing.T) {
	s, _ := New("cur1", []string{"X"}, []int64{100}, []float64{1.0})
	s.Supply = 1000
	s.Snapshot()
	s.Reserves[0] = 9999
	s.Supply = 0
	s.RevertReservesAndSupply()
	if s.Reserves[0] != 100 || s.Supply != 1000 {
		t.Fatalf("expected revert to restore snapshot, got reserves=%v supply=%d", s.Reserves, s.Supply)
	}
}

func TestCloneIsDeep(t *testing.T) {
	s, _ := New("cur1", []string{"X"}, []int64{100}, []float64{1.0})
	c := s.Clone()
	c.Reserves[0] = 5
	if s.Reserves[0] == 5 {
		t.Fatalf("expected clone to not alias reserves slice")
	}
}
