// Package currencystate implements the economic snapshot of a
// currency: reserves, supply, prices, and the prelaunch/refund/launch flag
// set that the transition function (pkg/transition) advances.
package currencystate

import "fmt"

// State is an opaque value carrying flags with explicit, monotonic setters.
// Callers never flip bits directly; that is how the package avoids the
// mixed-state bugs a plain struct field would invite.
type State struct {
	CurrencyID string `json:"currency_id"`

	Currencies         []string  `json:"currencies"`
	Reserves           []int64   `json:"reserves"`
	ConversionPrice    []float64 `json:"conversion_price"`
	ViaConversionPrice []float64 `json:"via_conversion_price"`

	Supply        int64 `json:"supply"`
	InitialSupply int64 `json:"initial_supply"`
	Emitted       int64 `json:"emitted"`

	prelaunch        bool
	launchClear      bool
	launchConfirmed  bool
	refunding        bool
	launchComplete   bool

	// preLaunchReserves/preLaunchSupply snapshot the state immediately
	// before any prelaunch transfer was applied, so RevertReservesAndSupply
	// can restore a canonical starting point independent of transfer
	// processing order.
	preLaunchReserves []int64
	preLaunchSupply   int64
	snapshotTaken     bool
}

// New constructs a State and validates the length invariants.
func New(currencyID string, currencies []string, reserves []int64, convPrice []float64) (*State, error) {
	s := &State{
		CurrencyID:      currencyID,
		Currencies:      currencies,
		Reserves:        reserves,
		ConversionPrice: convPrice,
		InitialSupply:   0,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the snapshot's structural invariants.
func (s *State) Validate() error {
	if len(s.Currencies) != len(s.Reserves) || len(s.Currencies) != len(s.ConversionPrice) {
		return fmt.Errorf("currencystate: currencies/reserves/conversion_price length mismatch")
	}
	if s.launchClear && s.launchConfirmed && s.refunding {
		return fmt.Errorf("currencystate: launch_confirmed and refunding both set")
	}
	if s.Supply < 0 {
		return fmt.Errorf("currencystate: negative supply")
	}
	for i, r := range s.Reserves {
		if r < 0 {
			return fmt.Errorf("currencystate: negative reserve at index %d", i)
		}
	}
	return nil
}

// Snapshot captures the pre-prelaunch reserves/supply exactly once; later
// calls are no-ops. The transition function does not call it: the caller
// takes the snapshot before the first prelaunch transfer is applied, and
// RevertReservesAndSupply does nothing until it has been taken.
func (s *State) Snapshot() {
	if s.snapshotTaken {
		return
	}
	s.preLaunchReserves = append([]int64(nil), s.Reserves...)
	s.preLaunchSupply = s.Supply
	s.snapshotTaken = true
}

// RevertReservesAndSupply restores the reserves and supply captured by
// Snapshot, producing a canonical starting point for launch clearing
// independent of the order transfers were processed in.
func (s *State) RevertReservesAndSupply() {
	if !s.snapshotTaken {
		return
	}
	s.Reserves = append([]int64(nil), s.preLaunchReserves...)
	s.Supply = s.preLaunchSupply
}

func (s *State) IsPreLaunch() bool       { return s.prelaunch }
func (s *State) IsLaunchCleared() bool   { return s.launchClear }
func (s *State) IsLaunchConfirmed() bool { return s.launchConfirmed }
func (s *State) IsRefunding() bool       { return s.refunding }
func (s *State) IsLaunchComplete() bool  { return s.launchComplete }

// SetPrelaunch marks the currency as still in its pre-launch window.
func (s *State) SetPrelaunch() { s.prelaunch = true }

// ClearPrelaunch clears the prelaunch flag; called once launch clears.
func (s *State) ClearPrelaunch() { s.prelaunch = false }

// SetLaunchClear marks the launch-clearing block as processed.
func (s *State) SetLaunchClear() { s.launchClear = true }

// ClearLaunchClear clears the transient launch_clear marker once the
// post-launch path has taken over.
func (s *State) ClearLaunchClear() { s.launchClear = false }

// SetLaunchConfirmed marks the launch as having met its minimum preconvert.
// Invariant: mutually exclusive with SetRefunding once launch_clear is set.
func (s *State) SetLaunchConfirmed() error {
	if s.refunding {
		return fmt.Errorf("currencystate: cannot set launch_confirmed, refunding already set")
	}
	s.launchConfirmed = true
	return nil
}

// SetRefunding marks the launch as failing its minimum preconvert.
// Invariant: mutually exclusive with SetLaunchConfirmed once launch_clear
// is set.
func (s *State) SetRefunding() error {
	if s.launchConfirmed {
		return fmt.Errorf("currencystate: cannot set refunding, launch_confirmed already set")
	}
	s.refunding = true
	return nil
}

// SetLaunchCompleteMarker sets launch_complete. Once set it never clears.
func (s *State) SetLaunchCompleteMarker() { s.launchComplete = true }

// Clone performs a deep copy, used by the transition function to build
// `new` from `self` without aliasing slices.
func (s *State) Clone() *State {
	c := *s
	c.Currencies = append([]string(nil), s.Currencies...)
	c.Reserves = append([]int64(nil), s.Reserves...)
	c.ConversionPrice = append([]float64(nil), s.ConversionPrice...)
	c.ViaConversionPrice = append([]float64(nil), s.ViaConversionPrice...)
	if s.preLaunchReserves != nil {
		c.preLaunchReserves = append([]int64(nil), s.preLaunchReserves...)
	}
	return &c
}

// AddReserves adds delta componentwise to Reserves, indexed by currency
// address order matching `currencies`. The transition function does not
// call it; its preconversion path updates reserves through its own helper.
func (s *State) AddReserves(delta []int64) error {
	if len(delta) != len(s.Reserves) {
		return fmt.Errorf("currencystate: reserve delta length mismatch")
	}
	for i, d := range delta {
		s.Reserves[i] += d
	}
	return nil
}

// SubtractReserves subtracts delta componentwise, used when a definition
// notarization's contributions are backed out during prelaunch.
func (s *State) SubtractReserves(delta []int64) error {
	if len(delta) != len(s.Reserves) {
		return fmt.Errorf("currencystate: reserve delta length mismatch")
	}
	for i, d := range delta {
		s.Reserves[i] -= d
	}
	return nil
}

// ExceedsComponentwise reports whether a > b at any index, used to test
// `newReserveIn` against `max_preconvert` and `preConvertedMap` against
// `min_preconvert`.
func ExceedsComponentwise(a, b []int64) bool {
	for i := range a {
		if i < len(b) && a[i] > b[i] {
			return true
		}
	}
	return false
}

// LessComponentwise reports whether a < b at any index.
func LessComponentwise(a, b []int64) bool {
	for i := range a {
		if i < len(b) && a[i] < b[i] {
			return true
		}
	}
	return false
}
