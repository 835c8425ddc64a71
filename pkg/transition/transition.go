// Package transition derives the next Notarization from a prior one plus
// a batch of cross-chain transfers.
package transition

import (
	"fmt"

	"github.com/brindlechain/notarycore/pkg/commitment"
	"github.com/brindlechain/notarycore/pkg/currencystate"
	"github.com/brindlechain/notarycore/pkg/notarization"
	"github.com/brindlechain/notarycore/pkg/notaryerr"
)

// Transfer is one cross-chain value transfer being imported. The concrete
// reserve-transfer execution (spending the transfer into on-chain outputs)
// is an external collaborator invoked only through ApplyReserveTransfers;
// this struct carries only what the transition function itself inspects.
type Transfer struct {
	FirstValue         int64
	SourceCurrencyIndex int // index into dest_currency.currencies / reserves this transfer credits
	PreConversion      bool
	Conversion         bool
	Refunded           bool
}

// IsPreConversion reports whether this transfer is a pre-launch
// preconversion.
func (t Transfer) IsPreConversion() bool { return t.PreConversion && !t.Refunded }

// IsConversion reports whether this transfer is a post-launch conversion.
func (t Transfer) IsConversion() bool { return t.Conversion && !t.Refunded }

// GetRefundTransfer returns the canonical "return to sender" form of this
// transfer. Applying it to an already-refund transfer is a no-op.
func (t Transfer) GetRefundTransfer() Transfer {
	if t.Refunded {
		return t
	}
	r := t
	r.Refunded = true
	r.PreConversion = false
	r.Conversion = false
	return r
}

// ConversionFee computes the protocol conversion fee deducted from a
// preconversion's first value before it is credited to reserves.
func ConversionFee(value int64) int64 {
	return value / 100 // 1% preconversion fee.
}

// DestCurrencyDef is the destination currency's immutable launch
// parameters, read by the transition function but never mutated by it.
type DestCurrencyDef struct {
	SystemID       string
	LaunchSystemID string
	StartBlock     int64
	Currencies     []string
	MaxPreconvert  []int64
	MinPreconvert  []int64 // nil means undefined and the min_preconvert gate is skipped
	Contributions  []int64
	IsFractional   bool
}

// ImportOutput is an opaque placeholder for the on-chain output the
// reserve-transfer engine materializes; its shape belongs to that external
// collaborator, not to this package.
type ImportOutput struct {
	Transfer Transfer
	Value    int64
}

// ApplyReserveTransfers is the external collaborator the launch and
// post-launch paths invoke.
// It is the sole place reserve-transfer execution happens; this package
// never re-implements it.
type ApplyReserveTransfers func(
	sourceSystem, destSystem string,
	dest DestCurrencyDef,
	state *currencystate.State,
	transfers []Transfer,
) (importOutputs []ImportOutput, importedCurrency []int64, gatewayDepositsUsed []int64, spentCurrencyOut []int64, isValidExport bool, err error)

// Result bundles NextNotarizationInfo's return values.
type Result struct {
	TransferHash        []byte
	NewNotarization      *notarization.Record
	ImportOutputs        []ImportOutput
	ImportedCurrency      []int64
	GatewayDepositsUsed   []int64
	SpentCurrencyOut      []int64
}

// NextNotarizationInfo derives the next Notarization from self plus a batch
// of cross-chain transfers, in a fixed five-step order.
//
// export_transfers is in/out: every substitution of a refund transfer in
// step 3 is observable by the caller through the returned slice.
func NextNotarizationInfo(
	sourceSystem string,
	homeChainID string,
	dest DestCurrencyDef,
	self *notarization.Record,
	lastExportHeight, currentHeight int64,
	exportTransfers []Transfer,
	apply ApplyReserveTransfers,
) (*Result, []Transfer, error) {
	// Step 1: copy and reparent.
	newRec := *self
	newRec.Flags.Definition = false
	newRec.PrevNotarizationRef = nil // populated by the caller once it knows self's own output ref
	newRec.PrevHeight = self.NotarizationHeight
	newRec.NotarizationHeight = currentHeight
	newRec.CurrencyState = self.CurrencyState.Clone()

	selfHash, err := self.Hash()
	if err != nil {
		return nil, exportTransfers, fmt.Errorf("transition: hash prior notarization: %w", err)
	}
	newRec.HashPrevNotarization = selfHash

	// Step 2: refund short-circuit.
	if self.CurrencyState.IsRefunding() {
		return &Result{NewNotarization: &newRec}, exportTransfers, nil
	}

	// Step 3: transfer validation pass. transfer_hash is computed over the
	// pre-mutation values, before any refund substitution below.
	transferHash := hashTransfers(exportTransfers)
	out := make([]Transfer, len(exportTransfers))
	copy(out, exportTransfers)

	for i, tr := range out {
		switch {
		case tr.IsPreConversion() && lastExportHeight >= dest.StartBlock:
			out[i] = tr.GetRefundTransfer()
		case tr.IsPreConversion():
			newReserveIn := tr.FirstValue - ConversionFee(tr.FirstValue)
			projected := addComponent(newRec.CurrencyState.Reserves, tr.SourceCurrencyIndex, newReserveIn)
			if currencystate.ExceedsComponentwise(projected, dest.MaxPreconvert) {
				out[i] = tr.GetRefundTransfer()
			} else {
				newRec.CurrencyState.Reserves = projected
			}
		case tr.IsConversion() && !newRec.CurrencyState.IsLaunchComplete():
			out[i] = tr.GetRefundTransfer()
		}
	}
	exportTransfers = out

	// Step 4: launch clearing.
	if dest.LaunchSystemID == sourceSystem && currentHeight <= dest.StartBlock-1 {
		if currentHeight == dest.StartBlock-1 && newRec.CurrencyState.IsPreLaunch() {
			if newRec.CurrencyState.IsLaunchCleared() {
				newRec.CurrencyState.ClearPrelaunch()
				newRec.CurrencyState.SetLaunchClear()
				newRec.CurrencyState.RevertReservesAndSupply()
			} else {
				newRec.Flags.LaunchCleared = true
				newRec.CurrencyState.SetLaunchClear()
				newRec.CurrencyState.RevertReservesAndSupply()
				newRec.CurrencyState.ClearPrelaunch()

				preConverted := newRec.CurrencyState.Reserves
				if dest.MinPreconvert != nil && currencystate.LessComponentwise(preConverted, dest.MinPreconvert) {
					newRec.CurrencyState.Supply = 0
					newRec.Flags.Refunding = true
					if err := newRec.CurrencyState.SetRefunding(); err != nil {
						return nil, exportTransfers, fmt.Errorf("transition: %w: %v", notaryerr.ErrInvalidExport, err)
					}
				} else {
					newRec.Flags.LaunchConfirmed = true
					if err := newRec.CurrencyState.SetLaunchConfirmed(); err != nil {
						return nil, exportTransfers, fmt.Errorf("transition: %w: %v", notaryerr.ErrInvalidExport, err)
					}
				}
			}
		} else if currentHeight < dest.StartBlock-1 {
			newRec.CurrencyState.SetPrelaunch()
			if self.Flags.Definition {
				if err := newRec.CurrencyState.SubtractReserves(dest.Contributions); err != nil {
					return nil, exportTransfers, fmt.Errorf("transition: %w: %v", notaryerr.ErrInvalidExport, err)
				}
			}
		}

		importOutputs, importedCurrency, gatewayDepositsUsed, spentCurrencyOut, ok, err := apply(sourceSystem, dest.SystemID, dest, newRec.CurrencyState, exportTransfers)
		if err != nil {
			return nil, exportTransfers, fmt.Errorf("transition: apply reserve transfers: %w", err)
		}
		if !ok {
			return nil, exportTransfers, notaryerr.ErrInvalidExport
		}
		return &Result{
			TransferHash:        transferHash,
			NewNotarization:     &newRec,
			ImportOutputs:       importOutputs,
			ImportedCurrency:    importedCurrency,
			GatewayDepositsUsed: gatewayDepositsUsed,
			SpentCurrencyOut:    spentCurrencyOut,
		}, exportTransfers, nil
	}

	// Step 5: post-launch path.
	newRec.CurrencyState.SetLaunchCompleteMarker()
	newRec.Flags.LaunchConfirmed = false
	newRec.CurrencyState.ClearLaunchClear()
	if dest.SystemID != homeChainID {
		newRec.Flags.SameChain = false
	}

	// First pass: discard outputs, establish the post-transfer state with
	// its new conversion prices.
	firstPassState := newRec.CurrencyState.Clone()
	_, _, _, _, ok, err := apply(sourceSystem, dest.SystemID, dest, firstPassState, exportTransfers)
	if err != nil {
		return nil, exportTransfers, fmt.Errorf("transition: apply reserve transfers (first pass): %w", err)
	}
	if !ok {
		return nil, exportTransfers, notaryerr.ErrInvalidExport
	}
	newRec.CurrencyState = firstPassState

	var importOutputs []ImportOutput
	var importedCurrency, gatewayDepositsUsed, spentCurrencyOut []int64

	if dest.IsFractional && !self.CurrencyState.IsPreLaunch() {
		// Second pass, internal only: apply using the new prices over the
		// OLD state to materialize import_outputs deterministically,
		// avoiding rounding drift on reserves. Never exposed as a separate
		// public operation; callers only ever see NextNotarizationInfo.
		oldState := self.CurrencyState.Clone()
		oldState.ConversionPrice = append([]float64(nil), firstPassState.ConversionPrice...)
		oldState.ViaConversionPrice = append([]float64(nil), firstPassState.ViaConversionPrice...)
		var ok2 bool
		importOutputs, importedCurrency, gatewayDepositsUsed, spentCurrencyOut, ok2, err = apply(sourceSystem, dest.SystemID, dest, oldState, exportTransfers)
		if err != nil {
			return nil, exportTransfers, fmt.Errorf("transition: apply reserve transfers (second pass): %w", err)
		}
		if !ok2 {
			return nil, exportTransfers, notaryerr.ErrInvalidExport
		}
	}

	return &Result{
		TransferHash:        transferHash,
		NewNotarization:     &newRec,
		ImportOutputs:       importOutputs,
		ImportedCurrency:    importedCurrency,
		GatewayDepositsUsed: gatewayDepositsUsed,
		SpentCurrencyOut:    spentCurrencyOut,
	}, exportTransfers, nil
}

// hashTransfers hashes the pre-mutation transfer batch, canonically.
func hashTransfers(transfers []Transfer) []byte {
	h := commitment.HashConcat(encodeTransfers(transfers))
	return h
}

func encodeTransfers(transfers []Transfer) []byte {
	var buf []byte
	for _, t := range transfers {
		buf = append(buf, byte(t.FirstValue), byte(t.FirstValue>>8), byte(t.FirstValue>>16), byte(t.FirstValue>>24))
		if t.PreConversion {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
		if t.Conversion {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	}
	return buf
}

func addComponent(base []int64, index int, delta int64) []int64 {
	out := append([]int64(nil), base...)
	if index >= 0 && index < len(out) {
		out[index] += delta
	}
	return out
}
