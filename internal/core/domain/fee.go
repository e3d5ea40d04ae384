package domain

import "math/bits"

const (
	DefaultProtocolFeeBps uint64 = 20
	MinProtocolFeeBps     uint64 = 10
	MaxProtocolFeeBps     uint64 = 30
)

// FeePolicy is the coordinator's protocol fee configuration. The discount
// flag lives with the stake oracle collaborator, not here.
type FeePolicy struct {
	ProtocolFeeBps uint64
}

func NewFeePolicy() *FeePolicy {
	return &FeePolicy{ProtocolFeeBps: DefaultProtocolFeeBps}
}

func (f *FeePolicy) SetProtocolFee(bps uint64) (Event, error) {
	if bps < MinProtocolFeeBps || bps > MaxProtocolFeeBps {
		return nil, NewValidationError(
			"protocol fee must be within [%d, %d] bps",
			MinProtocolFeeBps, MaxProtocolFeeBps,
		)
	}
	f.ProtocolFeeBps = bps

	return ProtocolFeeUpdated{Bps: bps}, nil
}

// CalculateFee floors amount*bps/10000. The product is computed in 128
// bits so large amounts cannot wrap; the fee band keeps the quotient
// within 64 bits.
func (f *FeePolicy) CalculateFee(amount uint64) uint64 {
	hi, lo := bits.Mul64(amount, f.ProtocolFeeBps)
	quo, _ := bits.Div64(hi, lo, FeeDenominator)
	return quo
}
