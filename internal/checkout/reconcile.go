package checkout

import "github.com/shopspring/decimal"

// minChargeMinor is the smallest amount any gateway is ever asked to charge:
// one whole EGP at 2-decimal precision. Revisit if a charge currency with a
// different exponent is ever introduced.
const minChargeMinor int64 = 100

// CalculateAmountCents returns the authoritative charge amount in minor
// currency units. Whenever line items are present the amount is recomputed
// from them and the client-declared total is ignored, so an under-reporting
// client can never open a session for less than the true cart value. The
// declared amount is only used as a fallback for item-less requests.
func CalculateAmountCents(amount decimal.Decimal, items []CartItem) int64 {
	var cartTotal int64
	for _, item := range items {
		cartTotal += itemMinor(item)
	}

	base := cartTotal
	if base <= 0 {
		base = amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	}

	if base < minChargeMinor {
		base = minChargeMinor
	}
	return base
}
