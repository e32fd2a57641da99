package asset

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// ToDecimal converts a raw base-unit amount into whole token units.
func ToDecimal(raw *uint256.Int, decimals uint8) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	d := decimal.NewFromBigInt(raw.ToBig(), 0)
	return d.Shift(-int32(decimals))
}

// FromDecimal converts whole token units into a raw base-unit amount.
// Fractions below one base unit are truncated. Returns false when the
// value is negative or exceeds 256 bits.
func FromDecimal(units decimal.Decimal, decimals uint8) (*uint256.Int, bool) {
	if units.IsNegative() {
		return nil, false
	}
	shifted := units.Shift(int32(decimals)).Truncate(0)
	raw, overflow := uint256.FromBig(new(big.Int).Set(shifted.BigInt()))
	if overflow {
		return nil, false
	}
	return raw, true
}

// Format renders a raw amount with the asset's symbol, e.g. "12.5 WETH".
func (a *Asset) Format(raw *uint256.Int) string {
	return ToDecimal(raw, a.decimals).String() + " " + a.symbol
}
