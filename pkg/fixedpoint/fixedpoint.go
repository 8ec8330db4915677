// Package fixedpoint converts between native fixed-point integer amounts and
// arbitrary-precision decimals. Every currency stores amounts as signed
// integers in its own subdivision (e.g. cents for USD, satoshi for BTC);
// all cross-currency math happens in decimal and is rounded half-up, so the
// same inputs always produce the same output.
package fixedpoint

import "github.com/shopspring/decimal"

// ToDecimal converts units in a currency's native subdivision to a decimal.
// ToDecimal(10000, 2) == 100.00
func ToDecimal(units int64, subdivision int32) decimal.Decimal {
	return decimal.New(units, -subdivision)
}

// ToUnits converts a decimal amount to integer units at the given subdivision,
// rounding half-up.
// ToUnits(100.005, 2) == 10001
func ToUnits(d decimal.Decimal, subdivision int32) int64 {
	return d.Shift(subdivision).Round(0).IntPart()
}

// Round rounds half-up at the given number of decimal places.
func Round(d decimal.Decimal, places int32) decimal.Decimal {
	return d.Round(places)
}
