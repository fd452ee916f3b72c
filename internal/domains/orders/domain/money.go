package domain

import "github.com/shopspring/decimal"

// MinorUnitPlaces is the number of fractional digits in the store currency.
const MinorUnitPlaces = 2

// PriceTolerance is the largest accepted gap between a client-declared amount
// and the authoritative amount: one minor currency unit.
var PriceTolerance = decimal.New(1, -MinorUnitPlaces)

// WithinTolerance reports whether two amounts differ by at most PriceTolerance.
func WithinTolerance(expected, received decimal.Decimal) bool {
	return expected.Sub(received).Abs().LessThanOrEqual(PriceTolerance)
}

// FormatAmount renders an amount with exactly two fractional digits.
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(MinorUnitPlaces)
}

// MaxAmount is the largest amount the order tables can hold (numeric(12,2)).
var MaxAmount = decimal.RequireFromString("9999999999.99")

// MaxLineQuantity caps the quantity of a single line item.
const MaxLineQuantity int64 = 1_000_000

// WithinStorableRange reports whether amount fits the persisted amount columns.
func WithinStorableRange(amount decimal.Decimal) bool {
	return !amount.IsNegative() && amount.LessThanOrEqual(MaxAmount)
}
