package repository

import "github.com/shopspring/decimal"

// Money is stored as NUMERIC(12,2) major units but every computation and wire
// response uses integer cents. These two helpers are the entire conversion
// boundary; nothing outside this package changes representation.

func CentsFromDecimal(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

func DecimalFromCents(cents int64) decimal.Decimal {
	return decimal.NewFromInt(cents).Shift(-2)
}
