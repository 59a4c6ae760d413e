package protocol

import "github.com/shopspring/decimal"

// Amount is a monetary value carried in the order document. It wraps a
// decimal so that discount math stays exact, while marshalling as a bare
// JSON number to match the platform's wire format (decimal.Decimal quotes
// its output by default).
type Amount struct {
	decimal.Decimal
}

// NewAmount wraps d as an Amount.
func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d}
}

// AmountFromInt is a convenience constructor for whole values.
func AmountFromInt(v int64) Amount {
	return Amount{Decimal: decimal.NewFromInt(v)}
}

// Add returns a + d.
func (a Amount) Add(d decimal.Decimal) Amount {
	return Amount{Decimal: a.Decimal.Add(d)}
}

// Sub returns a - d.
func (a Amount) Sub(d decimal.Decimal) Amount {
	return Amount{Decimal: a.Decimal.Sub(d)}
}

// MarshalJSON encodes the amount as an unquoted number.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}
