package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ─── Money ──────────────────────────────────────────────────────────────────
// All balances and ledger amounts are stored as int64 paise (1/100 rupee).
// Decimal conversion happens only at the serialization boundary so that
// arithmetic inside the engine never touches floating point.

// Money is a fixed-point currency amount in paise.
type Money int64

// Rupees constructs a Money from a whole-rupee amount.
func Rupees(r int64) Money {
	return Money(r * 100)
}

// ParseMoney parses a fixed-point decimal string ("150", "75.50") into paise.
// Amounts with more than two fractional digits are rejected.
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.Exponent() < -2 {
		return 0, fmt.Errorf("invalid amount %q: more than two decimal places", s)
	}
	return Money(d.Shift(2).IntPart()), nil
}

// Decimal returns the amount as a two-place decimal.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

// String formats the amount as a fixed-point decimal ("150.00").
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// MarshalJSON serializes Money as a fixed-point decimal string, never a float.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON accepts either a quoted decimal string or a bare number.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
