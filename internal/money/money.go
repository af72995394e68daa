// Package money implements a fixed-point monetary value with exactly four
// fractional digits, backed by an arbitrary-precision decimal rather than
// binary floating point.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrNumeric covers overflow and unparsable input, matching the engine's
// Numeric error kind.
var ErrNumeric = errors.New("numeric error")

// maxMagnitude bounds the representable balance so "overflow" is a concrete,
// testable condition rather than an unbounded bignum.
var maxMagnitude = decimal.New(1_000_000_000_000, 0) // 10^12, four fractional digits => 10^16 minor units

const scale = 4

// Money is an opaque four-fractional-digit fixed-point value. The zero value
// is zero.
type Money struct {
	d decimal.Decimal
}

// Zero is the additive identity.
var Zero = Money{d: decimal.Zero}

// New constructs a Money from an integer major/minor pair, e.g. New(1, 5000)
// is 1.5000.
func New(major int64, minor int64) Money {
	d := decimal.New(major, 0).Add(decimal.New(minor, -scale))
	return Money{d: roundHalfTowardZero(d)}
}

// Parse reads a decimal string such as "12.3456" or "-3". Whitespace must
// already be trimmed by the caller (the CSV boundary is responsible for
// that); Parse itself rejects anything decimal.NewFromString rejects,
// which includes "NaN", "Inf", and non-numeric text, plus anything that
// would overflow the representable magnitude.
func Parse(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q: %v", ErrNumeric, s, err)
	}
	rounded := roundHalfTowardZero(d)
	if rounded.Abs().GreaterThan(maxMagnitude) {
		return Money{}, fmt.Errorf("%w: %q exceeds representable magnitude", ErrNumeric, s)
	}
	return Money{d: rounded}, nil
}

// roundHalfTowardZero rounds d to four fractional digits, breaking exact
// ties toward zero rather than the decimal package's default round-half-even.
func roundHalfTowardZero(d decimal.Decimal) decimal.Decimal {
	shifted := d.Shift(scale)
	truncated := shifted.Truncate(0)
	frac := shifted.Sub(truncated).Abs()
	half := decimal.NewFromFloat(0.5)
	if frac.GreaterThan(half) {
		if d.IsNegative() {
			truncated = truncated.Sub(decimal.New(1, 0))
		} else {
			truncated = truncated.Add(decimal.New(1, 0))
		}
	}
	return truncated.Shift(-scale)
}

// String renders the value with exactly four fractional digits.
func (m Money) String() string {
	return m.d.StringFixed(scale)
}

// Add returns m + other, rejecting results that overflow the representable
// magnitude.
func (m Money) Add(other Money) (Money, error) {
	sum := m.d.Add(other.d)
	if sum.Abs().GreaterThan(maxMagnitude) {
		return Money{}, fmt.Errorf("%w: addition overflow", ErrNumeric)
	}
	return Money{d: sum}, nil
}

// Sub returns m - other, rejecting results that overflow the representable
// magnitude. The result may be negative; the engine relies on that for the
// chargeback-after-withdrawal case.
func (m Money) Sub(other Money) (Money, error) {
	diff := m.d.Sub(other.d)
	if diff.Abs().GreaterThan(maxMagnitude) {
		return Money{}, fmt.Errorf("%w: subtraction overflow", ErrNumeric)
	}
	return Money{d: diff}, nil
}

// Neg returns -m.
func (m Money) Neg() Money {
	return Money{d: m.d.Neg()}
}

// Cmp returns -1, 0, or 1 as m is less than, equal to, or greater than other.
func (m Money) Cmp(other Money) int {
	return m.d.Cmp(other.d)
}

// Equal reports exact equality on the four-digit representation.
func (m Money) Equal(other Money) bool {
	return m.d.Equal(other.d)
}

// LessThan reports whether m < other.
func (m Money) LessThan(other Money) bool {
	return m.d.LessThan(other.d)
}

// IsZero reports whether m == 0.
func (m Money) IsZero() bool {
	return m.d.IsZero()
}

// IsPositive reports whether m > 0.
func (m Money) IsPositive() bool {
	return m.d.IsPositive()
}

// IsNegative reports whether m < 0.
func (m Money) IsNegative() bool {
	return m.d.IsNegative()
}
