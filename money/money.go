// Package money provides the fixed-point decimal value every wagered
// amount, balance, and payout in the simulator is expressed in. Nothing
// on a ledger path may pass through a binary float — see spec invariant
// "money non-float" in DESIGN.md.
package money

import (
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"
)

// Precision is the number of fractional digits money values are rounded
// to wherever a rounding boundary is crossed (multiplication by a
// float64 multiplier, division). Twelve digits comfortably covers the
// satoshi-scale bet sizes (0.00015) this domain uses.
const Precision = 12

// Money is a signed, arbitrary-precision decimal value. The zero value
// is zero.
type Money struct {
	d decimal.Decimal
}

// Zero is the additive identity.
var Zero = Money{d: decimal.Zero}

// FromString parses a decimal literal (e.g. "0.00015"). This is the
// normal construction path — config files, CLI flags, and test fixtures
// all go through here rather than through a float.
func FromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("money: invalid decimal literal %q: %w", s, err)
	}
	return Money{d: d}, nil
}

// MustFromString is FromString for literals known to be valid at compile
// time (defaults, test fixtures). Panics on a malformed literal.
func MustFromString(s string) Money {
	m, err := FromString(s)
	if err != nil {
		panic(err)
	}
	return m
}

// FromInt builds an integer-valued Money (e.g. a whole-unit starting
// capital).
func FromInt(i int64) Money {
	return Money{d: decimal.NewFromInt(i)}
}

// FromFloatLossy constructs a Money from a float64. The conversion is
// exact for the bits given but the caller is the one introducing the
// imprecision — this constructor exists for parsing externally-supplied
// numeric JSON/YAML fields, not for ledger arithmetic. Ok reports
// whether the input was representable without special values (NaN/Inf).
func FromFloatLossy(f float64) (m Money, ok bool) {
	if f != f || f > 1e18 || f < -1e18 { // NaN or out of sane range
		return Zero, false
	}
	return Money{d: decimal.NewFromFloat(f).Round(Precision)}, true
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{d: m.d.Add(other.d)}
}

// Sub returns m - other.
func (m Money) Sub(other Money) Money {
	return Money{d: m.d.Sub(other.d)}
}

// Neg returns -m.
func (m Money) Neg() Money {
	return Money{d: m.d.Neg()}
}

// Cmp returns -1, 0, or 1 as m is less than, equal to, or greater than
// other.
func (m Money) Cmp(other Money) int {
	return m.d.Cmp(other.d)
}

// Equal reports exact decimal equality, with no epsilon tolerance.
func (m Money) Equal(other Money) bool {
	return m.d.Equal(other.d)
}

// IsZero reports whether m is exactly zero.
func (m Money) IsZero() bool {
	return m.d.IsZero()
}

// IsNegative reports whether m is strictly less than zero.
func (m Money) IsNegative() bool {
	return m.d.IsNegative()
}

// IsPositive reports whether m is strictly greater than zero.
func (m Money) IsPositive() bool {
	return m.d.IsPositive()
}

// MulMultiplier multiplies m by a float64 multiplier (a payout
// multiplier, a ratio from config) and rounds half-to-even at Precision.
// The lossy flag is set when the multiplier's shortest decimal form has
// more than Precision fractional digits, so callers that care can log
// it; the returned
// Money is always the correctly-rounded result regardless.
func (m Money) MulMultiplier(mult float64) (result Money, lossy bool) {
	md := decimal.NewFromFloat(mult)
	lossy = !md.Equal(decimal.NewFromFloatWithExponent(mult, -Precision))
	product := m.d.Mul(md).RoundBank(Precision)
	return Money{d: product}, lossy
}

// Mul multiplies two Money values, rounding half-to-even at Precision.
func (m Money) Mul(other Money) Money {
	return Money{d: m.d.Mul(other.d).RoundBank(Precision)}
}

// DivRound divides m by a positive decimal divisor, rounding half-to-even
// at Precision. Division is deliberately not exposed any other way —
// money values may never be divided without an explicit precision.
// Divides to a few guard digits past Precision first, then applies
// RoundBank, since shopspring's DivRound itself rounds half away from
// zero and this package's single rounding mode is half-to-even.
func (m Money) DivRound(divisor decimal.Decimal) Money {
	if divisor.IsZero() {
		return Zero
	}
	return Money{d: m.d.DivRound(divisor, int32(Precision+4)).RoundBank(Precision)}
}

// Ratio returns m / other as a plain float64 ratio (e.g. for ROI
// reporting). Only safe off the ledger path — never feed this back into
// a Money value.
func (m Money) Ratio(other Money) float64 {
	if other.IsZero() {
		return 0
	}
	f, _ := m.d.DivRound(other.d, int32(Precision)).Float64()
	return f
}

// InexactFloat64 exposes the value as a float64 strictly for reporting
// and formatting (stats tables, JSON for a dashboard). Never round-trip
// this back into a Money.
func (m Money) InexactFloat64() float64 {
	f, _ := m.d.Float64()
	return f
}

// String formats m with its full native precision (trailing zeros
// trimmed), matching shopspring/decimal's default String().
func (m Money) String() string {
	return m.d.String()
}

// StringFixed formats m with exactly places fractional digits.
func (m Money) StringFixed(places int32) string {
	return m.d.StringFixed(places)
}

// MarshalJSON renders m as a JSON string, never a JSON number — keeping
// a money value out of a language runtime's float64 JSON decoder on the
// far side of any JSONL sink.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.d.String() + `"`), nil
}

// UnmarshalJSON accepts either a JSON string or a JSON number, since
// hand-written config/fixture files commonly write bare numeric
// literals for money fields.
func (m *Money) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	m.d = d
	return nil
}

// MarshalYAML renders m as its decimal string form.
func (m Money) MarshalYAML() (any, error) {
	return m.d.String(), nil
}

// UnmarshalYAML accepts a scalar decimal literal.
func (m *Money) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("money: invalid decimal literal %q: %w", s, err)
	}
	m.d = d
	return nil
}

// Value implements driver.Valuer so Money can be persisted by any sink
// that writes through database/sql, matching shopspring/decimal's own
// convention.
func (m Money) Value() (driver.Value, error) {
	return m.d.Value()
}

// Max returns the larger of a and b.
func Max(a, b Money) Money {
	if a.Cmp(b) >= 0 {
		return a
	}
	return b
}

// Min returns the smaller of a and b.
func Min(a, b Money) Money {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

// Clamp restricts m to [lo, hi]. If lo > hi, lo is returned when m < lo
// and hi otherwise.
func Clamp(m, lo, hi Money) Money {
	if m.Cmp(lo) < 0 {
		return lo
	}
	if m.Cmp(hi) > 0 {
		return hi
	}
	return m
}
