// Package money implements currency amounts as integer minor units.
//
// A Money value never goes through binary floating point. Decimal strings are
// parsed and formatted with shopspring/decimal at the edges, while all
// arithmetic (including proportional allocation) is done on int64 minor units
// or exact rationals.
package money

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrUnknownCurrency = errors.New("unknown currency")
	ErrInvalidWeights  = errors.New("invalid allocation weights")

	// ErrOverflow is returned when a result does not fit in int64 minor units.
	ErrOverflow = errors.New("amount out of range")
)

// MaxAmount is the largest magnitude Parse accepts, in minor units
// (10 trillion USD). Sums of many such amounts still fit in int64; the
// checked operations catch the rest.
const MaxAmount int64 = 1_000_000_000_000_000

// minorDigits lists currencies whose minor unit is not 1/100.
var minorDigits = map[string]int32{
	"BIF": 0, "CLP": 0, "ISK": 0, "JPY": 0, "KRW": 0, "PYG": 0, "UGX": 0, "VND": 0, "XAF": 0, "XOF": 0,
	"BHD": 3, "IQD": 3, "JOD": 3, "KWD": 3, "LYD": 3, "OMR": 3, "TND": 3,
}

// Money is an amount of minor units (cents for USD) in a single currency.
type Money struct {
	Amount   int64
	Currency string
}

// New returns a Money of amount minor units. The currency code is upper-cased.
func New(amount int64, currency string) Money {
	return Money{Amount: amount, Currency: strings.ToUpper(currency)}
}

// Zero returns the zero amount in currency.
func Zero(currency string) Money {
	return New(0, currency)
}

// Digits returns the number of decimal places of currency's minor unit.
func Digits(currency string) int32 {
	if d, ok := minorDigits[strings.ToUpper(currency)]; ok {
		return d
	}
	return 2
}

// ValidCurrency reports whether code looks like an ISO 4217 alphabetic code.
func ValidCurrency(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// Parse converts a decimal string such as "100.00" into minor units of currency.
// Values with more decimal places than the currency allows are rejected rather
// than rounded.
func Parse(s, currency string) (Money, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if !ValidCurrency(currency) {
		return Money{}, fmt.Errorf("%w: %q", ErrUnknownCurrency, currency)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	digits := Digits(currency)
	scaled := d.Shift(digits)
	if !scaled.Equal(scaled.Truncate(0)) {
		return Money{}, fmt.Errorf("%w: %q has more than %d decimal places", ErrInvalidAmount, s, digits)
	}
	if scaled.Abs().GreaterThan(decimal.NewFromInt(MaxAmount)) {
		return Money{}, fmt.Errorf("%w: %q exceeds %s", ErrInvalidAmount, s, decimal.New(MaxAmount, -digits).StringFixed(digits))
	}
	return Money{Amount: scaled.IntPart(), Currency: currency}, nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(s, currency string) Money {
	m, err := Parse(s, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Decimal returns the amount as a fixed-point decimal string, e.g. "33.34".
func (m Money) Decimal() string {
	digits := Digits(m.Currency)
	return decimal.New(m.Amount, -digits).StringFixed(digits)
}

// String formats the amount with its currency, e.g. "33.34 USD".
func (m Money) String() string {
	return m.Decimal() + " " + m.Currency
}

func (m Money) IsZero() bool { return m.Amount == 0 }

// Sign returns -1, 0 or +1.
func (m Money) Sign() int {
	switch {
	case m.Amount < 0:
		return -1
	case m.Amount > 0:
		return 1
	}
	return 0
}

// SameCurrency reports whether m and o can be combined.
func (m Money) SameCurrency(o Money) bool {
	return m.Currency == o.Currency
}

func (m Money) mustMatch(o Money) {
	if !m.SameCurrency(o) {
		panic(fmt.Sprintf("money: currency mismatch %s vs %s", m.Currency, o.Currency))
	}
}

// Add returns m+o. Both values must share a currency.
func (m Money) Add(o Money) Money {
	m.mustMatch(o)
	return Money{Amount: m.Amount + o.Amount, Currency: m.Currency}
}

// Sub returns m-o. Both values must share a currency.
func (m Money) Sub(o Money) Money {
	m.mustMatch(o)
	return Money{Amount: m.Amount - o.Amount, Currency: m.Currency}
}

// CheckedAdd returns m+o, or ErrOverflow when the sum does not fit in int64.
func (m Money) CheckedAdd(o Money) (Money, error) {
	m.mustMatch(o)
	sum := m.Amount + o.Amount
	if (o.Amount > 0 && sum < m.Amount) || (o.Amount < 0 && sum > m.Amount) {
		return Money{}, fmt.Errorf("%w: %s + %s", ErrOverflow, m, o)
	}
	return Money{Amount: sum, Currency: m.Currency}, nil
}

// CheckedSub returns m-o, or ErrOverflow when the difference does not fit in int64.
func (m Money) CheckedSub(o Money) (Money, error) {
	m.mustMatch(o)
	diff := m.Amount - o.Amount
	if (o.Amount > 0 && diff > m.Amount) || (o.Amount < 0 && diff < m.Amount) {
		return Money{}, fmt.Errorf("%w: %s - %s", ErrOverflow, m, o)
	}
	return Money{Amount: diff, Currency: m.Currency}, nil
}

func (m Money) Neg() Money {
	return Money{Amount: -m.Amount, Currency: m.Currency}
}

func (m Money) Abs() Money {
	if m.Amount < 0 {
		return m.Neg()
	}
	return m
}

// Cmp compares m and o, returning -1, 0 or +1.
func (m Money) Cmp(o Money) int {
	m.mustMatch(o)
	switch {
	case m.Amount < o.Amount:
		return -1
	case m.Amount > o.Amount:
		return 1
	}
	return 0
}

// Sum adds up amounts in currency. An empty list yields zero.
func Sum(currency string, amounts ...Money) (Money, error) {
	total := Zero(currency)
	for _, a := range amounts {
		var err error
		if total, err = total.CheckedAdd(a); err != nil {
			return Money{}, err
		}
	}
	return total, nil
}

// MultiplyByRatio scales m by r, rounding half away from zero to the nearest
// minor unit. It returns ErrOverflow when the result does not fit in int64.
func (m Money) MultiplyByRatio(r *big.Rat) (Money, error) {
	x := new(big.Rat).Mul(new(big.Rat).SetInt64(m.Amount), r)
	num, den := x.Num(), x.Denom()
	q, rem := new(big.Int).QuoRem(num, den, new(big.Int))
	twice := new(big.Int).Abs(rem)
	twice.Lsh(twice, 1)
	if twice.Cmp(den) >= 0 {
		if num.Sign() < 0 {
			q.Sub(q, big.NewInt(1))
		} else {
			q.Add(q, big.NewInt(1))
		}
	}
	if !q.IsInt64() {
		return Money{}, fmt.Errorf("%w: %s * %s", ErrOverflow, m, r.RatString())
	}
	return Money{Amount: q.Int64(), Currency: m.Currency}, nil
}

// Allocate splits m into len(weights) parts proportional to weights.
//
// Each part is the floor of its exact proportional share; the minor units left
// over are handed out one at a time to the parts with the largest fractional
// remainder, ties going to the lower index. The parts always sum to m exactly
// and no part is more than one minor unit away from its exact share.
func (m Money) Allocate(weights ...*big.Rat) ([]Money, error) {
	if len(weights) == 0 {
		return nil, fmt.Errorf("%w: no weights", ErrInvalidWeights)
	}
	sum := new(big.Rat)
	for i, w := range weights {
		if w == nil {
			return nil, fmt.Errorf("%w: weight %d is nil", ErrInvalidWeights, i)
		}
		if w.Sign() < 0 {
			return nil, fmt.Errorf("%w: weight %d is negative", ErrInvalidWeights, i)
		}
		sum.Add(sum, w)
	}
	if sum.Sign() == 0 {
		return nil, fmt.Errorf("%w: weights sum to zero", ErrInvalidWeights)
	}
	if m.Amount == math.MinInt64 {
		return nil, fmt.Errorf("%w: cannot allocate %s", ErrOverflow, m)
	}

	total := big.NewInt(m.Amount)
	negative := total.Sign() < 0
	total.Abs(total)

	parts := make([]int64, len(weights))
	remainders := make([]*big.Rat, len(weights))
	allocated := new(big.Int)
	for i, w := range weights {
		ideal := new(big.Rat).SetInt(total)
		ideal.Mul(ideal, w)
		ideal.Quo(ideal, sum)

		floor := new(big.Int).Quo(ideal.Num(), ideal.Denom())
		remainders[i] = new(big.Rat).Sub(ideal, new(big.Rat).SetInt(floor))
		parts[i] = floor.Int64()
		allocated.Add(allocated, floor)
	}

	order := make([]int, len(weights))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return remainders[order[a]].Cmp(remainders[order[b]]) > 0
	})

	leftover := new(big.Int).Sub(total, allocated).Int64()
	for k := int64(0); k < leftover; k++ {
		parts[order[k]]++
	}

	out := make([]Money, len(parts))
	for i, p := range parts {
		if negative {
			p = -p
		}
		out[i] = Money{Amount: p, Currency: m.Currency}
	}
	return out, nil
}

// Uniform returns n equal weights, for equal splits.
func Uniform(n int) []*big.Rat {
	w := make([]*big.Rat, n)
	for i := range w {
		w[i] = big.NewRat(1, 1)
	}
	return w
}
