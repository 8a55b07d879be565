package money

import (
	"errors"
	"math"
	"math/big"
	"math/rand"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in       string
		currency string
		out      int64
		err      error
	}{
		{"100.00", "USD", 10000, nil},
		{"100", "usd", 10000, nil},
		{"0.01", "USD", 1, nil},
		{" 33.3 ", "EUR", 3330, nil},
		{"-12.50", "USD", -1250, nil},
		{"1500", "JPY", 1500, nil},
		{"1.234", "KWD", 1234, nil},
		{"1.005", "USD", 0, ErrInvalidAmount},
		{"1.5", "JPY", 0, ErrInvalidAmount},
		{"abc", "USD", 0, ErrInvalidAmount},
		{"", "USD", 0, ErrInvalidAmount},
		{"99999999999999999999", "USD", 0, ErrInvalidAmount},
		{"10000000000000.00", "USD", MaxAmount, nil},
		{"-10000000000000.00", "USD", -MaxAmount, nil},
		{"10000000000000.01", "USD", 0, ErrInvalidAmount},
		{"92233720368547758.07", "USD", 0, ErrInvalidAmount},
		{"1000000000000001", "JPY", 0, ErrInvalidAmount},
		{"1.00", "US", 0, ErrUnknownCurrency},
		{"1.00", "U$D", 0, ErrUnknownCurrency},
	}
	for _, tc := range cases {
		t.Run(tc.in+"/"+tc.currency, func(t *testing.T) {
			got, err := Parse(tc.in, tc.currency)
			if tc.err != nil {
				if !errors.Is(err, tc.err) {
					t.Fatalf("Parse(%q) error = %v, want %v", tc.in, err, tc.err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tc.in, err)
			}
			if got.Amount != tc.out {
				t.Errorf("Parse(%q) = %d, want %d", tc.in, got.Amount, tc.out)
			}
		})
	}
}

func TestDecimalFormatting(t *testing.T) {
	tests := []struct {
		m    Money
		want string
	}{
		{New(3334, "USD"), "33.34"},
		{New(5, "USD"), "0.05"},
		{New(-1250, "USD"), "-12.50"},
		{New(1500, "JPY"), "1500"},
		{New(1234, "KWD"), "1.234"},
	}
	for _, tt := range tests {
		if got := tt.m.Decimal(); got != tt.want {
			t.Errorf("%d %s Decimal() = %q, want %q", tt.m.Amount, tt.m.Currency, got, tt.want)
		}
	}
	if got := New(3334, "usd").String(); got != "33.34 USD" {
		t.Errorf("String() = %q", got)
	}
}

func TestArithmetic(t *testing.T) {
	a := New(1000, "USD")
	b := New(250, "USD")
	if got := a.Add(b); got.Amount != 1250 {
		t.Errorf("Add = %d, want 1250", got.Amount)
	}
	if got := b.Sub(a); got.Amount != -750 || got.Sign() != -1 {
		t.Errorf("Sub = %d, want -750", got.Amount)
	}
	if got := b.Sub(a).Abs(); got.Amount != 750 {
		t.Errorf("Abs = %d, want 750", got.Amount)
	}
	if a.Cmp(b) != 1 || b.Cmp(a) != -1 || a.Cmp(a) != 0 {
		t.Error("Cmp ordering is wrong")
	}
	if got, err := Sum("USD", a, b, b); err != nil || got.Amount != 1500 {
		t.Errorf("Sum = %d, %v, want 1500", got.Amount, err)
	}
}

func TestCheckedArithmetic(t *testing.T) {
	tests := []struct {
		name     string
		a, b     int64
		add, sub int64
		addErr   bool
		subErr   bool
	}{
		{name: "small", a: 1000, b: 250, add: 1250, sub: 750},
		{name: "max plus zero", a: math.MaxInt64, b: 0, add: math.MaxInt64, sub: math.MaxInt64},
		{name: "max plus one", a: math.MaxInt64, b: 1, addErr: true, sub: math.MaxInt64 - 1},
		{name: "min minus one", a: math.MinInt64, b: 1, add: math.MinInt64 + 1, subErr: true},
		{name: "min plus min", a: math.MinInt64, b: math.MinInt64, addErr: true, sub: 0},
		{name: "zero minus min", a: 0, b: math.MinInt64, add: math.MinInt64, subErr: true},
		{name: "minus one minus min", a: -1, b: math.MinInt64, addErr: true, sub: math.MaxInt64},
		{name: "max minus min", a: math.MaxInt64, b: math.MinInt64, add: -1, subErr: true},
		{name: "two halves of max", a: math.MaxInt64 / 2, b: math.MaxInt64/2 + 1, add: math.MaxInt64, sub: -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := New(tt.a, "USD"), New(tt.b, "USD")

			sum, err := a.CheckedAdd(b)
			if tt.addErr {
				if !errors.Is(err, ErrOverflow) {
					t.Errorf("CheckedAdd error = %v, want ErrOverflow", err)
				}
			} else if err != nil || sum.Amount != tt.add {
				t.Errorf("CheckedAdd = %d, %v, want %d", sum.Amount, err, tt.add)
			}

			diff, err := a.CheckedSub(b)
			if tt.subErr {
				if !errors.Is(err, ErrOverflow) {
					t.Errorf("CheckedSub error = %v, want ErrOverflow", err)
				}
			} else if err != nil || diff.Amount != tt.sub {
				t.Errorf("CheckedSub = %d, %v, want %d", diff.Amount, err, tt.sub)
			}
		})
	}
}

func TestSumOverflow(t *testing.T) {
	half := New(math.MaxInt64/2+1, "USD")
	if _, err := Sum("USD", half, half); !errors.Is(err, ErrOverflow) {
		t.Errorf("Sum error = %v, want ErrOverflow", err)
	}
}

func TestAddCurrencyMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on currency mismatch")
		}
	}()
	New(1, "USD").Add(New(1, "EUR"))
}

func TestMultiplyByRatio(t *testing.T) {
	tests := []struct {
		amount int64
		num    int64
		den    int64
		want   int64
	}{
		{10000, 1, 3, 3333},
		{10000, 2, 3, 6667},
		{5, 1, 2, 3},   // 2.5 rounds away from zero
		{-5, 1, 2, -3}, // -2.5 rounds away from zero
		{7, 1, 4, 2},   // 1.75
		{1999, 15, 100, 300},
	}
	for _, tt := range tests {
		got, err := New(tt.amount, "USD").MultiplyByRatio(big.NewRat(tt.num, tt.den))
		if err != nil {
			t.Fatalf("%d * %d/%d failed: %v", tt.amount, tt.num, tt.den, err)
		}
		if got.Amount != tt.want {
			t.Errorf("%d * %d/%d = %d, want %d", tt.amount, tt.num, tt.den, got.Amount, tt.want)
		}
	}

	if _, err := New(math.MaxInt64, "USD").MultiplyByRatio(big.NewRat(3, 2)); !errors.Is(err, ErrOverflow) {
		t.Errorf("MaxInt64 * 3/2 error = %v, want ErrOverflow", err)
	}
}

func TestAllocate(t *testing.T) {
	tests := []struct {
		name    string
		total   int64
		weights []*big.Rat
		want    []int64
	}{
		{
			name:    "100.00 three ways, first index absorbs remainder",
			total:   10000,
			weights: Uniform(3),
			want:    []int64{3334, 3333, 3333},
		},
		{
			name:    "two leftover units go to the two lowest indices",
			total:   200,
			weights: Uniform(3),
			want:    []int64{67, 67, 66},
		},
		{
			name:    "largest remainder wins over index",
			total:   100,
			weights: []*big.Rat{big.NewRat(1, 6), big.NewRat(1, 3), big.NewRat(1, 2)},
			want:    []int64{17, 33, 50},
		},
		{
			name:    "zero weight receives nothing",
			total:   1001,
			weights: []*big.Rat{big.NewRat(1, 1), big.NewRat(0, 1), big.NewRat(1, 1)},
			want:    []int64{501, 0, 500},
		},
		{
			name:    "negative total mirrors positive",
			total:   -10000,
			weights: Uniform(3),
			want:    []int64{-3334, -3333, -3333},
		},
		{
			name:    "max int64 three ways",
			total:   math.MaxInt64,
			weights: Uniform(3),
			want:    []int64{3074457345618258603, 3074457345618258602, 3074457345618258602},
		},
		{
			name:    "min int64 plus one two ways",
			total:   math.MinInt64 + 1,
			weights: Uniform(2),
			want:    []int64{-4611686018427387904, -4611686018427387903},
		},
		{
			name:    "percentages 50/30/20",
			total:   5000,
			weights: []*big.Rat{big.NewRat(50, 1), big.NewRat(30, 1), big.NewRat(20, 1)},
			want:    []int64{2500, 1500, 1000},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts, err := New(tt.total, "USD").Allocate(tt.weights...)
			if err != nil {
				t.Fatalf("Allocate failed: %v", err)
			}
			if len(parts) != len(tt.want) {
				t.Fatalf("got %d parts, want %d", len(parts), len(tt.want))
			}
			for i, p := range parts {
				if p.Amount != tt.want[i] {
					t.Errorf("part %d = %d, want %d", i, p.Amount, tt.want[i])
				}
				if p.Currency != "USD" {
					t.Errorf("part %d currency = %q", i, p.Currency)
				}
			}
		})
	}
}

func TestAllocateInvalidWeights(t *testing.T) {
	m := New(100, "USD")
	if _, err := m.Allocate(); !errors.Is(err, ErrInvalidWeights) {
		t.Errorf("no weights: err = %v", err)
	}
	if _, err := m.Allocate(big.NewRat(0, 1), big.NewRat(0, 1)); !errors.Is(err, ErrInvalidWeights) {
		t.Errorf("zero sum: err = %v", err)
	}
	if _, err := m.Allocate(big.NewRat(-1, 1), big.NewRat(2, 1)); !errors.Is(err, ErrInvalidWeights) || !strings.Contains(err.Error(), "negative") {
		t.Errorf("negative weight: err = %v", err)
	}
	if _, err := m.Allocate(big.NewRat(1, 1), nil); !errors.Is(err, ErrInvalidWeights) || !strings.Contains(err.Error(), "weight 1 is nil") {
		t.Errorf("nil weight: err = %v", err)
	}
	if _, err := New(math.MinInt64, "USD").Allocate(Uniform(2)...); !errors.Is(err, ErrOverflow) {
		t.Errorf("min int64: err = %v, want ErrOverflow", err)
	}
}

// Every allocation sums exactly to the total and stays within one minor unit
// of the exact proportional share.
func TestAllocateProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for iter := 0; iter < 2000; iter++ {
		total := rng.Int63n(10_000_000) - 1_000_000
		n := 1 + rng.Intn(12)
		weights := make([]*big.Rat, n)
		wsum := new(big.Rat)
		for i := range weights {
			weights[i] = big.NewRat(rng.Int63n(10_000), 1+rng.Int63n(100))
			wsum.Add(wsum, weights[i])
		}
		if wsum.Sign() == 0 {
			weights[0] = big.NewRat(1, 1)
			wsum.SetInt64(1)
		}

		parts, err := New(total, "USD").Allocate(weights...)
		if err != nil {
			t.Fatalf("iter %d: Allocate failed: %v", iter, err)
		}

		var got int64
		for i, p := range parts {
			got += p.Amount
			ideal := new(big.Rat).Mul(new(big.Rat).SetInt64(total), weights[i])
			ideal.Quo(ideal, wsum)
			diff := new(big.Rat).Sub(new(big.Rat).SetInt64(p.Amount), ideal)
			if diff.Abs(diff).Cmp(big.NewRat(1, 1)) >= 0 {
				t.Fatalf("iter %d: part %d = %d is a full unit away from %s", iter, i, p.Amount, ideal.FloatString(4))
			}
		}
		if got != total {
			t.Fatalf("iter %d: parts sum to %d, want %d", iter, got, total)
		}
	}
}
