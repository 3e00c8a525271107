package money

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

type stringerAmount string

func (s stringerAmount) String() string { return string(s) }

func TestNormalizeSourceForms(t *testing.T) {
	e := NewEngine(DefaultDivisionPrecision)
	want := decimal.RequireFromString("123.45")

	cases := []struct {
		name string
		in   any
	}{
		{"float", 123.45},
		{"string", "123.45"},
		{"comma string", "123,45"},
		{"padded string", " 123.45 "},
		{"json number", json.Number("123.45")},
		{"wire object", map[string]any{WireDecimalField: "123.45"}},
		{"wire string map", map[string]string{WireDecimalField: "123.45"}},
		{"stringer", stringerAmount("123.45")},
		{"decimal", decimal.RequireFromString("123.45")},
	}
	for _, tc := range cases {
		if got := e.Normalize(tc.in); !got.Equal(want) {
			t.Errorf("%s: Normalize(%v) = %s, want %s", tc.name, tc.in, got, want)
		}
	}
}

func TestNormalizeThousandSeparators(t *testing.T) {
	e := NewEngine(DefaultDivisionPrecision)
	if got := e.Normalize("1 234 567,89"); !got.Equal(decimal.RequireFromString("1234567.89")) {
		t.Fatalf("Normalize with thousand separators = %s", got)
	}
}

func TestNormalizeEmptyAndMalformed(t *testing.T) {
	e := NewEngine(DefaultDivisionPrecision)
	cases := []struct {
		name string
		in   any
	}{
		{"nil", nil},
		{"empty string", ""},
		{"whitespace", "   "},
		{"garbage", "not-a-number"},
		{"wire object without field", map[string]any{"other": "1"}},
		{"unsupported type", struct{ X int }{1}},
		{"nil decimal pointer", (*decimal.Decimal)(nil)},
	}
	for _, tc := range cases {
		if got := e.Normalize(tc.in); !got.IsZero() {
			t.Errorf("%s: Normalize(%v) = %s, want 0", tc.name, tc.in, got)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	e := NewEngine(DefaultDivisionPrecision)
	once := e.Normalize("42,5")
	twice := e.Normalize(once)
	if !once.Equal(twice) {
		t.Fatalf("normalize not idempotent: %s vs %s", once, twice)
	}
}

func TestArithmetic(t *testing.T) {
	e := NewEngine(DefaultDivisionPrecision)

	if got := e.Add("0.1", "0.2"); !got.Equal(decimal.RequireFromString("0.3")) {
		t.Errorf("Add(0.1, 0.2) = %s, want exactly 0.3", got)
	}
	if got := e.Sub("1", "0.42"); !got.Equal(decimal.RequireFromString("0.58")) {
		t.Errorf("Sub(1, 0.42) = %s", got)
	}
	if got := e.Mul("12.5", 4); !got.Equal(decimal.RequireFromString("50")) {
		t.Errorf("Mul(12.5, 4) = %s", got)
	}
	if got := e.Div("1", "3"); got.StringFixed(6) != "0.333333" {
		t.Errorf("Div(1, 3) = %s", got)
	}
}

func TestAddCommutativeAssociative(t *testing.T) {
	e := NewEngine(DefaultDivisionPrecision)
	a, b, c := "10.01", "20.02", "0.97"

	if !e.Add(a, b).Equal(e.Add(b, a)) {
		t.Error("Add is not commutative")
	}
	left := e.Add(e.Add(a, b), c)
	right := e.Add(a, e.Add(b, c))
	if !left.Equal(right) {
		t.Errorf("Add is not associative: %s vs %s", left, right)
	}
}

func TestDivideByZeroPolicy(t *testing.T) {
	e := NewEngine(DefaultDivisionPrecision)
	cases := []struct {
		name    string
		divisor any
	}{
		{"literal zero", 0},
		{"zero string", "0"},
		{"empty string", ""},
		{"nil", nil},
		{"garbage", "n/a"},
	}
	for _, tc := range cases {
		if got := e.Div("100", tc.divisor); !got.IsZero() {
			t.Errorf("%s: Div(100, %v) = %s, want 0", tc.name, tc.divisor, got)
		}
	}
}

func TestCompare(t *testing.T) {
	e := NewEngine(DefaultDivisionPrecision)
	cases := []struct {
		a, b any
		want int
	}{
		{"1.5", "1.50", 0},
		{"2", "1", 1},
		{"-1", "0", -1},
		{"", "0", 0},
	}
	for _, tc := range cases {
		if got := e.Compare(tc.a, tc.b); got != tc.want {
			t.Errorf("Compare(%v, %v) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestPredicates(t *testing.T) {
	e := NewEngine(DefaultDivisionPrecision)
	if !e.IsZero("") || !e.IsZero("0.00") || e.IsZero("0.01") {
		t.Error("IsZero misbehaves")
	}
	if !e.GtZero("0.01") || e.GtZero("0") || e.GtZero("-5") {
		t.Error("GtZero misbehaves")
	}
}

func TestToNumberRoundTrip(t *testing.T) {
	e := NewEngine(DefaultDivisionPrecision)
	cases := []struct {
		in   any
		want float64
	}{
		{"123.45", 123.45},
		{map[string]any{WireDecimalField: "99.9"}, 99.9},
		{42, 42},
		{nil, 0},
	}
	for _, tc := range cases {
		got := e.ToNumber(tc.in)
		diff := got - tc.want
		if diff < -1e-9 || diff > 1e-9 {
			t.Errorf("ToNumber(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestToFixedHalfUp(t *testing.T) {
	e := NewEngine(DefaultDivisionPrecision)
	cases := []struct {
		in     string
		places int
		want   string
	}{
		{"1.005", 2, "1.01"},
		{"1.004", 2, "1.00"},
		{"2.5", 0, "3"},
		{"10", 2, "10.00"},
	}
	for _, tc := range cases {
		if got := e.ToFixed(tc.in, tc.places); got != tc.want {
			t.Errorf("ToFixed(%s, %d) = %s, want %s", tc.in, tc.places, got, tc.want)
		}
	}
}

func TestMinimumDivisionPrecision(t *testing.T) {
	e := NewEngine(2)
	// Even when constructed with a tiny precision the engine keeps at least
	// the default so intermediate quotients do not truncate.
	got := e.Div("1", "3")
	if got.StringFixed(10) != "0.3333333333" {
		t.Fatalf("Div(1,3) at minimum precision = %s", got)
	}
}
