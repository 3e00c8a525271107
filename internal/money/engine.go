// Package money provides the decimal arithmetic substrate for all monetary
// computation.
//
// Currency values arrive from storage and imports in several shapes: plain
// numbers, strings with comma decimal separators, or the document-database
// export format that wraps a decimal string in an object. The Engine
// normalizes every supported shape into a shopspring decimal so that running
// sums over thousands of movements never accumulate binary floating-point
// error. Normalization is total: malformed input degrades to zero with a
// warning instead of failing an aggregation.
package money

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
)

// WireDecimalField is the key under which document-database exports carry a
// high-precision decimal string (e.g. {"$numberDecimal": "12.34"}).
const WireDecimalField = "$numberDecimal"

// DefaultDivisionPrecision is the number of fractional digits kept by Div.
const DefaultDivisionPrecision = 20

// Engine performs decimal-safe arithmetic at a fixed division precision with
// half-up rounding. The zero value is not usable; create one with NewEngine.
type Engine struct {
	divisionPrecision int32
}

// NewEngine returns an Engine with the given division precision. Values below
// DefaultDivisionPrecision are raised to it so intermediate results never lose
// more precision than the financial reports tolerate.
func NewEngine(divisionPrecision int) *Engine {
	if divisionPrecision < DefaultDivisionPrecision {
		divisionPrecision = DefaultDivisionPrecision
	}
	return &Engine{divisionPrecision: int32(divisionPrecision)}
}

// Normalize converts any supported source form to a decimal. It never returns
// an error: nil, empty and unparseable inputs all normalize to zero, with a
// warning logged for the unparseable ones so bad records remain visible.
func (e *Engine) Normalize(v any) decimal.Decimal {
	switch x := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return x
	case *decimal.Decimal:
		if x == nil {
			return decimal.Zero
		}
		return *x
	case float64:
		return decimal.NewFromFloat(x)
	case float32:
		return decimal.NewFromFloat32(x)
	case int:
		return decimal.NewFromInt(int64(x))
	case int64:
		return decimal.NewFromInt(x)
	case uint:
		return decimal.NewFromUint64(uint64(x))
	case uint64:
		return decimal.NewFromUint64(x)
	case json.Number:
		return e.parseString(string(x))
	case string:
		return e.parseString(x)
	case map[string]any:
		if raw, ok := x[WireDecimalField]; ok {
			return e.Normalize(raw)
		}
		return e.warnZero(v)
	case map[string]string:
		if raw, ok := x[WireDecimalField]; ok {
			return e.parseString(raw)
		}
		return e.warnZero(v)
	case fmt.Stringer:
		return e.parseString(x.String())
	default:
		return e.warnZero(v)
	}
}

// parseString normalizes locale quirks before parsing: surrounding and
// embedded spaces act as thousand separators, a comma as the decimal point.
func (e *Engine) parseString(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		slog.Warn("Unparseable decimal input, using zero", "value", s)
		return decimal.Zero
	}
	return d
}

func (e *Engine) warnZero(v any) decimal.Decimal {
	slog.Warn("Unsupported decimal source form, using zero", "type", fmt.Sprintf("%T", v))
	return decimal.Zero
}

// Add returns a + b after normalizing both operands.
func (e *Engine) Add(a, b any) decimal.Decimal {
	return e.Normalize(a).Add(e.Normalize(b))
}

// Sub returns a - b after normalizing both operands.
func (e *Engine) Sub(a, b any) decimal.Decimal {
	return e.Normalize(a).Sub(e.Normalize(b))
}

// Mul returns a * b after normalizing both operands.
func (e *Engine) Mul(a, b any) decimal.Decimal {
	return e.Normalize(a).Mul(e.Normalize(b))
}

// Div returns a / b at the configured precision with half-up rounding.
// Division by a normalized zero returns zero: reporting contexts prefer a
// degraded zero over a crashed aggregation.
func (e *Engine) Div(a, b any) decimal.Decimal {
	divisor := e.Normalize(b)
	if divisor.IsZero() {
		return decimal.Zero
	}
	return e.Normalize(a).DivRound(divisor, e.divisionPrecision)
}

// Compare returns -1, 0 or 1 ordering a against b.
func (e *Engine) Compare(a, b any) int {
	return e.Normalize(a).Cmp(e.Normalize(b))
}

// IsZero reports whether v normalizes to zero.
func (e *Engine) IsZero(v any) bool {
	return e.Normalize(v).IsZero()
}

// GtZero reports whether v normalizes to a strictly positive value.
func (e *Engine) GtZero(v any) bool {
	return e.Normalize(v).IsPositive()
}

// ToNumber converts v to a float64 for presentation-only consumers such as
// chart payloads. The conversion is lossy; never feed the result back into
// further arithmetic.
func (e *Engine) ToNumber(v any) float64 {
	f, _ := e.Normalize(v).Float64()
	return f
}

// ToFixed formats v with the given number of fractional digits, rounding
// half-up to match financial display convention.
func (e *Engine) ToFixed(v any, places int) string {
	return e.Normalize(v).StringFixed(int32(places))
}
