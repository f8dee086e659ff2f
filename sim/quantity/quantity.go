// Package quantity implements dimensioned floating-point arithmetic: a
// value paired with a unit-exponent map, with add/sub/mul/div/pow
// operators that enforce dimensional homogeneity.
package quantity

import (
	"fmt"
	"math"
	"sort"
)

// epsilon is the tolerance used when comparing unit exponents and when
// deciding whether a pow() exponent is "close enough" to an integer.
const epsilon = 1e-12

// Units maps a unit symbol (e.g. "kg", "s", "people") to its exponent.
// A normalised Units map never stores a zero exponent.
type Units map[string]float64

// Quantity is a value with an associated set of unit exponents.
type Quantity struct {
	Value float64
	Units Units
}

// Unitless constructs a dimensionless Quantity.
func Unitless(v float64) Quantity {
	return Quantity{Value: v, Units: Units{}}
}

// New constructs a Quantity from a value and a (possibly un-normalised) unit map.
func New(v float64, u Units) Quantity {
	return Quantity{Value: v, Units: normalize(u)}
}

// IsUnitless reports whether q carries no unit exponents.
func (q Quantity) IsUnitless() bool {
	return len(q.Units) == 0
}

// normalize returns a copy of u with near-zero exponents pruned.
func normalize(u Units) Units {
	out := make(Units, len(u))
	for k, v := range u {
		if math.Abs(v) > epsilon {
			out[k] = v
		}
	}
	return out
}

// UnitsEqual reports whether a and b have the same keys with pairwise
// exponent difference within epsilon.
func UnitsEqual(a, b Units) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || math.Abs(av-bv) > epsilon {
			return false
		}
	}
	return true
}

// String renders units in a deterministic, human-readable composite form,
// e.g. "kg / s^2".
func (u Units) String() string {
	if len(u) == 0 {
		return ""
	}
	keys := make([]string, 0, len(u))
	for k := range u {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var num, den []string
	for _, k := range keys {
		exp := u[k]
		switch {
		case exp == 1:
			num = append(num, k)
		case exp == -1:
			den = append(den, k)
		case exp > 0:
			num = append(num, fmt.Sprintf("%s^%g", k, exp))
		default:
			den = append(den, fmt.Sprintf("%s^%g", k, -exp))
		}
	}
	out := ""
	if len(num) == 0 {
		out = "1"
	} else {
		for i, n := range num {
			if i > 0 {
				out += "*"
			}
			out += n
		}
	}
	if len(den) > 0 {
		out += " / "
		for i, d := range den {
			if i > 0 {
				out += "*"
			}
			out += d
		}
	}
	return out
}

// UnitMismatchError reports a binary operation between dimensionally
// incompatible operands.
type UnitMismatchError struct {
	Op       string
	Left     Units
	Right    Units
}

func (e *UnitMismatchError) Error() string {
	return fmt.Sprintf("unit mismatch in %s: %s vs %s", e.Op, e.Left, e.Right)
}

// NonIntegerExponentError reports pow() applied to a dimensioned base with
// a non-integer exponent.
type NonIntegerExponentError struct {
	Base     Units
	Exponent float64
}

func (e *NonIntegerExponentError) Error() string {
	return fmt.Sprintf("pow: exponent %g is not an integer and base %s is dimensioned", e.Exponent, e.Base)
}

// Add requires a and b to share units; result carries a's units.
func Add(a, b Quantity) (Quantity, error) {
	if !UnitsEqual(a.Units, b.Units) {
		return Quantity{}, &UnitMismatchError{Op: "add", Left: a.Units, Right: b.Units}
	}
	return Quantity{Value: a.Value + b.Value, Units: a.Units}, nil
}

// Sub requires a and b to share units; result carries a's units.
func Sub(a, b Quantity) (Quantity, error) {
	if !UnitsEqual(a.Units, b.Units) {
		return Quantity{}, &UnitMismatchError{Op: "subtract", Left: a.Units, Right: b.Units}
	}
	return Quantity{Value: a.Value - b.Value, Units: a.Units}, nil
}

// Neg negates the value, preserving units.
func Neg(a Quantity) Quantity {
	return Quantity{Value: -a.Value, Units: a.Units}
}

// Mul combines unit-exponent maps additively.
func Mul(a, b Quantity) Quantity {
	u := make(Units, len(a.Units)+len(b.Units))
	for k, v := range a.Units {
		u[k] += v
	}
	for k, v := range b.Units {
		u[k] += v
	}
	return Quantity{Value: a.Value * b.Value, Units: normalize(u)}
}

// Div combines unit-exponent maps by subtraction.
func Div(a, b Quantity) Quantity {
	u := make(Units, len(a.Units)+len(b.Units))
	for k, v := range a.Units {
		u[k] += v
	}
	for k, v := range b.Units {
		u[k] -= v
	}
	return Quantity{Value: a.Value / b.Value, Units: normalize(u)}
}

// Pow raises a to the exponent n. If a carries units, n must be within
// epsilon of an integer, else NonIntegerExponentError is returned.
func Pow(a Quantity, n float64) (Quantity, error) {
	if !math.IsInf(n, 0) && math.IsNaN(n) {
		return Quantity{}, fmt.Errorf("pow: exponent is NaN")
	}
	if !a.IsUnitless() {
		rounded := math.Round(n)
		if math.Abs(n-rounded) > epsilon {
			return Quantity{}, &NonIntegerExponentError{Base: a.Units, Exponent: n}
		}
		n = rounded
	}
	u := make(Units, len(a.Units))
	for k, v := range a.Units {
		u[k] = v * n
	}
	return Quantity{Value: math.Pow(a.Value, n), Units: normalize(u)}, nil
}
