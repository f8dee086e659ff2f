// Package units parses composite unit-expression strings such as
// "kg per s^2" or "people" into a quantity.Units exponent map.
package units

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sysdyn/sysdyn/sim/quantity"
)

// InvalidUnitTokenError reports a token that is not a valid unit identifier
// or integer literal.
type InvalidUnitTokenError struct {
	Token string
}

func (e *InvalidUnitTokenError) Error() string {
	return fmt.Sprintf("invalid unit token %q", e.Token)
}

// InvalidUnitExponentError reports a malformed "^N" exponent suffix.
type InvalidUnitExponentError struct {
	Token string
}

func (e *InvalidUnitExponentError) Error() string {
	return fmt.Sprintf("invalid unit exponent in %q", e.Token)
}

// Parse parses a unit expression string into a normalised Units map.
//
// Grammar:
//
//	unit_expr := term (("per"|"/") term)*
//	term      := factor (("*"|"·"|" ") factor)*
//	factor    := IDENT ("^" INT)? | INTEGER
//
// An empty (or whitespace-only) string yields an empty map. Integer
// literals appearing as a factor are treated as a unitless constant
// multiplier and contribute no exponent. Every "per"/"/" boundary flips
// the sign applied to all exponents that follow it.
func Parse(expr string) (quantity.Units, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return quantity.Units{}, nil
	}

	result := quantity.Units{}
	sign := 1.0
	for _, rawTok := range tokenize(expr) {
		if strings.EqualFold(rawTok, "per") || rawTok == "/" {
			sign = -sign
			continue
		}
		symbol, exp, err := parseFactor(rawTok)
		if err != nil {
			return nil, err
		}
		if symbol == "" {
			continue // bare integer multiplier, no unit contribution
		}
		result[symbol] += sign * exp
	}
	return pruneZero(result), nil
}

// tokenize splits expr on whitespace, "*", "·", and "/", treating "/" as
// its own token (a division boundary) distinct from the multiplicative
// separators which are simply discarded between factors.
func tokenize(expr string) []string {
	replaced := strings.NewReplacer("*", " ", "·", " ", "/", " / ").Replace(expr)
	return strings.Fields(replaced)
}

func parseFactor(tok string) (symbol string, exp float64, err error) {
	if tok == "" {
		return "", 0, nil
	}
	exp = 1
	name := tok
	if idx := strings.IndexByte(tok, '^'); idx >= 0 {
		name = tok[:idx]
		expStr := tok[idx+1:]
		n, perr := strconv.Atoi(expStr)
		if perr != nil {
			return "", 0, &InvalidUnitExponentError{Token: tok}
		}
		exp = float64(n)
	}
	if name == "" {
		return "", 0, InvalidUnitToken(tok)
	}
	if isInteger(name) {
		return "", 0, nil
	}
	if !isIdent(name) {
		return "", 0, &InvalidUnitTokenError{Token: tok}
	}
	return name, exp, nil
}

// InvalidUnitToken constructs the structured token error.
func InvalidUnitToken(tok string) *InvalidUnitTokenError {
	return &InvalidUnitTokenError{Token: tok}
}

func isInteger(s string) bool {
	if s == "" {
		return false
	}
	start := 0
	if s[0] == '-' || s[0] == '+' {
		start = 1
	}
	if start == len(s) {
		return false
	}
	for i := start; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') {
			continue
		}
		if i > 0 && r >= '0' && r <= '9' {
			continue
		}
		return false
	}
	return true
}

func pruneZero(u quantity.Units) quantity.Units {
	out := make(quantity.Units, len(u))
	for k, v := range u {
		if v != 0 {
			out[k] = v
		}
	}
	return out
}
