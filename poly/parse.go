package poly

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ppopth/lfsr-analysis/field"
)

// Parse reads a polynomial written as a sum of terms such as
// "t^4 + t + 1", "x^3 - 2x + 1" or "3*t^2 + 0x1f". The variable is t or x;
// coefficients are canonical field indices in decimal or 0x-prefixed hex.
// Repeated powers are added together.
func Parse(f field.Field, s string) (*Poly, error) {
	src := strings.ReplaceAll(s, " ", "")
	if src == "" {
		return nil, parseError(s, "empty expression")
	}

	var coeffs []field.Element
	add := func(deg int, c field.Element) {
		for len(coeffs) <= deg {
			coeffs = append(coeffs, f.Zero())
		}
		coeffs[deg] = coeffs[deg].Add(c)
	}

	for len(src) > 0 {
		negative := false
		switch src[0] {
		case '+':
			src = src[1:]
		case '-':
			negative = true
			src = src[1:]
		}
		end := strings.IndexAny(src, "+-")
		if end < 0 {
			end = len(src)
		}
		term := src[:end]
		src = src[end:]

		deg, c, err := parseTerm(f, term)
		if err != nil {
			return nil, parseError(s, err.Error())
		}
		if negative {
			c = c.Neg()
		}
		add(deg, c)
	}
	return New(f, coeffs), nil
}

// parseTerm parses "c", "ct", "c*t^k", "t^k" and friends.
func parseTerm(f field.Field, term string) (int, field.Element, error) {
	if term == "" {
		return 0, nil, fmt.Errorf("empty term")
	}
	varPos := strings.IndexAny(term, "tx")
	if strings.HasPrefix(term, "0x") {
		// the x of a hex prefix is not the variable
		varPos = strings.IndexAny(term[2:], "tx")
		if varPos >= 0 {
			varPos += 2
		}
	}

	coeffText, powerText := term, ""
	hasVar := varPos >= 0
	if hasVar {
		coeffText = strings.TrimSuffix(term[:varPos], "*")
		powerText = term[varPos+1:]
	}

	c := f.One()
	if coeffText != "" {
		v, err := strconv.ParseUint(coeffText, 0, 64)
		if err != nil {
			return 0, nil, fmt.Errorf("invalid coefficient %q", coeffText)
		}
		if v >= f.Size() {
			return 0, nil, fmt.Errorf("coefficient %d is not an element of %s", v, f)
		}
		c = f.FromUint64(v)
	}

	if !hasVar {
		return 0, c, nil
	}
	if powerText == "" {
		return 1, c, nil
	}
	if !strings.HasPrefix(powerText, "^") {
		return 0, nil, fmt.Errorf("invalid power %q", powerText)
	}
	deg, err := strconv.Atoi(powerText[1:])
	if err != nil || deg < 0 {
		return 0, nil, fmt.Errorf("invalid exponent %q", powerText[1:])
	}
	return deg, c, nil
}

func parseError(s, msg string) error {
	return &AlgebraError{Op: "parse", Err: fmt.Errorf("%q: %s", s, msg)}
}
