package mathexpr

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// RoundHalfEven rounds ties to the even neighbour.
	RoundHalfEven Rounding = iota
	// RoundHalfUp rounds ties away from zero.
	RoundHalfUp
)

// Rounding is the rounding mode used when formatting results.
type Rounding int

func (r Rounding) String() string {
	switch r {
	case RoundHalfEven:
		return "half_even"
	case RoundHalfUp:
		return "half_up"
	default:
		return fmt.Sprintf("Rounding(%d)", int(r))
	}
}

// ParseRounding converts the String form of a rounding mode back.
func ParseRounding(s string) (Rounding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "half_even", "even", "bank":
		return RoundHalfEven, nil
	case "half_up", "up":
		return RoundHalfUp, nil
	default:
		return 0, fmt.Errorf("unknown rounding mode %q", s)
	}
}

func (r Rounding) round(v decimal.Decimal, places int32) decimal.Decimal {
	if r == RoundHalfUp {
		return v.Round(places)
	}
	return v.RoundBank(places)
}

// Format renders v in at most maxLength characters.
//
// The integer part, sign included, must fit as is. The remaining room after the decimal
// point decides how many fractional digits are kept; the rest is rounded away using mode.
// Trailing zeros are never printed.
func Format(v decimal.Decimal, maxLength int, mode Rounding) (string, error) {
	if maxLength < 1 {
		return "", errorf(KindResultTooLarge, -1, "no room for a result (max length %d)", maxLength)
	}
	text := v.String()
	intLen := len(text)
	if dot := strings.IndexByte(text, '.'); dot >= 0 {
		intLen = dot
	}
	if intLen > maxLength {
		return "", errorf(KindResultTooLarge, -1, "%d integer digits do not fit in %d", intLen, maxLength)
	}

	places := maxLength - intLen - 1
	if places < 0 {
		places = 0
	}
	if exp := int(v.Exponent()); exp >= 0 || places >= -exp {
		// Already short enough, rounding would only pad zeros.
		return text, nil
	}
	out := mode.round(v, int32(places)).String()
	if len(out) > maxLength {
		// Rounding carried into a new integer digit.
		return "", errorf(KindResultTooLarge, -1, "%s does not fit in %d", out, maxLength)
	}
	return out, nil
}
