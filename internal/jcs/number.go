package jcs

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// FormatNumber renders f the way ECMAScript Number::toString does, which is
// what RFC 8785 mandates for numbers.
//
// strconv's shortest formatting yields the digit string s and exponent n of
// ECMA-262 §6.1.6.1.20 (the fewest digits that round-trip, closest to f on
// ties). The remaining work is choosing between integral, fixed and
// exponential layouts:
//
//	k <= n <= 21   digits followed by n-k zeros
//	0 < n <= 21    digits with a decimal point after n of them
//	-6 < n <= 0    "0." then -n zeros then digits
//	otherwise      d[.ddd]e±(n-1)
func FormatNumber(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", encodingErrorf("non-finite number %v", f)
	}
	if f == 0 {
		return "0", nil // covers -0
	}

	var sb strings.Builder
	if f < 0 {
		sb.WriteByte('-')
		f = -f
	}

	// 'e' with precision -1 gives "d.ddde±XX" with the shortest digits.
	sci := strconv.FormatFloat(f, 'e', -1, 64)
	mant, expPart, _ := strings.Cut(sci, "e")
	digits := strings.Replace(mant, ".", "", 1)
	exp, err := strconv.Atoi(expPart)
	if err != nil {
		return "", encodingErrorf("formatting %v: %v", f, err)
	}
	k := len(digits)
	n := exp + 1

	switch {
	case k <= n && n <= 21:
		sb.WriteString(digits)
		sb.WriteString(strings.Repeat("0", n-k))
	case 0 < n && n <= 21:
		sb.WriteString(digits[:n])
		sb.WriteByte('.')
		sb.WriteString(digits[n:])
	case -6 < n && n <= 0:
		sb.WriteString("0.")
		sb.WriteString(strings.Repeat("0", -n))
		sb.WriteString(digits)
	default:
		sb.WriteByte(digits[0])
		if k > 1 {
			sb.WriteByte('.')
			sb.WriteString(digits[1:])
		}
		sb.WriteByte('e')
		e := n - 1
		if e >= 0 {
			sb.WriteByte('+')
		} else {
			sb.WriteByte('-')
			e = -e
		}
		sb.WriteString(strconv.Itoa(e))
	}
	return sb.String(), nil
}

// numberFromLiteral parses a JSON number literal as a double. Literals past
// the double range become ±Inf so the caller can report them at encode time
// instead of silently clamping.
func numberFromLiteral(lit string) (Number, error) {
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return Number(f), nil
		}
		return 0, encodingErrorf("invalid number literal %q", lit)
	}
	return Number(f), nil
}
