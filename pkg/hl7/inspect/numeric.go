package inspect

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/savegress/hl7kit/pkg/hl7/parser"
)

// ErrInvalidNumeric is returned for values that are not HL7 NM numbers.
var ErrInvalidNumeric = errors.New("invalid HL7 numeric value")

// ParseNumeric parses an NM value: an optional sign, digits and at most one
// decimal point. Exponents are not part of the type and are rejected.
func ParseNumeric(value string) (decimal.Decimal, error) {
	v := strings.TrimSpace(value)
	if !isNumeric(v) {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidNumeric, value)
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q: %v", ErrInvalidNumeric, value, err)
	}
	return d, nil
}

// Numeric parses the unescaped value of e as NM.
func Numeric(e *parser.Element) (decimal.Decimal, error) {
	return ParseNumeric(FormattedValue(e))
}

// FormatNumeric renders d without exponent or trailing zeros.
func FormatNumeric(d decimal.Decimal) string {
	return d.String()
}

func isNumeric(v string) bool {
	if v != "" && (v[0] == '+' || v[0] == '-') {
		v = v[1:]
	}
	digits, dots := 0, 0
	for i := 0; i < len(v); i++ {
		switch c := v[i]; {
		case c >= '0' && c <= '9':
			digits++
		case c == '.':
			dots++
		default:
			return false
		}
	}
	return digits > 0 && dots <= 1
}
