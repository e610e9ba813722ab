// internal/common/money/money.go
package money

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var currencyCodeRe = regexp.MustCompile(`^[A-Z]{3}$`)

// ValidCurrency reports whether code is exactly 3 uppercase letters.
func ValidCurrency(code string) bool {
	return currencyCodeRe.MatchString(code)
}

// Amount is a decimal money amount. It marshals as a bare JSON number and
// unmarshals from either a number or a numeric string, since the backend is
// not consistent about which it sends.
type Amount struct {
	d decimal.Decimal
}

// Zero is the zero amount.
var Zero = Amount{d: decimal.Zero}

// New wraps a decimal value.
func New(d decimal.Decimal) Amount {
	return Amount{d: d}
}

// NewFromInt creates an Amount from whole units.
func NewFromInt(v int64) Amount {
	return Amount{d: decimal.NewFromInt(v)}
}

// Parse reads a locale-invariant decimal string ("5000", "5000.50").
// Thousands separators and surrounding whitespace are not accepted.
func Parse(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return Amount{d: d}, nil
}

// MustParse parses s and panics on error. Intended for tests and constants.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Decimal returns the underlying decimal.
func (a Amount) Decimal() decimal.Decimal {
	return a.d
}

func (a Amount) IsZero() bool     { return a.d.IsZero() }
func (a Amount) IsPositive() bool { return a.d.IsPositive() }
func (a Amount) IsNegative() bool { return a.d.IsNegative() }

// Equal compares by value, so 5000 equals 5000.00.
func (a Amount) Equal(b Amount) bool {
	return a.d.Equal(b.d)
}

func (a Amount) Cmp(b Amount) int {
	return a.d.Cmp(b.d)
}

func (a Amount) Add(b Amount) Amount {
	return Amount{d: a.d.Add(b.d)}
}

// String renders the amount without trailing zeros.
func (a Amount) String() string {
	return a.d.String()
}

// StringFixed renders the amount with exactly two decimal places.
func (a Amount) StringFixed() string {
	return a.d.StringFixed(2)
}

// Format renders the amount prefixed by its currency, e.g. "NGN 5,000.00".
func (a Amount) Format(currency string) string {
	fixed := a.d.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	sign := ""
	if a.d.IsNegative() {
		sign = "-"
	}
	if currency == "" {
		return fmt.Sprintf("%s%s.%s", sign, b.String(), frac)
	}
	return fmt.Sprintf("%s %s%s.%s", currency, sign, b.String(), frac)
}

// MarshalJSON emits a bare number.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.d.String()), nil
}

// UnmarshalJSON accepts 5000, 5000.5, "5000" and "5000.50". null leaves zero.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		a.d = decimal.Zero
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := Parse(s)
		if err != nil {
			return err
		}
		*a = parsed
		return nil
	}

	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return fmt.Errorf("invalid amount %s: %w", data, err)
	}
	a.d = d
	return nil
}
