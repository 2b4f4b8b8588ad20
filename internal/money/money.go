// Package money holds amounts as integer minor units (paise, cents).
package money

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidAmount is returned when an amount string cannot be parsed.
var ErrInvalidAmount = errors.New("money: invalid amount")

// Money is an amount in minor currency units. 20000 is 200.00.
type Money int64

// FromMinor wraps a raw minor-unit value.
func FromMinor(v int64) Money { return Money(v) }

// Minor returns the amount in minor units, the unit payment processors expect.
func (m Money) Minor() int64 { return int64(m) }

// Parse reads a decimal major-unit string such as "200", "200.5" or "200.50".
// More than two fractional digits is an error; amounts are never rounded.
func Parse(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" && !hasFrac {
		return 0, ErrInvalidAmount
	}
	if whole == "" {
		whole = "0"
	}
	if hasFrac && (len(frac) == 0 || len(frac) > 2) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	for len(frac) < 2 {
		frac += "0"
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	v := w*100 + f
	if neg {
		v = -v
	}
	return Money(v), nil
}

// MustParse is Parse for constants and tests.
func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

// String renders the major-unit decimal form, e.g. "200.00".
func (m Money) String() string {
	v := int64(m)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MarshalJSON emits the decimal string form.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts "200.00" or a bare number like 200 or 200.5.
func (m *Money) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*m = 0
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = s
	}
	v, err := Parse(raw)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
