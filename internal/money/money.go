package money

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Amount is a fixed-point SAR value stored in halalas (1 SAR = 100 halalas).
// All currency arithmetic in the app is integer arithmetic on this type;
// float64 never touches money.
type Amount int64

var ErrMalformed = errors.New("malformed amount")

// Parse converts a decimal string like "12.50" or "7" into halalas.
// At most two fractional digits are accepted.
func Parse(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrMalformed
	}

	neg := false
	if s[0] == '-' {
		neg = true
		s = s[1:]
	}

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 2 {
		return 0, ErrMalformed
	}
	for len(frac) < 2 {
		frac += "0"
	}

	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, ErrMalformed
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, ErrMalformed
	}

	v := w*100 + f
	if neg {
		v = -v
	}
	return Amount(v), nil
}

// String renders the amount as a plain decimal, e.g. 1250 -> "12.50".
func (a Amount) String() string {
	v := int64(a)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// Percent returns p percent of the amount, rounded half up to the halala.
func (a Amount) Percent(p int64) Amount {
	v := int64(a)*p + 50
	return Amount(v / 100)
}

// VATPortion extracts the VAT share from a VAT-inclusive total at the
// given rate (e.g. 15 for the Saudi standard rate), rounded half up.
func (a Amount) VATPortion(rate int64) Amount {
	v := int64(a)*rate*2 + (100 + rate)
	return Amount(v / (2 * (100 + rate)))
}

// Mul returns the amount multiplied by a quantity.
func (a Amount) Mul(qty int64) Amount {
	return Amount(int64(a) * qty)
}
