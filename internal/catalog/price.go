package catalog

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var ErrInvalidPrice = errors.New("catalog: invalid price")

// ParsePrice strips one leading currency symbol and any thousands
// separators and parses the rest as a decimal. Empty, malformed and
// non-finite values fail with ErrInvalidPrice.
func ParsePrice(price string) (float64, error) {
	s := strings.TrimSpace(price)
	if r, size := utf8.DecodeRuneInString(s); size > 0 && unicode.Is(unicode.Sc, r) {
		s = strings.TrimSpace(s[size:])
	}
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, price)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, price)
	}
	return f, nil
}

// PriceOrZero is ParsePrice with invalid prices mapped to 0.
func PriceOrZero(price string) float64 {
	f, err := ParsePrice(price)
	if err != nil {
		return 0
	}
	return f
}

// Cents converts a parsed price to integer cents, rounding half away from zero.
func Cents(price float64) int64 {
	return int64(math.Round(price * 100))
}

// FormatPrice renders n with two decimals and a leading dollar sign.
func FormatPrice(n float64) string {
	if n < 0 {
		return fmt.Sprintf("-$%.2f", -n)
	}
	return fmt.Sprintf("$%.2f", n)
}
