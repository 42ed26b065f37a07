package ledger

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseAmount converts a human-entered decimal amount (e.g. "12.34",
// "1,250.00") to integer cents, rounding to the nearest cent. This is
// the single boundary between decimal input and the integer-cents
// representation; everything past it is exact arithmetic.
func ParseAmount(s string) (int64, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ',', '_', ' ':
			return -1
		}
		return r
	}, strings.TrimSpace(s))

	if cleaned == "" || strings.HasPrefix(cleaned, "-") || strings.HasPrefix(cleaned, "+") {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	whole, frac, _ := strings.Cut(cleaned, ".")
	if whole == "" {
		whole = "0"
	}
	// 15 integer digits keeps us far from int64 overflow after the *100.
	if len(whole) > 15 || !isDigits(whole) || !isDigits(frac) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	cents := units * 100
	if len(frac) > 0 {
		padded := frac + "00"
		hundredths, _ := strconv.ParseInt(padded[:2], 10, 64)
		cents += hundredths
		// Round half up on the third fractional digit.
		if len(frac) > 2 && padded[2] >= '5' {
			cents++
		}
	}

	if cents <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return cents, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// FormatCents renders integer cents as a dollar string, e.g. 1234 ->
// "$12.34" and -7 -> "-$0.07".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
