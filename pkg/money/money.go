package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseBudget reads a free-form amount such as "₹1,000" or "$ 2,500.75".
// Every character other than a digit or '.' is dropped first. The longest
// numeric prefix of what remains is used, so "1.2.3" reads as 1.2.
// Input without any digit parses to zero.
func ParseBudget(raw string) decimal.Decimal {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()

	end := 0
	seenDot := false
	seenDigit := false
	for end < len(cleaned) {
		c := cleaned[end]
		if c == '.' {
			if seenDot {
				break
			}
			seenDot = true
		} else {
			seenDigit = true
		}
		end++
	}
	if !seenDigit {
		return decimal.Zero
	}

	num := strings.TrimSuffix(cleaned[:end], ".")
	if strings.HasPrefix(num, ".") {
		num = "0" + num
	}
	d, err := decimal.NewFromString(num)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Storage precision of an amount column: decimal(18,4).
const (
	MaxIntegerDigits = 14
	MaxScale         = 4
)

// Fits reports whether d is stored without overflow or rounding.
func Fits(d decimal.Decimal) bool {
	intPart, frac, _ := strings.Cut(d.Abs().String(), ".")
	if intPart == "0" {
		intPart = ""
	}
	return len(intPart) <= MaxIntegerDigits && len(frac) <= MaxScale
}

// Sum adds amounts.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
