package utils

import "fmt"

// FormatCents renders minor units as dollars, e.g. 56000 -> "$560.00".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}

// CentsString renders minor units without a currency symbol, e.g. "560.00".
func CentsString(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
