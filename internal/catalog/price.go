package catalog

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var pricePrinter = message.NewPrinter(language.English)

// FormatNaira renders a kobo amount as whole naira with thousand separators,
// e.g. 80000000 -> "₦800,000". Fractions of a naira are shown with two digits.
func FormatNaira(priceMinor int64) string {
	if priceMinor%100 == 0 {
		return pricePrinter.Sprintf("₦%d", priceMinor/100)
	}
	return pricePrinter.Sprintf("₦%.2f", float64(priceMinor)/100)
}
