package orders

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/fitstack/fitstack-orders/internal/domain"
)

// priceDigits extracts the first numeric run from a display price once
// thousands separators are stripped.
var priceDigits = regexp.MustCompile(`[0-9]+(?:\.[0-9]+)?`)

// parsePrice turns a catalog display price ("13,000", "Rs. 4500", "99.99")
// into a numeric amount. Returns ErrInvalidPrice when no positive amount can
// be extracted.
func parsePrice(display string) (float64, error) {
	cleaned := strings.ReplaceAll(display, ",", "")
	match := priceDigits.FindString(cleaned)
	if match == "" {
		return 0, domain.ErrInvalidPrice
	}

	amount, err := strconv.ParseFloat(match, 64)
	if err != nil || amount <= 0 {
		return 0, domain.ErrInvalidPrice
	}
	return amount, nil
}

// normalizeCurrency maps currency symbols and codes to a canonical 3-letter
// code. The recognized set is USD, EUR, GBP and PKR; anything else defaults
// to USD.
func normalizeCurrency(raw string) string {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "USD", "$", "US$":
		return "USD"
	case "EUR", "€":
		return "EUR"
	case "GBP", "£":
		return "GBP"
	case "PKR", "₨", "RS", "RS.":
		return "PKR"
	default:
		return "USD"
	}
}
