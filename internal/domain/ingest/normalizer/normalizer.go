// Package normalizer converts raw spreadsheet cell values into canonical
// amounts, calendar dates, and currency codes. Upload sources are uncurated,
// so parsing is maximally tolerant of format drift while never guessing
// silently wrong.
package normalizer

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount format")

// Currency symbols stripped from amount cells. A fixed allow-list, not
// locale-aware parsing.
var currencySymbols = []string{"$", "₹", "€", "£"}

// Amount parses a raw amount cell into a decimal value. Currency symbols,
// thousands-separator commas, and whitespace are stripped before parsing;
// anything left that is not a valid decimal number is an error, which the
// record builder treats as "drop this row".
func Amount(raw string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return decimal.Zero, ErrInvalidAmount
	}

	for _, sym := range currencySymbols {
		cleaned = strings.ReplaceAll(cleaned, sym, "")
	}
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.Join(strings.Fields(cleaned), "")

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

var (
	isoPrefixPattern = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})`)
	usSlashPattern   = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	serialPattern    = regexp.MustCompile(`^\d+(\.\d+)?$`)
)

// Fallback layouts for dates that match none of the primary patterns.
// Slash-separated layouts stay month-first: ambiguous dates are treated as
// US-format by convention.
var fallbackLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02",
	"1/2/2006 15:04",
	"1/2/06",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
}

// Date normalizes a raw date cell to an ISO calendar date (YYYY-MM-DD).
// Attempts, in order: ISO prefix (with or without trailing time), US slash
// format M/D/YYYY, spreadsheet serial day count, then generic layout parsing.
// Returns false when every stage fails.
func Date(raw string) (string, bool) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return "", false
	}

	if m := isoPrefixPattern.FindStringSubmatch(cleaned); m != nil {
		iso := m[1] + "-" + m[2] + "-" + m[3]
		if _, err := time.Parse("2006-01-02", iso); err == nil {
			return iso, true
		}
		return "", false
	}

	if m := usSlashPattern.FindStringSubmatch(cleaned); m != nil {
		t, err := time.Parse("1/2/2006", cleaned)
		if err != nil {
			return "", false
		}
		return t.Format("2006-01-02"), true
	}

	if serialPattern.MatchString(cleaned) {
		serial, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return "", false
		}
		return DateFromSerial(serial)
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t.UTC().Format("2006-01-02"), true
		}
	}

	return "", false
}

// serialEpoch is 1899-12-30: the legacy spreadsheet epoch shifted two days to
// absorb the 1900 leap-year bug. Serial 45000 lands in 2023.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// DateFromSerial converts a spreadsheet serial day count to an ISO date.
// Values outside a sane calendar window are rejected rather than mapped to
// nonsense dates.
func DateFromSerial(serial float64) (string, bool) {
	if serial <= 0 {
		return "", false
	}
	t := serialEpoch.Add(time.Duration(serial * 24 * float64(time.Hour)))
	if t.Year() < 1900 || t.Year() > 9999 {
		return "", false
	}
	return t.Format("2006-01-02"), true
}

// Symbol fallbacks for currency cells that carry a sign instead of a code.
var symbolCurrencies = map[string]string{
	"$": money.USD,
	"€": money.EUR,
	"£": money.GBP,
	"₹": money.INR,
}

// CurrencyCode validates a mapped currency cell against ISO-4217, falling
// back to USD. Currency conversion is out of scope; this only keeps the
// stored code well-formed.
func CurrencyCode(raw string) string {
	cleaned := strings.ToUpper(strings.TrimSpace(raw))
	if cleaned == "" {
		return money.USD
	}
	if c := money.GetCurrency(cleaned); c != nil {
		return c.Code
	}
	if code, ok := symbolCurrencies[strings.TrimSpace(raw)]; ok {
		return code
	}
	return money.USD
}
