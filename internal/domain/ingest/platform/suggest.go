package platform

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Keyword hints for files that match no known signature. These only seed the
// mapping form in the UI; the user confirms before anything is imported.
var (
	amountKeywords   = []string{"amount", "pledge", "price", "gross", "total", "revenue", "payout", "net"}
	dateKeywords     = []string{"date", "created", "created at", "time", "timestamp", "paid at"}
	customerKeywords = []string{"customer", "patron", "name", "email", "buyer", "supporter"}
	descKeywords     = []string{"description", "product", "tier", "item", "memo", "note"}
	currencyKeywords = []string{"currency"}
	txnIDKeywords    = []string{"transaction id", "order number", "id", "reference"}
)

// SuggestColumns builds a best-effort mapping for an unrecognized header set.
// Exact keyword containment wins; fuzzy matching catches variants like
// "Pledge Amount ($)". The result may be incomplete and is never applied
// without user confirmation.
func SuggestColumns(headers []string) ColumnMapping {
	var m ColumnMapping
	m.Amount = pickHeader(headers, amountKeywords, nil)
	m.Date = pickHeader(headers, dateKeywords, []string{m.Amount})
	taken := []string{m.Amount, m.Date}
	m.Customer = pickHeader(headers, customerKeywords, taken)
	taken = append(taken, m.Customer)
	m.Description = pickHeader(headers, descKeywords, taken)
	taken = append(taken, m.Description)
	m.Currency = pickHeader(headers, currencyKeywords, taken)
	taken = append(taken, m.Currency)
	m.TransactionID = pickHeader(headers, txnIDKeywords, taken)
	return m
}

// pickHeader finds the first header matching any keyword, preferring exact
// containment over fuzzy rank. Headers already claimed by another field are
// skipped.
func pickHeader(headers []string, keywords []string, taken []string) string {
	isTaken := func(h string) bool {
		for _, t := range taken {
			if t != "" && t == h {
				return true
			}
		}
		return false
	}

	for _, kw := range keywords {
		for _, h := range headers {
			if isTaken(h) {
				continue
			}
			if strings.Contains(strings.ToLower(strings.TrimSpace(h)), kw) {
				return h
			}
		}
	}

	// Fuzzy pass: tolerate spacing/punctuation drift in header names.
	for _, kw := range keywords {
		for _, h := range headers {
			if isTaken(h) {
				continue
			}
			if fuzzy.MatchNormalizedFold(kw, h) {
				return h
			}
		}
	}
	return ""
}
