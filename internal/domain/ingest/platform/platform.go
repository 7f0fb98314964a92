// Package platform identifies known payment-platform export formats from
// their header sets and supplies the default column mappings for them.
package platform

import (
	"strings"
)

// ColumnMapping associates semantic income fields with file header names.
// Amount and Date are required for an import; everything else is optional.
type ColumnMapping struct {
	Amount        string `json:"amount"`
	Date          string `json:"date"`
	Description   string `json:"description,omitempty"`
	Category      string `json:"category,omitempty"`
	Customer      string `json:"customer,omitempty"`
	Currency      string `json:"currency,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
}

// Valid reports whether the mapping carries both required fields.
func (m ColumnMapping) Valid() bool {
	return strings.TrimSpace(m.Amount) != "" && strings.TrimSpace(m.Date) != ""
}

// Signature describes one known platform: the header subset that must all be
// present (case-insensitive) for a match, and the default mapping to suggest.
type Signature struct {
	Name            string        `json:"name"`
	DisplayName     string        `json:"displayName"`
	RequiredHeaders []string      `json:"-"`
	ExpectedColumns []string      `json:"expectedColumns"`
	Mapping         ColumnMapping `json:"-"`
}

// signatures is static configuration, checked in priority order. Matching is
// exact header containment rather than fuzzy: mis-mapping financial columns is
// worse than asking the user for a manual mapping.
var signatures = []Signature{
	{
		Name:            "patreon",
		DisplayName:     "Patreon",
		RequiredHeaders: []string{"patron", "pledge"},
		ExpectedColumns: []string{"Patron", "Pledge", "Created", "Tier"},
		Mapping: ColumnMapping{
			Amount:      "Pledge",
			Date:        "Created",
			Customer:    "Patron",
			Description: "Tier",
		},
	},
	{
		Name:            "gumroad",
		DisplayName:     "Gumroad",
		RequiredHeaders: []string{"product", "price", "email"},
		ExpectedColumns: []string{"Email", "Price", "Created At", "Product", "Order Number"},
		Mapping: ColumnMapping{
			Amount:        "Price",
			Date:          "Created At",
			Customer:      "Email",
			Description:   "Product",
			TransactionID: "Order Number",
		},
	},
	{
		Name:            "stripe",
		DisplayName:     "Stripe",
		RequiredHeaders: []string{"id", "amount", "status"},
		ExpectedColumns: []string{"id", "Amount", "Created", "Description", "Currency"},
		Mapping: ColumnMapping{
			Amount:        "Amount",
			Date:          "Created",
			Description:   "Description",
			TransactionID: "id",
			Currency:      "Currency",
		},
	},
	{
		Name:            "paypal",
		DisplayName:     "PayPal",
		RequiredHeaders: []string{"transaction id", "gross"},
		ExpectedColumns: []string{"Transaction ID", "Gross", "Date", "Name", "Currency"},
		Mapping: ColumnMapping{
			Amount:        "Gross",
			Date:          "Date",
			Customer:      "Name",
			TransactionID: "Transaction ID",
			Currency:      "Currency",
		},
	},
}

// Detect classifies a header set against the known signatures. Ties are broken
// by signature order; an unrecognized format returns nil.
func Detect(headers []string) *Signature {
	headerSet := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		headerSet[strings.ToLower(strings.TrimSpace(h))] = struct{}{}
	}

	for _, sig := range signatures {
		if containsAll(headerSet, sig.RequiredHeaders) {
			match := sig
			return &match
		}
	}
	return nil
}

// SuggestedMapping returns the default mapping for a detected platform, or nil
// for unknown platforms (the caller must collect a manual mapping).
func SuggestedMapping(name string) *ColumnMapping {
	for _, sig := range signatures {
		if sig.Name == name {
			m := sig.Mapping
			return &m
		}
	}
	return nil
}

// All returns the static signature list for the platforms endpoint.
func All() []Signature {
	out := make([]Signature, len(signatures))
	copy(out, signatures)
	return out
}

func containsAll(headerSet map[string]struct{}, required []string) bool {
	for _, r := range required {
		if _, ok := headerSet[r]; !ok {
			return false
		}
	}
	return true
}
