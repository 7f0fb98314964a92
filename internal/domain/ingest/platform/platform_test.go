package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		want    string
	}{
		{
			name:    "patreon export",
			headers: []string{"Patron", "Pledge", "Created", "Tier"},
			want:    "patreon",
		},
		{
			name:    "patreon lowercase headers",
			headers: []string{"patron", "pledge", "created"},
			want:    "patreon",
		},
		{
			name:    "gumroad export",
			headers: []string{"Email", "Price", "Created At", "Product", "Order Number"},
			want:    "gumroad",
		},
		{
			name:    "stripe export",
			headers: []string{"id", "Amount", "Status", "Created", "Currency"},
			want:    "stripe",
		},
		{
			name:    "paypal export",
			headers: []string{"Transaction ID", "Gross", "Date", "Name"},
			want:    "paypal",
		},
		{
			name:    "headers with padding",
			headers: []string{" Patron ", " Pledge ", "Created"},
			want:    "patreon",
		},
		{
			name:    "partial signature is not enough",
			headers: []string{"Patron", "Created", "Tier"},
			want:    "",
		},
		{
			name:    "unknown format",
			headers: []string{"Invoice", "Total", "Due Date"},
			want:    "",
		},
		{
			name:    "empty headers",
			headers: nil,
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Detect(tt.headers)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Name)
		})
	}
}

func TestDetect_PriorityOrder(t *testing.T) {
	// A header set satisfying both patreon and stripe resolves to patreon,
	// which is checked first.
	headers := []string{"Patron", "Pledge", "id", "Amount", "Status"}
	got := Detect(headers)
	require.NotNil(t, got)
	assert.Equal(t, "patreon", got.Name)
}

func TestSuggestedMapping(t *testing.T) {
	m := SuggestedMapping("patreon")
	require.NotNil(t, m)
	assert.Equal(t, "Pledge", m.Amount)
	assert.Equal(t, "Created", m.Date)
	assert.Equal(t, "Patron", m.Customer)
	assert.Equal(t, "Tier", m.Description)
	assert.True(t, m.Valid())

	assert.Nil(t, SuggestedMapping("unknown"))
}

func TestSuggestedMapping_ReturnsCopy(t *testing.T) {
	m := SuggestedMapping("stripe")
	require.NotNil(t, m)
	m.Amount = "tampered"

	again := SuggestedMapping("stripe")
	assert.Equal(t, "Amount", again.Amount)
}

func TestColumnMappingValid(t *testing.T) {
	assert.True(t, ColumnMapping{Amount: "Gross", Date: "Date"}.Valid())
	assert.False(t, ColumnMapping{Amount: "Gross"}.Valid())
	assert.False(t, ColumnMapping{Date: "Date"}.Valid())
	assert.False(t, ColumnMapping{Amount: "  ", Date: "Date"}.Valid())
	assert.False(t, ColumnMapping{}.Valid())
}

func TestAll(t *testing.T) {
	all := All()
	require.Len(t, all, 4)
	assert.Equal(t, "patreon", all[0].Name)
	assert.Equal(t, "gumroad", all[1].Name)
	assert.Equal(t, "stripe", all[2].Name)
	assert.Equal(t, "paypal", all[3].Name)
	for _, sig := range all {
		assert.NotEmpty(t, sig.ExpectedColumns, sig.Name)
		assert.True(t, sig.Mapping.Valid(), sig.Name)
	}
}

func TestSuggestColumns(t *testing.T) {
	headers := []string{"Client Email", "Invoice Total", "Paid At", "Item", "Currency", "Reference"}
	m := SuggestColumns(headers)

	assert.Equal(t, "Invoice Total", m.Amount)
	assert.Equal(t, "Paid At", m.Date)
	assert.Equal(t, "Client Email", m.Customer)
	assert.Equal(t, "Item", m.Description)
	assert.Equal(t, "Currency", m.Currency)
	assert.Equal(t, "Reference", m.TransactionID)
	assert.True(t, m.Valid())
}

func TestSuggestColumns_NoMatches(t *testing.T) {
	m := SuggestColumns([]string{"Colour", "Shape"})
	assert.False(t, m.Valid())
}
