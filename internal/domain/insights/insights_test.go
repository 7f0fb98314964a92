package insights

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/income-tracker/internal/domain/income/repository"
)

func money(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestTrendHighlight(t *testing.T) {
	tests := []struct {
		name      string
		months    []*repository.MonthTotal
		sentiment Sentiment
		found     bool
	}{
		{
			name: "income up",
			months: []*repository.MonthTotal{
				{Month: "2026-06", Total: money("1000")},
				{Month: "2026-07", Total: money("1500")},
			},
			sentiment: SentimentPositive,
			found:     true,
		},
		{
			name: "income down",
			months: []*repository.MonthTotal{
				{Month: "2026-06", Total: money("2000")},
				{Month: "2026-07", Total: money("500")},
			},
			sentiment: SentimentNegative,
			found:     true,
		},
		{
			name: "flat",
			months: []*repository.MonthTotal{
				{Month: "2026-06", Total: money("800")},
				{Month: "2026-07", Total: money("800")},
			},
			sentiment: SentimentNeutral,
			found:     true,
		},
		{
			name:   "single month",
			months: []*repository.MonthTotal{{Month: "2026-07", Total: money("800")}},
			found:  false,
		},
		{
			name: "previous month zero",
			months: []*repository.MonthTotal{
				{Month: "2026-06", Total: money("0")},
				{Month: "2026-07", Total: money("800")},
			},
			found: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := trendHighlight(tt.months)
			if !tt.found {
				assert.Nil(t, h)
				return
			}
			require.NotNil(t, h)
			assert.Equal(t, HighlightTypeIncomeTrend, h.Type)
			assert.Equal(t, tt.sentiment, h.Sentiment)
		})
	}
}

func TestTrendHighlight_PercentChange(t *testing.T) {
	h := trendHighlight([]*repository.MonthTotal{
		{Month: "2026-06", Total: money("1000")},
		{Month: "2026-07", Total: money("1500")},
	})
	require.NotNil(t, h)
	assert.Contains(t, h.Detail, "+50.0%")
	assert.Contains(t, h.Detail, "500.00")
}

func TestTopSourceHighlight(t *testing.T) {
	t.Run("dominant source becomes concentration warning", func(t *testing.T) {
		summary := &repository.Summary{
			TotalAmount: money("1000"),
			BySource: []*repository.SourceTotal{
				{SourceName: "Patreon", Total: money("700"), Count: 12},
				{SourceName: "Gumroad", Total: money("300"), Count: 3},
			},
		}
		h := topSourceHighlight(summary)
		require.NotNil(t, h)
		assert.Equal(t, HighlightTypeConcentration, h.Type)
		assert.Contains(t, h.Detail, "70%")
	})

	t.Run("balanced sources", func(t *testing.T) {
		summary := &repository.Summary{
			TotalAmount: money("1000"),
			BySource: []*repository.SourceTotal{
				{SourceName: "Patreon", Total: money("400"), Count: 12},
				{SourceName: "Gumroad", Total: money("350"), Count: 3},
				{SourceName: "Stripe", Total: money("250"), Count: 2},
			},
		}
		h := topSourceHighlight(summary)
		require.NotNil(t, h)
		assert.Equal(t, HighlightTypeTopSource, h.Type)
		assert.Contains(t, h.Title, "Patreon")
	})

	t.Run("no sources", func(t *testing.T) {
		assert.Nil(t, topSourceHighlight(&repository.Summary{TotalAmount: money("0")}))
	})
}

func TestComputeHighlights(t *testing.T) {
	summary := &repository.Summary{
		TotalAmount: money("1000"),
		RecordCount: 15,
		BySource: []*repository.SourceTotal{
			{SourceName: "Gumroad", Total: money("550"), Count: 3},
			{SourceName: "Patreon", Total: money("450"), Count: 12},
		},
		ByCategory: []*repository.CategoryTotal{
			{Category: "Subscription", Total: money("400"), Count: 12},
		},
		ByMonth: []*repository.MonthTotal{
			{Month: "2026-06", Total: money("450")},
			{Month: "2026-07", Total: money("550")},
		},
	}

	highlights := computeHighlights(summary)
	require.Len(t, highlights, 3)
	assert.Equal(t, HighlightTypeIncomeTrend, highlights[0].Type)
	assert.Equal(t, HighlightTypeTopCategory, highlights[2].Type)
}

func TestComputeHighlights_EmptySummary(t *testing.T) {
	assert.Empty(t, computeHighlights(&repository.Summary{TotalAmount: money("0")}))
}

func TestFallbackNarrative(t *testing.T) {
	t.Run("empty period", func(t *testing.T) {
		got := fallbackNarrative(&repository.Summary{})
		assert.Equal(t, "No income was recorded in this period.", got)
	})

	t.Run("with records", func(t *testing.T) {
		got := fallbackNarrative(&repository.Summary{
			TotalAmount: money("1234.50"),
			RecordCount: 8,
			BySource: []*repository.SourceTotal{
				{SourceName: "Stripe", Total: money("900")},
			},
		})
		assert.Contains(t, got, "1234.50")
		assert.Contains(t, got, "8 records")
		assert.Contains(t, got, "Stripe")
	})
}
