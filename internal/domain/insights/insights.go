// Package insights turns a user's income summary into a short report:
// deterministic highlights computed from the aggregates, plus an optional
// model-written narrative on top.
package insights

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/income-tracker/internal/domain/income/repository"
)

// HighlightType identifies what a highlight is about.
type HighlightType string

const (
	HighlightTypeIncomeTrend   HighlightType = "income_trend"
	HighlightTypeTopSource     HighlightType = "top_source"
	HighlightTypeTopCategory   HighlightType = "top_category"
	HighlightTypeConcentration HighlightType = "source_concentration"
)

// Sentiment indicates whether a highlight is good news.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// Highlight is one computed observation about the period.
type Highlight struct {
	Type      HighlightType `json:"type"`
	Title     string        `json:"title"`
	Detail    string        `json:"detail"`
	Sentiment Sentiment     `json:"sentiment"`
}

// Report is the full insights payload for a period.
type Report struct {
	From        string              `json:"from"`
	To          string              `json:"to"`
	Summary     *repository.Summary `json:"summary"`
	Highlights  []Highlight         `json:"highlights"`
	Narrative   string              `json:"narrative,omitempty"`
	AIGenerated bool                `json:"aiGenerated"`
}

// concentrationThreshold flags periods where a single source carries most of
// the income.
const concentrationThreshold = 0.6

// computeHighlights derives highlights from the summary aggregates. The
// result is deterministic and never empty for a period with records.
func computeHighlights(summary *repository.Summary) []Highlight {
	var highlights []Highlight

	if h := trendHighlight(summary.ByMonth); h != nil {
		highlights = append(highlights, *h)
	}
	if h := topSourceHighlight(summary); h != nil {
		highlights = append(highlights, *h)
	}
	if h := topCategoryHighlight(summary.ByCategory); h != nil {
		highlights = append(highlights, *h)
	}
	return highlights
}

// trendHighlight compares the last two months in the period. ByMonth is
// ordered oldest first.
func trendHighlight(months []*repository.MonthTotal) *Highlight {
	if len(months) < 2 {
		return nil
	}

	last := months[len(months)-1]
	previous := months[len(months)-2]
	if previous.Total.IsZero() {
		return nil
	}

	change := last.Total.Sub(previous.Total)
	percent := change.Div(previous.Total).Mul(decimal.NewFromInt(100))

	h := &Highlight{Type: HighlightTypeIncomeTrend}
	switch {
	case change.IsPositive():
		h.Title = "Income is up"
		h.Detail = fmt.Sprintf("%s earned %s more than %s (+%s%%)",
			last.Month, change.StringFixed(2), previous.Month, percent.StringFixed(1))
		h.Sentiment = SentimentPositive
	case change.IsNegative():
		h.Title = "Income is down"
		h.Detail = fmt.Sprintf("%s earned %s less than %s (%s%%)",
			last.Month, change.Abs().StringFixed(2), previous.Month, percent.StringFixed(1))
		h.Sentiment = SentimentNegative
	default:
		h.Title = "Income is flat"
		h.Detail = fmt.Sprintf("%s matched %s exactly", last.Month, previous.Month)
		h.Sentiment = SentimentNeutral
	}
	return h
}

// topSourceHighlight names the biggest source and warns when it dominates
// the period. BySource is ordered largest first.
func topSourceHighlight(summary *repository.Summary) *Highlight {
	if len(summary.BySource) == 0 || summary.TotalAmount.IsZero() {
		return nil
	}

	top := summary.BySource[0]
	share := top.Total.Div(summary.TotalAmount)

	if share.GreaterThanOrEqual(decimal.NewFromFloat(concentrationThreshold)) {
		return &Highlight{
			Type:  HighlightTypeConcentration,
			Title: fmt.Sprintf("Most income comes from %s", top.SourceName),
			Detail: fmt.Sprintf("%s accounts for %s%% of income this period",
				top.SourceName, share.Mul(decimal.NewFromInt(100)).StringFixed(0)),
			Sentiment: SentimentNeutral,
		}
	}
	return &Highlight{
		Type:  HighlightTypeTopSource,
		Title: fmt.Sprintf("Top source: %s", top.SourceName),
		Detail: fmt.Sprintf("%s brought in %s across %d records",
			top.SourceName, top.Total.StringFixed(2), top.Count),
		Sentiment: SentimentPositive,
	}
}

// topCategoryHighlight names the biggest category. ByCategory is ordered
// largest first.
func topCategoryHighlight(categories []*repository.CategoryTotal) *Highlight {
	if len(categories) == 0 {
		return nil
	}

	top := categories[0]
	return &Highlight{
		Type:  HighlightTypeTopCategory,
		Title: fmt.Sprintf("Top category: %s", top.Category),
		Detail: fmt.Sprintf("%s totals %s from %d records",
			top.Category, top.Total.StringFixed(2), top.Count),
		Sentiment: SentimentNeutral,
	}
}
