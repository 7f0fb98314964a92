package insights

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/FACorreiaa/income-tracker/internal/domain/income/repository"
)

// NarrativeModel writes a short prose summary of the period. Tests substitute
// a canned implementation.
type NarrativeModel interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

const narrativeModelName = "gemini-2.0-flash"

type geminiNarrativeModel struct {
	client *genai.Client
	model  string
}

// NewNarrativeModel creates a Gemini-backed narrative model. The API key is
// read from the environment by the genai client.
func NewNarrativeModel(ctx context.Context, modelName string) (NarrativeModel, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	if modelName == "" {
		modelName = narrativeModelName
	}
	return &geminiNarrativeModel{client: client, model: modelName}, nil
}

func (g *geminiNarrativeModel) GenerateText(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("empty response from model")
	}
	return text, nil
}

func narrativePrompt(report *Report, summary *repository.Summary) string {
	var b strings.Builder
	b.WriteString("You are a friendly financial assistant for an independent creator.\n")
	b.WriteString("Write a short narrative (2-3 sentences, plain text, no Markdown) summarizing the income period below.\n")
	b.WriteString("Be specific about amounts and sources. Do not invent numbers.\n\n")

	fmt.Fprintf(&b, "Period: %s to %s\n", report.From, report.To)
	fmt.Fprintf(&b, "Total income: %s across %d records\n", summary.TotalAmount.StringFixed(2), summary.RecordCount)

	if len(summary.BySource) > 0 {
		b.WriteString("By source:\n")
		for _, s := range summary.BySource {
			fmt.Fprintf(&b, "- %s: %s (%d records)\n", s.SourceName, s.Total.StringFixed(2), s.Count)
		}
	}
	if len(summary.ByCategory) > 0 {
		b.WriteString("By category:\n")
		for _, c := range summary.ByCategory {
			fmt.Fprintf(&b, "- %s: %s\n", c.Category, c.Total.StringFixed(2))
		}
	}
	if len(summary.ByMonth) > 0 {
		b.WriteString("By month:\n")
		for _, m := range summary.ByMonth {
			fmt.Fprintf(&b, "- %s: %s\n", m.Month, m.Total.StringFixed(2))
		}
	}
	return b.String()
}

// fallbackNarrative produces a deterministic sentence when no model is
// configured or the model call fails.
func fallbackNarrative(summary *repository.Summary) string {
	if summary.RecordCount == 0 {
		return "No income was recorded in this period."
	}

	sentence := fmt.Sprintf("You earned %s across %d records", summary.TotalAmount.StringFixed(2), summary.RecordCount)
	if len(summary.BySource) > 0 {
		sentence += fmt.Sprintf(", led by %s with %s",
			summary.BySource[0].SourceName, summary.BySource[0].Total.StringFixed(2))
	}
	return sentence + "."
}
