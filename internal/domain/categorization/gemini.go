package categorization

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"google.golang.org/genai"
)

// DefaultModelName is the Gemini model used for classification.
const DefaultModelName = "gemini-2.0-flash"

// Item is one income record submitted for classification.
type Item struct {
	Description string
	Amount      decimal.Decimal
	Source      string
}

// TextModel is the slice of the Gemini API the classifier needs. Tests
// substitute a canned implementation.
type TextModel interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

type geminiModel struct {
	client *genai.Client
	model  string
}

func (g *geminiModel) GenerateText(ctx context.Context, prompt string) (string, error) {
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
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from model")
	}
	return text, nil
}

// GeminiClassifier assigns categories using a Gemini model. It expects the
// model to return a STRICT JSON array.
type GeminiClassifier struct {
	model TextModel
}

// NewGeminiClassifier creates a classifier backed by the Gemini API. The API
// key is read from the environment by the genai client.
func NewGeminiClassifier(ctx context.Context, modelName string) (*GeminiClassifier, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	if modelName == "" {
		modelName = DefaultModelName
	}
	return &GeminiClassifier{model: &geminiModel{client: client, model: modelName}}, nil
}

// NewGeminiClassifierWithModel creates a classifier over a caller-supplied
// model, used by tests.
func NewGeminiClassifierWithModel(model TextModel) *GeminiClassifier {
	return &GeminiClassifier{model: model}
}

type classification struct {
	Index      int     `json:"index"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// ClassifyBatch sends all items in one prompt and aligns the model's answers
// by index. Slots the model skips, or fills with a category outside the
// closed set, come back as Other with zero confidence.
func (c *GeminiClassifier) ClassifyBatch(ctx context.Context, items []Item) ([]Match, error) {
	if len(items) == 0 {
		return nil, nil
	}

	raw, err := c.model.GenerateText(ctx, buildPrompt(items))
	if err != nil {
		return nil, err
	}

	var parsed []classification
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal model response: %w", err)
	}

	results := make([]Match, len(items))
	for i := range results {
		results[i] = Match{Category: CategoryOther, Confidence: 0}
	}
	for _, cl := range parsed {
		if cl.Index < 0 || cl.Index >= len(items) {
			continue
		}
		if !IsValidCategory(cl.Category) {
			continue
		}
		confidence := cl.Confidence
		if confidence < 0 {
			confidence = 0
		}
		if confidence > 1 {
			confidence = 1
		}
		results[cl.Index] = Match{Category: cl.Category, Confidence: confidence}
	}
	return results, nil
}

func buildPrompt(items []Item) string {
	var b strings.Builder
	b.WriteString("You are an income categorization assistant for a personal income tracker.\n\n")
	b.WriteString("Task:\n")
	b.WriteString("- Assign a category to EVERY transaction listed below.\n")
	b.WriteString("- Output STRICT JSON only (no comments, no trailing commas, no extra text).\n")
	b.WriteString("- Output a JSON array of objects.\n\n")
	b.WriteString("Each object must have these fields:\n")
	b.WriteString("- \"index\": number, the transaction's position in the input list\n")
	b.WriteString("- \"category\": string, exactly one of: " + strings.Join(Categories, ", ") + "\n")
	b.WriteString("- \"confidence\": number between 0 and 1\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("- Use \"Other\" with low confidence when unsure.\n")
	b.WriteString("- Negative amounts usually indicate a Refund.\n")
	b.WriteString("- Return ONLY valid raw JSON.\n")
	b.WriteString("- Do NOT wrap the response in code fences.\n")
	b.WriteString("- Output must begin with \"[\" and end with \"]\".\n\n")
	b.WriteString("Transactions:\n")
	for i, item := range items {
		fmt.Fprintf(&b, "%d. description=%q amount=%s source=%q\n", i, item.Description, item.Amount.String(), item.Source)
	}
	return b.String()
}

// cleanModelJSON strips Markdown fences and surrounding junk the model may
// emit despite instructions, keeping the first '[' through the last ']'.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}
