package categorization

import (
	"context"
	"log/slog"
)

// Service categorizes income records. It runs cheap local matchers first and
// only sends the leftovers to the model, so a missing or failing Gemini setup
// degrades to keyword matching instead of breaking imports.
type Service struct {
	engine     *Engine
	fuzzy      *FuzzyMatcher
	classifier *GeminiClassifier
	logger     *slog.Logger
}

// NewService creates a categorization service with the built-in keyword rules.
func NewService(logger *slog.Logger) *Service {
	return &Service{
		engine: NewEngine(nil),
		fuzzy:  NewFuzzyMatcher(nil),
		logger: logger,
	}
}

// WithClassifier attaches a Gemini classifier for records the local matchers
// cannot place.
func (s *Service) WithClassifier(classifier *GeminiClassifier) *Service {
	s.classifier = classifier
	return s
}

// WithRules replaces the built-in keyword rules.
func (s *Service) WithRules(rules []Rule) *Service {
	s.engine = NewEngine(rules)
	s.fuzzy = NewFuzzyMatcher(rules)
	return s
}

// Categorize classifies a single item using the local matchers only.
func (s *Service) Categorize(item Item) Match {
	text := item.Description
	if text == "" {
		text = item.Source
	}
	if m := s.engine.Match(text); m != nil {
		return *m
	}
	if m := s.fuzzy.Match(text); m != nil {
		return *m
	}
	return Match{Category: CategoryOther, Confidence: 0}
}

// CategorizeBatch classifies every item, in input order. Items the keyword
// and fuzzy matchers cannot place go to the model in a single call; model
// failures leave those items as Other with zero confidence.
func (s *Service) CategorizeBatch(ctx context.Context, items []Item) ([]Match, error) {
	results := make([]Match, len(items))
	var unresolved []int

	for i, item := range items {
		m := s.Categorize(item)
		results[i] = m
		if m.Confidence == 0 {
			unresolved = append(unresolved, i)
		}
	}

	if len(unresolved) == 0 || s.classifier == nil {
		return results, nil
	}

	batch := make([]Item, len(unresolved))
	for i, idx := range unresolved {
		batch[i] = items[idx]
	}

	matches, err := s.classifier.ClassifyBatch(ctx, batch)
	if err != nil {
		s.logger.Warn("model classification failed, keeping local results",
			slog.Int("items", len(batch)),
			slog.Any("error", err))
		return results, nil
	}
	if len(matches) != len(batch) {
		s.logger.Warn("model returned mismatched result count",
			slog.Int("want", len(batch)),
			slog.Int("got", len(matches)))
		return results, nil
	}

	for i, idx := range unresolved {
		if matches[i].Confidence > results[idx].Confidence {
			results[idx] = matches[i]
		}
	}
	return results, nil
}
