package categorization

import (
	"strings"
	"sync"

	"github.com/cloudflare/ahocorasick"
)

// Rule maps a substring pattern to a category.
type Rule struct {
	Pattern  string
	Category string
}

// Match is one engine hit. Confidence reflects how the match was made, not a
// statistical estimate: exact keyword hits are trusted well above the apply
// threshold, fuzzy hits sit closer to it.
type Match struct {
	Pattern    string  `json:"pattern"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// keywordConfidence is assigned to exact substring hits.
const keywordConfidence = 0.8

// Engine matches descriptions against all keyword patterns in a single pass
// using the Aho-Corasick algorithm. Matching cost is O(text length)
// regardless of pattern count.
type Engine struct {
	matcher    *ahocorasick.Matcher
	patterns   []string
	categories []string
	mu         sync.RWMutex
}

// NewEngine creates an engine from the given rules. Passing nil loads the
// built-in keyword rules.
func NewEngine(rules []Rule) *Engine {
	if rules == nil {
		rules = keywordRules
	}
	e := &Engine{}
	e.Build(rules)
	return e
}

// Build constructs the matcher. It can be called again to swap the rule set.
func (e *Engine) Build(rules []Rule) {
	e.mu.Lock()
	defer e.mu.Unlock()

	patterns := make([]string, 0, len(rules))
	categories := make([]string, 0, len(rules))
	for _, rule := range rules {
		pattern := strings.ToUpper(strings.TrimSpace(rule.Pattern))
		if pattern == "" || !IsValidCategory(rule.Category) {
			continue
		}
		patterns = append(patterns, pattern)
		categories = append(categories, rule.Category)
	}

	e.patterns = patterns
	e.categories = categories
	if len(patterns) == 0 {
		e.matcher = nil
		return
	}

	bytePatterns := make([][]byte, len(patterns))
	for i, p := range patterns {
		bytePatterns[i] = []byte(p)
	}
	e.matcher = ahocorasick.NewMatcher(bytePatterns)
}

// Match returns the best hit for a description, preferring the longest
// matched pattern (more specific keywords win). Returns nil on no match.
func (e *Engine) Match(text string) *Match {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.match(text)
}

// MatchBatch matches many descriptions under a single lock acquisition.
// Result slots without a hit are nil.
func (e *Engine) MatchBatch(texts []string) []*Match {
	e.mu.RLock()
	defer e.mu.RUnlock()

	results := make([]*Match, len(texts))
	for i, text := range texts {
		results[i] = e.match(text)
	}
	return results
}

func (e *Engine) match(text string) *Match {
	if e.matcher == nil {
		return nil
	}

	hits := e.matcher.Match([]byte(strings.ToUpper(text)))
	if len(hits) == 0 {
		return nil
	}

	best := -1
	for _, idx := range hits {
		if idx < 0 || idx >= len(e.patterns) {
			continue
		}
		if best == -1 || len(e.patterns[idx]) > len(e.patterns[best]) {
			best = idx
		}
	}
	if best == -1 {
		return nil
	}
	return &Match{
		Pattern:    e.patterns[best],
		Category:   e.categories[best],
		Confidence: keywordConfidence,
	}
}

// PatternCount returns the number of patterns loaded in the engine.
func (e *Engine) PatternCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.patterns)
}
