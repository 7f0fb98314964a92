package categorization

import (
	"sort"
	"strings"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// FuzzyMatcher catches keyword variations the exact engine misses, like
// "Patreon Pledge #4471" against "pledge payout (march)". Scores blend
// containment, Levenshtein distance, and subsequence rank.
type FuzzyMatcher struct {
	patterns []fuzzyPattern
	mu       sync.RWMutex
}

type fuzzyPattern struct {
	normalized string
	category   string
}

// fuzzyThreshold is the minimum similarity score (0-100) for a fuzzy hit.
const fuzzyThreshold = 75

// NewFuzzyMatcher creates a fuzzy matcher from the given rules. Passing nil
// loads the built-in keyword rules.
func NewFuzzyMatcher(rules []Rule) *FuzzyMatcher {
	if rules == nil {
		rules = keywordRules
	}
	fm := &FuzzyMatcher{}
	fm.Build(rules)
	return fm
}

// Build constructs the pattern list. It can be called again to swap rules.
func (fm *FuzzyMatcher) Build(rules []Rule) {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	fm.patterns = make([]fuzzyPattern, 0, len(rules))
	for _, rule := range rules {
		pattern := strings.ToUpper(strings.TrimSpace(rule.Pattern))
		if pattern == "" || !IsValidCategory(rule.Category) {
			continue
		}
		fm.patterns = append(fm.patterns, fuzzyPattern{normalized: pattern, category: rule.Category})
	}
}

// Match returns the best fuzzy hit at or above the threshold, or nil.
// Confidence scales with the similarity score, topping out at the exact
// keyword confidence for a perfect score.
func (fm *FuzzyMatcher) Match(text string) *Match {
	fm.mu.RLock()
	defer fm.mu.RUnlock()

	if len(fm.patterns) == 0 || strings.TrimSpace(text) == "" {
		return nil
	}

	normalized := strings.ToUpper(text)
	bestScore := fuzzyThreshold - 1
	var best *Match

	// Score against each token as well as the whole string: descriptions
	// are usually multi-word while patterns are single keywords.
	candidates := append([]string{normalized}, strings.Fields(normalized)...)

	for _, p := range fm.patterns {
		for _, candidate := range candidates {
			score := fuzzyScore(candidate, p.normalized)
			if score > bestScore {
				bestScore = score
				best = &Match{
					Pattern:    p.normalized,
					Category:   p.category,
					Confidence: float64(score) / 100 * keywordConfidence,
				}
			}
		}
	}
	return best
}

// RankCategories scores every pattern against the text and returns the
// distinct categories ordered by best score. Useful for suggestion UIs.
func (fm *FuzzyMatcher) RankCategories(text string, limit int) []string {
	fm.mu.RLock()
	defer fm.mu.RUnlock()

	normalized := strings.ToUpper(text)
	bestPerCategory := make(map[string]int)
	for _, p := range fm.patterns {
		score := fuzzyScore(normalized, p.normalized)
		if score > bestPerCategory[p.category] {
			bestPerCategory[p.category] = score
		}
	}

	categories := make([]string, 0, len(bestPerCategory))
	for c := range bestPerCategory {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool {
		if bestPerCategory[categories[i]] != bestPerCategory[categories[j]] {
			return bestPerCategory[categories[i]] > bestPerCategory[categories[j]]
		}
		return categories[i] < categories[j]
	})

	if limit > 0 && limit < len(categories) {
		categories = categories[:limit]
	}
	return categories
}

// fuzzyScore calculates a similarity score between two strings (0-100) from
// containment, Levenshtein distance, and subsequence rank, whichever is best.
func fuzzyScore(s1, s2 string) int {
	if s1 == s2 {
		return 100
	}
	if s1 == "" || s2 == "" {
		return 0
	}

	if strings.Contains(s1, s2) && len(s1) > 0 {
		return 75 + (25 * len(s2) / len(s1))
	}
	if strings.Contains(s2, s1) && len(s2) > 0 {
		return 75 + (25 * len(s1) / len(s2))
	}

	maxLen := len(s1)
	if len(s2) > maxLen {
		maxLen = len(s2)
	}
	if maxLen == 0 {
		return 0
	}
	levenshteinScore := 100 * (maxLen - levenshteinDistance(s1, s2)) / maxLen

	fuzzyLibScore := 0
	if rank := fuzzy.RankMatch(s2, s1); rank >= 0 && rank < len(s1) {
		fuzzyLibScore = 60 - (rank * 40 / len(s1))
	}

	if levenshteinScore > fuzzyLibScore {
		return levenshteinScore
	}
	return fuzzyLibScore
}

// levenshteinDistance calculates the edit distance between two strings using
// a two-row matrix.
func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	r1 := []rune(s1)
	r2 := []rune(s2)

	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= len(r2); j++ {
			cost := 1
			if r1[i-1] == r2[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(r2)]
}
