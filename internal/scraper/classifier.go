package scraper

import (
	"strconv"
	"strings"

	"github.com/jonesrussell/bidcrawl/internal/domain"
)

// CategoryExcluded is the marker category. Notices scoring into it are
// dropped before persistence instead of stored under it.
const CategoryExcluded = "무관"

// keywordRule is one weighted keyword within a category.
type keywordRule struct {
	word   string
	weight int
}

// categoryRule is one category's compiled scoring rule.
type categoryRule struct {
	category string
	keywords []keywordRule
	nots     []string
	minPoint int
}

// Classifier assigns categories to notices by weighted keyword scoring of
// their titles. With no rules configured it is a no-op and leaves every
// notice uncategorized.
type Classifier struct {
	rules []categoryRule
}

// NewClassifier compiles category settings. Keywords are comma-separated
// "word" or "word*weight" terms; a bare word scores 1. Nots are
// comma-separated exclusion words.
func NewClassifier(configs []domain.CategorySetting) *Classifier {
	c := &Classifier{}

	for _, cfg := range configs {
		rule := categoryRule{
			category: cfg.Category,
			minPoint: cfg.MinPoint,
			nots:     splitTerms(cfg.Nots),
		}
		for _, term := range splitTerms(cfg.Keywords) {
			rule.keywords = append(rule.keywords, parseKeyword(term))
		}
		if rule.minPoint < 1 {
			rule.minPoint = 1
		}
		c.rules = append(c.rules, rule)
	}

	return c
}

// Enabled reports whether any category rules are configured.
func (c *Classifier) Enabled() bool {
	return len(c.rules) > 0
}

// Classify returns the best-scoring category for a title, or "" when no
// category reaches its minimum score.
func (c *Classifier) Classify(title string) string {
	best := ""
	bestScore := 0

	for _, rule := range c.rules {
		score := rule.score(title)
		if score >= rule.minPoint && score > bestScore {
			best = rule.category
			bestScore = score
		}
	}

	return best
}

// Apply classifies each notice in place. A no-op when no rules exist.
func (c *Classifier) Apply(notices []domain.Notice) {
	if !c.Enabled() {
		return
	}

	for i := range notices {
		if category := c.Classify(notices[i].Title); category != "" {
			notices[i].Category = &category
		}
	}
}

// score sums keyword weights for keywords present in the title. Any
// exclusion word in the title zeroes the category.
func (r *categoryRule) score(title string) int {
	for _, not := range r.nots {
		if strings.Contains(title, not) {
			return 0
		}
	}

	score := 0
	for _, kw := range r.keywords {
		if strings.Contains(title, kw.word) {
			score += kw.weight
		}
	}
	return score
}

// parseKeyword splits an optional "*weight" suffix off a keyword term.
func parseKeyword(term string) keywordRule {
	word, weightStr, found := strings.Cut(term, "*")
	if found {
		if weight, err := strconv.Atoi(strings.TrimSpace(weightStr)); err == nil && weight > 0 {
			return keywordRule{word: strings.TrimSpace(word), weight: weight}
		}
	}
	return keywordRule{word: strings.TrimSpace(word), weight: 1}
}

func splitTerms(raw string) []string {
	var terms []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			terms = append(terms, trimmed)
		}
	}
	return terms
}
