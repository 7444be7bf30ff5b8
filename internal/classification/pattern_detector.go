// Package classification assigns categories and expense types to transactions
// using an ordered cascade of rules.
package classification

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Veraticus/the-books-must-balance/internal/model"
)

// KeywordKind says which cascade step a keyword serves.
type KeywordKind string

const (
	// KindOneTime marks spend that does not repeat.
	KindOneTime KeywordKind = "one_time"
	// KindRecurring marks spend that repeats on a cadence.
	KindRecurring KeywordKind = "recurring"
	// KindHint marks a weak category hint used only by the weak default step.
	KindHint KeywordKind = "hint"
)

// Keyword is a description pattern tied to a category.
type Keyword struct {
	Name      string
	Kind      KeywordKind
	Regex     string
	Category  model.Category
	Frequency model.Frequency // Only for recurring keywords
	Priority  int             // Higher priority keywords are checked first
}

type compiledKeyword struct {
	re *regexp.Regexp
	Keyword
}

// KeywordDetector matches descriptions against keywords in priority order.
// It is immutable after construction and safe for concurrent use.
type KeywordDetector struct {
	keywords []compiledKeyword
}

// NewKeywordDetector compiles keywords, case-insensitive by default.
func NewKeywordDetector(keywords []Keyword) (*KeywordDetector, error) {
	compiled := make([]compiledKeyword, 0, len(keywords))
	for _, k := range keywords {
		if !k.Category.Valid() {
			return nil, fmt.Errorf("keyword %s has unknown category %q", k.Name, k.Category)
		}
		expr := k.Regex
		if !strings.HasPrefix(expr, "(?i)") {
			expr = "(?i)" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("failed to compile keyword %s: %w", k.Name, err)
		}
		compiled = append(compiled, compiledKeyword{Keyword: k, re: re})
	}

	sort.SliceStable(compiled, func(i, j int) bool {
		return compiled[i].Priority > compiled[j].Priority
	})
	return &KeywordDetector{keywords: compiled}, nil
}

// KeywordMatch is the first keyword of a kind that matched.
type KeywordMatch struct {
	Keyword
	Text string
}

// Match returns the highest priority keyword of kind found in text.
func (d *KeywordDetector) Match(kind KeywordKind, text string) (KeywordMatch, bool) {
	for _, k := range d.keywords {
		if k.Kind != kind {
			continue
		}
		if loc := k.re.FindStringIndex(text); loc != nil {
			return KeywordMatch{Keyword: k.Keyword, Text: text[loc[0]:loc[1]]}, true
		}
	}
	return KeywordMatch{}, false
}

// Count returns the number of loaded keywords.
func (d *KeywordDetector) Count() int {
	return len(d.keywords)
}

var cadenceWords = []struct {
	re   *regexp.Regexp
	freq model.Frequency
}{
	{regexp.MustCompile(`(?i)\b(annual|annually|yearly|per year)\b`), model.FrequencyYearly},
	{regexp.MustCompile(`(?i)\b(quarterly|qtr|q[1-4])\b`), model.FrequencyQuarterly},
	{regexp.MustCompile(`(?i)\b(weekly|per week|wk)\b`), model.FrequencyWeekly},
	{regexp.MustCompile(`(?i)\b(monthly|per month|mthly)\b`), model.FrequencyMonthly},
}

// cadenceOf returns the cadence spelled out in a description, if any.
func cadenceOf(text string) (model.Frequency, bool) {
	for _, c := range cadenceWords {
		if c.re.MatchString(text) {
			return c.freq, true
		}
	}
	return model.FrequencyNone, false
}
