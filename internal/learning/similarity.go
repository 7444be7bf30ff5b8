package learning

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Veraticus/the-books-must-balance/internal/model"
)

// maxPrefixWords is the longest shared word prefix considered similar.
const maxPrefixWords = 3

// SimilarCategory looks for prior transactions whose description starts with
// the same significant words as txn. The longest shared prefix with at least
// minMatches agreeing transactions wins. Only transactions moving money in the
// same direction as txn are considered, and txn itself is ignored.
func SimilarCategory(txn *model.Transaction, history []model.Transaction, minMatches int) (model.Suggestion, bool) {
	words := SignificantWords(txn.Description)
	if len(words) == 0 {
		return model.Suggestion{}, false
	}
	if minMatches < 1 {
		minMatches = 1
	}

	candidates := make([][]string, 0, len(history))
	cats := make([]model.Category, 0, len(history))
	for i := range history {
		h := &history[i]
		if h.ID != "" && h.ID == txn.ID {
			continue
		}
		if h.Category == "" || h.Category == model.CategoryUncategorized {
			continue
		}
		if !txn.Amount.IsZero() && h.Amount.Sign() != txn.Amount.Sign() {
			continue
		}
		candidates = append(candidates, SignificantWords(h.Description))
		cats = append(cats, h.Category)
	}

	for n := min(maxPrefixWords, len(words)); n >= 1; n-- {
		prefix := words[:n]
		counts := make(map[model.Category]int)
		total := 0
		for i, hw := range candidates {
			if len(hw) >= n && slices.Equal(hw[:n], prefix) {
				counts[cats[i]]++
				total++
			}
		}
		if total < minMatches {
			continue
		}

		best, bestCount := majority(counts)
		fraction := float64(bestCount) / float64(total)
		if bestCount < minMatches || fraction <= 0.5 {
			continue
		}
		return model.Suggestion{
			Category:   best,
			Confidence: min(90, 30+int(fraction*60)),
			Source:     model.SourceHistory,
			Reason: fmt.Sprintf("%d of %d earlier transactions starting %q were categorized as %s",
				bestCount, total, strings.Join(prefix, " "), best),
		}, true
	}
	return model.Suggestion{}, false
}

// majority returns the most frequent category. Ties go to the category that
// sorts first so results do not depend on map order.
func majority(counts map[model.Category]int) (model.Category, int) {
	var best model.Category
	bestCount := 0
	for c, n := range counts {
		if n > bestCount || (n == bestCount && c < best) {
			best, bestCount = c, n
		}
	}
	return best, bestCount
}
