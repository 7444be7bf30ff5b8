package classification

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/the-books-must-balance/internal/learning"
	"github.com/Veraticus/the-books-must-balance/internal/model"
)

// Evidence is everything the cascades may consult, gathered once per
// transaction so that rules stay pure.
type Evidence struct {
	Txn      *model.Transaction
	Vendor   *model.VendorMapping
	Pattern  *model.PatternMapping
	History  []model.Transaction
	Interval *IntervalAnalysis
	// Category is filled in after the category cascade and read by the
	// expense cascade.
	Category model.CategoryResult
}

// Rule is one category cascade step.
type Rule struct {
	Name  string
	Apply func(ev *Evidence) (model.CategoryResult, bool)
}

// ExpenseRule is one expense-type cascade step.
type ExpenseRule struct {
	Name  string
	Apply func(ev *Evidence) (model.ExpenseResult, bool)
}

// Confidence levels produced by the cascades.
const (
	KeywordConfidence         = 100
	WeakDefaultConfidence     = 40
	FallbackConfidence        = 20
	SpikeConfidence           = 70
	CategoryHintConfidence    = 50
	ExpenseFallbackConfidence = 40
	historyCap                = 90
)

// CategoryRules returns the category cascade in evaluation order.
func (c *Classifier) CategoryRules() []Rule {
	return []Rule{
		{Name: "one_time_keyword", Apply: c.oneTimeKeyword},
		{Name: "recurring_keyword", Apply: c.recurringKeyword},
		{Name: "vendor_mapping", Apply: c.vendorMapping},
		{Name: "pattern_mapping", Apply: c.patternMapping},
		{Name: "history", Apply: c.historySimilarity},
		{Name: "weak_default", Apply: c.weakDefault},
		{Name: "fallback", Apply: fallbackCategory},
	}
}

// ExpenseRules returns the expense-type cascade in evaluation order.
func (c *Classifier) ExpenseRules() []ExpenseRule {
	return []ExpenseRule{
		{Name: "keyword", Apply: c.expenseKeyword},
		{Name: "interval", Apply: intervalRegularity},
		{Name: "amount_spike", Apply: c.amountSpike},
		{Name: "category_default", Apply: categoryDefault},
		{Name: "fallback", Apply: fallbackExpense},
	}
}

func (c *Classifier) oneTimeKeyword(ev *Evidence) (model.CategoryResult, bool) {
	m, ok := c.keywords.Match(KindOneTime, ev.Txn.Description)
	if !ok {
		return model.CategoryResult{}, false
	}
	return model.CategoryResult{
		Category:   m.Category,
		Confidence: KeywordConfidence,
		Source:     model.SourceOneTimeKeyword,
		Reason:     fmt.Sprintf("description mentions %q (%s)", m.Text, m.Name),
	}, true
}

func (c *Classifier) recurringKeyword(ev *Evidence) (model.CategoryResult, bool) {
	m, ok := c.keywords.Match(KindRecurring, ev.Txn.Description)
	if !ok {
		return model.CategoryResult{}, false
	}
	return model.CategoryResult{
		Category:   m.Category,
		Confidence: KeywordConfidence,
		Source:     model.SourceRecurringKeyword,
		Reason:     fmt.Sprintf("description mentions %q (%s)", m.Text, m.Name),
	}, true
}

func (c *Classifier) vendorMapping(ev *Evidence) (model.CategoryResult, bool) {
	m := ev.Vendor
	if m == nil || m.Confidence < c.cfg.VendorMinConfidence {
		return model.CategoryResult{}, false
	}
	return model.CategoryResult{
		Category:   m.Category,
		Confidence: m.Confidence,
		Source:     model.SourceVendorMapping,
		Reason:     fmt.Sprintf("vendor %q was approved as %s %d times", m.Key, m.Category, m.Occurrences),
	}, true
}

func (c *Classifier) patternMapping(ev *Evidence) (model.CategoryResult, bool) {
	m := ev.Pattern
	if m == nil || m.Confidence < c.cfg.PatternMinConfidence {
		return model.CategoryResult{}, false
	}
	return model.CategoryResult{
		Category:   m.Category,
		Confidence: m.Confidence,
		Source:     model.SourcePatternMapping,
		Reason:     fmt.Sprintf("descriptions like %q are categorized as %s", m.Key, m.Category),
	}, true
}

func (c *Classifier) historySimilarity(ev *Evidence) (model.CategoryResult, bool) {
	sg, ok := learning.SimilarCategory(ev.Txn, ev.History, c.cfg.SimilarityMinMatches)
	if !ok {
		return model.CategoryResult{}, false
	}
	return model.CategoryResult{
		Category:   sg.Category,
		Confidence: min(historyCap, sg.Confidence),
		Source:     model.SourceHistory,
		Reason:     sg.Reason,
	}, true
}

func (c *Classifier) weakDefault(ev *Evidence) (model.CategoryResult, bool) {
	m, ok := c.keywords.Match(KindHint, ev.Txn.Description)
	if !ok || !m.Category.IsRecurring() {
		return model.CategoryResult{}, false
	}
	count := 0
	for i := range ev.History {
		if ev.History[i].Category == m.Category {
			count++
		}
	}
	if count < c.cfg.WeakDefaultMinCount {
		return model.CategoryResult{}, false
	}
	return model.CategoryResult{
		Category:   m.Category,
		Confidence: WeakDefaultConfidence,
		Source:     model.SourceCategoryDefault,
		Reason:     fmt.Sprintf("%q hints at %s, which has %d earlier transactions", m.Text, m.Category, count),
	}, true
}

func fallbackCategory(*Evidence) (model.CategoryResult, bool) {
	return model.CategoryResult{
		Category:   model.CategoryUncategorized,
		Confidence: FallbackConfidence,
		Source:     model.SourceFallback,
		Reason:     "no rule matched",
	}, true
}

func (c *Classifier) expenseKeyword(ev *Evidence) (model.ExpenseResult, bool) {
	desc := ev.Txn.Description
	if m, ok := c.keywords.Match(KindOneTime, desc); ok {
		return model.ExpenseResult{
			Type:       model.ExpenseOneTime,
			Confidence: KeywordConfidence,
			Source:     model.SourceOneTimeKeyword,
			Reason:     fmt.Sprintf("%q is one-time spend", m.Text),
		}, true
	}
	if m, ok := c.keywords.Match(KindRecurring, desc); ok {
		freq := m.Frequency
		if cadence, ok := cadenceOf(desc); ok {
			freq = cadence
		}
		return model.ExpenseResult{
			Type:       model.ExpenseRecurring,
			Frequency:  freq,
			Confidence: KeywordConfidence,
			Source:     model.SourceRecurringKeyword,
			Reason:     fmt.Sprintf("%q recurs %s", m.Text, freq),
		}, true
	}
	return model.ExpenseResult{}, false
}

func intervalRegularity(ev *Evidence) (model.ExpenseResult, bool) {
	a := ev.Interval
	if a == nil {
		return model.ExpenseResult{}, false
	}
	regularity := "irregular"
	if a.Regular {
		regularity = "regular"
	}
	return model.ExpenseResult{
		Type:       model.ExpenseRecurring,
		Frequency:  a.Frequency,
		Confidence: a.Confidence,
		Source:     model.SourceIntervalAnalysis,
		Reason: fmt.Sprintf("%d occurrences about %.0f days apart (%s)",
			a.Occurrences, a.MeanGapDays, regularity),
	}, true
}

func (c *Classifier) amountSpike(ev *Evidence) (model.ExpenseResult, bool) {
	txn := ev.Txn
	if !txn.Amount.IsNegative() || txn.Date.IsZero() {
		return model.ExpenseResult{}, false
	}
	avg, ok := trailingMonthlySpend(txn, ev.History, c.cfg.TrailingMonths)
	if !ok {
		return model.ExpenseResult{}, false
	}
	limit := avg.Mul(decimal.NewFromFloat(c.cfg.SpikeMultiplier))
	if txn.Amount.Abs().LessThanOrEqual(limit) {
		return model.ExpenseResult{}, false
	}
	return model.ExpenseResult{
		Type:       model.ExpenseOneTime,
		Confidence: SpikeConfidence,
		Source:     model.SourceAmountHeuristic,
		Reason: fmt.Sprintf("%s is more than %.1fx the trailing monthly spend of %s",
			txn.Amount.Abs().StringFixed(2), c.cfg.SpikeMultiplier, avg.StringFixed(2)),
	}, true
}

// trailingMonthlySpend averages the owner's outflows per month over the months
// before txn. It reports false when there was no spend in the window.
func trailingMonthlySpend(txn *model.Transaction, history []model.Transaction, months int) (decimal.Decimal, bool) {
	end := txn.Date
	start := end.AddDate(0, -months, 0)
	total := decimal.Zero
	for i := range history {
		h := &history[i]
		if h.ID == txn.ID || !h.Amount.IsNegative() {
			continue
		}
		if h.Date.Before(start) || !h.Date.Before(end) {
			continue
		}
		total = total.Add(h.Amount.Abs())
	}
	if !total.IsPositive() {
		return decimal.Zero, false
	}
	return total.Div(decimal.NewFromInt(int64(months))), true
}

func categoryDefault(ev *Evidence) (model.ExpenseResult, bool) {
	cat := ev.Category.Category
	if cat == "" || cat == model.CategoryUncategorized {
		return model.ExpenseResult{}, false
	}
	info := cat.Info()
	if info.Recurring {
		return model.ExpenseResult{
			Type:       model.ExpenseRecurring,
			Frequency:  info.DefaultFrequency,
			Confidence: CategoryHintConfidence,
			Source:     model.SourceCategoryDefault,
			Reason:     fmt.Sprintf("%s usually recurs %s", cat, info.DefaultFrequency),
		}, true
	}
	return model.ExpenseResult{
		Type:       model.ExpenseOneTime,
		Confidence: CategoryHintConfidence,
		Source:     model.SourceCategoryDefault,
		Reason:     fmt.Sprintf("%s is usually one-time", cat),
	}, true
}

func fallbackExpense(*Evidence) (model.ExpenseResult, bool) {
	return model.ExpenseResult{
		Type:       model.ExpenseOneTime,
		Confidence: ExpenseFallbackConfidence,
		Source:     model.SourceFallback,
		Reason:     "no recurrence signal",
	}, true
}
