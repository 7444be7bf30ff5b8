package classification

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/Veraticus/the-books-must-balance/internal/common"
	"github.com/Veraticus/the-books-must-balance/internal/config"
	"github.com/Veraticus/the-books-must-balance/internal/learning"
	"github.com/Veraticus/the-books-must-balance/internal/model"
)

// Knowledge supplies learned mappings and owner history.
type Knowledge interface {
	VendorMapping(ctx context.Context, ownerID, vendor string) (*model.VendorMapping, error)
	PatternMapping(ctx context.Context, ownerID, description string) (*model.PatternMapping, error)
	History(ctx context.Context, ownerID string) ([]model.Transaction, error)
}

// Result is a classified copy of a transaction with the reasoning behind it.
type Result struct {
	Interval    *IntervalAnalysis
	Category    model.CategoryResult
	Expense     model.ExpenseResult
	Transaction model.Transaction
}

// Classifier runs the category and expense-type cascades.
type Classifier struct {
	knowledge    Knowledge
	keywords     *KeywordDetector
	categoryRule []Rule
	expenseRule  []ExpenseRule
	cfg          config.ClassificationConfig
}

// NewClassifier creates a classifier with the built-in keyword tables.
func NewClassifier(knowledge Knowledge, cfg config.ClassificationConfig) (*Classifier, error) {
	return NewClassifierWithKeywords(knowledge, cfg, DefaultKeywords())
}

// NewClassifierWithKeywords creates a classifier with custom keyword tables.
func NewClassifierWithKeywords(knowledge Knowledge, cfg config.ClassificationConfig, keywords []Keyword) (*Classifier, error) {
	if knowledge == nil {
		return nil, fmt.Errorf("classifier requires a knowledge source")
	}
	detector, err := NewKeywordDetector(keywords)
	if err != nil {
		return nil, err
	}
	c := &Classifier{knowledge: knowledge, keywords: detector, cfg: cfg}
	c.categoryRule = c.CategoryRules()
	c.expenseRule = c.ExpenseRules()
	return c, nil
}

// Classify loads the owner's history and classifies txn. txn itself is not
// modified; the enriched copy is in the result.
func (c *Classifier) Classify(ctx context.Context, txn *model.Transaction) (*Result, error) {
	if err := checkClassifiable(txn); err != nil {
		return nil, err
	}
	history, err := c.knowledge.History(ctx, txn.OwnerID)
	if err != nil {
		return nil, err
	}
	return c.ClassifyWithHistory(ctx, txn, history)
}

// ClassifyWithHistory classifies txn against a history snapshot, so batch
// callers can load history once.
func (c *Classifier) ClassifyWithHistory(ctx context.Context, txn *model.Transaction, history []model.Transaction) (*Result, error) {
	if err := checkClassifiable(txn); err != nil {
		return nil, err
	}

	ev, err := c.gather(ctx, txn, history)
	if err != nil {
		return nil, err
	}

	res := &Result{Transaction: *txn, Interval: ev.Interval}
	ev.Txn = &res.Transaction

	for _, r := range c.categoryRule {
		if out, ok := r.Apply(ev); ok {
			res.Category = out
			break
		}
	}
	ev.Category = res.Category
	for _, r := range c.expenseRule {
		if out, ok := r.Apply(ev); ok {
			res.Expense = out
			break
		}
	}

	out := &res.Transaction
	out.ApplyCategory(res.Category)
	out.ApplyExpense(res.Expense)
	c.flagForReview(out)
	if !out.IsMatched() {
		out.TransactionType = transactionType(out)
	}

	slog.Debug("Classified transaction",
		"id", out.ID,
		"category", out.Category,
		"confidence", out.Confidence,
		"source", res.Category.Source,
		"expense_type", out.ExpenseType,
		"frequency", out.Frequency,
		"needs_review", out.NeedsReview)
	return res, nil
}

// ClassifyBatch classifies transactions against one history snapshot. The
// batch is walked in date order and each transaction also sees the already
// classified batch transactions dated before it, so recurrences inside a
// single statement are detected. Results keep the input order.
func (c *Classifier) ClassifyBatch(ctx context.Context, txns []model.Transaction, history []model.Transaction) ([]Result, error) {
	order := make([]int, len(txns))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return txns[order[a]].Date.Before(txns[order[b]].Date)
	})

	snapshot := make([]model.Transaction, len(history), len(history)+len(txns))
	copy(snapshot, history)
	results := make([]Result, len(txns))
	for _, i := range order {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		res, err := c.ClassifyWithHistory(ctx, &txns[i], snapshot)
		if err != nil {
			return nil, fmt.Errorf("failed to classify transaction %s: %w", txns[i].ID, err)
		}
		results[i] = *res
		snapshot = append(snapshot, res.Transaction)
	}
	return results, nil
}

func (c *Classifier) gather(ctx context.Context, txn *model.Transaction, history []model.Transaction) (*Evidence, error) {
	vendor, err := c.knowledge.VendorMapping(ctx, txn.OwnerID, txn.VendorName)
	if err != nil {
		return nil, fmt.Errorf("failed to look up vendor mapping: %w", err)
	}
	pattern, err := c.knowledge.PatternMapping(ctx, txn.OwnerID, txn.Description)
	if err != nil {
		return nil, fmt.Errorf("failed to look up pattern mapping: %w", err)
	}

	ev := &Evidence{Txn: txn, Vendor: vendor, Pattern: pattern, History: history}
	if a, ok := AnalyzeIntervals(sameVendorDates(txn, history, c.cfg.AmountTolerancePct)); ok {
		ev.Interval = &a
	}
	return ev, nil
}

// flagForReview sets or clears the confidence-driven review reasons. A tied
// reconciliation match stays queued until a reviewer resolves it.
func (c *Classifier) flagForReview(t *model.Transaction) {
	if t.ReviewReason == model.ReasonMultipleMatches {
		t.NeedsReview = true
		t.ReviewStatus = model.ReviewPending
		return
	}
	if t.Confidence >= c.cfg.AutoApproveThreshold {
		t.NeedsReview = false
		t.ReviewReason = model.ReasonNone
		t.ReviewStatus = model.ReviewNone
		return
	}
	t.NeedsReview = true
	t.ReviewStatus = model.ReviewPending
	t.ReviewReason = model.ReasonLowConfidence
	if unclearDescription(t.Description) {
		t.ReviewReason = model.ReasonUnclearDescription
	}
}

func unclearDescription(desc string) bool {
	d := strings.TrimSpace(desc)
	if d == "" || d == model.PlaceholderDescription || len(d) < 4 {
		return true
	}
	return len(learning.SignificantWords(d)) == 0
}

func transactionType(t *model.Transaction) model.TransactionType {
	switch {
	case t.Category == model.CategoryTransfers:
		return model.TypeTransfer
	case t.IsInflow():
		return model.TypeRevenue
	case t.Amount.IsNegative():
		return model.TypeExpense
	}
	return model.TypeUnknown
}

func checkClassifiable(txn *model.Transaction) error {
	if txn == nil {
		return common.Invalid("transaction is required")
	}
	if txn.OwnerID == "" {
		return common.Invalid("transaction %s has no owner", txn.ID)
	}
	if txn.ReviewStatus != model.ReviewNone && txn.ReviewStatus != model.ReviewPending {
		return fmt.Errorf("%w: transaction %s is already %s", common.ErrInvalidTransition, txn.ID, txn.ReviewStatus)
	}
	return nil
}
