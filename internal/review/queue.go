// Package review implements the human review queue for low-confidence and
// ambiguous transactions.
package review

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/Veraticus/the-books-must-balance/internal/common"
	"github.com/Veraticus/the-books-must-balance/internal/model"
	"github.com/Veraticus/the-books-must-balance/internal/service"
)

// Learner receives reinforcement from review decisions.
type Learner interface {
	LearnFromApproval(ctx context.Context, ownerID string, category model.Category, description, vendor string) error
	LearnFromCorrection(ctx context.Context, ownerID string, oldCategory, newCategory model.Category, description, vendor string) error
}

// Matcher commits a manual match against a receivable or payable.
type Matcher interface {
	Match(ctx context.Context, txn *model.Transaction, kind model.ObligationKind, obligationID string) (*service.MatchResult, error)
}

// Decision carries the reviewer's input for an action. Category is required
// by Recategorize and TargetID by the match actions.
type Decision struct {
	Reviewer string
	Notes    string
	Category model.Category
	TargetID string
}

// allowed lists the statuses each status may move to. A transaction that was
// never queued reviews like a pending one.
var allowed = map[model.ReviewStatus][]model.ReviewStatus{
	model.ReviewNone: {
		model.ReviewApproved, model.ReviewRejected, model.ReviewRecategorized, model.ReviewMatched,
	},
	model.ReviewPending: {
		model.ReviewApproved, model.ReviewRejected, model.ReviewRecategorized, model.ReviewMatched,
	},
	model.ReviewRejected: {model.ReviewRecategorized, model.ReviewMatched},
}

// CanTransition reports whether a review may move from one status to another.
func CanTransition(from, to model.ReviewStatus) bool {
	return slices.Contains(allowed[from], to)
}

// Queue applies review actions to stored transactions.
type Queue struct {
	txns    service.TransactionStore
	learner Learner
	matcher Matcher
	now     func() time.Time
}

// NewQueue creates a review queue. learner and matcher may be nil, in which
// case learning is skipped and match actions fail.
func NewQueue(txns service.TransactionStore, learner Learner, matcher Matcher) *Queue {
	return &Queue{txns: txns, learner: learner, matcher: matcher, now: time.Now}
}

// Pending lists an owner's transactions awaiting a reviewer, oldest first.
func (q *Queue) Pending(ctx context.Context, ownerID string, limit int) ([]model.Transaction, error) {
	if ownerID == "" {
		return nil, common.Invalid("owner id is required")
	}
	needsReview := true
	return q.txns.ListTransactions(ctx, service.TransactionFilter{
		OwnerID:     ownerID,
		NeedsReview: &needsReview,
		Limit:       limit,
	})
}

// Approve confirms the current category and reinforces learning.
func (q *Queue) Approve(ctx context.Context, id string, d Decision) (*model.Transaction, error) {
	txn, err := q.load(ctx, id, model.ReviewApproved)
	if err != nil {
		return nil, err
	}

	q.stamp(txn, d, model.ReviewApproved)
	txn.NeedsReview = false
	txn.ReviewReason = model.ReasonNone
	if err := q.txns.UpdateTransaction(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to approve %s: %w", id, err)
	}

	if q.learner != nil {
		if err := q.learner.LearnFromApproval(ctx, txn.OwnerID, txn.Category, txn.Description, txn.VendorName); err != nil {
			slog.Warn("Failed to learn from approval", "transaction", id, "error", err)
		}
	}
	return txn, nil
}

// Reject keeps the transaction in the queue with reason user_rejected so it
// can be recategorized later.
func (q *Queue) Reject(ctx context.Context, id string, d Decision) (*model.Transaction, error) {
	txn, err := q.load(ctx, id, model.ReviewRejected)
	if err != nil {
		return nil, err
	}

	txn.ReviewStatus = model.ReviewRejected
	txn.ReviewedBy = d.Reviewer
	txn.ReviewNotes = d.Notes
	txn.NeedsReview = true
	txn.ReviewReason = model.ReasonUserRejected
	if err := q.txns.UpdateTransaction(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to reject %s: %w", id, err)
	}
	return txn, nil
}

// Recategorize sets a user-confirmed category and records the correction.
func (q *Queue) Recategorize(ctx context.Context, id string, d Decision) (*model.Transaction, error) {
	if !d.Category.Valid() {
		return nil, common.Invalid("recategorize needs a known category, got %q", d.Category)
	}
	txn, err := q.load(ctx, id, model.ReviewRecategorized)
	if err != nil {
		return nil, err
	}

	old := txn.Category
	q.stamp(txn, d, model.ReviewRecategorized)
	txn.ApplyCategory(model.CategoryResult{Category: d.Category, Confidence: 100, Source: model.SourceUser})
	txn.NeedsReview = false
	txn.ReviewReason = model.ReasonNone
	if err := q.txns.UpdateTransaction(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to recategorize %s: %w", id, err)
	}

	if q.learner != nil {
		if err := q.learner.LearnFromCorrection(ctx, txn.OwnerID, validOrEmpty(old), d.Category, txn.Description, txn.VendorName); err != nil {
			slog.Warn("Failed to learn from correction", "transaction", id, "error", err)
		}
	}
	return txn, nil
}

// MatchInvoice settles a receivable with an inflow.
func (q *Queue) MatchInvoice(ctx context.Context, id string, d Decision) (*model.Transaction, error) {
	return q.match(ctx, id, d, model.KindReceivable)
}

// MatchBill settles a payable with an outflow.
func (q *Queue) MatchBill(ctx context.Context, id string, d Decision) (*model.Transaction, error) {
	return q.match(ctx, id, d, model.KindPayable)
}

func (q *Queue) match(ctx context.Context, id string, d Decision, kind model.ObligationKind) (*model.Transaction, error) {
	if d.TargetID == "" {
		return nil, common.Invalid("match needs a %s id", kind)
	}
	if q.matcher == nil {
		return nil, fmt.Errorf("review queue has no matcher")
	}
	txn, err := q.load(ctx, id, model.ReviewMatched)
	if err != nil {
		return nil, err
	}
	if txn.IsMatched() {
		return nil, fmt.Errorf("transaction %s: %w", id, common.ErrAlreadyMatched)
	}

	q.stamp(txn, d, model.ReviewMatched)
	txn.NeedsReview = false
	txn.ReviewReason = model.ReasonNone
	res, err := q.matcher.Match(ctx, txn, kind, d.TargetID)
	if err != nil {
		return nil, err
	}
	return &res.Transaction, nil
}

// Delete removes a transaction that has not settled anything.
func (q *Queue) Delete(ctx context.Context, id string) error {
	if id == "" {
		return common.Invalid("transaction id is required")
	}
	txn, err := q.txns.GetTransaction(ctx, id)
	if err != nil {
		return err
	}
	if txn.IsMatched() {
		return fmt.Errorf("%w: transaction %s settles an obligation", common.ErrInvalidTransition, id)
	}
	return q.txns.DeleteTransaction(ctx, id)
}

func (q *Queue) load(ctx context.Context, id string, to model.ReviewStatus) (*model.Transaction, error) {
	if id == "" {
		return nil, common.Invalid("transaction id is required")
	}
	txn, err := q.txns.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(txn.ReviewStatus, to) {
		from := txn.ReviewStatus
		if from == model.ReviewNone {
			from = "unreviewed"
		}
		return nil, fmt.Errorf("%w: %s cannot move from %s to %s", common.ErrInvalidTransition, id, from, to)
	}
	return txn, nil
}

func (q *Queue) stamp(txn *model.Transaction, d Decision, status model.ReviewStatus) {
	now := q.now()
	txn.ReviewStatus = status
	txn.ReviewedAt = &now
	txn.ReviewedBy = d.Reviewer
	if d.Notes != "" {
		txn.ReviewNotes = d.Notes
	}
}

func validOrEmpty(c model.Category) model.Category {
	if c.Valid() {
		return c
	}
	return ""
}
