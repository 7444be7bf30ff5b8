package review

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Veraticus/the-books-must-balance/internal/common"
	"github.com/Veraticus/the-books-must-balance/internal/model"
)

// ItemResult is the outcome of a bulk action for one transaction.
type ItemResult struct {
	Err         error
	Transaction *model.Transaction
	ID          string
}

// OK reports whether the action succeeded for this item.
func (r ItemResult) OK() bool {
	return r.Err == nil
}

// Reason is a short code explaining a failure, or "" on success.
func (r ItemResult) Reason() string {
	switch {
	case r.Err == nil:
		return ""
	case errors.Is(r.Err, common.ErrNotFound):
		return "not_found"
	case errors.Is(r.Err, common.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(r.Err, common.ErrAlreadyMatched):
		return "already_matched"
	case errors.Is(r.Err, common.ErrObligationClosed):
		return "obligation_closed"
	case errors.Is(r.Err, common.ErrDirectionMismatch):
		return "direction_mismatch"
	case errors.Is(r.Err, common.ErrOwnerMismatch):
		return "owner_mismatch"
	case errors.Is(r.Err, common.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(r.Err, context.Canceled), errors.Is(r.Err, context.DeadlineExceeded):
		return "canceled"
	}
	return "error"
}

// Summary counts successes and failures.
func Summary(results []ItemResult) (succeeded, failed int) {
	for _, r := range results {
		if r.OK() {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}

// BulkApprove approves each id independently.
func (q *Queue) BulkApprove(ctx context.Context, ids []string, d Decision) []ItemResult {
	return q.each(ctx, "approve", ids, func(id string) (*model.Transaction, error) {
		return q.Approve(ctx, id, d)
	})
}

// BulkReject rejects each id independently.
func (q *Queue) BulkReject(ctx context.Context, ids []string, d Decision) []ItemResult {
	return q.each(ctx, "reject", ids, func(id string) (*model.Transaction, error) {
		return q.Reject(ctx, id, d)
	})
}

// BulkRecategorize moves each id to d.Category. A missing category fails every
// item without touching any of them.
func (q *Queue) BulkRecategorize(ctx context.Context, ids []string, d Decision) []ItemResult {
	return q.each(ctx, "recategorize", ids, func(id string) (*model.Transaction, error) {
		return q.Recategorize(ctx, id, d)
	})
}

// BulkDelete deletes each id independently.
func (q *Queue) BulkDelete(ctx context.Context, ids []string) []ItemResult {
	return q.each(ctx, "delete", ids, func(id string) (*model.Transaction, error) {
		return nil, q.Delete(ctx, id)
	})
}

func (q *Queue) each(ctx context.Context, action string, ids []string, fn func(id string) (*model.Transaction, error)) []ItemResult {
	results := make([]ItemResult, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			results = append(results, ItemResult{ID: id, Err: err})
			continue
		}
		txn, err := fn(id)
		results = append(results, ItemResult{ID: id, Transaction: txn, Err: err})
	}

	ok, failed := Summary(results)
	slog.Info("Bulk review action",
		"action", action,
		"requested", len(ids),
		"succeeded", ok,
		"failed", failed)
	return results
}
