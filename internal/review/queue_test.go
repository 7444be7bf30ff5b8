package review

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-books-must-balance/internal/common"
	"github.com/Veraticus/the-books-must-balance/internal/learning"
	"github.com/Veraticus/the-books-must-balance/internal/model"
	"github.com/Veraticus/the-books-must-balance/internal/reconcile"
	"github.com/Veraticus/the-books-must-balance/internal/testutil"
)

type fixture struct {
	db      *testutil.TestDB
	queue   *Queue
	learner *learning.Store
}

func newFixture(t *testing.T, opts testutil.TestDBOptions) *fixture {
	t.Helper()
	db := testutil.SetupTestDBWithOptions(t, opts)
	learner := learning.NewStore(db.Storage, db.Storage, learning.DefaultOptions())
	matcher := reconcile.NewReconciler(db.Storage, nil, reconcile.DefaultOptions())
	q := NewQueue(db.Storage, learner, matcher)
	q.now = func() time.Time { return time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC) }
	return &fixture{db: db, queue: q, learner: learner}
}

func pending(id, desc, vendor string, amount float64, c model.Category) model.Transaction {
	return testutil.NewTransaction("owner-1").WithID(id).Amount(amount).Description(desc).Vendor(vendor).
		Category(c, 45).Pending(model.ReasonLowConfidence).Build()
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to model.ReviewStatus
		want     bool
	}{
		{model.ReviewPending, model.ReviewApproved, true},
		{model.ReviewPending, model.ReviewRejected, true},
		{model.ReviewPending, model.ReviewRecategorized, true},
		{model.ReviewPending, model.ReviewMatched, true},
		{model.ReviewRejected, model.ReviewRecategorized, true},
		{model.ReviewRejected, model.ReviewMatched, true},
		{model.ReviewRejected, model.ReviewApproved, false},
		{model.ReviewRejected, model.ReviewRejected, false},
		{model.ReviewApproved, model.ReviewRecategorized, false},
		{model.ReviewRecategorized, model.ReviewApproved, false},
		{model.ReviewMatched, model.ReviewRejected, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestApprove(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testutil.TestDBOptions{Transactions: []model.Transaction{
		pending("t1", "LINEAR APP", "Linear", -8, model.CategorySoftware),
	}})

	txn, err := f.queue.Approve(ctx, "t1", Decision{Reviewer: "sam", Notes: "ok"})
	require.NoError(t, err)
	assert.Equal(t, model.ReviewApproved, txn.ReviewStatus)
	assert.False(t, txn.NeedsReview)
	assert.Equal(t, model.ReasonNone, txn.ReviewReason)

	stored := f.db.MustGetTransaction("t1")
	assert.Equal(t, model.ReviewApproved, stored.ReviewStatus)
	assert.Equal(t, "sam", stored.ReviewedBy)
	assert.Equal(t, "ok", stored.ReviewNotes)
	require.NotNil(t, stored.ReviewedAt)
	assert.Equal(t, 45, stored.Confidence, "approval keeps the classifier confidence")

	vm, err := f.learner.VendorMapping(ctx, "owner-1", "Linear")
	require.NoError(t, err)
	require.NotNil(t, vm)
	assert.Equal(t, model.CategorySoftware, vm.Category)
	assert.Equal(t, learning.VendorBaseline, vm.Confidence)

	_, err = f.queue.Reject(ctx, "t1", Decision{})
	assert.ErrorIs(t, err, common.ErrInvalidTransition, "approved is terminal")
}

func TestRejectThenRecategorize(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testutil.TestDBOptions{Transactions: []model.Transaction{
		pending("t1", "UBER BV", "Uber", -23, model.CategorySoftware),
	}})

	txn, err := f.queue.Reject(ctx, "t1", Decision{Reviewer: "sam", Notes: "not software"})
	require.NoError(t, err)
	assert.True(t, txn.NeedsReview)
	assert.Equal(t, model.ReasonUserRejected, txn.ReviewReason)
	assert.Equal(t, model.ReviewRejected, txn.ReviewStatus)
	assert.Nil(t, txn.ReviewedAt)

	_, err = f.queue.Approve(ctx, "t1", Decision{})
	assert.ErrorIs(t, err, common.ErrInvalidTransition)

	txn, err = f.queue.Recategorize(ctx, "t1", Decision{Reviewer: "sam", Category: model.CategoryTravel})
	require.NoError(t, err)
	assert.Equal(t, model.CategoryTravel, txn.Category)
	assert.Equal(t, 100, txn.Confidence)
	assert.False(t, txn.NeedsReview)
	assert.Equal(t, model.ReviewRecategorized, txn.ReviewStatus)
	assert.Equal(t, "not software", txn.ReviewNotes, "earlier notes survive an empty note")

	vm, err := f.learner.VendorMapping(ctx, "owner-1", "Uber")
	require.NoError(t, err)
	assert.Equal(t, model.CategoryTravel, vm.Category)
}

func TestRecategorize_RequiresCategory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testutil.TestDBOptions{Transactions: []model.Transaction{
		pending("t1", "MYSTERY", "", -10, model.CategoryUncategorized),
	}})

	for _, c := range []model.Category{"", "Groceries"} {
		_, err := f.queue.Recategorize(ctx, "t1", Decision{Category: c})
		assert.ErrorIs(t, err, common.ErrInvalidInput)
	}

	stored := f.db.MustGetTransaction("t1")
	assert.Equal(t, model.ReviewPending, stored.ReviewStatus)
	assert.Equal(t, model.CategoryUncategorized, stored.Category)

	_, err := f.queue.Recategorize(ctx, "missing", Decision{Category: model.CategoryRent})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestMatchInvoice_PartialThenSettled(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testutil.TestDBOptions{
		Transactions: []model.Transaction{
			pending("t1", "ACME PART 1", "Acme", 4000, model.CategoryRevenue),
			pending("t2", "ACME PART 2", "Acme", 6000, model.CategoryRevenue),
			pending("t3", "ACME PART 3", "Acme", 50, model.CategoryRevenue),
		},
		Obligations: []model.Obligation{testutil.Receivable("owner-1", "inv-1", 10000)},
	})

	_, err := f.queue.MatchInvoice(ctx, "t1", Decision{})
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	txn, err := f.queue.MatchInvoice(ctx, "t1", Decision{Reviewer: "sam", TargetID: "inv-1"})
	require.NoError(t, err)
	assert.Equal(t, model.ReviewMatched, txn.ReviewStatus)
	assert.False(t, txn.NeedsReview)
	assert.Equal(t, "inv-1", txn.MatchedReceivableID)

	inv := f.db.MustGetObligation(model.KindReceivable, "inv-1")
	assert.Equal(t, "4000", inv.PaidAmount.String())
	assert.Equal(t, "6000", inv.BalanceAmount.String())
	assert.Equal(t, model.StatusPartial, inv.Status)

	_, err = f.queue.MatchInvoice(ctx, "t2", Decision{TargetID: "inv-1"})
	require.NoError(t, err)
	inv = f.db.MustGetObligation(model.KindReceivable, "inv-1")
	assert.True(t, inv.BalanceAmount.IsZero())
	assert.Equal(t, model.StatusSettled, inv.Status)

	// Failures leave the transaction as it was.
	_, err = f.queue.MatchInvoice(ctx, "t3", Decision{TargetID: "inv-1"})
	assert.ErrorIs(t, err, common.ErrObligationClosed)
	_, err = f.queue.MatchBill(ctx, "t3", Decision{TargetID: "bill-404"})
	assert.ErrorIs(t, err, common.ErrNotFound)
	stored := f.db.MustGetTransaction("t3")
	assert.Equal(t, model.ReviewPending, stored.ReviewStatus)
	assert.True(t, stored.NeedsReview)
	assert.False(t, stored.IsMatched())

	_, err = f.queue.MatchInvoice(ctx, "t1", Decision{TargetID: "inv-1"})
	assert.ErrorIs(t, err, common.ErrInvalidTransition)
}

func TestBulkApprove_PartialSuccess(t *testing.T) {
	ctx := context.Background()
	done := pending("t3", "DONE", "", -5, model.CategoryRent)
	done.ReviewStatus = model.ReviewApproved
	f := newFixture(t, testutil.TestDBOptions{Transactions: []model.Transaction{
		pending("t1", "RENT OFFICE", "", -900, model.CategoryRent),
		pending("t2", "RENT DESK", "", -300, model.CategoryRent),
		done,
	}})

	results := f.queue.BulkApprove(ctx, []string{"t1", "missing", "t3", "t2"}, Decision{Reviewer: "sam"})
	require.Len(t, results, 4)

	assert.True(t, results[0].OK())
	assert.Equal(t, "not_found", results[1].Reason())
	assert.Equal(t, "invalid_transition", results[2].Reason())
	assert.True(t, results[3].OK(), "earlier failures do not block later items")
	assert.Equal(t, model.ReviewApproved, results[3].Transaction.ReviewStatus)

	ok, failed := Summary(results)
	assert.Equal(t, 2, ok)
	assert.Equal(t, 2, failed)
}

func TestBulkRecategorize_InvalidInputTouchesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testutil.TestDBOptions{Transactions: []model.Transaction{
		pending("t1", "A THING", "", -1, model.CategoryUncategorized),
		pending("t2", "B THING", "", -2, model.CategoryUncategorized),
	}})

	results := f.queue.BulkRecategorize(ctx, []string{"t1", "t2"}, Decision{})
	for _, r := range results {
		assert.Equal(t, "invalid_input", r.Reason())
	}
	assert.Equal(t, model.ReviewPending, f.db.MustGetTransaction("t1").ReviewStatus)

	results = f.queue.BulkRecategorize(ctx, []string{"t1", "t2"}, Decision{Category: model.CategoryEvents})
	ok, failed := Summary(results)
	assert.Equal(t, 2, ok)
	assert.Zero(t, failed)
}

func TestBulkRejectAndDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testutil.TestDBOptions{
		Transactions: []model.Transaction{
			pending("t1", "ONE", "", 100, model.CategoryRevenue),
			pending("t2", "TWO", "", -20, model.CategoryUncategorized),
		},
		Obligations: []model.Obligation{testutil.Receivable("owner-1", "inv-1", 100)},
	})

	results := f.queue.BulkReject(ctx, []string{"t1", "t2"}, Decision{Notes: "check"})
	ok, _ := Summary(results)
	assert.Equal(t, 2, ok)

	list, err := f.queue.Pending(ctx, "owner-1", 0)
	require.NoError(t, err)
	assert.Len(t, list, 2, "rejected items stay in the queue")

	_, err = f.queue.MatchInvoice(ctx, "t1", Decision{TargetID: "inv-1"})
	require.NoError(t, err)

	results = f.queue.BulkDelete(ctx, []string{"t1", "t2", "t2"})
	assert.Equal(t, "invalid_transition", results[0].Reason(), "matched transactions cannot be deleted")
	assert.True(t, results[1].OK())
	assert.Equal(t, "not_found", results[2].Reason())

	list, err = f.queue.Pending(ctx, "owner-1", 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestBulk_CanceledContext(t *testing.T) {
	f := newFixture(t, testutil.TestDBOptions{Transactions: []model.Transaction{
		pending("t1", "ONE", "", -1, model.CategoryRent),
	}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := f.queue.BulkApprove(ctx, []string{"t1"}, Decision{})
	require.Len(t, results, 1)
	assert.Equal(t, "canceled", results[0].Reason())
	assert.Equal(t, model.ReviewPending, f.db.MustGetTransaction("t1").ReviewStatus)
}
