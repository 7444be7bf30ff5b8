package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-books-must-balance/internal/common"
	"github.com/Veraticus/the-books-must-balance/internal/model"
	"github.com/Veraticus/the-books-must-balance/internal/testutil"
)

type recordingBalance struct {
	err    error
	deltas []decimal.Decimal
	mu     sync.Mutex
}

func (b *recordingBalance) Apply(_ context.Context, _ string, delta decimal.Decimal) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deltas = append(b.deltas, delta)
	return b.err
}

func setup(t *testing.T, obligations ...model.Obligation) (*Reconciler, *testutil.TestDB, *recordingBalance) {
	t.Helper()
	db := testutil.SetupTestDBWithOptions(t, testutil.TestDBOptions{Obligations: obligations})
	bal := &recordingBalance{}
	return NewReconciler(db.Storage, bal, DefaultOptions()), db, bal
}

func seeded(db *testutil.TestDB, b *testutil.TransactionBuilder) *model.Transaction {
	txn := b.Build()
	db.SeedTransactions(txn)
	return db.MustGetTransaction(txn.ID)
}

func TestReconcile_PartialThenSettled(t *testing.T) {
	ctx := context.Background()
	r, db, bal := setup(t, testutil.Receivable("owner-1", "inv-1", 10000))

	first := seeded(db, testutil.NewTransaction("owner-1").On(2024, 3, 1).Amount(4000).Description("CLIENT PART PAYMENT"))

	// 4000 is not within tolerance of the 10000 balance, so nothing auto-matches.
	out, err := r.Reconcile(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, StatusNoMatch, out.Status)

	res, err := r.Match(ctx, first, model.KindReceivable, "inv-1")
	require.NoError(t, err)
	assert.Equal(t, "4000", res.Obligation.PaidAmount.String())
	assert.Equal(t, "6000", res.Obligation.BalanceAmount.String())
	assert.Equal(t, model.StatusPartial, res.Obligation.Status)
	assert.Equal(t, "inv-1", res.Transaction.MatchedReceivableID)
	assert.Equal(t, model.TypeInvoicePayment, res.Transaction.TransactionType)

	second := seeded(db, testutil.NewTransaction("owner-1").On(2024, 3, 20).Amount(6000).Description("CLIENT FINAL PAYMENT"))
	out, err = r.Reconcile(ctx, second)
	require.NoError(t, err)
	require.Equal(t, StatusMatched, out.Status)
	assert.True(t, out.BalanceSynced)
	assert.True(t, out.Obligation.BalanceAmount.IsZero())
	assert.Equal(t, model.StatusSettled, out.Obligation.Status)
	assert.Equal(t, "inv-1", second.MatchedReceivableID, "caller's transaction is updated")

	stored := db.MustGetObligation(model.KindReceivable, "inv-1")
	assert.Equal(t, "10000", stored.PaidAmount.String())
	assert.True(t, stored.BalanceAmount.Equal(decimal.Max(decimal.Zero, stored.TotalAmount.Sub(stored.PaidAmount))))

	require.Len(t, bal.deltas, 2)
	assert.Equal(t, "4000", bal.deltas[0].String())
	assert.Equal(t, "6000", bal.deltas[1].String())
}

func TestReconcile_Payable(t *testing.T) {
	ctx := context.Background()
	bill := testutil.Payable("owner-1", "bill-7", 249.99)
	r, db, bal := setup(t, bill, testutil.Receivable("owner-1", "inv-1", 249.99))

	txn := seeded(db, testutil.NewTransaction("owner-1").Amount(-249.99).Description("VENDOR PAYMENT"))
	out, err := r.Reconcile(ctx, txn)
	require.NoError(t, err)
	require.Equal(t, StatusMatched, out.Status)
	assert.Equal(t, "bill-7", out.Obligation.ID)
	assert.Equal(t, model.TypeBillPayment, txn.TransactionType)
	assert.Equal(t, "-249.99", bal.deltas[0].String())
}

func TestReconcile_ToleranceAndOwner(t *testing.T) {
	ctx := context.Background()
	other := testutil.Receivable("owner-2", "inv-x", 300)
	r, db, _ := setup(t, testutil.Receivable("owner-1", "inv-1", 300.02), other)

	txn := seeded(db, testutil.NewTransaction("owner-1").Amount(300).Description("PAYMENT"))
	out, err := r.Reconcile(ctx, txn)
	require.NoError(t, err)
	assert.Equal(t, StatusNoMatch, out.Status, "0.02 is outside the default tolerance and inv-x belongs to another owner")

	opts := DefaultOptions()
	opts.AmountTolerance = decimal.RequireFromString("0.05")
	r = NewReconciler(db.Storage, nil, opts)
	out, err = r.Reconcile(ctx, txn)
	require.NoError(t, err)
	assert.Equal(t, StatusMatched, out.Status)
	assert.Equal(t, "inv-1", out.Obligation.ID)
}

func TestReconcile_AmbiguousRoutesToReview(t *testing.T) {
	ctx := context.Background()
	a := testutil.Receivable("owner-1", "inv-a", 500)
	a.Counterparty = "Globex"
	b := testutil.Receivable("owner-1", "inv-b", 500)
	b.Counterparty = "Initech"
	r, db, bal := setup(t, a, b)

	txn := seeded(db, testutil.NewTransaction("owner-1").Amount(500).Description("NEFT CREDIT"))
	out, err := r.Reconcile(ctx, txn)
	require.NoError(t, err)
	assert.Equal(t, StatusAmbiguous, out.Status)
	assert.Len(t, out.Candidates, 2)
	assert.ErrorIs(t, out.Err, common.ErrAmbiguousMatch)
	assert.Empty(t, bal.deltas)

	stored := db.MustGetTransaction(txn.ID)
	assert.True(t, stored.NeedsReview)
	assert.Equal(t, model.ReasonMultipleMatches, stored.ReviewReason)
	assert.Equal(t, model.ReviewPending, stored.ReviewStatus)
	assert.False(t, stored.IsMatched())

	for _, id := range []string{"inv-a", "inv-b"} {
		o := db.MustGetObligation(model.KindReceivable, id)
		assert.True(t, o.PaidAmount.IsZero(), "%s must be untouched", id)
	}
}

func TestReconcile_TieBreakers(t *testing.T) {
	ctx := context.Background()

	t.Run("invoice number in description", func(t *testing.T) {
		r, db, _ := setup(t,
			testutil.Receivable("owner-1", "INV-1001", 750),
			testutil.Receivable("owner-1", "INV-1002", 750),
		)
		txn := seeded(db, testutil.NewTransaction("owner-1").Amount(750).Description("Payment for inv 1002"))
		out, err := r.Reconcile(ctx, txn)
		require.NoError(t, err)
		require.Equal(t, StatusMatched, out.Status)
		assert.Equal(t, "INV-1002", out.Obligation.ID)
	})

	t.Run("counterparty name", func(t *testing.T) {
		a := testutil.Receivable("owner-1", "inv-a", 500)
		a.Counterparty = "Globex Corporation"
		b := testutil.Receivable("owner-1", "inv-b", 500)
		b.Counterparty = "Initech LLC"
		r, db, _ := setup(t, a, b)

		txn := seeded(db, testutil.NewTransaction("owner-1").Amount(500).Description("NEFT GLOBEX").Vendor("Globex"))
		out, err := r.Reconcile(ctx, txn)
		require.NoError(t, err)
		require.Equal(t, StatusMatched, out.Status)
		assert.Equal(t, "inv-a", out.Obligation.ID)
	})

	t.Run("closest balance wins outside epsilon", func(t *testing.T) {
		opts := DefaultOptions()
		opts.AmountTolerance = decimal.NewFromInt(5)
		db := testutil.SetupTestDBWithOptions(t, testutil.TestDBOptions{Obligations: []model.Obligation{
			testutil.Receivable("owner-1", "inv-near", 100.50),
			testutil.Receivable("owner-1", "inv-far", 103),
		}})
		r := NewReconciler(db.Storage, nil, opts)
		txn := seeded(db, testutil.NewTransaction("owner-1").Amount(100).Description("PAYMENT"))
		out, err := r.Reconcile(ctx, txn)
		require.NoError(t, err)
		require.Equal(t, StatusMatched, out.Status)
		assert.Equal(t, "inv-near", out.Obligation.ID)
	})
}

func TestReconcile_Rejections(t *testing.T) {
	ctx := context.Background()
	r, db, _ := setup(t, testutil.Receivable("owner-1", "inv-1", 100))

	_, err := r.Reconcile(ctx, nil)
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	txn := seeded(db, testutil.NewTransaction("owner-1").Amount(100).Description("PAYMENT"))
	_, err = r.Reconcile(ctx, txn)
	require.NoError(t, err)
	_, err = r.Reconcile(ctx, txn)
	assert.ErrorIs(t, err, common.ErrAlreadyMatched)

	out := seeded(db, testutil.NewTransaction("owner-1").Amount(-100).Description("REFUND"))
	_, err = r.Match(ctx, out, model.KindReceivable, "inv-1")
	assert.ErrorIs(t, err, common.ErrObligationClosed)

	_, err = r.Match(ctx, out, model.KindReceivable, "")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestReconcile_BalanceFailureKeepsMatch(t *testing.T) {
	ctx := context.Background()
	r, db, bal := setup(t, testutil.Payable("owner-1", "bill-1", 80))
	bal.err = errors.New("ledger offline")

	txn := seeded(db, testutil.NewTransaction("owner-1").Amount(-80).Description("PLUMBER"))
	out, err := r.Reconcile(ctx, txn)
	require.NoError(t, err)
	assert.Equal(t, StatusMatched, out.Status)
	assert.False(t, out.BalanceSynced)
	assert.Equal(t, model.StatusSettled, db.MustGetObligation(model.KindPayable, "bill-1").Status)
}
