// Package reconcile matches bank transactions against open receivables and
// payables, and three-way matches procurement documents.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/the-books-must-balance/internal/common"
	"github.com/Veraticus/the-books-must-balance/internal/learning"
	"github.com/Veraticus/the-books-must-balance/internal/model"
	"github.com/Veraticus/the-books-must-balance/internal/service"
)

// Status is the outcome of an automatic reconciliation attempt.
type Status string

// Reconciliation status constants.
const (
	StatusMatched   Status = "matched"
	StatusNoMatch   Status = "no_match"
	StatusAmbiguous Status = "ambiguous"
)

// Store is the persistence the reconciler needs.
type Store interface {
	service.TransactionStore
	service.ObligationStore
	service.ProcurementStore
}

// Options tunes candidate selection and three-way matching.
type Options struct {
	AmountTolerance decimal.Decimal
	// TieEpsilon is how close two candidates' distances must be to count as tied.
	TieEpsilon              decimal.Decimal
	ThreeWayAmountTolerance decimal.Decimal
	ThreeWayDiscrepancyPct  decimal.Decimal
}

// DefaultOptions returns the documented tolerances.
func DefaultOptions() Options {
	return Options{
		AmountTolerance:         decimal.RequireFromString("0.01"),
		TieEpsilon:              decimal.RequireFromString("0.01"),
		ThreeWayAmountTolerance: decimal.NewFromInt(1),
		ThreeWayDiscrepancyPct:  decimal.NewFromInt(5),
	}
}

// Outcome reports what Reconcile did.
type Outcome struct {
	Transaction *model.Transaction
	Obligation  *model.Obligation
	Status      Status
	Candidates  []model.Obligation
	// BalanceSynced is false when the match committed but the cash balance
	// could not be updated.
	BalanceSynced bool
	// Err explains an ambiguous outcome. It wraps common.ErrAmbiguousMatch.
	Err error
}

// Reconciler matches transactions to obligations.
type Reconciler struct {
	store   Store
	balance service.BalanceSynchronizer
	opts    Options
}

// NewReconciler creates a reconciler. balance may be nil.
func NewReconciler(store Store, balance service.BalanceSynchronizer, opts Options) *Reconciler {
	return &Reconciler{store: store, balance: balance, opts: opts}
}

// KindFor returns the obligation kind a transaction can settle.
func KindFor(txn *model.Transaction) (model.ObligationKind, bool) {
	switch {
	case txn.IsInflow():
		return model.KindReceivable, true
	case txn.Amount.IsNegative():
		return model.KindPayable, true
	}
	return "", false
}

type candidate struct {
	distance decimal.Decimal
	model.Obligation
}

// Candidates returns the open obligations whose balance is within tolerance
// of the transaction amount, closest first.
func (r *Reconciler) Candidates(ctx context.Context, txn *model.Transaction) ([]model.Obligation, error) {
	cands, err := r.candidates(ctx, txn)
	if err != nil {
		return nil, err
	}
	out := make([]model.Obligation, len(cands))
	for i := range cands {
		out[i] = cands[i].Obligation
	}
	return out, nil
}

func (r *Reconciler) candidates(ctx context.Context, txn *model.Transaction) ([]candidate, error) {
	kind, ok := KindFor(txn)
	if !ok {
		return nil, nil
	}
	open, err := r.store.ListOpenObligations(ctx, txn.OwnerID, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list open %ss: %w", kind, err)
	}

	amount := txn.Amount.Abs()
	var cands []candidate
	for _, o := range open {
		if o.OwnerID != txn.OwnerID || !o.IsOpen() {
			continue
		}
		d := o.BalanceAmount.Sub(amount).Abs()
		if d.GreaterThan(r.opts.AmountTolerance) {
			continue
		}
		cands = append(cands, candidate{Obligation: o, distance: d})
	}
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].distance.LessThan(cands[j].distance)
	})
	return cands, nil
}

// Reconcile tries to settle one obligation with txn. A unique candidate is
// committed; tied candidates send the transaction to review with
// multiple_matches. txn is updated to its stored state.
func (r *Reconciler) Reconcile(ctx context.Context, txn *model.Transaction) (*Outcome, error) {
	if txn == nil || txn.OwnerID == "" {
		return nil, common.Invalid("transaction with an owner is required")
	}
	if txn.IsMatched() {
		return nil, fmt.Errorf("transaction %s: %w", txn.ID, common.ErrAlreadyMatched)
	}

	cands, err := r.candidates(ctx, txn)
	if err != nil {
		return nil, err
	}
	if len(cands) == 0 {
		return &Outcome{Status: StatusNoMatch, Transaction: txn}, nil
	}

	tied := r.narrow(txn, tiedWithBest(cands, r.opts.TieEpsilon))
	if len(tied) > 1 {
		return r.routeAmbiguous(ctx, txn, tied)
	}

	target := tied[0].Obligation
	res, synced, err := r.commit(ctx, txn, target.Kind, target.ID)
	if err != nil {
		return nil, err
	}
	*txn = res.Transaction
	return &Outcome{
		Status:        StatusMatched,
		Transaction:   txn,
		Obligation:    &res.Obligation,
		Candidates:    []model.Obligation{res.Obligation},
		BalanceSynced: synced,
	}, nil
}

// Match commits a match chosen by a person. The caller sets the review fields
// on txn; they are written together with the obligation balance.
func (r *Reconciler) Match(ctx context.Context, txn *model.Transaction, kind model.ObligationKind, obligationID string) (*service.MatchResult, error) {
	if txn == nil {
		return nil, common.Invalid("transaction is required")
	}
	if obligationID == "" {
		return nil, common.Invalid("%s id is required", kind)
	}
	res, _, err := r.commit(ctx, txn, kind, obligationID)
	return res, err
}

func (r *Reconciler) commit(ctx context.Context, txn *model.Transaction, kind model.ObligationKind, id string) (*service.MatchResult, bool, error) {
	res, err := r.store.ApplyMatch(ctx, service.MatchRequest{
		Transaction:  txn,
		Kind:         kind,
		ObligationID: id,
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to match %s %s: %w", kind, id, err)
	}

	slog.Info("Matched transaction",
		"transaction", res.Transaction.ID,
		"kind", kind,
		"obligation", id,
		"balance", res.Obligation.BalanceAmount.StringFixed(2),
		"status", res.Obligation.Status)

	if r.balance == nil {
		return res, true, nil
	}
	if err := r.balance.Apply(ctx, res.Transaction.OwnerID, res.Transaction.Amount); err != nil {
		slog.Error("Failed to sync cash balance after match",
			"owner", res.Transaction.OwnerID,
			"transaction", res.Transaction.ID,
			"error", err)
		return res, false, nil
	}
	return res, true, nil
}

func (r *Reconciler) routeAmbiguous(ctx context.Context, txn *model.Transaction, tied []candidate) (*Outcome, error) {
	updated := *txn
	updated.NeedsReview = true
	updated.ReviewReason = model.ReasonMultipleMatches
	updated.ReviewStatus = model.ReviewPending
	if err := r.store.UpdateTransaction(ctx, &updated); err != nil {
		return nil, fmt.Errorf("failed to route transaction %s to review: %w", txn.ID, err)
	}
	*txn = updated

	out := &Outcome{Status: StatusAmbiguous, Transaction: txn}
	ids := make([]string, 0, len(tied))
	for _, c := range tied {
		out.Candidates = append(out.Candidates, c.Obligation)
		ids = append(ids, c.ID)
	}
	out.Err = fmt.Errorf("%w: %s ties %s", common.ErrAmbiguousMatch, txn.ID, strings.Join(ids, ", "))
	slog.Info("Ambiguous match routed to review",
		"transaction", txn.ID,
		"candidates", len(tied))
	return out, nil
}

func tiedWithBest(cands []candidate, epsilon decimal.Decimal) []candidate {
	best := cands[0].distance
	n := 1
	for n < len(cands) && cands[n].distance.Sub(best).LessThanOrEqual(epsilon) {
		n++
	}
	return cands[:n]
}

// narrow breaks ties first by an obligation number quoted in the
// description, then by counterparty name overlap.
func (r *Reconciler) narrow(txn *model.Transaction, tied []candidate) []candidate {
	if len(tied) < 2 {
		return tied
	}

	desc := alnum(txn.Description)
	var referenced []candidate
	for _, c := range tied {
		if num := alnum(c.Number); len(num) >= 3 && strings.Contains(desc, num) {
			referenced = append(referenced, c)
		}
	}
	if len(referenced) > 0 {
		tied = referenced
	}
	if len(tied) < 2 {
		return tied
	}

	words := strings.Fields(learning.VendorKey(txn.VendorName + " " + txn.Description))
	var best []candidate
	bestScore := 0.0
	for _, c := range tied {
		score := jaccard(words, strings.Fields(learning.VendorKey(c.Counterparty)))
		switch {
		case score > bestScore:
			best, bestScore = []candidate{c}, score
		case score == bestScore && score > 0:
			best = append(best, c)
		}
	}
	if bestScore > 0 {
		return best
	}
	return tied
}

func alnum(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]bool, len(a))
	for _, w := range a {
		set[w] = true
	}
	inter := 0
	union := len(set)
	seen := make(map[string]bool, len(b))
	for _, w := range b {
		if seen[w] {
			continue
		}
		seen[w] = true
		if set[w] {
			inter++
		} else {
			union++
		}
	}
	return float64(inter) / float64(union)
}
