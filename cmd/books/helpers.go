package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/the-books-must-balance/internal/balance"
	"github.com/Veraticus/the-books-must-balance/internal/classification"
	"github.com/Veraticus/the-books-must-balance/internal/common"
	"github.com/Veraticus/the-books-must-balance/internal/config"
	"github.com/Veraticus/the-books-must-balance/internal/learning"
	"github.com/Veraticus/the-books-must-balance/internal/model"
	"github.com/Veraticus/the-books-must-balance/internal/reconcile"
	"github.com/Veraticus/the-books-must-balance/internal/review"
	"github.com/Veraticus/the-books-must-balance/internal/storage"
)

// app holds the wired components for one command invocation.
type app struct {
	store      *storage.SQLiteStorage
	learner    *learning.Store
	classifier *classification.Classifier
	reconciler *reconcile.Reconciler
	queue      *review.Queue
	syncer     *balance.Synchronizer
}

// openApp opens and migrates the database and wires every component.
func openApp(ctx context.Context, c config.Config) (*app, error) {
	store, err := storage.NewSQLiteStorage(c.Database.Path)
	if err != nil {
		return nil, common.NewUserError("could not open the books database", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	opts := learning.DefaultOptions()
	opts.VendorMinConfidence = c.Classification.VendorMinConfidence
	opts.PatternMinConfidence = c.Classification.PatternMinConfidence
	opts.SimilarityMinMatches = c.Classification.SimilarityMinMatches
	opts.HistoryLimit = c.Classification.HistoryLimit
	learner := learning.NewStore(store, store, opts)

	classifier, err := classification.NewClassifier(learner, c.Classification)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	syncer := balance.NewSynchronizer(store, store, c.Classification.TrailingMonths)
	reconciler := reconcile.NewReconciler(store, syncer, reconcile.Options{
		AmountTolerance:         c.Reconciliation.AmountTolerance,
		TieEpsilon:              c.Reconciliation.TieEpsilon,
		ThreeWayAmountTolerance: c.Reconciliation.ThreeWayAmountTolerance,
		ThreeWayDiscrepancyPct:  c.Reconciliation.ThreeWayDiscrepancyPct,
	})

	return &app{
		store:      store,
		learner:    learner,
		classifier: classifier,
		reconciler: reconciler,
		queue:      review.NewQueue(store, learner, reconciler),
		syncer:     syncer,
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
	if err != nil {
		return decimal.Zero, common.Invalid("%q is not an amount", s)
	}
	return d, nil
}

func parseDay(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, common.Invalid("%q is not a date (use YYYY-MM-DD)", s)
	}
	return &d, nil
}

func parseKind(s string) (model.ObligationKind, error) {
	switch strings.ToLower(s) {
	case "receivable", "invoice":
		return model.KindReceivable, nil
	case "payable", "bill":
		return model.KindPayable, nil
	}
	return "", common.Invalid("kind must be receivable or payable, got %q", s)
}

// parsePOLine reads item:quantity:unit_price.
func parsePOLine(s string) (model.POLine, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return model.POLine{}, common.Invalid("line %q must be item:quantity:unit_price", s)
	}
	qty, err := strconv.Atoi(parts[1])
	if err != nil || qty < 0 {
		return model.POLine{}, common.Invalid("line %q has a bad quantity", s)
	}
	price, err := parseAmount(parts[2])
	if err != nil {
		return model.POLine{}, err
	}
	return model.POLine{Item: strings.TrimSpace(parts[0]), Quantity: qty, UnitPrice: price}, nil
}

// parseReceiptLine reads item:quantity.
func parseReceiptLine(s string) (model.ReceiptLine, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return model.ReceiptLine{}, common.Invalid("line %q must be item:quantity", s)
	}
	qty, err := strconv.Atoi(parts[1])
	if err != nil || qty < 0 {
		return model.ReceiptLine{}, common.Invalid("line %q has a bad quantity", s)
	}
	return model.ReceiptLine{Item: strings.TrimSpace(parts[0]), Quantity: qty}, nil
}
