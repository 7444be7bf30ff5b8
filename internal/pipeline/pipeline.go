// Package pipeline runs a statement upload end to end: parse, dedup,
// classify, save and reconcile.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Veraticus/the-books-must-balance/internal/classification"
	"github.com/Veraticus/the-books-must-balance/internal/common"
	"github.com/Veraticus/the-books-must-balance/internal/model"
	"github.com/Veraticus/the-books-must-balance/internal/reconcile"
	"github.com/Veraticus/the-books-must-balance/internal/service"
	"github.com/Veraticus/the-books-must-balance/internal/statement"
)

// Classifier classifies a batch against one history snapshot.
type Classifier interface {
	ClassifyBatch(ctx context.Context, txns []model.Transaction, history []model.Transaction) ([]classification.Result, error)
}

// HistorySource supplies the owner's recent transactions.
type HistorySource interface {
	History(ctx context.Context, ownerID string) ([]model.Transaction, error)
}

// Reconciler settles obligations with saved transactions.
type Reconciler interface {
	Reconcile(ctx context.Context, txn *model.Transaction) (*reconcile.Outcome, error)
}

// Progress is advanced once per transaction as it is reconciled.
// *progressbar.ProgressBar satisfies it.
type Progress interface {
	Add(n int) error
}

// Options controls a pipeline.
type Options struct {
	// NewProgress, if set, is called with the number of transactions to
	// reconcile before the first one starts.
	NewProgress func(total int) Progress
	// Dedup skips rows whose hash is already stored or repeated in the upload.
	Dedup bool
}

// DefaultOptions deduplicates without progress output.
func DefaultOptions() Options {
	return Options{Dedup: true}
}

// Report summarizes one run.
type Report struct {
	Format         statement.Format
	Errors         []statement.LineError
	SkippedRows    []statement.SkippedRow
	Transactions   []model.Transaction
	Parsed         int
	Saved          int
	Duplicates     int
	Skipped        int
	NeedsReview    int
	Matched        int
	Ambiguous      int
	ReconcileFails int
}

// Pipeline wires the stages together.
type Pipeline struct {
	txns       service.TransactionStore
	classifier Classifier
	history    HistorySource
	reconciler Reconciler
	opts       Options
}

// New creates a pipeline. reconciler may be nil to skip matching.
func New(txns service.TransactionStore, classifier Classifier, history HistorySource, reconciler Reconciler, opts Options) *Pipeline {
	return &Pipeline{txns: txns, classifier: classifier, history: history, reconciler: reconciler, opts: opts}
}

// Run imports one statement for ownerID. Parse problems are reported, not
// returned; an error means a stage could not run at all.
func (p *Pipeline) Run(ctx context.Context, ownerID string, data []byte, hint statement.Format) (*Report, error) {
	if ownerID == "" {
		return nil, common.Invalid("owner id is required")
	}
	if hint == "" {
		hint = statement.FormatAuto
	}

	parsed := statement.Parse(data, hint)
	report := &Report{
		Format:      parsed.Format,
		Errors:      parsed.Errors,
		SkippedRows: parsed.SkippedRows,
		Parsed:      len(parsed.Transactions),
		Skipped:     parsed.Skipped,
	}
	slog.Info("Parsed statement",
		"owner", ownerID,
		"format", parsed.Format,
		"transactions", report.Parsed,
		"skipped", report.Skipped,
		"errors", len(report.Errors))

	fresh, err := p.identify(ctx, ownerID, parsed.Transactions, report)
	if err != nil {
		return nil, err
	}
	if len(fresh) == 0 {
		return report, nil
	}

	history, err := p.history.History(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	results, err := p.classifier.ClassifyBatch(ctx, fresh, history)
	if err != nil {
		return nil, fmt.Errorf("failed to classify statement: %w", err)
	}
	classified := make([]model.Transaction, len(results))
	for i := range results {
		classified[i] = results[i].Transaction
	}
	slog.Info("Classified transactions", "owner", ownerID, "count", len(classified))

	saved, err := p.txns.SaveTransactions(ctx, classified)
	if err != nil {
		return nil, fmt.Errorf("failed to save transactions: %w", err)
	}
	report.Saved = saved
	report.Duplicates += len(classified) - saved

	p.reconcileAll(ctx, classified, report)

	for i := range classified {
		if classified[i].NeedsReview {
			report.NeedsReview++
		}
	}
	report.Transactions = classified
	slog.Info("Imported statement",
		"owner", ownerID,
		"saved", report.Saved,
		"duplicates", report.Duplicates,
		"matched", report.Matched,
		"ambiguous", report.Ambiguous,
		"needs_review", report.NeedsReview)
	return report, nil
}

// identify assigns ids, ownership and hashes, dropping duplicates when dedup
// is on. Without dedup the hash is made unique so every row is stored.
func (p *Pipeline) identify(ctx context.Context, ownerID string, txns []model.Transaction, report *Report) ([]model.Transaction, error) {
	seen := make(map[string]bool, len(txns))
	fresh := make([]model.Transaction, 0, len(txns))
	for _, txn := range txns {
		txn.ID = uuid.NewString()
		txn.OwnerID = ownerID
		txn.Hash = txn.GenerateHash()

		if !p.opts.Dedup {
			txn.Hash = fmt.Sprintf("%s:%s", txn.Hash, txn.ID)
			fresh = append(fresh, txn)
			continue
		}

		if seen[txn.Hash] {
			report.Duplicates++
			continue
		}
		seen[txn.Hash] = true

		exists, err := p.txns.HasTransactionHash(ctx, txn.Hash)
		if err != nil {
			return nil, fmt.Errorf("failed to check duplicate at line %d: %w", txn.SourceLine, err)
		}
		if exists {
			report.Duplicates++
			continue
		}
		fresh = append(fresh, txn)
	}
	if report.Duplicates > 0 {
		slog.Info("Skipped duplicate transactions", "owner", ownerID, "count", report.Duplicates)
	}
	return fresh, nil
}

func (p *Pipeline) reconcileAll(ctx context.Context, txns []model.Transaction, report *Report) {
	var progress Progress
	if p.opts.NewProgress != nil {
		progress = p.opts.NewProgress(len(txns))
	}
	for i := range txns {
		if progress != nil {
			_ = progress.Add(1)
		}
		txn := &txns[i]
		if p.reconciler == nil || txn.TransactionType == model.TypeTransfer {
			continue
		}
		if ctx.Err() != nil {
			report.ReconcileFails++
			continue
		}

		out, err := p.reconciler.Reconcile(ctx, txn)
		if err != nil {
			report.ReconcileFails++
			slog.Warn("Failed to reconcile transaction", "transaction", txn.ID, "line", txn.SourceLine, "error", err)
			continue
		}
		switch out.Status {
		case reconcile.StatusMatched:
			report.Matched++
		case reconcile.StatusAmbiguous:
			report.Ambiguous++
			slog.Info("Transaction needs a reviewer to pick its obligation", "line", txn.SourceLine, "reason", out.Err)
		case reconcile.StatusNoMatch:
		}
	}
}
