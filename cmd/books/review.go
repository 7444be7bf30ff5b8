package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-books-must-balance/internal/cli"
	"github.com/Veraticus/the-books-must-balance/internal/model"
	"github.com/Veraticus/the-books-must-balance/internal/review"
)

func reviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Work through transactions that need a human decision",
	}

	cmd.AddCommand(reviewListCmd())
	cmd.AddCommand(reviewActionCmd("approve", "Confirm the suggested category", false, false,
		func(q *review.Queue) bulkAction { return q.BulkApprove }))
	cmd.AddCommand(reviewActionCmd("reject", "Reject the suggestion and keep the item queued", false, false,
		func(q *review.Queue) bulkAction { return q.BulkReject }))
	cmd.AddCommand(reviewActionCmd("recategorize", "Set the correct category", true, false,
		func(q *review.Queue) bulkAction { return q.BulkRecategorize }))
	cmd.AddCommand(reviewActionCmd("match-invoice", "Settle a receivable with an inflow", false, true,
		func(q *review.Queue) bulkAction { return eachOne(q.MatchInvoice) }))
	cmd.AddCommand(reviewActionCmd("match-bill", "Settle a payable with an outflow", false, true,
		func(q *review.Queue) bulkAction { return eachOne(q.MatchBill) }))
	cmd.AddCommand(reviewDeleteCmd())

	return cmd
}

func reviewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions awaiting review",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			limit, _ := cmd.Flags().GetInt("limit")
			txns, err := a.queue.Pending(ctx, mustString(cmd, "owner"), limit)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTransactions(txns))
			return nil
		},
	}
	cmd.Flags().String("owner", "", "owner id")
	cmd.Flags().Int("limit", 50, "maximum rows to show (0 for all)")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

type bulkAction func(ctx context.Context, ids []string, d review.Decision) []review.ItemResult

// eachOne adapts a single-item action to the bulk signature.
func eachOne(fn func(ctx context.Context, id string, d review.Decision) (*model.Transaction, error)) bulkAction {
	return func(ctx context.Context, ids []string, d review.Decision) []review.ItemResult {
		results := make([]review.ItemResult, 0, len(ids))
		for _, id := range ids {
			txn, err := fn(ctx, id, d)
			results = append(results, review.ItemResult{ID: id, Transaction: txn, Err: err})
		}
		return results
	}
}

func reviewActionCmd(name, short string, needsCategory, needsTarget bool, pick func(*review.Queue) bulkAction) *cobra.Command {
	cmd := &cobra.Command{
		Use:   name + " <txn-id>...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			d := review.Decision{
				Reviewer: mustString(cmd, "reviewer"),
				Notes:    mustString(cmd, "notes"),
			}
			if needsCategory {
				d.Category = model.Category(mustString(cmd, "category"))
			}
			if needsTarget {
				d.TargetID = mustString(cmd, "target")
			}

			results := pick(a.queue)(ctx, args, d)
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBulkResults(name, results))
			if _, failed := review.Summary(results); failed > 0 {
				return fmt.Errorf("%s failed for %d of %d transactions", name, failed, len(results))
			}
			return nil
		},
	}
	cmd.Flags().String("reviewer", "", "who made the decision")
	cmd.Flags().String("notes", "", "free-form review notes")
	if needsCategory {
		cmd.Flags().String("category", "", "new category")
		_ = cmd.MarkFlagRequired("category")
	}
	if needsTarget {
		cmd.Use = name + " <txn-id>"
		cmd.Args = cobra.ExactArgs(1)
		cmd.Flags().String("target", "", "invoice or bill id to settle")
		_ = cmd.MarkFlagRequired("target")
	}
	return cmd
}

func reviewDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <txn-id>...",
		Short: "Delete transactions that should not have been imported",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			results := a.queue.BulkDelete(ctx, args)
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBulkResults("delete", results))
			if _, failed := review.Summary(results); failed > 0 {
				return fmt.Errorf("delete failed for %d of %d transactions", failed, len(results))
			}
			return nil
		},
	}
}
