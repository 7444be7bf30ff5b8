package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-books-must-balance/internal/cli"
	"github.com/Veraticus/the-books-must-balance/internal/model"
)

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify <txn-id>",
		Short: "Re-run classification for one transaction",
		Long: `Classify a stored transaction again using the current keyword rules and
learned mappings. Transactions a reviewer already decided are left alone.`,
		Args: cobra.ExactArgs(1),
		RunE: runClassify,
	}
	cmd.Flags().Bool("dry-run", false, "show the result without saving it")
	return cmd
}

func runClassify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	txn, err := a.store.GetTransaction(ctx, args[0])
	if err != nil {
		return err
	}
	res, err := a.classifier.Classify(ctx, txn)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.RenderTransactions([]model.Transaction{res.Transaction}))
	fmt.Fprintf(out, "category: %s (%d, %s)\n", res.Category.Category, res.Category.Confidence, res.Category.Source)
	fmt.Fprintf(out, "expense:  %s %s (%d, %s)\n", res.Expense.Type, res.Expense.Frequency, res.Expense.Confidence, res.Expense.Source)
	if res.Interval != nil && res.Interval.Occurrences > 0 {
		fmt.Fprintf(out, "interval: %s every %.1f days over %d occurrences\n",
			res.Interval.Frequency, res.Interval.MeanGapDays, res.Interval.Occurrences)
	}

	if dry, _ := cmd.Flags().GetBool("dry-run"); dry {
		return nil
	}
	if err := a.store.UpdateTransaction(ctx, &res.Transaction); err != nil {
		return err
	}
	fmt.Fprintln(out, cli.FormatSuccess("Saved"))
	return nil
}
