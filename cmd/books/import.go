package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/the-books-must-balance/internal/cli"
	"github.com/Veraticus/the-books-must-balance/internal/common"
	"github.com/Veraticus/the-books-must-balance/internal/pipeline"
	"github.com/Veraticus/the-books-must-balance/internal/statement"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a bank statement",
		Long: `Parse a bank statement (CSV, spreadsheet export, extracted PDF text or OFX),
classify every transaction, and settle matching invoices and bills.

Rows already imported for the owner are skipped unless --no-dedup is set.`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}

	cmd.Flags().String("owner", "", "owner (business) id the statement belongs to")
	cmd.Flags().String("format", "auto", "statement format (auto, delimited, document, ofx)")
	cmd.Flags().Bool("no-dedup", false, "store every row even if it was imported before")
	cmd.Flags().Bool("progress", true, "show a progress bar while reconciling")
	_ = cmd.MarkFlagRequired("owner")

	_ = viper.BindPFlag("import.owner", cmd.Flags().Lookup("owner"))

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	owner := viper.GetString("import.owner")
	hint, err := statement.ParseFormat(mustString(cmd, "format"))
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return common.NewUserError(fmt.Sprintf("could not read %s", args[0]), err)
	}

	interrupts := cli.NewInterruptHandler(cmd.OutOrStdout())
	ctx := interrupts.HandleInterrupts(cmd.Context(), "Import", true)

	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	opts := pipeline.DefaultOptions()
	noDedup, _ := cmd.Flags().GetBool("no-dedup")
	opts.Dedup = cfg.Import.Dedup && !noDedup
	if show, _ := cmd.Flags().GetBool("progress"); show {
		opts.NewProgress = func(total int) pipeline.Progress {
			return cli.NewProgress(cmd.ErrOrStderr(), total, "Reconciling transactions...")
		}
	}

	report, err := pipeline.New(a.store, a.classifier, a.learner, a.reconciler, opts).Run(ctx, owner, data, hint)
	if err != nil {
		if interrupts.WasInterrupted() {
			return nil
		}
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderImportReport(report))
	if report.NeedsReview > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo(fmt.Sprintf("Run 'books review list --owner %s' to work through the queue.", owner)))
	}
	return nil
}

func mustString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}
