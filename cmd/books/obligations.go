package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-books-must-balance/internal/cli"
	"github.com/Veraticus/the-books-must-balance/internal/common"
	"github.com/Veraticus/the-books-must-balance/internal/model"
)

func obligationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "obligations",
		Aliases: []string{"ob"},
		Short:   "Manage receivables and payables",
	}
	cmd.AddCommand(obligationsAddCmd())
	cmd.AddCommand(obligationsListCmd())
	return cmd
}

func obligationsAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an invoice you issued or a bill you owe",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kind, err := parseKind(mustString(cmd, "kind"))
			if err != nil {
				return err
			}
			total, err := parseAmount(mustString(cmd, "total"))
			if err != nil {
				return err
			}
			if !total.IsPositive() {
				return common.Invalid("total must be positive")
			}
			due, err := parseDay(mustString(cmd, "due"))
			if err != nil {
				return err
			}

			o := model.Obligation{
				ID:           mustString(cmd, "id"),
				OwnerID:      mustString(cmd, "owner"),
				Kind:         kind,
				Number:       mustString(cmd, "number"),
				Counterparty: mustString(cmd, "counterparty"),
				TotalAmount:  total,
				DueDate:      due,
				Status:       model.StatusOpen,
			}
			if o.Number == "" {
				o.Number = o.ID
			}

			ctx := cmd.Context()
			a, err := openApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if err := a.store.CreateObligation(ctx, &o); err != nil {
				if errors.Is(err, common.ErrDuplicateEntry) {
					return common.NewUserError(fmt.Sprintf("%s %s already exists", o.Kind, o.ID), err)
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Saved %s %s (balance %s)", o.Kind, o.ID, o.BalanceAmount.StringFixed(2))))
			return nil
		},
	}
	cmd.Flags().String("id", "", "obligation id")
	cmd.Flags().String("owner", "", "owner id")
	cmd.Flags().String("kind", "receivable", "receivable or payable")
	cmd.Flags().String("number", "", "invoice or bill number printed on the document")
	cmd.Flags().String("counterparty", "", "customer or vendor name")
	cmd.Flags().String("total", "", "total amount")
	cmd.Flags().String("due", "", "due date (YYYY-MM-DD)")
	for _, f := range []string{"id", "owner", "total"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func obligationsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List open and partially paid obligations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kind, err := parseKind(mustString(cmd, "kind"))
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := openApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			open, err := a.store.ListOpenObligations(ctx, mustString(cmd, "owner"), kind)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderObligations(open))
			return nil
		},
	}
	cmd.Flags().String("owner", "", "owner id")
	cmd.Flags().String("kind", "receivable", "receivable or payable")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}
