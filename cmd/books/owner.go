package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-books-must-balance/internal/cli"
	"github.com/Veraticus/the-books-must-balance/internal/common"
	"github.com/Veraticus/the-books-must-balance/internal/model"
)

func ownerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "owner",
		Short: "Manage the businesses whose books are kept",
	}
	cmd.AddCommand(ownerSetCmd())
	cmd.AddCommand(ownerShowCmd())
	return cmd
}

func ownerSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <owner-id>",
		Short: "Create an owner or reset its opening cash balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cash, err := parseAmount(mustString(cmd, "cash"))
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := openApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			owner, err := a.store.GetOwner(ctx, args[0])
			switch {
			case errors.Is(err, common.ErrNotFound):
				owner = &model.Owner{ID: args[0]}
			case err != nil:
				return err
			}
			if name := mustString(cmd, "name"); name != "" {
				owner.Name = name
			}
			owner.CashBalance = cash
			if err := a.store.SaveOwner(ctx, owner); err != nil {
				return err
			}
			if owner, err = a.syncer.Recompute(ctx, owner.ID); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Saved owner "+owner.ID))
			fmt.Fprintln(cmd.OutOrStdout(), renderOwner(owner))
			return nil
		},
	}
	cmd.Flags().String("name", "", "display name")
	cmd.Flags().String("cash", "0", "current cash balance")
	return cmd
}

func ownerShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <owner-id>",
		Short: "Show cash, burn and runway",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			owner, err := a.store.GetOwner(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderOwner(owner))
			return nil
		},
	}
}

func renderOwner(o *model.Owner) string {
	runway := "unbounded"
	if o.RunwayMonths >= 0 {
		runway = fmt.Sprintf("%.2f months", o.RunwayMonths)
	}
	return cli.RenderBox(o.Name+" ("+o.ID+")", fmt.Sprintf(
		"  • Cash: %s\n  • Monthly burn: %s\n  • Runway: %s",
		o.CashBalance.StringFixed(2), o.MonthlyBurn.StringFixed(2), runway))
}
