package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-books-must-balance/internal/cli"
)

func learningCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "learning",
		Short: "Inspect and rebuild learned vendor and description mappings",
	}
	cmd.AddCommand(learningSuggestCmd())
	cmd.AddCommand(learningRebuildCmd())
	return cmd
}

func learningSuggestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggest <description>",
		Short: "Show the category learned for a description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(mustString(cmd, "amount"))
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := openApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			s, err := a.learner.Suggest(ctx, mustString(cmd, "owner"), args[0], mustString(cmd, "vendor"), amount)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderSuggestion(s))
			return nil
		},
	}
	cmd.Flags().String("owner", "", "owner id")
	cmd.Flags().String("vendor", "", "vendor name")
	cmd.Flags().String("amount", "-1", "signed amount used to compare with history")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func learningRebuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Regenerate mappings from reviewed transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			interrupts := cli.NewInterruptHandler(cmd.OutOrStdout())
			ctx := interrupts.HandleInterrupts(cmd.Context(), "Rebuild", false)

			a, err := openApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			stats, err := a.learner.Rebuild(ctx, mustString(cmd, "owner"))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox("Mappings Rebuilt", fmt.Sprintf(
				"  • Decisions replayed: %d\n  • Corrections: %d\n  • Vendor mappings: %d",
				stats.Replayed, stats.Corrections, stats.Vendors)))
			return nil
		},
	}
	cmd.Flags().String("owner", "", "owner id")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}
