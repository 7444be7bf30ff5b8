package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-books-must-balance/internal/cli"
)

func threeWayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "threeway <po-id> <receipt-id> <bill-id>",
		Short: "Compare a purchase order, goods receipt and bill",
		Long: `Check that the bill agrees with what was ordered and what was received.
Amount, vendor and per-line quantity differences are reported and the
bill's match status is saved.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			res, err := a.reconciler.ThreeWay(ctx, args[0], args[1], args[2])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderThreeWay(res))
			return nil
		},
	}
}
