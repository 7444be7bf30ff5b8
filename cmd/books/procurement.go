package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-books-must-balance/internal/cli"
	"github.com/Veraticus/the-books-must-balance/internal/model"
)

func procurementCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "procurement",
		Short: "Record purchase orders, goods receipts and vendor bills",
	}
	cmd.AddCommand(addPOCmd())
	cmd.AddCommand(addReceiptCmd())
	cmd.AddCommand(addBillCmd())
	return cmd
}

func addPOCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "po <po-id>",
		Short: "Record a purchase order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, _ := cmd.Flags().GetStringArray("line")
			po := model.PurchaseOrder{
				ID:       args[0],
				OwnerID:  mustString(cmd, "owner"),
				VendorID: mustString(cmd, "vendor"),
			}
			for _, r := range raw {
				line, err := parsePOLine(r)
				if err != nil {
					return err
				}
				po.Lines = append(po.Lines, line)
			}
			if t := mustString(cmd, "total"); t != "" {
				total, err := parseAmount(t)
				if err != nil {
					return err
				}
				po.Total = total
			}

			ctx := cmd.Context()
			a, err := openApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()
			if err := a.store.SavePurchaseOrder(ctx, &po); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Saved purchase order %s with %d lines", po.ID, len(po.Lines))))
			return nil
		},
	}
	cmd.Flags().String("owner", "", "owner id")
	cmd.Flags().String("vendor", "", "vendor id")
	cmd.Flags().String("total", "", "order total (defaults to the sum of the lines)")
	cmd.Flags().StringArray("line", nil, "order line as item:quantity:unit_price (repeatable)")
	_ = cmd.MarkFlagRequired("owner")
	_ = cmd.MarkFlagRequired("vendor")
	return cmd
}

func addReceiptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "receipt <receipt-id>",
		Short: "Record goods received against a purchase order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, _ := cmd.Flags().GetStringArray("line")
			receipt := model.GoodsReceipt{ID: args[0], POID: mustString(cmd, "po")}
			for _, r := range raw {
				line, err := parseReceiptLine(r)
				if err != nil {
					return err
				}
				receipt.Lines = append(receipt.Lines, line)
			}

			ctx := cmd.Context()
			a, err := openApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()
			if err := a.store.SaveGoodsReceipt(ctx, &receipt); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Saved goods receipt "+receipt.ID))
			return nil
		},
	}
	cmd.Flags().String("po", "", "purchase order id")
	cmd.Flags().StringArray("line", nil, "received line as item:quantity (repeatable)")
	_ = cmd.MarkFlagRequired("po")
	return cmd
}

func addBillCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bill <bill-id>",
		Short: "Record a vendor bill for a purchase order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			total, err := parseAmount(mustString(cmd, "total"))
			if err != nil {
				return err
			}
			bill := model.Bill{
				ID:       args[0],
				OwnerID:  mustString(cmd, "owner"),
				VendorID: mustString(cmd, "vendor"),
				POID:     mustString(cmd, "po"),
				Total:    total,
			}

			ctx := cmd.Context()
			a, err := openApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()
			if err := a.store.SaveBill(ctx, &bill); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Saved bill %s for %s", bill.ID, bill.Total.StringFixed(2))))
			return nil
		},
	}
	cmd.Flags().String("owner", "", "owner id")
	cmd.Flags().String("vendor", "", "vendor id")
	cmd.Flags().String("po", "", "purchase order id")
	cmd.Flags().String("total", "", "bill total")
	for _, f := range []string{"owner", "vendor", "po", "total"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}
