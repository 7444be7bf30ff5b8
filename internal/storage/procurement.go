package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Veraticus/the-books-must-balance/internal/model"
)

// SavePurchaseOrder inserts or replaces a purchase order and its lines.
func (s *SQLiteStorage) SavePurchaseOrder(ctx context.Context, po *model.PurchaseOrder) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if po == nil || po.ID == "" || po.VendorID == "" {
		return fmt.Errorf("%w: purchase order needs an ID and vendor", ErrInvalidProcurement)
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO purchase_orders (id, owner_id, vendor_id, total) VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				owner_id = excluded.owner_id, vendor_id = excluded.vendor_id, total = excluded.total
		`, po.ID, po.OwnerID, po.VendorID, po.Total)
		if err != nil {
			return fmt.Errorf("failed to save purchase order: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM po_lines WHERE po_id = ?`, po.ID); err != nil {
			return fmt.Errorf("failed to clear purchase order lines: %w", err)
		}
		for i, line := range po.Lines {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO po_lines (po_id, line_no, item, quantity, unit_price) VALUES (?, ?, ?, ?, ?)
			`, po.ID, i, line.Item, line.Quantity, line.UnitPrice)
			if err != nil {
				return fmt.Errorf("failed to save purchase order line %d: %w", i, err)
			}
		}
		return nil
	})
}

// GetPurchaseOrder retrieves a purchase order with its lines.
func (s *SQLiteStorage) GetPurchaseOrder(ctx context.Context, id string) (*model.PurchaseOrder, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var po model.PurchaseOrder
	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, vendor_id, total FROM purchase_orders WHERE id = ?
	`, id).Scan(&po.ID, &po.OwnerID, &po.VendorID, &po.Total)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("purchase order", id)
	}
	if err != nil {
		return nil, wrapStoreErr(fmt.Errorf("failed to get purchase order: %w", err))
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT item, quantity, unit_price FROM po_lines WHERE po_id = ? ORDER BY line_no
	`, id)
	if err != nil {
		return nil, wrapStoreErr(fmt.Errorf("failed to query purchase order lines: %w", err))
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var line model.POLine
		if err := rows.Scan(&line.Item, &line.Quantity, &line.UnitPrice); err != nil {
			return nil, fmt.Errorf("failed to scan purchase order line: %w", err)
		}
		po.Lines = append(po.Lines, line)
	}
	return &po, rows.Err()
}

// SaveGoodsReceipt inserts or replaces a goods receipt and its lines.
func (s *SQLiteStorage) SaveGoodsReceipt(ctx context.Context, receipt *model.GoodsReceipt) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if receipt == nil || receipt.ID == "" || receipt.POID == "" {
		return fmt.Errorf("%w: goods receipt needs an ID and purchase order", ErrInvalidProcurement)
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO goods_receipts (id, po_id) VALUES (?, ?)
			ON CONFLICT(id) DO UPDATE SET po_id = excluded.po_id
		`, receipt.ID, receipt.POID)
		if err != nil {
			return fmt.Errorf("failed to save goods receipt: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM receipt_lines WHERE receipt_id = ?`, receipt.ID); err != nil {
			return fmt.Errorf("failed to clear receipt lines: %w", err)
		}
		for i, line := range receipt.Lines {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO receipt_lines (receipt_id, line_no, item, quantity) VALUES (?, ?, ?, ?)
			`, receipt.ID, i, line.Item, line.Quantity)
			if err != nil {
				return fmt.Errorf("failed to save receipt line %d: %w", i, err)
			}
		}
		return nil
	})
}

// GetGoodsReceipt retrieves a goods receipt with its lines.
func (s *SQLiteStorage) GetGoodsReceipt(ctx context.Context, id string) (*model.GoodsReceipt, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var receipt model.GoodsReceipt
	err := s.db.QueryRowContext(ctx, `SELECT id, po_id FROM goods_receipts WHERE id = ?`, id).
		Scan(&receipt.ID, &receipt.POID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("goods receipt", id)
	}
	if err != nil {
		return nil, wrapStoreErr(fmt.Errorf("failed to get goods receipt: %w", err))
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT item, quantity FROM receipt_lines WHERE receipt_id = ? ORDER BY line_no
	`, id)
	if err != nil {
		return nil, wrapStoreErr(fmt.Errorf("failed to query receipt lines: %w", err))
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var line model.ReceiptLine
		if err := rows.Scan(&line.Item, &line.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan receipt line: %w", err)
		}
		receipt.Lines = append(receipt.Lines, line)
	}
	return &receipt, rows.Err()
}

// SaveBill inserts or replaces a vendor bill.
func (s *SQLiteStorage) SaveBill(ctx context.Context, bill *model.Bill) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if bill == nil || bill.ID == "" || bill.VendorID == "" {
		return fmt.Errorf("%w: bill needs an ID and vendor", ErrInvalidProcurement)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bills (id, owner_id, vendor_id, po_id, total, match_status) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner_id = excluded.owner_id, vendor_id = excluded.vendor_id, po_id = excluded.po_id,
			total = excluded.total, match_status = excluded.match_status
	`, bill.ID, bill.OwnerID, bill.VendorID, bill.POID, bill.Total, bill.MatchStatus)
	if err != nil {
		return wrapStoreErr(fmt.Errorf("failed to save bill: %w", err))
	}
	return nil
}

// GetBill retrieves a vendor bill.
func (s *SQLiteStorage) GetBill(ctx context.Context, id string) (*model.Bill, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	var bill model.Bill
	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, vendor_id, po_id, total, match_status FROM bills WHERE id = ?
	`, id).Scan(&bill.ID, &bill.OwnerID, &bill.VendorID, &bill.POID, &bill.Total, &bill.MatchStatus)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("bill", id)
	}
	if err != nil {
		return nil, wrapStoreErr(fmt.Errorf("failed to get bill: %w", err))
	}
	return &bill, nil
}

// UpdateBillMatchStatus records the outcome of a three-way match.
func (s *SQLiteStorage) UpdateBillMatchStatus(ctx context.Context, id string, status model.ThreeWayStatus) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `UPDATE bills SET match_status = ? WHERE id = ?`, status, id)
	if err != nil {
		return wrapStoreErr(fmt.Errorf("failed to update bill: %w", err))
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return notFound("bill", id)
	}
	return nil
}
