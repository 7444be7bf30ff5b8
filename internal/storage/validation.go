package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/the-books-must-balance/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidObligation  = errors.New("invalid obligation")
	ErrInvalidMapping     = errors.New("invalid mapping")
	ErrInvalidProcurement = errors.New("invalid procurement document")
)

func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if txn.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidTransaction)
	}
	if txn.OwnerID == "" {
		return fmt.Errorf("%w: missing owner", ErrInvalidTransaction)
	}
	if txn.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidTransaction)
	}
	if strings.TrimSpace(txn.Description) == "" {
		return fmt.Errorf("%w: missing description", ErrInvalidTransaction)
	}
	if txn.MatchedReceivableID != "" && txn.MatchedPayableID != "" {
		return fmt.Errorf("%w: matched to both a receivable and a payable", ErrInvalidTransaction)
	}
	if txn.Confidence < 0 || txn.Confidence > 100 {
		return fmt.Errorf("%w: confidence %d out of range", ErrInvalidTransaction, txn.Confidence)
	}
	if txn.Category != "" && !txn.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidTransaction, txn.Category)
	}
	return nil
}

func validateObligation(o *model.Obligation) error {
	if o == nil {
		return fmt.Errorf("%w: obligation", ErrNilParameter)
	}
	if o.ID == "" || o.OwnerID == "" {
		return fmt.Errorf("%w: missing ID or owner", ErrInvalidObligation)
	}
	if o.Kind != model.KindReceivable && o.Kind != model.KindPayable {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidObligation, o.Kind)
	}
	if !o.TotalAmount.IsPositive() {
		return fmt.Errorf("%w: total must be positive", ErrInvalidObligation)
	}
	if o.PaidAmount.IsNegative() {
		return fmt.Errorf("%w: paid amount cannot be negative", ErrInvalidObligation)
	}
	return nil
}

func validateMapping(ownerID, key string, category model.Category, confidence int) error {
	if strings.TrimSpace(ownerID) == "" || strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: missing owner or key", ErrInvalidMapping)
	}
	if !category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidMapping, category)
	}
	if confidence < 0 || confidence > 100 {
		return fmt.Errorf("%w: confidence %d out of range", ErrInvalidMapping, confidence)
	}
	return nil
}
