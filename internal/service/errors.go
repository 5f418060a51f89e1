package service

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Error kinds. Every error returned by the ledger matches exactly one of
// these with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrStorage    = errors.New("storage failure")
)

// Errors returned by the ledger.
var (
	ErrInvalidQuantity       = kindError(ErrValidation, "quantity must be > 0")
	ErrInvalidUnitPrice      = kindError(ErrValidation, "unit_price must be > 0")
	ErrProductNameRequired   = kindError(ErrValidation, "product_name is required")
	ErrInvalidDiscount       = kindError(ErrValidation, "discount must be between 0 and the gross total")
	ErrInvalidPaymentAmount  = kindError(ErrValidation, "payment amount must be > 0")
	ErrPaymentMethodRequired = kindError(ErrValidation, "payment_method is required")
	ErrInvalidBalanceDelta   = kindError(ErrValidation, "balance delta must not be zero")
	ErrNoCustomerLinked      = kindError(ErrValidation, "order has no linked customer")
	ErrInvalidTableStatus    = kindError(ErrValidation, "invalid table status")
	ErrInvalidThreshold      = kindError(ErrValidation, "threshold must be > 0")
	ErrInvalidYear           = kindError(ErrValidation, "invalid archive year")
	ErrNameRequired          = kindError(ErrValidation, "name is required")
	ErrInvalidPrice          = kindError(ErrValidation, "price must be > 0")
	ErrInvalidQuickSaleRank  = kindError(ErrValidation, "quick_sale_rank must be >= 0")
	ErrInvalidStockQuantity  = kindError(ErrValidation, "stock_quantity must be >= 0")
	ErrInvalidMoneyPrecision = kindError(ErrValidation, "amounts must have at most 2 decimal places")

	ErrTableNotFound     = kindError(ErrNotFound, "table not found")
	ErrOrderNotFound     = kindError(ErrNotFound, "order not found")
	ErrOpenOrderNotFound = kindError(ErrNotFound, "open order not found")
	ErrLineItemNotFound  = kindError(ErrNotFound, "line item not found")
	ErrProductNotFound   = kindError(ErrNotFound, "product not found")
	ErrCategoryNotFound  = kindError(ErrNotFound, "category not found")
	ErrCustomerNotFound  = kindError(ErrNotFound, "customer not found")
	ErrSettingNotFound   = kindError(ErrNotFound, "setting not found")

	ErrOrderNotOpen        = kindError(ErrConflict, "order is not open")
	ErrTableNotEmpty       = kindError(ErrConflict, "table is not empty")
	ErrTableHasOpenOrder   = kindError(ErrConflict, "table has an open order")
	ErrTableHasNoOrder     = kindError(ErrConflict, "table has no open order")
	ErrTableExists         = kindError(ErrConflict, "table number already exists")
	ErrCategoryExists      = kindError(ErrConflict, "category name already exists")
	ErrCategoryInUse       = kindError(ErrConflict, "category has active products")
	ErrProductExists       = kindError(ErrConflict, "product name already exists")
	ErrProductInUse        = kindError(ErrConflict, "product is referenced by orders")
	ErrProductInactive     = kindError(ErrConflict, "product is not active")
	ErrInsufficientStock   = kindError(ErrConflict, "insufficient stock")
	ErrCustomerExists      = kindError(ErrConflict, "customer phone already exists")
	ErrCustomerInUse       = kindError(ErrConflict, "customer is referenced by orders")
	ErrInsufficientBalance = kindError(ErrConflict, "insufficient customer balance")

	ErrArchivePartial = kindError(ErrStorage, "archive copied but source orders were not removed")
)

type ledgerError struct {
	kind error
	msg  string
}

func kindError(kind error, msg string) error {
	return &ledgerError{kind: kind, msg: msg}
}

func (e *ledgerError) Error() string { return e.msg }
func (e *ledgerError) Unwrap() error { return e.kind }

// classify maps a raw error from the store onto one of the error kinds.
// Errors that already carry a kind are returned unchanged.
func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrValidation), errors.Is(err, ErrNotFound),
		errors.Is(err, ErrConflict), errors.Is(err, ErrStorage):
		return err
	case errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("%s: %w: %w", op, ErrNotFound, err)
	case isUniqueViolation(err):
		return fmt.Errorf("%s: %w: %w", op, ErrConflict, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}

// resultLabel is the metrics label for an operation outcome.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	}
	return "storage"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
