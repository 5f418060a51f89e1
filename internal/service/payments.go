package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/kafe-adisyon/api/internal/database"
	"github.com/kafe-adisyon/api/internal/enum"
	"github.com/shopspring/decimal"
)

// RecordPartialPayment adds amount to the order's paid total. The order
// stays open. Paying more than the remaining balance is accepted and
// logged; the remaining balance then goes negative.
func (l *Ledger) RecordPartialPayment(ctx context.Context, orderID int64, amount decimal.Decimal, method string) (*OrderSummary, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidPaymentAmount
	}
	if !centsOnly(amount) {
		return nil, ErrInvalidMoneyPrecision
	}
	if method == "" {
		method = enum.PaymentMethodPartial
	}

	var summary *OrderSummary
	err := l.withTx(ctx, "partial_payment", func(store LedgerStore) error {
		order, err := lockOpenOrder(ctx, store, orderID)
		if err != nil {
			return err
		}

		updated, err := store.AddOrderPayment(ctx, database.AddOrderPaymentParams{
			ID:             order.ID,
			Amount:         amount,
			PaymentMethod:  method,
			LastActivityAt: l.now(),
		})
		if err != nil {
			return fmt.Errorf("add payment: %w", err)
		}
		summary = summarize(updated)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if summary.Remaining.IsNegative() {
		log.Printf("WARN: order %d overpaid by %s (net %s, paid %s)",
			orderID, summary.Remaining.Neg().StringFixed(2), summary.NetTotal.StringFixed(2), summary.Order.AmountPaid.StringFixed(2))
	}
	return summary, nil
}

// CloseOrder settles whatever remains on the order with method, closes it
// and releases its table. It returns the order's net total.
func (l *Ledger) CloseOrder(ctx context.Context, orderID int64, method string) (decimal.Decimal, error) {
	if method == "" {
		return decimal.Zero, ErrPaymentMethodRequired
	}

	var net decimal.Decimal
	err := l.withTx(ctx, "close_order", func(store LedgerStore) error {
		order, err := lockOpenOrder(ctx, store, orderID)
		if err != nil {
			return err
		}
		closed, err := l.closeLocked(ctx, store, order, method)
		if err != nil {
			return err
		}
		net = netTotal(closed)
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return net, nil
}

// CloseOrderPayingFromCustomerBalance debits the linked customer for the
// remaining balance and closes the order in the same transaction.
func (l *Ledger) CloseOrderPayingFromCustomerBalance(ctx context.Context, orderID int64) (decimal.Decimal, error) {
	var net decimal.Decimal
	err := l.withTx(ctx, "close_order_from_balance", func(store LedgerStore) error {
		order, err := lockOpenOrder(ctx, store, orderID)
		if err != nil {
			return err
		}
		if !order.CustomerID.Valid {
			return ErrNoCustomerLinked
		}

		customer, err := store.GetCustomerForUpdate(ctx, order.CustomerID.Int64)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrCustomerNotFound
			}
			return fmt.Errorf("get customer: %w", err)
		}

		remaining := netTotal(order).Sub(order.AmountPaid)
		if remaining.IsPositive() {
			if customer.Balance.LessThan(remaining) {
				return ErrInsufficientBalance
			}
			if _, err := store.AdjustCustomerBalance(ctx, database.AdjustCustomerBalanceParams{
				ID:    customer.ID,
				Delta: remaining.Neg(),
			}); err != nil {
				return fmt.Errorf("debit customer: %w", err)
			}
		}

		closed, err := l.closeLocked(ctx, store, order, enum.PaymentMethodCustomerBalance)
		if err != nil {
			return err
		}
		net = netTotal(closed)
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return net, nil
}

func (l *Ledger) closeLocked(ctx context.Context, store LedgerStore, order database.Order, method string) (database.Order, error) {
	paid := order.AmountPaid
	if remaining := netTotal(order).Sub(paid); remaining.IsPositive() {
		paid = paid.Add(remaining)
	}

	closed, err := store.CloseOrder(ctx, database.CloseOrderParams{
		ID:            order.ID,
		AmountPaid:    paid,
		PaymentMethod: method,
		ClosedAt:      l.now(),
	})
	if err != nil {
		return database.Order{}, fmt.Errorf("close order: %w", err)
	}
	if err := store.ReleaseTableByOrder(ctx, order.ID); err != nil {
		return database.Order{}, fmt.Errorf("release table: %w", err)
	}
	return closed, nil
}

// AdjustCustomerBalance adds delta to a customer's balance. Negative deltas
// debit; no floor is enforced here.
func (l *Ledger) AdjustCustomerBalance(ctx context.Context, customerID int64, delta decimal.Decimal) (database.Customer, error) {
	if delta.IsZero() {
		return database.Customer{}, ErrInvalidBalanceDelta
	}
	if !centsOnly(delta) {
		return database.Customer{}, ErrInvalidMoneyPrecision
	}

	var customer database.Customer
	err := l.withTx(ctx, "adjust_customer_balance", func(store LedgerStore) error {
		if _, err := store.GetCustomerForUpdate(ctx, customerID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrCustomerNotFound
			}
			return fmt.Errorf("get customer: %w", err)
		}

		var err error
		customer, err = store.AdjustCustomerBalance(ctx, database.AdjustCustomerBalanceParams{
			ID:    customerID,
			Delta: delta,
		})
		if err != nil {
			return fmt.Errorf("adjust balance: %w", err)
		}
		return nil
	})
	if err != nil {
		return database.Customer{}, err
	}
	return customer, nil
}
