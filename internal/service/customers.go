package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kafe-adisyon/api/internal/database"
	"github.com/shopspring/decimal"
)

// CustomerInput is the validated input for creating or updating a customer.
// Balance is only used on create; later changes go through
// AdjustCustomerBalance.
type CustomerInput struct {
	FullName string
	Phone    string
	Balance  decimal.Decimal
}

func (l *Ledger) ListCustomers(ctx context.Context, search string) ([]database.Customer, error) {
	customers, err := l.store.ListCustomers(ctx, strings.TrimSpace(search))
	if err != nil {
		return nil, classify("list_customers", err)
	}
	if customers == nil {
		customers = []database.Customer{}
	}
	return customers, nil
}

func (l *Ledger) GetCustomer(ctx context.Context, id int64) (database.Customer, error) {
	customer, err := l.store.GetCustomer(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Customer{}, ErrCustomerNotFound
		}
		return database.Customer{}, classify("get_customer", err)
	}
	return customer, nil
}

func (l *Ledger) GetCustomerByPhone(ctx context.Context, phone string) (database.Customer, error) {
	customer, err := l.store.GetCustomerByPhone(ctx, strings.TrimSpace(phone))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Customer{}, ErrCustomerNotFound
		}
		return database.Customer{}, classify("get_customer_by_phone", err)
	}
	return customer, nil
}

func (l *Ledger) CreateCustomer(ctx context.Context, in CustomerInput) (database.Customer, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	if in.FullName == "" {
		return database.Customer{}, ErrNameRequired
	}
	if !centsOnly(in.Balance) {
		return database.Customer{}, ErrInvalidMoneyPrecision
	}

	var customer database.Customer
	err := l.withTx(ctx, "create_customer", func(store LedgerStore) error {
		var err error
		customer, err = store.CreateCustomer(ctx, database.CreateCustomerParams{
			FullName: in.FullName,
			Phone:    optionalText(in.Phone),
			Balance:  in.Balance,
		})
		if err != nil {
			if isUniqueViolation(err) {
				return ErrCustomerExists
			}
			return fmt.Errorf("create customer: %w", err)
		}
		return nil
	})
	return customer, err
}

func (l *Ledger) UpdateCustomer(ctx context.Context, id int64, in CustomerInput) (database.Customer, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	if in.FullName == "" {
		return database.Customer{}, ErrNameRequired
	}

	var customer database.Customer
	err := l.withTx(ctx, "update_customer", func(store LedgerStore) error {
		var err error
		customer, err = store.UpdateCustomer(ctx, database.UpdateCustomerParams{
			ID:       id,
			FullName: in.FullName,
			Phone:    optionalText(in.Phone),
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrCustomerNotFound
			}
			if isUniqueViolation(err) {
				return ErrCustomerExists
			}
			return fmt.Errorf("update customer: %w", err)
		}
		return nil
	})
	return customer, err
}

// DeleteCustomer removes a customer that no order references.
func (l *Ledger) DeleteCustomer(ctx context.Context, id int64) error {
	return l.withTx(ctx, "delete_customer", func(store LedgerStore) error {
		n, err := store.CountOrdersByCustomer(ctx, id)
		if err != nil {
			return fmt.Errorf("count orders: %w", err)
		}
		if n > 0 {
			return ErrCustomerInUse
		}

		deleted, err := store.DeleteCustomer(ctx, id)
		if err != nil {
			return fmt.Errorf("delete customer: %w", err)
		}
		if deleted == 0 {
			return ErrCustomerNotFound
		}
		return nil
	})
}

func optionalText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}
