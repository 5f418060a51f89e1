package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

const customerColumns = `id, full_name, phone, balance`

func scanCustomer(row scanner) (Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.FullName, &c.Phone, &c.Balance)
	return c, err
}

const listCustomers = `
SELECT ` + customerColumns + `
FROM customers
WHERE ($1::text = '' OR full_name ILIKE '%' || $1 || '%' OR phone ILIKE '%' || $1 || '%')
ORDER BY full_name
`

func (q *Queries) ListCustomers(ctx context.Context, search string) ([]Customer, error) {
	rows, err := q.db.Query(ctx, listCustomers, search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getCustomer = `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

func (q *Queries) GetCustomer(ctx context.Context, id int64) (Customer, error) {
	return scanCustomer(q.db.QueryRow(ctx, getCustomer, id))
}

const getCustomerForUpdate = `SELECT ` + customerColumns + ` FROM customers WHERE id = $1 FOR UPDATE`

func (q *Queries) GetCustomerForUpdate(ctx context.Context, id int64) (Customer, error) {
	return scanCustomer(q.db.QueryRow(ctx, getCustomerForUpdate, id))
}

const getCustomerByPhone = `SELECT ` + customerColumns + ` FROM customers WHERE phone = $1`

func (q *Queries) GetCustomerByPhone(ctx context.Context, phone string) (Customer, error) {
	return scanCustomer(q.db.QueryRow(ctx, getCustomerByPhone, phone))
}

const createCustomer = `
INSERT INTO customers (full_name, phone, balance)
VALUES ($1, $2, $3)
RETURNING ` + customerColumns

type CreateCustomerParams struct {
	FullName string          `json:"full_name"`
	Phone    pgtype.Text     `json:"phone"`
	Balance  decimal.Decimal `json:"balance"`
}

func (q *Queries) CreateCustomer(ctx context.Context, arg CreateCustomerParams) (Customer, error) {
	return scanCustomer(q.db.QueryRow(ctx, createCustomer, arg.FullName, arg.Phone, arg.Balance))
}

const updateCustomer = `
UPDATE customers SET full_name = $2, phone = $3
WHERE id = $1
RETURNING ` + customerColumns

type UpdateCustomerParams struct {
	ID       int64       `json:"id"`
	FullName string      `json:"full_name"`
	Phone    pgtype.Text `json:"phone"`
}

func (q *Queries) UpdateCustomer(ctx context.Context, arg UpdateCustomerParams) (Customer, error) {
	return scanCustomer(q.db.QueryRow(ctx, updateCustomer, arg.ID, arg.FullName, arg.Phone))
}

const deleteCustomer = `DELETE FROM customers WHERE id = $1`

func (q *Queries) DeleteCustomer(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.Exec(ctx, deleteCustomer, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const adjustCustomerBalance = `
UPDATE customers SET balance = balance + $2
WHERE id = $1
RETURNING ` + customerColumns

type AdjustCustomerBalanceParams struct {
	ID    int64           `json:"id"`
	Delta decimal.Decimal `json:"delta"`
}

func (q *Queries) AdjustCustomerBalance(ctx context.Context, arg AdjustCustomerBalanceParams) (Customer, error) {
	return scanCustomer(q.db.QueryRow(ctx, adjustCustomerBalance, arg.ID, arg.Delta))
}
