package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

const orderColumns = `id, table_number, opened_at, closed_at, status, gross_total, discount,
       amount_paid, payment_method, last_activity_at, customer_id`

func scanOrder(row scanner) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID,
		&o.TableNumber,
		&o.OpenedAt,
		&o.ClosedAt,
		&o.Status,
		&o.GrossTotal,
		&o.Discount,
		&o.AmountPaid,
		&o.PaymentMethod,
		&o.LastActivityAt,
		&o.CustomerID,
	)
	return o, err
}

func collectOrders(rows pgx.Rows) ([]Order, error) {
	defer rows.Close()
	var items []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createOrder = `
INSERT INTO orders (table_number, opened_at, status, last_activity_at)
VALUES ($1, $2, 'Open', $2)
RETURNING ` + orderColumns

type CreateOrderParams struct {
	TableNumber int32     `json:"table_number"`
	OpenedAt    time.Time `json:"opened_at"`
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, createOrder, arg.TableNumber, arg.OpenedAt))
}

const getOrder = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

func (q *Queries) GetOrder(ctx context.Context, id int64) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrder, id))
}

const getOrderForUpdate = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`

func (q *Queries) GetOrderForUpdate(ctx context.Context, id int64) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderForUpdate, id))
}

const updateOrderGross = `
UPDATE orders SET gross_total = $2, last_activity_at = $3
WHERE id = $1
RETURNING ` + orderColumns

type UpdateOrderGrossParams struct {
	ID             int64           `json:"id"`
	GrossTotal     decimal.Decimal `json:"gross_total"`
	LastActivityAt time.Time       `json:"last_activity_at"`
}

func (q *Queries) UpdateOrderGross(ctx context.Context, arg UpdateOrderGrossParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, updateOrderGross, arg.ID, arg.GrossTotal, arg.LastActivityAt))
}

const updateOrderDiscount = `
UPDATE orders SET discount = $2, last_activity_at = $3
WHERE id = $1
RETURNING ` + orderColumns

type UpdateOrderDiscountParams struct {
	ID             int64           `json:"id"`
	Discount       decimal.Decimal `json:"discount"`
	LastActivityAt time.Time       `json:"last_activity_at"`
}

func (q *Queries) UpdateOrderDiscount(ctx context.Context, arg UpdateOrderDiscountParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, updateOrderDiscount, arg.ID, arg.Discount, arg.LastActivityAt))
}

const addOrderPayment = `
UPDATE orders
SET amount_paid = amount_paid + $2, payment_method = $3, last_activity_at = $4
WHERE id = $1
RETURNING ` + orderColumns

type AddOrderPaymentParams struct {
	ID             int64           `json:"id"`
	Amount         decimal.Decimal `json:"amount"`
	PaymentMethod  string          `json:"payment_method"`
	LastActivityAt time.Time       `json:"last_activity_at"`
}

func (q *Queries) AddOrderPayment(ctx context.Context, arg AddOrderPaymentParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, addOrderPayment, arg.ID, arg.Amount, arg.PaymentMethod, arg.LastActivityAt))
}

const closeOrder = `
UPDATE orders
SET status = 'Closed', amount_paid = $2, payment_method = $3, closed_at = $4, last_activity_at = NULL
WHERE id = $1 AND status = 'Open'
RETURNING ` + orderColumns

type CloseOrderParams struct {
	ID            int64           `json:"id"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	PaymentMethod string          `json:"payment_method"`
	ClosedAt      time.Time       `json:"closed_at"`
}

func (q *Queries) CloseOrder(ctx context.Context, arg CloseOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, closeOrder, arg.ID, arg.AmountPaid, arg.PaymentMethod, arg.ClosedAt))
}

const cancelOrder = `
UPDATE orders
SET status = 'Cancelled', gross_total = 0, discount = 0, amount_paid = 0,
    closed_at = $2, last_activity_at = NULL, customer_id = NULL
WHERE id = $1 AND status = 'Open'
RETURNING ` + orderColumns

type CancelOrderParams struct {
	ID       int64     `json:"id"`
	ClosedAt time.Time `json:"closed_at"`
}

func (q *Queries) CancelOrder(ctx context.Context, arg CancelOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, cancelOrder, arg.ID, arg.ClosedAt))
}

const setOrderCustomer = `
UPDATE orders SET customer_id = $2, last_activity_at = $3
WHERE id = $1
RETURNING ` + orderColumns

type SetOrderCustomerParams struct {
	ID             int64       `json:"id"`
	CustomerID     pgtype.Int8 `json:"customer_id"`
	LastActivityAt time.Time   `json:"last_activity_at"`
}

func (q *Queries) SetOrderCustomer(ctx context.Context, arg SetOrderCustomerParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, setOrderCustomer, arg.ID, arg.CustomerID, arg.LastActivityAt))
}

const countOrdersByCustomer = `SELECT COUNT(*) FROM orders WHERE customer_id = $1`

func (q *Queries) CountOrdersByCustomer(ctx context.Context, customerID int64) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countOrdersByCustomer, customerID).Scan(&n)
	return n, err
}

const listClosedOrdersBefore = `
SELECT ` + orderColumns + `
FROM orders
WHERE status = 'Closed' AND closed_at < $1
ORDER BY id
`

func (q *Queries) ListClosedOrdersBefore(ctx context.Context, before time.Time) ([]Order, error) {
	rows, err := q.db.Query(ctx, listClosedOrdersBefore, before)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

const listOpenOrders = `
SELECT ` + orderColumns + `
FROM orders
WHERE status = 'Open'
ORDER BY table_number
`

func (q *Queries) ListOpenOrders(ctx context.Context) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOpenOrders)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

const deleteOrdersByIDs = `DELETE FROM orders WHERE id = ANY($1::bigint[]) AND status = 'Closed'`

func (q *Queries) DeleteOrdersByIDs(ctx context.Context, ids []int64) (int64, error) {
	result, err := q.db.Exec(ctx, deleteOrdersByIDs, ids)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
