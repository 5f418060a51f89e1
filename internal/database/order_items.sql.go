package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

const orderItemColumns = `id, order_id, product_id, product_name, quantity, unit_price, amount, category_id, added_at`

func scanOrderItem(row scanner) (OrderItem, error) {
	var i OrderItem
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.ProductID,
		&i.ProductName,
		&i.Quantity,
		&i.UnitPrice,
		&i.Amount,
		&i.CategoryID,
		&i.AddedAt,
	)
	return i, err
}

func collectOrderItems(rows pgx.Rows) ([]OrderItem, error) {
	defer rows.Close()
	var items []OrderItem
	for rows.Next() {
		i, err := scanOrderItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listOrderItems = `SELECT ` + orderItemColumns + ` FROM order_items WHERE order_id = $1 ORDER BY added_at, id`

func (q *Queries) ListOrderItems(ctx context.Context, orderID int64) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItems, orderID)
	if err != nil {
		return nil, err
	}
	return collectOrderItems(rows)
}

const listOrderItemsByOrders = `
SELECT ` + orderItemColumns + `
FROM order_items
WHERE order_id = ANY($1::bigint[])
ORDER BY order_id, id
`

func (q *Queries) ListOrderItemsByOrders(ctx context.Context, orderIDs []int64) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItemsByOrders, orderIDs)
	if err != nil {
		return nil, err
	}
	return collectOrderItems(rows)
}

const getOrderItem = `SELECT ` + orderItemColumns + ` FROM order_items WHERE id = $1 AND order_id = $2`

type GetOrderItemParams struct {
	ID      int64 `json:"id"`
	OrderID int64 `json:"order_id"`
}

func (q *Queries) GetOrderItem(ctx context.Context, arg GetOrderItemParams) (OrderItem, error) {
	return scanOrderItem(q.db.QueryRow(ctx, getOrderItem, arg.ID, arg.OrderID))
}

const getOrderItemByProduct = `
SELECT ` + orderItemColumns + `
FROM order_items
WHERE order_id = $1 AND product_id = $2
ORDER BY id
LIMIT 1
`

type GetOrderItemByProductParams struct {
	OrderID   int64 `json:"order_id"`
	ProductID int64 `json:"product_id"`
}

func (q *Queries) GetOrderItemByProduct(ctx context.Context, arg GetOrderItemByProductParams) (OrderItem, error) {
	return scanOrderItem(q.db.QueryRow(ctx, getOrderItemByProduct, arg.OrderID, arg.ProductID))
}

const createOrderItem = `
INSERT INTO order_items (order_id, product_id, product_name, quantity, unit_price, amount, category_id, added_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + orderItemColumns

type CreateOrderItemParams struct {
	OrderID     int64           `json:"order_id"`
	ProductID   pgtype.Int8     `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int32           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
	CategoryID  pgtype.Int8     `json:"category_id"`
	AddedAt     time.Time       `json:"added_at"`
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	return scanOrderItem(q.db.QueryRow(ctx, createOrderItem,
		arg.OrderID,
		arg.ProductID,
		arg.ProductName,
		arg.Quantity,
		arg.UnitPrice,
		arg.Amount,
		arg.CategoryID,
		arg.AddedAt,
	))
}

const updateOrderItemQuantity = `
UPDATE order_items SET quantity = $3, amount = $4
WHERE id = $1 AND order_id = $2
RETURNING ` + orderItemColumns

type UpdateOrderItemQuantityParams struct {
	ID       int64           `json:"id"`
	OrderID  int64           `json:"order_id"`
	Quantity int32           `json:"quantity"`
	Amount   decimal.Decimal `json:"amount"`
}

func (q *Queries) UpdateOrderItemQuantity(ctx context.Context, arg UpdateOrderItemQuantityParams) (OrderItem, error) {
	return scanOrderItem(q.db.QueryRow(ctx, updateOrderItemQuantity, arg.ID, arg.OrderID, arg.Quantity, arg.Amount))
}

const deleteOrderItem = `DELETE FROM order_items WHERE id = $1 AND order_id = $2`

type DeleteOrderItemParams struct {
	ID      int64 `json:"id"`
	OrderID int64 `json:"order_id"`
}

func (q *Queries) DeleteOrderItem(ctx context.Context, arg DeleteOrderItemParams) (int64, error) {
	result, err := q.db.Exec(ctx, deleteOrderItem, arg.ID, arg.OrderID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const deleteOrderItemsByOrder = `DELETE FROM order_items WHERE order_id = $1`

func (q *Queries) DeleteOrderItemsByOrder(ctx context.Context, orderID int64) error {
	_, err := q.db.Exec(ctx, deleteOrderItemsByOrder, orderID)
	return err
}

const sumOrderItemAmounts = `SELECT COALESCE(SUM(amount), 0) FROM order_items WHERE order_id = $1`

func (q *Queries) SumOrderItemAmounts(ctx context.Context, orderID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := q.db.QueryRow(ctx, sumOrderItemAmounts, orderID).Scan(&total)
	return total, err
}

const countOrderItemsByProduct = `SELECT COUNT(*) FROM order_items WHERE product_id = $1`

func (q *Queries) CountOrderItemsByProduct(ctx context.Context, productID int64) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countOrderItemsByProduct, productID).Scan(&n)
	return n, err
}
