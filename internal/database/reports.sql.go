package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

const getSalesSummary = `
SELECT COUNT(*)::bigint AS order_count,
       COALESCE(SUM(gross_total), 0) AS gross_sales,
       COALESCE(SUM(discount), 0) AS total_discount,
       COALESCE(SUM(gross_total - discount), 0) AS net_sales,
       COALESCE(SUM(amount_paid), 0) AS amount_collected
FROM orders
WHERE status = 'Closed'
  AND closed_at >= $1
  AND closed_at < $2
`

type GetSalesSummaryParams struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

type GetSalesSummaryRow struct {
	OrderCount      int64           `json:"order_count"`
	GrossSales      decimal.Decimal `json:"gross_sales"`
	TotalDiscount   decimal.Decimal `json:"total_discount"`
	NetSales        decimal.Decimal `json:"net_sales"`
	AmountCollected decimal.Decimal `json:"amount_collected"`
}

func (q *Queries) GetSalesSummary(ctx context.Context, arg GetSalesSummaryParams) (GetSalesSummaryRow, error) {
	var i GetSalesSummaryRow
	err := q.db.QueryRow(ctx, getSalesSummary, arg.From, arg.To).Scan(
		&i.OrderCount,
		&i.GrossSales,
		&i.TotalDiscount,
		&i.NetSales,
		&i.AmountCollected,
	)
	return i, err
}

const getProductSales = `
SELECT oi.product_name,
       c.name AS category_name,
       SUM(oi.quantity)::bigint AS quantity,
       SUM(oi.amount) AS amount
FROM order_items oi
JOIN orders o ON o.id = oi.order_id
LEFT JOIN categories c ON c.id = oi.category_id
WHERE o.status = 'Closed'
  AND o.closed_at >= $1
  AND o.closed_at < $2
GROUP BY oi.product_name, c.name
ORDER BY amount DESC, oi.product_name
`

type GetProductSalesParams struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

type GetProductSalesRow struct {
	ProductName  string          `json:"product_name"`
	CategoryName pgtype.Text     `json:"category_name"`
	Quantity     int64           `json:"quantity"`
	Amount       decimal.Decimal `json:"amount"`
}

func (q *Queries) GetProductSales(ctx context.Context, arg GetProductSalesParams) ([]GetProductSalesRow, error) {
	rows, err := q.db.Query(ctx, getProductSales, arg.From, arg.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetProductSalesRow
	for rows.Next() {
		var i GetProductSalesRow
		if err := rows.Scan(&i.ProductName, &i.CategoryName, &i.Quantity, &i.Amount); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
