package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

const tableColumns = `id, number, status, active_order_id, current_net_total, current_discount`

func scanCafeTable(row scanner) (CafeTable, error) {
	var t CafeTable
	err := row.Scan(
		&t.ID,
		&t.Number,
		&t.Status,
		&t.ActiveOrderID,
		&t.CurrentNetTotal,
		&t.CurrentDiscount,
	)
	return t, err
}

const listTables = `
SELECT t.id, t.number, t.status, t.active_order_id, t.current_net_total, t.current_discount,
       c.full_name AS customer_name
FROM cafe_tables t
LEFT JOIN orders o ON o.id = t.active_order_id
LEFT JOIN customers c ON c.id = o.customer_id
ORDER BY t.number
`

type ListTablesRow struct {
	CafeTable
	CustomerName pgtype.Text `json:"customer_name"`
}

func (q *Queries) ListTables(ctx context.Context) ([]ListTablesRow, error) {
	rows, err := q.db.Query(ctx, listTables)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListTablesRow
	for rows.Next() {
		var i ListTablesRow
		if err := rows.Scan(
			&i.ID,
			&i.Number,
			&i.Status,
			&i.ActiveOrderID,
			&i.CurrentNetTotal,
			&i.CurrentDiscount,
			&i.CustomerName,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getTableByNumber = `SELECT ` + tableColumns + ` FROM cafe_tables WHERE number = $1`

func (q *Queries) GetTableByNumber(ctx context.Context, number int32) (CafeTable, error) {
	return scanCafeTable(q.db.QueryRow(ctx, getTableByNumber, number))
}

const getTableByNumberForUpdate = `SELECT ` + tableColumns + ` FROM cafe_tables WHERE number = $1 FOR UPDATE`

func (q *Queries) GetTableByNumberForUpdate(ctx context.Context, number int32) (CafeTable, error) {
	return scanCafeTable(q.db.QueryRow(ctx, getTableByNumberForUpdate, number))
}

const getMaxTableNumber = `SELECT COALESCE(MAX(number), 0)::integer FROM cafe_tables`

func (q *Queries) GetMaxTableNumber(ctx context.Context) (int32, error) {
	var n int32
	err := q.db.QueryRow(ctx, getMaxTableNumber).Scan(&n)
	return n, err
}

const createTable = `
INSERT INTO cafe_tables (number, status)
VALUES ($1, 'Empty')
RETURNING ` + tableColumns

func (q *Queries) CreateTable(ctx context.Context, number int32) (CafeTable, error) {
	return scanCafeTable(q.db.QueryRow(ctx, createTable, number))
}

const deleteTable = `
DELETE FROM cafe_tables
WHERE number = $1 AND status = 'Empty' AND active_order_id IS NULL
`

func (q *Queries) DeleteTable(ctx context.Context, number int32) (int64, error) {
	result, err := q.db.Exec(ctx, deleteTable, number)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const setTableStatus = `
UPDATE cafe_tables SET status = $2
WHERE number = $1
RETURNING ` + tableColumns

type SetTableStatusParams struct {
	Number int32  `json:"number"`
	Status string `json:"status"`
}

func (q *Queries) SetTableStatus(ctx context.Context, arg SetTableStatusParams) (CafeTable, error) {
	return scanCafeTable(q.db.QueryRow(ctx, setTableStatus, arg.Number, arg.Status))
}

const attachTableOrder = `
UPDATE cafe_tables
SET active_order_id = $2, status = 'Occupied', current_net_total = 0, current_discount = 0
WHERE number = $1
RETURNING ` + tableColumns

type AttachTableOrderParams struct {
	Number        int32 `json:"number"`
	ActiveOrderID int64 `json:"active_order_id"`
}

func (q *Queries) AttachTableOrder(ctx context.Context, arg AttachTableOrderParams) (CafeTable, error) {
	return scanCafeTable(q.db.QueryRow(ctx, attachTableOrder, arg.Number, arg.ActiveOrderID))
}

const updateTableTotalsByOrder = `
UPDATE cafe_tables
SET current_net_total = $2, current_discount = $3
WHERE active_order_id = $1
`

type UpdateTableTotalsByOrderParams struct {
	ActiveOrderID   int64           `json:"active_order_id"`
	CurrentNetTotal decimal.Decimal `json:"current_net_total"`
	CurrentDiscount decimal.Decimal `json:"current_discount"`
}

func (q *Queries) UpdateTableTotalsByOrder(ctx context.Context, arg UpdateTableTotalsByOrderParams) error {
	_, err := q.db.Exec(ctx, updateTableTotalsByOrder, arg.ActiveOrderID, arg.CurrentNetTotal, arg.CurrentDiscount)
	return err
}

const markTableOccupiedByOrder = `UPDATE cafe_tables SET status = 'Occupied' WHERE active_order_id = $1`

func (q *Queries) MarkTableOccupiedByOrder(ctx context.Context, orderID int64) error {
	_, err := q.db.Exec(ctx, markTableOccupiedByOrder, orderID)
	return err
}

const releaseTableByOrder = `
UPDATE cafe_tables
SET active_order_id = NULL, status = 'Empty', current_net_total = 0, current_discount = 0
WHERE active_order_id = $1
`

func (q *Queries) ReleaseTableByOrder(ctx context.Context, orderID int64) error {
	_, err := q.db.Exec(ctx, releaseTableByOrder, orderID)
	return err
}

const listLateTables = `
SELECT t.number, t.status, o.id, o.last_activity_at
FROM cafe_tables t
JOIN orders o ON o.id = t.active_order_id
WHERE t.status IN ('Occupied', 'Late')
  AND o.last_activity_at IS NOT NULL
  AND o.last_activity_at < $1
ORDER BY t.number
`

type ListLateTablesRow struct {
	Number         int32     `json:"number"`
	Status         string    `json:"status"`
	OrderID        int64     `json:"order_id"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

func (q *Queries) ListLateTables(ctx context.Context, lastActivityBefore time.Time) ([]ListLateTablesRow, error) {
	rows, err := q.db.Query(ctx, listLateTables, lastActivityBefore)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListLateTablesRow
	for rows.Next() {
		var i ListLateTablesRow
		if err := rows.Scan(&i.Number, &i.Status, &i.OrderID, &i.LastActivityAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
