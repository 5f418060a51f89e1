// Package archive keeps closed orders of past years in a per-year schema
// (archive_<year>) of the archive database.
package archive

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/kafe-adisyon/api/internal/database"
)

var ErrInvalidYear = errors.New("invalid archive year")

// DB is satisfied by *pgxpool.Pool.
type DB interface {
	database.DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Order is an archived order with its line items.
type Order struct {
	database.Order
	Items []database.OrderItem `json:"items"`
}

// Store copies orders into the archive database.
type Store struct {
	db DB
}

// NewStore creates a new archive Store.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

// SchemaName returns the schema that holds the archive of year.
func SchemaName(year int) string {
	return fmt.Sprintf("archive_%d", year)
}

func table(year int, name string) string {
	return pgx.Identifier{SchemaName(year), name}.Sanitize()
}

// ArchiveOrders writes orders and items into the year's schema, creating it
// on first use. Rows already present are left untouched, so a repeated run
// is harmless. The returned handle is the schema name.
func (s *Store) ArchiveOrders(ctx context.Context, year int, orders []database.Order, items []database.OrderItem) (string, error) {
	if year <= 0 {
		return "", ErrInvalidYear
	}
	schema := SchemaName(year)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := ensureSchema(ctx, tx, year); err != nil {
		return "", err
	}

	batch := &pgx.Batch{}
	insertOrder := `INSERT INTO ` + table(year, "orders") + ` (
		id, table_number, opened_at, closed_at, status, gross_total, discount,
		amount_paid, payment_method, last_activity_at, customer_id
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (id) DO NOTHING`
	for _, o := range orders {
		batch.Queue(insertOrder,
			o.ID, o.TableNumber, o.OpenedAt, o.ClosedAt, o.Status, o.GrossTotal, o.Discount,
			o.AmountPaid, o.PaymentMethod, o.LastActivityAt, o.CustomerID,
		)
	}

	insertItem := `INSERT INTO ` + table(year, "order_items") + ` (
		id, order_id, product_id, product_name, quantity, unit_price, amount, category_id, added_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (id) DO NOTHING`
	for _, it := range items {
		batch.Queue(insertItem,
			it.ID, it.OrderID, it.ProductID, it.ProductName, it.Quantity,
			it.UnitPrice, it.Amount, it.CategoryID, it.AddedAt,
		)
	}

	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return "", fmt.Errorf("insert archive rows: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("commit tx: %w", err)
	}
	return schema, nil
}

func ensureSchema(ctx context.Context, tx pgx.Tx, year int) error {
	stmts := []string{
		`CREATE SCHEMA IF NOT EXISTS ` + pgx.Identifier{SchemaName(year)}.Sanitize(),
		`CREATE TABLE IF NOT EXISTS ` + table(year, "orders") + ` (
			id               BIGINT PRIMARY KEY,
			table_number     INTEGER NOT NULL,
			opened_at        TIMESTAMPTZ NOT NULL,
			closed_at        TIMESTAMPTZ,
			status           TEXT NOT NULL,
			gross_total      NUMERIC(12,2) NOT NULL,
			discount         NUMERIC(12,2) NOT NULL,
			amount_paid      NUMERIC(12,2) NOT NULL,
			payment_method   TEXT,
			last_activity_at TIMESTAMPTZ,
			customer_id      BIGINT
		)`,
		`CREATE TABLE IF NOT EXISTS ` + table(year, "order_items") + ` (
			id           BIGINT PRIMARY KEY,
			order_id     BIGINT NOT NULL REFERENCES ` + table(year, "orders") + `(id) ON DELETE CASCADE,
			product_id   BIGINT,
			product_name TEXT NOT NULL,
			quantity     INTEGER NOT NULL,
			unit_price   NUMERIC(12,2) NOT NULL,
			amount       NUMERIC(12,2) NOT NULL,
			category_id  BIGINT,
			added_at     TIMESTAMPTZ NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create archive schema: %w", err)
		}
	}
	return nil
}

const schemaExists = `SELECT EXISTS (SELECT 1 FROM information_schema.schemata WHERE schema_name = $1)`

// ListOrders returns the archived orders of year with their line items.
// A year that was never archived yields an empty list.
func (s *Store) ListOrders(ctx context.Context, year int) ([]Order, error) {
	if year <= 0 {
		return nil, ErrInvalidYear
	}

	var exists bool
	if err := s.db.QueryRow(ctx, schemaExists, SchemaName(year)).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check archive schema: %w", err)
	}
	if !exists {
		return []Order{}, nil
	}

	rows, err := s.db.Query(ctx, `SELECT id, table_number, opened_at, closed_at, status, gross_total, discount,
		amount_paid, payment_method, last_activity_at, customer_id
		FROM `+table(year, "orders")+` ORDER BY closed_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list archived orders: %w", err)
	}
	orders, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Order, error) {
		var o Order
		err := row.Scan(
			&o.ID, &o.TableNumber, &o.OpenedAt, &o.ClosedAt, &o.Status, &o.GrossTotal, &o.Discount,
			&o.AmountPaid, &o.PaymentMethod, &o.LastActivityAt, &o.CustomerID,
		)
		o.Items = []database.OrderItem{}
		return o, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan archived orders: %w", err)
	}

	rows, err = s.db.Query(ctx, `SELECT id, order_id, product_id, product_name, quantity, unit_price, amount, category_id, added_at
		FROM `+table(year, "order_items")+` ORDER BY order_id, id`)
	if err != nil {
		return nil, fmt.Errorf("list archived items: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (database.OrderItem, error) {
		var it database.OrderItem
		err := row.Scan(
			&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity,
			&it.UnitPrice, &it.Amount, &it.CategoryID, &it.AddedAt,
		)
		return it, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan archived items: %w", err)
	}

	byID := make(map[int64]int, len(orders))
	for i, o := range orders {
		byID[o.ID] = i
	}
	for _, it := range items {
		if i, ok := byID[it.OrderID]; ok {
			orders[i].Items = append(orders[i].Items, it)
		}
	}
	return orders, nil
}
