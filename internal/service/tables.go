package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/kafe-adisyon/api/internal/database"
	"github.com/kafe-adisyon/api/internal/enum"
)

// LateTable is a table whose open order has been idle past a threshold.
type LateTable struct {
	TableNumber    int32
	OrderID        int64
	Status         string
	LastActivityAt time.Time
}

// ListTables returns every table ordered by number, with the name of the
// customer linked to its open order, if any.
func (l *Ledger) ListTables(ctx context.Context) ([]database.ListTablesRow, error) {
	tables, err := l.store.ListTables(ctx)
	if err != nil {
		return nil, classify("list_tables", err)
	}
	if tables == nil {
		tables = []database.ListTablesRow{}
	}
	return tables, nil
}

// AddTable creates an empty table numbered one past the current highest.
func (l *Ledger) AddTable(ctx context.Context) (database.CafeTable, error) {
	var table database.CafeTable
	err := l.withTx(ctx, "add_table", func(store LedgerStore) error {
		max, err := store.GetMaxTableNumber(ctx)
		if err != nil {
			return fmt.Errorf("get max table number: %w", err)
		}
		table, err = store.CreateTable(ctx, max+1)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrTableExists
			}
			return fmt.Errorf("create table: %w", err)
		}
		return nil
	})
	if err != nil {
		return database.CafeTable{}, err
	}
	return table, nil
}

// DeleteTable removes an empty table.
func (l *Ledger) DeleteTable(ctx context.Context, number int32) error {
	return l.withTx(ctx, "delete_table", func(store LedgerStore) error {
		table, err := store.GetTableByNumberForUpdate(ctx, number)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrTableNotFound
			}
			return fmt.Errorf("get table: %w", err)
		}
		if table.Status != enum.TableStatusEmpty || table.ActiveOrderID.Valid {
			return ErrTableNotEmpty
		}

		n, err := store.DeleteTable(ctx, number)
		if err != nil {
			return fmt.Errorf("delete table: %w", err)
		}
		if n == 0 {
			return ErrTableNotEmpty
		}
		return nil
	})
}

// SetTableStatus changes only a table's status. Empty is reserved for
// tables without an open order and the other statuses require one.
func (l *Ledger) SetTableStatus(ctx context.Context, tableNumber int32, status string) error {
	if !enum.IsTableStatus(status) {
		return ErrInvalidTableStatus
	}

	return l.withTx(ctx, "set_table_status", func(store LedgerStore) error {
		table, err := store.GetTableByNumberForUpdate(ctx, tableNumber)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrTableNotFound
			}
			return fmt.Errorf("get table: %w", err)
		}

		hasOrder := table.ActiveOrderID.Valid
		if status == enum.TableStatusEmpty && hasOrder {
			return ErrTableHasOpenOrder
		}
		if status != enum.TableStatusEmpty && !hasOrder {
			return ErrTableHasNoOrder
		}

		if _, err := store.SetTableStatus(ctx, database.SetTableStatusParams{
			Number: tableNumber,
			Status: status,
		}); err != nil {
			return fmt.Errorf("set table status: %w", err)
		}
		return nil
	})
}

// MarkTableLate flags a table Late if it still holds orderID and that order
// has had no activity for longer than threshold. Both are re-checked under
// the table's row lock, so a read from GetLateTables that went stale is a
// no-op. It reports whether the table was marked.
func (l *Ledger) MarkTableLate(ctx context.Context, tableNumber int32, orderID int64, threshold time.Duration) (bool, error) {
	if threshold <= 0 {
		return false, ErrInvalidThreshold
	}

	marked := false
	err := l.withTx(ctx, "mark_table_late", func(store LedgerStore) error {
		table, err := store.GetTableByNumberForUpdate(ctx, tableNumber)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrTableNotFound
			}
			return fmt.Errorf("get table: %w", err)
		}
		if !table.ActiveOrderID.Valid || table.ActiveOrderID.Int64 != orderID || table.Status == enum.TableStatusLate {
			return nil
		}

		order, err := store.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("get order: %w", err)
		}
		cutoff := l.now().Add(-threshold)
		if order.Status != enum.OrderStatusOpen || !order.LastActivityAt.Valid || !order.LastActivityAt.Time.Before(cutoff) {
			return nil
		}

		if _, err := store.SetTableStatus(ctx, database.SetTableStatusParams{
			Number: tableNumber,
			Status: enum.TableStatusLate,
		}); err != nil {
			return fmt.Errorf("set table status: %w", err)
		}
		marked = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return marked, nil
}

// GetLateTables lists occupied or late tables whose open order has had no
// activity for longer than threshold. It does not change any table.
func (l *Ledger) GetLateTables(ctx context.Context, threshold time.Duration) ([]LateTable, error) {
	if threshold <= 0 {
		return nil, ErrInvalidThreshold
	}

	rows, err := l.store.ListLateTables(ctx, l.now().Add(-threshold))
	if err != nil {
		return nil, classify("list_late_tables", err)
	}

	late := make([]LateTable, len(rows))
	for i, r := range rows {
		late[i] = LateTable{
			TableNumber:    r.Number,
			OrderID:        r.OrderID,
			Status:         r.Status,
			LastActivityAt: r.LastActivityAt,
		}
	}
	return late, nil
}
