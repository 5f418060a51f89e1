package service

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/kafe-adisyon/api/internal/database"
	"github.com/kafe-adisyon/api/internal/enum"
	"github.com/kafe-adisyon/api/internal/metrics"
)

const minArchiveYear = 2000

// ArchiveResult reports what an archive run moved and where.
type ArchiveResult struct {
	Year        int
	Count       int
	Destination string
}

// ArchiveClosedOrders copies every Closed order closed on or before Dec 31
// of cutoffYear, with its line items, to the archive store and then deletes
// them from the primary store.
//
// If the copy fails nothing is deleted. If the copy succeeds but the
// deletion does not, the returned result describes the copy and the error
// is ErrArchivePartial: the orders then exist in both stores.
func (l *Ledger) ArchiveClosedOrders(ctx context.Context, cutoffYear int) (*ArchiveResult, error) {
	if cutoffYear < minArchiveYear || cutoffYear > l.now().Year() {
		return nil, ErrInvalidYear
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	result, err := l.archiveLocked(ctx, cutoffYear)
	metrics.LedgerOperationsTotal.WithLabelValues("archive_closed_orders", resultLabel(err)).Inc()
	return result, err
}

func (l *Ledger) archiveLocked(ctx context.Context, cutoffYear int) (*ArchiveResult, error) {
	const op = "archive_closed_orders"

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: begin tx: %w: %w", op, ErrStorage, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck
	store := l.newStore(tx)

	cutoff := time.Date(cutoffYear+1, time.January, 1, 0, 0, 0, 0, l.now().Location())
	orders, err := store.ListClosedOrdersBefore(ctx, cutoff)
	if err != nil {
		return nil, classify(op, fmt.Errorf("list closed orders: %w", err))
	}

	ids := make([]int64, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}

	var items []database.OrderItem
	if len(ids) > 0 {
		items, err = store.ListOrderItemsByOrders(ctx, ids)
		if err != nil {
			return nil, classify(op, fmt.Errorf("list line items: %w", err))
		}
	}

	// --- Copy phase ---
	dest, err := l.archiver.ArchiveOrders(ctx, cutoffYear, orders, items)
	if err != nil {
		return nil, fmt.Errorf("%s: copy to archive: %w: %w", op, ErrStorage, err)
	}
	result := &ArchiveResult{Year: cutoffYear, Count: len(orders), Destination: dest}

	// --- Delete phase ---
	if len(ids) > 0 {
		n, err := store.DeleteOrdersByIDs(ctx, ids)
		if err != nil {
			return result, partial(err)
		}
		if n != int64(len(ids)) {
			return result, partial(fmt.Errorf("deleted %d of %d orders", n, len(ids)))
		}
	}
	if _, err := store.UpsertSetting(ctx, database.UpsertSettingParams{
		Key:   enum.SettingLastArchivedYear,
		Value: strconv.Itoa(cutoffYear),
	}); err != nil {
		return result, partial(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return result, partial(err)
	}

	metrics.ArchivedOrdersTotal.Add(float64(len(orders)))
	return result, nil
}

func partial(err error) error {
	return fmt.Errorf("%w: %w", ErrArchivePartial, err)
}

// ArchiveIfDue archives the previous calendar year when it is newer than
// the last archived year. It returns nil when nothing was due.
func (l *Ledger) ArchiveIfDue(ctx context.Context) (*ArchiveResult, error) {
	last, err := l.LastArchivedYear(ctx)
	if err != nil {
		return nil, err
	}
	due := l.now().Year() - 1
	if last >= due {
		return nil, nil
	}

	result, err := l.ArchiveClosedOrders(ctx, due)
	if err != nil {
		return result, err
	}
	log.Printf("archived %d closed orders up to %d into %s", result.Count, result.Year, result.Destination)
	return result, nil
}
