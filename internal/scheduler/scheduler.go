// Package scheduler runs the background jobs of the ledger: flagging idle
// tables as late and archiving the previous year's closed orders.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/kafe-adisyon/api/internal/enum"
	"github.com/kafe-adisyon/api/internal/metrics"
	"github.com/kafe-adisyon/api/internal/service"
	"github.com/kafe-adisyon/api/internal/ws"
)

const archiveInterval = 24 * time.Hour

// Ledger is the part of *service.Ledger the jobs drive.
type Ledger interface {
	GetLateTables(ctx context.Context, threshold time.Duration) ([]service.LateTable, error)
	MarkTableLate(ctx context.Context, tableNumber int32, orderID int64, threshold time.Duration) (bool, error)
	ArchiveIfDue(ctx context.Context) (*service.ArchiveResult, error)
}

// Publisher is satisfied by *ws.Hub.
type Publisher interface {
	Publish(tableNumber int32, eventType string, payload any)
}

type lateTablePayload struct {
	OrderID        int64     `json:"order_id"`
	LastActivityAt time.Time `json:"last_activity_at"`
	IdleMinutes    int       `json:"idle_minutes"`
}

// LateTableWatcher flags occupied tables whose order has been idle too long.
type LateTableWatcher struct {
	ledger    Ledger
	events    Publisher
	threshold time.Duration
	now       func() time.Time
}

func NewLateTableWatcher(ledger Ledger, events Publisher, threshold time.Duration) *LateTableWatcher {
	return &LateTableWatcher{ledger: ledger, events: events, threshold: threshold, now: time.Now}
}

// Check marks every newly late table and returns how many tables are late.
// Tables already marked late are counted but not announced again.
func (w *LateTableWatcher) Check(ctx context.Context) (int, error) {
	late, err := w.ledger.GetLateTables(ctx, w.threshold)
	if err != nil {
		return 0, fmt.Errorf("get late tables: %w", err)
	}

	count := 0
	for _, t := range late {
		if t.Status == enum.TableStatusLate {
			count++
			continue
		}
		marked, err := w.ledger.MarkTableLate(ctx, t.TableNumber, t.OrderID, w.threshold)
		if err != nil {
			if !errors.Is(err, service.ErrTableNotFound) {
				log.Printf("ERROR: mark table %d late: %v", t.TableNumber, err)
			}
			continue
		}
		// The order was closed, replaced or touched since the read.
		if !marked {
			continue
		}
		count++
		if w.events != nil {
			w.events.Publish(t.TableNumber, ws.EventTableLate, lateTablePayload{
				OrderID:        t.OrderID,
				LastActivityAt: t.LastActivityAt,
				IdleMinutes:    int(w.now().Sub(t.LastActivityAt).Minutes()),
			})
		}
	}

	metrics.LateTables.Set(float64(count))
	return count, nil
}

// Scheduler owns the gocron scheduler for the ledger jobs.
type Scheduler struct {
	cron     *gocron.Scheduler
	watcher  *LateTableWatcher
	ledger   Ledger
	interval time.Duration
}

func New(ledger Ledger, watcher *LateTableWatcher, interval time.Duration) *Scheduler {
	cron := gocron.NewScheduler(time.Local)
	cron.SingletonModeAll()
	return &Scheduler{cron: cron, watcher: watcher, ledger: ledger, interval: interval}
}

// Start schedules the late-table check every interval and the archive job
// once a day. Both jobs run once immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.Every(s.interval).Do(func() {
		if _, err := s.watcher.Check(ctx); err != nil {
			log.Printf("ERROR: late table check: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule late table check: %w", err)
	}

	if _, err := s.cron.Every(archiveInterval).Do(func() {
		s.runArchive(ctx)
	}); err != nil {
		return fmt.Errorf("schedule archive: %w", err)
	}

	s.cron.StartAsync()
	return nil
}

func (s *Scheduler) runArchive(ctx context.Context) {
	result, err := s.ledger.ArchiveIfDue(ctx)
	if err != nil {
		if errors.Is(err, service.ErrArchivePartial) && result != nil {
			log.Printf("WARN: archive copied %d orders but did not finish: %v", result.Count, err)
			return
		}
		log.Printf("ERROR: archive closed orders: %v", err)
	}
}

// Stop waits for running jobs and stops the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}
