//go:build integration

package archive_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kafe-adisyon/api/internal/archive"
	"github.com/kafe-adisyon/api/internal/database"
	"github.com/kafe-adisyon/api/internal/enum"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestArchiveOrdersRoundTrip(t *testing.T) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("kafe_archive"),
		tcpostgres.WithUsername("kafe"),
		tcpostgres.WithPassword("kafe"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(context.Background()); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("get connection string: %v", err)
	}
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	defer pool.Close()

	store := archive.NewStore(pool)

	empty, err := store.ListOrders(ctx, 2024)
	if err != nil {
		t.Fatalf("list before archiving: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected no archived orders, got %d", len(empty))
	}

	closedAt := time.Date(2024, time.December, 30, 21, 15, 0, 0, time.UTC)
	orders := []database.Order{
		{
			ID:            7,
			TableNumber:   4,
			OpenedAt:      closedAt.Add(-time.Hour),
			ClosedAt:      pgtype.Timestamptz{Time: closedAt, Valid: true},
			Status:        enum.OrderStatusClosed,
			GrossTotal:    decimal.RequireFromString("140.00"),
			Discount:      decimal.RequireFromString("10.00"),
			AmountPaid:    decimal.RequireFromString("130.00"),
			PaymentMethod: pgtype.Text{String: enum.PaymentMethodCash, Valid: true},
		},
	}
	items := []database.OrderItem{
		{ID: 11, OrderID: 7, ProductID: pgtype.Int8{Int64: 1, Valid: true}, ProductName: "Espresso", Quantity: 1,
			UnitPrice: decimal.RequireFromString("110.00"), Amount: decimal.RequireFromString("110.00"), AddedAt: closedAt.Add(-time.Hour)},
		{ID: 12, OrderID: 7, ProductName: "Çay", Quantity: 1,
			UnitPrice: decimal.RequireFromString("30.00"), Amount: decimal.RequireFromString("30.00"), AddedAt: closedAt.Add(-30 * time.Minute)},
	}

	// Archiving the same rows twice must not fail or duplicate them.
	for i := 0; i < 2; i++ {
		dest, err := store.ArchiveOrders(ctx, 2024, orders, items)
		if err != nil {
			t.Fatalf("archive run %d: %v", i+1, err)
		}
		if dest != "archive_2024" {
			t.Errorf("destination: got %q, want archive_2024", dest)
		}
	}

	got, err := store.ListOrders(ctx, 2024)
	if err != nil {
		t.Fatalf("list archived orders: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 archived order, got %d", len(got))
	}
	o := got[0]
	if o.ID != 7 || o.TableNumber != 4 || o.Status != enum.OrderStatusClosed {
		t.Errorf("unexpected order: %+v", o.Order)
	}
	if !o.GrossTotal.Equal(decimal.RequireFromString("140")) || !o.Discount.Equal(decimal.RequireFromString("10")) {
		t.Errorf("totals: gross %s discount %s", o.GrossTotal, o.Discount)
	}
	if o.PaymentMethod.String != enum.PaymentMethodCash {
		t.Errorf("payment method: got %q", o.PaymentMethod.String)
	}
	if len(o.Items) != 2 || o.Items[0].ProductName != "Espresso" || o.Items[1].ProductID.Valid {
		t.Errorf("unexpected items: %+v", o.Items)
	}

	other, err := store.ListOrders(ctx, 2023)
	if err != nil {
		t.Fatalf("list other year: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("2023 should be empty, got %d", len(other))
	}
}
