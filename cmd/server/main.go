package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kafe-adisyon/api/internal/archive"
	"github.com/kafe-adisyon/api/internal/config"
	"github.com/kafe-adisyon/api/internal/database"
	"github.com/kafe-adisyon/api/internal/metrics"
	"github.com/kafe-adisyon/api/internal/router"
	"github.com/kafe-adisyon/api/internal/scheduler"
	"github.com/kafe-adisyon/api/internal/seed"
	"github.com/kafe-adisyon/api/internal/service"
	"github.com/kafe-adisyon/api/internal/ws"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Unable to ping database: %v", err)
	}

	archivePool := pool
	if cfg.ArchiveDatabaseURL != cfg.DatabaseURL {
		archivePool, err = pgxpool.New(ctx, cfg.ArchiveDatabaseURL)
		if err != nil {
			log.Fatalf("Unable to connect to archive database: %v", err)
		}
		defer archivePool.Close()
	}

	if err := seed.Defaults(ctx, pool, cfg.DefaultTableCount); err != nil {
		log.Fatalf("Failed to seed defaults: %v", err)
	}

	metrics.Init()

	queries := database.New(pool)
	archives := archive.NewStore(archivePool)
	ledger := service.NewLedger(queries, pool, func(db database.DBTX) service.LedgerStore {
		return database.New(db)
	}, archives)

	hub := ws.NewHub()
	go hub.Run(ctx)

	watcher := scheduler.NewLateTableWatcher(ledger, hub, cfg.LateTableThreshold)
	sched := scheduler.New(ledger, watcher, cfg.LateTableInterval)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router.New(cfg, queries, ledger, archives, hub),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("ERROR: shutdown: %v", err)
		}
	}()

	log.Printf("Starting server on :%s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
	log.Println("Server stopped")
}
