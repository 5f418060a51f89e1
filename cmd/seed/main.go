package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kafe-adisyon/api/internal/config"
	"github.com/kafe-adisyon/api/internal/database"
	"github.com/kafe-adisyon/api/internal/seed"
)

func main() {
	// CLI flags
	username := flag.String("username", "", "Admin username")
	password := flag.String("password", "", "Admin password")
	name := flag.String("name", "", "Admin full name")
	tables := flag.Int("tables", 0, "Number of tables to create when none exist (default DEFAULT_TABLE_COUNT)")
	flag.Parse()

	// Fall back to environment variables
	if *username == "" {
		*username = os.Getenv("SEED_USERNAME")
	}
	if *password == "" {
		*password = os.Getenv("SEED_PASSWORD")
	}
	if *name == "" {
		*name = os.Getenv("SEED_NAME")
	}

	// Fall back to defaults
	if *username == "" {
		*username = "admin"
	}
	if *password == "" {
		*password = "password123"
		log.Println("WARNING: Using default password 'password123'. Change immediately in production!")
	}
	if *name == "" {
		*name = "Kafe Yöneticisi"
	}

	cfg := config.Load()
	if *tables <= 0 {
		*tables = cfg.DefaultTableCount
	}

	if err := database.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Connect to database
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Unable to ping database: %v", err)
	}
	log.Println("Connected to database")

	if err := seed.Defaults(ctx, pool, *tables); err != nil {
		log.Fatalf("Failed to seed defaults: %v", err)
	}

	userID, err := seed.Admin(ctx, pool, *username, *password, *name)
	if err != nil {
		log.Fatalf("Failed to seed admin: %v", err)
	}

	log.Println("Seed completed successfully")
	log.Printf("Admin ID: %s", userID)
}
