// Package seed inserts the default floor plan, menu and admin account.
// Every step checks for existing rows first, so running it twice is safe.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kafe-adisyon/api/internal/database"
	"github.com/kafe-adisyon/api/internal/enum"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// TxBeginner is satisfied by *pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Defaults creates tables 1..tableCount when there are no tables, and the
// default categories and products when the catalog is empty. All of it is
// committed together or not at all.
func Defaults(ctx context.Context, db TxBeginner, tableCount int) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := seedTables(ctx, tx, tableCount); err != nil {
		return fmt.Errorf("seed tables: %w", err)
	}
	categories, err := seedCategories(ctx, tx)
	if err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}
	if err := seedProducts(ctx, tx, categories); err != nil {
		return fmt.Errorf("seed products: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Admin creates an ADMIN user unless one with the same username exists.
func Admin(ctx context.Context, db database.DBTX, username, password, fullName string) (uuid.UUID, error) {
	var existingID uuid.UUID
	checkSQL := `SELECT id FROM users WHERE username = $1 LIMIT 1`
	err := db.QueryRow(ctx, checkSQL, username).Scan(&existingID)
	if err == nil {
		log.Printf("User '%s' already exists (ID: %s), skipping", username, existingID)
		return existingID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("check user: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return uuid.Nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := database.New(db).CreateUser(ctx, database.CreateUserParams{
		Username:       username,
		HashedPassword: string(hashed),
		FullName:       fullName,
		Role:           enum.UserRoleAdmin,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert user: %w", err)
	}

	log.Printf("Created admin user '%s' (ID: %s)", username, user.ID)
	return user.ID, nil
}

func count(ctx context.Context, tx pgx.Tx, table string) (int64, error) {
	var n int64
	err := tx.QueryRow(ctx, "SELECT count(*) FROM "+pgx.Identifier{table}.Sanitize()).Scan(&n)
	return n, err
}

func seedTables(ctx context.Context, tx pgx.Tx, tableCount int) error {
	n, err := count(ctx, tx, "cafe_tables")
	if err != nil {
		return err
	}
	if n > 0 {
		log.Printf("%d tables already exist, skipping", n)
		return nil
	}

	q := database.New(tx)
	for i := 1; i <= tableCount; i++ {
		if _, err := q.CreateTable(ctx, int32(i)); err != nil {
			return fmt.Errorf("create table %d: %w", i, err)
		}
	}
	log.Printf("Created %d tables", tableCount)
	return nil
}

// seedCategories returns category ids by name, inserting the defaults when
// the table is empty.
func seedCategories(ctx context.Context, tx pgx.Tx) (map[string]int64, error) {
	q := database.New(tx)
	existing, err := q.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	ids := make(map[string]int64, len(DefaultCategories))
	if len(existing) > 0 {
		for _, c := range existing {
			ids[c.Name] = c.ID
		}
		log.Printf("%d categories already exist, skipping", len(existing))
		return ids, nil
	}

	for _, name := range DefaultCategories {
		c, err := q.CreateCategory(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("create category %q: %w", name, err)
		}
		ids[c.Name] = c.ID
	}
	log.Printf("Created %d categories", len(DefaultCategories))
	return ids, nil
}

func seedProducts(ctx context.Context, tx pgx.Tx, categories map[string]int64) error {
	n, err := count(ctx, tx, "products")
	if err != nil {
		return err
	}
	if n > 0 {
		log.Printf("%d products already exist, skipping", n)
		return nil
	}

	q := database.New(tx)
	for _, p := range DefaultProducts {
		var categoryID pgtype.Int8
		if id, ok := categories[p.Category]; ok {
			categoryID = pgtype.Int8{Int64: id, Valid: true}
		}
		if _, err := q.CreateProduct(ctx, database.CreateProductParams{
			Name:          p.Name,
			Price:         decimal.RequireFromString(p.Price),
			CategoryID:    categoryID,
			Active:        p.Active,
			QuickSaleRank: p.QuickSaleRank,
		}); err != nil {
			return fmt.Errorf("create product %q: %w", p.Name, err)
		}
	}
	log.Printf("Created %d products", len(DefaultProducts))
	return nil
}
