package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/kafe-adisyon/api/internal/database"
	"github.com/shopspring/decimal"
)

// ProductInput is the validated input for creating or updating a product.
type ProductInput struct {
	Name          string
	Price         decimal.Decimal
	CategoryID    *int64
	Active        bool
	QuickSaleRank int32
	StockQuantity *int32
}

// ProductFilter narrows ListProducts.
type ProductFilter struct {
	IncludeInactive bool
	CategoryID      *int64
}

// --- Categories ---

func (l *Ledger) ListCategories(ctx context.Context) ([]database.Category, error) {
	categories, err := l.store.ListCategories(ctx)
	if err != nil {
		return nil, classify("list_categories", err)
	}
	if categories == nil {
		categories = []database.Category{}
	}
	return categories, nil
}

func (l *Ledger) CreateCategory(ctx context.Context, name string) (database.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return database.Category{}, ErrNameRequired
	}

	var category database.Category
	err := l.withTx(ctx, "create_category", func(store LedgerStore) error {
		var err error
		category, err = store.CreateCategory(ctx, name)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrCategoryExists
			}
			return fmt.Errorf("create category: %w", err)
		}
		return nil
	})
	return category, err
}

func (l *Ledger) RenameCategory(ctx context.Context, id int64, name string) (database.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return database.Category{}, ErrNameRequired
	}

	var category database.Category
	err := l.withTx(ctx, "rename_category", func(store LedgerStore) error {
		var err error
		category, err = store.RenameCategory(ctx, database.RenameCategoryParams{ID: id, Name: name})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrCategoryNotFound
			}
			if isUniqueViolation(err) {
				return ErrCategoryExists
			}
			return fmt.Errorf("rename category: %w", err)
		}
		return nil
	})
	return category, err
}

// DeleteCategory removes a category that no active product uses. Inactive
// products keep existing without a category.
func (l *Ledger) DeleteCategory(ctx context.Context, id int64) error {
	return l.withTx(ctx, "delete_category", func(store LedgerStore) error {
		n, err := store.CountActiveProductsByCategory(ctx, id)
		if err != nil {
			return fmt.Errorf("count products: %w", err)
		}
		if n > 0 {
			return ErrCategoryInUse
		}

		deleted, err := store.DeleteCategory(ctx, id)
		if err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		if deleted == 0 {
			return ErrCategoryNotFound
		}
		return nil
	})
}

// --- Products ---

func (l *Ledger) ListProducts(ctx context.Context, filter ProductFilter) ([]database.ProductRow, error) {
	products, err := l.store.ListProducts(ctx, database.ListProductsParams{
		IncludeInactive: filter.IncludeInactive,
		CategoryID:      optionalInt8(filter.CategoryID),
	})
	if err != nil {
		return nil, classify("list_products", err)
	}
	if products == nil {
		products = []database.ProductRow{}
	}
	return products, nil
}

// ListQuickSaleProducts returns active products with a positive quick-sale
// rank, ordered by rank then name.
func (l *Ledger) ListQuickSaleProducts(ctx context.Context, categoryID *int64) ([]database.ProductRow, error) {
	products, err := l.store.ListQuickSaleProducts(ctx, optionalInt8(categoryID))
	if err != nil {
		return nil, classify("list_quick_sale_products", err)
	}
	if products == nil {
		products = []database.ProductRow{}
	}
	return products, nil
}

func (l *Ledger) GetProduct(ctx context.Context, id int64) (database.Product, error) {
	product, err := l.store.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Product{}, ErrProductNotFound
		}
		return database.Product{}, classify("get_product", err)
	}
	return product, nil
}

func (l *Ledger) CreateProduct(ctx context.Context, in ProductInput) (database.Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateProduct(in); err != nil {
		return database.Product{}, err
	}

	var product database.Product
	err := l.withTx(ctx, "create_product", func(store LedgerStore) error {
		if err := checkCategory(ctx, store, in.CategoryID); err != nil {
			return err
		}
		var err error
		product, err = store.CreateProduct(ctx, database.CreateProductParams{
			Name:          in.Name,
			Price:         in.Price,
			CategoryID:    optionalInt8(in.CategoryID),
			Active:        in.Active,
			QuickSaleRank: in.QuickSaleRank,
			StockQuantity: optionalInt4(in.StockQuantity),
		})
		if err != nil {
			if isUniqueViolation(err) {
				return ErrProductExists
			}
			return fmt.Errorf("create product: %w", err)
		}
		return nil
	})
	return product, err
}

// UpdateProduct replaces a product's catalog fields. Line items already on
// orders keep their snapshots.
func (l *Ledger) UpdateProduct(ctx context.Context, id int64, in ProductInput) (database.Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateProduct(in); err != nil {
		return database.Product{}, err
	}

	var product database.Product
	err := l.withTx(ctx, "update_product", func(store LedgerStore) error {
		if err := checkCategory(ctx, store, in.CategoryID); err != nil {
			return err
		}
		var err error
		product, err = store.UpdateProduct(ctx, database.UpdateProductParams{
			ID:            id,
			Name:          in.Name,
			Price:         in.Price,
			CategoryID:    optionalInt8(in.CategoryID),
			Active:        in.Active,
			QuickSaleRank: in.QuickSaleRank,
			StockQuantity: optionalInt4(in.StockQuantity),
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrProductNotFound
			}
			if isUniqueViolation(err) {
				return ErrProductExists
			}
			return fmt.Errorf("update product: %w", err)
		}
		return nil
	})
	return product, err
}

// SetProductActive soft-deletes (active=false) or restores a product.
func (l *Ledger) SetProductActive(ctx context.Context, id int64, active bool) (database.Product, error) {
	var product database.Product
	err := l.withTx(ctx, "set_product_active", func(store LedgerStore) error {
		var err error
		product, err = store.SetProductActive(ctx, database.SetProductActiveParams{ID: id, Active: active})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrProductNotFound
			}
			return fmt.Errorf("set product active: %w", err)
		}
		return nil
	})
	return product, err
}

// DeleteProduct hard-deletes a product that no line item references.
func (l *Ledger) DeleteProduct(ctx context.Context, id int64) error {
	return l.withTx(ctx, "delete_product", func(store LedgerStore) error {
		n, err := store.CountOrderItemsByProduct(ctx, id)
		if err != nil {
			return fmt.Errorf("count line items: %w", err)
		}
		if n > 0 {
			return ErrProductInUse
		}

		deleted, err := store.DeleteProduct(ctx, id)
		if err != nil {
			return fmt.Errorf("delete product: %w", err)
		}
		if deleted == 0 {
			return ErrProductNotFound
		}
		return nil
	})
}

// --- Helpers ---

func validateProduct(in ProductInput) error {
	if in.Name == "" {
		return ErrNameRequired
	}
	if !in.Price.IsPositive() {
		return ErrInvalidPrice
	}
	if !centsOnly(in.Price) {
		return ErrInvalidMoneyPrecision
	}
	if in.QuickSaleRank < 0 {
		return ErrInvalidQuickSaleRank
	}
	if in.StockQuantity != nil && *in.StockQuantity < 0 {
		return ErrInvalidStockQuantity
	}
	return nil
}

func checkCategory(ctx context.Context, store LedgerStore, categoryID *int64) error {
	if categoryID == nil {
		return nil
	}
	if _, err := store.GetCategory(ctx, *categoryID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("get category: %w", err)
	}
	return nil
}
