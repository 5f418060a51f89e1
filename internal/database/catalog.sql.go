package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// --- Categories ---

const listCategories = `SELECT id, name FROM categories ORDER BY name`

func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.Query(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Category
	for rows.Next() {
		var i Category
		if err := rows.Scan(&i.ID, &i.Name); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getCategory = `SELECT id, name FROM categories WHERE id = $1`

func (q *Queries) GetCategory(ctx context.Context, id int64) (Category, error) {
	var i Category
	err := q.db.QueryRow(ctx, getCategory, id).Scan(&i.ID, &i.Name)
	return i, err
}

const getCategoryByName = `SELECT id, name FROM categories WHERE name = $1`

func (q *Queries) GetCategoryByName(ctx context.Context, name string) (Category, error) {
	var i Category
	err := q.db.QueryRow(ctx, getCategoryByName, name).Scan(&i.ID, &i.Name)
	return i, err
}

const createCategory = `INSERT INTO categories (name) VALUES ($1) RETURNING id, name`

func (q *Queries) CreateCategory(ctx context.Context, name string) (Category, error) {
	var i Category
	err := q.db.QueryRow(ctx, createCategory, name).Scan(&i.ID, &i.Name)
	return i, err
}

const renameCategory = `UPDATE categories SET name = $2 WHERE id = $1 RETURNING id, name`

type RenameCategoryParams struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (q *Queries) RenameCategory(ctx context.Context, arg RenameCategoryParams) (Category, error) {
	var i Category
	err := q.db.QueryRow(ctx, renameCategory, arg.ID, arg.Name).Scan(&i.ID, &i.Name)
	return i, err
}

const deleteCategory = `DELETE FROM categories WHERE id = $1`

func (q *Queries) DeleteCategory(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.Exec(ctx, deleteCategory, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const countActiveProductsByCategory = `SELECT COUNT(*) FROM products WHERE category_id = $1 AND active = true`

func (q *Queries) CountActiveProductsByCategory(ctx context.Context, categoryID int64) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countActiveProductsByCategory, categoryID).Scan(&n)
	return n, err
}

// --- Products ---

const productColumns = `id, name, price, category_id, active, quick_sale_rank, stock_quantity`

func scanProduct(row scanner) (Product, error) {
	var p Product
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Price,
		&p.CategoryID,
		&p.Active,
		&p.QuickSaleRank,
		&p.StockQuantity,
	)
	return p, err
}

// ProductRow is a product joined with its category name.
type ProductRow struct {
	Product
	CategoryName pgtype.Text `json:"category_name"`
}

func collectProductRows(rows pgx.Rows) ([]ProductRow, error) {
	defer rows.Close()
	var items []ProductRow
	for rows.Next() {
		var i ProductRow
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Price,
			&i.CategoryID,
			&i.Active,
			&i.QuickSaleRank,
			&i.StockQuantity,
			&i.CategoryName,
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

const listProducts = `
SELECT p.id, p.name, p.price, p.category_id, p.active, p.quick_sale_rank, p.stock_quantity,
       c.name AS category_name
FROM products p
LEFT JOIN categories c ON c.id = p.category_id
WHERE ($1::boolean OR p.active = true)
  AND ($2::bigint IS NULL OR p.category_id = $2)
ORDER BY c.name NULLS LAST, p.name
`

type ListProductsParams struct {
	IncludeInactive bool        `json:"include_inactive"`
	CategoryID      pgtype.Int8 `json:"category_id"`
}

func (q *Queries) ListProducts(ctx context.Context, arg ListProductsParams) ([]ProductRow, error) {
	rows, err := q.db.Query(ctx, listProducts, arg.IncludeInactive, arg.CategoryID)
	if err != nil {
		return nil, err
	}
	return collectProductRows(rows)
}

const listQuickSaleProducts = `
SELECT p.id, p.name, p.price, p.category_id, p.active, p.quick_sale_rank, p.stock_quantity,
       c.name AS category_name
FROM products p
LEFT JOIN categories c ON c.id = p.category_id
WHERE p.active = true
  AND p.quick_sale_rank > 0
  AND ($1::bigint IS NULL OR p.category_id = $1)
ORDER BY p.quick_sale_rank, p.name
`

func (q *Queries) ListQuickSaleProducts(ctx context.Context, categoryID pgtype.Int8) ([]ProductRow, error) {
	rows, err := q.db.Query(ctx, listQuickSaleProducts, categoryID)
	if err != nil {
		return nil, err
	}
	return collectProductRows(rows)
}

const getProduct = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

func (q *Queries) GetProduct(ctx context.Context, id int64) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, getProduct, id))
}

const getProductForUpdate = `SELECT ` + productColumns + ` FROM products WHERE id = $1 FOR UPDATE`

func (q *Queries) GetProductForUpdate(ctx context.Context, id int64) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, getProductForUpdate, id))
}

const createProduct = `
INSERT INTO products (name, price, category_id, active, quick_sale_rank, stock_quantity)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + productColumns

type CreateProductParams struct {
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	CategoryID    pgtype.Int8     `json:"category_id"`
	Active        bool            `json:"active"`
	QuickSaleRank int32           `json:"quick_sale_rank"`
	StockQuantity pgtype.Int4     `json:"stock_quantity"`
}

func (q *Queries) CreateProduct(ctx context.Context, arg CreateProductParams) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, createProduct,
		arg.Name,
		arg.Price,
		arg.CategoryID,
		arg.Active,
		arg.QuickSaleRank,
		arg.StockQuantity,
	))
}

const updateProduct = `
UPDATE products
SET name = $2, price = $3, category_id = $4, active = $5, quick_sale_rank = $6, stock_quantity = $7
WHERE id = $1
RETURNING ` + productColumns

type UpdateProductParams struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	CategoryID    pgtype.Int8     `json:"category_id"`
	Active        bool            `json:"active"`
	QuickSaleRank int32           `json:"quick_sale_rank"`
	StockQuantity pgtype.Int4     `json:"stock_quantity"`
}

func (q *Queries) UpdateProduct(ctx context.Context, arg UpdateProductParams) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, updateProduct,
		arg.ID,
		arg.Name,
		arg.Price,
		arg.CategoryID,
		arg.Active,
		arg.QuickSaleRank,
		arg.StockQuantity,
	))
}

const setProductActive = `UPDATE products SET active = $2 WHERE id = $1 RETURNING ` + productColumns

type SetProductActiveParams struct {
	ID     int64 `json:"id"`
	Active bool  `json:"active"`
}

func (q *Queries) SetProductActive(ctx context.Context, arg SetProductActiveParams) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, setProductActive, arg.ID, arg.Active))
}

const deleteProduct = `DELETE FROM products WHERE id = $1`

func (q *Queries) DeleteProduct(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.Exec(ctx, deleteProduct, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const decrementProductStock = `
UPDATE products SET stock_quantity = stock_quantity - $2
WHERE id = $1 AND stock_quantity IS NOT NULL
RETURNING ` + productColumns

type DecrementProductStockParams struct {
	ID       int64 `json:"id"`
	Quantity int32 `json:"quantity"`
}

func (q *Queries) DecrementProductStock(ctx context.Context, arg DecrementProductStockParams) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, decrementProductStock, arg.ID, arg.Quantity))
}

const countProducts = `SELECT COUNT(*) FROM products`

func (q *Queries) CountProducts(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countProducts).Scan(&n)
	return n, err
}

const countCategories = `SELECT COUNT(*) FROM categories`

func (q *Queries) CountCategories(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countCategories).Scan(&n)
	return n, err
}
