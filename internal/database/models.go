package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

type CafeTable struct {
	ID              int64           `json:"id"`
	Number          int32           `json:"number"`
	Status          string          `json:"status"`
	ActiveOrderID   pgtype.Int8     `json:"active_order_id"`
	CurrentNetTotal decimal.Decimal `json:"current_net_total"`
	CurrentDiscount decimal.Decimal `json:"current_discount"`
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Product struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	CategoryID    pgtype.Int8     `json:"category_id"`
	Active        bool            `json:"active"`
	QuickSaleRank int32           `json:"quick_sale_rank"`
	StockQuantity pgtype.Int4     `json:"stock_quantity"`
}

type Customer struct {
	ID       int64           `json:"id"`
	FullName string          `json:"full_name"`
	Phone    pgtype.Text     `json:"phone"`
	Balance  decimal.Decimal `json:"balance"`
}

type Order struct {
	ID             int64              `json:"id"`
	TableNumber    int32              `json:"table_number"`
	OpenedAt       time.Time          `json:"opened_at"`
	ClosedAt       pgtype.Timestamptz `json:"closed_at"`
	Status         string             `json:"status"`
	GrossTotal     decimal.Decimal    `json:"gross_total"`
	Discount       decimal.Decimal    `json:"discount"`
	AmountPaid     decimal.Decimal    `json:"amount_paid"`
	PaymentMethod  pgtype.Text        `json:"payment_method"`
	LastActivityAt pgtype.Timestamptz `json:"last_activity_at"`
	CustomerID     pgtype.Int8        `json:"customer_id"`
}

type OrderItem struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"order_id"`
	ProductID   pgtype.Int8     `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int32           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
	CategoryID  pgtype.Int8     `json:"category_id"`
	AddedAt     time.Time       `json:"added_at"`
}

type Setting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type User struct {
	ID             uuid.UUID `json:"id"`
	Username       string    `json:"username"`
	HashedPassword string    `json:"hashed_password"`
	FullName       string    `json:"full_name"`
	Role           string    `json:"role"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}
