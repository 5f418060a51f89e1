package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kafe-adisyon/api/internal/database"
	"github.com/kafe-adisyon/api/internal/enum"
	"github.com/kafe-adisyon/api/internal/metrics"
	"github.com/shopspring/decimal"
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// TableStore defines the DB methods for tables.
type TableStore interface {
	ListTables(ctx context.Context) ([]database.ListTablesRow, error)
	GetTableByNumber(ctx context.Context, number int32) (database.CafeTable, error)
	GetTableByNumberForUpdate(ctx context.Context, number int32) (database.CafeTable, error)
	GetMaxTableNumber(ctx context.Context) (int32, error)
	CreateTable(ctx context.Context, number int32) (database.CafeTable, error)
	DeleteTable(ctx context.Context, number int32) (int64, error)
	SetTableStatus(ctx context.Context, arg database.SetTableStatusParams) (database.CafeTable, error)
	AttachTableOrder(ctx context.Context, arg database.AttachTableOrderParams) (database.CafeTable, error)
	UpdateTableTotalsByOrder(ctx context.Context, arg database.UpdateTableTotalsByOrderParams) error
	MarkTableOccupiedByOrder(ctx context.Context, orderID int64) error
	ReleaseTableByOrder(ctx context.Context, orderID int64) error
	ListLateTables(ctx context.Context, lastActivityBefore time.Time) ([]database.ListLateTablesRow, error)
}

// OrderStore defines the DB methods for orders and their line items.
type OrderStore interface {
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	GetOrder(ctx context.Context, id int64) (database.Order, error)
	GetOrderForUpdate(ctx context.Context, id int64) (database.Order, error)
	UpdateOrderGross(ctx context.Context, arg database.UpdateOrderGrossParams) (database.Order, error)
	UpdateOrderDiscount(ctx context.Context, arg database.UpdateOrderDiscountParams) (database.Order, error)
	AddOrderPayment(ctx context.Context, arg database.AddOrderPaymentParams) (database.Order, error)
	CloseOrder(ctx context.Context, arg database.CloseOrderParams) (database.Order, error)
	CancelOrder(ctx context.Context, arg database.CancelOrderParams) (database.Order, error)
	SetOrderCustomer(ctx context.Context, arg database.SetOrderCustomerParams) (database.Order, error)
	ListOpenOrders(ctx context.Context) ([]database.Order, error)
	ListClosedOrdersBefore(ctx context.Context, before time.Time) ([]database.Order, error)
	DeleteOrdersByIDs(ctx context.Context, ids []int64) (int64, error)

	ListOrderItems(ctx context.Context, orderID int64) ([]database.OrderItem, error)
	ListOrderItemsByOrders(ctx context.Context, orderIDs []int64) ([]database.OrderItem, error)
	GetOrderItem(ctx context.Context, arg database.GetOrderItemParams) (database.OrderItem, error)
	GetOrderItemByProduct(ctx context.Context, arg database.GetOrderItemByProductParams) (database.OrderItem, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	UpdateOrderItemQuantity(ctx context.Context, arg database.UpdateOrderItemQuantityParams) (database.OrderItem, error)
	DeleteOrderItem(ctx context.Context, arg database.DeleteOrderItemParams) (int64, error)
	DeleteOrderItemsByOrder(ctx context.Context, orderID int64) error
	SumOrderItemAmounts(ctx context.Context, orderID int64) (decimal.Decimal, error)
}

// CatalogStore defines the DB methods for categories and products.
type CatalogStore interface {
	ListCategories(ctx context.Context) ([]database.Category, error)
	GetCategory(ctx context.Context, id int64) (database.Category, error)
	CreateCategory(ctx context.Context, name string) (database.Category, error)
	RenameCategory(ctx context.Context, arg database.RenameCategoryParams) (database.Category, error)
	DeleteCategory(ctx context.Context, id int64) (int64, error)
	CountActiveProductsByCategory(ctx context.Context, categoryID int64) (int64, error)

	ListProducts(ctx context.Context, arg database.ListProductsParams) ([]database.ProductRow, error)
	ListQuickSaleProducts(ctx context.Context, categoryID pgtype.Int8) ([]database.ProductRow, error)
	GetProduct(ctx context.Context, id int64) (database.Product, error)
	GetProductForUpdate(ctx context.Context, id int64) (database.Product, error)
	CreateProduct(ctx context.Context, arg database.CreateProductParams) (database.Product, error)
	UpdateProduct(ctx context.Context, arg database.UpdateProductParams) (database.Product, error)
	SetProductActive(ctx context.Context, arg database.SetProductActiveParams) (database.Product, error)
	DeleteProduct(ctx context.Context, id int64) (int64, error)
	DecrementProductStock(ctx context.Context, arg database.DecrementProductStockParams) (database.Product, error)
	CountOrderItemsByProduct(ctx context.Context, productID int64) (int64, error)
}

// CustomerStore defines the DB methods for customers.
type CustomerStore interface {
	ListCustomers(ctx context.Context, search string) ([]database.Customer, error)
	GetCustomer(ctx context.Context, id int64) (database.Customer, error)
	GetCustomerForUpdate(ctx context.Context, id int64) (database.Customer, error)
	GetCustomerByPhone(ctx context.Context, phone string) (database.Customer, error)
	CreateCustomer(ctx context.Context, arg database.CreateCustomerParams) (database.Customer, error)
	UpdateCustomer(ctx context.Context, arg database.UpdateCustomerParams) (database.Customer, error)
	DeleteCustomer(ctx context.Context, id int64) (int64, error)
	AdjustCustomerBalance(ctx context.Context, arg database.AdjustCustomerBalanceParams) (database.Customer, error)
	CountOrdersByCustomer(ctx context.Context, customerID int64) (int64, error)
}

// SettingStore defines the DB methods for key/value settings.
type SettingStore interface {
	GetSetting(ctx context.Context, key string) (database.Setting, error)
	UpsertSetting(ctx context.Context, arg database.UpsertSettingParams) (database.Setting, error)
}

// LedgerStore is everything the ledger persists.
// Satisfied by *database.Queries (and its WithTx variant).
type LedgerStore interface {
	TableStore
	OrderStore
	CatalogStore
	CustomerStore
	SettingStore
}

// NewLedgerStore creates a LedgerStore from a DBTX (pool or tx).
type NewLedgerStore func(db database.DBTX) LedgerStore

// Archiver copies closed orders and their line items into the archive
// store for a year and returns a handle naming the destination.
type Archiver interface {
	ArchiveOrders(ctx context.Context, year int, orders []database.Order, items []database.OrderItem) (string, error)
}

// OrderSummary is a stored order with its derived totals.
type OrderSummary struct {
	Order     database.Order
	NetTotal  decimal.Decimal
	Remaining decimal.Decimal
}

// OrderDetail is an order summary with its line items.
type OrderDetail struct {
	OrderSummary
	Items []database.OrderItem
}

// Ledger owns the order lifecycle and every persisted entity around it.
// Mutating operations are serialized and each runs in one transaction.
type Ledger struct {
	store    LedgerStore
	pool     TxBeginner
	newStore NewLedgerStore
	archiver Archiver

	mu  sync.Mutex
	now func() time.Time
}

// NewLedger creates a new Ledger. store serves reads; writes rebind a store
// to a transaction started on pool.
func NewLedger(store LedgerStore, pool TxBeginner, newStore NewLedgerStore, archiver Archiver) *Ledger {
	return &Ledger{
		store:    store,
		pool:     pool,
		newStore: newStore,
		archiver: archiver,
		now:      time.Now,
	}
}

// withTx runs fn inside a transaction under the write lock. The
// transaction commits only when fn returns nil.
func (l *Ledger) withTx(ctx context.Context, op string, fn func(store LedgerStore) error) (err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	defer func() {
		metrics.LedgerOperationsTotal.WithLabelValues(op, resultLabel(err)).Inc()
	}()

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: begin tx: %w: %w", op, ErrStorage, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(l.newStore(tx)); err != nil {
		return classify(op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: commit tx: %w: %w", op, ErrStorage, err)
	}
	return nil
}

// --- Helpers ---

// lockOpenOrder loads and locks an order, failing unless it is Open.
func lockOpenOrder(ctx context.Context, store LedgerStore, orderID int64) (database.Order, error) {
	order, err := store.GetOrderForUpdate(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderNotFound
		}
		return database.Order{}, fmt.Errorf("get order: %w", err)
	}
	if order.Status != enum.OrderStatusOpen {
		return database.Order{}, ErrOrderNotOpen
	}
	return order, nil
}

// refreshTotals recomputes an order's gross total from its line items,
// stamps activity and mirrors the net total onto the table.
func (l *Ledger) refreshTotals(ctx context.Context, store LedgerStore, order database.Order) (database.Order, error) {
	gross, err := store.SumOrderItemAmounts(ctx, order.ID)
	if err != nil {
		return database.Order{}, fmt.Errorf("sum line items: %w", err)
	}

	now := l.now()
	updated, err := store.UpdateOrderGross(ctx, database.UpdateOrderGrossParams{
		ID:             order.ID,
		GrossTotal:     gross,
		LastActivityAt: now,
	})
	if err != nil {
		return database.Order{}, fmt.Errorf("update gross total: %w", err)
	}

	// A discount never exceeds the gross total.
	if updated.Discount.GreaterThan(gross) {
		updated, err = store.UpdateOrderDiscount(ctx, database.UpdateOrderDiscountParams{
			ID:             order.ID,
			Discount:       gross,
			LastActivityAt: now,
		})
		if err != nil {
			return database.Order{}, fmt.Errorf("cap discount: %w", err)
		}
	}

	if err := mirrorTotals(ctx, store, updated); err != nil {
		return database.Order{}, err
	}
	return updated, nil
}

func mirrorTotals(ctx context.Context, store LedgerStore, order database.Order) error {
	err := store.UpdateTableTotalsByOrder(ctx, database.UpdateTableTotalsByOrderParams{
		ActiveOrderID:   order.ID,
		CurrentNetTotal: netTotal(order),
		CurrentDiscount: order.Discount,
	})
	if err != nil {
		return fmt.Errorf("update table totals: %w", err)
	}
	return nil
}

// centsOnly reports whether d fits a NUMERIC(12,2) column without rounding.
func centsOnly(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

func netTotal(o database.Order) decimal.Decimal {
	return o.GrossTotal.Sub(o.Discount)
}

func summarize(o database.Order) *OrderSummary {
	net := netTotal(o)
	return &OrderSummary{
		Order:     o,
		NetTotal:  net,
		Remaining: net.Sub(o.AmountPaid),
	}
}

func optionalInt8(v *int64) pgtype.Int8 {
	if v == nil {
		return pgtype.Int8{}
	}
	return pgtype.Int8{Int64: *v, Valid: true}
}

func optionalInt4(v *int32) pgtype.Int4 {
	if v == nil {
		return pgtype.Int4{}
	}
	return pgtype.Int4{Int32: *v, Valid: true}
}
