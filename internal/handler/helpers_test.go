package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kafe-adisyon/api/internal/auth"
	"github.com/kafe-adisyon/api/internal/database"
	"github.com/kafe-adisyon/api/internal/enum"
	"github.com/kafe-adisyon/api/internal/middleware"
	"github.com/kafe-adisyon/api/internal/service"
	"github.com/shopspring/decimal"
)

const testJWTSecret = "test-secret-for-handlers"

var errNotMocked = errors.New("not mocked")

// --- Mock ledger ---

// mockLedger implements every ledger-facing handler interface. Each method
// delegates to its Fn field and fails when the field is unset.
type mockLedger struct {
	ListTablesFn            func(ctx context.Context) ([]database.ListTablesRow, error)
	AddTableFn              func(ctx context.Context) (database.CafeTable, error)
	DeleteTableFn           func(ctx context.Context, number int32) error
	SetTableStatusFn        func(ctx context.Context, number int32, status string) error
	OpenOrGetOrderFn        func(ctx context.Context, number int32) (int64, error)
	AddProductToTableFn     func(ctx context.Context, number int32, productID int64, quantity int32) (*service.CartLine, error)
	GetLateTablesFn         func(ctx context.Context, threshold time.Duration) ([]service.LateTable, error)
	GetOrderFn              func(ctx context.Context, orderID int64) (*service.OrderDetail, error)
	ListOpenOrdersFn        func(ctx context.Context) ([]service.OrderSummary, error)
	AddOrUpdateLineItemFn   func(ctx context.Context, req service.LineItemRequest) (int64, error)
	RemoveLineItemFn        func(ctx context.Context, lineItemID, orderID int64) error
	ClearOrderFn            func(ctx context.Context, orderID int64) error
	ApplyDiscountFn         func(ctx context.Context, orderID int64, amount decimal.Decimal) (*service.OrderSummary, error)
	LinkCustomerFn          func(ctx context.Context, orderID int64, customerID *int64) error
	RecordPartialPaymentFn  func(ctx context.Context, orderID int64, amount decimal.Decimal, method string) (*service.OrderSummary, error)
	CloseOrderFn            func(ctx context.Context, orderID int64, method string) (decimal.Decimal, error)
	CloseFromBalanceFn      func(ctx context.Context, orderID int64) (decimal.Decimal, error)
	ListCategoriesFn        func(ctx context.Context) ([]database.Category, error)
	CreateCategoryFn        func(ctx context.Context, name string) (database.Category, error)
	RenameCategoryFn        func(ctx context.Context, id int64, name string) (database.Category, error)
	DeleteCategoryFn        func(ctx context.Context, id int64) error
	ListProductsFn          func(ctx context.Context, filter service.ProductFilter) ([]database.ProductRow, error)
	ListQuickSaleFn         func(ctx context.Context, categoryID *int64) ([]database.ProductRow, error)
	GetProductFn            func(ctx context.Context, id int64) (database.Product, error)
	CreateProductFn         func(ctx context.Context, in service.ProductInput) (database.Product, error)
	UpdateProductFn         func(ctx context.Context, id int64, in service.ProductInput) (database.Product, error)
	SetProductActiveFn      func(ctx context.Context, id int64, active bool) (database.Product, error)
	DeleteProductFn         func(ctx context.Context, id int64) error
	ListCustomersFn         func(ctx context.Context, search string) ([]database.Customer, error)
	GetCustomerFn           func(ctx context.Context, id int64) (database.Customer, error)
	GetCustomerByPhoneFn    func(ctx context.Context, phone string) (database.Customer, error)
	CreateCustomerFn        func(ctx context.Context, in service.CustomerInput) (database.Customer, error)
	UpdateCustomerFn        func(ctx context.Context, id int64, in service.CustomerInput) (database.Customer, error)
	DeleteCustomerFn        func(ctx context.Context, id int64) error
	AdjustBalanceFn         func(ctx context.Context, id int64, delta decimal.Decimal) (database.Customer, error)
	ArchiveClosedOrdersFn   func(ctx context.Context, year int) (*service.ArchiveResult, error)
	LastArchivedYearFn      func(ctx context.Context) (int, error)
	GetSettingFn            func(ctx context.Context, key string) (string, error)
	SetSettingFn            func(ctx context.Context, key, value string) error
}

func (m *mockLedger) ListTables(ctx context.Context) ([]database.ListTablesRow, error) {
	if m.ListTablesFn == nil {
		return nil, errNotMocked
	}
	return m.ListTablesFn(ctx)
}

func (m *mockLedger) AddTable(ctx context.Context) (database.CafeTable, error) {
	if m.AddTableFn == nil {
		return database.CafeTable{}, errNotMocked
	}
	return m.AddTableFn(ctx)
}

func (m *mockLedger) DeleteTable(ctx context.Context, number int32) error {
	if m.DeleteTableFn == nil {
		return errNotMocked
	}
	return m.DeleteTableFn(ctx, number)
}

func (m *mockLedger) SetTableStatus(ctx context.Context, number int32, status string) error {
	if m.SetTableStatusFn == nil {
		return errNotMocked
	}
	return m.SetTableStatusFn(ctx, number, status)
}

func (m *mockLedger) OpenOrGetOrder(ctx context.Context, number int32) (int64, error) {
	if m.OpenOrGetOrderFn == nil {
		return 0, errNotMocked
	}
	return m.OpenOrGetOrderFn(ctx, number)
}

func (m *mockLedger) AddProductToTable(ctx context.Context, number int32, productID int64, quantity int32) (*service.CartLine, error) {
	if m.AddProductToTableFn == nil {
		return nil, errNotMocked
	}
	return m.AddProductToTableFn(ctx, number, productID, quantity)
}

func (m *mockLedger) GetLateTables(ctx context.Context, threshold time.Duration) ([]service.LateTable, error) {
	if m.GetLateTablesFn == nil {
		return nil, errNotMocked
	}
	return m.GetLateTablesFn(ctx, threshold)
}

func (m *mockLedger) GetOrder(ctx context.Context, orderID int64) (*service.OrderDetail, error) {
	if m.GetOrderFn == nil {
		return nil, errNotMocked
	}
	return m.GetOrderFn(ctx, orderID)
}

func (m *mockLedger) ListOpenOrders(ctx context.Context) ([]service.OrderSummary, error) {
	if m.ListOpenOrdersFn == nil {
		return nil, errNotMocked
	}
	return m.ListOpenOrdersFn(ctx)
}

func (m *mockLedger) AddOrUpdateLineItem(ctx context.Context, req service.LineItemRequest) (int64, error) {
	if m.AddOrUpdateLineItemFn == nil {
		return 0, errNotMocked
	}
	return m.AddOrUpdateLineItemFn(ctx, req)
}

func (m *mockLedger) RemoveLineItem(ctx context.Context, lineItemID, orderID int64) error {
	if m.RemoveLineItemFn == nil {
		return errNotMocked
	}
	return m.RemoveLineItemFn(ctx, lineItemID, orderID)
}

func (m *mockLedger) ClearOrder(ctx context.Context, orderID int64) error {
	if m.ClearOrderFn == nil {
		return errNotMocked
	}
	return m.ClearOrderFn(ctx, orderID)
}

func (m *mockLedger) ApplyDiscount(ctx context.Context, orderID int64, amount decimal.Decimal) (*service.OrderSummary, error) {
	if m.ApplyDiscountFn == nil {
		return nil, errNotMocked
	}
	return m.ApplyDiscountFn(ctx, orderID, amount)
}

func (m *mockLedger) LinkCustomer(ctx context.Context, orderID int64, customerID *int64) error {
	if m.LinkCustomerFn == nil {
		return errNotMocked
	}
	return m.LinkCustomerFn(ctx, orderID, customerID)
}

func (m *mockLedger) RecordPartialPayment(ctx context.Context, orderID int64, amount decimal.Decimal, method string) (*service.OrderSummary, error) {
	if m.RecordPartialPaymentFn == nil {
		return nil, errNotMocked
	}
	return m.RecordPartialPaymentFn(ctx, orderID, amount, method)
}

func (m *mockLedger) CloseOrder(ctx context.Context, orderID int64, method string) (decimal.Decimal, error) {
	if m.CloseOrderFn == nil {
		return decimal.Zero, errNotMocked
	}
	return m.CloseOrderFn(ctx, orderID, method)
}

func (m *mockLedger) CloseOrderPayingFromCustomerBalance(ctx context.Context, orderID int64) (decimal.Decimal, error) {
	if m.CloseFromBalanceFn == nil {
		return decimal.Zero, errNotMocked
	}
	return m.CloseFromBalanceFn(ctx, orderID)
}

func (m *mockLedger) ListCategories(ctx context.Context) ([]database.Category, error) {
	if m.ListCategoriesFn == nil {
		return nil, errNotMocked
	}
	return m.ListCategoriesFn(ctx)
}

func (m *mockLedger) CreateCategory(ctx context.Context, name string) (database.Category, error) {
	if m.CreateCategoryFn == nil {
		return database.Category{}, errNotMocked
	}
	return m.CreateCategoryFn(ctx, name)
}

func (m *mockLedger) RenameCategory(ctx context.Context, id int64, name string) (database.Category, error) {
	if m.RenameCategoryFn == nil {
		return database.Category{}, errNotMocked
	}
	return m.RenameCategoryFn(ctx, id, name)
}

func (m *mockLedger) DeleteCategory(ctx context.Context, id int64) error {
	if m.DeleteCategoryFn == nil {
		return errNotMocked
	}
	return m.DeleteCategoryFn(ctx, id)
}

func (m *mockLedger) ListProducts(ctx context.Context, filter service.ProductFilter) ([]database.ProductRow, error) {
	if m.ListProductsFn == nil {
		return nil, errNotMocked
	}
	return m.ListProductsFn(ctx, filter)
}

func (m *mockLedger) ListQuickSaleProducts(ctx context.Context, categoryID *int64) ([]database.ProductRow, error) {
	if m.ListQuickSaleFn == nil {
		return nil, errNotMocked
	}
	return m.ListQuickSaleFn(ctx, categoryID)
}

func (m *mockLedger) GetProduct(ctx context.Context, id int64) (database.Product, error) {
	if m.GetProductFn == nil {
		return database.Product{}, errNotMocked
	}
	return m.GetProductFn(ctx, id)
}

func (m *mockLedger) CreateProduct(ctx context.Context, in service.ProductInput) (database.Product, error) {
	if m.CreateProductFn == nil {
		return database.Product{}, errNotMocked
	}
	return m.CreateProductFn(ctx, in)
}

func (m *mockLedger) UpdateProduct(ctx context.Context, id int64, in service.ProductInput) (database.Product, error) {
	if m.UpdateProductFn == nil {
		return database.Product{}, errNotMocked
	}
	return m.UpdateProductFn(ctx, id, in)
}

func (m *mockLedger) SetProductActive(ctx context.Context, id int64, active bool) (database.Product, error) {
	if m.SetProductActiveFn == nil {
		return database.Product{}, errNotMocked
	}
	return m.SetProductActiveFn(ctx, id, active)
}

func (m *mockLedger) DeleteProduct(ctx context.Context, id int64) error {
	if m.DeleteProductFn == nil {
		return errNotMocked
	}
	return m.DeleteProductFn(ctx, id)
}

func (m *mockLedger) ListCustomers(ctx context.Context, search string) ([]database.Customer, error) {
	if m.ListCustomersFn == nil {
		return nil, errNotMocked
	}
	return m.ListCustomersFn(ctx, search)
}

func (m *mockLedger) GetCustomer(ctx context.Context, id int64) (database.Customer, error) {
	if m.GetCustomerFn == nil {
		return database.Customer{}, errNotMocked
	}
	return m.GetCustomerFn(ctx, id)
}

func (m *mockLedger) GetCustomerByPhone(ctx context.Context, phone string) (database.Customer, error) {
	if m.GetCustomerByPhoneFn == nil {
		return database.Customer{}, errNotMocked
	}
	return m.GetCustomerByPhoneFn(ctx, phone)
}

func (m *mockLedger) CreateCustomer(ctx context.Context, in service.CustomerInput) (database.Customer, error) {
	if m.CreateCustomerFn == nil {
		return database.Customer{}, errNotMocked
	}
	return m.CreateCustomerFn(ctx, in)
}

func (m *mockLedger) UpdateCustomer(ctx context.Context, id int64, in service.CustomerInput) (database.Customer, error) {
	if m.UpdateCustomerFn == nil {
		return database.Customer{}, errNotMocked
	}
	return m.UpdateCustomerFn(ctx, id, in)
}

func (m *mockLedger) DeleteCustomer(ctx context.Context, id int64) error {
	if m.DeleteCustomerFn == nil {
		return errNotMocked
	}
	return m.DeleteCustomerFn(ctx, id)
}

func (m *mockLedger) AdjustCustomerBalance(ctx context.Context, id int64, delta decimal.Decimal) (database.Customer, error) {
	if m.AdjustBalanceFn == nil {
		return database.Customer{}, errNotMocked
	}
	return m.AdjustBalanceFn(ctx, id, delta)
}

func (m *mockLedger) ArchiveClosedOrders(ctx context.Context, year int) (*service.ArchiveResult, error) {
	if m.ArchiveClosedOrdersFn == nil {
		return nil, errNotMocked
	}
	return m.ArchiveClosedOrdersFn(ctx, year)
}

func (m *mockLedger) LastArchivedYear(ctx context.Context) (int, error) {
	if m.LastArchivedYearFn == nil {
		return 0, errNotMocked
	}
	return m.LastArchivedYearFn(ctx)
}

func (m *mockLedger) GetSetting(ctx context.Context, key string) (string, error) {
	if m.GetSettingFn == nil {
		return "", errNotMocked
	}
	return m.GetSettingFn(ctx, key)
}

func (m *mockLedger) SetSetting(ctx context.Context, key, value string) error {
	if m.SetSettingFn == nil {
		return errNotMocked
	}
	return m.SetSettingFn(ctx, key, value)
}

// --- Mock publisher ---

type publishedEvent struct {
	Table int32
	Type  string
}

type mockPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (m *mockPublisher) Publish(tableNumber int32, eventType string, payload any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, publishedEvent{Table: tableNumber, Type: eventType})
}

func (m *mockPublisher) only(t *testing.T) publishedEvent {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.events) != 1 {
		t.Fatalf("published events: got %d (%v), want 1", len(m.events), m.events)
	}
	return m.events[0]
}

// --- Request helpers ---

func testClaims(role string) *auth.Claims {
	return &auth.Claims{UserID: uuid.New(), Username: "kasa1", Role: role}
}

func cashier() *auth.Claims { return testClaims(enum.UserRoleCashier) }
func admin() *auth.Claims   { return testClaims(enum.UserRoleAdmin) }

// newRouter mounts register under prefix behind the real Authenticate middleware.
func newRouter(prefix string, register func(chi.Router)) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Authenticate(testJWTSecret))
	r.Route(prefix, register)
	return r
}

func doAuthRequest(t *testing.T, router http.Handler, method, path string, body interface{}, claims *auth.Claims) *httptest.ResponseRecorder {
	t.Helper()

	token, err := auth.GenerateToken(testJWTSecret, claims.UserID, claims.Username, claims.Role)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func decodeList(t *testing.T, rr *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var resp []map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func assertStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, want, rr.Body.String())
	}
}

// --- Test data ---

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testOrder(id int64, table int32) database.Order {
	return database.Order{
		ID:             id,
		TableNumber:    table,
		OpenedAt:       testNow,
		Status:         enum.OrderStatusOpen,
		GrossTotal:     dec("120.00"),
		Discount:       dec("20.00"),
		AmountPaid:     dec("30.00"),
		LastActivityAt: pgtype.Timestamptz{Time: testNow, Valid: true},
	}
}

func testSummary(o database.Order) service.OrderSummary {
	net := o.GrossTotal.Sub(o.Discount)
	return service.OrderSummary{Order: o, NetTotal: net, Remaining: net.Sub(o.AmountPaid)}
}

func testDetail(o database.Order, items ...database.OrderItem) *service.OrderDetail {
	if items == nil {
		items = []database.OrderItem{}
	}
	return &service.OrderDetail{OrderSummary: testSummary(o), Items: items}
}

func testItem(id, orderID int64, name string, qty int32, price string) database.OrderItem {
	unit := dec(price)
	return database.OrderItem{
		ID:          id,
		OrderID:     orderID,
		ProductName: name,
		Quantity:    qty,
		UnitPrice:   unit,
		Amount:      unit.Mul(decimal.NewFromInt32(qty)),
		AddedAt:     testNow,
	}
}

func newRecorder(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}
