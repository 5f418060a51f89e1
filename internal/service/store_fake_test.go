package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kafe-adisyon/api/internal/database"
	"github.com/kafe-adisyon/api/internal/enum"
	"github.com/shopspring/decimal"
)

// fakeStore is an in-memory LedgerStore. Begin snapshots its state and a
// rollback without commit restores it, so transaction atomicity can be
// observed in tests.
type fakeStore struct {
	fakeState
	fail map[string]error
}

type fakeState struct {
	nextID     int64
	tables     map[int32]database.CafeTable
	orders     map[int64]database.Order
	items      map[int64]database.OrderItem
	categories map[int64]database.Category
	products   map[int64]database.Product
	customers  map[int64]database.Customer
	settings   map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		fakeState: fakeState{
			tables:     map[int32]database.CafeTable{},
			orders:     map[int64]database.Order{},
			items:      map[int64]database.OrderItem{},
			categories: map[int64]database.Category{},
			products:   map[int64]database.Product{},
			customers:  map[int64]database.Customer{},
			settings:   map[string]string{},
		},
		fail: map[string]error{},
	}
}

func (s fakeState) clone() fakeState {
	c := fakeState{
		nextID:     s.nextID,
		tables:     make(map[int32]database.CafeTable, len(s.tables)),
		orders:     make(map[int64]database.Order, len(s.orders)),
		items:      make(map[int64]database.OrderItem, len(s.items)),
		categories: make(map[int64]database.Category, len(s.categories)),
		products:   make(map[int64]database.Product, len(s.products)),
		customers:  make(map[int64]database.Customer, len(s.customers)),
		settings:   make(map[string]string, len(s.settings)),
	}
	for k, v := range s.tables {
		c.tables[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.items {
		c.items[k] = v
	}
	for k, v := range s.categories {
		c.categories[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.customers {
		c.customers[k] = v
	}
	for k, v := range s.settings {
		c.settings[k] = v
	}
	return c
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) failed(method string) error {
	return f.fail[method]
}

var errUnique = &pgconn.PgError{Code: "23505"}

// --- seeding helpers ---

func (f *fakeStore) addTable(number int32) {
	f.tables[number] = database.CafeTable{ID: f.id(), Number: number, Status: enum.TableStatusEmpty}
}

func (f *fakeStore) addCategory(name string) int64 {
	id := f.id()
	f.categories[id] = database.Category{ID: id, Name: name}
	return id
}

func (f *fakeStore) addProduct(name, price string, categoryID int64, rank int32) int64 {
	id := f.id()
	p := database.Product{
		ID:            id,
		Name:          name,
		Price:         decimal.RequireFromString(price),
		Active:        true,
		QuickSaleRank: rank,
	}
	if categoryID != 0 {
		p.CategoryID = pgtype.Int8{Int64: categoryID, Valid: true}
	}
	f.products[id] = p
	return id
}

func (f *fakeStore) addCustomer(name, phone, balance string) int64 {
	id := f.id()
	c := database.Customer{ID: id, FullName: name, Balance: decimal.RequireFromString(balance)}
	if phone != "" {
		c.Phone = pgtype.Text{String: phone, Valid: true}
	}
	f.customers[id] = c
	return id
}

func (f *fakeStore) tableByOrder(orderID int64) (int32, bool) {
	for n, t := range f.tables {
		if t.ActiveOrderID.Valid && t.ActiveOrderID.Int64 == orderID {
			return n, true
		}
	}
	return 0, false
}

// --- TableStore ---

func (f *fakeStore) ListTables(ctx context.Context) ([]database.ListTablesRow, error) {
	if err := f.failed("ListTables"); err != nil {
		return nil, err
	}
	var out []database.ListTablesRow
	for _, t := range f.tables {
		row := database.ListTablesRow{CafeTable: t}
		if t.ActiveOrderID.Valid {
			if o, ok := f.orders[t.ActiveOrderID.Int64]; ok && o.CustomerID.Valid {
				if c, ok := f.customers[o.CustomerID.Int64]; ok {
					row.CustomerName = pgtype.Text{String: c.FullName, Valid: true}
				}
			}
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (f *fakeStore) GetTableByNumber(ctx context.Context, number int32) (database.CafeTable, error) {
	t, ok := f.tables[number]
	if !ok {
		return database.CafeTable{}, pgx.ErrNoRows
	}
	return t, nil
}

func (f *fakeStore) GetTableByNumberForUpdate(ctx context.Context, number int32) (database.CafeTable, error) {
	if err := f.failed("GetTableByNumberForUpdate"); err != nil {
		return database.CafeTable{}, err
	}
	return f.GetTableByNumber(ctx, number)
}

func (f *fakeStore) GetMaxTableNumber(ctx context.Context) (int32, error) {
	var max int32
	for n := range f.tables {
		if n > max {
			max = n
		}
	}
	return max, nil
}

func (f *fakeStore) CreateTable(ctx context.Context, number int32) (database.CafeTable, error) {
	if _, ok := f.tables[number]; ok {
		return database.CafeTable{}, errUnique
	}
	f.addTable(number)
	return f.tables[number], nil
}

func (f *fakeStore) DeleteTable(ctx context.Context, number int32) (int64, error) {
	t, ok := f.tables[number]
	if !ok || t.Status != enum.TableStatusEmpty || t.ActiveOrderID.Valid {
		return 0, nil
	}
	delete(f.tables, number)
	return 1, nil
}

func (f *fakeStore) SetTableStatus(ctx context.Context, arg database.SetTableStatusParams) (database.CafeTable, error) {
	t, ok := f.tables[arg.Number]
	if !ok {
		return database.CafeTable{}, pgx.ErrNoRows
	}
	t.Status = arg.Status
	f.tables[arg.Number] = t
	return t, nil
}

func (f *fakeStore) AttachTableOrder(ctx context.Context, arg database.AttachTableOrderParams) (database.CafeTable, error) {
	if err := f.failed("AttachTableOrder"); err != nil {
		return database.CafeTable{}, err
	}
	t, ok := f.tables[arg.Number]
	if !ok {
		return database.CafeTable{}, pgx.ErrNoRows
	}
	t.ActiveOrderID = pgtype.Int8{Int64: arg.ActiveOrderID, Valid: true}
	t.Status = enum.TableStatusOccupied
	t.CurrentNetTotal = decimal.Zero
	t.CurrentDiscount = decimal.Zero
	f.tables[arg.Number] = t
	return t, nil
}

func (f *fakeStore) UpdateTableTotalsByOrder(ctx context.Context, arg database.UpdateTableTotalsByOrderParams) error {
	if n, ok := f.tableByOrder(arg.ActiveOrderID); ok {
		t := f.tables[n]
		t.CurrentNetTotal = arg.CurrentNetTotal
		t.CurrentDiscount = arg.CurrentDiscount
		f.tables[n] = t
	}
	return nil
}

func (f *fakeStore) MarkTableOccupiedByOrder(ctx context.Context, orderID int64) error {
	if n, ok := f.tableByOrder(orderID); ok {
		t := f.tables[n]
		t.Status = enum.TableStatusOccupied
		f.tables[n] = t
	}
	return nil
}

func (f *fakeStore) ReleaseTableByOrder(ctx context.Context, orderID int64) error {
	if err := f.failed("ReleaseTableByOrder"); err != nil {
		return err
	}
	if n, ok := f.tableByOrder(orderID); ok {
		t := f.tables[n]
		t.ActiveOrderID = pgtype.Int8{}
		t.Status = enum.TableStatusEmpty
		t.CurrentNetTotal = decimal.Zero
		t.CurrentDiscount = decimal.Zero
		f.tables[n] = t
	}
	return nil
}

func (f *fakeStore) ListLateTables(ctx context.Context, before time.Time) ([]database.ListLateTablesRow, error) {
	var out []database.ListLateTablesRow
	for _, t := range f.tables {
		if t.Status != enum.TableStatusOccupied && t.Status != enum.TableStatusLate {
			continue
		}
		if !t.ActiveOrderID.Valid {
			continue
		}
		o := f.orders[t.ActiveOrderID.Int64]
		if !o.LastActivityAt.Valid || !o.LastActivityAt.Time.Before(before) {
			continue
		}
		out = append(out, database.ListLateTablesRow{
			Number:         t.Number,
			Status:         t.Status,
			OrderID:        o.ID,
			LastActivityAt: o.LastActivityAt.Time,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

// --- OrderStore ---

func (f *fakeStore) CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
	for _, o := range f.orders {
		if o.TableNumber == arg.TableNumber && o.Status == enum.OrderStatusOpen {
			return database.Order{}, errUnique
		}
	}
	o := database.Order{
		ID:             f.id(),
		TableNumber:    arg.TableNumber,
		OpenedAt:       arg.OpenedAt,
		Status:         enum.OrderStatusOpen,
		LastActivityAt: pgtype.Timestamptz{Time: arg.OpenedAt, Valid: true},
	}
	f.orders[o.ID] = o
	return o, nil
}

func (f *fakeStore) GetOrder(ctx context.Context, id int64) (database.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return database.Order{}, pgx.ErrNoRows
	}
	return o, nil
}

func (f *fakeStore) GetOrderForUpdate(ctx context.Context, id int64) (database.Order, error) {
	return f.GetOrder(ctx, id)
}

func (f *fakeStore) UpdateOrderGross(ctx context.Context, arg database.UpdateOrderGrossParams) (database.Order, error) {
	o, ok := f.orders[arg.ID]
	if !ok {
		return database.Order{}, pgx.ErrNoRows
	}
	o.GrossTotal = arg.GrossTotal
	o.LastActivityAt = pgtype.Timestamptz{Time: arg.LastActivityAt, Valid: true}
	f.orders[o.ID] = o
	return o, nil
}

func (f *fakeStore) UpdateOrderDiscount(ctx context.Context, arg database.UpdateOrderDiscountParams) (database.Order, error) {
	o, ok := f.orders[arg.ID]
	if !ok {
		return database.Order{}, pgx.ErrNoRows
	}
	o.Discount = arg.Discount
	o.LastActivityAt = pgtype.Timestamptz{Time: arg.LastActivityAt, Valid: true}
	f.orders[o.ID] = o
	return o, nil
}

func (f *fakeStore) AddOrderPayment(ctx context.Context, arg database.AddOrderPaymentParams) (database.Order, error) {
	o, ok := f.orders[arg.ID]
	if !ok {
		return database.Order{}, pgx.ErrNoRows
	}
	o.AmountPaid = o.AmountPaid.Add(arg.Amount)
	o.PaymentMethod = pgtype.Text{String: arg.PaymentMethod, Valid: true}
	o.LastActivityAt = pgtype.Timestamptz{Time: arg.LastActivityAt, Valid: true}
	f.orders[o.ID] = o
	return o, nil
}

func (f *fakeStore) CloseOrder(ctx context.Context, arg database.CloseOrderParams) (database.Order, error) {
	if err := f.failed("CloseOrder"); err != nil {
		return database.Order{}, err
	}
	o, ok := f.orders[arg.ID]
	if !ok || o.Status != enum.OrderStatusOpen {
		return database.Order{}, pgx.ErrNoRows
	}
	o.Status = enum.OrderStatusClosed
	o.AmountPaid = arg.AmountPaid
	o.PaymentMethod = pgtype.Text{String: arg.PaymentMethod, Valid: true}
	o.ClosedAt = pgtype.Timestamptz{Time: arg.ClosedAt, Valid: true}
	o.LastActivityAt = pgtype.Timestamptz{}
	f.orders[o.ID] = o
	return o, nil
}

func (f *fakeStore) CancelOrder(ctx context.Context, arg database.CancelOrderParams) (database.Order, error) {
	o, ok := f.orders[arg.ID]
	if !ok || o.Status != enum.OrderStatusOpen {
		return database.Order{}, pgx.ErrNoRows
	}
	o.Status = enum.OrderStatusCancelled
	o.GrossTotal = decimal.Zero
	o.Discount = decimal.Zero
	o.AmountPaid = decimal.Zero
	o.ClosedAt = pgtype.Timestamptz{Time: arg.ClosedAt, Valid: true}
	o.LastActivityAt = pgtype.Timestamptz{}
	o.CustomerID = pgtype.Int8{}
	f.orders[o.ID] = o
	return o, nil
}

func (f *fakeStore) SetOrderCustomer(ctx context.Context, arg database.SetOrderCustomerParams) (database.Order, error) {
	o, ok := f.orders[arg.ID]
	if !ok {
		return database.Order{}, pgx.ErrNoRows
	}
	o.CustomerID = arg.CustomerID
	o.LastActivityAt = pgtype.Timestamptz{Time: arg.LastActivityAt, Valid: true}
	f.orders[o.ID] = o
	return o, nil
}

func (f *fakeStore) ListOpenOrders(ctx context.Context) ([]database.Order, error) {
	var out []database.Order
	for _, o := range f.orders {
		if o.Status == enum.OrderStatusOpen {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TableNumber < out[j].TableNumber })
	return out, nil
}

func (f *fakeStore) ListClosedOrdersBefore(ctx context.Context, before time.Time) ([]database.Order, error) {
	var out []database.Order
	for _, o := range f.orders {
		if o.Status == enum.OrderStatusClosed && o.ClosedAt.Valid && o.ClosedAt.Time.Before(before) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) DeleteOrdersByIDs(ctx context.Context, ids []int64) (int64, error) {
	if err := f.failed("DeleteOrdersByIDs"); err != nil {
		return 0, err
	}
	var n int64
	for _, id := range ids {
		o, ok := f.orders[id]
		if !ok || o.Status != enum.OrderStatusClosed {
			continue
		}
		delete(f.orders, id)
		for itemID, it := range f.items {
			if it.OrderID == id {
				delete(f.items, itemID)
			}
		}
		n++
	}
	return n, nil
}

func (f *fakeStore) ListOrderItems(ctx context.Context, orderID int64) ([]database.OrderItem, error) {
	return f.ListOrderItemsByOrders(ctx, []int64{orderID})
}

func (f *fakeStore) ListOrderItemsByOrders(ctx context.Context, orderIDs []int64) ([]database.OrderItem, error) {
	want := map[int64]bool{}
	for _, id := range orderIDs {
		want[id] = true
	}
	var out []database.OrderItem
	for _, it := range f.items {
		if want[it.OrderID] {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) GetOrderItem(ctx context.Context, arg database.GetOrderItemParams) (database.OrderItem, error) {
	it, ok := f.items[arg.ID]
	if !ok || it.OrderID != arg.OrderID {
		return database.OrderItem{}, pgx.ErrNoRows
	}
	return it, nil
}

func (f *fakeStore) GetOrderItemByProduct(ctx context.Context, arg database.GetOrderItemByProductParams) (database.OrderItem, error) {
	items, _ := f.ListOrderItems(ctx, arg.OrderID)
	for _, it := range items {
		if it.ProductID.Valid && it.ProductID.Int64 == arg.ProductID {
			return it, nil
		}
	}
	return database.OrderItem{}, pgx.ErrNoRows
}

func (f *fakeStore) CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
	if err := f.failed("CreateOrderItem"); err != nil {
		return database.OrderItem{}, err
	}
	it := database.OrderItem{
		ID:          f.id(),
		OrderID:     arg.OrderID,
		ProductID:   arg.ProductID,
		ProductName: arg.ProductName,
		Quantity:    arg.Quantity,
		UnitPrice:   arg.UnitPrice,
		Amount:      arg.Amount,
		CategoryID:  arg.CategoryID,
		AddedAt:     arg.AddedAt,
	}
	f.items[it.ID] = it
	return it, nil
}

func (f *fakeStore) UpdateOrderItemQuantity(ctx context.Context, arg database.UpdateOrderItemQuantityParams) (database.OrderItem, error) {
	it, ok := f.items[arg.ID]
	if !ok || it.OrderID != arg.OrderID {
		return database.OrderItem{}, pgx.ErrNoRows
	}
	it.Quantity = arg.Quantity
	it.Amount = arg.Amount
	f.items[it.ID] = it
	return it, nil
}

func (f *fakeStore) DeleteOrderItem(ctx context.Context, arg database.DeleteOrderItemParams) (int64, error) {
	it, ok := f.items[arg.ID]
	if !ok || it.OrderID != arg.OrderID {
		return 0, nil
	}
	delete(f.items, arg.ID)
	return 1, nil
}

func (f *fakeStore) DeleteOrderItemsByOrder(ctx context.Context, orderID int64) error {
	for id, it := range f.items {
		if it.OrderID == orderID {
			delete(f.items, id)
		}
	}
	return nil
}

func (f *fakeStore) SumOrderItemAmounts(ctx context.Context, orderID int64) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, it := range f.items {
		if it.OrderID == orderID {
			total = total.Add(it.Amount)
		}
	}
	return total, nil
}

// --- CatalogStore ---

func (f *fakeStore) ListCategories(ctx context.Context) ([]database.Category, error) {
	var out []database.Category
	for _, c := range f.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeStore) GetCategory(ctx context.Context, id int64) (database.Category, error) {
	c, ok := f.categories[id]
	if !ok {
		return database.Category{}, pgx.ErrNoRows
	}
	return c, nil
}

func (f *fakeStore) categoryNameTaken(name string, except int64) bool {
	for _, c := range f.categories {
		if c.Name == name && c.ID != except {
			return true
		}
	}
	return false
}

func (f *fakeStore) CreateCategory(ctx context.Context, name string) (database.Category, error) {
	if f.categoryNameTaken(name, 0) {
		return database.Category{}, errUnique
	}
	id := f.addCategory(name)
	return f.categories[id], nil
}

func (f *fakeStore) RenameCategory(ctx context.Context, arg database.RenameCategoryParams) (database.Category, error) {
	c, ok := f.categories[arg.ID]
	if !ok {
		return database.Category{}, pgx.ErrNoRows
	}
	if f.categoryNameTaken(arg.Name, arg.ID) {
		return database.Category{}, errUnique
	}
	c.Name = arg.Name
	f.categories[c.ID] = c
	return c, nil
}

func (f *fakeStore) DeleteCategory(ctx context.Context, id int64) (int64, error) {
	if _, ok := f.categories[id]; !ok {
		return 0, nil
	}
	delete(f.categories, id)
	for pid, p := range f.products {
		if p.CategoryID.Valid && p.CategoryID.Int64 == id {
			p.CategoryID = pgtype.Int8{}
			f.products[pid] = p
		}
	}
	return 1, nil
}

func (f *fakeStore) CountActiveProductsByCategory(ctx context.Context, categoryID int64) (int64, error) {
	var n int64
	for _, p := range f.products {
		if p.Active && p.CategoryID.Valid && p.CategoryID.Int64 == categoryID {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) productRow(p database.Product) database.ProductRow {
	row := database.ProductRow{Product: p}
	if p.CategoryID.Valid {
		if c, ok := f.categories[p.CategoryID.Int64]; ok {
			row.CategoryName = pgtype.Text{String: c.Name, Valid: true}
		}
	}
	return row
}

func (f *fakeStore) ListProducts(ctx context.Context, arg database.ListProductsParams) ([]database.ProductRow, error) {
	var out []database.ProductRow
	for _, p := range f.products {
		if !arg.IncludeInactive && !p.Active {
			continue
		}
		if arg.CategoryID.Valid && (!p.CategoryID.Valid || p.CategoryID.Int64 != arg.CategoryID.Int64) {
			continue
		}
		out = append(out, f.productRow(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeStore) ListQuickSaleProducts(ctx context.Context, categoryID pgtype.Int8) ([]database.ProductRow, error) {
	var out []database.ProductRow
	for _, p := range f.products {
		if !p.Active || p.QuickSaleRank <= 0 {
			continue
		}
		if categoryID.Valid && (!p.CategoryID.Valid || p.CategoryID.Int64 != categoryID.Int64) {
			continue
		}
		out = append(out, f.productRow(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].QuickSaleRank != out[j].QuickSaleRank {
			return out[i].QuickSaleRank < out[j].QuickSaleRank
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (f *fakeStore) GetProduct(ctx context.Context, id int64) (database.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return database.Product{}, pgx.ErrNoRows
	}
	return p, nil
}

func (f *fakeStore) GetProductForUpdate(ctx context.Context, id int64) (database.Product, error) {
	return f.GetProduct(ctx, id)
}

func (f *fakeStore) productNameTaken(name string, except int64) bool {
	for _, p := range f.products {
		if p.Name == name && p.ID != except {
			return true
		}
	}
	return false
}

func (f *fakeStore) CreateProduct(ctx context.Context, arg database.CreateProductParams) (database.Product, error) {
	if f.productNameTaken(arg.Name, 0) {
		return database.Product{}, errUnique
	}
	p := database.Product{
		ID:            f.id(),
		Name:          arg.Name,
		Price:         arg.Price,
		CategoryID:    arg.CategoryID,
		Active:        arg.Active,
		QuickSaleRank: arg.QuickSaleRank,
		StockQuantity: arg.StockQuantity,
	}
	f.products[p.ID] = p
	return p, nil
}

func (f *fakeStore) UpdateProduct(ctx context.Context, arg database.UpdateProductParams) (database.Product, error) {
	p, ok := f.products[arg.ID]
	if !ok {
		return database.Product{}, pgx.ErrNoRows
	}
	if f.productNameTaken(arg.Name, arg.ID) {
		return database.Product{}, errUnique
	}
	p.Name = arg.Name
	p.Price = arg.Price
	p.CategoryID = arg.CategoryID
	p.Active = arg.Active
	p.QuickSaleRank = arg.QuickSaleRank
	p.StockQuantity = arg.StockQuantity
	f.products[p.ID] = p
	return p, nil
}

func (f *fakeStore) SetProductActive(ctx context.Context, arg database.SetProductActiveParams) (database.Product, error) {
	p, ok := f.products[arg.ID]
	if !ok {
		return database.Product{}, pgx.ErrNoRows
	}
	p.Active = arg.Active
	f.products[p.ID] = p
	return p, nil
}

func (f *fakeStore) DeleteProduct(ctx context.Context, id int64) (int64, error) {
	if _, ok := f.products[id]; !ok {
		return 0, nil
	}
	delete(f.products, id)
	return 1, nil
}

func (f *fakeStore) DecrementProductStock(ctx context.Context, arg database.DecrementProductStockParams) (database.Product, error) {
	p, ok := f.products[arg.ID]
	if !ok || !p.StockQuantity.Valid {
		return database.Product{}, pgx.ErrNoRows
	}
	p.StockQuantity.Int32 -= arg.Quantity
	f.products[p.ID] = p
	return p, nil
}

func (f *fakeStore) CountOrderItemsByProduct(ctx context.Context, productID int64) (int64, error) {
	var n int64
	for _, it := range f.items {
		if it.ProductID.Valid && it.ProductID.Int64 == productID {
			n++
		}
	}
	return n, nil
}

// --- CustomerStore ---

func (f *fakeStore) ListCustomers(ctx context.Context, search string) ([]database.Customer, error) {
	var out []database.Customer
	for _, c := range f.customers {
		if search != "" && !strings.Contains(strings.ToLower(c.FullName), strings.ToLower(search)) &&
			!strings.Contains(c.Phone.String, search) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

func (f *fakeStore) GetCustomer(ctx context.Context, id int64) (database.Customer, error) {
	c, ok := f.customers[id]
	if !ok {
		return database.Customer{}, pgx.ErrNoRows
	}
	return c, nil
}

func (f *fakeStore) GetCustomerForUpdate(ctx context.Context, id int64) (database.Customer, error) {
	return f.GetCustomer(ctx, id)
}

func (f *fakeStore) GetCustomerByPhone(ctx context.Context, phone string) (database.Customer, error) {
	for _, c := range f.customers {
		if c.Phone.Valid && c.Phone.String == phone {
			return c, nil
		}
	}
	return database.Customer{}, pgx.ErrNoRows
}

func (f *fakeStore) phoneTaken(phone pgtype.Text, except int64) bool {
	if !phone.Valid {
		return false
	}
	for _, c := range f.customers {
		if c.Phone.Valid && c.Phone.String == phone.String && c.ID != except {
			return true
		}
	}
	return false
}

func (f *fakeStore) CreateCustomer(ctx context.Context, arg database.CreateCustomerParams) (database.Customer, error) {
	if f.phoneTaken(arg.Phone, 0) {
		return database.Customer{}, errUnique
	}
	c := database.Customer{ID: f.id(), FullName: arg.FullName, Phone: arg.Phone, Balance: arg.Balance}
	f.customers[c.ID] = c
	return c, nil
}

func (f *fakeStore) UpdateCustomer(ctx context.Context, arg database.UpdateCustomerParams) (database.Customer, error) {
	c, ok := f.customers[arg.ID]
	if !ok {
		return database.Customer{}, pgx.ErrNoRows
	}
	if f.phoneTaken(arg.Phone, arg.ID) {
		return database.Customer{}, errUnique
	}
	c.FullName = arg.FullName
	c.Phone = arg.Phone
	f.customers[c.ID] = c
	return c, nil
}

func (f *fakeStore) DeleteCustomer(ctx context.Context, id int64) (int64, error) {
	if _, ok := f.customers[id]; !ok {
		return 0, nil
	}
	delete(f.customers, id)
	return 1, nil
}

func (f *fakeStore) AdjustCustomerBalance(ctx context.Context, arg database.AdjustCustomerBalanceParams) (database.Customer, error) {
	c, ok := f.customers[arg.ID]
	if !ok {
		return database.Customer{}, pgx.ErrNoRows
	}
	c.Balance = c.Balance.Add(arg.Delta)
	f.customers[c.ID] = c
	return c, nil
}

func (f *fakeStore) CountOrdersByCustomer(ctx context.Context, customerID int64) (int64, error) {
	var n int64
	for _, o := range f.orders {
		if o.CustomerID.Valid && o.CustomerID.Int64 == customerID {
			n++
		}
	}
	return n, nil
}

// --- SettingStore ---

func (f *fakeStore) GetSetting(ctx context.Context, key string) (database.Setting, error) {
	v, ok := f.settings[key]
	if !ok {
		return database.Setting{}, pgx.ErrNoRows
	}
	return database.Setting{Key: key, Value: v}, nil
}

func (f *fakeStore) UpsertSetting(ctx context.Context, arg database.UpsertSettingParams) (database.Setting, error) {
	if err := f.failed("UpsertSetting"); err != nil {
		return database.Setting{}, err
	}
	f.settings[arg.Key] = arg.Value
	return database.Setting{Key: arg.Key, Value: arg.Value}, nil
}
