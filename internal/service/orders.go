package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kafe-adisyon/api/internal/database"
	"github.com/shopspring/decimal"
)

// LineItemRequest is the input for AddOrUpdateLineItem. When
// ExistingLineItemID is set only Quantity is used and the snapshot fields
// of that line stay as they are.
type LineItemRequest struct {
	OrderID            int64
	ProductID          *int64
	ProductName        string
	Quantity           int32
	UnitPrice          decimal.Decimal
	CategoryID         *int64
	ExistingLineItemID int64
}

// CartLine is the result of adding a product to a table.
type CartLine struct {
	Item  database.OrderItem
	Order OrderSummary
}

// OpenOrGetOrder returns the open order of a table, creating one when the
// table has none.
func (l *Ledger) OpenOrGetOrder(ctx context.Context, tableNumber int32) (int64, error) {
	var orderID int64
	err := l.withTx(ctx, "open_order", func(store LedgerStore) error {
		order, err := l.openOrGet(ctx, store, tableNumber)
		if err != nil {
			return err
		}
		orderID = order.ID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return orderID, nil
}

func (l *Ledger) openOrGet(ctx context.Context, store LedgerStore, tableNumber int32) (database.Order, error) {
	table, err := store.GetTableByNumberForUpdate(ctx, tableNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrTableNotFound
		}
		return database.Order{}, fmt.Errorf("get table: %w", err)
	}

	if table.ActiveOrderID.Valid {
		order, err := store.GetOrderForUpdate(ctx, table.ActiveOrderID.Int64)
		if err != nil {
			return database.Order{}, fmt.Errorf("get active order: %w", err)
		}
		return order, nil
	}

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		TableNumber: tableNumber,
		OpenedAt:    l.now(),
	})
	if err != nil {
		return database.Order{}, fmt.Errorf("create order: %w", err)
	}

	if _, err := store.AttachTableOrder(ctx, database.AttachTableOrderParams{
		Number:        tableNumber,
		ActiveOrderID: order.ID,
	}); err != nil {
		return database.Order{}, fmt.Errorf("attach order to table: %w", err)
	}
	return order, nil
}

// AddOrUpdateLineItem inserts a new line item or changes the quantity of an
// existing one, then recomputes the order's gross total.
func (l *Ledger) AddOrUpdateLineItem(ctx context.Context, req LineItemRequest) (int64, error) {
	if req.Quantity <= 0 {
		return 0, ErrInvalidQuantity
	}
	if req.ExistingLineItemID == 0 {
		if req.ProductName == "" {
			return 0, ErrProductNameRequired
		}
		if !req.UnitPrice.IsPositive() {
			return 0, ErrInvalidUnitPrice
		}
		if !centsOnly(req.UnitPrice) {
			return 0, ErrInvalidMoneyPrecision
		}
	}

	var lineItemID int64
	err := l.withTx(ctx, "add_line_item", func(store LedgerStore) error {
		order, err := lockOpenOrder(ctx, store, req.OrderID)
		if err != nil {
			if errors.Is(err, ErrOrderNotFound) || errors.Is(err, ErrOrderNotOpen) {
				return ErrOpenOrderNotFound
			}
			return err
		}

		var item database.OrderItem
		if req.ExistingLineItemID != 0 {
			item, err = l.setLineQuantity(ctx, store, order.ID, req.ExistingLineItemID, req.Quantity)
		} else {
			item, err = l.insertLine(ctx, store, order.ID, database.CreateOrderItemParams{
				ProductID:   optionalInt8(req.ProductID),
				ProductName: req.ProductName,
				Quantity:    req.Quantity,
				UnitPrice:   req.UnitPrice,
				CategoryID:  optionalInt8(req.CategoryID),
			})
		}
		if err != nil {
			return err
		}

		if _, err := l.refreshTotals(ctx, store, order); err != nil {
			return err
		}
		if err := store.MarkTableOccupiedByOrder(ctx, order.ID); err != nil {
			return fmt.Errorf("mark table occupied: %w", err)
		}
		lineItemID = item.ID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return lineItemID, nil
}

// AddProductToTable is the quick-sale path: it opens the table's order if
// needed and either bumps the quantity of the product's existing line or
// adds a new line snapshotting the product's current name, price and
// category.
func (l *Ledger) AddProductToTable(ctx context.Context, tableNumber int32, productID int64, quantity int32) (*CartLine, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	var line CartLine
	err := l.withTx(ctx, "add_product_to_table", func(store LedgerStore) error {
		order, err := l.openOrGet(ctx, store, tableNumber)
		if err != nil {
			return err
		}

		product, err := store.GetProduct(ctx, productID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrProductNotFound
			}
			return fmt.Errorf("get product: %w", err)
		}
		if !product.Active {
			return ErrProductInactive
		}

		var item database.OrderItem
		existing, err := store.GetOrderItemByProduct(ctx, database.GetOrderItemByProductParams{
			OrderID:   order.ID,
			ProductID: productID,
		})
		switch {
		case err == nil:
			total := int64(existing.Quantity) + int64(quantity)
			if total > math.MaxInt32 {
				return ErrInvalidQuantity
			}
			item, err = l.setLineQuantity(ctx, store, order.ID, existing.ID, int32(total))
		case errors.Is(err, pgx.ErrNoRows):
			item, err = l.insertLine(ctx, store, order.ID, database.CreateOrderItemParams{
				ProductID:   pgtype.Int8{Int64: product.ID, Valid: true},
				ProductName: product.Name,
				Quantity:    quantity,
				UnitPrice:   product.Price,
				CategoryID:  product.CategoryID,
			})
		default:
			return fmt.Errorf("get line for product: %w", err)
		}
		if err != nil {
			return err
		}

		updated, err := l.refreshTotals(ctx, store, order)
		if err != nil {
			return err
		}
		if err := store.MarkTableOccupiedByOrder(ctx, order.ID); err != nil {
			return fmt.Errorf("mark table occupied: %w", err)
		}

		line = CartLine{Item: item, Order: *summarize(updated)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &line, nil
}

func (l *Ledger) insertLine(ctx context.Context, store LedgerStore, orderID int64, params database.CreateOrderItemParams) (database.OrderItem, error) {
	if params.ProductID.Valid {
		if err := consumeStock(ctx, store, params.ProductID.Int64, params.Quantity); err != nil {
			return database.OrderItem{}, err
		}
	}

	params.OrderID = orderID
	params.Amount = params.UnitPrice.Mul(decimal.NewFromInt32(params.Quantity))
	params.AddedAt = l.now()
	item, err := store.CreateOrderItem(ctx, params)
	if err != nil {
		return database.OrderItem{}, fmt.Errorf("create line item: %w", err)
	}
	return item, nil
}

// setLineQuantity rewrites a line's quantity and amount. The unit price
// snapshot taken when the line was created is kept.
func (l *Ledger) setLineQuantity(ctx context.Context, store LedgerStore, orderID, lineItemID int64, quantity int32) (database.OrderItem, error) {
	if quantity <= 0 {
		return database.OrderItem{}, ErrInvalidQuantity
	}
	item, err := store.GetOrderItem(ctx, database.GetOrderItemParams{ID: lineItemID, OrderID: orderID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.OrderItem{}, ErrLineItemNotFound
		}
		return database.OrderItem{}, fmt.Errorf("get line item: %w", err)
	}

	if delta := quantity - item.Quantity; delta > 0 && item.ProductID.Valid {
		if err := consumeStock(ctx, store, item.ProductID.Int64, delta); err != nil {
			return database.OrderItem{}, err
		}
	}

	updated, err := store.UpdateOrderItemQuantity(ctx, database.UpdateOrderItemQuantityParams{
		ID:       item.ID,
		OrderID:  orderID,
		Quantity: quantity,
		Amount:   item.UnitPrice.Mul(decimal.NewFromInt32(quantity)),
	})
	if err != nil {
		return database.OrderItem{}, fmt.Errorf("update line item: %w", err)
	}
	return updated, nil
}

// consumeStock takes quantity units from a product's tracked stock.
// Products without a stock count are not tracked.
func consumeStock(ctx context.Context, store LedgerStore, productID int64, quantity int32) error {
	product, err := store.GetProductForUpdate(ctx, productID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrProductNotFound
		}
		return fmt.Errorf("get product: %w", err)
	}
	if !product.StockQuantity.Valid {
		return nil
	}
	if product.StockQuantity.Int32 < quantity {
		return ErrInsufficientStock
	}
	if _, err := store.DecrementProductStock(ctx, database.DecrementProductStockParams{
		ID:       productID,
		Quantity: quantity,
	}); err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	return nil
}

// RemoveLineItem deletes one line of an open order. A line that does not
// exist under that order is reported as ErrLineItemNotFound.
func (l *Ledger) RemoveLineItem(ctx context.Context, lineItemID, orderID int64) error {
	return l.withTx(ctx, "remove_line_item", func(store LedgerStore) error {
		order, err := lockOpenOrder(ctx, store, orderID)
		if err != nil {
			return err
		}

		n, err := store.DeleteOrderItem(ctx, database.DeleteOrderItemParams{ID: lineItemID, OrderID: orderID})
		if err != nil {
			return fmt.Errorf("delete line item: %w", err)
		}
		if n == 0 {
			return ErrLineItemNotFound
		}

		if _, err := l.refreshTotals(ctx, store, order); err != nil {
			return err
		}
		if err := store.MarkTableOccupiedByOrder(ctx, order.ID); err != nil {
			return fmt.Errorf("mark table occupied: %w", err)
		}
		return nil
	})
}

// ClearOrder cancels an open order: its line items are deleted, its totals
// zeroed and its table released. Cancelled orders are never reopened.
func (l *Ledger) ClearOrder(ctx context.Context, orderID int64) error {
	return l.withTx(ctx, "clear_order", func(store LedgerStore) error {
		order, err := lockOpenOrder(ctx, store, orderID)
		if err != nil {
			return err
		}

		if err := store.DeleteOrderItemsByOrder(ctx, order.ID); err != nil {
			return fmt.Errorf("delete line items: %w", err)
		}
		if _, err := store.CancelOrder(ctx, database.CancelOrderParams{
			ID:       order.ID,
			ClosedAt: l.now(),
		}); err != nil {
			return fmt.Errorf("cancel order: %w", err)
		}
		if err := store.ReleaseTableByOrder(ctx, order.ID); err != nil {
			return fmt.Errorf("release table: %w", err)
		}
		return nil
	})
}

// ApplyDiscount sets the order's discount. The amount must lie within
// [0, grossTotal].
func (l *Ledger) ApplyDiscount(ctx context.Context, orderID int64, amount decimal.Decimal) (*OrderSummary, error) {
	if amount.IsNegative() {
		return nil, ErrInvalidDiscount
	}
	if !centsOnly(amount) {
		return nil, ErrInvalidMoneyPrecision
	}

	var summary *OrderSummary
	err := l.withTx(ctx, "apply_discount", func(store LedgerStore) error {
		order, err := lockOpenOrder(ctx, store, orderID)
		if err != nil {
			return err
		}
		if amount.GreaterThan(order.GrossTotal) {
			return ErrInvalidDiscount
		}

		updated, err := store.UpdateOrderDiscount(ctx, database.UpdateOrderDiscountParams{
			ID:             order.ID,
			Discount:       amount,
			LastActivityAt: l.now(),
		})
		if err != nil {
			return fmt.Errorf("update discount: %w", err)
		}
		if err := mirrorTotals(ctx, store, updated); err != nil {
			return err
		}
		summary = summarize(updated)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// LinkCustomer attaches a customer to an open order, or detaches it when
// customerID is nil. It counts as activity on the order.
func (l *Ledger) LinkCustomer(ctx context.Context, orderID int64, customerID *int64) error {
	return l.withTx(ctx, "link_customer", func(store LedgerStore) error {
		order, err := lockOpenOrder(ctx, store, orderID)
		if err != nil {
			return err
		}

		if customerID != nil {
			if _, err := store.GetCustomer(ctx, *customerID); err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return ErrCustomerNotFound
				}
				return fmt.Errorf("get customer: %w", err)
			}
		}

		if _, err := store.SetOrderCustomer(ctx, database.SetOrderCustomerParams{
			ID:             order.ID,
			CustomerID:     optionalInt8(customerID),
			LastActivityAt: l.now(),
		}); err != nil {
			return fmt.Errorf("set order customer: %w", err)
		}
		if err := store.MarkTableOccupiedByOrder(ctx, order.ID); err != nil {
			return fmt.Errorf("mark table occupied: %w", err)
		}
		return nil
	})
}

// GetOrder returns an order with its derived totals and line items.
func (l *Ledger) GetOrder(ctx context.Context, orderID int64) (*OrderDetail, error) {
	order, err := l.store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, classify("get_order", err)
	}

	items, err := l.store.ListOrderItems(ctx, orderID)
	if err != nil {
		return nil, classify("list_line_items", err)
	}
	if items == nil {
		items = []database.OrderItem{}
	}

	return &OrderDetail{OrderSummary: *summarize(order), Items: items}, nil
}

// ListOpenOrders returns every open order with its derived totals.
func (l *Ledger) ListOpenOrders(ctx context.Context) ([]OrderSummary, error) {
	orders, err := l.store.ListOpenOrders(ctx)
	if err != nil {
		return nil, classify("list_open_orders", err)
	}
	out := make([]OrderSummary, len(orders))
	for i, o := range orders {
		out[i] = *summarize(o)
	}
	return out, nil
}
