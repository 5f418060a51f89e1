package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kafe-adisyon/api/internal/database"
	"github.com/kafe-adisyon/api/internal/service"
	"github.com/kafe-adisyon/api/internal/ws"
	"github.com/shopspring/decimal"
)

// OrderLedger defines the ledger methods needed by order handlers.
// Satisfied by *service.Ledger; narrow interface for testability.
type OrderLedger interface {
	GetOrder(ctx context.Context, orderID int64) (*service.OrderDetail, error)
	ListOpenOrders(ctx context.Context) ([]service.OrderSummary, error)
	AddOrUpdateLineItem(ctx context.Context, req service.LineItemRequest) (int64, error)
	RemoveLineItem(ctx context.Context, lineItemID, orderID int64) error
	ClearOrder(ctx context.Context, orderID int64) error
	ApplyDiscount(ctx context.Context, orderID int64, amount decimal.Decimal) (*service.OrderSummary, error)
	LinkCustomer(ctx context.Context, orderID int64, customerID *int64) error
}

// OrderHandler handles the cart of an open order.
type OrderHandler struct {
	ledger OrderLedger
	events Publisher
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(ledger OrderLedger, events Publisher) *OrderHandler {
	return &OrderHandler{ledger: ledger, events: events}
}

// RegisterRoutes registers order endpoints. Expected to be mounted at /orders.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.ListOpen)
	r.Get("/{id}", h.Get)
	r.Delete("/{id}", h.Clear)
	r.Post("/{id}/items", h.AddItem)
	r.Put("/{id}/items/{itemId}", h.UpdateItem)
	r.Delete("/{id}/items/{itemId}", h.RemoveItem)
	r.Put("/{id}/discount", h.ApplyDiscount)
	r.Put("/{id}/customer", h.LinkCustomer)
}

// --- Request / Response types ---

type addLineItemRequest struct {
	ProductID   *int64 `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int32  `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	CategoryID  *int64 `json:"category_id"`
}

type updateLineItemRequest struct {
	Quantity int32 `json:"quantity"`
}

type discountRequest struct {
	Amount string `json:"amount"`
}

type linkCustomerRequest struct {
	CustomerID *int64 `json:"customer_id"`
}

type orderResponse struct {
	ID             int64               `json:"id"`
	TableNumber    int32               `json:"table_number"`
	Status         string              `json:"status"`
	OpenedAt       time.Time           `json:"opened_at"`
	ClosedAt       *time.Time          `json:"closed_at"`
	GrossTotal     string              `json:"gross_total"`
	Discount       string              `json:"discount"`
	NetTotal       string              `json:"net_total"`
	AmountPaid     string              `json:"amount_paid"`
	Remaining      string              `json:"remaining"`
	PaymentMethod  *string             `json:"payment_method"`
	CustomerID     *int64              `json:"customer_id"`
	LastActivityAt *time.Time          `json:"last_activity_at"`
	Items          []orderItemResponse `json:"items,omitempty"`
}

type orderItemResponse struct {
	ID          int64     `json:"id"`
	OrderID     int64     `json:"order_id"`
	ProductID   *int64    `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int32     `json:"quantity"`
	UnitPrice   string    `json:"unit_price"`
	Amount      string    `json:"amount"`
	CategoryID  *int64    `json:"category_id"`
	AddedAt     time.Time `json:"added_at"`
}

type addLineItemResponse struct {
	orderResponse
	LineItemID int64 `json:"line_item_id"`
}

func toOrderResponse(s service.OrderSummary) orderResponse {
	o := s.Order
	return orderResponse{
		ID:             o.ID,
		TableNumber:    o.TableNumber,
		Status:         o.Status,
		OpenedAt:       o.OpenedAt,
		ClosedAt:       timePtr(o.ClosedAt),
		GrossTotal:     money(o.GrossTotal),
		Discount:       money(o.Discount),
		NetTotal:       money(s.NetTotal),
		AmountPaid:     money(o.AmountPaid),
		Remaining:      money(s.Remaining),
		PaymentMethod:  textPtr(o.PaymentMethod),
		CustomerID:     int8Ptr(o.CustomerID),
		LastActivityAt: timePtr(o.LastActivityAt),
	}
}

func toOrderDetailResponse(d *service.OrderDetail) orderResponse {
	resp := toOrderResponse(d.OrderSummary)
	resp.Items = make([]orderItemResponse, len(d.Items))
	for i, it := range d.Items {
		resp.Items[i] = toOrderItemResponse(it)
	}
	return resp
}

func toOrderItemResponse(it database.OrderItem) orderItemResponse {
	return orderItemResponse{
		ID:          it.ID,
		OrderID:     it.OrderID,
		ProductID:   int8Ptr(it.ProductID),
		ProductName: it.ProductName,
		Quantity:    it.Quantity,
		UnitPrice:   money(it.UnitPrice),
		Amount:      money(it.Amount),
		CategoryID:  int8Ptr(it.CategoryID),
		AddedAt:     it.AddedAt,
	}
}

// --- Handlers ---

// ListOpen returns every open order.
func (h *OrderHandler) ListOpen(w http.ResponseWriter, r *http.Request) {
	orders, err := h.ledger.ListOpenOrders(r.Context())
	if err != nil {
		writeLedgerError(w, "list open orders", err)
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns an order with its line items.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, err := parseIDParam(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	detail, err := h.ledger.GetOrder(r.Context(), orderID)
	if err != nil {
		writeLedgerError(w, "get order", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDetailResponse(detail))
}

// AddItem adds a free-form or catalog line to an open order.
func (h *OrderHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	orderID, err := parseIDParam(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req addLineItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	unitPrice, err := parseMoney("unit_price", req.UnitPrice)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	itemID, err := h.ledger.AddOrUpdateLineItem(r.Context(), service.LineItemRequest{
		OrderID:     orderID,
		ProductID:   req.ProductID,
		ProductName: req.ProductName,
		Quantity:    req.Quantity,
		UnitPrice:   unitPrice,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		writeLedgerError(w, "add line item", err)
		return
	}

	resp, ok := h.reloadOrder(w, r, orderID)
	if !ok {
		return
	}
	writeJSON(w, http.StatusCreated, addLineItemResponse{orderResponse: resp, LineItemID: itemID})
}

// UpdateItem changes the quantity of an existing line.
func (h *OrderHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	orderID, err := parseIDParam(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}
	itemID, err := parseIDParam(r, "itemId")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid line item ID"})
		return
	}

	var req updateLineItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if _, err := h.ledger.AddOrUpdateLineItem(r.Context(), service.LineItemRequest{
		OrderID:            orderID,
		Quantity:           req.Quantity,
		ExistingLineItemID: itemID,
	}); err != nil {
		writeLedgerError(w, "update line item", err)
		return
	}

	if resp, ok := h.reloadOrder(w, r, orderID); ok {
		writeJSON(w, http.StatusOK, resp)
	}
}

// RemoveItem deletes one line from an open order.
func (h *OrderHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	orderID, err := parseIDParam(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}
	itemID, err := parseIDParam(r, "itemId")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid line item ID"})
		return
	}

	if err := h.ledger.RemoveLineItem(r.Context(), itemID, orderID); err != nil {
		writeLedgerError(w, "remove line item", err)
		return
	}

	if resp, ok := h.reloadOrder(w, r, orderID); ok {
		writeJSON(w, http.StatusOK, resp)
	}
}

// Clear cancels an open order and frees its table.
func (h *OrderHandler) Clear(w http.ResponseWriter, r *http.Request) {
	orderID, err := parseIDParam(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	if err := h.ledger.ClearOrder(r.Context(), orderID); err != nil {
		writeLedgerError(w, "clear order", err)
		return
	}

	detail, err := h.ledger.GetOrder(r.Context(), orderID)
	if err != nil {
		writeLedgerError(w, "get order", err)
		return
	}

	resp := toOrderDetailResponse(detail)
	h.publish(detail.Order.TableNumber, ws.EventOrderCancelled, resp)
	writeJSON(w, http.StatusOK, resp)
}

// ApplyDiscount sets the discount of an open order.
func (h *OrderHandler) ApplyDiscount(w http.ResponseWriter, r *http.Request) {
	orderID, err := parseIDParam(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req discountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	amount, err := parseMoney("amount", req.Amount)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	summary, err := h.ledger.ApplyDiscount(r.Context(), orderID, amount)
	if err != nil {
		writeLedgerError(w, "apply discount", err)
		return
	}

	resp := toOrderResponse(*summary)
	h.publish(resp.TableNumber, ws.EventTableUpdated, resp)
	writeJSON(w, http.StatusOK, resp)
}

// LinkCustomer attaches a customer to an open order; a null customer_id
// detaches it.
func (h *OrderHandler) LinkCustomer(w http.ResponseWriter, r *http.Request) {
	orderID, err := parseIDParam(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req linkCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := h.ledger.LinkCustomer(r.Context(), orderID, req.CustomerID); err != nil {
		writeLedgerError(w, "link customer", err)
		return
	}

	if resp, ok := h.reloadOrder(w, r, orderID); ok {
		writeJSON(w, http.StatusOK, resp)
	}
}

// --- Helpers ---

// reloadOrder reads the order back after a change and announces it on the
// table's channel. On failure the error response is already written.
func (h *OrderHandler) reloadOrder(w http.ResponseWriter, r *http.Request, orderID int64) (orderResponse, bool) {
	detail, err := h.ledger.GetOrder(r.Context(), orderID)
	if err != nil {
		writeLedgerError(w, "get order", err)
		return orderResponse{}, false
	}

	resp := toOrderDetailResponse(detail)
	h.publish(resp.TableNumber, ws.EventTableUpdated, resp)
	return resp, true
}

func (h *OrderHandler) publish(number int32, eventType string, payload any) {
	if h.events != nil {
		h.events.Publish(number, eventType, payload)
	}
}
