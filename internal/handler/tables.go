package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kafe-adisyon/api/internal/database"
	"github.com/kafe-adisyon/api/internal/enum"
	"github.com/kafe-adisyon/api/internal/middleware"
	"github.com/kafe-adisyon/api/internal/service"
	"github.com/kafe-adisyon/api/internal/ws"
)

// TableLedger defines the ledger methods needed by table handlers.
// Satisfied by *service.Ledger.
type TableLedger interface {
	ListTables(ctx context.Context) ([]database.ListTablesRow, error)
	AddTable(ctx context.Context) (database.CafeTable, error)
	DeleteTable(ctx context.Context, number int32) error
	SetTableStatus(ctx context.Context, tableNumber int32, status string) error
	OpenOrGetOrder(ctx context.Context, tableNumber int32) (int64, error)
	AddProductToTable(ctx context.Context, tableNumber int32, productID int64, quantity int32) (*service.CartLine, error)
	GetLateTables(ctx context.Context, threshold time.Duration) ([]service.LateTable, error)
	GetOrder(ctx context.Context, orderID int64) (*service.OrderDetail, error)
}

// TableHandler handles the floor plan: tables, their status and quick-sale adds.
type TableHandler struct {
	ledger        TableLedger
	events        Publisher
	lateThreshold time.Duration
}

// NewTableHandler creates a new TableHandler. lateThreshold is used by
// GET /tables/late when the request names none.
func NewTableHandler(ledger TableLedger, events Publisher, lateThreshold time.Duration) *TableHandler {
	return &TableHandler{ledger: ledger, events: events, lateThreshold: lateThreshold}
}

// RegisterRoutes registers table endpoints. Expected to be mounted at /tables.
func (h *TableHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/late", h.Late)
	r.Patch("/{number}/status", h.SetStatus)
	r.Post("/{number}/order", h.Open)
	r.Post("/{number}/items", h.AddProduct)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(enum.UserRoleAdmin))
		r.Post("/", h.Add)
		r.Delete("/{number}", h.Delete)
	})
}

// --- Request / Response types ---

type setTableStatusRequest struct {
	Status string `json:"status"`
}

type addProductRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int32 `json:"quantity"`
}

type tableResponse struct {
	Number          int32   `json:"number"`
	Status          string  `json:"status"`
	ActiveOrderID   *int64  `json:"active_order_id"`
	CurrentNetTotal string  `json:"current_net_total"`
	CurrentDiscount string  `json:"current_discount"`
	CustomerName    *string `json:"customer_name,omitempty"`
}

type lateTableResponse struct {
	TableNumber    int32     `json:"table_number"`
	OrderID        int64     `json:"order_id"`
	Status         string    `json:"status"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

type cartLineResponse struct {
	Item  orderItemResponse `json:"item"`
	Order orderResponse     `json:"order"`
}

func toTableResponse(t database.CafeTable) tableResponse {
	return tableResponse{
		Number:          t.Number,
		Status:          t.Status,
		ActiveOrderID:   int8Ptr(t.ActiveOrderID),
		CurrentNetTotal: money(t.CurrentNetTotal),
		CurrentDiscount: money(t.CurrentDiscount),
	}
}

// --- Handlers ---

// List returns every table with its live totals.
func (h *TableHandler) List(w http.ResponseWriter, r *http.Request) {
	tables, err := h.ledger.ListTables(r.Context())
	if err != nil {
		writeLedgerError(w, "list tables", err)
		return
	}

	resp := make([]tableResponse, len(tables))
	for i, t := range tables {
		resp[i] = toTableResponse(t.CafeTable)
		resp[i].CustomerName = textPtr(t.CustomerName)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Add creates the next numbered table.
func (h *TableHandler) Add(w http.ResponseWriter, r *http.Request) {
	table, err := h.ledger.AddTable(r.Context())
	if err != nil {
		writeLedgerError(w, "add table", err)
		return
	}

	resp := toTableResponse(table)
	h.publish(table.Number, ws.EventTableUpdated, resp)
	writeJSON(w, http.StatusCreated, resp)
}

// Delete removes an empty table.
func (h *TableHandler) Delete(w http.ResponseWriter, r *http.Request) {
	number, err := parseTableNumber(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if err := h.ledger.DeleteTable(r.Context(), number); err != nil {
		writeLedgerError(w, "delete table", err)
		return
	}

	h.publish(number, ws.EventTableUpdated, map[string]any{"number": number, "deleted": true})
	w.WriteHeader(http.StatusNoContent)
}

// SetStatus changes a table's status without touching its order.
func (h *TableHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	number, err := parseTableNumber(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	var req setTableStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}

	if err := h.ledger.SetTableStatus(r.Context(), number, req.Status); err != nil {
		writeLedgerError(w, "set table status", err)
		return
	}

	h.publish(number, ws.EventTableUpdated, map[string]any{"number": number, "status": req.Status})
	writeJSON(w, http.StatusOK, map[string]any{"number": number, "status": req.Status})
}

// Open returns the table's open order, opening one when there is none.
func (h *TableHandler) Open(w http.ResponseWriter, r *http.Request) {
	number, err := parseTableNumber(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	orderID, err := h.ledger.OpenOrGetOrder(r.Context(), number)
	if err != nil {
		writeLedgerError(w, "open order", err)
		return
	}

	detail, err := h.ledger.GetOrder(r.Context(), orderID)
	if err != nil {
		writeLedgerError(w, "get order", err)
		return
	}

	resp := toOrderDetailResponse(detail)
	h.publish(number, ws.EventTableUpdated, resp)
	writeJSON(w, http.StatusOK, resp)
}

// AddProduct adds a catalog product to the table's order, merging it into an
// existing line for the same product.
func (h *TableHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	number, err := parseTableNumber(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	var req addProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.ProductID <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "product_id is required"})
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	line, err := h.ledger.AddProductToTable(r.Context(), number, req.ProductID, req.Quantity)
	if err != nil {
		writeLedgerError(w, "add product to table", err)
		return
	}

	resp := cartLineResponse{
		Item:  toOrderItemResponse(line.Item),
		Order: toOrderResponse(line.Order),
	}
	h.publish(number, ws.EventTableUpdated, resp.Order)
	writeJSON(w, http.StatusCreated, resp)
}

// Late lists tables idle for longer than threshold_minutes (or the
// configured threshold).
func (h *TableHandler) Late(w http.ResponseWriter, r *http.Request) {
	threshold := h.lateThreshold
	if s := r.URL.Query().Get("threshold_minutes"); s != "" {
		minutes, err := strconv.Atoi(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid threshold_minutes"})
			return
		}
		threshold = time.Duration(minutes) * time.Minute
	}

	late, err := h.ledger.GetLateTables(r.Context(), threshold)
	if err != nil {
		writeLedgerError(w, "get late tables", err)
		return
	}

	resp := make([]lateTableResponse, len(late))
	for i, t := range late {
		resp[i] = lateTableResponse{
			TableNumber:    t.TableNumber,
			OrderID:        t.OrderID,
			Status:         t.Status,
			LastActivityAt: t.LastActivityAt,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- Helpers ---

func (h *TableHandler) publish(number int32, eventType string, payload any) {
	if h.events != nil {
		h.events.Publish(number, eventType, payload)
	}
}
