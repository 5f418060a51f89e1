package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kafe-adisyon/api/internal/service"
	"github.com/kafe-adisyon/api/internal/ws"
	"github.com/shopspring/decimal"
)

// PaymentLedger defines the ledger methods needed by payment handlers.
// Satisfied by *service.Ledger.
type PaymentLedger interface {
	GetOrder(ctx context.Context, orderID int64) (*service.OrderDetail, error)
	RecordPartialPayment(ctx context.Context, orderID int64, amount decimal.Decimal, method string) (*service.OrderSummary, error)
	CloseOrder(ctx context.Context, orderID int64, method string) (decimal.Decimal, error)
	CloseOrderPayingFromCustomerBalance(ctx context.Context, orderID int64) (decimal.Decimal, error)
}

// PaymentHandler handles partial payments and closing orders.
type PaymentHandler struct {
	ledger PaymentLedger
	events Publisher
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(ledger PaymentLedger, events Publisher) *PaymentHandler {
	return &PaymentHandler{ledger: ledger, events: events}
}

// RegisterRoutes registers payment endpoints. Expected to be mounted at
// /orders next to the OrderHandler routes.
func (h *PaymentHandler) RegisterRoutes(r chi.Router) {
	r.Post("/{id}/payments", h.AddPayment)
	r.Post("/{id}/close", h.Close)
	r.Post("/{id}/close-from-balance", h.CloseFromBalance)
}

// --- Request / Response types ---

type addPaymentRequest struct {
	Amount        string `json:"amount"`
	PaymentMethod string `json:"payment_method"`
}

type closeOrderRequest struct {
	PaymentMethod string `json:"payment_method"`
}

type closeOrderResponse struct {
	AmountCharged string        `json:"amount_charged"`
	Order         orderResponse `json:"order"`
}

// --- Handlers ---

// AddPayment records a partial payment. The method defaults to "Ara Ödeme".
func (h *PaymentHandler) AddPayment(w http.ResponseWriter, r *http.Request) {
	orderID, err := parseIDParam(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req addPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	amount, err := parseMoney("amount", req.Amount)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	summary, err := h.ledger.RecordPartialPayment(r.Context(), orderID, amount, req.PaymentMethod)
	if err != nil {
		writeLedgerError(w, "record partial payment", err)
		return
	}

	resp := toOrderResponse(*summary)
	h.publish(resp.TableNumber, ws.EventTableUpdated, resp)
	writeJSON(w, http.StatusOK, resp)
}

// Close settles the order with the given payment method.
func (h *PaymentHandler) Close(w http.ResponseWriter, r *http.Request) {
	orderID, err := parseIDParam(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req closeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	charged, err := h.ledger.CloseOrder(r.Context(), orderID, req.PaymentMethod)
	if err != nil {
		writeLedgerError(w, "close order", err)
		return
	}

	h.respondClosed(w, r, orderID, charged)
}

// CloseFromBalance debits the remaining amount from the linked customer's
// balance and closes the order.
func (h *PaymentHandler) CloseFromBalance(w http.ResponseWriter, r *http.Request) {
	orderID, err := parseIDParam(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	charged, err := h.ledger.CloseOrderPayingFromCustomerBalance(r.Context(), orderID)
	if err != nil {
		writeLedgerError(w, "close order from balance", err)
		return
	}

	h.respondClosed(w, r, orderID, charged)
}

// --- Helpers ---

func (h *PaymentHandler) respondClosed(w http.ResponseWriter, r *http.Request, orderID int64, charged decimal.Decimal) {
	detail, err := h.ledger.GetOrder(r.Context(), orderID)
	if err != nil {
		writeLedgerError(w, "get order", err)
		return
	}

	resp := closeOrderResponse{
		AmountCharged: money(charged),
		Order:         toOrderDetailResponse(detail),
	}
	h.publish(detail.Order.TableNumber, ws.EventOrderClosed, resp)
	writeJSON(w, http.StatusOK, resp)
}

func (h *PaymentHandler) publish(number int32, eventType string, payload any) {
	if h.events != nil {
		h.events.Publish(number, eventType, payload)
	}
}
