package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kafe-adisyon/api/internal/database"
	"github.com/kafe-adisyon/api/internal/enum"
	"github.com/kafe-adisyon/api/internal/middleware"
	"github.com/kafe-adisyon/api/internal/service"
	"github.com/shopspring/decimal"
)

// CustomerLedger defines the ledger methods needed by customer handlers.
// Satisfied by *service.Ledger.
type CustomerLedger interface {
	ListCustomers(ctx context.Context, search string) ([]database.Customer, error)
	GetCustomer(ctx context.Context, id int64) (database.Customer, error)
	GetCustomerByPhone(ctx context.Context, phone string) (database.Customer, error)
	CreateCustomer(ctx context.Context, in service.CustomerInput) (database.Customer, error)
	UpdateCustomer(ctx context.Context, id int64, in service.CustomerInput) (database.Customer, error)
	DeleteCustomer(ctx context.Context, id int64) error
	AdjustCustomerBalance(ctx context.Context, customerID int64, delta decimal.Decimal) (database.Customer, error)
}

// CustomerHandler handles customer accounts and their balances.
type CustomerHandler struct {
	ledger CustomerLedger
}

// NewCustomerHandler creates a new CustomerHandler.
func NewCustomerHandler(ledger CustomerLedger) *CustomerHandler {
	return &CustomerHandler{ledger: ledger}
}

// RegisterRoutes registers customer endpoints. Expected to be mounted at /customers.
func (h *CustomerHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/by-phone/{phone}", h.GetByPhone)
	r.Get("/{id}", h.Get)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Post("/{id}/balance", h.AdjustBalance)
	r.With(middleware.RequireRole(enum.UserRoleAdmin)).Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type createCustomerRequest struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Balance  string `json:"balance"`
}

type updateCustomerRequest struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

type adjustBalanceRequest struct {
	Delta string `json:"delta"`
}

type customerResponse struct {
	ID       int64   `json:"id"`
	FullName string  `json:"full_name"`
	Phone    *string `json:"phone"`
	Balance  string  `json:"balance"`
}

func toCustomerResponse(c database.Customer) customerResponse {
	return customerResponse{
		ID:       c.ID,
		FullName: c.FullName,
		Phone:    textPtr(c.Phone),
		Balance:  money(c.Balance),
	}
}

// --- Handlers ---

// List returns customers, filtered by name or phone when search is given.
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	customers, err := h.ledger.ListCustomers(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		writeLedgerError(w, "list customers", err)
		return
	}

	resp := make([]customerResponse, len(customers))
	for i, c := range customers {
		resp[i] = toCustomerResponse(c)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid customer ID"})
		return
	}

	customer, err := h.ledger.GetCustomer(r.Context(), id)
	if err != nil {
		writeLedgerError(w, "get customer", err)
		return
	}
	writeJSON(w, http.StatusOK, toCustomerResponse(customer))
}

func (h *CustomerHandler) GetByPhone(w http.ResponseWriter, r *http.Request) {
	customer, err := h.ledger.GetCustomerByPhone(r.Context(), chi.URLParam(r, "phone"))
	if err != nil {
		writeLedgerError(w, "get customer by phone", err)
		return
	}
	writeJSON(w, http.StatusOK, toCustomerResponse(customer))
}

func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	balance := decimal.Zero
	if req.Balance != "" {
		var err error
		if balance, err = parseMoney("balance", req.Balance); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
	}

	customer, err := h.ledger.CreateCustomer(r.Context(), service.CustomerInput{
		FullName: req.FullName,
		Phone:    req.Phone,
		Balance:  balance,
	})
	if err != nil {
		writeLedgerError(w, "create customer", err)
		return
	}
	writeJSON(w, http.StatusCreated, toCustomerResponse(customer))
}

// Update changes name and phone. The balance only moves through AdjustBalance.
func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid customer ID"})
		return
	}

	var req updateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	customer, err := h.ledger.UpdateCustomer(r.Context(), id, service.CustomerInput{
		FullName: req.FullName,
		Phone:    req.Phone,
	})
	if err != nil {
		writeLedgerError(w, "update customer", err)
		return
	}
	writeJSON(w, http.StatusOK, toCustomerResponse(customer))
}

// AdjustBalance adds a signed delta to the customer's balance.
func (h *CustomerHandler) AdjustBalance(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid customer ID"})
		return
	}

	var req adjustBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	delta, err := parseMoney("delta", req.Delta)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	customer, err := h.ledger.AdjustCustomerBalance(r.Context(), id, delta)
	if err != nil {
		writeLedgerError(w, "adjust customer balance", err)
		return
	}
	writeJSON(w, http.StatusOK, toCustomerResponse(customer))
}

// Delete removes a customer that no order references.
func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid customer ID"})
		return
	}

	if err := h.ledger.DeleteCustomer(r.Context(), id); err != nil {
		writeLedgerError(w, "delete customer", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
