package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/kafe-adisyon/api/internal/database"
	"github.com/kafe-adisyon/api/internal/enum"
	"github.com/kafe-adisyon/api/internal/middleware"
	"github.com/kafe-adisyon/api/internal/service"
)

// ProductLedger defines the ledger methods needed by product handlers.
// Satisfied by *service.Ledger.
type ProductLedger interface {
	ListProducts(ctx context.Context, filter service.ProductFilter) ([]database.ProductRow, error)
	ListQuickSaleProducts(ctx context.Context, categoryID *int64) ([]database.ProductRow, error)
	GetProduct(ctx context.Context, id int64) (database.Product, error)
	CreateProduct(ctx context.Context, in service.ProductInput) (database.Product, error)
	UpdateProduct(ctx context.Context, id int64, in service.ProductInput) (database.Product, error)
	SetProductActive(ctx context.Context, id int64, active bool) (database.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

// ProductHandler handles the menu.
type ProductHandler struct {
	ledger ProductLedger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(ledger ProductLedger) *ProductHandler {
	return &ProductHandler{ledger: ledger}
}

// RegisterRoutes registers product endpoints. Expected to be mounted at
// /products; changes are ADMIN only.
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/quick-sale", h.QuickSale)
	r.Get("/{id}", h.Get)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(enum.UserRoleAdmin))
		r.Post("/", h.Create)
		r.Put("/{id}", h.Update)
		r.Patch("/{id}/active", h.SetActive)
		r.Delete("/{id}", h.Delete)
	})
}

// --- Request / Response types ---

type productRequest struct {
	Name          string `json:"name"`
	Price         string `json:"price"`
	CategoryID    *int64 `json:"category_id"`
	Active        *bool  `json:"active"`
	QuickSaleRank int32  `json:"quick_sale_rank"`
	StockQuantity *int32 `json:"stock_quantity"`
}

type setActiveRequest struct {
	Active *bool `json:"active"`
}

type productResponse struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Price         string  `json:"price"`
	CategoryID    *int64  `json:"category_id"`
	CategoryName  *string `json:"category_name,omitempty"`
	Active        bool    `json:"active"`
	QuickSaleRank int32   `json:"quick_sale_rank"`
	StockQuantity *int32  `json:"stock_quantity"`
}

func toProductResponse(p database.Product) productResponse {
	return productResponse{
		ID:            p.ID,
		Name:          p.Name,
		Price:         money(p.Price),
		CategoryID:    int8Ptr(p.CategoryID),
		Active:        p.Active,
		QuickSaleRank: p.QuickSaleRank,
		StockQuantity: int4Ptr(p.StockQuantity),
	}
}

func toProductRowsResponse(rows []database.ProductRow) []productResponse {
	resp := make([]productResponse, len(rows))
	for i, row := range rows {
		resp[i] = toProductResponse(row.Product)
		resp[i].CategoryName = textPtr(row.CategoryName)
	}
	return resp
}

func (req productRequest) toInput() (service.ProductInput, error) {
	price, err := parseMoney("price", req.Price)
	if err != nil {
		return service.ProductInput{}, err
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	return service.ProductInput{
		Name:          req.Name,
		Price:         price,
		CategoryID:    req.CategoryID,
		Active:        active,
		QuickSaleRank: req.QuickSaleRank,
		StockQuantity: req.StockQuantity,
	}, nil
}

// --- Handlers ---

// List returns active products; include_inactive=true adds the passive ones
// and category_id narrows to one category.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	categoryID, err := parseCategoryQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	filter := service.ProductFilter{CategoryID: categoryID}
	if s := r.URL.Query().Get("include_inactive"); s != "" {
		filter.IncludeInactive, err = strconv.ParseBool(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid include_inactive"})
			return
		}
	}

	products, err := h.ledger.ListProducts(r.Context(), filter)
	if err != nil {
		writeLedgerError(w, "list products", err)
		return
	}
	writeJSON(w, http.StatusOK, toProductRowsResponse(products))
}

// QuickSale returns the quick-sale buttons, optionally for one category.
func (h *ProductHandler) QuickSale(w http.ResponseWriter, r *http.Request) {
	categoryID, err := parseCategoryQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	products, err := h.ledger.ListQuickSaleProducts(r.Context(), categoryID)
	if err != nil {
		writeLedgerError(w, "list quick sale products", err)
		return
	}
	writeJSON(w, http.StatusOK, toProductRowsResponse(products))
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product ID"})
		return
	}

	product, err := h.ledger.GetProduct(r.Context(), id)
	if err != nil {
		writeLedgerError(w, "get product", err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(product))
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	in, err := req.toInput()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	product, err := h.ledger.CreateProduct(r.Context(), in)
	if err != nil {
		writeLedgerError(w, "create product", err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductResponse(product))
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product ID"})
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	in, err := req.toInput()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	product, err := h.ledger.UpdateProduct(r.Context(), id, in)
	if err != nil {
		writeLedgerError(w, "update product", err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(product))
}

// SetActive soft-deletes or restores a product.
func (h *ProductHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product ID"})
		return
	}

	var req setActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Active == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "active is required"})
		return
	}

	product, err := h.ledger.SetProductActive(r.Context(), id, *req.Active)
	if err != nil {
		writeLedgerError(w, "set product active", err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(product))
}

// Delete removes a product that was never sold.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product ID"})
		return
	}

	if err := h.ledger.DeleteProduct(r.Context(), id); err != nil {
		writeLedgerError(w, "delete product", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Helpers ---

func parseCategoryQuery(r *http.Request) (*int64, error) {
	s := r.URL.Query().Get("category_id")
	if s == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return nil, errInvalidCategoryID
	}
	return &id, nil
}
