package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kafe-adisyon/api/internal/database"
	"github.com/kafe-adisyon/api/internal/enum"
	"github.com/kafe-adisyon/api/internal/middleware"
)

// CategoryLedger defines the ledger methods needed by category handlers.
// Satisfied by *service.Ledger.
type CategoryLedger interface {
	ListCategories(ctx context.Context) ([]database.Category, error)
	CreateCategory(ctx context.Context, name string) (database.Category, error)
	RenameCategory(ctx context.Context, id int64, name string) (database.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
}

// CategoryHandler handles category CRUD endpoints.
type CategoryHandler struct {
	ledger CategoryLedger
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(ledger CategoryLedger) *CategoryHandler {
	return &CategoryHandler{ledger: ledger}
}

// RegisterRoutes registers category endpoints. Expected to be mounted at
// /categories; changes are ADMIN only.
func (h *CategoryHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(enum.UserRoleAdmin))
		r.Post("/", h.Create)
		r.Put("/{id}", h.Rename)
		r.Delete("/{id}", h.Delete)
	})
}

// --- Request / Response types ---

type categoryRequest struct {
	Name string `json:"name"`
}

// --- Handlers ---

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.ledger.ListCategories(r.Context())
	if err != nil {
		writeLedgerError(w, "list categories", err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	category, err := h.ledger.CreateCategory(r.Context(), req.Name)
	if err != nil {
		writeLedgerError(w, "create category", err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

func (h *CategoryHandler) Rename(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid category ID"})
		return
	}

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	category, err := h.ledger.RenameCategory(r.Context(), id, req.Name)
	if err != nil {
		writeLedgerError(w, "rename category", err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

// Delete removes a category no active product uses.
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid category ID"})
		return
	}

	if err := h.ledger.DeleteCategory(r.Context(), id); err != nil {
		writeLedgerError(w, "delete category", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
