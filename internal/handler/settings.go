package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// SettingLedger defines the ledger methods needed by setting handlers.
type SettingLedger interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}

// SettingHandler exposes the key/value settings. All routes are ADMIN only.
type SettingHandler struct {
	ledger SettingLedger
}

func NewSettingHandler(ledger SettingLedger) *SettingHandler {
	return &SettingHandler{ledger: ledger}
}

// RegisterRoutes registers setting endpoints. Expected to be mounted at /settings.
func (h *SettingHandler) RegisterRoutes(r chi.Router) {
	r.Get("/{key}", h.Get)
	r.Put("/{key}", h.Set)
}

type settingRequest struct {
	Value string `json:"value"`
}

type settingResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (h *SettingHandler) Get(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	value, err := h.ledger.GetSetting(r.Context(), key)
	if err != nil {
		writeLedgerError(w, "get setting", err)
		return
	}
	writeJSON(w, http.StatusOK, settingResponse{Key: key, Value: value})
}

func (h *SettingHandler) Set(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var req settingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := h.ledger.SetSetting(r.Context(), key, req.Value); err != nil {
		writeLedgerError(w, "set setting", err)
		return
	}
	writeJSON(w, http.StatusOK, settingResponse{Key: key, Value: req.Value})
}
