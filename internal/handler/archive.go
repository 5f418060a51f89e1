package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/kafe-adisyon/api/internal/archive"
	"github.com/kafe-adisyon/api/internal/service"
)

// ArchiveLedger defines the ledger methods needed by archive handlers.
// Satisfied by *service.Ledger.
type ArchiveLedger interface {
	ArchiveClosedOrders(ctx context.Context, cutoffYear int) (*service.ArchiveResult, error)
	LastArchivedYear(ctx context.Context) (int, error)
}

// ArchiveReader reads orders back from the archive store.
// Satisfied by *archive.Store.
type ArchiveReader interface {
	ListOrders(ctx context.Context, year int) ([]archive.Order, error)
}

// ArchiveHandler handles archiving of closed orders. All routes are ADMIN only.
type ArchiveHandler struct {
	ledger ArchiveLedger
	reader ArchiveReader
}

// NewArchiveHandler creates a new ArchiveHandler.
func NewArchiveHandler(ledger ArchiveLedger, reader ArchiveReader) *ArchiveHandler {
	return &ArchiveHandler{ledger: ledger, reader: reader}
}

// RegisterRoutes registers archive endpoints. Expected to be mounted at /archive.
func (h *ArchiveHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Status)
	r.Post("/{year}", h.Run)
	r.Get("/{year}/orders", h.Orders)
}

// --- Response types ---

type archiveResultResponse struct {
	Year        int    `json:"year"`
	Count       int    `json:"count"`
	Destination string `json:"destination"`
}

type archivedOrderResponse struct {
	orderResponse
	Items []orderItemResponse `json:"items"`
}

// --- Handlers ---

// Status reports the most recent archived year (0 when none).
func (h *ArchiveHandler) Status(w http.ResponseWriter, r *http.Request) {
	year, err := h.ledger.LastArchivedYear(r.Context())
	if err != nil {
		writeLedgerError(w, "last archived year", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"last_archived_year": year})
}

// Run archives every closed order up to the end of the given year.
func (h *ArchiveHandler) Run(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid year"})
		return
	}

	result, err := h.ledger.ArchiveClosedOrders(r.Context(), year)
	if err != nil {
		if errors.Is(err, service.ErrArchivePartial) && result != nil {
			log.Printf("ERROR: archive %d: %v", year, err)
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"error":       "orders were copied to the archive but not removed",
				"year":        result.Year,
				"count":       result.Count,
				"destination": result.Destination,
			})
			return
		}
		writeLedgerError(w, "archive closed orders", err)
		return
	}

	writeJSON(w, http.StatusOK, archiveResultResponse{
		Year:        result.Year,
		Count:       result.Count,
		Destination: result.Destination,
	})
}

// Orders lists the orders archived for a year, with their line items.
func (h *ArchiveHandler) Orders(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid year"})
		return
	}

	orders, err := h.reader.ListOrders(r.Context(), year)
	if err != nil {
		if errors.Is(err, archive.ErrInvalidYear) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid year"})
			return
		}
		log.Printf("ERROR: list archived orders %d: %v", year, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]archivedOrderResponse, len(orders))
	for i, o := range orders {
		detail := &service.OrderDetail{
			OrderSummary: service.OrderSummary{
				Order:     o.Order,
				NetTotal:  o.GrossTotal.Sub(o.Discount),
				Remaining: o.GrossTotal.Sub(o.Discount).Sub(o.AmountPaid),
			},
			Items: o.Items,
		}
		full := toOrderDetailResponse(detail)
		resp[i] = archivedOrderResponse{orderResponse: full, Items: full.Items}
	}
	writeJSON(w, http.StatusOK, resp)
}
