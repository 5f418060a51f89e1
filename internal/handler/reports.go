package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kafe-adisyon/api/internal/database"
)

// ReportsStore defines the database methods needed by report handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ReportsStore interface {
	GetSalesSummary(ctx context.Context, arg database.GetSalesSummaryParams) (database.GetSalesSummaryRow, error)
	GetProductSales(ctx context.Context, arg database.GetProductSalesParams) ([]database.GetProductSalesRow, error)
}

// ReportsHandler handles sales reports over closed orders.
type ReportsHandler struct {
	store ReportsStore
	now   func() time.Time
}

// NewReportsHandler creates a new ReportsHandler.
func NewReportsHandler(store ReportsStore) *ReportsHandler {
	return &ReportsHandler{store: store, now: time.Now}
}

// RegisterRoutes registers report endpoints. Expected to be mounted at /reports.
func (h *ReportsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/sales-summary", h.SalesSummary)
	r.Get("/product-sales", h.ProductSales)
}

// --- Response types ---

type salesSummaryResponse struct {
	StartDate       string `json:"start_date"`
	EndDate         string `json:"end_date"`
	OrderCount      int64  `json:"order_count"`
	GrossSales      string `json:"gross_sales"`
	TotalDiscount   string `json:"total_discount"`
	NetSales        string `json:"net_sales"`
	AmountCollected string `json:"amount_collected"`
}

type productSalesResponse struct {
	ProductName  string  `json:"product_name"`
	CategoryName *string `json:"category_name"`
	Quantity     int64   `json:"quantity"`
	Amount       string  `json:"amount"`
}

// --- Handlers ---

// SalesSummary handles GET /reports/sales-summary?start_date=&end_date=.
func (h *ReportsHandler) SalesSummary(w http.ResponseWriter, r *http.Request) {
	from, to, err := h.parseDateRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	row, err := h.store.GetSalesSummary(r.Context(), database.GetSalesSummaryParams{From: from, To: to})
	if err != nil {
		log.Printf("ERROR: sales summary: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, salesSummaryResponse{
		StartDate:       from.Format(dateLayout),
		EndDate:         to.AddDate(0, 0, -1).Format(dateLayout),
		OrderCount:      row.OrderCount,
		GrossSales:      money(row.GrossSales),
		TotalDiscount:   money(row.TotalDiscount),
		NetSales:        money(row.NetSales),
		AmountCollected: money(row.AmountCollected),
	})
}

// ProductSales handles GET /reports/product-sales?start_date=&end_date=.
func (h *ReportsHandler) ProductSales(w http.ResponseWriter, r *http.Request) {
	from, to, err := h.parseDateRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	rows, err := h.store.GetProductSales(r.Context(), database.GetProductSalesParams{From: from, To: to})
	if err != nil {
		log.Printf("ERROR: product sales: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]productSalesResponse, len(rows))
	for i, row := range rows {
		resp[i] = productSalesResponse{
			ProductName:  row.ProductName,
			CategoryName: textPtr(row.CategoryName),
			Quantity:     row.Quantity,
			Amount:       money(row.Amount),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- Helpers ---

const dateLayout = "2006-01-02"

// parseDateRange reads start_date and end_date (YYYY-MM-DD, both inclusive)
// in the server's local zone. Missing values default to today. The returned
// end is exclusive: midnight after end_date.
func (h *ReportsHandler) parseDateRange(r *http.Request) (time.Time, time.Time, error) {
	now := h.now().In(time.Local)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	start, end := today, today

	if s := r.URL.Query().Get("start_date"); s != "" {
		t, err := time.ParseInLocation(dateLayout, s, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid start_date format, expected YYYY-MM-DD")
		}
		start = t
	}

	if s := r.URL.Query().Get("end_date"); s != "" {
		t, err := time.ParseInLocation(dateLayout, s, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid end_date format, expected YYYY-MM-DD")
		}
		end = t
	}

	if start.After(end) {
		return time.Time{}, time.Time{}, errors.New("start_date must not be after end_date")
	}

	return start, end.AddDate(0, 0, 1), nil
}
