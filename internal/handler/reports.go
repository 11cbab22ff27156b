package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/quanan-pos/api/internal/service"
)

// ReportServicer is satisfied by *service.ReportService.
type ReportServicer interface {
	Revenue(ctx context.Context, tenantID uuid.UUID, start, end time.Time) (service.RevenueReport, error)
	ProductSalesReport(ctx context.Context, tenantID uuid.UUID, start, end time.Time) ([]service.ProductSales, error)
	IngredientPurchaseReport(ctx context.Context, tenantID uuid.UUID, start, end time.Time) ([]service.IngredientPurchases, error)
	DashboardReport(ctx context.Context, tenantID uuid.UUID, now time.Time) (service.Dashboard, error)
}

// ReportHandler handles the reporting endpoints.
type ReportHandler struct {
	svc ReportServicer
}

func NewReportHandler(svc ReportServicer) *ReportHandler {
	return &ReportHandler{svc: svc}
}

func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/revenue", h.Revenue)
	r.Get("/product-sales", h.ProductSales)
	r.Get("/purchases", h.Purchases)
	r.Get("/dashboard", h.Dashboard)
}

func (h *ReportHandler) Revenue(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}
	start, end, ok := dateRange(w, r)
	if !ok {
		return
	}

	report, err := h.svc.Revenue(r.Context(), tenantID, start, end)
	if err != nil {
		log.Printf("ERROR: revenue report: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusOK, "revenue report", report)
}

func (h *ReportHandler) ProductSales(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}
	start, end, ok := dateRange(w, r)
	if !ok {
		return
	}

	report, err := h.svc.ProductSalesReport(r.Context(), tenantID, start, end)
	if err != nil {
		log.Printf("ERROR: product sales report: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusOK, "product sales report", report)
}

func (h *ReportHandler) Purchases(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}
	start, end, ok := dateRange(w, r)
	if !ok {
		return
	}

	report, err := h.svc.IngredientPurchaseReport(r.Context(), tenantID, start, end)
	if err != nil {
		log.Printf("ERROR: purchase report: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusOK, "purchase report", report)
}

func (h *ReportHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	report, err := h.svc.DashboardReport(r.Context(), tenantID, time.Now())
	if err != nil {
		log.Printf("ERROR: dashboard report: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusOK, "dashboard", report)
}

// dateRange reads start/end query params (YYYY-MM-DD), defaulting to the
// last 30 days. The end date is inclusive: the window runs to end-of-day.
func dateRange(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	now := time.Now()
	start := now.AddDate(0, 0, -30)
	end := now

	if s := r.URL.Query().Get("start"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			respondError(w, http.StatusUnprocessableEntity, "start must be YYYY-MM-DD")
			return time.Time{}, time.Time{}, false
		}
		start = t
	}
	if s := r.URL.Query().Get("end"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			respondError(w, http.StatusUnprocessableEntity, "end must be YYYY-MM-DD")
			return time.Time{}, time.Time{}, false
		}
		end = t.AddDate(0, 0, 1)
	}
	if end.Before(start) {
		respondError(w, http.StatusUnprocessableEntity, "end must not be before start")
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}
