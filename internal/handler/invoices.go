package handler

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/savedfeast/api/internal/apperr"
	"github.com/savedfeast/api/internal/database"
	"github.com/savedfeast/api/internal/enum"
	"github.com/savedfeast/api/internal/gate"
	"github.com/savedfeast/api/internal/service"
	"go.uber.org/zap"
)

// InvoiceServicer defines the service methods needed by invoice handlers.
// Satisfied by *service.InvoiceService.
type InvoiceServicer interface {
	Generate(ctx context.Context, actor gate.Actor, req service.GenerateRequest) (*service.GenerateResult, error)
	List(ctx context.Context, f service.InvoiceFilter) (*service.InvoicePage, error)
	Show(ctx context.Context, id uuid.UUID) (*service.InvoiceDetail, error)
	DownloadPath(ctx context.Context, id uuid.UUID) (string, error)
	MarkSent(ctx context.Context, actor gate.Actor, id uuid.UUID) (database.RestaurantInvoice, error)
	MarkPaid(ctx context.Context, actor gate.Actor, id uuid.UUID) (database.RestaurantInvoice, error)
	MarkOverdue(ctx context.Context, actor gate.Actor, id uuid.UUID) (database.RestaurantInvoice, error)
	Void(ctx context.Context, actor gate.Actor, id uuid.UUID) (database.RestaurantInvoice, error)
}

// InvoiceHandler serves the admin settlement endpoints.
type InvoiceHandler struct {
	svc InvoiceServicer
	loc *time.Location
	log *zap.SugaredLogger
}

func NewInvoiceHandler(svc InvoiceServicer, loc *time.Location, log *zap.SugaredLogger) *InvoiceHandler {
	return &InvoiceHandler{svc: svc, loc: loc, log: log}
}

// RegisterRoutes registers invoice endpoints. Expected to be mounted inside
// the admin group.
func (h *InvoiceHandler) RegisterRoutes(r chi.Router) {
	r.Post("/invoices/generate", h.Generate)
	r.Get("/invoices", h.List)
	r.Get("/invoices/{id}", h.Show)
	r.Get("/invoices/{id}/download", h.Download)
	r.Patch("/invoices/{id}/mark-sent", h.mark(InvoiceServicer.MarkSent))
	r.Patch("/invoices/{id}/mark-paid", h.mark(InvoiceServicer.MarkPaid))
	r.Patch("/invoices/{id}/mark-overdue", h.mark(InvoiceServicer.MarkOverdue))
	r.Patch("/invoices/{id}/void", h.mark(InvoiceServicer.Void))
}

// --- Request / Response types ---

type generateInvoicesRequest struct {
	Period      string `json:"period"`
	PeriodStart string `json:"period_start"`
}

type invoiceResponse struct {
	ID              uuid.UUID  `json:"id"`
	RestaurantID    uuid.UUID  `json:"restaurant_id"`
	InvoiceNumber   string     `json:"invoice_number"`
	PeriodStart     time.Time  `json:"period_start"`
	PeriodEnd       time.Time  `json:"period_end"`
	Status          string     `json:"status"`
	SubtotalSales   string     `json:"subtotal_sales"`
	CommissionRate  string     `json:"commission_rate"`
	CommissionTotal string     `json:"commission_total"`
	OrdersCount     int32      `json:"orders_count"`
	HasPdf          bool       `json:"has_pdf"`
	SentAt          *time.Time `json:"sent_at"`
	PaidAt          *time.Time `json:"paid_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type invoiceRestaurantResponse struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Address string    `json:"address"`
}

type invoiceItemResponse struct {
	ID               uuid.UUID  `json:"id"`
	OrderID          uuid.UUID  `json:"order_id"`
	MealID           uuid.UUID  `json:"meal_id"`
	MealName         string     `json:"meal_name"`
	Quantity         int32      `json:"quantity"`
	CompletedAt      *time.Time `json:"completed_at"`
	OrderTotal       string     `json:"order_total"`
	CommissionRate   string     `json:"commission_rate"`
	CommissionAmount string     `json:"commission_amount"`
}

type invoiceDetailResponse struct {
	Invoice    invoiceResponse           `json:"invoice"`
	Restaurant invoiceRestaurantResponse `json:"restaurant"`
	Items      []invoiceItemResponse     `json:"items"`
}

type invoiceListResponse struct {
	Invoices []invoiceResponse `json:"invoices"`
	Page     int               `json:"page"`
	PerPage  int               `json:"per_page"`
	Total    int64             `json:"total"`
}

// --- Handlers ---

// Generate handles POST /admin/invoices/generate.
func (h *InvoiceHandler) Generate(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req generateInvoicesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	// "previous" is reserved for the weekly scheduler.
	if req.Period != enum.InvoicePeriodWeekly {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("unsupported period %q", req.Period)})
		return
	}

	svcReq := service.GenerateRequest{Period: req.Period}
	if req.PeriodStart != "" {
		start, err := time.ParseInLocation(dateLayout, req.PeriodStart, h.loc)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "period_start must be YYYY-MM-DD"})
			return
		}
		svcReq.PeriodStart = &start
	}

	res, err := h.svc.Generate(r.Context(), actor, svcReq)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	invoices := make([]invoiceResponse, len(res.Invoices))
	for i, inv := range res.Invoices {
		invoices[i] = toInvoiceResponse(inv)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"invoices": invoices,
		"count":    len(invoices),
	})
}

// List handles GET /admin/invoices.
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := service.InvoiceFilter{Status: q.Get("status")}

	if v := q.Get("restaurant_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant_id"})
			return
		}
		f.RestaurantID = &id
	}
	for _, p := range []struct {
		key  string
		dest **time.Time
	}{{"date_from", &f.DateFrom}, {"date_to", &f.DateTo}} {
		v := q.Get(p.key)
		if v == "" {
			continue
		}
		t, err := time.ParseInLocation(dateLayout, v, h.loc)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": p.key + " must be YYYY-MM-DD"})
			return
		}
		*p.dest = &t
	}
	if f.DateTo != nil {
		// inclusive of the whole day
		end := f.DateTo.Add(24*time.Hour - time.Second)
		f.DateTo = &end
	}
	if v := q.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "page must be a positive integer"})
			return
		}
		if page > service.MaxInvoicePage {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("page must not exceed %d", service.MaxInvoicePage)})
			return
		}
		f.Page = page
	}

	page, err := h.svc.List(r.Context(), f)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	resp := invoiceListResponse{
		Invoices: make([]invoiceResponse, len(page.Invoices)),
		Page:     page.Page,
		PerPage:  page.PerPage,
		Total:    page.Total,
	}
	for i, inv := range page.Invoices {
		resp.Invoices[i] = toInvoiceResponse(inv)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Show handles GET /admin/invoices/{id}.
func (h *InvoiceHandler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id", "invoice")
	if !ok {
		return
	}

	d, err := h.svc.Show(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	resp := invoiceDetailResponse{
		Invoice: toInvoiceResponse(d.Invoice),
		Restaurant: invoiceRestaurantResponse{
			ID:      d.Restaurant.ID,
			Name:    d.Restaurant.Name,
			Address: d.Restaurant.Address,
		},
		Items: make([]invoiceItemResponse, len(d.Items)),
	}
	for i, it := range d.Items {
		resp.Items[i] = invoiceItemResponse{
			ID:               it.ID,
			OrderID:          it.OrderID,
			MealID:           it.MealID,
			MealName:         it.MealName,
			Quantity:         it.Quantity,
			CompletedAt:      optionalTime(it.CompletedAt),
			OrderTotal:       numericToString(it.OrderTotal),
			CommissionRate:   rateToString(it.CommissionRate),
			CommissionAmount: numericToString(it.CommissionAmount),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Download handles GET /admin/invoices/{id}/download.
func (h *InvoiceHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id", "invoice")
	if !ok {
		return
	}

	path, err := h.svc.DownloadPath(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(path)+`"`)
	http.ServeFile(w, r, path)
}

type markFunc func(s InvoiceServicer, ctx context.Context, actor gate.Actor, id uuid.UUID) (database.RestaurantInvoice, error)

// mark builds the PATCH handlers for the status transitions. A rejected
// transition answers 400 with the reason.
func (h *InvoiceHandler) mark(fn markFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}
		id, ok := urlID(w, r, "id", "invoice")
		if !ok {
			return
		}

		inv, err := fn(h.svc, r.Context(), actor, id)
		if err != nil {
			if apperr.KindOf(err) == apperr.KindConflict {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": apperr.Message(err)})
				return
			}
			writeError(w, r, h.log, err)
			return
		}
		writeJSON(w, http.StatusOK, toInvoiceResponse(inv))
	}
}

func toInvoiceResponse(inv database.RestaurantInvoice) invoiceResponse {
	return invoiceResponse{
		ID:              inv.ID,
		RestaurantID:    inv.RestaurantID,
		InvoiceNumber:   inv.InvoiceNumber,
		PeriodStart:     inv.PeriodStart,
		PeriodEnd:       inv.PeriodEnd,
		Status:          inv.Status,
		SubtotalSales:   numericToString(inv.SubtotalSales),
		CommissionRate:  rateToString(inv.CommissionRate),
		CommissionTotal: numericToString(inv.CommissionTotal),
		OrdersCount:     inv.OrdersCount,
		HasPdf:          inv.PdfPath.Valid && inv.PdfPath.String != "",
		SentAt:          optionalTime(inv.SentAt),
		PaidAt:          optionalTime(inv.PaidAt),
		CreatedAt:       inv.CreatedAt,
		UpdatedAt:       inv.UpdatedAt,
	}
}
