package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quanan-pos/api/internal/auth"
	"github.com/quanan-pos/api/internal/middleware"
	"github.com/quanan-pos/api/internal/service"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	Create(ctx context.Context, tenantID, userID uuid.UUID, in service.CreateOrderInput) (service.Order, error)
	Update(ctx context.Context, tenantID, orderID uuid.UUID, in service.UpdateOrderInput) (service.Order, error)
	Delete(ctx context.Context, tenantID, orderID uuid.UUID) error
	Get(ctx context.Context, tenantID, orderID uuid.UUID) (service.Order, error)
	List(ctx context.Context, tenantID uuid.UUID, in service.ListOrdersInput) ([]service.Order, int64, error)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc OrderServicer
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// RegisterRoutes registers order endpoints on the given Chi router.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// --- Request types ---

type orderLineRequest struct {
	ProductID    string              `json:"product_id"`
	IngredientID string              `json:"ingredient_id"`
	Quantity     decimal.Decimal     `json:"quantity"`
	UnitPrice    *decimal.Decimal    `json:"unit_price"`
	Discount     decimal.Decimal     `json:"discount"`
	DiscountKind string              `json:"discount_kind"`
	Note         string              `json:"note"`
	Toppings     []toppingRequest    `json:"toppings"`
}

type toppingRequest struct {
	ProductID string           `json:"product_id"`
	Quantity  decimal.Decimal  `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

type paymentRequest struct {
	Method string          `json:"method"`
	Amount decimal.Decimal `json:"amount"`
}

type createOrderRequest struct {
	Kind         string             `json:"kind"`
	Status       string             `json:"status"`
	TableID      string             `json:"table_id"`
	CustomerID   string             `json:"customer_id"`
	SupplierID   string             `json:"supplier_id"`
	Note         string             `json:"note"`
	Discount     decimal.Decimal    `json:"discount"`
	DiscountKind string             `json:"discount_kind"`
	Lines        []orderLineRequest `json:"lines"`
	Payments     []paymentRequest   `json:"payments"`
}

type updateOrderRequest struct {
	Status       *string            `json:"status"`
	TableID      string             `json:"table_id"`
	CustomerID   string             `json:"customer_id"`
	SupplierID   string             `json:"supplier_id"`
	Note         *string            `json:"note"`
	Discount     *decimal.Decimal   `json:"discount"`
	DiscountKind *string            `json:"discount_kind"`
	Lines        []orderLineRequest `json:"lines"`
	Payments     []paymentRequest   `json:"payments"`
}

// --- Handlers ---

// Create handles POST /orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, claims, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in := service.CreateOrderInput{
		Kind:         req.Kind,
		Status:       req.Status,
		Note:         req.Note,
		Discount:     req.Discount,
		DiscountKind: req.DiscountKind,
		Payments:     toPaymentRequests(req.Payments),
	}

	var err error
	if in.TableID, err = parseOptionalID(req.TableID, service.ErrInvalidTableID); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if in.CustomerID, err = parseOptionalID(req.CustomerID, service.ErrInvalidCustomerID); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if in.SupplierID, err = parseOptionalID(req.SupplierID, service.ErrInvalidSupplierID); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if in.Lines, err = toLineRequests(req.Lines); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	order, err := h.svc.Create(r.Context(), tenantID, claims.UserID, in)
	if err != nil {
		writeOrderError(w, "create order", err)
		return
	}

	respond(w, http.StatusCreated, "order created", order)
}

// List handles GET /orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	in := service.ListOrdersInput{
		Kind:   r.URL.Query().Get("kind"),
		Status: r.URL.Query().Get("status"),
		Page:   queryInt(r, "page", 1),
		Size:   queryInt(r, "size", 20),
	}

	orders, total, err := h.svc.List(r.Context(), tenantID, in)
	if err != nil {
		writeOrderError(w, "list orders", err)
		return
	}
	if in.Page < 1 {
		in.Page = 1
	}
	if in.Size < 1 || in.Size > 100 {
		in.Size = 20
	}

	respondPage(w, "orders", orders, total, in.Page, in.Size)
}

// Get handles GET /orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid order id")
		return
	}

	order, err := h.svc.Get(r.Context(), tenantID, orderID)
	if err != nil {
		writeOrderError(w, "get order", err)
		return
	}

	respond(w, http.StatusOK, "order", order)
}

// Update handles PUT /orders/{id}.
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid order id")
		return
	}

	var req updateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in := service.UpdateOrderInput{
		Status:       req.Status,
		Note:         req.Note,
		Discount:     req.Discount,
		DiscountKind: req.DiscountKind,
	}
	if req.Payments != nil {
		in.Payments = toPaymentRequests(req.Payments)
	}
	if in.TableID, err = parseOptionalID(req.TableID, service.ErrInvalidTableID); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if in.CustomerID, err = parseOptionalID(req.CustomerID, service.ErrInvalidCustomerID); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if in.SupplierID, err = parseOptionalID(req.SupplierID, service.ErrInvalidSupplierID); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if req.Lines != nil {
		if in.Lines, err = toLineRequests(req.Lines); err != nil {
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
	}

	order, err := h.svc.Update(r.Context(), tenantID, orderID, in)
	if err != nil {
		writeOrderError(w, "update order", err)
		return
	}

	respond(w, http.StatusOK, "order updated", order)
}

// Delete handles DELETE /orders/{id}.
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid order id")
		return
	}

	if err := h.svc.Delete(r.Context(), tenantID, orderID); err != nil {
		writeOrderError(w, "delete order", err)
		return
	}

	respond(w, http.StatusOK, "order deleted", nil)
}

// --- Helpers ---

// requestIdentity pulls the tenant and claims the middleware stored on the
// context.
func requestIdentity(w http.ResponseWriter, r *http.Request) (uuid.UUID, *auth.Claims, bool) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return uuid.Nil, nil, false
	}
	tenantID, ok := middleware.TenantFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "tenant not resolved")
		return uuid.Nil, nil, false
	}
	return tenantID, claims, true
}

func parseOptionalID(s string, invalid error) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, invalid
	}
	return &id, nil
}

func toLineRequests(reqs []orderLineRequest) ([]service.LineRequest, error) {
	lines := make([]service.LineRequest, len(reqs))
	for i, req := range reqs {
		line := service.LineRequest{
			Quantity:     req.Quantity,
			UnitPrice:    req.UnitPrice,
			Discount:     req.Discount,
			DiscountKind: req.DiscountKind,
			Note:         req.Note,
		}
		var err error
		if line.ProductID, err = parseOptionalID(req.ProductID, service.ErrInvalidProductID); err != nil {
			return nil, err
		}
		if line.IngredientID, err = parseOptionalID(req.IngredientID, service.ErrInvalidIngredientID); err != nil {
			return nil, err
		}
		for _, tr := range req.Toppings {
			toppingID, err := uuid.Parse(tr.ProductID)
			if err != nil {
				return nil, service.ErrInvalidProductID
			}
			line.Toppings = append(line.Toppings, service.ToppingRequest{
				ProductID: toppingID,
				Quantity:  tr.Quantity,
				UnitPrice: tr.UnitPrice,
			})
		}
		lines[i] = line
	}
	return lines, nil
}

func toPaymentRequests(reqs []paymentRequest) []service.PaymentRequest {
	payments := make([]service.PaymentRequest, len(reqs))
	for i, req := range reqs {
		payments[i] = service.PaymentRequest{Method: req.Method, Amount: req.Amount}
	}
	return payments
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// isOrderValidationError reports whether the error is a request-shape problem
// that maps to 422.
func isOrderValidationError(err error) bool {
	return errors.Is(err, service.ErrEmptyLines) ||
		errors.Is(err, service.ErrInvalidKind) ||
		errors.Is(err, service.ErrInvalidStatus) ||
		errors.Is(err, service.ErrInvalidQuantity) ||
		errors.Is(err, service.ErrInvalidPrice) ||
		errors.Is(err, service.ErrInvalidProductID) ||
		errors.Is(err, service.ErrInvalidIngredientID) ||
		errors.Is(err, service.ErrLineKindMismatch) ||
		errors.Is(err, service.ErrInvalidDiscount) ||
		errors.Is(err, service.ErrInvalidDiscountVal) ||
		errors.Is(err, service.ErrInvalidTableID) ||
		errors.Is(err, service.ErrInvalidCustomerID) ||
		errors.Is(err, service.ErrInvalidSupplierID) ||
		errors.Is(err, service.ErrEmptyPayments) ||
		errors.Is(err, service.ErrInvalidPayment)
}

// isOrderBusinessError reports whether the error is a state-machine or
// referential problem that maps to 400.
func isOrderBusinessError(err error) bool {
	return errors.Is(err, service.ErrTableNotFound) ||
		errors.Is(err, service.ErrTableRequired) ||
		errors.Is(err, service.ErrOrderCompleted) ||
		errors.Is(err, service.ErrReopenNotAllowed)
}

func writeOrderError(w http.ResponseWriter, op string, err error) {
	switch {
	case isOrderValidationError(err):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case isOrderBusinessError(err):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	default:
		log.Printf("ERROR: %s: %v", op, err)
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
