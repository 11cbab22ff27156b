package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quanan-pos/api/internal/auth"
	"github.com/quanan-pos/api/internal/middleware"
	"github.com/quanan-pos/api/internal/service"
)

type mockOrderServicer struct {
	create func(ctx context.Context, tenantID, userID uuid.UUID, in service.CreateOrderInput) (service.Order, error)
	update func(ctx context.Context, tenantID, orderID uuid.UUID, in service.UpdateOrderInput) (service.Order, error)
	delete func(ctx context.Context, tenantID, orderID uuid.UUID) error
	get    func(ctx context.Context, tenantID, orderID uuid.UUID) (service.Order, error)
	list   func(ctx context.Context, tenantID uuid.UUID, in service.ListOrdersInput) ([]service.Order, int64, error)
}

func (m *mockOrderServicer) Create(ctx context.Context, tenantID, userID uuid.UUID, in service.CreateOrderInput) (service.Order, error) {
	return m.create(ctx, tenantID, userID, in)
}

func (m *mockOrderServicer) Update(ctx context.Context, tenantID, orderID uuid.UUID, in service.UpdateOrderInput) (service.Order, error) {
	return m.update(ctx, tenantID, orderID, in)
}

func (m *mockOrderServicer) Delete(ctx context.Context, tenantID, orderID uuid.UUID) error {
	return m.delete(ctx, tenantID, orderID)
}

func (m *mockOrderServicer) Get(ctx context.Context, tenantID, orderID uuid.UUID) (service.Order, error) {
	return m.get(ctx, tenantID, orderID)
}

func (m *mockOrderServicer) List(ctx context.Context, tenantID uuid.UUID, in service.ListOrdersInput) ([]service.Order, int64, error) {
	return m.list(ctx, tenantID, in)
}

// authedRequest builds a request carrying the context the auth middleware
// chain would have produced.
func authedRequest(method, target string, body any, tenantID uuid.UUID) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	r := httptest.NewRequest(method, target, &buf)
	ctx := middleware.WithClaims(r.Context(), &auth.Claims{UserID: tenantID, Role: "OWNER"})
	ctx = middleware.WithTenant(ctx, tenantID)
	return r.WithContext(ctx)
}

func orderRouter(svc OrderServicer) chi.Router {
	r := chi.NewRouter()
	NewOrderHandler(svc).RegisterRoutes(r)
	return r
}

func TestCreateOrderReturns201(t *testing.T) {
	tenantID := uuid.New()
	orderID := uuid.New()
	svc := &mockOrderServicer{
		create: func(ctx context.Context, gotTenant, userID uuid.UUID, in service.CreateOrderInput) (service.Order, error) {
			if gotTenant != tenantID {
				t.Errorf("tenant = %s, want %s", gotTenant, tenantID)
			}
			if len(in.Lines) != 1 {
				t.Fatalf("got %d lines, want 1", len(in.Lines))
			}
			return service.Order{ID: orderID, Kind: "SALE", Status: "PENDING"}, nil
		},
	}

	body := map[string]any{
		"lines": []map[string]any{
			{"product_id": uuid.NewString(), "quantity": "2"},
		},
	}
	w := httptest.NewRecorder()
	orderRouter(svc).ServeHTTP(w, authedRequest(http.MethodPost, "/", body, tenantID))

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Status int `json:"status"`
		Data   struct {
			ID uuid.UUID `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != http.StatusCreated {
		t.Errorf("envelope status = %d, want 201", resp.Status)
	}
	if resp.Data.ID != orderID {
		t.Errorf("order id = %s, want %s", resp.Data.ID, orderID)
	}
}

func TestCreateOrderWithoutAuthReturns401(t *testing.T) {
	svc := &mockOrderServicer{}
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString("{}"))
	orderRouter(svc).ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestCreateOrderValidationErrorReturns422(t *testing.T) {
	svc := &mockOrderServicer{
		create: func(ctx context.Context, tenantID, userID uuid.UUID, in service.CreateOrderInput) (service.Order, error) {
			return service.Order{}, service.ErrEmptyLines
		},
	}

	w := httptest.NewRecorder()
	orderRouter(svc).ServeHTTP(w, authedRequest(http.MethodPost, "/", map[string]any{}, uuid.New()))

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", w.Code)
	}
}

func TestCreateOrderBusinessErrorReturns400(t *testing.T) {
	svc := &mockOrderServicer{
		create: func(ctx context.Context, tenantID, userID uuid.UUID, in service.CreateOrderInput) (service.Order, error) {
			return service.Order{}, service.ErrTableNotFound
		},
	}

	body := map[string]any{
		"table_id": uuid.NewString(),
		"lines": []map[string]any{
			{"product_id": uuid.NewString(), "quantity": "1"},
		},
	}
	w := httptest.NewRecorder()
	orderRouter(svc).ServeHTTP(w, authedRequest(http.MethodPost, "/", body, uuid.New()))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestGetOrderNotFoundReturns404(t *testing.T) {
	svc := &mockOrderServicer{
		get: func(ctx context.Context, tenantID, orderID uuid.UUID) (service.Order, error) {
			return service.Order{}, service.ErrOrderNotFound
		},
	}

	w := httptest.NewRecorder()
	orderRouter(svc).ServeHTTP(w, authedRequest(http.MethodGet, "/"+uuid.NewString(), nil, uuid.New()))

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestGetOrderInvalidIDReturns422(t *testing.T) {
	svc := &mockOrderServicer{}
	w := httptest.NewRecorder()
	orderRouter(svc).ServeHTTP(w, authedRequest(http.MethodGet, "/not-a-uuid", nil, uuid.New()))

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", w.Code)
	}
}

func TestListOrdersPaginationMeta(t *testing.T) {
	svc := &mockOrderServicer{
		list: func(ctx context.Context, tenantID uuid.UUID, in service.ListOrdersInput) ([]service.Order, int64, error) {
			if in.Kind != "SALE" {
				t.Errorf("kind = %q, want SALE", in.Kind)
			}
			return []service.Order{{ID: uuid.New()}}, 41, nil
		},
	}

	w := httptest.NewRecorder()
	orderRouter(svc).ServeHTTP(w, authedRequest(http.MethodGet, "/?kind=SALE&page=2&size=20", nil, uuid.New()))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Success bool `json:"success"`
		Meta    struct {
			Total       int64 `json:"total"`
			CurrentPage int   `json:"current_page"`
			LastPage    int   `json:"last_page"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success {
		t.Error("success = false, want true")
	}
	if resp.Meta.Total != 41 {
		t.Errorf("total = %d, want 41", resp.Meta.Total)
	}
	if resp.Meta.CurrentPage != 2 {
		t.Errorf("current_page = %d, want 2", resp.Meta.CurrentPage)
	}
	if resp.Meta.LastPage != 3 {
		t.Errorf("last_page = %d, want 3", resp.Meta.LastPage)
	}
}

func TestUpdateOrderPassesPartialFields(t *testing.T) {
	status := "COMPLETED"
	var got service.UpdateOrderInput
	svc := &mockOrderServicer{
		update: func(ctx context.Context, tenantID, orderID uuid.UUID, in service.UpdateOrderInput) (service.Order, error) {
			got = in
			return service.Order{ID: orderID, Status: status}, nil
		},
	}

	body := map[string]any{
		"status":   status,
		"payments": []map[string]any{{"method": "CASH", "amount": "20"}},
	}
	w := httptest.NewRecorder()
	orderRouter(svc).ServeHTTP(w, authedRequest(http.MethodPut, "/"+uuid.NewString(), body, uuid.New()))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
	if got.Status == nil || *got.Status != status {
		t.Errorf("status input = %v, want %s", got.Status, status)
	}
	if got.Lines != nil {
		t.Error("lines should stay nil when the request omits them")
	}
	if len(got.Payments) != 1 || !got.Payments[0].Amount.Equal(decimal.NewFromInt(20)) {
		t.Errorf("payments = %+v, want one CASH 20", got.Payments)
	}
}

func TestDeleteOrderReturns200(t *testing.T) {
	called := false
	svc := &mockOrderServicer{
		delete: func(ctx context.Context, tenantID, orderID uuid.UUID) error {
			called = true
			return nil
		},
	}

	w := httptest.NewRecorder()
	orderRouter(svc).ServeHTTP(w, authedRequest(http.MethodDelete, "/"+uuid.NewString(), nil, uuid.New()))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !called {
		t.Error("service Delete was not called")
	}
}
