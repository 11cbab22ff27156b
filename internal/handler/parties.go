package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/quanan-pos/api/internal/database"
)

// CustomerStore defines the database methods needed by customer handlers.
type CustomerStore interface {
	CreateCustomer(ctx context.Context, arg database.CreatePartyParams) (database.Customer, error)
	GetCustomer(ctx context.Context, arg database.TenantScopedIDParams) (database.Customer, error)
	ListCustomers(ctx context.Context, tenantID uuid.UUID) ([]database.Customer, error)
	UpdateCustomer(ctx context.Context, arg database.UpdatePartyParams) (database.Customer, error)
	DeleteCustomer(ctx context.Context, arg database.TenantScopedIDParams) (int64, error)
}

// SupplierStore defines the database methods needed by supplier handlers.
type SupplierStore interface {
	CreateSupplier(ctx context.Context, arg database.CreatePartyParams) (database.Supplier, error)
	GetSupplier(ctx context.Context, arg database.TenantScopedIDParams) (database.Supplier, error)
	ListSuppliers(ctx context.Context, tenantID uuid.UUID) ([]database.Supplier, error)
	UpdateSupplier(ctx context.Context, arg database.UpdatePartyParams) (database.Supplier, error)
	DeleteSupplier(ctx context.Context, arg database.TenantScopedIDParams) (int64, error)
}

type partyRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func decodeParty(w http.ResponseWriter, r *http.Request) (partyRequest, bool) {
	var req partyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	if req.Name == "" {
		respondValidation(w, map[string]string{"name": "name is required"})
		return req, false
	}
	return req, true
}

// ── Customers ──

// CustomerHandler handles customer endpoints.
type CustomerHandler struct {
	store CustomerStore
}

func NewCustomerHandler(store CustomerStore) *CustomerHandler {
	return &CustomerHandler{store: store}
}

func (h *CustomerHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	req, ok := decodeParty(w, r)
	if !ok {
		return
	}

	customer, err := h.store.CreateCustomer(r.Context(), database.CreatePartyParams{
		TenantID: tenantID,
		Name:     req.Name,
		Phone:    optionalText(req.Phone),
		Address:  optionalText(req.Address),
	})
	if err != nil {
		log.Printf("ERROR: create customer: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusCreated, "customer created", customer)
}

func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	customers, err := h.store.ListCustomers(r.Context(), tenantID)
	if err != nil {
		log.Printf("ERROR: list customers: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusOK, "customers", customers)
}

func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid customer id")
		return
	}

	customer, err := h.store.GetCustomer(r.Context(), database.TenantScopedIDParams{ID: id, TenantID: tenantID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondError(w, http.StatusNotFound, "customer not found")
			return
		}
		log.Printf("ERROR: get customer: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusOK, "customer", customer)
}

func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid customer id")
		return
	}

	req, ok := decodeParty(w, r)
	if !ok {
		return
	}

	customer, err := h.store.UpdateCustomer(r.Context(), database.UpdatePartyParams{
		ID:       id,
		TenantID: tenantID,
		Name:     req.Name,
		Phone:    optionalText(req.Phone),
		Address:  optionalText(req.Address),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondError(w, http.StatusNotFound, "customer not found")
			return
		}
		log.Printf("ERROR: update customer: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusOK, "customer updated", customer)
}

func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid customer id")
		return
	}

	n, err := h.store.DeleteCustomer(r.Context(), database.TenantScopedIDParams{ID: id, TenantID: tenantID})
	if err != nil {
		log.Printf("ERROR: delete customer: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if n == 0 {
		respondError(w, http.StatusNotFound, "customer not found")
		return
	}

	respond(w, http.StatusOK, "customer deleted", nil)
}

// ── Suppliers ──

// SupplierHandler handles supplier endpoints.
type SupplierHandler struct {
	store SupplierStore
}

func NewSupplierHandler(store SupplierStore) *SupplierHandler {
	return &SupplierHandler{store: store}
}

func (h *SupplierHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

func (h *SupplierHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	req, ok := decodeParty(w, r)
	if !ok {
		return
	}

	supplier, err := h.store.CreateSupplier(r.Context(), database.CreatePartyParams{
		TenantID: tenantID,
		Name:     req.Name,
		Phone:    optionalText(req.Phone),
		Address:  optionalText(req.Address),
	})
	if err != nil {
		log.Printf("ERROR: create supplier: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusCreated, "supplier created", supplier)
}

func (h *SupplierHandler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	suppliers, err := h.store.ListSuppliers(r.Context(), tenantID)
	if err != nil {
		log.Printf("ERROR: list suppliers: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusOK, "suppliers", suppliers)
}

func (h *SupplierHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid supplier id")
		return
	}

	supplier, err := h.store.GetSupplier(r.Context(), database.TenantScopedIDParams{ID: id, TenantID: tenantID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondError(w, http.StatusNotFound, "supplier not found")
			return
		}
		log.Printf("ERROR: get supplier: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusOK, "supplier", supplier)
}

func (h *SupplierHandler) Update(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid supplier id")
		return
	}

	req, ok := decodeParty(w, r)
	if !ok {
		return
	}

	supplier, err := h.store.UpdateSupplier(r.Context(), database.UpdatePartyParams{
		ID:       id,
		TenantID: tenantID,
		Name:     req.Name,
		Phone:    optionalText(req.Phone),
		Address:  optionalText(req.Address),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondError(w, http.StatusNotFound, "supplier not found")
			return
		}
		log.Printf("ERROR: update supplier: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusOK, "supplier updated", supplier)
}

func (h *SupplierHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid supplier id")
		return
	}

	n, err := h.store.DeleteSupplier(r.Context(), database.TenantScopedIDParams{ID: id, TenantID: tenantID})
	if err != nil {
		log.Printf("ERROR: delete supplier: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if n == 0 {
		respondError(w, http.StatusNotFound, "supplier not found")
		return
	}

	respond(w, http.StatusOK, "supplier deleted", nil)
}
