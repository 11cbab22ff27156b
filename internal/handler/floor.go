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
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/quanan-pos/api/internal/database"
	"github.com/quanan-pos/api/internal/enum"
)

// AreaStore defines the database methods needed by area handlers.
type AreaStore interface {
	CreateArea(ctx context.Context, arg database.CreateAreaParams) (database.Area, error)
	GetArea(ctx context.Context, arg database.TenantScopedIDParams) (database.Area, error)
	ListAreas(ctx context.Context, tenantID uuid.UUID) ([]database.Area, error)
	UpdateArea(ctx context.Context, arg database.UpdateAreaParams) (database.Area, error)
	DeleteArea(ctx context.Context, arg database.TenantScopedIDParams) (int64, error)
}

// TableStore defines the database methods needed by table handlers.
type TableStore interface {
	CreateTable(ctx context.Context, arg database.CreateTableParams) (database.Table, error)
	GetTable(ctx context.Context, arg database.TenantScopedIDParams) (database.Table, error)
	ListTables(ctx context.Context, arg database.ListTablesParams) ([]database.Table, error)
	UpdateTable(ctx context.Context, arg database.UpdateTableParams) (database.Table, error)
	SetTableStatus(ctx context.Context, arg database.SetTableStatusParams) (int64, error)
	DeleteTable(ctx context.Context, arg database.TenantScopedIDParams) (int64, error)
}

// ── Areas ──

// AreaHandler handles dining area endpoints.
type AreaHandler struct {
	store AreaStore
}

func NewAreaHandler(store AreaStore) *AreaHandler {
	return &AreaHandler{store: store}
}

func (h *AreaHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

type areaRequest struct {
	Name string `json:"name"`
}

func (h *AreaHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	var req areaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		respondValidation(w, map[string]string{"name": "name is required"})
		return
	}

	area, err := h.store.CreateArea(r.Context(), database.CreateAreaParams{
		TenantID: tenantID,
		Name:     req.Name,
	})
	if err != nil {
		log.Printf("ERROR: create area: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusCreated, "area created", area)
}

func (h *AreaHandler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	areas, err := h.store.ListAreas(r.Context(), tenantID)
	if err != nil {
		log.Printf("ERROR: list areas: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusOK, "areas", areas)
}

func (h *AreaHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid area id")
		return
	}

	area, err := h.store.GetArea(r.Context(), database.TenantScopedIDParams{ID: id, TenantID: tenantID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondError(w, http.StatusNotFound, "area not found")
			return
		}
		log.Printf("ERROR: get area: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusOK, "area", area)
}

func (h *AreaHandler) Update(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid area id")
		return
	}

	var req areaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		respondValidation(w, map[string]string{"name": "name is required"})
		return
	}

	area, err := h.store.UpdateArea(r.Context(), database.UpdateAreaParams{
		ID:       id,
		TenantID: tenantID,
		Name:     req.Name,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondError(w, http.StatusNotFound, "area not found")
			return
		}
		log.Printf("ERROR: update area: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusOK, "area updated", area)
}

func (h *AreaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid area id")
		return
	}

	n, err := h.store.DeleteArea(r.Context(), database.TenantScopedIDParams{ID: id, TenantID: tenantID})
	if err != nil {
		log.Printf("ERROR: delete area: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if n == 0 {
		respondError(w, http.StatusNotFound, "area not found")
		return
	}

	respond(w, http.StatusOK, "area deleted", nil)
}

// ── Tables ──

// TableHandler handles dining table endpoints.
type TableHandler struct {
	store TableStore
}

func NewTableHandler(store TableStore) *TableHandler {
	return &TableHandler{store: store}
}

func (h *TableHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Put("/{id}/status", h.SetStatus)
	r.Delete("/{id}", h.Delete)
}

type tableRequest struct {
	Name   string `json:"name"`
	AreaID string `json:"area_id"`
	Status string `json:"status"`
}

type tableStatusRequest struct {
	Status string `json:"status"`
}

func validTableStatus(s string) bool {
	switch s {
	case enum.TableStatusFree, enum.TableStatusOccupied, enum.TableStatusReserved:
		return true
	}
	return false
}

func (h *TableHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	var req tableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	fields := map[string]string{}
	if req.Name == "" {
		fields["name"] = "name is required"
	}
	if req.Status == "" {
		req.Status = enum.TableStatusFree
	} else if !validTableStatus(req.Status) {
		fields["status"] = "status must be FREE, OCCUPIED or RESERVED"
	}

	arg := database.CreateTableParams{
		TenantID: tenantID,
		Name:     req.Name,
		Status:   req.Status,
	}
	if req.AreaID != "" {
		areaID, err := uuid.Parse(req.AreaID)
		if err != nil {
			fields["area_id"] = "invalid area_id"
		} else {
			arg.AreaID = pgtype.UUID{Bytes: areaID, Valid: true}
		}
	}
	if len(fields) > 0 {
		respondValidation(w, fields)
		return
	}

	table, err := h.store.CreateTable(r.Context(), arg)
	if err != nil {
		log.Printf("ERROR: create table: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusCreated, "table created", table)
}

func (h *TableHandler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	arg := database.ListTablesParams{TenantID: tenantID}
	if s := r.URL.Query().Get("area_id"); s != "" {
		areaID, err := uuid.Parse(s)
		if err != nil {
			respondError(w, http.StatusUnprocessableEntity, "invalid area_id")
			return
		}
		arg.AreaID = pgtype.UUID{Bytes: areaID, Valid: true}
	}

	tables, err := h.store.ListTables(r.Context(), arg)
	if err != nil {
		log.Printf("ERROR: list tables: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusOK, "tables", tables)
}

func (h *TableHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid table id")
		return
	}

	table, err := h.store.GetTable(r.Context(), database.TenantScopedIDParams{ID: id, TenantID: tenantID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondError(w, http.StatusNotFound, "table not found")
			return
		}
		log.Printf("ERROR: get table: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusOK, "table", table)
}

func (h *TableHandler) Update(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid table id")
		return
	}

	var req tableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		respondValidation(w, map[string]string{"name": "name is required"})
		return
	}

	arg := database.UpdateTableParams{
		ID:       id,
		TenantID: tenantID,
		Name:     req.Name,
	}
	if req.AreaID != "" {
		areaID, err := uuid.Parse(req.AreaID)
		if err != nil {
			respondValidation(w, map[string]string{"area_id": "invalid area_id"})
			return
		}
		arg.AreaID = pgtype.UUID{Bytes: areaID, Valid: true}
	}

	table, err := h.store.UpdateTable(r.Context(), arg)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondError(w, http.StatusNotFound, "table not found")
			return
		}
		log.Printf("ERROR: update table: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusOK, "table updated", table)
}

// SetStatus changes a table's occupancy state by hand, for walk-ins and
// reservations outside the order flow.
func (h *TableHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid table id")
		return
	}

	var req tableStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !validTableStatus(req.Status) {
		respondValidation(w, map[string]string{"status": "status must be FREE, OCCUPIED or RESERVED"})
		return
	}

	n, err := h.store.SetTableStatus(r.Context(), database.SetTableStatusParams{
		ID:       id,
		TenantID: tenantID,
		Status:   req.Status,
	})
	if err != nil {
		log.Printf("ERROR: set table status: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if n == 0 {
		respondError(w, http.StatusNotFound, "table not found")
		return
	}

	respond(w, http.StatusOK, "table status updated", nil)
}

func (h *TableHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid table id")
		return
	}

	n, err := h.store.DeleteTable(r.Context(), database.TenantScopedIDParams{ID: id, TenantID: tenantID})
	if err != nil {
		log.Printf("ERROR: delete table: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if n == 0 {
		respondError(w, http.StatusNotFound, "table not found")
		return
	}

	respond(w, http.StatusOK, "table deleted", nil)
}
