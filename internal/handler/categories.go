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

// CategoryStore defines the database methods needed by category handlers.
type CategoryStore interface {
	CreateCategory(ctx context.Context, arg database.CreateCategoryParams) (database.Category, error)
	GetCategory(ctx context.Context, arg database.TenantScopedIDParams) (database.Category, error)
	ListCategories(ctx context.Context, tenantID uuid.UUID) ([]database.Category, error)
	UpdateCategory(ctx context.Context, arg database.UpdateCategoryParams) (database.Category, error)
	DeleteCategory(ctx context.Context, arg database.TenantScopedIDParams) (int64, error)
}

// CategoryHandler handles menu category endpoints.
type CategoryHandler struct {
	store CategoryStore
}

func NewCategoryHandler(store CategoryStore) *CategoryHandler {
	return &CategoryHandler{store: store}
}

func (h *CategoryHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

type categoryRequest struct {
	Name string `json:"name"`
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		respondValidation(w, map[string]string{"name": "name is required"})
		return
	}

	category, err := h.store.CreateCategory(r.Context(), database.CreateCategoryParams{
		TenantID: tenantID,
		Name:     req.Name,
	})
	if err != nil {
		log.Printf("ERROR: create category: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusCreated, "category created", category)
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	categories, err := h.store.ListCategories(r.Context(), tenantID)
	if err != nil {
		log.Printf("ERROR: list categories: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusOK, "categories", categories)
}

func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid category id")
		return
	}

	category, err := h.store.GetCategory(r.Context(), database.TenantScopedIDParams{ID: id, TenantID: tenantID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondError(w, http.StatusNotFound, "category not found")
			return
		}
		log.Printf("ERROR: get category: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusOK, "category", category)
}

func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid category id")
		return
	}

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		respondValidation(w, map[string]string{"name": "name is required"})
		return
	}

	category, err := h.store.UpdateCategory(r.Context(), database.UpdateCategoryParams{
		ID:       id,
		TenantID: tenantID,
		Name:     req.Name,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondError(w, http.StatusNotFound, "category not found")
			return
		}
		log.Printf("ERROR: update category: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusOK, "category updated", category)
}

func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid category id")
		return
	}

	n, err := h.store.DeleteCategory(r.Context(), database.TenantScopedIDParams{ID: id, TenantID: tenantID})
	if err != nil {
		log.Printf("ERROR: delete category: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if n == 0 {
		respondError(w, http.StatusNotFound, "category not found")
		return
	}

	respond(w, http.StatusOK, "category deleted", nil)
}
