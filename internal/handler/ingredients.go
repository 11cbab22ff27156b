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
	"github.com/shopspring/decimal"

	"github.com/quanan-pos/api/internal/database"
)

// IngredientStore defines the database methods needed by ingredient handlers.
type IngredientStore interface {
	CreateIngredient(ctx context.Context, arg database.CreateIngredientParams) (database.Ingredient, error)
	GetIngredient(ctx context.Context, arg database.GetIngredientParams) (database.Ingredient, error)
	ListIngredients(ctx context.Context, arg database.ListIngredientsParams) ([]database.Ingredient, error)
	CountIngredients(ctx context.Context, tenantID uuid.UUID) (int64, error)
	UpdateIngredient(ctx context.Context, arg database.UpdateIngredientParams) (database.Ingredient, error)
	DeleteIngredient(ctx context.Context, arg database.GetIngredientParams) (int64, error)
}

// IngredientHandler handles ingredient endpoints. Stock counters are set on
// create only; afterwards they move exclusively through order mutations.
type IngredientHandler struct {
	store IngredientStore
}

func NewIngredientHandler(store IngredientStore) *IngredientHandler {
	return &IngredientHandler{store: store}
}

func (h *IngredientHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

type ingredientRequest struct {
	Name       string          `json:"name"`
	BaseCost   decimal.Decimal `json:"base_cost"`
	RetailCost decimal.Decimal `json:"retail_cost"`
	Unit       string          `json:"unit"`
	Image      string          `json:"image"`
	Available  decimal.Decimal `json:"available"`
	InStock    decimal.Decimal `json:"in_stock"`
}

type ingredientResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	BaseCost   string    `json:"base_cost"`
	RetailCost string    `json:"retail_cost"`
	Unit       string    `json:"unit,omitempty"`
	Image      string    `json:"image,omitempty"`
	Available  string    `json:"available"`
	InStock    string    `json:"in_stock"`
}

func toIngredientResponse(i database.Ingredient) ingredientResponse {
	return ingredientResponse{
		ID:         i.ID,
		Name:       i.Name,
		BaseCost:   numericToString(i.BaseCost),
		RetailCost: numericToString(i.RetailCost),
		Unit:       i.Unit.String,
		Image:      i.Image.String,
		Available:  numericToString(i.Available),
		InStock:    numericToString(i.InStock),
	}
}

func (h *IngredientHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	var req ingredientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		respondValidation(w, map[string]string{"name": "name is required"})
		return
	}

	ingredient, err := h.store.CreateIngredient(r.Context(), database.CreateIngredientParams{
		TenantID:   tenantID,
		Name:       req.Name,
		BaseCost:   decimalToNumeric(req.BaseCost),
		RetailCost: decimalToNumeric(req.RetailCost),
		Unit:       optionalText(req.Unit),
		Image:      optionalText(req.Image),
		Available:  decimalToNumeric(req.Available),
		InStock:    decimalToNumeric(req.InStock),
	})
	if err != nil {
		log.Printf("ERROR: create ingredient: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusCreated, "ingredient created", toIngredientResponse(ingredient))
}

func (h *IngredientHandler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	page := queryInt(r, "page", 1)
	size := queryInt(r, "size", 20)
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}

	ingredients, err := h.store.ListIngredients(r.Context(), database.ListIngredientsParams{
		TenantID: tenantID,
		Limit:    int32(size),
		Offset:   int32((page - 1) * size),
	})
	if err != nil {
		log.Printf("ERROR: list ingredients: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	total, err := h.store.CountIngredients(r.Context(), tenantID)
	if err != nil {
		log.Printf("ERROR: count ingredients: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]ingredientResponse, len(ingredients))
	for i, ing := range ingredients {
		resp[i] = toIngredientResponse(ing)
	}

	respondPage(w, "ingredients", resp, total, page, size)
}

func (h *IngredientHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid ingredient id")
		return
	}

	ingredient, err := h.store.GetIngredient(r.Context(), database.GetIngredientParams{ID: id, TenantID: tenantID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondError(w, http.StatusNotFound, "ingredient not found")
			return
		}
		log.Printf("ERROR: get ingredient: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusOK, "ingredient", toIngredientResponse(ingredient))
}

// Update edits descriptive fields only. The available and in_stock counters
// are deliberately untouchable here; purchase and sale orders own them.
func (h *IngredientHandler) Update(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid ingredient id")
		return
	}

	var req ingredientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		respondValidation(w, map[string]string{"name": "name is required"})
		return
	}

	ingredient, err := h.store.UpdateIngredient(r.Context(), database.UpdateIngredientParams{
		ID:         id,
		TenantID:   tenantID,
		Name:       req.Name,
		BaseCost:   decimalToNumeric(req.BaseCost),
		RetailCost: decimalToNumeric(req.RetailCost),
		Unit:       optionalText(req.Unit),
		Image:      optionalText(req.Image),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondError(w, http.StatusNotFound, "ingredient not found")
			return
		}
		log.Printf("ERROR: update ingredient: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusOK, "ingredient updated", toIngredientResponse(ingredient))
}

func (h *IngredientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid ingredient id")
		return
	}

	n, err := h.store.DeleteIngredient(r.Context(), database.GetIngredientParams{ID: id, TenantID: tenantID})
	if err != nil {
		log.Printf("ERROR: delete ingredient: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if n == 0 {
		respondError(w, http.StatusNotFound, "ingredient not found")
		return
	}

	respond(w, http.StatusOK, "ingredient deleted", nil)
}
