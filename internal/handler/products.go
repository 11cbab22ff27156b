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
	"github.com/shopspring/decimal"

	"github.com/quanan-pos/api/internal/database"
	"github.com/quanan-pos/api/internal/service"
)

// ProductStore defines the database methods needed by product handlers.
type ProductStore interface {
	CreateProduct(ctx context.Context, arg database.CreateProductParams) (database.Product, error)
	GetProduct(ctx context.Context, arg database.TenantScopedIDParams) (database.Product, error)
	ListProducts(ctx context.Context, arg database.ListProductsParams) ([]database.Product, error)
	CountProducts(ctx context.Context, tenantID uuid.UUID) (int64, error)
	UpdateProduct(ctx context.Context, arg database.UpdateProductParams) (database.Product, error)
	DeleteProduct(ctx context.Context, arg database.TenantScopedIDParams) (int64, error)

	GetRecipe(ctx context.Context, arg database.GetRecipeParams) ([]database.GetRecipeRow, error)
	SetRecipeItem(ctx context.Context, arg database.SetRecipeItemParams) error
	ClearRecipe(ctx context.Context, productID uuid.UUID) error
}

// ProductHandler handles product and recipe endpoints. Recipe replacement
// runs in a transaction, so it needs the pool and a store factory besides
// the plain store.
type ProductHandler struct {
	store    ProductStore
	db       service.DB
	newStore func(db database.DBTX) ProductStore
}

func NewProductHandler(store ProductStore, db service.DB, newStore func(db database.DBTX) ProductStore) *ProductHandler {
	return &ProductHandler{store: store, db: db, newStore: newStore}
}

func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Put("/{id}/recipe", h.SetRecipe)
	r.Get("/{id}/recipe", h.GetRecipe)
}

// --- Request / Response types ---

type productRequest struct {
	Name        string          `json:"name"`
	RetailPrice decimal.Decimal `json:"retail_price"`
	BaseCost    decimal.Decimal `json:"base_cost"`
	Unit        string          `json:"unit"`
	Image       string          `json:"image"`
	CategoryID  string          `json:"category_id"`
}

type productResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	RetailPrice string    `json:"retail_price"`
	BaseCost    string    `json:"base_cost"`
	Unit        string    `json:"unit,omitempty"`
	Image       string    `json:"image,omitempty"`
	CategoryID  *string   `json:"category_id,omitempty"`
}

type recipeItemRequest struct {
	IngredientID string          `json:"ingredient_id"`
	Quantity     decimal.Decimal `json:"quantity"`
}

type setRecipeRequest struct {
	Items []recipeItemRequest `json:"items"`
}

type recipeItemResponse struct {
	IngredientID uuid.UUID `json:"ingredient_id"`
	Quantity     string    `json:"quantity"`
}

func toProductResponse(p database.Product) productResponse {
	resp := productResponse{
		ID:          p.ID,
		Name:        p.Name,
		RetailPrice: numericToString(p.RetailPrice),
		BaseCost:    numericToString(p.BaseCost),
		Unit:        p.Unit.String,
		Image:       p.Image.String,
	}
	if p.CategoryID.Valid {
		s := uuid.UUID(p.CategoryID.Bytes).String()
		resp.CategoryID = &s
	}
	return resp
}

// --- Handlers ---

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	arg, fields := h.buildParams(tenantID, req)
	if len(fields) > 0 {
		respondValidation(w, fields)
		return
	}

	product, err := h.store.CreateProduct(r.Context(), arg)
	if err != nil {
		log.Printf("ERROR: create product: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusCreated, "product created", toProductResponse(product))
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
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

	products, err := h.store.ListProducts(r.Context(), database.ListProductsParams{
		TenantID: tenantID,
		Limit:    int32(size),
		Offset:   int32((page - 1) * size),
	})
	if err != nil {
		log.Printf("ERROR: list products: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	total, err := h.store.CountProducts(r.Context(), tenantID)
	if err != nil {
		log.Printf("ERROR: count products: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]productResponse, len(products))
	for i, p := range products {
		resp[i] = toProductResponse(p)
	}

	respondPage(w, "products", resp, total, page, size)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid product id")
		return
	}

	product, err := h.store.GetProduct(r.Context(), database.TenantScopedIDParams{ID: id, TenantID: tenantID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondError(w, http.StatusNotFound, "product not found")
			return
		}
		log.Printf("ERROR: get product: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusOK, "product", toProductResponse(product))
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid product id")
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	arg, fields := h.buildParams(tenantID, req)
	if len(fields) > 0 {
		respondValidation(w, fields)
		return
	}

	product, err := h.store.UpdateProduct(r.Context(), database.UpdateProductParams{
		ID:          id,
		TenantID:    tenantID,
		Name:        arg.Name,
		RetailPrice: arg.RetailPrice,
		BaseCost:    arg.BaseCost,
		Unit:        arg.Unit,
		Image:       arg.Image,
		CategoryID:  arg.CategoryID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondError(w, http.StatusNotFound, "product not found")
			return
		}
		log.Printf("ERROR: update product: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusOK, "product updated", toProductResponse(product))
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid product id")
		return
	}

	n, err := h.store.DeleteProduct(r.Context(), database.TenantScopedIDParams{ID: id, TenantID: tenantID})
	if err != nil {
		log.Printf("ERROR: delete product: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if n == 0 {
		respondError(w, http.StatusNotFound, "product not found")
		return
	}

	respond(w, http.StatusOK, "product deleted", nil)
}

// SetRecipe replaces the product's recipe wholesale inside one transaction.
func (h *ProductHandler) SetRecipe(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid product id")
		return
	}

	var req setRecipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	items := make([]database.SetRecipeItemParams, len(req.Items))
	for i, item := range req.Items {
		ingredientID, err := uuid.Parse(item.IngredientID)
		if err != nil {
			respondError(w, http.StatusUnprocessableEntity, "invalid ingredient_id")
			return
		}
		if !item.Quantity.IsPositive() {
			respondError(w, http.StatusUnprocessableEntity, "quantity must be > 0")
			return
		}
		items[i] = database.SetRecipeItemParams{
			ProductID:    id,
			IngredientID: ingredientID,
			Quantity:     decimalToNumeric(item.Quantity),
		}
	}

	tx, err := h.db.Begin(r.Context())
	if err != nil {
		log.Printf("ERROR: begin recipe tx: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	defer tx.Rollback(r.Context())
	store := h.newStore(tx)

	if _, err := store.GetProduct(r.Context(), database.TenantScopedIDParams{ID: id, TenantID: tenantID}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondError(w, http.StatusNotFound, "product not found")
			return
		}
		log.Printf("ERROR: get product for recipe: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if err := store.ClearRecipe(r.Context(), id); err != nil {
		log.Printf("ERROR: clear recipe: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	for _, item := range items {
		if err := store.SetRecipeItem(r.Context(), item); err != nil {
			log.Printf("ERROR: set recipe item: %v", err)
			respondError(w, http.StatusInternalServerError, "internal server error")
			return
		}
	}

	if err := tx.Commit(r.Context()); err != nil {
		log.Printf("ERROR: commit recipe tx: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]recipeItemResponse, len(items))
	for i, item := range items {
		resp[i] = recipeItemResponse{
			IngredientID: item.IngredientID,
			Quantity:     numericToString(item.Quantity),
		}
	}
	respond(w, http.StatusOK, "recipe updated", resp)
}

func (h *ProductHandler) GetRecipe(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid product id")
		return
	}

	recipe, err := h.store.GetRecipe(r.Context(), database.GetRecipeParams{ProductID: id, TenantID: tenantID})
	if err != nil {
		log.Printf("ERROR: get recipe: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]recipeItemResponse, len(recipe))
	for i, row := range recipe {
		resp[i] = recipeItemResponse{
			IngredientID: row.IngredientID,
			Quantity:     numericToString(row.Quantity),
		}
	}
	respond(w, http.StatusOK, "recipe", resp)
}

// --- Helpers ---

func (h *ProductHandler) buildParams(tenantID uuid.UUID, req productRequest) (database.CreateProductParams, map[string]string) {
	fields := map[string]string{}
	if req.Name == "" {
		fields["name"] = "name is required"
	}
	if req.RetailPrice.IsNegative() {
		fields["retail_price"] = "retail_price must be >= 0"
	}

	arg := database.CreateProductParams{
		TenantID:    tenantID,
		Name:        req.Name,
		RetailPrice: decimalToNumeric(req.RetailPrice),
		BaseCost:    decimalToNumeric(req.BaseCost),
		Unit:        optionalText(req.Unit),
		Image:       optionalText(req.Image),
	}
	if req.CategoryID != "" {
		categoryID, err := uuid.Parse(req.CategoryID)
		if err != nil {
			fields["category_id"] = "invalid category_id"
		} else {
			arg.CategoryID = pgtype.UUID{Bytes: categoryID, Valid: true}
		}
	}
	return arg, fields
}

func numericToString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0.00"
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return "0.00"
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return "0.00"
	}
	return d.StringFixed(2)
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.String())
	return n
}
