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
	"github.com/quanan-pos/api/internal/service"
	"github.com/quanan-pos/api/internal/ws"
)

// QRStore defines the database methods needed by the QR ordering flow.
type QRStore interface {
	GetUserByAPIKey(ctx context.Context, apiKey string) (database.User, error)
	GetPendingSaleOrderForTable(ctx context.Context, arg database.CountPendingSaleOrdersForTableParams) (database.Order, error)
	ListProducts(ctx context.Context, arg database.ListProductsParams) ([]database.Product, error)
	CountProducts(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

// Broadcaster pushes order events to the store's connected staff.
// Satisfied by *ws.Hub.
type Broadcaster interface {
	BroadcastToTenant(tenantID uuid.UUID, event ws.Event)
}

// QRHandler handles the unauthenticated guest ordering flow. Guests reach it
// by scanning a table QR code that embeds the store's api_key; there is no
// JWT on these routes, the key alone picks the tenant.
type QRHandler struct {
	store QRStore
	svc   OrderServicer
	hub   Broadcaster
}

func NewQRHandler(store QRStore, svc OrderServicer, hub Broadcaster) *QRHandler {
	return &QRHandler{store: store, svc: svc, hub: hub}
}

func (h *QRHandler) RegisterRoutes(r chi.Router) {
	r.Get("/qr/{apiKey}/products", h.Products)
	r.Post("/qr/{apiKey}/orders", h.CreateOrder)
}

type qrOrderRequest struct {
	TableID string             `json:"table_id"`
	Note    string             `json:"note"`
	Lines   []orderLineRequest `json:"lines"`
}

// resolveTenant maps the api_key from the URL to a store.
func (h *QRHandler) resolveTenant(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	user, err := h.store.GetUserByAPIKey(r.Context(), chi.URLParam(r, "apiKey"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondError(w, http.StatusNotFound, "store not found")
			return uuid.Nil, false
		}
		log.Printf("ERROR: resolve api key: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return uuid.Nil, false
	}
	return user.ID, true
}

// Products serves the guest-facing menu.
func (h *QRHandler) Products(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.resolveTenant(w, r)
	if !ok {
		return
	}

	page := queryInt(r, "page", 1)
	size := queryInt(r, "size", 50)
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 50
	}

	products, err := h.store.ListProducts(r.Context(), database.ListProductsParams{
		TenantID: tenantID,
		Limit:    int32(size),
		Offset:   int32((page - 1) * size),
	})
	if err != nil {
		log.Printf("ERROR: list qr products: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	total, err := h.store.CountProducts(r.Context(), tenantID)
	if err != nil {
		log.Printf("ERROR: count qr products: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]productResponse, len(products))
	for i, p := range products {
		resp[i] = toProductResponse(p)
	}

	respondPage(w, "products", resp, total, page, size)
}

// CreateOrder places a guest order for a table. When the table already has a
// pending sale order, the new lines are merged into it instead of opening a
// second tab.
func (h *QRHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.resolveTenant(w, r)
	if !ok {
		return
	}

	var req qrOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TableID == "" {
		respondError(w, http.StatusBadRequest, service.ErrTableRequired.Error())
		return
	}

	tableID, err := uuid.Parse(req.TableID)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, service.ErrInvalidTableID.Error())
		return
	}
	lines, err := toLineRequests(req.Lines)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	existing, err := h.store.GetPendingSaleOrderForTable(r.Context(), database.CountPendingSaleOrdersForTableParams{
		TableID:  tableID,
		TenantID: tenantID,
	})
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		log.Printf("ERROR: find pending order for table: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	var order service.Order
	if err == nil {
		order, err = h.mergeIntoOrder(r.Context(), tenantID, existing.ID, lines)
	} else {
		order, err = h.svc.Create(r.Context(), tenantID, tenantID, service.CreateOrderInput{
			TableID: &tableID,
			Note:    req.Note,
			Lines:   lines,
		})
	}
	if err != nil {
		writeOrderError(w, "qr order", err)
		return
	}

	if h.hub != nil {
		if payload, err := json.Marshal(order); err == nil {
			h.hub.BroadcastToTenant(tenantID, ws.Event{Type: "order.placed", Payload: payload})
		}
	}

	respond(w, http.StatusCreated, "order placed", order)
}

// mergeIntoOrder appends the guest's lines to the table's open order. Lines
// for a product already on the order, with no toppings on either side, just
// bump the quantity.
func (h *QRHandler) mergeIntoOrder(ctx context.Context, tenantID, orderID uuid.UUID, lines []service.LineRequest) (service.Order, error) {
	current, err := h.svc.Get(ctx, tenantID, orderID)
	if err != nil {
		return service.Order{}, err
	}

	merged := make([]service.LineRequest, 0, len(current.Lines)+len(lines))
	byProduct := make(map[uuid.UUID]int)
	for _, view := range current.Lines {
		line := service.LineRequest{
			ProductID:    view.ProductID,
			IngredientID: view.IngredientID,
			Quantity:     view.Quantity,
			UnitPrice:    &view.UnitPrice,
			Discount:     view.Discount,
			DiscountKind: view.DiscountKind,
			Note:         view.Note,
		}
		for _, t := range view.Toppings {
			line.Toppings = append(line.Toppings, service.ToppingRequest{
				ProductID: t.ProductID,
				Quantity:  t.Quantity,
				UnitPrice: &t.UnitPrice,
			})
		}
		if view.ProductID != nil && len(view.Toppings) == 0 {
			byProduct[*view.ProductID] = len(merged)
		}
		merged = append(merged, line)
	}

	for _, line := range lines {
		if line.ProductID != nil && len(line.Toppings) == 0 {
			if i, ok := byProduct[*line.ProductID]; ok {
				merged[i].Quantity = merged[i].Quantity.Add(line.Quantity)
				continue
			}
		}
		merged = append(merged, line)
	}

	return h.svc.Update(ctx, tenantID, orderID, service.UpdateOrderInput{Lines: merged})
}
