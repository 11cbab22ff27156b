//go:build integration

package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/quanan-pos/api/internal/config"
	"github.com/quanan-pos/api/internal/database"
	"github.com/quanan-pos/api/internal/enum"
	"github.com/quanan-pos/api/internal/router"
	"github.com/quanan-pos/api/internal/service"
	"github.com/quanan-pos/api/internal/ws"
)

// TestIntegrationOrderFlow runs the full stack against a real PostgreSQL
// database: register, build a catalog with a recipe, take an order, complete
// it, and watch the ingredient counters move at each step.
func TestIntegrationOrderFlow(t *testing.T) {
	ctx := context.Background()

	connStr, cleanup := startPostgres(t, ctx)
	defer cleanup()

	if err := database.Migrate(connStr); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	defer pool.Close()

	cfg := &config.Config{
		Port:        "8081",
		DatabaseURL: connStr,
		JWTSecret:   "integration-test-secret",
	}
	queries := database.New(pool)
	hub := ws.NewHub()
	// NOTE: hub.Run() goroutine leaks on test exit — Hub has no shutdown
	// mechanism. Acceptable for tests.
	go hub.Run()

	r := router.New(cfg, queries, pool, hub)
	server := httptest.NewServer(r)
	defer server.Close()

	// --- 1. Register an owner and grab a token ---
	status, env := doJSON(t, server, http.MethodPost, "/auth/register", "", map[string]any{
		"name":     "Owner",
		"email":    "owner@test.com",
		"password": "password123",
	})
	if status != http.StatusCreated {
		t.Fatalf("register: got %d, want 201 (%s)", status, env.Message)
	}
	var auth struct {
		AccessToken string `json:"access_token"`
	}
	mustUnmarshal(t, env.Data, &auth)
	token := auth.AccessToken

	// --- 2. Create an ingredient with 10 on hand ---
	status, env = doJSON(t, server, http.MethodPost, "/ingredients", token, map[string]any{
		"name":      "Flour",
		"available": 10,
		"in_stock":  10,
	})
	if status != http.StatusCreated {
		t.Fatalf("create ingredient: got %d, want 201 (%s)", status, env.Message)
	}
	ingredientID := dataID(t, env.Data)

	// --- 3. Create a product and its recipe: 0.5 flour per unit ---
	status, env = doJSON(t, server, http.MethodPost, "/products", token, map[string]any{
		"name":         "Pizza",
		"retail_price": 10,
	})
	if status != http.StatusCreated {
		t.Fatalf("create product: got %d, want 201 (%s)", status, env.Message)
	}
	productID := dataID(t, env.Data)

	status, env = doJSON(t, server, http.MethodPut, "/products/"+productID.String()+"/recipe", token, map[string]any{
		"items": []map[string]any{{"ingredient_id": ingredientID.String(), "quantity": 0.5}},
	})
	if status != http.StatusOK {
		t.Fatalf("set recipe: got %d, want 200 (%s)", status, env.Message)
	}

	// --- 4. Take a pending sale order for two pizzas ---
	status, env = doJSON(t, server, http.MethodPost, "/orders", token, map[string]any{
		"lines": []map[string]any{{"product_id": productID.String(), "quantity": 2}},
	})
	if status != http.StatusCreated {
		t.Fatalf("create order: got %d, want 201 (%s)", status, env.Message)
	}
	var order struct {
		ID          uuid.UUID       `json:"id"`
		Status      string          `json:"status"`
		TotalAmount decimal.Decimal `json:"total_amount"`
	}
	mustUnmarshal(t, env.Data, &order)
	if order.Status != enum.OrderStatusPending {
		t.Fatalf("order status = %s, want PENDING", order.Status)
	}
	// Price backfilled from the catalog: 2 x 10.
	if !order.TotalAmount.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("total = %s, want 20", order.TotalAmount)
	}

	// Pending order reserves availability only: 10 - 2*0.5 = 9.
	requireCountersVia(t, server, token, ingredientID, "9.00", "10.00")

	// --- 5. Complete the order with a payment ---
	status, env = doJSON(t, server, http.MethodPut, "/orders/"+order.ID.String(), token, map[string]any{
		"status":   enum.OrderStatusCompleted,
		"payments": []map[string]any{{"method": enum.PaymentMethodCash, "amount": 20}},
	})
	if status != http.StatusOK {
		t.Fatalf("complete order: got %d, want 200 (%s)", status, env.Message)
	}

	// Completion moves the shelf counter too.
	requireCountersVia(t, server, token, ingredientID, "9.00", "9.00")
}

// TestConcurrentIngredientDeltas checks that simultaneous counter increments
// do not lose updates: eight concurrent +5 deltas must land as +40.
func TestConcurrentIngredientDeltas(t *testing.T) {
	ctx := context.Background()

	connStr, cleanup := startPostgres(t, ctx)
	defer cleanup()

	if err := database.Migrate(connStr); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	defer pool.Close()
	queries := database.New(pool)

	tenantID := seedOwner(t, ctx, queries)
	ingredientID := seedIngredient(t, ctx, queries, tenantID, "0")

	const workers = 8
	delta := numeric(t, "5")
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := queries.ApplyIngredientDelta(ctx, database.ApplyIngredientDeltaParams{
				ID:        ingredientID,
				TenantID:  tenantID,
				Available: delta,
				InStock:   delta,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("apply delta: %v", err)
		}
	}

	available, inStock := readCounters(t, ctx, pool, ingredientID)
	if available != "40.000" || inStock != "40.000" {
		t.Fatalf("counters = %s/%s, want 40.000/40.000", available, inStock)
	}
}

// TestOrderCreateRollsBackStockOnFailure forces the order insert to fail
// after the stock deltas were applied inside the transaction; the rollback
// must leave the counters untouched.
func TestOrderCreateRollsBackStockOnFailure(t *testing.T) {
	ctx := context.Background()

	connStr, cleanup := startPostgres(t, ctx)
	defer cleanup()

	if err := database.Migrate(connStr); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	defer pool.Close()
	queries := database.New(pool)

	tenantID := seedOwner(t, ctx, queries)
	ingredientID := seedIngredient(t, ctx, queries, tenantID, "10")

	product, err := queries.CreateProduct(ctx, database.CreateProductParams{
		TenantID:    tenantID,
		Name:        "Pizza",
		RetailPrice: numeric(t, "10"),
		BaseCost:    numeric(t, "0"),
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	if err := queries.SetRecipeItem(ctx, database.SetRecipeItemParams{
		ProductID:    product.ID,
		IngredientID: ingredientID,
		Quantity:     numeric(t, "1"),
	}); err != nil {
		t.Fatalf("set recipe item: %v", err)
	}

	svc := service.NewOrderService(pool, func(db database.DBTX) service.OrderStore {
		return database.New(db)
	})

	// created_by references a user that does not exist, so the insert
	// violates its foreign key after the deltas already ran.
	_, err = svc.Create(ctx, tenantID, uuid.New(), service.CreateOrderInput{
		Lines: []service.LineRequest{{ProductID: &product.ID, Quantity: decimal.NewFromInt(2)}},
	})
	if err == nil {
		t.Fatal("expected create to fail on the created_by foreign key")
	}

	available, inStock := readCounters(t, ctx, pool, ingredientID)
	if available != "10.000" || inStock != "10.000" {
		t.Fatalf("stock leaked out of the rolled-back transaction: %s/%s, want 10.000/10.000", available, inStock)
	}
}

// --- Helpers ---

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("pos_test"),
		tcpostgres.WithUsername("pos"),
		tcpostgres.WithPassword("pos"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("get connection string: %v", err)
	}

	cleanup := func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	}
	return connStr, cleanup
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, server *httptest.Server, method, path, token string, body any) (int, envelope) {
	t.Helper()

	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req, err := http.NewRequest(method, server.URL+path, bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := server.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode %s %s response: %v", method, path, err)
	}
	return resp.StatusCode, env
}

func mustUnmarshal(t *testing.T, raw json.RawMessage, v any) {
	t.Helper()
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
}

func dataID(t *testing.T, raw json.RawMessage) uuid.UUID {
	t.Helper()
	var v struct {
		ID uuid.UUID `json:"id"`
	}
	mustUnmarshal(t, raw, &v)
	return v.ID
}

func requireCountersVia(t *testing.T, server *httptest.Server, token string, ingredientID uuid.UUID, available, inStock string) {
	t.Helper()

	status, env := doJSON(t, server, http.MethodGet, "/ingredients/"+ingredientID.String(), token, nil)
	if status != http.StatusOK {
		t.Fatalf("get ingredient: got %d, want 200 (%s)", status, env.Message)
	}
	var ing struct {
		Available string `json:"available"`
		InStock   string `json:"in_stock"`
	}
	mustUnmarshal(t, env.Data, &ing)
	if ing.Available != available || ing.InStock != inStock {
		t.Fatalf("counters = %s/%s, want %s/%s", ing.Available, ing.InStock, available, inStock)
	}
}

func seedOwner(t *testing.T, ctx context.Context, q *database.Queries) uuid.UUID {
	t.Helper()

	user, err := q.CreateUser(ctx, database.CreateUserParams{
		Email:        "owner@test.com",
		PasswordHash: "unused",
		Name:         "Owner",
		APIKey:       uuid.NewString(),
		Role:         enum.UserRoleOwner,
	})
	if err != nil {
		t.Fatalf("seed owner: %v", err)
	}
	return user.ID
}

func seedIngredient(t *testing.T, ctx context.Context, q *database.Queries, tenantID uuid.UUID, onHand string) uuid.UUID {
	t.Helper()

	ing, err := q.CreateIngredient(ctx, database.CreateIngredientParams{
		TenantID:   tenantID,
		Name:       "Flour",
		BaseCost:   numeric(t, "0"),
		RetailCost: numeric(t, "0"),
		Available:  numeric(t, onHand),
		InStock:    numeric(t, onHand),
	})
	if err != nil {
		t.Fatalf("seed ingredient: %v", err)
	}
	return ing.ID
}

func numeric(t *testing.T, s string) pgtype.Numeric {
	t.Helper()

	var n pgtype.Numeric
	if err := n.Scan(s); err != nil {
		t.Fatalf("numeric %q: %v", s, err)
	}
	return n
}

func readCounters(t *testing.T, ctx context.Context, pool *pgxpool.Pool, ingredientID uuid.UUID) (string, string) {
	t.Helper()

	var available, inStock string
	err := pool.QueryRow(ctx,
		`SELECT available::text, in_stock::text FROM ingredients WHERE id = $1`,
		ingredientID,
	).Scan(&available, &inStock)
	if err != nil {
		t.Fatalf("read counters: %v", err)
	}
	return available, inStock
}
