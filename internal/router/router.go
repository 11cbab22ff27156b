package router

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quanan-pos/api/internal/auth"
	"github.com/quanan-pos/api/internal/config"
	"github.com/quanan-pos/api/internal/database"
	"github.com/quanan-pos/api/internal/enum"
	"github.com/quanan-pos/api/internal/handler"
	mw "github.com/quanan-pos/api/internal/middleware"
	"github.com/quanan-pos/api/internal/service"
	"github.com/quanan-pos/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
// Applies authentication, tenant resolution, and role-based middleware as
// needed.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "https://*.quanan.app"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// The order service owns all order/stock/table mutations; handlers go
	// through it rather than the store directly.
	newOrderStore := func(db database.DBTX) service.OrderStore {
		return database.New(db)
	}
	orderService := service.NewOrderService(pool, newOrderStore)
	reportService := service.NewReportService(queries)

	// Employee claims resolve to their owner's tenant in every flow,
	// including WebSocket subscriptions.
	resolveTenant := func(ctx context.Context, claims *auth.Claims) (uuid.UUID, error) {
		if claims.Role == enum.UserRoleOwner {
			return claims.UserID, nil
		}
		return queries.GetOwnerForEmployee(ctx, claims.UserID)
	}

	// Public routes
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	qrHandler := handler.NewQRHandler(queries, orderService, hub)
	qrHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, resolveTenant, w, r)
	})

	// Protected routes (require authentication and a resolved tenant)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))
		r.Use(mw.ResolveTenant(queries))

		authHandler.RegisterProtectedRoutes(r)

		orderHandler := handler.NewOrderHandler(orderService)
		r.Route("/orders", orderHandler.RegisterRoutes)

		categoryHandler := handler.NewCategoryHandler(queries)
		r.Route("/categories", categoryHandler.RegisterRoutes)

		productHandler := handler.NewProductHandler(
			queries,
			pool,
			func(db database.DBTX) handler.ProductStore {
				return database.New(db)
			},
		)
		r.Route("/products", productHandler.RegisterRoutes)

		ingredientHandler := handler.NewIngredientHandler(queries)
		r.Route("/ingredients", ingredientHandler.RegisterRoutes)

		customerHandler := handler.NewCustomerHandler(queries)
		r.Route("/customers", customerHandler.RegisterRoutes)

		supplierHandler := handler.NewSupplierHandler(queries)
		r.Route("/suppliers", supplierHandler.RegisterRoutes)

		areaHandler := handler.NewAreaHandler(queries)
		r.Route("/areas", areaHandler.RegisterRoutes)

		tableHandler := handler.NewTableHandler(queries)
		r.Route("/tables", tableHandler.RegisterRoutes)

		// Owner-only routes
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.UserRoleOwner))

			employeeHandler := handler.NewEmployeeHandler(queries)
			r.Route("/employees", employeeHandler.RegisterRoutes)

			reportHandler := handler.NewReportHandler(reportService)
			r.Route("/reports", reportHandler.RegisterRoutes)
		})
	})

	return r
}
