package api

import (
	"net/http"
	"strings"

	"orderdesk/internal/application"
	"orderdesk/internal/infrastructure/metrics"
	"orderdesk/internal/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Handler bundles the HTTP surface's dependencies.
type Handler struct {
	storeService *application.StoreService
	orderService *application.OrderService
	oauthService *application.OAuthService
	dispatcher   *application.WebhookDispatcher
	stores       ports.StoreRepository
	encryption   ports.EncryptionService
	authProvider ports.AuthProvider
	metrics      *metrics.Metrics
	logger       zerolog.Logger
	dashboardURL string
}

// NewHandler creates the HTTP handler bundle. dashboardURL prefixes the
// post-OAuth redirect; empty means same-origin relative redirects.
func NewHandler(
	storeService *application.StoreService,
	orderService *application.OrderService,
	oauthService *application.OAuthService,
	dispatcher *application.WebhookDispatcher,
	stores ports.StoreRepository,
	enc ports.EncryptionService,
	authProvider ports.AuthProvider,
	m *metrics.Metrics,
	logger zerolog.Logger,
	dashboardURL string,
) *Handler {
	return &Handler{
		storeService: storeService,
		orderService: orderService,
		oauthService: oauthService,
		dispatcher:   dispatcher,
		stores:       stores,
		encryption:   enc,
		authProvider: authProvider,
		metrics:      m,
		logger:       logger.With().Str("component", "api").Logger(),
		dashboardURL: strings.TrimRight(dashboardURL, "/"),
	}
}

// Router builds the chi router with the full route table.
func (h *Handler) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	// Public routes.
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		http.ServeFile(w, r, "./docs/swagger.json")
	})

	// Shopify-facing routes. The callback resolves its session itself; the
	// webhook endpoint authenticates by signature, not session.
	r.Get("/api/shopify/callback", h.handleOAuthCallback)
	r.Post("/api/webhooks/shopify", h.handleWebhook)

	// Dashboard API, session-scoped.
	r.Group(func(r chi.Router) {
		r.Use(requireUser(h.authProvider, h.logger))

		r.Route("/api/stores", func(r chi.Router) {
			r.Get("/", h.handleListStores)
			r.Post("/", h.handleCreateStore)
			r.Route("/{storeID}", func(r chi.Router) {
				r.Get("/", h.handleGetStore)
				r.Patch("/", h.handleUpdateStore)
				r.Delete("/", h.handleDeleteStore)
				r.Get("/connect", h.handleConnectStore)
				r.Post("/disconnect", h.handleDisconnectStore)
				r.Post("/sync", h.handleSyncStore)
				r.Get("/orders", h.handleListStoreOrders)
			})
		})

		r.Route("/api/orders", func(r chi.Router) {
			r.Get("/", h.handleListOrders)
			r.Route("/{orderID}", func(r chi.Router) {
				r.Get("/", h.handleGetOrder)
				r.Patch("/shipping", h.handleUpdateOrderShipping)
			})
		})

		r.Get("/api/dashboard/stats", h.handleDashboardStats)
	})

	return r
}
