// Package rest wires the HTTP surface of the contribution service.
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/kryoon/backend/infrastructure/config"
	"github.com/kryoon/backend/interfaces/http/rest/handlers"
	"github.com/kryoon/backend/interfaces/http/rest/middleware"
	ws "github.com/kryoon/backend/interfaces/websocket"
	"github.com/kryoon/backend/pkg/auth"
	"github.com/kryoon/backend/pkg/common"
)

// Router creates and configures the HTTP router
type Router struct {
	cfg         *config.Config
	treeHandler *handlers.TreeHandler
	contribs    *handlers.ContributionHandler
	wsHandler   *ws.Handler
	validator   *auth.JWTValidator
	logger      *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	cfg *config.Config,
	treeHandler *handlers.TreeHandler,
	contribs *handlers.ContributionHandler,
	wsHandler *ws.Handler,
	validator *auth.JWTValidator,
	logger *zap.Logger,
) *Router {
	return &Router{
		cfg:         cfg,
		treeHandler: treeHandler,
		contribs:    contribs,
		wsHandler:   wsHandler,
		validator:   validator,
		logger:      logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000", "https://*.kryoon.app"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	ipLimiter := auth.NewIPRateLimiter(rt.cfg.RequestsPerMinute)
	userLimiter := auth.NewUserRateLimiter(rt.cfg.RequestsPerMinute * 2)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(rt.validator, ipLimiter, userLimiter, rt.logger))

		r.Route("/contribute/{ownerUserID}/{postID}", func(r chi.Router) {
			r.Get("/", rt.treeHandler.GetTree)
			r.Get("/focus/{focusNodeID}", rt.treeHandler.GetTree)
			r.Post("/", rt.contribs.Submit)
			r.Post("/likes", rt.contribs.ToggleLike)
			r.Get("/ws", rt.wsHandler.Serve)

			r.Route("/nodes/{nodeID}", func(r chi.Router) {
				r.Post("/votes", rt.contribs.ToggleVote)
				r.Post("/comments", rt.contribs.AddComment)
				r.Get("/share-link", rt.treeHandler.GetShareLink)
			})
		})
	})

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (rt *Router) readinessCheck(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
