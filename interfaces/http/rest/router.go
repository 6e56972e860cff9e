package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"flowbuilder/application/commands/bus"
	querybus "flowbuilder/application/queries/bus"
	"flowbuilder/interfaces/http/rest/handlers"
	"flowbuilder/interfaces/http/rest/middleware"
	"flowbuilder/pkg/common"
	pkgerrors "flowbuilder/pkg/errors"
)

// Options configures the optional parts of the router
type Options struct {
	// Auth guards /api/v1 when set
	Auth func(http.Handler) http.Handler
	// RateLimit guards /api/v1 when set
	RateLimit func(http.Handler) http.Handler
	// AllowedOrigins enables CORS when non-empty
	AllowedOrigins []string
	// WebSocket serves GET /api/v1/ws when set
	WebSocket http.Handler
	// Ready reports whether dependencies are reachable
	Ready func(ctx context.Context) error
	Debug bool
}

// Router creates and configures the HTTP router
type Router struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	errors     *pkgerrors.ErrorHandler
	opts       Options
	logger     *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	opts Options,
	logger *zap.Logger,
) *Router {
	return &Router{
		commandBus: commandBus,
		queryBus:   queryBus,
		errors:     pkgerrors.NewErrorHandler(logger, opts.Debug),
		opts:       opts,
		logger:     logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(rt.errors.Middleware)
	router.Use(middleware.Logger(rt.logger))

	if len(rt.opts.AllowedOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   rt.opts.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rt.errors.Handle(w, r, pkgerrors.NewNotFoundError("route"))
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = common.RespondJSON(w, http.StatusMethodNotAllowed, pkgerrors.ErrorResponse{
			Error:   true,
			Type:    string(pkgerrors.ErrorTypeValidation),
			Message: "Method not allowed",
		})
	})

	router.Route("/api/v1", func(r chi.Router) {
		if rt.opts.RateLimit != nil {
			r.Use(rt.opts.RateLimit)
		}
		if rt.opts.Auth != nil {
			r.Use(rt.opts.Auth)
		}

		flowHandler := handlers.NewFlowHandler(rt.commandBus, rt.queryBus, rt.errors, rt.logger)
		r.Route("/flow", func(r chi.Router) {
			r.Get("/", flowHandler.GetFlow)
			r.Post("/save", flowHandler.Save)
			r.Get("/validation", flowHandler.Validate)
			r.Get("/snapshot", flowHandler.GetSnapshot)
			r.Put("/snapshot", flowHandler.Import)
			r.Post("/restore", flowHandler.Restore)
			r.Get("/changes", flowHandler.Changes)
			r.Get("/history", flowHandler.History)
		})
		r.Get("/notification", flowHandler.GetNotification)
		r.Delete("/notification", flowHandler.DismissNotification)

		nodeHandler := handlers.NewNodeHandler(rt.commandBus, rt.queryBus, rt.errors, rt.logger)
		r.Get("/kinds", nodeHandler.ListKinds)
		r.Route("/nodes", func(r chi.Router) {
			r.Post("/", nodeHandler.AddNode)
			r.Post("/drop", nodeHandler.DropNode)
			r.Get("/{nodeID}", nodeHandler.GetNode)
			r.Patch("/{nodeID}/data", nodeHandler.UpdateNodeData)
			r.Put("/{nodeID}/position", nodeHandler.MoveNode)
			r.Delete("/{nodeID}", nodeHandler.DeleteNode)
		})

		edgeHandler := handlers.NewEdgeHandler(rt.commandBus, rt.errors, rt.logger)
		r.Route("/edges", func(r chi.Router) {
			r.Post("/", edgeHandler.Connect)
			r.Delete("/{edgeID}", edgeHandler.DeleteEdge)
		})

		selectionHandler := handlers.NewSelectionHandler(rt.commandBus, rt.errors, rt.logger)
		r.Route("/selection", func(r chi.Router) {
			r.Put("/", selectionHandler.Select)
			r.Delete("/", selectionHandler.Clear)
			r.Patch("/text", selectionHandler.EditText)
		})

		if rt.opts.WebSocket != nil {
			r.Method(http.MethodGet, "/ws", rt.opts.WebSocket)
		}
	})

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	_ = common.RespondJSON(w, http.StatusOK, common.HealthResponse{Status: "healthy"})
}

func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	if rt.opts.Ready != nil {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		if err := rt.opts.Ready(ctx); err != nil {
			rt.logger.Warn("Readiness check failed", zap.Error(err))
			_ = common.RespondJSON(w, http.StatusServiceUnavailable, common.HealthResponse{Status: "unavailable", Error: err.Error()})
			return
		}
	}
	_ = common.RespondJSON(w, http.StatusOK, common.HealthResponse{Status: "ready"})
}
