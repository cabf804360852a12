package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/walletwise/walletwise/internal/application/entitlement"
	"github.com/walletwise/walletwise/internal/interfaces/http/handlers"
	"github.com/walletwise/walletwise/internal/interfaces/http/middleware"
	"github.com/walletwise/walletwise/internal/shared/biztime"
	"github.com/walletwise/walletwise/internal/shared/logger"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RouterDeps groups what the HTTP adapter needs from the composition root.
type RouterDeps struct {
	Service        *entitlement.Service
	DB             Pinger
	MetricsHandler http.Handler
	Clock          biztime.Clock
	Logger         logger.Interface
}

// Router represents the HTTP router configuration
type Router struct {
	engine              *gin.Engine
	subscriptionHandler *handlers.SubscriptionHandler
	healthHandler       *handlers.HealthHandler
	identityMiddleware  *middleware.IdentityMiddleware
	metricsHandler      http.Handler
	logger              logger.Interface
}

func NewRouter(deps RouterDeps) *Router {
	return newRouter(deps.Service, deps.Service, deps)
}

func newRouter(lifecycle handlers.SubscriptionLifecycle, resolver handlers.EntitlementResolver, deps RouterDeps) *Router {
	return &Router{
		engine:              gin.New(),
		subscriptionHandler: handlers.NewSubscriptionHandler(lifecycle, resolver, deps.Clock, deps.Logger),
		healthHandler:       handlers.NewHealthHandler(deps.DB, deps.Logger),
		identityMiddleware:  middleware.NewIdentityMiddleware(deps.Logger),
		metricsHandler:      deps.MetricsHandler,
		logger:              deps.Logger,
	}
}

// SetupRoutes configures all HTTP routes
func (r *Router) SetupRoutes() {
	r.engine.Use(middleware.Recovery(r.logger))
	r.engine.Use(middleware.CustomLogger(r.logger))

	r.engine.GET("/health", r.healthHandler.HealthCheck)
	if r.metricsHandler != nil {
		r.engine.GET("/metrics", gin.WrapH(r.metricsHandler))
	}

	v1 := r.engine.Group("/api/v1")
	subscription := v1.Group("/subscription")
	subscription.Use(r.identityMiddleware.RequireUser())
	{
		subscription.GET("", r.subscriptionHandler.GetActiveSubscription)
		subscription.GET("/history", r.subscriptionHandler.ListHistory)
		subscription.GET("/entitlement", r.subscriptionHandler.GetEntitlement)
		subscription.POST("/trial", r.subscriptionHandler.StartTrial)
		subscription.POST("/cancel", r.subscriptionHandler.Cancel)
	}
}

// GetEngine returns the Gin engine
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
