package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jafarshop/storefront/internal/api/handlers"
	"github.com/jafarshop/storefront/internal/api/middleware"
	"github.com/jafarshop/storefront/internal/catalog"
	"github.com/jafarshop/storefront/internal/config"
	"github.com/jafarshop/storefront/internal/metrics"
	"github.com/jafarshop/storefront/internal/ordersync"
	"github.com/jafarshop/storefront/internal/repository"
)

// Dependencies are the collaborators the router wires into handlers
type Dependencies struct {
	Backend repository.Backend
	// OrdersFor scopes order reads to the caller's Authorization header.
	// Nil means every caller reads through Backend.
	OrdersFor handlers.OrderReaderFor
	Notifier  ordersync.Notifier
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, deps Dependencies, logger *zap.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(customRecovery(logger))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(loggingMiddleware(logger))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "Storefront API",
			"endpoints": []string{
				"GET /health",
				"GET /metrics",
				"GET /v1/search",
				"GET /v1/products",
				"GET /v1/carts/:id/checkout-step",
				"GET /v1/orders/stream",
			},
		})
	})

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	ordersFor := deps.OrdersFor
	if ordersFor == nil {
		ordersFor = func(string) repository.OrderReader { return deps.Backend }
	}
	searcher := catalog.NewSearcher(deps.Backend, cfg.Storefront.SearchProductLimit, deps.Metrics, logger)
	stream := handlers.NewOrderStream(ordersFor, deps.Notifier, logger,
		ordersync.WithInterval(cfg.OrderSync.PollInterval),
		ordersync.WithFetchTimeout(cfg.OrderSync.FetchTimeout),
		ordersync.WithConcurrency(cfg.OrderSync.FetchConcurrency),
		ordersync.WithMetrics(deps.Metrics),
	)
	country := cfg.Storefront.DefaultCountryCode

	// API v1 routes
	v1 := router.Group("/v1")
	v1.Use(middleware.RegionMiddleware(cfg.Storefront.RegionCookieName, country, logger))
	{
		v1.GET("/search", handlers.HandleSearch(searcher, country, logger))
		v1.GET("/products", handlers.HandleListProducts(deps.Backend, cfg.Storefront.SearchProductLimit, country, logger))
		v1.GET("/carts/:id/checkout-step", handlers.HandleGetCheckoutStep(deps.Backend, logger))
		v1.GET("/orders/stream", stream.Handle)
	}

	return router
}

// customRecovery is a custom recovery middleware that logs panics
func customRecovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("Panic recovered",
			zap.Any("error", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.String("request_id", middleware.GetRequestID(c)),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"message": "internal server error",
		})
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.String("request_id", middleware.GetRequestID(c)),
		)
	}
}
