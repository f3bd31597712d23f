package api

import (
	"context"
	"net/http"
	"time"

	"retail_sales/internal/sales"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures InitRoutes.
type Options struct {
	// Prefix is the mount point of the sales API, e.g. "/api/sales".
	Prefix string
	Logger *zap.Logger
	// DB backs /health. When nil, /health always reports ok.
	DB Pinger
}

// InitRoutes registers the sales endpoints under opts.Prefix together with
// the process-level /ping and /health endpoints.
func InitRoutes(e *gin.Engine, salesService *sales.Service, opts Options) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	e.Use(requestID(), requestLogger(logger), gin.Recovery())

	salesHandler := NewSalesHandler(salesService, logger)

	group := e.Group(opts.Prefix)
	group.GET("", salesHandler.handleList)
	group.POST("", salesHandler.handleCreate)
	group.GET("/analytics/summary", salesHandler.handleSummary)
	group.GET("/analytics/top-products", salesHandler.handleTopProducts)
	group.GET("/:invoiceNo/:stockCode", salesHandler.handleGet)
	group.PUT("/:invoiceNo/:stockCode", salesHandler.handleUpdate)
	group.DELETE("/:invoiceNo/:stockCode", salesHandler.handleDelete)

	e.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	e.GET("/health", func(c *gin.Context) {
		if opts.DB != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := opts.DB.Ping(ctx); err != nil {
				logger.Error("health check failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
