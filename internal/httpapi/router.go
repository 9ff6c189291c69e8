package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"

	"blocknotes/internal/boundary"
	"blocknotes/internal/logger"
)

type RouterConfig struct {
	Log             *logger.Logger
	DocumentHandler *DocumentHandler
	Boundary        *boundary.Boundary
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(requestLogger(cfg.Log), gin.Recovery())

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", HealthCheck)
	router.GET(cfg.Boundary.FailurePath(), FailurePage)

	// ===============
	// || Guarded   ||
	// ===============
	api := router.Group("/api")
	api.Use(cfg.Boundary.Middleware())
	// Documents
	api.GET("/documents", cfg.DocumentHandler.ListDocuments)
	api.POST("/documents", cfg.DocumentHandler.CreateDocument)
	api.POST("/documents/import", cfg.DocumentHandler.ImportDocument)
	api.GET("/documents/:id", cfg.DocumentHandler.GetDocument)
	api.PATCH("/documents/:id", cfg.DocumentHandler.RenameDocument)
	api.DELETE("/documents/:id", cfg.DocumentHandler.DeleteDocument)
	api.GET("/documents/:id/export", cfg.DocumentHandler.ExportDocument)
	// Blocks
	api.POST("/documents/:id/blocks", cfg.DocumentHandler.AddBlock)
	api.PATCH("/documents/:id/blocks/:blockId", cfg.DocumentHandler.UpdateBlock)
	api.DELETE("/documents/:id/blocks/:blockId", cfg.DocumentHandler.DeleteBlock)
	api.POST("/documents/:id/blocks/:blockId/convert", cfg.DocumentHandler.ConvertBlock)

	return router
}

func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		kv := []interface{}{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		}
		if errs := c.Errors.String(); errs != "" {
			log.Error("request failed", append(kv, "errors", errs)...)
			return
		}
		log.Debug("request", kv...)
	}
}
