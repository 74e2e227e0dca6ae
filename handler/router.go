package handler

import (
	"net/http"
	"time"

	"github.com/finextract/ocr-financial-extraction/logger"
	"github.com/finextract/ocr-financial-extraction/metrics"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// NewRouter wires the HTTP routes.
func NewRouter(extractHandler *ExtractHandler, log zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(log))

	// Configure max multipart memory (32 MB)
	router.MaxMultipartMemory = 32 << 20

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "Financial Document Extraction",
		})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := router.Group("/api/v1")
	{
		api.POST("/extract/:kind", extractHandler.Extract)
	}

	return router
}

// RequestLogger stores log in the request context and logs every request
// once it completes.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), log))

		c.Next()

		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Str("remote_addr", c.ClientIP()).
			Msg("HTTP request")
	}
}
