package api

import (
	"log/slog"
	"net/http"
	"period-tracker/observability"

	"github.com/gin-gonic/gin"
)

const (
	Name    = "SimplePeriodTracker API"
	Version = "1.0.0"
)

// NewRouter builds the SimplePeriodTracker root application.
// Each call returns a fresh engine with its own metrics registry.
func NewRouter(log *slog.Logger) (http.Handler, error) {
	metrics := observability.NewMetrics()
	metrics.SetVersion(Version)

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(
		recovery(log),
		requestID(),
		accessLog(log),
		instrument(metrics),
		cors(),
	)

	router.GET("/", root)
	router.GET("/health", health)
	router.GET("/metrics", prometheusHandler(metrics.Handler()))
	router.NoRoute(notFound)
	router.NoMethod(methodNotAllowed)

	return router, nil
}

func root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": Name, "version": Version})
}

func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"detail": "Not Found"})
}

func methodNotAllowed(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, gin.H{"detail": "Method Not Allowed"})
}

func prometheusHandler(handler http.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		handler.ServeHTTP(c.Writer, c.Request)
	}
}
