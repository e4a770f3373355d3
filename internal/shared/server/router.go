package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"compliance-backend/internal/credentials"
	"compliance-backend/internal/documents"
	"compliance-backend/internal/fulfillment"
	"compliance-backend/internal/sessions"
	"compliance-backend/internal/shared/config"
	"compliance-backend/internal/shared/metrics"
	"compliance-backend/internal/shared/server/middleware"
	"compliance-backend/internal/shared/server/respond"
)

// RouterDeps carries the handlers the router mounts.
type RouterDeps struct {
	Config             config.Config
	DocumentsHandler   *documents.Handler
	QueueHandler       *fulfillment.Handler
	CredentialsHandler *credentials.Handler
	SessionsHandler    *sessions.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.Use(middleware.Auth(deps.Config.APIToken))
	api.Use(middleware.RateLimit(middleware.RateLimitConfig{
		DefaultGroup: "DEFAULT",
		GroupFor: func(c *gin.Context) string {
			if strings.HasSuffix(c.FullPath(), "/queue/stats") {
				return "STATS"
			}
			return ""
		},
		Rules: map[string]middleware.RateLimitRule{
			"DEFAULT": {Rate: 50, Burst: 100},
			"STATS":   {Rate: 5, Burst: 10},
		},
	}))

	deps.DocumentsHandler.RegisterRoutes(api)
	deps.QueueHandler.RegisterRoutes(api)
	deps.CredentialsHandler.RegisterRoutes(api)
	deps.SessionsHandler.RegisterRoutes(api)

	return r
}

// Addr returns a normalized listen address for the given port.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return fmt.Sprintf(":%s", port)
}
