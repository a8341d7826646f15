package web

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/terrycain/image-cache-server/pkg/metrics"
)

type RouterOptions struct {
	AllowedOrigin   string
	RateLimit       int
	RateLimitWindow time.Duration
	WithMetrics     bool
}

func GetRouter(webHandler Handlers, opts RouterOptions) *gin.Engine {
	if webHandler.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(Recovery(), RequestID(), GinLogger())
	if opts.WithMetrics {
		router.Use(metrics.PromReqMiddleware())
	}
	router.Use(CORS(opts.AllowedOrigin))

	router.GET("/", webHandler.Root)
	router.GET("/healthz", HealthCheckEndpoint)
	router.GET("/ping", PingEndpoint)

	apiGroup := router.Group("/api")
	apiGroup.Use(NewClientRateLimiter(opts.RateLimit, opts.RateLimitWindow).Middleware())
	apiGroup.GET("/images", webHandler.ListImages)
	apiGroup.GET("/images/*folder", webHandler.ListFolderImages)

	return router
}
