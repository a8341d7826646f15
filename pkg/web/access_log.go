package web

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// GinLogger writes one access log line per request, skipping health checks and metrics scrapes.
func GinLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		t := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if path == "/healthz" || path == "/metrics" {
			return
		}

		latency := time.Since(t)
		clientIP := c.ClientIP()
		if raw != "" {
			path = path + "?" + raw
		}
		msg := c.Errors.String()
		if msg == "" {
			msg = "Request"
		}

		statusCode := c.Writer.Status()
		event := log.Info()
		switch {
		case statusCode >= 400 && statusCode < 500:
			event = log.Warn()
		case statusCode >= 500:
			event = log.Error()
		}

		event.Str("logger", "access").Str("request_id", c.GetString("request_id")).
			Str("method", c.Request.Method).Str("path", path).Dur("resp_time", latency).
			Int("status", statusCode).Int("size", c.Writer.Size()).
			Str("client_ip", clientIP).Str("user_agent", c.Request.UserAgent()).Msg(msg)
	}
}
