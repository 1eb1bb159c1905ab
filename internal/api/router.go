// Package api exposes the HTTP surface: the inbound-SMS webhook, read-only
// warning and audit endpoints, liveness and metrics.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

func NewRouter(store Store, inbound InboundHandler, gatherer prometheus.Gatherer, logger *logrus.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLoggingMiddleware(logger))

	h := NewHandler(store, inbound, logger)
	api := r.Group("/api/v0")
	{
		api.POST("/receive-sms", h.ReceiveSMS)
		api.GET("/warnings", h.ListWarnings)
		api.GET("/warnings/active", h.ListActiveWarnings)
		api.GET("/sms-logs", h.ListInboundLogs)
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	return r
}
