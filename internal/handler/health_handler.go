package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/suteetoe/tenantguard/prometheus"
)

// HealthCheck handles the health check endpoint
func HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "healthy",
		"service": "tenantguard",
	})
}

// MetricsHandler exposes the prometheus registry.
var MetricsHandler = echo.WrapHandler(prometheus.GetPrometheusHandler())
