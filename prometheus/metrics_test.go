package prometheus

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRateLimit(t *testing.T) {
	before := testutil.ToFloat64(RateLimitDecisionCounter.WithLabelValues("login", "rejected"))
	RecordRateLimit("login", false, time.Millisecond)
	after := testutil.ToFloat64(RateLimitDecisionCounter.WithLabelValues("login", "rejected"))
	assert.Equal(t, before+1, after)
}

func TestRecordAuthError(t *testing.T) {
	before := testutil.ToFloat64(AuthErrorCounter.WithLabelValues("invalid_password"))
	RecordAuthError("invalid_password")
	assert.Equal(t, before+1, testutil.ToFloat64(AuthErrorCounter.WithLabelValues("invalid_password")))
}

func TestMetricsMiddlewareCountsHTTPError(t *testing.T) {
	e := echo.New()
	e.Use(MetricsMiddleware())
	e.GET("/teapot", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot, "short and stout")
	})

	before := testutil.ToFloat64(StatusCodeCategoryCounter.WithLabelValues("4xx", http.MethodGet, "/teapot"))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/teapot", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)

	assert.Equal(t, before+1, testutil.ToFloat64(StatusCodeCategoryCounter.WithLabelValues("4xx", http.MethodGet, "/teapot")))
}

func TestStatusCategory(t *testing.T) {
	assert.Equal(t, "2xx", statusCategory(201))
	assert.Equal(t, "4xx", statusCategory(429))
	assert.Equal(t, "5xx", statusCategory(503))
	assert.Equal(t, "", statusCategory(302))
}
