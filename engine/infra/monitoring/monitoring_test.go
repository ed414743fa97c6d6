package monitoring

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dataworks/dataworks/engine/infra/monitoring/middleware"
	"github.com/dataworks/dataworks/engine/task"
	"github.com/dataworks/dataworks/pkg/config"
	"github.com/gin-gonic/gin"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewService(t *testing.T) {
	t.Run("Should use a no-op meter when disabled", func(t *testing.T) {
		service, err := NewService(t.Context(), config.MonitoringConfig{Enabled: false, Path: "/metrics"})
		require.NoError(t, err)
		assert.False(t, service.IsInitialized())
		assert.NoError(t, service.InitializationError())
		rec := httptest.NewRecorder()
		service.ExporterHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("Should reject invalid paths", func(t *testing.T) {
		for _, path := range []string{"", "metrics", "/api/metrics", "/metrics?x=1"} {
			_, err := NewService(t.Context(), config.MonitoringConfig{Enabled: true, Path: path})
			assert.Error(t, err, path)
		}
	})

	t.Run("Should fall back to a disabled service on invalid config", func(t *testing.T) {
		service := NewServiceWithFallback(t.Context(), config.MonitoringConfig{Enabled: true, Path: ""})
		assert.False(t, service.IsInitialized())
		assert.Error(t, service.InitializationError())
	})

	t.Run("Should expose task and HTTP metrics", func(t *testing.T) {
		task.ResetMetricsForTesting()
		middleware.ResetMetricsForTesting()
		t.Cleanup(task.ResetMetricsForTesting)
		t.Cleanup(middleware.ResetMetricsForTesting)
		service, err := NewService(t.Context(), config.MonitoringConfig{Enabled: true, Path: "/metrics"})
		require.NoError(t, err)
		t.Cleanup(func() { _ = service.Shutdown(t.Context()) })
		require.True(t, service.IsInitialized())

		task.RecordInvocation(t.Context(), "fetch_api_data", task.StatusSuccess, 10*time.Millisecond, "")

		gin.SetMode(gin.TestMode)
		router := gin.New()
		router.Use(service.GinMiddleware(t.Context()))
		router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
		router.GET(service.Path(), gin.WrapH(service.ExporterHandler()))
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", http.NoBody))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
		require.Equal(t, http.StatusOK, rec.Code)
		body, err := io.ReadAll(rec.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "dataworks_task_invocations_total")
		assert.Contains(t, string(body), `task_id="fetch_api_data"`)
		assert.Contains(t, string(body), "dataworks_http_requests_total")

		families, err := service.registry.Gather()
		require.NoError(t, err)
		var invocations *dto.MetricFamily
		for _, family := range families {
			if strings.HasPrefix(family.GetName(), "dataworks_task_invocations") {
				invocations = family
			}
		}
		require.NotNil(t, invocations)
		assert.Equal(t, dto.MetricType_COUNTER, invocations.GetType())
		require.Len(t, invocations.GetMetric(), 1)
		assert.Equal(t, 1.0, invocations.GetMetric()[0].GetCounter().GetValue())
	})
}
