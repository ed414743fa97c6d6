// Package monitoring exposes task and HTTP metrics through a Prometheus
// registry backed by the OpenTelemetry SDK.
package monitoring

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/dataworks/dataworks/engine/infra/monitoring/middleware"
	"github.com/dataworks/dataworks/engine/task"
	"github.com/dataworks/dataworks/pkg/config"
	"github.com/dataworks/dataworks/pkg/logger"
	"github.com/gin-gonic/gin"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const meterName = "dataworks"

// Service owns the meter provider and the exporter registry.
type Service struct {
	meter             metric.Meter
	provider          *sdkmetric.MeterProvider
	registry          *prom.Registry
	config            config.MonitoringConfig
	initialized       bool
	initializationErr error
}

func newDisabledService(cfg config.MonitoringConfig, initErr error) *Service {
	return &Service{
		config:            cfg,
		meter:             noop.NewMeterProvider().Meter(meterName),
		initializationErr: initErr,
	}
}

// ValidateConfig checks the metrics path can be mounted next to the API.
func ValidateConfig(cfg config.MonitoringConfig) error {
	if cfg.Path == "" {
		return fmt.Errorf("monitoring path cannot be empty")
	}
	if cfg.Path[0] != '/' {
		return fmt.Errorf("monitoring path must start with '/': got %s", cfg.Path)
	}
	if strings.HasPrefix(cfg.Path, "/api/") {
		return fmt.Errorf("monitoring path cannot be under /api/")
	}
	if strings.ContainsRune(cfg.Path, '?') {
		return fmt.Errorf("monitoring path cannot contain query parameters")
	}
	return nil
}

// NewService creates the Prometheus-backed service and registers the task
// instruments on its meter.
func NewService(ctx context.Context, cfg config.MonitoringConfig) (*Service, error) {
	log := logger.FromContext(ctx)
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if !cfg.Enabled {
		log.Debug("Monitoring disabled, using no-op meter")
		return newDisabledService(cfg, nil), nil
	}
	registry := prom.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Prometheus exporter: %w", err)
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := provider.Meter(meterName)
	if err := task.InitMetrics(meter); err != nil {
		return nil, fmt.Errorf("failed to register task metrics: %w", err)
	}
	log.Info("Monitoring service initialized", "path", cfg.Path)
	return &Service{
		meter:       meter,
		provider:    provider,
		registry:    registry,
		config:      cfg,
		initialized: true,
	}, nil
}

// NewServiceWithFallback degrades to a no-op service when initialization fails.
func NewServiceWithFallback(ctx context.Context, cfg config.MonitoringConfig) *Service {
	service, err := NewService(ctx, cfg)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to initialize monitoring, using no-op implementation", "error", err)
		return newDisabledService(cfg, err)
	}
	return service
}

func (s *Service) Path() string {
	return s.config.Path
}

// GinMiddleware records HTTP request metrics.
func (s *Service) GinMiddleware(ctx context.Context) gin.HandlerFunc {
	if !s.initialized {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	return middleware.HTTPMetrics(ctx, s.meter)
}

// ExporterHandler serves the Prometheus text exposition.
func (s *Service) ExporterHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.initialized {
			w.WriteHeader(http.StatusServiceUnavailable)
			if _, err := w.Write([]byte("Monitoring service not initialized")); err != nil {
				logger.FromContext(r.Context()).Error("Failed to write response", "error", err)
			}
			return
		}
		promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}

func (s *Service) Shutdown(ctx context.Context) error {
	if s.provider != nil {
		return s.provider.Shutdown(ctx)
	}
	return nil
}

func (s *Service) IsInitialized() bool {
	return s.initialized
}

// InitializationError is the reason the service fell back to no-op, if any.
func (s *Service) InitializationError() error {
	return s.initializationErr
}
