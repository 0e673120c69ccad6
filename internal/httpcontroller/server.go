// Package httpcontroller exposes the subscription, recommendation
// administration and widget endpoints over HTTP.
package httpcontroller

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ecosante/ecosante-go/internal/airquality"
	"github.com/ecosante/ecosante-go/internal/conf"
	"github.com/ecosante/ecosante-go/internal/datastore"
	"github.com/ecosante/ecosante-go/internal/logging"
	"github.com/ecosante/ecosante-go/internal/reco"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 10 * time.Second

// Server manages the HTTP API routes and handlers.
type Server struct {
	Echo     *echo.Echo
	DS       datastore.Interface
	Settings *conf.Settings

	pool     *reco.PoolBuilder
	selector *reco.Selector
	fetcher  *airquality.BulkFetcher
	registry *prometheus.Registry
	logger   *slog.Logger
}

// New creates the HTTP server and wires its routes.
func New(settings *conf.Settings, ds datastore.Interface, provider airquality.Provider, registry *prometheus.Registry) *Server {
	logger, _, err := logging.NewFileLogger("logs/web.log", "http", slog.LevelInfo)
	if err != nil || logger == nil {
		logger = slog.Default().With("service", "http")
	}

	s := &Server{
		Echo:     echo.New(),
		DS:       ds,
		Settings: settings,
		pool:     reco.NewPoolBuilder(ds),
		selector: reco.NewSelector(ds, settings.Newsletter.WindowDays),
		fetcher:  airquality.NewBulkFetcher(provider, settings.AirQuality.CacheTTL),
		registry: registry,
		logger:   logger,
	}

	s.Echo.HideBanner = true
	s.Echo.Use(middleware.Recover())
	s.Echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			s.logger.LogAttrs(c.Request().Context(), level, "request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
			)
			return nil
		},
	}))

	s.initRoutes()
	return s
}

// initRoutes registers all API routes.
func (s *Server) initRoutes() {
	api := s.Echo.Group("/api/v1")

	// Subscription self-service
	api.POST("/profiles", s.createProfile)
	api.GET("/profiles/:id", s.getProfile)
	api.PUT("/profiles/:id", s.updateProfile)
	api.POST("/profiles/:id/unsubscribe", s.unsubscribeProfile)

	// Recommendation administration
	api.GET("/recommendations", s.listRecommendations)
	api.POST("/recommendations", s.saveRecommendation)
	api.PUT("/recommendations/:id", s.saveRecommendation)
	api.DELETE("/recommendations/:id", s.deleteRecommendation)

	// Anonymous widget
	api.GET("/widget", s.widgetRecommendation)

	// Newsletter export and feedback
	api.GET("/newsletters/export", s.exportNewsletters)
	api.POST("/newsletters/:shortID/feedback", s.newsletterFeedback)

	if s.registry != nil {
		s.Echo.GET("/metrics", echo.WrapHandler(
			promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
	}
}

// Start runs the server until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Echo.Start(s.Settings.Web.Address)
	}()

	s.logger.Info("HTTP server starting", "address", s.Settings.Web.Address)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Echo.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}
