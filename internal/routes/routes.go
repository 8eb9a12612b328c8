package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tripwatch/internal/app/domain/alert"
	"github.com/FACorreiaa/go-tripwatch/internal/app/domain/geolocate"
	"github.com/FACorreiaa/go-tripwatch/internal/app/domain/risk"
	"github.com/FACorreiaa/go-tripwatch/internal/app/domain/trip"
	"github.com/FACorreiaa/go-tripwatch/internal/app/handlers"
	"github.com/FACorreiaa/go-tripwatch/internal/app/observability/metrics"
	"github.com/FACorreiaa/go-tripwatch/internal/pkg/config"
)

// Setup wires repositories, the risk engine, the alert channels and the
// handlers, then registers the API routes.
func Setup(r *gin.Engine, dbPool *pgxpool.Pool, cfg *config.Config, logger *zap.Logger) {
	tripRepo := trip.NewRepository(dbPool)
	tripService := trip.NewService(tripRepo, cfg.Risk, logger)

	engine := risk.NewEngine(cfg.Risk, logger)
	dispatcher := alert.NewDispatcher(
		alert.NewFCMClient(cfg.Providers.FCMServerKey, nil, logger),
		alert.NewFast2SMSClient(cfg.Providers.Fast2SMSAPIKey, nil, logger),
		cfg.Alerts.ChannelTimeout,
		logger,
	)
	monitor := trip.NewMonitor(tripRepo, engine, dispatcher, metrics.Get(), logger)

	resolver := geolocate.NewUnwiredLabsClient(cfg.Providers.UnwiredLabsAPIKey, nil, logger)

	h := handlers.NewTripHandlers(tripService, monitor, resolver, cfg, logger)

	api := r.Group("/api")
	{
		api.GET("/", h.Root)
		api.GET("/health", h.Health)

		api.POST("/trips", h.CreateTrip)
		api.GET("/trips/active/list", h.ListActiveTrips)
		api.GET("/trips/:id", h.GetTrip)
		api.POST("/trips/:id/end", h.EndTrip)
		api.PUT("/trips/:id/guardian", h.UpdateGuardian)

		api.POST("/trips/:id/location", h.AddLocation)
		api.POST("/trips/:id/motion", h.AddMotion)
		api.POST("/cellular-triangulation", h.CellularTriangulation)

		api.POST("/trips/:id/evaluate-risk", h.EvaluateRisk)
		api.GET("/trips/:id/debug", h.DebugInfo)
		api.POST("/trips/:id/test-alert", h.TestAlert)
	}
}
