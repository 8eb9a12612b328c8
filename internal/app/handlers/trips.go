package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tripwatch/internal/app/domain/geolocate"
	"github.com/FACorreiaa/go-tripwatch/internal/app/domain/trip"
	"github.com/FACorreiaa/go-tripwatch/internal/app/models"
	"github.com/FACorreiaa/go-tripwatch/internal/pkg/config"
)

// TripHandlers exposes the trip lifecycle and signal ingestion API.
type TripHandlers struct {
	service  trip.Service
	monitor  *trip.Monitor
	resolver geolocate.Resolver
	cfg      *config.Config
	logger   *zap.Logger
}

func NewTripHandlers(service trip.Service, monitor *trip.Monitor, resolver geolocate.Resolver, cfg *config.Config, logger *zap.Logger) *TripHandlers {
	return &TripHandlers{
		service:  service,
		monitor:  monitor,
		resolver: resolver,
		cfg:      cfg,
		logger:   logger,
	}
}

// CreateTrip starts a new tracking session.
func (h *TripHandlers) CreateTrip(c *gin.Context) {
	var req models.TripCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	created, err := h.service.CreateTrip(c.Request.Context(), req)
	if err != nil {
		h.logger.Error("Failed to create trip", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to create trip"})
		return
	}

	c.JSON(http.StatusOK, created)
}

// GetTrip returns the trip with its full location and motion history.
func (h *TripHandlers) GetTrip(c *gin.Context) {
	t, err := h.service.GetTrip(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// EndTrip stops tracking for a trip.
func (h *TripHandlers) EndTrip(c *gin.Context) {
	tripID := c.Param("id")
	endTime, err := h.service.EndTrip(c.Request.Context(), tripID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Trip ended",
		"trip_id":  tripID,
		"end_time": endTime,
	})
}

// UpdateGuardian patches the guardian contact info of a trip.
func (h *TripHandlers) UpdateGuardian(c *gin.Context) {
	var req models.GuardianUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	tripID := c.Param("id")
	if err := h.service.UpdateGuardian(c.Request.Context(), tripID, req); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Guardian updated", "trip_id": tripID})
}

// ListActiveTrips lists currently active trips.
func (h *TripHandlers) ListActiveTrips(c *gin.Context) {
	trips, err := h.service.ListActiveTrips(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list active trips", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to list trips"})
		return
	}
	if trips == nil {
		trips = []models.TripSummary{}
	}
	c.JSON(http.StatusOK, trips)
}

// DebugInfo exposes the trip's current tracking state.
func (h *TripHandlers) DebugInfo(c *gin.Context) {
	info, err := h.service.DebugInfo(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h *TripHandlers) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, trip.ErrTripNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "Trip not found"})
	case errors.Is(err, trip.ErrTripNotActive):
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Trip is not active"})
	default:
		h.logger.Error("Request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
	}
}
