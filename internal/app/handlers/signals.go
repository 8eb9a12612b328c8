package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tripwatch/internal/app/domain/geolocate"
	"github.com/FACorreiaa/go-tripwatch/internal/app/models"
)

// evaluationTimeout bounds the background risk evaluation cycle that runs
// after each ingested signal.
const evaluationTimeout = 30 * time.Second

// AddLocation appends a location fix and triggers a background risk
// evaluation cycle.
func (h *TripHandlers) AddLocation(c *gin.Context) {
	var input models.LocationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	tripID := c.Param("id")
	point, err := h.service.RecordLocation(c.Request.Context(), tripID, input)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.evaluateInBackground(tripID)

	c.JSON(http.StatusOK, gin.H{"message": "Location added", "location_id": point.ID})
}

// AddMotion appends a motion reading. A panic-flagged reading triggers a
// background risk evaluation cycle; a normal reading only raises risk
// confidence the next time something else does.
func (h *TripHandlers) AddMotion(c *gin.Context) {
	var input models.MotionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	tripID := c.Param("id")
	event, err := h.service.RecordMotion(c.Request.Context(), tripID, input)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if event.IsPanic {
		h.evaluateInBackground(tripID)
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Motion event recorded",
		"motion_id": event.ID,
		"is_panic":  event.IsPanic,
	})
}

// CellularTriangulation resolves an approximate fix via cell towers or IP
// and appends it to the trip as a cellular-sourced point.
func (h *TripHandlers) CellularTriangulation(c *gin.Context) {
	var req models.CellularTriangulationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	if _, err := h.service.GetTrip(c.Request.Context(), req.TripID); err != nil {
		h.respondError(c, err)
		return
	}

	fix, err := h.resolver.Resolve(c.Request.Context(), geolocate.CellQuery{
		MCC:            req.MCC,
		MNC:            req.MNC,
		LAC:            req.LAC,
		CID:            req.CID,
		SignalStrength: req.SignalStrength,
	})
	if err != nil {
		var noMatch *geolocate.NoMatchError
		if errors.As(err, &noMatch) {
			c.JSON(http.StatusOK, gin.H{
				"status":  "no_match",
				"message": noMatch.Message,
				"balance": noMatch.Balance,
				"detail":  "Location could not be determined. Try again or check network connection.",
			})
			return
		}
		h.logger.Error("Cellular triangulation failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"detail": "Cellular triangulation service unavailable"})
		return
	}

	radius := fix.AccuracyRadius
	if _, err := h.service.RecordCellularFix(c.Request.Context(), req.TripID, models.LocationPoint{
		Latitude:       fix.Latitude,
		Longitude:      fix.Longitude,
		AccuracyRadius: &radius,
	}); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"latitude":        fix.Latitude,
		"longitude":       fix.Longitude,
		"accuracy_radius": fix.AccuracyRadius,
		"source":          models.LocationSourceCellular,
		"method":          fix.Method,
		"balance":         fix.Balance,
		"status":          "success",
	})
}

// evaluateInBackground mirrors the request/response split of signal
// ingestion: the HTTP response returns immediately while the evaluation
// cycle runs detached with its own bounded context.
func (h *TripHandlers) evaluateInBackground(tripID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), evaluationTimeout)
		defer cancel()
		h.monitor.CheckAndAlert(ctx, tripID)
	}()
}
