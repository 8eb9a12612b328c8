package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// EvaluateRisk runs the engine against the trip's current snapshot without
// dispatching alerts or changing trip state.
func (h *TripHandlers) EvaluateRisk(c *gin.Context) {
	event, err := h.monitor.EvaluateOnly(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	if event == nil {
		c.JSON(http.StatusOK, gin.H{"risk_detected": false, "message": "No risk detected"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"risk_detected":        true,
		"rule_name":            event.RuleName,
		"confidence":           event.Confidence,
		"contributing_signals": event.ContributingSignals,
	})
}

// TestAlert pushes a synthetic alert through both channels so a user can
// verify guardian reachability before relying on it.
func (h *TripHandlers) TestAlert(c *gin.Context) {
	outcome, trip, err := h.monitor.TestAlert(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	guardianPhone := "not_set"
	if trip.GuardianPhone != nil {
		guardianPhone = *trip.GuardianPhone
	}

	h.logger.Info("Test alert dispatched",
		zap.String("trip_id", trip.ID),
		zap.Bool("push_sent", outcome.PushSent),
		zap.Bool("sms_sent", outcome.SMSSent))

	c.JSON(http.StatusOK, gin.H{
		"message":        "Test alert sent",
		"push_sent":      outcome.PushSent,
		"sms_sent":       outcome.SMSSent,
		"guardian_phone": guardianPhone,
	})
}
