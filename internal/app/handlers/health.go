package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Root identifies the API.
func (h *TripHandlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Tripwatch Safety API - autonomous trip monitoring"})
}

// Health reports service status and which external providers are running
// in demo mode versus configured with real credentials.
func (h *TripHandlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"services": gin.H{
			"database":     "connected",
			"unwired_labs": providerMode(h.cfg.Providers.UnwiredLabsAPIKey),
			"fast2sms":     providerMode(h.cfg.Providers.Fast2SMSAPIKey),
			"fcm":          providerMode(h.cfg.Providers.FCMServerKey),
		},
	})
}

func providerMode(key string) string {
	if key == "" || key == "demo_key" {
		return "demo_mode"
	}
	return "configured"
}
