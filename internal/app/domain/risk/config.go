package risk

import "time"

// RuleName identifies a risk-detection rule.
type RuleName string

const (
	RuleSustainedPanicMovement       RuleName = "SUSTAINED_PANIC_MOVEMENT"
	RulePanicMovementAbnormalStop    RuleName = "PANIC_MOVEMENT_ABNORMAL_STOP"
	RulePanicMovementNight           RuleName = "PANIC_MOVEMENT_NIGHT"
	RuleGPSLossCellularMovement      RuleName = "GPS_LOSS_CELLULAR_MOVEMENT"
	RuleRouteDeviation               RuleName = "ROUTE_DEVIATION"
	RuleProlongedStopUnusualLocation RuleName = "PROLONGED_STOP_UNUSUAL_LOCATION"
)

// Config holds every threshold and the rule-confidence table the engine
// evaluates against. It is built once at startup and passed into the
// engine; nothing reads process-wide state, so tests can run with
// alternate thresholds.
type Config struct {
	// Panic classification thresholds, applied once at ingestion time.
	// Both variances must exceed their threshold simultaneously.
	PanicAccelThreshold float64
	PanicGyroThreshold  float64

	// Night hours: hour >= NightStartHour OR hour < NightEndHour.
	NightStartHour int
	NightEndHour   int

	// Signal windows relative to the evaluation instant.
	RecentWindow     time.Duration
	VeryRecentWindow time.Duration

	// Rule preconditions.
	SustainedPanicCount     int     // panic events in the very recent window
	AbnormalStopMaxMeters   float64 // max distance between the two latest fixes
	StopPatternMinLocations int     // total history needed for the stop pattern
	EarlyMovementMinMeters  float64 // first two segments of the last five fixes
	RecentStopMaxMeters     float64 // last two segments of the last five fixes

	// Confidence adjustment.
	PanicBoost    float64
	NightBoost    float64
	MaxConfidence float64

	// Base confidence per rule. ROUTE_DEVIATION is declared here but has
	// no predicate; the engine never fires it.
	BaseConfidence map[RuleName]float64
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		PanicAccelThreshold: 2.0,
		PanicGyroThreshold:  0.5,
		NightStartHour:      22,
		NightEndHour:        5,
		RecentWindow:        60 * time.Second,
		VeryRecentWindow:    30 * time.Second,

		SustainedPanicCount:     3,
		AbnormalStopMaxMeters:   10,
		StopPatternMinLocations: 5,
		EarlyMovementMinMeters:  100,
		RecentStopMaxMeters:     20,

		PanicBoost:    0.15,
		NightBoost:    0.10,
		MaxConfidence: 0.95,

		BaseConfidence: map[RuleName]float64{
			RuleSustainedPanicMovement:       0.75,
			RulePanicMovementAbnormalStop:    0.70,
			RulePanicMovementNight:           0.65,
			RuleGPSLossCellularMovement:      0.50,
			RuleRouteDeviation:               0.60,
			RuleProlongedStopUnusualLocation: 0.55,
		},
	}
}

// IsNight reports whether t falls inside the configured night hours.
func (c Config) IsNight(t time.Time) bool {
	hour := t.Hour()
	return hour >= c.NightStartHour || hour < c.NightEndHour
}

// IsPanic classifies a motion reading. Applied once at ingestion.
func (c Config) IsPanic(accelVariance, gyroVariance float64) bool {
	return accelVariance > c.PanicAccelThreshold && gyroVariance > c.PanicGyroThreshold
}
