package risk

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tripwatch/internal/app/models"
)

// Engine evaluates the ordered risk rules against a trip snapshot. It is a
// pure function of the snapshot and the evaluation instant: no clock reads,
// no side effects, safe to retry.
type Engine struct {
	cfg    Config
	rules  []rule
	logger *zap.Logger
}

// evalContext carries the derived signal views a rule predicate inspects.
type evalContext struct {
	cfg       Config
	now       time.Time
	locations []models.LocationPoint // full sanitized history
	windows   Windows

	recentPanic     []models.MotionEvent
	veryRecentPanic []models.MotionEvent
}

func (c *evalContext) hasRecentPanic() bool { return len(c.recentPanic) > 0 }

// rule is one entry of the priority list. detect returns the contributing
// signal tags when the precondition holds. Rules without a predicate
// (ROUTE_DEVIATION) are reserved and never evaluated.
type rule struct {
	name   RuleName
	detect func(*evalContext) ([]string, bool)
}

// NewEngine builds an engine for the given configuration. The rule order
// is the priority order: the first rule whose precondition holds wins and
// later rules are never evaluated.
func NewEngine(cfg Config, logger *zap.Logger) *Engine {
	return &Engine{
		cfg:    cfg,
		logger: logger,
		rules: []rule{
			{name: RuleSustainedPanicMovement, detect: detectSustainedPanic},
			{name: RulePanicMovementAbnormalStop, detect: detectPanicAbnormalStop},
			{name: RulePanicMovementNight, detect: detectPanicNight},
			{name: RuleGPSLossCellularMovement, detect: detectGPSLossCellular},
			{name: RuleProlongedStopUnusualLocation, detect: detectProlongedStop},
		},
	}
}

// Evaluate runs the rule list against the snapshot as of now and returns
// the detected risk event, or nil when no rule's precondition holds.
func (e *Engine) Evaluate(snap models.TripSnapshot, now time.Time) *models.RiskEvent {
	locations := sanitizeLocations(snap.Locations)
	motion := sanitizeMotion(snap.MotionEvents)

	ctx := &evalContext{
		cfg:       e.cfg,
		now:       now,
		locations: locations,
		windows:   ExtractWindows(locations, motion, now, e.cfg.RecentWindow, e.cfg.VeryRecentWindow),
	}
	for _, m := range ctx.windows.RecentMotion {
		if m.IsPanic {
			ctx.recentPanic = append(ctx.recentPanic, m)
		}
	}
	for _, m := range ctx.windows.VeryRecentMotion {
		if m.IsPanic {
			ctx.veryRecentPanic = append(ctx.veryRecentPanic, m)
		}
	}

	var detected *rule
	var signals []string
	for i := range e.rules {
		if e.rules[i].detect == nil {
			continue
		}
		if tags, ok := e.rules[i].detect(ctx); ok {
			detected = &e.rules[i]
			signals = tags
			break
		}
	}
	if detected == nil {
		return nil
	}

	confidence := e.cfg.BaseConfidence[detected.name]
	// Corroborating boosts are independent and capped after each addition,
	// so they cannot compound above the maximum even transiently.
	if ctx.hasRecentPanic() {
		confidence = min(confidence+e.cfg.PanicBoost, e.cfg.MaxConfidence)
	}
	if e.cfg.IsNight(now) {
		confidence = min(confidence+e.cfg.NightBoost, e.cfg.MaxConfidence)
	}

	event := &models.RiskEvent{
		ID:                  uuid.New().String(),
		Timestamp:           now,
		RuleName:            string(detected.name),
		ContributingSignals: signals,
		Confidence:          confidence,
		LastKnownLocation:   lastKnownLocation(ctx),
	}

	e.logger.Warn("Risk rule fired",
		zap.String("rule", event.RuleName),
		zap.Float64("confidence", event.Confidence),
		zap.Strings("signals", event.ContributingSignals))

	return event
}

// lastKnownLocation prefers the most recent fix inside the recent window,
// falling back to the most recent fix in the full history.
func lastKnownLocation(ctx *evalContext) *models.LocationPoint {
	if n := len(ctx.windows.RecentLocations); n > 0 {
		loc := ctx.windows.RecentLocations[n-1]
		return &loc
	}
	if n := len(ctx.locations); n > 0 {
		loc := ctx.locations[n-1]
		return &loc
	}
	return nil
}

// detectSustainedPanic fires on a burst of panic-flagged motion events in
// the very recent window. This is the most specific signal and outranks
// every other rule.
func detectSustainedPanic(ctx *evalContext) ([]string, bool) {
	count := len(ctx.veryRecentPanic)
	if count < ctx.cfg.SustainedPanicCount {
		return nil, false
	}
	return []string{
		"sustained_panic",
		fmt.Sprintf("%d_panic_events_in_30s", count),
	}, true
}

// detectPanicAbnormalStop fires when movement effectively stopped right
// after a panic reading: a recent panic plus the two latest recent fixes
// less than the configured distance apart.
func detectPanicAbnormalStop(ctx *evalContext) ([]string, bool) {
	if !ctx.hasRecentPanic() || len(ctx.windows.RecentLocations) < 2 {
		return nil, false
	}
	n := len(ctx.windows.RecentLocations)
	last := ctx.windows.RecentLocations[n-1]
	prev := ctx.windows.RecentLocations[n-2]
	distance := HaversineDistance(last.Latitude, last.Longitude, prev.Latitude, prev.Longitude)
	if distance >= ctx.cfg.AbnormalStopMaxMeters {
		return nil, false
	}
	return []string{"panic_movement", "sudden_stop"}, true
}

// detectPanicNight fires on any recent panic during night hours.
func detectPanicNight(ctx *evalContext) ([]string, bool) {
	if !ctx.hasRecentPanic() || !ctx.cfg.IsNight(ctx.now) {
		return nil, false
	}
	return []string{"panic_movement", "night_hours"}, true
}

// detectGPSLossCellular fires when tracking degraded from GPS to cellular
// and kept producing points: at least one GPS fix and two cellular fixes in
// the recent window, with the latest cellular fix newer than the latest
// GPS fix.
func detectGPSLossCellular(ctx *evalContext) ([]string, bool) {
	if len(ctx.windows.RecentLocations) < 3 {
		return nil, false
	}
	var gps, cellular []models.LocationPoint
	for _, loc := range ctx.windows.RecentLocations {
		switch loc.Source {
		case models.LocationSourceGPS:
			gps = append(gps, loc)
		case models.LocationSourceCellular:
			cellular = append(cellular, loc)
		}
	}
	if len(gps) == 0 || len(cellular) < 2 {
		return nil, false
	}
	if !cellular[len(cellular)-1].Timestamp.After(gps[len(gps)-1].Timestamp) {
		return nil, false
	}
	return []string{"gps_lost", "cellular_tracking", "continued_movement"}, true
}

// detectProlongedStop fires on a movement-then-stop pattern over the last
// five fixes of the full history: the first two segment distances show
// significant movement while the last two show the user stationary.
func detectProlongedStop(ctx *evalContext) ([]string, bool) {
	if len(ctx.locations) < ctx.cfg.StopPatternMinLocations {
		return nil, false
	}
	last5 := ctx.locations[len(ctx.locations)-5:]
	segments := make([]float64, 0, 4)
	for i := 1; i < len(last5); i++ {
		segments = append(segments, HaversineDistance(
			last5[i-1].Latitude, last5[i-1].Longitude,
			last5[i].Latitude, last5[i].Longitude,
		))
	}
	earlyMovement := segments[0]+segments[1] > ctx.cfg.EarlyMovementMinMeters
	recentStop := segments[2]+segments[3] < ctx.cfg.RecentStopMaxMeters
	if !earlyMovement || !recentStop {
		return nil, false
	}
	return []string{"movement_detected", "sudden_stop", "location_stationary"}, true
}
