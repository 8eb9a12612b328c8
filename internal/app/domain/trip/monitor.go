package trip

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tripwatch/internal/app/domain/alert"
	"github.com/FACorreiaa/go-tripwatch/internal/app/domain/risk"
	"github.com/FACorreiaa/go-tripwatch/internal/app/models"
	"github.com/FACorreiaa/go-tripwatch/internal/app/observability/metrics"
)

// Monitor runs one evaluation cycle per incoming signal: load the trip
// snapshot, evaluate the rule engine against it, and on detection claim the
// alert transition before dispatching. The engine stays pure; all side
// effects live here and in the repository.
type Monitor struct {
	repo       Repository
	engine     *risk.Engine
	dispatcher *alert.Dispatcher
	metrics    *metrics.AppMetrics
	logger     *zap.Logger
	now        func() time.Time
}

func NewMonitor(repo Repository, engine *risk.Engine, dispatcher *alert.Dispatcher, m *metrics.AppMetrics, logger *zap.Logger) *Monitor {
	return &Monitor{
		repo:       repo,
		engine:     engine,
		dispatcher: dispatcher,
		metrics:    m,
		logger:     logger,
		now:        time.Now,
	}
}

// SetNow overrides the evaluation clock. Tests only.
func (m *Monitor) SetNow(now func() time.Time) { m.now = now }

// CheckAndAlert evaluates one trip and dispatches alerts on detection.
// Failures are absorbed and logged; nothing here is fatal to the caller.
func (m *Monitor) CheckAndAlert(ctx context.Context, tripID string) {
	l := m.logger.With(zap.String("trip_id", tripID))

	trip, err := m.repo.GetTrip(ctx, tripID)
	if err != nil {
		l.Error("Risk evaluation: failed to load trip", zap.Error(err))
		return
	}
	if trip.Status != models.TripStatusActive {
		// Re-dispatching for an alerted or ended trip would cause alert
		// storms; the cycle is a no-op at this boundary.
		return
	}

	now := m.now().UTC()
	event := m.engine.Evaluate(trip.Snapshot(), now)
	m.countEvaluation(ctx, event)

	if event == nil {
		if err := m.repo.TouchRiskCheck(ctx, tripID, now); err != nil {
			l.Error("Failed to update last risk check", zap.Error(err))
		}
		return
	}

	won, err := m.repo.BeginAlert(ctx, tripID, now)
	if err != nil {
		l.Error("Failed to transition trip to alert", zap.Error(err))
		return
	}
	if !won {
		// A concurrent cycle already claimed the transition and will have
		// dispatched; evaluation is re-entrant so losing here is safe.
		l.Info("Alert transition already claimed, skipping dispatch")
		return
	}

	outcome := m.dispatcher.Dispatch(ctx, trip.Guardian(), event)
	event.PushSent = outcome.PushSent
	event.SMSSent = outcome.SMSSent
	event.AlertSent = outcome.AlertSent()
	m.countDispatch(ctx, outcome)

	if err := m.repo.AppendRiskEvent(ctx, tripID, *event); err != nil {
		l.Error("Failed to append risk event", zap.Error(err))
		return
	}

	l.Warn("RISK DETECTED",
		zap.String("rule", event.RuleName),
		zap.Float64("confidence", event.Confidence),
		zap.Bool("alert_sent", event.AlertSent))
}

// EvaluateOnly runs the engine against the trip's current snapshot without
// dispatching alerts or touching state. Backs the manual evaluation
// endpoint.
func (m *Monitor) EvaluateOnly(ctx context.Context, tripID string) (*models.RiskEvent, error) {
	trip, err := m.repo.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	return m.engine.Evaluate(trip.Snapshot(), m.now().UTC()), nil
}

// TestAlert dispatches a synthetic risk event through the real channels
// without recording anything against the trip.
func (m *Monitor) TestAlert(ctx context.Context, tripID string) (alert.Outcome, *models.Trip, error) {
	trip, err := m.repo.GetTrip(ctx, tripID)
	if err != nil {
		return alert.Outcome{}, nil, err
	}

	event := &models.RiskEvent{
		ID:                  uuid.New().String(),
		Timestamp:           m.now().UTC(),
		RuleName:            "TEST_ALERT",
		ContributingSignals: []string{"manual_test"},
		Confidence:          1.0,
	}
	if n := len(trip.Locations); n > 0 {
		last := trip.Locations[n-1]
		event.LastKnownLocation = &last
	}

	outcome := m.dispatcher.Dispatch(ctx, trip.Guardian(), event)
	return outcome, trip, nil
}

func (m *Monitor) countEvaluation(ctx context.Context, event *models.RiskEvent) {
	if m.metrics == nil {
		return
	}
	m.metrics.RiskEvaluationsTotal.Add(ctx, 1)
	if event != nil {
		m.metrics.RiskDetectionsTotal.Add(ctx, 1,
			metric.WithAttributes(attribute.String("rule", event.RuleName)))
	}
}

func (m *Monitor) countDispatch(ctx context.Context, outcome alert.Outcome) {
	if m.metrics == nil {
		return
	}
	m.metrics.AlertDispatchesTotal.Add(ctx, 1,
		metric.WithAttributes(
			attribute.Bool("push_sent", outcome.PushSent),
			attribute.Bool("sms_sent", outcome.SMSSent),
		))
}
