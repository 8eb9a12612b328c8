package trip

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tripwatch/internal/app/domain/risk"
	"github.com/FACorreiaa/go-tripwatch/internal/app/models"
)

// ErrTripNotActive is returned when signals arrive for a trip that is no
// longer accepting them through the regular ingestion path.
var ErrTripNotActive = errors.New("trip is not active")

const activeTripListLimit = 100

type Service interface {
	CreateTrip(ctx context.Context, req models.TripCreateRequest) (*models.Trip, error)
	GetTrip(ctx context.Context, tripID string) (*models.Trip, error)
	EndTrip(ctx context.Context, tripID string) (time.Time, error)
	UpdateGuardian(ctx context.Context, tripID string, req models.GuardianUpdateRequest) error
	ListActiveTrips(ctx context.Context) ([]models.TripSummary, error)
	DebugInfo(ctx context.Context, tripID string) (*models.TripDebugInfo, error)

	RecordLocation(ctx context.Context, tripID string, input models.LocationInput) (*models.LocationPoint, error)
	RecordMotion(ctx context.Context, tripID string, input models.MotionInput) (*models.MotionEvent, error)
	RecordCellularFix(ctx context.Context, tripID string, point models.LocationPoint) (*models.LocationPoint, error)
}

type ServiceImpl struct {
	repo    Repository
	riskCfg risk.Config
	logger  *zap.Logger
	now     func() time.Time
}

var _ Service = (*ServiceImpl)(nil)

func NewService(repo Repository, riskCfg risk.Config, logger *zap.Logger) *ServiceImpl {
	return &ServiceImpl{
		repo:    repo,
		riskCfg: riskCfg,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *ServiceImpl) CreateTrip(ctx context.Context, req models.TripCreateRequest) (*models.Trip, error) {
	userID := req.UserID
	if userID == "" {
		userID = "default_user"
	}

	trip := &models.Trip{
		ID:               uuid.New().String(),
		UserID:           userID,
		Status:           models.TripStatusActive,
		StartTime:        s.now().UTC(),
		GuardianPhone:    req.GuardianPhone,
		GuardianFCMToken: req.GuardianFCMToken,
	}

	if err := s.repo.CreateTrip(ctx, trip); err != nil {
		s.logger.Error("Failed to create trip", zap.Error(err))
		return nil, err
	}

	s.logger.Info("Trip created", zap.String("trip_id", trip.ID), zap.String("user_id", trip.UserID))
	return trip, nil
}

func (s *ServiceImpl) GetTrip(ctx context.Context, tripID string) (*models.Trip, error) {
	return s.repo.GetTrip(ctx, tripID)
}

func (s *ServiceImpl) EndTrip(ctx context.Context, tripID string) (time.Time, error) {
	endTime := s.now().UTC()
	if err := s.repo.EndTrip(ctx, tripID, endTime); err != nil {
		return time.Time{}, err
	}
	s.logger.Info("Trip ended", zap.String("trip_id", tripID))
	return endTime, nil
}

func (s *ServiceImpl) UpdateGuardian(ctx context.Context, tripID string, req models.GuardianUpdateRequest) error {
	return s.repo.UpdateGuardian(ctx, tripID, req.GuardianPhone, req.GuardianFCMToken)
}

func (s *ServiceImpl) ListActiveTrips(ctx context.Context) ([]models.TripSummary, error) {
	return s.repo.ListActiveTrips(ctx, activeTripListLimit)
}

// RecordLocation appends a location fix to an active trip.
func (s *ServiceImpl) RecordLocation(ctx context.Context, tripID string, input models.LocationInput) (*models.LocationPoint, error) {
	trip, err := s.repo.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.Status != models.TripStatusActive {
		return nil, ErrTripNotActive
	}

	source := input.Source
	if source == "" {
		source = models.LocationSourceGPS
	}

	point := models.LocationPoint{
		ID:             uuid.New().String(),
		Latitude:       *input.Latitude,
		Longitude:      *input.Longitude,
		Timestamp:      s.now().UTC(),
		Accuracy:       input.Accuracy,
		Source:         source,
		AccuracyRadius: input.AccuracyRadius,
	}

	if err := s.repo.AppendLocation(ctx, tripID, point); err != nil {
		s.logger.Error("Failed to append location", zap.String("trip_id", tripID), zap.Error(err))
		return nil, err
	}

	return &point, nil
}

// RecordMotion appends a motion reading to an active trip. The panic flag
// is derived here, once, from the configured thresholds; it is never
// recomputed afterwards.
func (s *ServiceImpl) RecordMotion(ctx context.Context, tripID string, input models.MotionInput) (*models.MotionEvent, error) {
	trip, err := s.repo.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.Status != models.TripStatusActive {
		return nil, ErrTripNotActive
	}

	event := models.MotionEvent{
		ID:            uuid.New().String(),
		Timestamp:     s.now().UTC(),
		AccelVariance: *input.AccelVariance,
		GyroVariance:  *input.GyroVariance,
		IsPanic:       s.riskCfg.IsPanic(*input.AccelVariance, *input.GyroVariance),
	}

	if err := s.repo.AppendMotionEvent(ctx, tripID, event); err != nil {
		s.logger.Error("Failed to append motion event", zap.String("trip_id", tripID), zap.Error(err))
		return nil, err
	}

	if event.IsPanic {
		s.logger.Warn("Panic movement detected", zap.String("trip_id", tripID),
			zap.Float64("accel_variance", event.AccelVariance),
			zap.Float64("gyro_variance", event.GyroVariance))
	}

	return &event, nil
}

// RecordCellularFix appends a triangulated fix. Unlike the regular
// ingestion path this does not require the trip to be active: a cellular
// fix can still narrow down a trip that already alerted.
func (s *ServiceImpl) RecordCellularFix(ctx context.Context, tripID string, point models.LocationPoint) (*models.LocationPoint, error) {
	if _, err := s.repo.GetTrip(ctx, tripID); err != nil {
		return nil, err
	}

	if point.ID == "" {
		point.ID = uuid.New().String()
	}
	if point.Timestamp.IsZero() {
		point.Timestamp = s.now().UTC()
	}
	point.Source = models.LocationSourceCellular

	if err := s.repo.AppendLocation(ctx, tripID, point); err != nil {
		return nil, err
	}
	return &point, nil
}

func (s *ServiceImpl) DebugInfo(ctx context.Context, tripID string) (*models.TripDebugInfo, error) {
	trip, err := s.repo.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}

	info := &models.TripDebugInfo{
		TripID:            trip.ID,
		Status:            trip.Status,
		TrackingSource:    "none",
		MotionStatus:      "normal",
		TotalLocations:    len(trip.Locations),
		TotalMotionEvents: len(trip.MotionEvents),
		GuardianPhone:     "not_set",
	}

	if trip.GuardianPhone != nil {
		info.GuardianPhone = *trip.GuardianPhone
	}

	if n := len(trip.Locations); n > 0 {
		last := trip.Locations[n-1]
		info.TrackingSource = string(last.Source)
		info.Accuracy = last.Accuracy
		info.AccuracyRadius = last.AccuracyRadius
		info.LastLocation = &last
	}

	recent := trip.MotionEvents
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}
	for _, m := range recent {
		if m.IsPanic {
			info.MotionStatus = "panic_detected"
			break
		}
	}

	if n := len(trip.RiskEvents); n > 0 {
		last := trip.RiskEvents[n-1]
		info.LastRiskRule = &last.RuleName
		info.LastRiskConfidence = &last.Confidence
	}

	return info, nil
}
