package trip

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/FACorreiaa/go-tripwatch/internal/app/models"
)

// MockRepository implements Repository for testing
type MockRepository struct {
	mock.Mock
}

var _ Repository = (*MockRepository)(nil)

func (m *MockRepository) CreateTrip(ctx context.Context, trip *models.Trip) error {
	args := m.Called(ctx, trip)
	return args.Error(0)
}

func (m *MockRepository) GetTrip(ctx context.Context, tripID string) (*models.Trip, error) {
	args := m.Called(ctx, tripID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Trip), args.Error(1)
}

func (m *MockRepository) EndTrip(ctx context.Context, tripID string, endTime time.Time) error {
	args := m.Called(ctx, tripID, endTime)
	return args.Error(0)
}

func (m *MockRepository) UpdateGuardian(ctx context.Context, tripID string, phone, fcmToken *string) error {
	args := m.Called(ctx, tripID, phone, fcmToken)
	return args.Error(0)
}

func (m *MockRepository) ListActiveTrips(ctx context.Context, limit int) ([]models.TripSummary, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TripSummary), args.Error(1)
}

func (m *MockRepository) AppendLocation(ctx context.Context, tripID string, point models.LocationPoint) error {
	args := m.Called(ctx, tripID, point)
	return args.Error(0)
}

func (m *MockRepository) AppendMotionEvent(ctx context.Context, tripID string, event models.MotionEvent) error {
	args := m.Called(ctx, tripID, event)
	return args.Error(0)
}

func (m *MockRepository) BeginAlert(ctx context.Context, tripID string, checkedAt time.Time) (bool, error) {
	args := m.Called(ctx, tripID, checkedAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) AppendRiskEvent(ctx context.Context, tripID string, event models.RiskEvent) error {
	args := m.Called(ctx, tripID, event)
	return args.Error(0)
}

func (m *MockRepository) TouchRiskCheck(ctx context.Context, tripID string, checkedAt time.Time) error {
	args := m.Called(ctx, tripID, checkedAt)
	return args.Error(0)
}
