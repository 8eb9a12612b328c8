package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tripwatch/internal/app/domain/alert"
	"github.com/FACorreiaa/go-tripwatch/internal/app/domain/geolocate"
	"github.com/FACorreiaa/go-tripwatch/internal/app/domain/risk"
	"github.com/FACorreiaa/go-tripwatch/internal/app/domain/trip"
	"github.com/FACorreiaa/go-tripwatch/internal/app/models"
	"github.com/FACorreiaa/go-tripwatch/internal/pkg/config"
)

// MockService implements trip.Service for testing
type MockService struct {
	mock.Mock
}

var _ trip.Service = (*MockService)(nil)

func (m *MockService) CreateTrip(ctx context.Context, req models.TripCreateRequest) (*models.Trip, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Trip), args.Error(1)
}

func (m *MockService) GetTrip(ctx context.Context, tripID string) (*models.Trip, error) {
	args := m.Called(ctx, tripID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Trip), args.Error(1)
}

func (m *MockService) EndTrip(ctx context.Context, tripID string) (time.Time, error) {
	args := m.Called(ctx, tripID)
	return args.Get(0).(time.Time), args.Error(1)
}

func (m *MockService) UpdateGuardian(ctx context.Context, tripID string, req models.GuardianUpdateRequest) error {
	args := m.Called(ctx, tripID, req)
	return args.Error(0)
}

func (m *MockService) ListActiveTrips(ctx context.Context) ([]models.TripSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TripSummary), args.Error(1)
}

func (m *MockService) DebugInfo(ctx context.Context, tripID string) (*models.TripDebugInfo, error) {
	args := m.Called(ctx, tripID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TripDebugInfo), args.Error(1)
}

func (m *MockService) RecordLocation(ctx context.Context, tripID string, input models.LocationInput) (*models.LocationPoint, error) {
	args := m.Called(ctx, tripID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LocationPoint), args.Error(1)
}

func (m *MockService) RecordMotion(ctx context.Context, tripID string, input models.MotionInput) (*models.MotionEvent, error) {
	args := m.Called(ctx, tripID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MotionEvent), args.Error(1)
}

func (m *MockService) RecordCellularFix(ctx context.Context, tripID string, point models.LocationPoint) (*models.LocationPoint, error) {
	args := m.Called(ctx, tripID, point)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LocationPoint), args.Error(1)
}

// stubRepo satisfies trip.Repository so the background evaluation cycle in
// signal handlers has somewhere to go. Every trip lookup misses, which
// short-circuits the cycle.
type stubRepo struct{}

func (stubRepo) CreateTrip(context.Context, *models.Trip) error { return nil }
func (stubRepo) GetTrip(context.Context, string) (*models.Trip, error) {
	return nil, trip.ErrTripNotFound
}
func (stubRepo) EndTrip(context.Context, string, time.Time) error               { return nil }
func (stubRepo) UpdateGuardian(context.Context, string, *string, *string) error { return nil }
func (stubRepo) ListActiveTrips(context.Context, int) ([]models.TripSummary, error) {
	return nil, nil
}
func (stubRepo) AppendLocation(context.Context, string, models.LocationPoint) error { return nil }
func (stubRepo) AppendMotionEvent(context.Context, string, models.MotionEvent) error {
	return nil
}
func (stubRepo) BeginAlert(context.Context, string, time.Time) (bool, error)     { return false, nil }
func (stubRepo) AppendRiskEvent(context.Context, string, models.RiskEvent) error { return nil }
func (stubRepo) TouchRiskCheck(context.Context, string, time.Time) error         { return nil }

func setupTestRouter(service trip.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	engine := risk.NewEngine(risk.DefaultConfig(), logger)
	// Demo-mode providers: no keys, no network.
	dispatcher := alert.NewDispatcher(
		alert.NewFCMClient("", nil, logger),
		alert.NewFast2SMSClient("", nil, logger),
		time.Second,
		logger,
	)
	monitor := trip.NewMonitor(stubRepo{}, engine, dispatcher, nil, logger)
	resolver := geolocate.NewUnwiredLabsClient("", nil, logger)

	h := NewTripHandlers(service, monitor, resolver, &config.Config{}, logger)

	r := gin.New()
	api := r.Group("/api")
	api.POST("/trips", h.CreateTrip)
	api.GET("/trips/:id", h.GetTrip)
	api.POST("/trips/:id/end", h.EndTrip)
	api.PUT("/trips/:id/guardian", h.UpdateGuardian)
	api.GET("/trips/active/list", h.ListActiveTrips)
	api.POST("/trips/:id/location", h.AddLocation)
	api.POST("/trips/:id/motion", h.AddMotion)
	api.POST("/cellular-triangulation", h.CellularTriangulation)
	return r
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateTripHandler(t *testing.T) {
	service := new(MockService)
	service.On("CreateTrip", mock.Anything, mock.AnythingOfType("models.TripCreateRequest")).
		Return(&models.Trip{ID: "trip-1", UserID: "user-1", Status: models.TripStatusActive}, nil)

	r := setupTestRouter(service)
	w := doRequest(r, http.MethodPost, "/api/trips", `{"user_id": "user-1"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp models.Trip
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "trip-1", resp.ID)
	assert.Equal(t, models.TripStatusActive, resp.Status)
}

func TestGetTripHandler_NotFound(t *testing.T) {
	service := new(MockService)
	service.On("GetTrip", mock.Anything, "missing").Return(nil, trip.ErrTripNotFound)

	r := setupTestRouter(service)
	w := doRequest(r, http.MethodGet, "/api/trips/missing", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Trip not found")
}

func TestAddLocationHandler(t *testing.T) {
	service := new(MockService)
	service.On("RecordLocation", mock.Anything, "trip-1", mock.AnythingOfType("models.LocationInput")).
		Return(&models.LocationPoint{ID: "loc-1", Latitude: 28.6139, Longitude: 77.2090}, nil)

	r := setupTestRouter(service)
	w := doRequest(r, http.MethodPost, "/api/trips/trip-1/location", `{"latitude": 28.6139, "longitude": 77.2090, "accuracy": 10}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "loc-1")
}

func TestAddLocationHandler_MissingCoordinates(t *testing.T) {
	service := new(MockService)

	r := setupTestRouter(service)
	w := doRequest(r, http.MethodPost, "/api/trips/trip-1/location", `{"accuracy": 10}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	service.AssertNotCalled(t, "RecordLocation", mock.Anything, mock.Anything, mock.Anything)
}

func TestAddLocationHandler_ZeroCoordinateAccepted(t *testing.T) {
	service := new(MockService)
	service.On("RecordLocation", mock.Anything, "trip-1", mock.MatchedBy(func(in models.LocationInput) bool {
		return in.Latitude != nil && *in.Latitude == 0
	})).Return(&models.LocationPoint{ID: "loc-eq", Latitude: 0, Longitude: 77.2090}, nil)

	r := setupTestRouter(service)
	// A fix on the equator is a valid coordinate, not a missing field.
	w := doRequest(r, http.MethodPost, "/api/trips/trip-1/location", `{"latitude": 0, "longitude": 77.2090}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "loc-eq")
	service.AssertExpectations(t)
}

func TestAddLocationHandler_UnknownSourceRejected(t *testing.T) {
	service := new(MockService)

	r := setupTestRouter(service)
	w := doRequest(r, http.MethodPost, "/api/trips/trip-1/location",
		`{"latitude": 28.6139, "longitude": 77.2090, "source": "wifi"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	service.AssertNotCalled(t, "RecordLocation", mock.Anything, mock.Anything, mock.Anything)
}

func TestAddLocationHandler_TripEnded(t *testing.T) {
	service := new(MockService)
	service.On("RecordLocation", mock.Anything, "trip-1", mock.Anything).Return(nil, trip.ErrTripNotActive)

	r := setupTestRouter(service)
	w := doRequest(r, http.MethodPost, "/api/trips/trip-1/location", `{"latitude": 28.6139, "longitude": 77.2090}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "not active")
}

func TestAddMotionHandler(t *testing.T) {
	service := new(MockService)
	service.On("RecordMotion", mock.Anything, "trip-1", mock.AnythingOfType("models.MotionInput")).
		Return(&models.MotionEvent{ID: "mot-1", IsPanic: true}, nil)

	r := setupTestRouter(service)
	w := doRequest(r, http.MethodPost, "/api/trips/trip-1/motion", `{"accel_variance": 3.2, "gyro_variance": 0.9}`)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["is_panic"])
}

func TestAddMotionHandler_ZeroVarianceAccepted(t *testing.T) {
	service := new(MockService)
	service.On("RecordMotion", mock.Anything, "trip-1", mock.MatchedBy(func(in models.MotionInput) bool {
		return in.AccelVariance != nil && *in.AccelVariance == 0
	})).Return(&models.MotionEvent{ID: "mot-rest", IsPanic: false}, nil)

	r := setupTestRouter(service)
	// A device at rest reports zero variance; that is a reading, not an
	// absent field.
	w := doRequest(r, http.MethodPost, "/api/trips/trip-1/motion", `{"accel_variance": 0, "gyro_variance": 0.1}`)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["is_panic"])
	service.AssertExpectations(t)
}

func TestCellularTriangulationHandler_DemoMode(t *testing.T) {
	service := new(MockService)
	service.On("GetTrip", mock.Anything, "trip-1").
		Return(&models.Trip{ID: "trip-1", Status: models.TripStatusActive}, nil)
	service.On("RecordCellularFix", mock.Anything, "trip-1", mock.AnythingOfType("models.LocationPoint")).
		Return(&models.LocationPoint{ID: "loc-2", Source: models.LocationSourceCellular}, nil)

	r := setupTestRouter(service)
	w := doRequest(r, http.MethodPost, "/api/cellular-triangulation",
		`{"trip_id": "trip-1", "mcc": 404, "mnc": 10, "lac": 311, "cid": 17811}`)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp["status"])
	assert.Equal(t, "demo_mode", resp["method"])
	service.AssertExpectations(t)
}

func TestUpdateGuardianHandler(t *testing.T) {
	service := new(MockService)
	service.On("UpdateGuardian", mock.Anything, "trip-1", mock.AnythingOfType("models.GuardianUpdateRequest")).Return(nil)

	r := setupTestRouter(service)
	w := doRequest(r, http.MethodPut, "/api/trips/trip-1/guardian", `{"guardian_phone": "9876543210"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	service.AssertExpectations(t)
}

func TestListActiveTripsHandler_EmptyListNotNull(t *testing.T) {
	service := new(MockService)
	service.On("ListActiveTrips", mock.Anything).Return([]models.TripSummary{}, nil)

	r := setupTestRouter(service)
	w := doRequest(r, http.MethodGet, "/api/trips/active/list", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
}
