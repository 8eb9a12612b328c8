package trip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FACorreiaa/go-tripwatch/internal/app/models"
)

// ErrTripNotFound is returned when a trip id resolves to nothing.
var ErrTripNotFound = errors.New("trip not found")

type Repository interface {
	CreateTrip(ctx context.Context, trip *models.Trip) error
	GetTrip(ctx context.Context, tripID string) (*models.Trip, error)
	EndTrip(ctx context.Context, tripID string, endTime time.Time) error
	UpdateGuardian(ctx context.Context, tripID string, phone, fcmToken *string) error
	ListActiveTrips(ctx context.Context, limit int) ([]models.TripSummary, error)

	AppendLocation(ctx context.Context, tripID string, point models.LocationPoint) error
	AppendMotionEvent(ctx context.Context, tripID string, event models.MotionEvent) error

	// BeginAlert atomically moves an active trip to alert and stamps the
	// risk check. It reports whether this caller won the transition, so
	// concurrent evaluation cycles cannot both dispatch.
	BeginAlert(ctx context.Context, tripID string, checkedAt time.Time) (bool, error)
	AppendRiskEvent(ctx context.Context, tripID string, event models.RiskEvent) error
	TouchRiskCheck(ctx context.Context, tripID string, checkedAt time.Time) error
}

type RepositoryImpl struct {
	db *pgxpool.Pool
	sb sq.StatementBuilderType
}

var _ Repository = (*RepositoryImpl)(nil)

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *RepositoryImpl) CreateTrip(ctx context.Context, trip *models.Trip) error {
	query := `
		INSERT INTO trips (id, user_id, status, start_time, guardian_phone, guardian_fcm_token)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query,
		trip.ID,
		trip.UserID,
		trip.Status,
		trip.StartTime,
		trip.GuardianPhone,
		trip.GuardianFCMToken,
	)
	return err
}

// GetTrip loads the trip row and its three append-only logs, each ordered
// ascending by timestamp.
func (r *RepositoryImpl) GetTrip(ctx context.Context, tripID string) (*models.Trip, error) {
	var t models.Trip
	query := `
		SELECT id, user_id, status, start_time, end_time, guardian_phone, guardian_fcm_token, last_risk_check
		FROM trips
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, tripID).Scan(
		&t.ID,
		&t.UserID,
		&t.Status,
		&t.StartTime,
		&t.EndTime,
		&t.GuardianPhone,
		&t.GuardianFCMToken,
		&t.LastRiskCheck,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}

	if t.Locations, err = r.tripLocations(ctx, tripID); err != nil {
		return nil, err
	}
	if t.MotionEvents, err = r.tripMotionEvents(ctx, tripID); err != nil {
		return nil, err
	}
	if t.RiskEvents, err = r.tripRiskEvents(ctx, tripID); err != nil {
		return nil, err
	}

	return &t, nil
}

func (r *RepositoryImpl) tripLocations(ctx context.Context, tripID string) ([]models.LocationPoint, error) {
	query := `
		SELECT id, latitude, longitude, accuracy, source, accuracy_radius, recorded_at
		FROM trip_locations
		WHERE trip_id = $1
		ORDER BY recorded_at ASC
	`
	rows, err := r.db.Query(ctx, query, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []models.LocationPoint
	for rows.Next() {
		var p models.LocationPoint
		err := rows.Scan(
			&p.ID,
			&p.Latitude,
			&p.Longitude,
			&p.Accuracy,
			&p.Source,
			&p.AccuracyRadius,
			&p.Timestamp,
		)
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}

	return points, rows.Err()
}

func (r *RepositoryImpl) tripMotionEvents(ctx context.Context, tripID string) ([]models.MotionEvent, error) {
	query := `
		SELECT id, accel_variance, gyro_variance, is_panic, recorded_at
		FROM trip_motion_events
		WHERE trip_id = $1
		ORDER BY recorded_at ASC
	`
	rows, err := r.db.Query(ctx, query, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.MotionEvent
	for rows.Next() {
		var e models.MotionEvent
		err := rows.Scan(
			&e.ID,
			&e.AccelVariance,
			&e.GyroVariance,
			&e.IsPanic,
			&e.Timestamp,
		)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	return events, rows.Err()
}

func (r *RepositoryImpl) tripRiskEvents(ctx context.Context, tripID string) ([]models.RiskEvent, error) {
	query := `
		SELECT id, rule_name, contributing_signals, confidence, last_known_location,
		       push_sent, sms_sent, alert_sent, detected_at
		FROM trip_risk_events
		WHERE trip_id = $1
		ORDER BY detected_at ASC
	`
	rows, err := r.db.Query(ctx, query, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.RiskEvent
	for rows.Next() {
		var e models.RiskEvent
		var location []byte
		err := rows.Scan(
			&e.ID,
			&e.RuleName,
			&e.ContributingSignals,
			&e.Confidence,
			&location,
			&e.PushSent,
			&e.SMSSent,
			&e.AlertSent,
			&e.Timestamp,
		)
		if err != nil {
			return nil, err
		}
		if len(location) > 0 {
			if err := json.Unmarshal(location, &e.LastKnownLocation); err != nil {
				return nil, fmt.Errorf("decoding risk event location: %w", err)
			}
		}
		events = append(events, e)
	}

	return events, rows.Err()
}

func (r *RepositoryImpl) EndTrip(ctx context.Context, tripID string, endTime time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE trips SET status = $2, end_time = $3 WHERE id = $1`,
		tripID, models.TripStatusEnded, endTime,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTripNotFound
	}
	return nil
}

// UpdateGuardian patches only the provided contact fields.
func (r *RepositoryImpl) UpdateGuardian(ctx context.Context, tripID string, phone, fcmToken *string) error {
	builder := r.sb.Update("trips").Where(sq.Eq{"id": tripID})
	if phone != nil {
		builder = builder.Set("guardian_phone", *phone)
	}
	if fcmToken != nil {
		builder = builder.Set("guardian_fcm_token", *fcmToken)
	}
	if phone == nil && fcmToken == nil {
		return nil
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTripNotFound
	}
	return nil
}

func (r *RepositoryImpl) ListActiveTrips(ctx context.Context, limit int) ([]models.TripSummary, error) {
	query, args, err := r.sb.
		Select("id", "start_time", "status").
		From("trips").
		Where(sq.Eq{"status": models.TripStatusActive}).
		OrderBy("start_time DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []models.TripSummary
	for rows.Next() {
		var t models.TripSummary
		if err := rows.Scan(&t.ID, &t.StartTime, &t.Status); err != nil {
			return nil, err
		}
		trips = append(trips, t)
	}

	return trips, rows.Err()
}

func (r *RepositoryImpl) AppendLocation(ctx context.Context, tripID string, point models.LocationPoint) error {
	query := `
		INSERT INTO trip_locations (id, trip_id, latitude, longitude, accuracy, source, accuracy_radius, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		point.ID,
		tripID,
		point.Latitude,
		point.Longitude,
		point.Accuracy,
		point.Source,
		point.AccuracyRadius,
		point.Timestamp,
	)
	return err
}

func (r *RepositoryImpl) AppendMotionEvent(ctx context.Context, tripID string, event models.MotionEvent) error {
	query := `
		INSERT INTO trip_motion_events (id, trip_id, accel_variance, gyro_variance, is_panic, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query,
		event.ID,
		tripID,
		event.AccelVariance,
		event.GyroVariance,
		event.IsPanic,
		event.Timestamp,
	)
	return err
}

// BeginAlert serializes concurrent evaluation cycles with a conditional
// update: only the caller that still observes status = active wins.
func (r *RepositoryImpl) BeginAlert(ctx context.Context, tripID string, checkedAt time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE trips SET status = $2, last_risk_check = $3 WHERE id = $1 AND status = $4`,
		tripID, models.TripStatusAlert, checkedAt, models.TripStatusActive,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *RepositoryImpl) AppendRiskEvent(ctx context.Context, tripID string, event models.RiskEvent) error {
	var location []byte
	if event.LastKnownLocation != nil {
		encoded, err := json.Marshal(event.LastKnownLocation)
		if err != nil {
			return fmt.Errorf("encoding risk event location: %w", err)
		}
		location = encoded
	}

	query := `
		INSERT INTO trip_risk_events (id, trip_id, rule_name, contributing_signals, confidence,
		                              last_known_location, push_sent, sms_sent, alert_sent, detected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.Exec(ctx, query,
		event.ID,
		tripID,
		event.RuleName,
		event.ContributingSignals,
		event.Confidence,
		location,
		event.PushSent,
		event.SMSSent,
		event.AlertSent,
		event.Timestamp,
	)
	return err
}

func (r *RepositoryImpl) TouchRiskCheck(ctx context.Context, tripID string, checkedAt time.Time) error {
	_, err := r.db.Exec(ctx,
		`UPDATE trips SET last_risk_check = $2 WHERE id = $1`,
		tripID, checkedAt,
	)
	return err
}
