package models

import "time"

// TripStatus is the lifecycle state of a monitored trip.
// A trip starts active, and moves to alert when a risk rule fires or to
// ended when the user stops tracking. Both alert and ended are final as far
// as risk evaluation is concerned.
type TripStatus string

const (
	TripStatusActive TripStatus = "active"
	TripStatusAlert  TripStatus = "alert"
	TripStatusEnded  TripStatus = "ended"
)

// LocationSource tags where a location fix came from.
type LocationSource string

const (
	LocationSourceGPS      LocationSource = "gps"
	LocationSourceCellular LocationSource = "cellular_unwiredlabs"
)

// LocationPoint is a single immutable location fix in a trip's log.
type LocationPoint struct {
	ID             string         `json:"id" db:"id"`
	Latitude       float64        `json:"latitude" db:"latitude"`
	Longitude      float64        `json:"longitude" db:"longitude"`
	Timestamp      time.Time      `json:"timestamp" db:"recorded_at"`
	Accuracy       float64        `json:"accuracy" db:"accuracy"`
	Source         LocationSource `json:"source" db:"source"`
	AccuracyRadius *float64       `json:"accuracy_radius,omitempty" db:"accuracy_radius"`
}

// MotionEvent is a single immutable motion-sensor reading. IsPanic is
// derived once at ingestion time from the configured variance thresholds.
type MotionEvent struct {
	ID            string    `json:"id" db:"id"`
	Timestamp     time.Time `json:"timestamp" db:"recorded_at"`
	AccelVariance float64   `json:"accel_variance" db:"accel_variance"`
	GyroVariance  float64   `json:"gyro_variance" db:"gyro_variance"`
	IsPanic       bool      `json:"is_panic" db:"is_panic"`
}

// RiskEvent is the engine's output when a rule fires. It is created once
// and never mutated after being appended to the trip's risk log.
type RiskEvent struct {
	ID                  string         `json:"id" db:"id"`
	Timestamp           time.Time      `json:"timestamp" db:"detected_at"`
	RuleName            string         `json:"rule_name" db:"rule_name"`
	ContributingSignals []string       `json:"contributing_signals" db:"contributing_signals"`
	Confidence          float64        `json:"confidence" db:"confidence"`
	LastKnownLocation   *LocationPoint `json:"last_known_location,omitempty" db:"last_known_location"`
	AlertSent           bool           `json:"alert_sent" db:"alert_sent"`
	SMSSent             bool           `json:"sms_sent" db:"sms_sent"`
	PushSent            bool           `json:"push_sent" db:"push_sent"`
}

// Trip is the unit of consistency: all windowing and rule evaluation
// operates on one trip's logs as of the moment the engine is invoked.
type Trip struct {
	ID               string          `json:"id" db:"id"`
	UserID           string          `json:"user_id" db:"user_id"`
	Status           TripStatus      `json:"status" db:"status"`
	StartTime        time.Time       `json:"start_time" db:"start_time"`
	EndTime          *time.Time      `json:"end_time,omitempty" db:"end_time"`
	GuardianPhone    *string         `json:"guardian_phone,omitempty" db:"guardian_phone"`
	GuardianFCMToken *string         `json:"guardian_fcm_token,omitempty" db:"guardian_fcm_token"`
	Locations        []LocationPoint `json:"locations"`
	MotionEvents     []MotionEvent   `json:"motion_events"`
	RiskEvents       []RiskEvent     `json:"risk_events"`
	LastRiskCheck    *time.Time      `json:"last_risk_check,omitempty" db:"last_risk_check"`
}

// TripSnapshot is the immutable view the risk engine evaluates. The signal
// logs are ordered ascending by timestamp (append order).
type TripSnapshot struct {
	Status           TripStatus
	GuardianPhone    *string
	GuardianFCMToken *string
	Locations        []LocationPoint
	MotionEvents     []MotionEvent
}

// GuardianContact is the trusted contact reachable on detection. Both
// fields are optional; dispatch with neither set is a valid no-op.
type GuardianContact struct {
	Phone    *string
	FCMToken *string
}

// Snapshot returns the engine's view of the trip at this instant.
func (t *Trip) Snapshot() TripSnapshot {
	return TripSnapshot{
		Status:           t.Status,
		GuardianPhone:    t.GuardianPhone,
		GuardianFCMToken: t.GuardianFCMToken,
		Locations:        t.Locations,
		MotionEvents:     t.MotionEvents,
	}
}

// Guardian returns the trip's guardian contact info.
func (t *Trip) Guardian() GuardianContact {
	return GuardianContact{Phone: t.GuardianPhone, FCMToken: t.GuardianFCMToken}
}

// TripSummary is the compact listing shape for active trips.
type TripSummary struct {
	ID        string     `json:"id" db:"id"`
	StartTime time.Time  `json:"start_time" db:"start_time"`
	Status    TripStatus `json:"status" db:"status"`
}

// TripDebugInfo exposes the current tracking state of a trip for the
// debug endpoint.
type TripDebugInfo struct {
	TripID             string         `json:"trip_id"`
	Status             TripStatus     `json:"status"`
	TrackingSource     string         `json:"tracking_source"`
	Accuracy           float64        `json:"accuracy"`
	AccuracyRadius     *float64       `json:"accuracy_radius,omitempty"`
	TotalLocations     int            `json:"total_locations"`
	TotalMotionEvents  int            `json:"total_motion_events"`
	MotionStatus       string         `json:"motion_status"`
	LastRiskRule       *string        `json:"last_risk_rule"`
	LastRiskConfidence *float64       `json:"last_risk_confidence"`
	GuardianPhone      string         `json:"guardian_phone"`
	LastLocation       *LocationPoint `json:"last_location,omitempty"`
}
