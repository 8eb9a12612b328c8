package models

// TripCreateRequest starts a new tracking session.
type TripCreateRequest struct {
	UserID           string  `json:"user_id"`
	GuardianPhone    *string `json:"guardian_phone"`
	GuardianFCMToken *string `json:"guardian_fcm_token"`
}

// LocationInput is a raw location fix posted by the client. The
// coordinates are pointers so presence is validated without rejecting
// legitimate zero values (equator, prime meridian).
type LocationInput struct {
	Latitude       *float64       `json:"latitude" binding:"required"`
	Longitude      *float64       `json:"longitude" binding:"required"`
	Accuracy       float64        `json:"accuracy"`
	Source         LocationSource `json:"source" binding:"omitempty,oneof=gps cellular_unwiredlabs"`
	AccuracyRadius *float64       `json:"accuracy_radius"`
}

// MotionInput is a raw motion-sensor reading posted by the client.
// Panic classification happens at ingestion, not on the device. Zero
// variance is a valid reading (device at rest), so presence is checked
// through pointers.
type MotionInput struct {
	AccelVariance *float64 `json:"accel_variance" binding:"required"`
	GyroVariance  *float64 `json:"gyro_variance" binding:"required"`
}

// GuardianUpdateRequest changes the guardian contact of a trip.
// Nil fields are left untouched.
type GuardianUpdateRequest struct {
	GuardianPhone    *string `json:"guardian_phone"`
	GuardianFCMToken *string `json:"guardian_fcm_token"`
}

// CellularTriangulationRequest asks for a cell-tower or IP-based fix when
// GPS is unavailable. When no cell identifiers are present the resolver
// falls back to IP geolocation.
type CellularTriangulationRequest struct {
	TripID         string `json:"trip_id" binding:"required"`
	MCC            *int   `json:"mcc"`
	MNC            *int   `json:"mnc"`
	LAC            *int   `json:"lac"`
	CID            *int   `json:"cid"`
	SignalStrength *int   `json:"signal_strength"`
	UseIPFallback  bool   `json:"use_ip_fallback"`
}
