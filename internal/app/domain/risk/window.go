package risk

import (
	"time"

	"github.com/FACorreiaa/go-tripwatch/internal/app/models"
)

// Windows holds the time-bounded views the rules operate on. Ordering
// within each view matches input order (ascending timestamp).
type Windows struct {
	RecentLocations  []models.LocationPoint
	RecentMotion     []models.MotionEvent
	VeryRecentMotion []models.MotionEvent
}

// ExtractWindows derives the recent (60s) and very recent (30s) signal
// views relative to now. Empty history yields empty views, not an error.
func ExtractWindows(locations []models.LocationPoint, motion []models.MotionEvent, now time.Time, recent, veryRecent time.Duration) Windows {
	var w Windows

	recentCutoff := now.Add(-recent)
	veryRecentCutoff := now.Add(-veryRecent)

	for _, loc := range locations {
		if loc.Timestamp.After(recentCutoff) {
			w.RecentLocations = append(w.RecentLocations, loc)
		}
	}
	for _, m := range motion {
		if m.Timestamp.After(recentCutoff) {
			w.RecentMotion = append(w.RecentMotion, m)
		}
		if m.Timestamp.After(veryRecentCutoff) {
			w.VeryRecentMotion = append(w.VeryRecentMotion, m)
		}
	}

	return w
}

// sanitizeLocations drops malformed records (zero timestamp, out-of-range
// coordinates) so a trip with some corrupt history is still evaluable on
// its valid subset.
func sanitizeLocations(locations []models.LocationPoint) []models.LocationPoint {
	valid := locations[:0:0]
	for _, loc := range locations {
		if loc.Timestamp.IsZero() || !validCoordinates(loc.Latitude, loc.Longitude) {
			continue
		}
		valid = append(valid, loc)
	}
	return valid
}

// sanitizeMotion drops motion records without a timestamp.
func sanitizeMotion(motion []models.MotionEvent) []models.MotionEvent {
	valid := motion[:0:0]
	for _, m := range motion {
		if m.Timestamp.IsZero() {
			continue
		}
		valid = append(valid, m)
	}
	return valid
}
