package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineDistance(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
		tolerance              float64
	}{
		{"same point", 28.6139, 77.2090, 28.6139, 77.2090, 0, 0.001},
		{"one degree of latitude", 0, 0, 1, 0, 111195, 100},
		{"delhi to mumbai", 28.6139, 77.2090, 19.0760, 72.8777, 1153000, 15000},
		{"short hop", 28.6139, 77.2090, 28.6140, 77.2090, 11.1, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineDistance(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			assert.InDelta(t, tt.want, got, tt.tolerance)
		})
	}
}

func TestHaversineDistance_Symmetric(t *testing.T) {
	a := HaversineDistance(28.6139, 77.2090, 19.0760, 72.8777)
	b := HaversineDistance(19.0760, 72.8777, 28.6139, 77.2090)
	assert.InDelta(t, a, b, 1e-6)
}

func TestValidCoordinates(t *testing.T) {
	assert.True(t, validCoordinates(28.6139, 77.2090))
	assert.True(t, validCoordinates(-90, 180))
	assert.False(t, validCoordinates(90.1, 0))
	assert.False(t, validCoordinates(0, -180.5))
}
