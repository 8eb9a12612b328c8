package alert

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tripwatch/internal/app/models"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		phone string
		want  string
	}{
		{"plain ten digits", "9876543210", "9876543210"},
		{"with country code", "919876543210", "9876543210"},
		{"with plus prefix", "+919876543210", "9876543210"},
		{"with spaces", "+91 98765 43210", "9876543210"},
		{"short number starting with 91", "9198765432", "9198765432"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizePhone(tt.phone))
		})
	}
}

func TestFast2SMS_DemoModeSucceedsWithoutKey(t *testing.T) {
	client := NewFast2SMSClient("", nil, zap.NewNop())

	err := client.Send(context.Background(), "9876543210", "test alert", nil)
	assert.NoError(t, err)
}

func TestFast2SMS_SendsFormPayloadWithLocationLink(t *testing.T) {
	var captured string
	httpClient := &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		body, _ := io.ReadAll(req.Body)
		captured = string(body)

		assert.Equal(t, "real-key", req.Header.Get("authorization"))
		assert.Equal(t, "application/x-www-form-urlencoded", req.Header.Get("Content-Type"))

		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{"return": true, "status_code": 200}`)),
		}, nil
	})}

	client := NewFast2SMSClient("real-key", httpClient, zap.NewNop())
	location := &models.LocationPoint{Latitude: 28.6139, Longitude: 77.2090}

	err := client.Send(context.Background(), "+919876543210", "alert body", location)

	require.NoError(t, err)
	assert.Contains(t, captured, "numbers=9876543210")
	assert.Contains(t, captured, "maps.google.com")
	assert.Contains(t, captured, "route=q")
}

func TestFast2SMS_RejectionReturnsError(t *testing.T) {
	httpClient := &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusBadRequest,
			Body:       io.NopCloser(strings.NewReader(`{"return": false, "status_code": 400, "message": "invalid number"}`)),
		}, nil
	})}

	client := NewFast2SMSClient("real-key", httpClient, zap.NewNop())

	err := client.Send(context.Background(), "123", "alert body", nil)
	assert.Error(t, err)
}
