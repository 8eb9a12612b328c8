package geolocate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const (
	unwiredLabsEndpoint = "https://us1.unwiredlabs.com/v2/process.php"

	// Cell-tower lookups for the same tower churn the API balance; a short
	// cache absorbs the bursts that happen when GPS drops out.
	cacheTTL     = 30 * time.Second
	cacheCleanup = time.Minute
)

// CellQuery identifies the serving cell for a triangulation lookup. All
// four identifiers must be present; otherwise the resolver falls back to
// IP geolocation.
type CellQuery struct {
	MCC            *int
	MNC            *int
	LAC            *int
	CID            *int
	SignalStrength *int
}

func (q CellQuery) hasCellData() bool {
	return q.MCC != nil && q.MNC != nil && q.LAC != nil && q.CID != nil
}

func (q CellQuery) cacheKey() string {
	return fmt.Sprintf("cell:%d:%d:%d:%d", *q.MCC, *q.MNC, *q.LAC, *q.CID)
}

// Fix is an approximate location fix from the triangulation provider.
// Cellular and IP fixes are never allowed to override good GPS data; the
// caller appends them as cellular-sourced points only.
type Fix struct {
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	AccuracyRadius float64 `json:"accuracy_radius"`
	Method         string  `json:"method"`
	Balance        *int    `json:"balance,omitempty"`
}

// NoMatchError is returned when the provider could not determine a
// location. It is not a transport failure; the caller reports it as such.
type NoMatchError struct {
	Message string
	Balance *int
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("no location match: %s", e.Message)
}

// Resolver turns cell or IP hints into an approximate location.
type Resolver interface {
	Resolve(ctx context.Context, query CellQuery) (*Fix, error)
}

// UnwiredLabsClient resolves locations via the Unwired Labs API. Without a
// token it returns a fixed demo location so the rest of the pipeline stays
// exercisable in development.
type UnwiredLabsClient struct {
	token      string
	httpClient *http.Client
	cache      *cache.Cache
	logger     *zap.Logger
}

var _ Resolver = (*UnwiredLabsClient)(nil)

func NewUnwiredLabsClient(token string, httpClient *http.Client, logger *zap.Logger) *UnwiredLabsClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &UnwiredLabsClient{
		token:      token,
		httpClient: httpClient,
		cache:      cache.New(cacheTTL, cacheCleanup),
		logger:     logger,
	}
}

type unwiredRequest struct {
	Token     string         `json:"token"`
	Address   int            `json:"address"`
	Radio     string         `json:"radio,omitempty"`
	MCC       *int           `json:"mcc,omitempty"`
	MNC       *int           `json:"mnc,omitempty"`
	Cells     []unwiredCell  `json:"cells,omitempty"`
	Fallbacks map[string]any `json:"fallbacks,omitempty"`
}

type unwiredCell struct {
	LAC    int `json:"lac"`
	CID    int `json:"cid"`
	Signal int `json:"signal"`
}

type unwiredResponse struct {
	Status   string  `json:"status"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Accuracy float64 `json:"accuracy"`
	Balance  *int    `json:"balance"`
	Message  string  `json:"message"`
}

func (c *UnwiredLabsClient) Resolve(ctx context.Context, query CellQuery) (*Fix, error) {
	if c.token == "" || c.token == "demo_key" {
		c.logger.Warn("Unwired Labs API key not configured, using demo response")
		return &Fix{
			Latitude:       28.6139,
			Longitude:      77.2090,
			AccuracyRadius: 1000,
			Method:         "demo_mode",
		}, nil
	}

	if query.hasCellData() {
		if cached, ok := c.cache.Get(query.cacheKey()); ok {
			fix := cached.(Fix)
			return &fix, nil
		}
	}

	payload := unwiredRequest{Token: c.token, Address: 0}
	method := "ip_geolocation"
	if query.hasCellData() {
		method = "cell_tower"
		signal := -70
		if query.SignalStrength != nil {
			signal = *query.SignalStrength
		}
		payload.Radio = "gsm"
		payload.MCC = query.MCC
		payload.MNC = query.MNC
		payload.Cells = []unwiredCell{{LAC: *query.LAC, CID: *query.CID, Signal: signal}}
	} else {
		payload.Fallbacks = map[string]any{"all": true, "ipf": 1}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding triangulation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, unwiredLabsEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building triangulation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("triangulation request: %w", err)
	}
	defer resp.Body.Close()

	var result unwiredResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding triangulation response: %w", err)
	}

	if result.Status != "ok" {
		c.logger.Warn("Unwired Labs returned no match",
			zap.String("message", result.Message))
		return nil, &NoMatchError{Message: result.Message, Balance: result.Balance}
	}

	accuracy := result.Accuracy
	if accuracy == 0 {
		accuracy = 5000 // IP fixes come back without an accuracy estimate
	}

	fix := Fix{
		Latitude:       result.Lat,
		Longitude:      result.Lon,
		AccuracyRadius: accuracy,
		Method:         method,
		Balance:        result.Balance,
	}
	if query.hasCellData() {
		c.cache.Set(query.cacheKey(), fix, cache.DefaultExpiration)
	}

	c.logger.Info("Triangulation successful",
		zap.String("method", method),
		zap.Float64("lat", fix.Latitude),
		zap.Float64("lon", fix.Longitude),
		zap.Float64("accuracy", fix.AccuracyRadius))

	return &fix, nil
}
