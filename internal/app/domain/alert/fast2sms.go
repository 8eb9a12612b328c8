package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tripwatch/internal/app/models"
)

const fast2smsEndpoint = "https://www.fast2sms.com/dev/bulkV2"

// Fast2SMSClient sends guardian SMS alerts through the Fast2SMS bulk API.
// Without an API key it runs in demo mode: the message is logged and the
// send is treated as successful, matching the development setup.
type Fast2SMSClient struct {
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

var _ SMSSender = (*Fast2SMSClient)(nil)

func NewFast2SMSClient(apiKey string, httpClient *http.Client, logger *zap.Logger) *Fast2SMSClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Fast2SMSClient{apiKey: apiKey, httpClient: httpClient, logger: logger}
}

type fast2smsResponse struct {
	Return     bool `json:"return"`
	StatusCode int  `json:"status_code"`
	Message    any  `json:"message"`
}

// Send delivers one SMS. The location, when present, is appended as a
// Google Maps link so the guardian can open it directly.
func (c *Fast2SMSClient) Send(ctx context.Context, phone, message string, location *models.LocationPoint) error {
	fullMessage := message
	if location != nil {
		fullMessage += fmt.Sprintf(" Location: https://maps.google.com/?q=%f,%f", location.Latitude, location.Longitude)
	}

	if c.apiKey == "" || c.apiKey == "demo_key" {
		c.logger.Warn("Fast2SMS API key not configured, SMS alert simulated",
			zap.String("phone", phone),
			zap.String("message", fullMessage))
		return nil
	}

	payload := url.Values{}
	payload.Set("route", "q")
	payload.Set("message", fullMessage)
	payload.Set("language", "english")
	payload.Set("flash", "0")
	payload.Set("numbers", normalizePhone(phone))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fast2smsEndpoint, strings.NewReader(payload.Encode()))
	if err != nil {
		return fmt.Errorf("building fast2sms request: %w", err)
	}
	req.Header.Set("authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fast2sms request: %w", err)
	}
	defer resp.Body.Close()

	var result fast2smsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decoding fast2sms response: %w", err)
	}
	if !result.Return && result.StatusCode != http.StatusOK {
		return fmt.Errorf("fast2sms rejected message: %v", result.Message)
	}

	c.logger.Info("SMS alert sent", zap.String("phone", phone))
	return nil
}

// normalizePhone strips formatting and the Indian country prefix, which
// the quick-SMS route does not accept.
func normalizePhone(phone string) string {
	clean := strings.ReplaceAll(strings.ReplaceAll(phone, "+", ""), " ", "")
	if strings.HasPrefix(clean, "91") && len(clean) > 10 {
		clean = clean[2:]
	}
	return clean
}
