package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

const fcmEndpoint = "https://fcm.googleapis.com/fcm/send"

// FCMClient sends guardian push notifications through Firebase Cloud
// Messaging. Without a server key the delivery is simulated and treated as
// successful.
type FCMClient struct {
	serverKey  string
	httpClient *http.Client
	logger     *zap.Logger
}

var _ PushSender = (*FCMClient)(nil)

func NewFCMClient(serverKey string, httpClient *http.Client, logger *zap.Logger) *FCMClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &FCMClient{serverKey: serverKey, httpClient: httpClient, logger: logger}
}

type fcmMessage struct {
	To           string          `json:"to"`
	Notification fcmNotification `json:"notification"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Send delivers one push notification to the guardian's device token.
func (c *FCMClient) Send(ctx context.Context, token, title, body string) error {
	if c.serverKey == "" {
		prefix := token
		if len(prefix) > 20 {
			prefix = prefix[:20]
		}
		c.logger.Info("FCM server key not configured, push simulated",
			zap.String("token_prefix", prefix),
			zap.String("title", title))
		return nil
	}

	payload, err := json.Marshal(fcmMessage{
		To:           token,
		Notification: fcmNotification{Title: title, Body: body},
	})
	if err != nil {
		return fmt.Errorf("encoding fcm message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fcmEndpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building fcm request: %w", err)
	}
	req.Header.Set("Authorization", "key="+c.serverKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fcm request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fcm returned status %d", resp.StatusCode)
	}

	c.logger.Info("Push notification sent")
	return nil
}
