package alert

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/go-tripwatch/internal/app/models"
)

// PushSender delivers a push notification to a device token.
type PushSender interface {
	Send(ctx context.Context, token, title, body string) error
}

// SMSSender delivers a text message, optionally with a location link.
type SMSSender interface {
	Send(ctx context.Context, phone, message string, location *models.LocationPoint) error
}

// Outcome carries the per-channel delivery results of one dispatch.
type Outcome struct {
	PushSent bool `json:"push_sent"`
	SMSSent  bool `json:"sms_sent"`
}

// AlertSent reports whether any channel got through.
func (o Outcome) AlertSent() bool { return o.PushSent || o.SMSSent }

const defaultChannelTimeout = 10 * time.Second

// Dispatcher fans a risk alert out to the guardian. Push is the primary
// channel and SMS is a mandatory fallback: whenever a phone number exists
// SMS is attempted regardless of the push outcome. Both channels run
// concurrently with a bounded per-channel timeout, and transport failures
// are absorbed into a false outcome, never propagated.
type Dispatcher struct {
	push           PushSender
	sms            SMSSender
	channelTimeout time.Duration
	logger         *zap.Logger
}

// NewDispatcher builds a dispatcher. A non-positive timeout falls back to
// the default.
func NewDispatcher(push PushSender, sms SMSSender, channelTimeout time.Duration, logger *zap.Logger) *Dispatcher {
	if channelTimeout <= 0 {
		channelTimeout = defaultChannelTimeout
	}
	return &Dispatcher{
		push:           push,
		sms:            sms,
		channelTimeout: channelTimeout,
		logger:         logger,
	}
}

// Dispatch attempts both channels for the given contact. Missing contact
// info is not an error; the corresponding outcome is simply false.
func (d *Dispatcher) Dispatch(ctx context.Context, contact models.GuardianContact, event *models.RiskEvent) Outcome {
	var outcome Outcome

	message := fmt.Sprintf("NIRBHAY ALERT: Potential risk detected. Rule: %s. User may need help.", event.RuleName)

	g := new(errgroup.Group)
	if contact.FCMToken != nil && *contact.FCMToken != "" {
		token := *contact.FCMToken
		g.Go(func() error {
			outcome.PushSent = d.attempt(ctx, "push", func(cctx context.Context) error {
				return d.push.Send(cctx, token, "Safety Alert", message)
			})
			return nil
		})
	}
	if contact.Phone != nil && *contact.Phone != "" {
		phone := *contact.Phone
		g.Go(func() error {
			outcome.SMSSent = d.attempt(ctx, "sms", func(cctx context.Context) error {
				return d.sms.Send(cctx, phone, message, event.LastKnownLocation)
			})
			return nil
		})
	}
	_ = g.Wait()

	d.logger.Info("Alert dispatch finished",
		zap.String("rule", event.RuleName),
		zap.Bool("push_sent", outcome.PushSent),
		zap.Bool("sms_sent", outcome.SMSSent))

	return outcome
}

// attempt runs one channel call under the per-channel timeout. A hung
// provider must not block trip-state progress, so the call runs in its own
// goroutine and a timeout counts as that channel's failure.
func (d *Dispatcher) attempt(ctx context.Context, channel string, fn func(context.Context) error) bool {
	cctx, cancel := context.WithTimeout(ctx, d.channelTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("%s sender panicked: %v", channel, r)
			}
		}()
		done <- fn(cctx)
	}()

	select {
	case err := <-done:
		if err != nil {
			d.logger.Error("Alert channel failed", zap.String("channel", channel), zap.Error(err))
			return false
		}
		return true
	case <-cctx.Done():
		d.logger.Error("Alert channel timed out", zap.String("channel", channel), zap.Duration("timeout", d.channelTimeout))
		return false
	}
}
