package alert

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tripwatch/internal/app/models"
)

type MockPushSender struct {
	mock.Mock
}

func (m *MockPushSender) Send(ctx context.Context, token, title, body string) error {
	args := m.Called(ctx, token, title, body)
	return args.Error(0)
}

type MockSMSSender struct {
	mock.Mock
}

func (m *MockSMSSender) Send(ctx context.Context, phone, message string, location *models.LocationPoint) error {
	args := m.Called(ctx, phone, message, location)
	return args.Error(0)
}

func strPtr(s string) *string { return &s }

func testEvent() *models.RiskEvent {
	return &models.RiskEvent{
		ID:         "evt-1",
		Timestamp:  time.Now(),
		RuleName:   "SUSTAINED_PANIC_MOVEMENT",
		Confidence: 0.90,
	}
}

func TestDispatch_BothChannelsSucceed(t *testing.T) {
	push := new(MockPushSender)
	sms := new(MockSMSSender)
	push.On("Send", mock.Anything, "token-1", mock.Anything, mock.Anything).Return(nil)
	sms.On("Send", mock.Anything, "9876543210", mock.Anything, mock.Anything).Return(nil)

	d := NewDispatcher(push, sms, time.Second, zap.NewNop())
	contact := models.GuardianContact{Phone: strPtr("9876543210"), FCMToken: strPtr("token-1")}

	outcome := d.Dispatch(context.Background(), contact, testEvent())

	assert.True(t, outcome.PushSent)
	assert.True(t, outcome.SMSSent)
	assert.True(t, outcome.AlertSent())
	push.AssertExpectations(t)
	sms.AssertExpectations(t)
}

func TestDispatch_SMSAttemptedWhenPushFails(t *testing.T) {
	push := new(MockPushSender)
	sms := new(MockSMSSender)
	push.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("fcm unreachable"))
	sms.On("Send", mock.Anything, "9876543210", mock.Anything, mock.Anything).Return(nil)

	d := NewDispatcher(push, sms, time.Second, zap.NewNop())
	contact := models.GuardianContact{Phone: strPtr("9876543210"), FCMToken: strPtr("token-1")}

	outcome := d.Dispatch(context.Background(), contact, testEvent())

	assert.False(t, outcome.PushSent)
	assert.True(t, outcome.SMSSent)
	assert.True(t, outcome.AlertSent())
	sms.AssertExpectations(t)
}

func TestDispatch_NoContactIsNoOp(t *testing.T) {
	push := new(MockPushSender)
	sms := new(MockSMSSender)

	d := NewDispatcher(push, sms, time.Second, zap.NewNop())

	outcome := d.Dispatch(context.Background(), models.GuardianContact{}, testEvent())

	assert.False(t, outcome.PushSent)
	assert.False(t, outcome.SMSSent)
	assert.False(t, outcome.AlertSent())
	push.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	sms.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatch_HungChannelTimesOut(t *testing.T) {
	push := new(MockPushSender)
	sms := new(MockSMSSender)
	push.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { time.Sleep(500 * time.Millisecond) }).
		Return(nil)
	sms.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	d := NewDispatcher(push, sms, 50*time.Millisecond, zap.NewNop())
	contact := models.GuardianContact{Phone: strPtr("9876543210"), FCMToken: strPtr("token-1")}

	start := time.Now()
	outcome := d.Dispatch(context.Background(), contact, testEvent())

	assert.False(t, outcome.PushSent)
	assert.True(t, outcome.SMSSent)
	assert.Less(t, time.Since(start), 400*time.Millisecond)
}

func TestDispatch_SenderPanicAbsorbed(t *testing.T) {
	push := new(MockPushSender)
	sms := new(MockSMSSender)
	push.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { panic("boom") }).
		Return(nil)
	sms.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	d := NewDispatcher(push, sms, time.Second, zap.NewNop())
	contact := models.GuardianContact{Phone: strPtr("9876543210"), FCMToken: strPtr("token-1")}

	outcome := d.Dispatch(context.Background(), contact, testEvent())

	assert.False(t, outcome.PushSent)
	assert.True(t, outcome.SMSSent)
}

func TestDispatch_MessageNamesRule(t *testing.T) {
	push := new(MockPushSender)
	sms := new(MockSMSSender)
	sms.On("Send", mock.Anything, "9876543210", mock.MatchedBy(func(msg string) bool {
		return strings.Contains(msg, "NIRBHAY ALERT") && strings.Contains(msg, "SUSTAINED_PANIC_MOVEMENT")
	}), mock.Anything).Return(nil)

	d := NewDispatcher(push, sms, time.Second, zap.NewNop())
	contact := models.GuardianContact{Phone: strPtr("9876543210")}

	outcome := d.Dispatch(context.Background(), contact, testEvent())

	assert.True(t, outcome.SMSSent)
	sms.AssertExpectations(t)
}
