package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	TypeLeaveApplied   = "LEAVE_APPLIED"
	TypeLeaveApproved  = "LEAVE_APPROVED"
	TypeLeaveRejected  = "LEAVE_REJECTED"
	TypeLeaveCancelled = "LEAVE_CANCELLED"

	ChannelInApp = "IN_APP"
)

type Notification struct {
	RecipientID      string `json:"recipient_id"`
	NotificationType string `json:"notification_type"`
	Channel          string `json:"channel"`
	Subject          string `json:"subject"`
	Message          string `json:"message"`
}

// Dispatcher delivers a notification to the notification service. Callers
// treat delivery as best-effort: a failed Send is logged and dropped, never
// propagated.
//
//go:generate mockgen -source=dispatcher.go -destination=mock/dispatcher_mock.go -package=mock
type Dispatcher interface {
	Send(ctx context.Context, n Notification) error
}

type httpDispatcher struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewHTTPDispatcher(baseURL string, timeout time.Duration, logger ...*zap.Logger) Dispatcher {
	l := zap.L().Named("notification.dispatcher")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("notification.dispatcher")
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &httpDispatcher{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  l,
	}
}

func (d *httpDispatcher) Send(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}

	url := d.baseURL + "/api/v1/notifications"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("notification service returned %d", res.StatusCode)
	}

	d.logger.Debug("notification dispatched",
		zap.String("recipient_id", n.RecipientID),
		zap.String("notification_type", n.NotificationType),
	)
	return nil
}
