package push

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/Nixie-Tech-LLC/ramadan/internal/model"
)

var (
	// ErrSubscriptionGone means the push service answered 404 or 410.
	ErrSubscriptionGone = errors.New("push subscription gone")
	// ErrNotConfigured means VAPID keys are missing.
	ErrNotConfigured = errors.New("web push not configured")
)

// PayloadTTL is how long the push service keeps an undelivered reminder, in seconds.
const PayloadTTL = 60

// Sender delivers one encrypted payload to one subscription.
type Sender interface {
	Send(ctx context.Context, sub model.Subscription, payload []byte) error
}

// VAPID identifies the application server to push services.
type VAPID struct {
	PublicKey  string
	PrivateKey string
	Subscriber string
}

// WebPushSender sends through the Web Push protocol with VAPID auth.
type WebPushSender struct {
	vapid  VAPID
	client *http.Client
}

// NewWebPushSender fails with ErrNotConfigured when either key is empty. A
// mailto: prefix on the subscriber is dropped because webpush adds its own.
func NewWebPushSender(vapid VAPID, client *http.Client) (*WebPushSender, error) {
	if vapid.PublicKey == "" || vapid.PrivateKey == "" {
		return nil, ErrNotConfigured
	}
	vapid.Subscriber = strings.TrimPrefix(vapid.Subscriber, "mailto:")
	if client == nil {
		client = &http.Client{}
	}
	return &WebPushSender{vapid: vapid, client: client}, nil
}

func (s *WebPushSender) Send(ctx context.Context, sub model.Subscription, payload []byte) error {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys:     webpush.Keys{P256dh: sub.Keys.P256dh, Auth: sub.Keys.Auth},
	}, &webpush.Options{
		HTTPClient:      s.client,
		Subscriber:      s.vapid.Subscriber,
		VAPIDPublicKey:  s.vapid.PublicKey,
		VAPIDPrivateKey: s.vapid.PrivateKey,
		TTL:             PayloadTTL,
		Urgency:         webpush.UrgencyHigh,
	})
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return fmt.Errorf("%w: status %d", ErrSubscriptionGone, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("push service status %d: %s", resp.StatusCode, body)
	}
	return nil
}
