// exposes a Store interface that is passed to the API and the push dispatcher
package db

import (
	"context"
	"errors"
	"time"

	"github.com/Nixie-Tech-LLC/ramadan/internal/model"
)

// SubscriptionTTL is how long a subscription lives without a re-subscribe.
const SubscriptionTTL = 180 * 24 * time.Hour

// ErrUnavailable wraps every backend I/O failure.
var ErrUnavailable = errors.New("subscription store unavailable")

// Store holds push subscriptions and sent markers. Entries past their TTL
// behave as absent.
type Store interface {
	// PutSubscription upserts by endpoint and refreshes the TTL.
	PutSubscription(ctx context.Context, sub model.Subscription) error
	DeleteSubscription(ctx context.Context, endpoint string) error
	// ListSubscriptions returns every live subscription.
	ListSubscriptions(ctx context.Context) ([]model.Subscription, error)
	// MarkSent records a slot key if absent. It reports false when the
	// marker already existed.
	MarkSent(ctx context.Context, slotKey string, ttl time.Duration) (bool, error)
	Ping(ctx context.Context) error
}
