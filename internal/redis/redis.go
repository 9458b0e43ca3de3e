// Package redis stores push subscriptions and sent markers in Redis.
//
// Layout:
//
//	<prefix><url-encoded endpoint>          subscription JSON, 180 day TTL
//	<prefix>sent:<date>:<prayer>:<minutes>  "1", short TTL
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/ramadan/internal/db"
	"github.com/Nixie-Tech-LLC/ramadan/internal/model"
)

// DefaultPrefix namespaces every key.
const DefaultPrefix = "ramadan:push:"

const (
	sentSegment = "sent:"
	scanCount   = 200
)

// NewClient builds a client for the given server.
func NewClient(address, username, password string, database int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     address,
		Username: username,
		Password: password,
		DB:       database,
	})
}

type Store struct {
	rdb    *redis.Client
	prefix string
}

// compile-time check that Store implements db.Store
var _ db.Store = (*Store)(nil)

func NewStore(rdb *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{rdb: rdb, prefix: prefix}
}

// storedSubscription is the JSON value of a subscription key.
type storedSubscription struct {
	Subscription struct {
		Endpoint string         `json:"endpoint"`
		Keys     model.PushKeys `json:"keys"`
	} `json:"subscription"`
	Locale    model.Locale `json:"locale"`
	CreatedAt time.Time    `json:"createdAt"`
}

func (s *Store) subscriptionKey(endpoint string) string {
	return s.prefix + url.QueryEscape(endpoint)
}

func (s *Store) PutSubscription(ctx context.Context, sub model.Subscription) error {
	var v storedSubscription
	v.Subscription.Endpoint = sub.Endpoint
	v.Subscription.Keys = sub.Keys
	v.Locale = sub.Locale
	v.CreatedAt = sub.CreatedAt
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode subscription: %w", err)
	}
	if err := s.rdb.Set(ctx, s.subscriptionKey(sub.Endpoint), raw, db.SubscriptionTTL).Err(); err != nil {
		return fmt.Errorf("%w: put subscription: %v", db.ErrUnavailable, err)
	}
	return nil
}

func (s *Store) DeleteSubscription(ctx context.Context, endpoint string) error {
	if err := s.rdb.Del(ctx, s.subscriptionKey(endpoint)).Err(); err != nil {
		return fmt.Errorf("%w: delete subscription: %v", db.ErrUnavailable, err)
	}
	return nil
}

// ListSubscriptions scans the prefix, skipping sent markers. Keys that expire
// between SCAN and MGET come back nil and are skipped.
func (s *Store) ListSubscriptions(ctx context.Context) ([]model.Subscription, error) {
	var keys []string
	iter := s.rdb.Scan(ctx, 0, s.prefix+"*", scanCount).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if strings.HasPrefix(key, s.prefix+sentSegment) {
			continue
		}
		keys = append(keys, key)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("%w: scan subscriptions: %v", db.ErrUnavailable, err)
	}

	subs := make([]model.Subscription, 0, len(keys))
	for start := 0; start < len(keys); start += scanCount {
		end := min(start+scanCount, len(keys))
		values, err := s.rdb.MGet(ctx, keys[start:end]...).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: get subscriptions: %v", db.ErrUnavailable, err)
		}
		for i, v := range values {
			raw, ok := v.(string)
			if !ok {
				continue
			}
			var stored storedSubscription
			if err := json.Unmarshal([]byte(raw), &stored); err != nil || stored.Subscription.Endpoint == "" {
				log.Warn().Err(err).Str("key", keys[start+i]).Msg("skipping undecodable subscription")
				continue
			}
			subs = append(subs, model.Subscription{
				Endpoint:  stored.Subscription.Endpoint,
				Keys:      stored.Subscription.Keys,
				Locale:    model.ParseLocale(string(stored.Locale)),
				CreatedAt: stored.CreatedAt,
			})
		}
	}
	return subs, nil
}

// MarkSent is a single SET NX EX, so concurrent dispatchers cannot both win.
func (s *Store) MarkSent(ctx context.Context, slotKey string, ttl time.Duration) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, s.prefix+sentSegment+slotKey, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: mark sent: %v", db.ErrUnavailable, err)
	}
	return ok, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", db.ErrUnavailable, err)
	}
	return nil
}
