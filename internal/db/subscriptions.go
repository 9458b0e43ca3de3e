package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Nixie-Tech-LLC/ramadan/internal/model"
)

type pgStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// compile-time check that pgStore implements Store
var _ Store = (*pgStore)(nil)

// NewStore returns a PostgreSQL-backed Store. Run migrations first.
func NewStore(conn *sqlx.DB) Store {
	return &pgStore{db: conn, now: time.Now}
}

type subscriptionRow struct {
	Endpoint  string    `db:"endpoint"`
	P256dh    string    `db:"p256dh"`
	Auth      string    `db:"auth"`
	Locale    string    `db:"locale"`
	CreatedAt time.Time `db:"created_at"`
}

func (s *pgStore) PutSubscription(ctx context.Context, sub model.Subscription) error {
	now := s.now()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO push_subscriptions (endpoint, p256dh, auth, locale, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (endpoint) DO UPDATE
		SET p256dh = EXCLUDED.p256dh,
		    auth = EXCLUDED.auth,
		    locale = EXCLUDED.locale,
		    created_at = EXCLUDED.created_at,
		    expires_at = EXCLUDED.expires_at
		`, sub.Endpoint, sub.Keys.P256dh, sub.Keys.Auth, string(sub.Locale), sub.CreatedAt, now.Add(SubscriptionTTL))
	if err != nil {
		return fmt.Errorf("%w: put subscription: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *pgStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM push_subscriptions WHERE endpoint = $1`, endpoint); err != nil {
		return fmt.Errorf("%w: delete subscription: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *pgStore) ListSubscriptions(ctx context.Context) ([]model.Subscription, error) {
	var rows []subscriptionRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT endpoint, p256dh, auth, locale, created_at
		FROM push_subscriptions
		WHERE expires_at > $1
		ORDER BY created_at
		`, s.now())
	if err != nil {
		return nil, fmt.Errorf("%w: list subscriptions: %v", ErrUnavailable, err)
	}
	out := make([]model.Subscription, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.Subscription{
			Endpoint:  r.Endpoint,
			Keys:      model.PushKeys{P256dh: r.P256dh, Auth: r.Auth},
			Locale:    model.ParseLocale(r.Locale),
			CreatedAt: r.CreatedAt,
		})
	}
	return out, nil
}

func (s *pgStore) MarkSent(ctx context.Context, slotKey string, ttl time.Duration) (bool, error) {
	now := s.now()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sent_markers WHERE expires_at <= $1`, now); err != nil {
		return false, fmt.Errorf("%w: prune sent markers: %v", ErrUnavailable, err)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO sent_markers (slot_key, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (slot_key) DO NOTHING
		`, slotKey, now.Add(ttl))
	if err != nil {
		return false, fmt.Errorf("%w: mark sent: %v", ErrUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: mark sent: %v", ErrUnavailable, err)
	}
	return n == 1, nil
}

func (s *pgStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
