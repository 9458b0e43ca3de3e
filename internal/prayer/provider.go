// Package prayer provides Doha prayer times: an embedded Ramadan 2026 dataset
// with a remote fallback for dates outside it.
package prayer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/Nixie-Tech-LLC/ramadan/internal/model"
)

var (
	ErrInvalidDate = errors.New("invalid date, use YYYY-MM-DD")
	ErrNotFound    = errors.New("prayer times not found")
	ErrUpstream    = errors.New("prayer time upstream failed")
)

// remoteTimeout bounds a shared remote lookup, which outlives any one caller.
const remoteTimeout = 15 * time.Second

// Remote fetches a single day from an external source.
type Remote interface {
	Day(ctx context.Context, date string) (model.PrayerDay, error)
}

// Provider resolves a date to its PrayerDay. Days are immutable, so remote
// results are cached for the life of the process.
type Provider struct {
	local   map[string]model.PrayerDay
	ordered []model.PrayerDay
	remote  Remote
	log     zerolog.Logger

	mu    sync.RWMutex
	cache map[string]model.PrayerDay
	group singleflight.Group
}

// NewProvider indexes days by date. remote may be nil.
func NewProvider(days []model.PrayerDay, remote Remote, logger zerolog.Logger) *Provider {
	p := &Provider{
		local:   make(map[string]model.PrayerDay, len(days)),
		ordered: append([]model.PrayerDay(nil), days...),
		remote:  remote,
		log:     logger.With().Str("component", "prayer").Logger(),
		cache:   map[string]model.PrayerDay{},
	}
	for _, d := range days {
		p.local[d.Date] = d
	}
	return p
}

// Day returns the prayer times of date ("YYYY-MM-DD").
func (p *Provider) Day(ctx context.Context, date string) (model.PrayerDay, error) {
	if _, err := model.ParseDate(date); err != nil {
		return model.PrayerDay{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	if d, ok := p.local[date]; ok {
		return d, nil
	}

	p.mu.RLock()
	d, ok := p.cache[date]
	p.mu.RUnlock()
	if ok {
		return d, nil
	}
	if p.remote == nil {
		return model.PrayerDay{}, fmt.Errorf("%w: %s", ErrNotFound, date)
	}

	// the lookup is shared, so one caller's cancellation must not fail the others
	ch := p.group.DoChan(date, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), remoteTimeout)
		defer cancel()
		day, err := p.remote.Day(fetchCtx, date)
		if err != nil {
			return nil, err
		}
		day.Date = date
		day.RamadanDay = nil
		p.mu.Lock()
		p.cache[date] = day
		p.mu.Unlock()
		return day, nil
	})
	select {
	case <-ctx.Done():
		return model.PrayerDay{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			p.log.Warn().Err(res.Err).Str("date", date).Msg("remote prayer time lookup failed")
			return model.PrayerDay{}, fmt.Errorf("%w: %v", ErrUpstream, res.Err)
		}
		return res.Val.(model.PrayerDay), nil
	}
}

// Today returns the PrayerDay of now's Doha date.
func (p *Provider) Today(ctx context.Context, now time.Time) (model.PrayerDay, error) {
	return p.Day(ctx, model.DateKey(now))
}

// Upcoming is Today, except on the eve of the dataset's first day, when the
// first day is returned so countdowns point at the first Suhoor.
func (p *Provider) Upcoming(ctx context.Context, now time.Time) (model.PrayerDay, error) {
	today := model.DateKey(now)
	if d, ok := p.local[today]; ok {
		return d, nil
	}
	if d, ok := p.local[model.DateKey(now.Add(24 * time.Hour))]; ok {
		return d, nil
	}
	return p.Day(ctx, today)
}

// Calendar returns the embedded days in order.
func (p *Provider) Calendar() []model.PrayerDay {
	return append([]model.PrayerDay(nil), p.ordered...)
}
