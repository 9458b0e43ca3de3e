// Package agent is the device-side background reminder scheduler. It ticks
// once a minute, evaluates the reminder policy against server timings and
// shows each due slot once.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Nixie-Tech-LLC/ramadan/internal/model"
	"github.com/Nixie-Tech-LLC/ramadan/internal/reminder"
)

// DefaultInterval is the tick period.
const DefaultInterval = time.Minute

// Timings looks up one date's prayer times.
type Timings interface {
	Day(ctx context.Context, date string) (model.PrayerDay, error)
}

// Preferences loads and stores the notification preference.
type Preferences interface {
	Load() (model.Preference, error)
	Save(model.Preference) error
}

type Options struct {
	Interval time.Duration
	Now      func() time.Time
}

// Scheduler owns its preference cache and fired-slot set. Ticks and message
// handling are safe to call concurrently.
type Scheduler struct {
	prefs    Preferences
	timings  Timings
	notifier Notifier
	policy   reminder.Policy
	interval time.Duration
	now      func() time.Time
	log      zerolog.Logger

	mu      sync.Mutex
	pref    *model.Preference
	fired   reminder.KeySet
	restart chan struct{}
}

func NewScheduler(prefs Preferences, timings Timings, notifier Notifier, opts Options, logger zerolog.Logger) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Scheduler{
		prefs:    prefs,
		timings:  timings,
		notifier: notifier,
		policy:   reminder.NewPolicy(reminder.LocalWindow),
		interval: opts.Interval,
		now:      opts.Now,
		log:      logger.With().Str("component", "agent").Logger(),
		fired:    reminder.KeySet{},
		restart:  make(chan struct{}, 1),
	}
}

// preference returns the cached preference, loading it on first use.
// Callers hold s.mu.
func (s *Scheduler) preference() model.Preference {
	if s.pref != nil {
		return *s.pref
	}
	pref, err := s.prefs.Load()
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to load preferences, notifications disabled")
		pref = model.Preference{Enabled: false, Locale: model.LocaleTR}
	}
	s.pref = &pref
	return pref
}

// Tick shows the slot due now, if any. It reports whether a notification was shown.
func (s *Scheduler) Tick(ctx context.Context) (bool, error) {
	s.mu.Lock()
	pref := s.preference()
	s.mu.Unlock()
	if !pref.Enabled {
		return false, nil
	}

	now := s.now()
	today := model.DateKey(now)
	s.mu.Lock()
	s.fired.Retain(today, model.DateKey(now.Add(-24*time.Hour)))
	s.mu.Unlock()

	day, err := s.timings.Day(ctx, today)
	if err != nil {
		s.log.Debug().Err(err).Str("date", today).Msg("no timings for tick")
		return false, nil
	}
	times, err := reminder.TimesFor(day)
	if err != nil {
		return false, fmt.Errorf("resolve timings: %w", err)
	}

	s.mu.Lock()
	slot, ok := s.policy.Evaluate(now, times, s.fired)
	if ok {
		s.fired.Add(slot.Key())
	}
	s.mu.Unlock()
	if !ok {
		return false, nil
	}

	msg := reminder.RenderSlot(pref.Locale, slot)
	if err := s.notifier.Notify(ctx, model.Notification{Title: msg.Title, Body: msg.Body, Tag: slot.Key()}); err != nil {
		return false, fmt.Errorf("notify %s: %w", slot.Key(), err)
	}
	s.log.Info().Str("slot", slot.Key()).Msg("reminder shown")
	return true, nil
}

// Fired reports whether the slot key was already shown.
func (s *Scheduler) Fired(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fired.Has(key)
}

// HandleMessage applies one device message.
func (s *Scheduler) HandleMessage(ctx context.Context, raw []byte) error {
	var msg model.DeviceMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return fmt.Errorf("decode device message: %w", err)
	}

	switch msg.Type {
	case model.MessageSettingsChanged:
		return s.applySettings(msg)
	case model.MessageSkipWaiting:
		s.log.Debug().Msg("skip waiting acknowledged")
		return nil
	case model.MessagePush:
		return s.notifier.Notify(ctx, msg.PushNotification())
	default:
		s.log.Warn().Str("type", msg.Type).Msg("unknown device message")
		return nil
	}
}

// applySettings persists the new preference, refreshes the cache and
// restarts the timer so the change applies immediately.
func (s *Scheduler) applySettings(msg model.DeviceMessage) error {
	s.mu.Lock()
	pref := msg.ApplyTo(s.preference())
	s.pref = &pref
	s.mu.Unlock()

	select {
	case s.restart <- struct{}{}:
	default:
	}

	if err := s.prefs.Save(pref); err != nil {
		return fmt.Errorf("persist preferences: %w", err)
	}
	s.log.Info().Bool("enabled", pref.Enabled).Str("locale", string(pref.Locale)).Msg("notification settings changed")
	return nil
}

// Run ticks immediately and then every interval until ctx is done. A
// settings change restarts the timer with an immediate tick.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.restart:
			ticker.Reset(s.interval)
			s.tick(ctx)
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if _, err := s.Tick(ctx); err != nil {
		s.log.Error().Err(err).Msg("tick failed")
	}
}
