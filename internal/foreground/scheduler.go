// Package foreground arms one deferred callback per reminder instant. It is
// the fallback for hosts that cannot keep a background ticker alive.
package foreground

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

const (
	// Horizon is how far ahead callbacks are armed.
	Horizon = 24 * time.Hour
	// RearmInterval is how often Run refreshes the armed set.
	RearmInterval = time.Hour
)

// Timings looks up one date's prayer times.
type Timings interface {
	Day(ctx context.Context, date string) (model.PrayerDay, error)
}

// Preferences supplies the notification preference, read again at fire time.
type Preferences interface {
	Load() (model.Preference, error)
	Save(model.Preference) error
}

type Notifier interface {
	Notify(ctx context.Context, n model.Notification) error
}

type Options struct {
	Clock         Clock
	RearmInterval time.Duration
}

// Scheduler owns its armed callbacks; Arm replaces them and Stop cancels them.
type Scheduler struct {
	timings  Timings
	prefs    Preferences
	notifier Notifier
	policy   reminder.Policy
	clock    Clock
	rearm    time.Duration
	log      zerolog.Logger

	// armMu serializes whole Arm calls so a settings change and the hourly
	// rearm cannot interleave.
	armMu sync.Mutex
	mu    sync.Mutex
	armed map[string]Timer
}

func NewScheduler(timings Timings, prefs Preferences, notifier Notifier, opts Options, logger zerolog.Logger) *Scheduler {
	if opts.Clock == nil {
		opts.Clock = realClock{}
	}
	if opts.RearmInterval <= 0 {
		opts.RearmInterval = RearmInterval
	}
	return &Scheduler{
		timings:  timings,
		prefs:    prefs,
		notifier: notifier,
		policy:   reminder.NewPolicy(reminder.LocalWindow),
		clock:    opts.Clock,
		rearm:    opts.RearmInterval,
		log:      logger.With().Str("component", "foreground").Logger(),
		armed:    map[string]Timer{},
	}
}

// Arm cancels every armed callback and arms one for each reminder instant in
// (now, now+Horizon]. Today's timings are required; tomorrow's are used when
// available. Nothing is armed while notifications are disabled. It returns
// the number of armed callbacks.
func (s *Scheduler) Arm(ctx context.Context) (int, error) {
	s.armMu.Lock()
	defer s.armMu.Unlock()

	pref, err := s.prefs.Load()
	if err != nil {
		s.Stop()
		return 0, fmt.Errorf("load preferences: %w", err)
	}
	if !pref.Enabled {
		s.Stop()
		return 0, nil
	}

	date := s.clock.Now()
	today, err := s.timings.Day(ctx, model.DateKey(date))
	if err != nil {
		s.Stop()
		return 0, fmt.Errorf("today's timings: %w", err)
	}
	days := []model.PrayerDay{today}
	if tomorrow, err := s.timings.Day(ctx, model.DateKey(date.Add(24*time.Hour))); err == nil {
		days = append(days, tomorrow)
	}

	var slots []reminder.Slot
	for _, day := range days {
		times, err := reminder.TimesFor(day)
		if err != nil {
			s.log.Warn().Err(err).Str("date", day.Date).Msg("skipping unparseable timings")
			continue
		}
		slots = append(slots, s.policy.Slots(times)...)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
	// callbacks may have fired during the fetch; only instants still ahead are armed
	now := s.clock.Now()
	for _, slot := range slots {
		slot := slot
		if !slot.FireAt.After(now) || slot.FireAt.After(now.Add(Horizon)) {
			continue
		}
		var t Timer
		t = s.clock.AfterFunc(slot.FireAt.Sub(now), func() { s.fire(ctx, slot, &t) })
		s.armed[slot.Key()] = t
	}
	s.log.Debug().Int("armed", len(s.armed)).Msg("reminders armed")
	return len(s.armed), nil
}

// Armed lists the keys of pending callbacks.
func (s *Scheduler) Armed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.armed))
	for k := range s.armed {
		keys = append(keys, k)
	}
	return keys
}

// fire shows slot unless its timer was cancelled or replaced after it started.
func (s *Scheduler) fire(ctx context.Context, slot reminder.Slot, t *Timer) {
	s.mu.Lock()
	if s.armed[slot.Key()] != *t {
		s.mu.Unlock()
		return
	}
	delete(s.armed, slot.Key())
	s.mu.Unlock()

	pref, err := s.prefs.Load()
	if err != nil || !pref.Enabled {
		s.log.Debug().Err(err).Str("slot", slot.Key()).Msg("notifications not permitted, skipping")
		return
	}
	msg := reminder.RenderSlot(pref.Locale, slot)
	if err := s.notifier.Notify(ctx, model.Notification{Title: msg.Title, Body: msg.Body, Tag: slot.Key()}); err != nil {
		s.log.Error().Err(err).Str("slot", slot.Key()).Msg("notification failed")
		return
	}
	s.log.Info().Str("slot", slot.Key()).Msg("reminder shown")
}

// Stop cancels every armed callback.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
}

func (s *Scheduler) cancelLocked() {
	for key, t := range s.armed {
		t.Stop()
		delete(s.armed, key)
	}
}

// HandleMessage applies one device message. Disabling cancels every armed
// callback and enabling arms again; PUSH payloads are shown immediately.
func (s *Scheduler) HandleMessage(ctx context.Context, raw []byte) error {
	var msg model.DeviceMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return fmt.Errorf("decode device message: %w", err)
	}

	switch msg.Type {
	case model.MessageSettingsChanged:
		current, err := s.prefs.Load()
		if err != nil {
			return fmt.Errorf("load preferences: %w", err)
		}
		pref := msg.ApplyTo(current)
		if err := s.prefs.Save(pref); err != nil {
			return fmt.Errorf("persist preferences: %w", err)
		}
		s.log.Info().Bool("enabled", pref.Enabled).Str("locale", string(pref.Locale)).Msg("notification settings changed")
		_, err = s.Arm(ctx)
		return err
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

// Run arms on start and every RearmInterval until ctx is done, then cancels
// everything.
func (s *Scheduler) Run(ctx context.Context) error {
	defer s.Stop()

	ticker := time.NewTicker(s.rearm)
	defer ticker.Stop()

	s.arm(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.arm(ctx)
		}
	}
}

func (s *Scheduler) arm(ctx context.Context) {
	if _, err := s.Arm(ctx); err != nil {
		s.log.Warn().Err(err).Msg("arming reminders failed")
	}
}
