package foreground

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/ramadan/internal/model"
	"github.com/Nixie-Tech-LLC/ramadan/internal/prayer"
)

type fakeTimer struct {
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	wasPending := !t.stopped && !t.fired
	t.stopped = true
	return wasPending
}

// fakeClock fires callbacks only when advanced.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()
	sort.Slice(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	for _, t := range due {
		t.f()
	}
}

func (c *fakeClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type mapTimings map[string]model.PrayerDay

func (m mapTimings) Day(_ context.Context, date string) (model.PrayerDay, error) {
	d, ok := m[date]
	if !ok {
		return model.PrayerDay{}, prayer.ErrNotFound
	}
	return d, nil
}

type switchPrefs struct {
	mu   sync.Mutex
	pref model.Preference
}

func (p *switchPrefs) Load() (model.Preference, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pref, nil
}

func (p *switchPrefs) Save(pref model.Preference) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pref = pref
	return nil
}

func (p *switchPrefs) set(enabled bool) {
	p.mu.Lock()
	p.pref.Enabled = enabled
	p.mu.Unlock()
}

type recordingNotifier struct {
	mu   sync.Mutex
	tags []string
}

func (r *recordingNotifier) Notify(_ context.Context, n model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tags = append(r.tags, n.Tag)
	return nil
}

var days = mapTimings{
	"2026-02-18": {Date: "2026-02-18", Fajr: "04:46", Maghrib: "17:37"},
	"2026-02-19": {Date: "2026-02-19", Fajr: "04:45", Maghrib: "17:38"},
}

func at(date, clock string) time.Time {
	t, err := model.AtClock(date, clock)
	if err != nil {
		panic(err)
	}
	return t
}

func newTestScheduler(now time.Time, timings Timings) (*Scheduler, *fakeClock, *switchPrefs, *recordingNotifier) {
	clock := &fakeClock{now: now}
	prefs := &switchPrefs{pref: model.Preference{Enabled: true, Locale: model.LocaleEN}}
	notifier := &recordingNotifier{}
	s := NewScheduler(timings, prefs, notifier, Options{Clock: clock}, zerolog.Nop())
	return s, clock, prefs, notifier
}

func TestArmCoversNext24Hours(t *testing.T) {
	s, clock, _, _ := newTestScheduler(at("2026-02-18", "12:00"), days)

	n, err := s.Arm(context.Background())
	require.NoError(t, err)
	// today's 4 maghrib slots plus tomorrow's 4 fajr slots
	assert.Equal(t, 8, n)
	assert.Equal(t, 8, clock.pending())
	assert.Contains(t, s.Armed(), "2026-02-19:fajr:15")
	assert.NotContains(t, s.Armed(), "2026-02-18:fajr:0")
}

func TestArmWithoutTomorrow(t *testing.T) {
	s, _, _, _ := newTestScheduler(at("2026-02-19", "17:30"), days)

	n, err := s.Arm(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRearmCancelsPreviousCallbacks(t *testing.T) {
	s, clock, _, notifier := newTestScheduler(at("2026-02-18", "12:00"), days)

	_, err := s.Arm(context.Background())
	require.NoError(t, err)
	_, err = s.Arm(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, clock.pending())

	clock.Advance(6 * time.Hour)
	assert.Equal(t, []string{
		"2026-02-18:maghrib:15", "2026-02-18:maghrib:10",
		"2026-02-18:maghrib:5", "2026-02-18:maghrib:0",
	}, notifier.tags)
}

func TestFireRechecksPermission(t *testing.T) {
	s, clock, prefs, notifier := newTestScheduler(at("2026-02-18", "17:00"), days)

	_, err := s.Arm(context.Background())
	require.NoError(t, err)

	prefs.set(false)
	clock.Advance(30 * time.Minute)
	assert.Empty(t, notifier.tags)
	assert.NotContains(t, s.Armed(), "2026-02-18:maghrib:0")
}

func TestStopCancelsEverything(t *testing.T) {
	s, clock, _, notifier := newTestScheduler(at("2026-02-18", "12:00"), days)

	_, err := s.Arm(context.Background())
	require.NoError(t, err)
	s.Stop()

	assert.Zero(t, clock.pending())
	assert.Empty(t, s.Armed())
	clock.Advance(24 * time.Hour)
	assert.Empty(t, notifier.tags)
}

func TestArmWithoutTodayClearsCallbacks(t *testing.T) {
	s, clock, _, _ := newTestScheduler(at("2026-02-18", "12:00"), days)
	_, err := s.Arm(context.Background())
	require.NoError(t, err)

	clock.Advance(7 * 24 * time.Hour)
	_, err = s.Arm(context.Background())
	assert.ErrorIs(t, err, prayer.ErrNotFound)
	assert.Zero(t, clock.pending())
}

// slowTimings advances the clock on every lookup, as a network fetch would.
type slowTimings struct {
	mapTimings
	clock *fakeClock
	delay time.Duration
}

func (s *slowTimings) Day(ctx context.Context, date string) (model.PrayerDay, error) {
	s.clock.Advance(s.delay)
	return s.mapTimings.Day(ctx, date)
}

func TestRearmDuringSlowFetchFiresOnce(t *testing.T) {
	clock := &fakeClock{now: at("2026-02-18", "17:00")}
	timings := &slowTimings{mapTimings: days, clock: clock}
	prefs := &switchPrefs{pref: model.Preference{Enabled: true, Locale: model.LocaleEN}}
	notifier := &recordingNotifier{}
	s := NewScheduler(timings, prefs, notifier, Options{Clock: clock}, zerolog.Nop())

	_, err := s.Arm(context.Background())
	require.NoError(t, err)

	// maghrib:15 is due at 17:22 and fires while the re-arm is fetching
	clock.Advance(21*time.Minute + 59*time.Second + 500*time.Millisecond)
	timings.delay = time.Second
	_, err = s.Arm(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, s.Armed(), "2026-02-18:maghrib:15")

	clock.Advance(30 * time.Minute)
	assert.Equal(t, []string{
		"2026-02-18:maghrib:15", "2026-02-18:maghrib:10",
		"2026-02-18:maghrib:5", "2026-02-18:maghrib:0",
	}, notifier.tags)
	// only tomorrow's fajr callbacks remain
	assert.Equal(t, 4, clock.pending())
}

func TestReplacedCallbackDoesNotFire(t *testing.T) {
	s, clock, _, notifier := newTestScheduler(at("2026-02-18", "17:00"), days)

	_, err := s.Arm(context.Background())
	require.NoError(t, err)
	clock.mu.Lock()
	stale := clock.timers[0]
	clock.mu.Unlock()

	_, err = s.Arm(context.Background())
	require.NoError(t, err)

	// a cancelled callback that was already running must not show or unregister its slot
	stale.f()
	assert.Empty(t, notifier.tags)
	assert.Len(t, s.Armed(), 8)
}

func TestArmWhileDisabled(t *testing.T) {
	s, clock, prefs, _ := newTestScheduler(at("2026-02-18", "12:00"), days)
	prefs.set(false)

	n, err := s.Arm(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, clock.pending())
}

func TestSettingsMessageDisablesAndRearms(t *testing.T) {
	s, clock, prefs, notifier := newTestScheduler(at("2026-02-18", "12:00"), days)
	ctx := context.Background()

	_, err := s.Arm(ctx)
	require.NoError(t, err)
	require.Equal(t, 8, clock.pending())

	require.NoError(t, s.HandleMessage(ctx, []byte(`{"type":"NOTIFICATION_SETTINGS_CHANGED","enabled":false}`)))
	assert.Zero(t, clock.pending())
	assert.Empty(t, s.Armed())
	pref, _ := prefs.Load()
	assert.False(t, pref.Enabled)

	require.NoError(t, s.HandleMessage(ctx, []byte(`{"type":"NOTIFICATION_SETTINGS_CHANGED","enabled":true,"locale":"tr"}`)))
	assert.Equal(t, 8, clock.pending())
	pref, _ = prefs.Load()
	assert.Equal(t, model.LocaleTR, pref.Locale)

	clock.Advance(24 * time.Hour)
	assert.Len(t, notifier.tags, 8)
}

func TestPushMessageShownImmediately(t *testing.T) {
	s, _, _, notifier := newTestScheduler(at("2026-02-18", "12:00"), days)

	require.NoError(t, s.HandleMessage(context.Background(), []byte(`{"type":"PUSH","title":"Iftar Time!"}`)))
	assert.Equal(t, []string{model.PushTag}, notifier.tags)

	assert.Error(t, s.HandleMessage(context.Background(), []byte(`not json`)))
}
