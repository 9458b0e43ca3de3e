package reminder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/ramadan/internal/model"
)

func testTimes(t *testing.T) Times {
	t.Helper()
	times, err := TimesFor(model.PrayerDay{Date: "2026-02-18", Fajr: "04:30", Maghrib: "17:45"})
	require.NoError(t, err)
	return times
}

func at(clock string) time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04:05", "2026-02-18 "+clock, model.Doha)
	if err != nil {
		panic(err)
	}
	return t
}

func TestEvaluateWindowBoundaries(t *testing.T) {
	policy := NewPolicy(5 * time.Minute)
	times := testTimes(t)

	tests := []struct {
		now     string
		due     bool
		prayer  model.Prayer
		minutes int
	}{
		{now: "04:14:59", due: false},
		{now: "04:15:00", due: true, prayer: model.PrayerFajr, minutes: 15},
		{now: "04:19:59", due: true, prayer: model.PrayerFajr, minutes: 15},
		{now: "04:20:00", due: true, prayer: model.PrayerFajr, minutes: 10},
		{now: "04:25:00", due: true, prayer: model.PrayerFajr, minutes: 5},
		{now: "04:30:00", due: true, prayer: model.PrayerFajr, minutes: 0},
		{now: "04:34:59", due: true, prayer: model.PrayerFajr, minutes: 0},
		{now: "04:35:00", due: false},
		{now: "12:00:00", due: false},
		{now: "17:30:00", due: true, prayer: model.PrayerMaghrib, minutes: 15},
		{now: "17:45:30", due: true, prayer: model.PrayerMaghrib, minutes: 0},
		{now: "17:50:00", due: false},
	}
	for _, tc := range tests {
		t.Run(tc.now, func(t *testing.T) {
			slot, ok := policy.Evaluate(at(tc.now), times, nil)
			require.Equal(t, tc.due, ok)
			if !tc.due {
				return
			}
			assert.Equal(t, tc.prayer, slot.Prayer)
			assert.Equal(t, tc.minutes, slot.MinutesBefore)
			assert.Equal(t, "2026-02-18", slot.Date)
		})
	}
}

func TestEvaluateSkipsSentSlots(t *testing.T) {
	policy := NewPolicy(5 * time.Minute)
	times := testTimes(t)

	sent := KeySet{}
	slot, ok := policy.Evaluate(at("04:16:00"), times, sent)
	require.True(t, ok)
	sent.Add(slot.Key())

	for _, now := range []string{"04:16:00", "04:17:30", "04:19:59"} {
		_, ok := policy.Evaluate(at(now), times, sent)
		assert.False(t, ok, "slot fired twice at %s", now)
	}
}

func TestEvaluateWideWindowPrefersLargerOffset(t *testing.T) {
	policy := NewPolicy(10 * time.Minute)
	times := testTimes(t)

	slot, ok := policy.Evaluate(at("04:22:00"), times, nil)
	require.True(t, ok)
	assert.Equal(t, 15, slot.MinutesBefore)

	sent := KeySet{}
	sent.Add(slot.Key())
	slot, ok = policy.Evaluate(at("04:22:00"), times, sent)
	require.True(t, ok)
	assert.Equal(t, 10, slot.MinutesBefore)
}

func TestEvaluateEveryMinuteFiresEachSlotOnce(t *testing.T) {
	policy := NewPolicy(5 * time.Minute)
	times := testTimes(t)

	sent := KeySet{}
	start := at("00:00:00")
	for i := 0; i < 24*60; i++ {
		slot, ok := policy.Evaluate(start.Add(time.Duration(i)*time.Minute), times, sent)
		if !ok {
			continue
		}
		require.False(t, sent.Has(slot.Key()), "slot %s returned twice", slot.Key())
		sent.Add(slot.Key())
	}
	assert.Len(t, sent, 8)
}

func TestSlotsOrderedByFireTime(t *testing.T) {
	slots := NewPolicy(0).Slots(testTimes(t))
	require.Len(t, slots, 8)
	for i := 1; i < len(slots); i++ {
		assert.False(t, slots[i].FireAt.Before(slots[i-1].FireAt))
	}
	assert.Equal(t, "2026-02-18:fajr:15", slots[0].Key())
	assert.Equal(t, "2026-02-18:maghrib:0", slots[7].Key())
	assert.Equal(t, at("17:30:00"), slots[4].FireAt)
}

func TestKeySetRetainUsesDateEquality(t *testing.T) {
	set := KeySet{}
	for _, key := range []string{
		"2026-02-28:fajr:15",
		"2026-03-01:maghrib:0",
		"2026-03-11:fajr:5",
		"2026-01-31:fajr:0",
	} {
		set.Add(key)
	}

	set.Retain("2026-03-01", "2026-02-28")

	assert.True(t, set.Has("2026-02-28:fajr:15"))
	assert.True(t, set.Has("2026-03-01:maghrib:0"))
	assert.False(t, set.Has("2026-03-11:fajr:5"))
	assert.False(t, set.Has("2026-01-31:fajr:0"))
}
