// Package reminder decides which Suhoor/Iftar reminder slot is due.
//
// The policy is pure: callers supply the clock reading, the day's prayer
// instants and the set of slots they have already delivered, and perform all
// delivery and bookkeeping themselves. The push dispatcher, the device agent
// and the foreground scheduler all share it.
package reminder

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Nixie-Tech-LLC/ramadan/internal/model"
)

const (
	// DefaultWindow suits a dispatcher invoked every minute up to every five minutes.
	DefaultWindow = 5 * time.Minute
	// LocalWindow matches the device agent's one-minute tick.
	LocalWindow = time.Minute
)

// DefaultOffsets are the minutes-before values, largest first.
var DefaultOffsets = []int{15, 10, 5, 0}

// Prayers is the canonical scan order.
var Prayers = []model.Prayer{model.PrayerFajr, model.PrayerMaghrib}

// Slot is one reminder unit for a given date.
type Slot struct {
	Date          string
	Prayer        model.Prayer
	MinutesBefore int
	FireAt        time.Time
}

// Key identifies the slot for dedup: "<date>:<prayer>:<minutes>".
func (s Slot) Key() string {
	return fmt.Sprintf("%s:%s:%d", s.Date, s.Prayer, s.MinutesBefore)
}

// Times are the two prayer instants reminders are derived from.
type Times struct {
	Date    string
	Fajr    time.Time
	Maghrib time.Time
}

// TimesFor resolves the Fajr and Maghrib instants of day.
func TimesFor(day model.PrayerDay) (Times, error) {
	fajr, err := day.Time(model.PrayerFajr)
	if err != nil {
		return Times{}, err
	}
	maghrib, err := day.Time(model.PrayerMaghrib)
	if err != nil {
		return Times{}, err
	}
	return Times{Date: day.Date, Fajr: fajr, Maghrib: maghrib}, nil
}

func (t Times) at(p model.Prayer) time.Time {
	if p == model.PrayerMaghrib {
		return t.Maghrib
	}
	return t.Fajr
}

// SentSet reports whether a slot key was already delivered.
type SentSet interface {
	Has(key string) bool
}

// Policy maps a clock reading to at most one due slot.
type Policy struct {
	Offsets []int
	Window  time.Duration
}

// NewPolicy returns a policy over DefaultOffsets. A non-positive window falls back to DefaultWindow.
func NewPolicy(window time.Duration) Policy {
	if window <= 0 {
		window = DefaultWindow
	}
	return Policy{Offsets: DefaultOffsets, Window: window}
}

// Evaluate returns the first due slot not present in sent. A slot is due when
// FireAt <= now < FireAt+Window. Offsets are scanned largest first and, for
// each offset, prayers in canonical order.
func (p Policy) Evaluate(now time.Time, t Times, sent SentSet) (Slot, bool) {
	for _, minutes := range p.Offsets {
		for _, prayer := range Prayers {
			fireAt := t.at(prayer).Add(-time.Duration(minutes) * time.Minute)
			if now.Before(fireAt) || !now.Before(fireAt.Add(p.Window)) {
				continue
			}
			slot := Slot{Date: t.Date, Prayer: prayer, MinutesBefore: minutes, FireAt: fireAt}
			if sent != nil && sent.Has(slot.Key()) {
				continue
			}
			return slot, true
		}
	}
	return Slot{}, false
}

// Slots lists every slot of the day ordered by fire time.
func (p Policy) Slots(t Times) []Slot {
	slots := make([]Slot, 0, len(p.Offsets)*len(Prayers))
	for _, prayer := range Prayers {
		for _, minutes := range p.Offsets {
			slots = append(slots, Slot{
				Date:          t.Date,
				Prayer:        prayer,
				MinutesBefore: minutes,
				FireAt:        t.at(prayer).Add(-time.Duration(minutes) * time.Minute),
			})
		}
	}
	sort.SliceStable(slots, func(i, j int) bool { return slots[i].FireAt.Before(slots[j].FireAt) })
	return slots
}

// KeySet is an in-memory SentSet. It is not safe for concurrent use.
type KeySet map[string]struct{}

func (s KeySet) Has(key string) bool {
	_, ok := s[key]
	return ok
}

func (s KeySet) Add(key string) { s[key] = struct{}{} }

// Retain drops every key whose date is not one of dates. Dates are compared
// for equality, never by substring.
func (s KeySet) Retain(dates ...string) {
	for key := range s {
		date, _, _ := strings.Cut(key, ":")
		keep := false
		for _, d := range dates {
			if d == date {
				keep = true
				break
			}
		}
		if !keep {
			delete(s, key)
		}
	}
}
