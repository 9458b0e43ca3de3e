package model

import (
	"fmt"
	"strings"
	"time"
)

// Doha is the fixed UTC+3 zone every date key and wall-clock time is resolved in.
// Qatar observes no daylight saving, so a fixed zone avoids depending on host tzdata.
var Doha = time.FixedZone("Asia/Doha", 3*60*60)

// DateLayout is the layout of a date key ("2026-02-18").
const DateLayout = "2006-01-02"

// DateKey returns the Doha calendar date of t.
func DateKey(t time.Time) string {
	return t.In(Doha).Format(DateLayout)
}

// ParseDate parses a date key as midnight in Doha.
func ParseDate(key string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, key, Doha)
}

// Prayer identifies one of the two prayers that carry reminders.
type Prayer string

const (
	PrayerFajr    Prayer = "fajr"
	PrayerMaghrib Prayer = "maghrib"
)

// PrayerDay holds one calendar date's six prayer times as "HH:mm" strings.
type PrayerDay struct {
	Date       string `json:"date"       yaml:"date"`
	RamadanDay *int   `json:"ramadanDay" yaml:"day"`
	Fajr       string `json:"Fajr"       yaml:"fajr"`
	Sunrise    string `json:"Sunrise"    yaml:"sunrise"`
	Dhuhr      string `json:"Dhuhr"      yaml:"dhuhr"`
	Asr        string `json:"Asr"        yaml:"asr"`
	Maghrib    string `json:"Maghrib"    yaml:"maghrib"`
	Isha       string `json:"Isha"       yaml:"isha"`
}

// Time resolves the wall-clock time of p on the day's date in Doha.
func (d PrayerDay) Time(p Prayer) (time.Time, error) {
	var clock string
	switch p {
	case PrayerFajr:
		clock = d.Fajr
	case PrayerMaghrib:
		clock = d.Maghrib
	default:
		return time.Time{}, fmt.Errorf("unknown prayer %q", p)
	}
	return AtClock(d.Date, clock)
}

// AtClock combines a date key and an "HH:mm" clock into an instant in Doha.
func AtClock(date, clock string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout+" 15:04", date+" "+strings.TrimSpace(clock), Doha)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %s %s: %w", date, clock, err)
	}
	return t, nil
}
