package prayer

import (
	_ "embed"
	"fmt"
	"sync"

	"go.yaml.in/yaml/v3"

	"github.com/Nixie-Tech-LLC/ramadan/internal/model"
)

//go:embed ramadan2026.yaml
var ramadan2026 []byte

var (
	ramadanOnce sync.Once
	ramadanDays []model.PrayerDay
	ramadanErr  error
)

// Ramadan2026 returns the embedded 30-day Doha dataset.
func Ramadan2026() ([]model.PrayerDay, error) {
	ramadanOnce.Do(func() {
		ramadanDays, ramadanErr = ParseDataset(ramadan2026)
	})
	return ramadanDays, ramadanErr
}

// ParseDataset decodes a YAML document with a top-level "days" list.
func ParseDataset(raw []byte) ([]model.PrayerDay, error) {
	var doc struct {
		Days []model.PrayerDay `yaml:"days"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	for _, d := range doc.Days {
		if _, err := model.ParseDate(d.Date); err != nil {
			return nil, fmt.Errorf("dataset day %q: %w", d.Date, err)
		}
		for _, clock := range []string{d.Fajr, d.Sunrise, d.Dhuhr, d.Asr, d.Maghrib, d.Isha} {
			if _, err := model.AtClock(d.Date, clock); err != nil {
				return nil, fmt.Errorf("dataset day %s: %w", d.Date, err)
			}
		}
	}
	return doc.Days, nil
}
