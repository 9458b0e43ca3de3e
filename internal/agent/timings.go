package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Nixie-Tech-LLC/ramadan/internal/model"
)

// ErrNoTimings means the server had no usable Fajr/Maghrib for the date.
var ErrNoTimings = errors.New("no timings")

// TimingsClient reads /api/timings from the reminder server, reusing
// responses for TimingsTTL.
type TimingsClient struct {
	baseURL string
	http    *http.Client
	cache   *responseCache
}

func NewTimingsClient(baseURL string, client *http.Client, now func() time.Time) *TimingsClient {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if now == nil {
		now = time.Now
	}
	return &TimingsClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    client,
		cache:   newResponseCache(now),
	}
}

type timingsEnvelope struct {
	Data struct {
		Timings model.PrayerDay `json:"timings"`
	} `json:"data"`
}

// Day returns the timings of date, from cache when fresh.
func (c *TimingsClient) Day(ctx context.Context, date string) (model.PrayerDay, error) {
	u := c.baseURL + "/api/timings?date=" + url.QueryEscape(date)

	if raw, ok := c.cache.Get(u); ok {
		if day, err := decodeTimings(raw, date); err == nil {
			return day, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return model.PrayerDay{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return model.PrayerDay{}, fmt.Errorf("fetch timings: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return model.PrayerDay{}, fmt.Errorf("read timings: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return model.PrayerDay{}, fmt.Errorf("%w: status %d", ErrNoTimings, resp.StatusCode)
	}

	day, err := decodeTimings(raw, date)
	if err != nil {
		return model.PrayerDay{}, err
	}
	c.cache.Set(u, raw, TimingsTTL)
	return day, nil
}

func decodeTimings(raw []byte, date string) (model.PrayerDay, error) {
	var env timingsEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return model.PrayerDay{}, fmt.Errorf("%w: %v", ErrNoTimings, err)
	}
	day := env.Data.Timings
	if day.Fajr == "" || day.Maghrib == "" {
		return model.PrayerDay{}, ErrNoTimings
	}
	day.Date = date
	return day, nil
}
