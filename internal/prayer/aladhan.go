package prayer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/Nixie-Tech-LLC/ramadan/internal/model"
)

// DefaultAladhanURL is the public Aladhan API.
const DefaultAladhanURL = "https://api.aladhan.com"

// AladhanClient fetches Doha timings for dates outside the embedded dataset.
// Calls are rate limited and go through a circuit breaker so a dead upstream
// fails fast instead of stalling every timings request.
type AladhanClient struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[model.PrayerDay]
}

// NewAladhanClient creates a client allowing requestsPerMinute calls.
func NewAladhanClient(baseURL string, requestsPerMinute int) *AladhanClient {
	if baseURL == "" {
		baseURL = DefaultAladhanURL
	}
	if requestsPerMinute <= 0 {
		requestsPerMinute = 30
	}
	return &AladhanClient{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		limiter:    rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), 1),
		breaker: gobreaker.NewCircuitBreaker[model.PrayerDay](gobreaker.Settings{
			Name:        "aladhan",
			MaxRequests: 1,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 5
			},
		}),
	}
}

type aladhanResponse struct {
	Code int `json:"code"`
	Data struct {
		Timings map[string]string `json:"timings"`
	} `json:"data"`
}

// Day fetches the timings of date ("YYYY-MM-DD").
func (c *AladhanClient) Day(ctx context.Context, date string) (model.PrayerDay, error) {
	d, err := model.ParseDate(date)
	if err != nil {
		return model.PrayerDay{}, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return model.PrayerDay{}, fmt.Errorf("rate limit wait: %w", err)
	}
	return c.breaker.Execute(func() (model.PrayerDay, error) {
		return c.fetch(ctx, date, d)
	})
}

func (c *AladhanClient) fetch(ctx context.Context, date string, d time.Time) (model.PrayerDay, error) {
	params := url.Values{}
	params.Set("city", "Doha")
	params.Set("country", "Qatar")
	params.Set("method", "10")
	u := fmt.Sprintf("%s/v1/timingsByCity/%s?%s", c.baseURL, d.Format("02-01-2006"), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return model.PrayerDay{}, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.PrayerDay{}, fmt.Errorf("aladhan request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.PrayerDay{}, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return model.PrayerDay{}, fmt.Errorf("aladhan returned %d: %s", resp.StatusCode, truncate(body, 200))
	}

	var out aladhanResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return model.PrayerDay{}, fmt.Errorf("decode response: %w", err)
	}
	t := out.Data.Timings
	day := model.PrayerDay{
		Date:    date,
		Fajr:    clock(t["Fajr"]),
		Sunrise: clock(t["Sunrise"]),
		Dhuhr:   clock(t["Dhuhr"]),
		Asr:     clock(t["Asr"]),
		Maghrib: clock(t["Maghrib"]),
		Isha:    clock(t["Isha"]),
	}
	if _, err := day.Time(model.PrayerFajr); err != nil {
		return model.PrayerDay{}, fmt.Errorf("aladhan timings: %w", err)
	}
	if _, err := day.Time(model.PrayerMaghrib); err != nil {
		return model.PrayerDay{}, fmt.Errorf("aladhan timings: %w", err)
	}
	return day, nil
}

// clock drops zone annotations such as "04:46 (+03)".
func clock(v string) string {
	fields := strings.Fields(v)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
