package endpoints

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/ramadan/internal/http/api"
	"github.com/Nixie-Tech-LLC/ramadan/internal/http/api/timings/packets"
	"github.com/Nixie-Tech-LLC/ramadan/internal/model"
	"github.com/Nixie-Tech-LLC/ramadan/internal/prayer"
)

const cacheControl = "public, s-maxage=86400, stale-while-revalidate=3600"

// Provider is the prayer time lookup behind the timings endpoints.
type Provider interface {
	Day(ctx context.Context, date string) (model.PrayerDay, error)
	Upcoming(ctx context.Context, now time.Time) (model.PrayerDay, error)
	Calendar() []model.PrayerDay
}

type TimingsController struct {
	provider Provider
	now      func() time.Time
}

func NewTimingsController(provider Provider, now func() time.Time) *TimingsController {
	if now == nil {
		now = time.Now
	}
	return &TimingsController{provider: provider, now: now}
}

// TimingsModule mounts the prayer time endpoints.
func TimingsModule(provider Provider, now func() time.Time) api.Module {
	ctl := NewTimingsController(provider, now)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/timings", ctl.timings)
		c.GET("/timings/today", ctl.today)
		c.GET("/timings/ramadan", ctl.calendar)
	})
}

// timings returns ?date=YYYY-MM-DD, defaulting to today in Doha.
func (t *TimingsController) timings(ctx *gin.Context) (any, *api.Error) {
	date := ctx.Query("date")
	if date == "" {
		date = model.DateKey(t.now())
	}
	day, err := t.provider.Day(ctx.Request.Context(), date)
	if err != nil {
		return nil, lookupError(err, date)
	}
	return t.render(ctx, day)
}

// today returns today's times, or the first day of Ramadan on its eve.
func (t *TimingsController) today(ctx *gin.Context) (any, *api.Error) {
	day, err := t.provider.Upcoming(ctx.Request.Context(), t.now())
	if err != nil {
		return nil, lookupError(err, model.DateKey(t.now()))
	}
	return t.render(ctx, day)
}

func (t *TimingsController) calendar(ctx *gin.Context) (any, *api.Error) {
	ctx.Header("Cache-Control", cacheControl)
	return packets.NewCalendarResponse(t.provider.Calendar()), nil
}

func (t *TimingsController) render(ctx *gin.Context, day model.PrayerDay) (any, *api.Error) {
	resp, err := packets.NewTimingsResponse(day)
	if err != nil {
		log.Error().Err(err).Str("date", day.Date).Msg("failed to render timings")
		return nil, api.Internal("Failed to fetch prayer times")
	}
	ctx.Header("Cache-Control", cacheControl)
	return resp, nil
}

func lookupError(err error, date string) *api.Error {
	switch {
	case errors.Is(err, prayer.ErrInvalidDate):
		return api.BadRequest("Invalid date format. Use YYYY-MM-DD")
	case errors.Is(err, prayer.ErrNotFound):
		return &api.Error{Code: http.StatusNotFound, Message: "No prayer times for " + date}
	default:
		log.Error().Err(err).Str("date", date).Msg("failed to fetch prayer times")
		return api.Internal("Failed to fetch prayer times")
	}
}
