// Package push fans Suhoor and Iftar reminders out to web push subscribers.
package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Nixie-Tech-LLC/ramadan/internal/db"
	"github.com/Nixie-Tech-LLC/ramadan/internal/model"
	"github.com/Nixie-Tech-LLC/ramadan/internal/mqtt"
	"github.com/Nixie-Tech-LLC/ramadan/internal/reminder"
)

// Reasons reported when a run sends nothing.
const (
	ReasonNoTimings   = "no timings"
	ReasonNoWindow    = "no window"
	ReasonAlreadySent = "already sent this slot"
)

// DefaultConcurrency bounds in-flight sends.
const DefaultConcurrency = 8

// Timings is the prayer time lookup the dispatcher needs.
type Timings interface {
	Today(ctx context.Context, now time.Time) (model.PrayerDay, error)
}

// Result is the outcome of one dispatcher run.
type Result struct {
	OK     bool   `json:"ok"`
	Sent   int    `json:"sent"`
	Reason string `json:"reason,omitempty"`
	Test   bool   `json:"test,omitempty"`
}

// Options configure a Dispatcher. Zero values take defaults.
type Options struct {
	Window      time.Duration
	Concurrency int
	// Broadcaster, when set, also publishes each payload to devices.
	Broadcaster mqtt.Publisher
	// BroadcastTopic defaults to mqtt.BroadcastTopic.
	BroadcastTopic string
}

// Dispatcher evaluates the reminder policy against the current clock and
// delivers at most one slot per run.
type Dispatcher struct {
	timings Timings
	store   db.Store
	sender  Sender
	policy  reminder.Policy
	opts    Options
	log     zerolog.Logger
}

func NewDispatcher(timings Timings, store db.Store, sender Sender, opts Options, logger zerolog.Logger) *Dispatcher {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.BroadcastTopic == "" {
		opts.BroadcastTopic = mqtt.BroadcastTopic
	}
	policy := reminder.NewPolicy(opts.Window)
	opts.Window = policy.Window
	return &Dispatcher{
		timings: timings,
		store:   store,
		sender:  sender,
		policy:  policy,
		opts:    opts,
		log:     logger.With().Str("component", "dispatcher").Logger(),
	}
}

// MarkerTTL outlives the evaluation window so a slot cannot be claimed twice.
func (d *Dispatcher) MarkerTTL() time.Duration {
	return 2 * d.policy.Window
}

// Run sends the slot due at now, if any. Missing timings are a soft result;
// store failures are returned as errors.
func (d *Dispatcher) Run(ctx context.Context, now time.Time) (Result, error) {
	day, err := d.timings.Today(ctx, now)
	if err != nil {
		d.log.Info().Err(err).Str("date", model.DateKey(now)).Msg("no prayer times for today")
		return Result{OK: true, Reason: ReasonNoTimings}, nil
	}
	times, err := reminder.TimesFor(day)
	if err != nil {
		d.log.Warn().Err(err).Str("date", day.Date).Msg("unparseable prayer times")
		return Result{OK: true, Reason: ReasonNoTimings}, nil
	}

	// a slot claimed by an earlier run must not hide the next due one
	taken := reminder.KeySet{}
	var slot reminder.Slot
	for {
		next, ok := d.policy.Evaluate(now, times, taken)
		if !ok {
			if len(taken) > 0 {
				return Result{OK: true, Reason: ReasonAlreadySent}, nil
			}
			return Result{OK: true, Reason: ReasonNoWindow}, nil
		}
		claimed, err := d.store.MarkSent(ctx, next.Key(), d.MarkerTTL())
		if err != nil {
			return Result{}, fmt.Errorf("claim slot %s: %w", next.Key(), err)
		}
		if claimed {
			slot = next
			break
		}
		taken.Add(next.Key())
	}

	sent, err := d.fanOut(ctx, func(l model.Locale) reminder.Message { return reminder.RenderSlot(l, slot) })
	if err != nil {
		return Result{}, err
	}
	d.log.Info().Str("slot", slot.Key()).Int("sent", sent).Msg("reminder dispatched")
	return Result{OK: true, Sent: sent}, nil
}

// Broadcast sends the connectivity test message to every subscriber,
// bypassing the policy and sent markers.
func (d *Dispatcher) Broadcast(ctx context.Context) (Result, error) {
	sent, err := d.fanOut(ctx, reminder.TestMessage)
	if err != nil {
		return Result{}, err
	}
	d.log.Info().Int("sent", sent).Msg("test broadcast dispatched")
	return Result{OK: true, Sent: sent, Test: true}, nil
}

func (d *Dispatcher) fanOut(ctx context.Context, render func(model.Locale) reminder.Message) (int, error) {
	subs, err := d.store.ListSubscriptions(ctx)
	if err != nil {
		return 0, fmt.Errorf("list subscriptions: %w", err)
	}

	payloads := make(map[model.Locale][]byte, 2)
	for _, l := range []model.Locale{model.LocaleTR, model.LocaleEN} {
		p, err := json.Marshal(render(l))
		if err != nil {
			return 0, fmt.Errorf("encode payload: %w", err)
		}
		payloads[l] = p
	}

	var sent atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.Concurrency)
	for _, sub := range subs {
		sub := sub
		payload := payloads[model.ParseLocale(string(sub.Locale))]
		g.Go(func() error {
			err := d.sender.Send(gctx, sub, payload)
			switch {
			case err == nil:
				sent.Add(1)
			case errors.Is(err, ErrSubscriptionGone):
				if derr := d.store.DeleteSubscription(gctx, sub.Endpoint); derr != nil {
					d.log.Warn().Err(derr).Str("endpoint", shorten(sub.Endpoint)).Msg("failed to remove gone subscription")
				} else {
					d.log.Info().Str("endpoint", shorten(sub.Endpoint)).Msg("removed gone subscription")
				}
			default:
				d.log.Warn().Err(err).Str("endpoint", shorten(sub.Endpoint)).Msg("push send failed")
			}
			return nil
		})
	}
	_ = g.Wait()

	if d.opts.Broadcaster != nil {
		d.broadcast(render(model.LocaleTR))
	}
	return int(sent.Load()), nil
}

// broadcast mirrors a payload to device agents. Failures never affect the sent count.
func (d *Dispatcher) broadcast(msg reminder.Message) {
	raw, err := json.Marshal(model.DeviceMessage{Type: model.MessagePush, Title: msg.Title, Body: msg.Body})
	if err == nil {
		err = d.opts.Broadcaster.Publish(d.opts.BroadcastTopic, raw)
	}
	if err != nil {
		d.log.Warn().Err(err).Str("topic", d.opts.BroadcastTopic).Msg("device broadcast failed")
	}
}

func shorten(endpoint string) string {
	const n = 50
	if len(endpoint) <= n {
		return endpoint
	}
	return endpoint[:n]
}
