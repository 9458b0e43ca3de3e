package main

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/ramadan/internal/model"
	"github.com/Nixie-Tech-LLC/ramadan/internal/push"
)

// dispatchRunner is the part of the dispatcher the in-process schedule drives.
type dispatchRunner interface {
	Run(ctx context.Context, now time.Time) (push.Result, error)
}

// StartSchedule runs the dispatcher on spec ("@every 1m", "*/5 * * * *")
// in Doha time. Overlapping runs are skipped. Stop the returned cron on shutdown.
func StartSchedule(ctx context.Context, spec string, d dispatchRunner) (*cron.Cron, error) {
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	c := cron.New(
		cron.WithParser(parser),
		cron.WithLocation(model.Doha),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	_, err := c.AddFunc(spec, func() {
		res, err := d.Run(ctx, time.Now())
		if err != nil {
			log.Error().Err(err).Msg("scheduled dispatch failed")
			return
		}
		log.Debug().Int("sent", res.Sent).Str("reason", res.Reason).Msg("scheduled dispatch")
	})
	if err != nil {
		return nil, fmt.Errorf("invalid DISPATCH_SCHEDULE %q: %w", spec, err)
	}
	c.Start()
	log.Info().Str("schedule", spec).Msg("in-process dispatch schedule started")
	return c, nil
}
