package endpoints

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/ramadan/internal/http/api"
	"github.com/Nixie-Tech-LLC/ramadan/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/ramadan/internal/push"
)

// Dispatcher runs reminder dispatch and test broadcasts.
type Dispatcher interface {
	Run(ctx context.Context, now time.Time) (push.Result, error)
	Broadcast(ctx context.Context) (push.Result, error)
}

type CronController struct {
	dispatcher Dispatcher
	now        func() time.Time
}

// CronModule mounts the cron trigger behind CronAuth. A nil dispatcher
// means push is not configured and the endpoint answers 503.
func CronModule(dispatcher Dispatcher, cronSecret string, now func() time.Time) api.Module {
	if now == nil {
		now = time.Now
	}
	ctl := &CronController{dispatcher: dispatcher, now: now}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/cron/push-reminders", ctl.pushReminders, middleware.CronAuth(cronSecret))
	})
}

// pushReminders dispatches the due slot, or with ?test=1 broadcasts the test message.
func (cc *CronController) pushReminders(ctx *gin.Context) (any, *api.Error) {
	if cc.dispatcher == nil {
		return nil, api.Unavailable("Push not configured")
	}

	var (
		res push.Result
		err error
	)
	if ctx.Query("test") == "1" {
		res, err = cc.dispatcher.Broadcast(ctx.Request.Context())
	} else {
		res, err = cc.dispatcher.Run(ctx.Request.Context(), cc.now())
	}
	if err != nil {
		log.Error().Err(err).Msg("cron push failed")
		return nil, api.Internal("Cron failed")
	}
	return res, nil
}
