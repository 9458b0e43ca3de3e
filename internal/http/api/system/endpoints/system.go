package endpoints

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/ramadan/internal/capability"
	"github.com/Nixie-Tech-LLC/ramadan/internal/db"
	"github.com/Nixie-Tech-LLC/ramadan/internal/http/api"
	"github.com/Nixie-Tech-LLC/ramadan/internal/http/api/system/packets"
)

type SystemController struct {
	store db.Store
}

// SystemModule mounts capability and health probes. store may be nil.
func SystemModule(store db.Store) api.Module {
	ctl := &SystemController{store: store}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/capabilities", ctl.capabilities)
		c.GET("/health", ctl.health)
	})
}

// capabilities tells a browser which local reminder channel to run.
func (s *SystemController) capabilities(ctx *gin.Context) (any, *api.Error) {
	caps := capability.Detect(ctx.GetHeader("User-Agent"), ctx.Query("standalone") == "1")
	return packets.CapabilitiesResponse{
		Channel:          string(capability.Select(caps)),
		BackgroundTimers: caps.BackgroundTimers,
		Push:             caps.Push,
	}, nil
}

func (s *SystemController) health(ctx *gin.Context) (any, *api.Error) {
	if s.store == nil {
		return packets.HealthResponse{OK: true, Store: "none"}, nil
	}
	if err := s.store.Ping(ctx.Request.Context()); err != nil {
		log.Warn().Err(err).Msg("store health check failed")
		return nil, api.Unavailable("store unavailable")
	}
	return packets.HealthResponse{OK: true, Store: "ok"}, nil
}
