package main

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/ramadan/internal/http/api"
	pushapi "github.com/Nixie-Tech-LLC/ramadan/internal/http/api/push/endpoints"
	systemapi "github.com/Nixie-Tech-LLC/ramadan/internal/http/api/system/endpoints"
	timingsapi "github.com/Nixie-Tech-LLC/ramadan/internal/http/api/timings/endpoints"
	"github.com/Nixie-Tech-LLC/ramadan/internal/http/middleware"
)

// RegisterRoutes sets up all application routes
func RegisterRoutes(r *gin.Engine, svc *Services, now func() time.Time) {
	r.Use(cors.New(corsConfig(svc.Env.CORSAllowOrigins)))

	// a nil *push.Dispatcher must reach the module as a nil interface
	var dispatcher pushapi.Dispatcher
	if svc.Dispatcher != nil {
		dispatcher = svc.Dispatcher
	}

	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api",
	},
		timingsapi.TimingsModule(svc.Provider, now),
		pushapi.SubscribeModule(svc.Store, svc.Env.VAPIDPublicKey),
		pushapi.CronModule(dispatcher, svc.Env.CronSecret, now),
		systemapi.SystemModule(svc.Store),
	)
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{
			"GET",
			"POST",
			"OPTIONS",
			"HEAD",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Authorization",
			"Accept",
		},
		ExposeHeaders: []string{
			"Content-Length",
			"Cache-Control",
		},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// NewRouter builds the gin engine with logging and recovery.
func NewRouter(svc *Services, now func() time.Time) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())
	RegisterRoutes(r, svc, now)
	return r
}
