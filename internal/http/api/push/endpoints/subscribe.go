package endpoints

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/ramadan/internal/db"
	"github.com/Nixie-Tech-LLC/ramadan/internal/http/api"
	"github.com/Nixie-Tech-LLC/ramadan/internal/http/api/push/packets"
	"github.com/Nixie-Tech-LLC/ramadan/internal/model"
)

type SubscribeController struct {
	store     db.Store
	publicKey string
}

// SubscribeModule mounts subscription registration. store may be nil when
// no backend is configured.
func SubscribeModule(store db.Store, vapidPublicKey string) api.Module {
	ctl := &SubscribeController{store: store, publicKey: vapidPublicKey}
	return api.ModuleFunc(func(c *api.Controller) {
		c.POST("/push-subscribe", ctl.subscribe)
		c.GET("/push-key", ctl.publicKeyHandler)
	})
}

func (s *SubscribeController) subscribe(ctx *gin.Context) (any, *api.Error) {
	if s.store == nil {
		return nil, api.Unavailable("Push not configured (missing store)")
	}

	var request packets.SubscribeRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest("Invalid subscription (endpoint and keys required)")
	}

	sub := model.Subscription{
		Endpoint:  request.Subscription.Endpoint,
		Keys:      model.PushKeys{P256dh: request.Subscription.Keys.P256dh, Auth: request.Subscription.Keys.Auth},
		Locale:    model.ParseLocale(request.Locale),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.PutSubscription(ctx.Request.Context(), sub); err != nil {
		log.Error().Err(err).Msg("failed to save subscription")
		return nil, api.Unavailable("Failed to save subscription")
	}
	return packets.OKResponse{OK: true}, nil
}

func (s *SubscribeController) publicKeyHandler(ctx *gin.Context) (any, *api.Error) {
	if s.publicKey == "" {
		return nil, api.Unavailable("VAPID not configured")
	}
	return packets.PublicKeyResponse{PublicKey: s.publicKey}, nil
}
