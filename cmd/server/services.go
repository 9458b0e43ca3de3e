package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/ramadan/internal/config"
	"github.com/Nixie-Tech-LLC/ramadan/internal/db"
	"github.com/Nixie-Tech-LLC/ramadan/internal/mqtt"
	"github.com/Nixie-Tech-LLC/ramadan/internal/prayer"
	"github.com/Nixie-Tech-LLC/ramadan/internal/push"
)

// Services are the long-lived components shared by every command.
type Services struct {
	Env      *config.Server
	Provider *prayer.Provider
	Store    db.Store
	// Dispatcher is nil unless both VAPID keys and a store are configured.
	Dispatcher *push.Dispatcher
	MQTT       *mqtt.Client

	closeStore func()
}

// InitServices wires the provider, store, dispatcher and optional MQTT broadcaster.
func InitServices(ctx context.Context, env *config.Server, logger zerolog.Logger) (*Services, error) {
	days, err := prayer.Ramadan2026()
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	var remote prayer.Remote
	if env.AladhanBaseURL != "" {
		remote = prayer.NewAladhanClient(env.AladhanBaseURL, env.AladhanRPM)
	}
	svc := &Services{
		Env:        env,
		Provider:   prayer.NewProvider(days, remote, logger),
		closeStore: func() {},
	}

	store, closeStore, err := InitStore(ctx, env)
	if err != nil {
		return nil, err
	}
	svc.Store, svc.closeStore = store, closeStore

	if env.MQTTBrokerURL != "" {
		client, err := mqtt.Connect(env.MQTTBrokerURL, "ramadan-server")
		if err != nil {
			log.Warn().Err(err).Msg("mqtt unavailable, device broadcast disabled")
		} else {
			svc.MQTT = client
		}
	}

	if !env.PushConfigured() || store == nil {
		log.Warn().Bool("vapid", env.PushConfigured()).Bool("store", store != nil).Msg("push dispatch disabled")
		return svc, nil
	}
	sender, err := push.NewWebPushSender(push.VAPID{
		PublicKey:  env.VAPIDPublicKey,
		PrivateKey: env.VAPIDPrivateKey,
		Subscriber: env.VAPIDSubscriber,
	}, &http.Client{Timeout: 10 * time.Second})
	if err != nil {
		return nil, err
	}
	opts := push.Options{
		Window:         env.DispatchWindow,
		Concurrency:    env.PushConcurrency,
		BroadcastTopic: env.MQTTBroadcastTopic,
	}
	if svc.MQTT != nil {
		opts.Broadcaster = svc.MQTT
	}
	svc.Dispatcher = push.NewDispatcher(svc.Provider, store, sender, opts, logger)
	return svc, nil
}

func (s *Services) Close() {
	if s.MQTT != nil {
		s.MQTT.Close()
	}
	s.closeStore()
}
