package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Nixie-Tech-LLC/ramadan/internal/model"
	"github.com/Nixie-Tech-LLC/ramadan/internal/mqtt"
)

// Notifier displays a notification on the device.
type Notifier interface {
	Notify(ctx context.Context, n model.Notification) error
}

// MQTTNotifier publishes notifications to the device's display topic.
type MQTTNotifier struct {
	pub   mqtt.Publisher
	topic string
}

func NewMQTTNotifier(pub mqtt.Publisher, clientID string) *MQTTNotifier {
	return &MQTTNotifier{pub: pub, topic: mqtt.NotificationTopic(clientID)}
}

func (n *MQTTNotifier) Notify(_ context.Context, msg model.Notification) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	return n.pub.Publish(n.topic, raw)
}

// LogNotifier writes notifications to the log, for headless agents.
type LogNotifier struct {
	Log zerolog.Logger
}

func (n LogNotifier) Notify(_ context.Context, msg model.Notification) error {
	n.Log.Info().Str("tag", msg.Tag).Str("title", msg.Title).Str("body", msg.Body).Msg("notification")
	return nil
}
