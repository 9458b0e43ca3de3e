package agent

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/ramadan/internal/model"
)

type capturePublisher struct {
	topic   string
	payload []byte
}

func (c *capturePublisher) Publish(topic string, payload []byte) error {
	c.topic, c.payload = topic, payload
	return nil
}

func TestMQTTNotifierPublishesToDisplayTopic(t *testing.T) {
	pub := &capturePublisher{}
	n := NewMQTTNotifier(pub, "living-room")

	require.NoError(t, n.Notify(context.Background(), model.Notification{Title: "Iftar Time!", Body: "Iftar time has started", Tag: "2026-02-18:maghrib:0"}))
	assert.Equal(t, "ramadan/living-room/notifications", pub.topic)

	var got map[string]string
	require.NoError(t, json.Unmarshal(pub.payload, &got))
	assert.Equal(t, map[string]string{"title": "Iftar Time!", "body": "Iftar time has started", "tag": "2026-02-18:maghrib:0"}, got)
}
