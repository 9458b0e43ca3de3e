package mqtt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopics(t *testing.T) {
	assert.Equal(t, "ramadan/kitchen-tv/notifications", NotificationTopic("kitchen-tv"))
	assert.Equal(t, "ramadan/kitchen-tv/control", ControlTopic("kitchen-tv"))
}

func TestConnectFailsWithoutBroker(t *testing.T) {
	_, err := Connect("tcp://127.0.0.1:1", "test-client")
	assert.Error(t, err)
}
