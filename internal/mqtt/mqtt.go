// Package mqtt wraps the paho client used between the server and device agents.
package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

// DefaultBrokerURL is used when no broker is configured.
const DefaultBrokerURL = "tcp://0.0.0.0:1883"

const (
	qos            = 1
	publishTimeout = 5 * time.Second
	disconnectWait = 250
)

// BroadcastTopic reaches every agent.
const BroadcastTopic = "ramadan/broadcast"

// NotificationTopic is where an agent's notifications are displayed.
func NotificationTopic(clientID string) string {
	return fmt.Sprintf("ramadan/%s/notifications", clientID)
}

// ControlTopic carries settings and push messages for one agent.
func ControlTopic(clientID string) string {
	return fmt.Sprintf("ramadan/%s/control", clientID)
}

// Handler receives a message payload published on topic.
type Handler func(topic string, payload []byte)

// Publisher is the narrow interface the dispatcher and agent depend on.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// Client is a connected MQTT session. Subscriptions are replayed on reconnect.
type Client struct {
	client paho.Client

	mu   sync.RWMutex
	subs map[string]Handler
}

// Connect dials brokerURL with clientName as the MQTT client id.
func Connect(brokerURL, clientName string) (*Client, error) {
	if brokerURL == "" {
		brokerURL = DefaultBrokerURL
	}
	c := &Client{subs: map[string]Handler{}}

	opts := paho.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(clientName)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetDefaultPublishHandler(func(_ paho.Client, msg paho.Message) {
		log.Debug().Str("topic", msg.Topic()).Msg("unrouted mqtt message")
	})
	opts.OnConnect = c.onConnect
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Warn().Err(err).Str("broker", brokerURL).Msg("mqtt connection lost")
	}

	c.client = paho.NewClient(opts)
	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	log.Info().Str("broker", brokerURL).Str("client", clientName).Msg("mqtt client connected")
	return c, nil
}

func (c *Client) onConnect(pc paho.Client) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for topic, h := range c.subs {
		if token := pc.Subscribe(topic, qos, wrap(h)); token.Wait() && token.Error() != nil {
			log.Error().Err(token.Error()).Str("topic", topic).Msg("mqtt resubscribe failed")
		}
	}
}

func wrap(h Handler) paho.MessageHandler {
	return func(_ paho.Client, msg paho.Message) {
		h(msg.Topic(), msg.Payload())
	}
}

// Subscribe routes messages on topic to h.
func (c *Client) Subscribe(topic string, h Handler) error {
	c.mu.Lock()
	c.subs[topic] = h
	c.mu.Unlock()

	token := c.client.Subscribe(topic, qos, wrap(h))
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}
	return nil
}

// Publish sends payload with QoS 1 and waits for the broker.
func (c *Client) Publish(topic string, payload []byte) error {
	token := c.client.Publish(topic, qos, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to %s timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

// Close disconnects from the broker.
func (c *Client) Close() {
	c.client.Disconnect(disconnectWait)
	log.Info().Msg("mqtt client disconnected")
}
