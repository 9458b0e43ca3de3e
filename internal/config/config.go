// Package config loads settings from the environment. A .env file in the
// working directory is read first and never overrides real variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Store backends.
const (
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendNone     = "none"
)

// Server holds the reminder server settings.
type Server struct {
	Environment   string `envconfig:"APP_ENV" default:"local" validate:"oneof=local dev staging prod test"`
	ServerAddress string `envconfig:"SERVER_ADDRESS" default:":8080" validate:"required"`
	LogLevel      string `envconfig:"LOG_LEVEL" default:"info"`
	LogPretty     bool   `envconfig:"LOG_PRETTY" default:"false"`

	StoreBackend   string `envconfig:"STORE_BACKEND" default:"redis" validate:"oneof=redis postgres none"`
	RedisAddress   string `envconfig:"REDIS_ADDRESS" default:"localhost:6379" validate:"required_if=StoreBackend redis"`
	RedisUsername  string `envconfig:"REDIS_USERNAME"`
	RedisPassword  string `envconfig:"REDIS_PASSWORD"`
	RedisDB        int    `envconfig:"REDIS_DB" default:"0" validate:"min=0"`
	RedisPrefix    string `envconfig:"REDIS_PREFIX" default:"ramadan:push:"`
	DatabaseURL    string `envconfig:"DATABASE_URL" validate:"required_if=StoreBackend postgres"`
	MigrationsPath string `envconfig:"MIGRATIONS_PATH" default:"./migrations"`

	VAPIDPublicKey  string `envconfig:"VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `envconfig:"VAPID_PRIVATE_KEY"`
	VAPIDSubscriber string `envconfig:"VAPID_SUBSCRIBER" default:"admin@example.com"`

	CronSecret       string        `envconfig:"CRON_SECRET"`
	DispatchWindow   time.Duration `envconfig:"DISPATCH_WINDOW" default:"5m" validate:"min=1m"`
	DispatchSchedule string        `envconfig:"DISPATCH_SCHEDULE"`
	PushConcurrency  int           `envconfig:"PUSH_CONCURRENCY" default:"8" validate:"min=1,max=256"`

	MQTTBrokerURL      string `envconfig:"MQTT_BROKER_URL"`
	MQTTBroadcastTopic string `envconfig:"MQTT_BROADCAST_TOPIC" default:"ramadan/broadcast"`

	AladhanBaseURL string `envconfig:"ALADHAN_BASE_URL" default:"https://api.aladhan.com" validate:"omitempty,url"`
	AladhanRPM     int    `envconfig:"ALADHAN_RPM" default:"30" validate:"min=1"`

	CORSAllowOrigins []string `envconfig:"CORS_ALLOW_ORIGINS" default:"*"`
}

// PushConfigured reports whether both VAPID keys are set.
func (s *Server) PushConfigured() bool {
	return s.VAPIDPublicKey != "" && s.VAPIDPrivateKey != ""
}

// Agent holds the device agent settings, read with the AGENT_ prefix.
type Agent struct {
	ServerURL     string `envconfig:"SERVER_URL" default:"http://localhost:8080" validate:"required,url"`
	ClientID      string `envconfig:"CLIENT_ID"`
	DataDir       string `envconfig:"DATA_DIR" default:"./data" validate:"required"`
	Mode          string `envconfig:"MODE" default:"auto" validate:"oneof=auto background foreground"`
	UserAgent     string `envconfig:"USER_AGENT" default:"ramadan-agent/1.0"`
	Standalone    bool   `envconfig:"STANDALONE" default:"false"`
	MQTTBrokerURL string `envconfig:"MQTT_BROKER_URL"`
	LogLevel      string `envconfig:"LOG_LEVEL" default:"info"`
	LogPretty     bool   `envconfig:"LOG_PRETTY" default:"true"`
}

var validate = validator.New()

// LoadServer reads the server settings.
func LoadServer() (*Server, error) {
	_ = godotenv.Load()

	var cfg Server
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	cfg.StoreBackend = strings.ToLower(cfg.StoreBackend)
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// LoadAgent reads the agent settings.
func LoadAgent() (*Agent, error) {
	_ = godotenv.Load()

	var cfg Agent
	if err := envconfig.Process("AGENT", &cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
