package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds environment-based settings for the server.
type Config struct {
	Environment    string `envconfig:"APP_ENV" default:"dev"`
	ServerAddress  string `envconfig:"SERVER_ADDRESS" default:":8080"`
	PublicBaseURL  string `envconfig:"PUBLIC_BASE_URL" default:"http://localhost:8080"`
	DatabaseURL    string `envconfig:"DATABASE_URL" required:"true"`
	MigrationsPath string `envconfig:"MIGRATIONS_PATH" default:"./migrations"`
	JWTSecret      string `envconfig:"JWT_SECRET" required:"true"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	RedisAddress  string `envconfig:"REDIS_ADDRESS" default:"localhost:6379"`
	RedisUsername string `envconfig:"REDIS_USERNAME"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`

	MQTTBrokerURL string `envconfig:"MQTT_BROKER_URL"`
	MQTTClientID  string `envconfig:"MQTT_CLIENT_ID" default:"cartelera-server"`

	Spaces SpacesConfig

	SettingsStore string `envconfig:"SETTINGS_STORE" default:"memory"`
	SettingsFile  string `envconfig:"SETTINGS_FILE" default:"./company_settings.json"`

	DeliveryDelay time.Duration `envconfig:"DELIVERY_DELAY" default:"2s"`
	VerifyTimeout time.Duration `envconfig:"VERIFY_TIMEOUT" default:"5s"`
	DraftIdleTTL  time.Duration `envconfig:"DRAFT_IDLE_TTL" default:"12h"`
}

type SpacesConfig struct {
	Enabled   bool   `envconfig:"USE_SPACES" default:"false"`
	Endpoint  string `envconfig:"SPACES_ENDPOINT"`
	Region    string `envconfig:"SPACES_REGION"`
	Bucket    string `envconfig:"SPACES_BUCKET"`
	CDNURL    string `envconfig:"SPACES_CDN_URL"`
	AccessKey string `envconfig:"SPACES_ACCESS_KEY"`
	SecretKey string `envconfig:"SPACES_SECRET_KEY"`
}

// PlayerConfig holds the settings of the headless signage player.
type PlayerConfig struct {
	ServerURL     string        `envconfig:"PLAYER_SERVER_URL" default:"http://localhost:8080"`
	PlaylistID    string        `envconfig:"PLAYER_PLAYLIST_ID" required:"true"`
	DeviceID      string        `envconfig:"PLAYER_DEVICE_ID" required:"true"`
	PollInterval  time.Duration `envconfig:"PLAYER_POLL_INTERVAL" default:"30s"`
	MQTTBrokerURL string        `envconfig:"MQTT_BROKER_URL"`
	LogLevel      string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat     string        `envconfig:"LOG_FORMAT" default:"console"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func LoadPlayer() (*PlayerConfig, error) {
	var cfg PlayerConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load player config: %w", err)
	}
	if cfg.PlaylistID == "" || cfg.DeviceID == "" {
		return nil, fmt.Errorf("PLAYER_PLAYLIST_ID and PLAYER_DEVICE_ID are required")
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("PLAYER_POLL_INTERVAL must be positive")
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.SettingsStore {
	case "memory", "file", "redis":
	default:
		return fmt.Errorf("SETTINGS_STORE must be one of memory, file, redis (got %q)", c.SettingsStore)
	}
	if c.Spaces.Enabled && (c.Spaces.Bucket == "" || c.Spaces.Endpoint == "" || c.Spaces.CDNURL == "") {
		return fmt.Errorf("SPACES_BUCKET, SPACES_ENDPOINT and SPACES_CDN_URL are required when USE_SPACES is true")
	}
	if c.DeliveryDelay < 0 {
		return fmt.Errorf("DELIVERY_DELAY cannot be negative")
	}
	return nil
}
