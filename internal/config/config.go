package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the portal and the CLI.
type Config struct {
	AppName        string
	AppEnv         string
	PortalPort     string
	APIBaseURL     string
	RequestTimeout time.Duration
	StorageDriver  string
	StoragePath    string
	RedisURL       string
	Namespace      string
	NATSURL        string
	NATSSubject    string
	LogLevel       string
	Locale         string
	AccessLog      bool
	AllowOrigins   string
}

// HTTPAddress returns the address the portal should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.PortalPort, ":") {
		return c.PortalPort
	}

	return fmt.Sprintf(":%s", c.PortalPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("COURSEFORGE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "CourseForge Portal")
	v.SetDefault("app.env", "development")
	v.SetDefault("portal.port", "8090")
	v.SetDefault("api.base_url", "http://localhost:8080/api/v1")
	v.SetDefault("api.timeout", "15s")
	v.SetDefault("storage.driver", "bolt")
	v.SetDefault("storage.path", defaultStoragePath())
	v.SetDefault("storage.namespace", "courseforge")
	v.SetDefault("nats.subject", "courseforge.session")
	v.SetDefault("log.level", "info")
	v.SetDefault("locale", "en")
	v.SetDefault("access_log", false)
	v.SetDefault("cors.allow_origins", "")

	timeoutString := v.GetString("api.timeout")
	if timeoutString == "" {
		timeoutString = "15s"
	}

	timeout, err := time.ParseDuration(timeoutString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid api timeout: %w", err)
	}

	cfg := Config{
		AppName:        v.GetString("app.name"),
		AppEnv:         v.GetString("app.env"),
		PortalPort:     v.GetString("portal.port"),
		APIBaseURL:     strings.TrimRight(v.GetString("api.base_url"), "/"),
		RequestTimeout: timeout,
		StorageDriver:  strings.ToLower(strings.TrimSpace(v.GetString("storage.driver"))),
		StoragePath:    v.GetString("storage.path"),
		RedisURL:       v.GetString("redis.url"),
		Namespace:      v.GetString("storage.namespace"),
		NATSURL:        v.GetString("nats.url"),
		NATSSubject:    v.GetString("nats.subject"),
		LogLevel:       strings.ToLower(v.GetString("log.level")),
		Locale:         strings.ToLower(strings.TrimSpace(v.GetString("locale"))),
		AccessLog:      v.GetBool("access_log"),
		AllowOrigins:   strings.TrimSpace(v.GetString("cors.allow_origins")),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("api base url must be provided")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("api timeout must be positive")
	}

	switch c.StorageDriver {
	case "bolt", "memory":
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("redis url must be provided for the redis storage driver")
		}
	default:
		return fmt.Errorf("unsupported storage driver %q", c.StorageDriver)
	}

	switch c.Locale {
	case "en", "ru":
	default:
		return fmt.Errorf("unsupported locale %q", c.Locale)
	}

	return nil
}

func defaultStoragePath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "courseforge-session.db"
	}
	return filepath.Join(home, ".courseforge", "session.db")
}
