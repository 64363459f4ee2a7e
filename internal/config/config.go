package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Webhook   WebhookConfig
	Monitor   MonitorConfig
	Alert     AlertConfig
	AI        AIConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	URL            string
	MaxConnections int
	MaxIdleConns   int
}

type RedisConfig struct {
	URL      string
	CacheTTL time.Duration
}

type JWTConfig struct {
	Secret string
}

type WebhookConfig struct {
	Timeout      time.Duration
	MaxBodyBytes int
}

type MonitorConfig struct {
	Enabled        bool
	EncryptionKey  string
	CronSecret     string
	SweepInterval  time.Duration
	ExecutionLimit int
	RequestTimeout time.Duration
}

type AlertConfig struct {
	WhatsAppURL      string
	WhatsAppAPIKey   string
	WhatsAppInstance string
	Recipient        string
}

type AIConfig struct {
	URL    string
	APIKey string
	Model  string
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

func Load() (*Config, error) {
	// .env is optional, used for local development
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.SetEnvPrefix("NEXIO")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("database.maxconnections", 25)
	viper.SetDefault("database.maxidleconns", 5)
	viper.SetDefault("redis.cachettl", "5m")
	viper.SetDefault("webhook.timeout", "8s")
	viper.SetDefault("webhook.maxbodybytes", 200)
	viper.SetDefault("monitor.enabled", true)
	viper.SetDefault("monitor.sweepinterval", "5m")
	viper.SetDefault("monitor.executionlimit", 20)
	viper.SetDefault("monitor.requesttimeout", "15s")
	viper.SetDefault("ai.model", "gpt-4o-mini")
	viper.SetDefault("ratelimit.requestspersecond", 5)
	viper.SetDefault("ratelimit.burst", 10)

	var cfg Config
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Override with environment variables
	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.Database.URL = url
	}
	if url := os.Getenv("REDIS_URL"); url != "" {
		cfg.Redis.URL = url
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWT.Secret = secret
	}
	if key := os.Getenv("ENCRYPTION_KEY"); key != "" {
		cfg.Monitor.EncryptionKey = key
	}
	if secret := os.Getenv("CRON_SECRET"); secret != "" {
		cfg.Monitor.CronSecret = secret
	}
	if url := os.Getenv("EVOLUTION_API_URL"); url != "" {
		cfg.Alert.WhatsAppURL = url
	}
	if key := os.Getenv("EVOLUTION_API_KEY"); key != "" {
		cfg.Alert.WhatsAppAPIKey = key
	}
	if url := os.Getenv("AI_API_URL"); url != "" {
		cfg.AI.URL = url
	}
	if key := os.Getenv("AI_API_KEY"); key != "" {
		cfg.AI.APIKey = key
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects configurations that would otherwise fail at request
// time. A monitor without an encryption key is a provisioning mistake
// and must not boot.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("database url is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt secret is required")
	}
	if c.Webhook.Timeout <= 0 {
		return fmt.Errorf("webhook timeout must be positive")
	}
	if c.Monitor.Enabled {
		if c.Monitor.EncryptionKey == "" {
			return fmt.Errorf("encryption key is required when the automation monitor is enabled")
		}
		if len(c.Monitor.EncryptionKey) != 32 {
			return fmt.Errorf("encryption key must be exactly 32 bytes, got %d", len(c.Monitor.EncryptionKey))
		}
	}
	return nil
}
