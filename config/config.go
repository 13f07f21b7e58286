package config

import (
	"dm-scheduler/model"
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	DefaultTimezone      = "Asia/Riyadh"
	DefaultPollInterval  = 15 * time.Second
	DefaultPollBatchSize = 30
	DefaultDBMaxConns    = 5
)

// Load loads the configuration from a .env file, the environment and an optional config file.
func Load() (*model.Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Info(".env file not found, relying on environment variables")
	}
	return LoadFrom(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./data")

	v.SetDefault("default_tz", DefaultTimezone)
	v.SetDefault("poll_interval", DefaultPollInterval)
	v.SetDefault("poll_batch_size", DefaultPollBatchSize)
	v.SetDefault("db_max_conns", DefaultDBMaxConns)
	v.SetDefault("log_level", "info")
	v.SetDefault("guild_id", "")
	v.SetDefault("http_addr", "")
	v.SetDefault("log_webhook_url", "")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("discord_token", "DISCORD_TOKEN", "BOT_TOKEN")
	_ = v.BindEnv("database_url", "DATABASE_URL")
	return v
}

// LoadFrom builds and validates a Config from v. A missing config file is not an error.
func LoadFrom(v *viper.Viper) (*model.Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &model.Config{
		BotToken:      strings.TrimSpace(v.GetString("discord_token")),
		DatabaseURL:   strings.TrimSpace(v.GetString("database_url")),
		GuildID:       v.GetString("guild_id"),
		TimezoneName:  v.GetString("default_tz"),
		PollInterval:  v.GetDuration("poll_interval"),
		PollBatchSize: v.GetInt("poll_batch_size"),
		DBMaxConns:    v.GetInt("db_max_conns"),
		HTTPAddr:      v.GetString("http_addr"),
		LogLevel:      v.GetString("log_level"),
		LogWebhookURL: v.GetString("log_webhook_url"),
	}

	if cfg.BotToken == "" {
		return nil, errors.New("DISCORD_TOKEN (or BOT_TOKEN) environment variable not set")
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL environment variable not set")
	}

	loc, err := time.LoadLocation(cfg.TimezoneName)
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_TZ %q: %w", cfg.TimezoneName, err)
	}
	cfg.Location = loc

	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("POLL_INTERVAL must be positive, got %s", cfg.PollInterval)
	}
	if cfg.PollBatchSize <= 0 {
		return nil, fmt.Errorf("POLL_BATCH_SIZE must be positive, got %d", cfg.PollBatchSize)
	}
	if cfg.DBMaxConns <= 0 {
		return nil, fmt.Errorf("DB_MAX_CONNS must be positive, got %d", cfg.DBMaxConns)
	}
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	return cfg, nil
}
