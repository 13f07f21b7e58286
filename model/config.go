package model

import "time"

// Config holds the process configuration loaded at startup.
type Config struct {
	BotToken      string
	DatabaseURL   string
	GuildID       string
	TimezoneName  string
	Location      *time.Location
	PollInterval  time.Duration
	PollBatchSize int
	DBMaxConns    int
	HTTPAddr      string
	LogLevel      string
	LogWebhookURL string
}
