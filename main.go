package main

import (
	"context"
	"dm-scheduler/bot"
	"dm-scheduler/config"
	"dm-scheduler/handlers"
	"dm-scheduler/utils"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Error loading config: %v", err)
	}

	client := utils.NewHTTPClient(60 * time.Second)
	log, hook, err := utils.NewLogger(cfg.LogLevel, cfg.LogWebhookURL)
	if err != nil {
		logrus.Fatalf("Error creating logger: %v", err)
	}
	defer hook.Close(utils.WebhookTimeout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := bot.New(ctx, cfg, log, client)
	if err != nil {
		log.Fatalf("Error creating bot: %v", err)
	}
	defer b.Close()

	handlers.Register(b)

	if err := b.Run(ctx); err != nil {
		log.Errorf("Bot stopped: %v", err)
	}
}
