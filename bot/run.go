package bot

import (
	"context"
	"fmt"
)

// Run opens the gateway, registers commands, starts the poll loop and blocks until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.Session.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}

	if n, err := b.Store.FailInterrupted(ctx); err != nil {
		b.Log.WithError(err).Warn("Could not settle interrupted deliveries")
	} else if n > 0 {
		b.Log.WithField("count", n).Warn("Marked deliveries interrupted by the last shutdown as failed")
	}

	if err := b.RefreshCommands(b.Config.GuildID); err != nil {
		return err
	}

	if err := b.scheduler.Start(); err != nil {
		return err
	}

	if b.api != nil {
		go func() {
			if err := b.api.Listen(b.Config.HTTPAddr); err != nil {
				b.Log.WithError(err).Error("HTTP server stopped")
			}
		}()
	}

	b.Log.Info("Bot is now running. Press CTRL-C to exit.")
	<-ctx.Done()
	return nil
}
