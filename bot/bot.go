package bot

import (
	"context"
	"dm-scheduler/api"
	"dm-scheduler/commands"
	"dm-scheduler/model"
	"dm-scheduler/tasks"
	"dm-scheduler/utils"
	"dm-scheduler/utils/database"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

type Bot struct {
	Session            *discordgo.Session
	RegisteredCommands []*discordgo.ApplicationCommand
	Config             *model.Config
	Log                *logrus.Logger
	Store              *database.ScheduleStore
	HTTPClient         *http.Client
	Dispatcher         *tasks.Dispatcher
	CommandHandlers    map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate)

	scheduler *Scheduler
	api       *api.Server
}

// New connects to the database and wires every component. The Discord gateway is not
// opened until Run.
func New(ctx context.Context, cfg *model.Config, log *logrus.Logger, client *http.Client) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, err
	}
	dg.Identify.Intents = discordgo.IntentsGuilds
	dg.StateEnabled = true
	dg.Client = client

	store, err := database.Open(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		return nil, err
	}

	messenger := utils.NewDirectMessenger(dg)
	fetcher := utils.NewAttachmentFetcher(client)
	dispatcher := tasks.NewDispatcher(store, fetcher, messenger, log.WithField("component", "dispatcher"), cfg.PollBatchSize)

	b := &Bot{
		Session:         dg,
		Config:          cfg,
		Log:             log,
		Store:           store,
		HTTPClient:      client,
		Dispatcher:      dispatcher,
		CommandHandlers: make(map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate)),
		scheduler:       NewScheduler(dispatcher, cfg.PollInterval, log.WithField("component", "scheduler")),
	}
	if cfg.HTTPAddr != "" {
		b.api = api.NewServer(store, cfg.Location, log.WithField("component", "api"))
	}
	return b, nil
}

// Close stops the poll loop first, then tears down what it depends on.
func (b *Bot) Close() {
	b.Log.Info("Gracefully shutting down.")
	b.scheduler.Stop()

	if err := b.Session.Close(); err != nil {
		b.Log.WithError(err).Warn("Error closing Discord session")
	}
	if b.api != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := b.api.Shutdown(ctx); err != nil {
			b.Log.WithError(err).Warn("Error shutting down HTTP server")
		}
	}
	b.HTTPClient.CloseIdleConnections()
	if err := b.Store.Close(); err != nil {
		b.Log.WithError(err).Warn("Error closing database")
	}
}

// RefreshCommands overwrites the application commands, per guild when guildID is set.
func (b *Bot) RefreshCommands(guildID string) error {
	cmds := commands.GenerateCommands()
	scope := "global"
	if guildID != "" {
		scope = "guild " + guildID
	}
	b.Log.Infof("Registering %d commands (%s)...", len(cmds), scope)

	registered, err := b.Session.ApplicationCommandBulkOverwrite(b.Session.State.User.ID, guildID, cmds)
	if err != nil {
		return fmt.Errorf("cannot register commands (%s): %w", scope, err)
	}
	b.RegisteredCommands = registered
	return nil
}
