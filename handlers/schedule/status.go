package schedule

import (
	"context"
	"dm-scheduler/tasks"

	"github.com/bwmarrin/discordgo"
)

// Status builds the queue summary shown by /status.
func (h *Handler) Status(ctx context.Context) (*discordgo.MessageEmbed, error) {
	counts, err := h.store.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	next, err := h.store.NextPending(ctx)
	if err != nil {
		return nil, err
	}
	return tasks.GenerateScheduleStatsEmbed(counts, next, h.loc, h.now()), nil
}
