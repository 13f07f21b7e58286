package tasks

import (
	"dm-scheduler/model"
	"dm-scheduler/utils"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

var statusOrder = []model.ScheduleStatus{
	model.StatusPending,
	model.StatusSending,
	model.StatusSent,
	model.StatusFailed,
	model.StatusCanceled,
}

// GenerateScheduleStatsEmbed summarises the schedule queue: counts per status and the next pending run.
func GenerateScheduleStatsEmbed(counts map[model.ScheduleStatus]int, next *model.Schedule, loc *time.Location, now time.Time) *discordgo.MessageEmbed {
	total := 0
	for _, n := range counts {
		total += n
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("**Total: %d**\n\n", total))
	for _, status := range statusOrder {
		if status == model.StatusSending && counts[status] == 0 {
			continue
		}
		builder.WriteString(fmt.Sprintf("%s: %d\n", status, counts[status]))
	}

	nextRun := "nothing pending"
	if next != nil {
		nextRun = fmt.Sprintf("#%d at %s (in %s)", next.ID, utils.FormatLocal(next.RunAt, loc), next.RunAt.Sub(now).Round(time.Second))
		if !next.RunAt.After(now) {
			nextRun = fmt.Sprintf("#%d at %s (due)", next.ID, utils.FormatLocal(next.RunAt, loc))
		}
	}

	return &discordgo.MessageEmbed{
		Title:       "Scheduled DMs",
		Description: builder.String(),
		Timestamp:   now.Format(time.RFC3339),
		Color:       0x5865F2,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "⏭️ Next run", Value: nextRun, Inline: false},
			{Name: "🌍 Timezone", Value: loc.String(), Inline: true},
		},
	}
}
