package handlers

import (
	"fmt"
	"runtime"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemInfoEmbed reports host and process health for /status.
func SystemInfoEmbed(s *discordgo.Session) *discordgo.MessageEmbed {
	fields := []*discordgo.MessageEmbedField{
		{Name: "🐹 Go version", Value: runtime.Version(), Inline: true},
		{Name: "🚀 Goroutines", Value: fmt.Sprintf("%d", runtime.NumGoroutine()), Inline: true},
	}

	if hostInfo, err := host.Info(); err == nil {
		fields = append(fields,
			&discordgo.MessageEmbedField{Name: "💻 OS", Value: fmt.Sprintf("%s %s", hostInfo.Platform, hostInfo.PlatformVersion), Inline: true},
			&discordgo.MessageEmbedField{Name: "⏳ Uptime", Value: (time.Duration(hostInfo.Uptime) * time.Second).String(), Inline: true},
		)
	}
	if cpuCount, err := cpu.Counts(true); err == nil {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "🔼 CPUs", Value: fmt.Sprintf("%d", cpuCount), Inline: true})
	}
	if cpuPercent, err := cpu.Percent(0, false); err == nil && len(cpuPercent) > 0 {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "🔥 CPU usage", Value: fmt.Sprintf("%.1f%%", cpuPercent[0]), Inline: true})
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   "🧠 Memory",
			Value:  fmt.Sprintf("%.1f%% (%d MB / %d MB)", vm.UsedPercent, vm.Used/1024/1024, vm.Total/1024/1024),
			Inline: true,
		})
	}
	if s != nil {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "⏱️ Gateway latency", Value: s.HeartbeatLatency().String(), Inline: true})
	}

	return &discordgo.MessageEmbed{
		Title:  "System",
		Color:  0x5865F2,
		Fields: fields,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("System monitor・%s", time.Now().Format("15:04")),
		},
	}
}
