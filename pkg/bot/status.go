package bot

import (
	"github.com/bwmarrin/discordgo"
)

// PresenceUpdater is the part of discordgo.Session used to set the status line.
type PresenceUpdater interface {
	UpdateStatusComplex(usd discordgo.UpdateStatusData) error
}

// SetPresence shows the command hint as the bot's custom status.
func SetPresence(s PresenceUpdater) error {
	return s.UpdateStatusComplex(discordgo.UpdateStatusData{
		Activities: []*discordgo.Activity{
			{
				Name:  "Custom Status",
				Type:  discordgo.ActivityTypeCustom,
				State: "/smelty to get roasted",
				Emoji: discordgo.Emoji{Name: "🎭"},
			},
		},
		Status: "online",
	})
}
