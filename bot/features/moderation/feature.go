package moderation

import (
	"github.com/bwmarrin/discordgo"
)

// Feature runs the moderation commands. Each command checks the
// invoking member's permissions before touching the guild.
type Feature struct{}

func NewFeature() *Feature {
	return &Feature{}
}

func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch name := i.ApplicationCommandData().Name; name {
	case "kick":
		f.handleKick(s, i)
	case "ban":
		f.handleBan(s, i)
	case "lock", "unlock", "hide", "unhide":
		f.handleChannelToggle(s, i, name)
	}
}
