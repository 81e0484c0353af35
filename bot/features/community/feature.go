package community

import (
	"time"

	"github.com/bwmarrin/discordgo"
)

// Config carries the channels the community commands point people to
type Config struct {
	VouchChannelID   string
	SupportChannelID string
}

// Feature hosts the small utility commands
type Feature struct {
	config    Config
	startedAt time.Time
}

func NewFeature(config Config, startedAt time.Time) *Feature {
	return &Feature{
		config:    config,
		startedAt: startedAt,
	}
}

func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.ApplicationCommandData().Name {
	case "ping":
		f.handlePing(s, i)
	case "botinfo":
		f.handleBotInfo(s, i)
	case "say":
		f.handleSay(s, i)
	case "shinycheck":
		f.handleShinyCheck(s, i)
	case "paid":
		f.handlePaid(s, i)
	case "vouch":
		f.handleVouch(s, i)
	}
}
