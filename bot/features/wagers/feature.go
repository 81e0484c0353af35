package wagers

import (
	"archedvibes/service"

	"github.com/bwmarrin/discordgo"
)

// Feature runs the wager games and /luck
type Feature struct {
	engine service.WagerEngine
}

func NewFeature(engine service.WagerEngine) *Feature {
	return &Feature{
		engine: engine,
	}
}

// HandleCommand dispatches /coinflip, /cf, /slots, /tictactoe, /ttt, /rps and /luck
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.ApplicationCommandData().Name == "luck" {
		f.handleLuck(s, i)
		return
	}
	f.handleWager(s, i)
}
