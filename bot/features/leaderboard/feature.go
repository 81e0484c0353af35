package leaderboard

import (
	"archedvibes/service"

	"github.com/bwmarrin/discordgo"
)

// Feature answers /richest and /topgamblers
type Feature struct {
	engine    service.WagerEngine
	generator *ImageGenerator
	size      int
}

func NewFeature(engine service.WagerEngine, size int) *Feature {
	return &Feature{
		engine:    engine,
		generator: NewImageGenerator(),
		size:      size,
	}
}

func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	f.handleLeaderboard(s, i)
}
