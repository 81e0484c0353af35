package giveaway

import (
	"context"

	"archedvibes/events"
	"archedvibes/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Feature runs /gstart, /gend, /reroll and 🎉 reaction entry
type Feature struct {
	session   *discordgo.Session
	scheduler service.GiveawayScheduler
}

func NewFeature(session *discordgo.Session, scheduler service.GiveawayScheduler) *Feature {
	return &Feature{
		session:   session,
		scheduler: scheduler,
	}
}

// HandleCommand dispatches the giveaway admin commands
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.ApplicationCommandData().Name {
	case "gstart":
		f.handleStart(s, i)
	case "gend":
		f.handleEnd(s, i)
	case "reroll":
		f.handleReroll(s, i)
	}
}

// Register announces timer-driven endings in the giveaway's channel
func (f *Feature) Register(bus *events.Bus) {
	bus.Subscribe(events.EventTypeGiveawayEnded, func(ctx context.Context, e events.Event) {
		ended, ok := e.(events.GiveawayEndedEvent)
		if !ok {
			return
		}
		if err := f.announceEnded(ended); err != nil {
			log.WithFields(log.Fields{
				"token": ended.Token,
				"error": err,
			}).Error("Failed to announce giveaway result")
		}
	})
}
