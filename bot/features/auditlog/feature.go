package auditlog

import (
	"context"
	"fmt"

	"archedvibes/bot/common"
	"archedvibes/events"
	"archedvibes/models"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Feature mirrors noteworthy events into the staff log channel
type Feature struct {
	session   *discordgo.Session
	channelID string
}

func NewFeature(session *discordgo.Session, channelID string) *Feature {
	return &Feature{
		session:   session,
		channelID: channelID,
	}
}

// Register subscribes to the events worth logging. No-op without a log channel.
func (f *Feature) Register(bus *events.Bus) {
	if f.channelID == "" {
		log.Info("Log channel not configured, audit log disabled")
		return
	}

	for _, t := range []events.EventType{
		events.EventTypeGiveawayStarted,
		events.EventTypeGiveawayEnded,
		events.EventTypeGiveawayRerolled,
		events.EventTypeTicketOpened,
		events.EventTypeTicketClosed,
	} {
		bus.Subscribe(t, f.handle)
	}
}

func (f *Feature) handle(ctx context.Context, e events.Event) {
	line, ok := Line(e)
	if !ok {
		return
	}
	if _, err := f.session.ChannelMessageSend(f.channelID, line); err != nil {
		log.WithFields(log.Fields{
			"eventType": e.Type(),
			"error":     err,
		}).Warn("Failed to write audit log entry")
	}
}

// Line renders an event as a log channel message
func Line(e events.Event) (string, bool) {
	switch ev := e.(type) {
	case events.GiveawayStartedEvent:
		return fmt.Sprintf("🎉 %s started a giveaway for **%s** in <#%d>, ends <t:%d:R>",
			common.GetUserMention(ev.HostID), ev.Prize, ev.ChannelID, ev.EndsAt), true
	case events.GiveawayEndedEvent:
		switch {
		case ev.Status == models.GiveawayStatusForceEnded:
			return fmt.Sprintf("🛑 Giveaway for **%s** was force ended", ev.Prize), true
		case ev.WinnerID != nil:
			return fmt.Sprintf("👑 Giveaway for **%s** won by %s", ev.Prize, common.GetUserMention(*ev.WinnerID)), true
		default:
			return fmt.Sprintf("🎉 Giveaway for **%s** ended without entrants", ev.Prize), true
		}
	case events.GiveawayRerolledEvent:
		return fmt.Sprintf("🔁 Giveaway for **%s** rerolled, new winner %s", ev.Prize, common.GetUserMention(ev.WinnerID)), true
	case events.TicketOpenedEvent:
		return fmt.Sprintf("🎫 %s opened a ticket: <#%s>", common.GetUserMention(ev.UserID), ev.ChannelID), true
	case events.TicketClosedEvent:
		return fmt.Sprintf("🔒 Ticket of %s closed", common.GetUserMention(ev.UserID)), true
	}
	return "", false
}
