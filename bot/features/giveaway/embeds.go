package giveaway

import (
	"fmt"

	"archedvibes/bot/common"
	"archedvibes/events"
	"archedvibes/models"

	"github.com/bwmarrin/discordgo"
)

// StartedEmbed is the announcement members react to
func StartedEmbed(g *models.Giveaway, durationText string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "🎉 Giveaway Started!",
		Description: fmt.Sprintf("🎁 Prize: **%s**\n⏰ Ends in: **%s** (%s)",
			g.Prize, durationText, common.FormatDiscordTimestamp(g.EndsAt, "R")),
		Color: common.ColorGold,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("React with %s to enter!", common.GiveawayEmoji),
		},
	}
}

// EndedEmbed replaces the announcement once the giveaway is over
func EndedEmbed(e events.GiveawayEndedEvent) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "🎉 Giveaway Ended",
		Color: common.ColorGray,
	}
	switch {
	case e.Status == models.GiveawayStatusForceEnded:
		embed.Description = fmt.Sprintf("🎁 Prize: **%s**\nThis giveaway was ended early.", e.Prize)
	case e.WinnerID != nil:
		embed.Description = fmt.Sprintf("🎁 Prize: **%s**\n👑 Winner: %s", e.Prize, common.GetUserMention(*e.WinnerID))
	default:
		embed.Description = fmt.Sprintf("🎁 Prize: **%s**\nNo valid entries.", e.Prize)
	}
	return embed
}

// ResultMessage is posted in the channel when the timer resolves a giveaway.
// Force-ended giveaways are answered by the command itself and yield false.
func ResultMessage(e events.GiveawayEndedEvent) (string, bool) {
	if e.Status != models.GiveawayStatusResolved {
		return "", false
	}
	if e.WinnerID == nil {
		return "No valid entries, no winner selected.", true
	}
	return fmt.Sprintf("👑 Winner: %s | Prize: **%s**", common.GetUserMention(*e.WinnerID), e.Prize), true
}
