package leaderboard

import (
	"bytes"
	"fmt"
	"strings"

	"archedvibes/bot/common"
	"archedvibes/models"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

const imageName = "leaderboard.png"

// board describes one leaderboard kind
type board struct {
	title       string
	valueHeader string
	unit        string
}

var boards = map[string]board{
	"richest":     {title: "Richest Users", valueHeader: "Coins", unit: "coins"},
	"topgamblers": {title: "Top Gamblers", valueHeader: "Wins", unit: "wins"},
}

func (f *Feature) handleLeaderboard(s *discordgo.Session, i *discordgo.InteractionCreate) {
	name := i.ApplicationCommandData().Name
	b, ok := boards[name]
	if !ok {
		common.HandleError(s, i, common.NewSystemError(fmt.Errorf("unknown leaderboard %q", name), "leaderboard routing"), false)
		return
	}

	var entries []models.LeaderboardEntry
	if name == "richest" {
		entries = f.engine.Richest(f.size)
	} else {
		entries = f.engine.TopWinners(f.size)
	}

	if len(entries) == 0 {
		embed := &discordgo.MessageEmbed{
			Title:       b.title,
			Description: "Nobody is on the board yet.",
			Color:       common.ColorGold,
		}
		common.LogRespondError(common.RespondWithEmbed(s, i, embed, nil, false), name)
		return
	}

	rows := BuildRows(entries, func(userID int64) string {
		return displayName(s, i.GuildID, userID)
	})

	png, err := f.generator.Render(b.title, b.valueHeader, rows)
	if err != nil {
		log.WithError(err).Warn("Leaderboard image failed, falling back to text")
		embed := &discordgo.MessageEmbed{
			Title:       b.title,
			Description: FallbackDescription(entries, b.unit),
			Color:       common.ColorGold,
		}
		common.LogRespondError(common.RespondWithEmbed(s, i, embed, nil, false), name)
		return
	}

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{{
				Title: b.title,
				Color: common.ColorGold,
				Image: &discordgo.MessageEmbedImage{URL: "attachment://" + imageName},
			}},
			Files: []*discordgo.File{{
				Name:        imageName,
				ContentType: "image/png",
				Reader:      bytes.NewReader(png),
			}},
		},
	})
	common.LogRespondError(err, name)
}

// BuildRows turns ranked entries into table rows, resolving names with nameOf
func BuildRows(entries []models.LeaderboardEntry, nameOf func(int64) string) []Row {
	rows := make([]Row, len(entries))
	for idx, e := range entries {
		rows[idx] = Row{
			Rank:  e.Rank,
			Name:  nameOf(e.UserID),
			Value: common.FormatBalance(e.Value),
		}
	}
	return rows
}

// FallbackDescription renders entries as mention lines
func FallbackDescription(entries []models.LeaderboardEntry, unit string) string {
	lines := make([]string, len(entries))
	for idx, e := range entries {
		lines[idx] = fmt.Sprintf("%d. %s: %s %s", e.Rank, common.GetUserMention(e.UserID), common.FormatBalance(e.Value), unit)
	}
	return strings.Join(lines, "\n")
}

// displayName prefers the guild nickname, then the username
func displayName(s *discordgo.Session, guildID string, userID int64) string {
	id := common.FormatUserID(userID)
	if guildID != "" {
		if member, err := s.State.Member(guildID, id); err == nil && member != nil {
			if member.Nick != "" {
				return member.Nick
			}
			if member.User != nil {
				return member.User.Username
			}
		}
	}
	if user, err := s.User(id); err == nil && user != nil {
		return user.Username
	}
	return fmt.Sprintf("User%d", userID)
}
