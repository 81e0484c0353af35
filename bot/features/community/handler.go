package community

import (
	"fmt"
	"strings"
	"time"

	"archedvibes/bot/common"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

var shinyKeywords = []string{"shiny", "sparkle", "gleam"}

// LooksShiny reports whether text mentions any shiny keyword
func LooksShiny(text string) bool {
	lower := strings.ToLower(text)
	for _, word := range shinyKeywords {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

// BotInfoEmbed reports uptime and gateway latency
func BotInfoEmbed(uptime, latency time.Duration) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "Bot Info",
		Color: common.ColorInfo,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Uptime", Value: common.FormatDuration(uptime), Inline: true},
			{Name: "Ping", Value: fmt.Sprintf("%dms", latency.Milliseconds()), Inline: true},
		},
	}
}

// PaidEmbed is DMed to a member who has been paid
func PaidEmbed(vouchChannelID, supportChannelID string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "Payment Confirmation",
		Description: "Hey, You have been paid in **Arched Vibes**.",
		Color:       common.ColorSuccess,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Vouch Here", Value: fmt.Sprintf("<#%s>", vouchChannelID), Inline: true},
			{Name: "Need Help?", Value: fmt.Sprintf("Open a ticket in <#%s>", supportChannelID), Inline: true},
		},
	}
}

func (f *Feature) handlePing(s *discordgo.Session, i *discordgo.InteractionCreate) {
	common.LogRespondError(common.RespondWithMessage(s, i, "Pong!", false), "ping")
}

func (f *Feature) handleBotInfo(s *discordgo.Session, i *discordgo.InteractionCreate) {
	embed := BotInfoEmbed(time.Since(f.startedAt), s.HeartbeatLatency())
	common.LogRespondError(common.RespondWithEmbed(s, i, embed, nil, false), "botinfo")
}

func (f *Feature) handleSay(s *discordgo.Session, i *discordgo.InteractionCreate) {
	message := ""
	if opt, ok := common.Options(i)["message"]; ok {
		message = opt.StringValue()
	}
	if strings.TrimSpace(message) == "" {
		common.HandleError(s, i, common.NewUserError("Nothing to say.", "empty say message"), false)
		return
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:         message,
			AllowedMentions: &discordgo.MessageAllowedMentions{},
		},
	})
	common.LogRespondError(err, "say")
}

func (f *Feature) handleShinyCheck(s *discordgo.Session, i *discordgo.InteractionCreate) {
	text := ""
	if opt, ok := common.Options(i)["text"]; ok {
		text = opt.StringValue()
	}

	reply := "Doesn't look shiny."
	if LooksShiny(text) {
		reply = "✨ It might be shiny!"
	}
	common.LogRespondError(common.RespondWithMessage(s, i, reply, false), "shinycheck")
}

func (f *Feature) handlePaid(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opt, ok := common.Options(i)["user"]
	if !ok {
		common.HandleError(s, i, common.NewUserError("Please pick a member.", "missing paid user"), false)
		return
	}
	member := opt.UserValue(s)
	if member == nil {
		common.HandleError(s, i, common.NewUserError("Invalid member.", "unresolvable paid user"), false)
		return
	}

	dm, err := s.UserChannelCreate(member.ID)
	if err == nil {
		_, err = s.ChannelMessageSendEmbed(dm.ID, PaidEmbed(f.config.VouchChannelID, f.config.SupportChannelID))
	}
	if err != nil {
		log.WithError(err).WithField("userID", member.ID).Info("Could not DM paid member")
		common.LogRespondError(common.RespondWithMessage(s, i, "Couldn't DM the user.", false), "paid")
		return
	}

	common.LogRespondError(common.RespondWithMessage(s, i, fmt.Sprintf("%s has been DMed.", member.Mention()), false), "paid")
}

func (f *Feature) handleVouch(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if f.config.VouchChannelID == "" {
		common.HandleError(s, i, common.NewUserError("Vouching is not set up on this server.", "vouch channel not configured"), false)
		return
	}

	opts := common.Options(i)
	opt, ok := opts["user"]
	if !ok {
		common.HandleError(s, i, common.NewUserError("Please pick a member.", "missing vouch user"), false)
		return
	}
	member := opt.UserValue(s)
	if member == nil {
		common.HandleError(s, i, common.NewUserError("Invalid member.", "unresolvable vouch user"), false)
		return
	}
	reason := "No reason provided"
	if r, ok := opts["reason"]; ok && strings.TrimSpace(r.StringValue()) != "" {
		reason = r.StringValue()
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Vouch",
		Description: fmt.Sprintf("%s vouched for %s\nReason: %s", common.InvokingUser(i).Mention(), member.Mention(), reason),
		Color:       common.ColorInfo,
	}
	if _, err := s.ChannelMessageSendEmbed(f.config.VouchChannelID, embed); err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "post vouch"), false)
		return
	}

	common.LogRespondError(common.RespondWithSuccess(s, i, "Vouch sent!", true), "vouch")
}
