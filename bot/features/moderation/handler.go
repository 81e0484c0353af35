package moderation

import (
	"fmt"
	"strings"

	"archedvibes/bot/common"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

var errMissingPermissions = common.NewUserError("You don't have permission to run this command.", "missing moderation permission")

// channelToggle describes how one of lock/unlock/hide/unhide changes @everyone
type channelToggle struct {
	perm  int64
	allow bool
	title string
	color int
}

var toggles = map[string]channelToggle{
	"lock":   {perm: discordgo.PermissionSendMessages, allow: false, title: "Channel Locked", color: common.ColorDanger},
	"unlock": {perm: discordgo.PermissionSendMessages, allow: true, title: "Channel Unlocked", color: common.ColorSuccess},
	"hide":   {perm: discordgo.PermissionViewChannel, allow: false, title: "Channel Hidden", color: common.ColorGray},
	"unhide": {perm: discordgo.PermissionViewChannel, allow: true, title: "Channel Unhidden", color: common.ColorSuccess},
}

func (f *Feature) handleKick(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !common.HasPermission(i, discordgo.PermissionKickMembers) {
		common.HandleError(s, i, errMissingPermissions, false)
		return
	}

	member, reason, ok := targetAndReason(s, i)
	if !ok {
		return
	}

	if err := s.GuildMemberDeleteWithReason(i.GuildID, member.ID, reason); err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "kick member"), false)
		return
	}
	log.WithFields(log.Fields{
		"guildID":   i.GuildID,
		"userID":    member.ID,
		"moderator": common.InvokingUser(i).ID,
		"reason":    reason,
	}).Info("Member kicked")

	embed := &discordgo.MessageEmbed{
		Title:       "User Kicked",
		Description: fmt.Sprintf("%s has been kicked.", member.Mention()),
		Color:       common.ColorOrange,
	}
	common.LogRespondError(common.RespondWithEmbed(s, i, embed, nil, false), "kick")
}

func (f *Feature) handleBan(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !common.HasPermission(i, discordgo.PermissionBanMembers) {
		common.HandleError(s, i, errMissingPermissions, false)
		return
	}

	member, reason, ok := targetAndReason(s, i)
	if !ok {
		return
	}

	if err := s.GuildBanCreateWithReason(i.GuildID, member.ID, reason, 0); err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "ban member"), false)
		return
	}
	log.WithFields(log.Fields{
		"guildID":   i.GuildID,
		"userID":    member.ID,
		"moderator": common.InvokingUser(i).ID,
		"reason":    reason,
	}).Info("Member banned")

	embed := &discordgo.MessageEmbed{
		Title:       "User Banned",
		Description: fmt.Sprintf("%s has been banned.", member.Mention()),
		Color:       common.ColorDanger,
	}
	common.LogRespondError(common.RespondWithEmbed(s, i, embed, nil, false), "ban")
}

func (f *Feature) handleChannelToggle(s *discordgo.Session, i *discordgo.InteractionCreate, name string) {
	if !common.HasPermission(i, discordgo.PermissionManageChannels) {
		common.HandleError(s, i, errMissingPermissions, false)
		return
	}
	toggle := toggles[name]

	channel, err := s.State.Channel(i.ChannelID)
	if err != nil {
		channel, err = s.Channel(i.ChannelID)
	}
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "load channel"), false)
		return
	}

	// The @everyone role shares the guild's ID
	var current *discordgo.PermissionOverwrite
	for _, ow := range channel.PermissionOverwrites {
		if ow.ID == i.GuildID && ow.Type == discordgo.PermissionOverwriteTypeRole {
			current = ow
			break
		}
	}
	allow, deny := ApplyFlag(current, toggle.perm, toggle.allow)

	if err := s.ChannelPermissionSet(i.ChannelID, i.GuildID, discordgo.PermissionOverwriteTypeRole, allow, deny); err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "set channel permissions"), false)
		return
	}

	embed := &discordgo.MessageEmbed{Title: toggle.title, Color: toggle.color}
	common.LogRespondError(common.RespondWithEmbed(s, i, embed, nil, false), name)
}

// ApplyFlag sets perm to allowed or denied on top of an existing overwrite,
// leaving every other bit untouched
func ApplyFlag(current *discordgo.PermissionOverwrite, perm int64, allow bool) (int64, int64) {
	var allowBits, denyBits int64
	if current != nil {
		allowBits, denyBits = current.Allow, current.Deny
	}
	if allow {
		return allowBits | perm, denyBits &^ perm
	}
	return allowBits &^ perm, denyBits | perm
}

// targetAndReason reads the user and reason options, answering the interaction on failure
func targetAndReason(s *discordgo.Session, i *discordgo.InteractionCreate) (*discordgo.User, string, bool) {
	opts := common.Options(i)
	opt, ok := opts["user"]
	if !ok {
		common.HandleError(s, i, common.NewUserError("Please pick a member.", "missing moderation target"), false)
		return nil, "", false
	}
	member := opt.UserValue(s)
	if member == nil {
		common.HandleError(s, i, common.NewUserError("Invalid member.", "unresolvable moderation target"), false)
		return nil, "", false
	}

	reason := "No reason provided"
	if r, ok := opts["reason"]; ok && strings.TrimSpace(r.StringValue()) != "" {
		reason = r.StringValue()
	}
	return member, reason, true
}
