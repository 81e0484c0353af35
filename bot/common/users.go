package common

import (
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"
)

// ParseUserID converts a Discord snowflake string to int64
func ParseUserID(userID string) (int64, error) {
	return strconv.ParseInt(userID, 10, 64)
}

// FormatUserID converts an int64 snowflake to string
func FormatUserID(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// GetUserMention returns a Discord mention string for a user
func GetUserMention(userID int64) string {
	return fmt.Sprintf("<@%d>", userID)
}

// InvokingUser returns the user behind an interaction, in a guild or a DM
func InvokingUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

// HasPermission reports whether the invoking member holds perm or is an administrator
func HasPermission(i *discordgo.InteractionCreate, perm int64) bool {
	if i.Member == nil {
		return false
	}
	if i.Member.Permissions&discordgo.PermissionAdministrator != 0 {
		return true
	}
	return i.Member.Permissions&perm != 0
}

// HasRole reports whether the member carries roleID
func HasRole(member *discordgo.Member, roleID string) bool {
	if member == nil || roleID == "" {
		return false
	}
	for _, r := range member.Roles {
		if r == roleID {
			return true
		}
	}
	return false
}

// Options indexes the top-level command options by name
func Options(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	opts := i.ApplicationCommandData().Options
	out := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(opts))
	for _, opt := range opts {
		out[opt.Name] = opt
	}
	return out
}
