package tickets

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"archedvibes/bot/common"

	"github.com/bwmarrin/discordgo"
)

type guildKey struct{}

// WithGuild scopes ticket channel creation to the guild the request came from
func WithGuild(ctx context.Context, guildID string) context.Context {
	return context.WithValue(ctx, guildKey{}, guildID)
}

func guildFrom(ctx context.Context, fallback string) string {
	if id, ok := ctx.Value(guildKey{}).(string); ok && id != "" {
		return id
	}
	return fallback
}

// ChannelCreator creates private ticket channels through the Discord API
type ChannelCreator struct {
	session     *discordgo.Session
	guildID     string
	categoryID  string
	staffRoleID string
}

// NewChannelCreator creates a creator. guildID is used when the context carries none.
func NewChannelCreator(session *discordgo.Session, guildID, categoryID, staffRoleID string) *ChannelCreator {
	return &ChannelCreator{
		session:     session,
		guildID:     guildID,
		categoryID:  categoryID,
		staffRoleID: staffRoleID,
	}
}

func (c *ChannelCreator) CreateTicketChannel(ctx context.Context, userID int64, username string) (string, error) {
	guildID := guildFrom(ctx, c.guildID)
	if guildID == "" {
		return "", fmt.Errorf("no guild to create ticket channel in")
	}

	ch, err := c.session.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:                 ChannelName(username),
		Type:                 discordgo.ChannelTypeGuildText,
		ParentID:             c.categoryID,
		Topic:                fmt.Sprintf("Support ticket for %s", common.GetUserMention(userID)),
		PermissionOverwrites: Overwrites(guildID, common.FormatUserID(userID), c.staffRoleID),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create ticket channel: %w", err)
	}
	return ch.ID, nil
}

// Overwrites hides the channel from everyone except the ticket owner and staff.
// The @everyone role shares the guild's ID.
func Overwrites(guildID, userID, staffRoleID string) []*discordgo.PermissionOverwrite {
	overwrites := []*discordgo.PermissionOverwrite{
		{
			ID:   guildID,
			Type: discordgo.PermissionOverwriteTypeRole,
			Deny: discordgo.PermissionViewChannel,
		},
		{
			ID:    userID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionReadMessageHistory,
		},
	}
	if staffRoleID != "" {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    staffRoleID,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionReadMessageHistory,
		})
	}
	return overwrites
}

// maxChannelNameRunes keeps "ticket-" plus the name under Discord's 100 character limit
const maxChannelNameRunes = 90

// ChannelName builds a valid text channel name from a username
func ChannelName(username string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(username) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '.':
			b.WriteRune('-')
		}
	}
	name := strings.Trim(b.String(), "-")
	if name == "" {
		name = "user"
	}
	if runes := []rune(name); len(runes) > maxChannelNameRunes {
		name = strings.TrimRight(string(runes[:maxChannelNameRunes]), "-")
	}
	return "ticket-" + name
}
