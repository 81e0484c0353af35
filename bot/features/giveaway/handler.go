package giveaway

import (
	"context"
	"fmt"
	"strings"

	"archedvibes/bot/common"
	"archedvibes/events"
	"archedvibes/models"
	"archedvibes/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

var errManageGuild = common.NewUserError("You don't have permission to run this command.", "missing manage guild permission")

func (f *Feature) handleStart(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	if !common.HasPermission(i, discordgo.PermissionManageGuild) {
		common.HandleError(s, i, errManageGuild, false)
		return
	}

	opts := common.Options(i)
	durationText := strings.TrimSpace(optString(opts, "duration"))
	prize := strings.TrimSpace(optString(opts, "prize"))
	if prize == "" {
		common.HandleError(s, i, common.NewUserError("Please name a prize.", "empty prize"), false)
		return
	}

	channelID, err := common.ParseUserID(i.ChannelID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "parse channel id"), false)
		return
	}
	hostID, err := common.ParseUserID(common.InvokingUser(i).ID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "parse host id"), false)
		return
	}

	g, err := f.scheduler.Start(ctx, service.GiveawayRequest{
		Prize:        prize,
		DurationText: durationText,
		ChannelID:    channelID,
		HostID:       hostID,
	})
	if err != nil {
		common.HandleError(s, i, common.MapServiceError(err, "start giveaway"), false)
		return
	}

	if err := common.RespondWithEmbed(s, i, StartedEmbed(g, durationText), nil, false); err != nil {
		common.LogRespondError(err, "gstart")
		f.abandon(ctx, g.Token)
		return
	}

	msg, err := f.track(ctx, g.Token, func() (*discordgo.Message, error) {
		return s.InteractionResponse(i.Interaction)
	})
	if err != nil {
		log.WithError(err).WithField("token", g.Token).Error("Giveaway announcement could not be tracked")
		return
	}
	if err := s.MessageReactionAdd(msg.ChannelID, msg.ID, common.GiveawayEmoji); err != nil {
		log.WithError(err).WithField("token", g.Token).Warn("Failed to seed giveaway reaction")
	}
}

// track binds the announcement returned by fetch to the giveaway. /gend,
// /reroll and reaction entry all find giveaways through that message, so
// a giveaway that can't be bound is force ended instead of left running.
func (f *Feature) track(ctx context.Context, token string, fetch func() (*discordgo.Message, error)) (*discordgo.Message, error) {
	msg, err := fetch()
	if err != nil {
		f.abandon(ctx, token)
		return nil, fmt.Errorf("failed to fetch giveaway announcement: %w", err)
	}
	messageID, err := common.ParseUserID(msg.ID)
	if err != nil {
		f.abandon(ctx, token)
		return nil, fmt.Errorf("invalid giveaway message id %q: %w", msg.ID, err)
	}
	if err := f.scheduler.AttachMessage(token, messageID); err != nil {
		f.abandon(ctx, token)
		return nil, fmt.Errorf("failed to attach giveaway message: %w", err)
	}
	return msg, nil
}

func (f *Feature) abandon(ctx context.Context, token string) {
	if _, err := f.scheduler.ForceEnd(ctx, token); err != nil {
		log.WithError(err).WithField("token", token).Warn("Failed to end untracked giveaway")
	}
}

func (f *Feature) handleEnd(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	if !common.HasPermission(i, discordgo.PermissionManageGuild) {
		common.HandleError(s, i, errManageGuild, false)
		return
	}

	token, err := f.lookup(common.Options(i))
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	if _, err := f.scheduler.ForceEnd(ctx, token); err != nil {
		common.HandleError(s, i, common.MapServiceError(err, "force end giveaway"), false)
		return
	}

	common.LogRespondError(common.RespondWithMessage(s, i, "Giveaway force ended.", false), "gend")
}

func (f *Feature) handleReroll(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	if !common.HasPermission(i, discordgo.PermissionManageGuild) {
		common.HandleError(s, i, errManageGuild, false)
		return
	}

	token, err := f.lookup(common.Options(i))
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	g, err := f.scheduler.Reroll(ctx, token)
	if err != nil {
		common.HandleError(s, i, common.MapServiceError(err, "reroll giveaway"), false)
		return
	}

	message := fmt.Sprintf("🎉 New winner: %s | Prize: **%s**", common.GetUserMention(*g.WinnerID), g.Prize)
	common.LogRespondError(common.RespondWithMessage(s, i, message, false), "reroll")
}

// HandleReactionAdd enters the reacting user into the giveaway behind the message
func (f *Feature) HandleReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	if r.Emoji.Name != common.GiveawayEmoji {
		return
	}
	if s.State != nil && s.State.User != nil && r.UserID == s.State.User.ID {
		return
	}

	messageID, err := common.ParseUserID(r.MessageID)
	if err != nil {
		return
	}
	token, ok := f.scheduler.FindByMessage(messageID)
	if !ok {
		return
	}

	userID, err := common.ParseUserID(r.UserID)
	if err != nil {
		return
	}

	entered, err := f.scheduler.AddEntrant(token, models.Entrant{
		UserID: userID,
		IsBot:  isBot(s, r),
	})
	if err != nil {
		log.WithError(err).WithField("token", token).Warn("Failed to add giveaway entrant")
		return
	}
	if entered {
		log.WithFields(log.Fields{
			"token":  token,
			"userID": userID,
		}).Debug("Giveaway entrant added")
	}
}

func (f *Feature) announceEnded(e events.GiveawayEndedEvent) error {
	channelID := common.FormatUserID(e.ChannelID)

	if e.MessageID != nil {
		if _, err := f.session.ChannelMessageEditEmbed(channelID, common.FormatUserID(*e.MessageID), EndedEmbed(e)); err != nil {
			log.WithError(err).WithField("token", e.Token).Warn("Failed to update giveaway announcement")
		}
	}

	message, ok := ResultMessage(e)
	if !ok {
		return nil
	}
	if _, err := f.session.ChannelMessageSend(channelID, message); err != nil {
		return fmt.Errorf("failed to post giveaway result: %w", err)
	}
	return nil
}

// lookup resolves the message_id option to a giveaway token
func (f *Feature) lookup(opts map[string]*discordgo.ApplicationCommandInteractionDataOption) (string, error) {
	raw := strings.TrimSpace(optString(opts, "message_id"))
	messageID, err := common.ParseUserID(raw)
	if err != nil {
		return "", common.NewUserError("Please provide the giveaway's message ID.", "invalid message id")
	}
	token, ok := f.scheduler.FindByMessage(messageID)
	if !ok {
		return "", common.MapServiceError(service.ErrGiveawayNotFound, "unknown giveaway message")
	}
	return token, nil
}

func isBot(s *discordgo.Session, r *discordgo.MessageReactionAdd) bool {
	if r.Member != nil && r.Member.User != nil {
		return r.Member.User.Bot
	}
	user, err := s.User(r.UserID)
	if err != nil {
		log.WithError(err).WithField("userID", r.UserID).Warn("Failed to resolve reacting user")
		return false
	}
	return user.Bot
}

func optString(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	if opt, ok := opts[name]; ok {
		return opt.StringValue()
	}
	return ""
}
