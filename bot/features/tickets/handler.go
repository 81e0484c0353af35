package tickets

import (
	"context"
	"fmt"

	"archedvibes/bot/common"
	"archedvibes/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// PanelEmbed is the support panel message
func PanelEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "Support Panel",
		Description: "Click below to open a ticket!",
		Color:       common.ColorPrimary,
	}
}

// PanelComponents holds the open button
func PanelComponents() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Open Ticket",
					Style:    discordgo.PrimaryButton,
					CustomID: common.TicketOpenButtonID,
					Emoji:    &discordgo.ComponentEmoji{Name: common.TicketEmoji},
				},
			},
		},
	}
}

func closeComponents() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Close Ticket",
					Style:    discordgo.DangerButton,
					CustomID: common.TicketCloseButtonID,
					Emoji:    &discordgo.ComponentEmoji{Name: "🔒"},
				},
			},
		},
	}
}

func (f *Feature) handlePanel(s *discordgo.Session, i *discordgo.InteractionCreate) {
	common.LogRespondError(common.RespondWithEmbed(s, i, PanelEmbed(), PanelComponents(), false), "ticketpanel")
}

func (f *Feature) handleOpen(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := WithGuild(context.Background(), i.GuildID)

	user := common.InvokingUser(i)
	userID, err := common.ParseUserID(user.ID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "parse user id"), false)
		return
	}

	// Channel creation round-trips to Discord; acknowledge first
	if err := common.DeferResponse(s, i, true); err != nil {
		common.LogRespondError(err, "ticket_open")
		return
	}

	ticket, err := f.tickets.OpenTicket(ctx, userID, user.Username)
	if err != nil {
		common.HandleError(s, i, common.MapServiceError(err, "open ticket"), true)
		return
	}

	_, err = s.ChannelMessageSendComplex(ticket.ChannelID, &discordgo.MessageSend{
		Content:    fmt.Sprintf("%s Ticket created. Staff will assist shortly.", user.Mention()),
		Components: closeComponents(),
	})
	if err != nil {
		log.WithError(err).WithField("channelID", ticket.ChannelID).Warn("Failed to post ticket greeting")
	}
	if f.staffRoleID != "" {
		if _, err := s.ChannelMessageSend(ticket.ChannelID, fmt.Sprintf("<@&%s>", f.staffRoleID)); err != nil {
			log.WithError(err).WithField("channelID", ticket.ChannelID).Warn("Failed to ping staff")
		}
	}

	_, err = s.FollowupMessageCreate(i.Interaction, false, &discordgo.WebhookParams{
		Content: fmt.Sprintf("Ticket created! <#%s>", ticket.ChannelID),
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	common.LogRespondError(err, "ticket_open")
}

func (f *Feature) handleClose(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	ticket, ok := f.tickets.FindByChannel(i.ChannelID)
	if !ok {
		common.HandleError(s, i, common.MapServiceError(service.ErrTicketNotFound, "close ticket"), false)
		return
	}

	userID, err := common.ParseUserID(common.InvokingUser(i).ID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "parse user id"), false)
		return
	}
	if userID != ticket.UserID && !common.HasRole(i.Member, f.staffRoleID) && !common.HasPermission(i, discordgo.PermissionManageChannels) {
		common.HandleError(s, i, common.NewUserError("Only the ticket owner or staff can close this ticket.", "close ticket denied"), false)
		return
	}

	if _, err := f.tickets.CloseTicket(ctx, ticket.UserID); err != nil {
		common.HandleError(s, i, common.MapServiceError(err, "close ticket"), false)
		return
	}

	common.LogRespondError(common.RespondWithMessage(s, i, "🔒 Closing ticket...", false), "ticket_close")

	if _, err := s.ChannelDelete(ticket.ChannelID); err != nil {
		log.WithError(err).WithField("channelID", ticket.ChannelID).Error("Failed to delete ticket channel")
	}
}
