package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

var (
	manageGuildPerm    int64 = discordgo.PermissionManageGuild
	manageChannelsPerm int64 = discordgo.PermissionManageChannels
	kickMembersPerm    int64 = discordgo.PermissionKickMembers
	banMembersPerm     int64 = discordgo.PermissionBanMembers
)

func amountOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        "amount",
		Description: description,
		Required:    true,
		MinValue:    &minAmount,
	}
}

var minAmount = float64(1)

func userOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        "user",
		Description: description,
		Required:    true,
	}
}

func reasonOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "reason",
		Description: "Reason (defaults to \"No reason provided\")",
	}
}

func messageIDOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "message_id",
		Description: "ID of the giveaway announcement message",
		Required:    true,
	}
}

// transferCommand builds /givecoin and its /transfer alias
func transferCommand(name string) *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        name,
		Description: "Give coins to another member",
		Options: []*discordgo.ApplicationCommandOption{
			userOption("Member to give coins to"),
			amountOption("Number of coins to give"),
		},
	}
}

// gameCommand builds a wager command. Versus games also take an opponent.
func gameCommand(name, description string, versus bool) *discordgo.ApplicationCommand {
	opts := []*discordgo.ApplicationCommandOption{}
	if versus {
		opts = append(opts, userOption("Member to play against"))
	}
	opts = append(opts, amountOption("Coins to wager"))
	return &discordgo.ApplicationCommand{
		Name:        name,
		Description: description,
		Options:     opts,
	}
}

func channelToggleCommand(name, description string) *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:                     name,
		Description:              description,
		DefaultMemberPermissions: &manageChannelsPerm,
	}
}

// Commands returns every slash command the bot serves
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		// Core
		{Name: "ping", Description: "Check that the bot is alive"},
		{Name: "botinfo", Description: "Show uptime and latency"},
		{
			Name:        "say",
			Description: "Make the bot say something",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "message",
					Description: "What to say",
					Required:    true,
				},
			},
		},

		// Economy
		{
			Name:        "balance",
			Description: "Check a coin balance",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "Member to look up (defaults to you)",
				},
			},
		},
		{
			Name:        "history",
			Description: "Show recent balance changes",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "Member to look up (defaults to you)",
				},
			},
		},
		transferCommand("givecoin"),
		transferCommand("transfer"),

		// Games
		gameCommand("coinflip", "Flip a coin for double or nothing", false),
		gameCommand("cf", "Flip a coin for double or nothing", false),
		gameCommand("slots", "Spin the slots, three of a kind pays double", false),
		gameCommand("tictactoe", "Play tic tac toe for coins", true),
		gameCommand("ttt", "Play tic tac toe for coins", true),
		gameCommand("rps", "Play rock paper scissors for coins", true),
		{Name: "luck", Description: "Roll your luck for today"},

		// Leaderboards
		{Name: "richest", Description: "Show the members with the most coins"},
		{Name: "topgamblers", Description: "Show the members with the most wins"},

		// Giveaways
		{
			Name:                     "gstart",
			Description:              "Start a giveaway",
			DefaultMemberPermissions: &manageGuildPerm,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "duration",
					Description: "How long it runs, e.g. 1d 2h 30m",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "prize",
					Description: "What the winner gets",
					Required:    true,
				},
			},
		},
		{
			Name:                     "gend",
			Description:              "End a giveaway early without a winner",
			DefaultMemberPermissions: &manageGuildPerm,
			Options:                  []*discordgo.ApplicationCommandOption{messageIDOption()},
		},
		{
			Name:                     "reroll",
			Description:              "Draw a new giveaway winner",
			DefaultMemberPermissions: &manageGuildPerm,
			Options:                  []*discordgo.ApplicationCommandOption{messageIDOption()},
		},

		// Tickets
		{Name: "ticketpanel", Description: "Post the support ticket panel"},

		// Community
		{
			Name:        "shinycheck",
			Description: "Check whether a spawn message looks shiny",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "text",
					Description: "Text to check",
					Required:    true,
				},
			},
		},
		{
			Name:        "paid",
			Description: "DM a member their payment confirmation",
			Options:     []*discordgo.ApplicationCommandOption{userOption("Member who was paid")},
		},
		{
			Name:        "vouch",
			Description: "Vouch for a member",
			Options:     []*discordgo.ApplicationCommandOption{userOption("Member to vouch for"), reasonOption()},
		},

		// Moderation
		{
			Name:                     "kick",
			Description:              "Kick a member",
			DefaultMemberPermissions: &kickMembersPerm,
			Options:                  []*discordgo.ApplicationCommandOption{userOption("Member to kick"), reasonOption()},
		},
		{
			Name:                     "ban",
			Description:              "Ban a member",
			DefaultMemberPermissions: &banMembersPerm,
			Options:                  []*discordgo.ApplicationCommandOption{userOption("Member to ban"), reasonOption()},
		},
		channelToggleCommand("lock", "Stop @everyone from sending messages here"),
		channelToggleCommand("unlock", "Let @everyone send messages here again"),
		channelToggleCommand("hide", "Hide this channel from @everyone"),
		channelToggleCommand("unhide", "Show this channel to @everyone again"),
	}
}

// registerCommands registers all slash commands with Discord
func (b *Bot) registerCommands() error {
	commands := Commands()

	registered, err := b.session.ApplicationCommandBulkOverwrite(b.session.State.User.ID, b.config.GuildID, commands)
	if err != nil {
		return fmt.Errorf("cannot register commands: %w", err)
	}

	log.WithFields(log.Fields{
		"count":   len(registered),
		"guildID": b.config.GuildID,
	}).Info("Synced slash commands")
	return nil
}
