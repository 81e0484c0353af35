package bot

import (
	"fmt"
	"strings"
	"time"

	"archedvibes/bot/common"
	"archedvibes/bot/features/auditlog"
	"archedvibes/bot/features/balance"
	"archedvibes/bot/features/community"
	"archedvibes/bot/features/giveaway"
	"archedvibes/bot/features/leaderboard"
	"archedvibes/bot/features/moderation"
	"archedvibes/bot/features/tickets"
	"archedvibes/bot/features/transfer"
	"archedvibes/bot/features/wagers"
	"archedvibes/events"
	"archedvibes/infrastructure/observability"
	"archedvibes/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Config holds bot configuration
type Config struct {
	Token   string
	GuildID string // Commands register to this guild; empty registers globally

	LogChannelID     string
	VouchChannelID   string
	SupportChannelID string
	TicketCategoryID string

	InfiniteRoleID string
	DefaultRoleID  string
	StaffRoleID    string
}

// Services are the core components the bot drives
type Services struct {
	Ledger    service.LedgerStore
	Wagers    service.WagerEngine
	Giveaways service.GiveawayScheduler
	History   service.BalanceHistoryRepository // nil when persistence is disabled
	Clock     service.Clock
}

// Bot manages the Discord session and all feature modules
type Bot struct {
	// Core components
	config    Config
	session   *discordgo.Session
	tickets   service.TicketManager
	metrics   *observability.MetricsProvider
	startedAt time.Time

	// Feature modules
	balance     *balance.Feature
	transfer    *transfer.Feature
	wagers      *wagers.Feature
	leaderboard *leaderboard.Feature
	giveaway    *giveaway.Feature
	ticketDesk  *tickets.Feature
	community   *community.Feature
	moderation  *moderation.Feature
	auditLog    *auditlog.Feature
}

// New creates the Discord session, wires every feature and subscribes the
// announcement handlers to bus. It does not connect; call Open. metrics may be nil.
func New(config Config, services Services, bus *events.Bus, metrics *observability.MetricsProvider) (*Bot, error) {
	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsAll

	creator := tickets.NewChannelCreator(dg, config.GuildID, config.TicketCategoryID, config.StaffRoleID)

	bot := &Bot{
		config:    config,
		session:   dg,
		tickets:   service.NewTicketManager(creator, services.Clock, bus),
		metrics:   metrics,
		startedAt: services.Clock.Now(),
	}

	// Create feature modules
	bot.balance = balance.New(services.Ledger, services.History)
	bot.transfer = transfer.New(services.Ledger, config.InfiniteRoleID)
	bot.wagers = wagers.NewFeature(services.Wagers)
	bot.leaderboard = leaderboard.NewFeature(services.Wagers, common.LeaderboardSize)
	bot.giveaway = giveaway.NewFeature(dg, services.Giveaways)
	bot.ticketDesk = tickets.NewFeature(bot.tickets, config.StaffRoleID)
	bot.community = community.NewFeature(community.Config{
		VouchChannelID:   config.VouchChannelID,
		SupportChannelID: config.SupportChannelID,
	}, bot.startedAt)
	bot.moderation = moderation.NewFeature()
	bot.auditLog = auditlog.NewFeature(dg, config.LogChannelID)

	// Event-driven announcements
	bot.giveaway.Register(bus)
	bot.auditLog.Register(bus)

	// Register handlers
	dg.AddHandler(bot.handleReady)
	dg.AddHandler(bot.handleCommands)
	dg.AddHandler(bot.handleInteractions)
	dg.AddHandler(bot.handleReactionAdd)
	dg.AddHandler(bot.handleMemberJoin)

	return bot, nil
}

// Open connects to the gateway and registers slash commands. Bus
// subscribers are already in place from New, so state restored in between
// is announced even before the connection is up.
func (b *Bot) Open() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}

	if err := b.registerCommands(); err != nil {
		b.session.Close()
		return fmt.Errorf("error registering commands: %w", err)
	}
	return nil
}

// Close gracefully shuts down the bot
func (b *Bot) Close() error {
	return b.session.Close()
}

func (b *Bot) handleReady(s *discordgo.Session, r *discordgo.Ready) {
	log.WithFields(log.Fields{
		"user":   r.User.String(),
		"guilds": len(r.Guilds),
	}).Info("Logged in to Discord")
}

// handleCommands routes slash commands to appropriate handlers
func (b *Bot) handleCommands(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	name := i.ApplicationCommandData().Name
	b.metrics.RecordCommand(name)

	switch name {
	case "balance", "history":
		b.balance.HandleCommand(s, i)
	case "givecoin", "transfer":
		b.transfer.HandleCommand(s, i)
	case "coinflip", "cf", "slots", "tictactoe", "ttt", "rps", "luck":
		b.wagers.HandleCommand(s, i)
	case "richest", "topgamblers":
		b.leaderboard.HandleCommand(s, i)
	case "gstart", "gend", "reroll":
		b.giveaway.HandleCommand(s, i)
	case "ticketpanel":
		b.ticketDesk.HandleCommand(s, i)
	case "ping", "botinfo", "say", "shinycheck", "paid", "vouch":
		b.community.HandleCommand(s, i)
	case "kick", "ban", "lock", "unlock", "hide", "unhide":
		b.moderation.HandleCommand(s, i)
	default:
		log.WithField("command", name).Warn("Unhandled command")
	}
}

// handleInteractions routes component interactions to appropriate features
func (b *Bot) handleInteractions(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}

	customID := i.MessageComponentData().CustomID
	switch {
	case strings.HasPrefix(customID, "ticket_"):
		b.ticketDesk.HandleComponent(s, i, customID)
	default:
		log.WithField("customID", customID).Debug("Unhandled component interaction")
	}
}

func (b *Bot) handleReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	b.giveaway.HandleReactionAdd(s, r)
}

// handleMemberJoin gives every new member the default role
func (b *Bot) handleMemberJoin(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	if b.config.DefaultRoleID == "" || m.User == nil {
		return
	}
	if err := s.GuildMemberRoleAdd(m.GuildID, m.User.ID, b.config.DefaultRoleID); err != nil {
		log.WithFields(log.Fields{
			"guildID": m.GuildID,
			"userID":  m.User.ID,
			"error":   err,
		}).Error("Failed to assign default role")
		return
	}
	log.WithField("userID", m.User.ID).Info("Assigned default role to new member")
}
