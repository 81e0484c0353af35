package cmd

import (
	"context"
	"fmt"
	"time"

	"archedvibes/application"
	"archedvibes/bot"
	"archedvibes/config"
	"archedvibes/database"
	"archedvibes/events"
	"archedvibes/infrastructure"
	"archedvibes/infrastructure/observability"
	"archedvibes/repository"
	"archedvibes/service"

	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	// Load configuration
	cfg := config.Get()
	configureLogging(cfg)

	log.Info("Starting archedvibes bot...")

	// Initialize event bus
	log.Info("Initializing event bus...")
	eventBus := events.NewBus()

	// Initialize core services
	log.Info("Initializing services...")
	clock := service.SystemClock{}
	rng := service.NewRandom()
	if cfg.RandomSeed != nil {
		log.WithField("seed", *cfg.RandomSeed).Warn("Using fixed random seed")
		rng = service.NewSeededRandom(*cfg.RandomSeed)
	}
	ledger := service.NewLedgerStore(clock, eventBus)
	wagerEngine := service.NewWagerEngine(ledger, rng, cfg.WagerCooldown, eventBus)
	giveawayScheduler := service.NewGiveawayScheduler(clock, rng, eventBus)
	log.Info("Services initialized successfully")

	// Initialize metrics
	log.Info("Initializing metrics...")
	metrics := observability.NewMetricsProvider(cfg)
	if err := metrics.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	metrics.Register(eventBus)

	// Optional persistence
	var (
		db        *database.DB
		snapshots *application.SnapshotWorker
		history   service.BalanceHistoryRepository
	)
	if cfg.PersistenceEnabled() {
		log.Info("Running database migrations...")
		if err := database.RunMigrationsWithURL(cfg.GetDatabaseURL()); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		log.Info("Connecting to database...")
		var err error
		db, err = database.NewConnection(ctx, cfg.GetDatabaseURL())
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		log.Info("Database connection established successfully")

		accountRepo := repository.NewAccountRepository(db)
		giveawayRepo := repository.NewGiveawayRepository(db)
		historyRepo := repository.NewBalanceHistoryRepository(db)
		history = historyRepo

		application.NewHistoryRecorder(historyRepo).Register(eventBus)

		snapshots = application.NewSnapshotWorker(
			ledger, wagerEngine, giveawayScheduler,
			accountRepo, giveawayRepo, clock, cfg.SnapshotInterval,
		)
	} else {
		log.Warn("DATABASE_URL not set, state will not survive a restart")
	}

	// Optional NATS event forwarding
	var natsClient *infrastructure.NATSClient
	if cfg.NATSServers != "" {
		log.Info("Connecting to NATS...")
		natsClient = infrastructure.NewNATSClient(cfg.NATSServers)
		if err := natsClient.Connect(ctx); err != nil {
			closeDB(db)
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		if err := natsClient.EnsureCommunityEventStream(); err != nil {
			log.WithError(err).Error("Failed to ensure community event stream")
		}
		forwarder := infrastructure.NewEventForwarder(natsClient, infrastructure.NewEventSubjectMapper())
		forwarder.OnPublished(metrics.RecordNATSMessagePublished)
		forwarder.Register(eventBus)
		log.Info("NATS event forwarding enabled")
	}

	// Initialize Discord bot. New only subscribes; the gateway opens below.
	log.Info("Initializing Discord bot...")
	botConfig := bot.Config{
		Token:            cfg.DiscordToken,
		GuildID:          cfg.GuildID,
		LogChannelID:     cfg.LogChannelID,
		VouchChannelID:   cfg.VouchChannelID,
		SupportChannelID: cfg.SupportChannelID,
		TicketCategoryID: cfg.TicketCategoryID,
		InfiniteRoleID:   cfg.InfiniteRoleID,
		DefaultRoleID:    cfg.DefaultRoleID,
		StaffRoleID:      cfg.StaffRoleID,
	}
	services := bot.Services{
		Ledger:    ledger,
		Wagers:    wagerEngine,
		Giveaways: giveawayScheduler,
		History:   history,
		Clock:     clock,
	}
	discordBot, err := bot.New(botConfig, services, eventBus, metrics)
	if err != nil {
		closeNATS(natsClient)
		closeDB(db)
		return fmt.Errorf("failed to initialize Discord bot: %w", err)
	}

	// Every bus subscriber is registered by now, so giveaways that expired
	// while offline are announced when Restore resolves them
	stopSnapshots := func() {}
	if snapshots != nil {
		log.Info("Restoring state from database...")
		if err := snapshots.Restore(ctx); err != nil {
			giveawayScheduler.Stop()
			closeNATS(natsClient)
			closeDB(db)
			return fmt.Errorf("failed to restore state: %w", err)
		}
		stopSnapshots = snapshots.Start(ctx)
	}

	log.Info("Connecting to Discord...")
	if err := discordBot.Open(); err != nil {
		giveawayScheduler.Stop()
		stopSnapshots()
		closeNATS(natsClient)
		closeDB(db)
		return fmt.Errorf("failed to connect Discord bot: %w", err)
	}
	log.Info("Discord bot initialized successfully")

	// Wait for context cancellation
	log.Infof("Bot is running in %s mode...", cfg.Environment)
	<-ctx.Done()

	log.Info("Shutting down bot...")

	if err := discordBot.Close(); err != nil {
		log.WithError(err).Error("Error closing Discord bot")
	}

	// Pending giveaway timers resume from the final snapshot on next start
	giveawayScheduler.Stop()
	stopSnapshots()
	closeNATS(natsClient)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metrics.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down metrics")
	}

	closeDB(db)

	log.Info("Shutdown completed")
	return nil
}

func configureLogging(cfg *config.Config) {
	if cfg.IsProduction() {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("Unknown log level, defaulting to info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

func closeNATS(client *infrastructure.NATSClient) {
	if client == nil {
		return
	}
	log.Info("Closing NATS connection...")
	if err := client.Close(); err != nil {
		log.WithError(err).Error("Error closing NATS connection")
	}
}

func closeDB(db *database.DB) {
	if db == nil {
		return
	}
	log.Info("Closing database connection...")
	db.Close()
}
