package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"archedvibes/config"
	"archedvibes/events"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// MetricsProvider manages OpenTelemetry metrics for the bot
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	enabled       bool
	mu            sync.RWMutex

	// Metric instruments
	balanceTransactionsCounter   metric.Int64Counter
	wagersSettledCounter         metric.Int64Counter
	giveawaysActiveGauge         metric.Int64UpDownCounter
	giveawaysEndedCounter        metric.Int64Counter
	ticketsOpenGauge             metric.Int64UpDownCounter
	ticketsOpenedCounter         metric.Int64Counter
	natsMessagesPublishedCounter metric.Int64Counter
	commandsCounter              metric.Int64Counter
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
	}
}

// Initialize sets up the OpenTelemetry metrics provider
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		log.Info("Metrics provider already initialized")
		return nil
	}

	if !mp.config.OTELEnabled {
		log.Info("OpenTelemetry metrics disabled")
		mp.initialized = true
		return nil
	}

	var (
		exporter sdkmetric.Exporter
		err      error
	)
	switch mp.config.OTELExporterType {
	case "console":
		exporter, err = stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console exporter: %w", err)
		}
		log.Info("Using console metric exporter")

	case "otlp":
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exporter, err = otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTELOTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		log.WithField("endpoint", mp.config.OTELOTLPEndpoint).Info("Using OTLP metric exporter")

	case "none":
		log.Info("Metrics export disabled (exporter_type='none')")
		mp.initialized = true
		return nil

	default:
		return fmt.Errorf("unknown exporter type: %s", mp.config.OTELExporterType)
	}

	reader := sdkmetric.NewPeriodicReader(
		exporter,
		sdkmetric.WithInterval(time.Duration(mp.config.OTELExportIntervalMS)*time.Millisecond),
	)
	if err := mp.install(reader); err != nil {
		return err
	}

	otel.SetMeterProvider(mp.meterProvider)
	log.Info("Metrics provider initialized successfully")
	return nil
}

// install builds the meter provider around reader and creates the instruments.
// Callers hold mp.mu.
func (mp *MetricsProvider) install(reader sdkmetric.Reader) error {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceName(mp.config.OTELServiceName),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	mp.meter = mp.meterProvider.Meter("archedvibes")

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.initialized = true
	mp.enabled = true
	return nil
}

// createInstruments creates all metric instruments
func (mp *MetricsProvider) createInstruments() error {
	var err error

	mp.balanceTransactionsCounter, err = mp.meter.Int64Counter(
		BalanceTransactionsTotal,
		metric.WithDescription("Total number of balance transactions"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create balance transactions counter: %w", err)
	}

	mp.wagersSettledCounter, err = mp.meter.Int64Counter(
		WagersSettledTotal,
		metric.WithDescription("Total number of settled wagers"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create wagers settled counter: %w", err)
	}

	mp.giveawaysActiveGauge, err = mp.meter.Int64UpDownCounter(
		GiveawaysActive,
		metric.WithDescription("Current number of open giveaways"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create giveaways active gauge: %w", err)
	}

	mp.giveawaysEndedCounter, err = mp.meter.Int64Counter(
		GiveawaysEndedTotal,
		metric.WithDescription("Total number of ended giveaways"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create giveaways ended counter: %w", err)
	}

	mp.ticketsOpenGauge, err = mp.meter.Int64UpDownCounter(
		TicketsOpen,
		metric.WithDescription("Current number of open tickets"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create tickets open gauge: %w", err)
	}

	mp.ticketsOpenedCounter, err = mp.meter.Int64Counter(
		TicketsOpenedTotal,
		metric.WithDescription("Total number of opened tickets"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create tickets opened counter: %w", err)
	}

	mp.natsMessagesPublishedCounter, err = mp.meter.Int64Counter(
		NATSMessagesPublishedTotal,
		metric.WithDescription("Total number of NATS messages published"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create NATS messages published counter: %w", err)
	}

	mp.commandsCounter, err = mp.meter.Int64Counter(
		CommandsHandledTotal,
		metric.WithDescription("Total number of slash commands handled"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create commands counter: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the metrics provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

// Register feeds bus events into the instruments
func (mp *MetricsProvider) Register(bus *events.Bus) {
	bus.Subscribe(events.EventTypeBalanceChange, func(ctx context.Context, e events.Event) {
		if ev, ok := e.(events.BalanceChangeEvent); ok {
			mp.RecordBalanceTransaction(string(ev.TransactionType))
		}
	})
	bus.Subscribe(events.EventTypeWagerSettled, func(ctx context.Context, e events.Event) {
		if ev, ok := e.(events.WagerSettledEvent); ok {
			mp.RecordWagerSettled(string(ev.Game), ev.Won)
		}
	})
	bus.Subscribe(events.EventTypeGiveawayStarted, func(ctx context.Context, e events.Event) {
		mp.UpdateActiveGiveaways(1)
	})
	bus.Subscribe(events.EventTypeGiveawayEnded, func(ctx context.Context, e events.Event) {
		if ev, ok := e.(events.GiveawayEndedEvent); ok {
			mp.UpdateActiveGiveaways(-1)
			mp.RecordGiveawayEnded(string(ev.Status))
		}
	})
	bus.Subscribe(events.EventTypeTicketOpened, func(ctx context.Context, e events.Event) {
		mp.RecordTicketOpened()
	})
	bus.Subscribe(events.EventTypeTicketClosed, func(ctx context.Context, e events.Event) {
		mp.RecordTicketClosed()
	})
}

// RecordBalanceTransaction records a balance transaction
func (mp *MetricsProvider) RecordBalanceTransaction(transactionType string) {
	if !mp.isEnabled() {
		return
	}

	mp.balanceTransactionsCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelType, transactionType),
		),
	)
}

// RecordWagerSettled records a settled wager
func (mp *MetricsProvider) RecordWagerSettled(game string, won bool) {
	if !mp.isEnabled() {
		return
	}

	outcome := OutcomeLoss
	if won {
		outcome = OutcomeWin
	}
	mp.wagersSettledCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelGame, game),
			attribute.String(LabelOutcome, outcome),
		),
	)
}

// UpdateActiveGiveaways updates the count of open giveaways (increment/decrement)
func (mp *MetricsProvider) UpdateActiveGiveaways(delta int64) {
	if !mp.isEnabled() {
		return
	}
	mp.giveawaysActiveGauge.Add(context.Background(), delta)
}

// RecordGiveawayEnded records a giveaway reaching a terminal state
func (mp *MetricsProvider) RecordGiveawayEnded(status string) {
	if !mp.isEnabled() {
		return
	}

	mp.giveawaysEndedCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelStatus, status),
		),
	)
}

// RecordTicketOpened records a newly opened ticket
func (mp *MetricsProvider) RecordTicketOpened() {
	if !mp.isEnabled() {
		return
	}
	mp.ticketsOpenedCounter.Add(context.Background(), 1)
	mp.ticketsOpenGauge.Add(context.Background(), 1)
}

// RecordTicketClosed records a closed ticket
func (mp *MetricsProvider) RecordTicketClosed() {
	if !mp.isEnabled() {
		return
	}
	mp.ticketsOpenGauge.Add(context.Background(), -1)
}

// RecordNATSMessagePublished records a NATS message being published
func (mp *MetricsProvider) RecordNATSMessagePublished(eventType events.EventType) {
	if !mp.isEnabled() {
		return
	}

	mp.natsMessagesPublishedCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelEventType, string(eventType)),
		),
	)
}

// RecordCommand records a handled slash command
func (mp *MetricsProvider) RecordCommand(command string) {
	if !mp.isEnabled() {
		return
	}

	mp.commandsCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelCommand, command),
		),
	)
}

// isEnabled checks if metrics are enabled and initialized
func (mp *MetricsProvider) isEnabled() bool {
	if mp == nil {
		return false
	}
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.initialized && mp.enabled
}
