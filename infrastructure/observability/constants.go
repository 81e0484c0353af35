package observability

// Metric name prefixes
const (
	MetricPrefix = "archedvibes"
)

// Metric names
const (
	// Ledger metrics
	BalanceTransactionsTotal = MetricPrefix + ".balance.transactions_total"

	// Wager metrics
	WagersSettledTotal = MetricPrefix + ".wagers.settled_total"

	// Giveaway metrics
	GiveawaysActive     = MetricPrefix + ".giveaways.active"
	GiveawaysEndedTotal = MetricPrefix + ".giveaways.ended_total"

	// Ticket metrics
	TicketsOpen        = MetricPrefix + ".tickets.open"
	TicketsOpenedTotal = MetricPrefix + ".tickets.opened_total"

	// NATS metrics
	NATSMessagesPublishedTotal = MetricPrefix + ".nats.messages_published_total"

	// Discord metrics
	CommandsHandledTotal = MetricPrefix + ".discord.commands_total"
)

// Label keys
const (
	LabelType      = "type"
	LabelEventType = "event_type"
	LabelGame      = "game"
	LabelOutcome   = "outcome"
	LabelStatus    = "status"
	LabelCommand   = "command"
)

// Wager outcomes
const (
	OutcomeWin  = "win"
	OutcomeLoss = "loss"
)
