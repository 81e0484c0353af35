package common

// Discord color constants
const (
	ColorPrimary = 0x5865F2 // Discord blurple
	ColorSuccess = 0x57F287 // Green
	ColorDanger  = 0xED4245 // Red
	ColorWarning = 0xFEE75C // Yellow
	ColorInfo    = 0x3498DB // Blue
	ColorGold    = 0xF1C40F
	ColorOrange  = 0xE67E22
	ColorGray    = 0x607D8B
)

// Emoji used across features
const (
	GiveawayEmoji = "🎉"
	TicketEmoji   = "🎫"
)

// Component custom IDs
const (
	TicketOpenButtonID  = "ticket_open"
	TicketCloseButtonID = "ticket_close"
)

// LeaderboardSize is the number of rows shown by /richest and /topgamblers
const LeaderboardSize = 5
