package wagers

import (
	"fmt"
	"strings"

	"archedvibes/bot/common"
	"archedvibes/models"
)

var gameTitles = map[models.GameKind]string{
	models.GameTicTacToe: "Tic Tac Toe",
	models.GameRPS:       "Rock Paper Scissors",
}

// FormatOutcome renders the chat reply for a settled wager
func FormatOutcome(o *models.WagerOutcome) string {
	if !o.Available {
		return fmt.Sprintf("🚧 %s is under development.", gameTitles[o.Game])
	}

	var b strings.Builder
	if len(o.Symbols) > 0 {
		fmt.Fprintf(&b, "🎰 Result: %s\n", strings.Join(o.Symbols, " "))
	}

	switch {
	case o.Won && o.Game == models.GameSlots:
		fmt.Fprintf(&b, "🎉 Jackpot! You won **%s** coins.", common.FormatBalance(o.NetChange))
	case o.Won:
		fmt.Fprintf(&b, "🎉 You won! Gained **%s** coins.", common.FormatBalance(o.NetChange))
	default:
		fmt.Fprintf(&b, "😔 You lost! Lost **%s** coins.", common.FormatBalance(-o.NetChange))
	}
	fmt.Fprintf(&b, " Balance: **%s**", common.FormatBalance(o.NewBalance))
	return b.String()
}
