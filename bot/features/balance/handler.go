package balance

import (
	"context"
	"fmt"
	"strings"

	"archedvibes/bot/common"
	"archedvibes/models"

	"github.com/bwmarrin/discordgo"
)

var errHistoryDisabled = common.NewUserError("Balance history isn't being recorded on this server.", "history requested without persistence")

func (f *Feature) handleBalance(s *discordgo.Session, i *discordgo.InteractionCreate) {
	target := targetUser(s, i)
	userID, err := common.ParseUserID(target.ID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "parse user id"), false)
		return
	}

	message := fmt.Sprintf("**%s** has **%s** coins.", target.Username, common.FormatBalance(f.ledger.GetBalance(userID)))
	common.LogRespondError(common.RespondWithMessage(s, i, message, false), "balance")
}

func (f *Feature) handleHistory(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if f.history == nil {
		common.HandleError(s, i, errHistoryDisabled, false)
		return
	}

	target := targetUser(s, i)
	userID, err := common.ParseUserID(target.ID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "parse user id"), false)
		return
	}

	entries, err := f.history.GetByUser(context.Background(), userID, HistoryLimit)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "load balance history"), false)
		return
	}

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Recent activity for %s", target.Username),
		Description: HistoryDescription(entries),
		Color:       common.ColorPrimary,
	}
	common.LogRespondError(common.RespondWithEmbed(s, i, embed, nil, true), "history")
}

// HistoryDescription lists balance changes newest first, one per line
func HistoryDescription(entries []*models.BalanceHistory) string {
	if len(entries) == 0 {
		return "No balance changes recorded yet."
	}

	var b strings.Builder
	for _, e := range entries {
		sign := "+"
		if e.ChangeAmount < 0 {
			sign = ""
		}
		fmt.Fprintf(&b, "%s **%s%s** %s → %s\n",
			common.FormatDiscordTimestamp(e.CreatedAt, "R"),
			sign, common.FormatBalance(e.ChangeAmount),
			transactionLabel(e.TransactionType),
			common.FormatBalance(e.BalanceAfter),
		)
	}
	return strings.TrimRight(b.String(), "\n")
}

func transactionLabel(t models.TransactionType) string {
	switch t {
	case models.TransactionTypeCredit:
		return "credit"
	case models.TransactionTypeDebit:
		return "debit"
	case models.TransactionTypeTransferIn:
		return "received"
	case models.TransactionTypeTransferOut:
		return "sent"
	case models.TransactionTypeWagerWin:
		return "wager won"
	case models.TransactionTypeWagerLoss:
		return "wager lost"
	}
	return string(t)
}

func targetUser(s *discordgo.Session, i *discordgo.InteractionCreate) *discordgo.User {
	target := common.InvokingUser(i)
	if opt, ok := common.Options(i)["user"]; ok {
		if u := opt.UserValue(s); u != nil {
			target = u
		}
	}
	return target
}
