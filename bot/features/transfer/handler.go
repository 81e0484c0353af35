package transfer

import (
	"context"

	"archedvibes/bot/common"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

func (f *Feature) handleGive(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	opts := common.Options(i)
	userOpt, okUser := opts["user"]
	amountOpt, okAmount := opts["amount"]
	if !okUser || !okAmount {
		common.HandleError(s, i, common.NewUserError("Please provide both a user and an amount.", "missing transfer options"), false)
		return
	}

	recipient := userOpt.UserValue(s)
	if recipient == nil {
		common.HandleError(s, i, common.NewUserError("Invalid recipient user.", "unresolvable recipient"), false)
		return
	}
	amount := amountOpt.IntValue()

	sender := common.InvokingUser(i)
	fromID, err := common.ParseUserID(sender.ID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "parse sender id"), false)
		return
	}
	toID, err := common.ParseUserID(recipient.ID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "parse recipient id"), false)
		return
	}

	privileged := common.HasRole(i.Member, f.infiniteRoleID)
	if err := f.ledger.Transfer(ctx, fromID, toID, amount, privileged); err != nil {
		common.HandleError(s, i, common.MapServiceError(err, "transfer failed"), false)
		return
	}

	log.WithFields(log.Fields{
		"from":       fromID,
		"to":         toID,
		"amount":     amount,
		"privileged": privileged,
	}).Info("Coins transferred")

	common.LogRespondError(
		common.RespondWithMessage(s, i, common.FormatTransferResult(amount, recipient.ID), false),
		common.InteractionName(i),
	)
}
