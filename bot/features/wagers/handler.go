package wagers

import (
	"context"
	"fmt"

	"archedvibes/bot/common"
	"archedvibes/models"

	"github.com/bwmarrin/discordgo"
)

func (f *Feature) handleWager(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	name := i.ApplicationCommandData().Name
	game, ok := models.ParseGameKind(name)
	if !ok {
		common.HandleError(s, i, common.NewSystemError(fmt.Errorf("unrouted game %q", name), "wager routing"), false)
		return
	}

	var stake int64
	if opt, ok := common.Options(i)["amount"]; ok {
		stake = opt.IntValue()
	}

	userID, err := common.ParseUserID(common.InvokingUser(i).ID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "parse user id"), false)
		return
	}

	outcome, err := f.engine.PlaceWager(ctx, userID, game, stake)
	if err != nil {
		common.HandleError(s, i, common.MapServiceError(err, "wager failed"), false)
		return
	}

	common.LogRespondError(common.RespondWithMessage(s, i, FormatOutcome(outcome), false), name)
}

func (f *Feature) handleLuck(s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID, err := common.ParseUserID(common.InvokingUser(i).ID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "parse user id"), false)
		return
	}

	message := fmt.Sprintf("🍀 Your luck today is: **%d%%**", f.engine.Luck(userID))
	common.LogRespondError(common.RespondWithMessage(s, i, message, false), "luck")
}
