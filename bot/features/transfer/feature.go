package transfer

import (
	"archedvibes/service"

	"github.com/bwmarrin/discordgo"
)

// Feature handles /givecoin and its /transfer alias
type Feature struct {
	ledger         service.LedgerStore
	infiniteRoleID string
}

func New(ledger service.LedgerStore, infiniteRoleID string) *Feature {
	return &Feature{
		ledger:         ledger,
		infiniteRoleID: infiniteRoleID,
	}
}

func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	f.handleGive(s, i)
}
