package tickets

import (
	"archedvibes/service"

	"github.com/bwmarrin/discordgo"
)

// Feature posts the support panel and drives the open/close buttons
type Feature struct {
	tickets     service.TicketManager
	staffRoleID string
}

func NewFeature(tickets service.TicketManager, staffRoleID string) *Feature {
	return &Feature{
		tickets:     tickets,
		staffRoleID: staffRoleID,
	}
}

// HandleCommand answers /ticketpanel
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	f.handlePanel(s, i)
}

// HandleComponent routes the ticket buttons
func (f *Feature) HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate, customID string) {
	switch customID {
	case "ticket_open":
		f.handleOpen(s, i)
	case "ticket_close":
		f.handleClose(s, i)
	}
}
