package giveaway

import (
	"testing"
	"time"

	"archedvibes/events"
	"archedvibes/models"

	"github.com/stretchr/testify/assert"
)

func TestResultMessage(t *testing.T) {
	winner := int64(42)

	t.Run("resolved with winner", func(t *testing.T) {
		msg, ok := ResultMessage(events.GiveawayEndedEvent{
			Prize:    "Nitro",
			Status:   models.GiveawayStatusResolved,
			WinnerID: &winner,
		})
		assert.True(t, ok)
		assert.Equal(t, "👑 Winner: <@42> | Prize: **Nitro**", msg)
	})

	t.Run("resolved without entrants", func(t *testing.T) {
		msg, ok := ResultMessage(events.GiveawayEndedEvent{Prize: "Nitro", Status: models.GiveawayStatusResolved})
		assert.True(t, ok)
		assert.Equal(t, "No valid entries, no winner selected.", msg)
	})

	t.Run("force ended stays silent", func(t *testing.T) {
		_, ok := ResultMessage(events.GiveawayEndedEvent{Prize: "Nitro", Status: models.GiveawayStatusForceEnded})
		assert.False(t, ok)
	})
}

func TestStartedEmbed(t *testing.T) {
	g := &models.Giveaway{
		Prize:  "Nitro",
		EndsAt: time.Unix(1700000000, 0),
	}

	embed := StartedEmbed(g, "1d 2h")

	assert.Contains(t, embed.Description, "**Nitro**")
	assert.Contains(t, embed.Description, "**1d 2h**")
	assert.Contains(t, embed.Description, "<t:1700000000:R>")
	assert.Equal(t, "React with 🎉 to enter!", embed.Footer.Text)
}

func TestEndedEmbed(t *testing.T) {
	winner := int64(7)

	resolved := EndedEmbed(events.GiveawayEndedEvent{Prize: "Nitro", Status: models.GiveawayStatusResolved, WinnerID: &winner})
	assert.Contains(t, resolved.Description, "<@7>")

	forced := EndedEmbed(events.GiveawayEndedEvent{Prize: "Nitro", Status: models.GiveawayStatusForceEnded})
	assert.Contains(t, forced.Description, "ended early")

	empty := EndedEmbed(events.GiveawayEndedEvent{Prize: "Nitro", Status: models.GiveawayStatusResolved})
	assert.Contains(t, empty.Description, "No valid entries")
}
