package common

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"archedvibes/service"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

func TestMapServiceError_Expected(t *testing.T) {
	tests := []struct {
		err      error
		expected string
	}{
		{service.ErrInvalidAmount, "Amount must be a positive whole number."},
		{service.ErrInsufficientFunds, "You don't have enough coins."},
		{service.ErrSelfTransfer, "You cannot give coins to yourself."},
		{service.ErrInvalidDuration, "Invalid duration format. Use e.g. `1d 2h 30m`."},
		{service.ErrGiveawayNotFound, "Giveaway not found."},
		{service.ErrGiveawayClosed, "That giveaway has already ended."},
		{service.ErrNoEntrants, "No valid entries, no winner selected."},
		{service.ErrTicketAlreadyOpen, "You already have an open ticket."},
		{service.ErrTicketNotFound, "There is no open ticket here."},
		{fmt.Errorf("wrapped: %w", service.ErrInsufficientFunds), "You don't have enough coins."},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			botErr := MapServiceError(tt.err, "test")
			assert.Equal(t, tt.expected, botErr.UserMessage)
			assert.True(t, botErr.Expected)
			assert.True(t, botErr.Ephemeral)
			assert.ErrorIs(t, botErr, tt.err)
		})
	}
}

func TestMapServiceError_Cooldown(t *testing.T) {
	err := &service.OnCooldownError{Remaining: 9*time.Minute + 30*time.Second}

	botErr := MapServiceError(err, "wager failed")

	assert.Equal(t, "This command is on cooldown. Try again in 9m 30s.", botErr.UserMessage)
	assert.True(t, botErr.Expected)
	assert.ErrorIs(t, botErr, service.ErrOnCooldown)
}

func TestMapServiceError_Unexpected(t *testing.T) {
	cause := errors.New("discord: 500 internal server error")

	botErr := MapServiceError(cause, "create channel")

	assert.Equal(t, genericFailure, botErr.UserMessage)
	assert.False(t, botErr.Expected)
	assert.Equal(t, "create channel: discord: 500 internal server error", botErr.Error())
}

func TestMapServiceError_PassesBotErrorThrough(t *testing.T) {
	original := NewUserError("Only staff can do that.", "permission denied")

	assert.Same(t, original, MapServiceError(original, "ignored"))
}

func TestHasPermission(t *testing.T) {
	member := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Member: &discordgo.Member{Permissions: discordgo.PermissionKickMembers},
	}}
	admin := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Member: &discordgo.Member{Permissions: discordgo.PermissionAdministrator},
	}}
	dm := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{}}

	assert.True(t, HasPermission(member, discordgo.PermissionKickMembers))
	assert.False(t, HasPermission(member, discordgo.PermissionBanMembers))
	assert.True(t, HasPermission(admin, discordgo.PermissionBanMembers))
	assert.False(t, HasPermission(dm, discordgo.PermissionKickMembers))
}

func TestHasRole(t *testing.T) {
	member := &discordgo.Member{Roles: []string{"1", "2"}}

	assert.True(t, HasRole(member, "2"))
	assert.False(t, HasRole(member, "3"))
	assert.False(t, HasRole(member, ""))
	assert.False(t, HasRole(nil, "1"))
}
