package common

import (
	"errors"
	"fmt"

	"archedvibes/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

const genericFailure = "Something went wrong. Please try again later."

// BotError represents a structured error with user-facing and internal messages
type BotError struct {
	UserMessage string      // Message shown to Discord user
	LogMessage  string      // Internal message for logging
	Ephemeral   bool        // Whether the error message should be ephemeral
	Err         error       // Underlying error
	Context     interface{} // Additional context for logging
	Expected    bool        // User-caused; logged at info instead of error
}

// Error implements the error interface
func (e *BotError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.LogMessage, e.Err)
	}
	return e.LogMessage
}

// Unwrap returns the underlying error
func (e *BotError) Unwrap() error {
	return e.Err
}

// NewUserError creates an error for user-caused issues (validation, insufficient funds, etc)
func NewUserError(userMessage string, logMessage string) *BotError {
	return &BotError{
		UserMessage: userMessage,
		LogMessage:  logMessage,
		Ephemeral:   true,
		Expected:    true,
	}
}

// NewSystemError creates an error for system issues (Discord API, unexpected state, etc)
func NewSystemError(err error, logMessage string) *BotError {
	return &BotError{
		UserMessage: genericFailure,
		LogMessage:  logMessage,
		Ephemeral:   true,
		Err:         err,
	}
}

// MapServiceError turns a service failure into a BotError. Expected service
// errors keep their message for the user; anything else is a system error.
func MapServiceError(err error, logMessage string) *BotError {
	var botErr *BotError
	if errors.As(err, &botErr) {
		return botErr
	}

	var cooldown *service.OnCooldownError
	if errors.As(err, &cooldown) {
		e := NewUserError(
			fmt.Sprintf("This command is on cooldown. Try again in %s.", FormatDuration(cooldown.Remaining)),
			logMessage,
		)
		e.Err = err
		return e
	}

	var userMessage string
	switch {
	case errors.Is(err, service.ErrInvalidAmount):
		userMessage = "Amount must be a positive whole number."
	case errors.Is(err, service.ErrInsufficientFunds):
		userMessage = "You don't have enough coins."
	case errors.Is(err, service.ErrSelfTransfer):
		userMessage = "You cannot give coins to yourself."
	case errors.Is(err, service.ErrUnknownGame):
		userMessage = "That game does not exist."
	case errors.Is(err, service.ErrInvalidDuration):
		userMessage = "Invalid duration format. Use e.g. `1d 2h 30m`."
	case errors.Is(err, service.ErrGiveawayNotFound):
		userMessage = "Giveaway not found."
	case errors.Is(err, service.ErrGiveawayClosed):
		userMessage = "That giveaway has already ended."
	case errors.Is(err, service.ErrNoEntrants):
		userMessage = "No valid entries, no winner selected."
	case errors.Is(err, service.ErrTicketAlreadyOpen):
		userMessage = "You already have an open ticket."
	case errors.Is(err, service.ErrTicketNotFound):
		userMessage = "There is no open ticket here."
	default:
		return NewSystemError(err, logMessage)
	}

	e := NewUserError(userMessage, logMessage)
	e.Err = err
	return e
}

// RespondWithError sends an error message as an interaction response
func RespondWithError(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: fmt.Sprintf("❌ %s", message),
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Errorf("Error sending error response: %v", err)
	}
}

// FollowUpWithError sends an error message as a follow-up to a deferred interaction
func FollowUpWithError(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	_, err := s.FollowupMessageCreate(i.Interaction, false, &discordgo.WebhookParams{
		Content: fmt.Sprintf("❌ %s", message),
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		log.Errorf("Error sending follow-up error message: %v", err)
	}
}

// HandleError processes an error and responds appropriately
func HandleError(s *discordgo.Session, i *discordgo.InteractionCreate, err error, deferred bool) {
	botErr := MapServiceError(err, "Command failed")

	fields := log.Fields{
		"interaction":  InteractionName(i),
		"error":        botErr.Error(),
		"user_message": botErr.UserMessage,
		"context":      botErr.Context,
	}
	if user := InvokingUser(i); user != nil {
		fields["user_id"] = user.ID
	}
	if botErr.Expected {
		log.WithFields(fields).Info(botErr.LogMessage)
	} else {
		log.WithFields(fields).Error(botErr.LogMessage)
	}

	if deferred {
		FollowUpWithError(s, i, botErr.UserMessage)
	} else {
		RespondWithError(s, i, botErr.UserMessage)
	}
}

// InteractionName returns the command name or component custom ID of an interaction
func InteractionName(i *discordgo.InteractionCreate) string {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		return i.ApplicationCommandData().Name
	case discordgo.InteractionMessageComponent:
		return i.MessageComponentData().CustomID
	case discordgo.InteractionModalSubmit:
		return i.ModalSubmitData().CustomID
	}
	return ""
}
