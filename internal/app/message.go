package app

import (
	"errors"

	"kanban-cli/internal/form"
	"kanban-cli/internal/mutate"
	"kanban-cli/internal/service"
)

// Message is the user-facing text for err: the refusal or validation message
// when there is one, else the backend's message.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var fe mutate.ForbiddenError
	if errors.As(err, &fe) {
		return fe.Error()
	}
	var ve *form.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	return service.UserMessage(err)
}

// LoadErrorMessage is the notification for a failed board load.
func LoadErrorMessage(err error) string {
	return "Load tasks error: " + Message(err)
}
