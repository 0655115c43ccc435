package dispatch

import (
	"context"
	"fmt"

	"voicerelay/internal/models"
)

// Mock answers every intent from a static table without touching any
// external system. Used when no workflow webhook is configured.
type Mock struct{}

func NewMock() *Mock { return &Mock{} }

const unknownResponse = "I'm not sure how to handle that request"

func (m *Mock) Dispatch(_ context.Context, intent *models.Intent) (*models.ExecutionResult, error) {
	title := intent.Title
	if title == "" {
		title = "Untitled"
	}

	var result string
	switch intent.Action {
	case models.ActionCreateEvent:
		result = fmt.Sprintf("Event %q has been created in your calendar", title)
	case models.ActionCreateTask:
		result = fmt.Sprintf("Task %q has been added to your todo list", title)
	case models.ActionSendMessage:
		result = fmt.Sprintf("Message %q has been sent", title)
	case models.ActionSetReminder:
		result = fmt.Sprintf("Reminder %q has been set", title)
	case models.ActionSearchInfo:
		query := intent.Title
		if query == "" {
			query = intent.Details
		}
		if query == "" {
			query = "your query"
		}
		result = fmt.Sprintf("Search completed for %q", query)
	default:
		// Unrecognized actions fall back to the unknown response.
		result = unknownResponse
	}

	return &models.ExecutionResult{
		Success: true,
		Result:  result,
		Intent:  intent,
		Mock:    true,
	}, nil
}
