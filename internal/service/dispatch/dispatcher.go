package dispatch

import (
	"context"

	"voicerelay/internal/models"
)

// Dispatcher carries out (or mocks) the real-world effect of an intent.
// The variant is chosen once at startup: Webhook when a workflow endpoint
// is configured, Mock otherwise.
type Dispatcher interface {
	Dispatch(ctx context.Context, intent *models.Intent) (*models.ExecutionResult, error)
}
