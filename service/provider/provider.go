// Package provider holds the evidence collaborators the orchestrator
// consumes: ticket creation, secret storage, screenshot uploads and
// outbound sign-off email. Evidence creation is a separate, retryable step
// that happens before any transition is attempted; a provider failure never
// leaves a partially applied transition behind.
package provider

import (
	"context"

	"github.com/viant/onramp/model"
)

// Tickets raises tickets in an external ticketing system.
type Tickets interface {
	// Create raises one ticket of the given kind (NSSR, OAuth, GLAM, GWAM)
	// for the client and returns its reference.
	Create(ctx context.Context, client, kind, summary string) (*model.TicketRef, error)
}

// Secrets stores client secrets and returns masked references; the raw
// secret never appears in evidence.
type Secrets interface {
	Store(ctx context.Context, client string, kind model.EnvKind, secret string) (*model.SecretRef, error)
}

// Screenshots persists validation screenshots and returns storage-backed
// references.
type Screenshots interface {
	Upload(ctx context.Context, threadID string, kind model.EnvKind, label string, data []byte) (*model.ScreenshotRef, error)
}

// Email sends the sign-off email for an environment and returns the
// outbound message id.
type Email interface {
	SendSignoff(ctx context.Context, aThread *model.Thread, kind model.EnvKind, recipients []string) (string, error)
}
