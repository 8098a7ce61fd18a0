package approval

import (
	"context"
	"errors"
	"time"

	"github.com/viant/onramp/model"
	"github.com/viant/onramp/service/messaging"
)

// Service errors detectable with errors.Is.
var (
	// ErrNotFound indicates an unknown approval id.
	ErrNotFound = errors.New("approval: not found")

	// ErrNotPending indicates the request already took its terminal
	// transition.
	ErrNotPending = errors.New("approval: not pending")

	// ErrExpired indicates the request's deadline passed before the
	// decision; the request is demoted to expired as a side effect.
	ErrExpired = errors.New("approval: expired")

	// ErrUnauthorizedApprover indicates the caller is not in the request's
	// required approvers list.
	ErrUnauthorizedApprover = errors.New("approval: approver not authorized")
)

// Spec describes a new approval request. Timeout of zero applies the
// type-specific default.
type Spec struct {
	ThreadID    string
	Environment model.EnvKind
	Type        Type
	Title       string
	Description string
	Approvers   []string
	Evidence    map[string]interface{}
	Timeout     time.Duration
}

// Service manages human-in-the-loop approval requests.
type Service interface {
	// Create registers a pending request, assigns its id and deadline and
	// emits an audit entry. It fails when the approvers list is empty.
	Create(ctx context.Context, spec *Spec) (*Request, error)

	// Get returns the request by id, or ErrNotFound.
	Get(ctx context.Context, id string) (*Request, error)

	// Approve takes the approved terminal transition. It fails with
	// ErrNotFound, ErrNotPending, ErrExpired or ErrUnauthorizedApprover and
	// mutates nothing on failure, except that an overdue pending request is
	// demoted to expired.
	Approve(ctx context.Context, id, approver, comments string) error

	// Reject takes the rejected terminal transition with the same
	// preconditions as Approve.
	Reject(ctx context.Context, id, approver, reason string) error

	// ListPending returns still-pending requests, optionally filtered by
	// thread id (empty matches all). Overdue pending requests are demoted to
	// expired as a read-time side effect and never returned as actionable.
	ListPending(ctx context.Context, threadID string) ([]*Request, error)

	// SweepExpired demotes every pending-but-overdue request to expired,
	// emitting one audit entry per expiry, and returns the demoted requests.
	SweepExpired(ctx context.Context) ([]*Request, error)

	// Escalate records an escalation of a pending request in the audit log.
	// It does not change the request's deadline.
	Escalate(ctx context.Context, id, actor, reason string) error

	// Summary returns the thread's requests aggregated by status.
	Summary(ctx context.Context, threadID string) (*Summary, error)

	// Queue exposes the event queue fanning out lifecycle changes.
	Queue() messaging.Queue[Event]
}
