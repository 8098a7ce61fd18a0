package approval

import (
	"time"

	"github.com/viant/onramp/model"
)

// Status is the lifecycle state of an approval request. A request starts
// pending and takes exactly one terminal transition; terminal requests are
// never mutated again.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
)

// Terminal reports whether the status permits no further transition.
func (s Status) Terminal() bool {
	return s != StatusPending
}

// Type classifies what an approval gates. Each type carries its own SLA
// timeout.
type Type string

const (
	TypeTicketCreation     Type = "ticket_creation"
	TypeEnvProgression     Type = "environment_progression"
	TypeProdDeployment     Type = "production_deployment"
	TypeCredentialIssuance Type = "credential_issuance"
)

// EmergencyTimeout is the reduced SLA applied to emergency requests of any
// type.
const EmergencyTimeout = 4 * time.Hour

// DefaultTimeout returns the SLA timeout for the approval type.
func (t Type) DefaultTimeout() time.Duration {
	switch t {
	case TypeTicketCreation, TypeCredentialIssuance:
		return 24 * time.Hour
	case TypeEnvProgression:
		return 48 * time.Hour
	case TypeProdDeployment:
		return 72 * time.Hour
	}
	return 48 * time.Hour
}

// Request represents one human approval request. Any single approver in the
// Approvers list satisfies the gate; there is no quorum.
type Request struct {
	ID          string        `json:"id"`
	ThreadID    string        `json:"threadId"`
	Environment model.EnvKind `json:"environment"`
	Type        Type          `json:"type"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Approvers   []string      `json:"approvers"`

	// Evidence is a free-form snapshot attached at creation time for the
	// approver's benefit; it is informational only.
	Evidence map[string]interface{} `json:"evidence,omitempty"`

	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`

	ApprovedBy      string     `json:"approvedBy,omitempty"`
	DecidedAt       *time.Time `json:"decidedAt,omitempty"`
	Comments        string     `json:"comments,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
}

// ExpiredAt reports whether the request's deadline has passed at the given
// instant.
func (r *Request) ExpiredAt(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && now.After(r.ExpiresAt)
}

// PermitsApprover reports whether the identity is in the required approvers
// list.
func (r *Request) PermitsApprover(identity string) bool {
	for _, approver := range r.Approvers {
		if approver == identity {
			return true
		}
	}
	return false
}

// Event topics published on the service queue.
const (
	TopicRequestCreated = "approval.request.created"
	TopicRequestDecided = "approval.request.decided"
	TopicRequestExpired = "approval.request.expired"
)

// Event is the envelope fanned out for every approval lifecycle change.
type Event struct {
	Topic   string    `json:"topic"`
	Request *Request  `json:"request"`
	At      time.Time `json:"at"`
}

// Summary aggregates a thread's approval requests by status.
type Summary struct {
	ThreadID string     `json:"threadId"`
	Total    int        `json:"total"`
	Pending  int        `json:"pending"`
	Approved int        `json:"approved"`
	Rejected int        `json:"rejected"`
	Expired  int        `json:"expired"`
	Requests []*Request `json:"requests"`
}
