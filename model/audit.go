package model

import "time"

// Audit actions emitted by the engine.
const (
	AuditThreadCreated        = "thread_created"
	AuditStateTransition      = "state_transition"
	AuditApprovalRequested    = "approval_requested"
	AuditApprovalGranted      = "approval_granted"
	AuditApprovalRejected     = "approval_rejected"
	AuditApprovalExpired      = "approval_expired"
	AuditApprovalEscalated    = "approval_escalated"
	AuditProductionDeployment = "production_deployment"
	AuditTicketUpdated        = "ticket_updated"
	AuditEmailReceived        = "email_received"
)

// AuditEntry is one append-only audit record. ID is assigned by the sink at
// persistence time; ThreadID is empty for system-wide events.
type AuditEntry struct {
	ID        int                    `json:"id,omitempty"`
	ThreadID  string                 `json:"threadId,omitempty"`
	Actor     string                 `json:"actor"`
	Action    string                 `json:"action"`
	Details   map[string]interface{} `json:"details,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
}
