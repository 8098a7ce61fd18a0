package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/viant/onramp/internal/clock"
	"github.com/viant/onramp/internal/idgen"
	"github.com/viant/onramp/model"
	"github.com/viant/onramp/progress"
	"github.com/viant/onramp/service/approval"
	"github.com/viant/onramp/service/dao/audit"
	"github.com/viant/onramp/service/messaging"
	qmem "github.com/viant/onramp/service/messaging/memory"
)

// service holds the in-memory approval request set. A single mutex guards
// every mutation so each approve/reject/sweep is individually atomic;
// different requests still proceed fully in parallel from the caller's
// perspective since no operation blocks on I/O while holding the lock
// beyond event publication.
type service struct {
	mu       sync.Mutex
	requests map[string]*approval.Request

	auditSink audit.Sink
	events    messaging.Queue[approval.Event]
}

// Ensure service implements approval.Service
var _ approval.Service = (*service)(nil)

// New creates an in-memory approval service. The audit sink is optional;
// when nil, lifecycle changes are only published on the event queue.
func New(options ...Option) approval.Service {
	ret := &service{
		requests: make(map[string]*approval.Request),
		events:   qmem.NewQueue[approval.Event](qmem.DefaultConfig()),
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

func (s *service) publish(ctx context.Context, topic string, request *approval.Request) {
	snapshot := *request
	_ = s.events.Publish(ctx, &approval.Event{Topic: topic, Request: &snapshot, At: clock.Now()})
}

func (s *service) appendAudit(ctx context.Context, entry *model.AuditEntry) {
	if s.auditSink == nil {
		return
	}
	_, _ = s.auditSink.Append(ctx, entry)
}

// Create registers a pending request.
func (s *service) Create(ctx context.Context, spec *approval.Spec) (*approval.Request, error) {
	if spec == nil {
		return nil, fmt.Errorf("approval spec cannot be nil")
	}
	if len(spec.Approvers) == 0 {
		return nil, fmt.Errorf("approval request requires at least one approver")
	}
	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = spec.Type.DefaultTimeout()
	}
	now := clock.Now()
	request := &approval.Request{
		ID:          "approval-" + idgen.New(),
		ThreadID:    spec.ThreadID,
		Environment: spec.Environment,
		Type:        spec.Type,
		Title:       spec.Title,
		Description: spec.Description,
		Approvers:   append([]string(nil), spec.Approvers...),
		Evidence:    spec.Evidence,
		Status:      approval.StatusPending,
		CreatedAt:   now,
		ExpiresAt:   now.Add(timeout),
	}

	s.mu.Lock()
	s.requests[request.ID] = request
	snapshot := *request
	s.mu.Unlock()

	s.appendAudit(ctx, &model.AuditEntry{
		ThreadID: request.ThreadID,
		Actor:    "system",
		Action:   model.AuditApprovalRequested,
		Details: map[string]interface{}{
			"approvalId":  request.ID,
			"type":        string(request.Type),
			"environment": string(request.Environment),
			"approvers":   request.Approvers,
			"expiresAt":   request.ExpiresAt,
		},
	})
	s.publish(ctx, approval.TopicRequestCreated, request)
	return &snapshot, nil
}

// Get returns a copy of the request by id.
func (s *service) Get(_ context.Context, id string) (*approval.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	request, ok := s.requests[id]
	if !ok {
		return nil, fmt.Errorf("approval %v: %w", id, approval.ErrNotFound)
	}
	snapshot := *request
	return &snapshot, nil
}

// decide applies a terminal transition under the shared preconditions.
func (s *service) decide(ctx context.Context, id, approver string, apply func(*approval.Request)) error {
	now := clock.Now()

	s.mu.Lock()
	request, ok := s.requests[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("approval %v: %w", id, approval.ErrNotFound)
	}
	if request.Status.Terminal() {
		s.mu.Unlock()
		return fmt.Errorf("approval %v is %v: %w", id, request.Status, approval.ErrNotPending)
	}
	if request.ExpiredAt(now) {
		request.Status = approval.StatusExpired
		expired := *request
		s.mu.Unlock()
		s.publish(ctx, approval.TopicRequestExpired, &expired)
		return fmt.Errorf("approval %v expired at %v: %w", id, expired.ExpiresAt, approval.ErrExpired)
	}
	if !request.PermitsApprover(approver) {
		s.mu.Unlock()
		return fmt.Errorf("approval %v: %v: %w", id, approver, approval.ErrUnauthorizedApprover)
	}
	request.ApprovedBy = approver
	request.DecidedAt = &now
	apply(request)
	decided := *request
	s.mu.Unlock()

	s.publish(ctx, approval.TopicRequestDecided, &decided)
	progress.UpdateCtx(ctx, progress.Delta{ApprovalsDecided: 1})
	return nil
}

// Approve takes the approved transition.
func (s *service) Approve(ctx context.Context, id, approver, comments string) error {
	err := s.decide(ctx, id, approver, func(request *approval.Request) {
		request.Status = approval.StatusApproved
		request.Comments = comments
	})
	if err != nil {
		return err
	}
	request, _ := s.Get(ctx, id)
	s.appendAudit(ctx, &model.AuditEntry{
		ThreadID: request.ThreadID,
		Actor:    approver,
		Action:   model.AuditApprovalGranted,
		Details: map[string]interface{}{
			"approvalId":  id,
			"type":        string(request.Type),
			"environment": string(request.Environment),
			"comments":    comments,
		},
	})
	return nil
}

// Reject takes the rejected transition.
func (s *service) Reject(ctx context.Context, id, approver, reason string) error {
	err := s.decide(ctx, id, approver, func(request *approval.Request) {
		request.Status = approval.StatusRejected
		request.RejectionReason = reason
	})
	if err != nil {
		return err
	}
	request, _ := s.Get(ctx, id)
	s.appendAudit(ctx, &model.AuditEntry{
		ThreadID: request.ThreadID,
		Actor:    approver,
		Action:   model.AuditApprovalRejected,
		Details: map[string]interface{}{
			"approvalId":  id,
			"type":        string(request.Type),
			"environment": string(request.Environment),
			"reason":      reason,
		},
	})
	return nil
}

// expireOverdue demotes overdue pending requests, returning copies of the
// demoted ones. Callers must not hold the lock.
func (s *service) expireOverdue() []*approval.Request {
	now := clock.Now()
	var expired []*approval.Request
	s.mu.Lock()
	for _, request := range s.requests {
		if request.Status == approval.StatusPending && request.ExpiredAt(now) {
			request.Status = approval.StatusExpired
			snapshot := *request
			expired = append(expired, &snapshot)
		}
	}
	s.mu.Unlock()
	return expired
}

// ListPending returns still-pending requests, lazily demoting overdue ones.
func (s *service) ListPending(ctx context.Context, threadID string) ([]*approval.Request, error) {
	for _, request := range s.expireOverdue() {
		s.publish(ctx, approval.TopicRequestExpired, request)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var pending []*approval.Request
	for _, request := range s.requests {
		if request.Status != approval.StatusPending {
			continue
		}
		if threadID != "" && request.ThreadID != threadID {
			continue
		}
		snapshot := *request
		pending = append(pending, &snapshot)
	}
	return pending, nil
}

// SweepExpired demotes every overdue pending request and audits each expiry.
func (s *service) SweepExpired(ctx context.Context) ([]*approval.Request, error) {
	expired := s.expireOverdue()
	for _, request := range expired {
		s.publish(ctx, approval.TopicRequestExpired, request)
		s.appendAudit(ctx, &model.AuditEntry{
			ThreadID: request.ThreadID,
			Actor:    "system",
			Action:   model.AuditApprovalExpired,
			Details: map[string]interface{}{
				"approvalId":  request.ID,
				"type":        string(request.Type),
				"environment": string(request.Environment),
				"expiresAt":   request.ExpiresAt,
			},
		})
	}
	return expired, nil
}

// Escalate audit-logs an escalation for a pending request.
func (s *service) Escalate(ctx context.Context, id, actor, reason string) error {
	s.mu.Lock()
	request, ok := s.requests[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("approval %v: %w", id, approval.ErrNotFound)
	}
	if request.Status.Terminal() {
		s.mu.Unlock()
		return fmt.Errorf("approval %v is %v: %w", id, request.Status, approval.ErrNotPending)
	}
	snapshot := *request
	s.mu.Unlock()

	s.appendAudit(ctx, &model.AuditEntry{
		ThreadID: snapshot.ThreadID,
		Actor:    actor,
		Action:   model.AuditApprovalEscalated,
		Details: map[string]interface{}{
			"approvalId": id,
			"reason":     reason,
		},
	})
	return nil
}

// Summary aggregates the thread's requests by status.
func (s *service) Summary(_ context.Context, threadID string) (*approval.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	summary := &approval.Summary{ThreadID: threadID}
	for _, request := range s.requests {
		if request.ThreadID != threadID {
			continue
		}
		snapshot := *request
		summary.Requests = append(summary.Requests, &snapshot)
		summary.Total++
		switch request.Status {
		case approval.StatusPending:
			summary.Pending++
		case approval.StatusApproved:
			summary.Approved++
		case approval.StatusRejected:
			summary.Rejected++
		case approval.StatusExpired:
			summary.Expired++
		}
	}
	return summary, nil
}

// Queue exposes the lifecycle event queue.
func (s *service) Queue() messaging.Queue[approval.Event] {
	return s.events
}
