// Package orchestration composes the decision core with persistence and
// audit side effects. It is the transactional boundary of the workflow: a
// transition and its evidence are applied atomically per thread, and no
// persisted mutation happens unless validation passed.
package orchestration

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/viant/onramp/internal/clock"
	"github.com/viant/onramp/machine"
	"github.com/viant/onramp/model"
	"github.com/viant/onramp/policy"
	"github.com/viant/onramp/progress"
	"github.com/viant/onramp/service/approval"
	"github.com/viant/onramp/service/dao"
	"github.com/viant/onramp/service/dao/audit"
	"github.com/viant/onramp/service/dao/thread"
	"github.com/viant/onramp/tracing"
	"github.com/viant/toolbox"
)

const actorSystem = "system"

// ThreadSpec describes a new client thread.
type ThreadSpec struct {
	DisplayName string
	Owner       string
	CreatedBy   string
	LanIDs      []string
	Approvers   []string
	Contacts    map[string]string
}

// ApprovalSpec describes a gating approval to request. Empty Approvers
// default to the target environment's approvers list. Emergency requests
// carry the reduced emergency timeout.
type ApprovalSpec struct {
	ThreadID    string
	Environment model.EnvKind
	Type        approval.Type
	Title       string
	Description string
	Approvers   []string
	Emergency   bool
}

// DeploymentRecord captures one production deployment.
type DeploymentRecord struct {
	ThreadID   string    `json:"threadId"`
	ApprovalID string    `json:"approvalId"`
	DeployedBy string    `json:"deployedBy"`
	DeployedAt time.Time `json:"deployedAt"`
}

// Service is the thread/environment orchestrator. All state lives in its
// collaborators; the service itself only holds per-thread write locks.
type Service struct {
	threads   thread.Store
	audits    audit.Sink
	approvals approval.Service
	domain    string
	timeouts  map[approval.Type]time.Duration

	mux   sync.Mutex
	locks map[string]*sync.Mutex
}

// Option customises the orchestrator.
type Option func(*Service)

// WithDomain sets the domain used to derive per-environment redirect URIs.
func WithDomain(domain string) Option {
	return func(s *Service) {
		s.domain = domain
	}
}

// WithApprovalTimeouts overrides the per-type default approval timeouts.
func WithApprovalTimeouts(timeouts map[approval.Type]time.Duration) Option {
	return func(s *Service) {
		s.timeouts = timeouts
	}
}

// New creates an orchestrator over the supplied collaborators.
func New(threads thread.Store, audits audit.Sink, approvals approval.Service, options ...Option) *Service {
	ret := &Service{
		threads:   threads,
		audits:    audits,
		approvals: approvals,
		domain:    "example.com",
		locks:     map[string]*sync.Mutex{},
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// lockThread serialises writers of one thread; different threads proceed in
// parallel.
func (s *Service) lockThread(id string) func() {
	s.mux.Lock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	s.mux.Unlock()
	lock.Lock()
	return lock.Unlock
}

// CreateThread creates a client thread with all three environments present
// in NotStarted, derives redirect URIs and seeds the people sets. LANIDs
// apply to dev and staging only.
func (s *Service) CreateThread(ctx context.Context, spec *ThreadSpec) (*model.Thread, error) {
	if spec == nil || strings.TrimSpace(spec.DisplayName) == "" {
		return nil, fmt.Errorf("thread display name was empty: %w", dao.ErrInvalidID)
	}
	aThread := model.NewThread(spec.DisplayName, spec.Owner, spec.CreatedBy)
	for _, kind := range model.EnvKinds() {
		env := aThread.Environment(kind)
		env.RedirectURIs = model.NewRedirectURIs(spec.DisplayName, kind, s.domain)
		env.People.Approvers = append([]string(nil), spec.Approvers...)
		if kind != model.EnvProd {
			env.People.LanIDs = append([]string(nil), spec.LanIDs...)
		}
		if len(spec.Contacts) > 0 {
			env.People.Contacts = make(map[string]string, len(spec.Contacts))
			for name, email := range spec.Contacts {
				env.People.Contacts[name] = email
			}
		}
	}
	s.rebuildDerived(aThread)
	if err := s.threads.Create(ctx, aThread); err != nil {
		return nil, err
	}
	s.appendAudit(ctx, aThread.ID, spec.CreatedBy, model.AuditThreadCreated, map[string]interface{}{
		"displayName": aThread.DisplayName,
		"owner":       aThread.Owner,
	})
	progress.UpdateCtx(ctx, progress.Delta{ThreadsCreated: 1})
	return aThread, nil
}

// Resolve returns the thread matching ref, tried first as an id and then as
// a display name.
func (s *Service) Resolve(ctx context.Context, ref string) (*model.Thread, error) {
	aThread, err := s.threads.Load(ctx, ref)
	if err == nil {
		return aThread, nil
	}
	return s.threads.FindByName(ctx, ref)
}

// UpdateEnvironmentState applies one state transition. The supplied
// evidence replaces the environment's stored evidence wholesale. On any
// validation failure nothing is persisted; on success the whole thread
// (state, evidence, rebuilt derived views, timestamps) is saved atomically
// under the store's version discipline and one audit entry is appended.
func (s *Service) UpdateEnvironmentState(ctx context.Context, threadID string, kind model.EnvKind, target model.EnvState, evidence model.Evidence, actor, reason string) (*model.Thread, error) {
	ctx, span := tracing.StartSpan(ctx, "orchestration.updateEnvironmentState", "INTERNAL")
	span.WithAttributes(map[string]string{
		"thread.id":   threadID,
		"environment": string(kind),
		"target":      string(target),
	})
	aThread, err := s.updateEnvironmentState(ctx, threadID, kind, target, evidence, actor, reason)
	tracing.EndSpan(span, err)
	return aThread, err
}

func (s *Service) updateEnvironmentState(ctx context.Context, threadID string, kind model.EnvKind, target model.EnvState, evidence model.Evidence, actor, reason string) (*model.Thread, error) {
	if err := s.checkPolicy(ctx, kind, target, actor); err != nil {
		return nil, err
	}
	unlock := s.lockThread(threadID)
	defer unlock()

	aThread, err := s.threads.Load(ctx, threadID)
	if err != nil {
		return nil, err
	}
	env := aThread.Environment(kind)
	if env == nil {
		return nil, fmt.Errorf("environment %v of thread %v: %w", kind, threadID, dao.ErrNotFound)
	}
	from := env.State
	if !machine.CanAdvance(aThread, kind, target) {
		return nil, &InvalidTransitionError{Environment: kind, From: from, To: target}
	}
	if ok, reasons := machine.ValidateTransition(from, target, kind, evidence, aThread); !ok {
		return nil, &EvidenceError{Environment: kind, From: from, To: target, Reasons: reasons}
	}

	now := clock.Now()
	switch {
	case target == model.StateChangesRequested && !from.IsSpecial():
		env.ReturnState = from
	case from == model.StateChangesRequested && !target.IsSpecial():
		env.ReturnState = ""
	}
	env.Evidence = evidence.Clone()
	env.State = target
	env.LastUpdated = now
	aThread.LastUpdate = now
	s.rebuildDerived(aThread)

	if err = s.threads.Save(ctx, aThread); err != nil {
		return nil, err
	}
	s.appendAudit(ctx, aThread.ID, actor, model.AuditStateTransition, map[string]interface{}{
		"environment":   string(kind),
		"from":          string(from),
		"to":            string(target),
		"reason":        reason,
		"evidenceItems": evidence.ItemCount(),
	})
	progress.UpdateCtx(ctx, progress.Delta{Transitions: 1})
	return aThread, nil
}

// checkPolicy evaluates the optional context-carried policy for the
// transition before any validation runs.
func (s *Service) checkPolicy(ctx context.Context, kind model.EnvKind, target model.EnvState, actor string) error {
	aPolicy := policy.FromContext(ctx)
	if aPolicy == nil {
		return nil
	}
	action := fmt.Sprintf("%v.%v", kind, target)
	if aPolicy.Mode == policy.ModeDeny || !aPolicy.IsAllowed(action) {
		return fmt.Errorf("%v: %w", action, ErrPolicyDenied)
	}
	if aPolicy.Mode == policy.ModeAsk && aPolicy.Ask != nil {
		if !aPolicy.Ask(ctx, action, map[string]interface{}{"actor": actor}, aPolicy) {
			return fmt.Errorf("%v: %w", action, ErrPolicyDenied)
		}
	}
	return nil
}

// RequestApproval opens a gating approval for the thread environment and
// returns it; callers pass the request id to the gated operation once a
// decision was taken.
func (s *Service) RequestApproval(ctx context.Context, spec *ApprovalSpec) (*approval.Request, error) {
	aThread, err := s.threads.Load(ctx, spec.ThreadID)
	if err != nil {
		return nil, err
	}
	env := aThread.Environment(spec.Environment)
	if env == nil {
		return nil, fmt.Errorf("environment %v of thread %v: %w", spec.Environment, spec.ThreadID, dao.ErrNotFound)
	}
	approvers := spec.Approvers
	if len(approvers) == 0 {
		approvers = env.People.Approvers
	}
	var timeout time.Duration
	if spec.Emergency {
		timeout = approval.EmergencyTimeout
	} else if override, ok := s.timeouts[spec.Type]; ok {
		timeout = override
	}
	request, err := s.approvals.Create(ctx, &approval.Spec{
		ThreadID:    aThread.ID,
		Environment: spec.Environment,
		Type:        spec.Type,
		Title:       spec.Title,
		Description: spec.Description,
		Approvers:   approvers,
		Evidence:    evidenceSnapshot(env),
		Timeout:     timeout,
	})
	if err != nil {
		return nil, err
	}
	progress.UpdateCtx(ctx, progress.Delta{ApprovalsRequested: 1})
	return request, nil
}

// AdvanceWithApproval is the gated variant of UpdateEnvironmentState: the
// referenced approval must cover the thread environment and be approved
// before any mutation happens.
func (s *Service) AdvanceWithApproval(ctx context.Context, approvalID, threadID string, kind model.EnvKind, target model.EnvState, evidence model.Evidence, actor, reason string) (*model.Thread, error) {
	ctx, span := tracing.StartSpan(ctx, "orchestration.advanceWithApproval", "INTERNAL")
	span.WithAttributes(map[string]string{"approval.id": approvalID, "thread.id": threadID})
	err := s.checkApproval(ctx, approvalID, threadID, kind)
	if err != nil {
		tracing.EndSpan(span, err)
		return nil, err
	}
	aThread, err := s.updateEnvironmentState(ctx, threadID, kind, target, evidence, actor, reason)
	tracing.EndSpan(span, err)
	return aThread, err
}

// checkApproval verifies the approval covers the gated operation and took
// the approved terminal transition.
func (s *Service) checkApproval(ctx context.Context, approvalID, threadID string, kind model.EnvKind) error {
	request, err := s.approvals.Get(ctx, approvalID)
	if err != nil {
		return err
	}
	if request.ThreadID != threadID || (kind != "" && request.Environment != kind) {
		return fmt.Errorf("approval %v: %w", approvalID, ErrApprovalMismatch)
	}
	switch request.Status {
	case approval.StatusApproved:
		// a decision taken before the deadline stands even after it passes
		return nil
	case approval.StatusPending:
		if request.ExpiredAt(clock.Now()) {
			return fmt.Errorf("approval %v: %w", approvalID, ErrApprovalExpired)
		}
		return fmt.Errorf("approval %v: %w", approvalID, ErrApprovalPending)
	case approval.StatusRejected:
		return fmt.Errorf("approval %v: %w", approvalID, ErrApprovalRejected)
	case approval.StatusExpired:
		return fmt.Errorf("approval %v: %w", approvalID, ErrApprovalExpired)
	}
	return fmt.Errorf("approval %v: unexpected status %v", approvalID, request.Status)
}

// DeployToProduction records a production deployment once every non-prod
// environment is Complete and the referenced approval is an approved
// production_deployment gate. No deployment record is created when either
// precondition fails.
func (s *Service) DeployToProduction(ctx context.Context, approvalID, threadID, actor string) (*DeploymentRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "orchestration.deployToProduction", "INTERNAL")
	span.WithAttributes(map[string]string{"approval.id": approvalID, "thread.id": threadID})
	record, err := s.deployToProduction(ctx, approvalID, threadID, actor)
	tracing.EndSpan(span, err)
	return record, err
}

func (s *Service) deployToProduction(ctx context.Context, approvalID, threadID, actor string) (*DeploymentRecord, error) {
	request, err := s.approvals.Get(ctx, approvalID)
	if err != nil {
		return nil, err
	}
	if request.Type != approval.TypeProdDeployment {
		return nil, fmt.Errorf("approval %v is %v: %w", approvalID, request.Type, ErrApprovalMismatch)
	}
	if err = s.checkApproval(ctx, approvalID, threadID, model.EnvProd); err != nil {
		return nil, err
	}

	unlock := s.lockThread(threadID)
	defer unlock()
	aThread, err := s.threads.Load(ctx, threadID)
	if err != nil {
		return nil, err
	}
	for _, kind := range model.EnvKinds() {
		if kind == model.EnvProd {
			continue
		}
		if env := aThread.Environment(kind); env == nil || env.State != model.StateComplete {
			return nil, fmt.Errorf("environment %v: %w", kind, ErrEnvironmentsIncomplete)
		}
	}

	now := clock.Now()
	record := &DeploymentRecord{
		ThreadID:   threadID,
		ApprovalID: approvalID,
		DeployedBy: actor,
		DeployedAt: now,
	}
	if aThread.Metadata == nil {
		aThread.Metadata = map[string]interface{}{}
	}
	aThread.Metadata["productionDeployment"] = record
	aThread.LastUpdate = now
	if err = s.threads.Save(ctx, aThread); err != nil {
		return nil, err
	}
	s.appendAudit(ctx, threadID, actor, model.AuditProductionDeployment, map[string]interface{}{
		"approvalId": approvalID,
	})
	progress.UpdateCtx(ctx, progress.Delta{Deployments: 1})
	return record, nil
}

// Status assembles the read-side aggregate for a thread: overall progress,
// active environment and the per-environment views, with derived blockers
// and next actions recomputed from current state.
func (s *Service) Status(ctx context.Context, threadID string) (*model.ThreadStatus, error) {
	aThread, err := s.threads.Load(ctx, threadID)
	if err != nil {
		return nil, err
	}
	status := &model.ThreadStatus{
		ThreadID:        aThread.ID,
		DisplayName:     aThread.DisplayName,
		Owner:           aThread.Owner,
		OverallProgress: machine.Progress(aThread),
		Environments:    make(map[model.EnvKind]model.EnvStatus, 3),
		CreatedAt:       aThread.CreatedAt,
		LastUpdate:      aThread.LastUpdate,
	}
	if current, ok := machine.CurrentEnvironment(aThread); ok {
		status.CurrentEnvironment = current
	}
	for _, kind := range model.EnvKinds() {
		env := aThread.Environment(kind)
		if env == nil {
			continue
		}
		envStatus := model.EnvStatus{
			State:           env.State,
			LastUpdated:     env.LastUpdated,
			TicketCount:     len(env.Evidence.Tickets),
			ScreenshotCount: len(env.Evidence.Screenshots),
			EmailCount:      len(env.Evidence.Emails),
			HasSecret:       env.Evidence.Secret != nil,
			RedirectURIs:    env.RedirectURIs,
			People:          env.People,
			Blockers:        machine.Blockers(env, aThread),
			NextActions:     machine.NextActions(env, aThread),
		}
		status.Environments[kind] = envStatus
		status.Blockers = append(status.Blockers, envStatus.Blockers...)
		status.NextActions = append(status.NextActions, envStatus.NextActions...)
	}
	status.Summary = fmt.Sprintf("%v is %.0f%% complete", aThread.DisplayName, status.OverallProgress*100)
	if status.CurrentEnvironment != "" {
		status.Summary += fmt.Sprintf("; active environment %v", status.CurrentEnvironment)
	}
	return status, nil
}

// ListThreads returns all threads, optionally filtered by owner.
func (s *Service) ListThreads(ctx context.Context, owner string) ([]*model.Thread, error) {
	var parameters []*dao.Parameter
	if owner != "" {
		parameters = append(parameters, dao.NewParameter(thread.ParamOwner, owner))
	}
	return s.threads.List(ctx, parameters...)
}

// AuditTrail returns the thread's audit entries newest first.
func (s *Service) AuditTrail(ctx context.Context, threadID string, limit int) ([]*model.AuditEntry, error) {
	return s.audits.Query(ctx, threadID, limit)
}

// Approvals exposes the approval manager for front ends that need to decide
// or inspect requests directly.
func (s *Service) Approvals() approval.Service {
	return s.approvals
}

// HandleTicketUpdate applies an external ticket status change to every
// thread holding a reference to the ticket and returns the number of
// threads touched. Advancement is not attempted here; the updated status
// only feeds the derived blockers on the next read.
func (s *Service) HandleTicketUpdate(ctx context.Context, update *model.TicketUpdate) (int, error) {
	threads, err := s.threads.List(ctx)
	if err != nil {
		return 0, err
	}
	touched := 0
	for _, candidate := range threads {
		changed, err := s.applyTicketUpdate(ctx, candidate.ID, update)
		if err != nil {
			return touched, err
		}
		if changed {
			touched++
		}
	}
	return touched, nil
}

func (s *Service) applyTicketUpdate(ctx context.Context, threadID string, update *model.TicketUpdate) (bool, error) {
	unlock := s.lockThread(threadID)
	defer unlock()
	aThread, err := s.threads.Load(ctx, threadID)
	if err != nil {
		return false, err
	}
	changed := false
	for _, kind := range model.EnvKinds() {
		env := aThread.Environment(kind)
		if env == nil {
			continue
		}
		for i := range env.Evidence.Tickets {
			ticket := &env.Evidence.Tickets[i]
			if ticket.ID != update.TicketID {
				continue
			}
			if update.System != "" && ticket.System != update.System {
				continue
			}
			if ticket.Status == update.Status {
				continue
			}
			ticket.Status = update.Status
			env.LastUpdated = clock.Now()
			changed = true
		}
	}
	if !changed {
		return false, nil
	}
	aThread.LastUpdate = clock.Now()
	s.rebuildDerived(aThread)
	if err = s.threads.Save(ctx, aThread); err != nil {
		return false, err
	}
	s.appendAudit(ctx, threadID, actorSystem, model.AuditTicketUpdated, map[string]interface{}{
		"ticketId": update.TicketID,
		"status":   update.Status,
	})
	return true, nil
}

// HandleEmailReceived attaches an inbound approval email to the thread's
// SignoffSent environment and attempts advancement to Approved. Emails
// whose subject carries no approval signal are only audited.
func (s *Service) HandleEmailReceived(ctx context.Context, update *model.EmailUpdate) (*model.Thread, error) {
	aThread, err := s.Resolve(ctx, update.ThreadID)
	if err != nil {
		return nil, err
	}
	s.appendAudit(ctx, aThread.ID, update.Sender, model.AuditEmailReceived, map[string]interface{}{
		"messageId": update.MessageID,
		"subject":   update.Subject,
	})
	if !strings.Contains(strings.ToLower(update.Subject), "approv") {
		return aThread, nil
	}
	for _, kind := range model.EnvKinds() {
		env := aThread.Environment(kind)
		if env == nil || env.State != model.StateSignoffSent {
			continue
		}
		evidence := env.Evidence.Clone()
		evidence.Emails = append(evidence.Emails, update.MessageID)
		return s.UpdateEnvironmentState(ctx, aThread.ID, kind, model.StateApproved, evidence,
			update.Sender, fmt.Sprintf("approval email %v", update.MessageID))
	}
	return aThread, nil
}

// rebuildDerived discards and rebuilds the thread-level blockers and next
// actions across all three environments in kind order.
func (s *Service) rebuildDerived(aThread *model.Thread) {
	aThread.Blockers = nil
	aThread.NextActions = nil
	for _, kind := range model.EnvKinds() {
		env := aThread.Environment(kind)
		if env == nil {
			continue
		}
		aThread.Blockers = append(aThread.Blockers, machine.Blockers(env, aThread)...)
		aThread.NextActions = append(aThread.NextActions, machine.NextActions(env, aThread)...)
	}
}

func (s *Service) appendAudit(ctx context.Context, threadID, actor, action string, details map[string]interface{}) {
	if s.audits == nil {
		return
	}
	_, _ = s.audits.Append(ctx, &model.AuditEntry{
		ThreadID:  threadID,
		Actor:     actor,
		Action:    action,
		Details:   details,
		CreatedAt: clock.Now(),
	})
}

// evidenceSnapshot converts the environment's evidence into the free-form
// map attached to approval requests for the approver's benefit.
func evidenceSnapshot(env *model.Environment) map[string]interface{} {
	aMap := map[string]interface{}{}
	if err := toolbox.DefaultConverter.AssignConverted(&aMap, env.Evidence); err != nil {
		return map[string]interface{}{"items": env.Evidence.ItemCount()}
	}
	aMap["state"] = string(env.State)
	return toolbox.DeleteEmptyKeys(aMap)
}
