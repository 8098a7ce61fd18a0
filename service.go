package onramp

import (
	"context"
	"fmt"
	"time"

	"github.com/viant/onramp/model"
	"github.com/viant/onramp/service/approval"
	amemory "github.com/viant/onramp/service/approval/memory"
	"github.com/viant/onramp/service/command"
	"github.com/viant/onramp/service/dao/audit"
	auditfs "github.com/viant/onramp/service/dao/audit/fs"
	auditmem "github.com/viant/onramp/service/dao/audit/memory"
	"github.com/viant/onramp/service/dao/thread"
	threadfs "github.com/viant/onramp/service/dao/thread/fs"
	threadmem "github.com/viant/onramp/service/dao/thread/memory"
	"github.com/viant/onramp/service/orchestration"
	"github.com/viant/onramp/service/provider"
)

// Service is the high-level façade of the onboarding engine. It wires the
// decision core, the approval manager, the providers and the stores
// together; all collaborators can be replaced through options.
type Service struct {
	config       *Config
	threads      thread.Store
	audits       audit.Sink
	approvals    approval.Service
	tickets      provider.Tickets
	secrets      provider.Secrets
	screenshots  provider.Screenshots
	mailer       provider.Email
	orchestrator *orchestration.Service
	commands     *command.Service
}

func (s *Service) init(options []Option) {
	for _, option := range options {
		option(s)
	}
	s.ensureBaseSetup()
	s.orchestrator = orchestration.New(s.threads, s.audits, s.approvals,
		orchestration.WithDomain(s.config.Domain),
		orchestration.WithApprovalTimeouts(s.approvalTimeouts()))
	s.commands = command.New(s.orchestrator, s.tickets)
}

func (s *Service) ensureBaseSetup() {
	if s.config == nil {
		s.config = DefaultConfig()
	}
	if s.threads == nil {
		s.threads = threadmem.New()
	}
	if s.audits == nil {
		s.audits = auditmem.New()
	}
	if s.approvals == nil {
		s.approvals = amemory.New(amemory.WithAuditSink(s.audits))
	}
	if s.tickets == nil {
		s.tickets = provider.NewTicketSystem(s.config.Ticketing.BaseURL)
	}
	if s.secrets == nil {
		s.secrets = provider.NewSecretStore(s.config.Secrets.BaseURL, s.config.Secrets.Prefix, s.config.Secrets.Key)
	}
	if s.screenshots == nil {
		s.screenshots = provider.NewScreenshotStore(s.config.Screenshots.BaseURL)
	}
	if s.mailer == nil {
		s.mailer = provider.NewMailer(s.config.Email.Sender)
	}
}

func (s *Service) approvalTimeouts() map[approval.Type]time.Duration {
	timeouts := map[approval.Type]time.Duration{}
	for aType, timeout := range map[approval.Type]time.Duration{
		approval.TypeTicketCreation:     s.config.Approval.TicketCreation,
		approval.TypeEnvProgression:     s.config.Approval.EnvProgression,
		approval.TypeProdDeployment:     s.config.Approval.ProdDeployment,
		approval.TypeCredentialIssuance: s.config.Approval.CredentialIssuance,
	} {
		if timeout > 0 {
			timeouts[aType] = timeout
		}
	}
	return timeouts
}

// Orchestrator returns the thread/environment orchestrator.
func (s *Service) Orchestrator() *orchestration.Service {
	return s.orchestrator
}

// Approvals returns the approval manager.
func (s *Service) Approvals() approval.Service {
	return s.approvals
}

// Tickets returns the ticket provider.
func (s *Service) Tickets() provider.Tickets {
	return s.tickets
}

// Secrets returns the secret provider.
func (s *Service) Secrets() provider.Secrets {
	return s.secrets
}

// Screenshots returns the screenshot provider.
func (s *Service) Screenshots() provider.Screenshots {
	return s.screenshots
}

// Mailer returns the sign-off email provider.
func (s *Service) Mailer() provider.Email {
	return s.mailer
}

// Command parses and executes one front-end command.
func (s *Service) Command(ctx context.Context, request *model.CommandRequest) (*model.CommandResult, error) {
	return s.commands.Handle(ctx, request)
}

// HandleTicketUpdate applies an external ticket status change across all
// threads referencing the ticket. Mount this behind whatever webhook server
// the host application runs.
func (s *Service) HandleTicketUpdate(ctx context.Context, update *model.TicketUpdate) (int, error) {
	return s.orchestrator.HandleTicketUpdate(ctx, update)
}

// HandleEmailReceived processes an inbound email: approval-subject messages
// attach to the SignoffSent environment and attempt advancement to
// Approved.
func (s *Service) HandleEmailReceived(ctx context.Context, update *model.EmailUpdate) (*model.Thread, error) {
	return s.orchestrator.HandleEmailReceived(ctx, update)
}

// New creates a service with in-memory defaults for every collaborator not
// supplied through options.
func New(options ...Option) *Service {
	ret := &Service{}
	ret.init(options)
	return ret
}

// NewFromConfig creates a service from a validated config; a storage base
// URL switches threads and audit entries to the filesystem stores rooted
// there.
func NewFromConfig(config *Config, options ...Option) (*Service, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	ret := &Service{config: config}
	if config.Storage.BaseURL != "" {
		threads, err := threadfs.New(config.Storage.BaseURL + "/threads")
		if err != nil {
			return nil, fmt.Errorf("failed to open thread store: %w", err)
		}
		audits, err := auditfs.New(config.Storage.BaseURL + "/audit")
		if err != nil {
			return nil, fmt.Errorf("failed to open audit store: %w", err)
		}
		ret.threads = threads
		ret.audits = audits
	}
	ret.init(options)
	return ret, nil
}
