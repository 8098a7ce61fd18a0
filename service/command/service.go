// Package command is the thin front end of the workflow: a regex intent
// parser plus a dispatcher onto the orchestrator. Anything it traces is
// passed through PII redaction first.
package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/viant/onramp/model"
	"github.com/viant/onramp/service/dao"
	"github.com/viant/onramp/service/orchestration"
	"github.com/viant/onramp/service/provider"
	"github.com/viant/onramp/tracing"
)

// Service dispatches parsed commands onto the orchestrator.
type Service struct {
	orchestrator *orchestration.Service
	tickets      provider.Tickets
}

// New creates the command front end.
func New(orchestrator *orchestration.Service, tickets provider.Tickets) *Service {
	return &Service{orchestrator: orchestrator, tickets: tickets}
}

// Handle parses and executes one command. Unknown commands come back as an
// unsuccessful result, not an error; errors are reserved for failures of
// the underlying operations.
func (s *Service) Handle(ctx context.Context, request *model.CommandRequest) (*model.CommandResult, error) {
	ctx, span := tracing.StartSpan(ctx, "command.handle", "SERVER")
	span.WithAttributes(map[string]string{"command": RedactPII(request.Text)})

	result, err := s.dispatch(ctx, request)
	if result != nil {
		span.WithAttributes(map[string]string{"result": RedactPII(result.Message)})
	}
	tracing.EndSpan(span, err)
	return result, err
}

func (s *Service) dispatch(ctx context.Context, request *model.CommandRequest) (*model.CommandResult, error) {
	intent := ParseIntent(request.Text)
	if intent == nil {
		return &model.CommandResult{
			Message: fmt.Sprintf("Unknown command: %v. Available commands: onboard, status, move, prepare prod", request.Text),
		}, nil
	}
	switch intent.Name {
	case IntentOnboard:
		return s.onboard(ctx, intent.Client, request.UserID)
	case IntentStatus:
		return s.status(ctx, intent.Client)
	case IntentMove:
		return s.move(ctx, intent.Client, intent.TargetEnv)
	case IntentPrepareProd:
		return s.prepareProd(ctx, intent.Client)
	}
	return &model.CommandResult{Message: fmt.Sprintf("Unknown intent: %v", intent.Name)}, nil
}

// onboard creates the client thread, raises the dev NSSR and GLAM tickets
// and advances dev to FormsRaised with the tickets as evidence.
func (s *Service) onboard(ctx context.Context, client, userID string) (*model.CommandResult, error) {
	aThread, err := s.orchestrator.CreateThread(ctx, &orchestration.ThreadSpec{
		DisplayName: client,
		Owner:       userID,
		CreatedBy:   userID,
	})
	if err != nil {
		if errors.Is(err, dao.ErrConflict) {
			return &model.CommandResult{
				Message: fmt.Sprintf("Client %v is already onboarding", client),
			}, nil
		}
		return nil, err
	}
	nssr, err := s.tickets.Create(ctx, client, model.TicketNSSR, fmt.Sprintf("NSSR/OAuth request for %v - dev", client))
	if err != nil {
		return nil, err
	}
	glam, err := s.tickets.Create(ctx, client, model.TicketGLAM, fmt.Sprintf("GLAM/GWAM request for %v - dev", client))
	if err != nil {
		return nil, err
	}
	evidence := model.Evidence{Tickets: []model.TicketRef{*nssr, *glam}}
	if _, err = s.orchestrator.UpdateEnvironmentState(ctx, aThread.ID, model.EnvDev, model.StateFormsRaised, evidence, userID, "onboarding kickoff"); err != nil {
		return nil, err
	}
	return &model.CommandResult{
		Message:  fmt.Sprintf("Created onboarding thread for %v. Dev NSSR ticket %v and GLAM ticket %v created. Waiting for credentials.", client, nssr.ID, glam.ID),
		ThreadID: aThread.ID,
		Success:  true,
		Details: map[string]interface{}{
			"nssrTicket": nssr.ID,
			"glamTicket": glam.ID,
		},
	}, nil
}

func (s *Service) status(ctx context.Context, client string) (*model.CommandResult, error) {
	aThread, err := s.orchestrator.Resolve(ctx, client)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return &model.CommandResult{Message: fmt.Sprintf("Client %v not found", client)}, nil
		}
		return nil, err
	}
	status, err := s.orchestrator.Status(ctx, aThread.ID)
	if err != nil {
		return nil, err
	}

	var message strings.Builder
	fmt.Fprintf(&message, "Status for %v:\n", aThread.DisplayName)
	fmt.Fprintf(&message, "Overall Progress: %.1f%%\n", status.OverallProgress*100)
	if status.CurrentEnvironment != "" {
		fmt.Fprintf(&message, "Current Environment: %v\n\n", status.CurrentEnvironment)
	} else {
		message.WriteString("Current Environment: none\n\n")
	}
	for _, kind := range model.EnvKinds() {
		envStatus := status.Environments[kind]
		fmt.Fprintf(&message, "%v: %v\n", kind, envStatus.State)
		if envStatus.TicketCount > 0 {
			fmt.Fprintf(&message, "  Tickets: %v\n", envStatus.TicketCount)
		}
		if envStatus.ScreenshotCount > 0 {
			fmt.Fprintf(&message, "  Screenshots: %v\n", envStatus.ScreenshotCount)
		}
		if envStatus.HasSecret {
			message.WriteString("  Credentials: Issued\n")
		}
	}
	if len(status.Blockers) > 0 {
		fmt.Fprintf(&message, "Blockers: %v\n", strings.Join(status.Blockers, ", "))
	}
	if len(status.NextActions) > 0 {
		actions := status.NextActions
		if len(actions) > 3 {
			actions = actions[:3]
		}
		fmt.Fprintf(&message, "Next Actions: %v\n", strings.Join(actions, ", "))
	}
	return &model.CommandResult{
		Message:  message.String(),
		ThreadID: aThread.ID,
		Success:  true,
		Details:  map[string]interface{}{"progress": status.OverallProgress},
	}, nil
}

// move reports the steps required to take the client to the target
// environment; the transitions themselves stay evidence-gated and go
// through the orchestrator one step at a time.
func (s *Service) move(ctx context.Context, client string, target model.EnvKind) (*model.CommandResult, error) {
	aThread, err := s.orchestrator.Resolve(ctx, client)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return &model.CommandResult{Message: fmt.Sprintf("Client %v not found", client)}, nil
		}
		return nil, err
	}
	status, err := s.orchestrator.Status(ctx, aThread.ID)
	if err != nil {
		return nil, err
	}
	if status.CurrentEnvironment == "" {
		return &model.CommandResult{
			Message:  fmt.Sprintf("No active environment for %v", client),
			ThreadID: aThread.ID,
		}, nil
	}
	current := status.CurrentEnvironment
	var message strings.Builder
	fmt.Fprintf(&message, "Move %v to %v requires:\n", client, target)
	fmt.Fprintf(&message, "1. Validating %v evidence\n", current)
	fmt.Fprintf(&message, "2. Sending %v sign-off email\n", current)
	fmt.Fprintf(&message, "3. Creating %v tickets\n", target)
	fmt.Fprintf(&message, "4. Advancing %v state\n", target)
	return &model.CommandResult{
		Message:  message.String(),
		ThreadID: aThread.ID,
		Success:  true,
		Details:  map[string]interface{}{"targetEnv": string(target), "currentEnv": string(current)},
	}, nil
}

func (s *Service) prepareProd(ctx context.Context, client string) (*model.CommandResult, error) {
	aThread, err := s.orchestrator.Resolve(ctx, client)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return &model.CommandResult{Message: fmt.Sprintf("Client %v not found", client)}, nil
		}
		return nil, err
	}
	var incomplete []string
	for _, kind := range model.EnvKinds() {
		if kind == model.EnvProd {
			continue
		}
		if env := aThread.Environment(kind); env != nil && env.State != model.StateComplete {
			incomplete = append(incomplete, string(kind))
		}
	}
	var message strings.Builder
	fmt.Fprintf(&message, "Prepare Prod for %v requires:\n", client)
	message.WriteString("1. Validating Staging evidence\n")
	message.WriteString("2. Sending Staging sign-off\n")
	message.WriteString("3. Creating Prod NSSR ticket\n")
	message.WriteString("4. No GLAM/GWAM needed for Prod\n")
	if len(incomplete) > 0 {
		fmt.Fprintf(&message, "Blocked: %v not complete\n", strings.Join(incomplete, ", "))
	}
	return &model.CommandResult{
		Message:  message.String(),
		ThreadID: aThread.ID,
		Success:  len(incomplete) == 0,
		Details:  map[string]interface{}{"incomplete": incomplete},
	}, nil
}
