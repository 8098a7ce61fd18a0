package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/onramp/model"
	approvalmem "github.com/viant/onramp/service/approval/memory"
	auditmem "github.com/viant/onramp/service/dao/audit/memory"
	threadmem "github.com/viant/onramp/service/dao/thread/memory"
	"github.com/viant/onramp/service/orchestration"
	"github.com/viant/onramp/service/provider"
)

func newService() (*Service, *orchestration.Service) {
	orchestrator := orchestration.New(threadmem.New(), auditmem.New(), approvalmem.New())
	return New(orchestrator, provider.NewTicketSystem("")), orchestrator
}

func TestService_Onboard(t *testing.T) {
	service, orchestrator := newService()
	ctx := context.Background()

	result, err := service.Handle(ctx, &model.CommandRequest{Text: "onboard Acme", UserID: "alice"})
	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.Contains(t, result.Message, "Created onboarding thread for acme")
	assert.Contains(t, result.Message, "Waiting for credentials")
	assert.NotEmpty(t, result.ThreadID)

	aThread, err := orchestrator.Resolve(ctx, "acme")
	assert.NoError(t, err)
	env := aThread.Environment(model.EnvDev)
	assert.Equal(t, model.StateFormsRaised, env.State)
	if assert.Len(t, env.Evidence.Tickets, 2) {
		assert.Equal(t, model.TicketNSSR, env.Evidence.Tickets[0].Kind)
		assert.Equal(t, model.TicketGLAM, env.Evidence.Tickets[1].Kind)
	}

	// Onboarding twice is reported, not an error
	repeat, err := service.Handle(ctx, &model.CommandRequest{Text: "onboard acme", UserID: "alice"})
	assert.NoError(t, err)
	assert.False(t, repeat.Success)
	assert.Contains(t, repeat.Message, "already onboarding")
}

func TestService_Status(t *testing.T) {
	service, _ := newService()
	ctx := context.Background()

	_, err := service.Handle(ctx, &model.CommandRequest{Text: "onboard acme", UserID: "alice"})
	assert.NoError(t, err)

	result, err := service.Handle(ctx, &model.CommandRequest{Text: "status acme", UserID: "alice"})
	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.Contains(t, result.Message, "Status for acme")
	assert.Contains(t, result.Message, "Current Environment: dev")
	assert.Contains(t, result.Message, "dev: FormsRaised")
	assert.Contains(t, result.Message, "Tickets: 2")
	assert.Contains(t, result.Message, "Blockers:")

	missing, err := service.Handle(ctx, &model.CommandRequest{Text: "status ghost", UserID: "alice"})
	assert.NoError(t, err)
	assert.False(t, missing.Success)
	assert.Contains(t, missing.Message, "not found")
}

func TestService_Move(t *testing.T) {
	service, _ := newService()
	ctx := context.Background()

	_, err := service.Handle(ctx, &model.CommandRequest{Text: "onboard acme", UserID: "alice"})
	assert.NoError(t, err)

	result, err := service.Handle(ctx, &model.CommandRequest{Text: "move acme to staging", UserID: "alice"})
	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.Contains(t, result.Message, "Move acme to staging requires:")
	assert.Contains(t, result.Message, "Validating dev evidence")
	assert.Equal(t, "staging", result.Details["targetEnv"])
	assert.Equal(t, "dev", result.Details["currentEnv"])
}

func TestService_PrepareProd(t *testing.T) {
	service, _ := newService()
	ctx := context.Background()

	_, err := service.Handle(ctx, &model.CommandRequest{Text: "onboard acme", UserID: "alice"})
	assert.NoError(t, err)

	result, err := service.Handle(ctx, &model.CommandRequest{Text: "prepare prod for acme", UserID: "alice"})
	assert.NoError(t, err)
	assert.False(t, result.Success, "dev and staging not complete yet")
	assert.Contains(t, result.Message, "No GLAM/GWAM needed for Prod")
	assert.Contains(t, result.Message, "Blocked: dev, staging not complete")
}

func TestService_UnknownCommand(t *testing.T) {
	service, _ := newService()
	ctx := context.Background()

	result, err := service.Handle(ctx, &model.CommandRequest{Text: "make me a sandwich", UserID: "alice"})
	assert.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "Available commands")
}
