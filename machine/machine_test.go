package machine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/onramp/model"
)

func TestCanTransition(t *testing.T) {
	// every ordered state advances exactly one step, never two
	for i, state := range model.StateOrder {
		if i+1 < len(model.StateOrder) {
			assert.True(t, CanTransition(state, model.StateOrder[i+1]), "advance from %v", state)
		}
		if i+2 < len(model.StateOrder) {
			assert.False(t, CanTransition(state, model.StateOrder[i+2]), "skip from %v", state)
		}
		assert.False(t, CanTransition(state, state), "re-entry into %v", state)
	}

	// special states are reachable from anywhere, including each other
	allStates := append([]model.EnvState{}, model.StateOrder...)
	allStates = append(allStates, model.StateBlocked, model.StateChangesRequested, model.StateAbandoned)
	for _, state := range allStates {
		assert.True(t, CanTransition(state, model.StateBlocked), "block from %v", state)
	}

	// leaving ChangesRequested targets the ordered progression before Complete
	assert.True(t, CanTransition(model.StateChangesRequested, model.StateFormsRaised))
	assert.False(t, CanTransition(model.StateChangesRequested, model.StateComplete))
	assert.False(t, CanTransition(model.StateBlocked, model.StateFormsRaised))
}

func TestCanAdvanceRollbackOrigin(t *testing.T) {
	aThread := model.NewThread("acme", "owner", "creator")
	env := aThread.Environment(model.EnvDev)
	env.State = model.StateChangesRequested
	env.ReturnState = model.StateValidated

	assert.True(t, CanAdvance(aThread, model.EnvDev, model.StateCredsIssued))
	assert.False(t, CanAdvance(aThread, model.EnvDev, model.StateValidated), "rollback must precede origin")
	assert.False(t, CanAdvance(aThread, model.EnvDev, model.StateSignoffSent))

	// no recorded origin: any ordered state before Complete is accepted
	env.ReturnState = ""
	assert.True(t, CanAdvance(aThread, model.EnvDev, model.StateApproved))
	assert.False(t, CanAdvance(aThread, model.EnvDev, model.StateComplete))
}

func TestValidateTransition(t *testing.T) {
	ticket := model.TicketRef{System: "ServiceNow", ID: "SN-1", Kind: model.TicketNSSR, Status: "open"}
	glam := model.TicketRef{System: "ServiceNow", ID: "GW-1", Kind: model.TicketGLAM, Status: "open"}
	secret := &model.SecretRef{Name: "onboarding/acme/dev/client_secret", Mask: "****abcd"}

	testCases := []struct {
		name     string
		current  model.EnvState
		target   model.EnvState
		kind     model.EnvKind
		evidence model.Evidence
		valid    bool
		errorHas []string
	}{
		{
			name:     "forms raised without ticket",
			current:  model.StateNotStarted,
			target:   model.StateFormsRaised,
			kind:     model.EnvDev,
			valid:    false,
			errorHas: []string{"at least one ticket"},
		},
		{
			name:     "forms raised with ticket",
			current:  model.StateNotStarted,
			target:   model.StateFormsRaised,
			kind:     model.EnvDev,
			evidence: model.Evidence{Tickets: []model.TicketRef{ticket}},
			valid:    true,
		},
		{
			name:     "creds issued without secret",
			current:  model.StateFormsRaised,
			target:   model.StateCredsIssued,
			kind:     model.EnvDev,
			valid:    false,
			errorHas: []string{"client secret"},
		},
		{
			name:    "prod exempt from GLAM/GWAM",
			current: model.StateCredsIssued,
			target:  model.StateAccessProvisioned,
			kind:    model.EnvProd,
			valid:   true,
		},
		{
			name:     "dev requires GLAM/GWAM",
			current:  model.StateCredsIssued,
			target:   model.StateAccessProvisioned,
			kind:     model.EnvDev,
			valid:    false,
			errorHas: []string{"GLAM/GWAM"},
		},
		{
			name:     "dev access provisioned with GLAM",
			current:  model.StateCredsIssued,
			target:   model.StateAccessProvisioned,
			kind:     model.EnvDev,
			evidence: model.Evidence{Tickets: []model.TicketRef{glam}, Secret: secret},
			valid:    true,
		},
		{
			name:    "validated with partial screenshots",
			current: model.StateAccessProvisioned,
			target:  model.StateValidated,
			kind:    model.EnvDev,
			evidence: model.Evidence{Screenshots: []model.ScreenshotRef{
				{Key: "a", Label: model.ScreenshotLogin},
				{Key: "b", Label: model.ScreenshotConsent},
			}},
			valid:    false,
			errorHas: []string{"landing", "token"},
		},
		{
			name:     "signoff sent without email",
			current:  model.StateValidated,
			target:   model.StateSignoffSent,
			kind:     model.EnvDev,
			valid:    false,
			errorHas: []string{"email"},
		},
		{
			name:     "structural violation short-circuits",
			current:  model.StateNotStarted,
			target:   model.StateValidated,
			kind:     model.EnvDev,
			valid:    false,
			errorHas: []string{"invalid transition"},
		},
	}

	for _, testCase := range testCases {
		valid, errors := ValidateTransition(testCase.current, testCase.target, testCase.kind, testCase.evidence, nil)
		assert.Equal(t, testCase.valid, valid, testCase.name)
		for _, fragment := range testCase.errorHas {
			assert.True(t, strings.Contains(strings.Join(errors, "\n"), fragment),
				"%v: errors %v should mention %q", testCase.name, errors, fragment)
		}
		if testCase.valid {
			assert.Empty(t, errors, testCase.name)
		}
	}
}

func TestCompletionGating(t *testing.T) {
	aThread := model.NewThread("acme", "owner", "creator")
	aThread.Environment(model.EnvStaging).State = model.StateApproved

	valid, errors := ValidateTransition(model.StateApproved, model.StateComplete, model.EnvStaging, model.Evidence{}, aThread)
	assert.False(t, valid)
	assert.NotEmpty(t, errors)

	aThread.Environment(model.EnvDev).State = model.StateComplete
	valid, errors = ValidateTransition(model.StateApproved, model.StateComplete, model.EnvStaging, model.Evidence{}, aThread)
	assert.True(t, valid, "errors: %v", errors)

	// dev completion has no prerequisite
	valid, _ = ValidateTransition(model.StateApproved, model.StateComplete, model.EnvDev, model.Evidence{}, aThread)
	assert.True(t, valid)
}

func TestProgress(t *testing.T) {
	aThread := model.NewThread("acme", "owner", "creator")

	// all NotStarted: (1+1+1)/(8*3)
	assert.InDelta(t, 0.125, Progress(aThread), 0.0001)

	aThread.Environment(model.EnvDev).State = model.StateComplete
	assert.InDelta(t, (8.0+1+1)/24.0, Progress(aThread), 0.0001)

	for _, kind := range model.EnvKinds() {
		aThread.Environment(kind).State = model.StateComplete
	}
	assert.Equal(t, 1.0, Progress(aThread))

	// special states contribute 0 to the numerator
	aThread.Environment(model.EnvProd).State = model.StateBlocked
	assert.InDelta(t, 16.0/24.0, Progress(aThread), 0.0001)
}

func TestCurrentEnvironment(t *testing.T) {
	aThread := model.NewThread("acme", "owner", "creator")
	kind, ok := CurrentEnvironment(aThread)
	assert.True(t, ok)
	assert.Equal(t, model.EnvDev, kind)

	aThread.Environment(model.EnvDev).State = model.StateComplete
	kind, ok = CurrentEnvironment(aThread)
	assert.True(t, ok)
	assert.Equal(t, model.EnvStaging, kind)

	for _, each := range model.EnvKinds() {
		aThread.Environment(each).State = model.StateComplete
	}
	_, ok = CurrentEnvironment(aThread)
	assert.False(t, ok)

	// abandoned environments are skipped like complete ones
	aThread.Environment(model.EnvStaging).State = model.StateAbandoned
	_, ok = CurrentEnvironment(aThread)
	assert.False(t, ok)
}

func TestBlockersAndNextActions(t *testing.T) {
	aThread := model.NewThread("acme", "owner", "creator")
	env := aThread.Environment(model.EnvDev)

	env.State = model.StateFormsRaised
	env.Evidence = model.Evidence{Tickets: []model.TicketRef{
		{System: "ServiceNow", ID: "SN-1", Kind: model.TicketNSSR, Status: "open"},
		{System: "ServiceNow", ID: "SN-2", Kind: model.TicketOAuth, Status: "closed"},
	}}
	blockers := Blockers(env, aThread)
	assert.Len(t, blockers, 1, "one blocker per still-open ticket")

	env.State = model.StateBlocked
	assert.NotEmpty(t, Blockers(env, aThread))

	env.State = model.StateSignoffSent
	env.Evidence = model.Evidence{}
	assert.NotEmpty(t, Blockers(env, aThread))

	env.State = model.StateAccessProvisioned
	env.Evidence = model.Evidence{Screenshots: []model.ScreenshotRef{
		{Key: "a", Label: model.ScreenshotLogin},
	}}
	actions := NextActions(env, aThread)
	assert.NotEmpty(t, actions)
}
