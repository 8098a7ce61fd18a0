// Package machine implements the pure decision core of the onboarding
// workflow: transition legality, evidence validation and the derived views
// (blockers, next actions, progress, active environment). Functions in this
// package perform no I/O and mutate nothing; they are plain functions over
// model values so that callers can replay any decision from persisted state.
package machine

import (
	"fmt"
	"strings"

	"github.com/viant/onramp/model"
)

// CanTransition reports whether moving from current to target is
// structurally legal, ignoring evidence requirements.
//
// Special states (Blocked, ChangesRequested, Abandoned) can be entered from
// any state. Leaving ChangesRequested is legal only towards a state inside
// the ordered progression before Complete; the tighter origin-aware bound is
// applied by ValidateTransition, which has access to the environment's
// recorded rollback origin. Ordinary moves must advance exactly one step.
func CanTransition(current, target model.EnvState) bool {
	if target.IsSpecial() {
		return true
	}
	targetIdx := target.OrderIndex()
	if targetIdx < 0 {
		return false
	}
	if current == model.StateChangesRequested {
		return targetIdx < len(model.StateOrder)-1
	}
	currentIdx := current.OrderIndex()
	if currentIdx < 0 {
		return false
	}
	return targetIdx == currentIdx+1
}

// canRollback bounds a move out of ChangesRequested: the target must sit
// strictly before the recorded origin in the ordered progression. When no
// origin was recorded (threads persisted before the origin was tracked) any
// ordered state before Complete is accepted.
func canRollback(origin, target model.EnvState) bool {
	targetIdx := target.OrderIndex()
	if targetIdx < 0 {
		return false
	}
	originIdx := origin.OrderIndex()
	if originIdx < 0 {
		return targetIdx < len(model.StateOrder)-1
	}
	return targetIdx < originIdx
}

// CanAdvance reports structural legality for an environment of the thread,
// including the rollback-origin bound that CanTransition alone cannot see.
func CanAdvance(thread *model.Thread, kind model.EnvKind, target model.EnvState) bool {
	env := thread.Environment(kind)
	if env == nil {
		return false
	}
	if !CanTransition(env.State, target) {
		return false
	}
	if env.State == model.StateChangesRequested && !target.IsSpecial() {
		return canRollback(env.ReturnState, target)
	}
	return true
}

// ValidateTransition checks a transition attempt end to end: the structural
// rule first (short-circuiting on failure), then every evidence requirement
// of the target state. All applicable evidence errors are collected so the
// caller can fix its input in one pass.
func ValidateTransition(current, target model.EnvState, kind model.EnvKind, evidence model.Evidence, thread *model.Thread) (bool, []string) {
	var errors []string

	if !CanTransition(current, target) {
		errors = append(errors, fmt.Sprintf("invalid transition: %v -> %v", current, target))
		return false, errors
	}
	if current == model.StateChangesRequested && !target.IsSpecial() {
		origin := model.EnvState("")
		if thread != nil {
			if env := thread.Environment(kind); env != nil {
				origin = env.ReturnState
			}
		}
		if !canRollback(origin, target) {
			errors = append(errors, fmt.Sprintf("invalid rollback: %v does not precede %v", target, origin))
			return false, errors
		}
	}

	switch target {
	case model.StateFormsRaised:
		if len(evidence.Tickets) == 0 {
			errors = append(errors, "FormsRaised requires at least one ticket")
		}
	case model.StateCredsIssued:
		if evidence.Secret == nil {
			errors = append(errors, "CredsIssued requires client secret evidence")
		}
	case model.StateAccessProvisioned:
		// GLAM/GWAM tickets are only raised for dev and staging; prod access
		// is provisioned out of band.
		if kind == model.EnvDev || kind == model.EnvStaging {
			if len(evidence.TicketsOfKind(model.TicketGLAM, model.TicketGWAM)) == 0 {
				errors = append(errors, fmt.Sprintf("%v requires GLAM/GWAM tickets for access provisioning", kind))
			}
		}
	case model.StateValidated:
		if missing := missingScreenshotLabels(evidence); len(missing) > 0 {
			errors = append(errors, fmt.Sprintf("validation requires screenshots: %v", strings.Join(missing, ", ")))
		}
	case model.StateSignoffSent:
		if len(evidence.Emails) == 0 {
			errors = append(errors, "SignoffSent requires email evidence")
		}
	case model.StateApproved:
		if len(evidence.Emails) == 0 {
			errors = append(errors, "Approved requires approval email evidence")
		}
	case model.StateComplete:
		if previous := kind.Previous(); previous != "" && thread != nil {
			if env := thread.Environment(previous); env != nil && env.State != model.StateComplete {
				errors = append(errors, fmt.Sprintf("environment %v requires %v to be complete", kind, previous))
			}
		}
	}

	return len(errors) == 0, errors
}

func missingScreenshotLabels(evidence model.Evidence) []string {
	present := evidence.ScreenshotLabels()
	var missing []string
	for _, label := range model.RequiredScreenshotLabels {
		if !present[label] {
			missing = append(missing, label)
		}
	}
	return missing
}

// NextActions returns the ordered human-readable actions for the
// environment's current state.
func NextActions(env *model.Environment, thread *model.Thread) []string {
	var actions []string
	switch env.State {
	case model.StateNotStarted:
		actions = append(actions,
			"Create NSSR/OAuth ticket",
			"Create GLAM/GWAM tickets (if Dev/Staging)",
			"Generate redirect URIs")
	case model.StateFormsRaised:
		actions = append(actions, "Wait for credentials to be issued")
	case model.StateCredsIssued:
		if env.Kind == model.EnvDev || env.Kind == model.EnvStaging {
			actions = append(actions, "Create GLAM/GWAM tickets")
		}
		actions = append(actions, "Test application sign-in")
	case model.StateAccessProvisioned:
		missing := missingScreenshotLabels(env.Evidence)
		if len(missing) == 0 {
			actions = append(actions, "Advance to Validated with captured screenshots")
			break
		}
		for _, label := range missing {
			actions = append(actions, fmt.Sprintf("Capture %v screenshot", label))
		}
	case model.StateValidated:
		actions = append(actions, "Send sign-off email with screenshots and redirect URIs")
	case model.StateSignoffSent:
		actions = append(actions, "Wait for approval email")
	case model.StateApproved:
		if env.Kind == model.EnvProd {
			actions = append(actions, "Production ready - onboarding complete")
		} else {
			actions = append(actions, "Proceed to next environment")
		}
	case model.StateBlocked:
		actions = append(actions, "Resolve blocker and retry")
	case model.StateChangesRequested:
		actions = append(actions, "Address requested changes")
	}
	return actions
}

// Blockers returns the diagnostic signals currently blocking the
// environment. The list is non-exhaustive; an empty result does not imply
// the environment can advance.
func Blockers(env *model.Environment, thread *model.Thread) []string {
	var blockers []string
	switch env.State {
	case model.StateBlocked:
		blockers = append(blockers, "Environment is blocked - manual intervention required")
	case model.StateChangesRequested:
		blockers = append(blockers, "Changes requested - address feedback before proceeding")
	case model.StateFormsRaised:
		for _, ticket := range env.Evidence.Tickets {
			if ticket.IsOpen() {
				blockers = append(blockers, fmt.Sprintf("Ticket %v (%v) is still open", ticket.ID, ticket.Kind))
			}
		}
	case model.StateSignoffSent:
		if len(env.Evidence.Emails) == 0 {
			blockers = append(blockers, "Waiting for sign-off approval")
		}
	}
	return blockers
}

// Progress computes overall thread progress in [0, 1]. Each environment
// scores its ordered-progression index plus one (the full progression length
// when Complete); special states carry no ordered index and score zero while
// still counting toward the denominator.
func Progress(thread *model.Thread) float64 {
	total := len(model.StateOrder)
	if thread == nil || len(thread.Environments) == 0 {
		return 0
	}
	score := 0
	for _, env := range thread.Environments {
		switch {
		case env.State == model.StateComplete:
			score += total
		case env.State.OrderIndex() >= 0:
			score += env.State.OrderIndex() + 1
		}
	}
	progress := float64(score) / float64(total*len(thread.Environments))
	if progress > 1 {
		progress = 1
	}
	return progress
}

// CurrentEnvironment returns the first environment, in dev, staging, prod
// order, whose state is neither Complete nor Abandoned. The second return
// value is false when every environment is terminal.
func CurrentEnvironment(thread *model.Thread) (model.EnvKind, bool) {
	for _, kind := range model.EnvKinds() {
		env := thread.Environment(kind)
		if env == nil {
			continue
		}
		if env.State != model.StateComplete && env.State != model.StateAbandoned {
			return kind, true
		}
	}
	return "", false
}
