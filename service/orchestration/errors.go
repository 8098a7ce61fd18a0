package orchestration

import (
	"errors"
	"fmt"
	"strings"

	"github.com/viant/onramp/model"
)

// Gated-operation errors detectable with errors.Is.
var (
	// ErrApprovalPending indicates the gating approval has not been decided
	// yet; the caller must wait for a decision before retrying.
	ErrApprovalPending = errors.New("orchestration: approval pending")

	// ErrApprovalRejected indicates the gating approval took the rejected
	// terminal transition.
	ErrApprovalRejected = errors.New("orchestration: approval rejected")

	// ErrApprovalExpired indicates the gating approval's deadline passed;
	// the caller must obtain a fresh approval.
	ErrApprovalExpired = errors.New("orchestration: approval expired")

	// ErrApprovalMismatch indicates the supplied approval does not cover
	// the thread, environment or operation being gated.
	ErrApprovalMismatch = errors.New("orchestration: approval does not cover this operation")

	// ErrEnvironmentsIncomplete indicates a production deployment was
	// attempted before every non-prod environment reached Complete.
	ErrEnvironmentsIncomplete = errors.New("orchestration: non-prod environments not complete")

	// ErrPolicyDenied indicates the context-carried policy blocked the
	// transition before validation ran.
	ErrPolicyDenied = errors.New("orchestration: transition denied by policy")
)

// InvalidTransitionError reports a structural state-machine violation:
// a non-adjacent or backward move outside the ChangesRequested rollback
// rules. It is not retryable without changing the target state.
type InvalidTransitionError struct {
	Environment model.EnvKind
	From        model.EnvState
	To          model.EnvState
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition on %v: %v -> %v", e.Environment, e.From, e.To)
}

// EvidenceError reports a structurally legal transition whose evidence
// requirements are not met. Reasons enumerates every failed requirement so
// the caller can fix its input in one pass.
type EvidenceError struct {
	Environment model.EnvKind
	From        model.EnvState
	To          model.EnvState
	Reasons     []string
}

func (e *EvidenceError) Error() string {
	return fmt.Sprintf("insufficient evidence on %v for %v -> %v: %v",
		e.Environment, e.From, e.To, strings.Join(e.Reasons, "; "))
}
