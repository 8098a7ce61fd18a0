package model

// EnvKind identifies one of the three fixed onboarding environments. The
// order Dev -> Staging -> Prod matters: completion of each environment gates
// the next one.
type EnvKind string

const (
	EnvDev     EnvKind = "dev"
	EnvStaging EnvKind = "staging"
	EnvProd    EnvKind = "prod"
)

// EnvKinds returns the environments in their fixed progression order.
func EnvKinds() []EnvKind {
	return []EnvKind{EnvDev, EnvStaging, EnvProd}
}

// IsValid reports whether k is one of the three known environments.
func (k EnvKind) IsValid() bool {
	switch k {
	case EnvDev, EnvStaging, EnvProd:
		return true
	}
	return false
}

// Previous returns the environment that must be complete before k can
// complete, or empty for dev which has no prerequisite.
func (k EnvKind) Previous() EnvKind {
	switch k {
	case EnvStaging:
		return EnvDev
	case EnvProd:
		return EnvStaging
	}
	return ""
}

// EnvState represents the lifecycle state of a single environment.
type EnvState string

const (
	StateNotStarted        EnvState = "NotStarted"
	StateFormsRaised       EnvState = "FormsRaised"
	StateCredsIssued       EnvState = "CredsIssued"
	StateAccessProvisioned EnvState = "AccessProvisioned"
	StateValidated         EnvState = "Validated"
	StateSignoffSent       EnvState = "SignoffSent"
	StateApproved          EnvState = "Approved"
	StateComplete          EnvState = "Complete"

	// Special states, reachable from any ordinary state.
	StateBlocked          EnvState = "Blocked"
	StateChangesRequested EnvState = "ChangesRequested"
	StateAbandoned        EnvState = "Abandoned"
)

// StateOrder is the ordered progression an environment advances through.
// The special states are deliberately absent.
var StateOrder = []EnvState{
	StateNotStarted,
	StateFormsRaised,
	StateCredsIssued,
	StateAccessProvisioned,
	StateValidated,
	StateSignoffSent,
	StateApproved,
	StateComplete,
}

// IsSpecial reports whether s is one of the states reachable from any
// ordinary state.
func (s EnvState) IsSpecial() bool {
	switch s {
	case StateBlocked, StateChangesRequested, StateAbandoned:
		return true
	}
	return false
}

// OrderIndex returns the position of s in the ordered progression, or -1
// when s is a special state.
func (s EnvState) OrderIndex() int {
	for i, state := range StateOrder {
		if state == s {
			return i
		}
	}
	return -1
}
