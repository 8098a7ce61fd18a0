package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/viant/onramp/internal/clock"
	"github.com/viant/onramp/internal/idgen"
)

// RedirectURIs holds the per-environment OAuth callback endpoints. They are
// generated deterministically from client name and environment and are not
// evidence-gated.
type RedirectURIs struct {
	WebCallback string `json:"webCallback"`
	PostLogout  string `json:"postLogout,omitempty"`
	APICallback string `json:"apiCallback,omitempty"`
}

// NewRedirectURIs derives the callback endpoints for a client environment
// under the supplied domain.
func NewRedirectURIs(client string, kind EnvKind, domain string) *RedirectURIs {
	base := fmt.Sprintf("https://%v.%v.%v", kind, strings.ToLower(client), domain)
	return &RedirectURIs{
		WebCallback: base + "/api/auth/callback/sso",
		PostLogout:  base + "/auth/logout/callback",
		APICallback: base + "/api/auth/callback/sso",
	}
}

// People carries the informational people set attached to an environment.
type People struct {
	LanIDs    []string          `json:"lanids,omitempty"` // dev/staging only
	Approvers []string          `json:"approvers,omitempty"`
	Contacts  map[string]string `json:"contacts,omitempty"` // name -> email
}

// Environment is one of the three per-thread onboarding environments. It is
// owned exclusively by its parent Thread.
type Environment struct {
	Kind     EnvKind  `json:"kind"`
	State    EnvState `json:"state"`
	Evidence Evidence `json:"evidence"`

	// ReturnState records the ordered state held when ChangesRequested was
	// entered, so that the rollback target can be bounded. Empty for
	// environments that never entered ChangesRequested.
	ReturnState EnvState `json:"returnState,omitempty"`

	RedirectURIs *RedirectURIs `json:"redirectUris,omitempty"`
	People       People        `json:"people"`
	LastUpdated  time.Time     `json:"lastUpdated"`
}

// NewEnvironment returns a NotStarted environment of the given kind.
func NewEnvironment(kind EnvKind) *Environment {
	return &Environment{
		Kind:        kind,
		State:       StateNotStarted,
		LastUpdated: clock.Now(),
	}
}

// Thread tracks one client's onboarding across all three environments. The
// environments map always contains exactly dev, staging and prod; use
// NewThread to uphold the invariant.
type Thread struct {
	ID           string                   `json:"id"`
	DisplayName  string                   `json:"displayName"`
	Environments map[EnvKind]*Environment `json:"environments"`
	Owner        string                   `json:"owner"`
	CreatedBy    string                   `json:"createdBy"`
	CreatedAt    time.Time                `json:"createdAt"`
	LastUpdate   time.Time                `json:"lastUpdate"`

	// Derived views, rebuilt wholesale after every applied transition.
	Blockers    []string `json:"blockers,omitempty"`
	NextActions []string `json:"nextActions,omitempty"`

	Metadata map[string]interface{} `json:"metadata,omitempty"`

	// Version increments on every persisted update; stores use it to detect
	// lost updates from concurrent writers.
	Version int `json:"version"`
}

// NewThread creates a thread with a generated id and all three environments
// present in NotStarted.
func NewThread(displayName, owner, createdBy string) *Thread {
	now := clock.Now()
	thread := &Thread{
		ID:           idgen.New(),
		DisplayName:  displayName,
		Environments: make(map[EnvKind]*Environment, 3),
		Owner:        owner,
		CreatedBy:    createdBy,
		CreatedAt:    now,
		LastUpdate:   now,
	}
	for _, kind := range EnvKinds() {
		thread.Environments[kind] = NewEnvironment(kind)
	}
	return thread
}

// Environment returns the environment of the given kind or nil when the
// thread is malformed.
func (t *Thread) Environment(kind EnvKind) *Environment {
	if t == nil || t.Environments == nil {
		return nil
	}
	return t.Environments[kind]
}

// Clone returns a deep copy of the thread. Stores hand out clones so that a
// caller-side mutation never leaks into persisted state before an explicit
// save.
func (t *Thread) Clone() *Thread {
	if t == nil {
		return nil
	}
	clone := *t
	clone.Environments = make(map[EnvKind]*Environment, len(t.Environments))
	for kind, env := range t.Environments {
		envClone := *env
		envClone.Evidence = env.Evidence.Clone()
		if env.RedirectURIs != nil {
			uris := *env.RedirectURIs
			envClone.RedirectURIs = &uris
		}
		envClone.People = People{
			LanIDs:    append([]string(nil), env.People.LanIDs...),
			Approvers: append([]string(nil), env.People.Approvers...),
		}
		if env.People.Contacts != nil {
			envClone.People.Contacts = make(map[string]string, len(env.People.Contacts))
			for name, email := range env.People.Contacts {
				envClone.People.Contacts[name] = email
			}
		}
		clone.Environments[kind] = &envClone
	}
	clone.Blockers = append([]string(nil), t.Blockers...)
	clone.NextActions = append([]string(nil), t.NextActions...)
	if t.Metadata != nil {
		clone.Metadata = make(map[string]interface{}, len(t.Metadata))
		for key, value := range t.Metadata {
			clone.Metadata[key] = value
		}
	}
	return &clone
}

// NormalizedName returns the display name folded for indexed lookup.
func (t *Thread) NormalizedName() string {
	return NormalizeName(t.DisplayName)
}

// NormalizeName folds a client display name for use as a lookup key.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
