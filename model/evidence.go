package model

import "time"

// Ticket kinds recognised by the workflow.
const (
	TicketNSSR  = "NSSR"
	TicketOAuth = "OAuth"
	TicketGLAM  = "GLAM"
	TicketGWAM  = "GWAM"
)

// Screenshot labels required to validate an environment.
const (
	ScreenshotLogin   = "login"
	ScreenshotConsent = "consent"
	ScreenshotLanding = "landing"
	ScreenshotToken   = "token"
)

// RequiredScreenshotLabels lists the labels a Validated transition must
// cover, in report order.
var RequiredScreenshotLabels = []string{
	ScreenshotLogin,
	ScreenshotConsent,
	ScreenshotLanding,
	ScreenshotToken,
}

// TicketRef points at a ticket raised in an external ticketing system.
type TicketRef struct {
	System    string    `json:"system"` // e.g. "ServiceNow"
	ID        string    `json:"id"`
	URL       string    `json:"url,omitempty"`
	Kind      string    `json:"kind"` // NSSR, OAuth, GLAM, GWAM
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsOpen reports whether the ticket has not been resolved yet.
func (t *TicketRef) IsOpen() bool {
	return t.Status == "open"
}

// SecretRef references a client secret held in a secret store. Mask holds
// the last four characters only; the raw secret never appears in evidence.
type SecretRef struct {
	Name      string    `json:"name"` // secret store key
	Mask      string    `json:"mask"`
	CreatedAt time.Time `json:"createdAt"`
}

// ScreenshotRef references a validation screenshot held in object storage.
type ScreenshotRef struct {
	Key        string    `json:"key"` // storage key
	Label      string    `json:"label"`
	URL        string    `json:"url,omitempty"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Evidence bundles the artifacts supplied with a transition attempt. Each
// attempt replaces the environment's stored evidence wholesale; there is no
// incremental merge.
type Evidence struct {
	Tickets     []TicketRef     `json:"tickets,omitempty"`
	Secret      *SecretRef      `json:"secret,omitempty"`
	Screenshots []ScreenshotRef `json:"screenshots,omitempty"`
	Emails      []string        `json:"emails,omitempty"` // message ids or links
	Notes       []string        `json:"notes,omitempty"`
}

// TicketsOfKind returns the tickets whose kind is one of the supplied kinds.
func (e *Evidence) TicketsOfKind(kinds ...string) []TicketRef {
	var matched []TicketRef
	for _, ticket := range e.Tickets {
		for _, kind := range kinds {
			if ticket.Kind == kind {
				matched = append(matched, ticket)
				break
			}
		}
	}
	return matched
}

// ScreenshotLabels returns the set of labels present in the evidence.
func (e *Evidence) ScreenshotLabels() map[string]bool {
	labels := make(map[string]bool, len(e.Screenshots))
	for _, shot := range e.Screenshots {
		labels[shot.Label] = true
	}
	return labels
}

// ItemCount returns the number of discrete evidence items, used in audit
// detail.
func (e *Evidence) ItemCount() int {
	count := len(e.Tickets) + len(e.Screenshots) + len(e.Emails)
	if e.Secret != nil {
		count++
	}
	return count
}

// Clone returns a deep copy so stored evidence cannot be mutated through a
// caller-retained reference.
func (e *Evidence) Clone() Evidence {
	clone := Evidence{
		Tickets:     append([]TicketRef(nil), e.Tickets...),
		Screenshots: append([]ScreenshotRef(nil), e.Screenshots...),
		Emails:      append([]string(nil), e.Emails...),
		Notes:       append([]string(nil), e.Notes...),
	}
	if e.Secret != nil {
		secret := *e.Secret
		clone.Secret = &secret
	}
	return clone
}
