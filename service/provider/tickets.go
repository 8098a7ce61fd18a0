package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/viant/onramp/internal/clock"
	"github.com/viant/onramp/internal/idgen"
	"github.com/viant/onramp/model"
)

// TicketSystem raises ServiceNow-shaped tickets. The default implementation
// mints references locally; wiring a real ServiceNow client behind the same
// method is a deployment concern.
type TicketSystem struct {
	baseURL string
}

// NewTicketSystem creates a ticket provider rooted at the ticketing system
// URL.
func NewTicketSystem(baseURL string) *TicketSystem {
	if baseURL == "" {
		baseURL = "https://servicenow.example.com"
	}
	return &TicketSystem{baseURL: baseURL}
}

// Create raises one ticket of the given kind and returns its reference with
// status open.
func (t *TicketSystem) Create(ctx context.Context, client, kind, summary string) (*model.TicketRef, error) {
	var prefix string
	switch kind {
	case model.TicketNSSR, model.TicketOAuth:
		prefix = "SN"
	case model.TicketGLAM, model.TicketGWAM:
		prefix = "GW"
	default:
		return nil, fmt.Errorf("unsupported ticket kind: %v", kind)
	}
	id := fmt.Sprintf("%v-%v", prefix, strings.ToUpper(strings.ReplaceAll(idgen.New(), "-", "")[:8]))
	return &model.TicketRef{
		System:    "ServiceNow",
		ID:        id,
		URL:       fmt.Sprintf("%v/nav_to.do?uri=incident.do?sys_id=%v", t.baseURL, id),
		Kind:      kind,
		Status:    "open",
		CreatedAt: clock.Now(),
	}, nil
}
