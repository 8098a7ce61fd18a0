package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewThread(t *testing.T) {
	aThread := NewThread("Acme", "owner-1", "creator-1")
	assert.NotEmpty(t, aThread.ID)
	assert.Len(t, aThread.Environments, 3)
	for _, kind := range EnvKinds() {
		env := aThread.Environment(kind)
		if assert.NotNil(t, env, "environment %v", kind) {
			assert.Equal(t, kind, env.Kind)
			assert.Equal(t, StateNotStarted, env.State)
		}
	}
	assert.Equal(t, "acme", aThread.NormalizedName())
}

func TestThreadClone(t *testing.T) {
	aThread := NewThread("Acme", "owner-1", "creator-1")
	env := aThread.Environment(EnvDev)
	env.Evidence.Tickets = append(env.Evidence.Tickets, TicketRef{ID: "SN-1", Kind: TicketNSSR, Status: "open"})
	env.People.LanIDs = []string{"AB-1234"}
	aThread.Metadata = map[string]interface{}{"note": "original"}

	clone := aThread.Clone()
	clone.Environment(EnvDev).Evidence.Tickets[0].Status = "closed"
	clone.Environment(EnvDev).People.LanIDs[0] = "CD-9999"
	clone.Metadata["note"] = "mutated"

	assert.Equal(t, "open", env.Evidence.Tickets[0].Status)
	assert.Equal(t, "AB-1234", env.People.LanIDs[0])
	assert.Equal(t, "original", aThread.Metadata["note"])
}

func TestNewRedirectURIs(t *testing.T) {
	uris := NewRedirectURIs("Acme", EnvDev, "example.com")
	assert.Equal(t, "https://dev.acme.example.com/api/auth/callback/sso", uris.WebCallback)
	assert.NotEmpty(t, uris.PostLogout)
	assert.NotEmpty(t, uris.APICallback)
}

func TestEvidenceHelpers(t *testing.T) {
	evidence := Evidence{
		Tickets: []TicketRef{
			{ID: "SN-1", Kind: TicketNSSR},
			{ID: "GW-1", Kind: TicketGLAM},
		},
		Secret: &SecretRef{Name: "k", Mask: "****abcd"},
		Screenshots: []ScreenshotRef{
			{Key: "a", Label: ScreenshotLogin},
		},
		Emails: []string{"<m1@onramp>"},
	}
	assert.Len(t, evidence.TicketsOfKind(TicketGLAM, TicketGWAM), 1)
	assert.True(t, evidence.ScreenshotLabels()[ScreenshotLogin])
	assert.Equal(t, 5, evidence.ItemCount())
}
