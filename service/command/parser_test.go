package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/onramp/model"
)

func TestParseIntent(t *testing.T) {
	testCases := []struct {
		description string
		text        string
		expect      *Intent
	}{
		{
			description: "onboard",
			text:        "onboard Acme",
			expect:      &Intent{Name: IntentOnboard, Client: "acme"},
		},
		{
			description: "status",
			text:        "status acme",
			expect:      &Intent{Name: IntentStatus, Client: "acme"},
		},
		{
			description: "status with of",
			text:        "Status of Acme",
			expect:      &Intent{Name: IntentStatus, Client: "acme"},
		},
		{
			description: "move",
			text:        "move acme to staging",
			expect:      &Intent{Name: IntentMove, Client: "acme", TargetEnv: model.EnvStaging},
		},
		{
			description: "move to unknown environment",
			text:        "move acme to qa",
			expect:      nil,
		},
		{
			description: "prepare prod",
			text:        "prepare prod for acme",
			expect:      &Intent{Name: IntentPrepareProd, Client: "acme"},
		},
		{
			description: "prepare prod without for",
			text:        "prepare prod acme",
			expect:      &Intent{Name: IntentPrepareProd, Client: "acme"},
		},
		{
			description: "leading whitespace tolerated",
			text:        "  ONBOARD globex  ",
			expect:      &Intent{Name: IntentOnboard, Client: "globex"},
		},
		{
			description: "unrelated text",
			text:        "hello there",
			expect:      nil,
		},
	}
	for _, testCase := range testCases {
		actual := ParseIntent(testCase.text)
		assert.Equal(t, testCase.expect, actual, testCase.description)
	}
}

func TestRedactPII(t *testing.T) {
	redacted := RedactPII("grant AB-1234 access, notify bob@corp.example, track GW-9F8E7D")
	assert.NotContains(t, redacted, "AB-1234")
	assert.NotContains(t, redacted, "bob@corp.example")
	assert.NotContains(t, redacted, "GW-9F8E7D")
	assert.Contains(t, redacted, "LANID-")
	assert.Contains(t, redacted, "EMAIL-")
	assert.Contains(t, redacted, "GW-****")

	// All-digit ticket ids keep their system prefix instead of being
	// treated as LANIDs
	assert.Equal(t, "close SN-**** please", RedactPII("close SN-1234 please"))
	assert.Equal(t, "JIRA-**** raised", RedactPII("JIRA-5678 raised"))

	// Same input redacts to the same value so traces stay correlatable
	assert.Equal(t, RedactPII("lanid AB-1234"), RedactPII("lanid AB-1234"))

	assert.Equal(t, "no identifiers here", RedactPII("no identifiers here"))
}
