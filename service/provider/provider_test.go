package provider

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/afs"
	"github.com/viant/onramp/model"
)

func TestTicketSystem_Create(t *testing.T) {
	system := NewTicketSystem("")
	ctx := context.Background()

	testCases := []struct {
		description string
		kind        string
		idPattern   string
	}{
		{description: "NSSR gets SN prefix", kind: model.TicketNSSR, idPattern: `^SN-[0-9A-F]{8}$`},
		{description: "OAuth gets SN prefix", kind: model.TicketOAuth, idPattern: `^SN-[0-9A-F]{8}$`},
		{description: "GLAM gets GW prefix", kind: model.TicketGLAM, idPattern: `^GW-[0-9A-F]{8}$`},
		{description: "GWAM gets GW prefix", kind: model.TicketGWAM, idPattern: `^GW-[0-9A-F]{8}$`},
	}
	for _, testCase := range testCases {
		ticket, err := system.Create(ctx, "Acme", testCase.kind, "SSO onboarding")
		assert.NoError(t, err, testCase.description)
		assert.Regexp(t, regexp.MustCompile(testCase.idPattern), ticket.ID, testCase.description)
		assert.Equal(t, "ServiceNow", ticket.System, testCase.description)
		assert.Equal(t, "open", ticket.Status, testCase.description)
		assert.Contains(t, ticket.URL, ticket.ID, testCase.description)
	}

	_, err := system.Create(ctx, "Acme", "JIRA", "")
	assert.Error(t, err, "unsupported ticket kind")
}

func TestSecretStore_Store(t *testing.T) {
	store := NewSecretStore("mem://localhost/secrets", "", "blowfish://default")
	ctx := context.Background()

	ref, err := store.Store(ctx, "Acme Corp", model.EnvDev, "s3cr3t-value-abcd")
	assert.NoError(t, err)
	assert.Equal(t, "onboarding/acme corp/dev/client_secret", ref.Name)
	assert.Equal(t, "****abcd", ref.Mask)

	_, err = store.Store(ctx, "Acme", model.EnvDev, "")
	assert.Error(t, err, "empty secret")
}

func TestScreenshotStore_Upload(t *testing.T) {
	store := NewScreenshotStore("mem://localhost/screenshots")
	ctx := context.Background()

	ref, err := store.Upload(ctx, "thread-1", model.EnvDev, model.ScreenshotLogin, []byte{0x89, 'P', 'N', 'G'})
	assert.NoError(t, err)
	assert.Equal(t, model.ScreenshotLogin, ref.Label)
	assert.Regexp(t, `^thread-1/dev/login_\d{8}_\d{6}\.png$`, ref.Key)

	ok, err := afs.New().Exists(ctx, ref.URL)
	assert.NoError(t, err)
	assert.True(t, ok)

	_, err = store.Upload(ctx, "thread-1", model.EnvDev, model.ScreenshotToken, nil)
	assert.Error(t, err, "empty payload")
}

func TestMailer_SendSignoff(t *testing.T) {
	mailer := NewMailer("sso-onboarding@example.com")
	ctx := context.Background()

	aThread := model.NewThread("Acme", "alice", "alice")
	env := aThread.Environment(model.EnvDev)
	env.RedirectURIs = model.NewRedirectURIs("Acme", model.EnvDev, "example.com")
	env.Evidence.Screenshots = []model.ScreenshotRef{
		{Key: "k", Label: model.ScreenshotLogin, URL: "mem://localhost/screenshots/k"},
	}

	messageID, err := mailer.SendSignoff(ctx, aThread, model.EnvDev, []string{"bob@corp"})
	assert.NoError(t, err)
	assert.Regexp(t, `^<[0-9a-f]{32}@onramp>$`, messageID)

	outbox := mailer.Outbox()
	if assert.Len(t, outbox, 1) {
		sent := outbox[0]
		assert.Equal(t, "SSO Dev Sign-off for Acme", sent.Subject)
		assert.Equal(t, []string{"bob@corp"}, sent.Recipients)
		assert.Contains(t, sent.Body, env.RedirectURIs.WebCallback)
		assert.Contains(t, sent.Body, "login: mem://localhost/screenshots/k")
		assert.Contains(t, sent.Body, "Please review and approve")
	}

	_, err = mailer.SendSignoff(ctx, &model.Thread{ID: "broken"}, model.EnvDev, nil)
	assert.Error(t, err, "missing environment")
}
