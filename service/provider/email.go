package provider

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/viant/onramp/internal/clock"
	"github.com/viant/onramp/internal/idgen"
	"github.com/viant/onramp/model"
)

// OutboundEmail is one composed sign-off message.
type OutboundEmail struct {
	MessageID  string
	Subject    string
	Body       string
	Recipients []string
	SentAt     string
}

// Mailer composes sign-off emails. The default implementation records them
// in an in-memory outbox; an SMTP transport slots in behind the same
// method.
type Mailer struct {
	sender string
	mu     sync.Mutex
	outbox []*OutboundEmail
}

// NewMailer creates a mailer signing messages with the given sender.
func NewMailer(sender string) *Mailer {
	return &Mailer{sender: sender}
}

// SendSignoff composes the environment sign-off email (redirect URIs plus
// screenshot links) and returns its message id.
func (m *Mailer) SendSignoff(ctx context.Context, aThread *model.Thread, kind model.EnvKind, recipients []string) (string, error) {
	env := aThread.Environment(kind)
	if env == nil {
		return "", fmt.Errorf("thread %v has no %v environment", aThread.ID, kind)
	}
	messageID := fmt.Sprintf("<%v@onramp>", strings.ReplaceAll(idgen.New(), "-", ""))
	title := titleCase(string(kind))
	subject := fmt.Sprintf("SSO %v Sign-off for %v", title, aThread.DisplayName)

	var body strings.Builder
	fmt.Fprintf(&body, "Hi Team,\n\n%v validation for %v is complete. Please find the required screenshots and the requested redirect URIs below.\n\n", title, aThread.DisplayName)
	if uris := env.RedirectURIs; uris != nil {
		body.WriteString("Redirect URIs:\n")
		fmt.Fprintf(&body, "- Web Callback: %v\n", uris.WebCallback)
		if uris.PostLogout != "" {
			fmt.Fprintf(&body, "- Post Logout: %v\n", uris.PostLogout)
		}
		if uris.APICallback != "" {
			fmt.Fprintf(&body, "- API Callback: %v\n", uris.APICallback)
		}
	}
	body.WriteString("\nScreenshots:\n")
	for _, shot := range env.Evidence.Screenshots {
		fmt.Fprintf(&body, "- %v: %v\n", shot.Label, shot.URL)
	}
	fmt.Fprintf(&body, "\nPlease review and approve to proceed to the next environment.\n\nThanks,\n%v\n", m.sender)

	m.mu.Lock()
	m.outbox = append(m.outbox, &OutboundEmail{
		MessageID:  messageID,
		Subject:    subject,
		Body:       body.String(),
		Recipients: append([]string(nil), recipients...),
		SentAt:     clock.Now().Format("2006-01-02T15:04:05Z07:00"),
	})
	m.mu.Unlock()
	return messageID, nil
}

func titleCase(text string) string {
	if text == "" {
		return text
	}
	return strings.ToUpper(text[:1]) + text[1:]
}

// Outbox returns the messages sent so far.
func (m *Mailer) Outbox() []*OutboundEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*OutboundEmail(nil), m.outbox...)
}
