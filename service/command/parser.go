package command

import (
	"crypto/md5"
	"fmt"
	"regexp"
	"strings"

	"github.com/viant/onramp/model"
)

// Intent names recognised by the front end.
const (
	IntentOnboard     = "onboard"
	IntentStatus      = "status"
	IntentMove        = "move"
	IntentPrepareProd = "prepare_prod"
)

// Intent is the structured form of a parsed command.
type Intent struct {
	Name      string
	Client    string
	TargetEnv model.EnvKind
}

var (
	onboardExpr = regexp.MustCompile(`^onboard\s+(\w+)`)
	statusExpr  = regexp.MustCompile(`^status\s+(?:of\s+)?(\w+)`)
	moveExpr    = regexp.MustCompile(`^move\s+(\w+)\s+to\s+(dev|staging|prod)`)
	prepareExpr = regexp.MustCompile(`^prepare\s+prod\s+(?:for\s+)?(\w+)`)
)

// ParseIntent resolves free text into an intent, or nil when no pattern
// matches.
func ParseIntent(text string) *Intent {
	text = strings.ToLower(strings.TrimSpace(text))
	if match := onboardExpr.FindStringSubmatch(text); match != nil {
		return &Intent{Name: IntentOnboard, Client: match[1]}
	}
	if match := moveExpr.FindStringSubmatch(text); match != nil {
		return &Intent{Name: IntentMove, Client: match[1], TargetEnv: model.EnvKind(match[2])}
	}
	if match := prepareExpr.FindStringSubmatch(text); match != nil {
		return &Intent{Name: IntentPrepareProd, Client: match[1]}
	}
	if match := statusExpr.FindStringSubmatch(text); match != nil {
		return &Intent{Name: IntentStatus, Client: match[1]}
	}
	return nil
}

var (
	lanidExpr  = regexp.MustCompile(`\b[A-Z]{2,3}-\d+\b`)
	emailExpr  = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	ticketExpr = regexp.MustCompile(`\b(SN|GW|JIRA)-[A-Za-z0-9]+\b`)
)

// RedactPII masks LANIDs, email addresses and ticket ids so that traces and
// audit details never carry raw identifiers.
func RedactPII(text string) string {
	// Tickets first: the LANID pattern also matches all-digit ticket ids
	// such as SN-1234, which must keep their system prefix.
	text = ticketExpr.ReplaceAllStringFunc(text, func(match string) string {
		return match[:strings.Index(match, "-")] + "-****"
	})
	text = lanidExpr.ReplaceAllStringFunc(text, func(match string) string {
		return "LANID-" + shortHash(match)
	})
	text = emailExpr.ReplaceAllStringFunc(text, func(match string) string {
		return "EMAIL-" + shortHash(match)
	})
	return text
}

func shortHash(text string) string {
	sum := md5.Sum([]byte(text))
	return fmt.Sprintf("%x", sum)[:8]
}
