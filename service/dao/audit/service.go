// Package audit defines the append-only audit sink consumed by the
// orchestration and approval layers.
package audit

import (
	"context"

	"github.com/viant/onramp/model"
)

// Sink records audit entries. Append assigns the entry id at persistence
// time; Query returns entries newest first, optionally limited. A threadID
// of "" matches system-wide entries only.
type Sink interface {
	Append(ctx context.Context, entry *model.AuditEntry) (*model.AuditEntry, error)
	Query(ctx context.Context, threadID string, limit int) ([]*model.AuditEntry, error)
}
