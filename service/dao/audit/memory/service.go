package memory

import (
	"context"
	"sync"

	"github.com/viant/onramp/internal/clock"
	"github.com/viant/onramp/model"
	"github.com/viant/onramp/service/dao"
	"github.com/viant/onramp/service/dao/audit"
)

// Service is an in-memory append-only audit sink.
type Service struct {
	mu      sync.RWMutex
	entries []*model.AuditEntry
	nextID  int
}

// Ensure Service implements audit.Sink
var _ audit.Sink = (*Service)(nil)

// New creates an empty in-memory audit sink.
func New() *Service {
	return &Service{nextID: 1}
}

// Append records an entry, assigning its id and defaulting CreatedAt.
func (s *Service) Append(_ context.Context, entry *model.AuditEntry) (*model.AuditEntry, error) {
	if entry == nil {
		return nil, dao.ErrNilEntity
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *entry
	stored.ID = s.nextID
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = clock.Now()
	}
	s.nextID++
	s.entries = append(s.entries, &stored)
	entry.ID = stored.ID
	entry.CreatedAt = stored.CreatedAt
	return entry, nil
}

// Query returns entries for the thread, newest first.
func (s *Service) Query(_ context.Context, threadID string, limit int) ([]*model.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []*model.AuditEntry
	for i := len(s.entries) - 1; i >= 0; i-- {
		entry := s.entries[i]
		if entry.ThreadID != threadID {
			continue
		}
		copied := *entry
		matched = append(matched, &copied)
		if limit > 0 && len(matched) >= limit {
			break
		}
	}
	return matched, nil
}
