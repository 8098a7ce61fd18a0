package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/viant/onramp/model"
	"github.com/viant/onramp/service/dao"
	"github.com/viant/onramp/service/dao/thread"
)

// Service is an in-memory thread store with an index keyed by normalized
// display name. It is the default store; production deployments swap in the
// fs implementation or their own.
type Service struct {
	mu     sync.RWMutex
	byID   map[string]*model.Thread
	byName map[string]string // normalized name -> id
}

// Ensure Service implements thread.Store
var _ thread.Store = (*Service)(nil)

// New creates an empty in-memory thread store.
func New() *Service {
	return &Service{
		byID:   make(map[string]*model.Thread),
		byName: make(map[string]string),
	}
}

// Create persists a new thread.
func (s *Service) Create(_ context.Context, t *model.Thread) error {
	if t == nil {
		return dao.ErrNilEntity
	}
	if t.ID == "" {
		return dao.ErrInvalidID
	}
	name := t.NormalizedName()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[t.ID]; ok {
		return fmt.Errorf("thread %v already exists: %w", t.ID, dao.ErrConflict)
	}
	if existing, ok := s.byName[name]; ok {
		return fmt.Errorf("display name %q already taken by thread %v: %w", t.DisplayName, existing, dao.ErrConflict)
	}
	stored := t.Clone()
	s.byID[t.ID] = stored
	s.byName[name] = t.ID
	return nil
}

// Load returns a deep copy of the thread by id.
func (s *Service) Load(_ context.Context, id string) (*model.Thread, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("thread %v: %w", id, dao.ErrNotFound)
	}
	return stored.Clone(), nil
}

// FindByName resolves a thread through the display-name index.
func (s *Service) FindByName(_ context.Context, name string) (*model.Thread, error) {
	key := model.NormalizeName(name)
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byName[key]
	if !ok {
		return nil, fmt.Errorf("client %q: %w", name, dao.ErrNotFound)
	}
	return s.byID[id].Clone(), nil
}

// Save updates an existing thread, detecting lost updates through the
// version counter.
func (s *Service) Save(_ context.Context, t *model.Thread) error {
	if t == nil {
		return dao.ErrNilEntity
	}
	if t.ID == "" {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.byID[t.ID]
	if !ok {
		return fmt.Errorf("thread %v: %w", t.ID, dao.ErrNotFound)
	}
	if stored.Version != t.Version {
		return fmt.Errorf("thread %v stale version %d, stored %d: %w", t.ID, t.Version, stored.Version, dao.ErrConflict)
	}
	next := t.Clone()
	next.Version++
	if oldName := stored.NormalizedName(); oldName != next.NormalizedName() {
		delete(s.byName, oldName)
		s.byName[next.NormalizedName()] = next.ID
	}
	s.byID[t.ID] = next
	t.Version = next.Version
	return nil
}

// List returns deep copies of all threads, honouring the owner filter.
func (s *Service) List(_ context.Context, parameters ...*dao.Parameter) ([]*model.Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Thread, 0, len(s.byID))
	for _, stored := range s.byID {
		if !thread.MatchOwner(stored, parameters) {
			continue
		}
		out = append(out, stored.Clone())
	}
	return out, nil
}
