package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	"github.com/viant/onramp/model"
	"github.com/viant/onramp/service/dao"
	"github.com/viant/onramp/service/dao/thread"
)

// Service implements a filesystem-backed thread store. Each thread is one
// JSON document named by its id; a display-name index is built when the
// store opens and maintained on every write, so FindByName never scans the
// directory.
type Service struct {
	basePath string
	fs       afs.Service

	mu     sync.RWMutex
	byName map[string]string // normalized name -> id
}

// Ensure Service implements thread.Store
var _ thread.Store = (*Service)(nil)

// New creates a filesystem thread store rooted at basePath, creating the
// directory when absent and indexing any existing thread documents.
func New(basePath string) (*Service, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}
	fsService := afs.New()
	ctx := context.Background()
	exists, _ := fsService.Exists(ctx, basePath)
	if !exists {
		if err := fsService.Create(ctx, basePath, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create base directory: %w", err)
		}
	}
	ret := &Service{
		basePath: url.Normalize(basePath, file.Scheme),
		fs:       fsService,
		byName:   make(map[string]string),
	}
	if err := ret.reindex(ctx); err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *Service) reindex(ctx context.Context) error {
	objects, err := s.fs.List(ctx, s.basePath)
	if err != nil {
		return fmt.Errorf("failed to list thread files: %w", err)
	}
	var broken error
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ".json") {
			continue
		}
		data, err := s.fs.Download(ctx, object)
		if err != nil {
			broken = errors.Join(broken, fmt.Errorf("failed to read thread file %v: %w", object.Name(), err))
			continue
		}
		var t model.Thread
		if err := json.Unmarshal(data, &t); err != nil {
			broken = errors.Join(broken, fmt.Errorf("failed to decode thread file %v: %w", object.Name(), err))
			continue
		}
		s.byName[t.NormalizedName()] = t.ID
	}
	return broken
}

func (s *Service) threadPath(id string) string {
	return path.Join(s.basePath, fmt.Sprintf("%v.json", id))
}

func (s *Service) write(ctx context.Context, t *model.Thread) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal thread: %w", err)
	}
	location := s.threadPath(t.ID)
	if err := s.fs.Upload(ctx, location, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save thread to %v: %w", location, err)
	}
	return nil
}

func (s *Service) read(ctx context.Context, id string) (*model.Thread, error) {
	location := s.threadPath(id)
	exists, err := s.fs.Exists(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to check thread %v: %w", id, err)
	}
	if !exists {
		return nil, fmt.Errorf("thread %v: %w", id, dao.ErrNotFound)
	}
	data, err := s.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to read thread %v: %w", id, err)
	}
	var t model.Thread
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to unmarshal thread %v: %w", id, err)
	}
	return &t, nil
}

// Create persists a new thread document and registers its name.
func (s *Service) Create(ctx context.Context, t *model.Thread) error {
	if t == nil {
		return dao.ErrNilEntity
	}
	if t.ID == "" {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.byName[t.NormalizedName()]; ok {
		return fmt.Errorf("display name %q already taken by thread %v: %w", t.DisplayName, existing, dao.ErrConflict)
	}
	if exists, _ := s.fs.Exists(ctx, s.threadPath(t.ID)); exists {
		return fmt.Errorf("thread %v already exists: %w", t.ID, dao.ErrConflict)
	}
	if err := s.write(ctx, t); err != nil {
		return err
	}
	s.byName[t.NormalizedName()] = t.ID
	return nil
}

// Load returns the thread by id.
func (s *Service) Load(ctx context.Context, id string) (*model.Thread, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read(ctx, id)
}

// FindByName resolves a thread through the display-name index.
func (s *Service) FindByName(ctx context.Context, name string) (*model.Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byName[model.NormalizeName(name)]
	if !ok {
		return nil, fmt.Errorf("client %q: %w", name, dao.ErrNotFound)
	}
	return s.read(ctx, id)
}

// Save updates an existing thread document under the version discipline.
func (s *Service) Save(ctx context.Context, t *model.Thread) error {
	if t == nil {
		return dao.ErrNilEntity
	}
	if t.ID == "" {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, err := s.read(ctx, t.ID)
	if err != nil {
		return err
	}
	if stored.Version != t.Version {
		return fmt.Errorf("thread %v stale version %d, stored %d: %w", t.ID, t.Version, stored.Version, dao.ErrConflict)
	}
	t.Version++
	if err := s.write(ctx, t); err != nil {
		t.Version--
		return err
	}
	if oldName := stored.NormalizedName(); oldName != t.NormalizedName() {
		delete(s.byName, oldName)
	}
	s.byName[t.NormalizedName()] = t.ID
	return nil
}

// List returns all threads, honouring the owner filter.
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*model.Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	objects, err := s.fs.List(ctx, s.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to list thread files: %w", err)
	}
	var threads []*model.Thread
	var broken error
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ".json") {
			continue
		}
		data, err := s.fs.Download(ctx, object)
		if err != nil {
			broken = errors.Join(broken, fmt.Errorf("failed to read thread file %v: %w", object.Name(), err))
			continue
		}
		var t model.Thread
		if err := json.Unmarshal(data, &t); err != nil {
			broken = errors.Join(broken, fmt.Errorf("failed to decode thread file %v: %w", object.Name(), err))
			continue
		}
		if !thread.MatchOwner(&t, parameters) {
			continue
		}
		threads = append(threads, &t)
	}
	if broken != nil {
		return nil, broken
	}
	return threads, nil
}
