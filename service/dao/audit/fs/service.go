package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	"github.com/viant/onramp/internal/clock"
	"github.com/viant/onramp/model"
	"github.com/viant/onramp/service/dao"
	"github.com/viant/onramp/service/dao/audit"
)

// Service is a filesystem-backed audit sink. Entries are appended to one
// JSON-lines file per thread (plus a system file for thread-less entries),
// which keeps the append path cheap and a per-thread query a single read.
type Service struct {
	basePath string
	fs       afs.Service

	mu     sync.Mutex
	nextID int
}

// Ensure Service implements audit.Sink
var _ audit.Sink = (*Service)(nil)

// New creates a filesystem audit sink rooted at basePath.
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
		nextID:   1,
	}
	if err := ret.recoverNextID(ctx); err != nil {
		return nil, err
	}
	return ret, nil
}

// recoverNextID scans the existing log files so that ids keep increasing
// when the sink reopens over previously written storage.
func (s *Service) recoverNextID(ctx context.Context) error {
	objects, err := s.fs.List(ctx, s.basePath)
	if err != nil {
		return fmt.Errorf("failed to list audit logs: %w", err)
	}
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ".jsonl") {
			continue
		}
		data, err := s.fs.Download(ctx, object)
		if err != nil {
			return fmt.Errorf("failed to read audit log %v: %w", object.Name(), err)
		}
		for _, line := range bytes.Split(data, []byte{'\n'}) {
			if len(bytes.TrimSpace(line)) == 0 {
				continue
			}
			var entry model.AuditEntry
			if err := json.Unmarshal(line, &entry); err != nil {
				return fmt.Errorf("failed to decode audit log %v: %w", object.Name(), err)
			}
			if entry.ID >= s.nextID {
				s.nextID = entry.ID + 1
			}
		}
	}
	return nil
}

func (s *Service) logPath(threadID string) string {
	name := "system"
	if threadID != "" {
		name = threadID
	}
	return path.Join(s.basePath, fmt.Sprintf("%v.jsonl", name))
}

// Append records an entry at the end of the thread's log file.
func (s *Service) Append(ctx context.Context, entry *model.AuditEntry) (*model.AuditEntry, error) {
	if entry == nil {
		return nil, dao.ErrNilEntity
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.ID = s.nextID
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = clock.Now()
	}
	line, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal audit entry: %w", err)
	}
	location := s.logPath(entry.ThreadID)
	var existing []byte
	if exists, _ := s.fs.Exists(ctx, location); exists {
		existing, err = s.fs.DownloadWithURL(ctx, location)
		if err != nil {
			return nil, fmt.Errorf("failed to read audit log %v: %w", location, err)
		}
	}
	data := append(existing, append(line, '\n')...)
	if err := s.fs.Upload(ctx, location, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to append audit entry to %v: %w", location, err)
	}
	s.nextID++
	return entry, nil
}

// Query returns the thread's entries newest first.
func (s *Service) Query(ctx context.Context, threadID string, limit int) ([]*model.AuditEntry, error) {
	location := s.logPath(threadID)
	exists, err := s.fs.Exists(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to check audit log %v: %w", location, err)
	}
	if !exists {
		return nil, nil
	}
	data, err := s.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to read audit log %v: %w", location, err)
	}
	var entries []*model.AuditEntry
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var entry model.AuditEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		entries = append(entries, &entry)
	}
	// newest first
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
