package provider

import (
	"bytes"
	"context"
	"fmt"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/onramp/internal/clock"
	"github.com/viant/onramp/model"
)

// ScreenshotStore uploads validation screenshots through viant/afs, so the
// same provider serves local files, memory (tests) and cloud buckets.
type ScreenshotStore struct {
	fs      afs.Service
	baseURL string
}

// NewScreenshotStore creates a screenshot provider rooted at baseURL, e.g.
// mem://localhost/screenshots or s3://bucket/screenshots.
func NewScreenshotStore(baseURL string) *ScreenshotStore {
	return &ScreenshotStore{fs: afs.New(), baseURL: baseURL}
}

// Upload stores the PNG payload and returns its reference. Keys are
// timestamped so a re-captured screenshot never overwrites the prior one.
func (s *ScreenshotStore) Upload(ctx context.Context, threadID string, kind model.EnvKind, label string, data []byte) (*model.ScreenshotRef, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("screenshot %v was empty", label)
	}
	now := clock.Now()
	key := fmt.Sprintf("%v/%v/%v_%v.png", threadID, kind, label, now.UTC().Format("20060102_150405"))
	URL := fmt.Sprintf("%v/%v", s.baseURL, key)
	if err := s.fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to upload screenshot %v: %w", key, err)
	}
	return &model.ScreenshotRef{
		Key:        key,
		Label:      label,
		URL:        URL,
		UploadedAt: now,
	}, nil
}
