package fs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/onramp/model"
)

func TestService_AppendAndQuery(t *testing.T) {
	ctx := context.Background()
	sink, err := New(t.TempDir())
	assert.NoError(t, err)

	first, err := sink.Append(ctx, &model.AuditEntry{ThreadID: "t1", Actor: "alice", Action: model.AuditThreadCreated})
	assert.NoError(t, err)
	assert.Equal(t, 1, first.ID)
	_, err = sink.Append(ctx, &model.AuditEntry{ThreadID: "t1", Actor: "alice", Action: model.AuditStateTransition})
	assert.NoError(t, err)
	_, err = sink.Append(ctx, &model.AuditEntry{Actor: "system", Action: model.AuditApprovalExpired})
	assert.NoError(t, err)

	entries, err := sink.Query(ctx, "t1", 0)
	assert.NoError(t, err)
	if assert.Len(t, entries, 2) {
		assert.Equal(t, model.AuditStateTransition, entries[0].Action, "newest first")
	}

	limited, err := sink.Query(ctx, "t1", 1)
	assert.NoError(t, err)
	assert.Len(t, limited, 1)

	system, err := sink.Query(ctx, "", 0)
	assert.NoError(t, err)
	if assert.Len(t, system, 1) {
		assert.Equal(t, model.AuditApprovalExpired, system[0].Action)
	}

	missing, err := sink.Query(ctx, "unknown", 0)
	assert.NoError(t, err)
	assert.Len(t, missing, 0)
}

func TestService_ReopenContinuesIDs(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	sink, err := New(dir)
	assert.NoError(t, err)
	_, err = sink.Append(ctx, &model.AuditEntry{ThreadID: "t1", Actor: "alice", Action: model.AuditThreadCreated})
	assert.NoError(t, err)
	_, err = sink.Append(ctx, &model.AuditEntry{ThreadID: "t1", Actor: "alice", Action: model.AuditStateTransition})
	assert.NoError(t, err)
	_, err = sink.Append(ctx, &model.AuditEntry{Actor: "system", Action: model.AuditApprovalExpired})
	assert.NoError(t, err)

	reopened, err := New(dir)
	assert.NoError(t, err)
	fourth, err := reopened.Append(ctx, &model.AuditEntry{ThreadID: "t1", Actor: "bob", Action: model.AuditStateTransition})
	assert.NoError(t, err)
	assert.Equal(t, 4, fourth.ID)

	entries, err := reopened.Query(ctx, "t1", 0)
	assert.NoError(t, err)
	if assert.Len(t, entries, 3) {
		seen := map[int]bool{}
		for _, entry := range entries {
			assert.False(t, seen[entry.ID], "duplicate audit id %v", entry.ID)
			seen[entry.ID] = true
		}
	}
}
