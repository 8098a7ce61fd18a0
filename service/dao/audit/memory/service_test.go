package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/onramp/model"
	"github.com/viant/onramp/service/dao"
)

func TestService_Append(t *testing.T) {
	sink := New()
	ctx := context.Background()

	entry, err := sink.Append(ctx, &model.AuditEntry{
		ThreadID: "t1",
		Actor:    "alice",
		Action:   model.AuditThreadCreated,
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())

	second, err := sink.Append(ctx, &model.AuditEntry{ThreadID: "t1", Actor: "alice", Action: model.AuditStateTransition})
	assert.NoError(t, err)
	assert.Equal(t, 2, second.ID)

	_, err = sink.Append(ctx, nil)
	assert.ErrorIs(t, err, dao.ErrNilEntity)
}

func TestService_Query(t *testing.T) {
	sink := New()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := sink.Append(ctx, &model.AuditEntry{
			ThreadID: "t1",
			Actor:    "alice",
			Action:   model.AuditStateTransition,
			Details:  map[string]interface{}{"seq": fmt.Sprintf("%d", i)},
		})
		assert.NoError(t, err)
	}
	_, err := sink.Append(ctx, &model.AuditEntry{Actor: "system", Action: model.AuditApprovalExpired})
	assert.NoError(t, err)

	// Newest first
	entries, err := sink.Query(ctx, "t1", 0)
	assert.NoError(t, err)
	if assert.Len(t, entries, 5) {
		assert.Equal(t, "4", entries[0].Details["seq"])
		assert.Equal(t, "0", entries[4].Details["seq"])
	}

	limited, err := sink.Query(ctx, "t1", 2)
	assert.NoError(t, err)
	if assert.Len(t, limited, 2) {
		assert.Equal(t, "4", limited[0].Details["seq"])
	}

	// Empty thread id matches system-wide entries only
	system, err := sink.Query(ctx, "", 0)
	assert.NoError(t, err)
	if assert.Len(t, system, 1) {
		assert.Equal(t, model.AuditApprovalExpired, system[0].Action)
	}
}
