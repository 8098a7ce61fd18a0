package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/onramp/model"
	"github.com/viant/onramp/service/dao"
	"github.com/viant/onramp/service/dao/thread"
)

func TestService_CreateAndLoad(t *testing.T) {
	store := New()
	ctx := context.Background()

	aThread := model.NewThread("Acme", "owner-1", "creator-1")
	assert.NoError(t, store.Create(ctx, aThread))

	loaded, err := store.Load(ctx, aThread.ID)
	assert.NoError(t, err)
	assert.Equal(t, aThread.ID, loaded.ID)

	// Stored copy is isolated from the loaded clone
	loaded.DisplayName = "Mutated"
	again, err := store.Load(ctx, aThread.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Acme", again.DisplayName)

	_, err = store.Load(ctx, "missing")
	assert.ErrorIs(t, err, dao.ErrNotFound)
}

func TestService_CreateConflicts(t *testing.T) {
	store := New()
	ctx := context.Background()

	first := model.NewThread("Acme", "owner-1", "creator-1")
	assert.NoError(t, store.Create(ctx, first))
	assert.ErrorIs(t, store.Create(ctx, first), dao.ErrConflict)

	// Name conflict folds case and whitespace
	duplicate := model.NewThread("  ACME ", "owner-2", "creator-2")
	assert.ErrorIs(t, store.Create(ctx, duplicate), dao.ErrConflict)

	assert.ErrorIs(t, store.Create(ctx, nil), dao.ErrNilEntity)
	assert.ErrorIs(t, store.Create(ctx, &model.Thread{}), dao.ErrInvalidID)
}

func TestService_FindByName(t *testing.T) {
	store := New()
	ctx := context.Background()

	aThread := model.NewThread("Globex Corp", "owner-1", "creator-1")
	assert.NoError(t, store.Create(ctx, aThread))

	found, err := store.FindByName(ctx, "  globex corp ")
	assert.NoError(t, err)
	assert.Equal(t, aThread.ID, found.ID)

	_, err = store.FindByName(ctx, "unknown")
	assert.ErrorIs(t, err, dao.ErrNotFound)
}

func TestService_SaveVersioning(t *testing.T) {
	store := New()
	ctx := context.Background()

	aThread := model.NewThread("Acme", "owner-1", "creator-1")
	assert.NoError(t, store.Create(ctx, aThread))

	writerA, _ := store.Load(ctx, aThread.ID)
	writerB, _ := store.Load(ctx, aThread.ID)

	writerA.Environment(model.EnvDev).State = model.StateFormsRaised
	assert.NoError(t, store.Save(ctx, writerA))
	assert.Equal(t, 1, writerA.Version)

	// Second writer lost the race
	writerB.Owner = "owner-2"
	assert.ErrorIs(t, store.Save(ctx, writerB), dao.ErrConflict)

	assert.ErrorIs(t, store.Save(ctx, model.NewThread("Ghost", "o", "c")), dao.ErrNotFound)
}

func TestService_ListOwnerFilter(t *testing.T) {
	store := New()
	ctx := context.Background()

	assert.NoError(t, store.Create(ctx, model.NewThread("Acme", "alice", "alice")))
	assert.NoError(t, store.Create(ctx, model.NewThread("Globex", "bob", "bob")))
	assert.NoError(t, store.Create(ctx, model.NewThread("Initech", "alice", "alice")))

	all, err := store.List(ctx)
	assert.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := store.List(ctx, dao.NewParameter(thread.ParamOwner, "alice"))
	assert.NoError(t, err)
	assert.Len(t, mine, 2)

	none, err := store.List(ctx, dao.NewParameter(thread.ParamOwner, "carol"))
	assert.NoError(t, err)
	assert.Len(t, none, 0)
}
