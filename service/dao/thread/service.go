// Package thread defines the thread store contract consumed by the
// orchestration layer, together with memory and filesystem implementations
// in sub-packages.
package thread

import (
	"context"

	"github.com/viant/onramp/model"
	"github.com/viant/onramp/service/dao"
)

// ParamOwner filters List results by thread owner.
const ParamOwner = "Owner"

// Store persists client threads. Implementations must serialise concurrent
// writes per thread id: Save compares the supplied thread's Version against
// the stored one and fails with dao.ErrConflict on a lost update, then
// increments the version on success. Load and FindByName return deep copies.
type Store interface {
	// Create persists a new thread; it fails with dao.ErrConflict when the
	// id or normalized display name is already taken.
	Create(ctx context.Context, thread *model.Thread) error

	// Load returns the thread by id, or dao.ErrNotFound.
	Load(ctx context.Context, id string) (*model.Thread, error)

	// FindByName returns the thread whose normalized display name matches,
	// or dao.ErrNotFound. The lookup is indexed, not a list scan.
	FindByName(ctx context.Context, name string) (*model.Thread, error)

	// Save updates an existing thread under the version discipline above.
	Save(ctx context.Context, thread *model.Thread) error

	// List returns all threads, optionally filtered with ParamOwner.
	List(ctx context.Context, parameters ...*dao.Parameter) ([]*model.Thread, error)
}

// MatchOwner reports whether a thread passes the optional owner filter.
func MatchOwner(thread *model.Thread, parameters []*dao.Parameter) bool {
	for _, parameter := range parameters {
		if parameter == nil || parameter.Name != ParamOwner {
			continue
		}
		switch actual := parameter.Value.(type) {
		case string:
			return thread.Owner == actual
		case []string:
			for _, owner := range actual {
				if thread.Owner == owner {
					return true
				}
			}
			return false
		}
	}
	return true
}
