package progression

import (
	"context"

	"github.com/nebula-bot/nebula-hub/internal/domain/shared"
)

// UpdateFunc transforms the current record into the next one. It receives the
// stored record, or the lazily-created default when no record exists yet, and
// must be free of side effects: implementations may invoke it more than once
// when an optimistic write needs to be retried.
type UpdateFunc func(Record) (Record, error)

// Store is the persistence boundary for progression records, keyed by
// (scope, userId). Implementations own atomicity: concurrent Update calls for
// the same key must be applied without lost updates, either through a
// compare-and-swap primitive or per-key serialization. Different keys proceed
// in parallel with no coordination.
type Store interface {
	// Get loads the record for a scope and user. Returns
	// shared.ErrRecordNotFound when no record has been persisted yet.
	Get(ctx context.Context, scope Scope, user shared.UserID) (Record, error)

	// Save unconditionally persists a record.
	Save(ctx context.Context, rec Record) error

	// Update atomically applies fn to the current record (or the default)
	// and persists the result, returning the persisted record.
	Update(ctx context.Context, scope Scope, user shared.UserID, fn UpdateFunc) (Record, error)
}
