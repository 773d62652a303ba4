package schedule

import (
	"context"

	"github.com/SonJH7/status-allocation-berths/core/model"
)

// Store is the durable record of versions and their assignment sets. Versions
// are immutable once committed; implementations assign the monotonic Seq.
// Head and Get return ErrUnknownVersion when nothing matches.
type Store interface {
	// Head returns the latest committed version and its full assignment set.
	Head(ctx context.Context) (model.Version, []model.Assignment, error)
	// Get returns one version and its full assignment set by id.
	Get(ctx context.Context, id string) (model.Version, []model.Assignment, error)
	// List returns all versions in commit order.
	List(ctx context.Context) ([]model.Version, error)
	// Commit persists a new version together with its assignment set and
	// returns the stored version with Seq assigned.
	Commit(ctx context.Context, v model.Version, assignments []model.Assignment) (model.Version, error)
	// Close releases the backing resources.
	Close() error
}
