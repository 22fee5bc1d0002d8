package repositories

import "context"

// AccountCodeCache remembers account codes known to exist, so that repeated
// get-or-create calls for the same code can skip the database.
// Implementations may be lossy; a miss always falls through to storage.
type AccountCodeCache interface {
	IsKnown(ctx context.Context, code string) (bool, error)
	MarkKnown(ctx context.Context, code string) error
	Forget(ctx context.Context, code string) error
}
