package repo

import "context"

// LedgerRepo is the per-user offense counter.
// Increment must be linearizable per user.
type LedgerRepo interface {
	// Increment adds one offense and returns the new count
	Increment(ctx context.Context, userID string) (int, error)

	// Reset sets the user's count to 0
	Reset(ctx context.Context, userID string) error

	// Count returns the current count (0 for unseen users)
	Count(ctx context.Context, userID string) (int, error)
}
