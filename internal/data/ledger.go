package data

import (
	"context"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/scamdefender/sheriff/internal/biz/repo"
)

// ledgerRepo is the in-memory offense ledger. Counts are lost on restart.
type ledgerRepo struct {
	counts *xsync.MapOf[string, int]
}

// NewLedgerRepo creates an empty offense ledger
func NewLedgerRepo() repo.LedgerRepo {
	return &ledgerRepo{counts: xsync.NewMapOf[string, int]()}
}

// Increment adds one offense. Compute holds the bucket lock, so concurrent
// increments for one user never lose an update.
func (r *ledgerRepo) Increment(ctx context.Context, userID string) (int, error) {
	count, _ := r.counts.Compute(userID, func(old int, _ bool) (int, bool) {
		return old + 1, false
	})
	return count, nil
}

// Reset forgets a user's offenses
func (r *ledgerRepo) Reset(ctx context.Context, userID string) error {
	r.counts.Delete(userID)
	return nil
}

// Count returns the current count
func (r *ledgerRepo) Count(ctx context.Context, userID string) (int, error) {
	count, _ := r.counts.Load(userID)
	return count, nil
}
