package repo

import (
	"context"
	"time"

	"github.com/scamdefender/sheriff/internal/biz/domain"
)

// PinRepo stores pinned notices that still have to be unpinned
type PinRepo interface {
	Add(ctx context.Context, p *domain.PendingUnpin) error
	Due(ctx context.Context, now time.Time) ([]*domain.PendingUnpin, error)
	Remove(ctx context.Context, ref domain.MessageRef) error
	Close() error
}
