package data

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/scamdefender/sheriff/internal/biz/domain"
	"github.com/scamdefender/sheriff/internal/biz/repo"

	_ "modernc.org/sqlite"
)

// NewPinRepo returns a SQLite-backed store when dbPath is set, otherwise an in-memory one
func NewPinRepo(dbPath string) (repo.PinRepo, error) {
	if dbPath == "" {
		return NewMemoryPinRepo(), nil
	}
	return NewSQLitePinRepo(dbPath)
}

// sqlitePinRepo persists pending unpins so they survive restarts
type sqlitePinRepo struct {
	db *sql.DB
}

// NewSQLitePinRepo opens (or creates) the pending unpin database
func NewSQLitePinRepo(dbPath string) (repo.PinRepo, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Serialize writers; modernc sqlite reports SQLITE_BUSY otherwise
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS pending_unpins (
			channel_id TEXT NOT NULL,
			message_id TEXT NOT NULL,
			unpin_at INTEGER NOT NULL,
			PRIMARY KEY (channel_id, message_id)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_pending_unpins_unpin_at ON pending_unpins(unpin_at)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &sqlitePinRepo{db: db}, nil
}

// Add records a pin to be removed later. Re-adding a pin moves its deadline.
func (r *sqlitePinRepo) Add(ctx context.Context, p *domain.PendingUnpin) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO pending_unpins (channel_id, message_id, unpin_at)
		VALUES (?, ?, ?)
	`, p.Ref.ChannelID, p.Ref.MessageID, p.UnpinAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to save pending unpin: %w", err)
	}
	return nil
}

// Due lists pins whose deadline is not after now, oldest first
func (r *sqlitePinRepo) Due(ctx context.Context, now time.Time) ([]*domain.PendingUnpin, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT channel_id, message_id, unpin_at
		FROM pending_unpins
		WHERE unpin_at <= ?
		ORDER BY unpin_at ASC
	`, now.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to query pending unpins: %w", err)
	}
	defer rows.Close()

	var due []*domain.PendingUnpin
	for rows.Next() {
		var p domain.PendingUnpin
		var unpinAt int64
		if err := rows.Scan(&p.Ref.ChannelID, &p.Ref.MessageID, &unpinAt); err != nil {
			return nil, fmt.Errorf("failed to scan pending unpin: %w", err)
		}
		p.UnpinAt = time.UnixMilli(unpinAt)
		due = append(due, &p)
	}
	return due, rows.Err()
}

// Remove drops a pending unpin
func (r *sqlitePinRepo) Remove(ctx context.Context, ref domain.MessageRef) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM pending_unpins WHERE channel_id = ? AND message_id = ?
	`, ref.ChannelID, ref.MessageID)
	if err != nil {
		return fmt.Errorf("failed to delete pending unpin: %w", err)
	}
	return nil
}

// Close closes the database connection
func (r *sqlitePinRepo) Close() error {
	return r.db.Close()
}

// memoryPinRepo keeps pending unpins in process memory
type memoryPinRepo struct {
	pins *xsync.MapOf[domain.MessageRef, time.Time]
}

// NewMemoryPinRepo creates an in-memory pending unpin store
func NewMemoryPinRepo() repo.PinRepo {
	return &memoryPinRepo{pins: xsync.NewMapOf[domain.MessageRef, time.Time]()}
}

func (r *memoryPinRepo) Add(ctx context.Context, p *domain.PendingUnpin) error {
	r.pins.Store(p.Ref, p.UnpinAt)
	return nil
}

func (r *memoryPinRepo) Due(ctx context.Context, now time.Time) ([]*domain.PendingUnpin, error) {
	var due []*domain.PendingUnpin
	r.pins.Range(func(ref domain.MessageRef, unpinAt time.Time) bool {
		p := &domain.PendingUnpin{Ref: ref, UnpinAt: unpinAt}
		if p.IsDue(now) {
			due = append(due, p)
		}
		return true
	})
	sort.Slice(due, func(i, j int) bool { return due[i].UnpinAt.Before(due[j].UnpinAt) })
	return due, nil
}

func (r *memoryPinRepo) Remove(ctx context.Context, ref domain.MessageRef) error {
	r.pins.Delete(ref)
	return nil
}

func (r *memoryPinRepo) Close() error {
	return nil
}
