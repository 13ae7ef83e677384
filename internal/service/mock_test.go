package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/scamdefender/sheriff/internal/biz/domain"
)

// Mock implementations

type mockClassifier struct {
	text     map[string]domain.Verdict
	username map[string]domain.Verdict
	image    map[string]domain.Verdict // keyed by attachment ID

	mu    sync.Mutex
	calls []string
}

func (m *mockClassifier) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *mockClassifier) ClassifyText(ctx context.Context, text string) domain.Verdict {
	m.record("text")
	if v, ok := m.text[text]; ok {
		return v
	}
	return domain.SafeVerdict()
}

func (m *mockClassifier) ClassifyUsername(ctx context.Context, username string) domain.Verdict {
	m.record("username")
	if v, ok := m.username[username]; ok {
		return v
	}
	return domain.SafeVerdict()
}

func (m *mockClassifier) ClassifyImage(ctx context.Context, msg domain.MessageRef, att domain.Attachment) domain.Verdict {
	m.record("image:" + att.ID)
	if v, ok := m.image[att.ID]; ok {
		return v
	}
	return domain.SafeVerdict()
}

type composed struct {
	action   domain.ModerationAction
	username string
	reason   string
}

type mockComposer struct {
	mu    sync.Mutex
	calls []composed
}

func (m *mockComposer) Compose(ctx context.Context, action domain.ModerationAction, username, reason string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, composed{action, username, reason})
	return domain.BannerFor(action.Kind) + "\n\nnotice"
}

type mockChatter struct {
	prompts []string
}

func (m *mockChatter) Reply(ctx context.Context, text string) string {
	m.prompts = append(m.prompts, text)
	return "howdy"
}

type sent struct {
	channelID string
	text      string
}

type mockPlatform struct {
	mu sync.Mutex

	noPermission bool
	deleteErr    error
	banErr       error
	unpinErr     error

	deleted  []domain.MessageRef
	banned   []domain.UserRef
	reasons  []string
	sent     []sent
	replies  []string
	pinned   []domain.MessageRef
	unpinned []domain.MessageRef
	nextID   int
}

func (m *mockPlatform) DeleteMessage(ctx context.Context, ref domain.MessageRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, ref)
	return nil
}

func (m *mockPlatform) BanUser(ctx context.Context, user domain.UserRef, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.banErr != nil {
		return m.banErr
	}
	m.banned = append(m.banned, user)
	m.reasons = append(m.reasons, reason)
	return nil
}

func (m *mockPlatform) SendMessage(ctx context.Context, channelID, text string) (domain.MessageRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.sent = append(m.sent, sent{channelID, text})
	return domain.MessageRef{ChannelID: channelID, MessageID: fmt.Sprintf("notice-%d", m.nextID)}, nil
}

func (m *mockPlatform) Reply(ctx context.Context, to domain.MessageRef, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, text)
	return nil
}

func (m *mockPlatform) Pin(ctx context.Context, ref domain.MessageRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pinned = append(m.pinned, ref)
	return nil
}

func (m *mockPlatform) Unpin(ctx context.Context, ref domain.MessageRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unpinErr != nil {
		return m.unpinErr
	}
	m.unpinned = append(m.unpinned, ref)
	return nil
}

func (m *mockPlatform) HasManageMessagesPermission(ctx context.Context, channelID string) bool {
	return !m.noPermission
}

type mockLedger struct {
	mu     sync.Mutex
	counts map[string]int
}

func newMockLedger() *mockLedger {
	return &mockLedger{counts: make(map[string]int)}
}

func (m *mockLedger) Increment(ctx context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[userID]++
	return m.counts[userID], nil
}

func (m *mockLedger) Reset(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.counts, userID)
	return nil
}

func (m *mockLedger) Count(ctx context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[userID], nil
}

type scheduled struct {
	ref domain.MessageRef
	d   time.Duration
}

type mockScheduler struct {
	mu    sync.Mutex
	calls []scheduled
}

func (m *mockScheduler) Schedule(ctx context.Context, ref domain.MessageRef, d time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, scheduled{ref, d})
	return nil
}

type mockPins struct {
	mu      sync.Mutex
	pending map[domain.MessageRef]time.Time
}

func newMockPins() *mockPins {
	return &mockPins{pending: make(map[domain.MessageRef]time.Time)}
}

func (m *mockPins) Add(ctx context.Context, p *domain.PendingUnpin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending[p.Ref] = p.UnpinAt
	return nil
}

func (m *mockPins) Due(ctx context.Context, now time.Time) ([]*domain.PendingUnpin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var due []*domain.PendingUnpin
	for ref, at := range m.pending {
		if !at.After(now) {
			due = append(due, &domain.PendingUnpin{Ref: ref, UnpinAt: at})
		}
	}
	return due, nil
}

func (m *mockPins) Remove(ctx context.Context, ref domain.MessageRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pending, ref)
	return nil
}

func (m *mockPins) Close() error { return nil }

func (m *mockPins) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}
