package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/scamdefender/sheriff/internal/biz/domain"
	"github.com/scamdefender/sheriff/internal/biz/repo"
)

func TestUnpinScheduler_UnpinsWhenDue(t *testing.T) {
	ctx := context.Background()
	pins := newMockPins()
	platform := &mockPlatform{}
	s := NewUnpinScheduler(pins, platform, time.Second, zap.NewNop())

	now := time.Unix(1_700_000_000, 0)
	s.now = func() time.Time { return now }

	ref := domain.MessageRef{ChannelID: "c", MessageID: "n1"}
	require.NoError(t, s.Schedule(ctx, ref, domain.WarningPinDuration))

	s.tick(ctx)
	assert.Empty(t, platform.unpinned)

	now = now.Add(domain.WarningPinDuration)
	s.tick(ctx)
	assert.Equal(t, []domain.MessageRef{ref}, platform.unpinned)
	assert.Equal(t, 0, pins.size())
}

func TestUnpinScheduler_FailuresAreDropped(t *testing.T) {
	for _, unpinErr := range []error{
		fmt.Errorf("%w: unknown message", repo.ErrNotFound),
		fmt.Errorf("gateway timeout"),
	} {
		ctx := context.Background()
		pins := newMockPins()
		platform := &mockPlatform{unpinErr: unpinErr}
		s := NewUnpinScheduler(pins, platform, time.Second, zap.NewNop())

		require.NoError(t, s.Schedule(ctx, domain.MessageRef{ChannelID: "c", MessageID: "n1"}, 0))
		s.tick(ctx)
		assert.Equal(t, 0, pins.size())
	}
}

func TestUnpinScheduler_StartHandlesOverdue(t *testing.T) {
	pins := newMockPins()
	platform := &mockPlatform{}
	ref := domain.MessageRef{ChannelID: "c", MessageID: "left-over"}
	require.NoError(t, pins.Add(context.Background(), &domain.PendingUnpin{Ref: ref, UnpinAt: time.Now().Add(-time.Minute)}))

	s := NewUnpinScheduler(pins, platform, time.Hour, zap.NewNop())
	s.Start(context.Background())
	defer s.Stop()

	assert.Eventually(t, func() bool { return pins.size() == 0 }, 2*time.Second, 10*time.Millisecond)
}
