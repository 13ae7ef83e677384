package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		count  int
		kind   ActionKind
		strike int
	}{
		{1, ActionWarn, 1},
		{2, ActionWarn, 2},
		{3, ActionBan, 3},
		{4, ActionBan, 3},
		{17, ActionBan, 3},
	}

	for _, tt := range tests {
		got := Decide(tt.count)
		assert.Equal(t, tt.kind, got.Kind, "count=%d", tt.count)
		assert.Equal(t, tt.strike, got.Strike, "count=%d", tt.count)
	}
}

func TestModerationAction_PinDuration(t *testing.T) {
	assert.Equal(t, 30*time.Second, Decide(1).PinDuration())
	assert.Equal(t, 30*time.Second, Decide(2).PinDuration())
	assert.Equal(t, 60*time.Second, Decide(3).PinDuration())
	assert.Equal(t, 30*time.Second, UsernameAction().PinDuration())
}

func TestBannerFor(t *testing.T) {
	assert.Equal(t, BannerDeleted, BannerFor(ActionWarn))
	assert.Equal(t, BannerDeleted, BannerFor(ActionDeleteUsername))
	assert.Equal(t, BannerRemoved, BannerFor(ActionBan))
}

func TestVerdict_WithReason(t *testing.T) {
	safe := SafeVerdict().WithReason("ignored")
	assert.True(t, safe.Safe)
	assert.Empty(t, safe.Reason)

	unsafe := FallbackVerdict("x").WithReason("Image may contain x")
	assert.False(t, unsafe.Safe)
	assert.Equal(t, "Image may contain x", unsafe.Reason)
	assert.Equal(t, VerdictFormatFallback, unsafe.Kind)
}

func TestMessage_Images(t *testing.T) {
	msg := &Message{
		Attachments: []Attachment{
			{ID: "a", ContentType: "image/png"},
			{ID: "b", ContentType: "application/pdf"},
			{ID: "c", ContentType: "image/jpeg"},
		},
	}

	images := msg.Images()
	if assert.Len(t, images, 2) {
		assert.Equal(t, "a", images[0].ID)
		assert.Equal(t, "c", images[1].ID)
	}
}

func TestPendingUnpin_IsDue(t *testing.T) {
	now := time.Now()
	p := &PendingUnpin{UnpinAt: now}
	assert.True(t, p.IsDue(now))
	assert.True(t, p.IsDue(now.Add(time.Second)))
	assert.False(t, p.IsDue(now.Add(-time.Second)))
}
