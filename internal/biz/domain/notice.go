package domain

import "time"

// Notice banners
const (
	BannerDeleted = "🚨 MESSAGE DELETED 🚨"
	BannerRemoved = "🚫 USER REMOVED 🚫"
)

// Pin durations
const (
	WarningPinDuration = 30 * time.Second
	BanPinDuration     = 60 * time.Second
)

// Notice is a moderation announcement waiting to be sent and pinned
type Notice struct {
	Text      string
	ChannelID string
	PinFor    time.Duration
}

// NewNotice creates a notice for an action in a channel
func NewNotice(action ModerationAction, channelID, text string) *Notice {
	return &Notice{
		Text:      text,
		ChannelID: channelID,
		PinFor:    action.PinDuration(),
	}
}

// BannerFor returns the banner every notice of the given kind starts with
func BannerFor(kind ActionKind) string {
	if kind == ActionBan {
		return BannerRemoved
	}
	return BannerDeleted
}

// PinDurationFor returns the pin window of a notice kind
func PinDurationFor(kind ActionKind) time.Duration {
	if kind == ActionBan {
		return BanPinDuration
	}
	return WarningPinDuration
}
