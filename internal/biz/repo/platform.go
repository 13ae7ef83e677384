package repo

import (
	"context"
	"errors"

	"github.com/scamdefender/sheriff/internal/biz/domain"
)

// Platform errors. Implementations wrap them so callers can use errors.Is.
var (
	ErrForbidden = errors.New("forbidden")
	ErrNotFound  = errors.New("not found")
)

// PlatformRepo is the chat platform capability interface
type PlatformRepo interface {
	// DeleteMessage deletes a message. Returns ErrForbidden or ErrNotFound (wrapped) on those failures.
	DeleteMessage(ctx context.Context, ref domain.MessageRef) error

	// BanUser bans (or removes) a user from the guild
	BanUser(ctx context.Context, user domain.UserRef, reason string) error

	// SendMessage sends a text message and returns its reference
	SendMessage(ctx context.Context, channelID, text string) (domain.MessageRef, error)

	// Reply sends a text message as a reply to another message
	Reply(ctx context.Context, to domain.MessageRef, text string) error

	// Pin pins a message
	Pin(ctx context.Context, ref domain.MessageRef) error

	// Unpin unpins a message
	Unpin(ctx context.Context, ref domain.MessageRef) error

	// HasManageMessagesPermission checks if the bot may delete other users' messages in a channel
	HasManageMessagesPermission(ctx context.Context, channelID string) bool
}

// ImageRepo downloads image attachments
type ImageRepo interface {
	FetchImage(ctx context.Context, msg domain.MessageRef, att domain.Attachment) ([]byte, error)
}
