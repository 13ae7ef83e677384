package data

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/scamdefender/sheriff/internal/biz/domain"
	"github.com/scamdefender/sheriff/internal/biz/repo"
)

// DiscordRepo implements the platform and image repositories on a discordgo session
type DiscordRepo struct {
	session *discordgo.Session
	images  *URLImageRepo
	logger  *zap.Logger
}

// NewDiscordRepo creates the Discord platform adapter
func NewDiscordRepo(session *discordgo.Session, logger *zap.Logger) *DiscordRepo {
	return &DiscordRepo{
		session: session,
		images:  NewURLImageRepo(logger),
		logger:  logger.Named("discord"),
	}
}

func (r *DiscordRepo) DeleteMessage(ctx context.Context, ref domain.MessageRef) error {
	err := r.session.ChannelMessageDelete(ref.ChannelID, ref.MessageID, discordgo.WithContext(ctx))
	return r.wrap("delete_message", err)
}

func (r *DiscordRepo) BanUser(ctx context.Context, user domain.UserRef, reason string) error {
	err := r.session.GuildBanCreateWithReason(user.GuildID, user.UserID, reason, 0, discordgo.WithContext(ctx))
	return r.wrap("ban_user", err)
}

func (r *DiscordRepo) SendMessage(ctx context.Context, channelID, text string) (domain.MessageRef, error) {
	msg, err := r.session.ChannelMessageSend(channelID, text, discordgo.WithContext(ctx))
	if err != nil {
		return domain.MessageRef{}, r.wrap("send_message", err)
	}
	return domain.MessageRef{ChannelID: msg.ChannelID, MessageID: msg.ID}, nil
}

func (r *DiscordRepo) Reply(ctx context.Context, to domain.MessageRef, text string) error {
	_, err := r.session.ChannelMessageSendReply(to.ChannelID, text, &discordgo.MessageReference{
		MessageID: to.MessageID,
		ChannelID: to.ChannelID,
	}, discordgo.WithContext(ctx))
	return r.wrap("reply", err)
}

func (r *DiscordRepo) Pin(ctx context.Context, ref domain.MessageRef) error {
	return r.wrap("pin", r.session.ChannelMessagePin(ref.ChannelID, ref.MessageID, discordgo.WithContext(ctx)))
}

func (r *DiscordRepo) Unpin(ctx context.Context, ref domain.MessageRef) error {
	return r.wrap("unpin", r.session.ChannelMessageUnpin(ref.ChannelID, ref.MessageID, discordgo.WithContext(ctx)))
}

// HasManageMessagesPermission checks the bot's effective permissions from the state cache
func (r *DiscordRepo) HasManageMessagesPermission(ctx context.Context, channelID string) bool {
	if r.session.State == nil || r.session.State.User == nil {
		return false
	}
	perms, err := r.session.State.UserChannelPermissions(r.session.State.User.ID, channelID)
	if err != nil {
		// Not cached yet; ask the API
		perms, err = r.session.UserChannelPermissions(r.session.State.User.ID, channelID, discordgo.WithContext(ctx))
		if err != nil {
			r.logger.Warn("failed to resolve channel permissions", zap.String("channel_id", channelID), zap.Error(err))
			return false
		}
	}
	return perms&discordgo.PermissionManageMessages != 0
}

// FetchImage downloads an attachment from the Discord CDN
func (r *DiscordRepo) FetchImage(ctx context.Context, msg domain.MessageRef, att domain.Attachment) ([]byte, error) {
	return r.images.FetchImage(ctx, msg, att)
}

func (r *DiscordRepo) wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	platformErrors.WithLabelValues("discord", op).Inc()
	return mapDiscordErr(err)
}

// mapDiscordErr wraps REST failures in the repo sentinels
func mapDiscordErr(err error) error {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return err
	}
	if restErr.Message != nil && restErr.Message.Code == discordgo.ErrCodeUnknownMessage {
		return fmt.Errorf("%w: %v", repo.ErrNotFound, err)
	}
	if restErr.Response != nil {
		switch restErr.Response.StatusCode {
		case http.StatusForbidden:
			return fmt.Errorf("%w: %v", repo.ErrForbidden, err)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", repo.ErrNotFound, err)
		}
	}
	return err
}
