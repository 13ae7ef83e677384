package data

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/scamdefender/sheriff/internal/biz/domain"
	"github.com/scamdefender/sheriff/internal/biz/repo"
	"github.com/scamdefender/sheriff/internal/infra/feishu"
)

// Open API codes that map onto the repo sentinels
var (
	feishuForbiddenCodes = map[int]bool{
		230027:   true, // lack of necessary permissions
		231002:   true, // operator is not group owner or admin
		99991672: true, // app scope not granted
	}
	feishuNotFoundCodes = map[int]bool{
		230011: true, // message recalled
		231003: true, // message not found
		232010: true, // pin not found
	}
)

// FeishuRepo implements the platform and image repositories on the Feishu client.
// Channels are chats and a ban removes the member from the chat.
type FeishuRepo struct {
	client *feishu.Client
	logger *zap.Logger
}

// NewFeishuRepo creates the Feishu platform adapter
func NewFeishuRepo(client *feishu.Client, logger *zap.Logger) *FeishuRepo {
	return &FeishuRepo{client: client, logger: logger.Named("feishu")}
}

func (r *FeishuRepo) DeleteMessage(ctx context.Context, ref domain.MessageRef) error {
	return r.wrap("delete_message", r.client.DeleteMessage(ctx, ref.MessageID))
}

func (r *FeishuRepo) BanUser(ctx context.Context, user domain.UserRef, reason string) error {
	r.logger.Info("removing member", zap.String("chat_id", user.GuildID), zap.String("user_id", user.UserID), zap.String("reason", reason))
	return r.wrap("ban_user", r.client.RemoveMember(ctx, user.GuildID, user.UserID))
}

func (r *FeishuRepo) SendMessage(ctx context.Context, channelID, text string) (domain.MessageRef, error) {
	msgID, err := r.client.SendText(ctx, channelID, text)
	if err != nil {
		return domain.MessageRef{}, r.wrap("send_message", err)
	}
	return domain.MessageRef{ChannelID: channelID, MessageID: msgID}, nil
}

func (r *FeishuRepo) Reply(ctx context.Context, to domain.MessageRef, text string) error {
	return r.wrap("reply", r.client.ReplyText(ctx, to.MessageID, text))
}

func (r *FeishuRepo) Pin(ctx context.Context, ref domain.MessageRef) error {
	return r.wrap("pin", r.client.PinMessage(ctx, ref.MessageID))
}

func (r *FeishuRepo) Unpin(ctx context.Context, ref domain.MessageRef) error {
	return r.wrap("unpin", r.client.UnpinMessage(ctx, ref.MessageID))
}

// HasManageMessagesPermission reports whether the bot owns the chat, the only
// role that may recall other members' messages
func (r *FeishuRepo) HasManageMessagesPermission(ctx context.Context, channelID string) bool {
	botID := r.client.BotOpenID()
	if botID == "" {
		return false
	}
	info, err := r.client.GetChatInfo(ctx, channelID)
	if err != nil {
		r.logger.Warn("failed to get chat info", zap.String("chat_id", channelID), zap.Error(err))
		return false
	}
	return info.OwnerID == botID
}

// FetchImage downloads an image resource; the attachment ID is the image key
func (r *FeishuRepo) FetchImage(ctx context.Context, msg domain.MessageRef, att domain.Attachment) ([]byte, error) {
	data, err := r.client.DownloadImage(ctx, msg.MessageID, att.ID)
	if err != nil {
		return nil, r.wrap("fetch_image", err)
	}
	return data, nil
}

func (r *FeishuRepo) wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	platformErrors.WithLabelValues("feishu", op).Inc()
	return mapFeishuErr(err)
}

// mapFeishuErr wraps Open API failures in the repo sentinels
func mapFeishuErr(err error) error {
	var apiErr *feishu.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch {
	case feishuForbiddenCodes[apiErr.Code]:
		return fmt.Errorf("%w: %v", repo.ErrForbidden, err)
	case feishuNotFoundCodes[apiErr.Code]:
		return fmt.Errorf("%w: %v", repo.ErrNotFound, err)
	}
	return err
}
