package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/scamdefender/sheriff/internal/biz/domain"
	"github.com/scamdefender/sheriff/internal/biz/repo"
	"github.com/scamdefender/sheriff/internal/biz/usecase"
)

// logTextLimit bounds message text in logs
const logTextLimit = 30

// Classifier produces verdicts for message parts
type Classifier interface {
	ClassifyText(ctx context.Context, text string) domain.Verdict
	ClassifyUsername(ctx context.Context, username string) domain.Verdict
	ClassifyImage(ctx context.Context, msg domain.MessageRef, att domain.Attachment) domain.Verdict
}

// Composer writes moderation notices
type Composer interface {
	Compose(ctx context.Context, action domain.ModerationAction, username, reason string) string
}

// Chatter writes conversational replies
type Chatter interface {
	Reply(ctx context.Context, text string) string
}

// Scheduler defers unpinning of notices
type Scheduler interface {
	Schedule(ctx context.Context, ref domain.MessageRef, d time.Duration) error
}

// ModerationService routes incoming messages and enforces the warn, warn, ban policy
type ModerationService struct {
	classifier Classifier
	notices    Composer
	chat       Chatter
	platform   repo.PlatformRepo
	ledger     repo.LedgerRepo
	unpins     Scheduler
	logger     *zap.Logger
}

// NewModerationService creates a new moderation service
func NewModerationService(
	classifier Classifier,
	notices Composer,
	chat Chatter,
	platform repo.PlatformRepo,
	ledger repo.LedgerRepo,
	unpins Scheduler,
	logger *zap.Logger,
) *ModerationService {
	return &ModerationService{
		classifier: classifier,
		notices:    notices,
		chat:       chat,
		platform:   platform,
		ledger:     ledger,
		unpins:     unpins,
		logger:     logger.Named("moderation"),
	}
}

// Dispatch handles one incoming message. Bot messages are ignored, commands and
// conversation get replies, everything else in a group is moderated.
func (s *ModerationService) Dispatch(ctx context.Context, msg *domain.Message) {
	if msg.AuthorIsBot {
		return
	}

	if name, ok := usecase.ParseCommand(msg.Content); ok {
		routedCount.WithLabelValues("command").Inc()
		if reply, known := usecase.CommandReply(name, msg.IsDirect()); known {
			s.reply(ctx, msg, reply)
		}
		return
	}

	if msg.IsDirect() {
		routedCount.WithLabelValues("direct").Inc()
		switch {
		case msg.HasText():
			s.reply(ctx, msg, s.chat.Reply(ctx, msg.Content))
		case len(msg.Images()) > 0:
			s.reply(ctx, msg, usecase.ImageDMReply)
		}
		return
	}

	// The mention itself is stripped by the server; a bare mention is moderated
	if msg.MentionsBot && msg.HasText() {
		routedCount.WithLabelValues("mention").Inc()
		s.reply(ctx, msg, s.chat.Reply(ctx, msg.Content))
		return
	}

	routedCount.WithLabelValues("moderate").Inc()
	s.Moderate(ctx, msg)
}

// Moderate runs text, image and username checks in order and acts on the first unsafe verdict
func (s *ModerationService) Moderate(ctx context.Context, msg *domain.Message) {
	images := msg.Images()
	if !msg.HasText() && len(images) == 0 {
		return
	}

	if msg.HasText() {
		if v := s.classifier.ClassifyText(ctx, msg.Content); !v.Safe {
			s.logger.Info("unsafe content",
				zap.String("user", msg.AuthorName),
				zap.String("text", truncate(msg.Content, logTextLimit)),
				zap.String("reason", v.Reason))
			s.handleViolation(ctx, msg, v.Reason)
			return
		}
	}

	for _, att := range images {
		if v := s.classifier.ClassifyImage(ctx, msg.Ref(), att); !v.Safe {
			s.logger.Info("unsafe image",
				zap.String("user", msg.AuthorName),
				zap.String("filename", att.Filename),
				zap.String("reason", v.Reason))
			s.handleViolation(ctx, msg, v.Reason)
			return
		}
	}

	if v := s.classifier.ClassifyUsername(ctx, msg.AuthorName); !v.Safe {
		s.logger.Info("unsafe username", zap.String("user", msg.AuthorName), zap.String("reason", v.Reason))
		s.handleUsernameViolation(ctx, msg, v.Reason)
	}
}

// handleViolation deletes the message, records the offense and escalates
func (s *ModerationService) handleViolation(ctx context.Context, msg *domain.Message, reason string) {
	if !s.platform.HasManageMessagesPermission(ctx, msg.ChannelID) {
		abortCount.WithLabelValues("permission").Inc()
		s.logger.Warn("missing manage messages permission", zap.String("channel_id", msg.ChannelID))
		if _, err := s.platform.SendMessage(ctx, msg.ChannelID, usecase.PermissionNotice); err != nil {
			s.logger.Error("failed to send permission notice", zap.Error(err))
		}
		return
	}

	if err := s.platform.DeleteMessage(ctx, msg.Ref()); err != nil {
		abortCount.WithLabelValues("delete").Inc()
		s.logDeleteFailure(msg, err)
		return
	}

	count, err := s.ledger.Increment(ctx, msg.AuthorID)
	if err != nil {
		abortCount.WithLabelValues("ledger").Inc()
		s.logger.Error("failed to record offense", zap.String("user_id", msg.AuthorID), zap.Error(err))
		return
	}

	action := domain.Decide(count)
	if action.IsBan() {
		s.ban(ctx, msg, action, reason)
		return
	}

	actionCount.WithLabelValues(string(action.Kind)).Inc()
	s.logger.Info("user warned", zap.String("user", msg.AuthorName), zap.Int("strike", action.Strike))
	text := s.notices.Compose(ctx, action, msg.AuthorName, reason)
	s.postNotice(ctx, domain.NewNotice(action, msg.ChannelID, text))
}

// ban removes the user, clears their record and announces it. A failed ban is
// not announced and leaves the count in place.
func (s *ModerationService) ban(ctx context.Context, msg *domain.Message, action domain.ModerationAction, reason string) {
	banReason := fmt.Sprintf("Automated ban after %d offenses. Final offense: %s", domain.BanThreshold, reason)
	if err := s.platform.BanUser(ctx, msg.Author(), banReason); err != nil {
		abortCount.WithLabelValues("ban").Inc()
		s.logger.Error("failed to ban user", zap.String("user", msg.AuthorName), zap.String("user_id", msg.AuthorID), zap.Error(err))
		return
	}

	if err := s.ledger.Reset(ctx, msg.AuthorID); err != nil {
		s.logger.Error("failed to reset offenses", zap.String("user_id", msg.AuthorID), zap.Error(err))
	}

	actionCount.WithLabelValues(string(action.Kind)).Inc()
	s.logger.Info("user banned", zap.String("user", msg.AuthorName), zap.String("reason", reason))
	text := s.notices.Compose(ctx, action, msg.AuthorName, reason)
	s.postNotice(ctx, domain.NewNotice(action, msg.ChannelID, text))
}

// handleUsernameViolation removes the message without touching the ledger
func (s *ModerationService) handleUsernameViolation(ctx context.Context, msg *domain.Message, reason string) {
	if err := s.platform.DeleteMessage(ctx, msg.Ref()); err != nil && !errors.Is(err, repo.ErrNotFound) {
		abortCount.WithLabelValues("delete").Inc()
		s.logDeleteFailure(msg, err)
		return
	}

	action := domain.UsernameAction()
	actionCount.WithLabelValues(string(action.Kind)).Inc()
	text := s.notices.Compose(ctx, action, msg.AuthorName, reason)
	s.postNotice(ctx, domain.NewNotice(action, msg.ChannelID, text))
}

// postNotice sends, pins and schedules the unpin of a notice
func (s *ModerationService) postNotice(ctx context.Context, notice *domain.Notice) {
	ref, err := s.platform.SendMessage(ctx, notice.ChannelID, notice.Text)
	if err != nil {
		s.logger.Error("failed to send notice", zap.String("channel_id", notice.ChannelID), zap.Error(err))
		return
	}

	if err := s.platform.Pin(ctx, ref); err != nil {
		s.logger.Warn("failed to pin notice", zap.String("message_id", ref.MessageID), zap.Error(err))
		return
	}

	if err := s.unpins.Schedule(ctx, ref, notice.PinFor); err != nil {
		s.logger.Warn("failed to schedule unpin", zap.String("message_id", ref.MessageID), zap.Error(err))
	}
}

func (s *ModerationService) reply(ctx context.Context, msg *domain.Message, text string) {
	if err := s.platform.Reply(ctx, msg.Ref(), text); err != nil {
		s.logger.Error("failed to reply", zap.String("channel_id", msg.ChannelID), zap.Error(err))
	}
}

func (s *ModerationService) logDeleteFailure(msg *domain.Message, err error) {
	fields := []zap.Field{zap.String("message_id", msg.ID), zap.String("channel_id", msg.ChannelID), zap.Error(err)}
	switch {
	case errors.Is(err, repo.ErrNotFound):
		s.logger.Info("message already deleted", fields...)
	case errors.Is(err, repo.ErrForbidden):
		s.logger.Warn("not allowed to delete message", fields...)
	default:
		s.logger.Error("failed to delete message", fields...)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
