package usecase

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/scamdefender/sheriff/internal/biz/domain"
	"github.com/scamdefender/sheriff/internal/biz/repo"
)

// PersonaConfig contains persona generation configuration
type PersonaConfig struct {
	TextModel  string
	ChatPrompt string
}

const noticeTemperature = 0.7

// hiddenUsername replaces the display name in username-violation notices
const hiddenUsername = "this user"

// NoticeUsecase composes persona-voiced moderation notices.
// Compose never fails: backend errors fall back to a fixed template.
type NoticeUsecase struct {
	backend repo.BackendRepo
	cfg     PersonaConfig
	logger  *zap.Logger
}

// NewNoticeUsecase creates a new notice usecase
func NewNoticeUsecase(backend repo.BackendRepo, cfg PersonaConfig, logger *zap.Logger) *NoticeUsecase {
	return &NoticeUsecase{
		backend: backend,
		cfg:     cfg,
		logger:  logger.Named("notice"),
	}
}

// Compose builds the notice text for an action
func (uc *NoticeUsecase) Compose(ctx context.Context, action domain.ModerationAction, username, reason string) string {
	prompt := fmt.Sprintf("System: %s\nUser: %s\n\nMake your response brief (max 2-3 sentences) and consistent with your character's speaking style. Always start with '%s' and maintain your persona. If this is a ban message, use '%s' instead.\nAssistant: ",
		uc.cfg.ChatPrompt, noticeInstruction(action, username, reason), domain.BannerDeleted, domain.BannerRemoved)

	text, err := uc.backend.Generate(ctx, repo.GenerateRequest{
		Model:       uc.cfg.TextModel,
		Prompt:      prompt,
		Temperature: repo.Temperature(noticeTemperature),
	})
	text = strings.TrimSpace(html.UnescapeString(text))
	if err != nil || text == "" {
		if err != nil {
			uc.logger.Error("failed to generate moderation message", zap.String("action", string(action.Kind)), zap.Error(err))
		}
		noticeFallbackCount.WithLabelValues(string(action.Kind)).Inc()
		text = fallbackNotice(action, username, reason)
	}

	text = withBanner(action.Kind, text)
	if action.Kind == domain.ActionDeleteUsername {
		text = hideUsername(text, username)
	}
	return text
}

// noticeInstruction describes the violation to the persona
func noticeInstruction(action domain.ModerationAction, username, reason string) string {
	switch action.Kind {
	case domain.ActionBan:
		return fmt.Sprintf("Generate a message announcing that user %s has been banned after repeatedly violating community rules. The final violation was: %s.", username, reason)
	case domain.ActionDeleteUsername:
		return fmt.Sprintf("Generate a message explaining that a message from a user was deleted because their username was inappropriate. The issue with the username was: %s. Don't mention the actual username.", reason)
	}

	if action.Strike >= 2 {
		return fmt.Sprintf("Generate a stern message for a user named %s whose message was deleted for violating community rules. This is their SECOND offense, one away from being banned. The violation was: %s. Make it clear this is strike two and one more will result in removal.", username, reason)
	}
	return fmt.Sprintf("Generate a message for a user named %s whose message was deleted for violating community rules. This is their first offense. The violation was: %s. Include a warning this is strike one.", username, reason)
}

// fallbackNotice is the deterministic notice used when generation fails
func fallbackNotice(action domain.ModerationAction, username, reason string) string {
	switch action.Kind {
	case domain.ActionBan:
		return fmt.Sprintf("%s\n\nUser %s has been banned after multiple violations. Final violation: %s", domain.BannerRemoved, username, reason)
	case domain.ActionDeleteUsername:
		return fmt.Sprintf("%s\n\nA message was removed due to inappropriate username. Reason: %s", domain.BannerDeleted, reason)
	default:
		return fmt.Sprintf("%s\n\nHey %s, your message was removed. Reason: %s. Strike %d/%d.", domain.BannerDeleted, username, reason, action.Strike, domain.BanThreshold)
	}
}

// withBanner prepends the action's banner when missing
func withBanner(kind domain.ActionKind, text string) string {
	banner := domain.BannerFor(kind)
	if strings.HasPrefix(text, banner) {
		return text
	}
	return banner + "\n\n" + text
}

// hideUsername scrubs the display name from a notice. Very short names are left alone
// since replacing them would mangle ordinary words.
func hideUsername(text, username string) string {
	username = strings.TrimSpace(username)
	if len([]rune(username)) < 3 {
		return text
	}
	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(username))
	return re.ReplaceAllLiteralString(text, hiddenUsername)
}
