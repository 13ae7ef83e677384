package usecase

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"go.uber.org/zap"

	"github.com/scamdefender/sheriff/internal/biz/repo"
)

// Fixed persona lines
const (
	chatStatusFallback    = "Sorry, I'm having trouble thinking right now. Try again later, partner."
	chatTransportFallback = "Sorry partner, seems my telegraph line is down. Give me a moment to sort this out."

	// ImageDMReply answers images sent in direct messages
	ImageDMReply = "Nice picture there, partner! Sheriff's keeping an eye on things around here."
	// PermissionNotice is posted when the bot cannot delete messages in a channel
	PermissionNotice = "⚠️ I need 'Manage Messages' permission to moderate this channel. Please contact an admin."
)

// Commands
const (
	CommandPrefix = "!"
	CommandStart  = "start"
	CommandHelp   = "helpme"
)

var commandReplies = map[string][2]string{
	// {direct, group}
	CommandStart: {
		"Howdy, partner! Sheriff Terence Hill at your service. This town's peaceful when folks mind their manners. What can I do for you today?",
		"Howdy folks! Sheriff Terence Hill here, keeping this chat peaceful and friendly. I'll be keeping an eye out for any troublemakers.",
	},
	CommandHelp: {
		"Just chat with me like you would with any sheriff in town. I like keeping things easy and friendly. In servers, I keep the peace by making sure nobody causes trouble.",
		"In this town, I give folks three chances. Break the rules once, I'll warn you. Twice, I'll warn you again. Three times? That's when I have to ask you to leave town. Just keep it friendly, partner.",
	},
}

// ChatUsecase produces conversational persona replies
type ChatUsecase struct {
	backend repo.BackendRepo
	cfg     PersonaConfig
	logger  *zap.Logger
}

// NewChatUsecase creates a new chat usecase
func NewChatUsecase(backend repo.BackendRepo, cfg PersonaConfig, logger *zap.Logger) *ChatUsecase {
	return &ChatUsecase{
		backend: backend,
		cfg:     cfg,
		logger:  logger.Named("chat"),
	}
}

// Reply generates a persona reply. It never returns an empty string.
func (uc *ChatUsecase) Reply(ctx context.Context, text string) string {
	resp, err := uc.backend.Generate(ctx, repo.GenerateRequest{
		Model:  uc.cfg.TextModel,
		Prompt: fmt.Sprintf("System: %s\nUser: %s\nAssistant: ", uc.cfg.ChatPrompt, text),
	})
	if err != nil {
		uc.logger.Error("failed to generate chat response", zap.Error(err))
		var statusErr *repo.StatusError
		if errors.As(err, &statusErr) {
			return chatStatusFallback
		}
		return chatTransportFallback
	}

	resp = strings.TrimSpace(html.UnescapeString(resp))
	if resp == "" {
		return chatStatusFallback
	}
	return resp
}

// ParseCommand extracts the command name from a message. False means the message is not a command.
func ParseCommand(content string) (string, bool) {
	if !strings.HasPrefix(content, CommandPrefix) {
		return "", false
	}
	fields := strings.Fields(strings.TrimPrefix(content, CommandPrefix))
	if len(fields) == 0 {
		return "", true
	}
	return strings.ToLower(fields[0]), true
}

// CommandReply returns the fixed reply to a command, if it is known
func CommandReply(name string, direct bool) (string, bool) {
	replies, ok := commandReplies[name]
	if !ok {
		return "", false
	}
	if direct {
		return replies[0], true
	}
	return replies[1], true
}
