package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/scamdefender/sheriff/internal/biz/repo"
)

func TestChatReply(t *testing.T) {
	backend := &mockBackend{replies: []string{"Howdy &quot;partner&quot;"}}
	uc := NewChatUsecase(backend, testPersona, zap.NewNop())

	assert.Equal(t, `Howdy "partner"`, uc.Reply(context.Background(), "hi sheriff"))
	assert.Equal(t, "System: You are the sheriff.\nUser: hi sheriff\nAssistant: ", backend.requests[0].Prompt)
	assert.Nil(t, backend.requests[0].Temperature)
}

func TestChatReply_Fallbacks(t *testing.T) {
	uc := NewChatUsecase(&mockBackend{err: &repo.StatusError{Code: 500}}, testPersona, zap.NewNop())
	assert.Equal(t, chatStatusFallback, uc.Reply(context.Background(), "hi"))

	uc = NewChatUsecase(&mockBackend{err: errBackendDown}, testPersona, zap.NewNop())
	assert.Equal(t, chatTransportFallback, uc.Reply(context.Background(), "hi"))
}

func TestParseCommand(t *testing.T) {
	name, ok := ParseCommand("!start now")
	assert.True(t, ok)
	assert.Equal(t, "start", name)

	name, ok = ParseCommand("!HelpMe")
	assert.True(t, ok)
	assert.Equal(t, "helpme", name)

	name, ok = ParseCommand("!")
	assert.True(t, ok)
	assert.Empty(t, name)

	_, ok = ParseCommand("hello !start")
	assert.False(t, ok)
}

func TestCommandReply(t *testing.T) {
	direct, ok := CommandReply(CommandStart, true)
	assert.True(t, ok)
	assert.Contains(t, direct, "Howdy, partner!")

	group, ok := CommandReply(CommandHelp, false)
	assert.True(t, ok)
	assert.Contains(t, group, "three chances")

	_, ok = CommandReply("ban", false)
	assert.False(t, ok)
}
