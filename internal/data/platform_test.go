package data

import (
	"errors"
	"net/http"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"

	"github.com/scamdefender/sheriff/internal/biz/repo"
	"github.com/scamdefender/sheriff/internal/infra/feishu"
)

func TestMapDiscordErr(t *testing.T) {
	forbidden := &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusForbidden}}
	assert.ErrorIs(t, mapDiscordErr(forbidden), repo.ErrForbidden)

	unknown := &discordgo.RESTError{
		Response: &http.Response{StatusCode: http.StatusNotFound},
		Message:  &discordgo.APIErrorMessage{Code: discordgo.ErrCodeUnknownMessage, Message: "Unknown Message"},
	}
	assert.ErrorIs(t, mapDiscordErr(unknown), repo.ErrNotFound)

	serverErr := &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusBadGateway}}
	err := mapDiscordErr(serverErr)
	assert.False(t, errors.Is(err, repo.ErrForbidden) || errors.Is(err, repo.ErrNotFound))

	plain := errors.New("websocket closed")
	assert.Equal(t, plain, mapDiscordErr(plain))
}

func TestMapFeishuErr(t *testing.T) {
	assert.ErrorIs(t, mapFeishuErr(&feishu.APIError{Op: "delete message", Code: 230027}), repo.ErrForbidden)
	assert.ErrorIs(t, mapFeishuErr(&feishu.APIError{Op: "delete message", Code: 230011}), repo.ErrNotFound)

	other := &feishu.APIError{Op: "send message", Code: 1}
	assert.Equal(t, error(other), mapFeishuErr(other))
}
