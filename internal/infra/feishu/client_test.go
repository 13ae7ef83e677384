package feishu

import (
	"testing"

	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func strPtr(s string) *string { return &s }

func TestParseEvent_TextStripsBotMention(t *testing.T) {
	c := NewClient("app", "secret", zap.NewNop())
	c.botOpenID = "ou_bot"

	event := &larkim.P2MessageReceiveV1{
		Event: &larkim.P2MessageReceiveV1Data{
			Sender: &larkim.EventSender{
				SenderId:   &larkim.UserId{OpenId: strPtr("ou_user")},
				SenderType: strPtr("user"),
			},
			Message: &larkim.EventMessage{
				MessageId:   strPtr("om_1"),
				ChatId:      strPtr("oc_1"),
				ChatType:    strPtr("group"),
				MessageType: strPtr("text"),
				CreateTime:  strPtr("1700000000000"),
				Content:     strPtr(`{"text":"@_user_1 hello @_user_2"}`),
				Mentions: []*larkim.MentionEvent{
					{Key: strPtr("@_user_1"), Name: strPtr("Sheriff"), Id: &larkim.UserId{OpenId: strPtr("ou_bot")}},
					{Key: strPtr("@_user_2"), Name: strPtr("Ann"), Id: &larkim.UserId{OpenId: strPtr("ou_ann")}},
				},
			},
		},
	}

	msg := c.parseEvent(event)
	require.NotNil(t, msg)
	assert.True(t, msg.MentionsBot)
	assert.Equal(t, "hello @Ann", msg.Content)
	assert.Equal(t, "ou_user", msg.Sender.SenderID)
	assert.False(t, msg.Sender.IsBot())
	assert.Equal(t, int64(1700000000000), msg.CreateTime)
}

func TestParseEvent_UnsupportedType(t *testing.T) {
	c := NewClient("app", "secret", zap.NewNop())
	event := &larkim.P2MessageReceiveV1{
		Event: &larkim.P2MessageReceiveV1Data{
			Message: &larkim.EventMessage{
				MessageId:   strPtr("om_1"),
				MessageType: strPtr("sticker"),
				Content:     strPtr(`{}`),
			},
		},
	}
	assert.Nil(t, c.parseEvent(event))
}

func TestParsePostContent(t *testing.T) {
	content := `{"title":"Deal","content":[[{"tag":"text","text":"free "},{"tag":"at","user_id":"@_user_1"}],[{"tag":"img","image_key":"img_1"}]]}`
	text, keys := parsePostContent(content, map[string]string{"@_user_1": "Ann"})
	assert.Equal(t, "Deal\nfree @Ann", text)
	assert.Equal(t, []string{"img_1"}, keys)
}

func TestParseImageContent(t *testing.T) {
	assert.Equal(t, []string{"img_x"}, parseImageContent(`{"image_key":"img_x"}`))
	assert.Nil(t, parseImageContent(`{"image_key":""}`))
	assert.Nil(t, parseImageContent(`not json`))
}

func TestSenderIsBot(t *testing.T) {
	var nilSender *Sender
	assert.False(t, nilSender.IsBot())
	assert.True(t, (&Sender{SenderType: "app"}).IsBot())
}
