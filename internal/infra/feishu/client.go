package feishu

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	"github.com/larksuite/oapi-sdk-go/v3/event/dispatcher"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	larkws "github.com/larksuite/oapi-sdk-go/v3/ws"
	"go.uber.org/zap"
)

const openAPIBase = "https://open.feishu.cn/open-apis"

// Message represents a received Feishu message
type Message struct {
	ChatID      string
	MsgID       string
	MsgType     string            // text, image, post
	ChatType    string            // p2p (private), group
	Content     string            // Text content with mention placeholders resolved
	ImageKeys   []string          // Image keys for downloading
	Sender      *Sender           // Message sender info
	MentionMap  map[string]string // Map from mention key (@_user_1) to real name
	MentionsBot bool              // True if the bot was mentioned
	CreateTime  int64             // Milliseconds Unix timestamp
}

// Sender represents the message sender
type Sender struct {
	SenderID   string // open_id
	SenderType string // user, app
	TenantKey  string
}

// IsBot reports whether the message was sent by an app
func (s *Sender) IsBot() bool {
	return s != nil && (s.SenderType == "app" || s.SenderType == "bot")
}

// ChatMember represents a member in a chat
type ChatMember struct {
	MemberID string `json:"member_id"`
	Name     string `json:"name"`
}

// ChatInfo represents information about a chat
type ChatInfo struct {
	ChatID   string `json:"chat_id"`
	Name     string `json:"name"`
	ChatMode string `json:"chat_mode"`
	OwnerID  string `json:"owner_id"`
}

// APIError is a non-zero code returned by the Open API
type APIError struct {
	Op   string
	Code int
	Msg  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s error %d: %s", e.Op, e.Code, e.Msg)
}

// MessageHandler is the callback for received messages
type MessageHandler func(msg *Message)

// Client is the Feishu API client
type Client struct {
	appID     string
	appSecret string
	larkCli   *lark.Client
	httpCli   *retryablehttp.Client
	onMessage MessageHandler
	botOpenID string
	cancel    context.CancelFunc
	logger    *zap.Logger
}

// NewClient creates a new Feishu client
func NewClient(appID, appSecret string, logger *zap.Logger) *Client {
	httpCli := retryablehttp.NewClient()
	httpCli.RetryMax = 2
	httpCli.Logger = nil

	return &Client{
		appID:     appID,
		appSecret: appSecret,
		larkCli:   lark.NewClient(appID, appSecret),
		httpCli:   httpCli,
		logger:    logger.Named("feishu"),
	}
}

// OnMessage sets the message handler
func (c *Client) OnMessage(handler MessageHandler) {
	c.onMessage = handler
}

// BotOpenID returns the bot's own open_id, empty until Start has fetched it
func (c *Client) BotOpenID() string {
	return c.botOpenID
}

// Start connects to Feishu via WebSocket and blocks until ctx is done
func (c *Client) Start(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)

	if err := c.fetchBotOpenID(ctx); err != nil {
		c.logger.Warn("failed to fetch bot open_id", zap.Error(err))
	}

	// The handler must return quickly so the SDK can ACK, otherwise Feishu redelivers
	eventHandler := dispatcher.NewEventDispatcher("", "").
		OnP2MessageReceiveV1(func(_ context.Context, event *larkim.P2MessageReceiveV1) error {
			go c.handleMessage(event)
			return nil
		})

	wsCli := larkws.NewClient(c.appID, c.appSecret,
		larkws.WithEventHandler(eventHandler),
		larkws.WithLogLevel(larkcore.LogLevelInfo),
	)

	c.logger.Info("starting websocket connection")
	return wsCli.Start(ctx)
}

// Stop disconnects from Feishu
func (c *Client) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
}

// fetchBotOpenID fetches the bot's own open_id for mention detection and owner checks
func (c *Client) fetchBotOpenID(ctx context.Context) error {
	tokenBody, _ := json.Marshal(map[string]string{"app_id": c.appID, "app_secret": c.appSecret})
	tokenReq, err := retryablehttp.NewRequestWithContext(ctx, "POST", openAPIBase+"/auth/v3/tenant_access_token/internal", tokenBody)
	if err != nil {
		return err
	}
	tokenReq.Header.Set("Content-Type", "application/json")

	var tokenResult struct {
		Code              int    `json:"code"`
		Msg               string `json:"msg"`
		TenantAccessToken string `json:"tenant_access_token"`
	}
	if err := c.doJSON(tokenReq, &tokenResult); err != nil {
		return fmt.Errorf("get token: %w", err)
	}
	if tokenResult.Code != 0 {
		return &APIError{Op: "get token", Code: tokenResult.Code, Msg: tokenResult.Msg}
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, "GET", openAPIBase+"/bot/v3/info", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+tokenResult.TenantAccessToken)

	var botResult struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
		Bot  struct {
			OpenID  string `json:"open_id"`
			AppName string `json:"app_name"`
		} `json:"bot"`
	}
	if err := c.doJSON(req, &botResult); err != nil {
		return fmt.Errorf("get bot info: %w", err)
	}
	if botResult.Code != 0 {
		return &APIError{Op: "get bot info", Code: botResult.Code, Msg: botResult.Msg}
	}

	c.botOpenID = botResult.Bot.OpenID
	c.logger.Info("bot identity resolved", zap.String("open_id", c.botOpenID), zap.String("name", botResult.Bot.AppName))
	return nil
}

func (c *Client) doJSON(req *retryablehttp.Request, out any) error {
	resp, err := c.httpCli.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(out)
}

// handleMessage converts a receive event and hands it to the handler
func (c *Client) handleMessage(event *larkim.P2MessageReceiveV1) {
	if event == nil || event.Event == nil || event.Event.Message == nil {
		return
	}
	msg := c.parseEvent(event)
	if msg == nil {
		return
	}

	c.logger.Debug("message received",
		zap.String("type", msg.MsgType),
		zap.String("chat_type", msg.ChatType),
		zap.String("chat_id", msg.ChatID),
		zap.String("msg_id", msg.MsgID),
	)

	if c.onMessage != nil {
		c.onMessage(msg)
	}
}

// parseEvent extracts a Message from an event. Unsupported message types yield nil.
func (c *Client) parseEvent(event *larkim.P2MessageReceiveV1) *Message {
	rawMsg := event.Event.Message
	msg := &Message{
		ChatID:     deref(rawMsg.ChatId),
		MsgID:      deref(rawMsg.MessageId),
		MsgType:    deref(rawMsg.MessageType),
		ChatType:   deref(rawMsg.ChatType),
		MentionMap: make(map[string]string),
	}

	if ts, err := strconv.ParseInt(deref(rawMsg.CreateTime), 10, 64); err == nil {
		msg.CreateTime = ts
	}

	if s := event.Event.Sender; s != nil {
		msg.Sender = &Sender{
			SenderType: deref(s.SenderType),
			TenantKey:  deref(s.TenantKey),
		}
		if s.SenderId != nil {
			msg.Sender.SenderID = deref(s.SenderId.OpenId)
		}
	}

	var stripKeys []string
	for _, mention := range rawMsg.Mentions {
		if mention == nil {
			continue
		}
		key := deref(mention.Key)
		if mention.Id != nil && c.botOpenID != "" && deref(mention.Id.OpenId) == c.botOpenID {
			msg.MentionsBot = true
			stripKeys = append(stripKeys, key)
			continue
		}
		if key != "" && mention.Name != nil {
			msg.MentionMap[key] = *mention.Name
		}
	}

	content := deref(rawMsg.Content)
	switch msg.MsgType {
	case "text":
		msg.Content = parseTextContent(content, msg.MentionMap)
	case "image":
		msg.ImageKeys = parseImageContent(content)
	case "post":
		msg.Content, msg.ImageKeys = parsePostContent(content, msg.MentionMap)
	default:
		c.logger.Debug("unsupported message type", zap.String("type", msg.MsgType))
		return nil
	}

	// Bot mentions are stripped so the remainder reads as plain text
	for _, key := range stripKeys {
		if key != "" {
			msg.Content = strings.ReplaceAll(msg.Content, key, "")
		}
	}
	msg.Content = strings.TrimSpace(msg.Content)
	return msg
}

// parseTextContent extracts text from a text message
func parseTextContent(content string, mentionMap map[string]string) string {
	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return ""
	}
	return replaceMentions(parsed.Text, mentionMap)
}

// parseImageContent extracts the image key from an image message
func parseImageContent(content string) []string {
	var parsed struct {
		ImageKey string `json:"image_key"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil || parsed.ImageKey == "" {
		return nil
	}
	return []string{parsed.ImageKey}
}

// parsePostContent extracts text and images from a rich text message
func parsePostContent(content string, mentionMap map[string]string) (string, []string) {
	var parsed struct {
		Title   string `json:"title"`
		Content [][]struct {
			Tag      string `json:"tag"`
			Text     string `json:"text,omitempty"`
			ImageKey string `json:"image_key,omitempty"`
			UserID   string `json:"user_id,omitempty"`
		} `json:"content"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return "", nil
	}

	var lines []string
	var imageKeys []string
	if parsed.Title != "" {
		lines = append(lines, parsed.Title)
	}

	for _, line := range parsed.Content {
		var b strings.Builder
		for _, elem := range line {
			switch elem.Tag {
			case "text":
				b.WriteString(elem.Text)
			case "at":
				if name, ok := mentionMap[elem.UserID]; ok {
					b.WriteString("@" + name)
				}
			case "img":
				if elem.ImageKey != "" {
					imageKeys = append(imageKeys, elem.ImageKey)
				}
			}
		}
		if b.Len() > 0 {
			lines = append(lines, b.String())
		}
	}

	return replaceMentions(strings.Join(lines, "\n"), mentionMap), imageKeys
}

// replaceMentions replaces mention placeholders (@_user_1) with real names
func replaceMentions(text string, mentionMap map[string]string) string {
	for key, name := range mentionMap {
		text = strings.ReplaceAll(text, key, "@"+name)
	}
	return text
}

// DownloadImage downloads an image resource attached to a message
func (c *Client) DownloadImage(ctx context.Context, messageID, imageKey string) ([]byte, error) {
	req := larkim.NewGetMessageResourceReqBuilder().
		MessageId(messageID).
		FileKey(imageKey).
		Type("image").
		Build()

	resp, err := c.larkCli.Im.MessageResource.Get(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("get image failed: %w", err)
	}
	if !resp.Success() {
		return nil, &APIError{Op: "get image", Code: resp.Code, Msg: resp.Msg}
	}
	return io.ReadAll(resp.File)
}

func textContent(text string) string {
	contentJSON, _ := json.Marshal(map[string]string{"text": text})
	return string(contentJSON)
}

// SendText sends a text message to a chat and returns the new message ID
func (c *Client) SendText(ctx context.Context, chatID, text string) (string, error) {
	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(larkim.ReceiveIdTypeChatId).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(chatID).
			MsgType(larkim.MsgTypeText).
			Content(textContent(text)).
			Build()).
		Build()

	resp, err := c.larkCli.Im.Message.Create(ctx, req)
	if err != nil {
		return "", fmt.Errorf("send message failed: %w", err)
	}
	if !resp.Success() {
		return "", &APIError{Op: "send message", Code: resp.Code, Msg: resp.Msg}
	}
	if resp.Data == nil {
		return "", nil
	}
	return deref(resp.Data.MessageId), nil
}

// ReplyText replies to a message in its thread
func (c *Client) ReplyText(ctx context.Context, messageID, text string) error {
	req := larkim.NewReplyMessageReqBuilder().
		MessageId(messageID).
		Body(larkim.NewReplyMessageReqBodyBuilder().
			MsgType(larkim.MsgTypeText).
			Content(textContent(text)).
			Build()).
		Build()

	resp, err := c.larkCli.Im.Message.Reply(ctx, req)
	if err != nil {
		return fmt.Errorf("reply message failed: %w", err)
	}
	if !resp.Success() {
		return &APIError{Op: "reply message", Code: resp.Code, Msg: resp.Msg}
	}
	return nil
}

// DeleteMessage recalls a message
func (c *Client) DeleteMessage(ctx context.Context, messageID string) error {
	req := larkim.NewDeleteMessageReqBuilder().
		MessageId(messageID).
		Build()

	resp, err := c.larkCli.Im.Message.Delete(ctx, req)
	if err != nil {
		return fmt.Errorf("delete message failed: %w", err)
	}
	if !resp.Success() {
		return &APIError{Op: "delete message", Code: resp.Code, Msg: resp.Msg}
	}
	return nil
}

// PinMessage pins a message in its chat
func (c *Client) PinMessage(ctx context.Context, messageID string) error {
	req := larkim.NewCreatePinReqBuilder().
		Body(larkim.NewCreatePinReqBodyBuilder().
			MessageId(messageID).
			Build()).
		Build()

	resp, err := c.larkCli.Im.Pin.Create(ctx, req)
	if err != nil {
		return fmt.Errorf("pin message failed: %w", err)
	}
	if !resp.Success() {
		return &APIError{Op: "pin message", Code: resp.Code, Msg: resp.Msg}
	}
	return nil
}

// UnpinMessage removes a pin
func (c *Client) UnpinMessage(ctx context.Context, messageID string) error {
	req := larkim.NewDeletePinReqBuilder().
		MessageId(messageID).
		Build()

	resp, err := c.larkCli.Im.Pin.Delete(ctx, req)
	if err != nil {
		return fmt.Errorf("unpin message failed: %w", err)
	}
	if !resp.Success() {
		return &APIError{Op: "unpin message", Code: resp.Code, Msg: resp.Msg}
	}
	return nil
}

// RemoveMember removes a user from a group chat
func (c *Client) RemoveMember(ctx context.Context, chatID, openID string) error {
	req := larkim.NewDeleteChatMembersReqBuilder().
		ChatId(chatID).
		MemberIdType("open_id").
		Body(larkim.NewDeleteChatMembersReqBodyBuilder().
			IdList([]string{openID}).
			Build()).
		Build()

	resp, err := c.larkCli.Im.ChatMembers.Delete(ctx, req)
	if err != nil {
		return fmt.Errorf("remove member failed: %w", err)
	}
	if !resp.Success() {
		return &APIError{Op: "remove member", Code: resp.Code, Msg: resp.Msg}
	}
	return nil
}

// GetChatMembers retrieves all members of a group chat
func (c *Client) GetChatMembers(ctx context.Context, chatID string) ([]*ChatMember, error) {
	var members []*ChatMember
	var pageToken string

	for {
		reqBuilder := larkim.NewGetChatMembersReqBuilder().
			MemberIdType("open_id").
			ChatId(chatID).
			PageSize(100)
		if pageToken != "" {
			reqBuilder = reqBuilder.PageToken(pageToken)
		}

		resp, err := c.larkCli.Im.ChatMembers.Get(ctx, reqBuilder.Build())
		if err != nil {
			return nil, fmt.Errorf("get chat members failed: %w", err)
		}
		if !resp.Success() {
			return nil, &APIError{Op: "get chat members", Code: resp.Code, Msg: resp.Msg}
		}

		for _, item := range resp.Data.Items {
			members = append(members, &ChatMember{
				MemberID: deref(item.MemberId),
				Name:     deref(item.Name),
			})
		}

		if resp.Data.PageToken == nil || *resp.Data.PageToken == "" {
			break
		}
		pageToken = *resp.Data.PageToken
	}

	return members, nil
}

// GetChatInfo retrieves information about a chat
func (c *Client) GetChatInfo(ctx context.Context, chatID string) (*ChatInfo, error) {
	req := larkim.NewGetChatReqBuilder().
		ChatId(chatID).
		UserIdType("open_id").
		Build()

	resp, err := c.larkCli.Im.Chat.Get(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("get chat info failed: %w", err)
	}
	if !resp.Success() {
		return nil, &APIError{Op: "get chat info", Code: resp.Code, Msg: resp.Msg}
	}

	return &ChatInfo{
		ChatID:   chatID,
		Name:     deref(resp.Data.Name),
		ChatMode: deref(resp.Data.ChatMode),
		OwnerID:  deref(resp.Data.OwnerId),
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
