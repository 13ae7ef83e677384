package server

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/scamdefender/sheriff/internal/biz/domain"
	"github.com/scamdefender/sheriff/internal/infra/feishu"
)

const memberCacheTTL = 10 * time.Minute

// FeishuServer turns Feishu message events into dispatched messages
type FeishuServer struct {
	client     *feishu.Client
	dispatcher Dispatcher
	logger     *zap.Logger

	seen    *seenCache
	members *expirable.LRU[string, map[string]string] // chatID -> open_id -> name

	ctx      context.Context
	inflight inflight
}

// NewFeishuServer creates a new Feishu server
func NewFeishuServer(client *feishu.Client, dispatcher Dispatcher, logger *zap.Logger) *FeishuServer {
	return &FeishuServer{
		client:     client,
		dispatcher: dispatcher,
		logger:     logger.Named("server.feishu"),
		seen:       newSeenCache(seenTTL),
		members:    expirable.NewLRU[string, map[string]string](1000, nil, memberCacheTTL),
		ctx:        context.Background(),
	}
}

// Start connects to Feishu and blocks
func (s *FeishuServer) Start(ctx context.Context) error {
	s.ctx = ctx
	// The client already invokes the handler on its own goroutine per event
	s.client.OnMessage(s.handleMessage)
	return s.client.Start(ctx)
}

// Stop disconnects and waits for in-flight events
func (s *FeishuServer) Stop() {
	s.client.Stop()
	s.inflight.closeAndWait()
}

func (s *FeishuServer) handleMessage(msg *feishu.Message) {
	if !s.inflight.begin() {
		return
	}
	defer s.inflight.done()

	if !s.seen.firstSeen(msg.MsgID) {
		s.logger.Debug("duplicate message ignored", zap.String("msg_id", msg.MsgID))
		return
	}

	m := toDomainFeishu(msg)
	if !m.AuthorIsBot && m.AuthorID != "" && !m.IsDirect() {
		m.AuthorName = s.memberName(s.ctx, msg.ChatID, m.AuthorID)
	}
	s.dispatcher.Dispatch(s.ctx, m)
}

// memberName resolves a display name, falling back to the open_id
func (s *FeishuServer) memberName(ctx context.Context, chatID, openID string) string {
	names, ok := s.members.Get(chatID)
	if !ok || names[openID] == "" {
		members, err := s.client.GetChatMembers(ctx, chatID)
		if err != nil {
			s.logger.Warn("failed to get chat members", zap.String("chat_id", chatID), zap.Error(err))
			return openID
		}
		names = make(map[string]string, len(members))
		for _, member := range members {
			names[member.MemberID] = member.Name
		}
		s.members.Add(chatID, names)
	}
	if name := names[openID]; name != "" {
		return name
	}
	return openID
}

// toDomainFeishu converts a Feishu message. Chats act as both channel and guild.
func toDomainFeishu(msg *feishu.Message) *domain.Message {
	m := &domain.Message{
		ID:          msg.MsgID,
		ChannelID:   msg.ChatID,
		GuildID:     msg.ChatID,
		ChatType:    domain.ChatTypeGroup,
		Content:     msg.Content,
		MentionsBot: msg.MentionsBot,
		CreateTime:  time.UnixMilli(msg.CreateTime),
	}
	if msg.ChatType == "p2p" {
		m.ChatType = domain.ChatTypeDirect
	}
	if msg.Sender != nil {
		m.AuthorID = msg.Sender.SenderID
		m.AuthorName = msg.Sender.SenderID
		m.AuthorIsBot = msg.Sender.IsBot()
	}
	for _, key := range msg.ImageKeys {
		m.Attachments = append(m.Attachments, domain.Attachment{
			ID:          key,
			ContentType: "image/png",
			Filename:    key,
		})
	}
	return m
}
