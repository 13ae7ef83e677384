package server

import (
	"context"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/scamdefender/sheriff/internal/biz/domain"
)

// DiscordIntents are the gateway intents the bot needs
const DiscordIntents = discordgo.IntentGuildMessages | discordgo.IntentDirectMessages | discordgo.IntentMessageContent

// DiscordServer turns Discord gateway events into dispatched messages
type DiscordServer struct {
	session    *discordgo.Session
	dispatcher Dispatcher
	logger     *zap.Logger
	seen       *seenCache

	ctx      context.Context
	remove   func()
	inflight inflight
}

// NewDiscordServer creates a new Discord server
func NewDiscordServer(session *discordgo.Session, dispatcher Dispatcher, logger *zap.Logger) *DiscordServer {
	session.Identify.Intents = DiscordIntents
	return &DiscordServer{
		session:    session,
		dispatcher: dispatcher,
		logger:     logger.Named("server.discord"),
		seen:       newSeenCache(seenTTL),
		ctx:        context.Background(),
	}
}

// Start opens the gateway connection and blocks until ctx is done
func (s *DiscordServer) Start(ctx context.Context) error {
	s.ctx = ctx
	s.remove = s.session.AddHandler(s.onMessageCreate)
	s.session.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		s.logger.Info("logged in", zap.String("user", r.User.Username), zap.Int("guilds", len(r.Guilds)))
	})

	if err := s.session.Open(); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

// Stop closes the gateway and waits for in-flight events
func (s *DiscordServer) Stop() {
	if s.remove != nil {
		s.remove()
	}
	if err := s.session.Close(); err != nil {
		s.logger.Warn("failed to close session", zap.Error(err))
	}
	s.inflight.closeAndWait()
}

// onMessageCreate runs on its own goroutine per event (discordgo default)
func (s *DiscordServer) onMessageCreate(ses *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Message == nil || m.Author == nil {
		return
	}
	if !s.inflight.begin() {
		return
	}
	defer s.inflight.done()

	if !s.seen.firstSeen(m.ID) {
		return
	}

	botID := ""
	if ses.State != nil && ses.State.User != nil {
		botID = ses.State.User.ID
	}
	s.dispatcher.Dispatch(s.ctx, toDomainDiscord(m.Message, botID))
}

// displayName resolves the name shown in the guild: nickname, then global name, then handle
func displayName(m *discordgo.Message) string {
	if m.Member != nil && m.Member.Nick != "" {
		return m.Member.Nick
	}
	if m.Author.GlobalName != "" {
		return m.Author.GlobalName
	}
	return m.Author.Username
}

// toDomainDiscord converts a Discord message. Bot mentions are removed from the text.
func toDomainDiscord(m *discordgo.Message, botID string) *domain.Message {
	msg := &domain.Message{
		ID:          m.ID,
		ChannelID:   m.ChannelID,
		GuildID:     m.GuildID,
		ChatType:    domain.ChatTypeGroup,
		AuthorID:    m.Author.ID,
		AuthorName:  displayName(m),
		AuthorIsBot: m.Author.Bot || m.Author.ID == botID,
		Content:     m.Content,
		CreateTime:  m.Timestamp,
	}
	if m.GuildID == "" {
		msg.ChatType = domain.ChatTypeDirect
	}

	for _, u := range m.Mentions {
		if u != nil && botID != "" && u.ID == botID {
			msg.MentionsBot = true
		}
	}
	if msg.MentionsBot {
		content := strings.ReplaceAll(msg.Content, "<@"+botID+">", "")
		content = strings.ReplaceAll(content, "<@!"+botID+">", "")
		msg.Content = strings.TrimSpace(content)
	}

	for _, a := range m.Attachments {
		if a == nil {
			continue
		}
		msg.Attachments = append(msg.Attachments, domain.Attachment{
			ID:          a.ID,
			URL:         a.URL,
			ContentType: a.ContentType,
			Filename:    a.Filename,
		})
	}
	return msg
}
