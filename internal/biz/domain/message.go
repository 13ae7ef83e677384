package domain

import (
	"strings"
	"time"
)

// ChatType represents the chat type
type ChatType string

const (
	ChatTypeGroup  ChatType = "group"
	ChatTypeDirect ChatType = "direct"
)

// Attachment is a file attached to a message
type Attachment struct {
	ID          string // platform file key
	URL         string // download URL, empty when the platform needs an API call
	ContentType string
	Filename    string
}

// IsImage checks if the attachment is an image
func (a Attachment) IsImage() bool {
	return strings.HasPrefix(a.ContentType, "image/")
}

// Message represents an incoming chat message
type Message struct {
	ID          string
	ChannelID   string
	GuildID     string // empty for direct messages
	ChatType    ChatType
	AuthorID    string
	AuthorName  string // display name, subject to username checks
	AuthorIsBot bool
	Content     string
	Attachments []Attachment
	MentionsBot bool
	CreateTime  time.Time
}

// IsDirect checks if the message was sent in a direct-message channel
func (m *Message) IsDirect() bool {
	return m.ChatType == ChatTypeDirect
}

// HasText checks if the message carries non-blank text
func (m *Message) HasText() bool {
	return strings.TrimSpace(m.Content) != ""
}

// Images returns the image attachments
func (m *Message) Images() []Attachment {
	var images []Attachment
	for _, a := range m.Attachments {
		if a.IsImage() {
			images = append(images, a)
		}
	}
	return images
}

// Ref returns the platform reference of the message
func (m *Message) Ref() MessageRef {
	return MessageRef{ChannelID: m.ChannelID, MessageID: m.ID}
}

// Author returns the platform reference of the author
func (m *Message) Author() UserRef {
	return UserRef{GuildID: m.GuildID, UserID: m.AuthorID, Name: m.AuthorName}
}

// MessageRef identifies a message on the platform
type MessageRef struct {
	ChannelID string
	MessageID string
}

// UserRef identifies a user within a guild
type UserRef struct {
	GuildID string
	UserID  string
	Name    string
}

// PendingUnpin is a pinned notice waiting to be unpinned
type PendingUnpin struct {
	Ref     MessageRef
	UnpinAt time.Time
}

// IsDue checks if the unpin should run at t
func (p *PendingUnpin) IsDue(t time.Time) bool {
	return !p.UnpinAt.After(t)
}
