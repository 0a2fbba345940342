package models

import (
	"strings"
	"time"

	"github.com/bookswapng/bookswap/errors"
)

// ConversationIDSeparator joins the two participant ids of a private chat.
// It must never appear inside a participant identifier.
const ConversationIDSeparator = ":"

type Conversation struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	Participants []User    `gorm:"many2many:conversation_participants;" json:"participants"`
	LastMessage  string    `json:"last_message"`
	UpdatedAt    time.Time `json:"updated_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// ConversationArchive hides a conversation from one participant's list. The
// other participant's view and the underlying log are untouched. Unarchiving
// deletes the row outright, so re-archiving never collides with a leftover.
type ConversationArchive struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ConversationID string    `gorm:"index:idx_archive_conv_user,unique" json:"conversation_id"`
	UserID         string    `gorm:"index:idx_archive_conv_user,unique" json:"user_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// CanonicalConversationID derives the one conversation id for an unordered
// pair of participants: the same pair always maps to the same id no matter
// who initiates. Pure, no side effects.
func CanonicalConversationID(a, b string) (string, error) {
	if a == "" || b == "" {
		return "", errors.NewValidationError("participant id must not be empty")
	}
	if strings.Contains(a, ConversationIDSeparator) || strings.Contains(b, ConversationIDSeparator) {
		return "", errors.NewValidationError("participant id must not contain " + ConversationIDSeparator)
	}
	if a == b {
		return "", errors.NewValidationError("a private conversation needs two distinct participants")
	}
	if b < a {
		a, b = b, a
	}
	return a + ConversationIDSeparator + b, nil
}

// ParticipantIDs splits a canonical private-conversation id back into its
// two participant ids.
func ParticipantIDs(conversationID string) []string {
	return strings.Split(conversationID, ConversationIDSeparator)
}

// HasParticipant reports whether userID is part of the conversation.
func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}

// OtherParticipant returns the counterparty of userID in a private chat.
func (c *Conversation) OtherParticipant(userID string) (User, bool) {
	for _, p := range c.Participants {
		if p.ID != userID {
			return p, true
		}
	}
	return User{}, false
}
