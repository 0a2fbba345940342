package models

import (
	"time"

	"github.com/google/uuid"
)

// MessageStatus is the per-message delivery marker. It only ever moves
// forward: sending -> sent -> delivered -> read.
type MessageStatus string

const (
	MessageSending   MessageStatus = "sending"
	MessageSent      MessageStatus = "sent"
	MessageDelivered MessageStatus = "delivered"
	MessageRead      MessageStatus = "read"
)

var messageStatusRank = map[MessageStatus]int{
	MessageSending:   0,
	MessageSent:      1,
	MessageDelivered: 2,
	MessageRead:      3,
}

// Rank returns the position of the status in the delivery lifecycle, or -1
// for an unknown status.
func (s MessageStatus) Rank() int {
	rank, ok := messageStatusRank[s]
	if !ok {
		return -1
	}
	return rank
}

// AtOrPast reports whether s has already reached target.
func (s MessageStatus) AtOrPast(target MessageStatus) bool {
	return s.Rank() >= target.Rank() && target.Rank() >= 0
}

type Message struct {
	ID             uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID string        `gorm:"index;not null" json:"conversation_id"`
	SenderID       string        `gorm:"type:uuid;not null" json:"sender_id"`
	Content        string        `json:"content"`
	AttachmentURLs []string      `gorm:"serializer:json" json:"attachment_urls"`
	DeliveryStatus MessageStatus `gorm:"type:varchar(16);default:'sending'" json:"delivery_status"`
	// Seq is the store-assigned log sequence; it breaks ties between
	// messages that share a coarse CreatedAt.
	Seq       int64     `gorm:"autoIncrement;uniqueIndex" json:"seq"`
	CreatedAt time.Time `json:"created_at"`
}

type SendMessageRequest struct {
	Content        string   `json:"content"`
	AttachmentURLs []string `json:"attachment_urls"`
}
