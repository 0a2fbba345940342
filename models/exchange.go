package models

import (
	"time"

	"github.com/google/uuid"
)

type ExchangeStatus string

const (
	ExchangePending   ExchangeStatus = "pending"
	ExchangeChatting  ExchangeStatus = "chatting"
	ExchangeAccepted  ExchangeStatus = "accepted"
	ExchangeRejected  ExchangeStatus = "rejected"
	ExchangeCompleted ExchangeStatus = "completed"
)

// DefaultRejectionReason stands in when an owner rejects without giving a
// reason, so the action is never lost over a missing string.
const DefaultRejectionReason = "No reason provided"

// Terminal reports whether no further transition is permitted from s.
func (s ExchangeStatus) Terminal() bool {
	switch s {
	case ExchangeAccepted, ExchangeRejected, ExchangeCompleted:
		return true
	}
	return false
}

// ExchangeRequest is a proposed book-for-book trade between a requester and
// the owner of the requested book.
type ExchangeRequest struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	RequesterID     string         `gorm:"type:uuid;index;not null" json:"requester_id"`
	OwnerID         string         `gorm:"type:uuid;index;not null" json:"owner_id"`
	RequestedBookID uuid.UUID      `gorm:"type:uuid;not null" json:"requested_book_id"`
	OfferedBookID   uuid.UUID      `gorm:"type:uuid;not null" json:"offered_book_id"`
	Status          ExchangeStatus `gorm:"type:varchar(16);default:'pending';index" json:"status"`
	RejectionReason string         `json:"rejection_reason,omitempty"`
	ChatID          string         `json:"chat_id,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

type ProposeExchangeRequest struct {
	RequestedBookID uuid.UUID `json:"requested_book_id" binding:"required"`
	OfferedBookID   uuid.UUID `json:"offered_book_id" binding:"required"`
}

type RejectExchangeRequest struct {
	Reason string `json:"reason"`
}
