package models

import (
	"time"

	"github.com/google/uuid"
)

// Book is a tradeable catalog item. Availability is owned by the catalog,
// not by the exchange machine; accepting an exchange does not flip it here.
type Book struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID     string    `gorm:"type:uuid;index;not null" json:"owner_id"`
	Title       string    `json:"title" binding:"required"`
	Author      string    `json:"author"`
	Description string    `json:"description"`
	CoverURL    string    `json:"cover_url,omitempty"`
	Available   bool      `gorm:"default:true" json:"available"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CreateBookRequest struct {
	Title       string `json:"title" binding:"required,min=1"`
	Author      string `json:"author"`
	Description string `json:"description"`
	CoverURL    string `json:"cover_url"`
}
