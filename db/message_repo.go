package db

import (
	"github.com/bookswapng/bookswap/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type MessageRepository interface {
	SaveMessage(message *models.Message) error
	GetMessage(id uuid.UUID) (*models.Message, error)
	ListByConversation(conversationID string) ([]models.Message, error)
	// UpdateStatusIf advances delivery status only when the stored status
	// still equals expected. Returns false when the row was not in the
	// expected state, so a concurrent advance is never undone.
	UpdateStatusIf(id uuid.UUID, expected, next models.MessageStatus) (bool, error)
}

type messageRepo struct {
	DB *gorm.DB
}

func NewMessageRepo(db *GormDB) MessageRepository {
	return &messageRepo{db.DB}
}

func (r *messageRepo) SaveMessage(message *models.Message) error {
	if message == nil {
		return errors.New("message is nil")
	}
	if err := r.DB.Create(message).Error; err != nil {
		return errors.Wrap(err, "message create failed")
	}
	return nil
}

func (r *messageRepo) GetMessage(id uuid.UUID) (*models.Message, error) {
	var message models.Message
	if err := r.DB.Where("id = ?", id).First(&message).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

// ListByConversation returns the full log in append order. Equal timestamps
// fall back to the store-assigned sequence, never client-side reordering.
func (r *messageRepo) ListByConversation(conversationID string) ([]models.Message, error) {
	var messages []models.Message
	err := r.DB.Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Order("seq ASC").
		Find(&messages).Error
	if err != nil {
		return nil, errors.Wrap(err, "message list failed")
	}
	return messages, nil
}

func (r *messageRepo) UpdateStatusIf(id uuid.UUID, expected, next models.MessageStatus) (bool, error) {
	tx := r.DB.Model(&models.Message{}).
		Where("id = ? AND delivery_status = ?", id, expected).
		Update("delivery_status", next)
	if tx.Error != nil {
		return false, errors.Wrap(tx.Error, "message status update failed")
	}
	return tx.RowsAffected > 0, nil
}
