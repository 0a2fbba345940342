package db

import (
	"time"

	"github.com/bookswapng/bookswap/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type ConversationRepository interface {
	FindOrCreate(conversationID string, participantIDs []string) (*models.Conversation, error)
	GetConversation(conversationID string) (*models.Conversation, error)
	ListForUser(userID string) ([]models.Conversation, error)
	UpdateLastMessage(conversationID string, lastMessage string, updatedAt time.Time) error
	Archive(conversationID, userID string) error
	Unarchive(conversationID, userID string) error
	IsArchived(conversationID, userID string) (bool, error)
}

type conversationRepo struct {
	DB *gorm.DB
}

func NewConversationRepo(db *GormDB) ConversationRepository {
	return &conversationRepo{db.DB}
}

// FindOrCreate is idempotent on the canonical id: concurrent callers for the
// same pair converge on a single row.
func (r *conversationRepo) FindOrCreate(conversationID string, participantIDs []string) (*models.Conversation, error) {
	var conversation models.Conversation
	err := r.DB.Preload("Participants").Where("id = ?", conversationID).First(&conversation).Error
	if err == nil {
		return &conversation, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(err, "conversation lookup failed")
	}

	var participants []models.User
	if err := r.DB.Where("id IN ?", participantIDs).Find(&participants).Error; err != nil {
		return nil, errors.Wrap(err, "participant lookup failed")
	}
	if len(participants) != len(participantIDs) {
		return nil, gorm.ErrRecordNotFound
	}

	conversation = models.Conversation{
		ID:           conversationID,
		Participants: participants,
	}
	if err := r.DB.Create(&conversation).Error; err != nil {
		// Lost the creation race to the counterparty: re-read theirs.
		var existing models.Conversation
		if ferr := r.DB.Preload("Participants").Where("id = ?", conversationID).First(&existing).Error; ferr == nil {
			return &existing, nil
		}
		return nil, errors.Wrap(err, "conversation create failed")
	}
	return &conversation, nil
}

func (r *conversationRepo) GetConversation(conversationID string) (*models.Conversation, error) {
	var conversation models.Conversation
	if err := r.DB.Preload("Participants").Where("id = ?", conversationID).First(&conversation).Error; err != nil {
		return nil, err
	}
	return &conversation, nil
}

// ListForUser returns the user's conversations, most recently active first,
// excluding ones that user archived. The counterparty's archive rows have no
// effect here.
func (r *conversationRepo) ListForUser(userID string) ([]models.Conversation, error) {
	var conversations []models.Conversation
	err := r.DB.Preload("Participants").
		Joins("JOIN conversation_participants cp ON cp.conversation_id = conversations.id").
		Where("cp.user_id = ?", userID).
		Where("NOT EXISTS (SELECT 1 FROM conversation_archives ca WHERE ca.conversation_id = conversations.id AND ca.user_id = ?)", userID).
		Order("conversations.updated_at DESC").
		Find(&conversations).Error
	if err != nil {
		return nil, errors.Wrap(err, "conversation list failed")
	}
	return conversations, nil
}

func (r *conversationRepo) UpdateLastMessage(conversationID string, lastMessage string, updatedAt time.Time) error {
	return r.DB.Model(&models.Conversation{}).
		Where("id = ?", conversationID).
		Updates(map[string]interface{}{"last_message": lastMessage, "updated_at": updatedAt}).Error
}

func (r *conversationRepo) Archive(conversationID, userID string) error {
	archive := models.ConversationArchive{ConversationID: conversationID, UserID: userID}
	return r.DB.Where(models.ConversationArchive{ConversationID: conversationID, UserID: userID}).
		FirstOrCreate(&archive).Error
}

func (r *conversationRepo) Unarchive(conversationID, userID string) error {
	return r.DB.
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Delete(&models.ConversationArchive{}).Error
}

func (r *conversationRepo) IsArchived(conversationID, userID string) (bool, error) {
	var count int64
	err := r.DB.Model(&models.ConversationArchive{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
