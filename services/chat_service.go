package services

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/bookswapng/bookswap/config"
	"github.com/bookswapng/bookswap/db"
	apiError "github.com/bookswapng/bookswap/errors"
	"github.com/bookswapng/bookswap/models"
	"github.com/bookswapng/bookswap/realtime"
	"github.com/google/uuid"
)

// ChatService is the message-channel port: an append-only, time-ordered log
// per conversation with per-message delivery tracking. The actor id is always
// passed in; nothing here reads identity from ambient state.
type ChatService interface {
	OpenDirectConversation(actorID, otherUserID string) (*models.Conversation, error)
	ListConversations(actorID string) ([]models.Conversation, error)
	History(actorID, conversationID string) ([]models.Message, error)
	SendMessage(actorID, conversationID string, content string, attachmentURLs []string) (*models.Message, error)
	MarkDelivered(actorID string, messageID uuid.UUID) (*models.Message, error)
	MarkRead(actorID string, messageID uuid.UUID) (*models.Message, error)
	ArchiveConversation(actorID, conversationID string) error
	UnarchiveConversation(actorID, conversationID string) error
}

type chatService struct {
	Config       *config.Config
	convRepo     db.ConversationRepository
	messageRepo  db.MessageRepository
	authRepo     db.AuthRepository
	hub          *realtime.Hub
	notifier     Notifier
	retryCfg     realtime.RetryConfig
	writeTimeout time.Duration
}

func NewChatService(convRepo db.ConversationRepository, messageRepo db.MessageRepository, authRepo db.AuthRepository, hub *realtime.Hub, notifier Notifier, conf *config.Config) ChatService {
	return &chatService{
		Config:       conf,
		convRepo:     convRepo,
		messageRepo:  messageRepo,
		authRepo:     authRepo,
		hub:          hub,
		notifier:     notifier,
		retryCfg:     realtime.DefaultRetryConfig(),
		writeTimeout: conf.WriteTimeout(),
	}
}

func (s *chatService) OpenDirectConversation(actorID, otherUserID string) (*models.Conversation, error) {
	conversationID, err := models.CanonicalConversationID(actorID, otherUserID)
	if err != nil {
		return nil, err
	}
	return s.convRepo.FindOrCreate(conversationID, []string{actorID, otherUserID})
}

func (s *chatService) ListConversations(actorID string) ([]models.Conversation, error) {
	return s.convRepo.ListForUser(actorID)
}

func (s *chatService) History(actorID, conversationID string) ([]models.Message, error) {
	if _, err := s.participantConversation(actorID, conversationID); err != nil {
		return nil, err
	}
	return s.messageRepo.ListByConversation(conversationID)
}

func (s *chatService) SendMessage(actorID, conversationID string, content string, attachmentURLs []string) (*models.Message, error) {
	conversation, err := s.participantConversation(actorID, conversationID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" && len(attachmentURLs) == 0 {
		return nil, apiError.NewValidationError("message must carry text or at least one attachment")
	}

	message := &models.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       actorID,
		Content:        content,
		AttachmentURLs: attachmentURLs,
		DeliveryStatus: models.MessageSending,
		CreatedAt:      time.Now(),
	}
	if err := awaitWrite("message append", s.writeTimeout, func() error {
		return s.messageRepo.SaveMessage(message)
	}); err != nil {
		return nil, err
	}

	// The store acknowledged the append, so the message is sent.
	ok, err := s.messageRepo.UpdateStatusIf(message.ID, models.MessageSending, models.MessageSent)
	if err != nil {
		return nil, err
	}
	if ok {
		message.DeliveryStatus = models.MessageSent
	}

	preview := content
	if preview == "" {
		preview = "[attachment]"
	}
	if err := s.convRepo.UpdateLastMessage(conversationID, preview, message.CreatedAt); err != nil {
		log.Printf("failed to update conversation preview: %v", err)
	}

	s.publishConversation(conversationID)
	s.notifyCounterparty(conversation, actorID, preview)
	return message, nil
}

func (s *chatService) MarkDelivered(actorID string, messageID uuid.UUID) (*models.Message, error) {
	return s.advanceStatus(actorID, messageID, models.MessageDelivered)
}

func (s *chatService) MarkRead(actorID string, messageID uuid.UUID) (*models.Message, error) {
	return s.advanceStatus(actorID, messageID, models.MessageRead)
}

// advanceStatus moves a message forward in its delivery lifecycle. Only the
// recipient may advance to delivered/read; a message already at or past the
// target is a no-op, never an error.
func (s *chatService) advanceStatus(actorID string, messageID uuid.UUID, target models.MessageStatus) (*models.Message, error) {
	message, err := s.messageRepo.GetMessage(messageID)
	if err != nil {
		return nil, err
	}
	if _, err := s.participantConversation(actorID, message.ConversationID); err != nil {
		return nil, err
	}
	if message.SenderID == actorID {
		return nil, apiError.NewPermissionError("only the recipient may mark a message " + string(target))
	}

	if message.DeliveryStatus.AtOrPast(target) {
		return message, nil
	}
	if target.Rank() < 0 {
		return nil, &apiError.InvalidTransitionError{From: string(message.DeliveryStatus), To: string(target)}
	}

	ok, err := s.messageRepo.UpdateStatusIf(messageID, message.DeliveryStatus, target)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Someone advanced it between our read and write; re-read decides.
		current, err := s.messageRepo.GetMessage(messageID)
		if err != nil {
			return nil, err
		}
		if current.DeliveryStatus.AtOrPast(target) {
			return current, nil
		}
		return nil, apiError.NewStaleStateError("message status changed concurrently")
	}
	message.DeliveryStatus = target
	s.publishConversation(message.ConversationID)
	return message, nil
}

func (s *chatService) ArchiveConversation(actorID, conversationID string) error {
	if _, err := s.participantConversation(actorID, conversationID); err != nil {
		return err
	}
	return s.convRepo.Archive(conversationID, actorID)
}

func (s *chatService) UnarchiveConversation(actorID, conversationID string) error {
	if _, err := s.participantConversation(actorID, conversationID); err != nil {
		return err
	}
	return s.convRepo.Unarchive(conversationID, actorID)
}

func (s *chatService) participantConversation(actorID, conversationID string) (*models.Conversation, error) {
	conversation, err := s.convRepo.GetConversation(conversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.HasParticipant(actorID) {
		return nil, apiError.NewPermissionError("not a participant of this conversation")
	}
	return conversation, nil
}

// publishConversation fans the full message log out to every live subscriber
// of the conversation topic. Transient store failures are retried with
// bounded backoff; exhaustion is logged, not surfaced, since the write that
// triggered the publish already succeeded.
func (s *chatService) publishConversation(conversationID string) {
	var messages []models.Message
	err := realtime.Retry(s.retryCfg, "conversation snapshot", func(_ context.Context) error {
		var lerr error
		messages, lerr = s.messageRepo.ListByConversation(conversationID)
		return lerr
	})
	if err != nil {
		log.Printf("failed to publish conversation %s: %v", conversationID, err)
		return
	}
	s.hub.Publish(realtime.ConversationTopic(conversationID), messages)
}

func (s *chatService) notifyCounterparty(conversation *models.Conversation, senderID, preview string) {
	if s.notifier == nil {
		return
	}
	other, ok := conversation.OtherParticipant(senderID)
	if !ok {
		return
	}
	recipient, err := s.authRepo.FindUserByID(other.ID)
	if err != nil {
		log.Printf("failed to load recipient for push: %v", err)
		return
	}
	if err := s.notifier.Push(recipient.DeviceToken, "New message", preview); err != nil {
		log.Printf("push notification failed: %v", err)
	}
}
