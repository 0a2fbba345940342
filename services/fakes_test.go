package services

import (
	"sort"
	"sync"
	"time"

	"github.com/bookswapng/bookswap/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// In-memory repositories implementing the db interfaces, with the same
// conditional-write semantics the SQL layer provides.

type fakeConversationRepo struct {
	mu            sync.Mutex
	conversations map[string]*models.Conversation
	archived      map[string]map[string]bool // conversationID -> userID
	users         *fakeAuthRepo
}

func newFakeConversationRepo(users *fakeAuthRepo) *fakeConversationRepo {
	return &fakeConversationRepo{
		conversations: make(map[string]*models.Conversation),
		archived:      make(map[string]map[string]bool),
		users:         users,
	}
}

func (r *fakeConversationRepo) FindOrCreate(conversationID string, participantIDs []string) (*models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.conversations[conversationID]; ok {
		return existing, nil
	}
	participants := make([]models.User, 0, len(participantIDs))
	for _, id := range participantIDs {
		user, err := r.users.FindUserByID(id)
		if err != nil {
			return nil, err
		}
		participants = append(participants, *user)
	}
	conversation := &models.Conversation{
		ID:           conversationID,
		Participants: participants,
		CreatedAt:    time.Now(),
	}
	r.conversations[conversationID] = conversation
	return conversation, nil
}

func (r *fakeConversationRepo) GetConversation(conversationID string) (*models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conversation, ok := r.conversations[conversationID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return conversation, nil
}

func (r *fakeConversationRepo) ListForUser(userID string) ([]models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Conversation
	for _, conversation := range r.conversations {
		if !conversation.HasParticipant(userID) {
			continue
		}
		if r.archived[conversation.ID][userID] {
			continue
		}
		out = append(out, *conversation)
	}
	return out, nil
}

func (r *fakeConversationRepo) UpdateLastMessage(conversationID string, lastMessage string, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if conversation, ok := r.conversations[conversationID]; ok {
		conversation.LastMessage = lastMessage
		conversation.UpdatedAt = updatedAt
	}
	return nil
}

func (r *fakeConversationRepo) Archive(conversationID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.archived[conversationID] == nil {
		r.archived[conversationID] = make(map[string]bool)
	}
	r.archived[conversationID][userID] = true
	return nil
}

func (r *fakeConversationRepo) Unarchive(conversationID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.archived[conversationID], userID)
	return nil
}

func (r *fakeConversationRepo) IsArchived(conversationID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.archived[conversationID][userID], nil
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages map[uuid.UUID]*models.Message
	nextSeq  int64
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{messages: make(map[uuid.UUID]*models.Message)}
}

func (r *fakeMessageRepo) SaveMessage(message *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextSeq++
	message.Seq = r.nextSeq
	stored := *message
	r.messages[message.ID] = &stored
	return nil
}

func (r *fakeMessageRepo) GetMessage(id uuid.UUID) (*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	message, ok := r.messages[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *message
	return &copied, nil
}

func (r *fakeMessageRepo) ListByConversation(conversationID string) ([]models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Message
	for _, message := range r.messages {
		if message.ConversationID == conversationID {
			out = append(out, *message)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Seq < out[j].Seq
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *fakeMessageRepo) UpdateStatusIf(id uuid.UUID, expected, next models.MessageStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	message, ok := r.messages[id]
	if !ok || message.DeliveryStatus != expected {
		return false, nil
	}
	message.DeliveryStatus = next
	return true, nil
}

type fakeExchangeRepo struct {
	mu        sync.Mutex
	exchanges map[uuid.UUID]*models.ExchangeRequest
}

func newFakeExchangeRepo() *fakeExchangeRepo {
	return &fakeExchangeRepo{exchanges: make(map[uuid.UUID]*models.ExchangeRequest)}
}

func (r *fakeExchangeRepo) CreateExchange(exchange *models.ExchangeRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *exchange
	r.exchanges[exchange.ID] = &stored
	return nil
}

func (r *fakeExchangeRepo) GetExchange(id uuid.UUID) (*models.ExchangeRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	exchange, ok := r.exchanges[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *exchange
	return &copied, nil
}

func (r *fakeExchangeRepo) ListByOwner(ownerID string) ([]models.ExchangeRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ExchangeRequest
	for _, exchange := range r.exchanges {
		if exchange.OwnerID == ownerID {
			out = append(out, *exchange)
		}
	}
	return out, nil
}

func (r *fakeExchangeRepo) ListByRequester(requesterID string) ([]models.ExchangeRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ExchangeRequest
	for _, exchange := range r.exchanges {
		if exchange.RequesterID == requesterID {
			out = append(out, *exchange)
		}
	}
	return out, nil
}

func (r *fakeExchangeRepo) UpdateStatusIf(id uuid.UUID, from []models.ExchangeStatus, updates map[string]interface{}) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	exchange, ok := r.exchanges[id]
	if !ok {
		return false, nil
	}
	matched := false
	for _, f := range from {
		if exchange.Status == f {
			matched = true
			break
		}
	}
	if !matched {
		return false, nil
	}
	for key, value := range updates {
		switch key {
		case "status":
			exchange.Status = value.(models.ExchangeStatus)
		case "updated_at":
			exchange.UpdatedAt = value.(time.Time)
		case "chat_id":
			exchange.ChatID = value.(string)
		case "rejection_reason":
			exchange.RejectionReason = value.(string)
		}
	}
	return true, nil
}

type fakeAuthRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeAuthRepo(users ...*models.User) *fakeAuthRepo {
	repo := &fakeAuthRepo{users: make(map[string]*models.User)}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (r *fakeAuthRepo) CreateUser(user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeAuthRepo) IsEmailExist(email string) error {
	return nil
}

func (r *fakeAuthRepo) FindUserByEmail(email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeAuthRepo) FindUserByID(id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (r *fakeAuthRepo) UpdateDeviceToken(userID string, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[userID]; ok {
		user.DeviceToken = token
	}
	return nil
}

func (r *fakeAuthRepo) AddToBlackList(blacklist *models.Blacklist) error { return nil }

func (r *fakeAuthRepo) IsTokenInBlacklist(token string) bool { return false }

type fakeBookRepo struct {
	mu    sync.Mutex
	books map[uuid.UUID]*models.Book
}

func newFakeBookRepo(books ...*models.Book) *fakeBookRepo {
	repo := &fakeBookRepo{books: make(map[uuid.UUID]*models.Book)}
	for _, book := range books {
		repo.books[book.ID] = book
	}
	return repo
}

func (r *fakeBookRepo) CreateBook(book *models.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.books[book.ID] = book
	return nil
}

func (r *fakeBookRepo) GetBook(id uuid.UUID) (*models.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	book, ok := r.books[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return book, nil
}

func (r *fakeBookRepo) ListBooks() ([]models.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Book
	for _, book := range r.books {
		out = append(out, *book)
	}
	return out, nil
}

func (r *fakeBookRepo) ListByOwner(ownerID string) ([]models.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Book
	for _, book := range r.books {
		if book.OwnerID == ownerID {
			out = append(out, *book)
		}
	}
	return out, nil
}

func (r *fakeBookRepo) UpdateBook(book *models.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.books[book.ID] = book
	return nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	pushes []string
}

func (n *fakeNotifier) Push(deviceToken, title, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pushes = append(n.pushes, title+": "+body)
	return nil
}
