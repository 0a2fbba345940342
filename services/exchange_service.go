package services

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/bookswapng/bookswap/config"
	"github.com/bookswapng/bookswap/db"
	apiError "github.com/bookswapng/bookswap/errors"
	"github.com/bookswapng/bookswap/mailingservices"
	"github.com/bookswapng/bookswap/models"
	"github.com/bookswapng/bookswap/realtime"
	"github.com/google/uuid"
)

// ExchangeService is the negotiation port. Every status transition goes
// through a conditional write at the store boundary: when two sessions race,
// only the first committed transition wins and the loser gets a stale-state
// error, never a silent overwrite.
type ExchangeService interface {
	Propose(actorID string, requestedBookID, offeredBookID uuid.UUID) (*models.ExchangeRequest, error)
	OpenChat(actorID string, exchangeID uuid.UUID) (*models.ExchangeRequest, error)
	Accept(actorID string, exchangeID uuid.UUID) (*models.ExchangeRequest, error)
	Reject(actorID string, exchangeID uuid.UUID, reason string) (*models.ExchangeRequest, error)
	Complete(actorID string, exchangeID uuid.UUID) (*models.ExchangeRequest, error)
	ListForUser(actorID string, role string) ([]models.ExchangeRequest, error)
}

type exchangeService struct {
	Config       *config.Config
	exchangeRepo db.ExchangeRepository
	bookRepo     db.BookRepository
	convRepo     db.ConversationRepository
	authRepo     db.AuthRepository
	hub          *realtime.Hub
	notifier     Notifier
	mailer       mailingservices.Mailer
	retryCfg     realtime.RetryConfig
	writeTimeout time.Duration
}

func NewExchangeService(exchangeRepo db.ExchangeRepository, bookRepo db.BookRepository, convRepo db.ConversationRepository, authRepo db.AuthRepository, hub *realtime.Hub, notifier Notifier, mailer mailingservices.Mailer, conf *config.Config) ExchangeService {
	return &exchangeService{
		Config:       conf,
		exchangeRepo: exchangeRepo,
		bookRepo:     bookRepo,
		convRepo:     convRepo,
		authRepo:     authRepo,
		hub:          hub,
		notifier:     notifier,
		mailer:       mailer,
		retryCfg:     realtime.DefaultRetryConfig(),
		writeTimeout: conf.WriteTimeout(),
	}
}

// Propose creates the record in pending, owned by the requested book's
// owner. Only the requester can create it, and it always starts at pending.
func (s *exchangeService) Propose(actorID string, requestedBookID, offeredBookID uuid.UUID) (*models.ExchangeRequest, error) {
	requested, err := s.bookRepo.GetBook(requestedBookID)
	if err != nil {
		return nil, err
	}
	offered, err := s.bookRepo.GetBook(offeredBookID)
	if err != nil {
		return nil, err
	}
	if requested.OwnerID == actorID {
		return nil, apiError.NewValidationError("cannot request a swap for your own book")
	}
	if offered.OwnerID != actorID {
		return nil, apiError.NewPermissionError("offered book does not belong to you")
	}

	exchange := &models.ExchangeRequest{
		ID:              uuid.New(),
		RequesterID:     actorID,
		OwnerID:         requested.OwnerID,
		RequestedBookID: requestedBookID,
		OfferedBookID:   offeredBookID,
		Status:          models.ExchangePending,
	}
	if err := awaitWrite("exchange create", s.writeTimeout, func() error {
		return s.exchangeRepo.CreateExchange(exchange)
	}); err != nil {
		return nil, err
	}

	s.publishExchanges(exchange.OwnerID, exchange.RequesterID)
	s.pushToUser(exchange.OwnerID, "New swap request", "Someone proposed a trade for your book")
	return exchange, nil
}

// OpenChat attaches the canonical conversation for the two parties and moves
// pending to chatting. Either party may call it; calling it again is a no-op.
// Both parties opening concurrently still converge on a single conversation
// because the id is canonical for the pair.
func (s *exchangeService) OpenChat(actorID string, exchangeID uuid.UUID) (*models.ExchangeRequest, error) {
	exchange, err := s.partyExchange(actorID, exchangeID)
	if err != nil {
		return nil, err
	}
	if exchange.Status == models.ExchangeChatting && exchange.ChatID != "" {
		return exchange, nil
	}
	if exchange.Status.Terminal() {
		return nil, &apiError.InvalidTransitionError{From: string(exchange.Status), To: string(models.ExchangeChatting)}
	}

	chatID, err := models.CanonicalConversationID(exchange.RequesterID, exchange.OwnerID)
	if err != nil {
		return nil, err
	}
	if _, err := s.convRepo.FindOrCreate(chatID, []string{exchange.RequesterID, exchange.OwnerID}); err != nil {
		return nil, err
	}

	return s.transition(exchange, actorID,
		[]models.ExchangeStatus{models.ExchangePending, models.ExchangeChatting},
		models.ExchangeChatting,
		map[string]interface{}{"chat_id": chatID},
	)
}

// Accept is owner-only and terminal.
func (s *exchangeService) Accept(actorID string, exchangeID uuid.UUID) (*models.ExchangeRequest, error) {
	exchange, err := s.partyExchange(actorID, exchangeID)
	if err != nil {
		return nil, err
	}
	if exchange.OwnerID != actorID {
		return nil, apiError.NewPermissionError("only the owner may accept a swap request")
	}
	accepted, err := s.transition(exchange, actorID,
		[]models.ExchangeStatus{models.ExchangePending, models.ExchangeChatting},
		models.ExchangeAccepted,
		nil,
	)
	if err != nil {
		return nil, err
	}

	// Book availability stays with the catalog; this only notifies.
	s.pushToUser(accepted.RequesterID, "Swap accepted", "Your trade was accepted")
	s.mailRequester(accepted)
	return accepted, nil
}

// Reject is owner-only and terminal. A missing reason falls back to a
// default string rather than failing the whole action.
func (s *exchangeService) Reject(actorID string, exchangeID uuid.UUID, reason string) (*models.ExchangeRequest, error) {
	exchange, err := s.partyExchange(actorID, exchangeID)
	if err != nil {
		return nil, err
	}
	if exchange.OwnerID != actorID {
		return nil, apiError.NewPermissionError("only the owner may reject a swap request")
	}
	if strings.TrimSpace(reason) == "" {
		reason = models.DefaultRejectionReason
	}
	rejected, err := s.transition(exchange, actorID,
		[]models.ExchangeStatus{models.ExchangePending, models.ExchangeChatting},
		models.ExchangeRejected,
		map[string]interface{}{"rejection_reason": reason},
	)
	if err != nil {
		return nil, err
	}
	s.pushToUser(rejected.RequesterID, "Swap rejected", reason)
	return rejected, nil
}

// Complete marks an accepted trade fulfilled. Either party may call it.
func (s *exchangeService) Complete(actorID string, exchangeID uuid.UUID) (*models.ExchangeRequest, error) {
	exchange, err := s.partyExchange(actorID, exchangeID)
	if err != nil {
		return nil, err
	}
	return s.transition(exchange, actorID,
		[]models.ExchangeStatus{models.ExchangeAccepted},
		models.ExchangeCompleted,
		nil,
	)
}

func (s *exchangeService) ListForUser(actorID string, role string) ([]models.ExchangeRequest, error) {
	switch role {
	case "owner":
		return s.exchangeRepo.ListByOwner(actorID)
	case "requester":
		return s.exchangeRepo.ListByRequester(actorID)
	default:
		return nil, apiError.NewValidationError("role must be owner or requester")
	}
}

func (s *exchangeService) partyExchange(actorID string, exchangeID uuid.UUID) (*models.ExchangeRequest, error) {
	exchange, err := s.exchangeRepo.GetExchange(exchangeID)
	if err != nil {
		return nil, err
	}
	if exchange.RequesterID != actorID && exchange.OwnerID != actorID {
		return nil, apiError.NewPermissionError("not a party to this swap request")
	}
	return exchange, nil
}

// transition applies the compare-and-swap. The caller has already checked
// permissions; this decides between invalid-transition (the record was never
// in an allowed source state) and stale-state (it was, but a concurrent
// writer got there first).
func (s *exchangeService) transition(exchange *models.ExchangeRequest, actorID string, from []models.ExchangeStatus, to models.ExchangeStatus, extra map[string]interface{}) (*models.ExchangeRequest, error) {
	allowed := false
	for _, f := range from {
		if exchange.Status == f {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, &apiError.InvalidTransitionError{From: string(exchange.Status), To: string(to)}
	}

	updates := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now(),
	}
	for k, v := range extra {
		updates[k] = v
	}

	var won bool
	err := awaitWrite("exchange transition", s.writeTimeout, func() error {
		var werr error
		won, werr = s.exchangeRepo.UpdateStatusIf(exchange.ID, from, updates)
		return werr
	})
	if err != nil {
		return nil, err
	}
	if !won {
		// Lost the race. Surface stale state so the caller re-reads before
		// acting again; the concurrent decision must not be overwritten.
		if current, gerr := s.exchangeRepo.GetExchange(exchange.ID); gerr == nil && current.Status.Terminal() {
			return nil, apiError.NewStaleStateError("swap request already resolved as " + string(current.Status))
		}
		return nil, apiError.NewStaleStateError("swap request changed concurrently")
	}

	updated, err := s.exchangeRepo.GetExchange(exchange.ID)
	if err != nil {
		return nil, err
	}
	s.publishExchanges(updated.OwnerID, updated.RequesterID)
	return updated, nil
}

// publishExchanges refreshes both parties' subscribed views with full
// snapshots, owner and requester roles separately.
func (s *exchangeService) publishExchanges(ownerID, requesterID string) {
	var ownerList, requesterList []models.ExchangeRequest
	err := realtime.Retry(s.retryCfg, "exchange snapshot", func(_ context.Context) error {
		var lerr error
		if ownerList, lerr = s.exchangeRepo.ListByOwner(ownerID); lerr != nil {
			return lerr
		}
		requesterList, lerr = s.exchangeRepo.ListByRequester(requesterID)
		return lerr
	})
	if err != nil {
		log.Printf("failed to publish exchange snapshots: %v", err)
		return
	}
	s.hub.Publish(realtime.OwnerExchangesTopic(ownerID), ownerList)
	s.hub.Publish(realtime.RequesterExchangesTopic(requesterID), requesterList)
}

func (s *exchangeService) pushToUser(userID, title, body string) {
	if s.notifier == nil {
		return
	}
	user, err := s.authRepo.FindUserByID(userID)
	if err != nil {
		log.Printf("failed to load user for push: %v", err)
		return
	}
	if err := s.notifier.Push(user.DeviceToken, title, body); err != nil {
		log.Printf("push notification failed: %v", err)
	}
}

func (s *exchangeService) mailRequester(exchange *models.ExchangeRequest) {
	if s.mailer == nil {
		return
	}
	requester, err := s.authRepo.FindUserByID(exchange.RequesterID)
	if err != nil {
		log.Printf("failed to load requester for mail: %v", err)
		return
	}
	book, err := s.bookRepo.GetBook(exchange.RequestedBookID)
	if err != nil {
		log.Printf("failed to load book for mail: %v", err)
		return
	}
	if err := s.mailer.SendExchangeAccepted(requester.Email, book.Title); err != nil {
		log.Printf("acceptance mail failed: %v", err)
	}
}
