package services

import (
	"sync"
	"testing"

	"github.com/bookswapng/bookswap/config"
	apiError "github.com/bookswapng/bookswap/errors"
	"github.com/bookswapng/bookswap/models"
	"github.com/bookswapng/bookswap/realtime"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type exchangeFixture struct {
	service  ExchangeService
	exchange *fakeExchangeRepo
	conv     *fakeConversationRepo
	notifier *fakeNotifier

	u1, u2 string // requester, owner
	b1, b2 uuid.UUID
}

func newExchangeFixture(t *testing.T) *exchangeFixture {
	t.Helper()
	u1 := uuid.NewString()
	u2 := uuid.NewString()
	auth := newFakeAuthRepo(
		&models.User{ID: u1, Email: "u1@example.com"},
		&models.User{ID: u2, Email: "u2@example.com"},
	)
	b1 := uuid.New()
	b2 := uuid.New()
	books := newFakeBookRepo(
		&models.Book{ID: b1, OwnerID: u1, Title: "The Go Programming Language"},
		&models.Book{ID: b2, OwnerID: u2, Title: "Designing Data-Intensive Applications"},
	)
	exchanges := newFakeExchangeRepo()
	conversations := newFakeConversationRepo(auth)
	notifier := &fakeNotifier{}
	service := NewExchangeService(exchanges, books, conversations, auth, realtime.NewHub(), notifier, nil, &config.Config{})
	return &exchangeFixture{
		service:  service,
		exchange: exchanges,
		conv:     conversations,
		notifier: notifier,
		u1:       u1, u2: u2,
		b1: b1, b2: b2,
	}
}

func (f *exchangeFixture) propose(t *testing.T) *models.ExchangeRequest {
	t.Helper()
	exchange, err := f.service.Propose(f.u1, f.b2, f.b1)
	require.NoError(t, err)
	return exchange
}

func TestProposeCreatesPendingRequest(t *testing.T) {
	f := newExchangeFixture(t)

	exchange := f.propose(t)
	assert.Equal(t, models.ExchangePending, exchange.Status)
	assert.Equal(t, f.u1, exchange.RequesterID)
	assert.Equal(t, f.u2, exchange.OwnerID)
	assert.Equal(t, f.b2, exchange.RequestedBookID)
	assert.Equal(t, f.b1, exchange.OfferedBookID)
}

func TestProposeValidatesBookOwnership(t *testing.T) {
	f := newExchangeFixture(t)

	// Requesting your own book.
	_, err := f.service.Propose(f.u1, f.b1, f.b2)
	var validationErr *apiError.ValidationError
	assert.ErrorAs(t, err, &validationErr)

	// Offering a book you don't own.
	_, err = f.service.Propose(f.u1, f.b2, f.b2)
	var permErr *apiError.PermissionError
	assert.ErrorAs(t, err, &permErr)
}

func TestAcceptIsOwnerOnly(t *testing.T) {
	f := newExchangeFixture(t)
	exchange := f.propose(t)

	_, err := f.service.Accept(f.u1, exchange.ID)
	var permErr *apiError.PermissionError
	require.ErrorAs(t, err, &permErr)

	accepted, err := f.service.Accept(f.u2, exchange.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExchangeAccepted, accepted.Status)
}

func TestAcceptedIsTerminal(t *testing.T) {
	f := newExchangeFixture(t)
	exchange := f.propose(t)

	_, err := f.service.Accept(f.u2, exchange.ID)
	require.NoError(t, err)

	_, err = f.service.Reject(f.u2, exchange.ID, "changed mind")
	var transitionErr *apiError.InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)

	// The losing call must not have mutated anything.
	current, err := f.exchange.GetExchange(exchange.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExchangeAccepted, current.Status)
	assert.Empty(t, current.RejectionReason)
}

func TestRejectWithoutReasonUsesDefault(t *testing.T) {
	f := newExchangeFixture(t)
	exchange := f.propose(t)

	rejected, err := f.service.Reject(f.u2, exchange.ID, "   ")
	require.NoError(t, err)
	assert.Equal(t, models.ExchangeRejected, rejected.Status)
	assert.Equal(t, models.DefaultRejectionReason, rejected.RejectionReason)
}

func TestRejectKeepsExplicitReason(t *testing.T) {
	f := newExchangeFixture(t)
	exchange := f.propose(t)

	rejected, err := f.service.Reject(f.u2, exchange.ID, "cover is damaged")
	require.NoError(t, err)
	assert.Equal(t, "cover is damaged", rejected.RejectionReason)
}

func TestOpenChatConvergesOnOneConversation(t *testing.T) {
	f := newExchangeFixture(t)
	exchange := f.propose(t)

	fromRequester, err := f.service.OpenChat(f.u1, exchange.ID)
	require.NoError(t, err)
	fromOwner, err := f.service.OpenChat(f.u2, exchange.ID)
	require.NoError(t, err)

	assert.Equal(t, models.ExchangeChatting, fromRequester.Status)
	assert.Equal(t, models.ExchangeChatting, fromOwner.Status)
	assert.Equal(t, fromRequester.ChatID, fromOwner.ChatID)

	wantChatID, err := models.CanonicalConversationID(f.u1, f.u2)
	require.NoError(t, err)
	assert.Equal(t, wantChatID, fromOwner.ChatID)

	_, err = f.conv.GetConversation(wantChatID)
	assert.NoError(t, err)
}

func TestOpenChatRejectedForOutsiders(t *testing.T) {
	f := newExchangeFixture(t)
	exchange := f.propose(t)

	_, err := f.service.OpenChat(uuid.NewString(), exchange.ID)
	var permErr *apiError.PermissionError
	assert.ErrorAs(t, err, &permErr)
}

func TestAcceptStillAllowedWhileChatting(t *testing.T) {
	f := newExchangeFixture(t)
	exchange := f.propose(t)

	_, err := f.service.OpenChat(f.u1, exchange.ID)
	require.NoError(t, err)

	accepted, err := f.service.Accept(f.u2, exchange.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExchangeAccepted, accepted.Status)
}

func TestCompleteRequiresAccepted(t *testing.T) {
	f := newExchangeFixture(t)
	exchange := f.propose(t)

	_, err := f.service.Complete(f.u1, exchange.ID)
	var transitionErr *apiError.InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)

	_, err = f.service.Accept(f.u2, exchange.ID)
	require.NoError(t, err)

	// Either party may complete.
	completed, err := f.service.Complete(f.u1, exchange.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExchangeCompleted, completed.Status)
}

// gatedExchangeRepo holds both sessions at the conditional write until each
// has read the record as pending, forcing a true write-write race.
type gatedExchangeRepo struct {
	*fakeExchangeRepo
	gate *sync.WaitGroup
}

func (g *gatedExchangeRepo) UpdateStatusIf(id uuid.UUID, from []models.ExchangeStatus, updates map[string]interface{}) (bool, error) {
	g.gate.Done()
	g.gate.Wait()
	return g.fakeExchangeRepo.UpdateStatusIf(id, from, updates)
}

func TestConcurrentAcceptRejectExactlyOneWins(t *testing.T) {
	f := newExchangeFixture(t)
	exchange := f.propose(t)

	gate := &sync.WaitGroup{}
	gate.Add(2)
	gated := &gatedExchangeRepo{fakeExchangeRepo: f.exchange, gate: gate}
	auth := newFakeAuthRepo(
		&models.User{ID: f.u1, Email: "u1@example.com"},
		&models.User{ID: f.u2, Email: "u2@example.com"},
	)
	service := NewExchangeService(gated, newFakeBookRepo(), f.conv, auth, realtime.NewHub(), &fakeNotifier{}, nil, &config.Config{})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = service.Accept(f.u2, exchange.ID)
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = service.Reject(f.u2, exchange.ID, "sold elsewhere")
	}()
	wg.Wait()

	winners := 0
	stale := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		var staleErr *apiError.StaleStateError
		if assert.ErrorAs(t, err, &staleErr) {
			stale++
		}
	}
	assert.Equal(t, 1, winners, "exactly one transition must win")
	assert.Equal(t, 1, stale, "the loser must observe stale state")

	current, err := f.exchange.GetExchange(exchange.ID)
	require.NoError(t, err)
	assert.True(t, current.Status.Terminal())
}

func TestListForUserRoles(t *testing.T) {
	f := newExchangeFixture(t)
	f.propose(t)

	asOwner, err := f.service.ListForUser(f.u2, "owner")
	require.NoError(t, err)
	assert.Len(t, asOwner, 1)

	asRequester, err := f.service.ListForUser(f.u1, "requester")
	require.NoError(t, err)
	assert.Len(t, asRequester, 1)

	_, err = f.service.ListForUser(f.u1, "spectator")
	var validationErr *apiError.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}
