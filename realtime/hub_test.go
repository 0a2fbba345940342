package realtime

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bookswapng/bookswap/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recv(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case ev, ok := <-sub.C:
		require.True(t, ok, "subscription closed unexpectedly")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestPublishReachesSubscriber(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe("conversation:a:b")
	defer sub.Close()

	hub.Publish("conversation:a:b", []string{"m1"})
	ev := recv(t, sub)
	assert.Equal(t, "conversation:a:b", ev.Topic)
	assert.Equal(t, []string{"m1"}, ev.Snapshot)
}

func TestPublishIgnoresOtherTopics(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe("conversation:a:b")
	defer sub.Close()

	hub.Publish("conversation:a:c", []string{"m1"})
	select {
	case <-sub.C:
		t.Fatal("received event for a topic never subscribed to")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSlowSubscriberGetsLatestSnapshot(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe("t")
	defer sub.Close()

	// Nobody reading: older snapshots are superseded, never queued.
	hub.Publish("t", 1)
	hub.Publish("t", 2)
	hub.Publish("t", 3)

	ev := recv(t, sub)
	assert.Equal(t, 3, ev.Snapshot)
}

func TestCloseStopsDelivery(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe("t")
	sub.Close()

	// Publishing after close must not panic and must not deliver.
	hub.Publish("t", 1)

	_, ok := <-sub.C
	assert.False(t, ok, "channel should be closed")
	assert.Equal(t, 0, hub.SubscriberCount("t"))
}

func TestCloseIsIdempotent(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe("t")
	sub.Close()
	sub.Close()
}

func TestConcurrentPublishers(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe("t")
	defer sub.Close()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			hub.Publish("t", n)
		}(i)
	}
	wg.Wait()

	// At least the final committed state arrives.
	recv(t, sub)
}

func TestMultipleSubscribersEachReceive(t *testing.T) {
	hub := NewHub()
	one := hub.Subscribe("t")
	two := hub.Subscribe("t")
	defer one.Close()
	defer two.Close()

	assert.Equal(t, 2, hub.SubscriberCount("t"))
	hub.Publish("t", "snap")
	assert.Equal(t, "snap", recv(t, one).Snapshot)
	assert.Equal(t, "snap", recv(t, two).Snapshot)
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 3, Delay: time.Millisecond, Timeout: time.Second}
	calls := 0
	err := Retry(cfg, "test op", func(_ context.Context) error {
		calls++
		if calls < 3 {
			return assert.AnError
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryDoesNotRetryValidationErrors(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 3, Delay: time.Millisecond, Timeout: time.Second}
	calls := 0
	err := Retry(cfg, "test op", func(_ context.Context) error {
		calls++
		return errors.NewValidationError("bad input")
	})
	var validationErr *errors.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, 1, calls)
}

func TestRetryExhaustionWrapsTransient(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 2, Delay: time.Millisecond, Timeout: time.Second}
	err := Retry(cfg, "test op", func(_ context.Context) error {
		return assert.AnError
	})
	var transientErr *errors.TransientStoreError
	require.ErrorAs(t, err, &transientErr)
}

func TestRetryDoesNotRetryStaleState(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 3, Delay: time.Millisecond, Timeout: time.Second}
	calls := 0
	err := Retry(cfg, "test op", func(_ context.Context) error {
		calls++
		return errors.NewStaleStateError("lost the race")
	})
	var staleErr *errors.StaleStateError
	require.ErrorAs(t, err, &staleErr)
	assert.Equal(t, 1, calls)
}
