package server

import (
	"context"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/bookswapng/bookswap/models"
	"github.com/bookswapng/bookswap/realtime"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type wsCommand struct {
	Action string `json:"action"` // subscribe | unsubscribe
	Topic  string `json:"topic"`
}

// wsConn is the slice of *websocket.Conn the subscription pump uses.
type wsConn interface {
	ReadJSON(v interface{}) error
	WriteJSON(v interface{}) error
}

func (s *Server) handleSubscribe() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("userID")
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("websocket upgrade failed: %v", err)
			return
		}
		defer conn.Close()
		s.serveSubscriptions(conn, userID)
	}
}

// serveSubscriptions pumps subscription commands and topic events over one
// connection. On subscribe the client first receives the full current
// snapshot, then a fresh snapshot for every committed change; dropped clients
// reconnect and replay the same way, so no delta bookkeeping exists anywhere.
//
// A single writer goroutine owns every write on the connection; the read loop
// and the per-topic forwarders only ever send into outbound. When the client
// stops reading, the writer closes done and drains outbound until it is
// closed, so no sender is ever left blocked on a dead connection.
func (s *Server) serveSubscriptions(conn wsConn, userID string) {
	outbound := make(chan interface{}, 16)
	done := make(chan struct{})

	var writerWg sync.WaitGroup
	writerWg.Add(1)
	go func() {
		defer writerWg.Done()
		for payload := range outbound {
			if err := conn.WriteJSON(payload); err != nil {
				close(done)
				for range outbound {
				}
				return
			}
		}
	}()

	send := func(payload interface{}) bool {
		select {
		case outbound <- payload:
			return true
		case <-done:
			return false
		}
	}

	subs := make(map[string]*realtime.Subscription)
	var forwardWg sync.WaitGroup

	for {
		var cmd wsCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			break
		}
		switch cmd.Action {
		case "subscribe":
			if _, ok := subs[cmd.Topic]; ok {
				continue
			}
			if !s.topicAllowed(userID, cmd.Topic) {
				send(gin.H{"error": "not authorized for topic", "topic": cmd.Topic})
				continue
			}
			// Subscribe before loading the snapshot: a mutation committed
			// while the snapshot query runs lands in the subscription buffer
			// instead of vanishing between the two.
			sub := s.Hub.Subscribe(cmd.Topic)
			snapshot, err := s.loadSnapshot(cmd.Topic)
			if err != nil {
				sub.Close()
				send(gin.H{"error": "failed to load snapshot", "topic": cmd.Topic})
				continue
			}
			if !send(realtime.Event{Topic: cmd.Topic, Snapshot: snapshot}) {
				sub.Close()
				continue
			}
			subs[cmd.Topic] = sub
			forwardWg.Add(1)
			go func(sub *realtime.Subscription) {
				defer forwardWg.Done()
				for ev := range sub.C {
					select {
					case outbound <- ev:
					case <-done:
						return
					}
				}
			}(sub)
		case "unsubscribe":
			if sub, ok := subs[cmd.Topic]; ok {
				sub.Close()
				delete(subs, cmd.Topic)
			}
		}
	}

	for _, sub := range subs {
		sub.Close()
	}
	forwardWg.Wait()
	close(outbound)
	writerWg.Wait()
}

// topicAllowed restricts a client to its own conversations and exchange
// views.
func (s *Server) topicAllowed(userID, topic string) bool {
	switch {
	case strings.HasPrefix(topic, "conversation:"):
		conversationID := strings.TrimPrefix(topic, "conversation:")
		for _, pid := range models.ParticipantIDs(conversationID) {
			if pid == userID {
				return true
			}
		}
		return false
	case strings.HasPrefix(topic, "exchanges:owner:"):
		return strings.TrimPrefix(topic, "exchanges:owner:") == userID
	case strings.HasPrefix(topic, "exchanges:requester:"):
		return strings.TrimPrefix(topic, "exchanges:requester:") == userID
	}
	return false
}

// loadSnapshot fetches the full current result set for a topic, retrying
// transient store failures with bounded backoff.
func (s *Server) loadSnapshot(topic string) (interface{}, error) {
	var snapshot interface{}
	err := realtime.Retry(realtime.DefaultRetryConfig(), "snapshot "+topic, func(_ context.Context) error {
		switch {
		case strings.HasPrefix(topic, "conversation:"):
			messages, err := s.MessageRepository.ListByConversation(strings.TrimPrefix(topic, "conversation:"))
			if err != nil {
				return err
			}
			snapshot = messages
		case strings.HasPrefix(topic, "exchanges:owner:"):
			exchanges, err := s.ExchangeRepository.ListByOwner(strings.TrimPrefix(topic, "exchanges:owner:"))
			if err != nil {
				return err
			}
			snapshot = exchanges
		case strings.HasPrefix(topic, "exchanges:requester:"):
			exchanges, err := s.ExchangeRepository.ListByRequester(strings.TrimPrefix(topic, "exchanges:requester:"))
			if err != nil {
				return err
			}
			snapshot = exchanges
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}
