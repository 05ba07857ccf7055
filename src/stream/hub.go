package stream

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	logger "github.com/sirupsen/logrus"

	"github.com/jimmer89/bloop-tracker/src/model"
)

// Event is one processed webhook, fanned out to live subscribers.
type Event struct {
	ID          string             `json:"id"`
	Signal      string             `json:"signal"`
	Price       float64            `json:"price"`
	Symbol      string             `json:"symbol"`
	Timestamp   string             `json:"timestamp"`
	ClosedTrade *model.ClosedTrade `json:"closed_trade,omitempty"`
}

const subscriberBuffer = 16

// Hub fans processed signals out to websocket subscribers. Publishing never
// blocks the ingest path: a subscriber that cannot keep up is dropped.
type Hub struct {
	mu          sync.Mutex
	subscribers map[chan Event]struct{}

	upgrader websocket.Upgrader
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[chan Event]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Publish delivers the event to every subscriber that has buffer room.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subscribers {
		select {
		case ch <- ev:
		default:
			delete(h.subscribers, ch)
			close(ch)

			logger.WithField("component", "StreamHub").
				Warn("Dropped slow live-feed subscriber")
		}
	}
}

// Subscribe registers a new event channel. The returned cancel func must be
// called when the subscriber goes away.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()

		if _, ok := h.subscribers[ch]; ok {
			delete(h.subscribers, ch)
			close(ch)
		}
	}
	return ch, cancel
}

// SubscriberCount reports how many live subscribers are attached.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// HandleWS upgrades the request and streams events until the client drops.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WithError(err).Error("Failed to upgrade live-feed connection")
		return
	}
	defer conn.Close()

	events, cancel := h.Subscribe()
	defer cancel()

	// Reader goroutine only notices the client going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
