package stream

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"

	"github.com/jimmer89/bloop-tracker/src/model"
)

func TestPublishReachesEverySubscriber(t *testing.T) {
	hub := NewHub()

	first, cancelFirst := hub.Subscribe()
	defer cancelFirst()
	second, cancelSecond := hub.Subscribe()
	defer cancelSecond()

	assert.Equal(t, 2, hub.SubscriberCount())

	hub.Publish(Event{ID: "abc", Signal: model.DirectionLong, Price: 100, Symbol: "USTEC"})

	for _, events := range []<-chan Event{first, second} {
		select {
		case ev := <-events:
			assert.Equal(t, "abc", ev.ID)
			assert.Equal(t, model.DirectionLong, ev.Signal)
		default:
			t.Fatalf("subscriber did not receive the event")
		}
	}
}

func TestSlowSubscriberIsDropped(t *testing.T) {
	hub := NewHub()

	events, cancel := hub.Subscribe()
	defer cancel()

	// Overflow the buffer without draining. The overflowing publish must
	// neither block nor panic, and the subscriber must be detached.
	for i := 0; i <= subscriberBuffer; i++ {
		hub.Publish(Event{ID: fmt.Sprintf("ev-%d", i)})
	}

	assert.Equal(t, 0, hub.SubscriberCount())

	// The channel was closed on drop; buffered events drain, then it reports closed.
	received := 0
	for range events {
		received++
	}
	assert.Equal(t, subscriberBuffer, received)
}

func TestCancelIsIdempotentAfterDrop(t *testing.T) {
	hub := NewHub()

	_, cancel := hub.Subscribe()

	for i := 0; i <= subscriberBuffer; i++ {
		hub.Publish(Event{})
	}

	// The hub already dropped the subscriber; cancel must not close twice.
	cancel()
	cancel()

	assert.Equal(t, 0, hub.SubscriberCount())
}

func TestHandleWSStreamsEvents(t *testing.T) {
	hub := NewHub()

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to dial websocket: %v", err)
	}
	defer conn.Close()

	// The subscription is registered during the upgrade handshake; wait for it.
	deadline := time.Now().Add(2 * time.Second)
	for hub.SubscriberCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("websocket client never subscribed")
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.Publish(Event{ID: "live-1", Signal: model.DirectionShort, Symbol: "USTEC"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("failed to read event from websocket: %v", err)
	}
	assert.Equal(t, "live-1", ev.ID)
	assert.Equal(t, model.DirectionShort, ev.Signal)

	conn.Close()

	deadline = time.Now().Add(2 * time.Second)
	for hub.SubscriberCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("subscriber not released after client close")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
