package httpapi

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/avezina/dmhub/internal/observability"
)

// Hub fans session events out to websocket subscribers. Delivery is best
// effort: a subscriber whose queue is full misses the event instead of
// blocking the turn that produced it.
type Hub struct {
	mu      sync.Mutex
	subs    map[int64]map[*Subscription]struct{}
	metrics *observability.Metrics
}

// Subscription is one subscriber's event queue. C is closed on Close.
type Subscription struct {
	C chan any

	hub       *Hub
	sessionID int64
	closed    bool
}

func NewHub(metrics *observability.Metrics) *Hub {
	return &Hub{
		subs:    make(map[int64]map[*Subscription]struct{}),
		metrics: metrics,
	}
}

func (h *Hub) Subscribe(sessionID int64) *Subscription {
	sub := &Subscription{
		C:         make(chan any, 32),
		hub:       h,
		sessionID: sessionID,
	}
	h.mu.Lock()
	set, ok := h.subs[sessionID]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[sessionID] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.WSSubscribers.Inc()
	}
	return sub
}

// Close unsubscribes and closes the queue. Safe to call once per
// subscription; sends and close are both serialized under the hub lock.
func (sub *Subscription) Close() {
	h := sub.hub
	h.mu.Lock()
	defer h.mu.Unlock()
	if sub.closed {
		return
	}
	sub.closed = true
	if set, ok := h.subs[sub.sessionID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, sub.sessionID)
		}
	}
	close(sub.C)
	if h.metrics != nil {
		h.metrics.WSSubscribers.Dec()
	}
}

// Broadcast delivers msg to every subscriber of the session.
func (h *Hub) Broadcast(sessionID int64, msg any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[sessionID] {
		select {
		case sub.C <- msg:
		default:
			if h.metrics != nil {
				h.metrics.WSDroppedEvents.Inc()
			}
		}
	}
}

const (
	wsWriteTimeout = 10 * time.Second
	wsReadTimeout  = 120 * time.Second
	wsPingInterval = 45 * time.Second
)

func (s *Server) handleSessionEvents(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if _, err := s.store.GetSession(r.Context(), id); err != nil {
		respondStoreError(w, err, "session_not_found")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sub := s.hub.Subscribe(id)
	defer sub.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// The read side only detects disconnects; subscribers never send
	// payloads of their own.
	go func() {
		defer cancel()
		conn.SetReadLimit(1 << 20)
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		conn.SetPongHandler(func(string) error {
			_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case msg, ok := <-sub.C:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}
}
