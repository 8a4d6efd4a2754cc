package stream

import "sync"

// sessionBuffer bounds how far a client may fall behind before events are
// dropped for that session. Live delivery is best effort; the durable
// notification store is the fallback for anything missed.
const sessionBuffer = 16

// Session is one live client connection's event feed.
type Session struct {
	userID string
	ch     chan Envelope
	hub    *Hub
	once   sync.Once
}

// Events is the channel the connection handler drains.
func (s *Session) Events() <-chan Envelope {
	return s.ch
}

// Close detaches the session from the hub.
func (s *Session) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
	})
}

// Hub tracks live sessions per user and delivers envelopes to them. A user
// may hold several sessions (multiple tabs); a user with none simply misses
// the event.
type Hub struct {
	mu       sync.Mutex
	sessions map[string]map[*Session]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{sessions: make(map[string]map[*Session]struct{})}
}

// Subscribe registers a new session for the user.
func (h *Hub) Subscribe(userID string) *Session {
	s := &Session{userID: userID, ch: make(chan Envelope, sessionBuffer)}
	s.hub = h
	h.mu.Lock()
	if h.sessions[userID] == nil {
		h.sessions[userID] = make(map[*Session]struct{})
	}
	h.sessions[userID][s] = struct{}{}
	h.mu.Unlock()
	return s
}

func (h *Hub) remove(s *Session) {
	h.mu.Lock()
	if set := h.sessions[s.userID]; set != nil {
		delete(set, s)
		if len(set) == 0 {
			delete(h.sessions, s.userID)
		}
	}
	h.mu.Unlock()
}

// Deliver sends the envelope to every live session of one user. Sends never
// block: a session whose buffer is full is skipped, so one stalled client
// cannot hold up delivery to anyone else.
func (h *Hub) Deliver(userID string, env Envelope) {
	h.mu.Lock()
	for s := range h.sessions[userID] {
		select {
		case s.ch <- env:
		default:
		}
	}
	h.mu.Unlock()
}

// SessionCount reports the number of live sessions for a user.
func (h *Hub) SessionCount(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions[userID])
}
