package realtime

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Router is the per-process registry of admitted sessions and their topic
// subscriptions. A member may hold several sessions at once (one per tab);
// each is tracked independently by session id.
type Router struct {
	mu            sync.RWMutex
	sessions      map[string]*Connection            // sessionID -> connection
	topics        map[string]map[string]*Connection // topic -> sessionID -> connection
	sessionTopics map[string]map[string]struct{}    // sessionID -> set of topics
}

// NewRouter constructs an initialized Router.
func NewRouter() *Router {
	return &Router{
		sessions:      make(map[string]*Connection),
		topics:        make(map[string]map[string]*Connection),
		sessionTopics: make(map[string]map[string]struct{}),
	}
}

// Attach registers an admitted connection and starts its write loop. A
// connection that closes itself (write failure, full buffer) is detached.
func (r *Router) Attach(conn *Connection) {
	r.mu.Lock()
	r.sessions[conn.ID] = conn
	r.sessionTopics[conn.ID] = make(map[string]struct{})
	r.mu.Unlock()

	conn.Start()
	go func() {
		<-conn.Done()
		r.Detach(conn)
	}()
}

// Detach removes a connection and all of its subscriptions. It reports
// whether the connection was still tracked; repeated calls are no-ops.
// Once Detach returns no Broadcast can reach conn.
func (r *Router) Detach(conn *Connection) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.detachLocked(conn.ID)
}

// Subscribe adds the connection to topic. It returns false when the
// connection is not attached.
func (r *Router) Subscribe(topic string, conn *Connection) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[conn.ID]; !ok {
		return false
	}

	subs := r.topics[topic]
	if subs == nil {
		subs = make(map[string]*Connection)
		r.topics[topic] = subs
	}
	subs[conn.ID] = conn
	r.sessionTopics[conn.ID][topic] = struct{}{}
	return true
}

// Unsubscribe removes the connection from topic.
func (r *Router) Unsubscribe(topic string, conn *Connection) {
	r.mu.Lock()
	r.leaveLocked(topic, conn.ID)
	r.mu.Unlock()
}

// Broadcast writes payload to every session subscribed to topic and returns
// how many accepted it. Sessions that are gone are skipped, not queued.
func (r *Router) Broadcast(topic string, payload []byte) int {
	// Send never blocks (an overflowing session is closed in the background),
	// so holding the read lock keeps Detach ordered against in-flight deliveries.
	r.mu.RLock()
	defer r.mu.RUnlock()

	delivered := 0
	for _, conn := range r.topics[topic] {
		if err := conn.Send(payload); err == nil {
			delivered++
		}
	}
	return delivered
}

// Len returns the number of attached sessions.
func (r *Router) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Close terminates all tracked connections and clears router state.
func (r *Router) Close() {
	r.mu.Lock()
	sessions := make([]*Connection, 0, len(r.sessions))
	for _, conn := range r.sessions {
		sessions = append(sessions, conn)
	}
	r.sessions = make(map[string]*Connection)
	r.topics = make(map[string]map[string]*Connection)
	r.sessionTopics = make(map[string]map[string]struct{})
	r.mu.Unlock()

	for _, conn := range sessions {
		conn.Close(websocket.CloseGoingAway, "server shutdown")
	}
}

func (r *Router) detachLocked(sessionID string) bool {
	if _, ok := r.sessions[sessionID]; !ok {
		return false
	}
	delete(r.sessions, sessionID)
	for topic := range r.sessionTopics[sessionID] {
		r.leaveLocked(topic, sessionID)
	}
	delete(r.sessionTopics, sessionID)
	return true
}

func (r *Router) leaveLocked(topic string, sessionID string) {
	subs := r.topics[topic]
	if subs == nil {
		return
	}
	delete(subs, sessionID)
	if len(subs) == 0 {
		delete(r.topics, topic)
	}
	if memberships, ok := r.sessionTopics[sessionID]; ok {
		delete(memberships, topic)
	}
}
