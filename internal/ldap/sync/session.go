package sync

import (
	"fmt"
	"sync"
	"time"
)

// QueueNode is one change enqueued for delivery to a persistent-search
// session (spec §4.8, SyncQueueNode).
type QueueNode struct {
	ChangeNumber int64
	EntryUUID    string
	DN           string
	Action       Action
}

// ErrTooManySessions is returned by Manager.Register when the configured
// session limit is already reached (spec §4.8: "Max concurrent sessions
// is enforced at registration; overflow ⇒ UnwillingToPerform").
var ErrTooManySessions = fmt.Errorf("sync: too many concurrent persistent search sessions")

// Session is one active refreshAndPersist search: a FIFO queue guarded by
// a condition variable, matching the original's per-session worker model
// (spec §4.8).
type Session struct {
	ID     string
	Cookie Cookie

	// FilterMatches reports whether a change to dn is in scope for this
	// session; supplied by the caller since filter evaluation lives
	// outside this package.
	FilterMatches func(dn string) bool

	mu       sync.Mutex
	cond     *sync.Cond
	queue    []*QueueNode
	active   bool
	complete bool
	tickerStop chan struct{}
}

// NewSession returns a session in the inactive state; call SetActive(true)
// once the initial refresh has finished so queued changes begin draining
// (spec §4.7 step 4: "register a persistent session before refresh begins
// so mods during refresh are queued").
func NewSession(id string, cookie Cookie, filterMatches func(dn string) bool) *Session {
	s := &Session{
		ID:            id,
		Cookie:        cookie,
		FilterMatches: filterMatches,
		tickerStop:    make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	go s.ticker()
	return s
}

// ticker periodically wakes the worker so it can re-check abandon status
// even with nothing enqueued (spec §4.8: "timed-wait up to 1s on the
// CV"; spec §5: "persistent-search workers re-check abandon every
// second").
func (s *Session) ticker() {
	t := time.NewTicker(time.Second)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			s.mu.Lock()
			s.cond.Broadcast()
			s.mu.Unlock()
		case <-s.tickerStop:
			return
		}
	}
}

// SetActive marks the session ready to drain its queue.
func (s *Session) SetActive(active bool) {
	s.mu.Lock()
	s.active = active
	s.mu.Unlock()
	s.cond.Broadcast()
}

// Enqueue clones node onto the session's tail and wakes its worker (spec
// §4.8: "a SyncQueueNode is cloned and enqueued at the session's tail;
// then all worker threads are notified").
func (s *Session) Enqueue(node QueueNode) {
	s.mu.Lock()
	s.queue = append(s.queue, &node)
	s.mu.Unlock()
	s.cond.Broadcast()
}

// Terminate marks the session complete. It does not itself broadcast the
// condition variable — the worker notices within one tick of the ticker
// goroutine above, mirroring sync_persist_terminate_all in
// original_source, which relies on the same bounded 1-second wait rather
// than an explicit wake (see DESIGN.md Open Questions).
func (s *Session) Terminate() {
	s.mu.Lock()
	s.complete = true
	s.mu.Unlock()
}

// QueueLen reports the current queue depth, for metrics/tests.
func (s *Session) QueueLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Run drives the session's dedicated worker loop (spec §4.8): while not
// complete, wait for a queued change (re-checking abandoned every
// second); on abandon, break; otherwise pop the head, release the lock,
// let the caller re-check ACLs and send the entry (send must not be
// called with the session lock held), then loop. Run returns once the
// session is complete or abandoned, and stops the session's ticker.
func (s *Session) Run(abandoned func() bool, acl func(*QueueNode) bool, send func(*QueueNode) error) {
	defer close(s.tickerStop)

	for {
		s.mu.Lock()
		for !s.complete && (len(s.queue) == 0 || !s.active) {
			if abandoned != nil && abandoned() {
				s.complete = true
				break
			}
			s.cond.Wait()
		}
		if s.complete {
			s.mu.Unlock()
			return
		}

		node := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		if acl != nil && !acl(node) {
			continue
		}
		_ = send(node) // best-effort; transport errors are handled by the caller's connection teardown
	}
}

// Manager is the global registry of active persistent-search sessions,
// enforcing the configured concurrency limit (spec §4.8).
type Manager struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	maxSessions int
}

// NewManager returns a Manager that allows up to maxSessions concurrent
// sessions.
func NewManager(maxSessions int) *Manager {
	return &Manager{sessions: make(map[string]*Session), maxSessions: maxSessions}
}

// Register adds s to the registry, or returns ErrTooManySessions if the
// limit is already reached.
func (m *Manager) Register(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sessions) >= m.maxSessions {
		return ErrTooManySessions
	}
	m.sessions[s.ID] = s
	return nil
}

// Unregister removes a session from the registry (does not terminate its
// worker; call Terminate first).
func (m *Manager) Unregister(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Count reports the number of currently registered sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// NotifyChange enqueues node onto every registered session whose
// FilterMatches reports true for dn (spec §4.8: "for each backend
// post-op... in scope of any session whose filter matches... a
// SyncQueueNode is cloned and enqueued").
func (m *Manager) NotifyChange(dn string, node QueueNode) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.sessions {
		if s.FilterMatches == nil || s.FilterMatches(dn) {
			s.Enqueue(node)
		}
	}
}

// TerminateAll marks every registered session complete (spec §4.8,
// sync_persist_terminate_all).
func (m *Manager) TerminateAll() {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.sessions {
		s.Terminate()
	}
}
