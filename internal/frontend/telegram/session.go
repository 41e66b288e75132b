package telegram

import (
	"sync"

	"github.com/vadimtrunov/CineShelf/internal/browse"
	"github.com/vadimtrunov/CineShelf/internal/core"
)

// session is one user's pagination cursor.
type session struct {
	mu         sync.Mutex
	gen        int // bumped by begin; pages from older generations are dropped
	mode       browse.Mode
	query      string
	page       int
	totalPages int
	fetching   bool
	titles     map[int]string // titles seen so far, for the watchlist view
}

// cursor identifies one page request.
type cursor struct {
	gen   int
	mode  browse.Mode
	query string
	page  int
}

// begin switches the session to mode/query and returns the cursor for page 1.
func (s *session) begin(mode browse.Mode, query string) cursor {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.mode = mode
	s.query = query
	s.page = 0
	s.totalPages = 0
	s.fetching = true
	return cursor{gen: s.gen, mode: mode, query: query, page: 1}
}

// next returns the cursor for the following page. ok is false while a page
// is in flight or when the last page was already loaded.
func (s *session) next() (c cursor, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fetching || s.mode == browse.ModeIdle || s.page >= s.totalPages {
		return cursor{}, false
	}
	s.fetching = true
	return cursor{gen: s.gen, mode: s.mode, query: s.query, page: s.page + 1}, true
}

// record stores a fetched page. It reports false for a superseded cursor.
func (s *session) record(c cursor, p *core.MoviePage) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.gen != s.gen {
		return false
	}
	s.fetching = false
	s.page = p.Page
	s.totalPages = p.TotalPages
	if s.titles == nil {
		s.titles = make(map[int]string)
	}
	for _, m := range p.Results {
		s.titles[m.ID] = m.Title
	}
	return true
}

// abort clears the in-flight flag after a failed fetch.
func (s *session) abort(c cursor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.gen == s.gen {
		s.fetching = false
	}
}

// remember stores titles learned outside pagination.
func (s *session) remember(id int, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.titles == nil {
		s.titles = make(map[int]string)
	}
	s.titles[id] = title
}

// title returns a remembered title for id.
func (s *session) title(id int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.titles[id]
	return t, ok
}

// sessionManager manages per-user sessions and access control.
type sessionManager struct {
	mu       sync.Mutex
	sessions map[int64]*session
	allowed  map[int64]bool // nil or empty = allow all
}

// newSessionManager creates a session manager.
// If allowedUserIDs is empty, all users are allowed.
func newSessionManager(allowedUserIDs []int64) *sessionManager {
	allowed := make(map[int64]bool, len(allowedUserIDs))
	for _, id := range allowedUserIDs {
		allowed[id] = true
	}
	return &sessionManager{
		sessions: make(map[int64]*session),
		allowed:  allowed,
	}
}

// isAllowed checks if a user is authorized to use the bot.
func (sm *sessionManager) isAllowed(userID int64) bool {
	if len(sm.allowed) == 0 {
		return true
	}
	return sm.allowed[userID]
}

// getOrCreate returns the user's session, creating an idle one on first use.
func (sm *sessionManager) getOrCreate(userID int64) *session {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if s, ok := sm.sessions[userID]; ok {
		return s
	}
	s := &session{}
	sm.sessions[userID] = s
	return s
}

// reset clears a user's session.
func (sm *sessionManager) reset(userID int64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.sessions, userID)
}
