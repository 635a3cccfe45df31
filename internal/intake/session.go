package intake

import "sync"

type State int

const (
	StateIdle State = iota
	StateAwaitingMedia
	StateAwaitingTitleLat
	StateAwaitingTitleKiril
	StateAwaitingTitleRu
	StateAwaitingDescLat
	StateAwaitingDescKiril
	StateAwaitingDescRu
	StateAwaitingCategory
	StateAwaitingNewCategoryName
	StateAwaitingConfirmation

	// category-only flow
	StateAwaitingCategoryName
)

// Draft accumulates a video's fields across chat turns. It lives only inside
// a Session and is discarded on commit, cancel or context switch.
type Draft struct {
	FileID       string
	TitleLat     string
	TitleKiril   string
	TitleRu      string
	DescLat      string
	DescKiril    string
	DescRu       string
	CategoryID   string
	CategoryName string
}

// Session is one in-progress conversational flow for a chat.
type Session struct {
	State State
	Draft Draft
}

// SessionStore maps chat IDs to their single active session. Sessions are
// held in process memory only; a restart drops them all, which is what
// produces the stale-session path.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[int64]*Session)}
}

func (s *SessionStore) Get(chatID int64) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[chatID]
	return sess, ok
}

func (s *SessionStore) Put(chatID int64, sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[chatID] = sess
}

func (s *SessionStore) Clear(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, chatID)
}
