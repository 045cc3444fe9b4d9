package session

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrNotFound is returned for unknown session ids
	ErrNotFound = errors.New("session not found")
	// ErrNotDirectory is returned when a cwd update names a non-directory
	ErrNotDirectory = errors.New("not a directory")
)

// Entry is one recorded command execution
type Entry struct {
	Command   string    `json:"command"`
	Timestamp time.Time `json:"timestamp"`
	Output    string    `json:"output"`
	Error     *string   `json:"error"`
	ExitCode  int       `json:"exit_code"`
}

// Snapshot is a point-in-time copy of a session
type Snapshot struct {
	ID         string    `json:"session_id"`
	Cwd        string    `json:"cwd"`
	History    []Entry   `json:"history"`
	CreatedAt  time.Time `json:"created_at"`
	LastUsedAt time.Time `json:"last_used_at"`
}

// Summary is the list view of a session
type Summary struct {
	ID           string    `json:"session_id"`
	Cwd          string    `json:"cwd"`
	HistoryCount int       `json:"history_count"`
	CreatedAt    time.Time `json:"created_at"`
	LastUsedAt   time.Time `json:"last_used_at"`
}

type session struct {
	id        string
	createdAt time.Time

	mu       sync.Mutex
	cwd      string
	history  []Entry
	lastUsed time.Time
}

func newSession(id, cwd string, now time.Time) *session {
	return &session{
		id:        id,
		createdAt: now,
		cwd:       cwd,
		history:   make([]Entry, 0, 16),
		lastUsed:  now,
	}
}

func (s *session) touch(now time.Time) {
	s.mu.Lock()
	s.lastUsed = now
	s.mu.Unlock()
}

func (s *session) lastUsedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// snapshot copies the session. Caller must not hold s.mu.
func (s *session) snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := make([]Entry, len(s.history))
	for i, e := range s.history {
		if e.Error != nil {
			msg := *e.Error
			e.Error = &msg
		}
		history[i] = e
	}

	return Snapshot{
		ID:         s.id,
		Cwd:        s.cwd,
		History:    history,
		CreatedAt:  s.createdAt,
		LastUsedAt: s.lastUsed,
	}
}

func (s *session) summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Summary{
		ID:           s.id,
		Cwd:          s.cwd,
		HistoryCount: len(s.history),
		CreatedAt:    s.createdAt,
		LastUsedAt:   s.lastUsed,
	}
}
