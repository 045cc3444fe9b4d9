package session

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/astraterm/astraterm/internal/shared/id"
)

const defaultSweepInterval = time.Minute

// Observer is notified whenever the number of live sessions changes
type Observer interface {
	SetActiveSessions(n int)
}

// Options configures a Store
type Options struct {
	// Home is the initial cwd of new sessions
	Home string
	// TTL evicts sessions idle for longer than this; zero disables it
	TTL time.Duration
	// MaxSessions caps live sessions with LRU eviction; zero disables it
	MaxSessions int
	// SweepInterval is the janitor period used by Run
	SweepInterval time.Duration
	// Clock overrides time.Now in tests
	Clock func() time.Time
}

// Store is the registry of live sessions
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*session

	opts     Options
	logger   *zap.Logger
	observer Observer
	onEvict  []func(id string)
}

// NewStore creates an empty store
func NewStore(opts Options, logger *zap.Logger) *Store {
	if opts.Home == "" {
		if home, err := os.UserHomeDir(); err == nil {
			opts.Home = home
		} else {
			opts.Home = os.TempDir()
		}
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = defaultSweepInterval
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Store{
		sessions: make(map[string]*session),
		opts:     opts,
		logger:   logger,
	}
}

// WithObserver attaches a live-session gauge and returns the store
func (s *Store) WithObserver(o Observer) *Store {
	s.observer = o
	return s
}

// OnEvict registers a callback run after a session is evicted
func (s *Store) OnEvict(fn func(id string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEvict = append(s.onEvict, fn)
}

// Home returns the initial cwd of new sessions
func (s *Store) Home() string {
	return s.opts.Home
}

// Create starts a new session with a fresh id
func (s *Store) Create() Snapshot {
	snap, _ := s.Ensure("")
	return snap
}

// Ensure returns the session for sessionID, creating it if absent.
// An empty id always creates a session under a freshly generated id.
func (s *Store) Ensure(sessionID string) (Snapshot, bool) {
	now := s.opts.Clock()

	if sessionID != "" {
		if sess, ok := s.lookup(sessionID); ok {
			sess.touch(now)
			return sess.snapshot(), false
		}
	}

	s.mu.Lock()
	if sessionID == "" {
		sessionID = s.freshIDLocked()
	} else if sess, ok := s.sessions[sessionID]; ok {
		// Lost a create race; the winner's session is the one to use.
		s.mu.Unlock()
		sess.touch(now)
		return sess.snapshot(), false
	}

	evicted := s.enforceCapLocked()
	sess := newSession(sessionID, s.opts.Home, now)
	s.sessions[sessionID] = sess
	count := len(s.sessions)
	callbacks := s.onEvict
	s.mu.Unlock()

	s.afterEvict(evicted, callbacks)
	s.report(count)

	s.logger.Info("Session created",
		zap.String("session_id", sessionID),
		zap.String("cwd", s.opts.Home))

	return sess.snapshot(), true
}

// Get returns a snapshot of the session
func (s *Store) Get(sessionID string) (Snapshot, error) {
	sess, err := s.acquire(sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	return sess.snapshot(), nil
}

// Exists reports whether the session is live without touching it
func (s *Store) Exists(sessionID string) bool {
	_, ok := s.lookup(sessionID)
	return ok
}

// Delete removes the session
func (s *Store) Delete(sessionID string) error {
	s.mu.Lock()
	if _, ok := s.sessions[sessionID]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}
	delete(s.sessions, sessionID)
	count := len(s.sessions)
	s.mu.Unlock()

	s.report(count)
	s.logger.Info("Session deleted", zap.String("session_id", sessionID))
	return nil
}

// Cwd returns the current directory of the session
func (s *Store) Cwd(sessionID string) (string, error) {
	sess, err := s.acquire(sessionID)
	if err != nil {
		return "", err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.cwd, nil
}

// SetCwd updates the session cwd. dir must be an existing directory.
func (s *Store) SetCwd(sessionID, dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}

	sess, err := s.acquire(sessionID)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	sess.cwd = dir
	sess.mu.Unlock()
	return nil
}

// Append records a history entry
func (s *Store) Append(sessionID string, entry Entry) error {
	sess, err := s.acquire(sessionID)
	if err != nil {
		return err
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.opts.Clock()
	}
	if entry.Error != nil {
		msg := *entry.Error
		entry.Error = &msg
	}

	sess.mu.Lock()
	sess.history = append(sess.history, entry)
	sess.mu.Unlock()
	return nil
}

// ClearHistory drops every history entry of the session
func (s *Store) ClearHistory(sessionID string) error {
	sess, err := s.acquire(sessionID)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	sess.history = make([]Entry, 0, 16)
	sess.mu.Unlock()
	return nil
}

// List returns summaries ordered by creation time
func (s *Store) List() []Summary {
	s.mu.RLock()
	sessions := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.RUnlock()

	out := make([]Summary, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, sess.summary())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Len returns the number of live sessions
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep evicts sessions idle for longer than the TTL and returns their ids
func (s *Store) Sweep(now time.Time) []string {
	if s.opts.TTL <= 0 {
		return nil
	}

	s.mu.Lock()
	var evicted []string
	for sid, sess := range s.sessions {
		if now.Sub(sess.lastUsedAt()) > s.opts.TTL {
			delete(s.sessions, sid)
			evicted = append(evicted, sid)
		}
	}
	count := len(s.sessions)
	callbacks := s.onEvict
	s.mu.Unlock()

	if len(evicted) > 0 {
		sort.Strings(evicted)
		s.afterEvict(evicted, callbacks)
		s.report(count)
	}
	return evicted
}

// Run sweeps expired sessions until ctx is done. It returns immediately
// when TTL eviction is disabled.
func (s *Store) Run(ctx context.Context) {
	if s.opts.TTL <= 0 {
		return
	}

	ticker := time.NewTicker(s.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if evicted := s.Sweep(s.opts.Clock()); len(evicted) > 0 {
				s.logger.Info("Evicted idle sessions", zap.Int("count", len(evicted)))
			}
		}
	}
}

func (s *Store) lookup(sessionID string) (*session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	return sess, ok
}

// acquire looks up the session and marks it used
func (s *Store) acquire(sessionID string) (*session, error) {
	sess, ok := s.lookup(sessionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}
	sess.touch(s.opts.Clock())
	return sess, nil
}

func (s *Store) freshIDLocked() string {
	for {
		sid := id.NewSessionID().String()
		if _, taken := s.sessions[sid]; !taken {
			return sid
		}
	}
}

// enforceCapLocked evicts least recently used sessions so that one more
// fits under MaxSessions. Caller holds s.mu.
func (s *Store) enforceCapLocked() []string {
	if s.opts.MaxSessions <= 0 {
		return nil
	}

	var evicted []string
	for len(s.sessions) >= s.opts.MaxSessions {
		var (
			oldestID string
			oldest   time.Time
		)
		for sid, sess := range s.sessions {
			used := sess.lastUsedAt()
			if oldestID == "" || used.Before(oldest) {
				oldestID, oldest = sid, used
			}
		}
		delete(s.sessions, oldestID)
		evicted = append(evicted, oldestID)
	}
	return evicted
}

func (s *Store) afterEvict(ids []string, callbacks []func(string)) {
	for _, sid := range ids {
		s.logger.Info("Session evicted", zap.String("session_id", sid))
		for _, fn := range callbacks {
			fn(sid)
		}
	}
}

func (s *Store) report(n int) {
	if s.observer != nil {
		s.observer.SetActiveSessions(n)
	}
}
