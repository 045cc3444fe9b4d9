package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type gauge struct {
	mu sync.Mutex
	n  int
}

func (g *gauge) SetActiveSessions(n int) {
	g.mu.Lock()
	g.n = n
	g.mu.Unlock()
}

func newTestStore(t *testing.T, opts Options) (*Store, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	if opts.Home == "" {
		opts.Home = t.TempDir()
	}
	opts.Clock = clock.Now
	return NewStore(opts, nil), clock
}

func errText(s string) *string { return &s }

func TestCreateAndGet(t *testing.T) {
	store, clock := newTestStore(t, Options{})

	snap := store.Create()
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, store.Home(), snap.Cwd)
	assert.Empty(t, snap.History)
	assert.Equal(t, clock.Now(), snap.CreatedAt)

	got, err := store.Get(snap.ID)
	require.NoError(t, err)
	assert.Equal(t, snap.ID, got.ID)
	assert.Equal(t, 1, store.Len())
}

func TestCreateDistinctIDs(t *testing.T) {
	store, _ := newTestStore(t, Options{})

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		sid := store.Create().ID
		assert.False(t, seen[sid], "duplicate id %s", sid)
		seen[sid] = true
	}
}

func TestGetUnknown(t *testing.T) {
	store, _ := newTestStore(t, Options{})

	_, err := store.Get("nope")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, 0, store.Len(), "get must never create")
}

func TestDelete(t *testing.T) {
	store, _ := newTestStore(t, Options{})
	snap := store.Create()

	require.NoError(t, store.Delete(snap.ID))
	_, err := store.Get(snap.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, store.Delete(snap.ID), ErrNotFound)
}

func TestEnsure(t *testing.T) {
	store, _ := newTestStore(t, Options{})

	first, created := store.Ensure("client-chosen")
	assert.True(t, created)
	assert.Equal(t, "client-chosen", first.ID)

	again, created := store.Ensure("client-chosen")
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	fresh, created := store.Ensure("")
	assert.True(t, created)
	assert.NotEqual(t, first.ID, fresh.ID)
	assert.Equal(t, 2, store.Len())
}

func TestEnsureConcurrent(t *testing.T) {
	store, _ := newTestStore(t, Options{})

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := store.Ensure("shared"); ok {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, 1, store.Len())
}

func TestSetCwd(t *testing.T) {
	store, _ := newTestStore(t, Options{})
	snap := store.Create()
	dir := t.TempDir()

	require.NoError(t, store.SetCwd(snap.ID, dir))
	cwd, err := store.Cwd(snap.ID)
	require.NoError(t, err)
	assert.Equal(t, dir, cwd)

	file := filepath.Join(dir, "f")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	assert.ErrorIs(t, store.SetCwd(snap.ID, file), ErrNotDirectory)
	assert.Error(t, store.SetCwd(snap.ID, filepath.Join(dir, "missing")))

	cwd, _ = store.Cwd(snap.ID)
	assert.Equal(t, dir, cwd, "failed update must leave cwd unchanged")

	assert.ErrorIs(t, store.SetCwd("nope", dir), ErrNotFound)
}

func TestAppendAndClearHistory(t *testing.T) {
	store, clock := newTestStore(t, Options{})
	snap := store.Create()

	require.NoError(t, store.Append(snap.ID, Entry{Command: "ls", Output: "a\n"}))
	require.NoError(t, store.Append(snap.ID, Entry{Command: "false", Error: errText("boom"), ExitCode: 1}))

	got, err := store.Get(snap.ID)
	require.NoError(t, err)
	require.Len(t, got.History, 2)
	assert.Equal(t, "ls", got.History[0].Command)
	assert.Equal(t, clock.Now(), got.History[0].Timestamp)
	assert.Equal(t, "boom", *got.History[1].Error)

	require.NoError(t, store.ClearHistory(snap.ID))
	got, _ = store.Get(snap.ID)
	assert.Empty(t, got.History)

	assert.ErrorIs(t, store.Append("nope", Entry{}), ErrNotFound)
	assert.ErrorIs(t, store.ClearHistory("nope"), ErrNotFound)
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	store, _ := newTestStore(t, Options{})
	snap := store.Create()
	require.NoError(t, store.Append(snap.ID, Entry{Command: "x", Error: errText("e")}))

	got, _ := store.Get(snap.ID)
	got.History[0].Command = "mutated"
	*got.History[0].Error = "mutated"

	again, _ := store.Get(snap.ID)
	assert.Equal(t, "x", again.History[0].Command)
	assert.Equal(t, "e", *again.History[0].Error)
}

func TestList(t *testing.T) {
	store, clock := newTestStore(t, Options{})
	a := store.Create()
	clock.Advance(time.Second)
	b := store.Create()
	require.NoError(t, store.Append(b.ID, Entry{Command: "pwd"}))

	list := store.List()
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Equal(t, b.ID, list[1].ID)
	assert.Equal(t, 1, list[1].HistoryCount)
}

func TestSweepTTL(t *testing.T) {
	store, clock := newTestStore(t, Options{TTL: time.Minute})
	g := &gauge{}
	store.WithObserver(g)

	var evictedIDs []string
	store.OnEvict(func(id string) { evictedIDs = append(evictedIDs, id) })

	idle := store.Create()
	clock.Advance(30 * time.Second)
	active := store.Create()
	clock.Advance(45 * time.Second)

	_, err := store.Get(active.ID)
	require.NoError(t, err)

	evicted := store.Sweep(clock.Now())
	assert.Equal(t, []string{idle.ID}, evicted)
	assert.Equal(t, []string{idle.ID}, evictedIDs)
	assert.True(t, store.Exists(active.ID))
	assert.Equal(t, 1, g.n)
}

func TestSweepDisabledByDefault(t *testing.T) {
	store, clock := newTestStore(t, Options{})
	store.Create()
	clock.Advance(24 * time.Hour)

	assert.Empty(t, store.Sweep(clock.Now()))
	assert.Equal(t, 1, store.Len())
}

func TestMaxSessionsEvictsLRU(t *testing.T) {
	store, clock := newTestStore(t, Options{MaxSessions: 2})

	a := store.Create()
	clock.Advance(time.Second)
	b := store.Create()
	clock.Advance(time.Second)
	_, _ = store.Get(a.ID)
	clock.Advance(time.Second)

	c := store.Create()
	assert.Equal(t, 2, store.Len())
	assert.True(t, store.Exists(a.ID))
	assert.False(t, store.Exists(b.ID))
	assert.True(t, store.Exists(c.ID))
}

func TestRunReturnsWhenTTLDisabled(t *testing.T) {
	store, _ := newTestStore(t, Options{})

	done := make(chan struct{})
	go func() {
		store.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run should return immediately without a TTL")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	store := NewStore(Options{Home: t.TempDir(), TTL: time.Millisecond, SweepInterval: 5 * time.Millisecond}, nil)
	store.Create()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		store.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}
