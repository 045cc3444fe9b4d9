package tools

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astraterm/astraterm/internal/shell"
)

type fakeRunner struct {
	mu    sync.Mutex
	specs []shell.Spec
	res   shell.Result
}

func (f *fakeRunner) Run(_ context.Context, spec shell.Spec) shell.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.specs = append(f.specs, spec)
	return f.res
}

func (f *fakeRunner) last(t *testing.T) shell.Spec {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.specs, "runner was never called")
	return f.specs[len(f.specs)-1]
}

func found(string) (string, error) { return "/usr/bin/x", nil }

func missing(file string) (string, error) { return "", errors.New(file + ": not found") }

func testDeps(r *fakeRunner, look func(string) (string, error)) Deps {
	return Deps{
		Runner:         r,
		LookPath:       look,
		InstallTimeout: time.Minute,
		RunTimeout:     time.Second * 30,
	}
}

func TestNmapDefaultArgs(t *testing.T) {
	r := &fakeRunner{res: shell.OK("scan done\n")}
	n := NewNmap(testDeps(r, found))

	res, err := n.Run(context.Background(), Request{Target: "10.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, "scan done\n", res.Output)

	spec := r.last(t)
	assert.Equal(t, []string{"nmap", "-sV", "-sC", "10.0.0.1"}, spec.Argv)
	assert.Equal(t, 30*time.Second, spec.Timeout)
}

func TestNmapPresetAndExtraArgs(t *testing.T) {
	r := &fakeRunner{}
	n := NewNmap(testDeps(r, found))

	_, err := n.Run(context.Background(), Request{Action: "quick", Target: "example.com", Args: "-p 80"})
	require.NoError(t, err)
	assert.Equal(t, []string{"nmap", "-F", "-p", "80", "example.com"}, r.last(t).Argv)
}

func TestNmapRejects(t *testing.T) {
	r := &fakeRunner{}
	n := NewNmap(testDeps(r, found))
	ctx := context.Background()

	_, err := n.Run(ctx, Request{Target: ""})
	assert.ErrorIs(t, err, ErrInvalidTarget)

	_, err = n.Run(ctx, Request{Target: "--script=evil"})
	assert.ErrorIs(t, err, ErrInvalidTarget)

	_, err = n.Run(ctx, Request{Target: "a b"})
	assert.ErrorIs(t, err, ErrInvalidTarget)

	_, err = n.Run(ctx, Request{Action: "teleport", Target: "host"})
	assert.ErrorIs(t, err, ErrUnknownAction)

	assert.Empty(t, r.specs)
}

func TestNmapNotInstalled(t *testing.T) {
	r := &fakeRunner{}
	n := NewNmap(testDeps(r, missing))

	assert.False(t, n.IsAvailable())
	_, err := n.Run(context.Background(), Request{Target: "host"})
	assert.ErrorIs(t, err, ErrNotInstalled)
}

func TestNmapInstallUsesInstallTimeout(t *testing.T) {
	r := &fakeRunner{res: shell.OK("")}
	n := NewNmap(testDeps(r, missing))

	res := n.Install(context.Background())
	assert.True(t, res.Success())

	spec := r.last(t)
	assert.Equal(t, []string{"apt", "install", "-y", "nmap"}, spec.Argv)
	assert.Equal(t, time.Minute, spec.Timeout)
}

func TestDistro(t *testing.T) {
	r := &fakeRunner{}
	d := NewDistro(testDeps(r, found))
	ctx := context.Background()

	_, err := d.Run(ctx, Request{Action: "install", Target: "kali"})
	require.NoError(t, err)
	assert.Equal(t, []string{"proot-distro", "install", "kali"}, r.last(t).Argv)

	_, err = d.Run(ctx, Request{Action: "list"})
	require.NoError(t, err)
	assert.Equal(t, []string{"proot-distro", "list"}, r.last(t).Argv)

	_, err = d.Run(ctx, Request{Action: "install", Target: "windows"})
	assert.ErrorIs(t, err, ErrInvalidTarget)

	_, err = d.Run(ctx, Request{Action: "login", Target: "kali"})
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestMetasploitConsole(t *testing.T) {
	r := &fakeRunner{}
	m := NewMetasploit(testDeps(r, found))

	_, err := m.Run(context.Background(), Request{Target: "version;"})
	require.NoError(t, err)
	assert.Equal(t, []string{"msfconsole", "-q", "-x", "version; exit"}, r.last(t).Argv)

	_, err = m.Run(context.Background(), Request{Target: "  "})
	assert.ErrorIs(t, err, ErrInvalidTarget)
}

func TestOSINTCommands(t *testing.T) {
	r := &fakeRunner{}
	o := NewOSINT(OSINTConfig{Deps: testDeps(r, found)})
	ctx := context.Background()

	_, err := o.Run(ctx, Request{Action: "sherlock", Target: "alice", Args: "--timeout 5"})
	require.NoError(t, err)
	assert.Equal(t, []string{"sherlock", "alice", "--timeout", "5"}, r.last(t).Argv)

	_, err = o.Run(ctx, Request{Action: "theharvester", Target: "example.com", Args: "-b bing"})
	require.NoError(t, err)
	assert.Equal(t, []string{"theHarvester", "-d", "example.com", "-b", "bing"}, r.last(t).Argv)

	_, err = o.Run(ctx, Request{Action: "shodan", Target: "apache port:80"})
	require.NoError(t, err)
	assert.Equal(t, []string{"shodan", "search", "apache port:80"}, r.last(t).Argv)
}

func TestHaveIBeenPwned(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("hibp-api-key")
		switch r.URL.Path {
		case "/breachedaccount/clean@example.com":
			w.WriteHeader(http.StatusNotFound)
		case "/breachedaccount/leaky@example.com":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[{"Name":"Adobe","BreachDate":"2013-10-04"},{"Name":"LinkedIn","BreachDate":"2012-05-05"}]`))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer srv.Close()

	o := NewOSINT(OSINTConfig{
		Deps:        testDeps(&fakeRunner{}, missing),
		HIBPBaseURL: srv.URL,
		HIBPKey:     "k-123",
	})
	ctx := context.Background()

	res, err := o.Run(ctx, Request{Action: "haveibeenpwned", Target: "clean@example.com"})
	require.NoError(t, err)
	assert.True(t, res.Success())
	assert.Equal(t, "Good news! Email 'clean@example.com' not found in any breaches.\n", res.Output)
	assert.Equal(t, "k-123", gotKey)

	res, err = o.Run(ctx, Request{Action: "haveibeenpwned", Target: "leaky@example.com"})
	require.NoError(t, err)
	assert.Contains(t, res.Output, "found in 2 breaches")
	assert.Contains(t, res.Output, "- Adobe (2013-10-04)\n")
	assert.Contains(t, res.Output, "- LinkedIn (2012-05-05)\n")

	_, err = o.Run(ctx, Request{Action: "haveibeenpwned", Target: "not-an-email"})
	assert.ErrorIs(t, err, ErrInvalidTarget)
}

func TestOSINTRequiresBinaries(t *testing.T) {
	o := NewOSINT(OSINTConfig{Deps: testDeps(&fakeRunner{}, missing)})

	assert.True(t, o.IsAvailable())
	_, err := o.Run(context.Background(), Request{Action: "sherlock", Target: "alice"})
	assert.ErrorIs(t, err, ErrNotInstalled)
}
