// Package terminal interprets terminal input for a session.
//
// The Controller recognizes the built-ins clear, cd, history, exit and quit,
// and hands everything else to the shell executor with the session's cwd.
// Shell commands are always recorded in the session history, whatever their
// outcome; built-ins never are.
package terminal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/astraterm/astraterm/internal/domain/session"
	"github.com/astraterm/astraterm/internal/shell"
)

// ErrSessionNotFound is returned for unknown session ids
var ErrSessionNotFound = session.ErrNotFound

// Executor runs shell commands
type Executor interface {
	Execute(ctx context.Context, command, cwd string) shell.Result
}

// Recorder mirrors history entries into long-term storage
type Recorder interface {
	Record(ctx context.Context, sessionID string, entry session.Entry) error
}

// Outcome is the result of handling one line of input
type Outcome struct {
	Command string       `json:"command"`
	Kind    Kind         `json:"-"`
	Result  shell.Result `json:"result"`
}

// Exit reports whether the session should be closed
func (o Outcome) Exit() bool {
	return o.Kind == KindExit
}

// Controller applies commands to sessions
type Controller struct {
	store    *session.Store
	executor Executor
	recorder Recorder
	logger   *zap.Logger
}

// NewController creates a controller
func NewController(store *session.Store, executor Executor, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		store:    store,
		executor: executor,
		logger:   logger,
	}
}

// WithRecorder mirrors every recorded entry to r
func (c *Controller) WithRecorder(r Recorder) *Controller {
	c.recorder = r
	return c
}

// Store returns the backing session store
func (c *Controller) Store() *session.Store {
	return c.store
}

// Handle interprets one line of input for the session
func (c *Controller) Handle(ctx context.Context, sessionID, raw string) (Outcome, error) {
	cwd, err := c.store.Cwd(sessionID)
	if err != nil {
		return Outcome{}, err
	}

	kind, arg := Classify(raw)
	out := Outcome{Command: strings.TrimSpace(raw), Kind: kind}

	switch kind {
	case KindNoop, KindClear, KindExit:
		out.Result = shell.OK("")

	case KindCd:
		out.Result = c.changeDir(sessionID, cwd, arg)

	case KindHistory:
		out.Result, err = c.listHistory(sessionID)
		if err != nil {
			return Outcome{}, err
		}

	case KindShell:
		start := time.Now()
		// Classification trims; the shell and the history get the line as typed.
		out.Result = c.executor.Execute(ctx, raw, cwd)
		if err := c.record(ctx, sessionID, raw, start, out.Result); err != nil {
			return Outcome{}, err
		}
	}

	return out, nil
}

// Replay runs commands in order through Handle. It stops early on exit or
// when ctx is done.
func (c *Controller) Replay(ctx context.Context, sessionID string, commands []string) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(commands))
	for _, cmd := range commands {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}

		out, err := c.Handle(ctx, sessionID, cmd)
		if err != nil {
			return outcomes, err
		}
		outcomes = append(outcomes, out)
		if out.Exit() {
			break
		}
	}
	return outcomes, nil
}

// Transcript renders the session history in the saved-session format
func (c *Controller) Transcript(sessionID string) (string, error) {
	snap, err := c.store.Get(sessionID)
	if err != nil {
		return "", err
	}
	return session.Transcript(snap), nil
}

// SearchHistory returns entries whose command contains query, ignoring case
func (c *Controller) SearchHistory(sessionID, query string) ([]session.Entry, error) {
	snap, err := c.store.Get(sessionID)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	matches := make([]session.Entry, 0)
	for _, e := range snap.History {
		if strings.Contains(strings.ToLower(e.Command), needle) {
			matches = append(matches, e)
		}
	}
	return matches, nil
}

func (c *Controller) changeDir(sessionID, cwd, arg string) shell.Result {
	target := c.resolvePath(cwd, arg)

	resolved, err := filepath.EvalSymlinks(target)
	if err == nil {
		var info os.FileInfo
		if info, err = os.Stat(resolved); err == nil && !info.IsDir() {
			err = session.ErrNotDirectory
		}
	}
	if err == nil {
		err = c.store.SetCwd(sessionID, resolved)
	}
	if err != nil {
		c.logger.Debug("cd failed",
			zap.String("session_id", sessionID),
			zap.String("target", target),
			zap.Error(err))
		return shell.Failure("Directory not found: "+arg, shell.ExitFailure)
	}

	return shell.OK("")
}

func (c *Controller) resolvePath(cwd, arg string) string {
	home := c.store.Home()
	switch {
	case arg == "" || arg == "~":
		return home
	case strings.HasPrefix(arg, "~/"):
		return filepath.Join(home, arg[2:])
	case filepath.IsAbs(arg):
		return filepath.Clean(arg)
	default:
		return filepath.Join(cwd, arg)
	}
}

func (c *Controller) listHistory(sessionID string) (shell.Result, error) {
	snap, err := c.store.Get(sessionID)
	if err != nil {
		return shell.Result{}, err
	}

	var b strings.Builder
	for i, e := range snap.History {
		fmt.Fprintf(&b, "%5d  %s\n", i+1, e.Command)
	}
	return shell.OK(b.String()), nil
}

func (c *Controller) record(ctx context.Context, sessionID, command string, at time.Time, res shell.Result) error {
	entry := session.Entry{
		Command:   command,
		Timestamp: at,
		Output:    res.Output,
		Error:     res.Error,
		ExitCode:  res.ExitCode,
	}

	if err := c.store.Append(sessionID, entry); err != nil {
		return fmt.Errorf("failed to record history: %w", err)
	}

	if c.recorder != nil {
		// The request context may already be cancelled; archiving still happens.
		if err := c.recorder.Record(context.WithoutCancel(ctx), sessionID, entry); err != nil {
			c.logger.Warn("Failed to archive history entry",
				zap.String("session_id", sessionID),
				zap.Error(err))
		}
	}
	return nil
}
