package shell

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Outcome labels reported to an Observer.
const (
	OutcomeOK        = "ok"
	OutcomeFailed    = "failed"
	OutcomeTimeout   = "timeout"
	OutcomeCancelled = "cancelled"
	OutcomeRejected  = "rejected"
	OutcomeSpawn     = "spawn_error"
)

const (
	DefaultTimeout        = 30 * time.Second
	DefaultMaxOutputBytes = 1 << 20

	// waitDelay bounds how long Wait blocks on pipes held open by an
	// escaped descendant after the group was killed.
	waitDelay = 500 * time.Millisecond
)

// Observer receives one callback per finished command.
type Observer interface {
	ObserveCommand(outcome string, duration time.Duration)
}

// Config holds executor settings.
type Config struct {
	Shell          string
	Timeout        time.Duration
	Home           string
	MaxOutputBytes int
	ExtraDeny      []string
}

// Spec describes a direct argv invocation.
type Spec struct {
	Argv    []string
	Dir     string
	Timeout time.Duration
}

// DefaultConfig returns the stock executor configuration.
func DefaultConfig() Config {
	return Config{
		Shell:          defaultShell,
		Timeout:        DefaultTimeout,
		Home:           defaultHome(),
		MaxOutputBytes: DefaultMaxOutputBytes,
	}
}

// Executor runs commands in isolated process groups.
type Executor struct {
	cfg      Config
	deny     *DenyList
	logger   *zap.Logger
	observer Observer
}

// New creates an executor. Zero-valued config fields take their defaults.
func New(cfg Config, logger *zap.Logger) *Executor {
	def := DefaultConfig()
	if cfg.Shell == "" {
		cfg.Shell = def.Shell
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Home == "" {
		cfg.Home = def.Home
	}
	if cfg.MaxOutputBytes == 0 {
		cfg.MaxOutputBytes = def.MaxOutputBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Executor{
		cfg:    cfg,
		deny:   NewDenyList(cfg.ExtraDeny...),
		logger: logger,
	}
}

// WithMetrics attaches an observer and returns the executor.
func (e *Executor) WithMetrics(o Observer) *Executor {
	e.observer = o
	return e
}

// Home returns the configured home directory.
func (e *Executor) Home() string {
	return e.cfg.Home
}

// Timeout returns the default wall-clock budget.
func (e *Executor) Timeout() time.Duration {
	return e.cfg.Timeout
}

// DenyList returns the active deny-list.
func (e *Executor) DenyList() *DenyList {
	return e.deny
}

// Execute runs command through the shell in cwd.
func (e *Executor) Execute(ctx context.Context, command, cwd string) Result {
	command = strings.TrimSpace(command)
	if command == "" {
		return Failure(MsgEmptyCommand, ExitFailure)
	}

	if pattern, denied := e.deny.Match(command); denied {
		e.logger.Warn("Command rejected by deny-list",
			zap.String("command", command),
			zap.String("pattern", pattern))
		e.observe(OutcomeRejected, 0)
		return Failure(MsgNotAllowed, ExitFailure)
	}

	return e.Run(ctx, Spec{
		Argv: []string{e.cfg.Shell, shellFlag, command},
		Dir:  e.resolveDir(cwd),
	})
}

// Run executes spec.Argv directly, without deny-list checks.
func (e *Executor) Run(ctx context.Context, spec Spec) Result {
	if len(spec.Argv) == 0 || spec.Argv[0] == "" {
		return Failure(MsgEmptyCommand, ExitFailure)
	}

	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = e.cfg.Timeout
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stdout := newCappedBuffer(e.cfg.MaxOutputBytes)
	stderr := newCappedBuffer(e.cfg.MaxOutputBytes)

	cmd := exec.CommandContext(runCtx, spec.Argv[0], spec.Argv[1:]...)
	cmd.Dir = spec.Dir
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay
	setProcessGroup(cmd)

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if err != nil && !errors.Is(err, exec.ErrWaitDelay) {
		switch {
		case ctx.Err() != nil:
			e.logger.Info("Command cancelled",
				zap.Strings("argv", spec.Argv),
				zap.Duration("elapsed", elapsed))
			e.observe(OutcomeCancelled, elapsed)
			return Failure(MsgCancelled, ExitCancelled)

		case errors.Is(runCtx.Err(), context.DeadlineExceeded):
			e.logger.Warn("Command timed out",
				zap.Strings("argv", spec.Argv),
				zap.Duration("limit", timeout))
			e.observe(OutcomeTimeout, elapsed)
			return Failure(timeoutMessage(timeout), ExitTimeout)
		}

		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			e.logger.Error("Failed to start command",
				zap.Strings("argv", spec.Argv),
				zap.Error(err))
			e.observe(OutcomeSpawn, elapsed)
			return Failure(err.Error(), spawnExitCode(err))
		}
	}

	code := exitCode(cmd.ProcessState)
	res := Result{Output: stdout.String(), ExitCode: code}
	if code != ExitOK {
		// Error is the captured stderr, which may be empty.
		msg := stderr.String()
		res.Error = &msg
		e.observe(OutcomeFailed, elapsed)
	} else {
		e.observe(OutcomeOK, elapsed)
	}

	e.logger.Debug("Command finished",
		zap.Strings("argv", spec.Argv),
		zap.String("dir", spec.Dir),
		zap.Int("exit_code", code),
		zap.Duration("elapsed", elapsed))

	return res
}

// resolveDir returns cwd if it is a usable directory, else home, else the
// OS temp dir.
func (e *Executor) resolveDir(cwd string) string {
	for _, dir := range []string{cwd, e.cfg.Home, os.TempDir()} {
		if isDir(dir) {
			if dir != cwd {
				e.logger.Warn("Working directory unavailable, falling back",
					zap.String("requested", cwd),
					zap.String("using", dir))
			}
			return dir
		}
	}
	return ""
}

func (e *Executor) observe(outcome string, d time.Duration) {
	if e.observer != nil {
		e.observer.ObserveCommand(outcome, d)
	}
}

func spawnExitCode(err error) int {
	switch {
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return ExitNotFound
	case errors.Is(err, fs.ErrPermission):
		return ExitNotExecutable
	default:
		return ExitFailure
	}
}

func isDir(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func defaultHome() string {
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return home
	}
	return os.TempDir()
}
