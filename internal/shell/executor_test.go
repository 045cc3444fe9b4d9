//go:build !windows

package shell

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *recordingObserver) ObserveCommand(outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()
	return New(Config{Home: t.TempDir(), Timeout: 5 * time.Second}, nil)
}

func TestExecuteSuccess(t *testing.T) {
	exec := newTestExecutor(t)

	res := exec.Execute(context.Background(), "echo hello", "")
	assert.Equal(t, "hello\n", res.Output)
	assert.Nil(t, res.Error)
	assert.Equal(t, 0, res.ExitCode)
	assert.True(t, res.Success())
}

func TestExecuteNonZeroExit(t *testing.T) {
	exec := newTestExecutor(t)

	tests := []struct {
		name    string
		command string
		code    int
		errText string
	}{
		{"stderr reported", "echo oops >&2; exit 3", 3, "oops\n"},
		{"silent failure", "exit 2", 2, ""},
		{"false", "false", 1, ""},
		{"shell not found", "definitely-not-a-real-binary-xyz", 127, "not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := exec.Execute(context.Background(), tt.command, "")
			assert.Equal(t, tt.code, res.ExitCode)
			require.NotNil(t, res.Error)
			assert.Contains(t, *res.Error, tt.errText)
		})
	}
}

func TestExecuteSilentFailureKeepsEmptyStderr(t *testing.T) {
	exec := newTestExecutor(t)

	res := exec.Execute(context.Background(), "echo partial; exit 4", "")
	assert.Equal(t, 4, res.ExitCode)
	assert.Equal(t, "partial\n", res.Output)
	require.NotNil(t, res.Error)
	assert.Empty(t, *res.Error)
}

func TestExecuteStderrIgnoredOnSuccess(t *testing.T) {
	exec := newTestExecutor(t)

	res := exec.Execute(context.Background(), "echo warn >&2; echo out", "")
	assert.Equal(t, "out\n", res.Output)
	assert.Nil(t, res.Error)
}

func TestExecuteShellFeatures(t *testing.T) {
	exec := newTestExecutor(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("y"), 0o644))

	res := exec.Execute(context.Background(), "ls *.txt | wc -l", dir)
	assert.Equal(t, "2", strings.TrimSpace(res.Output))
}

func TestExecuteEmpty(t *testing.T) {
	exec := newTestExecutor(t)

	for _, cmd := range []string{"", "   ", "\t\n"} {
		res := exec.Execute(context.Background(), cmd, "")
		assert.Equal(t, ExitFailure, res.ExitCode)
		assert.Equal(t, MsgEmptyCommand, res.ErrorText())
	}
}

func TestExecuteDenyList(t *testing.T) {
	obs := &recordingObserver{}
	exec := newTestExecutor(t).WithMetrics(obs)
	marker := filepath.Join(t.TempDir(), "spawned")

	tests := []string{
		"rm -rf /",
		"rm  -rf   /",
		"mkfs.ext4 /dev/sda1",
		"dd if=/dev/zero of=/tmp/x",
		"echo x > /dev/null; touch " + marker,
		":(){ :|:& };:",
	}

	for _, cmd := range tests {
		t.Run(cmd, func(t *testing.T) {
			res := exec.Execute(context.Background(), cmd, "")
			assert.Equal(t, "", res.Output)
			assert.Equal(t, MsgNotAllowed, res.ErrorText())
			assert.Equal(t, ExitFailure, res.ExitCode)
		})
	}

	_, err := os.Stat(marker)
	assert.True(t, os.IsNotExist(err), "rejected command must not spawn")
	assert.Len(t, obs.outcomes, len(tests))
	assert.Equal(t, OutcomeRejected, obs.outcomes[0])
}

func TestExecuteExtraDenyPatterns(t *testing.T) {
	exec := New(Config{Home: t.TempDir(), ExtraDeny: []string{"shutdown"}}, nil)

	res := exec.Execute(context.Background(), "shutdown -h now", "")
	assert.Equal(t, MsgNotAllowed, res.ErrorText())

	assert.Contains(t, exec.DenyList().Patterns(), "mkfs")
}

func TestExecuteTimeout(t *testing.T) {
	obs := &recordingObserver{}
	exec := New(Config{Home: t.TempDir(), Timeout: 200 * time.Millisecond}, nil).WithMetrics(obs)

	start := time.Now()
	res := exec.Execute(context.Background(), "echo partial; sleep 10", "")
	assert.Less(t, time.Since(start), 5*time.Second)

	assert.Equal(t, ExitTimeout, res.ExitCode)
	assert.Equal(t, "", res.Output)
	assert.Equal(t, "Command timeout (200ms limit)", res.ErrorText())
	assert.Equal(t, []string{OutcomeTimeout}, obs.outcomes)
}

func TestExecuteTimeoutMessageDefault(t *testing.T) {
	assert.Equal(t, "Command timeout (30s limit)", timeoutMessage(DefaultTimeout))
}

func TestExecuteTimeoutKillsProcessGroup(t *testing.T) {
	exec := New(Config{Home: t.TempDir(), Timeout: 300 * time.Millisecond}, nil)
	marker := filepath.Join(t.TempDir(), "survivor")

	res := exec.Execute(context.Background(),
		"(sleep 1; touch "+marker+") & sleep 10", "")
	require.Equal(t, ExitTimeout, res.ExitCode)

	time.Sleep(1500 * time.Millisecond)
	_, err := os.Stat(marker)
	assert.True(t, os.IsNotExist(err), "background grandchild outlived the timeout")
}

func TestExecuteCancelled(t *testing.T) {
	exec := newTestExecutor(t)
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	res := exec.Execute(ctx, "sleep 10", "")
	assert.Equal(t, ExitCancelled, res.ExitCode)
	assert.Equal(t, MsgCancelled, res.ErrorText())
}

func TestExecuteCwdFallback(t *testing.T) {
	home := t.TempDir()
	exec := New(Config{Home: home}, nil)

	res := exec.Execute(context.Background(), "pwd", filepath.Join(home, "missing"))
	require.Equal(t, 0, res.ExitCode)

	want, err := filepath.EvalSymlinks(home)
	require.NoError(t, err)
	assert.Equal(t, want, strings.TrimSpace(res.Output))
}

func TestExecuteOutputTruncated(t *testing.T) {
	exec := New(Config{Home: t.TempDir(), MaxOutputBytes: 16}, nil)

	res := exec.Execute(context.Background(), "printf '%0100d' 0", "")
	assert.Equal(t, 0, res.ExitCode)
	assert.True(t, strings.HasPrefix(res.Output, strings.Repeat("0", 16)))
	assert.Contains(t, res.Output, "[output truncated]")
}

func TestRunArgv(t *testing.T) {
	exec := newTestExecutor(t)

	res := exec.Run(context.Background(), Spec{Argv: []string{"echo", "a b", "c"}})
	assert.Equal(t, "a b c\n", res.Output)

	res = exec.Run(context.Background(), Spec{Argv: []string{"/no/such/binary"}})
	assert.Equal(t, ExitNotFound, res.ExitCode)
	assert.NotEmpty(t, res.ErrorText())

	res = exec.Run(context.Background(), Spec{})
	assert.Equal(t, MsgEmptyCommand, res.ErrorText())
}

func TestRunPermissionDenied(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root bypasses execute permission checks")
	}
	exec := newTestExecutor(t)
	script := filepath.Join(t.TempDir(), "noexec.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho hi\n"), 0o644))

	res := exec.Run(context.Background(), Spec{Argv: []string{script}})
	assert.Equal(t, ExitNotExecutable, res.ExitCode)
}

func TestRunSpecTimeoutOverride(t *testing.T) {
	exec := newTestExecutor(t)

	res := exec.Run(context.Background(), Spec{
		Argv:    []string{"sleep", "5"},
		Timeout: 100 * time.Millisecond,
	})
	assert.Equal(t, ExitTimeout, res.ExitCode)
	assert.Equal(t, "Command timeout (100ms limit)", res.ErrorText())
}
