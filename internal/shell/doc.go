// Package shell runs single commands to completion for a terminal session.
//
// Each command is interpreted by the host shell in a fresh process group so
// that pipes, redirects and globs behave as they do interactively, and so
// that a timed-out command can be killed together with everything it spawned.
//
// Guarantees:
//   - Deny-listed commands are rejected before any process is spawned
//   - stdout and stderr are captured in full, up to a per-stream byte cap
//   - A hard wall-clock budget is enforced (default 30s, exit code 124)
//   - Caller cancellation kills the process group (exit code 130)
//   - Every failure is reported as Result data, never as a Go error
//
// Example Usage:
//
//	exec := shell.New(shell.DefaultConfig(), logger)
//	res := exec.Execute(ctx, "ls -la | head", "/tmp")
//	fmt.Println(res.ExitCode, res.Output)
package shell
