package shell

import "fmt"

// Exit codes synthesized by the executor. Any other code is the child's own.
const (
	ExitOK            = 0
	ExitFailure       = 1
	ExitTimeout       = 124
	ExitNotExecutable = 126
	ExitNotFound      = 127
	ExitCancelled     = 130
)

// Fixed messages reported in Result.Error.
const (
	MsgNotAllowed   = "Command not allowed for security reasons"
	MsgCancelled    = "Command cancelled"
	MsgEmptyCommand = "empty command"
)

// Result is the outcome of one command execution.
type Result struct {
	Output   string  `json:"output"`
	Error    *string `json:"error"`
	ExitCode int     `json:"exit_code"`
}

// ErrorText returns the error message, or "" when the command succeeded.
func (r Result) ErrorText() string {
	if r.Error == nil {
		return ""
	}
	return *r.Error
}

// Success reports whether the command exited cleanly.
func (r Result) Success() bool {
	return r.ExitCode == ExitOK && r.Error == nil
}

// Failure builds a Result that carries only an error message.
func Failure(msg string, code int) Result {
	return Result{Error: &msg, ExitCode: code}
}

// OK builds a successful Result with the given output.
func OK(output string) Result {
	return Result{Output: output, ExitCode: ExitOK}
}

func timeoutMessage(limit fmt.Stringer) string {
	return fmt.Sprintf("Command timeout (%s limit)", limit)
}
