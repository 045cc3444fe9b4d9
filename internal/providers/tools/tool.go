package tools

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/astraterm/astraterm/internal/shell"
)

var (
	// ErrUnknownTool is returned for names missing from the registry
	ErrUnknownTool = errors.New("unknown tool")
	// ErrNotInstalled is returned when a tool's binary is not on PATH
	ErrNotInstalled = errors.New("tool not installed")
	// ErrInvalidTarget is returned for missing or option-like targets
	ErrInvalidTarget = errors.New("invalid target")
	// ErrUnknownAction is returned for actions a tool does not offer
	ErrUnknownAction = errors.New("unknown action")
)

// Request parameterizes one tool run
type Request struct {
	Action string `json:"action,omitempty"`
	Target string `json:"target"`
	Args   string `json:"args,omitempty"`
}

// Info describes a registered tool
type Info struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Installed   bool     `json:"installed"`
	Actions     []string `json:"actions"`
}

// Tool is an external utility the terminal can install and run
type Tool interface {
	Name() string
	Description() string
	Actions() []string
	IsAvailable() bool
	Install(ctx context.Context) shell.Result
	Run(ctx context.Context, req Request) (shell.Result, error)
}

// Runner executes argv specs
type Runner interface {
	Run(ctx context.Context, spec shell.Spec) shell.Result
}

// Deps are the collaborators shared by every tool
type Deps struct {
	Runner         Runner
	LookPath       func(file string) (string, error)
	InstallTimeout time.Duration
	RunTimeout     time.Duration
}

func (d Deps) withDefaults() Deps {
	if d.LookPath == nil {
		d.LookPath = exec.LookPath
	}
	if d.InstallTimeout <= 0 {
		d.InstallTimeout = 10 * time.Minute
	}
	if d.RunTimeout <= 0 {
		d.RunTimeout = 5 * time.Minute
	}
	return d
}

// binary is the shared base of tools backed by one executable
type binary struct {
	deps    Deps
	name    string
	install []string
}

func (b binary) available() bool {
	_, err := b.deps.LookPath(b.name)
	return err == nil
}

func (b binary) doInstall(ctx context.Context) shell.Result {
	return b.deps.Runner.Run(ctx, shell.Spec{Argv: b.install, Timeout: b.deps.InstallTimeout})
}

func (b binary) exec(ctx context.Context, argv ...string) (shell.Result, error) {
	if !b.available() {
		return shell.Result{}, fmt.Errorf("%w: %s", ErrNotInstalled, b.name)
	}
	return b.deps.Runner.Run(ctx, shell.Spec{Argv: argv, Timeout: b.deps.RunTimeout}), nil
}

// checkTarget rejects empty targets and ones that would parse as options.
func checkTarget(target string) (string, error) {
	target = strings.TrimSpace(target)
	switch {
	case target == "":
		return "", fmt.Errorf("%w: target is required", ErrInvalidTarget)
	case strings.HasPrefix(target, "-"):
		return "", fmt.Errorf("%w: %q", ErrInvalidTarget, target)
	case strings.ContainsAny(target, " \t\r\n"):
		return "", fmt.Errorf("%w: %q contains whitespace", ErrInvalidTarget, target)
	}
	return target, nil
}

func unknownAction(tool, action string, valid []string) error {
	return fmt.Errorf("%w: %s %q (valid: %s)", ErrUnknownAction, tool, action, strings.Join(valid, ", "))
}
