package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/astraterm/astraterm/internal/shell"
)

// Metasploit runs one-shot msfconsole commands
type Metasploit struct {
	binary
}

// NewMetasploit creates the metasploit tool
func NewMetasploit(deps Deps) *Metasploit {
	return &Metasploit{binary{
		deps:    deps.withDefaults(),
		name:    "msfconsole",
		install: []string{"apt", "install", "-y", "metasploit-framework"},
	}}
}

func (m *Metasploit) Name() string        { return "metasploit" }
func (m *Metasploit) Description() string { return "Metasploit framework console" }
func (m *Metasploit) Actions() []string   { return []string{"console", "update"} }
func (m *Metasploit) IsAvailable() bool   { return m.available() }

func (m *Metasploit) Install(ctx context.Context) shell.Result {
	return m.doInstall(ctx)
}

// Run executes req.Target as a console command list, quitting afterwards.
// The "update" action runs msfupdate instead.
func (m *Metasploit) Run(ctx context.Context, req Request) (shell.Result, error) {
	switch req.Action {
	case "", "console":
		script := strings.TrimSpace(req.Target)
		if script == "" {
			return shell.Result{}, fmt.Errorf("%w: console command is required", ErrInvalidTarget)
		}
		return m.exec(ctx, "msfconsole", "-q", "-x", consoleScript(script))
	case "update":
		return m.exec(ctx, "msfupdate")
	default:
		return shell.Result{}, unknownAction(m.Name(), req.Action, m.Actions())
	}
}

func consoleScript(script string) string {
	script = strings.TrimRight(script, "; ")
	return script + "; exit"
}
