package tools

import (
	"context"
	"slices"
	"strings"

	"github.com/astraterm/astraterm/internal/shell"
)

// DefaultNmapArgs are used when a request names neither action nor args
const DefaultNmapArgs = "-sV -sC"

var nmapPresets = map[string][]string{
	"quick":      {"-F"},
	"stealth":    {"-sS"},
	"udp":        {"-sU"},
	"os":         {"-O"},
	"aggressive": {"-A"},
	"ping":       {"-sn"},
	"version":    {"-sV"},
}

// Nmap runs network scans
type Nmap struct {
	binary
}

// NewNmap creates the nmap tool
func NewNmap(deps Deps) *Nmap {
	return &Nmap{binary{
		deps:    deps.withDefaults(),
		name:    "nmap",
		install: []string{"apt", "install", "-y", "nmap"},
	}}
}

func (n *Nmap) Name() string        { return "nmap" }
func (n *Nmap) Description() string { return "Network exploration and port scanning" }
func (n *Nmap) IsAvailable() bool   { return n.available() }

func (n *Nmap) Actions() []string {
	actions := []string{"scan"}
	for name := range nmapPresets {
		actions = append(actions, name)
	}
	slices.Sort(actions[1:])
	return actions
}

func (n *Nmap) Install(ctx context.Context) shell.Result {
	return n.doInstall(ctx)
}

// Run scans req.Target. Action "" or "scan" uses req.Args, falling back to
// DefaultNmapArgs; named presets prepend their flags to req.Args.
func (n *Nmap) Run(ctx context.Context, req Request) (shell.Result, error) {
	target, err := checkTarget(req.Target)
	if err != nil {
		return shell.Result{}, err
	}

	var flags []string
	switch req.Action {
	case "", "scan":
		args := req.Args
		if strings.TrimSpace(args) == "" {
			args = DefaultNmapArgs
		}
		flags = strings.Fields(args)
	default:
		preset, ok := nmapPresets[req.Action]
		if !ok {
			return shell.Result{}, unknownAction(n.Name(), req.Action, n.Actions())
		}
		flags = append(append([]string{}, preset...), strings.Fields(req.Args)...)
	}

	argv := append([]string{"nmap"}, flags...)
	return n.exec(ctx, append(argv, target)...)
}
