package tools

import (
	"context"
	"fmt"
	"slices"

	"github.com/astraterm/astraterm/internal/shell"
)

// Distros lists the userlands proot-distro can install
var Distros = []string{
	"alpine", "archlinux", "debian", "fedora", "kali",
	"manjaro", "parrot", "ubuntu", "void",
}

// Distro manages Linux userlands through proot-distro
type Distro struct {
	binary
}

// NewDistro creates the proot-distro tool
func NewDistro(deps Deps) *Distro {
	return &Distro{binary{
		deps:    deps.withDefaults(),
		name:    "proot-distro",
		install: []string{"pkg", "install", "-y", "proot-distro"},
	}}
}

func (d *Distro) Name() string        { return "proot-distro" }
func (d *Distro) Description() string { return "Install and manage Linux distributions" }
func (d *Distro) Actions() []string   { return []string{"install", "list", "remove", "reset"} }
func (d *Distro) IsAvailable() bool   { return d.available() }

func (d *Distro) Install(ctx context.Context) shell.Result {
	return d.doInstall(ctx)
}

// Run performs req.Action on the distribution named by req.Target.
// "list" takes no target.
func (d *Distro) Run(ctx context.Context, req Request) (shell.Result, error) {
	switch req.Action {
	case "list":
		return d.exec(ctx, "proot-distro", "list")
	case "install", "remove", "reset":
		if !slices.Contains(Distros, req.Target) {
			return shell.Result{}, fmt.Errorf("%w: unsupported distribution %q", ErrInvalidTarget, req.Target)
		}
		return d.exec(ctx, "proot-distro", req.Action, req.Target)
	default:
		return shell.Result{}, unknownAction(d.Name(), req.Action, d.Actions())
	}
}
