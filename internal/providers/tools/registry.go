package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/astraterm/astraterm/internal/infrastructure/monitoring"
	"github.com/astraterm/astraterm/internal/shared/id"
	"github.com/astraterm/astraterm/internal/shell"
)

// Registry manages the installable tools
type Registry struct {
	tools   sync.Map
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// NewRegistry creates an empty registry
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{logger: logger.Named("tools")}
}

// WithMetrics records each install and run as a service call
func (r *Registry) WithMetrics(m *monitoring.Metrics) *Registry {
	r.metrics = m
	return r
}

// Register adds a tool. Names must be unique.
func (r *Registry) Register(tool Tool) error {
	name := tool.Name()
	if name == "" {
		return errors.New("tool name cannot be empty")
	}
	if _, loaded := r.tools.LoadOrStore(name, tool); loaded {
		return fmt.Errorf("tool %q already registered", name)
	}
	return nil
}

// Unregister removes a tool
func (r *Registry) Unregister(name string) {
	r.tools.Delete(name)
}

// Get retrieves a tool by name
func (r *Registry) Get(name string) (Tool, error) {
	val, ok := r.tools.Load(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return val.(Tool), nil
}

// List returns every registered tool sorted by name
func (r *Registry) List() []Info {
	infos := []Info{}
	r.tools.Range(func(_, value any) bool {
		t := value.(Tool)
		infos = append(infos, Info{
			Name:        t.Name(),
			Description: t.Description(),
			Installed:   t.IsAvailable(),
			Actions:     t.Actions(),
		})
		return true
	})
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// Install runs the tool's installer
func (r *Registry) Install(ctx context.Context, name string) (shell.Result, error) {
	tool, err := r.Get(name)
	if err != nil {
		return shell.Result{}, err
	}

	runID := id.NewRunID()
	timer := monitoring.NewTimer(r.metrics, "tool."+name, "install")
	r.logger.Info("Installing tool", zap.String("tool", name), zap.String("run_id", runID.String()))

	res := tool.Install(ctx)
	timer.Stop(status(res, nil))
	r.logger.Info("Install finished",
		zap.String("tool", name),
		zap.String("run_id", runID.String()),
		zap.Int("exit_code", res.ExitCode),
	)
	return res, nil
}

// Run executes one tool request
func (r *Registry) Run(ctx context.Context, name string, req Request) (shell.Result, error) {
	tool, err := r.Get(name)
	if err != nil {
		return shell.Result{}, err
	}

	runID := id.NewRunID()
	start := time.Now()
	timer := monitoring.NewTimer(r.metrics, "tool."+name, req.actionOrDefault())

	res, err := tool.Run(ctx, req)
	timer.Stop(status(res, err))

	fields := []zap.Field{
		zap.String("tool", name),
		zap.String("run_id", runID.String()),
		zap.String("action", req.actionOrDefault()),
		zap.Duration("duration", time.Since(start)),
	}
	if err != nil {
		r.logger.Warn("Tool run rejected", append(fields, zap.Error(err))...)
		return res, err
	}
	r.logger.Info("Tool run finished", append(fields, zap.Int("exit_code", res.ExitCode))...)
	return res, nil
}

// Stats returns registry statistics
func (r *Registry) Stats() map[string]any {
	var total, installed, actions int
	r.tools.Range(func(_, value any) bool {
		t := value.(Tool)
		total++
		actions += len(t.Actions())
		if t.IsAvailable() {
			installed++
		}
		return true
	})

	return map[string]any{
		"total_tools":     total,
		"installed_tools": installed,
		"total_actions":   actions,
	}
}

func (req Request) actionOrDefault() string {
	if req.Action == "" {
		return "run"
	}
	return req.Action
}

func status(res shell.Result, err error) string {
	switch {
	case err != nil:
		return "rejected"
	case res.Success():
		return "success"
	default:
		return "error"
	}
}
