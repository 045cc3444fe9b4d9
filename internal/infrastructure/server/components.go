package server

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/astraterm/astraterm/internal/domain/session"
	"github.com/astraterm/astraterm/internal/domain/terminal"
	"github.com/astraterm/astraterm/internal/infrastructure/config"
	"github.com/astraterm/astraterm/internal/infrastructure/logging"
	"github.com/astraterm/astraterm/internal/infrastructure/monitoring"
	"github.com/astraterm/astraterm/internal/providers/ai"
	"github.com/astraterm/astraterm/internal/providers/github"
	"github.com/astraterm/astraterm/internal/providers/tools"
	"github.com/astraterm/astraterm/internal/shell"
	"github.com/astraterm/astraterm/internal/storage/archive"
)

// Components is the object graph shared by the server and the CLI
type Components struct {
	Config     *config.Config
	Logger     *logging.Logger
	Metrics    *monitoring.Metrics
	Keys       config.Keys
	KeysPath   string
	Executor   *shell.Executor
	Store      *session.Store
	Controller *terminal.Controller
	Assistant  *ai.Assistant
	GitHub     *github.Searcher
	Tools      *tools.Registry
	Archive    *archive.Archive
}

// Build wires every component from cfg
func Build(cfg *config.Config, logger *logging.Logger) (*Components, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	metrics := monitoring.NewMetrics()

	keys, keysPath, err := config.LoadKeys(cfg.Keys.File)
	if err != nil {
		return nil, fmt.Errorf("failed to load provider keys: %w", err)
	}
	if keysPath != "" {
		logger.Info("Loaded provider keys", zap.String("path", keysPath))
	}

	executor := shell.New(shell.Config{
		Shell:          cfg.Shell.Shell,
		Timeout:        cfg.Shell.Timeout,
		Home:           cfg.Shell.Home,
		MaxOutputBytes: cfg.Shell.MaxOutputBytes,
		ExtraDeny:      cfg.Shell.ExtraDeny,
	}, logger.Named("shell")).WithMetrics(metrics)

	store := session.NewStore(session.Options{
		Home:          executor.Home(),
		TTL:           cfg.Session.TTL,
		MaxSessions:   cfg.Session.MaxSessions,
		SweepInterval: cfg.Session.SweepInterval,
	}, logger.Named("session")).WithObserver(metrics)

	controller := terminal.NewController(store, executor, logger.Named("terminal"))

	var arc *archive.Archive
	if cfg.Archive.Enabled() {
		arc, err = archive.Open(cfg.Archive.Path, logger.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open history archive: %w", err)
		}
		controller.WithRecorder(arc)
	}

	assistant := ai.New(*keys, ai.Options{
		Logger:  logger.Logger,
		Metrics: metrics,
	})
	searcher := github.New(github.Config{
		Token:   keys.GitHub,
		Logger:  logger.Logger,
		Metrics: metrics,
	})

	registry := tools.NewRegistry(logger.Logger).WithMetrics(metrics)
	registerTools(registry, tools.Deps{
		Runner:         executor,
		InstallTimeout: cfg.Tools.InstallTimeout,
		RunTimeout:     cfg.Tools.RunTimeout,
	}, *keys, logger.Logger, metrics)

	return &Components{
		Config:     cfg,
		Logger:     logger,
		Metrics:    metrics,
		Keys:       *keys,
		KeysPath:   keysPath,
		Executor:   executor,
		Store:      store,
		Controller: controller,
		Assistant:  assistant,
		GitHub:     searcher,
		Tools:      registry,
		Archive:    arc,
	}, nil
}

// Close releases the archive, if open
func (c *Components) Close() error {
	if c.Archive != nil {
		if err := c.Archive.Close(); err != nil {
			return fmt.Errorf("failed to close archive: %w", err)
		}
	}
	return nil
}

func registerTools(registry *tools.Registry, deps tools.Deps, keys config.Keys, logger *zap.Logger, metrics *monitoring.Metrics) {
	all := []tools.Tool{
		tools.NewNmap(deps),
		tools.NewDistro(deps),
		tools.NewMetasploit(deps),
		tools.NewOSINT(tools.OSINTConfig{
			Deps:    deps,
			HIBPKey: keys.HIBP,
			Logger:  logger,
			Metrics: metrics,
		}),
	}
	for _, t := range all {
		if err := registry.Register(t); err != nil {
			logger.Warn("Failed to register tool", zap.String("tool", t.Name()), zap.Error(err))
		}
	}
}
