package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/astraterm/astraterm/internal/api/middleware"
	"github.com/astraterm/astraterm/internal/domain/session"
	"github.com/astraterm/astraterm/internal/domain/terminal"
	"github.com/astraterm/astraterm/internal/infrastructure/config"
	"github.com/astraterm/astraterm/internal/infrastructure/monitoring"
	"github.com/astraterm/astraterm/internal/providers/ai"
	"github.com/astraterm/astraterm/internal/providers/github"
	"github.com/astraterm/astraterm/internal/providers/http/client"
	"github.com/astraterm/astraterm/internal/providers/tools"
	"github.com/astraterm/astraterm/internal/shared/validate"
	"github.com/astraterm/astraterm/internal/storage/archive"
)

const (
	ServiceName = "AstraTerm API"
	Version     = "1.2.0"
)

// Assistant answers AI prompts
type Assistant interface {
	Complete(ctx context.Context, provider, prompt string) (ai.Reply, error)
	Configured() map[ai.Kind]bool
}

// RepoSearcher searches code hosting
type RepoSearcher interface {
	Search(ctx context.Context, query string) ([]github.Repository, error)
}

// HistoryArchive searches persisted history
type HistoryArchive interface {
	Search(ctx context.Context, query string, limit int) ([]archive.Record, error)
	ForSession(ctx context.Context, id string) ([]archive.Record, error)
}

// Deps are the collaborators behind the handlers. Only Controller is
// required; routes for missing collaborators answer 503.
type Deps struct {
	Controller *terminal.Controller
	Assistant  Assistant
	GitHub     RepoSearcher
	Tools      *tools.Registry
	Archive    HistoryArchive
	Keys       config.Keys
	Metrics    *monitoring.Metrics
	Logger     *zap.Logger
}

// Handlers contains all HTTP handlers
type Handlers struct {
	ctrl      *terminal.Controller
	store     *session.Store
	assistant Assistant
	github    RepoSearcher
	tools     *tools.Registry
	archive   HistoryArchive
	keys      config.Keys
	metrics   *monitoring.Metrics
	logger    *zap.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(deps Deps) *Handlers {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Handlers{
		ctrl:      deps.Controller,
		store:     deps.Controller.Store(),
		assistant: deps.Assistant,
		github:    deps.GitHub,
		tools:     deps.Tools,
		archive:   deps.Archive,
		keys:      deps.Keys,
		metrics:   deps.Metrics,
		logger:    deps.Logger.Named("http"),
	}
}

// Root handles service info
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": ServiceName,
		"version": Version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	resp := gin.H{
		"status":   "healthy",
		"sessions": h.store.Len(),
		"archive":  gin.H{"enabled": h.archive != nil},
	}
	if h.tools != nil {
		resp["tools"] = h.tools.Stats()
	}
	c.JSON(http.StatusOK, resp)
}

// Config reports which provider keys are present, never their values
func (h *Handlers) Config(c *gin.Context) {
	c.JSON(http.StatusOK, h.keys.Presence())
}

// Stats returns a JSON view of the service counters
func (h *Handlers) Stats(c *gin.Context) {
	resp := gin.H{"sessions": h.store.Len()}
	if h.metrics != nil {
		resp["metrics"] = h.metrics.Snapshot()
	}
	if h.tools != nil {
		resp["tools"] = h.tools.Stats()
	}
	c.JSON(http.StatusOK, resp)
}

// abortError writes the JSON error envelope for err, choosing the status
// from the error's kind.
func (h *Handlers) abortError(c *gin.Context, err error) {
	h.abortWith(c, err, http.StatusInternalServerError)
}

// abortUpstream is abortError for calls to external services, where
// unclassified failures are the upstream's fault.
func (h *Handlers) abortUpstream(c *gin.Context, err error) {
	h.abortWith(c, err, http.StatusBadGateway)
}

func (h *Handlers) abortWith(c *gin.Context, err error, fallback int) {
	status := statusFor(err, fallback)
	if status >= http.StatusInternalServerError {
		h.logger.Warn("Request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error, fallback int) int {
	var se *client.StatusError
	switch {
	case errors.Is(err, session.ErrNotFound),
		errors.Is(err, tools.ErrUnknownTool):
		return http.StatusNotFound
	case errors.Is(err, ai.ErrUnknownProvider),
		errors.Is(err, ai.ErrEmptyPrompt),
		errors.Is(err, github.ErrEmptyQuery),
		errors.Is(err, tools.ErrInvalidTarget),
		errors.Is(err, tools.ErrUnknownAction),
		errors.Is(err, validate.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, tools.ErrNotInstalled):
		return http.StatusConflict
	case errors.Is(err, client.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &se), errors.Is(err, context.DeadlineExceeded):
		return http.StatusBadGateway
	default:
		return fallback
	}
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func unavailable(c *gin.Context, what string) {
	c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": what + " is not enabled"})
}
