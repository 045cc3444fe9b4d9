package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/astraterm/astraterm/internal/infrastructure/config"
	"github.com/astraterm/astraterm/internal/infrastructure/monitoring"
	"github.com/astraterm/astraterm/internal/infrastructure/resilience"
)

// Kind names a supported provider
type Kind string

const (
	Grok     Kind = "grok"
	OpenAI   Kind = "openai"
	Claude   Kind = "claude"
	DeepSeek Kind = "deepseek"

	DefaultKind = Grok
)

// NoKeyMessage is returned as the reply when the provider has no API key
const NoKeyMessage = "No API key configured for selected provider"

const systemPrompt = "You are a helpful coding assistant."

var (
	// ErrUnknownProvider is returned for provider names outside Kinds()
	ErrUnknownProvider = errors.New("unknown AI provider")
	// ErrEmptyPrompt is returned for blank prompts
	ErrEmptyPrompt = errors.New("prompt is required")
)

var defaults = map[Kind]struct {
	baseURL string
	model   string
}{
	Grok:     {"https://api.x.ai/v1", "grok-beta"},
	OpenAI:   {"https://api.openai.com/v1", "gpt-4"},
	Claude:   {"https://api.anthropic.com", "claude-3-opus-20240229"},
	DeepSeek: {"https://api.deepseek.com/v1", "deepseek-chat"},
}

// Kinds lists every supported provider
func Kinds() []Kind {
	return []Kind{Grok, OpenAI, Claude, DeepSeek}
}

// ParseKind maps a provider name to its Kind. Empty selects DefaultKind.
func ParseKind(name string) (Kind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return DefaultKind, nil
	}
	k := Kind(name)
	if _, ok := defaults[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return k, nil
}

// Completer answers a single prompt
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Endpoint overrides the base URL and model of one provider
type Endpoint struct {
	BaseURL string
	Model   string
}

// Options configures an Assistant
type Options struct {
	Endpoints map[Kind]Endpoint
	Timeout   time.Duration
	MaxTokens int64
	Logger    *zap.Logger
	Metrics   *monitoring.Metrics
}

// Reply is a completion together with the provider that produced it
type Reply struct {
	Response string `json:"response"`
	Provider Kind   `json:"provider"`
}

type backend struct {
	completer Completer
	breaker   *resilience.Breaker
}

// Assistant dispatches prompts to the configured providers
type Assistant struct {
	backends map[Kind]*backend
	timeout  time.Duration
	logger   *zap.Logger
	metrics  *monitoring.Metrics
}

// New builds an assistant for the providers that have keys
func New(keys config.Keys, opts Options) *Assistant {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 1024
	}

	a := &Assistant{
		backends: make(map[Kind]*backend),
		timeout:  opts.Timeout,
		logger:   opts.Logger.Named("ai"),
		metrics:  opts.Metrics,
	}

	apiKeys := map[Kind]string{
		Grok:     keys.XAI,
		OpenAI:   keys.OpenAI,
		Claude:   keys.Anthropic,
		DeepSeek: keys.DeepSeek,
	}
	for _, kind := range Kinds() {
		key := apiKeys[kind]
		if key == "" {
			continue
		}

		ep := Endpoint{BaseURL: defaults[kind].baseURL, Model: defaults[kind].model}
		if o, ok := opts.Endpoints[kind]; ok {
			if o.BaseURL != "" {
				ep.BaseURL = o.BaseURL
			}
			if o.Model != "" {
				ep.Model = o.Model
			}
		}

		var c Completer
		if kind == Claude {
			c = newAnthropicCompleter(key, ep, opts.MaxTokens)
		} else {
			c = newOpenAICompleter(key, ep)
		}
		a.Register(kind, c)
	}
	return a
}

// Register installs or replaces the completer for kind
func (a *Assistant) Register(kind Kind, c Completer) {
	a.backends[kind] = &backend{
		completer: c,
		breaker: resilience.New("ai-"+string(kind), resilience.Settings{
			Timeout:       30 * time.Second,
			ReadyToTrip:   func(c resilience.Counts) bool { return c.ConsecutiveFailures >= 3 },
			OnStateChange: resilience.LogStateChange(a.logger),
		}),
	}
}

// Configured reports which providers have keys
func (a *Assistant) Configured() map[Kind]bool {
	out := make(map[Kind]bool, len(defaults))
	for _, k := range Kinds() {
		_, ok := a.backends[k]
		out[k] = ok
	}
	return out
}

// Complete sends prompt to the named provider
func (a *Assistant) Complete(ctx context.Context, provider, prompt string) (Reply, error) {
	kind, err := ParseKind(provider)
	if err != nil {
		return Reply{}, err
	}
	if strings.TrimSpace(prompt) == "" {
		return Reply{}, ErrEmptyPrompt
	}

	b, ok := a.backends[kind]
	if !ok {
		return Reply{Response: NoKeyMessage, Provider: kind}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	timer := monitoring.NewTimer(a.metrics, "ai", string(kind))
	text, err := resilience.Call(b.breaker, func() (string, error) {
		return b.completer.Complete(ctx, prompt)
	})
	if err != nil {
		timer.Stop("error")
		a.logger.Warn("Completion failed", zap.String("provider", string(kind)), zap.Error(err))
		return Reply{}, fmt.Errorf("%s completion failed: %w", kind, err)
	}

	timer.Stop("success")
	return Reply{Response: text, Provider: kind}, nil
}
