package tools

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/astraterm/astraterm/internal/infrastructure/monitoring"
	"github.com/astraterm/astraterm/internal/providers/http/client"
	"github.com/astraterm/astraterm/internal/shell"
)

// HIBPBaseURL is the Have I Been Pwned v3 API root
const HIBPBaseURL = "https://haveibeenpwned.com/api/v3"

// Breach is one Have I Been Pwned hit
type Breach struct {
	Name       string `json:"Name"`
	Title      string `json:"Title"`
	Domain     string `json:"Domain"`
	BreachDate string `json:"BreachDate"`
}

// OSINTConfig configures the open source intelligence tool
type OSINTConfig struct {
	Deps
	HIBPBaseURL string
	HIBPKey     string
	Logger      *zap.Logger
	Metrics     *monitoring.Metrics
}

// OSINT groups the reconnaissance utilities. Breach lookups go over HTTP
// and need no local install.
type OSINT struct {
	deps    Deps
	hibp    *client.Client
	hibpKey string
}

// NewOSINT creates the osint tool
func NewOSINT(cfg OSINTConfig) *OSINT {
	if cfg.HIBPBaseURL == "" {
		cfg.HIBPBaseURL = HIBPBaseURL
	}
	c := client.New(client.Options{
		Name:    "hibp",
		BaseURL: cfg.HIBPBaseURL,
		// the public API allows roughly one request every 1.5s
		RequestsPerSecond: 0.6,
		Logger:            cfg.Logger,
		Metrics:           cfg.Metrics,
	})
	if cfg.HIBPKey != "" {
		c.SetHeader("hibp-api-key", cfg.HIBPKey)
	}

	return &OSINT{deps: cfg.Deps.withDefaults(), hibp: c, hibpKey: cfg.HIBPKey}
}

func (o *OSINT) Name() string        { return "osint" }
func (o *OSINT) Description() string { return "Username, domain, host and breach reconnaissance" }
func (o *OSINT) IsAvailable() bool   { return true }

func (o *OSINT) Actions() []string {
	return []string{"haveibeenpwned", "shodan", "sherlock", "theharvester"}
}

// Install fetches the Python based utilities
func (o *OSINT) Install(ctx context.Context) shell.Result {
	return o.deps.Runner.Run(ctx, shell.Spec{
		Argv:    []string{"pip", "install", "sherlock-project", "theHarvester", "shodan"},
		Timeout: o.deps.InstallTimeout,
	})
}

// Run dispatches on req.Action
func (o *OSINT) Run(ctx context.Context, req Request) (shell.Result, error) {
	switch req.Action {
	case "sherlock":
		target, err := checkTarget(req.Target)
		if err != nil {
			return shell.Result{}, err
		}
		return o.exec(ctx, "sherlock", append([]string{target}, strings.Fields(req.Args)...)...)
	case "theharvester":
		target, err := checkTarget(req.Target)
		if err != nil {
			return shell.Result{}, err
		}
		return o.exec(ctx, "theHarvester", append([]string{"-d", target}, strings.Fields(req.Args)...)...)
	case "shodan":
		query := strings.TrimSpace(req.Target)
		if query == "" {
			return shell.Result{}, fmt.Errorf("%w: query is required", ErrInvalidTarget)
		}
		return o.exec(ctx, "shodan", "search", query)
	case "haveibeenpwned":
		return o.breaches(ctx, req.Target)
	default:
		return shell.Result{}, unknownAction(o.Name(), req.Action, o.Actions())
	}
}

func (o *OSINT) exec(ctx context.Context, bin string, args ...string) (shell.Result, error) {
	if _, err := o.deps.LookPath(bin); err != nil {
		return shell.Result{}, fmt.Errorf("%w: %s", ErrNotInstalled, bin)
	}
	argv := append([]string{bin}, args...)
	return o.deps.Runner.Run(ctx, shell.Spec{Argv: argv, Timeout: o.deps.RunTimeout}), nil
}

// breaches looks up email. Upstream failures come back as a failed Result
// rather than an error so the terminal can print them.
func (o *OSINT) breaches(ctx context.Context, email string) (shell.Result, error) {
	email = strings.TrimSpace(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return shell.Result{}, fmt.Errorf("%w: %q is not an email address", ErrInvalidTarget, email)
	}

	var found []Breach
	_, err := o.hibp.Do(ctx, "breachedaccount", func(r *resty.Request) (*resty.Response, error) {
		return r.
			SetPathParam("account", email).
			SetQueryParam("truncateResponse", "false").
			SetResult(&found).
			Get("/breachedaccount/{account}")
	})

	var se *client.StatusError
	switch {
	case errors.As(err, &se) && se.StatusCode == http.StatusNotFound:
		return shell.OK(fmt.Sprintf("Good news! Email '%s' not found in any breaches.\n", email)), nil
	case errors.As(err, &se) && se.StatusCode == http.StatusUnauthorized && o.hibpKey == "":
		return shell.Failure("Have I Been Pwned requires an API key (hibp_api_key)", shell.ExitFailure), nil
	case err != nil:
		return shell.Failure(fmt.Sprintf("Breach lookup failed: %v", err), shell.ExitFailure), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Email '%s' found in %d breaches:\n", email, len(found))
	for _, br := range found {
		fmt.Fprintf(&b, "- %s (%s)\n", br.Name, br.BreachDate)
	}
	return shell.OK(b.String()), nil
}
