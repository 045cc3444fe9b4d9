// Package github searches GitHub repositories.
package github

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/astraterm/astraterm/internal/infrastructure/monitoring"
	"github.com/astraterm/astraterm/internal/providers/http/client"
)

const (
	DefaultBaseURL = "https://api.github.com"
	// MaxResults caps every search response
	MaxResults = 10
)

// ErrEmptyQuery is returned for blank search queries
var ErrEmptyQuery = errors.New("query is required")

// Repository is the summary returned for each search hit
type Repository struct {
	FullName        string  `json:"full_name"`
	Description     *string `json:"description"`
	HTMLURL         string  `json:"html_url"`
	StargazersCount int     `json:"stargazers_count"`
	Language        *string `json:"language"`
}

type searchResponse struct {
	TotalCount int          `json:"total_count"`
	Items      []Repository `json:"items"`
}

// Config configures the searcher
type Config struct {
	BaseURL string
	Token   string
	Logger  *zap.Logger
	Metrics *monitoring.Metrics
}

// Searcher queries the repository search API
type Searcher struct {
	client *client.Client
}

// New creates a searcher. An empty token searches anonymously.
func New(cfg Config) *Searcher {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	c := client.New(client.Options{
		Name:    "github",
		BaseURL: cfg.BaseURL,
		Logger:  cfg.Logger,
		Metrics: cfg.Metrics,
	})
	c.SetHeader("Accept", "application/vnd.github+json")
	if cfg.Token != "" {
		c.SetBearerAuth(cfg.Token)
	}

	return &Searcher{client: c}
}

// Search returns at most MaxResults repositories matching query
func (s *Searcher) Search(ctx context.Context, query string) ([]Repository, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	var out searchResponse
	_, err := s.client.Do(ctx, "search", func(r *resty.Request) (*resty.Response, error) {
		return r.
			SetQueryParam("q", query).
			SetQueryParam("per_page", fmt.Sprint(MaxResults)).
			SetResult(&out).
			Get("/search/repositories")
	})
	if err != nil {
		return nil, fmt.Errorf("github search failed: %w", err)
	}

	if len(out.Items) > MaxResults {
		out.Items = out.Items[:MaxResults]
	}
	if out.Items == nil {
		out.Items = []Repository{}
	}
	return out.Items, nil
}
