package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gogithub "github.com/google/go-github/v57/github"
	"golang.org/x/time/rate"

	"github.com/just-nibble/srs-tracker/pkg/config"
	"github.com/just-nibble/srs-tracker/pkg/errcodes"
)

// Repository is what GitHub reports about an imported repository.
type Repository struct {
	FullName      string `json:"full_name"`
	URL           string `json:"html_url"`
	DefaultBranch string `json:"default_branch"`
	Language      string `json:"language"`
	Private       bool   `json:"private"`
}

// RepositoryVerifier confirms a GitHub repository exists and is reachable
// before it is handed to the analysis scripts.
type RepositoryVerifier interface {
	VerifyRepository(ctx context.Context, owner, name string) (*Repository, error)
}

// GitHubClient wraps go-github with a client side rate limit.
type GitHubClient struct {
	client      *gogithub.Client
	rateLimiter *rate.Limiter
}

// NewGitHubClient builds a client. httpClient may be nil.
func NewGitHubClient(cfg config.GitHubConfig, httpClient *http.Client) *GitHubClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	client := gogithub.NewClient(httpClient)
	if cfg.Token != "" {
		client = client.WithAuthToken(cfg.Token)
	}

	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}
	return &GitHubClient{
		client:      client,
		rateLimiter: rate.NewLimiter(limit, 1),
	}
}

// VerifyRepository fetches repository metadata. A repository GitHub does not
// know about is a validation error for the caller's URL.
func (c *GitHubClient) VerifyRepository(ctx context.Context, owner, name string) (*Repository, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	repo, _, err := c.client.Repositories.Get(ctx, owner, name)
	if err != nil {
		var ghErr *gogithub.ErrorResponse
		if errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound {
			return nil, errcodes.ErrInvalidGitHubURL
		}
		return nil, fmt.Errorf("fetch repository: %w", err)
	}

	return &Repository{
		FullName:      repo.GetFullName(),
		URL:           repo.GetHTMLURL(),
		DefaultBranch: repo.GetDefaultBranch(),
		Language:      repo.GetLanguage(),
		Private:       repo.GetPrivate(),
	}, nil
}
