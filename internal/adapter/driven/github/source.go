// Package github implements the CodeSource port over a file kept in a GitHub
// repository, using the go-github library.
package github

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"

	"github.com/noisebridge/baron/internal/domain/model"
	"github.com/noisebridge/baron/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CodeSource = (*Source)(nil)

// Source reads the code list from one file in a repository. The blob SHA is
// the change signature.
type Source struct {
	gh    *gh.Client
	owner string
	repo  string
	path  string
	ref   string
}

// NewSource creates a Source with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client with PAT auth when token is set)
//
// repoFullName is "owner/repo"; ref may be empty for the default branch.
func NewSource(token, repoFullName, path, ref string) (*Source, error) {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	client := gh.NewClient(rateLimitClient)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	return newSource(client, repoFullName, path, ref)
}

// NewSourceWithHTTPClient creates a Source with a custom http.Client and base URL.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewSourceWithHTTPClient(httpClient *http.Client, baseURL, token, repoFullName, path, ref string) (*Source, error) {
	client := gh.NewClient(httpClient)
	if token != "" {
		client = client.WithAuthToken(token)
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	return newSource(client, repoFullName, path, ref)
}

func newSource(client *gh.Client, repoFullName, path, ref string) (*Source, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}
	if strings.Trim(path, "/") == "" {
		return nil, fmt.Errorf("github code source needs a file path in %s", repoFullName)
	}
	return &Source{
		gh:    client,
		owner: owner,
		repo:  repo,
		path:  strings.Trim(path, "/"),
		ref:   ref,
	}, nil
}

// Name returns "owner/repo/path" plus "@ref" when a ref is pinned.
func (s *Source) Name() string {
	name := s.owner + "/" + s.repo + "/" + s.path
	if s.ref != "" {
		name += "@" + s.ref
	}
	return name
}

// Signature returns the blob SHA of the file.
func (s *Source) Signature(ctx context.Context) (string, error) {
	file, err := s.fetch(ctx)
	if err != nil {
		return "", err
	}
	return file.GetSHA(), nil
}

// Open returns the decoded file content.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	file, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}

	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w: %w", s.Name(), model.ErrSourceUnavailable, err)
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

func (s *Source) fetch(ctx context.Context) (*gh.RepositoryContent, error) {
	opts := &gh.RepositoryContentGetOptions{Ref: s.ref}

	file, _, resp, err := s.gh.Repositories.GetContents(ctx, s.owner, s.repo, s.path, opts)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w: %w", s.Name(), model.ErrSourceUnavailable, err)
	}
	logRateLimit(resp, s.Name())

	if file == nil {
		return nil, fmt.Errorf("fetching %s: %w: path is a directory", s.Name(), model.ErrSourceUnavailable)
	}
	return file, nil
}

// logRateLimit logs rate limit information from a GitHub API response.
func logRateLimit(resp *gh.Response, endpoint string) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", endpoint,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Limit > 0 && resp.Rate.Remaining < 10 {
		slog.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}

func splitRepo(fullName string) (string, string, error) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo name %q: expected owner/repo", fullName)
	}
	return parts[0], parts[1], nil
}
