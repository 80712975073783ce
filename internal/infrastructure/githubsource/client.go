// Package githubsource gathers repository activity from the GitHub REST API.
package githubsource

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v71/github"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	"AlphaScreener/internal/domain"
	"AlphaScreener/internal/ports"
)

const commitPageSize = 100

var (
	// ErrUnauthorized is returned when GitHub rejects the token.
	ErrUnauthorized = errors.New("github authentication failed")
	// ErrRateLimited is returned when the API quota is exhausted.
	ErrRateLimited = errors.New("github rate limit exceeded")
)

// Client implements ports.CodeSource on top of go-github.
type Client struct {
	gh *github.Client
}

var _ ports.CodeSource = (*Client)(nil)

// New builds an authenticated client when token is set, anonymous otherwise.
// A non-empty baseURL points the client at a different API root.
func New(token, baseURL string) (*Client, error) {
	var httpClient *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}
	gh := github.NewClient(httpClient)

	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("parse github base url: %w", err)
		}
		gh.BaseURL = u
	}
	return &Client{gh: gh}, nil
}

// FetchCodeData loads repository metadata, the latest commits, contributors,
// languages and the readme concurrently. A missing readme is not an error.
func (c *Client) FetchCodeData(ctx context.Context, owner, repo string) (domain.RawCodeData, error) {
	var data domain.RawCodeData

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, _, err := c.gh.Repositories.Get(gctx, owner, repo)
		if err != nil {
			return wrap("get repository", err)
		}
		data.Repository = toRepository(r)
		return nil
	})
	g.Go(func() error {
		commits, _, err := c.gh.Repositories.ListCommits(gctx, owner, repo, &github.CommitsListOptions{
			ListOptions: github.ListOptions{PerPage: commitPageSize},
		})
		if err != nil {
			return wrap("list commits", err)
		}
		data.Commits = toCommits(commits)
		return nil
	})
	g.Go(func() error {
		contributors, _, err := c.gh.Repositories.ListContributors(gctx, owner, repo, &github.ListContributorsOptions{
			ListOptions: github.ListOptions{PerPage: 100},
		})
		if err != nil {
			return wrap("list contributors", err)
		}
		data.Contributors = toContributors(contributors)
		return nil
	})
	g.Go(func() error {
		languages, _, err := c.gh.Repositories.ListLanguages(gctx, owner, repo)
		if err != nil {
			return wrap("list languages", err)
		}
		data.Languages = languages
		return nil
	})
	g.Go(func() error {
		data.Readme = c.readme(gctx, owner, repo)
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.RawCodeData{}, err
	}

	total, err := c.totalCommits(ctx, owner, repo)
	if err != nil {
		return domain.RawCodeData{}, err
	}
	data.TotalCommits = total
	if data.TotalCommits == 0 {
		data.TotalCommits = len(data.Commits)
	}
	if data.Languages == nil {
		data.Languages = map[string]int{}
	}
	return data, nil
}

// totalCommits asks for one commit per page; the last page number is then
// the commit count.
func (c *Client) totalCommits(ctx context.Context, owner, repo string) (int, error) {
	commits, resp, err := c.gh.Repositories.ListCommits(ctx, owner, repo, &github.CommitsListOptions{
		ListOptions: github.ListOptions{PerPage: 1},
	})
	if err != nil {
		return 0, wrap("count commits", err)
	}
	if resp != nil && resp.LastPage > 0 {
		return resp.LastPage, nil
	}
	return len(commits), nil
}

func (c *Client) readme(ctx context.Context, owner, repo string) string {
	content, _, err := c.gh.Repositories.GetReadme(ctx, owner, repo, nil)
	if err != nil || content == nil {
		return ""
	}
	text, err := content.GetContent()
	if err != nil {
		return ""
	}
	return text
}

func wrap(op string, err error) error {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return fmt.Errorf("%s: %w: resets at %s", op, ErrRateLimited, rateErr.Rate.Reset.Time.UTC().Format("15:04:05"))
	}
	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		switch respErr.Response.StatusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("%s: %w", op, ErrUnauthorized)
		case http.StatusForbidden:
			if respErr.Response.Header.Get("X-RateLimit-Remaining") == "0" {
				return fmt.Errorf("%s: %w", op, ErrRateLimited)
			}
			return fmt.Errorf("%s: %w: token may lack required permissions", op, ErrUnauthorized)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func toRepository(r *github.Repository) domain.RepositoryInfo {
	return domain.RepositoryInfo{
		Name:        r.GetName(),
		FullName:    r.GetFullName(),
		Description: r.GetDescription(),
		URL:         r.GetHTMLURL(),
		Stars:       r.GetStargazersCount(),
		Forks:       r.GetForksCount(),
		OpenIssues:  r.GetOpenIssuesCount(),
		Language:    r.GetLanguage(),
		CreatedAt:   r.GetCreatedAt().Time,
		UpdatedAt:   r.GetUpdatedAt().Time,
		PushedAt:    r.GetPushedAt().Time,
	}
}

func toCommits(in []*github.RepositoryCommit) []domain.CommitInfo {
	out := make([]domain.CommitInfo, 0, len(in))
	for _, c := range in {
		out = append(out, domain.CommitInfo{
			SHA:       c.GetSHA(),
			Message:   c.GetCommit().GetMessage(),
			Author:    c.GetCommit().GetAuthor().GetName(),
			Date:      c.GetCommit().GetAuthor().GetDate().Time,
			Additions: c.GetStats().GetAdditions(),
			Deletions: c.GetStats().GetDeletions(),
		})
	}
	return out
}

func toContributors(in []*github.Contributor) []domain.ContributorInfo {
	out := make([]domain.ContributorInfo, 0, len(in))
	for _, c := range in {
		out = append(out, domain.ContributorInfo{
			Username:      c.GetLogin(),
			Contributions: c.GetContributions(),
			ProfileURL:    c.GetHTMLURL(),
		})
	}
	return out
}
