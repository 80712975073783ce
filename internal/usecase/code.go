package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strings"
	"time"

	"AlphaScreener/internal/domain"
	"AlphaScreener/internal/ports"
)

var githubRepoPattern = regexp.MustCompile(`github\.com/([^/?#\s]+)/([^/?#\s]+)`)

const recentCommitsForPrompt = 20

// ParseGitHubURL extracts owner and repository from a GitHub URL.
func ParseGitHubURL(raw string) (owner, repo string, err error) {
	m := githubRepoPattern.FindStringSubmatch(raw)
	if m == nil {
		return "", "", fmt.Errorf("%w: %q", domain.ErrInvalidGitHubURL, raw)
	}
	repo = strings.TrimSuffix(m[2], ".git")
	if repo == "" {
		return "", "", fmt.Errorf("%w: %q", domain.ErrInvalidGitHubURL, raw)
	}
	return m[1], repo, nil
}

// CodeMetrics are the derived repository figures given to the code judge.
type CodeMetrics struct {
	RepoAgeDays            int     `json:"repoAgeDays"`
	AvgCommitSize          float64 `json:"avgCommitSize"`
	CommitFrequencyPerWeek float64 `json:"commitFrequencyPerWeek"`
	DaysSinceLastCommit    int     `json:"daysSinceLastCommit"`
}

// ComputeCodeMetrics derives activity figures as of now. Commits are
// expected newest first.
func ComputeCodeMetrics(data domain.RawCodeData, now time.Time) CodeMetrics {
	days := func(since time.Time) int {
		return int(math.Floor(now.Sub(since).Hours() / 24))
	}

	m := CodeMetrics{RepoAgeDays: days(data.Repository.CreatedAt)}
	m.DaysSinceLastCommit = m.RepoAgeDays
	if len(data.Commits) > 0 {
		m.DaysSinceLastCommit = days(data.Commits[0].Date)

		var changed int
		for _, c := range data.Commits {
			changed += c.Additions + c.Deletions
		}
		m.AvgCommitSize = float64(changed) / float64(len(data.Commits))
	}

	weeks := math.Max(1, float64(m.RepoAgeDays)/7)
	m.CommitFrequencyPerWeek = float64(data.TotalCommits) / weeks
	return m
}

// CodeService judges repository activity.
type CodeService struct {
	source ports.CodeSource
	ai     ports.Completer
	logger *slog.Logger
	now    func() time.Time
}

// NewCodeService builds the code stage.
func NewCodeService(source ports.CodeSource, ai ports.Completer, logger *slog.Logger) *CodeService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CodeService{source: source, ai: ai, logger: logger.With("component", "code"), now: time.Now}
}

// Analyze fetches and judges the repository behind githubURL.
func (s *CodeService) Analyze(ctx context.Context, githubURL string) (domain.CodeAnalysis, error) {
	owner, repo, err := ParseGitHubURL(githubURL)
	if err != nil {
		return domain.CodeAnalysis{}, err
	}
	if s.source == nil {
		return domain.CodeAnalysis{}, fmt.Errorf("code source is not configured")
	}

	data, err := s.source.FetchCodeData(ctx, owner, repo)
	if err != nil {
		return domain.CodeAnalysis{}, fmt.Errorf("fetch repository %s/%s: %w", owner, repo, err)
	}
	metrics := ComputeCodeMetrics(data, s.now())

	recent := data.Commits
	if len(recent) > recentCommitsForPrompt {
		recent = recent[:recentCommitsForPrompt]
	}
	prompt := render(codePrompt, "repository", pretty(map[string]any{
		"repository":       data.Repository,
		"totalCommits":     data.TotalCommits,
		"contributorCount": len(data.Contributors),
		"languages":        data.Languages,
		"recentCommits":    recent,
		"metrics":          metrics,
	}))

	analysis, err := Judge[domain.CodeAnalysis](ctx, s.ai, prompt)
	if err != nil {
		return domain.CodeAnalysis{}, fmt.Errorf("judge code: %w", err)
	}
	analysis.Normalize()

	analysis.RepoAge = metrics.RepoAgeDays
	analysis.TotalCommits = data.TotalCommits
	analysis.TotalContributors = len(data.Contributors)
	analysis.LastCommitDate = nil
	if len(data.Commits) > 0 {
		last := data.Commits[0].Date.UTC()
		analysis.LastCommitDate = &last
	}
	s.logger.Debug("repository analyzed", "repo", owner+"/"+repo, "commits", data.TotalCommits)
	return analysis, nil
}
