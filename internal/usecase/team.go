package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"AlphaScreener/internal/domain"
	"AlphaScreener/internal/ports"
)

const maxTeamSourceRunes = 20000

// TeamService identifies and judges the people behind a project.
type TeamService struct {
	ai     ports.Completer
	logger *slog.Logger
}

// NewTeamService builds the team stage.
func NewTeamService(ai ports.Completer, logger *slog.Logger) *TeamService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TeamService{ai: ai, logger: logger.With("component", "team")}
}

// AnalyzeFromDocumentation extracts team members from documentation text
// and judges them. No text or no members gives the empty team analysis.
func (s *TeamService) AnalyzeFromDocumentation(ctx context.Context, projectName, documentation string) (domain.TeamAnalysis, error) {
	if strings.TrimSpace(documentation) == "" {
		return domain.NoTeamAnalysis(), nil
	}

	prompt := render(teamExtractionPrompt,
		"project", projectName,
		"content", truncateRunes(documentation, maxTeamSourceRunes, ""),
	)

	extracted, err := Judge[struct {
		Members []domain.TeamCandidate `json:"members"`
	}](ctx, s.ai, prompt)
	if err != nil {
		return domain.TeamAnalysis{}, fmt.Errorf("extract team: %w", err)
	}

	candidates := extracted.Members[:0]
	for _, c := range extracted.Members {
		if strings.TrimSpace(c.Name) != "" {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		s.logger.Debug("no team members found", "project", projectName)
		return domain.NoTeamAnalysis(), nil
	}

	return s.Analyze(ctx, projectName, candidates)
}

// Analyze judges a known list of team members. Social links are carried
// over from the candidates by name.
func (s *TeamService) Analyze(ctx context.Context, projectName string, candidates []domain.TeamCandidate) (domain.TeamAnalysis, error) {
	prompt := render(teamPrompt,
		"project", projectName,
		"team", pretty(map[string]any{"members": candidates, "source": "documentation"}),
	)

	analysis, err := Judge[domain.TeamAnalysis](ctx, s.ai, prompt)
	if err != nil {
		return domain.TeamAnalysis{}, fmt.Errorf("judge team: %w", err)
	}

	byName := make(map[string]domain.TeamCandidate, len(candidates))
	for _, c := range candidates {
		byName[c.Name] = c
	}
	for i, m := range analysis.Members {
		if c, ok := byName[m.Name]; ok {
			analysis.Members[i].LinkedIn = c.LinkedIn
			analysis.Members[i].Twitter = c.Twitter
		}
	}
	analysis.Normalize()
	return analysis, nil
}
