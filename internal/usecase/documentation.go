package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"AlphaScreener/internal/domain"
	"AlphaScreener/internal/ports"
)

const (
	maxDocumentationRunes = 50000
	truncationMarker      = "\n\n[Content truncated...]"
)

// DocumentationService gathers project documentation and judges it.
type DocumentationService struct {
	source ports.DocumentationSource
	ai     ports.Completer
	logger *slog.Logger
}

// NewDocumentationService builds the documentation stage.
func NewDocumentationService(source ports.DocumentationSource, ai ports.Completer, logger *slog.Logger) *DocumentationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentationService{source: source, ai: ai, logger: logger.With("component", "documentation")}
}

// Gather returns the raw documentation text: the docs site when known,
// otherwise the website, otherwise "". Fetch failures are fatal.
func (s *DocumentationService) Gather(ctx context.Context, id domain.ProjectIdentifier) (string, error) {
	if s.source == nil {
		return "", nil
	}

	switch {
	case id.DocsURL != "":
		doc, err := s.source.FetchDocumentation(ctx, id.DocsURL)
		if err != nil {
			return "", fmt.Errorf("fetch documentation %s: %w", id.DocsURL, err)
		}
		s.logger.Debug("documentation fetched", "url", id.DocsURL, "sections", len(doc.Sections))
		return doc.Content, nil
	case id.Website != "":
		content, err := s.source.FetchWebsiteContent(ctx, id.Website)
		if err != nil {
			return "", fmt.Errorf("fetch website %s: %w", id.Website, err)
		}
		return content, nil
	}
	return "", nil
}

// Analyze judges the documentation of the named project. Empty content is
// replaced by the project name alone.
func (s *DocumentationService) Analyze(ctx context.Context, projectName, content string) (domain.DocumentationAnalysis, error) {
	if strings.TrimSpace(content) == "" {
		content = "Project: " + projectName
	}

	prompt := render(documentationPrompt,
		"content", truncateRunes(content, maxDocumentationRunes, truncationMarker))

	analysis, err := Judge[domain.DocumentationAnalysis](ctx, s.ai, prompt)
	if err != nil {
		return domain.DocumentationAnalysis{}, fmt.Errorf("judge documentation: %w", err)
	}
	analysis.Normalize()
	return analysis, nil
}
