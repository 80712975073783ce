package usecase

import (
	"context"
	"fmt"

	"AlphaScreener/internal/domain"
	"AlphaScreener/internal/ports"
)

// RatingService composes the final verdict.
type RatingService struct {
	ai ports.Completer
}

// NewRatingService builds the rating stage.
func NewRatingService(ai ports.Completer) *RatingService {
	return &RatingService{ai: ai}
}

// Generate asks the judge for a verdict over every stage output and stamps
// the composite score.
func (s *RatingService) Generate(
	ctx context.Context,
	projectName string,
	documentation domain.DocumentationAnalysis,
	funding *domain.FundingAnalysis,
	market domain.MarketAnalysis,
	team domain.TeamAnalysis,
	code domain.CodeAnalysis,
) (domain.FinalRating, error) {
	fundingText := "No funding data available"
	if funding != nil {
		fundingText = pretty(funding)
	}

	prompt := render(ratingPrompt,
		"project", projectName,
		"documentation", pretty(documentation),
		"funding", fundingText,
		"market", pretty(market),
		"team", pretty(team),
		"code", pretty(code),
	)

	rating, err := Judge[domain.FinalRating](ctx, s.ai, prompt)
	if err != nil {
		return domain.FinalRating{}, fmt.Errorf("judge rating: %w", err)
	}
	rating.Normalize()
	rating.CompositeScore = rating.Composite()
	return rating, nil
}
