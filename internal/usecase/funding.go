package usecase

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"AlphaScreener/internal/domain"
	"AlphaScreener/internal/ports"
	"AlphaScreener/internal/reconcile"
)

// FundingService reconciles funding histories from independent providers.
type FundingService struct {
	providers []ports.FundingProvider
	logger    *slog.Logger
}

// NewFundingService builds the funding stage over the given providers.
func NewFundingService(logger *slog.Logger, providers ...ports.FundingProvider) *FundingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &FundingService{providers: providers, logger: logger.With("component", "funding")}
}

// Analyze queries every provider concurrently. A provider error counts as
// "no data" from that provider. Nil means no rounds were found anywhere.
func (s *FundingService) Analyze(ctx context.Context, projectName string) (*domain.FundingAnalysis, error) {
	results := make([]*domain.RawFundingData, len(s.providers))

	var g errgroup.Group
	for i, provider := range s.providers {
		g.Go(func() error {
			data, err := provider.FetchFunding(ctx, projectName)
			if err != nil {
				s.logger.Warn("funding provider failed", "provider", provider.Name(), "project", projectName, "error", err)
				return nil
			}
			results[i] = data
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var merged *domain.RawFundingData
	for _, data := range results {
		merged = reconcile.MergeFunding(merged, data)
	}
	return reconcile.BuildFundingAnalysis(merged), nil
}
