package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"AlphaScreener/internal/domain"
	"AlphaScreener/internal/ports"
)

// Analyzer is the orchestrator as seen by the front ends.
type Analyzer interface {
	AnalyzeWithProgress(ctx context.Context, id domain.ProjectIdentifier, observer ports.StateObserver) (domain.AnalysisResult, domain.AnalysisProgress, error)
}

// PipelineDeps wires the orchestrator to history, notification and cache.
type PipelineDeps struct {
	Analyzer   Analyzer
	Repository ports.ReportRepository
	Notifier   ports.Notifier
	Cache      ports.Cache
	Watchlist  []domain.ProjectIdentifier
	Logger     *slog.Logger
}

// Pipeline runs analyses on behalf of the CLI, the HTTP API and the
// watchlist scheduler, and records what they produce.
type Pipeline struct {
	analyzer   Analyzer
	repository ports.ReportRepository
	notifier   ports.Notifier
	cache      ports.Cache
	watchlist  []domain.ProjectIdentifier
	logger     *slog.Logger
}

// RunOptions tunes a single Run.
type RunOptions struct {
	Observer ports.StateObserver
	Notify   bool
	Refresh  bool
}

// NewPipeline constructs the component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		analyzer:   deps.Analyzer,
		repository: deps.Repository,
		notifier:   deps.Notifier,
		cache:      deps.Cache,
		watchlist:  deps.Watchlist,
		logger:     logger,
	}
}

// Run analyzes one project. Refresh drops any cached result first. A
// successful pipeline run is appended to the report history; results served
// from cache or shared with another caller are not. With Notify the result
// is sent as a digest. History and notification failures are logged, not returned.
func (p *Pipeline) Run(ctx context.Context, id domain.ProjectIdentifier, opts RunOptions) (domain.AnalysisResult, error) {
	if p.analyzer == nil {
		return domain.AnalysisResult{}, errors.New("pipeline has no analyzer")
	}
	if err := id.Validate(); err != nil {
		return domain.AnalysisResult{}, err
	}

	if opts.Refresh && p.cache != nil {
		if err := p.cache.Delete(ctx, id.Fingerprint()); err != nil {
			p.logger.Warn("cache invalidation failed", "project", id.Name, "error", err)
		}
	}

	result, progress, err := p.analyzer.AnalyzeWithProgress(ctx, id, opts.Observer)
	if err != nil {
		return domain.AnalysisResult{}, err
	}

	if progress.Executed() {
		p.record(ctx, progress.RunID, result)
	}
	if opts.Notify {
		p.notify(ctx, result)
	}
	return result, nil
}

// History returns recent reports for a project, newest first.
func (p *Pipeline) History(ctx context.Context, projectName string, limit int) ([]domain.StoredReport, error) {
	if p.repository == nil {
		return []domain.StoredReport{}, nil
	}
	reports, err := p.repository.LatestReports(ctx, projectName, limit)
	if err != nil {
		return nil, fmt.Errorf("latest reports: %w", err)
	}
	return reports, nil
}

// RefreshWatchlist re-analyzes every watchlist project, bypassing the
// cache, and notifies each result. It keeps going past failures and
// returns them joined.
func (p *Pipeline) RefreshWatchlist(ctx context.Context, trigger time.Time) error {
	p.logger.Info("watchlist refresh started", "projects", len(p.watchlist), "trigger", trigger)

	var errs []error
	for _, id := range p.watchlist {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if _, err := p.Run(ctx, id, RunOptions{Notify: true, Refresh: true}); err != nil {
			p.logger.Error("watchlist analysis failed", "project", id.Name, "error", err)
			errs = append(errs, fmt.Errorf("analyze %s: %w", id.Name, err))
		}
	}

	p.logger.Info("watchlist refresh finished", "failed", len(errs))
	return errors.Join(errs...)
}

func (p *Pipeline) record(ctx context.Context, runID string, result domain.AnalysisResult) {
	if p.repository == nil {
		return
	}
	report := domain.StoredReport{
		RunID:          runID,
		ProjectName:    result.Analysis.ProjectID,
		Grade:          result.Analysis.Rating.FinalGrade,
		CompositeScore: result.Analysis.Rating.CompositeScore,
		NoFunding:      result.NoFunding,
		Payload:        result.JSON,
		CreatedAt:      result.Analysis.AnalyzedAt,
	}
	if err := p.repository.SaveReport(ctx, report); err != nil {
		p.logger.Warn("save report failed", "project", report.ProjectName, "error", err)
	}
}

func (p *Pipeline) notify(ctx context.Context, result domain.AnalysisResult) {
	if p.notifier == nil {
		return
	}
	if err := p.notifier.PublishDigest(ctx, FormatDigest(result.Analysis)); err != nil {
		p.logger.Warn("publish digest failed", "project", result.Analysis.ProjectID, "error", err)
	}
}
