package ports

import (
	"context"
	"time"

	"AlphaScreener/internal/domain"
)

// DocumentationSource fetches project documentation and websites.
type DocumentationSource interface {
	FetchDocumentation(ctx context.Context, url string) (domain.DocumentationContent, error)
	FetchWebsiteContent(ctx context.Context, url string) (string, error)
}

// FundingProvider returns one provider's funding history. A project the
// provider does not know, or an unconfigured provider, yields nil, nil.
type FundingProvider interface {
	Name() string
	FetchFunding(ctx context.Context, projectName string) (*domain.RawFundingData, error)
}

// MarketProvider returns one provider's market quote, nil when unknown.
type MarketProvider interface {
	Name() string
	FetchMarket(ctx context.Context, identifier string) (*domain.RawMarketData, error)
}

// CodeSource gathers repository activity.
type CodeSource interface {
	FetchCodeData(ctx context.Context, owner, repo string) (domain.RawCodeData, error)
}

// Completer turns a prompt into a model completion.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Cache is an eventually consistent key-value store with per-key TTL.
// Get decodes the stored value into dst and reports whether it was found.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Clear(ctx context.Context) error
}

// ReportRepository keeps the history of completed analyses.
type ReportRepository interface {
	SaveReport(ctx context.Context, report domain.StoredReport) error
	LatestReports(ctx context.Context, projectName string, limit int) ([]domain.StoredReport, error)
}

// Notifier streams finished reports to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when watchlist refreshes execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}

// StateObserver is told about every transition before the next stage
// starts. A returned error fails the run.
type StateObserver func(ctx context.Context, state domain.AnalysisState) error

// RunMetrics records pipeline activity.
type RunMetrics interface {
	ObserveTransition(state domain.AnalysisState)
	ObserveRun(outcome string, elapsed time.Duration)
}
