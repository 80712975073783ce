package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AlphaScreener/internal/domain"
	"AlphaScreener/internal/ports"
)

type fakeAnalyzer struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
	cache ports.Cache
}

func (a *fakeAnalyzer) AnalyzeWithProgress(ctx context.Context, id domain.ProjectIdentifier, observer ports.StateObserver) (domain.AnalysisResult, domain.AnalysisProgress, error) {
	a.mu.Lock()
	a.calls = append(a.calls, id.Name)
	a.mu.Unlock()

	if a.cache != nil {
		if ok, _ := a.cache.Exists(ctx, id.Fingerprint()); ok {
			return domain.AnalysisResult{}, domain.NewProgress(), errors.New("served stale cache")
		}
	}
	if err := a.fail[id.Name]; err != nil {
		return domain.AnalysisResult{}, domain.AnalysisProgress{}, err
	}
	if observer != nil {
		if err := observer(ctx, domain.StateCompleted); err != nil {
			return domain.AnalysisResult{}, domain.AnalysisProgress{}, err
		}
	}
	progress := domain.NewProgress()
	return domain.AnalysisResult{
		Analysis: domain.FullAnalysis{
			ProjectID:  id.Name,
			Rating:     domain.FinalRating{FinalGrade: domain.GradeC, CompositeScore: 55},
			AnalyzedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		JSON:      `{"projectId":"` + id.Name + `"}`,
		NoFunding: true,
	}, progress, nil
}

type memoryReports struct {
	mu      sync.Mutex
	reports []domain.StoredReport
	err     error
}

func (r *memoryReports) SaveReport(_ context.Context, report domain.StoredReport) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, report)
	return nil
}

func (r *memoryReports) LatestReports(_ context.Context, name string, limit int) ([]domain.StoredReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.StoredReport{}
	for i := len(r.reports) - 1; i >= 0 && len(out) < limit; i-- {
		if r.reports[i].ProjectName == name {
			out = append(out, r.reports[i])
		}
	}
	return out, nil
}

type captureNotifier struct {
	mu      sync.Mutex
	digests []string
}

func (n *captureNotifier) PublishDigest(_ context.Context, digest string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.digests = append(n.digests, digest)
	return nil
}

func TestPipelineRunRecordsAndNotifies(t *testing.T) {
	t.Parallel()

	reports := &memoryReports{}
	notifier := &captureNotifier{}
	p := NewPipeline(PipelineDeps{
		Analyzer:   &fakeAnalyzer{},
		Repository: reports,
		Notifier:   notifier,
	})

	var seen []domain.AnalysisState
	observer := func(_ context.Context, s domain.AnalysisState) error {
		seen = append(seen, s)
		return nil
	}

	result, err := p.Run(context.Background(), domain.ProjectIdentifier{Name: " Example "}, RunOptions{Observer: observer, Notify: true})
	require.NoError(t, err)
	assert.Equal(t, "Example", result.Analysis.ProjectID)
	assert.Equal(t, []domain.AnalysisState{domain.StateCompleted}, seen)

	require.Len(t, reports.reports, 1)
	stored := reports.reports[0]
	assert.NotEmpty(t, stored.RunID)
	assert.Equal(t, domain.GradeC, stored.Grade)
	assert.Equal(t, 55, stored.CompositeScore)
	assert.True(t, stored.NoFunding)
	assert.Equal(t, result.JSON, stored.Payload)

	require.Len(t, notifier.digests, 1)
	assert.Contains(t, notifier.digests[0], "*Example Analysis*")

	history, err := p.History(context.Background(), "Example", 5)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestPipelineRunWithoutNotify(t *testing.T) {
	t.Parallel()

	notifier := &captureNotifier{}
	p := NewPipeline(PipelineDeps{Analyzer: &fakeAnalyzer{}, Notifier: notifier})

	_, err := p.Run(context.Background(), domain.ProjectIdentifier{Name: "Example"}, RunOptions{})
	require.NoError(t, err)
	assert.Empty(t, notifier.digests)
}

func TestPipelineRunHistoryFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	p := NewPipeline(PipelineDeps{
		Analyzer:   &fakeAnalyzer{},
		Repository: &memoryReports{err: errors.New("db down")},
	})

	_, err := p.Run(context.Background(), domain.ProjectIdentifier{Name: "Example"}, RunOptions{})
	assert.NoError(t, err)
}

func TestPipelineRunPropagatesAnalysisError(t *testing.T) {
	t.Parallel()

	boom := errors.New("docs unreachable")
	reports := &memoryReports{}
	p := NewPipeline(PipelineDeps{
		Analyzer:   &fakeAnalyzer{fail: map[string]error{"Example": boom}},
		Repository: reports,
	})

	_, err := p.Run(context.Background(), domain.ProjectIdentifier{Name: "Example"}, RunOptions{})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, reports.reports)

	_, err = p.Run(context.Background(), domain.ProjectIdentifier{}, RunOptions{})
	assert.ErrorIs(t, err, domain.ErrInvalidIdentifier)
}

func TestRefreshWatchlistBypassesCacheAndContinuesPastFailures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache := newJSONCache()
	require.NoError(t, cache.Set(ctx, domain.ProjectIdentifier{Name: "Alpha"}.Fingerprint(), "stale", time.Hour))

	boom := errors.New("rate limited")
	analyzer := &fakeAnalyzer{cache: cache, fail: map[string]error{"Beta": boom}}
	notifier := &captureNotifier{}
	p := NewPipeline(PipelineDeps{
		Analyzer: analyzer,
		Notifier: notifier,
		Cache:    cache,
		Watchlist: []domain.ProjectIdentifier{
			{Name: "Alpha"}, {Name: "Beta"}, {Name: "Gamma"},
		},
	})

	err := p.RefreshWatchlist(ctx, time.Now())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"Alpha", "Beta", "Gamma"}, analyzer.calls)
	assert.Len(t, notifier.digests, 2)
}

func TestPipelineRecordsOnlyExecutedRuns(t *testing.T) {
	t.Parallel()

	f := newFixture(false)
	reports := &memoryReports{}
	p := NewPipeline(PipelineDeps{
		Analyzer:   f.orchestrator(false),
		Repository: reports,
		Cache:      f.cache,
	})
	id := domain.ProjectIdentifier{Name: "Example"}

	for range 3 {
		_, err := p.Run(context.Background(), id, RunOptions{})
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), f.docs.gathered.Load())
	require.Len(t, reports.reports, 1)

	_, err := p.Run(context.Background(), id, RunOptions{Refresh: true})
	require.NoError(t, err)
	require.Len(t, reports.reports, 2)
	assert.NotEqual(t, reports.reports[0].RunID, reports.reports[1].RunID)
}
