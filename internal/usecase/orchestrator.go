package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"AlphaScreener/internal/domain"
	"AlphaScreener/internal/ports"
)

// DefaultCacheTTL is how long a finished analysis is served from cache.
const DefaultCacheTTL = time.Hour

// Run outcomes reported to RunMetrics.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeCached    = "cached"
)

// Stage contracts consumed by the orchestrator. The services in this
// package satisfy them.
type (
	DocumentationStage interface {
		Gather(ctx context.Context, id domain.ProjectIdentifier) (string, error)
		Analyze(ctx context.Context, projectName, content string) (domain.DocumentationAnalysis, error)
	}
	FundingStage interface {
		Analyze(ctx context.Context, projectName string) (*domain.FundingAnalysis, error)
	}
	MarketStage interface {
		Analyze(ctx context.Context, projectName string, narrative domain.Narrative) (domain.MarketAnalysis, error)
	}
	TeamStage interface {
		AnalyzeFromDocumentation(ctx context.Context, projectName, documentation string) (domain.TeamAnalysis, error)
	}
	CodeStage interface {
		Analyze(ctx context.Context, githubURL string) (domain.CodeAnalysis, error)
	}
	RatingStage interface {
		Generate(ctx context.Context, projectName string, documentation domain.DocumentationAnalysis,
			funding *domain.FundingAnalysis, market domain.MarketAnalysis, team domain.TeamAnalysis,
			code domain.CodeAnalysis) (domain.FinalRating, error)
	}
)

var (
	_ DocumentationStage = (*DocumentationService)(nil)
	_ FundingStage       = (*FundingService)(nil)
	_ MarketStage        = (*MarketService)(nil)
	_ TeamStage          = (*TeamService)(nil)
	_ CodeStage          = (*CodeService)(nil)
	_ RatingStage        = (*RatingService)(nil)
)

// OrchestratorDeps wires the stages and shared infrastructure.
type OrchestratorDeps struct {
	Documentation DocumentationStage
	Funding       FundingStage
	Market        MarketStage
	Team          TeamStage
	Code          CodeStage
	Rating        RatingStage
	Cache         ports.Cache
	Metrics       ports.RunMetrics
	Logger        *slog.Logger
	CacheTTL      time.Duration
	// Coalesce makes concurrent cache-miss runs for one project share a
	// single pipeline execution.
	Coalesce bool
}

// Orchestrator drives one analysis run per call through the state machine.
type Orchestrator struct {
	docs    DocumentationStage
	funding FundingStage
	market  MarketStage
	team    TeamStage
	code    CodeStage
	rating  RatingStage

	cache    ports.Cache
	ttl      time.Duration
	metrics  ports.RunMetrics
	logger   *slog.Logger
	coalesce bool
	inflight singleflight.Group
	now      func() time.Time
}

// NewOrchestrator constructs the analysis pipeline.
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := deps.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Orchestrator{
		docs:     deps.Documentation,
		funding:  deps.Funding,
		market:   deps.Market,
		team:     deps.Team,
		code:     deps.Code,
		rating:   deps.Rating,
		cache:    deps.Cache,
		ttl:      ttl,
		metrics:  metrics,
		logger:   logger.With("component", "orchestrator"),
		coalesce: deps.Coalesce,
		now:      time.Now,
	}
}

// Analyze runs the pipeline for id, calling observer after each transition.
func (o *Orchestrator) Analyze(ctx context.Context, id domain.ProjectIdentifier, observer ports.StateObserver) (domain.AnalysisResult, error) {
	result, _, err := o.AnalyzeWithProgress(ctx, id, observer)
	return result, err
}

// AnalyzeWithProgress is Analyze that also returns the run's progress
// record. A cache hit or a coalesced run yields a ReusedProgress record,
// which has no run id and no history.
//
// A coalesced run is detached from the caller that started it: each caller
// stops waiting when its own ctx is done and the run continues for the
// others.
func (o *Orchestrator) AnalyzeWithProgress(ctx context.Context, id domain.ProjectIdentifier, observer ports.StateObserver) (domain.AnalysisResult, domain.AnalysisProgress, error) {
	if err := id.Validate(); err != nil {
		return domain.AnalysisResult{}, domain.AnalysisProgress{}, err
	}
	key := id.Fingerprint()

	if cached, ok := o.lookup(ctx, key); ok {
		o.logger.Info("analysis served from cache", "project", id.Name)
		o.metrics.ObserveRun(OutcomeCached, 0)
		return cached, domain.ReusedProgress(), nil
	}

	if !o.coalesce {
		return o.execute(ctx, id, key, observer)
	}

	type outcome struct {
		result   domain.AnalysisResult
		progress domain.AnalysisProgress
	}
	leader := false
	ch := o.inflight.DoChan(key, func() (any, error) {
		leader = true
		result, progress, err := o.execute(context.WithoutCancel(ctx), id, key, whileInterested(ctx, observer))
		return outcome{result: result, progress: progress}, err
	})

	select {
	case <-ctx.Done():
		o.logger.Info("caller stopped waiting for analysis", "project", id.Name, "error", ctx.Err())
		return domain.AnalysisResult{}, domain.AnalysisProgress{}, ctx.Err()
	case res := <-ch:
		out, _ := res.Val.(outcome)
		if !leader {
			o.logger.Info("joined in-flight analysis", "project", id.Name, "shared", res.Shared)
			return out.result, domain.ReusedProgress(), res.Err
		}
		return out.result, out.progress, res.Err
	}
}

// whileInterested forwards transitions to observer until ctx is done, then
// drops them so a departed caller cannot fail a shared run.
func whileInterested(ctx context.Context, observer ports.StateObserver) ports.StateObserver {
	if observer == nil {
		return nil
	}
	return func(_ context.Context, state domain.AnalysisState) error {
		if ctx.Err() != nil {
			return nil
		}
		return observer(ctx, state)
	}
}

func (o *Orchestrator) lookup(ctx context.Context, key string) (domain.AnalysisResult, bool) {
	var cached domain.AnalysisResult
	if o.cache == nil {
		return cached, false
	}
	found, err := o.cache.Get(ctx, key, &cached)
	if err != nil {
		o.logger.Warn("cache lookup failed", "key", key, "error", err)
		return domain.AnalysisResult{}, false
	}
	return cached, found
}

// run carries one execution's progress. It is never shared across calls.
type run struct {
	o        *Orchestrator
	progress domain.AnalysisProgress
	observer ports.StateObserver
}

func (r *run) transition(ctx context.Context, state domain.AnalysisState, metadata map[string]any) error {
	r.progress = domain.Transition(r.progress, state, metadata)
	r.o.metrics.ObserveTransition(state)
	r.o.logger.Debug("state transition", "run", r.progress.RunID, "state", state)
	if r.observer == nil {
		return nil
	}
	if err := r.observer(ctx, state); err != nil {
		return fmt.Errorf("observe %s: %w", state, err)
	}
	return nil
}

func (o *Orchestrator) execute(ctx context.Context, id domain.ProjectIdentifier, key string, observer ports.StateObserver) (domain.AnalysisResult, domain.AnalysisProgress, error) {
	r := &run{o: o, progress: domain.NewProgress(), observer: observer}
	started := o.now()

	result, err := o.pipeline(ctx, r, id, key)
	elapsed := o.now().Sub(started)
	if err != nil {
		r.progress = domain.Fail(r.progress, err)
		o.metrics.ObserveTransition(domain.StateFailed)
		if observer != nil {
			if obsErr := observer(ctx, domain.StateFailed); obsErr != nil {
				o.logger.Warn("observer rejected failure", "run", r.progress.RunID, "error", obsErr)
			}
		}
		o.metrics.ObserveRun(OutcomeFailed, elapsed)
		o.logger.Error("analysis failed", "project", id.Name, "run", r.progress.RunID, "error", err)
		return domain.AnalysisResult{}, r.progress, err
	}

	o.metrics.ObserveRun(OutcomeCompleted, elapsed)
	o.logger.Info("analysis completed", "project", id.Name, "run", r.progress.RunID,
		"grade", result.Analysis.Rating.FinalGrade, "elapsed", elapsed)
	return result, r.progress, nil
}

func (o *Orchestrator) pipeline(ctx context.Context, r *run, id domain.ProjectIdentifier, key string) (domain.AnalysisResult, error) {
	var none domain.AnalysisResult

	if err := r.transition(ctx, domain.StateFetchingDocumentation, nil); err != nil {
		return none, err
	}
	content, err := o.docs.Gather(ctx, id)
	if err != nil {
		return none, err
	}

	if err := r.transition(ctx, domain.StateAnalyzingDocumentation, nil); err != nil {
		return none, err
	}
	documentation, err := o.docs.Analyze(ctx, id.Name, content)
	if err != nil {
		return none, err
	}

	if err := r.transition(ctx, domain.StateCheckingFundingSignal, map[string]any{
		"hasFundingSignal": documentation.HasFundingSignal,
	}); err != nil {
		return none, err
	}

	gathered, err := o.gather(ctx, r, id, documentation, content)
	if err != nil {
		return none, err
	}

	if err := r.transition(ctx, domain.StateGeneratingRating, nil); err != nil {
		return none, err
	}
	rating, err := o.rating.Generate(ctx, id.Name, documentation, gathered.funding, gathered.market, gathered.team, gathered.code)
	if err != nil {
		return none, err
	}

	if err := r.transition(ctx, domain.StateFormattingOutput, nil); err != nil {
		return none, err
	}
	analysis := domain.FullAnalysis{
		ProjectID:     id.Name,
		Documentation: documentation,
		Funding:       gathered.funding,
		Market:        gathered.market,
		Team:          gathered.team,
		Code:          gathered.code,
		Rating:        rating,
		AnalyzedAt:    o.now().UTC(),
	}
	jsonOut, err := FormatJSON(analysis)
	if err != nil {
		return none, err
	}
	result := domain.AnalysisResult{
		Analysis:  analysis,
		JSON:      jsonOut,
		Markdown:  FormatMarkdown(analysis),
		NoFunding: !documentation.HasFundingSignal,
	}

	if o.cache != nil {
		if err := o.cache.Set(ctx, key, result, o.ttl); err != nil {
			return none, fmt.Errorf("cache analysis: %w", err)
		}
	}

	if err := r.transition(ctx, domain.StateCompleted, nil); err != nil {
		return none, err
	}
	return result, nil
}

type gathered struct {
	funding *domain.FundingAnalysis
	market  domain.MarketAnalysis
	team    domain.TeamAnalysis
	code    domain.CodeAnalysis
}

// gather runs the funding, market, team and code stages concurrently while
// emitting their transitions in pipeline order. Every stage has finished
// when it returns.
func (o *Orchestrator) gather(ctx context.Context, r *run, id domain.ProjectIdentifier, documentation domain.DocumentationAnalysis, content string) (gathered, error) {
	// Stages do not cancel each other: a failure is reported once the
	// transitions before it have been emitted. Only an observer failure
	// stops the stages still running.
	stageCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	var g errgroup.Group

	var fundingTask *task[*domain.FundingAnalysis]
	if documentation.HasFundingSignal {
		fundingTask = spawn(&g, func() (*domain.FundingAnalysis, error) {
			return o.funding.Analyze(stageCtx, id.Name)
		})
	}
	marketTask := spawn(&g, func() (domain.MarketAnalysis, error) {
		return o.market.Analyze(stageCtx, id.Name, documentation.Narrative)
	})
	teamTask := spawn(&g, func() (domain.TeamAnalysis, error) {
		return o.team.AnalyzeFromDocumentation(stageCtx, id.Name, content)
	})
	var codeTask *task[domain.CodeAnalysis]
	if id.HasRepository() {
		codeTask = spawn(&g, func() (domain.CodeAnalysis, error) {
			return o.code.Analyze(stageCtx, id.GitHubURL)
		})
	}

	abort := func(err error) (gathered, error) {
		cancel()
		_ = g.Wait()
		return gathered{}, err
	}

	var out gathered
	var err error

	if fundingTask != nil {
		if err = r.transition(ctx, domain.StateFetchingFunding, nil); err != nil {
			return abort(err)
		}
		if err = r.transition(ctx, domain.StateAnalyzingFunding, nil); err != nil {
			return abort(err)
		}
		if out.funding, err = fundingTask.wait(); err != nil {
			return abort(err)
		}
	} else if err = r.transition(ctx, domain.StateNoFunding, nil); err != nil {
		return abort(err)
	}

	if err = r.transition(ctx, domain.StateFetchingMarketData, nil); err != nil {
		return abort(err)
	}
	if err = r.transition(ctx, domain.StateAnalyzingMarket, nil); err != nil {
		return abort(err)
	}
	if out.market, err = marketTask.wait(); err != nil {
		return abort(err)
	}

	if err = r.transition(ctx, domain.StateFetchingTeamData, nil); err != nil {
		return abort(err)
	}
	if err = r.transition(ctx, domain.StateAnalyzingTeam, nil); err != nil {
		return abort(err)
	}
	if out.team, err = teamTask.wait(); err != nil {
		return abort(err)
	}

	out.code = domain.NoCodeAnalysis()
	if codeTask != nil {
		if err = r.transition(ctx, domain.StateFetchingCode, map[string]any{"url": id.GitHubURL}); err != nil {
			return abort(err)
		}
		if err = r.transition(ctx, domain.StateAnalyzingCode, nil); err != nil {
			return abort(err)
		}
		if out.code, err = codeTask.wait(); err != nil {
			return abort(err)
		}
	}

	if err = g.Wait(); err != nil {
		return gathered{}, err
	}
	return out, nil
}

// task is a stage running inside an errgroup.
type task[T any] struct {
	done chan struct{}
	val  T
	err  error
}

func spawn[T any](g *errgroup.Group, fn func() (T, error)) *task[T] {
	t := &task[T]{done: make(chan struct{})}
	g.Go(func() error {
		defer close(t.done)
		t.val, t.err = fn()
		return t.err
	})
	return t
}

func (t *task[T]) wait() (T, error) {
	<-t.done
	return t.val, t.err
}

type noopMetrics struct{}

func (noopMetrics) ObserveTransition(domain.AnalysisState) {}
func (noopMetrics) ObserveRun(string, time.Duration)      {}

