package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AlphaScreener/internal/domain"
)

const docJudgment = `{"narrative": "DeFi", "writingQuality": {"contextConsistency": 120, "logicalFlow": 70}, "hasFundingSignal": true, "summary": "Lending."}`

func TestDocumentationGatherPrefersDocsURL(t *testing.T) {
	t.Parallel()

	source := &stubDocsSource{doc: domain.DocumentationContent{Content: "docs body"}, website: "site body"}
	s := NewDocumentationService(source, nil, nil)

	content, err := s.Gather(context.Background(), domain.ProjectIdentifier{Name: "X", DocsURL: "https://docs.x.org", Website: "https://x.org"})
	require.NoError(t, err)
	assert.Equal(t, "docs body", content)
	assert.Equal(t, []string{"https://docs.x.org"}, source.urls)

	content, err = s.Gather(context.Background(), domain.ProjectIdentifier{Name: "X", Website: "https://x.org"})
	require.NoError(t, err)
	assert.Equal(t, "site body", content)

	content, err = s.Gather(context.Background(), domain.ProjectIdentifier{Name: "X"})
	require.NoError(t, err)
	assert.Empty(t, content)
}

func TestDocumentationGatherFailureIsFatal(t *testing.T) {
	t.Parallel()

	down := errors.New("503")
	s := NewDocumentationService(&stubDocsSource{err: down}, nil, nil)
	_, err := s.Gather(context.Background(), domain.ProjectIdentifier{Name: "X", DocsURL: "https://docs.x.org"})
	assert.ErrorIs(t, err, down)
}

func TestDocumentationAnalyzeNormalizesAndTruncates(t *testing.T) {
	t.Parallel()

	ai := &scriptedCompleter{replies: map[string]string{"DOCUMENTATION:": docJudgment}}
	s := NewDocumentationService(nil, ai, nil)

	analysis, err := s.Analyze(context.Background(), "X", strings.Repeat("a", maxDocumentationRunes+10))
	require.NoError(t, err)
	assert.Equal(t, domain.NarrativeDeFi, analysis.Narrative)
	assert.Equal(t, 100.0, analysis.WritingQuality.ContextConsistency)
	assert.True(t, analysis.HasFundingSignal)
	assert.NotNil(t, analysis.FundingSignals)

	prompt := ai.calls()[0]
	assert.Contains(t, prompt, "[Content truncated...]")
	assert.NotContains(t, prompt, strings.Repeat("a", maxDocumentationRunes+1))
}

func TestDocumentationAnalyzeFallsBackToName(t *testing.T) {
	t.Parallel()

	ai := &scriptedCompleter{replies: map[string]string{"DOCUMENTATION:": docJudgment}}
	_, err := NewDocumentationService(nil, ai, nil).Analyze(context.Background(), "Nameless", "  ")
	require.NoError(t, err)
	assert.Contains(t, ai.calls()[0], "Project: Nameless")
}

func TestFundingServiceToleratesProviderFailure(t *testing.T) {
	t.Parallel()

	good := stubFundingProvider{name: "cryptorank", data: &domain.RawFundingData{
		TotalRaised: 8_000_000,
		Rounds: []domain.RawFundingRound{
			{Stage: "Seed", AmountUSD: 3_000_000, Date: "2021-06-01", Investors: []string{"Paradigm"}},
			{Stage: "Series A", AmountUSD: 5_000_000, Date: "2022-06-01", Investors: []string{"Dragonfly"}},
		},
	}}
	bad := stubFundingProvider{name: "messari", err: errors.New("401")}

	analysis, err := NewFundingService(nil, bad, good).Analyze(context.Background(), "X")
	require.NoError(t, err)
	require.NotNil(t, analysis)
	assert.Equal(t, domain.StageSeriesA, analysis.Stage)
	assert.Equal(t, 8_000_000.0, analysis.TotalRaisedUSD)
	assert.Len(t, analysis.Rounds, 2)
}

func TestFundingServiceNoRoundsIsNil(t *testing.T) {
	t.Parallel()

	empty := stubFundingProvider{name: "messari", data: &domain.RawFundingData{ProjectName: "X"}}
	missing := stubFundingProvider{name: "cryptorank"}

	analysis, err := NewFundingService(nil, empty, missing).Analyze(context.Background(), "X")
	require.NoError(t, err)
	assert.Nil(t, analysis)
}

func TestMarketServiceMergesQuotesAndNamesCompetitors(t *testing.T) {
	t.Parallel()

	ai := &scriptedCompleter{replies: map[string]string{
		"KNOWN COMPETITORS": `{"problemType": "Broad", "competitors": [{"name": "Aave", "marketCap": null, "similarity": 80}], "differentiationClarity": 55, "marketSaturation": 70, "narrativeCycleTiming": "Later"}`,
	}}
	gecko := stubMarketProvider{name: "coingecko", data: &domain.RawMarketData{MarketCap: domain.Float(9e6)}}
	cmc := stubMarketProvider{name: "coinmarketcap", data: &domain.RawMarketData{MarketCap: domain.Float(1e7), Volume24h: domain.Float(2e5)}}

	analysis, err := NewMarketService(ai, nil, gecko, cmc).Analyze(context.Background(), "X", domain.NarrativeDeFi)
	require.NoError(t, err)

	assert.Equal(t, domain.ProblemBroad, analysis.ProblemType)
	assert.Equal(t, domain.CycleMid, analysis.NarrativeCycleTiming)
	require.Len(t, analysis.Competitors, 1)
	assert.Nil(t, analysis.Competitors[0].MarketCap)
	assert.Equal(t, 9e6, *analysis.MarketCap)
	assert.Equal(t, 2e5, *analysis.Volume24h)
	assert.Nil(t, analysis.PriceChange7d)
	assert.Contains(t, ai.calls()[0], "Uniswap, Aave, Compound, MakerDAO, Curve")
}

func TestMarketServiceWithoutQuotes(t *testing.T) {
	t.Parallel()

	ai := &scriptedCompleter{replies: map[string]string{"KNOWN COMPETITORS": `{"problemType": "Niche", "marketCap": 5}`}}
	failing := stubMarketProvider{name: "coingecko", err: errors.New("timeout")}

	analysis, err := NewMarketService(ai, nil, failing).Analyze(context.Background(), "X", domain.NarrativeUnknown)
	require.NoError(t, err)
	assert.Nil(t, analysis.MarketCap)
	assert.Empty(t, analysis.Competitors)
	assert.Empty(t, Competitors(domain.NarrativeUnknown))
}

func TestTeamServiceCarriesSocialLinks(t *testing.T) {
	t.Parallel()

	ai := &scriptedCompleter{replies: map[string]string{
		"List the team members": `{"members": [{"name": "Ada", "role": "CEO", "twitter": "@ada"}, {"name": ""}]}`,
		"TEAM:":                 `{"members": [{"name": "Ada", "role": "Chief Executive"}], "builderPortfolioStrength": 75, "yearsInCrypto": 6, "skillsetAlignment": 140}`,
	}}

	team, err := NewTeamService(ai, nil).AnalyzeFromDocumentation(context.Background(), "X", "Ada leads the team.")
	require.NoError(t, err)

	require.Len(t, team.Members, 1)
	assert.Equal(t, "@ada", team.Members[0].Twitter)
	assert.Equal(t, "Chief Executive", team.Members[0].Role)
	assert.NotNil(t, team.Members[0].PreviousProjects)
	assert.Equal(t, 100.0, team.SkillsetAlignment)
	assert.Len(t, ai.calls(), 2)
}

func TestTeamServiceWithoutMembersSkipsJudgment(t *testing.T) {
	t.Parallel()

	ai := &scriptedCompleter{replies: map[string]string{"List the team members": `{"members": []}`}}
	team, err := NewTeamService(ai, nil).AnalyzeFromDocumentation(context.Background(), "X", "Nothing about people.")
	require.NoError(t, err)
	assert.Equal(t, domain.NoTeamAnalysis(), team)
	assert.Len(t, ai.calls(), 1)

	team, err = NewTeamService(ai, nil).AnalyzeFromDocumentation(context.Background(), "X", "")
	require.NoError(t, err)
	assert.Equal(t, domain.NoTeamAnalysis(), team)
}

func TestParseGitHubURL(t *testing.T) {
	t.Parallel()

	owner, repo, err := ParseGitHubURL("https://github.com/celestiaorg/celestia-node.git")
	require.NoError(t, err)
	assert.Equal(t, "celestiaorg", owner)
	assert.Equal(t, "celestia-node", repo)

	owner, repo, err = ParseGitHubURL("github.com/foo/bar/tree/main?tab=readme")
	require.NoError(t, err)
	assert.Equal(t, "foo", owner)
	assert.Equal(t, "bar", repo)

	_, _, err = ParseGitHubURL("https://gitlab.com/foo/bar")
	assert.ErrorIs(t, err, domain.ErrInvalidGitHubURL)
}

func TestComputeCodeMetrics(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 29, 0, 0, 0, 0, time.UTC)
	data := domain.RawCodeData{
		Repository: domain.RepositoryInfo{CreatedAt: now.AddDate(0, 0, -70)},
		Commits: []domain.CommitInfo{
			{Date: now.AddDate(0, 0, -3), Additions: 30, Deletions: 10},
			{Date: now.AddDate(0, 0, -9), Additions: 10, Deletions: 10},
		},
		TotalCommits: 50,
	}

	m := ComputeCodeMetrics(data, now)
	assert.Equal(t, 70, m.RepoAgeDays)
	assert.Equal(t, 3, m.DaysSinceLastCommit)
	assert.Equal(t, 30.0, m.AvgCommitSize)
	assert.Equal(t, 5.0, m.CommitFrequencyPerWeek)

	young := ComputeCodeMetrics(domain.RawCodeData{Repository: domain.RepositoryInfo{CreatedAt: now.AddDate(0, 0, -2)}, TotalCommits: 4}, now)
	assert.Equal(t, 4.0, young.CommitFrequencyPerWeek)
	assert.Equal(t, 2, young.DaysSinceLastCommit)
}

func TestCodeServiceOverridesDerivedCounts(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 29, 0, 0, 0, 0, time.UTC)
	source := &stubCodeSource{data: domain.RawCodeData{
		Repository:   domain.RepositoryInfo{CreatedAt: now.AddDate(-1, 0, 0)},
		Commits:      []domain.CommitInfo{{SHA: "abc", Date: now.AddDate(0, 0, -1)}},
		Contributors: []domain.ContributorInfo{{Username: "a"}, {Username: "b"}},
		TotalCommits: 321,
	}}
	ai := &scriptedCompleter{replies: map[string]string{
		"REPOSITORY:": `{"commitFrequency": 6, "activityLevel": "Hyper", "mechanismOriginality": "Pioneering", "totalCommits": 1}`,
	}}
	s := NewCodeService(source, ai, nil)
	s.now = func() time.Time { return now }

	code, err := s.Analyze(context.Background(), "https://github.com/acme/chain")
	require.NoError(t, err)

	assert.Equal(t, "acme", source.owner)
	assert.Equal(t, "chain", source.repo)
	assert.Equal(t, domain.ActivityInactive, code.ActivityLevel)
	assert.Equal(t, domain.OriginalityPioneering, code.MechanismOriginality)
	assert.Equal(t, 321, code.TotalCommits)
	assert.Equal(t, 2, code.TotalContributors)
	assert.Equal(t, 366, code.RepoAge)
	require.NotNil(t, code.LastCommitDate)
	assert.Equal(t, now.AddDate(0, 0, -1), *code.LastCommitDate)
}

func TestRatingServiceStampsComposite(t *testing.T) {
	t.Parallel()

	ai := &scriptedCompleter{replies: map[string]string{
		"final rating": `{"consistencyScore": 80, "opportunityScore": 70, "executionCredibilityScore": 90, "finalGrade": "B"}`,
	}}

	rating, err := NewRatingService(ai).Generate(context.Background(), "X",
		domain.DocumentationAnalysis{}, nil, domain.MarketAnalysis{}, domain.NoTeamAnalysis(), domain.NoCodeAnalysis())
	require.NoError(t, err)

	assert.Equal(t, 80, rating.CompositeScore)
	assert.Equal(t, domain.GradeB, rating.FinalGrade)
	assert.NotNil(t, rating.RedFlags)
	assert.Contains(t, ai.calls()[0], "No funding data available")
}
