package domain

import "time"

// DocumentationAnalysis is the judged view of a project's documentation.
type DocumentationAnalysis struct {
	Narrative        Narrative      `json:"narrative"`
	WritingQuality   WritingQuality `json:"writingQuality"`
	HasFundingSignal bool           `json:"hasFundingSignal"`
	FundingSignals   []string       `json:"fundingSignals"`
	Summary          string         `json:"summary"`
}

// WritingQuality scores documentation prose, 0-100 per field.
type WritingQuality struct {
	ContextConsistency       float64          `json:"contextConsistency"`
	LogicalFlow              float64          `json:"logicalFlow"`
	MarketingLanguageDensity float64          `json:"marketingLanguageDensity"`
	AIWritingSignals         AIWritingSignals `json:"aiWritingSignals"`
	HumanVsAIScore           float64          `json:"humanVsAIScore"`
}

// AIWritingSignals lists stylistic markers of machine-written text.
type AIWritingSignals struct {
	EmojiOveruse       bool     `json:"emojiOveruse"`
	LongDashUsage      int      `json:"longDashUsage"`
	RepetitivePhrases  []string `json:"repetitivePhrases"`
	GenericPhraseCount int      `json:"genericPhraseCount"`
}

// ProblemType describes the breadth of the problem a project addresses.
type ProblemType string

const (
	ProblemNiche ProblemType = "Niche"
	ProblemBroad ProblemType = "Broad"
)

// CycleTiming places a project within its narrative's hype cycle.
type CycleTiming string

const (
	CycleEarly    CycleTiming = "Early"
	CycleMid      CycleTiming = "Mid"
	CycleLate     CycleTiming = "Late"
	CyclePostPeak CycleTiming = "Post-Peak"
)

// MarketAnalysis combines reconciled quotes with the judged market position.
type MarketAnalysis struct {
	ProblemType            ProblemType  `json:"problemType"`
	Competitors            []Competitor `json:"competitors"`
	DifferentiationClarity float64      `json:"differentiationClarity"`
	MarketSaturation       float64      `json:"marketSaturation"`
	NarrativeCycleTiming   CycleTiming  `json:"narrativeCycleTiming"`
	MarketCap              *float64     `json:"marketCap,omitempty"`
	Volume24h              *float64     `json:"volume24h,omitempty"`
	PriceChange7d          *float64     `json:"priceChange7d,omitempty"`
}

// Competitor is a project occupying the same narrative.
type Competitor struct {
	Name       string   `json:"name"`
	MarketCap  *float64 `json:"marketCap,omitempty"`
	Similarity float64  `json:"similarity"`
}

// TeamAnalysis is the judged view of the people behind a project.
type TeamAnalysis struct {
	Members                  []TeamMember `json:"members"`
	BuilderPortfolioStrength float64      `json:"builderPortfolioStrength"`
	PreviousOutcomes         []string     `json:"previousOutcomes"`
	YearsInCrypto            float64      `json:"yearsInCrypto"`
	SkillsetAlignment        float64      `json:"skillsetAlignment"`
}

// TeamMember is one identified contributor.
type TeamMember struct {
	Name             string   `json:"name"`
	Role             string   `json:"role"`
	LinkedIn         string   `json:"linkedIn,omitempty"`
	Twitter          string   `json:"twitter,omitempty"`
	PreviousProjects []string `json:"previousProjects"`
}

// ActivityLevel buckets recent repository activity.
type ActivityLevel string

const (
	ActivityHigh     ActivityLevel = "High"
	ActivityMedium   ActivityLevel = "Medium"
	ActivityLow      ActivityLevel = "Low"
	ActivityInactive ActivityLevel = "Inactive"
)

// Originality rates how novel a project's core mechanism is.
type Originality string

const (
	OriginalityCommon     Originality = "Common"
	OriginalityIterative  Originality = "Iterative"
	OriginalityPioneering Originality = "Pioneering"
)

// CodeAnalysis is the judged view of repository activity.
type CodeAnalysis struct {
	CommitFrequency         float64       `json:"commitFrequency"`
	CommitConsistency       float64       `json:"commitConsistency"`
	PrefersManySmallCommits bool          `json:"prefersManySmallCommits"`
	RepoAge                 int           `json:"repoAge"`
	ActivityLevel           ActivityLevel `json:"activityLevel"`
	ContributorDiversity    float64       `json:"contributorDiversity"`
	ArchitectureClarity     float64       `json:"architectureClarity"`
	MechanismOriginality    Originality   `json:"mechanismOriginality"`
	SimilarProjectsCount    int           `json:"similarProjectsCount"`
	TotalCommits            int           `json:"totalCommits"`
	TotalContributors       int           `json:"totalContributors"`
	LastCommitDate          *time.Time    `json:"lastCommitDate,omitempty"`
}

// Grade is the categorical final rating.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
)

// FinalRating is the decisive verdict over all stage outputs.
type FinalRating struct {
	ConsistencyScore          float64  `json:"consistencyScore"`
	OpportunityScore          float64  `json:"opportunityScore"`
	ExecutionCredibilityScore float64  `json:"executionCredibilityScore"`
	FinalGrade                Grade    `json:"finalGrade"`
	Strengths                 []string `json:"strengths"`
	Risks                     []string `json:"risks"`
	RedFlags                  []string `json:"redFlags"`
	AsymmetricUpside          string   `json:"asymmetricUpside"`
	ExecutiveSummary          string   `json:"executiveSummary"`
	CompositeScore            int      `json:"compositeScore"`
}

// FullAnalysis is the terminal aggregate of one pipeline run. Funding is nil
// when no funding signal was found.
type FullAnalysis struct {
	ProjectID     string                `json:"projectId"`
	Documentation DocumentationAnalysis `json:"documentation"`
	Funding       *FundingAnalysis      `json:"funding,omitempty"`
	Market        MarketAnalysis        `json:"market"`
	Team          TeamAnalysis          `json:"team"`
	Code          CodeAnalysis          `json:"code"`
	Rating        FinalRating           `json:"rating"`
	AnalyzedAt    time.Time             `json:"analyzedAt"`
}

// AnalysisResult is what the orchestrator returns and caches.
type AnalysisResult struct {
	Analysis  FullAnalysis `json:"analysis"`
	JSON      string       `json:"json"`
	Markdown  string       `json:"markdown"`
	NoFunding bool         `json:"noFunding"`
}
