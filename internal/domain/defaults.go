package domain

import "math"

// Absent-variant constructors. Each domain builds its "no data" value here
// and nowhere else.

// NoCodeAnalysis is returned when no repository URL was supplied.
func NoCodeAnalysis() CodeAnalysis {
	return CodeAnalysis{
		ActivityLevel:        ActivityInactive,
		MechanismOriginality: OriginalityCommon,
	}
}

// NoTeamAnalysis is returned when no team members could be identified.
func NoTeamAnalysis() TeamAnalysis {
	return TeamAnalysis{
		Members:          []TeamMember{},
		PreviousOutcomes: []string{},
	}
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// Int returns a pointer to v.
func Int(v int) *int {
	return &v
}

// ClampScore limits a 0-100 score; NaN becomes 0.
func ClampScore(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}

// Normalize clamps scores and repairs enums outside their closed sets.
func (d *DocumentationAnalysis) Normalize() {
	d.Narrative = d.Narrative.Normalize()
	w := &d.WritingQuality
	w.ContextConsistency = ClampScore(w.ContextConsistency)
	w.LogicalFlow = ClampScore(w.LogicalFlow)
	w.MarketingLanguageDensity = ClampScore(w.MarketingLanguageDensity)
	w.HumanVsAIScore = ClampScore(w.HumanVsAIScore)
	if d.FundingSignals == nil {
		d.FundingSignals = []string{}
	}
	if w.AIWritingSignals.RepetitivePhrases == nil {
		w.AIWritingSignals.RepetitivePhrases = []string{}
	}
}

// Normalize clamps scores and repairs enums outside their closed sets.
func (m *MarketAnalysis) Normalize() {
	switch m.ProblemType {
	case ProblemNiche, ProblemBroad:
	default:
		m.ProblemType = ProblemNiche
	}
	switch m.NarrativeCycleTiming {
	case CycleEarly, CycleMid, CycleLate, CyclePostPeak:
	default:
		m.NarrativeCycleTiming = CycleMid
	}
	m.DifferentiationClarity = ClampScore(m.DifferentiationClarity)
	m.MarketSaturation = ClampScore(m.MarketSaturation)
	if m.Competitors == nil {
		m.Competitors = []Competitor{}
	}
	for i := range m.Competitors {
		m.Competitors[i].Similarity = ClampScore(m.Competitors[i].Similarity)
	}
}

// Normalize clamps scores and fills nil collections.
func (t *TeamAnalysis) Normalize() {
	t.BuilderPortfolioStrength = ClampScore(t.BuilderPortfolioStrength)
	t.SkillsetAlignment = ClampScore(t.SkillsetAlignment)
	if t.YearsInCrypto < 0 {
		t.YearsInCrypto = 0
	}
	if t.Members == nil {
		t.Members = []TeamMember{}
	}
	if t.PreviousOutcomes == nil {
		t.PreviousOutcomes = []string{}
	}
	for i := range t.Members {
		if t.Members[i].PreviousProjects == nil {
			t.Members[i].PreviousProjects = []string{}
		}
	}
}

// Normalize clamps scores and repairs enums outside their closed sets.
func (c *CodeAnalysis) Normalize() {
	switch c.ActivityLevel {
	case ActivityHigh, ActivityMedium, ActivityLow, ActivityInactive:
	default:
		c.ActivityLevel = ActivityInactive
	}
	switch c.MechanismOriginality {
	case OriginalityCommon, OriginalityIterative, OriginalityPioneering:
	default:
		c.MechanismOriginality = OriginalityCommon
	}
	c.CommitConsistency = ClampScore(c.CommitConsistency)
	c.ContributorDiversity = ClampScore(c.ContributorDiversity)
	c.ArchitectureClarity = ClampScore(c.ArchitectureClarity)
	if c.CommitFrequency < 0 {
		c.CommitFrequency = 0
	}
	if c.SimilarProjectsCount < 0 {
		c.SimilarProjectsCount = 0
	}
}

// Normalize clamps scores and repairs the grade.
func (r *FinalRating) Normalize() {
	r.ConsistencyScore = ClampScore(r.ConsistencyScore)
	r.OpportunityScore = ClampScore(r.OpportunityScore)
	r.ExecutionCredibilityScore = ClampScore(r.ExecutionCredibilityScore)
	switch r.FinalGrade {
	case GradeA, GradeB, GradeC, GradeD:
	default:
		r.FinalGrade = GradeD
	}
	if r.Strengths == nil {
		r.Strengths = []string{}
	}
	if r.Risks == nil {
		r.Risks = []string{}
	}
	if r.RedFlags == nil {
		r.RedFlags = []string{}
	}
}

// Composite is the fixed weighted sum of the three sub-scores, rounded.
func (r FinalRating) Composite() int {
	return int(math.Round(0.30*r.ConsistencyScore + 0.35*r.OpportunityScore + 0.35*r.ExecutionCredibilityScore))
}
