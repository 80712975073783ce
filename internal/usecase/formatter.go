package usecase

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"AlphaScreener/internal/domain"
)

// FormatJSON renders the analysis as indented JSON.
func FormatJSON(a domain.FullAnalysis) (string, error) {
	b, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal analysis: %w", err)
	}
	return string(b), nil
}

// FormatMarkdown renders the analysis as a human-readable report.
func FormatMarkdown(a domain.FullAnalysis) string {
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}
	list := func(items []string) {
		for _, item := range items {
			line("- %s", item)
		}
	}

	r := a.Rating
	line("# Project Analysis: %s", a.ProjectID)
	line("")
	line("**Analyzed:** %s", a.AnalyzedAt.UTC().Format(time.RFC3339))
	line("")
	line("## Executive Summary")
	line("")
	line("%s", r.ExecutiveSummary)
	line("")

	line("## Final Rating")
	line("")
	line("| Metric | Score |")
	line("|--------|-------|")
	line("| **Final Grade** | **%s** |", r.FinalGrade)
	line("| Composite | %d/100 |", r.CompositeScore)
	line("| Consistency | %s/100 |", num(r.ConsistencyScore))
	line("| Opportunity | %s/100 |", num(r.OpportunityScore))
	line("| Execution Credibility | %s/100 |", num(r.ExecutionCredibilityScore))
	line("")
	line("### Strengths")
	list(r.Strengths)
	line("")
	line("### Risks")
	list(r.Risks)
	line("")
	if len(r.RedFlags) > 0 {
		line("### Red Flags")
		list(r.RedFlags)
		line("")
	}
	line("### Asymmetric Upside")
	line("%s", r.AsymmetricUpside)
	line("")
	line("---")
	line("")

	d := a.Documentation
	line("## Documentation Analysis")
	line("")
	line("**Narrative:** %s", d.Narrative)
	line("")
	line("**Summary:** %s", d.Summary)
	line("")
	line("### Writing Quality")
	line("- Context Consistency: %s/100", num(d.WritingQuality.ContextConsistency))
	line("- Logical Flow: %s/100", num(d.WritingQuality.LogicalFlow))
	line("- Marketing Language Density: %s/100", num(d.WritingQuality.MarketingLanguageDensity))
	line("- Human vs AI Score: %s/100", num(d.WritingQuality.HumanVsAIScore))
	line("")

	line("## Funding Analysis")
	line("")
	if f := a.Funding; f != nil {
		line("**Stage:** %s", f.Stage)
		line("**Total Raised:** $%s", compact(f.TotalRaisedUSD))
		line("**Investor Quality:** %s", f.InvestorQuality)
		line("**Timeline Consistency:** %s/100", num(f.TimelineConsistency))
		line("")
		if len(f.Rounds) > 0 {
			line("### Funding Rounds")
			line("")
			line("| Stage | Amount | Date | Key Investors |")
			line("|-------|--------|------|---------------|")
			for _, round := range f.Rounds {
				investors := round.Investors
				if len(investors) > 3 {
					investors = investors[:3]
				}
				line("| %s | $%s | %s | %s |", round.Stage, compact(round.AmountUSD), day(round.Date), strings.Join(investors, ", "))
			}
			line("")
		}
	} else {
		line("*No funding data available*")
		line("")
	}

	m := a.Market
	line("## Market Analysis")
	line("")
	line("**Problem Type:** %s", m.ProblemType)
	line("**Differentiation Clarity:** %s/100", num(m.DifferentiationClarity))
	line("**Market Saturation:** %s/100", num(m.MarketSaturation))
	line("**Narrative Cycle Timing:** %s", m.NarrativeCycleTiming)
	if m.MarketCap != nil && *m.MarketCap > 0 {
		line("**Market Cap:** $%s", compact(*m.MarketCap))
	}
	if m.Volume24h != nil && *m.Volume24h > 0 {
		line("**24h Volume:** $%s", compact(*m.Volume24h))
	}
	if m.PriceChange7d != nil {
		line("**7d Change:** %.2f%%", *m.PriceChange7d)
	}
	line("")
	if len(m.Competitors) > 0 {
		line("### Competitors")
		line("")
		line("| Project | Market Cap | Similarity |")
		line("|---------|------------|------------|")
		for _, c := range m.Competitors {
			mcap := "N/A"
			if c.MarketCap != nil && *c.MarketCap > 0 {
				mcap = "$" + compact(*c.MarketCap)
			}
			line("| %s | %s | %s%% |", c.Name, mcap, num(c.Similarity))
		}
		line("")
	}

	t := a.Team
	line("## Team Analysis")
	line("")
	line("**Builder Portfolio Strength:** %s/100", num(t.BuilderPortfolioStrength))
	line("**Years in Crypto:** %s", num(t.YearsInCrypto))
	line("**Skillset Alignment:** %s/100", num(t.SkillsetAlignment))
	line("")
	if len(t.Members) > 0 {
		line("### Team Members")
		line("")
		for _, member := range t.Members {
			role := member.Role
			if role == "" {
				role = "Unknown Role"
			}
			line("- **%s** - %s", member.Name, role)
			if len(member.PreviousProjects) > 0 {
				line("  - Previous: %s", strings.Join(member.PreviousProjects, ", "))
			}
		}
		line("")
	}

	c := a.Code
	line("## Code Analysis")
	line("")
	line("**Activity Level:** %s", c.ActivityLevel)
	line("**Commit Frequency:** %.1f commits/week", c.CommitFrequency)
	line("**Total Commits:** %d", c.TotalCommits)
	line("**Total Contributors:** %d", c.TotalContributors)
	line("**Contributor Diversity:** %s/100", num(c.ContributorDiversity))
	line("**Architecture Clarity:** %s/100", num(c.ArchitectureClarity))
	line("**Mechanism Originality:** %s", c.MechanismOriginality)
	if c.LastCommitDate != nil {
		line("**Last Commit:** %s", day(*c.LastCommitDate))
	}
	line("")
	line("---")
	line("")
	b.WriteString("*Generated by Alpha Screener*")

	return b.String()
}

// FormatDigest renders a short Markdown summary for chat notifications.
func FormatDigest(a domain.FullAnalysis) string {
	var b strings.Builder
	r := a.Rating
	fmt.Fprintf(&b, "*%s Analysis*\n", a.ProjectID)
	fmt.Fprintf(&b, "Grade: *%s* (composite %d/100)\n", r.FinalGrade, r.CompositeScore)
	fmt.Fprintf(&b, "Narrative: %s\n", a.Documentation.Narrative)
	fmt.Fprintf(&b, "Consistency %s · Opportunity %s · Execution %s\n",
		num(r.ConsistencyScore), num(r.OpportunityScore), num(r.ExecutionCredibilityScore))
	if a.Funding != nil {
		fmt.Fprintf(&b, "Funding: $%s (%s)\n", compact(a.Funding.TotalRaisedUSD), a.Funding.Stage)
	} else {
		b.WriteString("Funding: no funding\n")
	}
	if r.ExecutiveSummary != "" {
		fmt.Fprintf(&b, "\n%s\n", r.ExecutiveSummary)
	}
	if len(r.Strengths) > 0 {
		b.WriteString("\nStrengths:\n")
		for _, s := range r.Strengths[:min(3, len(r.Strengths))] {
			fmt.Fprintf(&b, "• %s\n", s)
		}
	}
	if len(r.RedFlags) > 0 {
		b.WriteString("\nRed flags:\n")
		for _, f := range r.RedFlags {
			fmt.Fprintf(&b, "• %s\n", f)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// compact abbreviates an amount with K, M or B and two decimals.
func compact(v float64) string {
	switch {
	case v >= 1e9:
		return fmt.Sprintf("%.2fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%.2fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%.2fK", v/1e3)
	}
	return fmt.Sprintf("%.2f", v)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func day(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
