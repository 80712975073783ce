// Package reconcile merges overlapping provider records and scores the
// merged funding history.
package reconcile

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"AlphaScreener/internal/domain"
)

// tier1Investors are matched case-insensitively as substrings of investor names.
var tier1Investors = []string{
	"a16z",
	"andreessen horowitz",
	"paradigm",
	"sequoia",
	"polychain",
	"pantera",
	"dragonfly",
	"multicoin",
	"electric capital",
	"coinbase ventures",
	"binance labs",
	"framework ventures",
	"delphi digital",
	"jump crypto",
	"galaxy digital",
	"blockchain capital",
	"variant",
	"haun ventures",
}

const day = 24 * time.Hour

// MergeFunding reconciles two providers' histories. Nil means the provider
// had nothing; two nils give nil.
func MergeFunding(a, b *domain.RawFundingData) *domain.RawFundingData {
	switch {
	case a == nil && b == nil:
		return nil
	case a == nil:
		return b
	case b == nil:
		return a
	}

	all := make([]domain.RawFundingRound, 0, len(a.Rounds)+len(b.Rounds))
	all = append(all, a.Rounds...)
	all = append(all, b.Rounds...)

	name := a.ProjectName
	if name == "" {
		name = b.ProjectName
	}

	return &domain.RawFundingData{
		ProjectName: name,
		TotalRaised: math.Max(a.TotalRaised, b.TotalRaised),
		Rounds:      DeduplicateRounds(all),
		LastUpdated: time.Now().UTC(),
	}
}

// DeduplicateRounds collapses rounds sharing a (stage, date) key, keeping the
// larger amount; on equal amounts the later round wins. The result is sorted
// by date ascending.
func DeduplicateRounds(rounds []domain.RawFundingRound) []domain.RawFundingRound {
	order := make([]string, 0, len(rounds))
	byKey := make(map[string]domain.RawFundingRound, len(rounds))

	for _, round := range rounds {
		key := roundKey(round)
		existing, ok := byKey[key]
		if !ok {
			order = append(order, key)
			byKey[key] = round
			continue
		}
		if round.AmountUSD >= existing.AmountUSD {
			byKey[key] = round
		}
	}

	out := make([]domain.RawFundingRound, 0, len(order))
	for _, key := range order {
		out = append(out, byKey[key])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return ParseRoundDate(out[i].Date).Before(ParseRoundDate(out[j].Date))
	})
	return out
}

func roundKey(r domain.RawFundingRound) string {
	stage := strings.ToLower(strings.TrimSpace(r.Stage))
	date := strings.TrimSpace(r.Date)
	if t := ParseRoundDate(date); !t.IsZero() {
		date = t.Format("2006-01-02")
	}
	return stage + "|" + date
}

// ParseRoundDate parses the provider date formats seen in the wild. An
// unparseable value gives the zero time.
func ParseRoundDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	t, err := dateparse.ParseIn(raw, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

// BuildFundingAnalysis scores a merged history. It returns nil when there are
// no rounds, which callers treat as "no funding signal".
func BuildFundingAnalysis(data *domain.RawFundingData) *domain.FundingAnalysis {
	if data == nil || len(data.Rounds) == 0 {
		return nil
	}

	rounds := make([]domain.FundingRound, 0, len(data.Rounds))
	for _, r := range data.Rounds {
		investors := make([]string, len(r.Investors))
		copy(investors, r.Investors)
		rounds = append(rounds, domain.FundingRound{
			Stage:     r.Stage,
			AmountUSD: r.AmountUSD,
			Date:      ParseRoundDate(r.Date),
			Investors: investors,
		})
	}
	sort.SliceStable(rounds, func(i, j int) bool {
		return rounds[i].Date.Before(rounds[j].Date)
	})

	newestFirst := make([]domain.FundingRound, len(rounds))
	for i := range rounds {
		newestFirst[len(rounds)-1-i] = rounds[i]
	}

	return &domain.FundingAnalysis{
		Stage:               ClassifyStage(newestFirst[0].Stage),
		TotalRaisedUSD:      data.TotalRaised,
		Rounds:              rounds,
		InvestorQuality:     AssessInvestorQuality(rounds),
		TimelineConsistency: TimelineConsistency(newestFirst),
	}
}

// ClassifyStage maps a free-text round label onto the closed stage set.
// "pre-seed" is tested before "seed" since the latter is its substring.
func ClassifyStage(label string) domain.FundingStage {
	normalized := strings.ToLower(strings.TrimSpace(label))
	if normalized == "" {
		return domain.StageUnknown
	}

	switch {
	case strings.Contains(normalized, "series c"):
		return domain.StageSeriesC
	case strings.Contains(normalized, "series b"):
		return domain.StageSeriesB
	case strings.Contains(normalized, "series a"):
		return domain.StageSeriesA
	case strings.Contains(normalized, "pre-seed"), strings.Contains(normalized, "preseed"):
		return domain.StagePreSeed
	case strings.Contains(normalized, "seed"):
		return domain.StageSeed
	case strings.Contains(normalized, "public"),
		strings.Contains(normalized, "ico"),
		strings.Contains(normalized, "ido"):
		return domain.StagePublic
	}
	return domain.StageUnknown
}

// AssessInvestorQuality counts distinct investors matching the tier-1 list.
func AssessInvestorQuality(rounds []domain.FundingRound) domain.InvestorQuality {
	seen := map[string]struct{}{}
	matches := 0

	for _, r := range rounds {
		for _, investor := range r.Investors {
			name := strings.ToLower(strings.TrimSpace(investor))
			if name == "" {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			if isTier1(name) {
				matches++
			}
		}
	}

	switch {
	case matches >= 3:
		return domain.InvestorsTier1
	case matches >= 1:
		return domain.InvestorsStrategic
	case len(seen) > 0:
		return domain.InvestorsAngels
	}
	return domain.InvestorsUnknown
}

func isTier1(name string) bool {
	for _, firm := range tier1Investors {
		if strings.Contains(name, firm) {
			return true
		}
	}
	return false
}

// TimelineConsistency scores how evenly spaced rounds are, given rounds
// sorted newest first: 100 - 50*cv of the day gaps, clamped to 0..100.
func TimelineConsistency(newestFirst []domain.FundingRound) float64 {
	if len(newestFirst) < 2 {
		return 100
	}

	gaps := make([]float64, 0, len(newestFirst)-1)
	for i := 1; i < len(newestFirst); i++ {
		gaps = append(gaps, float64(newestFirst[i-1].Date.Sub(newestFirst[i].Date))/float64(day))
	}

	var sum float64
	for _, g := range gaps {
		sum += g
	}
	mean := sum / float64(len(gaps))

	var variance float64
	for _, g := range gaps {
		variance += (g - mean) * (g - mean)
	}
	variance /= float64(len(gaps))

	cv := 0.0
	if mean > 0 {
		cv = math.Sqrt(variance) / mean
	}
	return domain.ClampScore(100 - cv*50)
}
