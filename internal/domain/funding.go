package domain

import "time"

// RawFundingRound is a single round as reported by one provider.
type RawFundingRound struct {
	Stage     string   `json:"stage"`
	AmountUSD float64  `json:"amountUsd"`
	Date      string   `json:"date"`
	Investors []string `json:"investors"`
	Source    string   `json:"source"`
}

// RawFundingData is one provider's funding history, not yet deduplicated.
type RawFundingData struct {
	ProjectName string            `json:"projectName"`
	TotalRaised float64           `json:"totalRaised"`
	Rounds      []RawFundingRound `json:"rounds"`
	LastUpdated time.Time         `json:"lastUpdated"`
}

// FundingStage is the closed set of funding stages.
type FundingStage string

const (
	StageBootstrapped FundingStage = "Bootstrapped"
	StagePreSeed      FundingStage = "Pre-Seed"
	StageSeed         FundingStage = "Seed"
	StageSeriesA      FundingStage = "Series A"
	StageSeriesB      FundingStage = "Series B"
	StageSeriesC      FundingStage = "Series C"
	StagePublic       FundingStage = "Public"
	StageUnknown      FundingStage = "Unknown"
)

// InvestorQuality is the closed set of investor-base classifications.
type InvestorQuality string

const (
	InvestorsTier1     InvestorQuality = "Tier-1"
	InvestorsStrategic InvestorQuality = "Strategic"
	InvestorsAngels    InvestorQuality = "Angels"
	InvestorsMixed     InvestorQuality = "Mixed"
	InvestorsUnknown   InvestorQuality = "Unknown"
)

// FundingRound is a reconciled round with a parsed date.
type FundingRound struct {
	Stage     string    `json:"stage"`
	AmountUSD float64   `json:"amountUsd"`
	Date      time.Time `json:"date"`
	Investors []string  `json:"investors"`
}

// FundingAnalysis is the reconciled funding history. Rounds are sorted by
// date ascending.
type FundingAnalysis struct {
	Stage               FundingStage    `json:"stage"`
	TotalRaisedUSD      float64         `json:"totalRaisedUsd"`
	Rounds              []FundingRound  `json:"rounds"`
	InvestorQuality     InvestorQuality `json:"investorQuality"`
	TimelineConsistency float64         `json:"timelineConsistency"`
}

// RawMarketData is one provider's market quote. Optional numbers are nil
// when the provider has no value.
type RawMarketData struct {
	Name              string    `json:"name"`
	Symbol            string    `json:"symbol"`
	MarketCap         *float64  `json:"marketCap,omitempty"`
	Volume24h         *float64  `json:"volume24h,omitempty"`
	Price             *float64  `json:"price,omitempty"`
	PriceChange24h    *float64  `json:"priceChange24h,omitempty"`
	PriceChange7d     *float64  `json:"priceChange7d,omitempty"`
	PriceChange30d    *float64  `json:"priceChange30d,omitempty"`
	CirculatingSupply *float64  `json:"circulatingSupply,omitempty"`
	TotalSupply       *float64  `json:"totalSupply,omitempty"`
	MaxSupply         *float64  `json:"maxSupply,omitempty"`
	Rank              *int      `json:"rank,omitempty"`
	Categories        []string  `json:"categories,omitempty"`
	LastUpdated       time.Time `json:"lastUpdated"`
}
