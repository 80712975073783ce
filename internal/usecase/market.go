package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"AlphaScreener/internal/domain"
	"AlphaScreener/internal/ports"
	"AlphaScreener/internal/reconcile"
)

// narrativeCompetitors are the reference projects offered to the market judge.
var narrativeCompetitors = map[domain.Narrative][]string{
	domain.NarrativeInfrastructure:   {"Ethereum", "Solana", "Avalanche", "Polygon", "Near"},
	domain.NarrativeDeFi:             {"Uniswap", "Aave", "Compound", "MakerDAO", "Curve"},
	domain.NarrativeModular:          {"Celestia", "Eigenlayer", "Avail", "Dymension"},
	domain.NarrativeStablecoin:       {"USDT", "USDC", "DAI", "FRAX", "LUSD"},
	domain.NarrativeAI:               {"Render", "Akash", "Bittensor", "Fetch.ai", "Ocean Protocol"},
	domain.NarrativeRWA:              {"Ondo", "Centrifuge", "Maple", "Goldfinch"},
	domain.NarrativeGaming:           {"Immutable", "Axie Infinity", "Gala", "The Sandbox", "Decentraland"},
	domain.NarrativeSocial:           {"Lens", "Farcaster", "Friend.tech", "DeSo"},
	domain.NarrativePrivacy:          {"Monero", "Zcash", "Secret Network", "Aztec"},
	domain.NarrativeL1:               {"Ethereum", "Solana", "Cardano", "Aptos", "Sui"},
	domain.NarrativeL2:               {"Arbitrum", "Optimism", "Base", "zkSync", "Starknet"},
	domain.NarrativeInteroperability: {"Chainlink", "LayerZero", "Axelar", "Wormhole"},
	domain.NarrativeOracle:           {"Chainlink", "Pyth", "Band Protocol", "API3", "RedStone"},
	domain.NarrativeStorage:          {"Filecoin", "Arweave", "Storj", "Sia"},
}

// Competitors returns the reference projects for a narrative.
func Competitors(n domain.Narrative) []string {
	return narrativeCompetitors[n]
}

// MarketService reconciles market quotes and judges the market position.
type MarketService struct {
	providers []ports.MarketProvider
	ai        ports.Completer
	logger    *slog.Logger
}

// NewMarketService builds the market stage. Providers are listed in order
// of preference.
func NewMarketService(ai ports.Completer, logger *slog.Logger, providers ...ports.MarketProvider) *MarketService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MarketService{providers: providers, ai: ai, logger: logger.With("component", "market")}
}

// Quote fetches and reconciles quotes from every provider. Provider errors
// are logged and treated as absent data.
func (s *MarketService) Quote(ctx context.Context, projectName string) *domain.RawMarketData {
	results := make([]*domain.RawMarketData, len(s.providers))

	var g errgroup.Group
	for i, provider := range s.providers {
		g.Go(func() error {
			data, err := provider.FetchMarket(ctx, projectName)
			if err != nil {
				s.logger.Warn("market provider failed", "provider", provider.Name(), "project", projectName, "error", err)
				return nil
			}
			results[i] = data
			return nil
		})
	}
	_ = g.Wait()

	var merged *domain.RawMarketData
	for _, data := range results {
		merged = reconcile.MergeMarket(merged, data)
	}
	return merged
}

// Analyze judges the project's market position within its narrative.
func (s *MarketService) Analyze(ctx context.Context, projectName string, narrative domain.Narrative) (domain.MarketAnalysis, error) {
	quote := s.Quote(ctx, projectName)
	if err := ctx.Err(); err != nil {
		return domain.MarketAnalysis{}, err
	}

	prompt := render(marketPrompt,
		"project", projectName,
		"narrative", string(narrative),
		"market", pretty(quote),
		"competitors", strings.Join(Competitors(narrative), ", "),
	)

	analysis, err := Judge[domain.MarketAnalysis](ctx, s.ai, prompt)
	if err != nil {
		return domain.MarketAnalysis{}, fmt.Errorf("judge market: %w", err)
	}
	analysis.Normalize()

	analysis.MarketCap, analysis.Volume24h, analysis.PriceChange7d = nil, nil, nil
	if quote != nil {
		analysis.MarketCap = quote.MarketCap
		analysis.Volume24h = quote.Volume24h
		analysis.PriceChange7d = quote.PriceChange7d
	}
	return analysis, nil
}
