package funding

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"AlphaScreener/internal/domain"
	"AlphaScreener/internal/infrastructure/httpjson"
	"AlphaScreener/internal/ports"
)

// DefaultCryptoRankURL is the public CryptoRank API root.
const DefaultCryptoRankURL = "https://api.cryptorank.io"

// CryptoRank reads funding rounds from the CryptoRank coins API.
type CryptoRank struct {
	apiKey string
	client *httpjson.Client
}

var _ ports.FundingProvider = (*CryptoRank)(nil)

// NewCryptoRank builds the adapter. An empty key disables it.
func NewCryptoRank(baseURL, apiKey string) *CryptoRank {
	if baseURL == "" {
		baseURL = DefaultCryptoRankURL
	}
	return &CryptoRank{
		apiKey: apiKey,
		client: httpjson.NewClient(baseURL, 15*time.Second, nil),
	}
}

// Name identifies the provider in logs and round sources.
func (c *CryptoRank) Name() string { return "cryptorank" }

type cryptoRankCoins struct {
	Data []struct {
		Key  string `json:"key"`
		Name string `json:"name"`
	} `json:"data"`
}

type cryptoRankRounds struct {
	Data []struct {
		Type  string   `json:"type"`
		Raise *float64 `json:"raise"`
		Date  string   `json:"date"`
		Funds []struct {
			Name string `json:"name"`
		} `json:"funds"`
	} `json:"data"`
}

// FetchFunding resolves the coin key by search, then reads its rounds.
func (c *CryptoRank) FetchFunding(ctx context.Context, projectName string) (*domain.RawFundingData, error) {
	if c == nil || c.apiKey == "" {
		return nil, nil
	}

	var coins cryptoRankCoins
	err := c.client.Get(ctx, "/v1/coins", url.Values{
		"api_key": {c.apiKey},
		"search":  {projectName},
		"limit":   {"1"},
	}, &coins)
	if httpjson.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cryptorank search: %w", err)
	}
	if len(coins.Data) == 0 || coins.Data[0].Key == "" {
		return nil, nil
	}

	var resp cryptoRankRounds
	err = c.client.Get(ctx, "/v1/coins/"+url.PathEscape(coins.Data[0].Key)+"/funding-rounds",
		url.Values{"api_key": {c.apiKey}}, &resp)
	if httpjson.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cryptorank rounds: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}

	rounds := make([]domain.RawFundingRound, 0, len(resp.Data))
	for _, r := range resp.Data {
		investors := make([]string, 0, len(r.Funds))
		for _, f := range r.Funds {
			investors = append(investors, f.Name)
		}
		rounds = append(rounds, domain.RawFundingRound{
			Stage:     orDefault(r.Type, "Unknown"),
			AmountUSD: value(r.Raise),
			Date:      orDefault(r.Date, today()),
			Investors: investors,
			Source:    c.Name(),
		})
	}
	return newRawFunding(projectName, rounds), nil
}
