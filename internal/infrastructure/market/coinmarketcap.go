package market

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"AlphaScreener/internal/domain"
	"AlphaScreener/internal/infrastructure/httpjson"
	"AlphaScreener/internal/ports"
)

// DefaultCoinMarketCapURL is the CoinMarketCap pro API root.
const DefaultCoinMarketCapURL = "https://pro-api.coinmarketcap.com"

// CoinMarketCap reads quotes from the CoinMarketCap pro API.
type CoinMarketCap struct {
	apiKey string
	client *httpjson.Client
}

var _ ports.MarketProvider = (*CoinMarketCap)(nil)

// NewCoinMarketCap builds the adapter. An empty key disables it.
func NewCoinMarketCap(baseURL, apiKey string) *CoinMarketCap {
	if baseURL == "" {
		baseURL = DefaultCoinMarketCapURL
	}
	return &CoinMarketCap{
		apiKey: apiKey,
		client: httpjson.NewClient(baseURL, 15*time.Second, map[string]string{"X-CMC_PRO_API_KEY": apiKey}),
	}
}

// Name identifies the provider in logs.
func (c *CoinMarketCap) Name() string { return "coinmarketcap" }

type cmcInfo struct {
	Data map[string]struct {
		Name   string   `json:"name"`
		Symbol string   `json:"symbol"`
		Tags   []string `json:"tags"`
	} `json:"data"`
}

type cmcQuotes struct {
	Data map[string]struct {
		CirculatingSupply *float64 `json:"circulating_supply"`
		TotalSupply       *float64 `json:"total_supply"`
		MaxSupply         *float64 `json:"max_supply"`
		CMCRank           *int     `json:"cmc_rank"`
		Quote             map[string]struct {
			Price            *float64 `json:"price"`
			Volume24h        *float64 `json:"volume_24h"`
			MarketCap        *float64 `json:"market_cap"`
			PercentChange24h *float64 `json:"percent_change_24h"`
			PercentChange7d  *float64 `json:"percent_change_7d"`
			PercentChange30d *float64 `json:"percent_change_30d"`
		} `json:"quote"`
	} `json:"data"`
}

// FetchMarket looks the project up by slug and reads its latest USD quote.
func (c *CoinMarketCap) FetchMarket(ctx context.Context, identifier string) (*domain.RawMarketData, error) {
	if c == nil || c.apiKey == "" {
		return nil, nil
	}
	query := url.Values{"slug": {slug(identifier)}}

	var info cmcInfo
	err := c.client.Get(ctx, "/v1/cryptocurrency/info", query, &info)
	if httpjson.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("coinmarketcap info: %w", err)
	}
	var out *domain.RawMarketData
	for _, entry := range info.Data {
		out = &domain.RawMarketData{Name: entry.Name, Symbol: entry.Symbol, Categories: entry.Tags}
		break
	}
	if out == nil {
		return nil, nil
	}

	var quotes cmcQuotes
	if err := c.client.Get(ctx, "/v1/cryptocurrency/quotes/latest", query, &quotes); err != nil {
		return nil, fmt.Errorf("coinmarketcap quotes: %w", err)
	}
	for _, q := range quotes.Data {
		out.CirculatingSupply = positive(q.CirculatingSupply)
		out.TotalSupply = positive(q.TotalSupply)
		out.MaxSupply = positive(q.MaxSupply)
		if q.CMCRank != nil && *q.CMCRank > 0 {
			out.Rank = q.CMCRank
		}
		if usd, ok := q.Quote["USD"]; ok {
			out.Price = usd.Price
			out.MarketCap = usd.MarketCap
			out.Volume24h = usd.Volume24h
			out.PriceChange24h = usd.PercentChange24h
			out.PriceChange7d = usd.PercentChange7d
			out.PriceChange30d = usd.PercentChange30d
		}
		break
	}
	out.LastUpdated = time.Now().UTC()
	return out, nil
}

func slug(identifier string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(identifier)), " ", "-")
}

func positive(v *float64) *float64 {
	if v == nil || *v <= 0 {
		return nil
	}
	return v
}
