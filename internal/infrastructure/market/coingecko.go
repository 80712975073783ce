// Package market holds the market-quote provider adapters.
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

// DefaultCoinGeckoURL is the public CoinGecko API root.
const DefaultCoinGeckoURL = "https://api.coingecko.com"

// CoinGecko reads quotes from the CoinGecko v3 API. It works without a key
// on the public tier.
type CoinGecko struct {
	client *httpjson.Client
}

var _ ports.MarketProvider = (*CoinGecko)(nil)

// NewCoinGecko builds the adapter; apiKey is the optional demo key.
func NewCoinGecko(baseURL, apiKey string) *CoinGecko {
	if baseURL == "" {
		baseURL = DefaultCoinGeckoURL
	}
	return &CoinGecko{
		client: httpjson.NewClient(baseURL, 15*time.Second, map[string]string{"x-cg-demo-api-key": apiKey}),
	}
}

// Name identifies the provider in logs.
func (c *CoinGecko) Name() string { return "coingecko" }

type geckoSearch struct {
	Coins []struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Symbol string `json:"symbol"`
	} `json:"coins"`
}

type geckoCoin struct {
	Name          string   `json:"name"`
	Symbol        string   `json:"symbol"`
	MarketCapRank *int     `json:"market_cap_rank"`
	Categories    []string `json:"categories"`
	MarketData    struct {
		MarketCap                map[string]float64 `json:"market_cap"`
		TotalVolume              map[string]float64 `json:"total_volume"`
		CurrentPrice             map[string]float64 `json:"current_price"`
		PriceChangePercentage24h *float64           `json:"price_change_percentage_24h"`
		PriceChangePercentage7d  *float64           `json:"price_change_percentage_7d"`
		PriceChangePercentage30d *float64           `json:"price_change_percentage_30d"`
		CirculatingSupply        *float64           `json:"circulating_supply"`
		TotalSupply              *float64           `json:"total_supply"`
		MaxSupply                *float64           `json:"max_supply"`
	} `json:"market_data"`
}

// FetchMarket resolves identifier to a coin id and reads its market data.
func (c *CoinGecko) FetchMarket(ctx context.Context, identifier string) (*domain.RawMarketData, error) {
	id, err := c.search(ctx, identifier)
	if err != nil || id == "" {
		return nil, err
	}

	var coin geckoCoin
	err = c.client.Get(ctx, "/api/v3/coins/"+url.PathEscape(id), url.Values{
		"localization":   {"false"},
		"tickers":        {"false"},
		"market_data":    {"true"},
		"community_data": {"false"},
		"developer_data": {"false"},
	}, &coin)
	if httpjson.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("coingecko coin %s: %w", id, err)
	}

	md := coin.MarketData
	return &domain.RawMarketData{
		Name:              coin.Name,
		Symbol:            strings.ToUpper(coin.Symbol),
		MarketCap:         usd(md.MarketCap),
		Volume24h:         usd(md.TotalVolume),
		Price:             usd(md.CurrentPrice),
		PriceChange24h:    md.PriceChangePercentage24h,
		PriceChange7d:     md.PriceChangePercentage7d,
		PriceChange30d:    md.PriceChangePercentage30d,
		CirculatingSupply: md.CirculatingSupply,
		TotalSupply:       md.TotalSupply,
		MaxSupply:         md.MaxSupply,
		Rank:              coin.MarketCapRank,
		Categories:        coin.Categories,
		LastUpdated:       time.Now().UTC(),
	}, nil
}

// search prefers an exact name or symbol match, else the first hit.
func (c *CoinGecko) search(ctx context.Context, identifier string) (string, error) {
	var resp geckoSearch
	if err := c.client.Get(ctx, "/api/v3/search", url.Values{"query": {identifier}}, &resp); err != nil {
		return "", fmt.Errorf("coingecko search: %w", err)
	}
	if len(resp.Coins) == 0 {
		return "", nil
	}
	for _, coin := range resp.Coins {
		if strings.EqualFold(coin.Name, identifier) || strings.EqualFold(coin.Symbol, identifier) {
			return coin.ID, nil
		}
	}
	return resp.Coins[0].ID, nil
}

func usd(byCurrency map[string]float64) *float64 {
	v, ok := byCurrency["usd"]
	if !ok {
		return nil
	}
	return &v
}
