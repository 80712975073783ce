// Package funding holds the funding-round provider adapters.
package funding

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

// DefaultMessariURL is the public Messari API root.
const DefaultMessariURL = "https://api.messari.io"

// Messari reads funding rounds from the Messari funding API.
type Messari struct {
	apiKey string
	client *httpjson.Client
}

var _ ports.FundingProvider = (*Messari)(nil)

// NewMessari builds the adapter. An empty key disables it.
func NewMessari(baseURL, apiKey string) *Messari {
	if baseURL == "" {
		baseURL = DefaultMessariURL
	}
	return &Messari{
		apiKey: apiKey,
		client: httpjson.NewClient(baseURL, 15*time.Second, map[string]string{"x-messari-api-key": apiKey}),
	}
}

// Name identifies the provider in logs and round sources.
func (m *Messari) Name() string { return "messari" }

type messariRounds struct {
	Data []struct {
		RoundType        string   `json:"round_type"`
		AmountRaisedUSD  *float64 `json:"amount_raised_usd"`
		AnnouncementDate string   `json:"announcement_date"`
		Investors        []struct {
			Name string `json:"name"`
		} `json:"investors"`
	} `json:"data"`
}

// FetchFunding searches rounds by project name.
func (m *Messari) FetchFunding(ctx context.Context, projectName string) (*domain.RawFundingData, error) {
	if m == nil || m.apiKey == "" {
		return nil, nil
	}

	var resp messariRounds
	err := m.client.Get(ctx, "/funding/v1/rounds", url.Values{"search": {projectName}}, &resp)
	if httpjson.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("messari rounds: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}

	rounds := make([]domain.RawFundingRound, 0, len(resp.Data))
	for _, r := range resp.Data {
		investors := make([]string, 0, len(r.Investors))
		for _, inv := range r.Investors {
			investors = append(investors, inv.Name)
		}
		rounds = append(rounds, domain.RawFundingRound{
			Stage:     orDefault(r.RoundType, "Unknown"),
			AmountUSD: value(r.AmountRaisedUSD),
			Date:      orDefault(r.AnnouncementDate, today()),
			Investors: investors,
			Source:    m.Name(),
		})
	}
	return newRawFunding(projectName, rounds), nil
}

func newRawFunding(projectName string, rounds []domain.RawFundingRound) *domain.RawFundingData {
	var total float64
	for _, r := range rounds {
		total += r.AmountUSD
	}
	return &domain.RawFundingData{
		ProjectName: projectName,
		TotalRaised: total,
		Rounds:      rounds,
		LastUpdated: time.Now().UTC(),
	}
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func value(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func today() string {
	return time.Now().UTC().Format("2006-01-02")
}
