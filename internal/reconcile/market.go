package reconcile

import "AlphaScreener/internal/domain"

// MergeMarket combines two quotes field by field, taking a's value when it is
// present and b's otherwise. Categories are concatenated.
func MergeMarket(a, b *domain.RawMarketData) *domain.RawMarketData {
	switch {
	case a == nil && b == nil:
		return nil
	case a == nil:
		return b
	case b == nil:
		return a
	}

	merged := &domain.RawMarketData{
		Name:              firstString(a.Name, b.Name),
		Symbol:            firstString(a.Symbol, b.Symbol),
		MarketCap:         firstFloat(a.MarketCap, b.MarketCap),
		Volume24h:         firstFloat(a.Volume24h, b.Volume24h),
		Price:             firstFloat(a.Price, b.Price),
		PriceChange24h:    firstFloat(a.PriceChange24h, b.PriceChange24h),
		PriceChange7d:     firstFloat(a.PriceChange7d, b.PriceChange7d),
		PriceChange30d:    firstFloat(a.PriceChange30d, b.PriceChange30d),
		CirculatingSupply: firstFloat(a.CirculatingSupply, b.CirculatingSupply),
		TotalSupply:       firstFloat(a.TotalSupply, b.TotalSupply),
		MaxSupply:         firstFloat(a.MaxSupply, b.MaxSupply),
		Rank:              a.Rank,
		LastUpdated:       a.LastUpdated,
	}
	if merged.Rank == nil {
		merged.Rank = b.Rank
	}
	if merged.LastUpdated.IsZero() {
		merged.LastUpdated = b.LastUpdated
	}
	if len(a.Categories)+len(b.Categories) > 0 {
		merged.Categories = make([]string, 0, len(a.Categories)+len(b.Categories))
		merged.Categories = append(merged.Categories, a.Categories...)
		merged.Categories = append(merged.Categories, b.Categories...)
	}
	return merged
}

func firstString(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func firstFloat(a, b *float64) *float64 {
	if a != nil {
		return a
	}
	return b
}
