package stockfolio

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
)

// Allocation groups the portfolio's market value by sector. Holdings whose
// price cannot be fetched contribute zero. A holding stored as
// "Uncategorized" borrows the quote's sector for this computation only;
// nothing is written back.
func (c *Core) Allocation(ctx context.Context, userID string) (*AllocationSummary, error) {
	holdings, err := c.GetHoldings(ctx, userID)
	if err != nil {
		return nil, err
	}

	buckets := map[string]decimal.Decimal{}
	total := decimal.Zero
	for _, h := range holdings {
		value := decimal.Zero
		var fetchedSector string
		quote, err := c.market.Quote(ctx, h.Symbol)
		if err != nil {
			c.logger.Warn("price fetch failed during allocation", "symbol", h.Symbol, "err", err)
		} else {
			fetchedSector = quote.Sector
			if quote.Price != nil {
				value = marketValue(h.Shares, *quote.Price).Decimal
			}
		}

		sector := resolveSector(h.Sector)
		if sector == SectorUncategorized && fetchedSector != "" && fetchedSector != "Unknown" {
			sector = fetchedSector
		}

		buckets[sector] = buckets[sector].Add(value)
		total = total.Add(value)
	}

	summary := &AllocationSummary{TotalValue: Amount{total}}
	for sector, value := range buckets {
		bucket := AllocationBucket{Sector: sector, Value: Amount{value}}
		if total.IsPositive() {
			ratio, _ := value.Div(total).Float64()
			bucket.Percentage = round2(ratio * 100)
		}
		summary.Buckets = append(summary.Buckets, bucket)
	}
	sort.Slice(summary.Buckets, func(i, j int) bool {
		a, b := summary.Buckets[i], summary.Buckets[j]
		if !a.Value.Equal(b.Value.Decimal) {
			return a.Value.GreaterThan(b.Value.Decimal)
		}
		return a.Sector < b.Sector
	})
	return summary, nil
}
