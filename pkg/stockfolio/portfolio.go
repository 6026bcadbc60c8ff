package stockfolio

import (
	"context"

	"github.com/shopspring/decimal"
)

// PortfolioView returns the user's holdings with live prices attached,
// ordered by symbol. A failed or absent price never aborts the view: the
// entry keeps nil price and value, and provider failures surface in
// PriceError.
func (c *Core) PortfolioView(ctx context.Context, userID string) ([]PortfolioEntry, error) {
	holdings, err := c.GetHoldings(ctx, userID)
	if err != nil {
		return nil, err
	}
	totals, err := c.dividendTotals(ctx, userID)
	if err != nil {
		return nil, err
	}

	entries := make([]PortfolioEntry, 0, len(holdings))
	for _, h := range holdings {
		entry := PortfolioEntry{Holding: h, TotalDividends: totals[h.ID]}
		quote, err := c.market.Quote(ctx, h.Symbol)
		switch {
		case err != nil:
			c.logger.Warn("price fetch failed", "symbol", h.Symbol, "err", err)
			message := err.Error()
			entry.PriceError = &message
		case quote.Price != nil:
			entry.CurrentPrice = amountPtr(NewAmount(*quote.Price))
			entry.MarketValue = amountPtr(marketValue(h.Shares, *quote.Price))
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func marketValue(shares int64, price float64) Amount {
	return Amount{decimal.NewFromInt(shares).Mul(decimal.NewFromFloat(price))}
}
