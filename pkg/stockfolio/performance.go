package stockfolio

import (
	"context"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"stockfolio/pkg/marketdata"
)

const (
	performanceEmptyMessage = "no holdings to compute performance for"

	// Windows longer than this need the provider's full output size; the
	// compact size only covers about 100 trading days.
	fullOutputThresholdDays = 100

	// The ALL period is clamped to keep provider load and payloads sane.
	maxAllPeriodYears = 5
)

// Performance walks the portfolio's value day by day over the period and
// aligns it with a benchmark index. Holdings enter the series from their
// acquisition date; a day without a price for a symbol contributes zero
// for that symbol. Benchmark points exist only for days the index traded.
func (c *Core) Performance(ctx context.Context, userID string, period Period, benchmark string, ent Entitlements) (*PerformanceResult, error) {
	if userID == "" {
		return nil, NewError(ErrCodeInvalidInput, "user id is required")
	}
	if !ent.AllowBenchmarking {
		return nil, NewError(ErrCodePlanForbidden, "plan does not allow benchmarking")
	}
	if period == "" {
		period = Period1Y
	}
	if !isValidPeriod(period) {
		return nil, NewError(ErrCodeInvalidInput, "invalid period; allowed periods: 1M, 6M, 1Y, ALL")
	}
	if benchmark == "" {
		benchmark = marketdata.DefaultBenchmark
	}
	benchmark = normalizeSymbol(benchmark)
	if !marketdata.IsBenchmark(benchmark) {
		return nil, NewError(ErrCodeInvalidInput, "unsupported benchmark symbol")
	}

	holdings, err := c.GetHoldings(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(holdings) == 0 {
		return &PerformanceResult{Empty: true, Message: performanceEmptyMessage}, nil
	}

	// An unparsable acquisition date leaves the marker empty, which sorts
	// before every real date and contributes from the window start.
	acquired := make([]string, len(holdings))
	for i, h := range holdings {
		if t, err := parseTimestamp(h.AcquiredAt); err == nil {
			acquired[i] = dayString(t)
		}
	}

	now := time.Now().UTC()
	endDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	var startDay time.Time
	switch period {
	case Period1M:
		startDay = endDay.AddDate(0, -1, 0)
	case Period6M:
		startDay = endDay.AddDate(0, -6, 0)
	case Period1Y:
		startDay = endDay.AddDate(-1, 0, 0)
	case PeriodAll:
		earliest := endDay
		for _, day := range acquired {
			if day == "" {
				continue
			}
			if t, err := time.Parse(dateOnlyLayout, day); err == nil && t.Before(earliest) {
				earliest = t
			}
		}
		startDay = earliest
		if floor := endDay.AddDate(-maxAllPeriodYears, 0, 0); startDay.Before(floor) {
			c.logger.Info("ALL period clamped", "user_id", userID, "earliest", dayString(startDay), "floor", dayString(floor))
			startDay = floor
		}
	}

	size := marketdata.OutputCompact
	if int(endDay.Sub(startDay).Hours()/24) > fullOutputThresholdDays {
		size = marketdata.OutputFull
	}
	startStr, endStr := dayString(startDay), dayString(endDay)

	benchmarkCloses := map[string]float64{}
	if series, err := c.market.History(ctx, benchmark, size); err != nil {
		c.logger.Warn("benchmark history fetch failed", "symbol", benchmark, "err", err)
	} else {
		benchmarkCloses = closesInRange(series, startStr, endStr)
	}

	closesBySymbol := map[string]map[string]float64{}
	for _, h := range holdings {
		series, err := c.market.History(ctx, h.Symbol, size)
		if err != nil {
			c.logger.Warn("history fetch failed", "symbol", h.Symbol, "err", err)
			continue
		}
		if len(series) > 0 {
			closesBySymbol[h.Symbol] = closesInRange(series, startStr, endStr)
		}
	}

	var portfolio, benchmarkSeries []PerformancePoint
	var portfolioValues, alignedPortfolio, alignedBenchmark []float64
	for day := startDay; !day.After(endDay); day = day.AddDate(0, 0, 1) {
		dayStr := dayString(day)
		value := 0.0
		for i, h := range holdings {
			if acquired[i] > dayStr {
				continue
			}
			if price, ok := closesBySymbol[h.Symbol][dayStr]; ok {
				value += float64(h.Shares) * price
			}
		}
		portfolio = append(portfolio, PerformancePoint{Date: dayStr, Value: NewAmount(value)})
		portfolioValues = append(portfolioValues, value)

		if price, ok := benchmarkCloses[dayStr]; ok {
			benchmarkSeries = append(benchmarkSeries, PerformancePoint{Date: dayStr, Value: NewAmount(price)})
			alignedPortfolio = append(alignedPortfolio, value)
			alignedBenchmark = append(alignedBenchmark, price)
		}
	}

	return &PerformanceResult{
		Period:    period,
		Benchmark: benchmark,
		StartDate: startStr,
		EndDate:   endStr,
		Portfolio: portfolio,
		Series:    benchmarkSeries,
		Summary:   performanceSummary(portfolioValues, alignedPortfolio, alignedBenchmark),
	}, nil
}

func closesInRange(series marketdata.HistoricalSeries, start, end string) map[string]float64 {
	closes := make(map[string]float64, len(series))
	for _, candle := range series {
		if candle.Date >= start && candle.Date <= end {
			closes[candle.Date] = candle.Close
		}
	}
	return closes
}

// performanceSummary computes daily-return statistics over the value
// series. It returns nil when fewer than two usable returns exist.
func performanceSummary(values, alignedPortfolio, alignedBenchmark []float64) *PerformanceSummary {
	returns := dailyReturns(values)
	if len(returns) < 2 {
		return nil
	}
	summary := &PerformanceSummary{
		MeanDailyReturn:   stat.Mean(returns, nil),
		StdDevDailyReturn: stat.StdDev(returns, nil),
		MaxDrawdown:       maxDrawdown(values),
	}
	if len(alignedPortfolio) >= 2 {
		corr := stat.Correlation(alignedPortfolio, alignedBenchmark, nil)
		// A flat series has zero variance and no defined correlation.
		if !math.IsNaN(corr) {
			summary.BenchmarkCorrelation = floatPtr(corr)
		}
	}
	return summary
}

// dailyReturns yields v[i]/v[i-1]-1 for consecutive days with a positive
// prior value. Days before the first priced holding produce no return.
func dailyReturns(values []float64) []float64 {
	var returns []float64
	for i := 1; i < len(values); i++ {
		if values[i-1] > 0 {
			returns = append(returns, values[i]/values[i-1]-1)
		}
	}
	return returns
}

// maxDrawdown is the largest peak-to-trough decline, as a positive ratio.
func maxDrawdown(values []float64) float64 {
	maxDD := 0.0
	peak := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := (peak - v) / peak; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}
