package metrics

import (
	"github.com/shopspring/decimal"

	"github.com/skyparts/demandcast/internal/domain"
	"github.com/skyparts/demandcast/pkg/logger"
)

const (
	// excessFactor marks a position excess when the recommendation drops
	// below this fraction of current stock.
	excessFactor = 0.7

	// shortageCostFraction approximates the cost of one unmet unit as a
	// fraction of the mean unit price.
	shortageCostFraction = 0.10
)

var million = decimal.NewFromInt(1_000_000)

// BusinessMetrics derives inventory, financial and service metrics from the
// observation table and the advisor's recommendations. All ratio
// computations substitute 0 on zero denominators instead of failing.
func BusinessMetrics(observations []domain.Observation, recommendations []domain.Recommendation) domain.MetricsBundle {
	bundle := domain.MetricsBundle{
		Inventory: inventoryMetrics(observations, recommendations),
		Financial: financialMetrics(observations, recommendations),
		Service:   serviceMetrics(observations),
	}

	logger.Log.Info().
		Float64("service_level_pct", bundle.Service.ServiceLevelPercent).
		Float64("fill_rate_pct", bundle.Service.FillRatePercent).
		Float64("turnover", bundle.Inventory.TurnoverRatio).
		Msg("aggregated business metrics")

	return bundle
}

func inventoryMetrics(observations []domain.Observation, recommendations []domain.Recommendation) domain.InventoryMetrics {
	m := domain.InventoryMetrics{
		TotalCurrentStock: totalCurrentStock(observations),
	}

	for _, rec := range recommendations {
		m.TotalRecommendedStock += rec.RecommendedStock
		if rec.Status == domain.StatusInsufficient {
			m.InsufficientCount++
		}
		if float64(rec.RecommendedStock) < excessFactor*float64(rec.CurrentStock) {
			m.ExcessCount++
		}
	}

	if m.TotalCurrentStock > 0 {
		m.StockChangePercent = float64(m.TotalRecommendedStock-m.TotalCurrentStock) / float64(m.TotalCurrentStock) * 100
	}

	var demandSum, stockSum float64
	for _, obs := range observations {
		demandSum += float64(obs.Demand)
		stockSum += float64(obs.Stock)
	}
	if len(observations) > 0 {
		meanDemand := demandSum / float64(len(observations))
		meanStock := stockSum / float64(len(observations))
		if meanStock > 0 {
			m.TurnoverRatio = meanDemand / meanStock
		}
		if meanDemand > 0 {
			m.AvgDaysOfSupply = meanStock / meanDemand
		}
	}

	return m
}

// financialMetrics aggregates revenue and valuation in currency units using
// decimal arithmetic and reports them in millions.
func financialMetrics(observations []domain.Observation, recommendations []domain.Recommendation) domain.FinancialMetrics {
	if len(observations) == 0 {
		return domain.FinancialMetrics{}
	}

	revenue := decimal.Zero
	priceSum := decimal.Zero
	unmetUnits := int64(0)
	for _, obs := range observations {
		revenue = revenue.Add(decimal.NewFromFloat(obs.Revenue()))
		priceSum = priceSum.Add(decimal.NewFromFloat(obs.Price))
		if obs.Demand > obs.Stock {
			unmetUnits += int64(obs.Demand - obs.Stock)
		}
	}
	meanPrice := priceSum.Div(decimal.NewFromInt(int64(len(observations))))

	currentStock := int64(totalCurrentStock(observations))
	recommendedStock := int64(0)
	for _, rec := range recommendations {
		recommendedStock += int64(rec.RecommendedStock)
	}

	currentValue := meanPrice.Mul(decimal.NewFromInt(currentStock))
	recommendedValue := meanPrice.Mul(decimal.NewFromInt(recommendedStock))
	savings := currentValue.Sub(recommendedValue).Abs()
	shortageCost := meanPrice.
		Mul(decimal.NewFromInt(unmetUnits)).
		Mul(decimal.NewFromFloat(shortageCostFraction))

	return domain.FinancialMetrics{
		TotalRevenueMillions:              toMillions(revenue),
		AvgItemPrice:                      meanPrice.Round(2).InexactFloat64(),
		CurrentInventoryValueMillions:     toMillions(currentValue),
		RecommendedInventoryValueMillions: toMillions(recommendedValue),
		PotentialSavingsMillions:          toMillions(savings),
		ShortageCostMillions:              toMillions(shortageCost),
	}
}

func serviceMetrics(observations []domain.Observation) domain.ServiceMetrics {
	m := domain.ServiceMetrics{TotalRows: len(observations)}
	if len(observations) == 0 {
		return m
	}

	var totalDemand, fulfilled float64
	for _, obs := range observations {
		totalDemand += float64(obs.Demand)
		if obs.Demand > obs.Stock {
			m.ShortageEvents++
			// Partial fulfillment: a short row contributes only its stock
			fulfilled += float64(obs.Stock)
		} else {
			fulfilled += float64(obs.Demand)
		}
		if obs.IsAnomaly {
			m.AnomalyCount++
		}
	}

	m.ServiceLevelPercent = (1 - float64(m.ShortageEvents)/float64(m.TotalRows)) * 100
	if totalDemand > 0 {
		m.FillRatePercent = fulfilled / totalDemand * 100
	}

	return m
}

// totalCurrentStock sums each part's most recent stock level; on duplicate
// latest dates the last row in input order wins, matching the advisor.
func totalCurrentStock(observations []domain.Observation) int {
	type latest struct {
		stock int
		date  int64
	}
	byPart := make(map[string]latest)
	for _, obs := range observations {
		cur, ok := byPart[obs.PartID]
		if d := obs.Date.Unix(); !ok || d >= cur.date {
			byPart[obs.PartID] = latest{stock: obs.Stock, date: d}
		}
	}

	total := 0
	for _, l := range byPart {
		total += l.stock
	}
	return total
}

func toMillions(v decimal.Decimal) float64 {
	return v.Div(million).Round(2).InexactFloat64()
}
