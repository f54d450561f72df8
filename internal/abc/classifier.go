package abc

import (
	"sort"

	"github.com/skyparts/demandcast/internal/domain"
	"github.com/skyparts/demandcast/pkg/logger"
)

// Cumulative revenue-share boundaries for the A and B tiers.
const (
	boundaryA = 0.70
	boundaryB = 0.90
)

// Classifier ranks parts into A/B/C revenue tiers by cumulative
// contribution to total revenue.
type Classifier struct{}

func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify aggregates observations by part (total demand, mean price),
// computes each part's revenue share and assigns tiers over the descending
// cumulative share. Ties on share break by ascending part ID so the output
// is deterministic.
func (c *Classifier) Classify(observations []domain.Observation) []domain.RevenueRecord {
	type partAgg struct {
		demand int
		price  float64
		rows   int
	}

	aggs := make(map[string]*partAgg)
	for _, obs := range observations {
		agg, ok := aggs[obs.PartID]
		if !ok {
			agg = &partAgg{}
			aggs[obs.PartID] = agg
		}
		agg.demand += obs.Demand
		agg.price += obs.Price
		agg.rows++
	}

	records := make([]domain.RevenueRecord, 0, len(aggs))
	totalRevenue := 0.0
	for partID, agg := range aggs {
		meanPrice := agg.price / float64(agg.rows)
		revenue := float64(agg.demand) * meanPrice
		totalRevenue += revenue
		records = append(records, domain.RevenueRecord{
			PartID:      partID,
			TotalDemand: agg.demand,
			MeanPrice:   meanPrice,
			Revenue:     revenue,
		})
	}

	for i := range records {
		if totalRevenue > 0 {
			records[i].RevenueShare = records[i].Revenue / totalRevenue
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].RevenueShare != records[j].RevenueShare {
			return records[i].RevenueShare > records[j].RevenueShare
		}
		return records[i].PartID < records[j].PartID
	})

	cumulative := 0.0
	for i := range records {
		cumulative += records[i].RevenueShare
		records[i].CumulativeShare = cumulative
		records[i].Category = categoryFor(cumulative)
	}

	logger.Log.Info().
		Int("parts", len(records)).
		Float64("total_revenue", totalRevenue).
		Msg("classified revenue tiers")

	return records
}

func categoryFor(cumulativeShare float64) domain.ABCCategory {
	switch {
	case cumulativeShare <= boundaryA:
		return domain.CategoryA
	case cumulativeShare <= boundaryB:
		return domain.CategoryB
	default:
		return domain.CategoryC
	}
}
