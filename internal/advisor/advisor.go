package advisor

import (
	"math"

	"github.com/skyparts/demandcast/internal/domain"
	"github.com/skyparts/demandcast/pkg/logger"
)

// Replenishment policy constants: one week of lead-time demand plus a
// demand-proportional safety buffer, with sufficiency judged against 80%
// of the optimal level.
const (
	leadTimeDays         = 7
	safetyStockFactor    = 1.5
	sufficiencyThreshold = 0.8
)

// Advisor converts demand statistics and ABC tiers into per-part stock
// recommendations. Pure function of its inputs; re-running on the same
// inputs yields identical output.
type Advisor struct{}

func NewAdvisor() *Advisor {
	return &Advisor{}
}

// Recommend emits one recommendation per revenue record, in classifier
// order. Current stock is the stock of the part's most recent observation;
// when several rows share the latest date the last one in input order wins.
func (a *Advisor) Recommend(observations []domain.Observation, records []domain.RevenueRecord) []domain.Recommendation {
	stats := collectPartStats(observations)

	recs := make([]domain.Recommendation, 0, len(records))
	for _, record := range records {
		s, ok := stats[record.PartID]
		if !ok {
			continue
		}

		avgDemand := s.totalDemand / float64(s.rows)
		optimal := avgDemand*leadTimeDays + avgDemand*safetyStockFactor

		status := domain.StatusSufficient
		if float64(s.currentStock) < sufficiencyThreshold*optimal {
			status = domain.StatusInsufficient
		}

		priority, action := domain.PriorityAndAction(record.Category, status)

		recs = append(recs, domain.Recommendation{
			PartID:           record.PartID,
			Category:         record.Category,
			Priority:         priority,
			CurrentStock:     s.currentStock,
			RecommendedStock: int(optimal),
			Status:           status,
			Action:           action,
		})
	}

	logger.Log.Info().
		Int("recommendations", len(recs)).
		Msg("built replenishment recommendations")

	return recs
}

type partStats struct {
	totalDemand  float64
	rows         int
	currentStock int
	latestDate   int64
}

func collectPartStats(observations []domain.Observation) map[string]*partStats {
	stats := make(map[string]*partStats)
	for _, obs := range observations {
		s, ok := stats[obs.PartID]
		if !ok {
			s = &partStats{latestDate: math.MinInt64}
			stats[obs.PartID] = s
		}
		s.totalDemand += float64(obs.Demand)
		s.rows++

		// Last-by-date wins; on equal dates the later input row wins.
		if d := obs.Date.Unix(); d >= s.latestDate {
			s.latestDate = d
			s.currentStock = obs.Stock
		}
	}
	return stats
}
