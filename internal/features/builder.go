package features

import (
	"math"
	"sort"
	"time"

	"github.com/skyparts/demandcast/internal/domain"
	"github.com/skyparts/demandcast/pkg/logger"
)

// windowSize is the lookback used for both the lag feature and the rolling
// statistics. A row needs this many strictly prior same-part rows to be
// usable; anything earlier in a part's history is dropped.
const windowSize = 7

// Builder derives calendar, lag and rolling-window features from the raw
// observation table. It is a pure transform: the input slice is never
// mutated and the output is freshly allocated.
type Builder struct{}

func NewBuilder() *Builder {
	return &Builder{}
}

// Build partitions observations by part, orders each partition by date and
// computes per-row features using only strictly past values of the same
// part. Rows without a complete lookback window are excluded.
func (b *Builder) Build(observations []domain.Observation) []domain.FeatureRow {
	priceMin, priceMax := priceBounds(observations)

	byPart := partitionByPart(observations)
	partIDs := make([]string, 0, len(byPart))
	for id := range byPart {
		partIDs = append(partIDs, id)
	}
	sort.Strings(partIDs)

	rows := make([]domain.FeatureRow, 0, len(observations))
	for _, id := range partIDs {
		rows = append(rows, buildPart(byPart[id], priceMin, priceMax)...)
	}

	// Restore global date order so downstream time-ordered splits see a
	// chronologically sorted table. Sort is stable: within a date, catalog
	// partitions keep their relative order.
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Date.Before(rows[j].Date)
	})

	logger.Log.Info().
		Int("input_rows", len(observations)).
		Int("usable_rows", len(rows)).
		Int("dropped", len(observations)-len(rows)).
		Msg("built feature table")

	return rows
}

func buildPart(partRows []domain.Observation, priceMin, priceMax float64) []domain.FeatureRow {
	out := make([]domain.FeatureRow, 0, len(partRows))

	for i := windowSize; i < len(partRows); i++ {
		obs := partRows[i]

		// Window covers the windowSize rows strictly before i; the row's
		// own value never contributes to its lag or rolling fields.
		window := partRows[i-windowSize : i]
		mean := windowMean(window)

		out = append(out, domain.FeatureRow{
			Observation:       obs,
			DayOfWeek:         int(obs.Date.Weekday()),
			Month:             int(obs.Date.Month()),
			Quarter:           (int(obs.Date.Month())-1)/3 + 1,
			DayOfYear:         obs.Date.YearDay(),
			IsWeekend:         obs.Date.Weekday() == time.Saturday || obs.Date.Weekday() == time.Sunday,
			DemandLag7:        float64(partRows[i-windowSize].Demand),
			DemandRollingMean: mean,
			DemandRollingStd:  windowStd(window, mean),
			StockDemandRatio:  float64(obs.Stock) / float64(obs.Demand+1),
			PriceTier:         priceTier(obs.Price, priceMin, priceMax),
		})
	}

	return out
}

func partitionByPart(observations []domain.Observation) map[string][]domain.Observation {
	byPart := make(map[string][]domain.Observation)
	for _, obs := range observations {
		byPart[obs.PartID] = append(byPart[obs.PartID], obs)
	}
	for _, rows := range byPart {
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	}
	return byPart
}

func priceBounds(observations []domain.Observation) (float64, float64) {
	if len(observations) == 0 {
		return 0, 0
	}
	min, max := observations[0].Price, observations[0].Price
	for _, obs := range observations[1:] {
		if obs.Price < min {
			min = obs.Price
		}
		if obs.Price > max {
			max = obs.Price
		}
	}
	return min, max
}

// priceTier places a price into one of three equal-width bins over the full
// observed range. A degenerate range (all prices equal) maps to medium.
func priceTier(price, min, max float64) domain.PriceTier {
	width := (max - min) / 3
	if width <= 0 {
		return domain.PriceTierMedium
	}
	switch {
	case price < min+width:
		return domain.PriceTierLow
	case price < min+2*width:
		return domain.PriceTierMedium
	default:
		return domain.PriceTierHigh
	}
}

func windowMean(window []domain.Observation) float64 {
	sum := 0.0
	for _, obs := range window {
		sum += float64(obs.Demand)
	}
	return sum / float64(len(window))
}

// windowStd is the sample standard deviation of demand over the window.
// Requires at least two samples; the fixed window always has windowSize.
func windowStd(window []domain.Observation, mean float64) float64 {
	if len(window) < 2 {
		return 0
	}
	sum := 0.0
	for _, obs := range window {
		d := float64(obs.Demand) - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(window)-1))
}
