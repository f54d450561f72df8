package generator

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/skyparts/demandcast/internal/domain"
	"github.com/skyparts/demandcast/pkg/logger"
)

// Demand model constants. The seasonal and weekly terms are sine waves over
// the day-of-year and day-of-week cycles; trend is a slow linear drift.
const (
	seasonalAmplitude = 3.0
	weeklyAmplitude   = 1.5
	trendPerDay       = 0.001
	noiseLambda       = 2.0
	demandFloor       = 2
	stockFloor        = 5
	minOptimalStock   = 20
	anomalyThreshold  = 2.5
)

// Generator produces the synthetic daily observation table for a fixed part
// catalog. All randomness flows through an explicit seeded source, so output
// is byte-identical across runs with the same seed and date range.
type Generator struct {
	catalog []domain.PartProfile
	seed    int64
}

// New creates a Generator over the given immutable catalog.
func New(catalog []domain.PartProfile, seed int64) *Generator {
	return &Generator{catalog: catalog, seed: seed}
}

// Generate builds one observation per (date, part) pair for every date in
// the inclusive range, dates outermost, parts in catalog order.
func (g *Generator) Generate(ctx context.Context, start, end time.Time) ([]domain.Observation, error) {
	rng := rand.New(rand.NewSource(g.seed))

	days := int(end.Sub(start).Hours()/24) + 1
	rows := make([]domain.Observation, 0, days*len(g.catalog))

	for d := 0; d < days; d++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		date := start.AddDate(0, 0, d)
		for _, part := range g.catalog {
			rows = append(rows, g.generateRow(rng, date, d, part))
		}
	}

	logger.Log.Info().
		Int("rows", len(rows)).
		Int("parts", len(g.catalog)).
		Int("days", days).
		Msg("generated observation table")

	return rows, nil
}

func (g *Generator) generateRow(rng *rand.Rand, date time.Time, daysSinceStart int, part domain.PartProfile) domain.Observation {
	demand := g.generateDemand(rng, date, daysSinceStart, part)
	stock := generateStock(rng, demand)
	price := generatePrice(rng, part)

	return domain.Observation{
		Date:   date,
		PartID: part.PartID,
		Demand: demand,
		Stock:  stock,
		Price:  price,
		// Threshold flag is evaluated on the resulting demand regardless of
		// whether the injection branch fired; the two are separate signals.
		IsAnomaly: float64(demand) > part.BaseDemand*anomalyThreshold,
	}
}

// generateDemand models demand as base + seasonality + weekly cycle + trend
// + Poisson noise, floored, with occasional anomaly spikes injected at the
// part's configured probability.
func (g *Generator) generateDemand(rng *rand.Rand, date time.Time, daysSinceStart int, part domain.PartProfile) int {
	trend := trendPerDay * float64(daysSinceStart)
	seasonal := seasonalAmplitude * math.Sin(2*math.Pi*float64(date.YearDay())/365)
	weekly := weeklyAmplitude * math.Sin(2*math.Pi*float64(date.Weekday())/7)
	noise := float64(poisson(rng, noiseLambda))

	demand := int(part.BaseDemand + seasonal + weekly + trend + noise)
	if demand < demandFloor {
		demand = demandFloor
	}

	// Anomaly injection: spike demand by a random 3-5x factor
	if rng.Float64() < part.AnomalyProbability {
		demand *= 3 + rng.Intn(3)
	}

	return demand
}

// generatePrice draws a whole-unit price uniformly from [PriceMin, PriceMax).
// Ranges narrower than one unit have no whole-unit offsets to draw from, so
// those fall back to a continuous draw over the same interval.
func generatePrice(rng *rand.Rand, part domain.PartProfile) float64 {
	width := part.PriceMax - part.PriceMin
	if w := int(width); w >= 1 {
		return part.PriceMin + float64(rng.Intn(w))
	}
	return part.PriceMin + rng.Float64()*width
}

// generateStock derives stock from demand: around twice the daily demand
// with uniform variation, never below the floor.
func generateStock(rng *rand.Rand, demand int) int {
	optimal := demand * 2
	if optimal < minOptimalStock {
		optimal = minOptimalStock
	}

	stock := optimal + rng.Intn(45) - 15 // variation in [-15, 30)
	if stock < stockFloor {
		stock = stockFloor
	}
	return stock
}

// poisson draws a Poisson-distributed integer using Knuth's method. Fine for
// the small lambdas used here.
func poisson(rng *rand.Rand, lambda float64) int {
	limit := math.Exp(-lambda)
	k := 0
	p := 1.0
	for {
		p *= rng.Float64()
		if p <= limit {
			return k
		}
		k++
	}
}
