package metrics

import (
	"math"

	"github.com/skyparts/demandcast/internal/domain"
)

// mapeEpsilon stabilizes the MAPE denominator on zero-demand rows.
const mapeEpsilon = 1e-8

// MLMetrics computes forecast-accuracy metrics over aligned actual and
// predicted series. baselineMAE > 0 additionally yields the improvement
// percentage versus that baseline.
func MLMetrics(actual, predicted []float64, baselineMAE float64) domain.MLMetrics {
	n := len(actual)
	if n == 0 || n != len(predicted) {
		return domain.MLMetrics{}
	}

	var absSum, sqSum, mapeSum, actualSum float64
	for i := range actual {
		diff := actual[i] - predicted[i]
		absSum += math.Abs(diff)
		sqSum += diff * diff
		mapeSum += math.Abs(diff) / (actual[i] + mapeEpsilon)
		actualSum += actual[i]
	}

	m := domain.MLMetrics{
		MAE:  absSum / float64(n),
		RMSE: math.Sqrt(sqSum / float64(n)),
		MAPE: mapeSum / float64(n) * 100,
		R2:   rSquared(actual, predicted, actualSum/float64(n)),
	}

	if baselineMAE > 0 {
		improvement := (baselineMAE - m.MAE) / baselineMAE * 100
		m.ImprovementVsBaseline = &improvement
	}

	return m
}

// rSquared is the coefficient of determination; 0 when the actual series
// has no variance to explain.
func rSquared(actual, predicted []float64, actualMean float64) float64 {
	var ssRes, ssTot float64
	for i := range actual {
		r := actual[i] - predicted[i]
		ssRes += r * r
		d := actual[i] - actualMean
		ssTot += d * d
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}
