package model

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/skyparts/demandcast/internal/domain"
	"github.com/skyparts/demandcast/internal/features"
	"github.com/skyparts/demandcast/pkg/logger"
)

// TrainerConfig configures cross-validation and the underlying ensemble.
type TrainerConfig struct {
	Folds  int
	Forest ForestConfig
}

// Trainer fits the demand model with expanding-window time-ordered
// cross-validation. The design matrix handed to Train must be in
// chronological order; the feature builder guarantees that.
type Trainer struct {
	cfg          TrainerConfig
	newRegressor func(seed int64) Regressor

	model      Regressor
	columns    []string
	cvScores   []float64
	importance []domain.FeatureImportance
}

// NewTrainer creates a Trainer backed by the bagged-tree forest.
func NewTrainer(cfg TrainerConfig) *Trainer {
	if cfg.Folds <= 0 {
		cfg.Folds = 5
	}
	return &Trainer{
		cfg: cfg,
		newRegressor: func(seed int64) Regressor {
			fc := cfg.Forest
			fc.Seed = seed
			return NewForest(fc)
		},
	}
}

// WithRegressor substitutes the regression implementation used for each
// fold and the final fit. The factory receives a deterministic seed.
func (t *Trainer) WithRegressor(factory func(seed int64) Regressor) *Trainer {
	t.newRegressor = factory
	return t
}

// Train runs k-fold time-ordered cross-validation and then fits the final
// model on the full matrix. Returns the mean held-out MAE across folds.
// When the matrix carries sample dates, fold boundaries snap to whole
// dates so every training date strictly precedes every test date.
func (t *Trainer) Train(m *features.DesignMatrix) (float64, error) {
	var folds []Fold
	var err error
	if len(m.Dates) == m.Len() && m.Len() > 0 {
		folds, err = DateAlignedFolds(m.Dates, t.cfg.Folds)
	} else {
		folds, err = TimeOrderedFolds(m.Len(), t.cfg.Folds)
	}
	if err != nil {
		return 0, fmt.Errorf("cross-validation split: %w", err)
	}

	t.cvScores = make([]float64, 0, len(folds))
	for i, fold := range folds {
		reg := t.newRegressor(t.cfg.Forest.Seed + int64(i+1))
		if err := reg.Fit(m.Rows[:fold.TrainEnd], m.Target[:fold.TrainEnd]); err != nil {
			return 0, fmt.Errorf("fold %d fit: %w", i+1, err)
		}

		pred, err := reg.Predict(m.Rows[fold.TestStart:fold.TestEnd])
		if err != nil {
			return 0, fmt.Errorf("fold %d predict: %w", i+1, err)
		}

		mae := meanAbsoluteError(m.Target[fold.TestStart:fold.TestEnd], pred)
		t.cvScores = append(t.cvScores, mae)

		logger.Log.Info().
			Int("fold", i+1).
			Int("train_rows", fold.TrainEnd).
			Int("test_rows", fold.TestEnd-fold.TestStart).
			Float64("mae", mae).
			Msg("cross-validation fold")
	}

	// Final model over the full matrix
	final := t.newRegressor(t.cfg.Forest.Seed)
	if err := final.Fit(m.Rows, m.Target); err != nil {
		return 0, fmt.Errorf("final fit: %w", err)
	}
	t.model = final
	t.columns = m.Columns
	t.importance = rankImportance(m.Columns, final.Importances())

	mean, std := meanStd(t.cvScores)
	logger.Log.Info().
		Float64("mean_mae", mean).
		Float64("std_mae", std).
		Msg("cross-validation complete")

	return mean, nil
}

// Predict scores a design matrix with the final model. The matrix must be
// encoded with the training column layout.
func (t *Trainer) Predict(m *features.DesignMatrix) ([]float64, error) {
	if t.model == nil {
		return nil, ErrNotTrained
	}
	if len(m.Columns) != len(t.columns) {
		return nil, fmt.Errorf("design matrix has %d columns, trained on %d", len(m.Columns), len(t.columns))
	}
	for i, c := range m.Columns {
		if c != t.columns[i] {
			return nil, fmt.Errorf("design matrix column %d is %q, trained on %q", i, c, t.columns[i])
		}
	}
	return t.model.Predict(m.Rows)
}

// FeatureImportances returns the final model's importance ranking, weights
// normalized to sum to 1, descending.
func (t *Trainer) FeatureImportances() ([]domain.FeatureImportance, error) {
	if t.model == nil {
		return nil, ErrNotTrained
	}
	return t.importance, nil
}

// CVScores returns the per-fold held-out MAE values of the last Train call.
func (t *Trainer) CVScores() []float64 {
	return t.cvScores
}

// Fold describes one expanding-window split: train on [0, TrainEnd), test
// on [TestStart, TestEnd) with TestStart == TrainEnd, so every test row is
// strictly later than every training row.
type Fold struct {
	TrainEnd  int
	TestStart int
	TestEnd   int
}

// TimeOrderedFolds splits n chronologically ordered samples into k
// expanding-window folds. The test segments are the last k equal-size
// blocks; earlier samples beyond those blocks always stay in training.
func TimeOrderedFolds(n, k int) ([]Fold, error) {
	if k < 1 {
		return nil, fmt.Errorf("fold count %d must be at least 1", k)
	}
	testSize := n / (k + 1)
	if testSize < 1 {
		return nil, fmt.Errorf("%d samples are too few for %d folds", n, k)
	}

	folds := make([]Fold, k)
	for i := 0; i < k; i++ {
		trainEnd := n - (k-i)*testSize
		folds[i] = Fold{
			TrainEnd:  trainEnd,
			TestStart: trainEnd,
			TestEnd:   trainEnd + testSize,
		}
	}
	return folds, nil
}

// DateAlignedFolds builds expanding-window folds whose boundaries fall on
// date transitions, so no date is split between a fold's training and test
// segments. dates must be non-decreasing; several samples may share a date.
func DateAlignedFolds(dates []time.Time, k int) ([]Fold, error) {
	if k < 1 {
		return nil, fmt.Errorf("fold count %d must be at least 1", k)
	}

	// Row index where each distinct date begins
	starts := []int{0}
	for i := 1; i < len(dates); i++ {
		if !dates[i].Equal(dates[i-1]) {
			starts = append(starts, i)
		}
	}
	days := len(starts)

	testDays := days / (k + 1)
	if testDays < 1 {
		return nil, fmt.Errorf("%d distinct dates are too few for %d folds", days, k)
	}

	rowAt := func(day int) int {
		if day >= days {
			return len(dates)
		}
		return starts[day]
	}

	folds := make([]Fold, k)
	for i := 0; i < k; i++ {
		trainEndDay := days - (k-i)*testDays
		trainEnd := rowAt(trainEndDay)
		folds[i] = Fold{
			TrainEnd:  trainEnd,
			TestStart: trainEnd,
			TestEnd:   rowAt(trainEndDay + testDays),
		}
		if folds[i].TrainEnd == 0 {
			return nil, fmt.Errorf("fold %d has no training data over %d dates", i+1, days)
		}
	}
	return folds, nil
}

func rankImportance(columns []string, weights []float64) []domain.FeatureImportance {
	ranked := make([]domain.FeatureImportance, len(columns))
	for i, c := range columns {
		ranked[i] = domain.FeatureImportance{Feature: c, Weight: weights[i]}
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].Weight > ranked[b].Weight
	})
	return ranked
}

func meanAbsoluteError(actual, predicted []float64) float64 {
	if len(actual) == 0 {
		return 0
	}
	sum := 0.0
	for i := range actual {
		sum += math.Abs(actual[i] - predicted[i])
	}
	return sum / float64(len(actual))
}

func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	sq := 0.0
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(values)))
}
