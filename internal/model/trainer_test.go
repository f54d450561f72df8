package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyparts/demandcast/internal/features"
)

// stepMatrix builds a deterministic dataset where the target is a step
// function of the first column and the other columns are noise.
func stepMatrix(n int) *features.DesignMatrix {
	m := &features.DesignMatrix{
		Columns: []string{"signal", "noise_a", "noise_b"},
		Rows:    make([][]float64, n),
		Target:  make([]float64, n),
	}
	for i := 0; i < n; i++ {
		x := float64(i) / float64(n)
		m.Rows[i] = []float64{x, float64(i % 3), float64(i % 7)}
		if x > 0.5 {
			m.Target[i] = 30
		} else {
			m.Target[i] = 5
		}
	}
	return m
}

func smallForest(seed int64) ForestConfig {
	return ForestConfig{Trees: 20, MaxDepth: 6, MinLeafSamples: 2, Workers: 2, Seed: seed}
}

func TestTimeOrderedFolds_Properties(t *testing.T) {
	folds, err := TimeOrderedFolds(600, 5)
	require.NoError(t, err)
	require.Len(t, folds, 5)

	for i, fold := range folds {
		// Every training index precedes every test index.
		assert.Equal(t, fold.TrainEnd, fold.TestStart, "fold %d", i)
		assert.Greater(t, fold.TestEnd, fold.TestStart, "fold %d", i)
		assert.Positive(t, fold.TrainEnd, "fold %d must have training data", i)

		if i > 0 {
			// Expanding window: later folds train on strictly more data.
			assert.Greater(t, fold.TrainEnd, folds[i-1].TrainEnd)
		}
	}

	// Last fold tests on the final block.
	assert.Equal(t, 600, folds[4].TestEnd)
}

func TestTimeOrderedFolds_TooFewSamples(t *testing.T) {
	_, err := TimeOrderedFolds(4, 5)
	assert.Error(t, err)
}

func TestDateAlignedFolds_NoDateStraddlesBoundary(t *testing.T) {
	// 60 dates with 5 samples each, like a 5-part catalog
	base := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	dates := make([]time.Time, 0, 300)
	for d := 0; d < 60; d++ {
		day := base.AddDate(0, 0, d)
		for p := 0; p < 5; p++ {
			dates = append(dates, day)
		}
	}

	folds, err := DateAlignedFolds(dates, 5)
	require.NoError(t, err)
	require.Len(t, folds, 5)

	for i, fold := range folds {
		require.Positive(t, fold.TrainEnd, "fold %d", i)
		maxTrain := dates[fold.TrainEnd-1]
		minTest := dates[fold.TestStart]
		assert.True(t, maxTrain.Before(minTest),
			"fold %d: last training date %s must precede first test date %s", i, maxTrain, minTest)
	}
	assert.Equal(t, len(dates), folds[4].TestEnd)
}

func TestDateAlignedFolds_TooFewDates(t *testing.T) {
	day := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	_, err := DateAlignedFolds([]time.Time{day, day, day}, 5)
	assert.Error(t, err)
}

func TestForest_LearnsStepFunction(t *testing.T) {
	m := stepMatrix(200)

	forest := NewForest(smallForest(42))
	require.NoError(t, forest.Fit(m.Rows, m.Target))

	pred, err := forest.Predict(m.Rows)
	require.NoError(t, err)

	mae := meanAbsoluteError(m.Target, pred)
	assert.Less(t, mae, 3.0, "forest should recover a clean step function")
}

func TestForest_PredictBeforeFit(t *testing.T) {
	forest := NewForest(smallForest(42))
	_, err := forest.Predict([][]float64{{1, 2, 3}})
	assert.ErrorIs(t, err, ErrNotTrained)
}

func TestForest_Deterministic(t *testing.T) {
	m := stepMatrix(150)

	first := NewForest(smallForest(7))
	require.NoError(t, first.Fit(m.Rows, m.Target))
	second := NewForest(smallForest(7))
	require.NoError(t, second.Fit(m.Rows, m.Target))

	p1, err := first.Predict(m.Rows)
	require.NoError(t, err)
	p2, err := second.Predict(m.Rows)
	require.NoError(t, err)

	assert.Equal(t, p1, p2)
	assert.Equal(t, first.Importances(), second.Importances())
}

func TestForest_ImportanceNormalizedAndFocused(t *testing.T) {
	m := stepMatrix(200)

	forest := NewForest(smallForest(42))
	require.NoError(t, forest.Fit(m.Rows, m.Target))

	imp := forest.Importances()
	require.Len(t, imp, 3)

	sum := 0.0
	for _, w := range imp {
		assert.GreaterOrEqual(t, w, 0.0)
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)

	// The step column carries nearly all the signal.
	assert.Greater(t, imp[0], imp[1])
	assert.Greater(t, imp[0], imp[2])
}

func TestTrainer_TrainAndPredict(t *testing.T) {
	m := stepMatrix(240)

	trainer := NewTrainer(TrainerConfig{Folds: 5, Forest: smallForest(42)})
	// The third fold trains entirely on the low regime and tests across
	// the step, so its MAE is large; the mean stays well below the ~12.5
	// MAE of a constant-mean baseline.
	mae, err := trainer.Train(m)
	require.NoError(t, err)
	assert.Less(t, mae, 9.0)
	assert.Len(t, trainer.CVScores(), 5)

	pred, err := trainer.Predict(m)
	require.NoError(t, err)
	assert.Len(t, pred, m.Len())

	ranked, err := trainer.FeatureImportances()
	require.NoError(t, err)
	require.Len(t, ranked, 3)
	assert.Equal(t, "signal", ranked[0].Feature)
	for i := 1; i < len(ranked); i++ {
		assert.LessOrEqual(t, ranked[i].Weight, ranked[i-1].Weight, "ranking must be descending")
	}
}

func TestTrainer_PredictRejectsMismatchedLayout(t *testing.T) {
	m := stepMatrix(120)

	trainer := NewTrainer(TrainerConfig{Folds: 4, Forest: smallForest(42)})
	_, err := trainer.Train(m)
	require.NoError(t, err)

	// Same width, different columns: must be rejected, not mis-scored.
	other := stepMatrix(10)
	other.Columns = []string{"signal", "noise_b", "noise_a"}
	_, err = trainer.Predict(other)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "noise_b")
}

func TestTrainer_PredictBeforeTrain(t *testing.T) {
	trainer := NewTrainer(TrainerConfig{Folds: 5, Forest: smallForest(42)})

	_, err := trainer.Predict(stepMatrix(10))
	assert.ErrorIs(t, err, ErrNotTrained)

	_, err = trainer.FeatureImportances()
	assert.ErrorIs(t, err, ErrNotTrained)
}

// meanRegressor is a trivial Regressor used to verify substitutability.
type meanRegressor struct {
	mean    float64
	columns int
	trained bool
}

func (r *meanRegressor) Fit(X [][]float64, y []float64) error {
	sum := 0.0
	for _, v := range y {
		sum += v
	}
	r.mean = sum / float64(len(y))
	r.columns = len(X[0])
	r.trained = true
	return nil
}

func (r *meanRegressor) Predict(X [][]float64) ([]float64, error) {
	if !r.trained {
		return nil, ErrNotTrained
	}
	out := make([]float64, len(X))
	for i := range out {
		out[i] = r.mean
	}
	return out, nil
}

func (r *meanRegressor) Importances() []float64 {
	return make([]float64, r.columns)
}

func TestTrainer_SubstituteRegressor(t *testing.T) {
	m := stepMatrix(120)

	trainer := NewTrainer(TrainerConfig{Folds: 4}).
		WithRegressor(func(int64) Regressor { return &meanRegressor{} })

	mae, err := trainer.Train(m)
	require.NoError(t, err)
	assert.Positive(t, mae, "a mean-only baseline cannot fit a step function")

	pred, err := trainer.Predict(m)
	require.NoError(t, err)
	for _, p := range pred[1:] {
		assert.Equal(t, pred[0], p)
	}
}
