package model

import (
	"fmt"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ForestConfig holds the bagged-ensemble hyperparameters. Zero values fall
// back to the defaults below.
type ForestConfig struct {
	Trees          int
	MaxDepth       int
	MinLeafSamples int
	Workers        int
	Seed           int64
}

func (c ForestConfig) withDefaults() ForestConfig {
	if c.Trees <= 0 {
		c.Trees = 100
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = 12
	}
	if c.MinLeafSamples <= 0 {
		c.MinLeafSamples = 3
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	return c
}

// Forest is a bagged ensemble of regression trees: each tree trains on a
// bootstrap resample of the rows and considers a random feature subset at
// every split. Implements Regressor.
type Forest struct {
	cfg   ForestConfig
	trees []*regressionTree

	importance []float64
}

// NewForest creates an untrained forest.
func NewForest(cfg ForestConfig) *Forest {
	return &Forest{cfg: cfg.withDefaults()}
}

// Fit trains all trees. Tree seeds are derived from the configured base
// seed, so the result is reproducible regardless of worker scheduling.
func (f *Forest) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return fmt.Errorf("empty training set")
	}
	if len(X) != len(y) {
		return fmt.Errorf("sample count mismatch: %d rows, %d targets", len(X), len(y))
	}

	features := len(X[0])
	maxFeatures := (features + 2) / 3
	if maxFeatures < 1 {
		maxFeatures = 1
	}

	trees := make([]*regressionTree, f.cfg.Trees)

	var g errgroup.Group
	g.SetLimit(f.cfg.Workers)
	for i := 0; i < f.cfg.Trees; i++ {
		i := i
		g.Go(func() error {
			rng := rand.New(rand.NewSource(f.cfg.Seed + int64(i)*7919))
			indices := bootstrapSample(rng, len(X))

			tree := newRegressionTree(f.cfg.MaxDepth, f.cfg.MinLeafSamples, maxFeatures, rng)
			tree.fit(X, y, indices)
			trees[i] = tree
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	f.trees = trees
	f.importance = aggregateImportance(trees, features)
	return nil
}

// Predict averages the per-tree estimates.
func (f *Forest) Predict(X [][]float64) ([]float64, error) {
	if len(f.trees) == 0 {
		return nil, ErrNotTrained
	}

	out := make([]float64, len(X))
	for i, row := range X {
		sum := 0.0
		for _, tree := range f.trees {
			sum += tree.predict(row)
		}
		out[i] = sum / float64(len(f.trees))
	}
	return out, nil
}

// Importances returns the normalized per-column variance reduction.
func (f *Forest) Importances() []float64 {
	return f.importance
}

func bootstrapSample(rng *rand.Rand, n int) []int {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = rng.Intn(n)
	}
	return indices
}

func aggregateImportance(trees []*regressionTree, features int) []float64 {
	total := make([]float64, features)
	sum := 0.0
	for _, tree := range trees {
		for i, v := range tree.importance {
			total[i] += v
			sum += v
		}
	}
	if sum > 0 {
		for i := range total {
			total[i] /= sum
		}
	}
	return total
}
