package model

import "errors"

// ErrNotTrained is returned by Predict when no model has been fitted yet.
var ErrNotTrained = errors.New("model not trained: call Train first")

// Regressor is the pluggable regression contract. The bagged-tree ensemble
// is the default implementation, but nothing outside this package depends on
// that choice: feature engineering and metrics only see this interface.
type Regressor interface {
	// Fit trains on a design matrix X (samples x features) and target y.
	Fit(X [][]float64, y []float64) error

	// Predict returns one estimate per row of X.
	Predict(X [][]float64) ([]float64, error)

	// Importances returns the per-column contribution to prediction
	// variance reduction, normalized to sum to 1. Only valid after Fit.
	Importances() []float64
}
