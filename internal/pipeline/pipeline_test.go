package pipeline

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyparts/demandcast/internal/config"
	"github.com/skyparts/demandcast/internal/domain"
)

func testConfig() *config.Config {
	return &config.Config{
		Analysis: config.AnalysisConfig{
			StartDate: time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2022, time.June, 30, 0, 0, 0, 0, time.UTC),
			Seed:      42,
			Catalog:   config.DefaultCatalog(),
		},
		Model: config.ModelConfig{
			Trees:          15,
			MaxDepth:       8,
			MinLeafSamples: 3,
			Folds:          5,
			Workers:        2,
		},
	}
}

func TestRun_FullPipeline(t *testing.T) {
	result, err := NewRunner(testConfig()).Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)

	// 181 days x 5 parts, minus the 7-day warmup per part
	assert.Equal(t, 181*5, result.RowCount)
	assert.Equal(t, (181-7)*5, result.FeatureRows)

	assert.Positive(t, result.CVError)
	assert.NotEmpty(t, result.FeatureImportances)
	assert.Len(t, result.RevenueRecords, 5)
	assert.Len(t, result.Recommendations, 5)

	// Every part got exactly one category and one recommendation
	prev := 0.0
	for _, rec := range result.RevenueRecords {
		assert.NotEmpty(t, rec.Category)
		assert.GreaterOrEqual(t, rec.CumulativeShare, prev)
		prev = rec.CumulativeShare
	}
	assert.InDelta(t, 1.0, prev, 1e-9)

	assert.Positive(t, result.ML.MAE)
	assert.NotNil(t, result.ML.ImprovementVsBaseline)

	service := result.Business.Service
	assert.GreaterOrEqual(t, service.ServiceLevelPercent, 0.0)
	assert.LessOrEqual(t, service.ServiceLevelPercent, 100.0)
	assert.GreaterOrEqual(t, service.FillRatePercent, 0.0)
	assert.LessOrEqual(t, service.FillRatePercent, 100.0)
}

func TestRun_DeterministicBusinessOutputs(t *testing.T) {
	first, err := NewRunner(testConfig()).Run(context.Background())
	require.NoError(t, err)
	second, err := NewRunner(testConfig()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.RevenueRecords, second.RevenueRecords)
	assert.Equal(t, first.Recommendations, second.Recommendations)
	assert.Equal(t, first.CVError, second.CVError)
	assert.Equal(t, first.FeatureImportances, second.FeatureImportances)
}

func TestRun_InvalidConfigFailsBeforeGeneration(t *testing.T) {
	cfg := testConfig()
	cfg.Analysis.Catalog = nil

	_, err := NewRunner(cfg).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestRun_InvertedDateRange(t *testing.T) {
	cfg := testConfig()
	cfg.Analysis.StartDate, cfg.Analysis.EndDate = cfg.Analysis.EndDate, cfg.Analysis.StartDate

	_, err := NewRunner(cfg).Run(context.Background())
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestExportCSV_WritesResultTables(t *testing.T) {
	result := &Result{
		RunID: "test-run",
		RevenueRecords: []domain.RevenueRecord{
			{PartID: "engine", TotalDemand: 700, MeanPrice: 100, Revenue: 70000, RevenueShare: 0.7, CumulativeShare: 0.7, Category: domain.CategoryA},
		},
		Recommendations: []domain.Recommendation{
			{PartID: "engine", Category: domain.CategoryA, Priority: domain.PriorityHigh, CurrentStock: 50, RecommendedStock: 85, Status: domain.StatusInsufficient, Action: domain.ActionIncreaseSafetyStock},
		},
		FeatureImportances: []domain.FeatureImportance{
			{Feature: "demand_rolling_mean_7", Weight: 0.4},
		},
	}

	dir := t.TempDir()
	require.NoError(t, ExportCSV(result, dir))

	for _, name := range []string{"revenue_classification.csv", "recommendations.csv", "feature_importance.csv"} {
		path := filepath.Join(dir, name)
		file, err := os.Open(path)
		require.NoError(t, err, "expected %s to exist", name)

		records, err := csv.NewReader(file).ReadAll()
		file.Close()
		require.NoError(t, err)
		assert.Len(t, records, 2, "%s should have header plus one row", name)
	}
}
