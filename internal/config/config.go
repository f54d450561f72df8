package config

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/skyparts/demandcast/internal/domain"
)

// ErrInvalidConfig is the base error for configuration validation failures.
// Validation errors wrap it so callers can match with errors.Is.
var ErrInvalidConfig = errors.New("invalid configuration")

const dateLayout = "2006-01-02"

type Config struct {
	Analysis AnalysisConfig
	Model    ModelConfig
	Export   ExportConfig
}

type AnalysisConfig struct {
	StartDate time.Time
	EndDate   time.Time
	Seed      int64
	Catalog   []domain.PartProfile
}

type ModelConfig struct {
	Trees          int
	MaxDepth       int
	MinLeafSamples int
	Folds          int
	Workers        int
}

type ExportConfig struct {
	Enabled   bool
	OutputDir string
}

var (
	once     sync.Once
	instance *Config
)

// Load builds the configuration from environment variables with defaults.
// The part catalog is a fixed in-code default; it is carried as a value on
// the returned Config and passed explicitly into the generator, never read
// from package-level state by the pipeline stages.
func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		viper.SetDefault("ANALYSIS_START_DATE", "2022-01-01")
		viper.SetDefault("ANALYSIS_END_DATE", "2024-01-01")
		viper.SetDefault("ANALYSIS_SEED", 42)
		viper.SetDefault("MODEL_TREES", 100)
		viper.SetDefault("MODEL_MAX_DEPTH", 12)
		viper.SetDefault("MODEL_MIN_LEAF_SAMPLES", 3)
		viper.SetDefault("MODEL_FOLDS", 5)
		viper.SetDefault("MODEL_WORKERS", 4)
		viper.SetDefault("EXPORT_ENABLED", true)
		viper.SetDefault("EXPORT_OUTPUT_DIR", "./data/output")

		// Read from environment variables
		viper.AutomaticEnv()

		start, _ := time.Parse(dateLayout, viper.GetString("ANALYSIS_START_DATE"))
		end, _ := time.Parse(dateLayout, viper.GetString("ANALYSIS_END_DATE"))

		instance = &Config{
			Analysis: AnalysisConfig{
				StartDate: start,
				EndDate:   end,
				Seed:      viper.GetInt64("ANALYSIS_SEED"),
				Catalog:   DefaultCatalog(),
			},
			Model: ModelConfig{
				Trees:          viper.GetInt("MODEL_TREES"),
				MaxDepth:       viper.GetInt("MODEL_MAX_DEPTH"),
				MinLeafSamples: viper.GetInt("MODEL_MIN_LEAF_SAMPLES"),
				Folds:          viper.GetInt("MODEL_FOLDS"),
				Workers:        viper.GetInt("MODEL_WORKERS"),
			},
			Export: ExportConfig{
				Enabled:   viper.GetBool("EXPORT_ENABLED"),
				OutputDir: viper.GetString("EXPORT_OUTPUT_DIR"),
			},
		}
	})

	return instance
}

// DefaultCatalog returns the fixed five-part maintenance catalog: base daily
// demand, unit price range and the probability of an anomaly-injection event.
func DefaultCatalog() []domain.PartProfile {
	return []domain.PartProfile{
		{PartID: "engine", BaseDemand: 8, PriceMin: 50000, PriceMax: 100000, AnomalyProbability: 0.05},
		{PartID: "chassis", BaseDemand: 15, PriceMin: 30000, PriceMax: 60000, AnomalyProbability: 0.15},
		{PartID: "avionics", BaseDemand: 10, PriceMin: 40000, PriceMax: 80000, AnomalyProbability: 0.08},
		{PartID: "electrics", BaseDemand: 12, PriceMin: 20000, PriceMax: 50000, AnomalyProbability: 0.12},
		{PartID: "hydraulics", BaseDemand: 11, PriceMin: 25000, PriceMax: 60000, AnomalyProbability: 0.10},
	}
}

// Validate checks the configuration before any generation starts. All
// failures here are fatal for the run.
func (c *Config) Validate() error {
	if c.Analysis.StartDate.IsZero() || c.Analysis.EndDate.IsZero() {
		return fmt.Errorf("%w: start and end dates are required (format %s)", ErrInvalidConfig, dateLayout)
	}
	if c.Analysis.EndDate.Before(c.Analysis.StartDate) {
		return fmt.Errorf("%w: end date %s is before start date %s", ErrInvalidConfig,
			c.Analysis.EndDate.Format(dateLayout), c.Analysis.StartDate.Format(dateLayout))
	}
	if len(c.Analysis.Catalog) == 0 {
		return fmt.Errorf("%w: part catalog is empty", ErrInvalidConfig)
	}
	for _, p := range c.Analysis.Catalog {
		if p.PartID == "" {
			return fmt.Errorf("%w: catalog entry with empty part id", ErrInvalidConfig)
		}
		if p.BaseDemand <= 0 {
			return fmt.Errorf("%w: part %s has non-positive base demand %.2f", ErrInvalidConfig, p.PartID, p.BaseDemand)
		}
		if p.PriceMin <= 0 || p.PriceMax <= p.PriceMin {
			return fmt.Errorf("%w: part %s has invalid price range [%.2f, %.2f]", ErrInvalidConfig, p.PartID, p.PriceMin, p.PriceMax)
		}
		if p.AnomalyProbability < 0 || p.AnomalyProbability > 1 {
			return fmt.Errorf("%w: part %s has anomaly probability %.2f outside [0,1]", ErrInvalidConfig, p.PartID, p.AnomalyProbability)
		}
	}
	if c.Model.Trees < 1 {
		return fmt.Errorf("%w: ensemble size must be at least 1", ErrInvalidConfig)
	}
	if c.Model.Folds < 1 {
		return fmt.Errorf("%w: fold count must be at least 1", ErrInvalidConfig)
	}
	return nil
}
