package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/skyparts/demandcast/internal/config"
	"github.com/skyparts/demandcast/internal/pipeline"
	"github.com/skyparts/demandcast/pkg/logger"
)

const dateLayout = "2006-01-02"

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "analyze",
		Usage: "Run the maintenance-parts demand analysis pipeline",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "start-date",
				Usage:   "First day of the analysis window (YYYY-MM-DD)",
				EnvVars: []string{"ANALYSIS_START_DATE"},
			},
			&cli.StringFlag{
				Name:    "end-date",
				Usage:   "Last day of the analysis window (YYYY-MM-DD)",
				EnvVars: []string{"ANALYSIS_END_DATE"},
			},
			&cli.Int64Flag{
				Name:    "seed",
				Usage:   "Random seed for the synthetic data and the model",
				EnvVars: []string{"ANALYSIS_SEED"},
			},
			&cli.IntFlag{
				Name:    "trees",
				Usage:   "Number of trees in the forecasting ensemble",
				EnvVars: []string{"MODEL_TREES"},
			},
			&cli.IntFlag{
				Name:    "workers",
				Usage:   "Number of concurrent tree-fitting workers",
				EnvVars: []string{"MODEL_WORKERS"},
			},
			&cli.StringFlag{
				Name:    "output-dir",
				Usage:   "Directory for exported CSV tables",
				EnvVars: []string{"EXPORT_OUTPUT_DIR"},
			},
			&cli.BoolFlag{
				Name:  "no-export",
				Usage: "Skip writing CSV tables",
				Value: false,
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Action: runAnalysis,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runAnalysis(c *cli.Context) error {
	logger.SetLevel(c.String("log-level"))

	cfg := config.Load()
	if err := applyFlags(cfg, c); err != nil {
		return err
	}

	result, err := pipeline.NewRunner(cfg).Run(c.Context)
	if err != nil {
		return fmt.Errorf("analysis run failed: %w", err)
	}

	printReport(os.Stdout, result)

	if cfg.Export.Enabled && !c.Bool("no-export") {
		if err := pipeline.ExportCSV(result, cfg.Export.OutputDir); err != nil {
			return fmt.Errorf("failed to export results: %w", err)
		}
	}

	return nil
}

// applyFlags overlays explicitly-set CLI flags on top of the loaded
// environment configuration.
func applyFlags(cfg *config.Config, c *cli.Context) error {
	if c.IsSet("start-date") {
		start, err := time.Parse(dateLayout, c.String("start-date"))
		if err != nil {
			return fmt.Errorf("invalid start date %q: %w", c.String("start-date"), err)
		}
		cfg.Analysis.StartDate = start
	}
	if c.IsSet("end-date") {
		end, err := time.Parse(dateLayout, c.String("end-date"))
		if err != nil {
			return fmt.Errorf("invalid end date %q: %w", c.String("end-date"), err)
		}
		cfg.Analysis.EndDate = end
	}
	if c.IsSet("seed") {
		cfg.Analysis.Seed = c.Int64("seed")
	}
	if c.IsSet("trees") {
		cfg.Model.Trees = c.Int("trees")
	}
	if c.IsSet("workers") {
		cfg.Model.Workers = c.Int("workers")
	}
	if c.IsSet("output-dir") {
		cfg.Export.OutputDir = c.String("output-dir")
	}
	return nil
}
