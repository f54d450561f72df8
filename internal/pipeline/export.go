package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/skyparts/demandcast/pkg/logger"
)

// ExportCSV writes the run's revenue classification, recommendations and
// feature-importance ranking as CSV files under dir. It is a pure output
// collaborator: nothing here computes, it only serializes the Result.
func ExportCSV(result *Result, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir %s: %w", dir, err)
	}

	files := []struct {
		name   string
		header []string
		rows   [][]string
	}{
		{"revenue_classification.csv", revenueHeader, revenueRows(result)},
		{"recommendations.csv", recommendationHeader, recommendationRows(result)},
		{"feature_importance.csv", importanceHeader, importanceRows(result)},
	}

	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := writeCSV(path, f.header, f.rows); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}

	logger.Log.Info().
		Str("run_id", result.RunID).
		Str("dir", dir).
		Int("files", len(files)).
		Msg("exported result tables")

	return nil
}

var (
	revenueHeader        = []string{"part_id", "total_demand", "mean_price", "revenue", "revenue_share", "cumulative_share", "abc_category"}
	recommendationHeader = []string{"part_id", "abc_category", "priority", "current_stock", "recommended_stock", "status", "action"}
	importanceHeader     = []string{"feature", "importance"}
)

func revenueRows(result *Result) [][]string {
	rows := make([][]string, 0, len(result.RevenueRecords))
	for _, r := range result.RevenueRecords {
		rows = append(rows, []string{
			r.PartID,
			strconv.Itoa(r.TotalDemand),
			formatFloat(r.MeanPrice),
			formatFloat(r.Revenue),
			formatFloat(r.RevenueShare),
			formatFloat(r.CumulativeShare),
			string(r.Category),
		})
	}
	return rows
}

func recommendationRows(result *Result) [][]string {
	rows := make([][]string, 0, len(result.Recommendations))
	for _, r := range result.Recommendations {
		rows = append(rows, []string{
			r.PartID,
			string(r.Category),
			string(r.Priority),
			strconv.Itoa(r.CurrentStock),
			strconv.Itoa(r.RecommendedStock),
			string(r.Status),
			r.Action,
		})
	}
	return rows
}

func importanceRows(result *Result) [][]string {
	rows := make([][]string, 0, len(result.FeatureImportances))
	for _, imp := range result.FeatureImportances {
		rows = append(rows, []string{imp.Feature, formatFloat(imp.Weight)})
	}
	return rows
}

func writeCSV(path string, header []string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
