package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/skyparts/demandcast/internal/pipeline"
)

// printReport renders the run summary as plain-text tables.
func printReport(w io.Writer, result *pipeline.Result) {
	fmt.Fprintf(w, "\nAnalysis run %s completed in %s\n", result.RunID, result.Duration.Round(10*time.Millisecond))
	fmt.Fprintf(w, "Observations: %d, feature rows: %d\n\n", result.RowCount, result.FeatureRows)

	fmt.Fprintln(w, "Model performance")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "  CV MAE\t%.3f\n", result.CVError)
	fmt.Fprintf(tw, "  MAE\t%.3f\n", result.ML.MAE)
	fmt.Fprintf(tw, "  RMSE\t%.3f\n", result.ML.RMSE)
	fmt.Fprintf(tw, "  MAPE\t%.2f%%\n", result.ML.MAPE)
	fmt.Fprintf(tw, "  R2\t%.3f\n", result.ML.R2)
	if result.ML.ImprovementVsBaseline != nil {
		fmt.Fprintf(tw, "  vs. naive baseline\t%+.1f%%\n", *result.ML.ImprovementVsBaseline)
	}
	tw.Flush()

	fmt.Fprintln(w, "\nTop features")
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, fi := range result.FeatureImportances {
		if i == 5 {
			break
		}
		fmt.Fprintf(tw, "  %s\t%.3f\n", fi.Feature, fi.Weight)
	}
	tw.Flush()

	fmt.Fprintln(w, "\nRevenue classification")
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  part\tcategory\trevenue share\tcumulative")
	for _, rec := range result.RevenueRecords {
		fmt.Fprintf(tw, "  %s\t%s\t%.1f%%\t%.1f%%\n",
			rec.PartID, rec.Category, rec.RevenueShare*100, rec.CumulativeShare*100)
	}
	tw.Flush()

	fmt.Fprintln(w, "\nReplenishment recommendations")
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  part\tpriority\tcurrent\trecommended\tstatus\taction")
	for _, rec := range result.Recommendations {
		fmt.Fprintf(tw, "  %s\t%s\t%d\t%d\t%s\t%s\n",
			rec.PartID, rec.Priority, rec.CurrentStock, rec.RecommendedStock, rec.Status, rec.Action)
	}
	tw.Flush()

	inv := result.Business.Inventory
	fin := result.Business.Financial
	svc := result.Business.Service

	fmt.Fprintln(w, "\nInventory and service")
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "  current stock\t%d\n", inv.TotalCurrentStock)
	fmt.Fprintf(tw, "  recommended stock\t%d\n", inv.TotalRecommendedStock)
	fmt.Fprintf(tw, "  stock change\t%+.1f%%\n", inv.StockChangePercent)
	fmt.Fprintf(tw, "  insufficient parts\t%d\n", inv.InsufficientCount)
	fmt.Fprintf(tw, "  excess parts\t%d\n", inv.ExcessCount)
	fmt.Fprintf(tw, "  service level\t%.1f%%\n", svc.ServiceLevelPercent)
	fmt.Fprintf(tw, "  fill rate\t%.1f%%\n", svc.FillRatePercent)
	fmt.Fprintf(tw, "  shortage events\t%d\n", svc.ShortageEvents)
	fmt.Fprintf(tw, "  anomalous days\t%d\n", svc.AnomalyCount)
	tw.Flush()

	fmt.Fprintln(w, "\nFinancials (millions)")
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "  total revenue\t%.2f\n", fin.TotalRevenueMillions)
	fmt.Fprintf(tw, "  current inventory value\t%.2f\n", fin.CurrentInventoryValueMillions)
	fmt.Fprintf(tw, "  recommended inventory value\t%.2f\n", fin.RecommendedInventoryValueMillions)
	fmt.Fprintf(tw, "  potential savings\t%.2f\n", fin.PotentialSavingsMillions)
	fmt.Fprintf(tw, "  estimated shortage cost\t%.2f\n", fin.ShortageCostMillions)
	tw.Flush()
	fmt.Fprintln(w)
}
