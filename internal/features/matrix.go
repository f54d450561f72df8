package features

import (
	"fmt"
	"sort"
	"time"

	"github.com/skyparts/demandcast/internal/domain"
)

// Numeric feature columns in their fixed order. Categorical calendar fields
// are expanded into indicator columns appended after these.
var numericColumns = []string{
	"day_of_year",
	"is_weekend",
	"stock",
	"price",
	"demand_lag_7",
	"demand_rolling_mean_7",
	"demand_rolling_std_7",
	"stock_demand_ratio",
}

// DesignMatrix is the numeric training view of a feature table: one row per
// usable feature row, categoricals one-hot expanded, target = raw demand.
// Dates carries each sample's observation date so time-ordered splits can
// align fold boundaries to whole dates.
type DesignMatrix struct {
	Columns []string
	Rows    [][]float64
	Target  []float64
	Dates   []time.Time
}

// Len returns the number of samples.
func (m *DesignMatrix) Len() int {
	return len(m.Rows)
}

// ColumnsFor derives the full deterministic column layout for a feature
// table: the fixed numeric columns followed by one indicator column per
// distinct observed value of day_of_week, month and quarter, each group in
// ascending value order. The same layout must be reused when encoding rows
// for prediction so train and predict columns line up.
func ColumnsFor(rows []domain.FeatureRow) []string {
	cols := make([]string, 0, len(numericColumns)+24)
	cols = append(cols, numericColumns...)
	cols = append(cols, indicatorColumns(rows, "day_of_week", func(r domain.FeatureRow) int { return r.DayOfWeek })...)
	cols = append(cols, indicatorColumns(rows, "month", func(r domain.FeatureRow) int { return r.Month })...)
	cols = append(cols, indicatorColumns(rows, "quarter", func(r domain.FeatureRow) int { return r.Quarter })...)
	return cols
}

func indicatorColumns(rows []domain.FeatureRow, prefix string, value func(domain.FeatureRow) int) []string {
	seen := make(map[int]bool)
	for _, r := range rows {
		seen[value(r)] = true
	}
	values := make([]int, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Ints(values)

	cols := make([]string, len(values))
	for i, v := range values {
		cols[i] = fmt.Sprintf("%s_%d", prefix, v)
	}
	return cols
}

// NewDesignMatrix encodes a feature table using the layout derived from it.
func NewDesignMatrix(rows []domain.FeatureRow) *DesignMatrix {
	return Encode(rows, ColumnsFor(rows))
}

// Encode builds a design matrix for rows against a previously derived
// column layout. Indicator columns for values unseen in rows stay zero.
func Encode(rows []domain.FeatureRow, columns []string) *DesignMatrix {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[c] = i
	}

	m := &DesignMatrix{
		Columns: columns,
		Rows:    make([][]float64, len(rows)),
		Target:  make([]float64, len(rows)),
		Dates:   make([]time.Time, len(rows)),
	}

	for i, row := range rows {
		vec := make([]float64, len(columns))
		vec[index["day_of_year"]] = float64(row.DayOfYear)
		if row.IsWeekend {
			vec[index["is_weekend"]] = 1
		}
		vec[index["stock"]] = float64(row.Stock)
		vec[index["price"]] = row.Price
		vec[index["demand_lag_7"]] = row.DemandLag7
		vec[index["demand_rolling_mean_7"]] = row.DemandRollingMean
		vec[index["demand_rolling_std_7"]] = row.DemandRollingStd
		vec[index["stock_demand_ratio"]] = row.StockDemandRatio

		setIndicator(vec, index, "day_of_week", row.DayOfWeek)
		setIndicator(vec, index, "month", row.Month)
		setIndicator(vec, index, "quarter", row.Quarter)

		m.Rows[i] = vec
		m.Target[i] = float64(row.Demand)
		m.Dates[i] = row.Date
	}

	return m
}

func setIndicator(vec []float64, index map[string]int, prefix string, value int) {
	if i, ok := index[fmt.Sprintf("%s_%d", prefix, value)]; ok {
		vec[i] = 1
	}
}
