package domain

import "time"

// PartProfile is the immutable generation-time configuration for a single
// part in the catalog. It drives the synthetic demand model and is never
// persisted alongside the generated observations.
type PartProfile struct {
	PartID             string
	BaseDemand         float64
	PriceMin           float64
	PriceMax           float64
	AnomalyProbability float64
}

// Observation is one row of the generated daily table: exactly one per
// (date, part) pair over the configured range.
type Observation struct {
	Date      time.Time
	PartID    string
	Demand    int
	Stock     int
	Price     float64
	IsAnomaly bool
}

// Revenue returns the revenue contribution of this single row.
func (o Observation) Revenue() float64 {
	return float64(o.Demand) * o.Price
}

// PriceTier is the categorical price band assigned by the feature builder.
type PriceTier string

const (
	PriceTierLow    PriceTier = "low"
	PriceTierMedium PriceTier = "medium"
	PriceTierHigh   PriceTier = "high"
)

// FeatureRow is an Observation augmented with calendar, lag and
// rolling-window features. Lag and rolling fields only ever reference rows
// strictly earlier in the same part's history.
type FeatureRow struct {
	Observation

	// Calendar features, pure functions of the date
	DayOfWeek int // 0=Sunday .. 6=Saturday
	Month     int
	Quarter   int
	DayOfYear int
	IsWeekend bool

	// Trailing history features (same part only)
	DemandLag7        float64
	DemandRollingMean float64
	DemandRollingStd  float64

	StockDemandRatio float64
	PriceTier        PriceTier
}

// RevenueRecord is the per-part output of the ABC classifier. Records are
// ordered descending by revenue share; CumulativeShare is non-decreasing
// over that order.
type RevenueRecord struct {
	PartID          string
	TotalDemand     int
	MeanPrice       float64
	Revenue         float64
	RevenueShare    float64
	CumulativeShare float64
	Category        ABCCategory
}

// Recommendation is the per-part replenishment advice derived from demand
// statistics and the part's ABC tier.
type Recommendation struct {
	PartID           string
	Category         ABCCategory
	Priority         Priority
	CurrentStock     int
	RecommendedStock int
	Status           StockStatus
	Action           string
}

// FeatureImportance is one entry of the trained model's importance ranking.
// Weights are normalized to sum to 1 and sorted descending.
type FeatureImportance struct {
	Feature string
	Weight  float64
}

// MLMetrics holds forecast-accuracy metrics for the trained model.
type MLMetrics struct {
	MAE                   float64
	RMSE                  float64
	MAPE                  float64
	R2                    float64
	ImprovementVsBaseline *float64 // nil when no baseline was supplied
}

// InventoryMetrics summarizes stock positions against recommendations.
type InventoryMetrics struct {
	TotalCurrentStock     int
	TotalRecommendedStock int
	StockChangePercent    float64
	InsufficientCount     int
	ExcessCount           int
	TurnoverRatio         float64
	AvgDaysOfSupply       float64
}

// FinancialMetrics summarizes revenue and inventory valuation in aggregate
// currency units (reported in millions).
type FinancialMetrics struct {
	TotalRevenueMillions              float64
	AvgItemPrice                      float64
	CurrentInventoryValueMillions     float64
	RecommendedInventoryValueMillions float64
	PotentialSavingsMillions          float64
	ShortageCostMillions              float64
}

// ServiceMetrics summarizes demand fulfillment quality.
type ServiceMetrics struct {
	ServiceLevelPercent float64
	FillRatePercent     float64
	ShortageEvents      int
	TotalRows           int
	AnomalyCount        int
}

// MetricsBundle is the immutable output snapshot of a pipeline run.
type MetricsBundle struct {
	Inventory InventoryMetrics
	Financial FinancialMetrics
	Service   ServiceMetrics
}
