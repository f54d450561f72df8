package domain

// ABCCategory is the revenue tier assigned by ABC classification.
type ABCCategory string

const (
	CategoryA ABCCategory = "A"
	CategoryB ABCCategory = "B"
	CategoryC ABCCategory = "C"
)

// StockStatus is the sufficiency verdict for a part's current stock.
type StockStatus string

const (
	StatusSufficient   StockStatus = "Sufficient"
	StatusInsufficient StockStatus = "Insufficient"
)

// Priority is the replenishment urgency derived from the ABC tier.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Tier-specific directives for the advisor.
const (
	ActionIncreaseSafetyStock = "Increase safety stock"
	ActionMaintainLevel       = "Maintain current level"
	ActionOptimizeStock       = "Optimize stock"
	ActionMonitor             = "Monitor"
	ActionMinimizeStock       = "Minimize stock"
)

// PriorityAndAction resolves the fixed (category, status) lookup table:
//
//	A, Insufficient -> High,   increase safety stock
//	A, Sufficient   -> High,   maintain current level
//	B, Insufficient -> Medium, optimize stock
//	B, Sufficient   -> Medium, monitor
//	C, any          -> Low,    minimize stock
func PriorityAndAction(category ABCCategory, status StockStatus) (Priority, string) {
	switch category {
	case CategoryA:
		if status == StatusInsufficient {
			return PriorityHigh, ActionIncreaseSafetyStock
		}
		return PriorityHigh, ActionMaintainLevel
	case CategoryB:
		if status == StatusInsufficient {
			return PriorityMedium, ActionOptimizeStock
		}
		return PriorityMedium, ActionMonitor
	default:
		return PriorityLow, ActionMinimizeStock
	}
}
