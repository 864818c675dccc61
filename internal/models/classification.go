package models

import "time"

// Category is the classification outcome for a single asset.
type Category string

const (
	CategoryOpportunity Category = "opportunity"
	CategoryAlert       Category = "alert"
	CategoryNeutral     Category = "neutral"
)

// Alert trigger reason names. Reasons accumulate in trigger order.
const (
	ReasonExpensive = "expensive"  // valuation ratio above the ceiling
	ReasonLowYield  = "low_yield"  // yield below factor × portfolio mean
	ReasonValueTrap = "value_trap" // very cheap and very low yield together
)

// ClassificationTag records the category decided for one asset and the
// ordered set of trigger names that fired. Stateless, recomputed every cycle.
type ClassificationTag struct {
	Ticker   string     `json:"ticker"`
	Class    AssetClass `json:"class"`
	Category Category   `json:"category"`
	Reasons  []string   `json:"reasons,omitempty"`
}

// Opportunity is a shortlisted under-allocated fund with advisory sizing.
type Opportunity struct {
	Ticker          string  `json:"ticker"`
	ValuationRatio  float64 `json:"valuation_ratio"`
	TrailingYield   float64 `json:"trailing_yield"`
	PortfolioWeight float64 `json:"portfolio_weight"`
	MarketValue     float64 `json:"market_value"`
	SuggestedTopUp  float64 `json:"suggested_top_up"` // advisory, never negative
}

// Alert is a shortlisted holding that tripped at least one alert trigger.
type Alert struct {
	Ticker         string   `json:"ticker"`
	ValuationRatio float64  `json:"valuation_ratio"`
	TrailingYield  float64  `json:"trailing_yield"`
	MarketValue    float64  `json:"market_value"`
	Reasons        []string `json:"reasons"`
}

// RadarReport is the full classifier output for one snapshot: every asset's
// tag plus the ranked, capped shortlists used for presentation.
type RadarReport struct {
	GeneratedAt    time.Time           `json:"generated_at"`
	MeanFundYield  float64             `json:"mean_fund_yield"`
	MeanFundWeight float64             `json:"mean_fund_weight"`
	Tags           []ClassificationTag `json:"tags"`
	Opportunities  []Opportunity       `json:"opportunities"` // ascending valuation ratio
	Alerts         []Alert             `json:"alerts"`        // descending market value
}
