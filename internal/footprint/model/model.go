package model

// Season selects the client-side adjustment applied to heating emissions.
type Season string

const (
	SeasonWinter Season = "winter"
	SeasonSummer Season = "summer"
	SeasonYear   Season = "year"
)

// Valid reports whether s is one of the three known seasons.
func (s Season) Valid() bool {
	switch s {
	case SeasonWinter, SeasonSummer, SeasonYear:
		return true
	}
	return false
}

// Factor is the seasonal multiplier applied to the raw API figure.
func (s Season) Factor() float64 {
	switch s {
	case SeasonWinter:
		return 1.0
	case SeasonSummer:
		return 0.1
	default:
		return 0.5
	}
}

// MatchResult is the terminal outcome of a product resolution. A nil
// CarbonFootprint is valid and means "no credible match".
type MatchResult struct {
	ProductName     string   `json:"product_name"`
	CarbonFootprint *float64 `json:"carbon_footprint"`
}

// Emission is one row of a heating/transport emission response. For heating
// the Value already carries the seasonal adjustment.
type Emission struct {
	ID    int     `json:"id,omitempty"`
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// DomainIndex normalizes one domain's footprint against its optimized
// baseline. UserIndex is in [0,100], Rank in [1,5] (1 is best).
type DomainIndex struct {
	UserIndex          float64 `json:"user_index"`
	Rank               int     `json:"rank"`
	UserEmissions      float64 `json:"user_emissions"`
	OptimizedEmissions float64 `json:"optimized_emissions"`
}

type IndicesRequest struct {
	ProductName string  `json:"product_name"`
	WeightKg    float64 `json:"weight_kg"`
	M2          float64 `json:"m2"`
	HeatingID   int     `json:"heating_id"`
	Season      Season  `json:"season"`
	DistanceKm  float64 `json:"distance"`
	TransportID int     `json:"transport_id"`
}

// IndicesResult is the aggregate answer. A nil domain means that pipeline
// could not produce a figure; GlobalRank averages the ranks that survive.
type IndicesResult struct {
	Food       *DomainIndex `json:"food"`
	Heating    *DomainIndex `json:"heating"`
	Transport  *DomainIndex `json:"transport"`
	GlobalRank *int         `json:"global_rank"`
}
