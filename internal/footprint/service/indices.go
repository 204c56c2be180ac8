package service

import (
	"context"
	"math"
	"sync"

	"github.com/rs/zerolog"

	"carbon-index-service/internal/footprint/model"
)

// Optimized baselines per domain.
const (
	optimalFoodPerDay     = 2.5  // kg CO2e per person per day
	optimalTransportPerKm = 0.02 // kg CO2e per km, sustainable transport
	referenceAreaM2       = 50
)

// seasonal optimum for a 50 m² reference dwelling, scaled linearly by area
var optimalHeating = map[model.Season]float64{
	model.SeasonWinter: 150,
	model.SeasonSummer: 10,
	model.SeasonYear:   80,
}

// HeatingLookup returns season-adjusted emissions for heating systems over
// an area; nil means the upstream was unavailable.
type HeatingLookup interface {
	HeatingEmissions(ctx context.Context, m2 float64, ids []int, season model.Season) []model.Emission
}

// TransportLookup returns emissions for transport modes over a distance.
type TransportLookup interface {
	TransportEmissions(ctx context.Context, km float64, ids []int) []model.Emission
}

// Calculator turns per-domain footprints into 0-100 indices, 1-5 ranks and
// the aggregate global rank.
type Calculator struct {
	matcher   *Matcher
	heating   HeatingLookup
	transport TransportLookup
	log       zerolog.Logger
}

func NewCalculator(m *Matcher, h HeatingLookup, t TransportLookup, log zerolog.Logger) *Calculator {
	return &Calculator{matcher: m, heating: h, transport: t, log: log}
}

// DetermineRank buckets an index into ranks 1 (best) through 5. Boundary
// values land in the better rank.
func DetermineRank(userIndex float64) int {
	switch {
	case userIndex >= 80:
		return 1
	case userIndex >= 60:
		return 2
	case userIndex >= 40:
		return 3
	case userIndex >= 20:
		return 4
	default:
		return 5
	}
}

// domainIndex compares user emissions to the optimized baseline. The index
// caps at 100: doing better than the optimum is still 100.
func domainIndex(userEmissions, optimizedEmissions float64) *model.DomainIndex {
	if userEmissions <= 0 {
		return nil
	}
	idx := math.Min((optimizedEmissions/userEmissions)*100, 100)
	return &model.DomainIndex{
		UserIndex:          idx,
		Rank:               DetermineRank(idx),
		UserEmissions:      userEmissions,
		OptimizedEmissions: optimizedEmissions,
	}
}

// GlobalRank averages the ranks of the domains that produced an index.
// Missing domains are excluded, not penalized. Rounding is round-half-to-
// even, matching the source system. Nil when every domain failed.
func GlobalRank(domains ...*model.DomainIndex) *int {
	var sum, n float64
	for _, d := range domains {
		if d == nil {
			continue
		}
		sum += float64(d.Rank)
		n++
	}
	if n == 0 {
		return nil
	}
	r := int(math.RoundToEven(sum / n))
	return &r
}

// FoodIndex resolves the product footprint and normalizes it against the
// daily per-person target.
func (c *Calculator) FoodIndex(ctx context.Context, productName string, weightKg float64) *model.DomainIndex {
	res := c.matcher.Resolve(ctx, productName, weightKg)
	if res.CarbonFootprint == nil {
		return nil
	}
	return domainIndex(*res.CarbonFootprint, optimalFoodPerDay)
}

// HeatingIndex fetches the season-adjusted emission for one system and
// normalizes it against the seasonal optimum scaled by area.
func (c *Calculator) HeatingIndex(ctx context.Context, m2 float64, heatingID int, season model.Season) *model.DomainIndex {
	emissions := c.heating.HeatingEmissions(ctx, m2, []int{heatingID}, season)
	if len(emissions) == 0 {
		return nil
	}
	optimized := optimalHeating[season] * (m2 / referenceAreaM2)
	return domainIndex(emissions[0].Value, optimized)
}

// TransportIndex fetches the emission for one mode over the distance and
// normalizes it against the sustainable per-km rate.
func (c *Calculator) TransportIndex(ctx context.Context, km float64, transportID int) *model.DomainIndex {
	emissions := c.transport.TransportEmissions(ctx, km, []int{transportID})
	if len(emissions) == 0 {
		return nil
	}
	return domainIndex(emissions[0].Value, km*optimalTransportPerKm)
}

// CalculateIndices runs the three domains concurrently; the remote services
// share no state, and one domain failing must not drag down the others.
func (c *Calculator) CalculateIndices(ctx context.Context, req model.IndicesRequest) model.IndicesResult {
	var res model.IndicesResult
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		res.Food = c.FoodIndex(ctx, req.ProductName, req.WeightKg)
	}()
	go func() {
		defer wg.Done()
		res.Heating = c.HeatingIndex(ctx, req.M2, req.HeatingID, req.Season)
	}()
	go func() {
		defer wg.Done()
		res.Transport = c.TransportIndex(ctx, req.DistanceKm, req.TransportID)
	}()
	wg.Wait()

	res.GlobalRank = GlobalRank(res.Food, res.Heating, res.Transport)
	return res
}
