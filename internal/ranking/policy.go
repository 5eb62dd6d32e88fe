// Package ranking scores catalog products against a sort criterion and orders them best first.
//
// Scores are only meaningful relative to each other: higher is better and most
// criteria land roughly in 0–100. Scoring never fails; missing or non-finite
// optional fields fall back to the neutral value of their criterion.
package ranking

import (
	"math"
	"strings"

	"agromarket/internal/geo"
	"agromarket/internal/models"
)

// Criterion names a sort mode.
type Criterion string

// Supported criteria.
const (
	CriterionPrice          Criterion = "price"
	CriterionPriceDesc      Criterion = "price_desc"
	CriterionDistance       Criterion = "distance"
	CriterionSustainability Criterion = "sustainability"
	CriterionEco            Criterion = "eco"
	CriterionStock          Criterion = "stock"
	CriterionOptimal        Criterion = "optimal"
)

// neutralDistanceScore is used when either side of a distance is unknown.
const neutralDistanceScore = 50.0

// ParseCriterion maps a sort mode name to a Criterion. Unknown names yield CriterionOptimal.
func ParseCriterion(name string) Criterion {
	switch c := Criterion(strings.ToLower(strings.TrimSpace(name))); c {
	case CriterionPrice, CriterionPriceDesc, CriterionDistance,
		CriterionSustainability, CriterionEco, CriterionStock:
		return c
	default:
		return CriterionOptimal
	}
}

// CriterionFromToggles picks the sort mode for the consumer filter chips.
// Price takes precedence over distance, distance over eco; with nothing toggled the optimal mode is used.
func CriterionFromToggles(price, distance, eco bool) Criterion {
	switch {
	case price:
		return CriterionPrice
	case distance:
		return CriterionDistance
	case eco:
		return CriterionEco
	default:
		return CriterionOptimal
	}
}

// Weights are the coefficients of the optimal composite score.
type Weights struct {
	Price          float64 `json:"price" mapstructure:"price" validate:"gte=0"`
	Distance       float64 `json:"distance" mapstructure:"distance" validate:"gte=0"`
	Sustainability float64 `json:"sustainability" mapstructure:"sustainability" validate:"gte=0"`
	Eco            float64 `json:"eco" mapstructure:"eco" validate:"gte=0"`
	Stock          float64 `json:"stock" mapstructure:"stock" validate:"gte=0"`
}

// DefaultWeights returns the stock weighting of the optimal mode.
func DefaultWeights() Weights {
	return Weights{
		Price:          0.30,
		Distance:       0.25,
		Sustainability: 0.20,
		Eco:            0.15,
		Stock:          0.10,
	}
}

func priceScore(p models.Product) float64 {
	return math.Max(0, 100-p.Price.InexactFloat64()*10)
}

func priceDescScore(p models.Product) float64 {
	return p.Price.InexactFloat64() * 20
}

// distanceTo returns the distance from loc to the product's provider, or NaN when unknown.
func distanceTo(p models.Product, loc *models.Location) float64 {
	if loc == nil {
		return math.NaN()
	}
	provider, ok := p.Coordinates()
	if !ok {
		return math.NaN()
	}
	return geo.DistanceKm(loc.Latitude, loc.Longitude, provider.Latitude, provider.Longitude)
}

func distanceScore(km float64) float64 {
	if math.IsNaN(km) || math.IsInf(km, 0) {
		return neutralDistanceScore
	}
	return math.Max(0, 100-km*2)
}

func sustainabilityScore(p models.Product) float64 {
	if v, ok := models.Finite(p.SustainabilityScore); ok {
		return v
	}
	return 0
}

func ecoScore(p models.Product) float64 {
	if p.Eco() {
		return 100
	}
	return 0
}

func stockScore(p models.Product) float64 {
	return math.Min(p.EffectiveStock()*10, 100)
}

func score(p models.Product, c Criterion, km float64, w Weights) float64 {
	switch c {
	case CriterionPrice:
		return priceScore(p)
	case CriterionPriceDesc:
		return priceDescScore(p)
	case CriterionDistance:
		return distanceScore(km)
	case CriterionSustainability:
		return sustainabilityScore(p)
	case CriterionEco:
		return ecoScore(p)
	case CriterionStock:
		return stockScore(p)
	default:
		return w.Price*priceScore(p) +
			w.Distance*distanceScore(km) +
			w.Sustainability*sustainabilityScore(p) +
			w.Eco*ecoScore(p) +
			w.Stock*stockScore(p)
	}
}
