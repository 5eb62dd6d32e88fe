package ranking

import (
	"math"
	"sort"

	"agromarket/internal/geo"
	"agromarket/internal/models"
)

// RankedProduct is a product together with the score it was ranked by.
type RankedProduct struct {
	models.Product
	Score         float64  `json:"score"`
	DistanceKm    *float64 `json:"distance_km,omitempty"`
	DistanceLabel string   `json:"distance_label,omitempty"`
}

// Engine orders products by score. It holds no mutable state and is safe for concurrent use.
type Engine struct {
	weights Weights
}

// NewEngine creates an Engine whose optimal mode uses the given weights.
func NewEngine(weights Weights) *Engine {
	return &Engine{weights: weights}
}

var defaultEngine = NewEngine(DefaultWeights())

// Score computes the score of p under criterion c using the default weights.
func Score(p models.Product, c Criterion, loc *models.Location) float64 {
	return defaultEngine.Score(p, c, loc)
}

// Rank orders products best first using the default weights.
func Rank(products []models.Product, criterion string, loc *models.Location) []models.Product {
	return defaultEngine.Rank(products, criterion, loc)
}

// Weights returns the optimal-mode weights of the engine.
func (e *Engine) Weights() Weights {
	return e.weights
}

// Score computes the score of p under criterion c. loc may be nil.
func (e *Engine) Score(p models.Product, c Criterion, loc *models.Location) float64 {
	return score(p, c, distanceTo(p, loc), e.weights)
}

// Rank returns a new slice with products ordered by descending score.
// Equal scores keep their input order, except under CriterionDistance where the
// closer known distance goes first. The input slice is not modified.
func (e *Engine) Rank(products []models.Product, criterion string, loc *models.Location) []models.Product {
	scored := e.RankScored(products, criterion, loc)
	out := make([]models.Product, len(scored))
	for i := range scored {
		out[i] = scored[i].Product
	}
	return out
}

// RankScored is Rank, keeping each product's score and distance from loc.
// Under CriterionDistance equal scores are ordered by raw distance, not input order,
// so providers past the 50 km zero-score point still come out nearest first.
func (e *Engine) RankScored(products []models.Product, criterion string, loc *models.Location) []RankedProduct {
	c := ParseCriterion(criterion)

	ranked := make([]RankedProduct, len(products))
	kms := make([]float64, len(products))
	for i, p := range products {
		km := distanceTo(p, loc)
		kms[i] = km
		ranked[i] = RankedProduct{Product: p, Score: score(p, c, km, e.weights)}
		if !math.IsNaN(km) {
			d := km
			ranked[i].DistanceKm = &d
			ranked[i].DistanceLabel = geo.FormatDistance(km)
		}
	}

	// Sort an index permutation so the per-product distances follow their products.
	idx := make([]int, len(ranked))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		sa, sb := ranked[idx[a]].Score, ranked[idx[b]].Score
		if higher(sa, sb) {
			return true
		}
		if c == CriterionDistance && !higher(sb, sa) {
			// Clamped distance scores tie beyond 50 km; the closer provider still wins.
			return closer(kms[idx[a]], kms[idx[b]])
		}
		return false
	})

	out := make([]RankedProduct, len(ranked))
	for i, j := range idx {
		out[i] = ranked[j]
	}
	return out
}

// higher orders scores descending with NaN below every number.
func higher(a, b float64) bool {
	if math.IsNaN(a) {
		return false
	}
	if math.IsNaN(b) {
		return true
	}
	return a > b
}

// closer compares two known distances; unknown distances never win a tie.
func closer(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return false
	}
	return a < b
}

// Filter narrows a catalog before ranking. Zero values disable each condition.
type Filter struct {
	EcoOnly    bool
	Category   string
	SellerType string
	// MaxDistanceKm drops products whose provider is known to be farther away.
	// Products without a known distance are kept.
	MaxDistanceKm float64
}

// Apply returns the products matching f, in input order.
func (f Filter) Apply(products []models.Product, loc *models.Location) []models.Product {
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if f.EcoOnly && !p.Eco() {
			continue
		}
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.SellerType != "" && p.SellerType != f.SellerType {
			continue
		}
		if f.MaxDistanceKm > 0 {
			if km := distanceTo(p, loc); !math.IsNaN(km) && !geo.WithinRange(km, f.MaxDistanceKm) {
				continue
			}
		}
		out = append(out, p)
	}
	return out
}
