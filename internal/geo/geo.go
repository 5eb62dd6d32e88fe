// Package geo computes great-circle distances and formats them for display.
package geo

import (
	"fmt"
	"math"
)

// EarthRadiusKm is the mean Earth radius used by DistanceKm.
const EarthRadiusKm = 6371.0

// DistanceKm returns the haversine distance in kilometres between two points given in decimal degrees.
// NaN inputs propagate as NaN; callers treat NaN as an unknown distance.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// FormatDistance renders a distance as "250 m", "1.2 km" or "15 km". Halves round up.
func FormatDistance(km float64) string {
	switch {
	case km < 1:
		return fmt.Sprintf("%.0f m", math.Round(km*1000))
	case km < 10:
		return fmt.Sprintf("%.1f km", math.Round(km*10)/10)
	default:
		return fmt.Sprintf("%.0f km", math.Round(km))
	}
}

// WithinRange reports whether a known distance does not exceed maxKm.
func WithinRange(km, maxKm float64) bool {
	return !math.IsNaN(km) && km <= maxKm
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
