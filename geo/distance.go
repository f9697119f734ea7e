package geo

import (
	"math"

	"github.com/hel3-14t/helpmate-api/schema"
)

// earthRadiusKm is the mean radius of the spherical-earth approximation.
const earthRadiusKm = 6371

// DistanceKm computes the haversine great-circle distance between two
// coordinate pairs in kilometers. It is symmetric in its arguments and
// returns 0 for identical points. Out-of-range coordinates are not
// validated here; callers are responsible for upstream validation.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// Distance computes the great-circle distance between two locations.
func Distance(a, b schema.Location) float64 {
	return DistanceKm(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
}

func toRadians(deg float64) float64 {
	return deg * (math.Pi / 180)
}
