package draw

import (
	"math"

	"fieldmap/internal/geom"
)

// PlanarDistance is the distance in metres between two coordinates using a
// flat-earth approximation: the Euclidean delta in degrees scaled by
// geom.MetersPerDegree. It overstates east-west distances away from the
// equator. Circle radii drawn on the map are defined by this function.
func PlanarDistance(a, b geom.LatLng) float64 {
	return math.Hypot(b.Latitude-a.Latitude, b.Longitude-a.Longitude) * geom.MetersPerDegree
}
