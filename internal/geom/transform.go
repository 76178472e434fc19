package geom

import (
	"math"

	"github.com/paulmach/orb"
)

// ToInterchange swaps every pair to [lng, lat]. Nothing else changes.
func ToInterchange(ring NativeRing) orb.Ring {
	out := make(orb.Ring, len(ring))
	for i, c := range ring {
		out[i] = c.Point()
	}
	return out
}

// ToNative is the mirror of ToInterchange.
func ToNative(pts []orb.Point) NativeRing {
	out := make(NativeRing, len(pts))
	for i, p := range pts {
		out[i] = FromPoint(p)
	}
	return out
}

// ClosePolygon appends a copy of the first vertex unless the ring already
// ends on a bit-identical copy of it. The input is never modified.
func ClosePolygon(ring orb.Ring) orb.Ring {
	if len(ring) == 0 || samePoint(ring[0], ring[len(ring)-1]) {
		return ring
	}
	out := make(orb.Ring, len(ring), len(ring)+1)
	copy(out, ring)
	return append(out, ring[0])
}

func samePoint(a, b orb.Point) bool {
	return math.Float64bits(a[0]) == math.Float64bits(b[0]) &&
		math.Float64bits(a[1]) == math.Float64bits(b[1])
}

func distinct(pts []orb.Point) int {
	seen := make(map[orb.Point]struct{}, len(pts))
	for _, p := range pts {
		seen[p] = struct{}{}
	}
	return len(seen)
}

func checkPoints(t Type, pts []orb.Point) error {
	for i, p := range pts {
		if !FromPoint(p).Valid() {
			return invalid(t, "vertex %d out of range: [%g, %g]", i, p[0], p[1])
		}
	}
	return nil
}

// NewPolygon closes every ring and checks the outer one has at least three
// distinct vertices.
func NewPolygon(rings ...orb.Ring) (Polygon, error) {
	if len(rings) == 0 {
		return Polygon{}, invalid(TypePolygon, "no rings")
	}
	poly := make(orb.Polygon, 0, len(rings))
	for i, r := range rings {
		if err := checkPoints(TypePolygon, r); err != nil {
			return Polygon{}, err
		}
		if i == 0 {
			if n := distinct(r); n < 3 {
				return Polygon{}, invalid(TypePolygon, "ring has %d distinct points, need at least 3", n)
			}
		}
		poly = append(poly, ClosePolygon(r))
	}
	return Polygon{Coordinates: poly}, nil
}

// NewCircle rejects non-positive or non-finite radii.
func NewCircle(center orb.Point, radius float64) (Circle, error) {
	if err := checkPoints(TypeCircle, []orb.Point{center}); err != nil {
		return Circle{}, err
	}
	if math.IsNaN(radius) || math.IsInf(radius, 0) || radius <= 0 {
		return Circle{}, invalid(TypeCircle, "radius must be positive, got %g", radius)
	}
	return Circle{Center: center, Radius: radius}, nil
}

// NewLineString needs at least two vertices.
func NewLineString(pts orb.LineString) (LineString, error) {
	if len(pts) < 2 {
		return LineString{}, invalid(TypeLineString, "need at least 2 vertices, got %d", len(pts))
	}
	if err := checkPoints(TypeLineString, pts); err != nil {
		return LineString{}, err
	}
	return LineString{Coordinates: pts}, nil
}

func NewPoint(p orb.Point) (Point, error) {
	if err := checkPoints(TypePoint, []orb.Point{p}); err != nil {
		return Point{}, err
	}
	return Point{Coordinates: p}, nil
}

// PolygonFeature swaps and closes a native ring.
func PolygonFeature(id FeatureID, ring NativeRing, props Properties) (Feature, error) {
	poly, err := NewPolygon(ToInterchange(ring))
	if err != nil {
		return Feature{}, err
	}
	return Feature{ID: id, Geometry: poly, Properties: props.Clone()}, nil
}

// CircleFeature swaps the center; the radius stays in metres.
func CircleFeature(id FeatureID, center LatLng, radiusMeters float64, props Properties) (Feature, error) {
	c, err := NewCircle(center.Point(), radiusMeters)
	if err != nil {
		return Feature{}, err
	}
	return Feature{ID: id, Geometry: c, Properties: props.Clone()}, nil
}

func PointFeature(id FeatureID, at LatLng, props Properties) (Feature, error) {
	p, err := NewPoint(at.Point())
	if err != nil {
		return Feature{}, err
	}
	return Feature{ID: id, Geometry: p, Properties: props.Clone()}, nil
}

func LineFeature(id FeatureID, path NativeRing, props Properties) (Feature, error) {
	ls, err := NewLineString(orb.LineString(ToInterchange(path)))
	if err != nil {
		return Feature{}, err
	}
	return Feature{ID: id, Geometry: ls, Properties: props.Clone()}, nil
}
