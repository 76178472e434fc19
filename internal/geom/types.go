// Package geom holds the feature model: tagged geometries in interchange
// order ([lng, lat]) and the conversions from the backend's native
// (lat, lng) order.
package geom

import (
	"math"

	"github.com/paulmach/orb"
)

// MetersPerDegree is the fixed scalar used wherever a planar degree delta is
// turned into metres (circle radii while drawing, circle outlines on screen).
const MetersPerDegree = 111320.0

// LatLng is a coordinate in backend-native order. Features never store it;
// use Point and FromPoint to cross into interchange order.
type LatLng struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// NativeRing is a sequence of native-order coordinates.
type NativeRing []LatLng

// Point returns c in interchange order.
func (c LatLng) Point() orb.Point { return orb.Point{c.Longitude, c.Latitude} }

// FromPoint returns p in native order.
func FromPoint(p orb.Point) LatLng { return LatLng{Latitude: p.Lat(), Longitude: p.Lon()} }

// Valid reports whether c is finite and inside the WGS84 ranges.
func (c LatLng) Valid() bool {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) ||
		math.IsInf(c.Latitude, 0) || math.IsInf(c.Longitude, 0) {
		return false
	}
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

// Type is the geometry discriminator used on the wire.
type Type string

const (
	TypePoint      Type = "Point"
	TypeLineString Type = "LineString"
	TypePolygon    Type = "Polygon"
	TypeCircle     Type = "Circle"
)

// Geometry is one of Point, LineString, Polygon, Circle or Unsupported.
// Coordinate slices inside a geometry are shared between copies of a
// Feature and must not be mutated.
type Geometry interface {
	GeoType() Type
	Bound() orb.Bound
	geometry()
}

type Point struct {
	Coordinates orb.Point
}

type LineString struct {
	Coordinates orb.LineString
}

// Polygon keeps every decoded ring but only the outer ring, Coordinates[0],
// is consumed downstream.
type Polygon struct {
	Coordinates orb.Polygon
}

// Circle is the non-standard circle extension; Radius is in metres.
type Circle struct {
	Center orb.Point
	Radius float64
}

// Unsupported carries a geometry type read from outside that the model does
// not know. It survives decoding so the projection can drop it.
type Unsupported struct {
	Type string
	Raw  []byte
}

func (Point) GeoType() Type         { return TypePoint }
func (LineString) GeoType() Type    { return TypeLineString }
func (Polygon) GeoType() Type       { return TypePolygon }
func (Circle) GeoType() Type        { return TypeCircle }
func (u Unsupported) GeoType() Type { return Type(u.Type) }

func (g Point) Bound() orb.Bound      { return g.Coordinates.Bound() }
func (g LineString) Bound() orb.Bound { return g.Coordinates.Bound() }
func (g Polygon) Bound() orb.Bound    { return g.Coordinates.Bound() }
func (Unsupported) Bound() orb.Bound  { return orb.Bound{} }

// Bound uses the same planar degree scalar as the drawing radius.
func (g Circle) Bound() orb.Bound {
	d := g.Radius / MetersPerDegree
	return orb.Bound{
		Min: orb.Point{g.Center[0] - d, g.Center[1] - d},
		Max: orb.Point{g.Center[0] + d, g.Center[1] + d},
	}
}

// Outer returns the outer ring or nil.
func (g Polygon) Outer() orb.Ring {
	if len(g.Coordinates) == 0 {
		return nil
	}
	return g.Coordinates[0]
}

func (Point) geometry()       {}
func (LineString) geometry()  {}
func (Polygon) geometry()     {}
func (Circle) geometry()      {}
func (Unsupported) geometry() {}
