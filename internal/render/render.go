// Package render projects features onto the declarative primitives a map
// surface draws. Positions are handed out in native order.
package render

import (
	"github.com/rs/zerolog/log"

	"fieldmap/internal/geom"
	"fieldmap/internal/style"
)

// Attrs is shared by every primitive.
type Attrs struct {
	Key   string
	Style style.Style
}

func (a Attrs) Attributes() Attrs { return a }

type Primitive interface {
	Attributes() Attrs
}

type Marker struct {
	Attrs
	Position geom.LatLng
	// Size is a relative marker size; 1 is the standard vertex.
	Size float64
}

type Polyline struct {
	Attrs
	Path geom.NativeRing
}

// PolygonShape is the outer ring only, closed.
type PolygonShape struct {
	Attrs
	Outline geom.NativeRing
}

type CircleShape struct {
	Attrs
	Center       geom.LatLng
	RadiusMeters float64
}

// PropMarkerSize is read for markers; anything non-positive means 1.
const PropMarkerSize = "markerSize"

// Project maps each feature to exactly one primitive, in collection order.
// Features whose geometry the projection does not recognise are dropped with
// a warning. Styles already resolved into the properties are used as is; the
// table fills whatever is missing.
func Project(fc geom.FeatureCollection, table style.Table) []Primitive {
	out := make([]Primitive, 0, len(fc.Features))
	for _, f := range fc.Features {
		attrs := Attrs{Key: f.ID.Key(), Style: style.Resolve(f, table)}
		switch g := f.Geometry.(type) {
		case geom.Point:
			size, ok := f.Properties.Float(PropMarkerSize)
			if !ok || size <= 0 {
				size = 1
			}
			out = append(out, Marker{Attrs: attrs, Position: geom.FromPoint(g.Coordinates), Size: size})
		case geom.LineString:
			out = append(out, Polyline{Attrs: attrs, Path: geom.ToNative(g.Coordinates)})
		case geom.Polygon:
			outer := g.Outer()
			if len(outer) == 0 {
				log.Warn().Str("id", attrs.Key).Msg("Dropping polygon without rings")
				continue
			}
			out = append(out, PolygonShape{Attrs: attrs, Outline: geom.ToNative(outer)})
		case geom.Circle:
			out = append(out, CircleShape{Attrs: attrs, Center: geom.FromPoint(g.Center), RadiusMeters: g.Radius})
		default:
			log.Warn().
				Str("id", attrs.Key).
				Str("type", string(f.Type())).
				Msg("Dropping feature with unrenderable geometry")
		}
	}
	return out
}
