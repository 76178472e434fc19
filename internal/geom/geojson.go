package geom

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
)

type geometryHead struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
	Radius      *float64        `json:"radius,omitempty"`
}

type featureJSON struct {
	Type       string          `json:"type"`
	ID         *FeatureID      `json:"id,omitempty"`
	Geometry   json.RawMessage `json:"geometry"`
	Properties Properties      `json:"properties"`
}

type collectionJSON struct {
	Type     string            `json:"type"`
	Features []json.RawMessage `json:"features"`
}

type coordsJSON[T any] struct {
	Type        Type     `json:"type"`
	Coordinates T        `json:"coordinates"`
	Radius      *float64 `json:"radius,omitempty"`
}

func marshalGeometry(g Geometry) (json.RawMessage, error) {
	switch g := g.(type) {
	case nil:
		return json.RawMessage("null"), nil
	case Point:
		return json.Marshal(coordsJSON[orb.Point]{Type: TypePoint, Coordinates: g.Coordinates})
	case LineString:
		return json.Marshal(coordsJSON[orb.LineString]{Type: TypeLineString, Coordinates: g.Coordinates})
	case Polygon:
		return json.Marshal(coordsJSON[orb.Polygon]{Type: TypePolygon, Coordinates: g.Coordinates})
	case Circle:
		r := g.Radius
		return json.Marshal(coordsJSON[orb.Point]{Type: TypeCircle, Coordinates: g.Center, Radius: &r})
	case Unsupported:
		if len(g.Raw) > 0 {
			return json.RawMessage(g.Raw), nil
		}
		return json.Marshal(map[string]string{"type": g.Type})
	}
	return nil, fmt.Errorf("geojson: unknown geometry %T", g)
}

// DecodeGeometry builds a geometry from its JSON form. Decoding is a
// construction path: polygons are closed and every variant is validated.
func DecodeGeometry(raw []byte) (Geometry, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var head geometryHead
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, err
	}
	switch Type(head.Type) {
	case TypePoint:
		var p orb.Point
		if err := unmarshalCoords(head, &p); err != nil {
			return nil, err
		}
		return NewPoint(p)
	case TypeLineString:
		var ls orb.LineString
		if err := unmarshalCoords(head, &ls); err != nil {
			return nil, err
		}
		return NewLineString(ls)
	case TypePolygon:
		var rings []orb.Ring
		if err := unmarshalCoords(head, &rings); err != nil {
			return nil, err
		}
		return NewPolygon(rings...)
	case TypeCircle:
		var c orb.Point
		if err := unmarshalCoords(head, &c); err != nil {
			return nil, err
		}
		if head.Radius == nil {
			return nil, invalid(TypeCircle, "missing radius")
		}
		return NewCircle(c, *head.Radius)
	case "":
		return nil, errors.New("geojson: geometry missing type")
	}
	return Unsupported{Type: head.Type, Raw: append([]byte(nil), raw...)}, nil
}

func unmarshalCoords(head geometryHead, dst any) error {
	if len(head.Coordinates) == 0 {
		return invalid(Type(head.Type), "missing coordinates")
	}
	if err := json.Unmarshal(head.Coordinates, dst); err != nil {
		return invalid(Type(head.Type), "malformed coordinates: %v", err)
	}
	return nil
}

func (f Feature) MarshalJSON() ([]byte, error) {
	g, err := marshalGeometry(f.Geometry)
	if err != nil {
		return nil, err
	}
	out := featureJSON{Type: "Feature", Geometry: g, Properties: f.Properties}
	if out.Properties == nil {
		out.Properties = Properties{}
	}
	if !f.ID.IsZero() {
		id := f.ID
		out.ID = &id
	}
	return json.Marshal(out)
}

func (f *Feature) UnmarshalJSON(b []byte) error {
	var raw featureJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw.Type != "Feature" {
		return fmt.Errorf("geojson: expected Feature, got %q", raw.Type)
	}
	g, err := DecodeGeometry(raw.Geometry)
	if err != nil {
		return err
	}
	*f = Feature{Geometry: g, Properties: raw.Properties}
	if raw.ID != nil {
		f.ID = *raw.ID
	}
	return nil
}

func (fc FeatureCollection) MarshalJSON() ([]byte, error) {
	features := fc.Features
	if features == nil {
		features = []Feature{}
	}
	return json.Marshal(struct {
		Type     string    `json:"type"`
		Features []Feature `json:"features"`
	}{Type: "FeatureCollection", Features: features})
}

func (fc *FeatureCollection) UnmarshalJSON(b []byte) error {
	var raw collectionJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw.Type != "FeatureCollection" {
		return fmt.Errorf("geojson: expected FeatureCollection, got %q", raw.Type)
	}
	out := make([]Feature, 0, len(raw.Features))
	for i, rf := range raw.Features {
		var f Feature
		if err := json.Unmarshal(rf, &f); err != nil {
			return fmt.Errorf("geojson: feature %d: %w", i, err)
		}
		out = append(out, f)
	}
	fc.Features = out
	return nil
}

// LoadCollection reads a FeatureCollection, a single Feature or a bare
// geometry from path. Features without an id get "<file>-<index>".
func LoadCollection(path string) (FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FeatureCollection{}, err
	}
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return FeatureCollection{}, err
	}
	var fc FeatureCollection
	switch head.Type {
	case "FeatureCollection":
		if err := json.Unmarshal(data, &fc); err != nil {
			return FeatureCollection{}, err
		}
	case "Feature":
		var f Feature
		if err := json.Unmarshal(data, &f); err != nil {
			return FeatureCollection{}, err
		}
		fc.Append(f)
	case "":
		return FeatureCollection{}, errors.New("invalid geojson: missing type")
	default:
		g, err := DecodeGeometry(data)
		if err != nil {
			return FeatureCollection{}, err
		}
		fc.Append(Feature{Geometry: g})
	}
	if len(fc.Features) == 0 {
		return FeatureCollection{}, errors.New("no geometries found")
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	for i := range fc.Features {
		if fc.Features[i].ID.IsZero() {
			fc.Features[i].ID = StringID(fmt.Sprintf("%s-%d", base, i))
		}
	}
	return fc, nil
}

// Approximate returns a closed polygon with the given number of segments
// tracing the circle on the sphere.
func (g Circle) Approximate(segments int) orb.Polygon {
	if segments < 3 {
		segments = 64
	}
	ring := make(orb.Ring, 0, segments+1)
	for i := 0; i < segments; i++ {
		bearing := 360 * float64(i) / float64(segments)
		ring = append(ring, geo.PointAtBearingAndDistance(g.Center, bearing, g.Radius))
	}
	return orb.Polygon{ClosePolygon(ring)}
}

// StandardCollection exports fc as strict GeoJSON. Circles become polygons
// with a "radius" property; unsupported geometries are left out.
func StandardCollection(fc FeatureCollection, segments int) *geojson.FeatureCollection {
	out := geojson.NewFeatureCollection()
	for _, f := range fc.Features {
		var g orb.Geometry
		props := f.Properties.Clone()
		switch shape := f.Geometry.(type) {
		case Point:
			g = shape.Coordinates
		case LineString:
			g = shape.Coordinates
		case Polygon:
			g = shape.Coordinates
		case Circle:
			g = shape.Approximate(segments)
			props = props.With("radius", roundCM(shape.Radius))
		default:
			continue
		}
		gf := geojson.NewFeature(g)
		if !f.ID.IsZero() {
			gf.ID = f.ID.Value()
		}
		if props != nil {
			gf.Properties = geojson.Properties(props)
		}
		out.Append(gf)
	}
	return out
}

func roundCM(v float64) float64 { return math.Round(v*100) / 100 }
