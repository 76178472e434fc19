// Package aggregate merges independent geometry sources into one styled
// feature collection.
package aggregate

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"fieldmap/internal/geom"
)

// Record is one loosely typed upstream record. Coordinates inside it are in
// native (lat, lng) order. Records do not travel past this package.
type Record map[string]any

// Kind tells the aggregator how to read a source's records.
type Kind string

const (
	KindBoundary Kind = "boundary"
	KindGeofence Kind = "geofence"
	KindPosition Kind = "position"
	KindRoute    Kind = "route"
)

// Source is one independent contributor. Records are transformed according
// to Kind; Features are taken as already built.
type Source struct {
	Name     string
	Kind     Kind
	Records  []Record
	Features []geom.Feature
}

var (
	ErrSourceRecord       = errors.New("source record")
	errMissingCoordinates = errors.New("missing coordinates")
)

// SourceRecordError reports a record that was skipped.
type SourceRecordError struct {
	Source string
	Index  int
	ID     geom.FeatureID
	Err    error
}

func (e *SourceRecordError) Error() string {
	return fmt.Sprintf("source %s record %d (%s): %v", e.Source, e.Index, e.ID, e.Err)
}

func (e *SourceRecordError) Unwrap() error        { return e.Err }
func (e *SourceRecordError) Is(target error) bool { return target == ErrSourceRecord }

// keys that carry geometry and are not copied into properties
var geometryKeys = map[string]bool{
	"id": true, "type": true, "shape": true,
	"coordinates": true, "boundary": true, "points": true, "path": true,
	"center": true, "location": true, "radius": true,
	"latitude": true, "longitude": true, "lat": true, "lng": true, "lon": true,
}

func recordID(source string, idx int, rec Record) geom.FeatureID {
	switch v := rec["id"].(type) {
	case string:
		if v != "" {
			return geom.StringID(v)
		}
	case int:
		return geom.IntID(int64(v))
	case int64:
		return geom.IntID(v)
	case int32:
		return geom.IntID(int64(v))
	case uint:
		return geom.IntID(int64(v))
	case uint32:
		return geom.IntID(int64(v))
	case uint64:
		return geom.IntID(int64(v))
	case float64:
		if v == float64(int64(v)) {
			return geom.IntID(int64(v))
		}
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return geom.IntID(n)
		}
		if v != "" {
			return geom.StringID(v.String())
		}
	}
	return geom.StringID(fmt.Sprintf("%s-%d", source, idx))
}

func recordProperties(rec Record) geom.Properties {
	props := geom.Properties{}
	for k, v := range rec {
		if !geometryKeys[k] {
			props[k] = v
		}
	}
	return props
}

func first(rec Record, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := rec[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// parseLatLng accepts {latitude, longitude} (or lat/lng/lon) objects and
// [lat, lng] arrays.
func parseLatLng(v any) (geom.LatLng, error) {
	switch c := v.(type) {
	case geom.LatLng:
		return c, nil
	case *geom.LatLng:
		if c != nil {
			return *c, nil
		}
	case map[string]any:
		return latLngFromMap(c)
	case Record:
		return latLngFromMap(c)
	case []any:
		if len(c) >= 2 {
			lat, ok1 := geom.ToFloat(c[0])
			lng, ok2 := geom.ToFloat(c[1])
			if ok1 && ok2 {
				return geom.LatLng{Latitude: lat, Longitude: lng}, nil
			}
		}
		return geom.LatLng{}, fmt.Errorf("malformed coordinate pair %v", c)
	case []float64:
		if len(c) >= 2 {
			return geom.LatLng{Latitude: c[0], Longitude: c[1]}, nil
		}
	}
	return geom.LatLng{}, fmt.Errorf("malformed coordinate %v", v)
}

func latLngFromMap(m map[string]any) (geom.LatLng, error) {
	latV, ok1 := first(m, "latitude", "lat")
	lngV, ok2 := first(m, "longitude", "lng", "lon")
	if !ok1 || !ok2 {
		return geom.LatLng{}, errMissingCoordinates
	}
	lat, ok1 := geom.ToFloat(latV)
	lng, ok2 := geom.ToFloat(lngV)
	if !ok1 || !ok2 {
		return geom.LatLng{}, fmt.Errorf("non-numeric coordinate %v,%v", latV, lngV)
	}
	return geom.LatLng{Latitude: lat, Longitude: lng}, nil
}

func parseRing(v any) (geom.NativeRing, error) {
	switch r := v.(type) {
	case geom.NativeRing:
		return r, nil
	case []geom.LatLng:
		return r, nil
	case []any:
		out := make(geom.NativeRing, 0, len(r))
		for i, el := range r {
			c, err := parseLatLng(el)
			if err != nil {
				return nil, fmt.Errorf("vertex %d: %w", i, err)
			}
			out = append(out, c)
		}
		return out, nil
	case []map[string]any:
		out := make(geom.NativeRing, 0, len(r))
		for i, el := range r {
			c, err := latLngFromMap(el)
			if err != nil {
				return nil, fmt.Errorf("vertex %d: %w", i, err)
			}
			out = append(out, c)
		}
		return out, nil
	}
	return nil, fmt.Errorf("malformed ring %T", v)
}

func recordRing(rec Record, keys ...string) (geom.NativeRing, error) {
	v, ok := first(rec, keys...)
	if !ok {
		return nil, errMissingCoordinates
	}
	return parseRing(v)
}

// recordPoint reads a nested location or top-level latitude/longitude.
func recordPoint(rec Record, keys ...string) (geom.LatLng, error) {
	if v, ok := first(rec, keys...); ok {
		return parseLatLng(v)
	}
	return latLngFromMap(rec)
}

func recordFeature(src Source, idx int, rec Record) (geom.Feature, error) {
	id := recordID(src.Name, idx, rec)
	f, err := buildFeature(src.Kind, id, rec)
	if err != nil {
		return geom.Feature{ID: id}, err
	}
	return f, nil
}

func buildFeature(kind Kind, id geom.FeatureID, rec Record) (geom.Feature, error) {
	props := recordProperties(rec)
	switch kind {
	case KindBoundary:
		ring, err := recordRing(rec, "coordinates", "boundary", "points")
		if err != nil {
			return geom.Feature{}, err
		}
		return geom.PolygonFeature(id, ring, props)
	case KindGeofence:
		shape, _ := first(rec, "type", "shape")
		if s, _ := shape.(string); strings.EqualFold(s, "circle") {
			center, err := recordPoint(rec, "center", "coordinates")
			if err != nil {
				return geom.Feature{}, err
			}
			radius, ok := geom.ToFloat(rec["radius"])
			if !ok {
				return geom.Feature{}, errors.New("missing radius")
			}
			return geom.CircleFeature(id, center, radius, props)
		}
		ring, err := recordRing(rec, "coordinates", "points", "boundary")
		if err != nil {
			return geom.Feature{}, err
		}
		return geom.PolygonFeature(id, ring, props)
	case KindPosition:
		at, err := recordPoint(rec, "location", "coordinates")
		if err != nil {
			return geom.Feature{}, err
		}
		return geom.PointFeature(id, at, props)
	case KindRoute:
		path, err := recordRing(rec, "coordinates", "path", "points")
		if err != nil {
			return geom.Feature{}, err
		}
		return geom.LineFeature(id, path, props)
	}
	return geom.Feature{}, fmt.Errorf("unknown source kind %q", kind)
}
