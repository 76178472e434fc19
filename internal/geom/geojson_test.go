package geom

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureJSON(t *testing.T) {
	f, err := CircleFeature(StringID("gate"), LatLng{37.8, -122.41}, 120, Properties{"name": "Gate", "crew": 4})
	require.NoError(t, err)

	b, err := json.Marshal(f)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"type": "Feature",
		"id": "gate",
		"geometry": {"type": "Circle", "coordinates": [-122.41, 37.8], "radius": 120},
		"properties": {"name": "Gate", "crew": 4}
	}`, string(b))
}

func TestFeatureCollectionDecode(t *testing.T) {
	doc := `{
		"type": "FeatureCollection",
		"features": [
			{"type": "Feature", "id": 3, "geometry": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1]]]}, "properties": {"strokeColor": "#fff"}},
			{"type": "Feature", "geometry": {"type": "MultiPoint", "coordinates": [[0,0]]}, "properties": null},
			{"type": "Feature", "geometry": null, "properties": {}}
		]
	}`
	var fc FeatureCollection
	require.NoError(t, json.Unmarshal([]byte(doc), &fc))
	require.Len(t, fc.Features, 3)

	assert.True(t, fc.Features[0].ID.IsNumeric())
	assert.Equal(t, "3", fc.Features[0].ID.Key())
	poly := fc.Features[0].Geometry.(Polygon)
	assert.Equal(t, orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 0}}, poly.Outer(), "decoding closes rings")

	u, ok := fc.Features[1].Geometry.(Unsupported)
	require.True(t, ok)
	assert.Equal(t, "MultiPoint", u.Type)

	assert.Nil(t, fc.Features[2].Geometry)
}

func TestDecodeGeometryErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"Circle Without Radius", `{"type":"Circle","coordinates":[0,0]}`},
		{"Circle Zero Radius", `{"type":"Circle","coordinates":[0,0],"radius":0}`},
		{"Degenerate Polygon", `{"type":"Polygon","coordinates":[[[0,0],[1,1],[0,0]]]}`},
		{"Short Line", `{"type":"LineString","coordinates":[[0,0]]}`},
		{"Missing Coordinates", `{"type":"Point"}`},
		{"Latitude Out Of Range", `{"type":"Point","coordinates":[0,100]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeGeometry([]byte(tt.doc))
			require.ErrorIs(t, err, ErrInvalidGeometry)
		})
	}
}

func TestFeatureJSONRoundTrip(t *testing.T) {
	f, err := PolygonFeature(IntID(42), NativeRing{{37.80, -122.41}, {37.79, -122.42}, {37.78, -122.40}}, Properties{"name": "yard"})
	require.NoError(t, err)
	fc := NewFeatureCollection(f)

	b, err := json.Marshal(fc)
	require.NoError(t, err)
	var back FeatureCollection
	require.NoError(t, json.Unmarshal(b, &back))
	require.Len(t, back.Features, 1)
	assert.Equal(t, f.ID, back.Features[0].ID)
	assert.Equal(t, f.Geometry, back.Features[0].Geometry)
	assert.Equal(t, "yard", back.Features[0].Name())
}

func TestLoadCollection(t *testing.T) {
	dir := t.TempDir()

	single := filepath.Join(dir, "site.geojson")
	require.NoError(t, os.WriteFile(single, []byte(`{"type":"Feature","geometry":{"type":"Point","coordinates":[1,2]},"properties":{}}`), 0o644))
	fc, err := LoadCollection(single)
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "site-0", fc.Features[0].ID.Key())

	bare := filepath.Join(dir, "line.json")
	require.NoError(t, os.WriteFile(bare, []byte(`{"type":"LineString","coordinates":[[1,2],[3,4]]}`), 0o644))
	fc, err = LoadCollection(bare)
	require.NoError(t, err)
	assert.Equal(t, TypeLineString, fc.Features[0].Type())

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{"type":"FeatureCollection","features":[]}`), 0o644))
	_, err = LoadCollection(empty)
	require.Error(t, err)
}

func TestStandardCollection(t *testing.T) {
	c, err := CircleFeature(StringID("c"), LatLng{37.8, -122.41}, 100, Properties{"name": "c"})
	require.NoError(t, err)
	p, err := PointFeature(IntID(2), LatLng{37.8, -122.41}, nil)
	require.NoError(t, err)
	fc := NewFeatureCollection(c, p, Feature{ID: StringID("u"), Geometry: Unsupported{Type: "GeometryCollection"}})

	out := StandardCollection(fc, 16)
	require.Len(t, out.Features, 2)

	poly, ok := out.Features[0].Geometry.(orb.Polygon)
	require.True(t, ok)
	require.Len(t, poly[0], 17)
	assert.Equal(t, poly[0][0], poly[0][16])
	for _, v := range poly[0] {
		assert.InDelta(t, 100, geo.Distance(orb.Point{-122.41, 37.8}, v), 0.5)
	}
	assert.Equal(t, 100.0, out.Features[0].Properties["radius"])
	assert.Equal(t, "c", out.Features[0].ID)
	assert.Equal(t, int64(2), out.Features[1].ID)

	_, err = out.MarshalJSON()
	require.NoError(t, err)
}
