package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldmap/internal/geom"
	"fieldmap/internal/style"
)

func TestProject(t *testing.T) {
	pt, err := geom.PointFeature(geom.StringID("pt"), geom.LatLng{Latitude: 37.8, Longitude: -122.41}, geom.Properties{PropMarkerSize: 2.5})
	require.NoError(t, err)
	ln, err := geom.LineFeature(geom.StringID("ln"), geom.NativeRing{{Latitude: 1, Longitude: 2}, {Latitude: 3, Longitude: 4}}, nil)
	require.NoError(t, err)
	ring := geom.NativeRing{{Latitude: 37.80, Longitude: -122.41}, {Latitude: 37.79, Longitude: -122.42}, {Latitude: 37.78, Longitude: -122.40}}
	pg, err := geom.PolygonFeature(geom.StringID("pg"), ring, geom.Properties{geom.PropFillColor: "#111111"})
	require.NoError(t, err)
	ci, err := geom.CircleFeature(geom.IntID(9), geom.LatLng{Latitude: 10, Longitude: 20}, 75, nil)
	require.NoError(t, err)

	fc := geom.NewFeatureCollection(
		pt,
		ln,
		geom.Feature{ID: geom.StringID("multi"), Geometry: geom.Unsupported{Type: "MultiPolygon"}},
		pg,
		geom.Feature{ID: geom.StringID("empty")},
		ci,
	)
	table := style.Defaults()
	prims := Project(fc, table)
	require.Len(t, prims, 4)

	m, ok := prims[0].(Marker)
	require.True(t, ok)
	assert.Equal(t, geom.LatLng{Latitude: 37.8, Longitude: -122.41}, m.Position)
	assert.Equal(t, 2.5, m.Size)
	assert.Equal(t, table[geom.TypePoint], m.Style)

	l := prims[1].(Polyline)
	assert.Equal(t, geom.NativeRing{{Latitude: 1, Longitude: 2}, {Latitude: 3, Longitude: 4}}, l.Path)

	p := prims[2].(PolygonShape)
	assert.Equal(t, "pg", p.Attributes().Key)
	require.Len(t, p.Outline, 4)
	assert.Equal(t, ring, p.Outline[:3], "projection swaps back to native order")
	assert.Equal(t, p.Outline[0], p.Outline[3])
	assert.Equal(t, "#111111", p.Style.FillColor)
	assert.Equal(t, table[geom.TypePolygon].StrokeColor, p.Style.StrokeColor)

	c := prims[3].(CircleShape)
	assert.Equal(t, "9", c.Key)
	assert.Equal(t, geom.LatLng{Latitude: 10, Longitude: 20}, c.Center)
	assert.Equal(t, 75.0, c.RadiusMeters)
}

func TestProjectIgnoresHoles(t *testing.T) {
	outer, err := geom.NewPolygon(
		geom.ToInterchange(geom.NativeRing{{Latitude: 0, Longitude: 0}, {Latitude: 0, Longitude: 10}, {Latitude: 10, Longitude: 10}, {Latitude: 10, Longitude: 0}}),
		geom.ToInterchange(geom.NativeRing{{Latitude: 1, Longitude: 1}, {Latitude: 1, Longitude: 2}, {Latitude: 2, Longitude: 2}}),
	)
	require.NoError(t, err)
	prims := Project(geom.NewFeatureCollection(geom.Feature{ID: geom.StringID("h"), Geometry: outer}), style.Defaults())
	require.Len(t, prims, 1)
	assert.Len(t, prims[0].(PolygonShape).Outline, 5)
}
