package geom

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToInterchangeRoundTrip(t *testing.T) {
	rings := []NativeRing{
		{{37.80, -122.41}, {37.79, -122.42}, {37.78, -122.40}},
		{{-33.8688, 151.2093}, {-33.87, 151.21}, {-33.86, 151.22}, {-33.8688, 151.2093}},
		{{0, 0}, {0, 1}, {1, 1}, {1, 0}},
	}
	for _, r := range rings {
		out := ToInterchange(r)
		require.Len(t, out, len(r))
		for i := range r {
			assert.Equal(t, r[i].Longitude, out[i][0])
			assert.Equal(t, r[i].Latitude, out[i][1])
		}
		assert.Equal(t, r, ToNative(out))
	}
}

func TestClosePolygon(t *testing.T) {
	tests := []struct {
		name     string
		input    orb.Ring
		expected orb.Ring
	}{
		{"Empty", nil, nil},
		{"Open Triangle", orb.Ring{{0, 0}, {1, 0}, {1, 1}}, orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 0}}},
		{"Already Closed", orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 0}}, orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 0}}},
		{"Nearly Closed", orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 1e-12}}, orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 1e-12}, {0, 0}}},
		{"Single Vertex", orb.Ring{{5, 5}}, orb.Ring{{5, 5}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			once := ClosePolygon(tt.input)
			assert.Equal(t, tt.expected, once)
			assert.Equal(t, once, ClosePolygon(once), "closing twice must be a no-op")
		})
	}
}

func TestClosePolygonDoesNotMutateInput(t *testing.T) {
	backing := make(orb.Ring, 3, 8)
	copy(backing, orb.Ring{{0, 0}, {1, 0}, {1, 1}})
	closed := ClosePolygon(backing)
	closed[3] = orb.Point{9, 9}
	assert.Equal(t, orb.Point{0, 0}, backing[:4][3], "spare capacity of the input must not be written")
}

func TestPolygonFeature(t *testing.T) {
	t.Run("TwoPointsRejected", func(t *testing.T) {
		_, err := PolygonFeature(StringID("a"), NativeRing{{1, 1}, {2, 2}}, nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidGeometry))
	})

	t.Run("RepeatedVerticesRejected", func(t *testing.T) {
		_, err := PolygonFeature(StringID("a"), NativeRing{{1, 1}, {2, 2}, {1, 1}, {2, 2}}, nil)
		require.ErrorIs(t, err, ErrInvalidGeometry)
	})

	t.Run("TriangleClosed", func(t *testing.T) {
		f, err := PolygonFeature(StringID("tri"), NativeRing{{37.80, -122.41}, {37.79, -122.42}, {37.78, -122.40}}, Properties{"name": "yard"})
		require.NoError(t, err)
		poly, ok := f.Geometry.(Polygon)
		require.True(t, ok)
		assert.Equal(t, orb.Ring{{-122.41, 37.80}, {-122.42, 37.79}, {-122.40, 37.78}, {-122.41, 37.80}}, poly.Outer())
		assert.Equal(t, "yard", f.Name())
	})

	t.Run("OutOfRange", func(t *testing.T) {
		_, err := PolygonFeature(StringID("a"), NativeRing{{91, 0}, {0, 1}, {1, 1}}, nil)
		require.ErrorIs(t, err, ErrInvalidGeometry)
	})

	t.Run("PropertiesCopied", func(t *testing.T) {
		props := Properties{"name": "before"}
		f, err := PolygonFeature(StringID("a"), NativeRing{{0, 0}, {0, 1}, {1, 1}}, props)
		require.NoError(t, err)
		props["name"] = "after"
		assert.Equal(t, "before", f.Name())
	})
}

func TestCircleFeature(t *testing.T) {
	for _, r := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := CircleFeature(IntID(1), LatLng{37.8, -122.41}, r, nil)
		require.ErrorIs(t, err, ErrInvalidGeometry, "radius %v", r)
	}

	f, err := CircleFeature(IntID(7), LatLng{37.8, -122.41}, 250, nil)
	require.NoError(t, err)
	c := f.Geometry.(Circle)
	assert.Equal(t, orb.Point{-122.41, 37.8}, c.Center)
	assert.Equal(t, 250.0, c.Radius)
	assert.Equal(t, "7", f.ID.Key())
}

func TestLineAndPointFeature(t *testing.T) {
	_, err := LineFeature(StringID("l"), NativeRing{{1, 1}}, nil)
	require.ErrorIs(t, err, ErrInvalidGeometry)

	l, err := LineFeature(StringID("l"), NativeRing{{1, 2}, {3, 4}}, nil)
	require.NoError(t, err)
	assert.Equal(t, orb.LineString{{2, 1}, {4, 3}}, l.Geometry.(LineString).Coordinates)

	p, err := PointFeature(StringID("p"), LatLng{Latitude: 10, Longitude: 20}, nil)
	require.NoError(t, err)
	assert.Equal(t, orb.Point{20, 10}, p.Geometry.(Point).Coordinates)

	_, err = PointFeature(StringID("p"), LatLng{Latitude: math.NaN()}, nil)
	require.ErrorIs(t, err, ErrInvalidGeometry)
}

func TestFeatureWithPropertyIsCopy(t *testing.T) {
	f := Feature{ID: StringID("a"), Properties: Properties{"name": "x"}}
	g := f.WithProperty("name", "y")
	assert.Equal(t, "x", f.Name())
	assert.Equal(t, "y", g.Name())
}

func TestCollectionBound(t *testing.T) {
	var fc FeatureCollection
	_, ok := fc.Bound()
	assert.False(t, ok)

	p, _ := PointFeature(StringID("p"), LatLng{1, 2}, nil)
	c, _ := CircleFeature(StringID("c"), LatLng{0, 0}, MetersPerDegree, nil)
	fc.Append(p, c, Feature{ID: StringID("u"), Geometry: Unsupported{Type: "MultiPoint"}})
	b, ok := fc.Bound()
	require.True(t, ok)
	assert.Equal(t, orb.Point{-1, -1}, b.Min)
	assert.Equal(t, orb.Point{2, 1}, b.Max)
}
