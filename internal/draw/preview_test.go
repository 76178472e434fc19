package draw

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldmap/internal/geom"
	"fieldmap/internal/render"
	"fieldmap/internal/style"
)

func types(fc geom.FeatureCollection) []geom.Type {
	out := []geom.Type{}
	for _, f := range fc.Features {
		out = append(out, f.Type())
	}
	return out
}

func TestPreviewPolygon(t *testing.T) {
	m, clock, _ := newMachine(t)
	require.NoError(t, m.StartDrawing(ShapePolygon))

	require.NoError(t, m.Tap(ll(0, 0)))
	assert.Equal(t, []geom.Type{geom.TypePoint}, types(m.Preview(clock.Now())))

	require.NoError(t, m.Tap(ll(0, 1)))
	assert.Equal(t, []geom.Type{geom.TypeLineString, geom.TypePoint, geom.TypePoint}, types(m.Preview(clock.Now())))

	require.NoError(t, m.Tap(ll(1, 1)))
	fc := m.Preview(clock.Now())
	assert.Equal(t, []geom.Type{geom.TypePolygon, geom.TypePoint, geom.TypePoint, geom.TypePoint}, types(fc))
	assert.Nil(t, fc.Features[1].Properties[PropHighlight])
	assert.Equal(t, true, fc.Features[3].Properties[PropHighlight])

	prims := render.Project(fc, style.Defaults())
	require.Len(t, prims, 4)
	assert.Equal(t, highlightSize, prims[3].(render.Marker).Size)
	assert.Equal(t, 1.0, prims[2].(render.Marker).Size)
}

func TestPreviewHighlightExpires(t *testing.T) {
	m, clock, _ := newMachine(t, WithHighlight(time.Second))
	require.NoError(t, m.StartDrawing(ShapePolygon))
	assert.True(t, m.HighlightUntil().IsZero())

	require.NoError(t, m.Tap(ll(0, 0)))
	assert.Equal(t, clock.Now().Add(time.Second), m.HighlightUntil())

	clock.Advance(999 * time.Millisecond)
	assert.Equal(t, true, m.Preview(clock.Now()).Features[0].Properties[PropHighlight])

	clock.Advance(time.Millisecond)
	f := m.Preview(clock.Now()).Features[0]
	assert.Nil(t, f.Properties[PropHighlight])
	assert.Equal(t, vertexColor, f.Properties[geom.PropColor])
}

func TestPreviewCircle(t *testing.T) {
	m, clock, _ := newMachine(t)
	require.NoError(t, m.StartDrawing(ShapeCircle))
	assert.Empty(t, m.Preview(clock.Now()).Features)

	require.NoError(t, m.Tap(ll(10, 20)))
	assert.Equal(t, []geom.Type{geom.TypePoint}, types(m.Preview(clock.Now())))

	require.NoError(t, m.Tap(ll(10.0009, 20)))
	fc := m.Preview(clock.Now())
	assert.Equal(t, []geom.Type{geom.TypeCircle, geom.TypePoint}, types(fc))
	assert.InDelta(t, 100, fc.Features[0].Geometry.(geom.Circle).Radius, 1)
}

func TestPreviewEditingShowsDraft(t *testing.T) {
	m, clock, _ := newMachine(t)
	require.NoError(t, m.StartDrawing(ShapePolygon))
	for _, p := range []geom.LatLng{ll(0, 0), ll(0, 1), ll(1, 1)} {
		require.NoError(t, m.Tap(p))
	}
	require.NoError(t, m.Complete())
	draft := m.State().(Editing).Draft

	fc := m.Preview(clock.Now())
	require.Len(t, fc.Features, 1)
	assert.Equal(t, draft.ID, fc.Features[0].ID)
	assert.Nil(t, draft.Properties[geom.PropStrokeColor], "preview styling stays off the draft")
}
