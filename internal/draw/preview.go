package draw

import (
	"fmt"
	"time"

	"fieldmap/internal/geom"
	"fieldmap/internal/render"
)

const (
	// PropHighlight marks the vertex tapped last.
	PropHighlight = "highlight"

	vertexColor    = "#F9FAFB"
	highlightColor = "#FACC15"
	outlineColor   = "#22D3EE"
	highlightSize  = 1.8
)

// Preview returns what should be drawn for the current state. Preview
// features carry explicit style properties so they stand apart from
// persisted ones.
func (m *Machine) Preview(now time.Time) geom.FeatureCollection {
	fc := geom.NewFeatureCollection()
	switch s := m.state.(type) {
	case Drawing:
		switch s.Kind {
		case ShapePolygon:
			m.previewPolygon(&fc, s, now)
		case ShapeCircle:
			m.previewCircle(&fc, s, now)
		}
	case Editing:
		fc.Append(s.Draft.WithProperty(geom.PropStrokeColor, outlineColor))
	}
	return fc
}

func (m *Machine) highlighted(now time.Time) bool {
	until := m.HighlightUntil()
	return !until.IsZero() && now.Before(until)
}

func outline() geom.Properties {
	return geom.Properties{geom.PropStrokeColor: outlineColor, geom.PropColor: outlineColor}
}

func (m *Machine) previewPolygon(fc *geom.FeatureCollection, d Drawing, now time.Time) {
	switch {
	case len(d.Points) == 2:
		if f, err := geom.LineFeature(geom.StringID("preview-outline"), d.Points, outline()); err == nil {
			fc.Append(f)
		}
	case len(d.Points) >= 3:
		f, err := geom.PolygonFeature(geom.StringID("preview-outline"), d.Points, outline())
		if err != nil {
			// repeated vertices; the path is still worth showing
			f, err = geom.LineFeature(geom.StringID("preview-outline"), d.Points, outline())
		}
		if err == nil {
			fc.Append(f)
		}
	}
	for i, p := range d.Points {
		last := i == len(d.Points)-1 && m.highlighted(now)
		if f, err := vertex(fmt.Sprintf("preview-vertex-%d", i), p, last); err == nil {
			fc.Append(f)
		}
	}
}

func (m *Machine) previewCircle(fc *geom.FeatureCollection, d Drawing, now time.Time) {
	if d.Center == nil {
		return
	}
	if d.Radius > 0 {
		if f, err := geom.CircleFeature(geom.StringID("preview-circle"), *d.Center, d.Radius, outline()); err == nil {
			fc.Append(f)
		}
	}
	if f, err := vertex("preview-center", *d.Center, m.highlighted(now)); err == nil {
		fc.Append(f)
	}
}

func vertex(id string, at geom.LatLng, highlight bool) (geom.Feature, error) {
	props := geom.Properties{geom.PropColor: vertexColor}
	if highlight {
		props[geom.PropColor] = highlightColor
		props[PropHighlight] = true
		props[render.PropMarkerSize] = highlightSize
	}
	return geom.PointFeature(geom.StringID(id), at, props)
}
