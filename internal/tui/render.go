package tui

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"fieldmap/internal/geom"
	"fieldmap/internal/render"
)

// circle outlines are sampled at this many vertices
const circleSegments = 48

// cellToLonLat converts a map cell coordinate back to lon/lat using bbox, zoom, and pan.
func (m Model) cellToLonLat(cx, cy, w, h int) (float64, float64, bool) {
	if !(m.bbox.Max[0] > m.bbox.Min[0] && m.bbox.Max[1] > m.bbox.Min[1]) {
		return 0, 0, false
	}
	if w <= 1 || h <= 1 {
		return 0, 0, false
	}
	zx := float64(cx-m.offsetX) / float64(w-1)
	zy := 1.0 - float64(cy-m.offsetY)/float64(h-1)
	nx := 0.5 + (zx-0.5)/m.zoom
	ny := 0.5 + (zy-0.5)/m.zoom
	lon := m.bbox.Min[0] + nx*(m.bbox.Max[0]-m.bbox.Min[0])
	lat := m.bbox.Min[1] + ny*(m.bbox.Max[1]-m.bbox.Min[1])
	return lon, lat, true
}

// screenXYMicro maps lon/lat into a 2x4 microgrid per cell for braille rendering.
func (m Model) screenXYMicro(lon, lat float64, w, h int) (int, int, bool) {
	if !(m.bbox.Max[0] > m.bbox.Min[0] && m.bbox.Max[1] > m.bbox.Min[1]) {
		return 0, 0, false
	}
	nx := (lon - m.bbox.Min[0]) / (m.bbox.Max[0] - m.bbox.Min[0])
	ny := (lat - m.bbox.Min[1]) / (m.bbox.Max[1] - m.bbox.Min[1])
	zx := 0.5 + (nx-0.5)*m.zoom
	zy := 0.5 + (ny-0.5)*m.zoom
	wMic := w * 2
	hMic := h * 4
	sx := int(zx*float64(wMic-1)) + m.offsetX*2
	sy := int((1.0-zy)*float64(hMic-1)) + m.offsetY*4
	return sx, sy, true
}

// screenXY maps lon/lat to current screen integer coordinates considering zoom and pan.
func (m Model) screenXY(lon, lat float64, w, h int) (int, int, bool) {
	if !(m.bbox.Max[0] > m.bbox.Min[0] && m.bbox.Max[1] > m.bbox.Min[1]) {
		return 0, 0, false
	}
	nx := (lon - m.bbox.Min[0]) / (m.bbox.Max[0] - m.bbox.Min[0])
	ny := (lat - m.bbox.Min[1]) / (m.bbox.Max[1] - m.bbox.Min[1])
	// Apply zoom around center (0.5, 0.5)
	zx := 0.5 + (nx-0.5)*m.zoom
	zy := 0.5 + (ny-0.5)*m.zoom
	sx := int(zx*float64(w-1)) + m.offsetX
	sy := int((1.0-zy)*float64(h-1)) + m.offsetY
	return sx, sy, true
}

// circleRing samples a circle outline with the same flat degree scale used
// when the radius was drawn.
func circleRing(c geom.LatLng, meters float64) geom.NativeRing {
	r := meters / geom.MetersPerDegree
	ring := make(geom.NativeRing, 0, circleSegments)
	for i := 0; i < circleSegments; i++ {
		a := 2 * math.Pi * float64(i) / circleSegments
		ring = append(ring, geom.LatLng{Latitude: c.Latitude + r*math.Sin(a), Longitude: c.Longitude + r*math.Cos(a)})
	}
	return ring
}

func strokeOf(a render.Attrs) string {
	if a.Style.StrokeColor != "" {
		return a.Style.StrokeColor
	}
	return a.Style.Color
}

func (m Model) project(ring geom.NativeRing, w, h int) [][2]int {
	out := make([][2]int, 0, len(ring))
	for _, p := range ring {
		if mx, my, ok := m.screenXYMicro(p.Longitude, p.Latitude, w, h); ok {
			out = append(out, [2]int{mx, my})
		}
	}
	return out
}

// fillArea stipples the inside of a closed ring using the even-odd rule per
// micro scanline.
func fillArea(br *brailleBuf, ring [][2]int, color string) {
	if len(ring) < 3 {
		return
	}
	hMic := br.h * 4
	for yMic := 0; yMic < hMic; yMic++ {
		var xs []int
		for i := 0; i < len(ring); i++ {
			a := ring[i]
			b := ring[(i+1)%len(ring)]
			if a[1] == b[1] { // horizontal edge: skip
				continue
			}
			y0, y1 := a[1], b[1]
			x0, x1 := a[0], b[0]
			if (yMic >= y0 && yMic < y1) || (yMic >= y1 && yMic < y0) {
				t := float64(yMic-y0) / float64(y1-y0)
				xs = append(xs, int(float64(x0)+t*float64(x1-x0)))
			}
		}
		if len(xs) < 2 {
			continue
		}
		sort.Ints(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			for xMic := max(0, xs[i]); xMic <= xs[i+1]; xMic++ {
				if (xMic+yMic)%2 == 0 {
					br.setPixel(xMic, yMic, color)
				}
			}
		}
	}
}

func strokeRing(br *brailleBuf, ring [][2]int, closed bool, color string) {
	for i := 0; i+1 < len(ring); i++ {
		br.drawLineMicro(ring[i][0], ring[i][1], ring[i+1][0], ring[i+1][1], color)
	}
	if closed && len(ring) > 2 {
		a, b := ring[len(ring)-1], ring[0]
		br.drawLineMicro(a[0], a[1], b[0], b[1], color)
	}
}

func (m Model) visible(p render.Primitive) bool {
	switch p.(type) {
	case render.Marker:
		return m.showPoints
	case render.Polyline:
		return m.showLines
	case render.PolygonShape, render.CircleShape:
		return m.showPolys
	}
	return false
}

// drawPrimitive rasterises one primitive: fills first, then strokes.
func (m Model) drawPrimitive(br *brailleBuf, p render.Primitive, w, h int) {
	a := p.Attributes()
	switch v := p.(type) {
	case render.PolygonShape:
		ring := m.project(v.Outline, w, h)
		if a.Style.FillColor != "" {
			fillArea(br, ring, a.Style.FillColor)
		}
		strokeRing(br, ring, true, strokeOf(a))
	case render.CircleShape:
		ring := m.project(circleRing(v.Center, v.RadiusMeters), w, h)
		if a.Style.FillColor != "" {
			fillArea(br, ring, a.Style.FillColor)
		}
		strokeRing(br, ring, true, strokeOf(a))
	case render.Polyline:
		strokeRing(br, m.project(v.Path, w, h), false, strokeOf(a))
	case render.Marker:
		mx, my, ok := m.screenXYMicro(v.Position.Longitude, v.Position.Latitude, w, h)
		if !ok {
			return
		}
		color := a.Style.Color
		if color == "" {
			color = a.Style.FillColor
		}
		r := int(math.Round(v.Size))
		for dy := 0; dy <= r; dy++ {
			for dx := 0; dx <= r; dx++ {
				br.setPixel(mx+dx, my+dy, color)
			}
		}
	}
}

func (m Model) renderMap(w, h int) string {
	br := newBrailleBuf(w, h)

	prims := render.Project(m.collection, m.styles)
	// areas below lines below markers, each in collection order
	sort.SliceStable(prims, func(i, j int) bool { return layerOf(prims[i]) < layerOf(prims[j]) })
	for _, p := range prims {
		if m.visible(p) {
			m.drawPrimitive(br, p, w, h)
		}
	}
	// the drawing preview is never hidden by layer toggles
	for _, p := range render.Project(m.machine.Preview(m.now()), m.styles) {
		m.drawPrimitive(br, p, w, h)
	}

	lines := br.toLines()

	// Hover highlight: draw an orange circle at the hovered vertex cell
	if m.hovering {
		cx := m.hoverMicX / 2
		cy := m.hoverMicY / 4
		if cy >= 0 && cy < len(lines) && cx >= 0 && cx < w {
			lines[cy] = overlayCell(lines[cy], cx, lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500")).Render("◯"))
		}
	}
	return strings.Join(lines, "\n")
}

func layerOf(p render.Primitive) int {
	switch p.(type) {
	case render.PolygonShape, render.CircleShape:
		return 0
	case render.Polyline:
		return 1
	}
	return 2
}

// overlayCell replaces the cell at column x of a rendered (possibly styled)
// line.
func overlayCell(line string, x int, cell string) string {
	if x >= ansi.StringWidth(line) {
		return line
	}
	return ansi.Truncate(line, x, "") + cell + ansi.TruncateLeft(line, x+1, "")
}

// nearestFeature is the feature whose nearest vertex is closest to the
// given cell.
func (m Model) nearestFeature(cx, cy, w, h int) (geom.Feature, bool) {
	best := math.MaxInt
	var hit geom.Feature
	found := false
	prims := render.Project(m.collection, m.styles)
	for i, p := range prims {
		if !m.visible(p) {
			continue
		}
		for _, v := range vertices(p) {
			sx, sy, ok := m.screenXY(v.Longitude, v.Latitude, w, h)
			if !ok {
				continue
			}
			dx, dy := sx-cx, sy-cy
			if d := dx*dx + dy*dy; d < best {
				best = d
				hit, found = m.featureByKey(prims[i].Attributes().Key)
			}
		}
	}
	return hit, found
}

func (m Model) featureByKey(key string) (geom.Feature, bool) {
	for _, f := range m.collection.Features {
		if f.ID.Key() == key {
			return f, true
		}
	}
	return geom.Feature{}, false
}

// inspect opens a popup for the feature nearest the hovered cell, or the
// viewport center when the mouse is elsewhere.
func (m *Model) inspect() {
	_, _, w, h := m.layout()
	cx, cy := w/2, h/2
	if m.hovering {
		cx, cy = m.hoverCellX, m.hoverCellY
	}
	f, ok := m.nearestFeature(cx, cy, w, h)
	if !ok {
		m.inspectPopup = "no feature nearby"
		m.status = m.inspectPopup
		return
	}
	b := f.Geometry.Bound()
	meta := []string{
		fmt.Sprintf("id: %s", f.ID.Key()),
		fmt.Sprintf("type: %s", f.Type()),
		fmt.Sprintf("bbox: [%.5f, %.5f, %.5f, %.5f]", b.Min[0], b.Min[1], b.Max[0], b.Max[1]),
	}
	if c, isCircle := f.Geometry.(geom.Circle); isCircle {
		meta = append(meta, fmt.Sprintf("radius: %.1f m", c.Radius))
	}
	keys := make([]string, 0, len(f.Properties))
	for k := range f.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		meta = append(meta, fmt.Sprintf("%s: %s", k, cellText(f.Properties[k])))
	}
	m.inspectPopup = strings.Join(meta, "\n")
	m.status = "inspect " + f.ID.Key()
}
