// Package style resolves the visual style of a feature: explicit
// properties first, then a per-geometry default table.
package style

import "fieldmap/internal/geom"

type Style struct {
	StrokeColor string  `yaml:"stroke_color" json:"strokeColor,omitempty"`
	StrokeWidth float64 `yaml:"stroke_width" json:"strokeWidth,omitempty"`
	FillColor   string  `yaml:"fill_color" json:"fillColor,omitempty"`
	Color       string  `yaml:"color" json:"color,omitempty"`
}

// Table maps a geometry type to its default style.
type Table map[geom.Type]Style

// Defaults is the built-in table. Each geometry type gets its own entry.
func Defaults() Table {
	return Table{
		geom.TypePolygon:    {StrokeColor: "#2563EB", StrokeWidth: 2, FillColor: "#1E3A8A", Color: "#2563EB"},
		geom.TypeLineString: {StrokeColor: "#10B981", StrokeWidth: 3, Color: "#10B981"},
		geom.TypePoint:      {StrokeColor: "#F9FAFB", StrokeWidth: 1, FillColor: "#DC2626", Color: "#DC2626"},
		geom.TypeCircle:     {StrokeColor: "#D97706", StrokeWidth: 2, FillColor: "#78350F", Color: "#D97706"},
	}
}

// Merge overlays the non-zero fields of o on top of t, per type, and
// returns a new table.
func (t Table) Merge(o Table) Table {
	out := make(Table, len(t)+len(o))
	for k, v := range t {
		out[k] = v
	}
	for k, v := range o {
		out[k] = out[k].overlay(v)
	}
	return out
}

func (s Style) overlay(o Style) Style {
	if o.StrokeColor != "" {
		s.StrokeColor = o.StrokeColor
	}
	if o.StrokeWidth > 0 {
		s.StrokeWidth = o.StrokeWidth
	}
	if o.FillColor != "" {
		s.FillColor = o.FillColor
	}
	if o.Color != "" {
		s.Color = o.Color
	}
	return s
}

// FromProperties reads whichever style keys p carries; absent or mistyped
// values stay zero.
func FromProperties(p geom.Properties) Style {
	s := Style{
		StrokeColor: p.String(geom.PropStrokeColor),
		FillColor:   p.String(geom.PropFillColor),
		Color:       p.String(geom.PropColor),
	}
	if w, ok := p.Float(geom.PropStrokeWidth); ok && w > 0 {
		s.StrokeWidth = w
	}
	return s
}

// Resolve returns the style of f: explicit property values win, absent ones
// fall back to the entry for f's geometry type.
func Resolve(f geom.Feature, t Table) Style {
	return t[f.Type()].overlay(FromProperties(f.Properties))
}

// Apply returns a copy of p with every field of s written under its
// property key.
func (s Style) Apply(p geom.Properties) geom.Properties {
	out := p.Clone()
	if out == nil {
		out = geom.Properties{}
	}
	if s.StrokeColor != "" {
		out[geom.PropStrokeColor] = s.StrokeColor
	}
	if s.StrokeWidth > 0 {
		out[geom.PropStrokeWidth] = s.StrokeWidth
	}
	if s.FillColor != "" {
		out[geom.PropFillColor] = s.FillColor
	}
	if s.Color != "" {
		out[geom.PropColor] = s.Color
	}
	return out
}
