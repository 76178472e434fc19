// Package store persists finished geofences for a worksite and reads them
// back as an aggregator source.
package store

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"fieldmap/internal/aggregate"
	"fieldmap/internal/draw"
	"fieldmap/internal/geom"
)

// SourceName is the aggregator source stored geofences are listed under.
const SourceName = "geofences"

// Geofence is the stored form of a drawn shape. Coordinates are native
// (lat, lng) order.
type Geofence struct {
	ID          string         `yaml:"id" json:"id" validate:"required"`
	WorksiteID  string         `yaml:"worksite_id" json:"worksite_id" validate:"required"`
	Shape       draw.ShapeKind `yaml:"type" json:"type" validate:"oneof=polygon circle"`
	Name        string         `yaml:"name,omitempty" json:"name,omitempty" validate:"max=200"`
	Description string         `yaml:"description,omitempty" json:"description,omitempty"`
	Points      []geom.LatLng  `yaml:"points,omitempty" json:"points,omitempty"`
	Center      *geom.LatLng   `yaml:"center,omitempty" json:"center,omitempty"`
	Radius      float64        `yaml:"radius,omitempty" json:"radius,omitempty" validate:"gte=0"`
	StrokeColor string         `yaml:"stroke_color,omitempty" json:"stroke_color,omitempty" validate:"omitempty,hexcolor"`
	FillColor   string         `yaml:"fill_color,omitempty" json:"fill_color,omitempty" validate:"omitempty,hexcolor"`
	CreatedAt   time.Time      `yaml:"created_at" json:"created_at"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(geofenceShape, Geofence{})
	return v
}

func geofenceShape(sl validator.StructLevel) {
	g := sl.Current().Interface().(Geofence)
	switch g.Shape {
	case draw.ShapePolygon:
		if len(g.Points) < 3 {
			sl.ReportError(g.Points, "Points", "points", "min", "3")
		}
	case draw.ShapeCircle:
		if g.Center == nil {
			sl.ReportError(g.Center, "Center", "center", "required", "")
		} else if !g.Center.Valid() {
			sl.ReportError(g.Center, "Center", "center", "latlng", "")
		}
		if g.Radius <= 0 {
			sl.ReportError(g.Radius, "Radius", "radius", "gt", "0")
		}
	}
	for _, p := range g.Points {
		if !p.Valid() {
			sl.ReportError(g.Points, "Points", "points", "latlng", "")
			break
		}
	}
}

func (g Geofence) Validate() error {
	return errors.Wrapf(validate.Struct(g), "geofence %s", g.ID)
}

// GeofenceFromFeature converts a finished polygon or circle feature. The
// closing vertex of the polygon is not stored.
func GeofenceFromFeature(worksiteID string, f geom.Feature) (Geofence, error) {
	g := Geofence{
		ID:          f.ID.Key(),
		WorksiteID:  worksiteID,
		Name:        f.Name(),
		Description: f.Properties.String(geom.PropDescription),
		StrokeColor: f.Properties.String(geom.PropStrokeColor),
		FillColor:   f.Properties.String(geom.PropFillColor),
		CreatedAt:   time.Now().UTC(),
	}
	switch shape := f.Geometry.(type) {
	case geom.Polygon:
		outer := shape.Outer()
		if len(outer) > 1 && outer[0] == outer[len(outer)-1] {
			outer = outer[:len(outer)-1]
		}
		g.Shape = draw.ShapePolygon
		g.Points = geom.ToNative(outer)
	case geom.Circle:
		center := geom.FromPoint(shape.Center)
		g.Shape = draw.ShapeCircle
		g.Center = &center
		g.Radius = shape.Radius
	default:
		return Geofence{}, errors.Errorf("cannot store %q feature as a geofence", f.Type())
	}
	if err := g.Validate(); err != nil {
		return Geofence{}, err
	}
	return g, nil
}

// Record is the loose form read by the aggregator's geofence source.
func (g Geofence) Record() aggregate.Record {
	rec := aggregate.Record{
		"id":       g.ID,
		"type":     string(g.Shape),
		"worksite": g.WorksiteID,
	}
	if g.Name != "" {
		rec[geom.PropName] = g.Name
	}
	if g.Description != "" {
		rec[geom.PropDescription] = g.Description
	}
	if g.StrokeColor != "" {
		rec[geom.PropStrokeColor] = g.StrokeColor
	}
	if g.FillColor != "" {
		rec[geom.PropFillColor] = g.FillColor
	}
	switch g.Shape {
	case draw.ShapeCircle:
		if g.Center != nil {
			rec["center"] = *g.Center
		}
		rec["radius"] = g.Radius
	default:
		rec["coordinates"] = geom.NativeRing(append([]geom.LatLng(nil), g.Points...))
	}
	return rec
}

// Backend stores geofences. SaveGeofence replaces an existing geofence with
// the same id, so a retried save does not duplicate it.
type Backend interface {
	SaveGeofence(ctx context.Context, g Geofence) error
	ListGeofences(ctx context.Context, worksiteID string) ([]Geofence, error)
}

// Worksite binds a backend to one worksite. It is the persister handed to
// the drawing machine.
type Worksite struct {
	Backend Backend
	ID      string
}

func (w Worksite) Persist(ctx context.Context, f geom.Feature) error {
	g, err := GeofenceFromFeature(w.ID, f)
	if err != nil {
		return err
	}
	return w.Backend.SaveGeofence(ctx, g)
}

// Source lists the worksite's geofences as an aggregator source.
func (w Worksite) Source(ctx context.Context) (aggregate.Source, error) {
	list, err := w.Backend.ListGeofences(ctx, w.ID)
	if err != nil {
		return aggregate.Source{}, err
	}
	src := aggregate.Source{Name: SourceName, Kind: aggregate.KindGeofence, Records: make([]aggregate.Record, 0, len(list))}
	for _, g := range list {
		src.Records = append(src.Records, g.Record())
	}
	return src, nil
}

var _ draw.Persister = Worksite{}
