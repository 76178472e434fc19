// Package draw turns map taps into a finished polygon or circle feature.
package draw

import (
	"errors"
	"fmt"

	"fieldmap/internal/geom"
)

type ShapeKind string

const (
	ShapePolygon ShapeKind = "polygon"
	ShapeCircle  ShapeKind = "circle"
)

func ParseShapeKind(s string) (ShapeKind, error) {
	switch k := ShapeKind(s); k {
	case ShapePolygon, ShapeCircle:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownShape, s)
}

var (
	ErrIncompleteShape   = errors.New("incomplete shape")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrSaveInFlight      = errors.New("save already in progress")
	ErrPersistence       = errors.New("persistence failed")
	ErrUnknownShape      = errors.New("unknown shape kind")
)

// State is exactly one of Idle, Drawing or Editing.
type State interface {
	Name() string
	state()
}

type Idle struct{}

// Drawing collects taps. For polygons Points holds the vertices in tap
// order; for circles Center is set by the first tap and Radius (metres) by
// every later one.
type Drawing struct {
	Kind   ShapeKind
	Points geom.NativeRing
	Center *geom.LatLng
	Radius float64
	// DraftID is kept across a redraw so the finished feature keeps its id.
	DraftID geom.FeatureID
}

// Editing holds the materialised draft together with the inputs it was
// built from, so a redraw can hand them back.
type Editing struct {
	Kind   ShapeKind
	Draft  geom.Feature
	Points geom.NativeRing
	Center *geom.LatLng
	Radius float64
	Saving bool
}

func (Idle) Name() string    { return "idle" }
func (Drawing) Name() string { return "drawing" }
func (Editing) Name() string { return "editing" }

func (Idle) state()    {}
func (Drawing) state() {}
func (Editing) state() {}

func (d Drawing) clone() Drawing {
	d.Points = append(geom.NativeRing(nil), d.Points...)
	if d.Center != nil {
		c := *d.Center
		d.Center = &c
	}
	return d
}

func (e Editing) clone() Editing {
	e.Points = append(geom.NativeRing(nil), e.Points...)
	if e.Center != nil {
		c := *e.Center
		e.Center = &c
	}
	e.Draft = e.Draft.WithProperties(e.Draft.Properties)
	return e
}
