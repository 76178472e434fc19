package draw

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"fieldmap/internal/geom"
)

const (
	DefaultHighlight = 1500 * time.Millisecond
	// DefaultRadius is used for a circle completed with only its center.
	DefaultRadius = 100.0
)

// Persister receives a finished feature. A nil error means it was stored.
type Persister interface {
	Persist(ctx context.Context, f geom.Feature) error
}

type PersisterFunc func(ctx context.Context, f geom.Feature) error

func (fn PersisterFunc) Persist(ctx context.Context, f geom.Feature) error { return fn(ctx, f) }

// Machine is the drawing state machine. It is not safe for concurrent use;
// the owning event loop serialises calls.
type Machine struct {
	state State

	persister     Persister
	now           func() time.Time
	newID         func() geom.FeatureID
	highlight     time.Duration
	defaultRadius float64
	log           zerolog.Logger

	lastTap time.Time
}

type Option func(*Machine)

func WithPersister(p Persister) Option { return func(m *Machine) { m.persister = p } }

func WithClock(now func() time.Time) Option { return func(m *Machine) { m.now = now } }

func WithHighlight(d time.Duration) Option {
	return func(m *Machine) {
		if d >= 0 {
			m.highlight = d
		}
	}
}

func WithDefaultRadius(r float64) Option {
	return func(m *Machine) {
		if r > 0 {
			m.defaultRadius = r
		}
	}
}

func WithIDGenerator(fn func() geom.FeatureID) Option { return func(m *Machine) { m.newID = fn } }

func WithLogger(l zerolog.Logger) Option { return func(m *Machine) { m.log = l } }

func New(opts ...Option) *Machine {
	m := &Machine{
		state:         Idle{},
		now:           time.Now,
		newID:         func() geom.FeatureID { return geom.StringID(uuid.NewString()) },
		highlight:     DefaultHighlight,
		defaultRadius: DefaultRadius,
		log:           log.Logger,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// State returns a copy of the current state.
func (m *Machine) State() State {
	switch s := m.state.(type) {
	case Drawing:
		return s.clone()
	case Editing:
		return s.clone()
	}
	return m.state
}

func (m *Machine) set(s State) {
	if prev := m.state.Name(); prev != s.Name() {
		m.log.Debug().Str("from", prev).Str("to", s.Name()).Msg("Drawing state changed")
	}
	m.state = s
}

func (m *Machine) invalid(op string) error {
	return fmt.Errorf("%w: %s while %s", ErrInvalidTransition, op, m.state.Name())
}

// StartDrawing begins a new shape. Calling it while drawing restarts with
// an empty point list.
func (m *Machine) StartDrawing(kind ShapeKind) error {
	if _, err := ParseShapeKind(string(kind)); err != nil {
		return err
	}
	if _, ok := m.state.(Editing); ok {
		return m.invalid("start drawing")
	}
	m.lastTap = time.Time{}
	m.set(Drawing{Kind: kind})
	return nil
}

// Tap feeds one map tap. Outside of Drawing it does nothing so the map can
// be panned freely.
func (m *Machine) Tap(at geom.LatLng) error {
	d, ok := m.state.(Drawing)
	if !ok {
		return nil
	}
	if !at.Valid() {
		return &geom.GeometryError{Type: geom.TypePoint, Reason: fmt.Sprintf("tap outside coordinate range (%g, %g)", at.Latitude, at.Longitude)}
	}
	d = d.clone()
	switch d.Kind {
	case ShapePolygon:
		d.Points = append(d.Points, at)
		m.lastTap = m.now()
	case ShapeCircle:
		if d.Center == nil {
			d.Center = &at
			m.lastTap = m.now()
		} else {
			r := PlanarDistance(*d.Center, at)
			if r <= 0 {
				return &geom.GeometryError{Type: geom.TypeCircle, Reason: "radius tap on the center"}
			}
			d.Radius = r
		}
	}
	m.state = d
	return nil
}

// Complete materialises the draft. State is unchanged on failure.
func (m *Machine) Complete() error {
	d, ok := m.state.(Drawing)
	if !ok {
		return m.invalid("complete")
	}
	id := d.DraftID
	if id.IsZero() {
		id = m.newID()
	}

	var (
		draft geom.Feature
		err   error
	)
	switch d.Kind {
	case ShapePolygon:
		if len(d.Points) < 3 {
			return fmt.Errorf("%w: polygon needs 3 points, have %d", ErrIncompleteShape, len(d.Points))
		}
		draft, err = geom.PolygonFeature(id, d.Points, geom.Properties{})
	case ShapeCircle:
		if d.Center == nil {
			return fmt.Errorf("%w: circle needs a center", ErrIncompleteShape)
		}
		radius := d.Radius
		if radius <= 0 {
			radius = m.defaultRadius
		}
		draft, err = geom.CircleFeature(id, *d.Center, radius, geom.Properties{})
		d.Radius = radius
	}
	if err != nil {
		return err
	}

	d = d.clone()
	m.lastTap = time.Time{}
	m.set(Editing{Kind: d.Kind, Draft: draft, Points: d.Points, Center: d.Center, Radius: d.Radius})
	return nil
}

// Cancel drops whatever is in progress. A save still in flight will find
// its result rejected by FinishSave.
func (m *Machine) Cancel() {
	m.lastTap = time.Time{}
	m.set(Idle{})
}

func (m *Machine) ResetPoints() error {
	d, ok := m.state.(Drawing)
	if !ok {
		return m.invalid("reset points")
	}
	m.lastTap = time.Time{}
	m.state = Drawing{Kind: d.Kind, DraftID: d.DraftID}
	return nil
}

// Undo removes the last polygon vertex, or for a circle the radius and then
// the center.
func (m *Machine) Undo() error {
	d, ok := m.state.(Drawing)
	if !ok {
		return m.invalid("undo")
	}
	d = d.clone()
	switch {
	case d.Kind == ShapePolygon && len(d.Points) > 0:
		d.Points = d.Points[:len(d.Points)-1]
	case d.Kind == ShapeCircle && d.Radius > 0:
		d.Radius = 0
	case d.Kind == ShapeCircle:
		d.Center = nil
	}
	m.lastTap = time.Time{}
	m.state = d
	return nil
}

// Redraw goes back to Drawing with the draft's inputs.
func (m *Machine) Redraw() error {
	e, ok := m.state.(Editing)
	if !ok || e.Saving {
		return m.invalid("redraw")
	}
	e = e.clone()
	m.set(Drawing{Kind: e.Kind, Points: e.Points, Center: e.Center, Radius: e.Radius, DraftID: e.Draft.ID})
	return nil
}

// PrepareSave attaches name and description to the draft and marks the save
// as in flight. The returned feature is what the persister should store.
func (m *Machine) PrepareSave(name, description string) (geom.Feature, error) {
	e, ok := m.state.(Editing)
	if !ok {
		return geom.Feature{}, m.invalid("save")
	}
	if e.Saving {
		return geom.Feature{}, ErrSaveInFlight
	}
	f := e.Draft.WithProperties(e.Draft.Properties)
	if f.Properties == nil {
		f.Properties = geom.Properties{}
	}
	if name != "" {
		f.Properties[geom.PropName] = name
	}
	if description != "" {
		f.Properties[geom.PropDescription] = description
	}
	e.Saving = true
	m.state = e
	return f, nil
}

// FinishSave records the persister's answer for the draft with the given
// id. On failure the draft stays in Editing for a retry.
func (m *Machine) FinishSave(id geom.FeatureID, err error) error {
	e, ok := m.state.(Editing)
	if !ok || !e.Saving || e.Draft.ID != id {
		return m.invalid("finish save")
	}
	if err != nil {
		e.Saving = false
		m.state = e
		m.log.Warn().Err(err).Str("id", id.Key()).Msg("Saving draft failed")
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	m.log.Info().Str("id", id.Key()).Str("kind", string(e.Kind)).Msg("Draft saved")
	m.set(Idle{})
	return nil
}

// Save runs PrepareSave, the configured persister and FinishSave in one go.
func (m *Machine) Save(ctx context.Context, name, description string) error {
	f, err := m.PrepareSave(name, description)
	if err != nil {
		return err
	}
	var perr error
	if m.persister == nil {
		perr = errNoPersister
	} else {
		perr = m.persister.Persist(ctx, f)
	}
	return m.FinishSave(f.ID, perr)
}

// HighlightUntil is when the most recent vertex stops being highlighted.
// It is zero when nothing is highlighted.
func (m *Machine) HighlightUntil() time.Time {
	if m.lastTap.IsZero() || m.highlight == 0 {
		return time.Time{}
	}
	return m.lastTap.Add(m.highlight)
}
