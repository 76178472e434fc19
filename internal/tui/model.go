package tui

import (
	"context"
	"os"
	"time"

	list "github.com/charmbracelet/bubbles/list"
	table "github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/paulmach/orb"
	"github.com/rs/zerolog/log"

	"fieldmap/internal/aggregate"
	"fieldmap/internal/draw"
	"fieldmap/internal/geom"
	"fieldmap/internal/style"
)

// StoredSource lists what has already been saved for the worksite.
type StoredSource interface {
	Source(ctx context.Context) (aggregate.Source, error)
}

type Options struct {
	Worksite  string
	Sources   []aggregate.Source
	Stored    StoredSource
	Persister draw.Persister
	Styles    style.Table

	Highlight     time.Duration
	DefaultRadius float64
	// SaveTimeout bounds a single persist call; zero means 10s.
	SaveTimeout time.Duration
}

type Model struct {
	width  int
	height int

	showSidebar bool
	helpVisible bool

	zoom    float64
	offsetX int
	offsetY int

	status string

	// File explorer
	cwd         string
	l           list.Model
	items       []list.Item
	overlayPath string

	// Data
	worksite    string
	base        []aggregate.Source
	stored      aggregate.Source
	overlay     aggregate.Source
	storedSrc   StoredSource
	persister   draw.Persister
	styles      style.Table
	agg         *aggregate.Aggregator
	machine     *draw.Machine
	collection  geom.FeatureCollection
	skipped     int
	bbox        orb.Bound
	saveTimeout time.Duration
	now         func() time.Time

	// save form
	formActive bool
	formFocus  int
	inputs     []textinput.Model

	// layer visibility
	showPoints bool
	showLines  bool
	showPolys  bool

	// inspect popup
	inspectPopup string

	// hover state
	hovering    bool
	hoverCellX  int
	hoverCellY  int
	hoverMicX   int
	hoverMicY   int
	hoverHasGeo bool
	hoverLon    float64
	hoverLat    float64

	// attributes table
	showAttrs bool
	tbl       table.Model
}

var worldBound = orb.Bound{Min: orb.Point{-180, -85}, Max: orb.Point{180, 85}}

func New(opts Options) Model {
	if opts.Styles == nil {
		opts.Styles = style.Defaults()
	}
	if opts.SaveTimeout <= 0 {
		opts.SaveTimeout = 10 * time.Second
	}
	var machineOpts []draw.Option
	if opts.Highlight > 0 {
		machineOpts = append(machineOpts, draw.WithHighlight(opts.Highlight))
	}
	if opts.DefaultRadius > 0 {
		machineOpts = append(machineOpts, draw.WithDefaultRadius(opts.DefaultRadius))
	}
	m := Model{
		showSidebar: false,
		helpVisible: true,
		zoom:        1.0,
		status:      "fieldmap ready",
		worksite:    opts.Worksite,
		base:        opts.Sources,
		storedSrc:   opts.Stored,
		persister:   opts.Persister,
		styles:      opts.Styles,
		agg:         aggregate.New(aggregate.WithStyles(opts.Styles)),
		machine:     draw.New(machineOpts...),
		bbox:        worldBound,
		saveTimeout: opts.SaveTimeout,
		now:         time.Now,
		showPoints:  true,
		showLines:   true,
		showPolys:   true,
	}
	m.cwd, _ = os.Getwd()
	// list setup
	d := list.NewDefaultDelegate()
	d.ShowDescription = false
	m.l = list.New(nil, d, 0, 0)
	m.l.Title = "Overlays"
	m.l.SetShowHelp(false)
	m.l.SetShowStatusBar(false)
	m.l.SetFilteringEnabled(true)
	// save form
	name := textinput.New()
	name.Placeholder = "Name"
	name.CharLimit = 200
	desc := textinput.New()
	desc.Placeholder = "Description (optional)"
	desc.CharLimit = 1000
	m.inputs = []textinput.Model{name, desc}
	// attributes table setup (columns are inferred from the features)
	m.tbl = table.New(table.WithFocused(true))
	m.tbl.SetHeight(12)
	m.refreshDir()
	m.refresh()
	m.fit()
	return m
}

// NewWithPath preloads an overlay file at launch.
func NewWithPath(opts Options, path string) Model {
	m := New(opts)
	m.loadPath(path)
	return m
}

func (m Model) Init() tea.Cmd { return m.loadStored() }

type storedMsg struct {
	src aggregate.Source
	err error
}

type savedMsg struct {
	id  geom.FeatureID
	err error
}

type exportedMsg struct {
	path string
	err  error
}

type highlightMsg struct{}

func (m Model) loadStored() tea.Cmd {
	if m.storedSrc == nil {
		return nil
	}
	src, timeout := m.storedSrc, m.saveTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		s, err := src.Source(ctx)
		return storedMsg{src: s, err: err}
	}
}

func (m Model) persist(f geom.Feature) tea.Cmd {
	p, timeout := m.persister, m.saveTimeout
	return func() tea.Msg {
		if p == nil {
			return savedMsg{id: f.ID, err: errNoStore}
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return savedMsg{id: f.ID, err: p.Persist(ctx, f)}
	}
}

func (m Model) highlightTick() tea.Cmd {
	until := m.machine.HighlightUntil()
	if until.IsZero() {
		return nil
	}
	return tea.Tick(until.Sub(m.now()), func(time.Time) tea.Msg { return highlightMsg{} })
}

// refresh re-runs the aggregator over every source. Unchanged inputs give
// back the previous collection.
func (m *Model) refresh() {
	sources := make([]aggregate.Source, 0, len(m.base)+2)
	sources = append(sources, m.base...)
	if m.stored.Name != "" {
		sources = append(sources, m.stored)
	}
	if m.overlay.Name != "" {
		sources = append(sources, m.overlay)
	}
	res := m.agg.Aggregate(sources...)
	m.collection = res.Collection
	m.skipped = len(res.Skipped)
	if m.showAttrs {
		m.refreshAttrs()
	}
}

// fit resets the viewport to the data. A single point gets a small box
// around it.
func (m *Model) fit() {
	b, ok := m.collection.Bound()
	if !ok {
		b = worldBound
	}
	if b.Max[0]-b.Min[0] < 1e-4 {
		b.Min[0], b.Max[0] = b.Min[0]-0.001, b.Max[0]+0.001
	}
	if b.Max[1]-b.Min[1] < 1e-4 {
		b.Min[1], b.Max[1] = b.Min[1]-0.001, b.Max[1]+0.001
	}
	// leave a margin so edges are not drawn on the border
	padX, padY := (b.Max[0]-b.Min[0])*0.05, (b.Max[1]-b.Min[1])*0.05
	b.Min[0], b.Max[0] = b.Min[0]-padX, b.Max[0]+padX
	b.Min[1], b.Max[1] = b.Min[1]-padY, b.Max[1]+padY
	m.bbox = b
	m.zoom = 1.0
	m.offsetX, m.offsetY = 0, 0
	log.Debug().Float64("minLon", b.Min[0]).Float64("minLat", b.Min[1]).Float64("maxLon", b.Max[0]).Float64("maxLat", b.Max[1]).Msg("Viewport fitted")
}

// scene is everything drawn: aggregated features, then the drawing preview.
func (m Model) scene() geom.FeatureCollection {
	preview := m.machine.Preview(m.now())
	fc := geom.NewFeatureCollection(m.collection.Features...)
	fc.Append(preview.Features...)
	return fc
}
