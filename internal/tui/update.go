package tui

import (
	"errors"
	"fmt"
	"strings"

	list "github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"fieldmap/internal/draw"
	"fieldmap/internal/geom"
	"fieldmap/internal/render"
)

var errNoStore = errors.New("no geofence store configured")

const (
	sidebarWidth = 28
	headerHeight = 1
	footerHeight = 2
)

// layout returns the map canvas origin and size; View uses the same numbers.
func (m Model) layout() (originX, originY, w, h int) {
	side := 0
	if m.showSidebar {
		side = sidebarWidth
		originX = sidebarWidth + 1
	}
	h = max(4, m.height-headerHeight-footerHeight)
	w = max(10, max(10, m.width)-side-1)
	return originX, headerHeight, w, h
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.showSidebar {
			m.l.SetSize(sidebarWidth-2, m.height-headerHeight-footerHeight-2)
		}
	case storedMsg:
		if msg.err != nil {
			log.Error().Err(msg.err).Msg("Loading stored geofences failed")
			m.status = "load error: " + msg.err.Error()
			return m, nil
		}
		first := m.stored.Name == ""
		m.stored = msg.src
		m.refresh()
		if first {
			m.fit()
		}
		m.status = fmt.Sprintf("%s: %d features", m.worksite, m.collection.Len())
		if m.skipped > 0 {
			m.status += fmt.Sprintf(", %d skipped", m.skipped)
		}
		return m, nil
	case savedMsg:
		if err := m.machine.FinishSave(msg.id, msg.err); err != nil {
			m.status = draw.Message(err)
			if errors.Is(err, draw.ErrPersistence) {
				m.openForm()
			}
			return m, nil
		}
		m.status = "saved " + msg.id.Key()
		return m, m.loadStored()
	case exportedMsg:
		if msg.err != nil {
			m.status = "export error: " + msg.err.Error()
		} else {
			m.status = "exported " + msg.path
		}
		return m, nil
	case highlightMsg:
		// redraw only
		return m, nil
	case tea.KeyMsg:
		// If list is visible and filtering, send keys to list and ignore global commands
		if m.showSidebar && m.l.FilterState() == list.Filtering {
			var cmd tea.Cmd
			m.l, cmd = m.l.Update(msg)
			return m, cmd
		}
		if m.formActive {
			return m.updateForm(msg)
		}
		return m.updateKey(msg)
	case tea.MouseMsg:
		return m.updateMouse(msg)
	}
	// Pass messages to list when visible
	if m.showSidebar {
		var cmd tea.Cmd
		m.l, cmd = m.l.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "1":
		m.showPoints = !m.showPoints
		m.status = fmt.Sprintf("points: %v", m.showPoints)
	case "2":
		m.showLines = !m.showLines
		m.status = fmt.Sprintf("lines: %v", m.showLines)
	case "3":
		m.showPolys = !m.showPolys
		m.status = fmt.Sprintf("areas: %v", m.showPolys)
	case "l":
		// toggle all layers
		all := m.showPoints && m.showLines && m.showPolys
		m.showPoints = !all
		m.showLines = !all
		m.showPolys = !all
		m.status = fmt.Sprintf("layers: pts=%v ls=%v areas=%v", m.showPoints, m.showLines, m.showPolys)
	case "+", "=":
		if m.zoom < 256 {
			m.zoom *= 1.2
			m.status = fmt.Sprintf("zoom: %.2fx", m.zoom)
		}
	case "-", "_":
		if m.zoom > 0.05 {
			m.zoom /= 1.2
			m.status = fmt.Sprintf("zoom: %.2fx", m.zoom)
		}
	case "f":
		m.fit()
		m.status = "fit to data"
	case "tab":
		m.showSidebar = !m.showSidebar
		if m.showSidebar {
			m.refreshDir()
			m.l.SetSize(sidebarWidth-2, m.height-headerHeight-footerHeight-2)
		}
	case "h":
		m.helpVisible = !m.helpVisible
	case "a":
		m.showAttrs = !m.showAttrs
		if m.showAttrs {
			m.refreshAttrs()
		}
	case "i":
		m.inspect()
	case "x":
		return m, m.export()
	case "ctrl+r":
		m.agg.Reset()
		m.refresh()
		m.status = "reloading " + m.worksite
		return m, m.loadStored()
	case "d":
		m.setStatus(m.machine.StartDrawing(draw.ShapePolygon), "drawing polygon: click to add points, Enter to finish")
	case "c":
		m.setStatus(m.machine.StartDrawing(draw.ShapeCircle), "drawing circle: click the center, then the edge")
	case "u":
		m.setStatus(m.machine.Undo(), "undone")
	case "r":
		m.setStatus(m.machine.ResetPoints(), "points cleared")
	case "e":
		m.setStatus(m.machine.Redraw(), "editing shape: click to add points, Enter to finish")
	case "s":
		if _, ok := m.machine.State().(draw.Editing); !ok {
			m.status = "finish a shape first (Enter)"
			return m, nil
		}
		m.openForm()
		return m, nil
	case "esc":
		if m.inspectPopup != "" {
			m.inspectPopup = ""
			return m, nil
		}
		if _, idle := m.machine.State().(draw.Idle); !idle {
			m.machine.Cancel()
			m.status = "drawing cancelled"
		}
	case "enter":
		if m.showSidebar {
			if it, ok := m.l.SelectedItem().(fileItem); ok {
				m.loadPath(it.path)
			}
			return m, nil
		}
		if _, ok := m.machine.State().(draw.Drawing); ok {
			m.setStatus(m.machine.Complete(), "shape ready: s to save, e to keep editing, Esc to discard")
		}
	case "up":
		m.offsetY -= 1
	case "down":
		m.offsetY += 1
	case "left":
		m.offsetX -= 2
	case "right":
		m.offsetX += 2
	}
	if m.showSidebar {
		var cmd tea.Cmd
		m.l, cmd = m.l.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) setStatus(err error, ok string) {
	if err != nil {
		m.status = draw.Message(err)
		return
	}
	m.status = ok
}

func (m *Model) openForm() {
	m.formActive = true
	m.formFocus = 0
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
	m.inputs[0].Focus()
}

func (m *Model) closeForm() {
	m.formActive = false
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeForm()
		m.status = "save cancelled, shape kept"
		return m, nil
	case "tab", "shift+tab", "up", "down":
		m.inputs[m.formFocus].Blur()
		m.formFocus = (m.formFocus + 1) % len(m.inputs)
		m.inputs[m.formFocus].Focus()
		return m, nil
	case "enter":
		name := strings.TrimSpace(m.inputs[0].Value())
		if name == "" {
			m.status = "a name is required"
			return m, nil
		}
		f, err := m.machine.PrepareSave(name, strings.TrimSpace(m.inputs[1].Value()))
		if err != nil {
			m.status = draw.Message(err)
			return m, nil
		}
		m.closeForm()
		m.status = "saving " + name + "..."
		return m, m.persist(f)
	}
	var cmd tea.Cmd
	m.inputs[m.formFocus], cmd = m.inputs[m.formFocus].Update(msg)
	return m, cmd
}

func (m Model) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	originX, originY, w, h := m.layout()
	if m.showSidebar {
		m.l.SetSize(sidebarWidth-2, h-2)
	}
	cx, cy := msg.X, msg.Y
	if cx < originX || cx >= originX+w || cy < originY || cy >= originY+h {
		m.hovering = false
		return m, nil
	}
	m.hovering = true
	m.hoverCellX = cx - originX
	m.hoverCellY = cy - originY
	lon, lat, ok := m.cellToLonLat(m.hoverCellX, m.hoverCellY, w, h)
	m.hoverHasGeo = ok
	m.hoverLon, m.hoverLat = lon, lat

	if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft && ok && !m.formActive {
		if err := m.machine.Tap(geom.LatLng{Latitude: lat, Longitude: lon}); err != nil {
			m.status = draw.Message(err)
			return m, nil
		}
		if _, drawing := m.machine.State().(draw.Drawing); drawing {
			m.status = fmt.Sprintf("point at %.5f, %.5f", lat, lon)
			return m, m.highlightTick()
		}
		return m, nil
	}

	// find nearest vertex using micro coords
	hxMic, hyMic := m.hoverCellX*2, m.hoverCellY*4
	best := 1<<31 - 1
	bx, by := hxMic, hyMic
	for _, p := range render.Project(m.scene(), m.styles) {
		for _, v := range vertices(p) {
			mx, my, ok := m.screenXYMicro(v.Longitude, v.Latitude, w, h)
			if !ok {
				continue
			}
			dx, dy := mx-hxMic, my-hyMic
			if d := dx*dx + dy*dy; d < best {
				best = d
				bx, by = mx, my
			}
		}
	}
	m.hoverMicX, m.hoverMicY = bx, by
	return m, nil
}

// vertices are the hover targets of a primitive.
func vertices(p render.Primitive) []geom.LatLng {
	switch v := p.(type) {
	case render.Marker:
		return []geom.LatLng{v.Position}
	case render.Polyline:
		return v.Path
	case render.PolygonShape:
		return v.Outline
	case render.CircleShape:
		return []geom.LatLng{v.Center}
	}
	return nil
}
