package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"fieldmap/internal/draw"
)

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	// Layout sizes
	_, _, mapWidth, contentHeight := m.layout()
	contentWidth := max(10, m.width)

	// Update list size with accurate content height when sidebar visible
	if m.showSidebar {
		m.l.SetSize(sidebarWidth-2, contentHeight-2)
	}

	// Header
	header := titleStyle.Render(fmt.Sprintf(" fieldmap ─ %s ", m.worksite)) + " " + modeStyle.Render(m.modeLabel())
	if m.overlayPath != "" {
		header += dimStyle.Render("  overlay: " + filepath.Base(m.overlayPath))
	}
	header = lipgloss.NewStyle().Width(contentWidth).Padding(0).Render(header)

	// Sidebar
	var sidebar string
	if m.showSidebar {
		sidebar = lipgloss.NewStyle().Width(sidebarWidth).Render(m.l.View())
	}

	mapHeight := contentHeight
	var mapView string
	switch {
	case m.showAttrs:
		// Render attributes table centered in the map area
		colW := 0
		for _, c := range m.tbl.Columns() {
			colW += c.Width + 3
		}
		if colW == 0 {
			colW = min(60, contentWidth-6)
		}
		maxW := min(mapWidth, max(32, colW))
		m.tbl.SetWidth(maxW - 4)
		m.tbl.SetHeight(min(mapHeight-2, 20))
		attrsBox := boxStyle.Width(maxW).Render(m.tbl.View())
		mapView = lipgloss.Place(mapWidth, mapHeight, lipgloss.Center, lipgloss.Center, attrsBox)
	case m.formActive:
		form := lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Save shape"),
			"",
			m.inputs[0].View(),
			m.inputs[1].View(),
			"",
			dimStyle.Render("Enter save  Tab next field  Esc back"),
		)
		box := boxStyle.Width(min(mapWidth, 56)).Render(form)
		mapView = lipgloss.Place(mapWidth, mapHeight, lipgloss.Center, lipgloss.Center, box)
	default:
		// plain map canvas: no border, no background highlight
		mapView = lipgloss.NewStyle().Width(mapWidth).Height(mapHeight).Render(m.renderMap(mapWidth, mapHeight))
	}

	// Build inspect popup box (center-left overlay, not in map column)
	popup := ""
	if m.inspectPopup != "" && !m.showAttrs {
		maxPopupW := max(20, min(48, contentWidth/2))
		box := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).MaxWidth(maxPopupW).Render(m.inspectPopup)
		popup = lipgloss.Place(contentWidth, contentHeight, lipgloss.Left, lipgloss.Center, box)
	}

	// Body row
	var body string
	if m.showSidebar {
		body = lipgloss.JoinHorizontal(lipgloss.Top, sidebar, " ", mapView)
	} else {
		body = mapView
	}

	// Footer / help
	help := m.renderHelp()
	status := statusStyle.Render(" " + m.status + " ")
	// mouse coords at bottom-right
	coords := ""
	if m.hoverHasGeo {
		coords = dimStyle.Render(fmt.Sprintf("  lat=%.5f lng=%.5f  ", m.hoverLat, m.hoverLon))
	}
	left := lipgloss.JoinVertical(lipgloss.Left, status, help)
	spacerW := max(0, contentWidth-lipgloss.Width(left)-lipgloss.Width(coords))
	right := lipgloss.Place(spacerW+lipgloss.Width(coords), 1, lipgloss.Right, lipgloss.Center, coords)
	footer := lipgloss.NewStyle().Width(contentWidth).Render(lipgloss.JoinHorizontal(lipgloss.Bottom, left, right))

	// Compose UI with popup overlay between header and body
	ui := lipgloss.JoinVertical(lipgloss.Left, header, popup, body, footer)
	return appStyle.Width(contentWidth).Height(m.height).Render(ui)
}

func (m Model) modeLabel() string {
	switch s := m.machine.State().(type) {
	case draw.Drawing:
		if s.Kind == draw.ShapeCircle {
			if s.Center == nil {
				return "circle: pick center"
			}
			return fmt.Sprintf("circle r=%.0fm", s.Radius)
		}
		return fmt.Sprintf("polygon %d pts", len(s.Points))
	case draw.Editing:
		if s.Saving {
			return "saving"
		}
		return "shape ready"
	}
	return "view"
}

func (m Model) renderHelp() string {
	if !m.helpVisible {
		return ""
	}
	var keys []string
	switch m.machine.State().(type) {
	case draw.Drawing:
		keys = []string{"click add", "Enter finish", "u undo", "r reset", "Esc cancel"}
	case draw.Editing:
		keys = []string{"s save", "e redraw", "Esc discard"}
	default:
		keys = []string{
			"d polygon",
			"c circle",
			"↑↓←→ pan",
			"+/- zoom",
			"f fit",
			"Tab overlays",
			"a attrs",
			"i inspect",
			"1/2/3 layers",
			"x export",
			"^r reload",
			"h help",
			"q quit",
		}
	}
	return dimStyle.Render("  " + strings.Join(keys, "  "))
}
