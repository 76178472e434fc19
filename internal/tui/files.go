package tui

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	list "github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"fieldmap/internal/aggregate"
	"fieldmap/internal/geom"
)

// exportSegments is how many vertices an exported circle gets.
const exportSegments = 64

type fileItem struct {
	title, desc string
	path        string
}

func (f fileItem) Title() string       { return f.title }
func (f fileItem) Description() string { return f.desc }
func (f fileItem) FilterValue() string { return f.title }

func (m *Model) refreshDir() {
	entries, err := os.ReadDir(m.cwd)
	if err != nil {
		m.status = "read dir error: " + err.Error()
		return
	}
	var items []list.Item
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext == ".geojson" || ext == ".json" {
			items = append(items, fileItem{title: name, desc: ext, path: filepath.Join(m.cwd, name)})
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].(fileItem).Title() < items[j].(fileItem).Title() })
	m.items = items
	m.l.SetItems(items)
	if len(items) == 0 {
		m.status = "no overlay files in current directory"
	}
}

// loadPath replaces the overlay source with the features of a GeoJSON file
// and fits the view to it.
func (m *Model) loadPath(p string) {
	fc, err := geom.LoadCollection(p)
	if err != nil {
		log.Warn().Err(err).Str("path", p).Msg("Loading overlay failed")
		m.status = "load error: " + err.Error()
		return
	}
	m.overlayPath = p
	m.overlay = aggregate.Source{Name: "overlay:" + filepath.Base(p), Features: fc.Features}
	m.refresh()
	m.fit()
	m.status = fmt.Sprintf("loaded: %s  features=%d", filepath.Base(p), fc.Len())
}

// export writes the aggregated collection as standard GeoJSON next to the
// working directory. Circles become polygons.
func (m Model) export() tea.Cmd {
	fc := m.collection
	name := m.worksite
	if name == "" {
		name = "fieldmap"
	}
	path := filepath.Join(m.cwd, name+"-export.geojson")
	return func() tea.Msg {
		data, err := json.MarshalIndent(geom.StandardCollection(fc, exportSegments), "", "  ")
		if err != nil {
			return exportedMsg{err: errors.Wrap(err, "encode export")}
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return exportedMsg{err: errors.Wrap(err, "write export")}
		}
		log.Info().Str("path", path).Int("features", fc.Len()).Msg("Exported collection")
		return exportedMsg{path: path}
	}
}
