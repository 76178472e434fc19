package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldmap/internal/aggregate"
	"fieldmap/internal/geom"
	"fieldmap/internal/style"
)

func write(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "crews.csv", "id,lat,lng\nc1,37.8,-122.41\n")
	path := write(t, dir, "config.yaml", `
worksite: pier-7
store:
  driver: file
  path: data/geofences.yaml
sources:
  - name: crews
    kind: position
    file: crews.csv
styles:
  Polygon:
    fill_color: "#000000"
drawing:
  highlight: 2s
  default_radius: 50
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "pier-7", cfg.Worksite)
	assert.Equal(t, filepath.Join(dir, "data", "geofences.yaml"), cfg.Store.Path)
	assert.Equal(t, 2*time.Second, cfg.Drawing.Highlight)
	assert.Equal(t, 50.0, cfg.Drawing.DefaultRadius)

	table := cfg.StyleTable()
	assert.Equal(t, "#000000", table[geom.TypePolygon].FillColor)
	assert.Equal(t, style.Defaults()[geom.TypePolygon].StrokeColor, table[geom.TypePolygon].StrokeColor)

	sources, err := cfg.LoadSources()
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, aggregate.KindPosition, sources[0].Kind)
	assert.Len(t, sources[0].Records, 1)
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := write(t, t.TempDir(), "config.yaml", "worksite: w\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "file", cfg.Store.Driver)
	assert.Equal(t, 100.0, cfg.Drawing.DefaultRadius)
}

func TestLoadInvalid(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	tests := []struct {
		name string
		body string
	}{
		{"Missing Worksite", "store: {driver: file, path: x.yaml}\n"},
		{"Unknown Driver", "worksite: w\nstore: {driver: sqlite}\n"},
		{"Postgres Without DSN", "worksite: w\nstore: {driver: postgres}\n"},
		{"Unknown Source Kind", "worksite: w\nsources: [{name: a, kind: zone, file: a.yaml}]\n"},
		{"Unknown Style Type", "worksite: w\nstyles: {Hexagon: {color: \"#fff\"}}\n"},
		{"Negative Radius", "worksite: w\ndrawing: {default_radius: -1}\n"},
		{"Not YAML", "worksite: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(write(t, t.TempDir(), "config.yaml", tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadRequiresWorksite(t *testing.T) {
	_, err := Load(write(t, t.TempDir(), "config.yaml", "drawing: {default_radius: 50}\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Worksite")
	assert.Equal(t, "default", Default().Worksite)
}

func TestLoadPostgresFromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/fieldmap")
	cfg, err := Load(write(t, t.TempDir(), "config.yaml", "worksite: w\nstore: {driver: postgres}\n"))
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/fieldmap", cfg.Store.DSN)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
