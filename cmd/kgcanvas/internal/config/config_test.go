package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recera/kgcanvas/pkg/geom"
	"github.com/recera/kgcanvas/pkg/layout"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(body), 0644))
	return dir
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := writeConfig(t, `
canvas:
  wheelStep: 0.25
serve:
  port: 9000
  idleTimeout: 30s
log:
  development: true
seed: graph.yaml
`)
	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 0.25, cfg.Canvas.WheelStep)
	assert.Equal(t, geom.GraphLimits.Min, cfg.Canvas.MinScale)
	assert.Equal(t, geom.GraphLimits.Max, cfg.Canvas.MaxScale)
	assert.Equal(t, 100.0, cfg.Canvas.ChildDistanceMin)
	assert.Equal(t, 5.0, cfg.Canvas.HitTolerance)

	assert.Equal(t, 9000, cfg.Serve.Port)
	assert.Equal(t, "localhost", cfg.Serve.Host)
	assert.Equal(t, 30*time.Second, cfg.Serve.IdleTimeout)
	assert.Equal(t, "/metrics", cfg.Serve.MetricsPath)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Log.Development)
	assert.Equal(t, "graph.yaml", cfg.Seed)
	assert.Equal(t, DefaultConfig().MindMap, cfg.MindMap)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"inverted limits", "canvas:\n  minScale: 2\n  maxScale: 1\n", "Canvas.MaxScale"},
		{"bad port", "serve:\n  port: 70000\n", "Serve.Port"},
		{"bad level", "log:\n  level: loud\n", "Log.Level"},
		{"bad mode", "layout:\n  mode: spiral\n", "Layout.Mode"},
		{"short child ring", "canvas:\n  childDistanceMin: 150\n  childDistanceMax: 100\n", "Canvas.ChildDistanceMax"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "canvas: [\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), FileName)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Serve.Port = 7000
	cfg.Layout.Mode = "hierarchy"
	cfg.Seed = "course.yaml"
	require.NoError(t, Save(cfg, dir))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestEngineSettings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Canvas.MaxScale = 4
	cfg.Layout.Iterations = 50
	cfg.Layout.Mode = "Cluster"

	ic := cfg.Interact()
	assert.Equal(t, geom.Limits{Min: 0.5, Max: 4}, ic.Limits)
	assert.Equal(t, 0.1, ic.WheelZoomStep)
	assert.Equal(t, 50, ic.Layout.Iterations)
	assert.Equal(t, layout.Cluster, cfg.LayoutMode())

	mm := cfg.MindMapOptions()
	assert.Equal(t, geom.MindMapLimits, mm.Limits)
	assert.Equal(t, 0.2, mm.ButtonStep)
}

func TestLoadSceneDefaultsToDemo(t *testing.T) {
	sc, err := DefaultConfig().LoadScene()
	require.NoError(t, err)
	assert.Equal(t, 9, sc.Len())

	cfg := DefaultConfig()
	cfg.Seed = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = cfg.LoadScene()
	assert.Error(t, err)
}
