package command

import (
	"os"
	"path/filepath"
	"testing"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/shadegraph/pkg/field"
	"github.com/chazu/shadegraph/pkg/graph"
	"github.com/chazu/shadegraph/pkg/kernel"
	"github.com/chazu/shadegraph/pkg/producer"
	"github.com/chazu/shadegraph/pkg/shader/codegen"
)

func TestLoadConfig(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
dialect: wgsl
verify: true
fragmentEntry: main_fs
preview:
  shape: cylinder
  rotate: [90, 0, 0]
`), 0o644))

	cfg, err := LoadConfig(p)
	require.NoError(t, err)
	assert.Equal(t, "cylinder", cfg.Preview.Shape)
	assert.Equal(t, kernel.PreviewSolid{Shape: "cylinder", Size: 1, Rotate: [3]float64{90, 0, 0}}, cfg.Preview.Solid())
	// Unset values keep their defaults.
	assert.Equal(t, 1.0, cfg.Preview.Size)
	assert.Equal(t, "shader", cfg.GraphType)

	opts, err := cfg.Options()
	require.NoError(t, err)
	assert.Equal(t, codegen.WGSL, opts.Shader.Dialect)
	assert.True(t, opts.Verify)
	assert.Equal(t, "main_fs", opts.Shader.FragmentEntry)
	assert.Equal(t, "vs_main", opts.Shader.VertexEntry)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"dialect", func(c *Config) { c.Dialect = "hlsl" }, "unknown shader dialect"},
		{"jobs", func(c *Config) { c.Jobs = -1 }, "jobs"},
		{"shape", func(c *Config) { c.Preview.Shape = "torus" }, "unknown preview shape"},
		{"size", func(c *Config) { c.Preview.Size = 0 }, "size"},
		{"cells", func(c *Config) { c.Preview.Cells = 0 }, "cells"},
		{"verify glsl", func(c *Config) { c.Verify = true }, "verify needs dialect wgsl"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
	assert.NoError(t, DefaultConfig().Validate())
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		typ  field.FieldType
		in   string
		want any
	}{
		{field.Float, "0.5", 0.5},
		{field.Boolean, "true", true},
		{field.Texture, "albedo", "albedo"},
		{field.Vector2, "1, 2", v2.Vec{X: 1, Y: 2}},
		{field.Vector3, "1,2,3", v3.Vec{X: 1, Y: 2, Z: 3}},
		{field.Vector4, "1,2,3,4", field.Vec4{X: 1, Y: 2, Z: 3, W: 4}},
		{field.Color, "1,0,0", field.Vec4{X: 1, W: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.typ.Name(), func(t *testing.T) {
			got, err := parseValue(tt.typ, tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, tt.typ.Accepts(got))
		})
	}

	for _, bad := range []struct {
		typ field.FieldType
		in  string
	}{
		{field.Float, "x"},
		{field.Vector3, "1,2"},
		{field.Boolean, "maybe"},
		{field.Matrix4, "1"},
		{field.Texture, ""},
	} {
		_, err := parseValue(bad.typ, bad.in)
		assert.Error(t, err, "%s %q", bad.typ.Name(), bad.in)
	}
}

func TestParseParams(t *testing.T) {
	ext := []producer.External{{Name: "in", Type: field.Float}, {Name: "tint", Type: field.Color}}
	params, err := parseParams(ext, map[string]string{"in": "2", "tint": "0,1,0"})
	require.NoError(t, err)
	assert.Equal(t, map[graph.FieldID]any{
		"in":   2.0,
		"tint": field.Vec4{Y: 1, W: 1},
	}, params)

	_, err = parseParams(ext, map[string]string{"missing": "1"})
	assert.Error(t, err)
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "0.5", formatValue(0.5))
	assert.Equal(t, "(1, 2)", formatValue(v2.Vec{X: 1, Y: 2}))
	assert.Equal(t, "(1, 2, 3, 0.25)", formatValue(field.Vec4{X: 1, Y: 2, Z: 3, W: 0.25}))
	assert.Equal(t, "true", formatValue(true))
}
