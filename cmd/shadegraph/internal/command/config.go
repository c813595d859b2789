package command

import (
	"fmt"
	"os"
	"runtime"

	"sigs.k8s.io/yaml"

	"github.com/chazu/shadegraph"
	"github.com/chazu/shadegraph/pkg/kernel"
	"github.com/chazu/shadegraph/pkg/kernel/sdfx"
	"github.com/chazu/shadegraph/pkg/shader"
	"github.com/chazu/shadegraph/pkg/shader/codegen"
)

// Config is the CLI configuration file.
//
//	graphType: shader
//	dialect: wgsl
//	verify: true
//	preview:
//	  shape: sphere
//	  size: 2
type Config struct {
	// GraphType is used for sources that do not name their own.
	GraphType string `json:"graphType,omitempty"`

	Dialect       string `json:"dialect,omitempty"`
	GLSLVersion   string `json:"glslVersion,omitempty"`
	Precision     string `json:"precision,omitempty"`
	VertexEntry   string `json:"vertexEntry,omitempty"`
	FragmentEntry string `json:"fragmentEntry,omitempty"`
	Verify        bool   `json:"verify,omitempty"`

	// Jobs bounds the number of files compiled at once.
	Jobs int `json:"jobs,omitempty"`

	Preview PreviewConfig `json:"preview,omitempty"`
}

// PreviewConfig selects the solid tessellated for preview meshes. An empty
// shape disables previews.
type PreviewConfig struct {
	Shape string  `json:"shape,omitempty"`
	Size  float64 `json:"size,omitempty"`
	Cells int     `json:"cells,omitempty"`
	// Rotate turns the solid by Euler angles in degrees around X, Y and Z.
	Rotate [3]float64 `json:"rotate"`
}

// Solid returns the preview solid the configuration describes.
func (p PreviewConfig) Solid() kernel.PreviewSolid {
	return kernel.PreviewSolid{Shape: p.Shape, Size: p.Size, Rotate: p.Rotate}
}

// DefaultConfig returns the configuration used without a config file.
func DefaultConfig() Config {
	return Config{
		GraphType: shader.GraphTypeName,
		Dialect:   codegen.GLSL.String(),
		Jobs:      runtime.NumCPU(),
		Preview: PreviewConfig{
			Size:  1,
			Cells: sdfx.DefaultCells,
		},
	}
}

// LoadConfig reads a YAML or JSON config file over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the values that cannot be checked by decoding.
func (c Config) Validate() error {
	d, err := codegen.ParseDialect(c.Dialect)
	if err != nil {
		return err
	}
	if c.Verify && d != codegen.WGSL {
		return fmt.Errorf("verify needs dialect wgsl, got %s", d)
	}
	if c.Jobs < 0 {
		return fmt.Errorf("jobs must not be negative, got %d", c.Jobs)
	}
	if c.Preview.Shape != "" && !kernel.IsShape(c.Preview.Shape) {
		return fmt.Errorf("unknown preview shape %q", c.Preview.Shape)
	}
	if c.Preview.Size <= 0 {
		return fmt.Errorf("preview size must be positive, got %g", c.Preview.Size)
	}
	if c.Preview.Cells <= 0 {
		return fmt.Errorf("preview cells must be positive, got %d", c.Preview.Cells)
	}
	return nil
}

// Options converts c into generation options.
func (c Config) Options() (shadegraph.Options, error) {
	d, err := codegen.ParseDialect(c.Dialect)
	if err != nil {
		return shadegraph.Options{}, err
	}
	opts := shadegraph.DefaultOptions()
	if c.GraphType != "" {
		opts.GraphType = c.GraphType
	}
	opts.Verify = c.Verify
	opts.Shader.Dialect = d
	if c.GLSLVersion != "" {
		opts.Shader.GLSLVersion = c.GLSLVersion
	}
	if c.Precision != "" {
		opts.Shader.Precision = c.Precision
	}
	if c.VertexEntry != "" {
		opts.Shader.VertexEntry = c.VertexEntry
	}
	if c.FragmentEntry != "" {
		opts.Shader.FragmentEntry = c.FragmentEntry
	}
	return opts, nil
}
