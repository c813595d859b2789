package shadegraph

import (
	"log/slog"

	"github.com/chazu/shadegraph/pkg/field"
	"github.com/chazu/shadegraph/pkg/producer"
	"github.com/chazu/shadegraph/pkg/shader"
)

// Options configures code generation.
type Options struct {
	// GraphType is compiled when the source names none.
	GraphType string

	// Shader configures program assembly.
	Shader shader.Options

	// Verify runs naga over the generated program. It requires the WGSL
	// dialect.
	Verify bool
}

// DefaultOptions returns options for a shader graph emitted as desktop
// GLSL.
func DefaultOptions() Options {
	return Options{
		GraphType: shader.GraphTypeName,
		Shader:    shader.DefaultOptions(),
	}
}

// Option configures a System during creation.
//
// Example:
//
//	sys := shadegraph.New(shadegraph.WithClock(producer.FixedClock(2)))
type Option func(*systemOptions)

type systemOptions struct {
	fields      *field.Registry
	shaderTypes *shader.FieldTypes
	services    producer.Services
	clock       producer.Clock
	logger      *slog.Logger
}

func defaultSystemOptions() systemOptions {
	return systemOptions{
		fields: field.DefaultRegistry(),
		clock:  producer.NewWallClock(),
	}
}

// WithFields replaces the field type registry used to resolve external
// and property types.
func WithFields(r *field.Registry) Option {
	return func(o *systemOptions) {
		if r != nil {
			o.fields = r
		}
	}
}

// WithShaderFieldTypes replaces the mapping from field types to shader
// types.
func WithShaderFieldTypes(t *shader.FieldTypes) Option {
	return func(o *systemOptions) {
		o.shaderTypes = t
	}
}

// WithServices makes services available to producers while steps are
// created. A service named producer.ClockService overrides WithClock.
func WithServices(s producer.Services) Option {
	return func(o *systemOptions) {
		o.services = s
	}
}

// WithClock sets the clock read by numeric time nodes. The default is a
// wall clock started by New.
func WithClock(c producer.Clock) Option {
	return func(o *systemOptions) {
		o.clock = c
	}
}

// WithLogger installs l as the shared logger, see SetLogger.
func WithLogger(l *slog.Logger) Option {
	return func(o *systemOptions) {
		o.logger = l
	}
}
