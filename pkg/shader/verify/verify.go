// Package verify checks generated WGSL with the naga shader compiler and
// cross-compiles it to SPIR-V and GLSL.
package verify

import (
	"errors"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/glsl"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/naga/spirv"
	"github.com/samber/lo"

	"github.com/chazu/shadegraph/pkg/shader"
	"github.com/chazu/shadegraph/pkg/shader/codegen"
)

// Module parses, lowers and validates WGSL source.
func Module(source string) (*ir.Module, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return nil, err
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return nil, fmt.Errorf("lowering error: %w", err)
	}
	problems, err := naga.Validate(module)
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	if len(problems) > 0 {
		errs := lo.Map(problems, func(p ir.ValidationError, _ int) error { return p })
		return nil, fmt.Errorf("validation failed: %w", errors.Join(errs...))
	}
	return module, nil
}

// SPIRV compiles validated WGSL source to a SPIR-V binary.
func SPIRV(source string) ([]byte, error) {
	module, err := Module(source)
	if err != nil {
		return nil, err
	}
	return naga.GenerateSPIRV(module, spirv.Options{Version: spirv.Version1_3})
}

// GLSL cross-compiles one entry point of WGSL source to GLSL.
func GLSL(source, entry string, version glsl.Version) (string, error) {
	module, err := Module(source)
	if err != nil {
		return "", err
	}
	out, _, err := glsl.Compile(module, glsl.Options{
		LangVersion:        version,
		EntryPoint:         entry,
		ForceHighPrecision: true,
	})
	return out, err
}

// Result holds the SPIR-V binaries of both program stages.
type Result struct {
	Vertex   []byte
	Fragment []byte
}

// Program checks both stages of a WGSL program and compiles them to
// SPIR-V.
func Program(p *shader.Program) (*Result, error) {
	if p.Dialect != codegen.WGSL {
		return nil, fmt.Errorf("verify: program is %s, want %s", p.Dialect, codegen.WGSL)
	}
	vertex, err := SPIRV(p.Vertex)
	if err != nil {
		return nil, fmt.Errorf("vertex stage: %w", err)
	}
	fragment, err := SPIRV(p.Fragment)
	if err != nil {
		return nil, fmt.Errorf("fragment stage: %w", err)
	}
	return &Result{Vertex: vertex, Fragment: fragment}, nil
}
