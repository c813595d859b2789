package command

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"sync"

	"github.com/chazu/shadegraph"
	"github.com/chazu/shadegraph/pkg/kernel"
	"github.com/chazu/shadegraph/pkg/kernel/sdfx"
	"github.com/chazu/shadegraph/pkg/loader"
	"github.com/chazu/shadegraph/pkg/pipeline"
	"github.com/chazu/shadegraph/pkg/shader"
)

// ProgramExtensions lists the file extensions read as DSL programs. Every
// other accepted source is a document, see loader.Extensions.
var ProgramExtensions = []string{".sg", ".lisp"}

// App ties a System to the CLI configuration. Evaluate backs the editor
// integration; the other methods back the file commands.
type App struct {
	sys    *shadegraph.System
	kernel kernel.Kernel
	config Config

	// evalMu serialises DSL evaluation. The engine fails calls
	// overlapped by newer ones, and compile loads files concurrently.
	evalMu *sync.Mutex
}

// MeshData is the JSON form of a preview mesh.
type MeshData struct {
	Shape     string    `json:"shape"`
	Positions []float32 `json:"positions"`
	Normals   []float32 `json:"normals"`
	UVs       []float32 `json:"uvs"`
	Indices   []uint32  `json:"indices"`
	// Stride is the byte stride of the program's interleaved vertex
	// buffer.
	Stride int `json:"stride"`
}

// BindingData is the JSON form of a program binding.
type BindingData struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Kind     string `json:"kind"`
	Stages   string `json:"stages"`
	Location int    `json:"location"`
	Slot     int    `json:"slot"`
}

// ProgramData is the JSON form of a generated program.
type ProgramData struct {
	Dialect  string        `json:"dialect"`
	Vertex   string        `json:"vertex"`
	Fragment string        `json:"fragment"`
	Bindings []BindingData `json:"bindings"`
}

// EvalErrorData is a JSON-serializable error or warning.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	NodeID  string `json:"nodeId,omitempty"`
	Message string `json:"message"`
}

// EvalResult is everything Evaluate reports about one program.
type EvalResult struct {
	Program  *ProgramData    `json:"program,omitempty"`
	Mesh     *MeshData       `json:"mesh,omitempty"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`
}

// NewApp creates an App compiling with cfg.
func NewApp(cfg Config, opts ...shadegraph.Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &App{
		sys:    shadegraph.New(opts...),
		kernel: sdfx.WithCells(cfg.Preview.Cells),
		config: cfg,
		evalMu: new(sync.Mutex),
	}, nil
}

// System returns the underlying compiler.
func (a *App) System() *shadegraph.System { return a.sys }

// Evaluate takes DSL source and returns the generated program, a preview
// mesh when one is configured, and every error or warning found on the way.
// It never fails: problems are reported inside the result.
func (a *App) Evaluate(source string) EvalResult {
	result := EvalResult{
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}

	a.evalMu.Lock()
	res, evalErrs, err := a.sys.Engine.Evaluate(source)
	a.evalMu.Unlock()
	if err != nil {
		shadegraph.Logger().Error("evaluate failed", "error", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
		}
		return result
	}
	for _, w := range res.Warnings {
		result.Warnings = append(result.Warnings, EvalErrorData{NodeID: string(w.NodeID), Message: w.Message})
	}
	if res.End.IsZero() {
		return result
	}

	src := &shadegraph.Source{Graph: res.Graph, End: res.End, Externals: res.Externals}
	vr, err := a.sys.Validate(src, a.config.GraphType)
	if err != nil {
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	for _, f := range vr.Warnings() {
		result.Warnings = append(result.Warnings, EvalErrorData{NodeID: string(f.NodeID), Message: f.Message})
	}
	if vr.HasErrors() {
		for _, f := range vr.Errors() {
			result.Errors = append(result.Errors, EvalErrorData{NodeID: string(f.NodeID), Message: f.Message})
		}
		return result
	}

	prog, err := a.Generate(src)
	if err != nil {
		result.Errors = append(result.Errors, errorData(err)...)
		return result
	}
	result.Program = programData(prog)

	if a.config.Preview.Shape == "" {
		return result
	}
	mesh, stride, err := a.preview(prog)
	if err == nil {
		// The mesh must supply every attribute the program reads.
		_, err = mesh.Interleave(prog)
	}
	if err != nil {
		result.Errors = append(result.Errors, EvalErrorData{Message: "preview failed: " + err.Error()})
		return result
	}
	result.Mesh = &MeshData{
		Shape:     mesh.Name,
		Positions: mesh.Positions,
		Normals:   mesh.Normals,
		UVs:       mesh.UVs,
		Indices:   mesh.Indices,
		Stride:    stride,
	}
	return result
}

func errorData(err error) []EvalErrorData {
	var vf *pipeline.ValidationFailedError
	if !errors.As(err, &vf) {
		return []EvalErrorData{{Message: err.Error()}}
	}
	var out []EvalErrorData
	for _, f := range vf.Result.Errors() {
		out = append(out, EvalErrorData{NodeID: string(f.NodeID), Message: f.Message})
	}
	return out
}

func programData(p *shader.Program) *ProgramData {
	d := &ProgramData{
		Dialect:  p.Dialect.String(),
		Vertex:   p.Vertex,
		Fragment: p.Fragment,
		Bindings: make([]BindingData, 0, len(p.Bindings)),
	}
	for _, b := range p.Bindings {
		d.Bindings = append(d.Bindings, BindingData{
			Name:     b.Name,
			Type:     b.Type.String(),
			Kind:     b.Kind.String(),
			Stages:   b.Stages.String(),
			Location: b.Location,
			Slot:     b.Slot,
		})
	}
	return d
}

// Load reads a DSL program or a graph document.
func (a *App) Load(path string) (*shadegraph.Source, error) {
	if !slices.Contains(ProgramExtensions, filepath.Ext(path)) {
		doc, err := loader.LoadFile(path)
		if err != nil {
			return nil, err
		}
		return a.sys.Document(doc)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	a.evalMu.Lock()
	src, evalErrs, err := a.sys.Evaluate(string(data))
	a.evalMu.Unlock()
	if err != nil {
		return nil, err
	}
	if len(evalErrs) > 0 {
		errs := make([]error, len(evalErrs))
		for i, e := range evalErrs {
			errs[i] = e
		}
		return nil, errors.Join(errs...)
	}
	return src, nil
}

// Generate compiles src with the configured options.
func (a *App) Generate(src *shadegraph.Source) (*shader.Program, error) {
	opts, err := a.config.Options()
	if err != nil {
		return nil, err
	}
	return a.sys.Generate(src, opts)
}

// Preview tessellates the configured preview solid and packs it into the
// vertex buffer layout of prog.
func (a *App) Preview(prog *shader.Program) ([]byte, error) {
	mesh, _, err := a.preview(prog)
	if err != nil {
		return nil, err
	}
	return mesh.Interleave(prog)
}

func (a *App) preview(prog *shader.Program) (*kernel.Mesh, int, error) {
	layout, err := prog.Layout()
	if err != nil {
		return nil, 0, err
	}
	mesh, err := kernel.Preview(a.kernel, a.config.Preview.Solid())
	if err != nil {
		return nil, 0, err
	}
	return mesh, int(layout.VertexBuffer.ArrayStride), nil
}

func isSource(path string) bool {
	ext := filepath.Ext(path)
	return slices.Contains(ProgramExtensions, ext) || slices.Contains(loader.Extensions, ext)
}

// collectSources expands paths into source files. Directories contribute
// their sources, non-recursively and sorted.
func collectSources(paths []string) ([]string, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to access path: %w", err)
		}
		if !info.IsDir() {
			if !isSource(path) {
				return nil, fmt.Errorf("file %q is not a graph program or document", path)
			}
			files = append(files, path)
			continue
		}

		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read directory: %w", err)
		}
		var dir []string
		for _, entry := range entries {
			if entry.IsDir() || !isSource(entry.Name()) {
				continue
			}
			dir = append(dir, filepath.Join(path, entry.Name()))
		}
		sort.Strings(dir)
		files = append(files, dir...)
	}
	return files, nil
}

// Reconfigure returns an App sharing a's System but compiling with cfg.
func (a *App) Reconfigure(cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &App{sys: a.sys, kernel: sdfx.WithCells(cfg.Preview.Cells), config: cfg, evalMu: a.evalMu}, nil
}
