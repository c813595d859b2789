package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/chazu/shadegraph/pkg/shader"
	"github.com/chazu/shadegraph/pkg/shader/codegen"
)

// CompileOptions holds the flags of the compile command. Empty values keep
// the configured defaults.
type CompileOptions struct {
	OutDir  string
	Dialect string
	Verify  bool
	Mesh    string
	Jobs    int
}

func NewCompileCommand(cli *CLI) *cobra.Command {
	var opts CompileOptions

	cmd := &cobra.Command{
		Use:   "compile <path>...",
		Short: "Compile graphs into shader programs",
		Long: Highlight("shadegraph compile [options] <path>...") + "\n\n" +
			"Compile graph programs (.sg, .lisp) and documents (.yaml, .yml, .json)\n" +
			"into vertex and fragment shaders. Directories contribute every source\n" +
			"they contain. Files are compiled in parallel.\n\n" +
			"Examples:\n" +
			"  # Emit GLSL next to each source\n" +
			"  shadegraph compile graphs/\n\n" +
			"  # Emit verified WGSL and a sphere vertex buffer into out/\n" +
			"  shadegraph compile --dialect wgsl --verify --mesh sphere -d out graphs/\n",
		Args: MinArgsWithUsage(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunCompile(cmd.Context(), cmd.OutOrStdout(), cli, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.OutDir, "out-dir", "d", "", "Directory for generated files (default: next to each source)")
	cmd.Flags().StringVar(&opts.Dialect, "dialect", "", "Shader dialect: glsl or wgsl")
	cmd.Flags().BoolVar(&opts.Verify, "verify", false, "Check generated WGSL with naga (needs --dialect wgsl)")
	cmd.Flags().StringVar(&opts.Mesh, "mesh", "", "Also write a vertex buffer of this preview shape")
	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", 0, "Number of files compiled at once")
	return cmd
}

type compileResult struct {
	Path    string
	Outputs []string
	Err     error
}

func RunCompile(ctx context.Context, w io.Writer, cli *CLI, opts CompileOptions, paths []string) error {
	cfg := cli.Config
	if opts.Dialect != "" {
		cfg.Dialect = opts.Dialect
	}
	if opts.Verify {
		cfg.Verify = true
	}
	if opts.Mesh != "" {
		cfg.Preview.Shape = opts.Mesh
	}
	if opts.Jobs > 0 {
		cfg.Jobs = opts.Jobs
	}
	if cfg.Jobs <= 0 {
		cfg.Jobs = runtime.NumCPU()
	}
	app, err := cli.App.Reconfigure(cfg)
	if err != nil {
		return err
	}

	files, err := collectSources(paths)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no graph sources found in %s", strings.Join(paths, ", "))
	}

	results := make([]compileResult, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Jobs)
	for i, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = compileResult{Path: file, Err: err}
				return nil
			}
			results[i] = compileFile(app, file, opts.OutDir)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(w, "%s %s: %v\n", color.RedString("✗"), r.Path, r.Err)
			continue
		}
		fmt.Fprintf(w, "%s %s -> %s\n", color.GreenString("✓"), r.Path, strings.Join(r.Outputs, ", "))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed to compile", failed, len(results))
	}
	return nil
}

func compileFile(app *App, path, outDir string) compileResult {
	res := compileResult{Path: path}
	src, err := app.Load(path)
	if err != nil {
		res.Err = err
		return res
	}
	prog, err := app.Generate(src)
	if err != nil {
		res.Err = err
		return res
	}

	if outDir == "" {
		outDir = filepath.Dir(path)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		res.Err = err
		return res
	}
	base := filepath.Join(outDir, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))

	files := stageFiles(base, prog)
	if app.config.Preview.Shape != "" {
		data, err := app.Preview(prog)
		if err != nil {
			res.Err = fmt.Errorf("preview: %w", err)
			return res
		}
		files = append(files, outputFile{base + ".mesh.bin", data})
	}
	for _, f := range files {
		if err := os.WriteFile(f.path, f.data, 0o644); err != nil {
			res.Err = err
			return res
		}
		res.Outputs = append(res.Outputs, f.path)
	}
	return res
}

type outputFile struct {
	path string
	data []byte
}

func stageFiles(base string, prog *shader.Program) []outputFile {
	vert, frag := base+".vert", base+".frag"
	if prog.Dialect == codegen.WGSL {
		vert, frag = vert+".wgsl", frag+".wgsl"
	}
	return []outputFile{
		{vert, []byte(prog.Vertex)},
		{frag, []byte(prog.Fragment)},
	}
}
