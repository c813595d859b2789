// Package engine evaluates the graph DSL, a small Lisp built on zygomys,
// into a node graph ready for compilation.
//
//	(def c (node "c" "constant" :value 0.5))
//	(def s (node "s" "sin"))
//	(connect c :out s :in)
//	(end s)
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/shadegraph/internal/logging"
	"github.com/chazu/shadegraph/pkg/field"
	"github.com/chazu/shadegraph/pkg/graph"
	"github.com/chazu/shadegraph/pkg/producer"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalWarning represents a non-fatal warning produced during evaluation.
type EvalWarning struct {
	Message string
	NodeID  graph.NodeID
}

// Result is the graph built by a program together with the node it
// declared as its end and the external inputs it declared.
type Result struct {
	Graph     *graph.Graph
	End       graph.NodeID
	Externals []producer.External
	Warnings  []EvalWarning
}

// Engine wraps the zygomys interpreter. Each call to Evaluate creates a fresh
// sandboxed environment. Calls may come from several goroutines, but a call
// overlapped by a newer one fails as superseded: only the latest program
// counts, as when an editor re-evaluates on every change.
type Engine struct {
	mu         sync.Mutex
	generation uint64
	fields     *field.Registry
}

// NewEngine creates an Engine resolving external input types in fields. A
// nil registry means field.DefaultRegistry.
func NewEngine(fields *field.Registry) *Engine {
	if fields == nil {
		fields = field.DefaultRegistry()
	}
	return &Engine{fields: fields}
}

// Evaluate runs a program and returns the graph it built.
//
// Return semantics:
//   - On success: returns result + nil errors + nil error
//   - On parse/eval failure: returns nil result + eval errors + nil error
//   - On fatal failure (timeout, panic, superseded): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*Result, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	// Cancelling halts a program still running after a timeout.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		res, evalErrs, err := e.evaluate(ctx, source)
		ch <- evalResult{result: res, errors: evalErrs, err: err}
	}()

	return waitWithTimeout(ch, gen, &e.mu, &e.generation)
}

// errHalted is returned by evaluate when its context ends mid-program.
var errHalted = errors.New("evaluation halted")

// evaluate performs the actual zygomys evaluation in a fresh sandbox. The
// program halts at its next function call once ctx is done.
func (e *Engine) evaluate(ctx context.Context, source string) (_ *Result, _ []EvalError, err error) {
	res := &Result{Graph: graph.New()}

	// Empty source is a valid program that produces an empty graph.
	if strings.TrimSpace(source) == "" {
		return res, nil, nil
	}

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()
	defer func() {
		if r := recover(); r != nil {
			if r != errHalted {
				panic(r)
			}
			err = errHalted
		}
	}()
	env.AddPreHook(func(*zygo.Zlisp, string, []zygo.Sexp) {
		if ctx.Err() != nil {
			panic(errHalted)
		}
	})
	registerBuiltins(env, res, e.fields)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}

	if res.End.IsZero() && res.Graph.NodeCount() > 0 {
		res.Warnings = append(res.Warnings, EvalWarning{Message: "program declares no end node"})
	}
	logging.Logger().Debug("graph program evaluated",
		slog.Int("nodes", res.Graph.NodeCount()),
		slog.String("end", string(res.End)))
	return res, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}

	// Fallback: no line info available.
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
