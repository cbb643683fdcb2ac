// Package transform implements the AST-to-AST plugin pipeline: a script is
// parsed once, handed through a sequence of plugins that each see the
// previous plugin's tree and accumulated metadata, and re-serialized at the
// end. Plugins only need to reason about the tree; they never touch source
// text directly.
package transform

import (
	"fmt"

	"github.com/chadparker/just-bash/ast"
	"github.com/chadparker/just-bash/syntax"
)

// Plugin rewrites f, returning the replacement tree and a metadata delta to
// merge into the pipeline's accumulated metadata map. Returning f unchanged
// and a nil delta is a valid no-op.
type Plugin func(f *ast.File, acc map[string]any) (*ast.File, map[string]any, error)

// Pipeline runs a fixed ordered sequence of plugins over one parse tree.
type Pipeline struct {
	plugins []namedPlugin
}

type namedPlugin struct {
	name string
	fn   Plugin
}

// NewPipeline builds an empty pipeline; use Add or Register to populate it.
func NewPipeline() *Pipeline {
	return &Pipeline{}
}

// Add appends an unnamed plugin, run in the order added.
func (p *Pipeline) Add(fn Plugin) {
	p.plugins = append(p.plugins, namedPlugin{fn: fn})
}

// Register appends a named plugin; the name surfaces in error messages
// ("plugin <name>: ..."). Its metadata delta is merged into the same flat
// map as every other plugin's, later keys overwriting earlier ones.
func (p *Pipeline) Register(name string, fn Plugin) {
	p.plugins = append(p.plugins, namedPlugin{name: name, fn: fn})
}

// Result is what a script looks like after every plugin has run: the
// re-serialized form (functionally, not textually, equivalent to the
// input), the final tree, and the metadata plugins accumulated.
type Result struct {
	Script   string
	AST      *ast.File
	Metadata map[string]any
}

// Run parses src, applies every registered plugin in order, and
// re-serializes the result.
func (p *Pipeline) Run(src string) (Result, error) {
	f, err := syntax.Parse([]byte(src), "transform")
	if err != nil {
		return Result{}, fmt.Errorf("parse: %w", err)
	}
	meta := map[string]any{}
	for _, np := range p.plugins {
		nf, delta, err := np.fn(f, meta)
		if err != nil {
			if np.name != "" {
				return Result{}, fmt.Errorf("plugin %s: %w", np.name, err)
			}
			return Result{}, err
		}
		if nf != nil {
			f = nf
		}
		for k, v := range delta {
			meta[k] = v
		}
	}
	return Result{Script: syntax.Print(f), AST: f, Metadata: meta}, nil
}
