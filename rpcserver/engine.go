// Package rpcserver implements parsekit's request surface: a line-oriented
// TCP listener and an HTTP surface sharing one Engine (grammar registry,
// config and grammar cache), so a long-running process can serve compile
// requests without re-registering grammars per connection.
package rpcserver

import (
	"fmt"
	"sync"

	"github.com/dekarrin/parsekit/cache"
	"github.com/dekarrin/parsekit/config"
	"github.com/dekarrin/parsekit/internal/util"
	"github.com/dekarrin/parsekit/node"
	"github.com/dekarrin/parsekit/parse"
	"github.com/dekarrin/parsekit/parser"
	"github.com/dekarrin/parsekit/pipeline"
	"github.com/dekarrin/parsekit/transform"
)

// Name and Version are returned by the identify method.
const Name = "parsekitd"

// Version is the engine's reported protocol/build version. It is a plain
// var, not a const, so a cmd/parsekitd main can stamp it at link time with
// -ldflags if a release process wants to.
var Version = "0.1.0"

// Grammar bundles a frozen grammar with the parse options and transform
// table a compile request against it should use.
type Grammar struct {
	Def        *parser.Grammar
	ParseOpts  []parse.Option
	Transforms transform.Table
}

// Engine is the shared object backing both the TCP and HTTP surfaces: one
// config, one grammar cache, one set of registered grammars.
type Engine struct {
	Config config.Config
	Cache  cache.Store

	mu       sync.RWMutex
	grammars map[string]*Grammar
}

// NewEngine returns an Engine with no grammars registered yet.
func NewEngine(cfg config.Config, store cache.Store) *Engine {
	return &Engine{
		Config:   cfg,
		Cache:    store,
		grammars: map[string]*Grammar{},
	}
}

// Register adds or replaces the grammar served under name.
func (e *Engine) Register(name string, g *Grammar) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.grammars[name] = g
}

// Grammar returns the grammar registered under name, or false if none is.
func (e *Engine) Grammar(name string) (*Grammar, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	g, ok := e.grammars[name]
	return g, ok
}

// GrammarNames returns the names of every currently registered grammar.
func (e *Engine) GrammarNames() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.grammars))
	for n := range e.grammars {
		names = append(names, n)
	}
	return names
}

// Identify returns the {name, version} pair the identify method reports.
func (e *Engine) Identify() (name, version string) {
	return Name, Version
}

// CompileResult is the JSON-shaped response of the compile method: an
// S-expression rendering of the reached AST (or CST, if no transform table
// is registered), the accumulated error catalog, and whatever value the
// compile stage produced, if any.
type CompileResult struct {
	AST    string   `json:"ast,omitempty"`
	Errors []string `json:"errors,omitempty"`
	Result any      `json:"result,omitempty"`
}

// Compile runs text through the named grammar's parse and transform stages
// and shapes the result for wire transport. It never returns an error for
// a parse or transform failure - those are reported inside CompileResult's
// Errors field - only for a request against a grammar name that isn't
// registered.
func (e *Engine) Compile(grammarName, text string) (CompileResult, error) {
	g, ok := e.Grammar(grammarName)
	if !ok {
		known := e.GrammarNames()
		if len(known) == 0 {
			return CompileResult{}, fmt.Errorf("no grammar registered under name %q (none registered)", grammarName)
		}
		return CompileResult{}, fmt.Errorf("no grammar registered under name %q (have: %s)", grammarName, util.MakeTextList(known))
	}

	cfg := e.Config.FillDefaults()

	parseOpts := make([]parse.Option, 0, len(g.ParseOpts)+1)
	parseOpts = append(parseOpts, g.ParseOpts...)
	parseOpts = append(parseOpts, parse.WithMinSeverity(cfg.MinSeverity))
	doParse := func(text string) (*node.Root, error) {
		return parse.Parse(g.Def, text, parseOpts...)
	}

	var doTransform pipeline.TransformFunc
	if g.Transforms != nil {
		doTransform = func(root *node.Root) *node.Root {
			return transform.Transform(root, g.Transforms)
		}
	}

	res := pipeline.CompileSource(text, nil, doParse, doTransform, nil)

	out := CompileResult{}
	if res.Root != nil {
		out.AST = res.Root.AsSxpr(cfg.IndentWidth, cfg.WrapThreshold)
	}
	// res.Errors is the same catalog doParse built the root with (or, if
	// transform ran, the one it accumulated into via the shared root) - its
	// MinSeverity was already set to cfg.MinSeverity above, so every entry
	// still here has already cleared the threshold at the point it was
	// attached.
	if res.Errors != nil {
		for _, err := range res.Errors.All() {
			out.Errors = append(out.Errors, err.FullMessage())
		}
	}
	out.Result = res.Value
	return out, nil
}
