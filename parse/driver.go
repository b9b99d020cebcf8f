// Package parse implements the parse driver: it walks a frozen parser
// graph against an input buffer and produces a concrete syntax tree plus
// an error catalog. It owns packrat memoization keyed by equivalence
// class and position, left-recursion support via iterative seed-growing,
// the variable-capture stack, and mandatory-marker error recovery.
package parse

import (
	"fmt"

	"github.com/dekarrin/parsekit/node"
	"github.com/dekarrin/parsekit/parser"
	"github.com/dekarrin/parsekit/perror"
	"github.com/dekarrin/parsekit/slice"
)

// DeadlineFunc is polled between the branches of every alternative parser
// so a caller can cooperatively abort a runaway parse. It should
// return true once the caller wants the parse to stop.
type DeadlineFunc func() bool

// Driver runs one parse of a single input against a frozen Grammar. A
// Driver is single-use: construct one with New per input.
type Driver struct {
	g     *parser.Grammar
	input slice.Slice

	memo map[memoKey]*memoEntry
	lr   map[lrKey]*lrFrame

	// seedReads counts how often an active left-recursion frame has handed
	// back its current seed; a result computed while this count changed
	// depends on a seed that may still grow, so it is not memoized.
	seedReads int

	captures map[string][]string

	errs *perror.Catalog

	deadline DeadlineFunc
	aborted  bool
}

type memoKey struct {
	class string
	pos   int
}

type memoEntry struct {
	res result
	ok  bool
	errs []*perror.Err
}

type lrKey struct {
	id  parser.ID
	pos int
}

type lrFrame struct {
	seed     result
	seedOk   bool
	growing  bool
	recursed bool
}

type result struct {
	node *node.Node
	pos  int
}

// Option configures a Driver at construction time.
type Option func(*Driver)

// WithDeadline installs a cooperative cancellation check, polled between
// alternative branches considered at any point in the grammar.
func WithDeadline(fn DeadlineFunc) Option {
	return func(d *Driver) { d.deadline = fn }
}

// WithMinSeverity sets the lowest error severity this Driver's catalog
// keeps; lower-severity entries (typically Notes attached by later
// transform-stage operators sharing the returned root's catalog) are
// discarded at the point of attachment. The zero value (perror.Note) keeps
// everything.
func WithMinSeverity(sev perror.Severity) Option {
	return func(d *Driver) { d.errs.MinSeverity = sev }
}

// New returns a Driver ready to parse text against g. g must already be
// frozen.
func New(g *parser.Grammar, text string, opts ...Option) *Driver {
	d := &Driver{
		g:        g,
		input:    slice.New(text),
		memo:     map[memoKey]*memoEntry{},
		lr:       map[lrKey]*lrFrame{},
		captures: map[string][]string{},
		errs:     perror.NewCatalog(),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Parse runs the grammar's root parser against the whole input and
// returns the resulting tree. A non-nil *node.Root is always returned,
// even on total failure, so that callers can inspect Errors; the returned
// error is non-nil only when the root failed to match at all.
func Parse(g *parser.Grammar, text string, opts ...Option) (*node.Root, error) {
	d := New(g, text, opts...)
	return d.Run()
}

// Run executes the driver once. Calling Run more than once on the same
// Driver re-parses from scratch against stale memo/capture state and is
// not supported.
func (d *Driver) Run() (*node.Root, error) {
	res, ok := d.match(d.g.Root(), 0)

	if d.aborted {
		d.errs.Append(perror.New(res.pos, perror.Fatal, "parse aborted: deadline exceeded"))
	}

	if !ok {
		d.errs.Append(perror.New(0, perror.Fatal, "input does not match grammar"))
		root := node.NewRoot(node.NewInner(":failed", nil), d.input.String(), "CST")
		root.Errors.MinSeverity = d.errs.MinSeverity
		root.Errors.Merge(d.errs)
		return root, fmt.Errorf("parse failed: no match at position 0")
	}

	if res.pos < d.input.Len() {
		d.errs.Append(perror.New(res.pos, perror.Error, "unparsed remainder beginning at offset %d", res.pos))
	}

	treeRoot := res.node
	if treeRoot == nil {
		treeRoot = node.NewInner(":empty", nil)
	}
	root := node.NewRoot(treeRoot, d.input.String(), "CST")
	root.Errors.MinSeverity = d.errs.MinSeverity
	root.Errors.Merge(d.errs)
	return root, nil
}

// match is the single entry point used by every variant's evaluation
// logic: it applies memoization, left-recursion seed-growing, and
// statefulness bypass before delegating to evalVariant.
func (d *Driver) match(id parser.ID, pos int) (result, bool) {
	if d.aborted {
		return result{pos: pos}, false
	}

	p := d.g.Get(id)
	lk := lrKey{id: id, pos: pos}

	if frame, active := d.lr[lk]; active {
		frame.recursed = true
		d.seedReads++
		return frame.seed, frame.seedOk
	}

	var mk memoKey
	memoize := !p.Stateful()
	if memoize {
		mk = memoKey{class: p.EquivalenceClass(), pos: pos}
		if entry, ok := d.memo[mk]; ok {
			for _, e := range entry.errs {
				d.errs.Append(e)
			}
			return entry.res, entry.ok
		}
	}

	frame := &lrFrame{seedOk: false, seed: result{pos: pos}}
	d.lr[lk] = frame

	reads := d.seedReads
	mark := d.errs.Mark()
	res, ok := d.evalVariant(p, pos)

	if frame.recursed && ok {
		frame.growing = true
		for {
			frame.seed, frame.seedOk = res, ok
			cand, okc := d.evalVariant(p, pos)
			if okc && cand.pos > res.pos {
				res, ok = cand, okc
				continue
			}
			break
		}
		frame.growing = false
	}

	delete(d.lr, lk)

	if memoize && d.seedReads == reads {
		d.memo[mk] = &memoEntry{res: res, ok: ok, errs: d.errs.EntriesSince(mark)}
	}

	return res, ok
}

func (d *Driver) checkDeadline() bool {
	if d.deadline != nil && d.deadline() {
		d.aborted = true
	}
	return d.aborted
}
