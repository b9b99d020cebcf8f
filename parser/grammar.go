package parser

import (
	"fmt"
	"regexp"
)

// Grammar is the arena owning every Parser reachable from Root, plus the
// symbol table and freeze state. The zero value is not useful; use New.
type Grammar struct {
	arena  []*Parser // arena[0] is an unused sentinel so ID(0) means "unset"
	root   ID
	frozen bool

	symbols map[string]ID

	disposableNameRe *regexp.Regexp // §6.2: names matching this are disposable
	ignoreCase       bool           // default @ignorecase
}

// New returns an empty Grammar. disposableNamePattern defaults to names
// beginning with ":" or "_"; pass "" to use the default.
func New(disposableNamePattern string) *Grammar {
	if disposableNamePattern == "" {
		disposableNamePattern = `^[:_]`
	}
	g := &Grammar{
		arena:            make([]*Parser, 1),
		symbols:          map[string]ID{},
		disposableNameRe: regexp.MustCompile(disposableNamePattern),
	}
	return g
}

func (g *Grammar) alloc(variant Variant) *Parser {
	id := ID(len(g.arena))
	p := &Parser{id: id, variant: variant, tag: fmt.Sprintf(":%d", id)}
	g.arena = append(g.arena, p)
	return p
}

// Get returns the parser with the given ID. It panics on an out-of-range ID
// since IDs are only ever handed out by this Grammar's own factories.
func (g *Grammar) Get(id ID) *Parser {
	return g.arena[id]
}

// Len returns the number of parsers in the arena (not counting the sentinel
// slot 0).
func (g *Grammar) Len() int {
	return len(g.arena) - 1
}

// SetRoot designates id as the grammar's entry point.
func (g *Grammar) SetRoot(id ID) {
	g.root = id
}

// Root returns the grammar's entry point.
func (g *Grammar) Root() ID {
	return g.root
}

// IsFrozen returns whether Freeze has completed successfully.
func (g *Grammar) IsFrozen() bool {
	return g.frozen
}

// SetIgnoreCase sets the grammar-wide default used by NewLiteral when no
// per-parser case sensitivity has been requested via NewCIText.
func (g *Grammar) SetIgnoreCase(ignore bool) {
	g.ignoreCase = ignore
}

// IgnoreCase returns the grammar-wide default case sensitivity.
func (g *Grammar) IgnoreCase() bool {
	return g.ignoreCase
}

// --- terminal factories -----------------------------------------------

// NewLiteral returns a parser matching text exactly.
func (g *Grammar) NewLiteral(text string) ID {
	p := g.alloc(VLiteral)
	p.literal = text
	return p.id
}

// NewCIText returns a parser matching text case-insensitively (Unicode case
// folding, see package slice).
func (g *Grammar) NewCIText(text string) ID {
	p := g.alloc(VCIText)
	p.literal = text
	return p.id
}

// NewRegex returns a parser matching re, anchored at the current position.
func (g *Grammar) NewRegex(re *regexp.Regexp) ID {
	p := g.alloc(VRegex)
	p.regex = re
	return p.id
}

// NewCharRange returns a parser matching a single rune in [lo, hi].
func (g *Grammar) NewCharRange(lo, hi rune) ID {
	p := g.alloc(VCharRange)
	p.rangeLo, p.rangeHi = lo, hi
	return p.id
}

// NewEndOfInput returns a parser that matches only at the end of input,
// consuming nothing.
func (g *Grammar) NewEndOfInput() ID {
	return g.alloc(VEndOfInput).id
}

// NewNever returns a parser that always fails without consuming input.
func (g *Grammar) NewNever() ID {
	return g.alloc(VNever).id
}

// NewWhitespace returns a parser matching insignificant whitespace,
// interleaved with an optional comment pattern (both may match zero or more
// times, in either order, until neither matches further).
func (g *Grammar) NewWhitespace(ws *regexp.Regexp, comment *regexp.Regexp) ID {
	p := g.alloc(VWhitespace)
	p.regex = ws
	p.commentRegex = comment
	return p.id
}

// --- combinator factories ----------------------------------------------

// NewSequence returns a parser matching every element of children in order.
func (g *Grammar) NewSequence(children ...ID) ID {
	p := g.alloc(VSequence)
	p.children = children
	return p.id
}

// NewAlternative returns a parser matching the first element of children
// that succeeds.
func (g *Grammar) NewAlternative(children ...ID) ID {
	p := g.alloc(VAlternative)
	p.children = children
	return p.id
}

// NewOption returns a parser matching child if possible, or nothing
// (never fails).
func (g *Grammar) NewOption(child ID) ID {
	p := g.alloc(VOption)
	p.children = []ID{child}
	return p.id
}

// NewZeroOrMore returns a parser repeating child until it fails (never
// fails itself).
func (g *Grammar) NewZeroOrMore(child ID) ID {
	p := g.alloc(VZeroOrMore)
	p.children = []ID{child}
	p.min, p.max = 0, -1
	return p.id
}

// NewOneOrMore returns a parser repeating child until it fails, requiring
// at least one match.
func (g *Grammar) NewOneOrMore(child ID) ID {
	p := g.alloc(VOneOrMore)
	p.children = []ID{child}
	p.min, p.max = 1, -1
	return p.id
}

// NewCounted returns a parser repeating child between min and max times
// inclusive (max<0 means unbounded).
func (g *Grammar) NewCounted(child ID, min, max int) ID {
	p := g.alloc(VCounted)
	p.children = []ID{child}
	p.min, p.max = min, max
	return p.id
}

// NewLookaheadPositive returns a parser that succeeds iff child matches at
// the current position, without advancing.
func (g *Grammar) NewLookaheadPositive(child ID) ID {
	p := g.alloc(VLookaheadPos)
	p.children = []ID{child}
	return p.id
}

// NewLookaheadNegative returns a parser that succeeds iff child does not
// match at the current position, without advancing.
func (g *Grammar) NewLookaheadNegative(child ID) ID {
	p := g.alloc(VLookaheadNeg)
	p.children = []ID{child}
	return p.id
}

// NewLookbehind returns a parser that succeeds iff child matches the text
// immediately to the left of the current position, without advancing.
func (g *Grammar) NewLookbehind(child ID) ID {
	p := g.alloc(VLookbehind)
	p.children = []ID{child}
	return p.id
}

// NewForward returns an unset forward-reference parser, for binding
// recursive non-terminals. Call Set exactly once before Freeze.
func (g *Grammar) NewForward() ID {
	return g.alloc(VForward).id
}

// Set binds fwd's target. It is an error to call this a second time on the
// same forward reference.
func (g *Grammar) Set(fwd ID, target ID) error {
	if g.frozen {
		return fmt.Errorf("grammar is frozen; forward reference %d cannot be set", fwd)
	}
	p := g.Get(fwd)
	if p.variant != VForward {
		return fmt.Errorf("parser %d is not a forward reference", fwd)
	}
	if p.forwardSet {
		return fmt.Errorf("forward reference %d already set", fwd)
	}
	p.children = []ID{target}
	p.forwardSet = true
	return nil
}

// NewDrop wraps child so that it still matches and advances position but
// contributes no node to the tree. Freeze rejects a Drop whose child is not
// disposable.
func (g *Grammar) NewDrop(child ID) ID {
	p := g.alloc(VDrop)
	p.children = []ID{child}
	return p.id
}

// NewSynonym returns a parser that delegates to target, used to give an
// existing parser an additional name without duplicating its definition.
func (g *Grammar) NewSynonym(target ID) ID {
	p := g.alloc(VSynonym)
	p.children = []ID{target}
	return p.id
}

// NewCapture returns a parser that, on a successful match of inner, pushes
// inner's matched content onto the named variable-capture stack.
func (g *Grammar) NewCapture(name string, inner ID) ID {
	p := g.alloc(VCapture)
	p.captureName = name
	p.children = []ID{inner}
	return p.id
}

// NewRetrieve returns a parser that succeeds if the current top of the
// named capture stack is found at the current position (optionally
// filtered by filter), without popping it.
func (g *Grammar) NewRetrieve(name string, filter CaptureFilter) ID {
	p := g.alloc(VRetrieve)
	p.captureName = name
	p.captureFilter = filter
	return p.id
}

// NewPop is like NewRetrieve but also pops the named stack on success.
func (g *Grammar) NewPop(name string, filter CaptureFilter) ID {
	p := g.alloc(VPop)
	p.captureName = name
	p.captureFilter = filter
	return p.id
}

// Required wraps child as a mandatory sequence element: once reached
// during a Sequence match, a failure here or later in the same sequence
// is reported as a recoverable error instead of an ordinary non-match. It
// is only meaningful as a direct element of a Sequence; see package parse
// for the recovery semantics.
func (g *Grammar) Required(child ID) ID {
	p := g.alloc(VRequired)
	p.children = []ID{child}
	return p.id
}

// SetResume registers a resume-pattern on id, consulted by the driver after
// a mandatory-marker failure inside (or downstream of) id. An enclosing
// parser's resume-pattern takes precedence over an inner one.
func (g *Grammar) SetResume(id ID, resume *ResumePattern) {
	g.Get(id).resume = resume
}

// --- symbol binding ------------------------------------------------------

// Assign binds name to id, promoting a previously-anonymous combinator to
// a named non-terminal. Assigning a symbol twice - either re-assigning id,
// or reusing name for a different id - is an error.
func (g *Grammar) Assign(name string, id ID) error {
	if g.frozen {
		return fmt.Errorf("grammar is frozen; symbol %q cannot be assigned", name)
	}
	p := g.Get(id)
	if p.symbol != "" {
		return fmt.Errorf("parser %d already bound to symbol %q", id, p.symbol)
	}
	if existing, ok := g.symbols[name]; ok {
		return fmt.Errorf("symbol %q already bound to parser %d", name, existing)
	}
	p.symbol = name
	g.symbols[name] = id
	return nil
}

// Symbol returns the parser bound to name, and whether one was found.
func (g *Grammar) Symbol(name string) (ID, bool) {
	id, ok := g.symbols[name]
	return id, ok
}
