// Package parser implements a directed, possibly-cyclic graph of parser
// combinators, built once and then frozen. A Grammar is an arena of
// *Parser, and parsers reference their children by integer ID rather than
// by pointer, so that forward references for recursive non-terminals are
// plain mutable fields instead of reference cycles.
package parser

import (
	"fmt"
	"regexp"
)

// ID is a stable index into a Grammar's arena. The zero ID is never issued
// by a Grammar's factories (the arena's slot 0 is a sentinel), so ID(0) can
// double as "no parser" (for example Grammar.Root before SetRoot is
// called).
type ID int

// Variant is the closed set of parser-graph node kinds.
type Variant int

const (
	VLiteral Variant = iota
	VCIText
	VRegex
	VCharRange
	VEndOfInput
	VNever
	VWhitespace
	VSequence
	VAlternative
	VOption
	VZeroOrMore
	VOneOrMore
	VCounted
	VLookaheadPos
	VLookaheadNeg
	VLookbehind
	VForward
	VDrop
	VSynonym
	VCapture
	VRetrieve
	VPop
	VRequired
)

func (v Variant) String() string {
	names := [...]string{
		"literal", "ci-text", "regex", "char-range", "end-of-input", "never",
		"whitespace", "sequence", "alternative", "option", "zero-or-more",
		"one-or-more", "counted", "lookahead+", "lookahead-", "lookbehind",
		"forward", "drop", "synonym", "capture", "retrieve", "pop", "required",
	}
	if int(v) < 0 || int(v) >= len(names) {
		return fmt.Sprintf("variant(%d)", int(v))
	}
	return names[v]
}

// CaptureFilter decides, given the text captured under a name and the text
// found at the current position, whether a retrieve/pop should succeed.
type CaptureFilter func(captured, candidate string) bool

// Parser is one node of the graph. Only the fields relevant to Variant are
// meaningful; see the NewXxx factories on Grammar for which fields each
// variant populates.
type Parser struct {
	id      ID
	variant Variant

	symbol string // grammar non-terminal this parser is bound to, "" if never assigned
	tag    string // display tag; ":<id>" until/unless a symbol is assigned

	// set at freeze time
	disposable bool
	eqClass    string
	nullable   bool
	stateful   bool

	// terminal payloads
	literal      string
	regex        *regexp.Regexp
	commentRegex *regexp.Regexp
	rangeLo      rune
	rangeHi      rune

	// combinator payloads
	children []ID
	min, max int // counted/zero-or-more/one-or-more bounds; max<0 means unbounded

	// capture payloads
	captureName   string
	captureFilter CaptureFilter

	// forward-reference payload
	forwardSet bool

	// mandatory-marker / resume payload
	resume *ResumePattern
}

// ID returns p's stable arena index.
func (p *Parser) ID() ID { return p.id }

// Variant returns p's closed-set kind.
func (p *Parser) Variant() Variant { return p.variant }

// Symbol returns the grammar non-terminal p is bound to, or "" if p was
// never assigned one.
func (p *Parser) Symbol() string { return p.symbol }

// Tag returns p's display name: its Symbol if assigned, else an
// auto-generated ":N" anonymous tag.
func (p *Parser) Tag() string {
	if p.symbol != "" {
		return p.symbol
	}
	return p.tag
}

// Disposable returns whether p's successful match is inlined into its
// parent rather than wrapped in a named node. Only meaningful after Freeze.
func (p *Parser) Disposable() bool { return p.disposable }

// EquivalenceClass returns the structural-hash key used to key the
// memoization table: two parsers with identical structure share a class,
// so memoized results key on structure rather than on object identity.
// Only meaningful after Freeze.
func (p *Parser) EquivalenceClass() string { return p.eqClass }

// Nullable returns whether p can match the empty string. Only meaningful
// after Freeze.
func (p *Parser) Nullable() bool { return p.nullable }

// Stateful returns whether p (or a descendant) consults the variable-
// capture stack, making it ineligible for memoization. Only meaningful
// after Freeze.
func (p *Parser) Stateful() bool { return p.stateful }

// Children returns the IDs of p's child parsers in order. Meaning is
// variant-specific: the single element of an Option/ZeroOrMore/OneOrMore/
// Counted/lookaround/Drop/Capture/Required/Forward, or the ordered operands
// of a Sequence/Alternative.
func (p *Parser) Children() []ID { return p.children }

// Literal returns the matched text of a VLiteral or VCIText parser.
func (p *Parser) Literal() string { return p.literal }

// Regex returns the compiled pattern of a VRegex or VWhitespace parser.
func (p *Parser) Regex() *regexp.Regexp { return p.regex }

// CommentRegex returns the optional interleaved comment pattern of a
// VWhitespace parser.
func (p *Parser) CommentRegex() *regexp.Regexp { return p.commentRegex }

// CharRange returns the inclusive rune bounds of a VCharRange parser.
func (p *Parser) CharRange() (lo, hi rune) { return p.rangeLo, p.rangeHi }

// Bounds returns the repetition bounds of a VCounted parser (max<0 means
// unbounded), or the fixed {0,-1}/{1,-1} bounds implied by VZeroOrMore/
// VOneOrMore.
func (p *Parser) Bounds() (min, max int) { return p.min, p.max }

// CaptureName returns the variable name of a VCapture/VRetrieve/VPop
// parser.
func (p *Parser) CaptureName() string { return p.captureName }

// CaptureFilter returns the optional filter of a VRetrieve/VPop parser.
func (p *Parser) CaptureFilter() CaptureFilter { return p.captureFilter }

// ResumePattern returns the resume-point registered on p for mandatory-
// marker recovery, or nil.
func (p *Parser) ResumePattern() *ResumePattern { return p.resume }

// ResumePattern is a recovery target registered per parser: after a
// mandatory-marker failure, the driver advances to the next match of
// Pattern (if set) or the next position satisfying Predicate, whichever is
// configured.
type ResumePattern struct {
	Pattern   *regexp.Regexp
	Literal   string
	Predicate func(text string, pos int) (advanceTo int, ok bool)
}
