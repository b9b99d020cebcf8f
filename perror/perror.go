// Package perror implements parsekit's error catalog: typed, positioned,
// severity-tagged values attached to a tree's root, deduplicated by
// (position, code), and rendered with a source-line-and-caret cursor.
package perror

import (
	"fmt"
	"sort"
	"strings"
)

// Severity is the ordered error taxonomy used throughout the catalog.
type Severity int

const (
	// Note is informational and never blocks downstream pipeline stages.
	Note Severity = iota
	// Warning is advisory and never blocks downstream pipeline stages.
	Warning
	// Error is recoverable; downstream stages may still run if they opt in.
	Error
	// Fatal is unrecoverable; subsequent pipeline stages are skipped.
	Fatal
)

func (s Severity) String() string {
	switch s {
	case Note:
		return "note"
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Fatal:
		return "fatal"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Err is one catalog entry: a position, severity, message, optional code,
// and an optional reference to the node it was detected at. Ref is typed
// `any` rather than *node.Node so that this package does not need to import
// node (which in turn holds a *Catalog) - callers that want the concrete
// node back should type-assert it.
type Err struct {
	Pos      int
	Severity Severity
	Message  string
	Code     string
	Ref      any

	// SourceLine and Col, if SourceLine is set, let FullMessage render a
	// cursor line;
	// they are filled in by WithSourceContext, not by New.
	SourceLine string
	Line       int
	Col        int
	wrapped    error
}

// New builds an Err. Pos is an absolute offset into the original input
// buffer.
func New(pos int, sev Severity, format string, args ...any) *Err {
	return &Err{Pos: pos, Severity: sev, Message: fmt.Sprintf(format, args...)}
}

// WithCode returns e with Code set, for chaining at construction time.
func (e *Err) WithCode(code string) *Err {
	e.Code = code
	return e
}

// WithRef returns e with Ref set to the node it was detected at.
func (e *Err) WithRef(ref any) *Err {
	e.Ref = ref
	return e
}

// WithWrapped returns e with an underlying Go error attached, so the
// catalog entry participates in errors.Is/errors.As chains.
func (e *Err) WithWrapped(wrapped error) *Err {
	e.wrapped = wrapped
	return e
}

// WithSourceContext returns e with the 1-indexed line/column and the exact
// source line text filled in, for FullMessage's cursor rendering.
func (e *Err) WithSourceContext(line, col int, sourceLine string) *Err {
	e.Line = line
	e.Col = col
	e.SourceLine = sourceLine
	return e
}

// Error implements the error interface so that *Err can travel through
// ordinary Go error-handling code.
func (e *Err) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("%s: %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("%s: around line %d, char %d: %s", e.Severity, e.Line, e.Col, e.Message)
}

// Unwrap returns the error e wraps, if any, so errors.Is/errors.As can see
// through a catalog entry to its underlying cause.
func (e *Err) Unwrap() error {
	return e.wrapped
}

// FullMessage renders Error() preceded by the offending source line and a
// caret cursor under the offending column. If no source context was
// attached, this is identical to Error().
func (e *Err) FullMessage() string {
	if e.SourceLine == "" {
		return e.Error()
	}
	return e.sourceLineWithCursor() + "\n" + e.Error()
}

func (e *Err) sourceLineWithCursor() string {
	cursor := strings.Repeat(" ", maxInt(e.Col-1, 0)) + "^"
	return e.SourceLine + "\n" + cursor
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Catalog is an ordered, deduplicated list of Errs, owned by a tree's root
// node.
type Catalog struct {
	// MinSeverity is the lowest severity Append keeps; entries below it are
	// discarded at the point of attachment rather than carried through and
	// filtered later. The zero value (Note) keeps everything, so a Catalog
	// built with NewCatalog and never configured behaves as before.
	MinSeverity Severity

	entries []*Err
	seen    map[dedupKey]bool
}

type dedupKey struct {
	pos  int
	code string
}

// NewCatalog returns an empty error catalog.
func NewCatalog() *Catalog {
	return &Catalog{seen: map[dedupKey]bool{}}
}

// Append adds e to the catalog unless an entry with the same (Pos, Code)
// already exists, or e's severity is below c.MinSeverity. Entries with an
// empty Code are never considered duplicates of one another.
func (c *Catalog) Append(e *Err) {
	if e.Severity < c.MinSeverity {
		return
	}
	if e.Code != "" {
		key := dedupKey{pos: e.Pos, code: e.Code}
		if c.seen[key] {
			return
		}
		c.seen[key] = true
	}
	c.entries = append(c.entries, e)
}

// All returns every catalog entry, sorted by Pos. Entries at the same
// position keep their relative append order (stable sort).
func (c *Catalog) All() []*Err {
	out := append([]*Err(nil), c.entries...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Pos < out[j].Pos
	})
	return out
}

// Len returns the number of entries in the catalog.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// HasSeverity returns whether any entry has severity >= min.
func (c *Catalog) HasSeverity(min Severity) bool {
	for _, e := range c.entries {
		if e.Severity >= min {
			return true
		}
	}
	return false
}

// Worst returns the highest severity present in the catalog, or Note if the
// catalog is empty.
func (c *Catalog) Worst() Severity {
	worst := Note
	for _, e := range c.entries {
		if e.Severity > worst {
			worst = e.Severity
		}
	}
	return worst
}

// Mark returns an opaque position in the catalog's append history, for use
// with EntriesSince.
func (c *Catalog) Mark() int {
	return len(c.entries)
}

// EntriesSince returns every entry appended since mark, so that errors
// produced while evaluating a subtree can be cached alongside its
// memoized result and replayed verbatim on a cache hit.
func (c *Catalog) EntriesSince(mark int) []*Err {
	if mark >= len(c.entries) {
		return nil
	}
	return append([]*Err(nil), c.entries[mark:]...)
}

// Merge appends every entry of other into c, respecting c's own dedup
// rules. Used by the parse driver to move its own catalog's entries onto
// the returned root's catalog.
func (c *Catalog) Merge(other *Catalog) {
	if other == nil {
		return
	}
	for _, e := range other.entries {
		c.Append(e)
	}
}
