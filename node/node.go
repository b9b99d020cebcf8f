// Package node implements the tagged, ordered tree produced by the parse
// driver and reshaped in place by the transformation engine: a Node carries
// either children or string content (never both), an optional attribute
// map, and the absolute source position it was parsed at. A Root is a Node
// with the extra bookkeeping (input buffer, error list, stage tag, opaque
// data payload) needed to anchor a whole tree.
package node

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dekarrin/rosed"
)

// Attrs is an insertion-ordered string-to-string attribute map. Keys are
// unique; re-Setting a key updates its value without changing its position
// in iteration order.
type Attrs struct {
	keys   []string
	values map[string]string
}

// NewAttrs returns an empty attribute map.
func NewAttrs() *Attrs {
	return &Attrs{values: map[string]string{}}
}

// Set assigns value to key, appending key to the insertion order the first
// time it is used.
func (a *Attrs) Set(key, value string) {
	if a.values == nil {
		a.values = map[string]string{}
	}
	if _, ok := a.values[key]; !ok {
		a.keys = append(a.keys, key)
	}
	a.values[key] = value
}

// Get returns the value of key and whether it was present.
func (a *Attrs) Get(key string) (string, bool) {
	if a == nil {
		return "", false
	}
	v, ok := a.values[key]
	return v, ok
}

// Has returns whether key is present, regardless of value.
func (a *Attrs) Has(key string) bool {
	if a == nil {
		return false
	}
	_, ok := a.values[key]
	return ok
}

// Keys returns the attribute keys in insertion order.
func (a *Attrs) Keys() []string {
	if a == nil {
		return nil
	}
	out := make([]string, len(a.keys))
	copy(out, a.keys)
	return out
}

// Len returns the number of attributes.
func (a *Attrs) Len() int {
	if a == nil {
		return 0
	}
	return len(a.keys)
}

// Equal returns whether a and o have the same keys mapped to the same
// values; insertion order is not significant for equality.
func (a *Attrs) Equal(o *Attrs) bool {
	if a.Len() != o.Len() {
		return false
	}
	for _, k := range a.Keys() {
		av, _ := a.Get(k)
		ov, ok := o.Get(k)
		if !ok || av != ov {
			return false
		}
	}
	return true
}

// Copy returns a deep copy of a.
func (a *Attrs) Copy() *Attrs {
	newA := NewAttrs()
	for _, k := range a.Keys() {
		v, _ := a.Get(k)
		newA.Set(k, v)
	}
	return newA
}

// CopyFrom sets every key/value of other onto a, preserving other's
// insertion order for any keys not already present in a.
func (a *Attrs) CopyFrom(other *Attrs) {
	for _, k := range other.Keys() {
		v, _ := other.Get(k)
		a.Set(k, v)
	}
}

// Node is one element of a parse tree. A leaf has text content and no
// children; an inner node has children and no content - the two are
// mutually exclusive by construction (see NewLeaf/NewInner), and
// transformation operators that flip a node between the two forms must go
// through SetChildren/SetContent to preserve the invariant.
//
// Name may be a grammar symbol, an anonymous tag beginning with ":",  or
// (after transformation) empty.
type Node struct {
	Name     string
	content  string
	children []*Node
	isLeaf   bool
	attrs    *Attrs
	pos      int
	posSet   bool
}

// NewLeaf builds a leaf node with the given text content.
func NewLeaf(name, content string) *Node {
	return &Node{Name: name, content: content, isLeaf: true}
}

// NewInner builds an inner node with the given children. The slice is
// copied so callers may continue to mutate their own slice afterward.
func NewInner(name string, children []*Node) *Node {
	n := &Node{Name: name, isLeaf: false}
	n.children = append([]*Node(nil), children...)
	return n
}

// IsLeaf returns whether n holds string content rather than children.
func (n *Node) IsLeaf() bool {
	return n.isLeaf
}

// Children returns n's children. For a leaf this is always empty. The
// returned slice must not be mutated by the caller; use SetChildren to
// replace it.
func (n *Node) Children() []*Node {
	return n.children
}

// NumChildren returns len(n.Children()).
func (n *Node) NumChildren() int {
	return len(n.children)
}

// SetChildren replaces n's children and, if n was a leaf, converts it to an
// inner node (clearing any stored content) - this is how several
// transformation operators (replace_by_children, flatten, collapse) turn a
// leaf back into a structural node or vice versa.
func (n *Node) SetChildren(children []*Node) {
	n.children = append([]*Node(nil), children...)
	n.content = ""
	n.isLeaf = false
}

// Content returns n's own stored string if n is a leaf, or the
// concatenation of the Content() of every descendant leaf, in left-to-right
// order, if n is an inner node. This is computed on demand rather than
// cached, since transformation mutates the tree in place.
func (n *Node) Content() string {
	if n.isLeaf {
		return n.content
	}
	var sb strings.Builder
	for _, c := range n.children {
		sb.WriteString(c.Content())
	}
	return sb.String()
}

// SetContent replaces n's stored string and, if n was an inner node,
// converts it to a leaf (discarding children).
func (n *Node) SetContent(content string) {
	n.content = content
	n.children = nil
	n.isLeaf = true
}

// Pos returns the absolute source offset n was parsed at, and whether it
// has been assigned yet (nodes built programmatically before being handed
// to a tree, e.g. in tests, may not have one).
func (n *Node) Pos() (int, bool) {
	return n.pos, n.posSet
}

// SetPos assigns n's source position. It is a defect to call this a second
// time with a different value; parsekit's own parse driver never does, and
// callers building trees by hand should treat position assignment as
// happening exactly once, at construction.
func (n *Node) SetPos(pos int) {
	n.pos = pos
	n.posSet = true
}

// Attrs returns n's attribute map, creating one if necessary.
func (n *Node) Attrs() *Attrs {
	if n.attrs == nil {
		n.attrs = NewAttrs()
	}
	return n.attrs
}

// HasAttrs returns whether n has a non-empty attribute map, without
// allocating one as a side effect (unlike Attrs()).
func (n *Node) HasAttrs() bool {
	return n.attrs != nil && n.attrs.Len() > 0
}

// Clone returns a deep copy of n and its entire subtree. Positions and
// attributes are copied; the clone shares no backing arrays with n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	clone := &Node{
		Name:    n.Name,
		content: n.content,
		isLeaf:  n.isLeaf,
		pos:     n.pos,
		posSet:  n.posSet,
	}
	if n.attrs != nil {
		clone.attrs = n.attrs.Copy()
	}
	if n.children != nil {
		clone.children = make([]*Node, len(n.children))
		for i, c := range n.children {
			clone.children[i] = c.Clone()
		}
	}
	return clone
}

// Equal returns structural equality: same Name, same leaf/inner shape, same
// content or children (recursively), and same attributes. Identity and
// position are not considered.
func (n *Node) Equal(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	if n.Name != o.Name || n.isLeaf != o.isLeaf {
		return false
	}
	if n.isLeaf {
		if n.content != o.content {
			return false
		}
	} else {
		if len(n.children) != len(o.children) {
			return false
		}
		for i := range n.children {
			if !n.children[i].Equal(o.children[i]) {
				return false
			}
		}
	}
	na, oa := n.attrs, o.attrs
	if na == nil {
		na = NewAttrs()
	}
	if oa == nil {
		oa = NewAttrs()
	}
	return na.Equal(oa)
}

// IsAnonymous returns whether n's name begins with ":" - the tag parsekit
// assigns to results of parsers that were never bound to a grammar symbol.
func (n *Node) IsAnonymous() bool {
	return strings.HasPrefix(n.Name, ":")
}

// IsEmpty returns whether n has no content and no children.
func (n *Node) IsEmpty() bool {
	if n.isLeaf {
		return n.content == ""
	}
	return len(n.children) == 0
}

// Path is the list of nodes from a tree's root down to some node, inclusive
// of both ends; it is the unit of context transformation operators receive.
type Path []*Node

// Last returns the final (most specific) node in the path, i.e. the node
// being visited.
func (p Path) Last() *Node {
	if len(p) == 0 {
		return nil
	}
	return p[len(p)-1]
}

// Parent returns the node one level up from Last, or nil at the root.
func (p Path) Parent() *Node {
	if len(p) < 2 {
		return nil
	}
	return p[len(p)-2]
}

// Ancestors returns every node strictly above Last, root first.
func (p Path) Ancestors() []*Node {
	if len(p) < 2 {
		return nil
	}
	return p[:len(p)-1]
}

// HasAncestor returns whether any ancestor's Name is in names.
func (p Path) HasAncestor(names ...string) bool {
	set := make(map[string]bool, len(names))
	for _, nm := range names {
		set[nm] = true
	}
	for _, a := range p.Ancestors() {
		if set[a.Name] {
			return true
		}
	}
	return false
}

// Walk enumerates every root-to-leaf path of n's subtree (spec "path
// enumeration yielding every root-to-leaf lineage"), calling visit with each
// complete path. Iteration order is left-to-right, depth-first.
func Walk(n *Node, visit func(Path)) {
	walk(nil, n, visit)
}

func walk(prefix Path, n *Node, visit func(Path)) {
	p := append(append(Path(nil), prefix...), n)
	if n.isLeaf || len(n.children) == 0 {
		visit(p)
		return
	}
	for _, c := range n.children {
		walk(p, c, visit)
	}
}

// WalkPostOrder visits every node of n's subtree in post-order (children
// before parent), passing the full path to each node. This is the traversal
// order the transformation engine uses.
func WalkPostOrder(n *Node, visit func(Path)) {
	walkPostOrder(nil, n, visit)
}

func walkPostOrder(prefix Path, n *Node, visit func(Path)) {
	p := append(append(Path(nil), prefix...), n)
	for _, c := range n.children {
		walkPostOrder(p, c, visit)
	}
	visit(p)
}

// AsSxpr renders n as an indented S-expression: `(name "text")` for leaves,
// `(name child1 child2)` for inner nodes, with attributes rendered as
// `` `(key "value") `` immediately after the name. Long leaf content is
// wrapped at wrapThreshold bytes (0 disables wrapping) using rosed so that
// continuation lines are re-indented to match.
func (n *Node) AsSxpr(indentWidth, wrapThreshold int) string {
	var sb strings.Builder
	n.writeSxpr(&sb, 0, indentWidth, wrapThreshold)
	return sb.String()
}

func (n *Node) writeSxpr(sb *strings.Builder, depth, indentWidth, wrapThreshold int) {
	pad := strings.Repeat(" ", depth*indentWidth)
	sb.WriteString(pad)
	sb.WriteRune('(')
	sb.WriteString(n.Name)
	n.writeAttrsSxpr(sb)
	if n.isLeaf {
		sb.WriteString(" ")
		sb.WriteString(quoteAndWrap(n.content, depth*indentWidth+1, wrapThreshold))
	} else {
		for _, c := range n.children {
			sb.WriteRune('\n')
			c.writeSxpr(sb, depth+1, indentWidth, wrapThreshold)
		}
	}
	sb.WriteRune(')')
}

func (n *Node) writeAttrsSxpr(sb *strings.Builder) {
	if !n.HasAttrs() {
		return
	}
	for _, k := range n.attrs.Keys() {
		v, _ := n.attrs.Get(k)
		fmt.Fprintf(sb, " `(%s \"%s\")", k, escape(v))
	}
}

// quoteAndWrap escapes content (so every real newline becomes the literal
// two-character sequence \n) and, if the quoted form exceeds wrapThreshold,
// word-wraps it with rosed and re-indents continuation lines to column.
// Because real newlines are always escaped first, any *raw* newline that
// appears in the result is unambiguously a wrap insertion, never content -
// ParseSxpr relies on exactly this to undo the wrap losslessly.
func quoteAndWrap(content string, column, wrapThreshold int) string {
	escaped := escape(content)
	quoted := "\"" + escaped + "\""
	if wrapThreshold <= 0 || len(quoted) <= wrapThreshold {
		return quoted
	}
	return rosed.Edit(quoted).
		Wrap(wrapThreshold).
		Indent(column).
		String()
}

func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return s
}

// AsXML renders n as indented XML: `<name>...</name>` for nodes with
// content/children, `<name/>` for empty nodes, attributes as `="..."`.
func (n *Node) AsXML(indentWidth, wrapThreshold int) string {
	var sb strings.Builder
	n.writeXML(&sb, 0, indentWidth, wrapThreshold)
	return sb.String()
}

func (n *Node) writeXML(sb *strings.Builder, depth, indentWidth, wrapThreshold int) {
	pad := strings.Repeat(" ", depth*indentWidth)
	sb.WriteString(pad)
	sb.WriteRune('<')
	sb.WriteString(n.Name)
	n.writeAttrsXML(sb)

	if n.IsEmpty() {
		sb.WriteString("/>")
		return
	}

	sb.WriteRune('>')
	if n.isLeaf {
		sb.WriteString(wrapXMLText(n.content, wrapThreshold))
	} else {
		for _, c := range n.children {
			sb.WriteRune('\n')
			c.writeXML(sb, depth+1, indentWidth, wrapThreshold)
		}
		sb.WriteRune('\n')
		sb.WriteString(pad)
	}
	sb.WriteString("</")
	sb.WriteString(n.Name)
	sb.WriteRune('>')
}

func (n *Node) writeAttrsXML(sb *strings.Builder) {
	if !n.HasAttrs() {
		return
	}
	keys := append([]string(nil), n.attrs.Keys()...)
	sort.Strings(keys)
	for _, k := range keys {
		v, _ := n.attrs.Get(k)
		fmt.Fprintf(sb, ` %s="%s"`, k, escapeXML(v))
	}
}

func wrapXMLText(content string, wrapThreshold int) string {
	escaped := escapeXML(content)
	if wrapThreshold <= 0 || len(escaped) <= wrapThreshold {
		return escaped
	}
	return rosed.Edit(escaped).Wrap(wrapThreshold).String()
}

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	return s
}
