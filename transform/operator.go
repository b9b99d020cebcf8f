package transform

import (
	"regexp"

	"github.com/dekarrin/parsekit/node"
	"github.com/dekarrin/parsekit/perror"
)

// Context carries the facilities an Operator may need beyond the path
// itself: currently just the error catalog that add_error-style operators
// attach to.
type Context struct {
	Errors *perror.Catalog
}

// Operator mutates the last node of path in place (and, for operators that
// say so, its descendants). An operator must never mutate an ancestor or
// sibling of the visited node; doing so is possible (Go gives no static
// enforcement) but forfeits the traversal-integrity guarantee that a
// node's own subtree is fully settled by the time its operators run.
//
// Parameterized operators (Flatten, ApplyIf, ChangeName, ...) are plain Go
// functions returning an Operator, rather than a single variadic Operator
// signature: this keeps "did the caller want this operator run directly,
// or configured first" an ordinary call-vs-no-call distinction instead of
// runtime argument-type sniffing.
type Operator func(path node.Path, ctx *Context)

// --- structural -----------------------------------------------------

// ReplaceBySingleChild, if the visited node has exactly one child, gives
// the node that child's name and shape and copies the child's attributes
// onto it (attributes only the node had are kept), promoting an only child
// up in place. If the node does not have
// exactly one child, a Note is logged on ctx's catalog and the node is left
// unchanged.
func ReplaceBySingleChild(path node.Path, ctx *Context) {
	n := path.Last()
	if n.NumChildren() != 1 {
		noteStructuralMismatch(ctx, n, "ReplaceBySingleChild")
		return
	}
	only := n.Children()[0]
	n.Name = only.Name
	adoptShape(n, only)
}

// ReduceSingleChild is like ReplaceBySingleChild but keeps the visited
// node's own name, adopting the child's content/children shape and copying
// the child's attributes onto the node. If the
// node does not have exactly one child, a Note is logged on ctx's catalog
// and the node is left unchanged.
func ReduceSingleChild(path node.Path, ctx *Context) {
	n := path.Last()
	if n.NumChildren() != 1 {
		noteStructuralMismatch(ctx, n, "ReduceSingleChild")
		return
	}
	adoptShape(n, n.Children()[0])
}

// noteStructuralMismatch logs a Note-severity catalog entry for an operator
// whose structural precondition (e.g. "exactly one child") wasn't met at
// the visited node. Notes never block the traversal or downstream pipeline
// stages; a caller that wants a quiet production mode sets
// config.Config.MinSeverity above perror.Note so these are discarded at
// the point of attachment instead of carried through to the catalog.
func noteStructuralMismatch(ctx *Context, n *node.Node, opName string) {
	if ctx == nil || ctx.Errors == nil {
		return
	}
	pos, _ := n.Pos()
	e := perror.New(pos, perror.Note, "%s: node %q has %d children, expected exactly 1", opName, n.Name, n.NumChildren()).WithRef(n)
	ctx.Errors.Append(e)
}

func adoptShape(n, src *node.Node) {
	if src.IsLeaf() {
		n.SetContent(src.Content())
	} else {
		n.SetChildren(src.Children())
	}
	if src.HasAttrs() {
		n.Attrs().CopyFrom(src.Attrs())
	}
}

// ReplaceByChildren unconditionally splices every immediate child's own
// children up one level: a leaf child is kept as-is, a non-leaf child is
// replaced by its children. This is Flatten with an always-true predicate,
// named separately because it needs no predicate argument.
func ReplaceByChildren(path node.Path, ctx *Context) {
	Flatten(func(node.Path) bool { return true })(path, ctx)
}

// Flatten splices any immediate child matching predicate up one level,
// replacing it with its own children; children not matching predicate, or
// that are leaves, are kept unchanged.
func Flatten(predicate Predicate) Operator {
	return func(path node.Path, ctx *Context) {
		n := path.Last()
		if n.IsLeaf() {
			return
		}
		var out []*node.Node
		for _, c := range n.Children() {
			if !c.IsLeaf() && predicate(append(append(node.Path{}, path...), c)) {
				out = append(out, c.Children()...)
				continue
			}
			out = append(out, c)
		}
		n.SetChildren(out)
	}
}

// Collapse flattens the visited node's entire subtree down to a single
// leaf holding the concatenation of all descendant leaf content.
func Collapse(path node.Path, ctx *Context) {
	n := path.Last()
	n.SetContent(n.Content())
}

// CollapseChildrenIf collapses (see Collapse) any immediate child matching
// predicate, in place within the children list.
func CollapseChildrenIf(predicate Predicate) Operator {
	return func(path node.Path, ctx *Context) {
		n := path.Last()
		for _, c := range n.Children() {
			if predicate(append(append(node.Path{}, path...), c)) {
				c.SetContent(c.Content())
			}
		}
	}
}

// MergeAdjacent merges every run of two or more consecutive leaf children
// into a single leaf, named after the first leaf of the run, holding their
// concatenated content.
func MergeAdjacent(path node.Path, ctx *Context) {
	n := path.Last()
	children := n.Children()
	var out []*node.Node
	i := 0
	for i < len(children) {
		if !children[i].IsLeaf() {
			out = append(out, children[i])
			i++
			continue
		}
		j := i
		var text string
		for j < len(children) && children[j].IsLeaf() {
			text += children[j].Content()
			j++
		}
		out = append(out, node.NewLeaf(children[i].Name, text))
		i = j
	}
	n.SetChildren(out)
}

// MoveFringes stashes the visited node's leading and trailing anonymous
// leaf children as "leading"/"trailing" attributes instead of leaving them
// in the children list, then removes them from it. Operators run on a
// single node cannot reach into the parent, so this is the in-place
// equivalent of hoisting boundary tokens out of the subtree.
func MoveFringes(path node.Path, ctx *Context) {
	n := path.Last()
	children := n.Children()
	if len(children) == 0 {
		return
	}
	start := 0
	for start < len(children) && children[start].IsLeaf() && children[start].IsAnonymous() {
		start++
	}
	end := len(children)
	for end > start && children[end-1].IsLeaf() && children[end-1].IsAnonymous() {
		end--
	}
	if start > 0 {
		var lead string
		for _, c := range children[:start] {
			lead += c.Content()
		}
		n.Attrs().Set("leading", lead)
	}
	if end < len(children) {
		var trail string
		for _, c := range children[end:] {
			trail += c.Content()
		}
		n.Attrs().Set("trailing", trail)
	}
	n.SetChildren(children[start:end])
}

// --- content ----------------------------------------------------------

// LStrip removes leading children matching predicate.
func LStrip(predicate Predicate) Operator {
	return func(path node.Path, ctx *Context) {
		n := path.Last()
		children := n.Children()
		start := 0
		for start < len(children) && predicate(append(append(node.Path{}, path...), children[start])) {
			start++
		}
		n.SetChildren(children[start:])
	}
}

// RStrip removes trailing children matching predicate.
func RStrip(predicate Predicate) Operator {
	return func(path node.Path, ctx *Context) {
		n := path.Last()
		children := n.Children()
		end := len(children)
		for end > 0 && predicate(append(append(node.Path{}, path...), children[end-1])) {
			end--
		}
		n.SetChildren(children[:end])
	}
}

// Strip removes both leading and trailing children matching predicate.
func Strip(predicate Predicate) Operator {
	l, r := LStrip(predicate), RStrip(predicate)
	return func(path node.Path, ctx *Context) {
		l(path, ctx)
		r(path, ctx)
	}
}

// RemoveChildrenIf removes every immediate child matching predicate,
// wherever it occurs in the list.
func RemoveChildrenIf(predicate Predicate) Operator {
	return func(path node.Path, ctx *Context) {
		n := path.Last()
		var out []*node.Node
		for _, c := range n.Children() {
			if !predicate(append(append(node.Path{}, path...), c)) {
				out = append(out, c)
			}
		}
		n.SetChildren(out)
	}
}

// RemoveChildren removes every immediate child whose name is in names.
func RemoveChildren(names ...string) Operator {
	return RemoveChildrenIf(IsOneOf(names...))
}

// RemoveTokens removes every immediate leaf child whose name is in names.
func RemoveTokens(names ...string) Operator {
	return RemoveChildrenIf(AllOf(IsToken, IsOneOf(names...)))
}

// RemoveContent deletes every match of re from the visited node's content,
// forcing it to a leaf first if it was not already one.
func RemoveContent(re *regexp.Regexp) Operator {
	return func(path node.Path, ctx *Context) {
		n := path.Last()
		n.SetContent(re.ReplaceAllString(n.Content(), ""))
	}
}

// RemoveBrackets removes the first and last immediate children when both
// are anonymous leaves, the common shape of punctuation like parentheses
// or braces captured as disposable delimiter tokens.
func RemoveBrackets(path node.Path, ctx *Context) {
	n := path.Last()
	children := n.Children()
	if len(children) < 2 {
		return
	}
	first, last := children[0], children[len(children)-1]
	if first.IsLeaf() && first.IsAnonymous() && last.IsLeaf() && last.IsAnonymous() {
		n.SetChildren(children[1 : len(children)-1])
	}
}

// RemoveIf clears the visited node's own content (or children) if
// predicate holds, without removing it from its parent's child list.
func RemoveIf(predicate Predicate) Operator {
	return func(path node.Path, ctx *Context) {
		n := path.Last()
		if !predicate(path) {
			return
		}
		if n.IsLeaf() {
			n.SetContent("")
		} else {
			n.SetChildren(nil)
		}
	}
}

// --- naming & attributes ------------------------------------------------

// ChangeName renames the visited node.
func ChangeName(newName string) Operator {
	return func(path node.Path, ctx *Context) {
		path.Last().Name = newName
	}
}

// ReplaceContentWith forces the visited node to a leaf holding s exactly.
func ReplaceContentWith(s string) Operator {
	return func(path node.Path, ctx *Context) {
		path.Last().SetContent(s)
	}
}

// TransformContent forces the visited node to a leaf holding fn applied to
// its current content.
func TransformContent(fn func(string) string) Operator {
	return func(path node.Path, ctx *Context) {
		n := path.Last()
		n.SetContent(fn(n.Content()))
	}
}

// --- conditional --------------------------------------------------------

// ApplyIf runs every operator in ops, in order, only if predicate holds.
func ApplyIf(ops []Operator, predicate Predicate) Operator {
	return func(path node.Path, ctx *Context) {
		if predicate(path) {
			runAll(ops, path, ctx)
		}
	}
}

// ApplyUnless runs every operator in ops, in order, only if predicate does
// not hold.
func ApplyUnless(ops []Operator, predicate Predicate) Operator {
	return func(path node.Path, ctx *Context) {
		if !predicate(path) {
			runAll(ops, path, ctx)
		}
	}
}

// ApplyIfElse runs thenOps if predicate holds, else elseOps.
func ApplyIfElse(thenOps, elseOps []Operator, predicate Predicate) Operator {
	return func(path node.Path, ctx *Context) {
		if predicate(path) {
			runAll(thenOps, path, ctx)
		} else {
			runAll(elseOps, path, ctx)
		}
	}
}

// --- error attachment -----------------------------------------------------

// AddError attaches message at the visited node's source position (if
// known) to ctx's error catalog, at the given severity.
func AddError(message string, severity perror.Severity) Operator {
	return func(path node.Path, ctx *Context) {
		if ctx == nil || ctx.Errors == nil {
			return
		}
		n := path.Last()
		pos, _ := n.Pos()
		e := perror.New(pos, severity, "%s", message).WithRef(n)
		ctx.Errors.Append(e)
	}
}

func runAll(ops []Operator, path node.Path, ctx *Context) {
	for _, op := range ops {
		op(path, ctx)
	}
}
