package parse

import (
	"strings"

	"github.com/dekarrin/parsekit/node"
	"github.com/dekarrin/parsekit/parser"
	"github.com/dekarrin/parsekit/perror"
)

// evalVariant dispatches a single (non-memoized, non-left-recursion-aware)
// evaluation of p at pos. Callers go through Driver.match, which wraps
// this with memoization and left-recursion handling.
func (d *Driver) evalVariant(p *parser.Parser, pos int) (result, bool) {
	switch p.Variant() {
	case parser.VLiteral:
		return d.matchLiteral(p, pos)
	case parser.VCIText:
		return d.matchCIText(p, pos)
	case parser.VRegex:
		return d.matchRegex(p, pos)
	case parser.VCharRange:
		return d.matchCharRange(p, pos)
	case parser.VEndOfInput:
		return d.matchEndOfInput(p, pos)
	case parser.VNever:
		return result{pos: pos}, false
	case parser.VWhitespace:
		return d.matchWhitespace(p, pos)
	case parser.VSequence:
		return d.matchSequence(p, pos)
	case parser.VAlternative:
		return d.matchAlternative(p, pos)
	case parser.VOption:
		return d.matchOption(p, pos)
	case parser.VZeroOrMore, parser.VOneOrMore, parser.VCounted:
		return d.matchRepetition(p, pos)
	case parser.VLookaheadPos:
		_, ok := d.match(p.Children()[0], pos)
		return result{pos: pos}, ok
	case parser.VLookaheadNeg:
		_, ok := d.match(p.Children()[0], pos)
		return result{pos: pos}, !ok
	case parser.VLookbehind:
		return d.matchLookbehind(p, pos)
	case parser.VForward:
		return d.matchForward(p, pos)
	case parser.VDrop:
		return d.matchDrop(p, pos)
	case parser.VSynonym:
		return d.matchSynonym(p, pos)
	case parser.VCapture:
		return d.matchCapture(p, pos)
	case parser.VRetrieve:
		return d.matchRetrieve(p, pos, false)
	case parser.VPop:
		return d.matchRetrieve(p, pos, true)
	case parser.VRequired:
		return d.match(p.Children()[0], pos)
	default:
		return result{pos: pos}, false
	}
}

func (d *Driver) matchLiteral(p *parser.Parser, pos int) (result, bool) {
	if d.g.IgnoreCase() {
		n := d.input.MatchFoldAt(p.Literal(), pos)
		if n < 0 {
			return result{pos: pos}, false
		}
		matched := d.input.Cut(pos, pos+n).String()
		return result{node: node.NewLeaf(p.Tag(), matched), pos: pos + n}, true
	}
	n := d.input.MatchLiteralAt(p.Literal(), pos)
	if n < 0 {
		return result{pos: pos}, false
	}
	return result{node: node.NewLeaf(p.Tag(), p.Literal()), pos: pos + n}, true
}

func (d *Driver) matchCIText(p *parser.Parser, pos int) (result, bool) {
	n := d.input.MatchFoldAt(p.Literal(), pos)
	if n < 0 {
		return result{pos: pos}, false
	}
	matched := d.input.Cut(pos, pos+n).String()
	return result{node: node.NewLeaf(p.Tag(), matched), pos: pos + n}, true
}

func (d *Driver) matchRegex(p *parser.Parser, pos int) (result, bool) {
	n := d.input.MatchRegexAt(p.Regex(), pos)
	if n < 0 {
		return result{pos: pos}, false
	}
	matched := d.input.Cut(pos, pos+n).String()
	return result{node: node.NewLeaf(p.Tag(), matched), pos: pos + n}, true
}

func (d *Driver) matchCharRange(p *parser.Parser, pos int) (result, bool) {
	r, width, ok := d.input.At(pos)
	if !ok {
		return result{pos: pos}, false
	}
	lo, hi := p.CharRange()
	if r < lo || r > hi {
		return result{pos: pos}, false
	}
	return result{node: node.NewLeaf(p.Tag(), string(r)), pos: pos + width}, true
}

func (d *Driver) matchEndOfInput(p *parser.Parser, pos int) (result, bool) {
	if pos != d.input.Len() {
		return result{pos: pos}, false
	}
	return result{node: node.NewLeaf(p.Tag(), ""), pos: pos}, true
}

func (d *Driver) matchWhitespace(p *parser.Parser, pos int) (result, bool) {
	cur := pos
	for {
		advanced := false
		if n := d.input.MatchRegexAt(p.Regex(), cur); n > 0 {
			cur += n
			advanced = true
		}
		if p.CommentRegex() != nil {
			if n := d.input.MatchRegexAt(p.CommentRegex(), cur); n > 0 {
				cur += n
				advanced = true
			}
		}
		if !advanced {
			break
		}
	}
	matched := d.input.Cut(pos, cur).String()
	return result{node: node.NewLeaf(p.Tag(), matched), pos: cur}, true
}

func (d *Driver) matchSequence(p *parser.Parser, pos int) (result, bool) {
	var collected []*node.Node
	cur := pos
	mandatory := false

	for _, c := range p.Children() {
		target := c
		child := d.g.Get(c)
		var wrapper *parser.Parser
		if child.Variant() == parser.VRequired {
			mandatory = true
			wrapper = child
			target = child.Children()[0]
			child = d.g.Get(target)
		}

		res, ok := d.match(target, cur)
		if ok {
			if res.node != nil {
				collected = appendSpliced(collected, child, res.node)
			}
			cur = res.pos
			continue
		}

		if !mandatory {
			return result{pos: pos}, false
		}

		expect := child.Tag()
		d.errs.Append(perror.New(cur, perror.Error, "expected %s", expect).WithCode("mandatory-missing"))
		collected = append(collected, errorMarkerNode(expect))

		resumeTo, found := d.findResume(p, wrapper, child, cur)
		if found {
			cur = resumeTo
			continue
		}
		break
	}

	return result{node: combine(p.Tag(), collected), pos: cur}, true
}

func (d *Driver) matchAlternative(p *parser.Parser, pos int) (result, bool) {
	for i, c := range p.Children() {
		if i > 0 && d.checkDeadline() {
			return result{pos: pos}, false
		}
		res, ok := d.match(c, pos)
		if ok {
			return result{node: forwardOrRename(p, d.g.Get(c), res.node), pos: res.pos}, true
		}
	}
	return result{pos: pos}, false
}

func (d *Driver) matchOption(p *parser.Parser, pos int) (result, bool) {
	inner := p.Children()[0]
	res, ok := d.match(inner, pos)
	if !ok {
		return result{node: combine(p.Tag(), nil), pos: pos}, true
	}
	var collected []*node.Node
	if res.node != nil {
		collected = appendSpliced(collected, d.g.Get(inner), res.node)
	}
	return result{node: combine(p.Tag(), collected), pos: res.pos}, true
}

func (d *Driver) matchRepetition(p *parser.Parser, pos int) (result, bool) {
	inner := p.Children()[0]
	innerParser := d.g.Get(inner)
	min, max := p.Bounds()

	cur := pos
	var collected []*node.Node
	count := 0
	for max < 0 || count < max {
		res, ok := d.match(inner, cur)
		if !ok {
			break
		}
		if res.node != nil {
			collected = appendSpliced(collected, innerParser, res.node)
		}
		count++
		if res.pos == cur {
			// body matched without consuming input; stop after one
			// iteration rather than loop forever.
			break
		}
		cur = res.pos
	}

	if count < min {
		return result{pos: pos}, false
	}
	return result{node: combine(p.Tag(), collected), pos: cur}, true
}

func (d *Driver) matchLookbehind(p *parser.Parser, pos int) (result, bool) {
	const maxWindow = 4096
	inner := p.Children()[0]
	floor := pos - maxWindow
	if floor < 0 {
		floor = 0
	}
	for start := pos - 1; start >= floor; start-- {
		res, ok := d.match(inner, start)
		if ok && res.pos == pos {
			return result{pos: pos}, true
		}
	}
	return result{pos: pos}, false
}

func (d *Driver) matchForward(p *parser.Parser, pos int) (result, bool) {
	target := p.Children()[0]
	res, ok := d.match(target, pos)
	if !ok {
		return result{pos: pos}, false
	}
	return result{node: forwardOrRename(p, d.g.Get(target), res.node), pos: res.pos}, true
}

func (d *Driver) matchDrop(p *parser.Parser, pos int) (result, bool) {
	inner := p.Children()[0]
	res, ok := d.match(inner, pos)
	if !ok {
		return result{pos: pos}, false
	}
	return result{node: nil, pos: res.pos}, true
}

func (d *Driver) matchSynonym(p *parser.Parser, pos int) (result, bool) {
	target := p.Children()[0]
	res, ok := d.match(target, pos)
	if !ok {
		return result{pos: pos}, false
	}
	return result{node: renamed(res.node, p.Tag()), pos: res.pos}, true
}

func (d *Driver) matchCapture(p *parser.Parser, pos int) (result, bool) {
	inner := p.Children()[0]
	res, ok := d.match(inner, pos)
	if !ok {
		return result{pos: pos}, false
	}
	captured := d.input.Cut(pos, res.pos).String()
	name := p.CaptureName()
	d.captures[name] = append(d.captures[name], captured)
	return result{node: forwardOrRename(p, d.g.Get(inner), res.node), pos: res.pos}, true
}

func (d *Driver) matchRetrieve(p *parser.Parser, pos int, pop bool) (result, bool) {
	name := p.CaptureName()
	stack := d.captures[name]
	if len(stack) == 0 {
		return result{pos: pos}, false
	}
	top := stack[len(stack)-1]

	rest := d.input.Rest(pos).String()
	var ok bool
	matchLen := len(top)
	if filter := p.CaptureFilter(); filter != nil {
		ok = filter(top, rest)
	} else {
		ok = strings.HasPrefix(rest, top)
	}
	if !ok {
		return result{pos: pos}, false
	}

	if pop {
		d.captures[name] = stack[:len(stack)-1]
	}
	return result{node: node.NewLeaf(p.Tag(), top), pos: pos + matchLen}, true
}

// findResume looks for a resume-pattern to recover from a mandatory-marker
// failure. Precedence: the enclosing sequence's own resume-pattern, then
// one registered on the § wrapper itself, then one on the failing element.
func (d *Driver) findResume(enclosing, wrapper, failing *parser.Parser, pos int) (int, bool) {
	candidates := []*parser.Parser{enclosing, wrapper, failing}
	for _, p := range candidates {
		if p == nil {
			continue
		}
		if r := p.ResumePattern(); r != nil {
			if to, ok := d.applyResume(r, pos); ok {
				return to, true
			}
		}
	}
	return 0, false
}

func (d *Driver) applyResume(r *parser.ResumePattern, pos int) (int, bool) {
	text := d.input.Rest(pos).String()
	if r.Pattern != nil {
		if loc := r.Pattern.FindStringIndex(text); loc != nil {
			return pos + loc[1], true
		}
		return 0, false
	}
	if r.Literal != "" {
		if idx := strings.Index(text, r.Literal); idx >= 0 {
			return pos + idx + len(r.Literal), true
		}
		return 0, false
	}
	if r.Predicate != nil {
		return r.Predicate(text, pos)
	}
	return 0, false
}

func errorMarkerNode(expected string) *node.Node {
	n := node.NewLeaf(":error", "")
	n.Attrs().Set("expected", expected)
	return n
}

// combine builds the node a combinator contributes for its own match:
// always an inner node, even with zero collected children, so that
// sequences/repetitions with no matched content still have a place to
// carry attributes and position information.
func combine(tag string, collected []*node.Node) *node.Node {
	return node.NewInner(tag, collected)
}

// appendSpliced implements disposable-combinator flattening: a disposable
// child that matched a combinator (and so already has its own children)
// contributes its children directly rather than nesting one level deeper.
// A disposable terminal (a leaf) has nothing to splice and is kept as-is.
func appendSpliced(collected []*node.Node, childParser *parser.Parser, n *node.Node) []*node.Node {
	if childParser.Disposable() && !n.IsLeaf() {
		return append(collected, n.Children()...)
	}
	return append(collected, n)
}

// forwardOrRename is used by combinators (Alternative, Forward, Capture)
// that pass a single matched result straight through: if the combinator
// itself carries an explicit symbol, the result is relabeled under that
// symbol; otherwise it is returned completely unchanged; its own disposal
// is left for whichever ancestor eventually collects it.
func forwardOrRename(p *parser.Parser, _ *parser.Parser, n *node.Node) *node.Node {
	if n == nil {
		return nil
	}
	if p.Symbol() == "" {
		return n
	}
	return renamed(n, p.Tag())
}

func renamed(n *node.Node, name string) *node.Node {
	if n == nil {
		return nil
	}
	if n.IsLeaf() {
		out := node.NewLeaf(name, n.Content())
		if n.HasAttrs() {
			out.Attrs().CopyFrom(n.Attrs())
		}
		return out
	}
	out := node.NewInner(name, n.Children())
	if n.HasAttrs() {
		out.Attrs().CopyFrom(n.Attrs())
	}
	return out
}
