// Package demogrammar builds the small arithmetic-sum grammar bundled with
// cmd/parsekitd and cmd/parsekit so both have something to register and
// compile against without requiring a caller to embed a grammar of their
// own first. It is not part of the library surface other packages build
// on; a real deployment of parsekit replaces this with a grammar built by
// the application embedding rpcserver.Engine.
package demogrammar

import (
	"regexp"

	"github.com/dekarrin/parsekit/parser"
	"github.com/dekarrin/parsekit/transform"
)

// Name is the grammar name both CLI entry points register this grammar
// under.
const Name = "sum"

// Build constructs the frozen grammar for a "+"-separated sum of decimal
// integers, e.g. "12 + 7 + 100", along with the transform table that
// reduces its CST (a "Sum" node over "Number" leaves, plus and whitespace
// already dropped during parsing) down to an AST with no empty nodes left
// over from the drops.
func Build() (*parser.Grammar, transform.Table) {
	g := parser.New("")

	ws := func() parser.ID { return g.NewWhitespace(regexp.MustCompile(`\s*`), nil) }

	digit := g.NewCharRange('0', '9')
	number := g.NewOneOrMore(digit)
	if err := g.Assign("Number", number); err != nil {
		panic(err)
	}

	plus := g.NewLiteral("+")

	term := g.NewSequence(g.NewDrop(ws()), g.NewDrop(plus), g.NewDrop(ws()), number)

	rest := g.NewZeroOrMore(term)
	expr := g.NewSequence(number, rest)
	if err := g.Assign("Sum", expr); err != nil {
		panic(err)
	}

	g.SetRoot(expr)
	if err := g.Freeze(); err != nil {
		panic(err)
	}

	table := transform.NewTable(map[string][]transform.Operator{
		"Sum": {
			transform.RemoveChildrenIf(transform.IsEmpty),
		},
	})

	return g, table
}
