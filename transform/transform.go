// Package transform implements the declarative tree-transformation engine:
// a depth-first, post-order walk that looks up each visited node's name in
// an operator table and runs the matching operator sequence, with
// reserved "<"/">" prologue/epilogue keys and a "*" wildcard fallback.
package transform

import (
	"strings"

	"github.com/dekarrin/parsekit/node"
)

// Prologue and Epilogue are table keys whose operator sequences run
// before/after every visited node's own name-specific (or wildcard)
// sequence.
const (
	Prologue = "<"
	Epilogue = ">"
	Wildcard = "*"
)

// Table maps a node name to the ordered operator sequence run when that
// name is visited.
type Table map[string][]Operator

// NewTable builds a Table from raw, expanding any comma-separated key
// ("A,B,C": ops) into one entry per name, all mapping to the same
// sequence. Plain keys (including Prologue/Epilogue/Wildcard) pass
// through unchanged.
func NewTable(raw map[string][]Operator) Table {
	t := make(Table, len(raw))
	for key, ops := range raw {
		if !strings.Contains(key, ",") {
			t[key] = ops
			continue
		}
		for _, part := range strings.Split(key, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			t[part] = ops
		}
	}
	return t
}

// Transform walks root's tree depth-first, post-order, running table's
// operator sequences against every node, and returns root for chaining.
func Transform(root *node.Root, table Table) *node.Root {
	ctx := &Context{Errors: root.Errors}
	prologue := table[Prologue]
	epilogue := table[Epilogue]
	wildcard := table[Wildcard]

	node.WalkPostOrder(root.Node, func(path node.Path) {
		runAll(prologue, path, ctx)
		if ops, ok := table[path.Last().Name]; ok {
			runAll(ops, path, ctx)
		} else if len(wildcard) > 0 {
			runAll(wildcard, path, ctx)
		}
		runAll(epilogue, path, ctx)
	})

	return root
}

// Rewrite applies fn directly to root with no path restriction. An Operator
// may only mutate path.Last() - the node it was invoked on - so it can
// never reparent a child to a different ancestor or merge sibling
// subtrees. Rewrite is the escape hatch for that kind of intentional
// whole-tree surgery: fn receives root itself and may walk and mutate it
// however it needs to, at the cost of the traversal-integrity guarantee
// Operator gives up in exchange.
func Rewrite(root *node.Root, fn func(*node.Root)) *node.Root {
	fn(root)
	return root
}
