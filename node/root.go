package node

import "github.com/dekarrin/parsekit/perror"

// Root is a Node with the additional bookkeeping a pipeline stage assigns
// to the root of a tree: it owns the input buffer reference, the error
// catalog, a stage tag ("CST", "AST", or a pipeline stage name), and an
// opaque Data payload so non-tree values produced by later pipeline stages
// can be transported while still carrying error-reporting facilities.
type Root struct {
	*Node

	Source  string
	Stage   string
	Errors  *perror.Catalog
	Data    any
}

// NewRoot wraps n as the root of a tree parsed from source, tagged with
// stage (typically "CST" immediately after parsing).
func NewRoot(n *Node, source, stage string) *Root {
	return &Root{Node: n, Source: source, Stage: stage, Errors: perror.NewCatalog()}
}

// WithStage returns a shallow copy of r with Stage changed - used by the
// pipeline harness when handing a root from one stage to the next without
// otherwise touching it.
func (r *Root) WithStage(stage string) *Root {
	cp := *r
	cp.Stage = stage
	return &cp
}

// AddError appends an error to r's catalog and returns it, a convenience
// used throughout parse and transform.
func (r *Root) AddError(e *perror.Err) *perror.Err {
	r.Errors.Append(e)
	return e
}
