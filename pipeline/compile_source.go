package pipeline

import (
	"github.com/dekarrin/parsekit/node"
	"github.com/dekarrin/parsekit/perror"
)

// PreprocessFunc runs before parsing: text in, possibly-rewritten text and
// an opaque source-map value out.
type PreprocessFunc func(text string) (string, any, error)

// ParseFunc turns text into a root node tagged "CST".
type ParseFunc func(text string) (*node.Root, error)

// TransformFunc rewrites a root node in place (typically CST to AST) and
// returns it for chaining.
type TransformFunc func(root *node.Root) *node.Root

// CompileFunc turns a (typically AST) root node into an arbitrary result.
type CompileFunc func(root *node.Root) (any, error)

// Result is what CompileSource returns: the compiled value (nil if
// compilation didn't run or failed), the accumulated error catalog, and
// whichever root node the pipeline reached before stopping.
type Result struct {
	Value  any
	Errors *perror.Catalog
	Root   *node.Root
}

// CompileSource runs the four standard pipeline stages - preprocess,
// parse, transform, compile - each optional except parse. If a stage
// attaches an error of severity Fatal or worse, every subsequent stage is
// skipped.
func CompileSource(text string, preprocess PreprocessFunc, doParse ParseFunc, doTransform TransformFunc, compile CompileFunc) Result {
	if preprocess != nil {
		rewritten, _, err := preprocess(text)
		if err != nil {
			cat := perror.NewCatalog()
			cat.Append(perror.New(0, perror.Fatal, "preprocess failed: %s", err))
			return Result{Errors: cat}
		}
		text = rewritten
	}

	root, err := doParse(text)
	if root == nil {
		cat := perror.NewCatalog()
		msg := "parse failed"
		if err != nil {
			msg = err.Error()
		}
		cat.Append(perror.New(0, perror.Fatal, "%s", msg))
		return Result{Errors: cat}
	}
	if root.Errors.HasSeverity(perror.Fatal) {
		return Result{Errors: root.Errors, Root: root}
	}

	if doTransform != nil {
		root = doTransform(root)
		if root.Errors.HasSeverity(perror.Fatal) {
			return Result{Errors: root.Errors, Root: root}
		}
	}

	if compile == nil {
		return Result{Errors: root.Errors, Root: root}
	}

	value, err := compile(root)
	if err != nil {
		root.Errors.Append(perror.New(0, perror.Fatal, "compile failed: %s", err))
		return Result{Errors: root.Errors, Root: root}
	}

	return Result{Value: value, Errors: root.Errors, Root: root}
}
