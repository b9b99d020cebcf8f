package transform

import (
	"regexp"
	"testing"

	"github.com/dekarrin/parsekit/node"
	"github.com/dekarrin/parsekit/perror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRoot(n *node.Node) *node.Root {
	return node.NewRoot(n, "", "CST")
}

func Test_Transform_wildcardRunsWhenNoNameEntry(t *testing.T) {
	tree := node.NewInner("expr", []*node.Node{node.NewLeaf("NUMBER", "1")})
	root := newRoot(tree)
	var visited []string

	table := NewTable(map[string][]Operator{
		Wildcard: {func(path node.Path, ctx *Context) {
			visited = append(visited, path.Last().Name)
		}},
	})
	Transform(root, table)

	assert.Equal(t, []string{"NUMBER", "expr"}, visited)
}

func Test_Transform_nameSpecificOverridesWildcard(t *testing.T) {
	tree := node.NewLeaf("NUMBER", "1")
	root := newRoot(tree)
	var ran string

	table := NewTable(map[string][]Operator{
		Wildcard: {func(path node.Path, ctx *Context) { ran = "wild" }},
		"NUMBER": {func(path node.Path, ctx *Context) { ran = "specific" }},
	})
	Transform(root, table)

	assert.Equal(t, "specific", ran)
}

func Test_Transform_prologueAndEpilogueRunForEveryNode(t *testing.T) {
	tree := node.NewInner("root", []*node.Node{node.NewLeaf("a", "1")})
	root := newRoot(tree)
	var order []string

	table := NewTable(map[string][]Operator{
		Prologue: {func(path node.Path, ctx *Context) { order = append(order, "<"+path.Last().Name) }},
		Epilogue: {func(path node.Path, ctx *Context) { order = append(order, ">"+path.Last().Name) }},
	})
	Transform(root, table)

	assert.Equal(t, []string{"<a", ">a", "<root", ">root"}, order)
}

func Test_NewTable_expandsCommaSugar(t *testing.T) {
	op := func(path node.Path, ctx *Context) {}
	raw := map[string][]Operator{"A,B, C": {op}}

	table := NewTable(raw)

	assert.Contains(t, table, "A")
	assert.Contains(t, table, "B")
	assert.Contains(t, table, "C")
}

func Test_ReplaceBySingleChild_promotesOnlyChild(t *testing.T) {
	tree := node.NewInner("wrapper", []*node.Node{node.NewLeaf("NUMBER", "42")})
	root := newRoot(tree)

	Transform(root, NewTable(map[string][]Operator{"wrapper": {ReplaceBySingleChild}}))

	assert.Equal(t, "NUMBER", root.Name)
	assert.True(t, root.IsLeaf())
	assert.Equal(t, "42", root.Content())
}

func Test_ReduceSingleChild_keepsOwnName(t *testing.T) {
	tree := node.NewInner("wrapper", []*node.Node{node.NewLeaf("NUMBER", "42")})
	root := newRoot(tree)

	Transform(root, NewTable(map[string][]Operator{"wrapper": {ReduceSingleChild}}))

	assert.Equal(t, "wrapper", root.Name)
	assert.Equal(t, "42", root.Content())
}

func Test_Flatten_splicesMatchingChildrenUpOneLevel(t *testing.T) {
	inner := node.NewInner(":group", []*node.Node{node.NewLeaf("a", "1"), node.NewLeaf("b", "2")})
	tree := node.NewInner("seq", []*node.Node{inner, node.NewLeaf("c", "3")})
	root := newRoot(tree)

	Transform(root, NewTable(map[string][]Operator{"seq": {Flatten(IsAnonymous)}}))

	var names []string
	for _, c := range root.Children() {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"a", "b", "c"}, names)
}

func Test_Collapse_flattensSubtreeToSingleLeaf(t *testing.T) {
	tree := node.NewInner("expr", []*node.Node{
		node.NewLeaf("NUMBER", "1"),
		node.NewLeaf(":op", "+"),
		node.NewLeaf("NUMBER", "2"),
	})
	root := newRoot(tree)

	Transform(root, NewTable(map[string][]Operator{"expr": {Collapse}}))

	assert.True(t, root.IsLeaf())
	assert.Equal(t, "1+2", root.Content())
}

func Test_MergeAdjacent_mergesConsecutiveLeaves(t *testing.T) {
	tree := node.NewInner("text", []*node.Node{
		node.NewLeaf(":c", "a"),
		node.NewLeaf(":c", "b"),
		node.NewInner("kept", []*node.Node{node.NewLeaf(":c", "x")}),
		node.NewLeaf(":c", "c"),
	})
	root := newRoot(tree)

	Transform(root, NewTable(map[string][]Operator{"text": {MergeAdjacent}}))

	assert.Equal(t, 3, root.NumChildren())
	assert.Equal(t, "ab", root.Children()[0].Content())
	assert.Equal(t, "kept", root.Children()[1].Name)
	assert.Equal(t, "c", root.Children()[2].Content())
}

func Test_RemoveBrackets_dropsLeadingAndTrailingAnonymousLeaves(t *testing.T) {
	tree := node.NewInner("group", []*node.Node{
		node.NewLeaf(":paren", "("),
		node.NewLeaf("NUMBER", "42"),
		node.NewLeaf(":paren", ")"),
	})
	root := newRoot(tree)

	Transform(root, NewTable(map[string][]Operator{"group": {RemoveBrackets}}))

	assert.Equal(t, 1, root.NumChildren())
	assert.Equal(t, "NUMBER", root.Children()[0].Name)
}

func Test_Strip_removesMatchingLeadingAndTrailingChildren(t *testing.T) {
	tree := node.NewInner("list", []*node.Node{
		node.NewLeaf(":ws", " "),
		node.NewLeaf("NUMBER", "1"),
		node.NewLeaf(":ws", " "),
	})
	root := newRoot(tree)

	Transform(root, NewTable(map[string][]Operator{"list": {Strip(IsAnonymous)}}))

	assert.Equal(t, 1, root.NumChildren())
	assert.Equal(t, "NUMBER", root.Children()[0].Name)
}

func Test_RemoveContent_deletesMatches(t *testing.T) {
	tree := node.NewLeaf("TEXT", "a1b2c3")
	root := newRoot(tree)

	Transform(root, NewTable(map[string][]Operator{"TEXT": {RemoveContent(regexp.MustCompile(`[0-9]`))}}))

	assert.Equal(t, "abc", root.Content())
}

func Test_ChangeName_renames(t *testing.T) {
	tree := node.NewLeaf("old", "v")
	root := newRoot(tree)

	Transform(root, NewTable(map[string][]Operator{"old": {ChangeName("new")}}))

	assert.Equal(t, "new", root.Name)
}

func Test_TransformContent_appliesFunction(t *testing.T) {
	tree := node.NewLeaf("WORD", "hello")
	root := newRoot(tree)

	Transform(root, NewTable(map[string][]Operator{"WORD": {
		TransformContent(func(s string) string { return s + "!" }),
	}}))

	assert.Equal(t, "hello!", root.Content())
}

func Test_ApplyIf_runsOnlyWhenPredicateHolds(t *testing.T) {
	tree := node.NewLeaf("EMPTY", "")
	root := newRoot(tree)
	ran := false

	table := NewTable(map[string][]Operator{"EMPTY": {
		ApplyIf([]Operator{func(path node.Path, ctx *Context) { ran = true }}, IsEmpty),
	}})
	Transform(root, table)

	assert.True(t, ran)
}

func Test_ApplyIfElse_choosesBranch(t *testing.T) {
	tree := node.NewLeaf("X", "v")
	root := newRoot(tree)
	branch := ""

	table := NewTable(map[string][]Operator{"X": {
		ApplyIfElse(
			[]Operator{func(path node.Path, ctx *Context) { branch = "then" }},
			[]Operator{func(path node.Path, ctx *Context) { branch = "else" }},
			IsEmpty,
		),
	}})
	Transform(root, table)

	assert.Equal(t, "else", branch)
}

func Test_AddError_appendsToContextCatalog(t *testing.T) {
	tree := node.NewLeaf("BAD", "x")
	root := newRoot(tree)

	table := NewTable(map[string][]Operator{"BAD": {AddError("bad token", perror.Warning)}})
	Transform(root, table)

	require.Equal(t, 1, root.Errors.Len())
	assert.Equal(t, perror.Warning, root.Errors.All()[0].Severity)
}

func Test_Predicates_hasAncestorAndHasChild(t *testing.T) {
	tree := node.NewInner("document", []*node.Node{
		node.NewInner("term", []*node.Node{node.NewLeaf("NUMBER", "1")}),
	})
	root := newRoot(tree)
	var sawAncestor, sawChild bool

	table := NewTable(map[string][]Operator{
		"NUMBER": {func(path node.Path, ctx *Context) {
			sawAncestor = HasAncestor("document")(path)
		}},
		"term": {func(path node.Path, ctx *Context) {
			sawChild = HasChild("NUMBER")(path)
		}},
	})
	Transform(root, table)

	assert.True(t, sawAncestor)
	assert.True(t, sawChild)
}

func Test_ReplaceBySingleChild_notesMismatchOnWrongChildCount(t *testing.T) {
	tree := node.NewInner("wrapper", []*node.Node{node.NewLeaf("a", "1"), node.NewLeaf("b", "2")})
	root := newRoot(tree)

	Transform(root, NewTable(map[string][]Operator{"wrapper": {ReplaceBySingleChild}}))

	assert.Equal(t, "wrapper", root.Name)
	require.Equal(t, 1, root.Errors.Len())
	assert.Equal(t, perror.Note, root.Errors.All()[0].Severity)
}

func Test_ReduceSingleChild_notesMismatchOnNoChildren(t *testing.T) {
	tree := node.NewInner("wrapper", nil)
	root := newRoot(tree)

	Transform(root, NewTable(map[string][]Operator{"wrapper": {ReduceSingleChild}}))

	require.Equal(t, 1, root.Errors.Len())
	assert.Equal(t, perror.Note, root.Errors.All()[0].Severity)
}

func Test_ReduceSingleChild_mismatchNotesAreDiscardedBelowMinSeverity(t *testing.T) {
	tree := node.NewInner("wrapper", nil)
	root := newRoot(tree)
	root.Errors.MinSeverity = perror.Warning

	Transform(root, NewTable(map[string][]Operator{"wrapper": {ReduceSingleChild}}))

	assert.Equal(t, 0, root.Errors.Len())
}

func Test_Rewrite_mutatesAcrossAncestors(t *testing.T) {
	grandchild := node.NewLeaf("NUMBER", "1")
	child := node.NewInner("term", []*node.Node{grandchild})
	tree := node.NewInner("expr", []*node.Node{child})
	root := newRoot(tree)

	Rewrite(root, func(r *node.Root) {
		r.SetChildren([]*node.Node{grandchild})
	})

	require.Len(t, root.Children(), 1)
	assert.Equal(t, "NUMBER", root.Children()[0].Name)
}
