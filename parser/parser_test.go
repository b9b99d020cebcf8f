package parser

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Freeze_rejectsUnsetForwardReference(t *testing.T) {
	g := New("")
	fwd := g.NewForward()
	g.SetRoot(fwd)

	err := g.Freeze()

	assert.Error(t, err)
	assert.False(t, g.IsFrozen())
}

func Test_Freeze_bindsForwardReferenceAndSucceeds(t *testing.T) {
	g := New("")
	fwd := g.NewForward()
	num := g.NewRegex(regexp.MustCompile(`[0-9]+`))
	require.NoError(t, g.Set(fwd, num))
	g.SetRoot(fwd)

	require.NoError(t, g.Freeze())
	assert.True(t, g.IsFrozen())
}

func Test_Set_errorsOnDoubleBind(t *testing.T) {
	g := New("")
	fwd := g.NewForward()
	a := g.NewLiteral("a")
	b := g.NewLiteral("b")

	require.NoError(t, g.Set(fwd, a))
	assert.Error(t, g.Set(fwd, b))
}

func Test_Assign_errorsOnSymbolReuse(t *testing.T) {
	g := New("")
	a := g.NewLiteral("a")
	b := g.NewLiteral("b")

	require.NoError(t, g.Assign("FOO", a))
	assert.Error(t, g.Assign("FOO", b))
}

func Test_Assign_errorsOnReassigningSameParser(t *testing.T) {
	g := New("")
	a := g.NewLiteral("a")

	require.NoError(t, g.Assign("FOO", a))
	assert.Error(t, g.Assign("BAR", a))
}

func Test_Disposable_anonymousAlwaysDisposable(t *testing.T) {
	g := New("")
	a := g.NewLiteral("a")
	g.SetRoot(a)
	require.NoError(t, g.Freeze())

	assert.True(t, g.Get(a).Disposable())
}

func Test_Disposable_namedFollowsPattern(t *testing.T) {
	g := New("")
	a := g.NewLiteral("a")
	require.NoError(t, g.Assign("NUMBER", a))
	hidden := g.NewLiteral("b")
	require.NoError(t, g.Assign(":helper", hidden))
	seq := g.NewSequence(a, hidden)
	g.SetRoot(seq)
	require.NoError(t, g.Freeze())

	assert.False(t, g.Get(a).Disposable())
	assert.True(t, g.Get(hidden).Disposable())
}

func Test_Freeze_rejectsDropOfNonDisposableChild(t *testing.T) {
	g := New("")
	a := g.NewLiteral("a")
	require.NoError(t, g.Assign("NAMED", a))
	drop := g.NewDrop(a)
	g.SetRoot(drop)

	err := g.Freeze()
	assert.Error(t, err)
}

func Test_Freeze_acceptsDropOfDisposableChild(t *testing.T) {
	g := New("")
	ws := g.NewRegex(regexp.MustCompile(`\s+`))
	drop := g.NewDrop(ws)
	g.SetRoot(drop)

	assert.NoError(t, g.Freeze())
}

func Test_Freeze_rejectsUnguardedZeroOrMore(t *testing.T) {
	g := New("")
	opt := g.NewOption(g.NewLiteral("x")) // nullable
	rep := g.NewZeroOrMore(opt)
	g.SetRoot(rep)

	err := g.Freeze()
	assert.Error(t, err)
}

func Test_Freeze_acceptsGuardedOneOrMore(t *testing.T) {
	g := New("")
	digit := g.NewCharRange('0', '9')
	rep := g.NewOneOrMore(digit)
	g.SetRoot(rep)

	assert.NoError(t, g.Freeze())
}

func Test_Nullable_propagatesThroughSequenceAndAlternative(t *testing.T) {
	g := New("")
	a := g.NewLiteral("a")
	opt := g.NewOption(a)
	seq := g.NewSequence(opt, opt) // both nullable -> sequence nullable
	alt := g.NewAlternative(a, opt)
	g.SetRoot(g.NewSequence(seq, alt))

	require.NoError(t, g.Freeze())
	assert.True(t, g.Get(seq).Nullable())
	assert.True(t, g.Get(alt).Nullable())
	assert.False(t, g.Get(a).Nullable())
}

func Test_Stateful_propagatesFromCaptureToAncestors(t *testing.T) {
	g := New("")
	a := g.NewLiteral("a")
	cap := g.NewCapture("quote", a)
	seq := g.NewSequence(cap, g.NewLiteral("b"))
	g.SetRoot(seq)

	require.NoError(t, g.Freeze())
	assert.True(t, g.Get(cap).Stateful())
	assert.True(t, g.Get(seq).Stateful())
	assert.False(t, g.Get(a).Stateful())
}

func Test_EquivalenceClasses_sharedForStructurallyIdenticalParsers(t *testing.T) {
	g := New("")
	left := g.NewLiteral("x")
	right := g.NewLiteral("x")
	g.SetRoot(g.NewSequence(left, right))

	require.NoError(t, g.Freeze())
	assert.Equal(t, g.Get(left).EquivalenceClass(), g.Get(right).EquivalenceClass())
}

func Test_EquivalenceClasses_differForDifferentLiterals(t *testing.T) {
	g := New("")
	left := g.NewLiteral("x")
	right := g.NewLiteral("y")
	g.SetRoot(g.NewSequence(left, right))

	require.NoError(t, g.Freeze())
	assert.NotEqual(t, g.Get(left).EquivalenceClass(), g.Get(right).EquivalenceClass())
}

func Test_EquivalenceClasses_survivesCycleThroughForwardReference(t *testing.T) {
	g := New("")
	fwd := g.NewForward()
	end := g.NewLiteral(")")
	body := g.NewAlternative(g.NewSequence(g.NewLiteral("("), fwd, end), g.NewLiteral("x"))
	require.NoError(t, g.Set(fwd, body))
	g.SetRoot(body)

	require.NoError(t, g.Freeze())
	assert.NotEmpty(t, g.Get(body).EquivalenceClass())
}

func Test_EquivalenceClasses_differForSameStructureDifferentSymbol(t *testing.T) {
	g := New("")
	left := g.NewLiteral("x")
	right := g.NewLiteral("x")
	require.NoError(t, g.Assign("A", left))
	require.NoError(t, g.Assign("B", right))
	g.SetRoot(g.NewSequence(left, right))

	require.NoError(t, g.Freeze())
	assert.NotEqual(t, g.Get(left).EquivalenceClass(), g.Get(right).EquivalenceClass())
}

func Test_Freeze_isIdempotent(t *testing.T) {
	g := New("")
	g.SetRoot(g.NewLiteral("x"))

	require.NoError(t, g.Freeze())
	require.NoError(t, g.Freeze())
}

func Test_Freeze_errorsWithoutRoot(t *testing.T) {
	g := New("")
	g.NewLiteral("x")

	assert.Error(t, g.Freeze())
}

func Test_Tag_fallsBackToAnonymousUntilAssigned(t *testing.T) {
	g := New("")
	a := g.NewLiteral("x")

	assert.Equal(t, ":1", g.Get(a).Tag())

	require.NoError(t, g.Assign("NAME", a))
	assert.Equal(t, "NAME", g.Get(a).Tag())
}
