package parse

import (
	"regexp"
	"testing"

	"github.com/dekarrin/parsekit/parser"
	"github.com/dekarrin/parsekit/perror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildLeftRecursiveArithmetic(t *testing.T) *parser.Grammar {
	t.Helper()
	g := parser.New("")
	num := g.NewRegex(regexp.MustCompile(`[0-9]+`))
	require.NoError(t, g.Assign("NUMBER", num))

	efwd := g.NewForward()
	plus := g.NewLiteral("+")
	seq := g.NewSequence(efwd, plus, num)
	alt := g.NewAlternative(seq, num)
	require.NoError(t, g.Assign("E", alt))
	require.NoError(t, g.Set(efwd, alt))
	g.SetRoot(alt)
	require.NoError(t, g.Freeze())
	return g
}

func Test_Parse_leftRecursiveArithmetic_consumesWholeInput(t *testing.T) {
	g := buildLeftRecursiveArithmetic(t)

	root, err := Parse(g, "1+2+3")

	require.NoError(t, err)
	assert.Equal(t, "1+2+3", root.Content())
	assert.Equal(t, 0, root.Errors.Len())
}

func Test_Parse_leftRecursiveArithmetic_singleNumber(t *testing.T) {
	g := buildLeftRecursiveArithmetic(t)

	root, err := Parse(g, "42")

	require.NoError(t, err)
	assert.Equal(t, "42", root.Content())
}

func buildMandatoryGroup(t *testing.T, resume *parser.ResumePattern) *parser.Grammar {
	t.Helper()
	g := parser.New("")
	open := g.NewLiteral("(")
	num := g.NewRegex(regexp.MustCompile(`[0-9]+`))
	closeLit := g.NewLiteral(")")
	closeReq := g.Required(closeLit)
	if resume != nil {
		g.SetResume(closeReq, resume)
	}
	seq := g.NewSequence(open, num, closeReq)
	require.NoError(t, g.Assign("GROUP", seq))
	g.SetRoot(seq)
	require.NoError(t, g.Freeze())
	return g
}

func Test_Parse_mandatoryMarker_missingCloseReportsErrorButSucceeds(t *testing.T) {
	g := buildMandatoryGroup(t, nil)

	root, err := Parse(g, "(42")

	require.NoError(t, err)
	require.Equal(t, 1, root.Errors.Len())
	errs := root.Errors.All()
	assert.Equal(t, "mandatory-missing", errs[0].Code)
}

func Test_Parse_mandatoryMarker_presentCloseHasNoError(t *testing.T) {
	g := buildMandatoryGroup(t, nil)

	root, err := Parse(g, "(42)")

	require.NoError(t, err)
	assert.Equal(t, 0, root.Errors.Len())
	assert.Equal(t, "(42)", root.Content())
}

func Test_Parse_mandatoryMarker_beforeFirstMandatoryElementIsOrdinaryNoMatch(t *testing.T) {
	g := buildMandatoryGroup(t, nil)

	_, err := Parse(g, "xyz")

	assert.Error(t, err)
}

func Test_Parse_mandatoryMarker_resumePatternRecoversTheEnclosingSequence(t *testing.T) {
	resume := &parser.ResumePattern{Literal: ";"}
	g := buildMandatoryGroup(t, resume)

	root, err := Parse(g, "(42;")

	require.NoError(t, err)
	require.Equal(t, 1, root.Errors.Len())
	assert.Equal(t, "mandatory-missing", root.Errors.All()[0].Code)
	assert.Equal(t, 3, root.Errors.All()[0].Pos)
}

func buildQuotedLiteral(t *testing.T) *parser.Grammar {
	t.Helper()
	g := parser.New("")
	lit1 := g.NewLiteral("'")
	lit2 := g.NewLiteral(`"`)
	quoteAlt := g.NewAlternative(lit1, lit2)
	capturedQuote := g.NewCapture("quote", quoteAlt)
	body := g.NewRegex(regexp.MustCompile(`[^'"]*`))
	closing := g.NewPop("quote", nil)
	seq := g.NewSequence(capturedQuote, body, closing)
	require.NoError(t, g.Assign("QUOTED", seq))
	g.SetRoot(seq)
	require.NoError(t, g.Freeze())
	return g
}

func Test_Parse_captureAndPop_matchingDelimiters(t *testing.T) {
	g := buildQuotedLiteral(t)

	root, err := Parse(g, `"hello"`)

	require.NoError(t, err)
	assert.Equal(t, `"hello"`, root.Content())
}

func Test_Parse_captureAndPop_mismatchedDelimitersFail(t *testing.T) {
	g := buildQuotedLiteral(t)

	_, err := Parse(g, `"hello'`)

	assert.Error(t, err)
}

func Test_Parse_unparsedRemainderReportsError(t *testing.T) {
	g := parser.New("")
	lit := g.NewLiteral("a")
	g.SetRoot(lit)
	require.NoError(t, g.Freeze())

	root, err := Parse(g, "ab")

	require.NoError(t, err)
	require.Equal(t, 1, root.Errors.Len())
	assert.Equal(t, 1, root.Errors.All()[0].Pos)
}

func Test_Parse_withMinSeverityDiscardsBelowThreshold(t *testing.T) {
	g := parser.New("")
	lit := g.NewLiteral("a")
	g.SetRoot(lit)
	require.NoError(t, g.Freeze())

	root, err := Parse(g, "ab", WithMinSeverity(perror.Fatal))

	require.NoError(t, err)
	assert.Equal(t, 0, root.Errors.Len())
}

func Test_Parse_withMinSeverityKeepsAtOrAboveThreshold(t *testing.T) {
	g := parser.New("")
	lit := g.NewLiteral("a")
	g.SetRoot(lit)
	require.NoError(t, g.Freeze())

	root, err := Parse(g, "ab", WithMinSeverity(perror.Error))

	require.NoError(t, err)
	require.Equal(t, 1, root.Errors.Len())
}

func Test_Parse_deadlineAbortsLongAlternativeChain(t *testing.T) {
	g := parser.New("")
	branches := make([]parser.ID, 0, 5)
	for i := 0; i < 5; i++ {
		branches = append(branches, g.NewLiteral(string(rune('a'+i))))
	}
	alt := g.NewAlternative(branches...)
	g.SetRoot(alt)
	require.NoError(t, g.Freeze())

	calls := 0
	d := New(g, "z", WithDeadline(func() bool {
		calls++
		return true
	}))
	_, err := d.Run()

	assert.Error(t, err)
	assert.True(t, calls > 0)
}
