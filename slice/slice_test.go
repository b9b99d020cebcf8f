package slice

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Cut_preservesAbsoluteOffsets(t *testing.T) {
	s := New("hello world")

	inner := s.Cut(6, 11)

	assert.Equal(t, 6, inner.Start())
	assert.Equal(t, 11, inner.End())
	assert.Equal(t, "world", inner.String())
}

func Test_Cut_negativeOffsetsCountFromEnd(t *testing.T) {
	s := New("hello world")

	inner := s.Cut(-5, -1)

	assert.Equal(t, "worl", inner.String())
}

func Test_Cut_ofCut_staysAbsolute(t *testing.T) {
	s := New("0123456789")

	mid := s.Cut(2, 8)  // "234567"
	inner := mid.Cut(1, 3) // relative to mid -> "34"

	assert.Equal(t, "34", inner.String())
	assert.Equal(t, 3, inner.Start())
	assert.Equal(t, 5, inner.End())
}

func Test_Equal(t *testing.T) {
	s := New("abc")
	a := s.Cut(0, 2)
	b := s.Cut(0, 2)
	c := s.Cut(0, 1)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func Test_MatchRegexAt(t *testing.T) {
	s := New("123abc")
	re := regexp.MustCompile(`[0-9]+`)

	n := s.MatchRegexAt(re, 0)
	assert.Equal(t, 3, n)

	n = s.MatchRegexAt(re, 3)
	assert.Equal(t, -1, n)
}

func Test_MatchLiteralAt(t *testing.T) {
	s := New("function foo()")

	assert.Equal(t, 8, s.MatchLiteralAt("function", 0))
	assert.Equal(t, -1, s.MatchLiteralAt("function", 1))
}

func Test_MatchFoldAt(t *testing.T) {
	s := New("IF (x) THEN")

	assert.Equal(t, 2, s.MatchFoldAt("if", 0))
	assert.Equal(t, -1, s.MatchFoldAt("else", 0))
}

func Test_FindLiteral(t *testing.T) {
	s := New("the quick brown fox")

	idx := s.FindLiteral("brown", 0, -1)
	assert.Equal(t, 10, idx)

	idx = s.FindLiteral("missing", 0, -1)
	assert.Equal(t, -1, idx)
}

func Test_Replace(t *testing.T) {
	s := New("a1 b2 c3")
	re := regexp.MustCompile(`[0-9]`)

	got := s.Replace(re, "#")
	assert.Equal(t, "a# b# c#", got)
}

func Test_IsEmpty(t *testing.T) {
	s := New("")
	assert.True(t, s.IsEmpty())

	s2 := New("x")
	assert.False(t, s2.IsEmpty())
}
