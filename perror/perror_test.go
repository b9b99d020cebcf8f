package perror

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Catalog_dedupesByPositionAndCode(t *testing.T) {
	c := NewCatalog()

	c.Append(New(5, Error, "unexpected token").WithCode("E001"))
	c.Append(New(5, Error, "unexpected token (again)").WithCode("E001"))
	c.Append(New(5, Error, "different code").WithCode("E002"))

	assert.Equal(t, 2, c.Len())
}

func Test_Catalog_All_sortsByPosition(t *testing.T) {
	c := NewCatalog()
	c.Append(New(10, Error, "second"))
	c.Append(New(1, Error, "first"))
	c.Append(New(5, Error, "middle"))

	all := c.All()

	assert.Equal(t, []int{1, 5, 10}, []int{all[0].Pos, all[1].Pos, all[2].Pos})
}

func Test_Catalog_HasSeverity(t *testing.T) {
	c := NewCatalog()
	c.Append(New(0, Note, "fyi"))

	assert.False(t, c.HasSeverity(Error))

	c.Append(New(1, Fatal, "boom"))
	assert.True(t, c.HasSeverity(Error))
}

func Test_Err_FullMessage_withCursor(t *testing.T) {
	e := New(12, Error, "unexpected '.'").WithSourceContext(2, 9, "one two. three")

	msg := e.FullMessage()

	assert.Contains(t, msg, "one two. three")
	assert.Contains(t, msg, "^")
	assert.Contains(t, msg, "line 2, char 9")
}

func Test_Catalog_Merge_respectsDedup(t *testing.T) {
	a := NewCatalog()
	a.Append(New(1, Error, "a").WithCode("X"))

	b := NewCatalog()
	b.Append(New(1, Error, "a-dup").WithCode("X"))
	b.Append(New(2, Error, "b").WithCode("Y"))

	a.Merge(b)

	assert.Equal(t, 2, a.Len())
}

func Test_Catalog_Append_discardsBelowMinSeverity(t *testing.T) {
	c := NewCatalog()
	c.MinSeverity = Warning

	c.Append(New(0, Note, "too quiet to keep"))
	c.Append(New(0, Warning, "at threshold"))
	c.Append(New(0, Error, "above threshold"))

	assert.Equal(t, 2, c.Len())
	for _, e := range c.All() {
		assert.GreaterOrEqual(t, int(e.Severity), int(Warning))
	}
}

func Test_Catalog_Append_zeroValueMinSeverityKeepsEverything(t *testing.T) {
	c := NewCatalog()

	c.Append(New(0, Note, "a note"))

	assert.Equal(t, 1, c.Len())
}
