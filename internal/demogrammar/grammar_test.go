package demogrammar

import (
	"testing"

	"github.com/dekarrin/parsekit/perror"
	"github.com/dekarrin/parsekit/parse"
	"github.com/dekarrin/parsekit/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Build_parsesSingleNumber(t *testing.T) {
	g, table := Build()
	root, err := parse.Parse(g, "42")
	require.NoError(t, err)
	require.NotNil(t, root)
	assert.False(t, root.Errors.HasSeverity(perror.Note))

	ast := transform.Transform(root, table)
	assert.Equal(t, "Sum", ast.Name)
	require.Len(t, ast.Children(), 1)
	assert.Equal(t, "Number", ast.Children()[0].Name)
	assert.Equal(t, "42", ast.Children()[0].Content())
}

func Test_Build_parsesMultiTermSum(t *testing.T) {
	g, table := Build()
	root, err := parse.Parse(g, "12 + 7 + 100")
	require.NoError(t, err)
	require.NotNil(t, root)

	ast := transform.Transform(root, table)
	require.Len(t, ast.Children(), 3)
	assert.Equal(t, "12", ast.Children()[0].Content())
	assert.Equal(t, "7", ast.Children()[1].Content())
	assert.Equal(t, "100", ast.Children()[2].Content())
}

func Test_Build_rejectsTrailingGarbage(t *testing.T) {
	g, _ := Build()
	root, err := parse.Parse(g, "12 + ")
	if root != nil {
		assert.True(t, root.Errors.Len() > 0 || err != nil)
	} else {
		assert.Error(t, err)
	}
}
