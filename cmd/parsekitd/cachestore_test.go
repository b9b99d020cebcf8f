package main

import (
	"testing"

	"github.com/dekarrin/parsekit/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ParseStoreConnString_mem(t *testing.T) {
	for _, s := range []string{"mem", "", "MEM"} {
		store, err := parseStoreConnString(s)
		require.NoError(t, err)
		_, ok := store.(*cache.MemStore)
		assert.True(t, ok)
	}
}

func Test_ParseStoreConnString_sqliteRequiresPath(t *testing.T) {
	_, err := parseStoreConnString("sqlite")
	assert.Error(t, err)

	_, err = parseStoreConnString("sqlite:")
	assert.Error(t, err)
}

func Test_ParseStoreConnString_sqliteWithPath(t *testing.T) {
	dir := t.TempDir()
	store, err := parseStoreConnString("sqlite:" + dir)
	require.NoError(t, err)
	defer store.Close()
	_, ok := store.(*cache.SQLiteStore)
	assert.True(t, ok)
}

func Test_ParseStoreConnString_unknownDriver(t *testing.T) {
	_, err := parseStoreConnString("bogus:x")
	assert.Error(t, err)
}
