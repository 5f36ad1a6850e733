package keycache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPutGet(t *testing.T) {
	c, err := OpenDir(t.TempDir())
	require.NoError(t, err)

	key := Key("json", []byte(`{"a":{"b":1}}`))
	keys, ok, err := c.Get(key, "json")
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, keys)

	require.NoError(t, c.Put(key, "json", []string{"a", "a.b"}))
	keys, ok, err = c.Get(key, "json")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []string{"a", "a.b"}, keys)
}

func TestModeMismatchMisses(t *testing.T) {
	c, err := OpenDir(t.TempDir())
	require.NoError(t, err)
	key := Key("yaml-special:key", []byte("key: a\n"))
	require.NoError(t, c.Put(key, "yaml-special:key", []string{"a"}))

	_, ok, err := c.Get(key, "yaml-nested")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestKeyDependsOnMode(t *testing.T) {
	content := []byte("key: a\n")
	require.NotEqual(t, Key("a", content), Key("b", content))
	require.Equal(t, Key("a", content), Key("a", content))
}

func TestDropAll(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	c, err := OpenDir(dir)
	require.NoError(t, err)
	key := Key("json", []byte(`{}`))
	require.NoError(t, c.Put(key, "json", []string{}))
	require.NoError(t, c.DropAll())

	_, ok, err := c.Get(key, "json")
	require.NoError(t, err)
	require.False(t, ok)
	_, err = os.Stat(dir)
	require.NoError(t, err)
}

func TestNilCache(t *testing.T) {
	var c *Cache
	require.NoError(t, c.Put(Digest{}, "json", []string{"a"}))
	_, ok, err := c.Get(Digest{}, "json")
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, c.DropAll())
}
