package catalog

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryCatalogRoundTrip(t *testing.T) {
	c, err := NewMemory()
	require.NoError(t, err)
	defer c.Close()

	_, _, ok, err := c.Get(0, 10, 100)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.Put(0, 10, 100, []byte{1, 2, 3}))

	meta, chunk, ok, err := c.Get(0, 10, 100)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, ChunkMeta{SeriesKey: 0, Start: 10, Stop: 100}, meta)
	require.Equal(t, []byte{1, 2, 3}, chunk)
}

func TestCatalogReturnsGreatestStartAmongOverlapping(t *testing.T) {
	c, err := NewMemory()
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Put(0, 1, 9, []byte{2}))
	require.NoError(t, c.Put(0, 0, 50, []byte{5, 6}))
	require.NoError(t, c.Put(0, 50, 200, []byte{5, 6}))
	require.NoError(t, c.Put(0, 10, 100, nil))
	require.NoError(t, c.Put(0, 0, 1000, []byte{1}))

	_, chunk, ok, err := c.Get(0, 10, 100)
	require.NoError(t, err)
	require.True(t, ok)
	require.Empty(t, chunk)
}

func TestCatalogSeparatesSeries(t *testing.T) {
	c, err := NewMemory()
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Put(1, 0, 100, []byte{9}))

	_, _, ok, err := c.Get(2, 0, 100)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPathCatalogPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kelpie.db")

	c, err := NewPath(path)
	require.NoError(t, err)
	require.NoError(t, c.Put(0, 0, 100, []byte{7, 8}))
	require.NoError(t, c.Close())

	reopened, err := NewPath(path)
	require.NoError(t, err)
	defer reopened.Close()

	_, chunk, ok, err := reopened.Get(0, 0, 100)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte{7, 8}, chunk)
}

func TestGetChunkErrorWrapsDriverSentinel(t *testing.T) {
	c, err := NewMemory()
	require.NoError(t, err)
	require.NoError(t, c.Close())

	_, _, _, err = c.Get(0, 0, 100)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrDriver))
}

func TestSetChunkErrorWrapsDriverSentinel(t *testing.T) {
	c, err := NewMemory()
	require.NoError(t, err)
	require.NoError(t, c.Close())

	err = c.Put(0, 0, 100, []byte{1})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrDriver))
}
