package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash_IsDeterministicAndContentAddressed(t *testing.T) {
	a := Hash([]byte("print 1;"))
	b := Hash([]byte("print 1;"))
	c := Hash([]byte("print 2;"))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64) // hex-encoded BLAKE2b-256
}

func TestStore_AppendAndAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.cbor")
	store, err := Open(path)
	require.NoError(t, err)

	rec1 := Record{Hash: Hash([]byte("a")), Path: "a.wisp", Lines: 1, Errors: 0, At: time.Unix(100, 0).UTC()}
	rec2 := Record{Hash: Hash([]byte("b")), Path: "b.wisp", Lines: 2, Errors: 1, At: time.Unix(200, 0).UTC()}

	require.NoError(t, store.Append(rec1))
	require.NoError(t, store.Append(rec2))

	all, err := store.All()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, rec1.Hash, all[0].Hash)
	assert.Equal(t, rec2.Hash, all[1].Hash)
}

func TestStore_AllOnMissingFileIsEmptyNotError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.cbor")
	store, err := Open(path)
	require.NoError(t, err)

	all, err := store.All()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestStore_LastReturnsMostRecentFirst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.cbor")
	store, err := Open(path)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(Record{
			Hash: Hash([]byte{byte(i)}),
			At:   time.Unix(int64(i), 0).UTC(),
		}))
	}

	last, err := store.Last(2)
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, Hash([]byte{4}), last[0].Hash)
	assert.Equal(t, Hash([]byte{3}), last[1].Hash)
}

func TestStore_LastWithCountExceedingHistorySizeReturnsAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.cbor")
	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Append(Record{Hash: Hash([]byte("only"))}))

	last, err := store.Last(10)
	require.NoError(t, err)
	assert.Len(t, last, 1)
}

func TestDefaultPath_HonorsWispHistoryFileOverride(t *testing.T) {
	t.Setenv("WISP_HISTORY_FILE", "/tmp/custom-history.cbor")
	p, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom-history.cbor", p)
}
