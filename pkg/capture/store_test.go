package capture

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScreenshotFile(t *testing.T, dir string, n int) string {
	t.Helper()
	path := filepath.Join(dir, fmt.Sprintf("screenshot_%d.jpg", n))
	require.NoError(t, os.WriteFile(path, []byte("jpeg-bytes"), 0o644))
	return path
}

func TestStoreFIFOEviction(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(10, nil)

	var paths []string
	for i := 0; i < 15; i++ {
		p := writeScreenshotFile(t, dir, i)
		paths = append(paths, p)
		store.Add(p, time.Now())

		want := i + 1
		if want > 10 {
			want = 10
		}
		assert.Equal(t, want, store.Count(), "size must be min(count, k)")
	}

	records := store.Records()
	require.Len(t, records, 10)

	// The retained records are exactly the 10 most recent by sequence.
	for i, rec := range records {
		assert.Equal(t, uint64(i+6), rec.Sequence)
		assert.Equal(t, paths[i+5], rec.Path)
	}

	// Evicted files are deleted; retained files still exist.
	for i, p := range paths {
		_, err := os.Stat(p)
		if i < 5 {
			assert.True(t, os.IsNotExist(err), "evicted file %d should be deleted", i)
		} else {
			assert.NoError(t, err, "retained file %d should exist", i)
		}
	}
}

func TestStoreEvictionIOFailureIsNonFatal(t *testing.T) {
	store := NewStore(1, nil)

	// Paths that no longer exist: deletion fails silently.
	store.Add("/nonexistent/one.jpg", time.Now())
	assert.NotPanics(t, func() {
		store.Add("/nonexistent/two.jpg", time.Now())
	})
	assert.Equal(t, 1, store.Count())

	latest, ok := store.Latest()
	require.True(t, ok)
	assert.Equal(t, "/nonexistent/two.jpg", latest.Path)
}

func TestStoreSequenceStrictlyIncreasing(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(3, nil)

	var last uint64
	for i := 0; i < 8; i++ {
		next := store.NextSequence()
		rec := store.Add(writeScreenshotFile(t, dir, i), time.Now())
		assert.Equal(t, next, rec.Sequence, "NextSequence should predict the assigned sequence")
		assert.Greater(t, rec.Sequence, last, "sequence must strictly increase")
		last = rec.Sequence
	}
}

func TestStoreLatestEmpty(t *testing.T) {
	store := NewStore(5, nil)

	_, ok := store.Latest()
	assert.False(t, ok, "empty store has no latest record")
	assert.Equal(t, 0, store.Count())
}
