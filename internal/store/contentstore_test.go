package store

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/theater-rt/theater/internal/theaterid"
	"pgregory.net/rapid"
)

func newTestStore(t *testing.T) *diskStore {
	t.Helper()

	ds, err := newDiskStore(t.TempDir())
	require.NoError(t, err)

	return ds
}

// TestStoreIdempotence covers spec §8 property 3: storing identical bytes
// twice returns the same ContentRef, and reading it back returns the
// original bytes.
func TestStoreIdempotence(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		ds := newTestStore(t)

		data := rapid.SliceOf(rapid.Byte()).Draw(t, "data")

		ref1, err := ds.store(data)
		if err != nil {
			t.Fatalf("first store: %v", err)
		}

		ref2, err := ds.store(data)
		if err != nil {
			t.Fatalf("second store: %v", err)
		}

		if ref1 != ref2 {
			t.Fatalf("storing identical bytes produced different refs: %s != %s",
				ref1, ref2)
		}

		got, err := ds.get(ref1)
		if err != nil {
			t.Fatalf("get: %v", err)
		}

		if len(got) != len(data) {
			t.Fatalf("round-tripped data has different length: got %d, want %d",
				len(got), len(data))
		}
		for i := range got {
			if got[i] != data[i] {
				t.Fatalf("round-tripped data differs at byte %d", i)
			}
		}
	})
}

func TestGetUnknownRefReturnsNotFound(t *testing.T) {
	t.Parallel()

	ds := newTestStore(t)

	_, err := ds.get(theaterid.HashContent([]byte("never stored")))
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestExistsReflectsStoreState(t *testing.T) {
	t.Parallel()

	ds := newTestStore(t)

	ref := theaterid.HashContent([]byte("hello"))
	require.False(t, ds.exists(ref))

	stored, err := ds.store([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, ref, stored)
	require.True(t, ds.exists(ref))
}

// TestLabelSetSemantics covers spec §8 property 4: a label's membership is
// set-like — labeling the same ref twice doesn't duplicate it, and removal
// is the inverse of labeling.
func TestLabelSetSemantics(t *testing.T) {
	t.Parallel()

	ds := newTestStore(t)

	ref, err := ds.store([]byte("payload"))
	require.NoError(t, err)

	label := theaterid.Label("some-label")

	require.NoError(t, ds.label(label, ref))
	require.NoError(t, ds.label(label, ref))
	require.Equal(t, []theaterid.ContentRef{ref}, ds.getByLabel(label))

	require.NoError(t, ds.removeFromLabel(label, ref))
	require.Empty(t, ds.getByLabel(label))
}

func TestReplaceAtLabelDiscardsPriorMembership(t *testing.T) {
	t.Parallel()

	ds := newTestStore(t)
	label := theaterid.Label("head")

	_, err := ds.putAtLabel(label, []byte("v1"))
	require.NoError(t, err)

	ref2, err := ds.replaceAtLabel(label, []byte("v2"))
	require.NoError(t, err)

	require.Equal(t, []theaterid.ContentRef{ref2}, ds.getByLabel(label))
}

func TestListLabelsIsSortedAndComplete(t *testing.T) {
	t.Parallel()

	ds := newTestStore(t)

	for _, l := range []theaterid.Label{"zeta", "alpha", "mu"} {
		_, err := ds.putAtLabel(l, []byte(l))
		require.NoError(t, err)
	}

	require.Equal(t, []theaterid.Label{"alpha", "mu", "zeta"}, ds.listLabels())
}

func TestLabelsPersistAcrossReopen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	ds, err := newDiskStore(dir)
	require.NoError(t, err)

	ref, err := ds.putAtLabel("chain/head", []byte("event-1"))
	require.NoError(t, err)

	reopened, err := newDiskStore(dir)
	require.NoError(t, err)

	require.Equal(t, []theaterid.ContentRef{ref}, reopened.getByLabel("chain/head"))
}

func TestTotalSizeSumsStoredContent(t *testing.T) {
	t.Parallel()

	ds := newTestStore(t)

	_, err := ds.store([]byte("abc"))
	require.NoError(t, err)
	_, err = ds.store([]byte("defgh"))
	require.NoError(t, err)

	// Storing identical bytes twice must not double-count.
	_, err = ds.store([]byte("abc"))
	require.NoError(t, err)

	total, err := ds.totalSize()
	require.NoError(t, err)
	require.Equal(t, uint64(8), total)
}

func TestCorruptedContentFileDetected(t *testing.T) {
	t.Parallel()

	ds := newTestStore(t)

	ref, err := ds.store([]byte("original"))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(ds.dataPath(ref), []byte("tampered"), 0o644))

	_, err = ds.get(ref)
	require.True(t, errors.Is(err, ErrStoreCorruption))
}
