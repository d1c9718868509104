package dirtree_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nspcc-dev/seqtree/internal/testutil"
	"github.com/nspcc-dev/seqtree/pkg/local_object_storage/seqtree/common"
	"github.com/nspcc-dev/seqtree/pkg/local_object_storage/seqtree/dirtree"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestReload(t *testing.T) {
	for _, tc := range []struct {
		rng uint64
		n   uint64
	}{
		{rng: 2, n: 2},
		{rng: 2, n: 3},
		{rng: 3, n: 9},
		{rng: 3, n: 10},
		{rng: 3, n: 28},
		{rng: 10, n: 101},
		{rng: 10, n: 1000},
		{rng: 10, n: 1001},
	} {
		root := t.TempDir()
		tr := dirtree.New(root, tc.rng, perm, nil)
		fill(t, tr, tc.n)

		_, st, err := dirtree.Reload(root, dirtree.ReloadPrm{Range: tc.rng, Perm: perm})
		require.NoError(t, err)
		if diff := cmp.Diff(tr.State(tc.n), st); diff != "" {
			t.Fatalf("range %d, %d items (-want +got):\n%s", tc.rng, tc.n, diff)
		}

		if tr.Levels() > 1 {
			_, st, err = dirtree.Reload(root, dirtree.ReloadPrm{Perm: perm})
			require.NoError(t, err)
			require.Equal(t, tc.rng, st.Range)
			require.Equal(t, tc.n, st.NextID)
		}
	}
}

func TestReload_Continue(t *testing.T) {
	root := t.TempDir()
	tr := dirtree.New(root, 3, perm, nil)
	fill(t, tr, 5)

	tr, st, err := dirtree.Reload(root, dirtree.ReloadPrm{Perm: perm})
	require.NoError(t, err)
	require.EqualValues(t, 5, st.NextID)

	for id := st.NextID; id < 30; id++ {
		put(t, tr, id)
	}

	requireFanOut(t, root, 3)

	_, st, err = dirtree.Reload(root, dirtree.ReloadPrm{Perm: perm})
	require.NoError(t, err)
	require.EqualValues(t, 30, st.NextID)
	require.Equal(t, 4, st.Levels)
}

func TestReload_ReservedDirectories(t *testing.T) {
	root := t.TempDir()
	tr := dirtree.New(root, 10, perm, nil)

	for id := range uint64(1001) {
		_, err := tr.AddDir(id)
		require.NoError(t, err)
	}

	tr, st, err := dirtree.Reload(root, dirtree.ReloadPrm{Perm: perm})
	require.NoError(t, err)
	require.EqualValues(t, 1001, st.NextID)
	require.Equal(t, 4, st.Levels)
	require.Equal(t, []uint64{10000, 1000, 100, 10}, st.Capacities)

	ref, err := tr.AddDir(st.NextID)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "0", "1", "10", "100", "1001.d"), ref.Path)
}

func TestReload_Empty(t *testing.T) {
	root := t.TempDir()

	_, _, err := dirtree.Reload(root, dirtree.ReloadPrm{})
	require.ErrorIs(t, err, common.ErrRangeUnknown)

	_, st, err := dirtree.Reload(root, dirtree.ReloadPrm{Range: 5})
	require.NoError(t, err)
	require.Zero(t, st.NextID)
	require.Zero(t, st.Levels)
	require.EqualValues(t, 5, st.Range)

	t.Run("empty directories", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(root, "0", "0"), perm))

		_, st, err := dirtree.Reload(root, dirtree.ReloadPrm{Range: 5, ReadOnly: true})
		require.NoError(t, err)
		require.Zero(t, st.NextID)
		_, err = os.Stat(filepath.Join(root, "0"))
		require.NoError(t, err)

		tr, st, err := dirtree.Reload(root, dirtree.ReloadPrm{Range: 5})
		require.NoError(t, err)
		require.Zero(t, st.NextID)
		_, err = os.Stat(filepath.Join(root, "0"))
		require.ErrorIs(t, err, os.ErrNotExist)

		put(t, tr, 0)
		_, err = os.Stat(filepath.Join(root, "0", "0"))
		require.NoError(t, err)
	})
}

func TestReload_SingleLevel(t *testing.T) {
	root := t.TempDir()
	tr := dirtree.New(root, 3, perm, nil)
	fill(t, tr, 2)

	_, _, err := dirtree.Reload(root, dirtree.ReloadPrm{})
	require.ErrorIs(t, err, common.ErrRangeUnknown)

	_, st, err := dirtree.Reload(root, dirtree.ReloadPrm{Range: 3})
	require.NoError(t, err)
	require.EqualValues(t, 2, st.NextID)
	require.Equal(t, []uint64{2}, st.DirCounts)
}

func TestReload_FailedWrite(t *testing.T) {
	root := t.TempDir()
	tr := dirtree.New(root, 3, perm, nil)
	fill(t, tr, 6)

	// Path of id 6 was created but the file was never written.
	require.NoError(t, os.Mkdir(filepath.Join(root, "0", "2"), perm))

	tr, st, err := dirtree.Reload(root, dirtree.ReloadPrm{Perm: perm})
	require.NoError(t, err)
	require.EqualValues(t, 6, st.NextID)
	require.Equal(t, []uint64{0, 1}, st.Active)
	require.Equal(t, []uint64{3, 3}, st.DirCounts)

	addr := put(t, tr, 6)
	require.Equal(t, []uint64{0, 2}, addr.Dirs)
	require.Equal(t, []uint64{3, 1}, tr.State(7).DirCounts)
}

func TestReload_RemovedEntries(t *testing.T) {
	for _, tc := range []struct {
		name    string
		n       uint64
		removed []string
	}{
		{name: "first leaf", n: 5, removed: []string{"0/0/1"}},
		{name: "first leaf of bigger tree", n: 8, removed: []string{"0/0/1"}},
		{name: "whole first leaf", n: 8, removed: []string{"0/0/0", "0/0/1", "0/0/2"}},
		{name: "first entry of the last leaf", n: 8, removed: []string{"0/2/6"}},
		{name: "deep tree", n: 20, removed: []string{"0/0/0/0", "0/1/3/9"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			root := t.TempDir()
			fill(t, dirtree.New(root, 3, perm, nil), tc.n)

			for _, p := range tc.removed {
				require.NoError(t, os.Remove(filepath.Join(root, filepath.FromSlash(p))))
			}

			for _, rng := range []uint64{0, 3} {
				_, st, err := dirtree.Reload(root, dirtree.ReloadPrm{Range: rng, Perm: perm, ReadOnly: true})
				require.NoError(t, err)
				require.EqualValues(t, 3, st.Range)
				require.Equal(t, tc.n, st.NextID)
			}
		})
	}

	t.Run("ambiguous", func(t *testing.T) {
		root := t.TempDir()
		fill(t, dirtree.New(root, 3, perm, nil), 4)

		// Left names 0, 1 and 3 fit range 2 as well.
		require.NoError(t, os.Remove(filepath.Join(root, "0", "0", "2")))

		_, _, err := dirtree.Reload(root, dirtree.ReloadPrm{Perm: perm})
		require.ErrorIs(t, err, common.ErrRangeUnknown)

		_, st, err := dirtree.Reload(root, dirtree.ReloadPrm{Range: 3, Perm: perm})
		require.NoError(t, err)
		require.EqualValues(t, 4, st.NextID)
	})
}

func TestReload_InterruptedGrowth(t *testing.T) {
	newInterrupted := func(t *testing.T) string {
		root := t.TempDir()
		tr := dirtree.New(root, 3, perm, nil)
		fill(t, tr, 3)

		stage := filepath.Join(root, ".grow-test")
		require.NoError(t, os.Mkdir(stage, perm))
		require.NoError(t, os.Rename(filepath.Join(root, "0"), filepath.Join(stage, "0")))

		return root
	}

	t.Run("read-only", func(t *testing.T) {
		root := newInterrupted(t)
		_, _, err := dirtree.Reload(root, dirtree.ReloadPrm{ReadOnly: true})
		require.ErrorIs(t, err, common.ErrReadOnly)
	})

	t.Run("writable", func(t *testing.T) {
		root := newInterrupted(t)
		l, lb := testutil.NewBufferedLogger(t, zap.InfoLevel)

		tr, st, err := dirtree.Reload(root, dirtree.ReloadPrm{Perm: perm, Logger: l})
		require.NoError(t, err)
		lb.AssertContains(zap.InfoLevel, "finishing interrupted growth")
		require.EqualValues(t, 3, st.NextID)
		require.Equal(t, 2, st.Levels)
		require.EqualValues(t, 3, st.Range)

		addr := put(t, tr, 3)
		require.Equal(t, []uint64{0, 1}, addr.Dirs)

		entries, err := os.ReadDir(root)
		require.NoError(t, err)
		require.Len(t, entries, 1)
	})

	t.Run("unused stage", func(t *testing.T) {
		root := t.TempDir()
		tr := dirtree.New(root, 3, perm, nil)
		fill(t, tr, 3)

		stage := filepath.Join(root, ".grow-test")
		require.NoError(t, os.Mkdir(stage, perm))

		_, st, err := dirtree.Reload(root, dirtree.ReloadPrm{Range: 3, Perm: perm})
		require.NoError(t, err)
		require.EqualValues(t, 3, st.NextID)

		_, err = os.Stat(stage)
		require.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("both trees", func(t *testing.T) {
		root := newInterrupted(t)
		require.NoError(t, os.Mkdir(filepath.Join(root, "0"), perm))

		_, _, err := dirtree.Reload(root, dirtree.ReloadPrm{Range: 3, Perm: perm})
		require.ErrorIs(t, err, common.ErrCorruptData)
	})
}

func TestReload_Corrupted(t *testing.T) {
	newTree := func(t *testing.T, n uint64) string {
		root := t.TempDir()
		fill(t, dirtree.New(root, 3, perm, nil), n)
		return root
	}

	t.Run("foreign root entry", func(t *testing.T) {
		root := newTree(t, 9)
		require.NoError(t, os.Mkdir(filepath.Join(root, "1"), perm))

		_, _, err := dirtree.Reload(root, dirtree.ReloadPrm{})
		require.ErrorIs(t, err, common.ErrCorruptData)
	})

	t.Run("ignored names", func(t *testing.T) {
		root := newTree(t, 9)
		require.NoError(t, os.WriteFile(filepath.Join(root, ".lock"), nil, 0o600))
		require.NoError(t, os.WriteFile(filepath.Join(root, "0", "0", "tmp"), nil, 0o600))

		_, st, err := dirtree.Reload(root, dirtree.ReloadPrm{})
		require.NoError(t, err)
		require.EqualValues(t, 9, st.NextID)
	})

	t.Run("misplaced entry", func(t *testing.T) {
		root := newTree(t, 7)
		require.NoError(t, os.WriteFile(filepath.Join(root, "0", "2", "20"), nil, 0o600))

		_, _, err := dirtree.Reload(root, dirtree.ReloadPrm{})
		require.ErrorIs(t, err, common.ErrCorruptData)
	})

	t.Run("range mismatch", func(t *testing.T) {
		root := newTree(t, 9)

		_, _, err := dirtree.Reload(root, dirtree.ReloadPrm{Range: 4})
		require.ErrorIs(t, err, common.ErrCorruptData)
	})

	t.Run("overfilled directory", func(t *testing.T) {
		root := newTree(t, 7)
		require.NoError(t, os.Mkdir(filepath.Join(root, "0", "3"), perm))
		require.NoError(t, os.WriteFile(filepath.Join(root, "0", "3", "9"), nil, 0o600))

		_, _, err := dirtree.Reload(root, dirtree.ReloadPrm{})
		require.ErrorIs(t, err, common.ErrCorruptData)
	})

	t.Run("not a directory", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(root, "0"), nil, 0o600))

		_, _, err := dirtree.Reload(root, dirtree.ReloadPrm{Range: 3})
		require.ErrorIs(t, err, common.ErrCorruptData)
	})
}

func TestExists(t *testing.T) {
	root := t.TempDir()

	ok, err := dirtree.Exists(filepath.Join(root, "missing"))
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = dirtree.Exists(root)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, os.WriteFile(filepath.Join(root, ".lock"), nil, 0o600))
	ok, err = dirtree.Exists(root)
	require.NoError(t, err)
	require.False(t, ok)

	put(t, dirtree.New(root, 2, perm, nil), 0)
	ok, err = dirtree.Exists(root)
	require.NoError(t, err)
	require.True(t, ok)
}
