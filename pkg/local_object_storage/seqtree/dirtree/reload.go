package dirtree

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/nspcc-dev/seqtree/pkg/local_object_storage/seqtree/address"
	"github.com/nspcc-dev/seqtree/pkg/local_object_storage/seqtree/common"
	"github.com/nspcc-dev/seqtree/pkg/util/fsio"
	"go.uber.org/zap"
)

// ReloadPrm groups parameters of Reload.
type ReloadPrm struct {
	// Range of the tree. Zero means it is inferred from the layout which is
	// possible for trees of two or more levels only. If set for such a tree,
	// it MUST match the layout.
	Range uint64
	// Permissions of created directories.
	Perm fs.FileMode
	// ReadOnly forbids any modification of the tree. Interrupted growth is
	// finished only in writable mode.
	ReadOnly bool
	// Logger, nil means no logging.
	Logger *zap.Logger
}

// Reload reconstructs the tree state by walking existing directories under
// root. Nothing but the directory structure is read: the last allocated id is
// the largest entry reachable through the largest directories at every level.
// Empty directories left by interrupted writes are skipped.
func Reload(root string, prm ReloadPrm) (*Tree, State, error) {
	log := prm.Logger
	if log == nil {
		log = zap.NewNop()
	}

	err := recoverGrowth(root, prm.ReadOnly, log)
	if err != nil {
		return nil, State{}, err
	}

	top, err := readEntries(root)
	if err != nil {
		return nil, State{}, err
	}

	for _, e := range top {
		if e.id != 0 || e.kind != kindDir {
			return nil, State{}, fmt.Errorf("%w: unexpected entry %d in the root %s", common.ErrCorruptData, e.id, root)
		}
	}

	var w walker
	if len(top) > 0 {
		_, err = w.descend(address.DirPath(root, []uint64{0}), []uint64{0})
		if err != nil {
			return nil, State{}, err
		}
	}

	rng, err := w.inferRange(root, prm.Range)
	if err != nil {
		return nil, State{}, err
	}

	t := New(root, rng, prm.Perm, log)

	if !w.found {
		if len(top) > 0 && !prm.ReadOnly {
			// Directories without entries are left by writes failed after
			// the path was created. The first write recreates them.
			err = fsio.Delete(address.DirPath(root, []uint64{0}), log)
			if err != nil {
				return nil, State{}, fmt.Errorf("remove empty tree directories: %w", err)
			}
		}
		return t, t.State(0), nil
	}

	if address.Levels(w.last+1, rng) > w.levels {
		return nil, State{}, fmt.Errorf("%w: %d levels can't hold id %d with range %d",
			common.ErrCorruptData, w.levels, w.last, rng)
	}

	addr, err := address.Compute(w.last, rng, w.levels)
	if err != nil {
		return nil, State{}, fmt.Errorf("%w: %w", common.ErrCorruptData, err)
	}
	if !slices.Equal(addr.Dirs, w.chain) {
		return nil, State{}, fmt.Errorf("%w: id %d is stored at %v instead of %s",
			common.ErrCorruptData, w.last, w.chain, addr)
	}

	for i, n := range w.counts {
		if n > rng {
			return nil, State{}, fmt.Errorf("%w: directory %s has %d entries with range %d",
				common.ErrCorruptData, address.DirPath(root, w.chain[:i+1]), n, rng)
		}
	}

	t.levels = w.levels
	t.active = w.chain
	t.counts = w.counts

	st := t.State(w.last + 1)

	log.Debug("tree reloaded",
		zap.String("root", root),
		zap.Uint64("next_id", st.NextID),
		zap.Int("levels", st.Levels),
		zap.Uint64("range", rng))

	return t, st, nil
}

type walker struct {
	found  bool
	last   uint64
	levels int
	chain  []uint64
	counts []uint64

	bounds rangeBounds
}

// descend looks for the largest entry under dir which is reached by the chain
// of selectors. Directories are tried from the largest one, an empty one
// makes the walker fall back to the previous sibling. Names of all listed
// entries narrow the range, as do the names in the sibling preceding each
// directory on the found path.
func (w *walker) descend(dir string, chain []uint64) (bool, error) {
	entries, err := readEntries(dir)
	if err != nil {
		return false, err
	}

	w.bounds.addEntries(chain[len(chain)-1], entries)

	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if e.kind != kindDir {
			w.found = true
			w.last = e.id
			w.levels = len(chain)
			w.chain = slices.Clone(chain)
			w.counts = make([]uint64, len(chain))
			w.counts[len(chain)-1] = uint64(len(entries))
			return true, nil
		}

		ok, err := w.descend(filepath.Join(dir, address.FormatName(e.id)), append(chain, e.id))
		if err != nil {
			return false, err
		}
		if ok {
			w.counts[len(chain)-1] = uint64(len(entries))

			// The previous sibling is full, its names pin the range.
			if i > 0 && entries[i-1].kind == kindDir {
				prev := entries[i-1].id

				sibling, err := readEntries(filepath.Join(dir, address.FormatName(prev)))
				if err != nil {
					return false, err
				}

				w.bounds.addEntries(prev, sibling)
			}

			return true, nil
		}
	}

	return false, nil
}

// inferRange returns the range of the tree. Every child name bounds the
// range, see rangeBounds, and names on the path of the last entry pin it in
// trees of two levels or more. The first leaf of such trees is full, so its
// entry count is a lower bound which also survives removed entries. It is
// the only hint when nothing bounds the range from above, which happens
// after growth interrupted before the second leaf was created.
// Single-level trees only bound it from below, so rng must be provided.
func (w *walker) inferRange(root string, rng uint64) (uint64, error) {
	if rng == 1 {
		return 0, fmt.Errorf("invalid range %d", rng)
	}

	var firstLeaf uint64

	if w.levels >= 2 {
		for depth := 2; depth <= w.levels; depth++ {
			entries, err := readEntries(address.DirPath(root, make([]uint64, depth)))
			if err != nil {
				return 0, fmt.Errorf("%w: path of id 0: %w", common.ErrCorruptData, err)
			}

			w.bounds.addEntries(0, entries)
			firstLeaf = uint64(len(entries))
		}
	}

	lo, hi := w.bounds.get()
	if lo > hi {
		return 0, fmt.Errorf("%w: no range fits the layout of %s", common.ErrCorruptData, root)
	}

	if rng != 0 {
		if rng < lo || rng > hi {
			return 0, fmt.Errorf("%w: range %d was requested, layout allows [%d, %d]", common.ErrCorruptData, rng, lo, hi)
		}
		return rng, nil
	}

	if w.levels < 2 {
		return 0, common.ErrRangeUnknown
	}

	if hi == math.MaxUint64 {
		return max(lo, firstLeaf), nil
	}

	lo = max(lo, firstLeaf)
	if lo > hi {
		return 0, fmt.Errorf("%w: first leaf has %d entries, layout allows ranges up to %d", common.ErrCorruptData, firstLeaf, hi)
	}
	if lo != hi {
		return 0, fmt.Errorf("%w: layout allows ranges [%d, %d]", common.ErrRangeUnknown, lo, hi)
	}

	return lo, nil
}

// rangeBounds accumulates the interval of ranges the tree layout allows. A
// child named v of a directory with selector p is placed correctly only if
// v / range == p, i.e. range is in (v/(p+1), v/p].
type rangeBounds struct {
	lo, hi uint64
	set    bool
}

func (b *rangeBounds) add(p, v uint64) {
	if !b.set {
		b.lo, b.hi, b.set = 2, math.MaxUint64, true
	}

	if p == 0 {
		if v < math.MaxUint64 {
			b.lo = max(b.lo, v+1)
		} else {
			b.lo = math.MaxUint64
		}
		return
	}

	b.lo = max(b.lo, v/(p+1)+1)
	b.hi = min(b.hi, v/p)
}

func (b *rangeBounds) addEntries(p uint64, entries []entry) {
	for i := range entries {
		b.add(p, entries[i].id)
	}
}

func (b *rangeBounds) get() (uint64, uint64) {
	if !b.set {
		return 2, math.MaxUint64
	}
	return b.lo, b.hi
}

// recoverGrowth handles staging directories left by Tree.Grow. If the top
// directory was already moved into a stage, the stage becomes the top one.
// Stages without the moved top directory are removed.
func recoverGrowth(root string, readOnly bool, log *zap.Logger) error {
	des, err := fsio.Entries(root)
	if err != nil {
		return fmt.Errorf("read root directory %q: %w", root, err)
	}

	top := address.DirPath(root, []uint64{0})

	for _, de := range des {
		if !de.IsDir() || !strings.HasPrefix(de.Name(), growPrefix) {
			continue
		}

		stage := filepath.Join(root, de.Name())
		moved := filepath.Join(stage, address.FormatName(0))

		_, err = os.Stat(moved)
		if errors.Is(err, fs.ErrNotExist) {
			if readOnly {
				continue
			}
			log.Info("removing unused growth stage", zap.String("path", stage))
			err = fsio.Delete(stage, log)
			if err != nil {
				return fmt.Errorf("remove growth stage: %w", err)
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("check growth stage %q: %w", stage, err)
		}

		_, err = os.Stat(top)
		if err == nil {
			return fmt.Errorf("%w: both %s and growth stage %s hold the tree", common.ErrCorruptData, top, stage)
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("check top directory: %w", err)
		}

		if readOnly {
			return fmt.Errorf("%w: interrupted growth in %s, reopen for writing to finish it", common.ErrReadOnly, stage)
		}

		log.Info("finishing interrupted growth", zap.String("path", stage))

		err = os.Rename(stage, top)
		if err != nil {
			return fmt.Errorf("finish interrupted growth: %w", err)
		}
	}

	return nil
}

// Exists checks whether root holds a tree, possibly with an interrupted
// growth. Missing root is not an error.
func Exists(root string) (bool, error) {
	des, err := fsio.Entries(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read root directory %q: %w", root, err)
	}

	for _, de := range des {
		if de.Name() == address.FormatName(0) || strings.HasPrefix(de.Name(), growPrefix) {
			return true, nil
		}
	}

	return false, nil
}
