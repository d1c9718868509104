package dirtree

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/google/uuid"
	"github.com/nspcc-dev/seqtree/pkg/local_object_storage/seqtree/address"
	"github.com/nspcc-dev/seqtree/pkg/local_object_storage/seqtree/common"
	"github.com/nspcc-dev/seqtree/pkg/util"
	"github.com/nspcc-dev/seqtree/pkg/util/fsio"
	"go.uber.org/zap"
)

// growPrefix prefixes the name of a staging directory used while the tree
// gets one more level. The staging directory is created in the root next to
// the top one, it is not a tree entry and does not count against the range.
const growPrefix = ".grow-"

// DirectoryRef describes a reserved directory created by Tree.AddDir.
type DirectoryRef struct {
	ID   uint64
	Path string
}

// State is a snapshot of the tree bookkeeping.
type State struct {
	NextID     uint64
	Levels     int
	Range      uint64
	Capacities []uint64
	// DirCounts[i] is the number of children of the directory at depth i+1
	// on the active path.
	DirCounts []uint64
	// Active is the path of the last allocated id.
	Active []uint64
}

// Tree manages directories of a sequential object tree on disk and tracks
// occupancy of the directories on the active write path. The active path is
// the path of the last allocated id: all previous directories are full.
//
// Tree is not safe for concurrent use. Two Tree instances over the same root
// do not see changes of each other.
type Tree struct {
	root string
	perm fs.FileMode
	rng  uint64
	log  *zap.Logger

	levels int
	active []uint64
	counts []uint64
}

// New returns an empty tree rooted at root. The root directory itself is not
// created.
func New(root string, rng uint64, perm fs.FileMode, log *zap.Logger) *Tree {
	if log == nil {
		log = zap.NewNop()
	}

	return &Tree{
		root: root,
		perm: perm,
		rng:  rng,
		log:  log,
	}
}

// Root returns root directory of the tree.
func (t *Tree) Root() string {
	return t.root
}

// Range returns the maximum number of children of a directory.
func (t *Tree) Range() uint64 {
	return t.rng
}

// Levels returns the current depth of the tree.
func (t *Tree) Levels() int {
	return t.levels
}

// State returns bookkeeping snapshot for the tree holding nextID items.
func (t *Tree) State(nextID uint64) State {
	caps, err := address.CapacitiesForLevels(t.levels, t.rng)
	if err != nil {
		// Levels never exceed what an allocated id requires and ids fit
		// uint64, so overflow here means broken bookkeeping.
		panic(fmt.Sprintf("capacities of %d levels: %v", t.levels, err))
	}

	return State{
		NextID:     nextID,
		Levels:     t.levels,
		Range:      t.rng,
		Capacities: caps,
		DirCounts:  slices.Clone(t.counts),
		Active:     slices.Clone(t.active),
	}
}

// Prepare makes the tree ready to receive the entry for id: adds a level if
// id does not fit, creates missing directories of its path and checks the
// leaf has a free slot. Entry MUST be recorded with Commit after it is
// written.
func (t *Tree) Prepare(id uint64) (address.Address, error) {
	for address.Levels(id+1, t.rng) > t.levels {
		err := t.Grow()
		if err != nil {
			return address.Address{}, err
		}
	}

	addr, err := address.Compute(id, t.rng, t.levels)
	if err != nil {
		return address.Address{}, err
	}

	err = t.EnsurePath(addr.Dirs)
	if err != nil {
		return address.Address{}, err
	}

	if t.counts[len(t.counts)-1] >= t.rng {
		return address.Address{}, fmt.Errorf("%w: leaf %s", common.ErrTreeFull, addr.Dir(t.root))
	}

	return addr, nil
}

// Commit records an entry written into the active leaf directory.
func (t *Tree) Commit() {
	t.counts[len(t.counts)-1]++
}

// AddDir reserves id as an empty directory in its leaf directory so that the
// tree structure can be grown ahead of writes.
func (t *Tree) AddDir(id uint64) (DirectoryRef, error) {
	addr, err := t.Prepare(id)
	if err != nil {
		return DirectoryRef{}, err
	}

	p := addr.SlotPath(t.root)

	err = os.Mkdir(p, t.perm)
	if err != nil {
		return DirectoryRef{}, fmt.Errorf("create reserved directory: %w", err)
	}

	t.Commit()

	return DirectoryRef{ID: id, Path: p}, nil
}

// EnsurePath creates every missing directory of the path described by dirs,
// root first. Existing directories are not an error. Path component existing
// as something other than a directory results in common.ErrNotADirectory.
func (t *Tree) EnsurePath(dirs []uint64) error {
	if len(t.counts) < len(dirs) {
		t.counts = append(t.counts, make([]uint64, len(dirs)-len(t.counts))...)
	}

	diverged := false

	for i := range dirs {
		if !diverged && i < len(t.active) && t.active[i] == dirs[i] {
			continue
		}
		diverged = true

		p := address.DirPath(t.root, dirs[:i+1])

		created, err := util.MkdirX(p, t.perm)
		if err != nil {
			if util.IsNotDir(err) {
				return fmt.Errorf("%w: %s", common.ErrNotADirectory, p)
			}
			return fmt.Errorf("create directory %q: %w", p, err)
		}

		if !created {
			n, err := countEntries(p)
			if err != nil {
				return err
			}
			t.counts[i] = n
			continue
		}

		if i > 0 {
			if t.counts[i-1] >= t.rng {
				return fmt.Errorf("%w: %s", common.ErrTreeFull, filepath.Dir(p))
			}
			t.counts[i-1]++
		}
		t.counts[i] = 0
	}

	t.active = slices.Clone(dirs)

	return nil
}

// Grow adds one level to the tree. The level-0 selector of any id is zero, so
// every address of the deeper tree is the old one prefixed with zero: the
// current top directory is moved into a new top directory.
func (t *Tree) Grow() error {
	if t.levels == 0 {
		t.levels = 1
		return nil
	}

	top := address.DirPath(t.root, []uint64{0})
	stage := filepath.Join(t.root, growPrefix+uuid.NewString())

	_, err := util.MkdirX(stage, t.perm)
	if err != nil {
		return fmt.Errorf("create staging directory: %w", err)
	}

	err = os.Rename(top, filepath.Join(stage, address.FormatName(0)))
	if err != nil {
		_ = os.Remove(stage)
		return fmt.Errorf("move top directory into staging one: %w", err)
	}

	err = os.Rename(stage, top)
	if err != nil {
		return fmt.Errorf("move staging directory to the top: %w", err)
	}

	t.levels++
	t.active = append([]uint64{0}, t.active...)
	t.counts = append([]uint64{1}, t.counts...)

	t.log.Info("tree grown",
		zap.String("root", t.root),
		zap.Int("levels", t.levels))

	return nil
}

// countEntries returns the number of tree entries in dir: subdirectories,
// stored files and reserved directories. Foreign entries are ignored.
func countEntries(dir string) (uint64, error) {
	entries, err := readEntries(dir)
	if err != nil {
		return 0, err
	}
	return uint64(len(entries)), nil
}

type entryKind uint8

const (
	kindDir entryKind = iota
	kindFile
	kindSlot
)

type entry struct {
	id   uint64
	kind entryKind
}

// readEntries lists tree entries of dir sorted by id.
func readEntries(dir string) ([]entry, error) {
	des, err := fsio.Entries(dir)
	if err != nil {
		if util.IsNotDir(err) {
			return nil, fmt.Errorf("%w: %s", common.ErrNotADirectory, dir)
		}
		return nil, fmt.Errorf("read directory %q: %w", dir, err)
	}

	res := make([]entry, 0, len(des))
	for _, de := range des {
		name := de.Name()
		if id, ok := address.ParseName(name); ok {
			switch {
			case de.IsDir():
				res = append(res, entry{id: id, kind: kindDir})
			case de.Type().IsRegular():
				res = append(res, entry{id: id, kind: kindFile})
			}
			continue
		}
		if id, ok := address.ParseSlotName(name); ok && de.IsDir() {
			res = append(res, entry{id: id, kind: kindSlot})
		}
	}

	slices.SortFunc(res, func(a, b entry) int {
		switch {
		case a.id < b.id:
			return -1
		case a.id > b.id:
			return 1
		default:
			return 0
		}
	})

	return res, nil
}
