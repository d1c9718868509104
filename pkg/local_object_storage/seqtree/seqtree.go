package seqtree

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	storagelog "github.com/nspcc-dev/seqtree/pkg/local_object_storage/internal/log"
	"github.com/nspcc-dev/seqtree/pkg/local_object_storage/seqtree/address"
	"github.com/nspcc-dev/seqtree/pkg/local_object_storage/seqtree/codec"
	"github.com/nspcc-dev/seqtree/pkg/local_object_storage/seqtree/common"
	"github.com/nspcc-dev/seqtree/pkg/local_object_storage/seqtree/dirtree"
	"github.com/nspcc-dev/seqtree/pkg/util/fsio"
	"go.uber.org/zap"
)

// LockFile is the name of the writer lock file in the root directory.
const LockFile = ".lock"

const storageType = "seqtree"

// Cache is a tree of objects of type T addressed by sequential ids.
//
// Cache is not safe for concurrent use. Any number of read-only handles may
// be used concurrently with each other, they do not see objects added after
// they were opened.
type Cache[T any] struct {
	cfg

	codec   codec.Codec[T]
	baseDir string
	name    string

	tree   *dirtree.Tree
	nextID uint64

	lock  *writerLock
	cache *lru.Cache[uint64, []byte]
}

// New creates an empty tree in dir/name. The directory is created if needed,
// an existing tree in it results in common.ErrExists.
func New[T any](dir, name string, rng uint64, c codec.Codec[T], opts ...Option) (*Cache[T], error) {
	if rng < 2 {
		return nil, fmt.Errorf("invalid range %d, must be at least 2", rng)
	}
	if name == "" {
		return nil, errors.New("empty item name")
	}

	x := newCache(filepath.Join(dir, name), name, c, opts)
	if x.readOnly {
		return nil, fmt.Errorf("%w: can't create a tree", common.ErrReadOnly)
	}
	if x.rng != 0 && x.rng != rng {
		return nil, fmt.Errorf("conflicting ranges %d and %d", rng, x.rng)
	}
	x.rng = rng

	err := fsio.CreateDirectories(x.baseDir, x.perm)
	if err != nil {
		return nil, fmt.Errorf("mkdir all for %q: %w", x.baseDir, err)
	}

	err = x.acquire()
	if err != nil {
		return nil, err
	}

	exists, err := dirtree.Exists(x.baseDir)
	if err == nil && exists {
		err = fmt.Errorf("%w: %s", common.ErrExists, x.baseDir)
	}
	if err != nil {
		_ = x.Close()
		return nil, err
	}

	x.tree = dirtree.New(x.baseDir, rng, x.perm, x.log)
	x.report()

	x.log.Debug("created object tree",
		zap.String("path", x.baseDir),
		zap.Uint64("range", rng))

	return x, nil
}

// Open opens an existing tree rooted at baseDir restoring its state from the
// directory layout. The name of the tree is the base name of baseDir.
func Open[T any](baseDir string, c codec.Codec[T], opts ...Option) (*Cache[T], error) {
	x := newCache(baseDir, filepath.Base(baseDir), c, opts)

	fi, err := os.Stat(baseDir)
	if err != nil {
		return nil, fmt.Errorf("open tree: %w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("%w: %s", common.ErrNotADirectory, baseDir)
	}

	err = x.acquire()
	if err != nil {
		return nil, err
	}

	tree, st, err := dirtree.Reload(baseDir, dirtree.ReloadPrm{
		Range:    x.rng,
		Perm:     x.perm,
		ReadOnly: x.readOnly,
		Logger:   x.log,
	})
	if err != nil {
		_ = x.Close()
		return nil, fmt.Errorf("reload tree %q: %w", baseDir, err)
	}

	x.tree = tree
	x.rng = st.Range
	x.nextID = st.NextID
	x.report()

	x.log.Debug("opened object tree",
		zap.String("path", baseDir),
		zap.Bool("read_only", x.readOnly),
		zap.Uint64("next_id", x.nextID),
		zap.Int("levels", st.Levels))

	return x, nil
}

func newCache[T any](baseDir, name string, c codec.Codec[T], opts []Option) *Cache[T] {
	x := &Cache[T]{
		cfg:     defaultCfg(),
		codec:   c,
		baseDir: baseDir,
		name:    name,
	}

	for i := range opts {
		opts[i](&x.cfg)
	}

	if x.cacheSize > 0 {
		// Only non-positive size is rejected.
		x.cache, _ = lru.New[uint64, []byte](x.cacheSize)
	}

	return x
}

func (x *Cache[T]) acquire() error {
	if x.readOnly {
		return nil
	}

	l, err := acquireLock(filepath.Join(x.baseDir, LockFile))
	if err != nil {
		return err
	}

	x.lock = l

	return nil
}

// Close releases the writer lock and drops cached objects. Close is
// idempotent.
func (x *Cache[T]) Close() error {
	if x.cache != nil {
		x.cache.Purge()
	}

	if x.lock == nil {
		return nil
	}

	err := x.lock.release()
	x.lock = nil

	return err
}

// Add stores v under the next id and returns the id. If v can't be written,
// the id is not consumed.
func (x *Cache[T]) Add(v T) (uint64, error) {
	start := time.Now()

	id, err := x.add(v)
	x.observe("add", start, err)
	if err != nil {
		return 0, err
	}

	return id, nil
}

func (x *Cache[T]) add(v T) (uint64, error) {
	if x.readOnly {
		return 0, common.ErrReadOnly
	}

	data, err := x.codec.Encode(v)
	if err != nil {
		return 0, fmt.Errorf("encode object: %w", err)
	}

	id := x.nextID

	addr, err := x.tree.Prepare(id)
	if err != nil {
		return 0, fmt.Errorf("prepare directory for id %d: %w", id, err)
	}

	err = fsio.WriteAtomic(addr.Path(x.baseDir), bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("write object %d: %w", id, err)
	}

	x.tree.Commit()
	x.nextID++

	if x.cache != nil {
		x.cache.Add(id, data)
	}

	x.metrics.AddWrittenBytes(x.name, len(data))
	x.report()

	storagelog.Write(x.log,
		storagelog.IDField(id),
		storagelog.PathField(addr),
		storagelog.OpField("add"),
		storagelog.StorageTypeField(storageType))

	return id, nil
}

// AddDir reserves the next id as an empty directory in the tree and returns
// it. Get for such an id fails with common.ErrNotFound.
func (x *Cache[T]) AddDir() (dirtree.DirectoryRef, error) {
	start := time.Now()

	ref, err := x.addDir()
	x.observe("add_dir", start, err)

	return ref, err
}

func (x *Cache[T]) addDir() (dirtree.DirectoryRef, error) {
	if x.readOnly {
		return dirtree.DirectoryRef{}, common.ErrReadOnly
	}

	ref, err := x.tree.AddDir(x.nextID)
	if err != nil {
		return dirtree.DirectoryRef{}, fmt.Errorf("reserve directory for id %d: %w", x.nextID, err)
	}

	x.nextID++
	x.report()

	storagelog.Write(x.log,
		storagelog.IDField(ref.ID),
		storagelog.OpField("add_dir"),
		storagelog.StorageTypeField(storageType))

	return ref, nil
}

// Get reads and decodes the object with the given id.
//
// Returns common.ErrOutOfRange for ids that were never allocated,
// common.ErrNotFound if there is no object for the id and
// common.ErrCorruptData if stored bytes can't be decoded.
func (x *Cache[T]) Get(id uint64) (T, error) {
	start := time.Now()

	v, err := x.get(id)
	x.observe("get", start, err)

	return v, err
}

func (x *Cache[T]) get(id uint64) (T, error) {
	var v T

	data, err := x.getRaw(id)
	if err != nil {
		return v, err
	}

	v, err = x.codec.Decode(data)
	if err != nil {
		return v, fmt.Errorf("%w: object %d: %w", common.ErrCorruptData, id, err)
	}

	return v, nil
}

// GetRaw returns encoded object with the given id. Errors are the same as
// for Get except common.ErrCorruptData.
func (x *Cache[T]) GetRaw(id uint64) ([]byte, error) {
	start := time.Now()

	data, err := x.getRaw(id)
	x.observe("get_raw", start, err)

	return data, err
}

func (x *Cache[T]) getRaw(id uint64) ([]byte, error) {
	p, err := x.Path(id)
	if err != nil {
		return nil, err
	}

	if x.cache != nil {
		data, ok := x.cache.Get(id)
		x.metrics.AddReadCacheResult(x.name, ok)
		if ok {
			return data, nil
		}
	}

	data, err := fsio.ReadFile(p)
	if err != nil {
		return nil, x.readErr(id, err)
	}

	if x.cache != nil {
		x.cache.Add(id, data)
	}

	return data, nil
}

// GetStream opens encoded object with the given id for reading. The caller
// MUST close the stream. Errors are the same as for GetRaw.
func (x *Cache[T]) GetStream(id uint64) (io.ReadSeekCloser, error) {
	p, err := x.Path(id)
	if err != nil {
		return nil, err
	}

	if x.cache != nil {
		data, ok := x.cache.Get(id)
		x.metrics.AddReadCacheResult(x.name, ok)
		if ok {
			return cachedStream{bytes.NewReader(data)}, nil
		}
	}

	r, err := fsio.OpenRead(p)
	if err != nil {
		return nil, x.readErr(id, err)
	}

	return r, nil
}

// cachedStream serves GetStream from the read cache.
type cachedStream struct {
	*bytes.Reader
}

func (cachedStream) Close() error { return nil }

func (x *Cache[T]) readErr(id uint64, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: id %d", common.ErrNotFound, id)
	}
	return fmt.Errorf("read object %d: %w", id, err)
}

// Exists checks whether an object is stored under the id. Reserved
// directories are not objects.
func (x *Cache[T]) Exists(id uint64) (bool, error) {
	if id >= x.nextID {
		return false, nil
	}

	p, err := x.Path(id)
	if err != nil {
		return false, err
	}

	fi, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}

	return fi.Mode().IsRegular(), nil
}

// Path returns the path of the file for the object with the given id.
func (x *Cache[T]) Path(id uint64) (string, error) {
	addr, err := x.Address(id)
	if err != nil {
		return "", err
	}

	return addr.Path(x.baseDir), nil
}

// Address returns location of the allocated id in the tree.
func (x *Cache[T]) Address(id uint64) (address.Address, error) {
	if id >= x.nextID {
		return address.Address{}, fmt.Errorf("%w: id %d, next id %d", common.ErrOutOfRange, id, x.nextID)
	}

	return address.Compute(id, x.rng, x.tree.Levels())
}

// Len returns the number of allocated ids which is also the next id.
func (x *Cache[T]) Len() uint64 {
	return x.nextID
}

// BaseDir returns the root directory of the tree.
func (x *Cache[T]) BaseDir() string {
	return x.baseDir
}

// Name returns the name of the tree.
func (x *Cache[T]) Name() string {
	return x.name
}

// ReadOnly checks whether the handle was opened in read-only mode.
func (x *Cache[T]) ReadOnly() bool {
	return x.readOnly
}

// State returns bookkeeping of the tree.
func (x *Cache[T]) State() dirtree.State {
	return x.tree.State(x.nextID)
}

// Describe returns human-readable description of the tree state.
func (x *Cache[T]) Describe() string {
	st := x.State()

	return fmt.Sprintf("%s tree at %s: range %d, next id %d, levels %d, capacities %v, directory counts %v",
		x.name, x.baseDir, st.Range, st.NextID, st.Levels, st.Capacities, st.DirCounts)
}

// String implements fmt.Stringer.
func (x *Cache[T]) String() string {
	return x.Describe()
}

// Delete removes the whole tree with its root directory and closes the
// handle. Removal continues after failures, all of them are returned.
func (x *Cache[T]) Delete() error {
	if x.readOnly {
		return common.ErrReadOnly
	}

	err := fsio.Delete(x.baseDir, x.log)

	x.nextID = 0
	x.tree = dirtree.New(x.baseDir, x.rng, x.perm, x.log)
	x.report()

	errClose := x.Close()
	if err != nil {
		return fmt.Errorf("delete tree %q: %w", x.baseDir, err)
	}

	x.log.Info("object tree deleted", zap.String("path", x.baseDir))

	return errClose
}

func (x *Cache[T]) observe(op string, start time.Time, err error) {
	x.metrics.AddOpDuration(x.name, op, time.Since(start))
	if err != nil {
		x.metrics.IncOpErrors(x.name, op)
	}
}

func (x *Cache[T]) report() {
	x.metrics.SetNextID(x.name, x.nextID)
	x.metrics.SetLevels(x.name, x.tree.Levels())
}
