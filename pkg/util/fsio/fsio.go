// Package fsio provides filesystem primitives the object tree is built on:
// directory creation and listing, buffered stream acquisition, recursive copy
// and best-effort recursive deletion, atomic file writes and unique file name
// generation.
package fsio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/natefinch/atomic"
	"github.com/nspcc-dev/seqtree/pkg/util"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// FilePerm is the default permission of created files.
const FilePerm fs.FileMode = 0o640

// bufferSize is a size of stream buffers.
const bufferSize = 32 * 1024

// CreateDirectories creates path with all missing parents.
func CreateDirectories(path string, perm fs.FileMode) error {
	return util.MkdirAllX(path, perm)
}

// Delete removes path recursively, deepest entries first. Missing path is not
// an error.
//
// Deletion is best-effort: failure to remove an entry is logged and the
// remaining entries are still processed. All failures are returned combined.
// Each removed entry is logged at debug level. Nil logger disables logging.
func Delete(path string, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}

	var (
		paths []string
		errs  error
	)

	err := filepath.WalkDir(path, func(p string, _ fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			// Unreadable directory is reported a second time after it
			// was already collected.
			log.Warn("failed to walk entry", zap.String("path", p), zap.Error(err))
			errs = multierr.Append(errs, err)
			return nil
		}
		paths = append(paths, p)
		return nil
	})
	if err != nil {
		errs = multierr.Append(errs, err)
	}

	for i := len(paths) - 1; i >= 0; i-- {
		err = os.Remove(paths[i])
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			log.Warn("failed to remove entry", zap.String("path", paths[i]), zap.Error(err))
			errs = multierr.Append(errs, err)
			continue
		}
		log.Debug("removed", zap.String("path", paths[i]))
	}

	return errs
}

// Entries returns the immediate children of dir sorted by name.
func Entries(dir string) ([]fs.DirEntry, error) {
	return os.ReadDir(dir)
}

// List returns full paths of the immediate children of dir sorted by name.
func List(dir string) ([]string, error) {
	entries, err := Entries(dir)
	if err != nil {
		return nil, err
	}

	res := make([]string, len(entries))
	for i := range entries {
		res[i] = filepath.Join(dir, entries[i].Name())
	}

	return res, nil
}

// Files returns full paths of all regular files under dir at any depth.
func Files(dir string) ([]string, error) {
	fi, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("%q is not a directory", dir)
	}

	var res []string

	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			res = append(res, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

type bufferedReader struct {
	*bufio.Reader
	f *os.File
}

func (r *bufferedReader) Close() error {
	return r.f.Close()
}

// Seek drops the buffered data, so it is cheap only for occasional calls.
func (r *bufferedReader) Seek(offset int64, whence int) (int64, error) {
	if whence == io.SeekCurrent {
		offset -= int64(r.Buffered())
	}

	n, err := r.f.Seek(offset, whence)
	if err != nil {
		return 0, err
	}

	r.Reset(r.f)

	return n, nil
}

// OpenRead opens a buffered reading stream. The caller MUST close it.
func OpenRead(path string) (io.ReadSeekCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	return &bufferedReader{
		Reader: bufio.NewReaderSize(f, bufferSize),
		f:      f,
	}, nil
}

// ReadFile reads the whole file through a buffered stream.
func ReadFile(path string) ([]byte, error) {
	r, err := OpenRead(path)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(r)
	if errClose := r.Close(); err == nil {
		err = errClose
	}
	if err != nil {
		return nil, err
	}

	return data, nil
}

type bufferedWriter struct {
	*bufio.Writer
	f *os.File
}

func (w bufferedWriter) Close() error {
	err := w.Flush()
	errClose := w.f.Close()
	if err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return errClose
}

// OpenWrite opens a buffered writing stream creating the file if needed. The
// file is truncated unless appendMode is set. Data is flushed on Close, so the
// caller MUST close the stream and check the error.
func OpenWrite(path string, appendMode bool) (io.WriteCloser, error) {
	flags := os.O_WRONLY | os.O_CREATE
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	f, err := os.OpenFile(path, flags, FilePerm)
	if err != nil {
		return nil, err
	}

	return bufferedWriter{
		Writer: bufio.NewWriterSize(f, bufferSize),
		f:      f,
	}, nil
}

// TempPrefix starts names of temporary files created by WriteAtomic. Such
// names never parse as object ids.
const TempPrefix = ".tmp-"

// WriteAtomic writes data to path so that readers observe either the old
// content or the new one, never a partial write. Data is written into a
// temporary file in the same directory which then replaces path.
func WriteAtomic(path string, data io.Reader) error {
	f, err := os.CreateTemp(filepath.Dir(path), TempPrefix+"*")
	if err != nil {
		return fmt.Errorf("create temporary file: %w", err)
	}

	tmp := f.Name()

	_, err = io.Copy(f, data)
	if err == nil {
		err = f.Sync()
	}
	if errClose := f.Close(); err == nil {
		err = errClose
	}
	if err == nil {
		err = os.Chmod(tmp, FilePerm)
	}
	if err == nil {
		err = atomic.ReplaceFile(tmp, path)
	}
	if err != nil {
		_ = os.Remove(tmp)
		return err
	}

	return nil
}

// CopyFile copies regular file src into dstDir under the given name creating
// dstDir if needed.
func CopyFile(src, dstDir, name string) error {
	fi, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !fi.Mode().IsRegular() {
		return fmt.Errorf("%q is not a regular file", src)
	}

	err = CreateDirectories(dstDir, fs.ModePerm)
	if err != nil {
		return fmt.Errorf("create destination directory: %w", err)
	}

	r, err := OpenRead(src)
	if err != nil {
		return err
	}
	defer r.Close()

	w, err := OpenWrite(filepath.Join(dstDir, name), false)
	if err != nil {
		return err
	}

	_, err = io.Copy(w, r)
	if err != nil {
		_ = w.Close()
		return fmt.Errorf("copy %q: %w", src, err)
	}

	return w.Close()
}

// Copy copies src into dstDir. A regular file is copied under its own name,
// a directory has its whole content copied into dstDir.
func Copy(src, dstDir string) error {
	err := CreateDirectories(dstDir, fs.ModePerm)
	if err != nil {
		return fmt.Errorf("create destination directory: %w", err)
	}

	fi, err := os.Stat(dstDir)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return fmt.Errorf("destination %q is not a directory", dstDir)
	}

	fi, err = os.Stat(src)
	if err != nil {
		return err
	}
	if fi.Mode().IsRegular() {
		return CopyFile(src, dstDir, filepath.Base(src))
	}

	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dstDir, rel)

		if d.IsDir() {
			return CreateDirectories(target, fs.ModePerm)
		}

		return CopyFile(p, filepath.Dir(target), d.Name())
	})
}

// CreateNewFile atomically creates an empty file with a name not used in dir
// yet and returns its path. Without prefix and suffix names are 0, 1, 2, ...;
// otherwise prefix+suffix is tried first followed by prefix+N+suffix.
func CreateNewFile(dir, prefix, suffix string) (string, error) {
	fi, err := os.Stat(dir)
	switch {
	case err == nil:
		if !fi.IsDir() {
			return "", fmt.Errorf("can't create a file in %q: not a directory", dir)
		}
	case errors.Is(err, fs.ErrNotExist):
		err = CreateDirectories(dir, fs.ModePerm)
		if err != nil {
			return "", err
		}
	default:
		return "", err
	}

	names := func(n int) string {
		if n < 0 {
			return prefix + suffix
		}
		return prefix + strconv.Itoa(n) + suffix
	}

	n := -1
	if prefix == "" && suffix == "" {
		n = 0
	}

	for ; ; n++ {
		p := filepath.Join(dir, names(n))

		f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, FilePerm)
		if err == nil {
			return p, f.Close()
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", err
		}
	}
}

// PathLength returns the length of the cleaned path.
func PathLength(path string) int {
	return len(filepath.Clean(path))
}
