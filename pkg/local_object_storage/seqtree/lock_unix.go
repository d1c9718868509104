//go:build unix

package seqtree

import (
	"errors"
	"fmt"
	"os"

	"github.com/nspcc-dev/seqtree/pkg/local_object_storage/seqtree/common"
	"golang.org/x/sys/unix"
)

type writerLock struct {
	f *os.File
}

func acquireLock(path string) (*writerLock, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	err = unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if err != nil {
		_ = f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, fmt.Errorf("%w: %s", common.ErrLocked, path)
		}
		return nil, fmt.Errorf("lock %q: %w", path, err)
	}

	return &writerLock{f: f}, nil
}

func (l *writerLock) release() error {
	err := unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
	errClose := l.f.Close()
	if err != nil {
		return fmt.Errorf("unlock: %w", err)
	}
	return errClose
}
