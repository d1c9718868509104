package util

import (
	"errors"
	"os"
	"syscall"
)

// dirExecBits makes directories traversable by the user and the group
// regardless of the configured permissions.
const dirExecBits = 0110

// MkdirAllX calls os.MkdirAll with the passed permissions
// but with +x for a user and a group. This makes the created
// dir openable regardless of the passed permissions.
func MkdirAllX(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm|dirExecBits)
}

// MkdirX creates a single directory like os.Mkdir with +x for a user and a
// group. It reports whether the directory was created by this call: an
// already existing directory is not an error.
func MkdirX(path string, perm os.FileMode) (bool, error) {
	err := os.Mkdir(path, perm|dirExecBits)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, os.ErrExist) {
		return false, err
	}

	fi, statErr := os.Stat(path)
	if statErr != nil {
		return false, statErr
	}
	if !fi.IsDir() {
		return false, &os.PathError{Op: "mkdir", Path: path, Err: syscall.ENOTDIR}
	}

	return false, nil
}

// IsNotDir checks whether err reports that a path component is not a
// directory.
func IsNotDir(err error) bool {
	return errors.Is(err, syscall.ENOTDIR)
}
