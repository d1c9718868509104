//go:build !unix

package seqtree

// writerLock is not enforced on systems without flock.
type writerLock struct{}

func acquireLock(string) (*writerLock, error) {
	return &writerLock{}, nil
}

func (*writerLock) release() error {
	return nil
}
