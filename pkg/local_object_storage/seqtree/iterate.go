package seqtree

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/seqtree/pkg/local_object_storage/seqtree/common"
	"go.uber.org/zap"
)

// IterationElement is an object passed to IterationHandler.
type IterationElement[T any] struct {
	ID     uint64
	Object T
}

// IterationHandler processes stored objects. Any returned error stops the
// iteration and is returned from Iterate.
type IterationHandler[T any] func(IterationElement[T]) error

// IteratePrm groups parameters of Iterate.
type IteratePrm[T any] struct {
	Handler IterationHandler[T]
	// IgnoreErrors makes Iterate log and skip objects which can't be read or
	// decoded instead of failing.
	IgnoreErrors bool
	// Start is the first id to process.
	Start uint64
}

// Iterate passes stored objects to the handler in order of their ids.
// Reserved directories and missing objects are skipped.
func (x *Cache[T]) Iterate(prm IteratePrm[T]) error {
	for id := prm.Start; id < x.nextID; id++ {
		v, err := x.get(id)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				continue
			}
			if prm.IgnoreErrors {
				x.log.Warn("skip object on iteration",
					zap.Uint64("id", id),
					zap.Error(err))
				continue
			}
			return fmt.Errorf("iterate over object %d: %w", id, err)
		}

		err = prm.Handler(IterationElement[T]{ID: id, Object: v})
		if err != nil {
			return err
		}
	}

	return nil
}
