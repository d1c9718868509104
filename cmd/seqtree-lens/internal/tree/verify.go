package tree

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"

	common "github.com/nspcc-dev/seqtree/cmd/seqtree-lens/internal"
	storcommon "github.com/nspcc-dev/seqtree/pkg/local_object_storage/seqtree/common"
	"github.com/nspcc-dev/seqtree/pkg/util"
	"github.com/nspcc-dev/seqtree/pkg/util/fsio"
	"github.com/spf13/cobra"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

var verifyCMD = &cobra.Command{
	Use:   "verify",
	Short: "Tree consistency check",
	Long: `Check that every allocated id of a tree has either a readable object or
a reserved directory. Fails if anything is missing.`,
	Args: cobra.NoArgs,
	RunE: verifyFunc,
}

func init() {
	common.AddPathFlag(verifyCMD, &vPath)
	common.AddRangeFlag(verifyCMD, &vRange)
	common.AddNoProgressFlag(verifyCMD, &vNoProgress)
}

func verifyFunc(cmd *cobra.Command, _ []string) error {
	c, err := common.OpenStore(common.StorePrm{Path: vPath, Range: vRange, ReadOnly: true})
	if err != nil {
		return err
	}
	defer c.Close()

	pool, err := util.NewWorkerPool(common.Workers())
	if err != nil {
		return common.Errf("could not create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		wg       sync.WaitGroup
		objects  atomic.Uint64
		reserved atomic.Uint64
		missing  atomic.Uint64
		failed   atomic.Uint64
		bar      = common.NewProgressBar(cmd, int(c.Len()), vNoProgress)
		log      = common.Logger()
	)

	// Paths are computed in the caller's routine, Cache is not safe for
	// concurrent use.
	for id := range c.Len() {
		if err := cmd.Context().Err(); err != nil {
			wg.Wait()
			return err
		}

		addr, err := c.Address(id)
		if err != nil {
			wg.Wait()
			return err
		}

		file := addr.Path(c.BaseDir())
		slot := addr.SlotPath(c.BaseDir())

		wg.Add(1)

		err = pool.Submit(func() {
			defer wg.Done()
			defer bar.Increment()

			switch err := checkEntry(file, slot); {
			case err == nil:
				objects.Inc()
			case errors.Is(err, errReserved):
				reserved.Inc()
			case errors.Is(err, storcommon.ErrNotFound):
				missing.Inc()
				log.Error("object is missing", zap.Uint64("id", id), zap.String("path", file))
			default:
				failed.Inc()
				log.Error("object can't be read", zap.Uint64("id", id), zap.Error(err))
			}
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return common.Errf("could not submit check: %w", err)
		}
	}

	wg.Wait()
	bar.Finish()

	cmd.Printf("Objects: %d, reserved: %d, missing: %d, unreadable: %d\n",
		objects.Load(), reserved.Load(), missing.Load(), failed.Load())

	if n := missing.Load(); n > 0 {
		return fmt.Errorf("%w: %d ids have neither object nor directory", storcommon.ErrNotFound, n)
	}
	if n := failed.Load(); n > 0 {
		return fmt.Errorf("%w: %d objects can't be read", storcommon.ErrCorruptData, n)
	}

	return nil
}

var errReserved = errors.New("reserved directory")

// checkEntry reads the object file or checks the reserved directory.
func checkEntry(file, slot string) error {
	r, err := fsio.OpenRead(file)
	if err == nil {
		defer r.Close()

		_, err = r.Read(make([]byte, 1))
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}

		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	fi, err := os.Stat(slot)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return storcommon.ErrNotFound
		}
		return err
	}
	if !fi.IsDir() {
		return fmt.Errorf("%w: %s", storcommon.ErrNotADirectory, slot)
	}

	return errReserved
}
