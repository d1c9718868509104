package tree

import (
	"errors"

	common "github.com/nspcc-dev/seqtree/cmd/seqtree-lens/internal"
	"github.com/spf13/cobra"
)

var vCount uint64

var addDirCMD = &cobra.Command{
	Use:   "add-dir",
	Short: "Reserve directories",
	Long:  `Reserve the next ids as empty directories growing the tree ahead of writes.`,
	Args:  cobra.NoArgs,
	RunE:  addDirFunc,
}

func init() {
	common.AddPathFlag(addDirCMD, &vPath)
	common.AddRangeFlag(addDirCMD, &vRange)
	common.AddNoProgressFlag(addDirCMD, &vNoProgress)
	addDirCMD.Flags().Uint64Var(&vCount, "count", 1, "Number of directories to reserve")
}

func addDirFunc(cmd *cobra.Command, _ []string) error {
	if vCount == 0 {
		return errors.New("count must be positive")
	}

	c, err := common.OpenOrCreateStore(common.StorePrm{Path: vPath, Range: vRange})
	if err != nil {
		return err
	}
	defer c.Close()

	bar := common.NewProgressBar(cmd, int(vCount), vNoProgress)
	defer bar.Finish()

	for range vCount {
		if err := cmd.Context().Err(); err != nil {
			return err
		}

		ref, err := c.AddDir()
		if err != nil {
			return err
		}

		bar.Increment()

		if vCount == 1 {
			cmd.Printf("Reserved %d: %s\n", ref.ID, ref.Path)
		}
	}

	if vCount > 1 {
		cmd.Printf("Reserved %d directories, next id %d\n", vCount, c.Len())
	}

	return nil
}
