package tree

import (
	"fmt"
	"path/filepath"
	"strings"

	common "github.com/nspcc-dev/seqtree/cmd/seqtree-lens/internal"
	"github.com/nspcc-dev/seqtree/pkg/util/fsio"
	"github.com/spf13/cobra"
)

var vTo string

var backupCMD = &cobra.Command{
	Use:   "backup",
	Short: "Copy a tree",
	Long: `Copy all objects and directories of a tree into another directory. The tree
is opened read-only, so writers are excluded while copying.`,
	Args: cobra.NoArgs,
	RunE: backupFunc,
}

func init() {
	common.AddPathFlag(backupCMD, &vPath)
	common.AddRangeFlag(backupCMD, &vRange)
	backupCMD.Flags().StringVar(&vTo, "to", "", "Destination directory, created if missing")
	_ = backupCMD.MarkFlagRequired("to")
}

func backupFunc(cmd *cobra.Command, _ []string) error {
	c, err := common.OpenStore(common.StorePrm{Path: vPath, Range: vRange, ReadOnly: true})
	if err != nil {
		return err
	}
	defer c.Close()

	src, err := filepath.Abs(c.BaseDir())
	if err != nil {
		return err
	}
	dst, err := filepath.Abs(vTo)
	if err != nil {
		return err
	}

	rel, err := filepath.Rel(src, dst)
	if err == nil && (rel == "." || !strings.HasPrefix(rel, "..")) {
		return fmt.Errorf("destination %s is inside the tree", vTo)
	}

	err = fsio.Copy(src, dst)
	if err != nil {
		return common.Errf("could not copy tree: %w", err)
	}

	cmd.Printf("Copied %d ids to %s\n", c.Len(), dst)

	return nil
}
