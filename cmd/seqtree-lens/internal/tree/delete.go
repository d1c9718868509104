package tree

import (
	"errors"

	common "github.com/nspcc-dev/seqtree/cmd/seqtree-lens/internal"
	"github.com/spf13/cobra"
)

var vConfirmed bool

var deleteCMD = &cobra.Command{
	Use:   "delete",
	Short: "Delete a tree",
	Long:  `Remove every object and directory of a tree including its root directory.`,
	Args:  cobra.NoArgs,
	RunE:  deleteFunc,
}

func init() {
	common.AddPathFlag(deleteCMD, &vPath)
	common.AddRangeFlag(deleteCMD, &vRange)
	deleteCMD.Flags().BoolVar(&vConfirmed, "yes", false, "Confirm the removal")
}

func deleteFunc(cmd *cobra.Command, _ []string) error {
	if !vConfirmed {
		return errors.New("removal is not confirmed, use --yes")
	}

	c, err := common.OpenStore(common.StorePrm{Path: vPath, Range: vRange})
	if err != nil {
		return err
	}

	p := c.BaseDir()

	err = c.Delete()
	if err != nil {
		return common.Errf("could not delete tree: %w", err)
	}

	cmd.Printf("Deleted %s\n", p)

	return nil
}
