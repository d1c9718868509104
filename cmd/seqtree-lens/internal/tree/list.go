package tree

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	common "github.com/nspcc-dev/seqtree/cmd/seqtree-lens/internal"
	"github.com/spf13/cobra"
)

var vFrom uint64

var listCMD = &cobra.Command{
	Use:   "list",
	Short: "Object listing",
	Long:  `List allocated ids of a tree with their paths and sizes. Reserved directories are marked as such.`,
	Args:  cobra.NoArgs,
	RunE:  listFunc,
}

func init() {
	common.AddPathFlag(listCMD, &vPath)
	common.AddRangeFlag(listCMD, &vRange)
	listCMD.Flags().Uint64Var(&vFrom, "from", 0, "First id to list")
}

func listFunc(cmd *cobra.Command, _ []string) error {
	c, err := common.OpenStore(common.StorePrm{Path: vPath, Range: vRange, ReadOnly: true})
	if err != nil {
		return err
	}
	defer c.Close()

	w := cmd.OutOrStdout()

	for id := vFrom; id < c.Len(); id++ {
		addr, err := c.Address(id)
		if err != nil {
			return err
		}

		var info string

		fi, err := os.Stat(addr.Path(c.BaseDir()))
		switch {
		case err == nil:
			info = strconv.FormatInt(fi.Size(), 10)
		case errors.Is(err, fs.ErrNotExist):
			info = "missing"
			if _, err := os.Stat(addr.SlotPath(c.BaseDir())); err == nil {
				info = "reserved"
			}
		default:
			return common.Errf("could not stat object: %w", err)
		}

		_, err = fmt.Fprintf(w, "%d\t%s\t%s\n", id, addr, info)
		if err != nil {
			return err
		}
	}

	return nil
}
