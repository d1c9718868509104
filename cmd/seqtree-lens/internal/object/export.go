package object

import (
	"fmt"
	"path/filepath"
	"strconv"

	common "github.com/nspcc-dev/seqtree/cmd/seqtree-lens/internal"
	storcommon "github.com/nspcc-dev/seqtree/pkg/local_object_storage/seqtree/common"
	"github.com/nspcc-dev/seqtree/pkg/util/fsio"
	"github.com/spf13/cobra"
)

const flagDir = "dir"

var exportCMD = &cobra.Command{
	Use:   "export",
	Short: "Copy object to a directory",
	Long: `Copy the file of an object into a directory. The copy is named <id>_.bin,
a number is added before the suffix if the name is taken.`,
	Args: cobra.NoArgs,
	RunE: exportFunc,
}

func init() {
	common.AddPathFlag(exportCMD, &vPath)
	common.AddRangeFlag(exportCMD, &vRange)
	common.AddIDFlag(exportCMD, &vID)
	exportCMD.Flags().StringVar(&vDir, flagDir, "", "Directory to copy the object to, created if missing")
	_ = exportCMD.MarkFlagRequired(flagDir)
}

func exportFunc(cmd *cobra.Command, _ []string) error {
	c, err := common.OpenStore(common.StorePrm{Path: vPath, Range: vRange, ReadOnly: true})
	if err != nil {
		return err
	}
	defer c.Close()

	p, err := c.Path(vID)
	if err != nil {
		return err
	}

	ok, err := c.Exists(vID)
	if err != nil {
		return common.Errf("could not check object: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: id %d", storcommon.ErrNotFound, vID)
	}

	dst, err := fsio.CreateNewFile(vDir, strconv.FormatUint(vID, 10)+"_", ".bin")
	if err != nil {
		return common.Errf("could not create file: %w", err)
	}

	err = fsio.CopyFile(p, filepath.Dir(dst), filepath.Base(dst))
	if err != nil {
		return common.Errf("could not copy object: %w", err)
	}

	cmd.Printf("Exported %d to %s\n", vID, dst)

	return nil
}
