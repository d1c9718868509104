package object

import (
	"io"

	common "github.com/nspcc-dev/seqtree/cmd/seqtree-lens/internal"
	"github.com/nspcc-dev/seqtree/pkg/util/fsio"
	"github.com/spf13/cobra"
)

var getCMD = &cobra.Command{
	Use:   "get",
	Short: "Get object",
	Long:  `Get object data by its id.`,
	Args:  cobra.NoArgs,
	RunE:  getFunc,
}

func init() {
	common.AddPathFlag(getCMD, &vPath)
	common.AddRangeFlag(getCMD, &vRange)
	common.AddIDFlag(getCMD, &vID)
	common.AddOutputFileFlag(getCMD, &vOut)
	common.AddNoProgressFlag(getCMD, &vNoProgress)
}

func getFunc(cmd *cobra.Command, _ []string) error {
	c, err := common.OpenStore(common.StorePrm{Path: vPath, Range: vRange, ReadOnly: true})
	if err != nil {
		return err
	}
	defer c.Close()

	r, err := c.GetStream(vID)
	if err != nil {
		return common.Errf("could not fetch object: %w", err)
	}
	defer r.Close()

	size, err := r.Seek(0, io.SeekEnd)
	if err == nil {
		_, err = r.Seek(0, io.SeekStart)
	}
	if err != nil {
		return common.Errf("could not get object size: %w", err)
	}

	if vOut == "" {
		_, err = io.Copy(cmd.OutOrStdout(), r)
		if err != nil {
			return common.Errf("could not write object: %w", err)
		}
		return nil
	}

	w, err := fsio.OpenWrite(vOut, false)
	if err != nil {
		return common.Errf("could not create file: %w", err)
	}

	pr, bar := common.ProxyReader(cmd, r, size, vNoProgress)

	_, err = io.Copy(w, pr)
	bar.Finish()
	if errClose := w.Close(); err == nil {
		err = errClose
	}
	if err != nil {
		return common.Errf("could not write object: %w", err)
	}

	cmd.Printf("Saved %d bytes to %s\n", size, vOut)

	return nil
}
