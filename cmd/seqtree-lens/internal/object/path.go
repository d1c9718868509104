package object

import (
	common "github.com/nspcc-dev/seqtree/cmd/seqtree-lens/internal"
	"github.com/spf13/cobra"
)

var pathCMD = &cobra.Command{
	Use:   "path",
	Short: "Object location",
	Long:  `Print the file path of an allocated id.`,
	Args:  cobra.NoArgs,
	RunE:  pathFunc,
}

func init() {
	common.AddPathFlag(pathCMD, &vPath)
	common.AddRangeFlag(pathCMD, &vRange)
	common.AddIDFlag(pathCMD, &vID)
}

func pathFunc(cmd *cobra.Command, _ []string) error {
	c, err := common.OpenStore(common.StorePrm{Path: vPath, Range: vRange, ReadOnly: true})
	if err != nil {
		return err
	}
	defer c.Close()

	p, err := c.Path(vID)
	if err != nil {
		return err
	}

	cmd.Println(p)

	return nil
}
