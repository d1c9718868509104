package object

import (
	"io"
	"os"

	common "github.com/nspcc-dev/seqtree/cmd/seqtree-lens/internal"
	"github.com/spf13/cobra"
)

var putCMD = &cobra.Command{
	Use:   "put [FILE]...",
	Short: "Put objects",
	Long: `Store files as objects under the next ids, standard input is read if no
files are given. The tree is created if it does not exist, its range must be
set then.`,
	RunE: putFunc,
}

func init() {
	common.AddPathFlag(putCMD, &vPath)
	common.AddRangeFlag(putCMD, &vRange)
	common.AddNoProgressFlag(putCMD, &vNoProgress)
}

func putFunc(cmd *cobra.Command, args []string) error {
	c, err := common.OpenOrCreateStore(common.StorePrm{Path: vPath, Range: vRange})
	if err != nil {
		return err
	}
	defer c.Close()

	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return common.Errf("could not read input: %w", err)
		}

		id, err := c.Add(data)
		if err != nil {
			return common.Errf("could not put object: %w", err)
		}

		cmd.Println(id)

		return nil
	}

	bar := common.NewProgressBar(cmd, len(args), vNoProgress)
	defer bar.Finish()

	for _, p := range args {
		if err := cmd.Context().Err(); err != nil {
			return err
		}

		data, err := os.ReadFile(p)
		if err != nil {
			return common.Errf("could not read file: %w", err)
		}

		id, err := c.Add(data)
		if err != nil {
			return common.Errf("could not put object: %w", err)
		}

		bar.Increment()

		if bar == nil {
			cmd.Printf("%d\t%s\n", id, p)
		}
	}

	return nil
}
