package tree

import (
	"path/filepath"
	"strconv"

	common "github.com/nspcc-dev/seqtree/cmd/seqtree-lens/internal"
	"github.com/nspcc-dev/seqtree/pkg/local_object_storage/seqtree/address"
	"github.com/nspcc-dev/seqtree/pkg/util/fsio"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var infoCMD = &cobra.Command{
	Use:   "info",
	Short: "Tree state",
	Long: `Print the range, depth and occupancy of the active directories of a tree.
With --files stored object files are counted by walking the whole tree.`,
	Args:  cobra.NoArgs,
	RunE:  infoFunc,
}

func init() {
	common.AddPathFlag(infoCMD, &vPath)
	common.AddRangeFlag(infoCMD, &vRange)
	infoCMD.Flags().BoolVar(&vCountFiles, "files", false, "Count object files")
}

func infoFunc(cmd *cobra.Command, _ []string) error {
	c, err := common.OpenStore(common.StorePrm{Path: vPath, Range: vRange, ReadOnly: true})
	if err != nil {
		return err
	}
	defer c.Close()

	st := c.State()

	cmd.Printf("Path:    %s\n", c.BaseDir())
	cmd.Printf("Range:   %d\n", st.Range)
	cmd.Printf("Next ID: %d\n", st.NextID)
	cmd.Printf("Levels:  %d\n", st.Levels)

	if st.Levels == 0 {
		return nil
	}

	// Selectors grow with ids, so the last id has the longest path.
	p, err := c.Path(st.NextID - 1)
	if err != nil {
		return err
	}
	cmd.Printf("Longest path: %d\n", fsio.PathLength(p))

	if vCountFiles {
		files, err := fsio.Files(c.BaseDir())
		if err != nil {
			return common.Errf("could not list files: %w", err)
		}

		var n int
		for i := range files {
			if _, ok := address.ParseName(filepath.Base(files[i])); ok {
				n++
			}
		}
		cmd.Printf("Files:   %d\n", n)
	}

	tw := tablewriter.NewWriter(cmd.OutOrStdout())
	tw.SetHeader([]string{"Depth", "Directory", "Capacity", "Entries"})
	tw.SetAlignment(tablewriter.ALIGN_RIGHT)

	for i := range st.Levels {
		tw.Append([]string{
			strconv.Itoa(i + 1),
			strconv.FormatUint(st.Active[i], 10),
			strconv.FormatUint(st.Capacities[i], 10),
			strconv.FormatUint(st.DirCounts[i], 10),
		})
	}

	tw.Render()

	return nil
}
