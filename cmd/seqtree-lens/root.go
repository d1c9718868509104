package main

import (
	"os"

	"github.com/nspcc-dev/seqtree/cmd/internal/cmderr"
	common "github.com/nspcc-dev/seqtree/cmd/seqtree-lens/internal"
	"github.com/nspcc-dev/seqtree/cmd/seqtree-lens/internal/object"
	"github.com/nspcc-dev/seqtree/cmd/seqtree-lens/internal/tree"
	"github.com/nspcc-dev/seqtree/misc"
	"github.com/nspcc-dev/seqtree/pkg/util/autocomplete"
	"github.com/nspcc-dev/seqtree/pkg/util/grace"
	"github.com/spf13/cobra"
)

var command = &cobra.Command{
	Use:   "seqtree-lens",
	Short: "SeqTree Lens",
	Long: `SeqTree Lens provides tools to browse, fill and check trees of objects
stored under sequential ids.`,
	RunE:          entryPoint,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return common.Init(cmd)
	},
	PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
		return common.Finalize(cmd)
	},
}

func entryPoint(cmd *cobra.Command, _ []string) error {
	printVersion, _ := cmd.Flags().GetBool("version")
	if printVersion {
		cmd.Print(misc.BuildInfo("SeqTree Lens"))

		return nil
	}

	return cmd.Usage()
}

func init() {
	// use stdout as default output for cmd.Print()
	command.SetOut(os.Stdout)
	command.Flags().Bool("version", false, "Application version")
	common.AddConfigFlags(command)
	command.AddCommand(
		tree.Root,
		object.Root,
		autocomplete.Command(command.Use),
	)
}

func main() {
	err := command.ExecuteContext(grace.NewGracefulContext(nil))
	cmderr.ExitOnErr(cmderr.Wrap(err))
}
