package object

import (
	"github.com/spf13/cobra"
)

var (
	vPath       string
	vRange      uint64
	vID         uint64
	vOut        string
	vDir        string
	vNoProgress bool
)

// Root contains `object` command definition.
var Root = &cobra.Command{
	Use:   "object",
	Short: "Operations with objects of a tree",
}

func init() {
	Root.AddCommand(getCMD)
	Root.AddCommand(putCMD)
	Root.AddCommand(pathCMD)
	Root.AddCommand(exportCMD)
}
