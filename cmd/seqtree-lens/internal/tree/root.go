package tree

import (
	"github.com/spf13/cobra"
)

var (
	vPath       string
	vRange      uint64
	vNoProgress bool
	vCountFiles bool
)

// Root contains `tree` command definition.
var Root = &cobra.Command{
	Use:   "tree",
	Short: "Operations with an object tree",
}

func init() {
	Root.AddCommand(infoCMD)
	Root.AddCommand(listCMD)
	Root.AddCommand(verifyCMD)
	Root.AddCommand(addDirCMD)
	Root.AddCommand(deleteCMD)
	Root.AddCommand(backupCMD)
}
