package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	pagetiming "github.com/perfbreak/go-pagetiming"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the pagetiming version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("pagetiming " + pagetiming.Version)
	},
}
