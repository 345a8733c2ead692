package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the arena version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("arena %s\n", version)
	},
}
