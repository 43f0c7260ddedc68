package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "codenexus-engine",
	Short: "Code-quality analysis backend",
	Long: `codenexus-engine stores code-smell detection results per project and
serves time-bucketed and cross-project reports over them.

Examples:
  codenexus-engine serve                    # Run the HTTP API
  codenexus-engine migrate up               # Apply pending schema migrations
  codenexus-engine smells count scan.json   # Count findings in a detection payload`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Version = Version

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(smellsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+err.Error())
		os.Exit(1)
	}
}
