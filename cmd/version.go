package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/khanhnv2901/seca-stacks/internal/stacks"
)

// Version information (injected at build time via -ldflags)
// These default values indicate a development build
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Display detailed version information for seca-stacks",
	Run: func(cmd *cobra.Command, args []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		out := cmd.OutOrStdout()

		if verbose {
			fmt.Fprintf(out, `seca-stacks Version Information:
  Version:     %s
  Git Commit:  %s
  Build Date:  %s
  Catalog Key: %s
  Go Version:  %s
  OS/Arch:     %s/%s
  Compiler:    %s
`, Version, GitCommit, BuildDate, stacks.CatalogBindingKey, runtime.Version(), runtime.GOOS, runtime.GOARCH, runtime.Compiler)
		} else {
			fmt.Fprintf(out, "seca-stacks version %s\n", Version)
		}
	},
}

func init() {
	versionCmd.Flags().BoolP("verbose", "v", false, "Show detailed version information")
}
