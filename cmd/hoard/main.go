package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "hoard",
	Short: "Hoard - permissioned asset store with executable assets",
	Long: `Hoard keeps executable assets in a hierarchical namespace with
POSIX-style permissions, builds them on demand and serves them
over a single HTTP query endpoint.

State persists as self-describing JSON, so every stored asset
stays inspectable with standard tools.`,
	Version: Version,
}

func init() {
	// Set version template
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Hoard version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))
}
