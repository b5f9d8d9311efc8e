// Package main provides the entry point for the hashfang CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/hashfang/cmd/hashfang/commands"
	"github.com/Sumatoshi-tech/hashfang/pkg/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "hashfang",
		Short: "hashfang - concurrent multi-algorithm file hashing",
		Long: `hashfang hashes files and directory trees with one or more algorithms in a
single pass, and verifies checksum ledgers produced by earlier runs.

Commands:
  hash        Hash files and directories
  verify      Verify files against a checksum ledger
  algorithms  List supported hash algorithms
  version     Show version information`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	commands.RegisterPersistentFlags(rootCmd)

	rootCmd.AddCommand(commands.NewHashCommand())
	rootCmd.AddCommand(commands.NewVerifyCommand())
	rootCmd.AddCommand(commands.NewAlgorithmsCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "hashfang %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
