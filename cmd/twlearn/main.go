// Package main implements the twlearn CLI.
//
// Entry point and command registration live here; each subcommand's
// implementation is split across the other cmd_*.go files.
//
// # File Index
//
//   - main.go        - rootCmd, global flags, init()
//   - cmd_learn.go   - learnCmd: tags a corpus and learns transfer-rule weights
//   - cmd_prune.go   - pruneCmd: collapses a weights document to its exceptions
//   - cmd_rlist.go   - rlistCmd: lists a transfer-rules file's patterns
//   - cmd_remgen.go  - remgenCmd: drops generalized (no-lemma) patterns
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/apertium-contrib/twlearn/twlog"
)

var (
	// Global flags
	verbose bool

	logger *twlog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "twlearn",
	Short: "Learns Apertium transfer-rule weights from a corpus",
	Long: `twlearn estimates per-rule weights for ambiguous Apertium transfer
rules, either by scoring candidate translations of a monolingual corpus
against a language model, or by checking candidate translations of a
parallel corpus against its reference target text.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := twlog.New(verbose)
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
