package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/apertium-contrib/twlearn/weights"
)

var pruneCmd = &cobra.Command{
	Use:   "prune INPUT_FILE [OUTPUT_FILE]",
	Short: "Collapse a weights document down to its per-rule-group exception entries",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runPrune,
}

func init() {
	rootCmd.AddCommand(pruneCmd)
}

func runPrune(cmd *cobra.Command, args []string) error {
	inPath := args[0]
	outPath := defaultSuffixedPath(inPath, "-prunned.w1x")
	if len(args) == 2 {
		outPath = args[1]
	}

	content, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("read weights file %q: %w", inPath, err)
	}

	doc, err := weights.Load(content)
	if err != nil {
		return err
	}

	pruned := weights.Prune(doc)
	out, err := pruned.Write()
	if err != nil {
		return err
	}

	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		return fmt.Errorf("write pruned weights file %q: %w", outPath, err)
	}

	fmt.Println(outPath)
	return nil
}

// defaultSuffixedPath trims input's extension and appends suffix, matching
// prune.py/remgen.py's "ifname.rsplit('.', 1)[0] + suffix" convention.
func defaultSuffixedPath(inPath, suffix string) string {
	if i := strings.LastIndexByte(inPath, '.'); i >= 0 {
		return inPath[:i] + suffix
	}
	return inPath + suffix
}
