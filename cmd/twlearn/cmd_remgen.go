package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/apertium-contrib/twlearn/weights"
)

var remgenCmd = &cobra.Command{
	Use:   "remgen INPUT_FILE [OUTPUT_FILE]",
	Short: "Drop generalized (no-lemma) patterns from a weights document",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runRemgen,
}

func init() {
	rootCmd.AddCommand(remgenCmd)
}

func runRemgen(cmd *cobra.Command, args []string) error {
	inPath := args[0]
	outPath := defaultSuffixedPath(inPath, "-remgen.w1x")
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

	removeGeneralized(doc)

	out, err := doc.Write()
	if err != nil {
		return err
	}
	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		return fmt.Errorf("write weights file %q: %w", outPath, err)
	}

	fmt.Println(outPath)
	return nil
}

// removeGeneralized drops every pattern holding at least one pattern-item
// with an empty lemma, matching remove_generalized.
func removeGeneralized(doc *weights.Document) {
	for _, group := range doc.Groups {
		for _, rule := range group.Rules {
			kept := rule.Patterns[:0]
			for _, pat := range rule.Patterns {
				if hasEmptyLemma(pat) {
					continue
				}
				kept = append(kept, pat)
			}
			rule.Patterns = kept
		}
	}
}

func hasEmptyLemma(pat *weights.Pattern) bool {
	for _, item := range pat.Items {
		if item.Lemma == "" {
			return true
		}
	}
	return false
}
