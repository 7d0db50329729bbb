package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/apertium-contrib/twlearn/rules"
)

var rlistCmd = &cobra.Command{
	Use:   "rlist RULES_FILE",
	Short: "List a transfer-rules file's rule patterns and comments",
	Args:  cobra.ExactArgs(1),
	RunE:  runRlist,
}

func init() {
	rootCmd.AddCommand(rlistCmd)
}

func runRlist(cmd *cobra.Command, args []string) error {
	content, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read rules file %q: %w", args[0], err)
	}

	doc, err := rules.Load(content)
	if err != nil {
		return err
	}

	for _, rule := range doc.Rules {
		fmt.Printf("%d %s\n", rule.Index, rule.Attrs()["comment"])
		fmt.Println(strings.Join(rule.Pattern, " "))
		fmt.Println()
	}

	return nil
}
