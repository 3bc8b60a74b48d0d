package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"
)

func newDiffCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff <before-file> <after-file>",
		Short: "Print a textual diff between two tree-dump files (e.g. two movetreectl demo captures)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(args[0], args[1])
		},
	}
	return cmd
}

func runDiff(beforePath, afterPath string) error {
	before, err := os.ReadFile(beforePath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", beforePath, err)
	}
	after, err := os.ReadFile(afterPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", afterPath, err)
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(string(before), string(after), false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var out bytes.Buffer
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			out.WriteString("+ ")
		case diffmatchpatch.DiffDelete:
			out.WriteString("- ")
		default:
			out.WriteString("  ")
		}
		out.WriteString(d.Text)
	}
	fmt.Println(out.String())
	return nil
}
