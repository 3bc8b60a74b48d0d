// Command movetreectl is a demo and inspection CLI for the move-tree
// engine: it runs small in-memory multi-replica scenarios and prints the
// converged tree, and offers a textual diff between two tree snapshots.
//
// Restyled from the teacher's cmd/muscle/muscle.go subcommand-over-a-flag-
// set dispatch onto cobra/pflag, the CLI stack carried by gcsfuse and
// rclone in the example pack.
package main

import (
	"fmt"
	"os"

	"github.com/google/gops/agent"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/nicolagi/movetree/internal/fs"
)

var verbosity string

func main() {
	root := &cobra.Command{
		Use:   "movetreectl",
		Short: "Inspect and demo the move-tree replicated filesystem engine",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := log.ParseLevel(verbosity)
			if err != nil {
				return err
			}
			log.SetLevel(level)
			return nil
		},
	}
	var flags *pflag.FlagSet = root.PersistentFlags()
	flags.StringVarP(&verbosity, "verbosity", "v", "warning", "log level, among "+levelNames())

	var gopsEnabled bool
	flags.BoolVar(&gopsEnabled, "gops", false, "start the gops diagnostics agent")
	root.PersistentPreRunE = wrapGops(root.PersistentPreRunE, &gopsEnabled)

	root.AddCommand(newDemoCommand())
	root.AddCommand(newDiffCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func wrapGops(inner func(cmd *cobra.Command, args []string) error, enabled *bool) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if inner != nil {
			if err := inner(cmd, args); err != nil {
				return err
			}
		}
		if *enabled {
			if err := agent.Listen(agent.Options{}); err != nil {
				return fmt.Errorf("starting gops agent: %w", err)
			}
		}
		return nil
	}
}

func levelNames() string {
	var names string
	for i, l := range log.AllLevels {
		if i > 0 {
			names += ", "
		}
		names += l.String()
	}
	return names
}

func printTree(fsys *fs.FileSystem, dirIno uint64, prefix string) {
	for i := 0; ; i++ {
		name, stat, ok := fsys.Readdir(dirIno, i)
		if !ok {
			return
		}
		fmt.Printf("%s%s (ino=%d kind=%s size=%d)\n", prefix, name, stat.Ino, stat.Kind, stat.Size)
		if stat.IsDir {
			printTree(fsys, stat.Ino, prefix+"  ")
		}
	}
}
