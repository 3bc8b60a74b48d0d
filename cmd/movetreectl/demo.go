package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nicolagi/movetree/internal/crdt"
	"github.com/nicolagi/movetree/internal/fs"
	"github.com/nicolagi/movetree/internal/replica"
)

func newDemoCommand() *cobra.Command {
	var replicas int
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a small multi-replica scenario in memory and print the converged tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(replicas)
		},
	}
	cmd.Flags().IntVar(&replicas, "replicas", 2, "number of replicas to simulate")
	return cmd
}

func runDemo(n int) error {
	if n < 1 {
		n = 1
	}
	ids := make([]uuid.UUID, n)
	for i := range ids {
		ids[i] = uuid.New()
	}

	systems := make([]*fs.FileSystem, n)
	reps := make([]*replica.Replica, n)
	for i, id := range ids {
		var peers []uuid.UUID
		for j, other := range ids {
			if j != i {
				peers = append(peers, other)
			}
		}
		r := replica.New(id, peers...)
		sys, err := fs.New(r)
		if err != nil {
			return err
		}
		reps[i] = r
		systems[i] = sys
	}

	if _, err := systems[0].Mkdir(fs.RootIno, "docs"); err != nil {
		return err
	}
	if n > 1 {
		if _, err := systems[1].Mknod(fs.RootIno, "README.md"); err != nil {
			return err
		}
	}

	for round := 0; round < 2; round++ {
		for i, r := range reps {
			for j, other := range reps {
				if i == j {
					continue
				}
				if err := r.ApplyLogOps(other.Log()); err != nil {
					return err
				}
			}
		}
	}
	for _, sys := range systems {
		if err := sys.Reconcile(fs.RenameAll); err != nil {
			return err
		}
	}
	for i, r := range reps {
		for j, other := range reps {
			if i == j {
				continue
			}
			if err := r.ApplyLogOps(other.Log()); err != nil {
				return err
			}
		}
	}

	fmt.Println("converged tree, as seen from replica 0:")
	printTree(systems[0], fs.RootIno, "  ")

	fmt.Println()
	fmt.Println("g-counter demo across the same replica set:")
	counters := make([]*crdt.GCounter, n)
	for i, id := range ids {
		var members []uuid.UUID
		for _, other := range ids {
			if other != id {
				members = append(members, other)
			}
		}
		counters[i] = crdt.NewGCounter(id, members)
	}
	counters[0].Increment(3)
	if n > 1 {
		counters[1].Increment(4)
	}
	for i := 1; i < n; i++ {
		if err := counters[0].Merge(counters[i]); err != nil {
			return err
		}
	}
	fmt.Printf("  converged value: %d\n", counters[0].Value())
	return nil
}
