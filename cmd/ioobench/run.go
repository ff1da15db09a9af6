package main

import (
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	entity "github.com/ruoso/poc-inside-out-objects"
)

// bufferOrder sizes slab buffers at 1024 slots; wide enough to keep
// the superbuffer table small for a uint32 index space.
const bufferOrder = 10

func newRunCmd() *cobra.Command {
	var depth int
	var ticks int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build a binary tree and tick it, once per implementation",
		Long: `run builds a binary tree of the given depth using both the
handle-graph allocator and a plain Go pointer graph, then ticks each
tree forward, rebuilding every node with an incremented age each time
(mirroring the never-mutate-in-place contract of the handle graph),
and reports wall-clock time and throughput for each.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBenchmark(depth, ticks)
		},
	}
	cmd.Flags().IntVar(&depth, "depth", 10, "tree depth")
	cmd.Flags().IntVar(&ticks, "ticks", 100, "number of simulation ticks")
	return cmd
}

func runBenchmark(depth, ticks int) error {
	fmt.Printf("ioobench: depth=%d ticks=%d\n\n", depth, ticks)

	if err := runHandleGraph(depth, ticks); err != nil {
		return fmt.Errorf("handle graph run: %w", err)
	}
	runPtrGraph(depth, ticks)
	return nil
}

func runHandleGraph(depth, ticks int) error {
	s, err := entity.New[handleNode, uint32, uint8](bufferOrder)
	if err != nil {
		return err
	}

	var age int
	root, err := createHandleTree(s, depth, &age)
	if err != nil {
		return err
	}

	bar := progressbar.Default(int64(ticks), "handle graph")
	start := time.Now()
	for i := 0; i < ticks; i++ {
		next, err := simulateHandleTick(s, root)
		if err != nil {
			return err
		}
		root.Close()
		root = next
		_ = visitHandleTree(root)
		bar.Add(1)
	}
	elapsed := time.Since(start)
	bar.Close()

	closeHandleTree(root)
	s.ReturnFreePoolToGlobal()

	fmt.Printf("handle graph: %v total, %.0f ticks/sec, reserved=%d, capacity=%d\n\n",
		elapsed, float64(ticks)/elapsed.Seconds(), s.Reserved(), s.Capacity())
	return nil
}

func runPtrGraph(depth, ticks int) {
	var age int
	root := createPtrTree(depth, &age)

	bar := progressbar.Default(int64(ticks), "pointer graph")
	start := time.Now()
	for i := 0; i < ticks; i++ {
		root = simulatePtrTick(root)
		_ = visitPtrTree(root)
		bar.Add(1)
	}
	elapsed := time.Since(start)
	bar.Close()

	fmt.Printf("pointer graph: %v total, %.0f ticks/sec\n", elapsed, float64(ticks)/elapsed.Seconds())
}
