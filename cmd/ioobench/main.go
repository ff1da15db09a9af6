// Command ioobench compares the handle-graph allocator in this module
// against a plain Go pointer graph relying on the garbage collector,
// grounded on original_source/src/benchmark/benchmark.cpp's
// TestObjectManaged vs TestObjectSharedPtr comparison.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
