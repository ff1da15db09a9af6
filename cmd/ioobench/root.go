package main

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:     "ioobench",
	Short:   "Benchmark handle-graph allocation against plain pointer graphs",
	Version: "0.1.0",
}

func init() {
	rootCmd.AddCommand(newRunCmd())
}
