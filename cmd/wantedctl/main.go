package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var addr string

	root := &cobra.Command{
		Use:           "wantedctl",
		Short:         "Admin tool for the wanted directory backend",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&addr, "addr", "http://localhost:4000", "base URL of the backend")

	root.AddCommand(
		newStatsCmd(&addr),
		newClearCmd(&addr),
		newWarmupCmd(&addr),
	)
	return root
}
