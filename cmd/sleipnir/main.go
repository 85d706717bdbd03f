// Command sleipnir is the single entrypoint for the matching engine,
// replacing the teacher's two separate cmd/server and cmd/client binaries
// with one cobra-rooted CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "sleipnir",
		Short: "Single-venue, single-symbol matching engine",
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newClientCmd())
	root.AddCommand(newBenchCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
