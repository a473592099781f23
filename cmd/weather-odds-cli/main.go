// Command weather-odds-cli answers likelihood queries offline, using the same
// service the HTTP server runs, and writes the export table to a file.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "weather-odds-cli",
	Short:         "Query historical weather likelihoods from the command line",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.AddCommand(newQueryCmd(), newVariablesCmd())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
