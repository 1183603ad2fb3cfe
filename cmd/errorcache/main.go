package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var (
	noColor bool
	flagURL string
	flagKey string
)

var rootCmd = &cobra.Command{
	Use:     "errorcache",
	Short:   "ErrorCache agent plugins: error watching, solution search, submit, verify",
	Version: version,
	Long: `errorcache connects agent tooling to the ErrorCache knowledge base.

The serve command runs an MCP server exposing the errorcache tool and a
passive watcher over tool lifecycle events. The search, submit, and verify
commands talk to the remote API directly.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&flagURL, "api-url", "", "ErrorCache API base URL (overrides ERRORCACHE_API_URL)")
	rootCmd.PersistentFlags().StringVar(&flagKey, "api-key", "", "ErrorCache API bearer token (overrides ERRORCACHE_API_KEY)")

	rootCmd.AddCommand(serveCmd, searchCmd, submitCmd, verifyCmd, extractCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
