package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/getmockd/mockbetter/pkg/cliconfig"
)

var (
	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

const flagJSON = "json"

// NewRootCommand builds the mockbetter command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "mockbetter",
		Short: "mockbetter is a configurable multi-tenant HTTP mock server",
		Long: `mockbetter serves canned JSON responses for any number of tenants.

Routes, default behavior and response headers are configured at runtime through
the administrative endpoints under the prefix (default "mock"); every other
request is recorded in its tenant's history and answered by the first matching
route.

Flags can also be set through environment variables named MOCKBETTER_<FLAG>,
for example MOCKBETTER_PORT or MOCKBETTER_METRICS_LISTEN.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cliconfig.AddLoggingFlags(root.PersistentFlags())
	root.PersistentFlags().Bool(flagJSON, false, "Output command results in JSON format")

	root.AddCommand(
		newServeCommand(),
		newConfCommand(),
		newResetCommand(),
		newRoutesCommand(),
		newHistoryCommand(),
		newVersionCommand(),
	)
	return root
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func jsonOutput(cmd *cobra.Command) bool {
	v, err := cmd.Flags().GetBool(flagJSON)
	return err == nil && v
}
