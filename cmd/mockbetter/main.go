// mockbetter CLI - Command-line interface for the mockbetter mock server
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/getmockd/mockbetter/pkg/cli"
)

// Build-time variables set via ldflags
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cli.Version, cli.Commit, cli.BuildDate = Version, Commit, BuildDate

	root := cli.NewRootCommand()
	root.SetArgs(serveByDefault(args))
	return root.ExecuteContext(context.Background())
}

// serveByDefault runs serve when no command is given, so that "mockbetter"
// and "mockbetter --port 3000" start the server.
func serveByDefault(args []string) []string {
	if len(args) == 0 {
		return []string{"serve"}
	}
	first := args[0]
	if first == "" || first[0] != '-' {
		return args
	}
	switch first {
	case "-h", "--help", "--version":
		return args
	}
	return append([]string{"serve"}, args...)
}
