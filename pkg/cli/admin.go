package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/getmockd/mockbetter/pkg/cli/internal/output"
	"github.com/getmockd/mockbetter/pkg/cli/internal/parse"
	"github.com/getmockd/mockbetter/pkg/client"
	"github.com/getmockd/mockbetter/pkg/cliconfig"
	"github.com/getmockd/mockbetter/pkg/config"
)

// newAdminClient resolves the server URL and prefix of cmd and returns a
// client for them.
func newAdminClient(cmd *cobra.Command) (*client.Client, error) {
	cfg, err := cliconfig.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}
	return client.New(cfg.AdminURL, cfg.Prefix), nil
}

// formatError adds a hint to connection failures.
func formatError(err error) error {
	if errors.Is(err, client.ErrConnection) {
		return fmt.Errorf(`%w

Suggestions:
  • Start the server: mockbetter serve
  • Check the server URL with --admin-url or MOCKBETTER_ADMIN_URL`, err)
	}
	return err
}

func printDocument(cmd *cobra.Command, data []byte) error {
	return output.Raw(cmd.OutOrStdout(), data)
}

// ============================================================================
// conf
// ============================================================================

func newConfCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "conf",
		Short: "Read or change the configuration document",
	}
	cliconfig.AddClientFlags(cmd.PersistentFlags())

	get := &cobra.Command{
		Use:   "get",
		Short: "Print the full configuration document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newAdminClient(cmd)
			if err != nil {
				return err
			}
			doc, err := c.Config(cmd.Context())
			if err != nil {
				return formatError(err)
			}
			return printDocument(cmd, doc)
		},
	}

	set := &cobra.Command{
		Use:   "set <json|@file>",
		Short: "Deep-merge a JSON object into the configuration",
		Long: `Deep-merge a JSON object into the configuration. Objects are merged
recursively, arrays are combined without adding duplicates, and any other value
replaces the current one.`,
		Example: `  mockbetter conf set '{"headers":{"X-Env":"test"}}'
  mockbetter conf set '{"default":{"mode":"dump"}}'
  mockbetter conf set @overrides.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			update, err := parse.JSON(args[0])
			if err != nil {
				return err
			}
			c, err := newAdminClient(cmd)
			if err != nil {
				return err
			}
			doc, err := c.MergeConfig(cmd.Context(), update)
			if err != nil {
				return formatError(err)
			}
			return printDocument(cmd, doc)
		},
	}

	cmd.AddCommand(get, set)
	return cmd
}

func newResetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Restore the factory configuration, dropping every tenant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newAdminClient(cmd)
			if err != nil {
				return err
			}
			doc, err := c.Reset(cmd.Context())
			if err != nil {
				return formatError(err)
			}
			return printDocument(cmd, doc)
		},
	}
	cliconfig.AddClientFlags(cmd.Flags())
	return cmd
}

// ============================================================================
// routes
// ============================================================================

func newRoutesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Manage the routes of a tenant",
	}
	cliconfig.AddClientFlags(cmd.PersistentFlags())
	cmd.AddCommand(newRoutesAddCommand(), newRoutesDeleteCommand())
	return cmd
}

func newRoutesAddCommand() *cobra.Command {
	var (
		method  string
		path    string
		code    string
		headers []string
		body    string
	)

	cmd := &cobra.Command{
		Use:   "add <tenant>",
		Short: "Register a route for a tenant",
		Long: `Register a route for a tenant. The path is a regular expression searched
for anywhere in the request path, tenant segment included. Routes are tried in
registration order and registering the same method and path twice is a no-op.`,
		Example: `  mockbetter routes add shop --method GET --path '/products$' --body '[{"id":1}]'
  mockbetter routes add shop --method ANY --path '/checkout' --code 503 --header 'Retry-After: 5'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			route := client.Route{
				Method: strings.ToUpper(method),
				Path:   path,
				Code:   code,
			}
			var err error
			if route.Headers, err = parse.Headers(headers); err != nil {
				return err
			}
			if body != "" {
				if route.Body, err = parse.JSON(body); err != nil {
					return err
				}
			}

			c, err := newAdminClient(cmd)
			if err != nil {
				return err
			}
			doc, err := c.AddRoute(cmd.Context(), args[0], route)
			if err != nil {
				return formatError(err)
			}
			return printDocument(cmd, doc)
		},
	}

	cmd.Flags().StringVarP(&method, "method", "m", config.MethodAny, "HTTP method, or ANY")
	cmd.Flags().StringVar(&path, "path", "", "regular expression matched against the request path")
	cmd.Flags().StringVarP(&code, "code", "s", "200", "response status code")
	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "response header as name:value (repeatable)")
	cmd.Flags().StringVarP(&body, "body", "b", "", "response body as JSON, or @file")
	return cmd
}

func newRoutesDeleteCommand() *cobra.Command {
	var method, path string

	cmd := &cobra.Command{
		Use:   "delete <tenant>",
		Short: "Remove routes of a tenant",
		Long: `Remove the routes of a tenant whose method and path equal the given
values. Omitted values match every route, so with neither flag every route of
the tenant is removed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newAdminClient(cmd)
			if err != nil {
				return err
			}
			criteria := client.RouteCriteria{Method: strings.ToUpper(method), Path: path}
			doc, err := c.DeleteRoutes(cmd.Context(), args[0], criteria)
			if err != nil {
				return formatError(err)
			}
			return printDocument(cmd, doc)
		},
	}

	cmd.Flags().StringVarP(&method, "method", "m", "", "only routes with this method")
	cmd.Flags().StringVar(&path, "path", "", "only routes with this path pattern")
	return cmd
}

// ============================================================================
// history
// ============================================================================

func newHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect or clear the request history of a tenant",
	}
	cliconfig.AddClientFlags(cmd.PersistentFlags())
	cmd.AddCommand(newHistoryGetCommand(), newHistoryClearCommand())
	return cmd
}

func newHistoryGetCommand() *cobra.Command {
	var filter client.HistoryFilter

	cmd := &cobra.Command{
		Use:   "get <tenant>",
		Short: "List the requests recorded for a tenant",
		Example: `  mockbetter history get shop
  mockbetter history get shop --method POST --limit 10
  mockbetter history get shop --filter '$.body.items' --json
  mockbetter history get shop --where 'method == "POST" && body?.qty > 2'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newAdminClient(cmd)
			if err != nil {
				return err
			}
			entries, err := c.History(cmd.Context(), args[0], &filter)
			if err != nil {
				return formatError(err)
			}

			if jsonOutput(cmd) {
				if entries == nil {
					entries = []client.HistoryEntry{}
				}
				return output.JSON(cmd.OutOrStdout(), entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No requests recorded")
				return nil
			}
			tw := output.Table(cmd.OutOrStdout())
			fmt.Fprintln(tw, "METHOD\tPATH\tBODY")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Method, e.Path, compact(e.Body))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&filter.Method, "method", "m", "", "only requests with this method")
	cmd.Flags().StringVar(&filter.Path, "path", "", "only requests whose path starts with this prefix")
	cmd.Flags().StringVar(&filter.JSONPath, "filter", "", "only requests for which this JSONPath yields a value")
	cmd.Flags().StringVar(&filter.Where, "where", "", "only requests for which this expression over method, path and body holds")
	cmd.Flags().IntVarP(&filter.Limit, "limit", "n", 0, "only the most recent requests")
	return cmd
}

func newHistoryClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear <tenant>",
		Short: "Empty the request history of a tenant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newAdminClient(cmd)
			if err != nil {
				return err
			}
			doc, err := c.ClearHistory(cmd.Context(), args[0])
			if err != nil {
				return formatError(err)
			}
			return printDocument(cmd, doc)
		},
	}
}

// compact renders a JSON body on one line, truncated for table output.
func compact(body json.RawMessage) string {
	const maxLen = 60
	s := strings.TrimSpace(string(body))
	if s == "" {
		s = "null"
	}
	if len(s) > maxLen {
		s = s[:maxLen-3] + "..."
	}
	return s
}
