package cli

import (
	"encoding/json"
	"fmt"

	"github.com/graphql-go/graphql"
	"github.com/spf13/cobra"

	"github.com/roach88/dynql/internal/resolver"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	File string
	Vars string
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query [request]",
		Short: "Execute a GraphQL request against the database",
		Long: `Execute a GraphQL request against the configured database and print
the response as JSON.

Examples:
  dynql query '{ getAllUsers(orderAscBy: "lastName") { firstName posts { title } } }'
  dynql query --db blog.db --file request.graphql --vars '{"id": 1}'

Exit codes:
  0 - Response has no errors
  1 - Response has errors
  2 - Command error (missing catalog, unreadable database, etc.)`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "read the request from a file")
	cmd.Flags().StringVar(&opts.Vars, "vars", "", "request variables as a JSON object")

	return cmd
}

func runQuery(opts *QueryOptions, args []string, cmd *cobra.Command) error {
	request, err := readRequest(args, opts.File)
	if err != nil {
		return err
	}
	vars, err := parseVariables(opts.Vars)
	if err != nil {
		return err
	}

	b, err := openBackend(opts.RootOptions)
	if err != nil {
		return err
	}
	defer b.Close()

	schema, err := resolver.NewSchema(b.catalog, b.repository)
	if err != nil {
		return WrapExitError(ExitFailure, "build schema", err)
	}

	res := graphql.Do(graphql.Params{
		Schema:         schema,
		RequestString:  request,
		VariableValues: vars,
		Context:        cmd.Context(),
	})

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("write response: %w", err)
	}

	if res.HasErrors() {
		return NewExitError(ExitFailure, fmt.Sprintf("response has %d error(s)", len(res.Errors)))
	}
	return nil
}
