package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/graphql-go/graphql"
	"github.com/spf13/cobra"

	"github.com/roach88/dynql/internal/compiler"
	"github.com/roach88/dynql/internal/querysql"
	"github.com/roach88/dynql/internal/querytree"
	"github.com/roach88/dynql/internal/resolver"
)

// PlanOptions holds flags for the plan command.
type PlanOptions struct {
	*RootOptions
	File string
	Vars string
}

// QueryPlan is the compiled form of one root field of a request.
type QueryPlan struct {
	Field   string         `json:"field"`
	Entity  string         `json:"entity"`
	Plan    map[string]any `json:"plan"`
	Skipped []string       `json:"skipped"`
	SQL     string         `json:"sql"`
	Args    []any          `json:"args"`
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "plan [request]",
		Short: "Show the query plan and SQL a request compiles to",
		Long: `Compile a GraphQL request against the catalog without touching the
database, printing each root field's plan and the SQL it renders to.

Examples:
  dynql plan '{ getPost(postId: 1) { title author { firstName } } }'
  dynql plan --file request.graphql --vars '{"id": 1}'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "read the request from a file")
	cmd.Flags().StringVar(&opts.Vars, "vars", "", "request variables as a JSON object")

	return cmd
}

func runPlan(opts *PlanOptions, args []string, cmd *cobra.Command) error {
	request, err := readRequest(args, opts.File)
	if err != nil {
		return err
	}
	vars, err := parseVariables(opts.Vars)
	if err != nil {
		return err
	}

	cat, err := loadCatalog(opts.Config.Catalog)
	if err != nil {
		return err
	}

	capture := &treeCapture{}
	schema, err := resolver.NewSchema(cat, capture)
	if err != nil {
		return WrapExitError(ExitFailure, "build schema", err)
	}

	res := graphql.Do(graphql.Params{
		Schema:         schema,
		RequestString:  request,
		VariableValues: vars,
		Context:        cmd.Context(),
	})
	if len(res.Errors) > 0 {
		msgs := make([]string, 0, len(res.Errors))
		for _, e := range res.Errors {
			msgs = append(msgs, e.Message)
		}
		_ = opts.formatter(cmd).Error(ErrCodeQuery, strings.Join(msgs, "; "), nil)
		return NewExitError(ExitFailure, "request has errors")
	}

	comp := compiler.New(cat)
	sqlc := querysql.NewSQLCompiler()
	// Root fields resolve in map order.
	sort.SliceStable(capture.calls, func(i, j int) bool {
		return capture.calls[i].tree.Name < capture.calls[j].tree.Name
	})

	plans := make([]QueryPlan, 0, len(capture.calls))
	for _, c := range capture.calls {
		compiled, err := comp.Compile(c.tree, c.marker)
		if err != nil {
			return WrapExitError(ExitFailure, fmt.Sprintf("compile %s", c.tree.Name), err)
		}
		q, err := sqlc.Compile(compiled.Plan)
		if err != nil {
			return WrapExitError(ExitFailure, fmt.Sprintf("render %s", c.tree.Name), err)
		}
		skipped := compiled.Skipped
		if skipped == nil {
			skipped = []string{}
		}
		plans = append(plans, QueryPlan{
			Field:   c.tree.Name,
			Entity:  c.marker,
			Plan:    compiled.Plan.Describe(),
			Skipped: skipped,
			SQL:     q.SQL,
			Args:    q.Args,
		})
	}

	return opts.formatter(cmd).Success(plans, func(w io.Writer) { writePlans(w, plans) })
}

func writePlans(w io.Writer, plans []QueryPlan) {
	for i, p := range plans {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s (%s)\n", p.Field, p.Entity)
		fmt.Fprintf(w, "  sql:  %s\n", p.SQL)
		fmt.Fprintf(w, "  args: %v\n", p.Args)
		if len(p.Skipped) > 0 {
			fmt.Fprintf(w, "  skipped: %s\n", strings.Join(p.Skipped, ", "))
		}
	}
}

// treeCapture is a resolver.Finder that records each selection tree and
// answers with nothing.
type treeCapture struct {
	mu    sync.Mutex
	calls []capturedTree
}

type capturedTree struct {
	tree   *querytree.Node
	marker string
}

func (c *treeCapture) add(tree *querytree.Node, marker string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, capturedTree{tree: tree, marker: marker})
}

func (c *treeCapture) FindOne(_ context.Context, tree *querytree.Node, marker string) (map[string]any, bool, error) {
	c.add(tree, marker)
	return nil, false, nil
}

func (c *treeCapture) Find(_ context.Context, tree *querytree.Node, marker string) ([]map[string]any, error) {
	c.add(tree, marker)
	return []map[string]any{}, nil
}
