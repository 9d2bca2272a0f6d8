package cli

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/dynql/internal/catalog"
	"github.com/roach88/dynql/internal/compiler"
	"github.com/roach88/dynql/internal/resolver"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Entities []string                   `json:"entities"`
	Queries  []string                   `json:"queries"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
	Cycles   []compiler.CycleWarning    `json:"cycles,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [catalog-dir]",
		Short: "Validate the entity catalog and its generated schema",
		Long: `Load the CUE entity catalog, lint it for problems that would surface at
request time, report relation cycles, and check that the GraphQL schema
generated from it builds.

The catalog directory defaults to the configured --catalog.

Exit codes:
  0 - Catalog valid (cycles are informational)
  1 - Lint problems or schema errors
  2 - Command error (missing directory, etc.)`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := rootOpts.Config.Catalog
			if len(args) == 1 {
				dir = args[0]
			}
			return runValidate(rootOpts, dir, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cat, err := loadCatalog(dir)
	if err != nil {
		var loadErr *catalog.LoadError
		if errors.As(err, &loadErr) {
			_ = formatter.Error(loadErr.Code, loadErr.Message, nil)
		}
		return err
	}

	formatter.VerboseLog("Loaded %d entities from %s", len(cat.Entities()), dir)

	result := ValidationResult{
		Entities: cat.Describe(),
		Queries:  []string{},
		Errors:   compiler.Lint(cat),
		Cycles:   compiler.AnalyzeCycles(cat),
	}

	schema, schemaErr := resolver.NewSchema(cat, nil)
	if schemaErr == nil {
		for name := range schema.QueryType().Fields() {
			result.Queries = append(result.Queries, name)
		}
		sort.Strings(result.Queries)
	}

	result.Valid = len(result.Errors) == 0 && schemaErr == nil

	if err := formatter.Success(result, func(w io.Writer) { writeValidation(w, result, schemaErr) }); err != nil {
		return err
	}

	switch {
	case schemaErr != nil:
		return WrapExitError(ExitFailure, "schema generation failed", schemaErr)
	case len(result.Errors) > 0:
		return NewExitError(ExitFailure, fmt.Sprintf("catalog has %d problem(s)", len(result.Errors)))
	}
	return nil
}

func writeValidation(w io.Writer, result ValidationResult, schemaErr error) {
	fmt.Fprintln(w, "Entities:")
	for _, e := range result.Entities {
		fmt.Fprintf(w, "  %s\n", e)
	}
	if len(result.Queries) > 0 {
		fmt.Fprintf(w, "Queries: %s\n", strings.Join(result.Queries, ", "))
	}
	for _, c := range result.Cycles {
		fmt.Fprintf(w, "  [%s] %s\n", c.Level, c.Message)
	}
	for _, e := range result.Errors {
		fmt.Fprintf(w, "  %s\n", e.Error())
	}
	if schemaErr != nil {
		fmt.Fprintf(w, "  schema: %v\n", schemaErr)
	}
	if result.Valid {
		fmt.Fprintln(w, "Catalog valid")
	} else {
		fmt.Fprintln(w, "Catalog invalid")
	}
}
