package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// SeedResult reports a seeding run.
type SeedResult struct {
	Fixtures string `json:"fixtures"`
	DB       string `json:"db"`
	Rows     int    `json:"rows"`
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed <fixtures.yaml>",
		Short: "Load YAML fixtures into the database",
		Long: `Create the catalog's tables if needed and insert the rows of a YAML
fixture file, keyed by entity name. Rows are upserted by primary key, so
seeding the same file twice leaves the database unchanged.

Example:
  dynql seed --db blog.db fixtures/blog.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runSeed(opts *RootOptions, fixtures string, cmd *cobra.Command) error {
	b, err := openBackend(opts)
	if err != nil {
		return err
	}
	defer b.Close()

	n, err := b.store.SeedFile(cmd.Context(), fixtures)
	if err != nil {
		return WrapExitError(ExitFailure, "seed", err)
	}

	opts.logger().Infow("seeded database", "db", opts.Config.DB, "rows", n)

	result := SeedResult{Fixtures: fixtures, DB: opts.Config.DB, Rows: n}
	return opts.formatter(cmd).Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "Seeded %d row(s) from %s into %s\n", n, fixtures, opts.Config.DB)
	})
}
