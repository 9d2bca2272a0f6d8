package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/dynql/internal/resolver"
	"github.com/roach88/dynql/internal/server"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Fixtures string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the GraphQL API over HTTP",
		Long: `Serve the generated GraphQL API at /graphql, with /health and
Prometheus /metrics, until interrupted.

Examples:
  dynql serve
  dynql serve --addr :8080 --db blog.db --seed fixtures/blog.yaml
  DYNQL_LOG_LEVEL=debug dynql serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Fixtures, "seed", "", "seed the database from a YAML fixture file before serving")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	log := opts.logger()

	b, err := openBackend(opts.RootOptions)
	if err != nil {
		return err
	}
	defer b.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.Fixtures != "" {
		n, err := b.store.SeedFile(ctx, opts.Fixtures)
		if err != nil {
			return WrapExitError(ExitFailure, "seed", err)
		}
		log.Infow("seeded database", "fixtures", opts.Fixtures, "rows", n)
	}

	schema, err := resolver.NewSchema(b.catalog, b.repository)
	if err != nil {
		return WrapExitError(ExitFailure, "build schema", err)
	}

	srv := server.New(schema, log.Named("http"),
		server.WithHealthCheck(func(ctx context.Context) error {
			return b.store.DB().PingContext(ctx)
		}),
	)

	log.Infow("serving", "catalog", opts.Config.Catalog, "db", opts.Config.DB, "entities", len(b.catalog.Entities()))
	return srv.ListenAndServe(ctx, opts.Config.Addr)
}
