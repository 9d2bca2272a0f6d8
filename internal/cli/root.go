package cli

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config is the resolved configuration shared by all commands.
// Precedence: flag > DYNQL_* environment > .dynql.yaml > default.
type Config struct {
	DB       string `mapstructure:"db"`
	Catalog  string `mapstructure:"catalog"`
	Addr     string `mapstructure:"addr"`
	LogLevel string `mapstructure:"log_level"`
}

// Configuration defaults.
const (
	DefaultDB       = "dynql.db"
	DefaultCatalog  = "catalog"
	DefaultAddr     = ":4000"
	DefaultLogLevel = "info"
)

// RootOptions holds global flags and the state PersistentPreRunE builds
// from them.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string

	Config Config
	Log    *zap.SugaredLogger

	v *viper.Viper
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the dynql CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{v: viper.New()}

	cmd := &cobra.Command{
		Use:   "dynql",
		Short: "dynql - GraphQL selections compiled to single SQL queries",
		Long: `Serve a GraphQL API over a relational catalog.

Every request is compiled into one SQL query that joins exactly the
requested relations and selects exactly the requested columns.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if err := opts.load(); err != nil {
				return WrapExitError(ExitCommandError, "load configuration", err)
			}
			log, err := newLogger(opts.logLevel(), cmd.ErrOrStderr())
			if err != nil {
				return WrapExitError(ExitCommandError, "configure logging", err)
			}
			opts.Log = log
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output (debug logging)")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.StringVar(&opts.ConfigFile, "config", "", "config file (default .dynql.yaml)")
	flags.String("db", DefaultDB, "SQLite database path")
	flags.String("catalog", DefaultCatalog, "directory holding the CUE entity catalog")
	flags.String("addr", DefaultAddr, "HTTP listen address")
	flags.String("log-level", DefaultLogLevel, "log level (debug|info|warn|error)")

	opts.bind(flags.Lookup("db"), "db")
	opts.bind(flags.Lookup("catalog"), "catalog")
	opts.bind(flags.Lookup("addr"), "addr")
	opts.bind(flags.Lookup("log-level"), "log_level")

	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewPlanCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

func (o *RootOptions) bind(flag *pflag.Flag, key string) {
	// BindPFlag only fails on a nil flag.
	_ = o.v.BindPFlag(key, flag)
}

// load resolves Config from flags, environment and the config file.
func (o *RootOptions) load() error {
	v := o.v
	v.SetEnvPrefix("DYNQL")
	v.AutomaticEnv()
	v.SetDefault("db", DefaultDB)
	v.SetDefault("catalog", DefaultCatalog)
	v.SetDefault("addr", DefaultAddr)
	v.SetDefault("log_level", DefaultLogLevel)

	if o.ConfigFile != "" {
		v.SetConfigFile(o.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read %s: %w", o.ConfigFile, err)
		}
	} else {
		v.SetConfigName(".dynql")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return fmt.Errorf("read .dynql.yaml: %w", err)
			}
		}
	}

	return v.Unmarshal(&o.Config)
}

func (o *RootOptions) logLevel() string {
	if o.Verbose {
		return "debug"
	}
	return o.Config.LogLevel
}

// formatter returns an OutputFormatter writing to cmd's streams.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// logger returns the configured logger, or a no-op one when a command runs
// without the root's PersistentPreRunE (as in unit tests).
func (o *RootOptions) logger() *zap.SugaredLogger {
	if o.Log == nil {
		return zap.NewNop().Sugar()
	}
	return o.Log
}

// newLogger builds a console logger at level writing to w.
func newLogger(level string, w io.Writer) (*zap.SugaredLogger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), lvl)
	return zap.New(core).Sugar(), nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
