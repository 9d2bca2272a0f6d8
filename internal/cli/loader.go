package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/roach88/dynql/internal/catalog"
	"github.com/roach88/dynql/internal/compiler"
	"github.com/roach88/dynql/internal/repository"
	"github.com/roach88/dynql/internal/store"
)

// loadCatalog loads the CUE catalog in dir. A missing directory is a
// command error; a malformed catalog is a failure.
func loadCatalog(dir string) (*catalog.Catalog, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("catalog directory not found: %s", dir))
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "error accessing catalog directory", err)
	}
	if !info.IsDir() {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("not a directory: %s", dir))
	}

	cat, err := catalog.Load(dir)
	if err != nil {
		return nil, WrapExitError(ExitFailure, "load catalog", err)
	}
	return cat, nil
}

// backend is an opened store plus the repository over it.
type backend struct {
	catalog    *catalog.Catalog
	store      *store.Store
	repository *repository.Repository
}

func (b *backend) Close() error {
	return b.store.Close()
}

// openBackend loads the configured catalog and opens the configured
// database over it. The caller closes the backend.
func openBackend(opts *RootOptions) (*backend, error) {
	cat, err := loadCatalog(opts.Config.Catalog)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(opts.Config.DB, cat)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open database", err)
	}

	return &backend{
		catalog:    cat,
		store:      st,
		repository: repository.New(compiler.New(cat), st, opts.logger()),
	}, nil
}

// readRequest returns the request text: the positional argument, or the
// contents of file when the argument is absent.
func readRequest(args []string, file string) (string, error) {
	switch {
	case len(args) > 0 && file != "":
		return "", NewExitError(ExitCommandError, "pass the request as an argument or with --file, not both")
	case len(args) > 0:
		return args[0], nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", WrapExitError(ExitCommandError, "read request file", err)
		}
		return string(data), nil
	default:
		return "", NewExitError(ExitCommandError, "no request given")
	}
}

// parseVariables decodes a JSON object of request variables.
func parseVariables(raw string) (map[string]any, error) {
	if raw == "" {
		return nil, nil
	}
	vars := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &vars); err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid --vars JSON", err)
	}
	return vars, nil
}
