// Command dynql serves a GraphQL API whose requests compile to single SQL
// queries over a CUE-declared catalog.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/dynql/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
