/*
main.go - Application entry point

PURPOSE:
  Runs the stockd command tree. Configuration, store selection, the HTTP
  server and graceful shutdown live in package cli.

EXAMPLES:
  # Serve from CSV files in ./data
  ./server serve --driver csv --dir ./data

  # Serve a throwaway demo shop
  ./server serve --driver memory --scenario busy-day

  # One-off export and summary
  ./server export --out ./exports
  ./server total --format json

ENVIRONMENT:
  STOCK_* variables and an optional .env file; see config/config.go.

SEE ALSO:
  - cli/root.go: Command tree
  - cli/serve.go: Server startup
*/
package main

import (
	"fmt"
	"os"

	"github.com/warp/stock-engine/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
