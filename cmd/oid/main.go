// Package main provides the oid binary. It mints and inspects ObjectId-style
// identifiers locally and can serve them over HTTP.
//
// Commands:
//
//	oid serve            start the HTTP API (ledger, janitor and metrics included)
//	oid new [-n N]       print N fresh ids
//	oid inspect ID...    print the decoded fields of each id
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		slog.Error("command failed", "err", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "oid",
		Short:         "Generate and inspect 12-byte ObjectId-style identifiers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(serveCmd(), newCmd(), inspectCmd())
	return cmd
}
