package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haukened/oid/internal/app"
	"github.com/haukened/oid/internal/domain"
)

func newCmd() *cobra.Command {
	var (
		n        int
		asJSON   bool
		hostname string
	)
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Print fresh ids, one per line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			factory, err := domain.NewProcessFactory(hostname, nil)
			if err != nil {
				return err
			}
			svc := &app.Service{IDs: factory}
			ids, err := svc.Mint(cmd.Context(), n)
			if err != nil {
				return fmt.Errorf("mint %d ids: %w", n, err)
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(ids)
			}
			for _, id := range ids {
				fmt.Fprintln(out, id)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&n, "count", "n", 1, "Number of ids to print")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print a JSON array instead of one id per line")
	cmd.Flags().StringVar(&hostname, "hostname", "", "Host name hashed into the ids (default: OS host name)")
	return cmd
}

func inspectCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "inspect ID...",
		Short: "Print the decoded fields of each id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := &app.Service{}
			out := cmd.OutOrStdout()
			for _, raw := range args {
				in, err := svc.Inspect(cmd.Context(), raw)
				if err != nil {
					return fmt.Errorf("inspect %q: %w", raw, err)
				}
				if asJSON {
					if err := json.NewEncoder(out).Encode(in); err != nil {
						return err
					}
					continue
				}
				fmt.Fprintf(out, "%s time=%s timestamp=%d machine=%06x pid=%d increment=%d\n",
					in.ID, in.Time.Format("2006-01-02T15:04:05Z"), in.Timestamp, in.Machine, in.ProcessID, in.Increment)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print one JSON object per id")
	return cmd
}
