package main

import (
	"fmt"
	"slices"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

func (c *cli) interactionsCmd() *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "interactions",
		Short: "Show the interaction log, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := c.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			log, err := store.Interactions()
			if err != nil {
				return err
			}
			slices.Reverse(log)
			if limit > 0 && len(log) > limit {
				log = log[:limit]
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(log)
			}
			if len(log) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No interactions recorded.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "WHEN\tKIND\tBUSINESS")
			for _, in := range log {
				fmt.Fprintf(w, "%s\t%s\t%s\n", humanize.Time(in.Timestamp), in.Kind, in.BusinessID)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum entries to show, 0 for all")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print entries as JSON")
	return cmd
}
